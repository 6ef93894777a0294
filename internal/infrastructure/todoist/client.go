package todoist

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"tldrist/internal/config"
	"tldrist/internal/domain"
	"tldrist/internal/ports"
)

// urlPattern matches the first http(s) link inside task content.
var urlPattern = regexp.MustCompile(`https?://[^\s<>\[\]()]+`)

// Client talks to the Todoist REST API v1 and implements both the source
// reader and the task updater sides of the reading list.
type Client struct {
	baseURL    string
	token      string
	projectID  string
	httpClient *http.Client
}

var (
	_ ports.SourceReader = (*Client)(nil)
	_ ports.TaskUpdater  = (*Client)(nil)
)

// NewClient builds a client from configuration.
func NewClient(cfg config.TodoistConfig) *Client {
	return &Client{
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		token:     cfg.Token,
		projectID: cfg.ProjectID,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

type taskPayload struct {
	ID          string `json:"id"`
	Content     string `json:"content"`
	Description string `json:"description"`
}

type tasksResponse struct {
	Results []taskPayload `json:"results"`
}

// FetchPending returns tasks from the configured project that carry a URL,
// in the order the API returns them. Tasks without a URL are skipped; limit
// caps how many items are returned (0 means all).
func (c *Client) FetchPending(ctx context.Context, limit int) ([]domain.Item, error) {
	if c.token == "" || c.projectID == "" {
		return nil, fmt.Errorf("todoist client misconfigured")
	}

	endpoint := fmt.Sprintf("%s/tasks?%s", c.baseURL, url.Values{"project_id": {c.projectID}}.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("todoist error %s: %s", resp.Status, strings.TrimSpace(string(body)))
	}

	var payload tasksResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode tasks: %w", err)
	}

	items := make([]domain.Item, 0, len(payload.Results))
	for _, task := range payload.Results {
		link := urlPattern.FindString(task.Content)
		if link == "" {
			continue
		}
		items = append(items, domain.Item{
			ID:    task.ID,
			URL:   link,
			Title: strings.TrimSpace(strings.Replace(task.Content, link, "", 1)),
		})
		if limit > 0 && len(items) == limit {
			break
		}
	}

	return items, nil
}

// MarkDone writes the summary into the task description, then closes the
// task so it leaves the pending list.
func (c *Client) MarkDone(ctx context.Context, item domain.Item, summary domain.Summary) error {
	if err := c.updateDescription(ctx, item.ID, formatDescription(summary)); err != nil {
		return err
	}
	return c.closeTask(ctx, item.ID)
}

func (c *Client) updateDescription(ctx context.Context, taskID, description string) error {
	body, err := json.Marshal(map[string]string{"description": description})
	if err != nil {
		return fmt.Errorf("marshal description: %w", err)
	}

	endpoint := fmt.Sprintf("%s/tasks/%s", c.baseURL, url.PathEscape(taskID))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("update task %s: %w", taskID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("update task %s: todoist error %s", taskID, resp.Status)
	}
	return nil
}

func (c *Client) closeTask(ctx context.Context, taskID string) error {
	endpoint := fmt.Sprintf("%s/tasks/%s/close", c.baseURL, url.PathEscape(taskID))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, nil)
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("close task %s: %w", taskID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("close task %s: todoist error %s", taskID, resp.Status)
	}
	return nil
}

func formatDescription(summary domain.Summary) string {
	date := time.Now().UTC().Format("2006-01-02")
	return fmt.Sprintf("## Summary\n\n%s\n\n---\n*Processed by tldrist on %s*", summary.Text, date)
}
