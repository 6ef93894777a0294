package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"tldrist/internal/config"
	"tldrist/internal/domain"
	"tldrist/internal/ports"
)

const maxContentChars = 50000

const summarizePrompt = `You are a helpful assistant that summarizes articles concisely.

Please provide a summary of the following article. The summary should:
- Be 2-4 paragraphs long
- Capture the main points and key takeaways
- Be written in a clear, informative style
- Include any important facts, figures, or conclusions

Article Title: %s

Article Content:
%s

Summary:`

const introPrompt = `You are a helpful assistant creating a reading digest.

Based on the following article summaries, write a brief introduction (2-3 sentences) that highlights the main themes and most interesting insights.

Article Summaries:
%s

Introduction:`

// GeminiClient implements ports.Summarizer against the Gemini generateContent API.
type GeminiClient struct {
	endpoint   string
	model      string
	apiKey     string
	httpClient *http.Client
}

var _ ports.Summarizer = (*GeminiClient)(nil)

// NewGeminiClient builds a client from configuration.
func NewGeminiClient(cfg config.GeminiConfig) *GeminiClient {
	return &GeminiClient{
		endpoint: strings.TrimRight(cfg.Endpoint, "/"),
		model:    cfg.Model,
		apiKey:   cfg.APIKey,
		httpClient: &http.Client{
			Timeout: 90 * time.Second,
		},
	}
}

// Summarize generates a structured summary for one extraction. All failures,
// transport and unusable output alike, come back as *domain.SummarizeError.
func (c *GeminiClient) Summarize(ctx context.Context, extraction domain.Extraction) (domain.Summary, error) {
	content := truncate(extraction.Text, maxContentChars)
	if extraction.Kind == domain.KindPaper && len(extraction.Media) > 0 {
		content += "\n\nFigures in the paper:\n" + figureList(extraction.Media)
	}

	prompt := fmt.Sprintf(summarizePrompt, extraction.Title, content)
	text, err := c.generate(ctx, prompt, 0.3, 1024)
	if err != nil {
		return domain.Summary{}, &domain.SummarizeError{ItemID: extraction.ItemID, Cause: err}
	}
	if strings.TrimSpace(text) == "" {
		return domain.Summary{}, &domain.SummarizeError{ItemID: extraction.ItemID, Cause: fmt.Errorf("model returned empty output")}
	}

	return domain.Summary{ItemID: extraction.ItemID, Text: strings.TrimSpace(text)}, nil
}

// ComposeIntro writes the digest introduction from the succeeded summaries.
func (c *GeminiClient) ComposeIntro(ctx context.Context, successes []domain.Success) (string, error) {
	var sb strings.Builder
	for _, success := range successes {
		fmt.Fprintf(&sb, "**%s**\n%s\n\n", success.Extraction.Title, success.Summary.Text)
	}

	text, err := c.generate(ctx, fmt.Sprintf(introPrompt, sb.String()), 0.5, 512)
	if err != nil {
		return "", fmt.Errorf("compose intro: %w", err)
	}
	return strings.TrimSpace(text), nil
}

type generateRequest struct {
	Contents         []content        `json:"contents"`
	GenerationConfig generationConfig `json:"generationConfig"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generationConfig struct {
	Temperature     float64 `json:"temperature"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []part `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

func (c *GeminiClient) generate(ctx context.Context, prompt string, temperature float64, maxTokens int) (string, error) {
	if c.apiKey == "" || c.model == "" || c.endpoint == "" {
		return "", fmt.Errorf("gemini client misconfigured")
	}

	body, err := json.Marshal(generateRequest{
		Contents: []content{{Parts: []part{{Text: prompt}}}},
		GenerationConfig: generationConfig{
			Temperature:     temperature,
			MaxOutputTokens: maxTokens,
		},
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/models/%s:generateContent", c.endpoint, c.model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("call model: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", fmt.Errorf("gemini error %s: %s", resp.Status, strings.TrimSpace(string(payload)))
	}

	var parsed generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if len(parsed.Candidates) == 0 || len(parsed.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("no candidates in response")
	}

	return parsed.Candidates[0].Content.Parts[0].Text, nil
}

// truncate caps s at max bytes without splitting a multi-byte rune.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}

func figureList(figures []domain.Figure) string {
	var sb strings.Builder
	for i, fig := range figures {
		caption := fig.Caption
		if caption == "" {
			caption = "(no caption)"
		}
		fmt.Fprintf(&sb, "%d. %s\n", i+1, caption)
	}
	return sb.String()
}
