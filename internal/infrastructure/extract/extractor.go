package extract

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"

	"tldrist/internal/config"
	"tldrist/internal/domain"
	"tldrist/internal/ports"
)

const maxBodyBytes = 5 << 20

// Strategy extracts content for one recognized document family. The first
// strategy whose Matches returns true handles the page; the generic article
// path is the fallback.
type Strategy interface {
	Kind() domain.Kind
	Matches(u *url.URL) bool
	Extract(item domain.Item, pageURL *url.URL, html string) (domain.Extraction, error)
}

// Extractor fetches a URL and extracts its primary textual content.
type Extractor struct {
	client     *http.Client
	userAgent  string
	minWords   int
	strategies []Strategy
	converter  *md.Converter
}

var _ ports.ContentExtractor = (*Extractor)(nil)

// New wires an extractor from configuration. The paper strategy is
// registered by default.
func New(cfg config.ExtractorConfig) *Extractor {
	timeout := cfg.Timeout()
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	minWords := cfg.MinWords
	if minWords <= 0 {
		minWords = 50
	}

	e := &Extractor{
		client: &http.Client{
			Timeout: timeout,
		},
		userAgent: cfg.UserAgent,
		minWords:  minWords,
		converter: md.NewConverter("", true, nil),
	}
	e.strategies = append(e.strategies, newPaperStrategy(minWords))
	return e
}

// Extract retrieves the item's URL and extracts readable content. Transport
// failures come back as *domain.FetchError, empty or unusable documents as
// *domain.ExtractError.
func (e *Extractor) Extract(ctx context.Context, item domain.Item) (domain.Extraction, error) {
	pageURL, err := url.Parse(item.URL)
	if err != nil || (pageURL.Scheme != "http" && pageURL.Scheme != "https") {
		return domain.Extraction{}, &domain.FetchError{URL: item.URL, Cause: fmt.Errorf("unsupported url")}
	}

	html, err := e.fetchHTML(ctx, item.URL)
	if err != nil {
		return domain.Extraction{}, err
	}

	for _, strategy := range e.strategies {
		if strategy.Matches(pageURL) {
			return strategy.Extract(item, pageURL, html)
		}
	}
	return e.extractArticle(item, pageURL, html)
}

func (e *Extractor) fetchHTML(ctx context.Context, rawURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", &domain.FetchError{URL: rawURL, Cause: err}
	}
	req.Header.Set("User-Agent", e.userAgent)

	resp, err := e.client.Do(req)
	if err != nil {
		return "", &domain.FetchError{URL: rawURL, Cause: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", &domain.FetchError{URL: rawURL, Cause: fmt.Errorf("HTTP %d", resp.StatusCode)}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return "", &domain.FetchError{URL: rawURL, Cause: err}
	}
	return string(body), nil
}

// extractArticle is the generic path: pre-clean the DOM, let readability
// find the main content, then convert it to markdown for the model.
func (e *Extractor) extractArticle(item domain.Item, pageURL *url.URL, html string) (domain.Extraction, error) {
	cleaned := preClean(html)

	article, err := readability.FromReader(strings.NewReader(cleaned), pageURL)
	if err != nil {
		return domain.Extraction{}, &domain.ExtractError{URL: item.URL, Reason: fmt.Sprintf("readability: %v", err)}
	}

	text, err := e.converter.ConvertString(article.Content)
	if err != nil || strings.TrimSpace(text) == "" {
		// Plain text render is a usable fallback when markdown conversion chokes.
		text = article.TextContent
	}
	text = strings.TrimSpace(text)

	words := len(strings.Fields(text))
	if words < e.minWords {
		return domain.Extraction{}, &domain.ExtractError{
			URL:    item.URL,
			Reason: fmt.Sprintf("content too short (%d words)", words),
		}
	}

	title := strings.TrimSpace(article.Title)
	if title == "" {
		title = item.Title
	}

	return domain.Extraction{
		ItemID:    item.ID,
		Title:     title,
		Text:      text,
		Kind:      domain.KindArticle,
		WordCount: words,
	}, nil
}

// preClean strips non-content elements before readability runs, so boiler-
// plate never leaks into the extracted text.
func preClean(html string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return html
	}

	doc.Find("script, style, noscript, nav, header, footer, aside, iframe, form").Remove()
	doc.Find("[class*='social'], [class*='share'], [class*='comment'], [id*='comment']").Remove()

	cleaned, err := doc.Html()
	if err != nil || cleaned == "" {
		return html
	}
	return cleaned
}
