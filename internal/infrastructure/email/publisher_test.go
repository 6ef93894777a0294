package email

import (
	"context"
	"errors"
	"net/smtp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tldrist/internal/domain"
)

func sampleSuccesses() []domain.Success {
	return []domain.Success{
		{
			Item: domain.Item{ID: "t1", URL: "https://example.com/post"},
			Extraction: domain.Extraction{
				ItemID: "t1",
				Title:  "Why Queues Back Up",
				Kind:   domain.KindArticle,
			},
			Summary: domain.Summary{ItemID: "t1", Text: "First paragraph.\n\nSecond paragraph."},
		},
		{
			Item: domain.Item{ID: "t2", URL: "https://arxiv.org/abs/2501.00001"},
			Extraction: domain.Extraction{
				ItemID: "t2",
				Title:  "Sparse Attention at Scale",
				Kind:   domain.KindPaper,
				Media: []domain.Figure{
					{URL: "https://arxiv.org/html/2501.00001/fig1.png", Caption: "Figure 1: throughput"},
				},
			},
			Summary: domain.Summary{ItemID: "t2", Text: "Paper summary."},
		},
	}
}

func TestRenderHTML(t *testing.T) {
	t.Parallel()

	body, err := RenderHTML("Two reads this week.", sampleSuccesses())
	require.NoError(t, err)

	assert.Contains(t, body, "Two reads this week.")
	assert.Contains(t, body, `href="https://example.com/post"`)
	assert.Contains(t, body, "Why Queues Back Up")
	assert.Contains(t, body, "<p>First paragraph.</p>")
	assert.Contains(t, body, "<p>Second paragraph.</p>")
	assert.Contains(t, body, `src="https://arxiv.org/html/2501.00001/fig1.png"`)
	assert.Contains(t, body, "Figure 1: throughput")
}

func TestRenderHTMLStripsMarkup(t *testing.T) {
	t.Parallel()

	successes := []domain.Success{{
		Item:       domain.Item{ID: "t1", URL: "https://example.com"},
		Extraction: domain.Extraction{ItemID: "t1", Title: "Title"},
		Summary:    domain.Summary{ItemID: "t1", Text: `<script>alert("x")</script>Plain text.`},
	}}

	body, err := RenderHTML("", successes)
	require.NoError(t, err)

	assert.NotContains(t, body, "<script>")
	assert.Contains(t, body, "Plain text.")
}

func TestRenderHTMLSkipsIntroWhenEmpty(t *testing.T) {
	t.Parallel()

	body, err := RenderHTML("", sampleSuccesses())
	require.NoError(t, err)

	assert.NotContains(t, body, `class="intro"`)
}

func TestRenderHTMLFiguresOnlyForPapers(t *testing.T) {
	t.Parallel()

	successes := []domain.Success{{
		Item: domain.Item{ID: "t1", URL: "https://example.com"},
		Extraction: domain.Extraction{
			ItemID: "t1",
			Title:  "Article",
			Kind:   domain.KindArticle,
			Media:  []domain.Figure{{URL: "https://example.com/fig.png"}},
		},
		Summary: domain.Summary{ItemID: "t1", Text: "Body."},
	}}

	body, err := RenderHTML("", successes)
	require.NoError(t, err)

	assert.NotContains(t, body, "fig.png")
}

func TestPublishSendsMessage(t *testing.T) {
	t.Parallel()

	var (
		gotAddr string
		gotFrom string
		gotTo   []string
		gotMsg  []byte
	)

	p := NewPublisher("smtp.gmail.com", 587, "user@example.com", "app-pass", "user@example.com", []string{"reader@example.com"})
	p.send = func(addr string, _ smtp.Auth, from string, to []string, msg []byte) error {
		gotAddr, gotFrom, gotTo, gotMsg = addr, from, to, msg
		return nil
	}
	p.now = func() time.Time { return time.Date(2025, time.March, 3, 7, 0, 0, 0, time.UTC) }

	err := p.Publish(context.Background(), "run-123", "Intro.", sampleSuccesses())
	require.NoError(t, err)

	assert.Equal(t, "smtp.gmail.com:587", gotAddr)
	assert.Equal(t, "user@example.com", gotFrom)
	assert.Equal(t, []string{"reader@example.com"}, gotTo)

	msg := string(gotMsg)
	assert.Contains(t, msg, "Subject: tl;drist reading digest - March 3, 2025")
	assert.Contains(t, msg, "Message-ID: <run-123@tldrist>")
	assert.Contains(t, msg, `Content-Type: text/html; charset="UTF-8"`)
	assert.Contains(t, msg, "Why Queues Back Up")
}

func TestPublishSendFailure(t *testing.T) {
	t.Parallel()

	p := NewPublisher("smtp.gmail.com", 587, "u", "p", "u@example.com", []string{"r@example.com"})
	p.send = func(string, smtp.Auth, string, []string, []byte) error {
		return errors.New("dial tcp: connection refused")
	}

	err := p.Publish(context.Background(), "ref", "", sampleSuccesses())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to send")
}

func TestPublishNoRecipients(t *testing.T) {
	t.Parallel()

	p := NewPublisher("smtp.gmail.com", 587, "u", "p", "u@example.com", nil)

	err := p.Publish(context.Background(), "ref", "", sampleSuccesses())
	require.Error(t, err)
}
