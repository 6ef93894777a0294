package extract

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"tldrist/internal/domain"
)

// paperStrategy handles arXiv-style paper pages: the abstract is the text
// worth summarizing, and figures become structured media elements the digest
// can reference.
type paperStrategy struct {
	minWords int
}

func newPaperStrategy(minWords int) *paperStrategy {
	return &paperStrategy{minWords: minWords}
}

func (s *paperStrategy) Kind() domain.Kind {
	return domain.KindPaper
}

func (s *paperStrategy) Matches(u *url.URL) bool {
	host := strings.ToLower(u.Hostname())
	return host == "arxiv.org" || strings.HasSuffix(host, ".arxiv.org")
}

func (s *paperStrategy) Extract(item domain.Item, pageURL *url.URL, html string) (domain.Extraction, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return domain.Extraction{}, &domain.ExtractError{URL: item.URL, Reason: fmt.Sprintf("parse document: %v", err)}
	}

	title := strings.TrimSpace(strings.TrimPrefix(
		strings.TrimSpace(doc.Find("h1.title").First().Text()), "Title:"))
	abstract := strings.TrimSpace(strings.TrimPrefix(
		strings.TrimSpace(doc.Find("blockquote.abstract").First().Text()), "Abstract:"))

	if abstract == "" {
		return domain.Extraction{}, &domain.ExtractError{URL: item.URL, Reason: "no abstract found"}
	}

	words := len(strings.Fields(abstract))
	if words < s.minWords {
		return domain.Extraction{}, &domain.ExtractError{
			URL:    item.URL,
			Reason: fmt.Sprintf("abstract too short (%d words)", words),
		}
	}

	if title == "" {
		title = item.Title
	}

	return domain.Extraction{
		ItemID:    item.ID,
		Title:     title,
		Text:      abstract,
		Media:     extractFigures(doc, pageURL),
		Kind:      domain.KindPaper,
		WordCount: words,
	}, nil
}

// extractFigures collects figure images with their captions, resolving
// relative sources against the page URL. HTML renderings of papers carry
// these; plain abstract pages simply yield none.
func extractFigures(doc *goquery.Document, pageURL *url.URL) []domain.Figure {
	var figures []domain.Figure

	doc.Find("figure").Each(func(_ int, fig *goquery.Selection) {
		src, ok := fig.Find("img").First().Attr("src")
		if !ok || src == "" {
			return
		}

		ref, err := url.Parse(src)
		if err != nil {
			return
		}

		figures = append(figures, domain.Figure{
			URL:     pageURL.ResolveReference(ref).String(),
			Caption: strings.TrimSpace(fig.Find("figcaption").First().Text()),
		})
	})

	return figures
}
