package email

import (
	"fmt"
	"html"
	"html/template"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"

	"tldrist/internal/domain"
)

var digestTemplate = template.Must(template.New("digest").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<style>
body { font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; font-size: 17px; max-width: 600px; margin: 0 auto; padding: 20px; color: #333; line-height: 1.7; }
h1 { color: #1a1a1a; font-size: 26px; border-bottom: 2px solid #e0e0e0; padding-bottom: 10px; }
h2 { color: #2c2c2c; font-size: 22px; margin-top: 30px; }
.intro { background: #f8f9fa; padding: 20px; border-radius: 8px; margin-bottom: 30px; }
.article { margin-bottom: 40px; padding-bottom: 25px; border-bottom: 1px solid #e0e0e0; }
.article:last-child { border-bottom: none; }
.article-title { color: #1a73e8; text-decoration: none; font-size: 1.2em; font-weight: 600; }
.summary { margin-top: 15px; }
.figure-container { margin: 15px 0; text-align: center; }
.article-figure { max-width: 100%; height: auto; border: 1px solid #e0e0e0; border-radius: 4px; }
.figure-caption { font-size: 0.9em; color: #666; margin-top: 8px; font-style: italic; }
.footer { margin-top: 40px; padding-top: 20px; border-top: 1px solid #e0e0e0; font-size: 0.9em; color: #666; }
</style>
</head>
<body>
<h1>tl;drist reading digest</h1>
{{if .Intro}}<div class="intro"><p>{{.Intro}}</p></div>{{end}}
<h2>This Week's Articles</h2>
{{range .Articles}}<div class="article">
<a href="{{.URL}}" class="article-title">{{.Title}}</a>
<div class="summary">
{{range .Paragraphs}}<p>{{.}}</p>
{{end}}</div>
{{range .Figures}}<div class="figure-container">
<img src="{{.URL}}" class="article-figure" alt="Key figure from paper">
{{if .Caption}}<p class="figure-caption">{{.Caption}}</p>{{end}}
</div>
{{end}}</div>
{{end}}<div class="footer">
<p>This digest was generated by tldrist using AI summarization.</p>
<p>Processed articles are closed in your reading list with summaries added to their descriptions.</p>
</div>
</body>
</html>`))

type digestData struct {
	Intro    string
	Articles []digestArticle
}

type digestArticle struct {
	Title      string
	URL        string
	Paragraphs []string
	Figures    []domain.Figure
}

// textPolicy strips any markup the model or the extractor may have left in
// free text before it enters the template.
var textPolicy = bluemonday.StrictPolicy()

// sanitizeText drops markup and unescapes entities so the template is the
// only place escaping happens.
func sanitizeText(s string) string {
	return html.UnescapeString(textPolicy.Sanitize(s))
}

// Subject returns the digest subject line for the given date.
func Subject(now time.Time) string {
	return fmt.Sprintf("tl;drist reading digest - %s", now.UTC().Format("January 2, 2006"))
}

// RenderHTML renders the digest body from the ordered successes.
func RenderHTML(intro string, successes []domain.Success) (string, error) {
	data := digestData{
		Intro:    sanitizeText(intro),
		Articles: make([]digestArticle, 0, len(successes)),
	}

	for _, success := range successes {
		article := digestArticle{
			Title: success.Extraction.Title,
			URL:   success.Item.URL,
		}
		if article.Title == "" {
			article.Title = success.Item.URL
		}

		clean := sanitizeText(success.Summary.Text)
		for _, paragraph := range strings.Split(clean, "\n\n") {
			if trimmed := strings.TrimSpace(paragraph); trimmed != "" {
				article.Paragraphs = append(article.Paragraphs, trimmed)
			}
		}

		if success.Extraction.Kind == domain.KindPaper {
			article.Figures = success.Extraction.Media
		}

		data.Articles = append(data.Articles, article)
	}

	var sb strings.Builder
	if err := digestTemplate.Execute(&sb, data); err != nil {
		return "", fmt.Errorf("render digest: %w", err)
	}
	return sb.String(), nil
}
