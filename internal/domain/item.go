package domain

// Kind distinguishes how an extracted document should be handled downstream.
type Kind string

const (
	// KindArticle is a standard web article.
	KindArticle Kind = "article"
	// KindPaper is a recognized scientific-paper page; its extraction may
	// carry figure references rendered into the digest.
	KindPaper Kind = "paper"
)

// Item is one pending unit of work pulled from the reading list.
// Immutable once fetched; identity is ID.
type Item struct {
	ID    string
	URL   string
	Title string
}

// Figure is a structured media element extracted from a paper page.
type Figure struct {
	URL     string
	Caption string
}

// Extraction is the Content Extractor output for one item.
type Extraction struct {
	ItemID    string
	Title     string
	Text      string
	Media     []Figure
	Kind      Kind
	WordCount int
}

// Summary is the Summarizer output for one item.
type Summary struct {
	ItemID string
	Text   string
}
