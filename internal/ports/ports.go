package ports

import (
	"context"
	"time"

	"tldrist/internal/domain"
)

// SourceReader pulls pending items from the external reading list.
type SourceReader interface {
	FetchPending(ctx context.Context, limit int) ([]domain.Item, error)
}

// ContentExtractor retrieves a URL and extracts its primary textual content.
// Failures are *domain.FetchError or *domain.ExtractError.
type ContentExtractor interface {
	Extract(ctx context.Context, item domain.Item) (domain.Extraction, error)
}

// Summarizer turns extracted content into summaries via a generative model.
// Failures are *domain.SummarizeError.
type Summarizer interface {
	Summarize(ctx context.Context, extraction domain.Extraction) (domain.Summary, error)
	ComposeIntro(ctx context.Context, successes []domain.Success) (string, error)
}

// DigestPublisher renders and delivers the digest of successful summaries.
type DigestPublisher interface {
	Publish(ctx context.Context, ref, intro string, successes []domain.Success) error
}

// TaskUpdater marks successfully summarized items complete in the source list.
type TaskUpdater interface {
	MarkDone(ctx context.Context, item domain.Item, summary domain.Summary) error
}

// RunRecorder persists run history for audit and dedup. Called by the app
// layer after a run finishes, never by the pipeline itself.
type RunRecorder interface {
	SaveRun(ctx context.Context, report domain.RunReport) error
	AlreadySummarized(ctx context.Context, ids []string) (map[string]bool, error)
}

// Scheduler controls when pipeline runs execute.
type Scheduler interface {
	Start(ctx context.Context, job func(time.Time)) error
	Stop(ctx context.Context) error
}
