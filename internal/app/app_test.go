package app

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tldrist/internal/config"
	"tldrist/internal/domain"
	"tldrist/internal/ports"
	"tldrist/internal/usecase"
)

type stubSource struct {
	items []domain.Item
	err   error
}

func (s *stubSource) FetchPending(context.Context, int) ([]domain.Item, error) {
	return s.items, s.err
}

type stubRecorder struct {
	seen     map[string]bool
	seenErr  error
	saved    []domain.RunReport
	saveErr  error
	askedIDs []string
}

func (r *stubRecorder) SaveRun(_ context.Context, report domain.RunReport) error {
	r.saved = append(r.saved, report)
	return r.saveErr
}

func (r *stubRecorder) AlreadySummarized(_ context.Context, ids []string) (map[string]bool, error) {
	r.askedIDs = ids
	if r.seenErr != nil {
		return nil, r.seenErr
	}
	if r.seen == nil {
		return map[string]bool{}, nil
	}
	return r.seen, nil
}

// historyRecorder mimics the Postgres repository contract: everything saved
// becomes visible to AlreadySummarized.
type historyRecorder struct {
	stubRecorder
}

func (r *historyRecorder) SaveRun(ctx context.Context, report domain.RunReport) error {
	if r.seen == nil {
		r.seen = map[string]bool{}
	}
	for _, s := range report.Succeeded {
		r.seen[s.Item.ID] = true
	}
	return r.stubRecorder.SaveRun(ctx, report)
}

type stubExtractor struct{}

func (stubExtractor) Extract(_ context.Context, item domain.Item) (domain.Extraction, error) {
	return domain.Extraction{}, &domain.ExtractError{URL: item.URL, Reason: "no content"}
}

type passingExtractor struct{}

func (passingExtractor) Extract(_ context.Context, item domain.Item) (domain.Extraction, error) {
	return domain.Extraction{ItemID: item.ID, Title: "Title", Text: "text", Kind: domain.KindArticle, WordCount: 100}, nil
}

type passingSummarizer struct{}

func (passingSummarizer) Summarize(_ context.Context, ex domain.Extraction) (domain.Summary, error) {
	return domain.Summary{ItemID: ex.ItemID, Text: "summary"}, nil
}

func (passingSummarizer) ComposeIntro(context.Context, []domain.Success) (string, error) {
	return "intro", nil
}

func newTestApp(t *testing.T, source *stubSource, recorder ports.RunRecorder) *Application {
	t.Helper()

	cfg := config.Load()
	a, err := New(context.Background(), cfg, nil)
	require.NoError(t, err)

	a.source = source
	a.recorder = recorder
	a.pipeline = usecase.NewPipeline(usecase.PipelineDeps{
		Source:    source,
		Extractor: stubExtractor{},
	})
	return a
}

func TestExecuteRecordsRun(t *testing.T) {
	source := &stubSource{}
	recorder := &stubRecorder{}
	a := newTestApp(t, source, recorder)

	report, err := a.Execute(context.Background(), usecase.Options{})
	require.NoError(t, err)

	require.Len(t, recorder.saved, 1)
	assert.Equal(t, report.RunID, recorder.saved[0].RunID)
}

func TestExecuteFiltersAlreadySummarized(t *testing.T) {
	source := &stubSource{items: []domain.Item{
		{ID: "t1", URL: "https://example.com/1"},
		{ID: "t2", URL: "https://example.com/2"},
	}}
	recorder := &stubRecorder{seen: map[string]bool{"t1": true}}
	a := newTestApp(t, source, recorder)

	// min 2 cannot be met once t1 is filtered out
	report, err := a.Execute(context.Background(), usecase.Options{MinRequired: 2})
	require.NoError(t, err)

	assert.Equal(t, []string{"t1", "t2"}, recorder.askedIDs)
	assert.True(t, report.Skipped)
	assert.Equal(t, 1, report.RequestedCount)
}

func TestExecuteHistoryLookupFailureKeepsItems(t *testing.T) {
	source := &stubSource{items: []domain.Item{{ID: "t1", URL: "https://example.com/1"}}}
	recorder := &stubRecorder{seenErr: errors.New("db down")}
	a := newTestApp(t, source, recorder)

	report, err := a.Execute(context.Background(), usecase.Options{MinRequired: 1})
	require.NoError(t, err)

	assert.Equal(t, 1, report.RequestedCount)
	assert.False(t, report.Skipped)
}

func TestExecuteDryRunNotRecorded(t *testing.T) {
	source := &stubSource{items: []domain.Item{{ID: "t1", URL: "https://example.com/1"}}}
	recorder := &stubRecorder{}
	a := newTestApp(t, source, recorder)
	a.pipeline = usecase.NewPipeline(usecase.PipelineDeps{
		Source:     source,
		Extractor:  passingExtractor{},
		Summarizer: passingSummarizer{},
	})

	report, err := a.Execute(context.Background(), usecase.Options{MinRequired: 1, DryRun: true})
	require.NoError(t, err)

	require.Len(t, report.Succeeded, 1)
	assert.Empty(t, recorder.saved, "dry run must leave history untouched")
}

func TestDryRunDoesNotConsumeItems(t *testing.T) {
	source := &stubSource{items: []domain.Item{{ID: "t1", URL: "https://example.com/1"}}}
	recorder := &historyRecorder{}
	a := newTestApp(t, source, recorder)
	a.pipeline = usecase.NewPipeline(usecase.PipelineDeps{
		Source:     source,
		Extractor:  passingExtractor{},
		Summarizer: passingSummarizer{},
	})

	dry, err := a.Execute(context.Background(), usecase.Options{MinRequired: 1, DryRun: true})
	require.NoError(t, err)
	require.Len(t, dry.Succeeded, 1)

	real, err := a.Execute(context.Background(), usecase.Options{MinRequired: 1})
	require.NoError(t, err)
	assert.Equal(t, 1, real.Attempted(), "item should still be attempted by the real run")
	require.Len(t, real.Succeeded, 1)
	require.Len(t, recorder.saved, 1, "only the real run is recorded")

	// Once the real run is in history the item is filtered out.
	again, err := a.Execute(context.Background(), usecase.Options{MinRequired: 1})
	require.NoError(t, err)
	assert.True(t, again.Skipped)
	assert.Zero(t, again.Attempted())
}

func TestExecuteSurfacesSourceError(t *testing.T) {
	source := &stubSource{err: errors.New("todoist: status 503")}
	recorder := &stubRecorder{}
	a := newTestApp(t, source, recorder)

	_, err := a.Execute(context.Background(), usecase.Options{})
	require.Error(t, err)
	assert.Empty(t, recorder.saved)
}
