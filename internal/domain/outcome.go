package domain

// Stage names the pipeline step at which a per-item failure is attributed.
type Stage string

const (
	StageFetch     Stage = "fetch"
	StageExtract   Stage = "extract"
	StageSummarize Stage = "summarize"
)

// Success is a fully processed item.
type Success struct {
	Item       Item
	Extraction Extraction
	Summary    Summary
}

// Failure records the stage and cause of a per-item failure. The error is
// carried as data; it never propagates past the orchestrator.
type Failure struct {
	Item  Item
	Stage Stage
	Err   error
}

// RunReport is the per-invocation record of what was attempted, what
// succeeded or failed, and whether delivery happened. It is created fresh
// per run and never persisted by the pipeline itself.
type RunReport struct {
	RunID          string
	RequestedCount int
	Succeeded      []Success
	Failed         []Failure
	Skipped        bool
	DryRun         bool
	Published      bool
	DigestRef      string
	PublishErr     string
	UpdatedCount   int
	UpdateFailed   int
}

// Attempted returns how many items resolved to an outcome.
func (r RunReport) Attempted() int {
	return len(r.Succeeded) + len(r.Failed)
}

// Run status values reported to callers.
const (
	RunSuccess        = "success"
	RunPartialSuccess = "partial_success"
	RunFailed         = "failed"
	RunSkipped        = "skipped"
)

// Status collapses the report into a single caller-facing status.
func (r RunReport) Status() string {
	switch {
	case r.Skipped:
		return RunSkipped
	case r.Attempted() > 0 && len(r.Succeeded) == 0:
		return RunFailed
	case len(r.Failed) > 0 || r.PublishErr != "" || r.UpdateFailed > 0:
		return RunPartialSuccess
	default:
		return RunSuccess
	}
}
