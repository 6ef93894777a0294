package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"tldrist/internal/domain"
	"tldrist/internal/ports"
)

const (
	defaultConcurrency  = 4
	defaultStageTimeout = 60 * time.Second
)

// Options bound a single pipeline run.
type Options struct {
	// MinRequired short-circuits the run when fewer items are available,
	// so a near-empty digest is never sent.
	MinRequired int
	// MaxCount caps how many items are attempted, taken in source order.
	// Zero means no cap.
	MaxCount int
	// DryRun executes extraction and summarization identically but suppresses
	// the publisher and the task updater.
	DryRun bool
}

// PipelineDeps wires all driven adapters into the orchestration pipeline.
type PipelineDeps struct {
	Source     ports.SourceReader
	Extractor  ports.ContentExtractor
	Summarizer ports.Summarizer
	Publisher  ports.DigestPublisher
	Updater    ports.TaskUpdater

	// Concurrency bounds the item worker pool; defaults to 4.
	Concurrency int
	// StageTimeout bounds each extract/summarize call so one slow upstream
	// cannot stall the whole run; defaults to 60s.
	StageTimeout time.Duration
	Logger       *slog.Logger
}

// Pipeline drives each item through extract -> summarize, isolates per-item
// failures, and aggregates outcomes into a RunReport. A failure in one item
// never aborts the others; the pipeline itself only fails when the source
// list cannot be fetched at all.
type Pipeline struct {
	source       ports.SourceReader
	extractor    ports.ContentExtractor
	summarizer   ports.Summarizer
	publisher    ports.DigestPublisher
	updater      ports.TaskUpdater
	concurrency  int
	stageTimeout time.Duration
	logger       *slog.Logger
}

// NewPipeline constructs the orchestration component.
func NewPipeline(deps PipelineDeps) *Pipeline {
	if deps.Concurrency <= 0 {
		deps.Concurrency = defaultConcurrency
	}
	if deps.StageTimeout <= 0 {
		deps.StageTimeout = defaultStageTimeout
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}

	return &Pipeline{
		source:       deps.Source,
		extractor:    deps.Extractor,
		summarizer:   deps.Summarizer,
		publisher:    deps.Publisher,
		updater:      deps.Updater,
		concurrency:  deps.Concurrency,
		stageTimeout: deps.StageTimeout,
		logger:       deps.Logger,
	}
}

// Execute fetches the pending batch from the source and runs it. A source
// failure is the only error surfaced to the caller; everything downstream is
// reported, not thrown.
func (p *Pipeline) Execute(ctx context.Context, opts Options) (domain.RunReport, error) {
	items, err := p.source.FetchPending(ctx, opts.MaxCount)
	if err != nil {
		return domain.RunReport{}, fmt.Errorf("fetch pending items: %w", err)
	}
	return p.Run(ctx, items, opts), nil
}

// Run processes the given items and returns the aggregated report. Items are
// processed independently with bounded parallelism; the succeeded list keeps
// source order regardless of completion order.
func (p *Pipeline) Run(ctx context.Context, items []domain.Item, opts Options) domain.RunReport {
	report := domain.RunReport{
		RunID:          uuid.NewString(),
		RequestedCount: len(items),
		DryRun:         opts.DryRun,
	}

	if len(items) < opts.MinRequired {
		report.Skipped = true
		p.logger.Info("run skipped, below minimum",
			"run_id", report.RunID, "available", len(items), "min_required", opts.MinRequired)
		return report
	}

	attempt := items
	if opts.MaxCount > 0 && len(attempt) > opts.MaxCount {
		attempt = attempt[:opts.MaxCount]
	}

	p.logger.Info("run started",
		"run_id", report.RunID, "available", len(items), "attempting", len(attempt), "dry_run", opts.DryRun)

	outcomes := p.processAll(ctx, attempt)
	for _, oc := range outcomes {
		switch {
		case oc.success != nil:
			report.Succeeded = append(report.Succeeded, *oc.success)
		case oc.failure != nil:
			report.Failed = append(report.Failed, *oc.failure)
		}
	}

	p.logger.Info("item processing complete",
		"run_id", report.RunID, "succeeded", len(report.Succeeded), "failed", len(report.Failed))

	if len(report.Succeeded) == 0 {
		return report
	}
	if opts.DryRun {
		return report
	}

	p.publish(ctx, &report)
	p.updateTasks(ctx, &report)
	return report
}

// outcome holds exactly one of success or failure for an attempted item.
type outcome struct {
	success *domain.Success
	failure *domain.Failure
}

// processAll fans the items out over a bounded worker pool. Outcomes land in
// an index-addressed slice so the partition is deterministic as a set and the
// succeeded order equals source order. Once cancellation is observed no new
// items are dispatched; in-flight ones run to completion.
func (p *Pipeline) processAll(ctx context.Context, items []domain.Item) []outcome {
	outcomes := make([]outcome, len(items))

	g := new(errgroup.Group)
	g.SetLimit(p.concurrency)

	for i, item := range items {
		if ctx.Err() != nil {
			p.logger.Warn("cancellation observed, stopping dispatch", "remaining", len(items)-i)
			break
		}
		g.Go(func() error {
			outcomes[i] = p.processItem(ctx, item)
			return nil
		})
	}
	_ = g.Wait()

	return outcomes
}

func (p *Pipeline) processItem(ctx context.Context, item domain.Item) outcome {
	extraction, err := p.extract(ctx, item)
	if err != nil {
		stage := domain.StageExtract
		var fetchErr *domain.FetchError
		if errors.As(err, &fetchErr) {
			stage = domain.StageFetch
		}
		p.logger.Warn("item failed", "item_id", item.ID, "url", item.URL, "stage", stage, "error", err)
		return outcome{failure: &domain.Failure{Item: item, Stage: stage, Err: err}}
	}

	summary, err := p.summarize(ctx, extraction)
	if err != nil {
		p.logger.Warn("item failed", "item_id", item.ID, "url", item.URL, "stage", domain.StageSummarize, "error", err)
		return outcome{failure: &domain.Failure{Item: item, Stage: domain.StageSummarize, Err: err}}
	}

	p.logger.Info("item processed", "item_id", item.ID, "url", item.URL, "kind", extraction.Kind)
	return outcome{success: &domain.Success{Item: item, Extraction: extraction, Summary: summary}}
}

func (p *Pipeline) extract(ctx context.Context, item domain.Item) (domain.Extraction, error) {
	stageCtx, cancel := context.WithTimeout(ctx, p.stageTimeout)
	defer cancel()
	return p.extractor.Extract(stageCtx, item)
}

func (p *Pipeline) summarize(ctx context.Context, extraction domain.Extraction) (domain.Summary, error) {
	stageCtx, cancel := context.WithTimeout(ctx, p.stageTimeout)
	defer cancel()
	return p.summarizer.Summarize(stageCtx, extraction)
}

// publish delivers the digest. A publisher failure is recorded on the report
// and never reclassifies item outcomes: the summarization work stays valid
// even when delivery fails.
func (p *Pipeline) publish(ctx context.Context, report *domain.RunReport) {
	if p.publisher == nil {
		return
	}

	intro := ""
	if p.summarizer != nil {
		composed, err := p.summarizer.ComposeIntro(ctx, report.Succeeded)
		if err != nil {
			p.logger.Warn("digest intro generation failed, sending without intro",
				"run_id", report.RunID, "error", err)
		} else {
			intro = composed
		}
	}

	ref := uuid.NewString()
	if err := p.publisher.Publish(ctx, ref, intro, report.Succeeded); err != nil {
		report.PublishErr = err.Error()
		p.logger.Error("digest publish failed", "run_id", report.RunID, "error", err)
		return
	}

	report.Published = true
	report.DigestRef = ref
	p.logger.Info("digest published", "run_id", report.RunID, "digest_ref", ref, "articles", len(report.Succeeded))
}

// updateTasks marks every succeeded item done. Per-item failures are counted
// on the report, not fatal to the batch.
func (p *Pipeline) updateTasks(ctx context.Context, report *domain.RunReport) {
	if p.updater == nil {
		return
	}

	for _, success := range report.Succeeded {
		if err := p.updater.MarkDone(ctx, success.Item, success.Summary); err != nil {
			report.UpdateFailed++
			p.logger.Warn("mark done failed", "run_id", report.RunID, "item_id", success.Item.ID, "error", err)
			continue
		}
		report.UpdatedCount++
	}
}
