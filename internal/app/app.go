// Package app wires configuration into the running service.
package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/lib/pq"

	"tldrist/internal/config"
	"tldrist/internal/domain"
	"tldrist/internal/infrastructure/email"
	"tldrist/internal/infrastructure/extract"
	"tldrist/internal/infrastructure/llm"
	"tldrist/internal/infrastructure/scheduler"
	"tldrist/internal/infrastructure/storage"
	"tldrist/internal/infrastructure/todoist"
	"tldrist/internal/logging"
	"tldrist/internal/ports"
	"tldrist/internal/server"
	"tldrist/internal/usecase"
)

// Application wires configs to use cases and lifecycle orchestration.
type Application struct {
	cfg      config.Config
	logger   *slog.Logger
	source   ports.SourceReader
	pipeline *usecase.Pipeline
	recorder ports.RunRecorder
	server   *server.Server
	sched    ports.Scheduler
	db       *sql.DB
}

// New builds the runnable application. The run-history database is optional;
// without a DSN runs are simply not recorded.
func New(ctx context.Context, cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level)
	}

	source := todoist.NewClient(cfg.Todoist)
	extractor := extract.New(cfg.Extractor)
	summarizer := llm.NewGeminiClient(cfg.Gemini)

	var publisher ports.DigestPublisher
	if cfg.Email.SMTPHost != "" && len(cfg.Email.To) > 0 {
		publisher = email.NewPublisher(
			cfg.Email.SMTPHost,
			cfg.Email.SMTPPort,
			cfg.Email.Username,
			cfg.Email.Password,
			cfg.Email.From,
			cfg.Email.To,
		)
	} else {
		baseLogger.Warn("email delivery not configured, digests will not be sent")
	}

	var db *sql.DB
	if cfg.Database.DSN != "" {
		var err error
		db, err = sql.Open("postgres", cfg.Database.DSN)
		if err != nil {
			return nil, fmt.Errorf("open database: %w", err)
		}
		if err := storage.EnsureSchema(ctx, db); err != nil {
			_ = db.Close()
			return nil, err
		}
	}
	recorder := storage.NewPostgresRepository(db)

	pipeline := usecase.NewPipeline(usecase.PipelineDeps{
		Source:       source,
		Extractor:    extractor,
		Summarizer:   summarizer,
		Publisher:    publisher,
		Updater:      source,
		Concurrency:  cfg.Pipeline.Concurrency,
		StageTimeout: cfg.Pipeline.StageTimeout(),
		Logger:       baseLogger.With("component", "pipeline"),
	})

	a := &Application{
		cfg:      cfg,
		logger:   baseLogger,
		source:   source,
		pipeline: pipeline,
		recorder: recorder,
		db:       db,
	}

	a.server = server.New(a, a.DefaultOptions(), baseLogger.With("component", "server"))
	a.sched = scheduler.NewCronScheduler(
		cfg.Scheduler.CronExpression,
		cfg.Scheduler.Location(),
		baseLogger.With("component", "scheduler"),
	)

	return a, nil
}

// DefaultOptions derives per-run options from configuration.
func (a *Application) DefaultOptions() usecase.Options {
	return usecase.Options{
		MinRequired: a.cfg.Pipeline.MinRequired,
		MaxCount:    a.cfg.Pipeline.MaxCount,
		DryRun:      a.cfg.Pipeline.DryRun,
	}
}

// Execute runs the pipeline once and records the outcome. Items already
// summarized by earlier runs are filtered out before processing. Recording
// failures are logged, never surfaced, so history problems cannot fail a run.
// Dry runs are never recorded: writing their items into history would make
// filterSeen drop them from the next real run.
func (a *Application) Execute(ctx context.Context, opts usecase.Options) (domain.RunReport, error) {
	items, err := a.source.FetchPending(ctx, opts.MaxCount)
	if err != nil {
		return domain.RunReport{}, fmt.Errorf("fetch pending items: %w", err)
	}

	items = a.filterSeen(ctx, items)

	report := a.pipeline.Run(ctx, items, opts)

	if report.DryRun {
		a.logger.Info("dry run, outcome not recorded in history", "run_id", report.RunID)
		return report, nil
	}

	if saveErr := a.recorder.SaveRun(ctx, report); saveErr != nil {
		a.logger.Warn("run history not recorded", "run_id", report.RunID, "error", saveErr)
	}
	return report, nil
}

// filterSeen drops items recorded as summarized by previous runs. History
// lookups degrade to no filtering on error.
func (a *Application) filterSeen(ctx context.Context, items []domain.Item) []domain.Item {
	if len(items) == 0 {
		return items
	}

	ids := make([]string, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.ID)
	}

	seen, err := a.recorder.AlreadySummarized(ctx, ids)
	if err != nil {
		a.logger.Warn("run history lookup failed, keeping all items", "error", err)
		return items
	}
	if len(seen) == 0 {
		return items
	}

	kept := items[:0]
	for _, item := range items {
		if seen[item.ID] {
			a.logger.Info("skipping already summarized item", "item_id", item.ID, "url", item.URL)
			continue
		}
		kept = append(kept, item)
	}
	return kept
}

// Serve runs the HTTP API and, when enabled, the cron scheduler, until the
// context is cancelled.
func (a *Application) Serve(ctx context.Context) error {
	if a.cfg.Scheduler.Enabled {
		err := a.sched.Start(ctx, func(at time.Time) {
			a.logger.Info("scheduled run triggered", "at", at.In(a.cfg.Scheduler.Location()))
			if _, err := a.Execute(ctx, a.DefaultOptions()); err != nil {
				a.logger.Error("scheduled run failed", "error", err)
			}
		})
		if err != nil {
			return err
		}
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- a.server.Start(a.cfg.Server.Addr)
	}()
	a.logger.Info("http server listening", "addr", a.cfg.Server.Addr)

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if a.cfg.Scheduler.Enabled {
		if err := a.sched.Stop(shutdownCtx); err != nil {
			a.logger.Warn("scheduler stop", "error", err)
		}
	}
	if err := a.server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	return nil
}

// Close releases held resources.
func (a *Application) Close() error {
	if a.db != nil {
		return a.db.Close()
	}
	return nil
}
