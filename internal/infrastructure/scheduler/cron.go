// Package scheduler triggers pipeline runs on a cron expression.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"tldrist/internal/ports"
)

// CronScheduler runs the job at times described by a cron expression,
// evaluated in the configured location.
type CronScheduler struct {
	expression string
	cron       *cron.Cron
	logger     *slog.Logger
}

var _ ports.Scheduler = (*CronScheduler)(nil)

func NewCronScheduler(expression string, location *time.Location, logger *slog.Logger) *CronScheduler {
	return &CronScheduler{
		expression: expression,
		cron:       cron.New(cron.WithLocation(location)),
		logger:     logger,
	}
}

// Start registers the job and begins the cron loop. The job receives the
// trigger time and runs on the cron goroutine; overlapping triggers are the
// job's concern.
func (s *CronScheduler) Start(ctx context.Context, job func(time.Time)) error {
	_, err := s.cron.AddFunc(s.expression, func() {
		if ctx.Err() != nil {
			return
		}
		job(time.Now())
	})
	if err != nil {
		return fmt.Errorf("register cron schedule %q: %w", s.expression, err)
	}

	s.cron.Start()
	s.logger.Info("scheduler started", "cron", s.expression)
	return nil
}

// Stop halts the cron loop and waits for a running job to finish or the
// context to expire.
func (s *CronScheduler) Stop(ctx context.Context) error {
	done := s.cron.Stop().Done()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
