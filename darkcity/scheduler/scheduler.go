// Package scheduler drives the background engines on cron schedules.
package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// Job is a unit of periodic background work. RunOnce receives the tick time
// so implementations stay deterministic under test.
type Job interface {
	Name() string
	RunOnce(ctx context.Context, now time.Time) error
}

type Scheduler struct {
	cron *cron.Cron
	ctx  context.Context
}

func New(ctx context.Context) *Scheduler {
	return &Scheduler{
		cron: cron.New(cron.WithChain(cron.Recover(cron.DefaultLogger))),
		ctx:  ctx,
	}
}

// Add registers the job on the given cron spec (standard 5-field syntax, or
// @every descriptors).
func (s *Scheduler) Add(spec string, job Job) error {
	_, err := s.cron.AddFunc(spec, func() {
		start := time.Now()
		if err := job.RunOnce(s.ctx, start); err != nil {
			slog.Error("Scheduled job failed",
				slog.String("type", "sys"),
				slog.String("job", job.Name()),
				slog.String("error", err.Error()))
			return
		}
		slog.Debug("Scheduled job finished",
			slog.String("type", "sys"),
			slog.String("job", job.Name()),
			slog.Duration("took", time.Since(start)))
	})
	return err
}

func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop halts scheduling and waits for running jobs to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}
