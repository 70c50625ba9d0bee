// Package scheduler owns the recurring jobs: weekly directory ingestion, the
// weekday call batch and the morning notice that precedes it.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"outreach-agent/internal/directory"
	"outreach-agent/internal/dispatch"
	"outreach-agent/internal/metrics"
	"outreach-agent/internal/notify"
	"outreach-agent/internal/organizations"
	"outreach-agent/pkg/besteffort"
	"outreach-agent/pkg/logger"
)

const (
	JobWeeklyIngestion = "weekly_ingestion"
	JobCallBatch       = "call_batch"
	JobMorningNotice   = "morning_notice"
)

type Ingester interface {
	Run(ctx context.Context) (directory.Result, error)
}

type BatchRunner interface {
	Run(ctx context.Context) (dispatch.BatchResult, error)
}

type QueuePreviewer interface {
	BuildQueue(ctx context.Context, limit int) ([]organizations.Organization, error)
}

type JobMetrics interface {
	IncJobRun(job string)
	ObserveJobDuration(job string, d time.Duration)
	IncJobTimeout(job string)
	IncJobError(job string, err error)
	IncJobSkipped(job string)
}

// Locker lets only one replica run a given trigger.
type Locker interface {
	TryLock(ctx context.Context, name string, ttl time.Duration) (release func(), ok bool, err error)
}

type Config struct {
	Location *time.Location

	CallStartHour       int
	MorningNotifyHour   int
	MorningNotifyMinute int
	PreviewLimit        int

	JobTimeout time.Duration
}

type Scheduler struct {
	cfg Config

	ingester Ingester
	batch    BatchRunner
	preview  QueuePreviewer
	notifier notify.Notifier

	metrics JobMetrics
	locker  Locker
}

type Option func(*Scheduler)

func WithMetrics(m JobMetrics) Option {
	return func(s *Scheduler) { s.metrics = m }
}

func WithLocker(l Locker) Option {
	return func(s *Scheduler) { s.locker = l }
}

func New(cfg Config, ingester Ingester, batch BatchRunner, preview QueuePreviewer, notifier notify.Notifier, opts ...Option) *Scheduler {
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.PreviewLimit <= 0 {
		cfg.PreviewLimit = 50
	}
	if cfg.JobTimeout <= 0 {
		cfg.JobTimeout = 30 * time.Minute
	}
	s := &Scheduler{
		cfg:      cfg,
		ingester: ingester,
		batch:    batch,
		preview:  preview,
		notifier: notifier,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Scheduler) specs() map[string]string {
	return map[string]string{
		JobWeeklyIngestion: "0 7 * * 0",
		JobCallBatch:       fmt.Sprintf("0 %d * * 1-4", s.cfg.CallStartHour),
		JobMorningNotice:   fmt.Sprintf("%d %d * * 1-4", s.cfg.MorningNotifyMinute, s.cfg.MorningNotifyHour),
	}
}

// Run registers the jobs and blocks until ctx is cancelled, then waits for
// running jobs to finish.
func (s *Scheduler) Run(ctx context.Context) error {
	c := cron.New(cron.WithLocation(s.cfg.Location))

	jobs := map[string]func(context.Context) error{
		JobWeeklyIngestion: func(ctx context.Context) error {
			_, err := s.RunIngestion(ctx)
			return err
		},
		JobCallBatch: func(ctx context.Context) error {
			_, err := s.RunBatch(ctx)
			return err
		},
		JobMorningNotice: s.morningNotice,
	}

	for name, spec := range s.specs() {
		fn := jobs[name]
		if _, err := c.AddFunc(spec, func() { s.runJob(ctx, name, fn) }); err != nil {
			return fmt.Errorf("schedule %s (%q): %w", name, spec, err)
		}
	}

	c.Start()
	logger.From(ctx).Info("scheduler started", slog.String("location", s.cfg.Location.String()))

	<-ctx.Done()
	<-c.Stop().Done()
	logger.From(ctx).Info("scheduler stopped")
	return nil
}

// RunIngestion runs one directory ingestion. Failures are notified and returned.
func (s *Scheduler) RunIngestion(ctx context.Context) (directory.Result, error) {
	res, err := s.ingester.Run(ctx)
	if err != nil {
		besteffort.Do(ctx, "notify_ingestion_failed", func(ctx context.Context) error {
			return s.notifier.Send(ctx, notify.IngestionFailed(err))
		})
		return res, fmt.Errorf("ingestion: %w", err)
	}
	return res, nil
}

// RunBatch ranks the registry and dials the queue.
func (s *Scheduler) RunBatch(ctx context.Context) (dispatch.BatchResult, error) {
	res, err := s.batch.Run(ctx)
	if err != nil {
		return res, fmt.Errorf("call batch: %w", err)
	}
	return res, nil
}

func (s *Scheduler) morningNotice(ctx context.Context) error {
	queue, err := s.preview.BuildQueue(ctx, s.cfg.PreviewLimit)
	if err != nil {
		return fmt.Errorf("preview queue: %w", err)
	}
	text := notify.MorningNotice(s.cfg.CallStartHour, len(queue), notify.Motivator())
	besteffort.Do(ctx, "notify_morning", func(ctx context.Context) error {
		return s.notifier.Send(ctx, text)
	})
	return nil
}

// runJob wraps a trigger with the job lock, a deadline, panic recovery and
// metrics. It never panics and never returns an error; failures are logged.
func (s *Scheduler) runJob(parent context.Context, name string, fn func(context.Context) error) {
	log := logger.From(parent).With(slog.String("job", name))
	ctx := logger.With(parent, log)

	if s.locker != nil {
		release, ok, err := s.locker.TryLock(ctx, "job:"+name, s.cfg.JobTimeout)
		switch {
		case err != nil:
			log.Warn("job lock unavailable, running unguarded", logger.Err(err))
		case !ok:
			log.Info("job skipped, lock held elsewhere")
			if s.metrics != nil {
				s.metrics.IncJobSkipped(name)
			}
			return
		default:
			defer release()
		}
	}

	ctx, cancel := context.WithTimeout(ctx, s.cfg.JobTimeout)
	defer cancel()

	start := time.Now()
	err := s.invoke(ctx, fn)
	elapsed := time.Since(start)

	if s.metrics != nil {
		s.metrics.IncJobRun(name)
		s.metrics.ObserveJobDuration(name, elapsed)
		if err != nil {
			s.metrics.IncJobError(name, err)
			if errors.Is(err, context.DeadlineExceeded) {
				s.metrics.IncJobTimeout(name)
			}
		}
	}

	if err != nil {
		log.Error("job failed", slog.Int64("duration_ms", elapsed.Milliseconds()), logger.Err(err))
		return
	}
	log.Info("job finished", slog.Int64("duration_ms", elapsed.Milliseconds()))
}

func (s *Scheduler) invoke(ctx context.Context, fn func(context.Context) error) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("%w: %v", metrics.ErrPanic, p)
		}
	}()
	return fn(ctx)
}
