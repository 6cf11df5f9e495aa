// Package scheduler runs ledger jobs on independent triggers while allowing
// at most one job in flight across all of them.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/goodnatureofminers/blockinsight7000-ledger/internal/clock"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type trigger struct {
	name     string
	interval time.Duration
	signal   <-chan struct{}
	jobs     []Job
}

// Scheduler owns the single execution slot shared by all triggers.
// A tick that finds the slot taken is dropped, not queued.
type Scheduler struct {
	slot     chan struct{}
	triggers []trigger
	fatal    []error
	metrics  Metrics
	logger   *zap.Logger
	wait     func(ctx context.Context, d time.Duration, signal <-chan struct{}) error
}

type Option func(*Scheduler)

// WithFatalErrors stops Run when a job fails with one of errs.
func WithFatalErrors(errs ...error) Option {
	return func(s *Scheduler) {
		s.fatal = append(s.fatal, errs...)
	}
}

func New(metrics Metrics, logger *zap.Logger, opts ...Option) (*Scheduler, error) {
	if metrics == nil {
		return nil, errors.New("scheduler metrics is required")
	}
	s := &Scheduler{
		slot:    make(chan struct{}, 1),
		metrics: metrics,
		logger:  logger,
		wait:    clock.WaitOrSignal,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Every runs jobs in order right away and then once per interval.
func (s *Scheduler) Every(interval time.Duration, jobs ...Job) *Scheduler {
	s.triggers = append(s.triggers, trigger{
		name:     fmt.Sprintf("every %s", interval),
		interval: interval,
		jobs:     jobs,
	})
	return s
}

// OnSignal runs jobs in order every time signal fires.
func (s *Scheduler) OnSignal(signal <-chan struct{}, jobs ...Job) *Scheduler {
	s.triggers = append(s.triggers, trigger{
		name:   "signal",
		signal: signal,
		jobs:   jobs,
	})
	return s
}

// Run blocks until ctx is canceled or a job fails with a fatal error.
func (s *Scheduler) Run(ctx context.Context) error {
	if len(s.triggers) == 0 {
		return errors.New("scheduler has no jobs")
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, tr := range s.triggers {
		tr := tr
		g.Go(func() error {
			return s.loop(gctx, tr)
		})
	}
	return g.Wait()
}

func (s *Scheduler) loop(ctx context.Context, tr trigger) error {
	logger := s.logger.With(zap.String("trigger", tr.name))
	logger.Info("trigger started", zap.Int("jobs", len(tr.jobs)))

	if tr.interval <= 0 {
		if err := s.awaitSignal(ctx, tr.signal); err != nil {
			return nil
		}
	}
	for {
		for _, job := range tr.jobs {
			if err := s.tick(ctx, job, logger); err != nil {
				return err
			}
		}

		var err error
		if tr.interval > 0 {
			err = s.wait(ctx, tr.interval, tr.signal)
		} else {
			err = s.awaitSignal(ctx, tr.signal)
		}
		if err != nil {
			logger.Info("trigger stopped")
			return nil
		}
	}
}

func (s *Scheduler) awaitSignal(ctx context.Context, signal <-chan struct{}) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-signal:
		return nil
	}
}

func (s *Scheduler) tick(ctx context.Context, job Job, logger *zap.Logger) error {
	select {
	case s.slot <- struct{}{}:
	default:
		s.metrics.ObserveSkipped(job.Name())
		logger.Debug("job skipped, another job is running", zap.String("job", job.Name()))
		return nil
	}
	defer func() {
		<-s.slot
	}()

	if ctx.Err() != nil {
		return nil
	}

	started := time.Now()
	err := job.Run(ctx)
	s.metrics.ObserveRun(job.Name(), err, started)
	switch {
	case err == nil:
		return nil
	case s.isFatal(err):
		logger.Error("job failed fatally", zap.String("job", job.Name()), zap.Error(err))
		return fmt.Errorf("%s: %w", job.Name(), err)
	case ctx.Err() != nil:
		return nil
	default:
		logger.Warn("job failed, retrying on next tick", zap.String("job", job.Name()), zap.Error(err))
		return nil
	}
}

func (s *Scheduler) isFatal(err error) bool {
	for _, fatal := range s.fatal {
		if errors.Is(err, fatal) {
			return true
		}
	}
	return false
}
