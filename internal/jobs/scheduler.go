// Package jobs runs the gateway's background work on a gocron scheduler:
// background-sync registrations, the daily reminder and the connectivity
// probe.
package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"

	"offline-gateway/internal/logfields"
)

// ErrSyncUnavailable is returned by Register when a background sync cannot
// be scheduled. Callers fall back to doing the work inline.
var ErrSyncUnavailable = errors.New("background sync unavailable")

// Task is the unit of work run by a job.
type Task func(ctx context.Context)

// Scheduler wraps gocron scheduler for the gateway's background tasks.
type Scheduler struct {
	scheduler gocron.Scheduler

	mu       sync.Mutex
	ctx      context.Context
	started  bool
	handlers map[string]Task
	pending  map[string]bool
}

// NewScheduler creates a new scheduler instance.
func NewScheduler(opts ...gocron.SchedulerOption) (*Scheduler, error) {
	s, err := gocron.NewScheduler(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create gocron scheduler: %w", err)
	}

	return &Scheduler{
		scheduler: s,
		ctx:       context.Background(),
		handlers:  make(map[string]Task),
		pending:   make(map[string]bool),
	}, nil
}

// Start begins the scheduler. Tasks receive ctx.
func (s *Scheduler) Start(ctx context.Context) {
	slog.Info("Starting scheduler")
	s.mu.Lock()
	s.ctx = ctx
	s.started = true
	s.mu.Unlock()
	s.scheduler.Start()
}

// Stop gracefully shuts down the scheduler.
func (s *Scheduler) Stop(ctx context.Context) error {
	slog.Info("Stopping scheduler")
	s.mu.Lock()
	s.started = false
	s.mu.Unlock()
	return s.scheduler.Shutdown()
}

// HandleSync sets the task run when tag is registered for background sync.
func (s *Scheduler) HandleSync(tag string, fn Task) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handlers[tag] = fn
}

// Register schedules one run of the sync task for tag. Registering a tag
// whose run has not started yet is a no-op.
func (s *Scheduler) Register(tag string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return fmt.Errorf("%w: scheduler not running", ErrSyncUnavailable)
	}
	fn, ok := s.handlers[tag]
	if !ok {
		return fmt.Errorf("%w: no handler for tag %q", ErrSyncUnavailable, tag)
	}
	if s.pending[tag] {
		slog.Debug("Sync already registered", logfields.Tag(tag))
		return nil
	}

	_, err := s.scheduler.NewJob(
		gocron.OneTimeJob(gocron.OneTimeJobStartImmediately()),
		gocron.NewTask(func() { s.runSync(tag, fn) }),
		gocron.WithName("sync-"+tag),
	)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrSyncUnavailable, err)
	}
	s.pending[tag] = true
	slog.Debug("Sync registered", logfields.Tag(tag))
	return nil
}

func (s *Scheduler) runSync(tag string, fn Task) {
	s.mu.Lock()
	delete(s.pending, tag)
	ctx := s.ctx
	s.mu.Unlock()

	slog.Info("Running background sync", logfields.Tag(tag))
	fn(ctx)
}

// ScheduleDaily runs fn every day at hour:minute local time.
// Returns the job ID for later management.
func (s *Scheduler) ScheduleDaily(name string, hour, minute uint, fn Task) (string, error) {
	if hour > 23 || minute > 59 {
		return "", fmt.Errorf("invalid daily time %02d:%02d", hour, minute)
	}
	job, err := s.scheduler.NewJob(
		gocron.DailyJob(1, gocron.NewAtTimes(gocron.NewAtTime(hour, minute, 0))),
		gocron.NewTask(s.execute, name, fn),
		gocron.WithName(name),
	)
	if err != nil {
		return "", fmt.Errorf("failed to create daily job: %w", err)
	}
	return job.ID().String(), nil
}

// ScheduleEvery runs fn once per interval. Runs never overlap.
// Returns the job ID for later management.
func (s *Scheduler) ScheduleEvery(name string, interval time.Duration, fn Task) (string, error) {
	if interval <= 0 {
		return "", fmt.Errorf("interval must be positive, got %s", interval)
	}
	job, err := s.scheduler.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(s.execute, name, fn),
		gocron.WithName(name),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return "", fmt.Errorf("failed to create periodic job: %w", err)
	}
	return job.ID().String(), nil
}

// execute is called by gocron to run a scheduled task.
func (s *Scheduler) execute(name string, fn Task) {
	s.mu.Lock()
	ctx := s.ctx
	s.mu.Unlock()

	slog.Debug("Executing scheduled job", logfields.Job(name))
	fn(ctx)
}
