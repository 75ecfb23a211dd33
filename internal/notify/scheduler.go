// Package notify schedules and displays local notifications.
package notify

import (
	"container/heap"
	"context"
	"log/slog"
	"sync"
	"time"

	"offline-gateway/internal/logfields"
	"offline-gateway/internal/metrics"
	"offline-gateway/internal/models"

	"github.com/jonboulle/clockwork"
)

// FireFunc is invoked once for every notification whose time has come.
type FireFunc func(ctx context.Context, req models.NotificationRequest)

// Scheduler holds at most one armed timer per notification id. A single
// loop waits for the earliest deadline.
type Scheduler struct {
	clock   clockwork.Clock
	fire    FireFunc
	metrics metrics.Recorder

	mu    sync.Mutex
	armed map[string]*timerEntry
	queue timerQueue
	seq   uint64

	wake chan struct{}
}

// NewScheduler builds a scheduler on clock (the real clock when nil).
func NewScheduler(clock clockwork.Clock, fire FireFunc, rec metrics.Recorder) *Scheduler {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Scheduler{
		clock:   clock,
		fire:    fire,
		metrics: metrics.OrNoop(rec),
		armed:   make(map[string]*timerEntry),
		wake:    make(chan struct{}, 1),
	}
}

// Schedule arms a notification for req.Timestamp (epoch ms). A pending timer
// with the same id is cancelled first. Deadlines that are not in the future
// are dropped.
func (s *Scheduler) Schedule(req models.NotificationRequest) {
	fireAt := time.UnixMilli(req.Timestamp)
	delay := fireAt.Sub(s.clock.Now())

	s.mu.Lock()
	if old, ok := s.armed[req.ID]; ok {
		heap.Remove(&s.queue, old.index)
		delete(s.armed, req.ID)
		s.metrics.IncNotification(metrics.NotificationReplaced)
	}
	if delay <= 0 {
		s.mu.Unlock()
		s.metrics.IncNotification(metrics.NotificationDropped)
		slog.Debug("Dropping notification with past deadline", logfields.NotificationID(req.ID))
		s.poke()
		return
	}
	s.seq++
	e := &timerEntry{req: req, fireAt: fireAt, seq: s.seq}
	heap.Push(&s.queue, e)
	s.armed[req.ID] = e
	s.mu.Unlock()

	s.metrics.IncNotification(metrics.NotificationArmed)
	slog.Debug("Notification armed", logfields.NotificationID(req.ID), slog.Duration("delay", delay))
	s.poke()
}

// FireDue fires every notification whose deadline has passed and returns
// how many fired.
func (s *Scheduler) FireDue(ctx context.Context) int {
	now := s.clock.Now()
	s.mu.Lock()
	var due []models.NotificationRequest
	for s.queue.Len() > 0 && !s.queue[0].fireAt.After(now) {
		e := heap.Pop(&s.queue).(*timerEntry)
		delete(s.armed, e.req.ID)
		due = append(due, e.req)
	}
	s.mu.Unlock()

	for _, req := range due {
		s.metrics.IncNotification(metrics.NotificationFired)
		if s.fire != nil {
			s.fire(ctx, req)
		}
	}
	return len(due)
}

// Run drives the scheduler until ctx is done.
func (s *Scheduler) Run(ctx context.Context) {
	for {
		s.FireDue(ctx)

		var timer clockwork.Timer
		var timerC <-chan time.Time
		if next, ok := s.next(); ok {
			timer = s.clock.NewTimer(next.Sub(s.clock.Now()))
			timerC = timer.Chan()
		}

		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return
		case <-s.wake:
		case <-timerC:
		}
		if timer != nil {
			timer.Stop()
		}
	}
}

// Pending lists armed ids in firing order.
func (s *Scheduler) Pending() []string {
	s.mu.Lock()
	entries := make(timerQueue, 0, len(s.queue))
	for _, e := range s.queue {
		c := *e
		entries = append(entries, &c)
	}
	s.mu.Unlock()

	ids := make([]string, 0, len(entries))
	for entries.Len() > 0 {
		ids = append(ids, heap.Pop(&entries).(*timerEntry).req.ID)
	}
	return ids
}

// Reset cancels every pending timer.
func (s *Scheduler) Reset() {
	s.mu.Lock()
	s.armed = make(map[string]*timerEntry)
	s.queue = nil
	s.mu.Unlock()
	s.poke()
}

func (s *Scheduler) next() (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.queue.Len() == 0 {
		return time.Time{}, false
	}
	return s.queue[0].fireAt, true
}

func (s *Scheduler) poke() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}
