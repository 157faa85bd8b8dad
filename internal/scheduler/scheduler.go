// Package scheduler runs the day rollover in the background and reports
// confirmation window transitions.
package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/dukerupert/accountable/internal/calendar"
	"github.com/dukerupert/accountable/internal/habit"
)

// Scheduler periodically closes finished days.
type Scheduler struct {
	mu       sync.RWMutex
	habits   *habit.Service
	interval time.Duration
	logger   *slog.Logger
	cancel   context.CancelFunc
	done     chan struct{}

	// Only touched by the loop goroutine.
	rolled     calendar.Day
	windowOpen bool
	started    bool
}

// New creates a scheduler that checks every interval.
func New(svc *habit.Service, interval time.Duration, logger *slog.Logger) *Scheduler {
	if interval <= 0 {
		interval = time.Minute
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		habits:   svc,
		interval: interval,
		logger:   logger.With("component", "scheduler"),
	}
}

// Start begins the scheduler loop. The first check runs immediately.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})
	s.mu.Unlock()

	go func() {
		defer close(s.done)
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		s.tick(ctx)
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.tick(ctx)
			}
		}
	}()
}

// Stop gracefully stops the scheduler.
func (s *Scheduler) Stop() {
	s.mu.RLock()
	cancel := s.cancel
	done := s.done
	s.mu.RUnlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}
}

func (s *Scheduler) tick(ctx context.Context) {
	now := s.habits.Now()
	s.checkWindow(now)
	s.rollover(ctx, calendar.FromTime(now, s.habits.Location()))
}

func (s *Scheduler) checkWindow(now time.Time) {
	w := s.habits.Window()
	open := w.IsOpen(now)
	if s.started && open == s.windowOpen {
		return
	}
	first := !s.started
	s.started = true
	s.windowOpen = open

	switch {
	case open:
		s.logger.Info("confirmation window open", "window", w.String(), "remaining", w.TimeRemaining(now).Round(time.Second))
	case !first:
		s.logger.Info("confirmation window closed", "window", w.String(), "opens_in", w.TimeUntilOpen(now).Round(time.Second))
	}
}

// rollover closes every day between the last closed day and today. After a
// restart only yesterday is closed.
func (s *Scheduler) rollover(ctx context.Context, today calendar.Day) {
	from := today.Yesterday()
	if !s.rolled.IsZero() {
		from = s.rolled.AddDays(1)
	}
	for day := from; day.Before(today); day = day.AddDays(1) {
		if ctx.Err() != nil {
			return
		}
		// Retried on a later tick once the window has closed.
		if s.habits.StillConfirmable(day) {
			return
		}
		res, err := s.habits.Rollover(ctx, day)
		if err != nil {
			s.logger.Error("rollover failed", "day", day, "error", err)
			return
		}
		s.rolled = day
		if res.Missed > 0 || res.Broken > 0 {
			s.logger.Info("day closed", "day", day, "missed", res.Missed, "broken", res.Broken)
		}
	}
}
