// Package scheduler runs periodic tasks cooperatively on one goroutine.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

// Action is the body of a task.
type Action func(ctx context.Context)

type task struct {
	name   string
	period time.Duration
	next   time.Time
	action Action
	runs   int
	missed int
}

// Scheduler holds a table of periodic tasks. Only one task runs at a time.
type Scheduler struct {
	clock clockwork.Clock
	tasks []*task
}

// New creates an empty scheduler.
func New(clock clockwork.Clock) *Scheduler {
	return &Scheduler{clock: clock}
}

// Every registers a task that first runs one period from now.
// Tasks due at the same instant run in registration order.
func (s *Scheduler) Every(name string, period time.Duration, action Action) error {
	if period <= 0 {
		return fmt.Errorf("task %q: period must be positive, got %v", name, period)
	}
	s.tasks = append(s.tasks, &task{
		name:   name,
		period: period,
		next:   s.clock.Now().Add(period),
		action: action,
	})
	return nil
}

// RunPending runs every task that is due, once, and returns how many ran.
// A task that fell several periods behind runs once and its next deadline
// stays on the original phase.
func (s *Scheduler) RunPending(ctx context.Context) int {
	ran := 0
	for _, t := range s.tasks {
		if ctx.Err() != nil {
			return ran
		}
		now := s.clock.Now()
		if now.Before(t.next) {
			continue
		}
		t.action(ctx)
		t.runs++
		ran++

		t.next = t.next.Add(t.period)
		if !now.Before(t.next) {
			skipped := int(now.Sub(t.next)/t.period) + 1
			t.next = t.next.Add(time.Duration(skipped) * t.period)
			t.missed += skipped
			log.Debug().Str("task", t.name).Int("skipped", skipped).Msg("scheduler fell behind")
		}
	}
	return ran
}

// NextDue returns the earliest deadline in the table, or false if empty.
func (s *Scheduler) NextDue() (time.Time, bool) {
	var earliest time.Time
	for i, t := range s.tasks {
		if i == 0 || t.next.Before(earliest) {
			earliest = t.next
		}
	}
	return earliest, len(s.tasks) > 0
}

// Run executes tasks until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) error {
	for {
		s.RunPending(ctx)

		next, ok := s.NextDue()
		if !ok {
			<-ctx.Done()
			return ctx.Err()
		}
		wait := next.Sub(s.clock.Now())
		if wait < 0 {
			wait = 0
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-s.clock.After(wait):
		}
	}
}

// Stats reports how often a task ran and how many periods it skipped.
func (s *Scheduler) Stats(name string) (runs, missed int, ok bool) {
	for _, t := range s.tasks {
		if t.name == name {
			return t.runs, t.missed, true
		}
	}
	return 0, 0, false
}
