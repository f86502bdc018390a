// Package schedule decides when rotation cycles run: a periodic cron entry,
// power-connected transitions and manual requests, with mutual exclusion
// and device constraint gating.
package schedule

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rk/wallify/pkg/rotation"
	"github.com/rk/wallify/util"
	"github.com/rk/wallify/util/log"
	"golang.org/x/sync/semaphore"
)

// Runner executes one rotation cycle.
type Runner interface {
	RunCycle(ctx context.Context, trigger rotation.Trigger) (rotation.Outcome, error)
}

// Policy decides what a trigger does when a cycle is already running.
type Policy int

const (
	// PolicyKeep leaves the running cycle alone and skips the new trigger.
	PolicyKeep Policy = iota
	// PolicyReplace cancels the running cycle and runs after it stops.
	PolicyReplace
)

// Status is the scheduler-level result of a trigger.
type Status string

// Statuses
const (
	StatusSuccess Status = "success"
	StatusFailure Status = "failure"
	StatusSkipped Status = "skipped"
)

// Result reports what happened to a trigger.
type Result struct {
	Status  Status            `json:"status"`
	Reason  string            `json:"reason,omitempty"`
	Outcome *rotation.Outcome `json:"outcome,omitempty"`
	Err     error             `json:"-"`
}

// Stats are cumulative trigger counters.
type Stats struct {
	Runs      int `json:"runs"`
	Successes int `json:"successes"`
	Failures  int `json:"failures"`
	Skips     int `json:"skips"`
}

// Scheduler serialises cycles from every trigger source.
type Scheduler struct {
	runner  Runner
	cfg     *rotation.Config
	checker Checker

	sem *semaphore.Weighted

	mu       sync.Mutex
	cancel   context.CancelFunc
	cron     *cron.Cron
	entry    cron.EntryID
	interval int

	runs      *util.SafeCounter
	successes *util.SafeCounter
	failures  *util.SafeCounter
	skips     *util.SafeCounter
}

// New creates a Scheduler. A nil checker disables constraint gating.
func New(runner Runner, cfg *rotation.Config, checker Checker) *Scheduler {
	return &Scheduler{
		runner:    runner,
		cfg:       cfg,
		checker:   checker,
		sem:       semaphore.NewWeighted(1),
		runs:      util.NewSafeInt(),
		successes: util.NewSafeInt(),
		failures:  util.NewSafeInt(),
		skips:     util.NewSafeInt(),
	}
}

// Stats returns the trigger counters.
func (s *Scheduler) Stats() Stats {
	return Stats{
		Runs:      s.runs.Value(),
		Successes: s.successes.Value(),
		Failures:  s.failures.Value(),
		Skips:     s.skips.Value(),
	}
}

// Running reports whether a cycle is in progress.
func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cancel != nil
}

// Trigger runs a cycle for kind under policy. Manual triggers bypass the
// device constraints.
func (s *Scheduler) Trigger(ctx context.Context, kind rotation.TriggerKind, policy Policy) Result {
	switch policy {
	case PolicyReplace:
		s.mu.Lock()
		if s.cancel != nil {
			log.Printf("Cancelling running cycle for %s trigger", kind)
			s.cancel()
		}
		s.mu.Unlock()
		if err := s.sem.Acquire(ctx, 1); err != nil {
			return s.finish(Result{Status: StatusFailure, Reason: "cancelled while waiting", Err: err})
		}
	default:
		if !s.sem.TryAcquire(1) {
			log.Printf("Skipping %s trigger: a cycle is already running", kind)
			return s.finish(Result{Status: StatusSkipped, Reason: "cycle already running"})
		}
	}
	defer s.sem.Release(1)

	// Published before the constraint check so a replacing trigger can
	// interrupt a slow network probe.
	cycleCtx, cancel := context.WithCancel(ctx)
	s.mu.Lock()
	s.cancel = cancel
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.cancel = nil
		s.mu.Unlock()
		cancel()
	}()

	if kind != rotation.TriggerManual && s.checker != nil && s.cfg != nil {
		if err := s.cfg.Reload(); err != nil {
			log.Printf("Failed to reload preferences before constraint check: %v", err)
		}
		unmet := s.checker.Check(cycleCtx, s.cfg.GetConstraints())
		if cycleCtx.Err() != nil {
			log.Printf("Skipping %s trigger: cancelled during constraint check", kind)
			return s.finish(Result{Status: StatusSkipped, Reason: "cancelled", Err: cycleCtx.Err()})
		}
		if len(unmet) > 0 {
			reason := "constraints not met: " + strings.Join(unmet, ", ")
			log.Printf("Skipping %s trigger: %s", kind, reason)
			return s.finish(Result{Status: StatusSkipped, Reason: reason})
		}
	}

	s.runs.Increment()
	outcome, err := s.runner.RunCycle(cycleCtx, rotation.Trigger{Kind: kind, At: time.Now()})
	res := Result{Status: StatusSuccess, Outcome: &outcome, Err: err}
	if err != nil {
		res.Status = StatusFailure
		res.Reason = err.Error()
		if errors.Is(err, context.Canceled) {
			res.Reason = "cancelled"
		}
	}
	return s.finish(res)
}

func (s *Scheduler) finish(res Result) Result {
	switch res.Status {
	case StatusSuccess:
		s.successes.Increment()
	case StatusFailure:
		s.failures.Increment()
	case StatusSkipped:
		s.skips.Increment()
	}
	return res
}

// Start registers the periodic entry and starts the cron runner. Periodic
// cycles use ctx as their parent.
func (s *Scheduler) Start(ctx context.Context) error {
	logger := cron.PrintfLogger(log.Printer{Prefix: "cron: "})

	s.mu.Lock()
	if s.cron != nil {
		s.mu.Unlock()
		return errors.New("scheduler already started")
	}
	s.cron = cron.New(
		cron.WithLogger(logger),
		cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
	)
	s.mu.Unlock()

	interval := rotation.DefaultIntervalMinutes
	if s.cfg != nil {
		interval = s.cfg.GetIntervalMinutes()
	}
	if err := s.Reschedule(ctx, interval); err != nil {
		return err
	}
	s.cron.Start()
	log.Printf("Scheduler started: rotating every %d minutes", interval)
	return nil
}

// Reschedule replaces the periodic entry with one firing every minutes.
func (s *Scheduler) Reschedule(ctx context.Context, minutes int) error {
	if minutes < rotation.MinIntervalMinutes {
		minutes = rotation.MinIntervalMinutes
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cron == nil {
		return errors.New("scheduler not started")
	}
	if s.entry != 0 && s.interval == minutes {
		return nil
	}

	id, err := s.cron.AddFunc(fmt.Sprintf("@every %dm", minutes), func() {
		res := s.Trigger(ctx, rotation.TriggerPeriodic, PolicyKeep)
		log.Printf("Periodic trigger finished: %s %s", res.Status, res.Reason)
	})
	if err != nil {
		return fmt.Errorf("adding periodic entry: %w", err)
	}
	if s.entry != 0 {
		s.cron.Remove(s.entry)
	}
	s.entry = id
	s.interval = minutes
	return nil
}

// Next returns when the periodic entry fires next, or the zero time.
func (s *Scheduler) Next() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cron == nil || s.entry == 0 {
		return time.Time{}
	}
	return s.cron.Entry(s.entry).Next
}

// Stop halts the cron runner, cancels a running cycle and waits for
// periodic jobs to return.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	c := s.cron
	if s.cancel != nil {
		s.cancel()
	}
	s.mu.Unlock()
	if c == nil {
		return
	}
	<-c.Stop().Done()
	log.Print("Scheduler stopped.")
}
