package rotation

import (
	"context"
	"errors"
	"fmt"
	"image"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"github.com/rk/wallify/util/log"
)

// TriggerKind names what started a cycle.
type TriggerKind string

// Trigger kinds
const (
	TriggerPeriodic       TriggerKind = "periodic"
	TriggerManual         TriggerKind = "manual"
	TriggerPowerConnected TriggerKind = "power_connected"
	TriggerBoot           TriggerKind = "boot"
)

// Trigger starts a cycle.
type Trigger struct {
	Kind TriggerKind `json:"kind"`
	At   time.Time   `json:"at"`
}

// State is the orchestrator lifecycle position.
type State int32

// States
const (
	StateIdle State = iota
	StateLoadingConfig
	StateRefilling
	StateSelectingPerSlot
	StateApplying
	StateDone
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLoadingConfig:
		return "loading_config"
	case StateRefilling:
		return "refilling"
	case StateSelectingPerSlot:
		return "selecting"
	case StateApplying:
		return "applying"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// MarshalText encodes the state by name.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Outcome summarises a finished cycle.
type Outcome struct {
	Trigger      Trigger   `json:"trigger"`
	AppliedSlots []Slot    `json:"appliedSlots"`
	Timestamp    time.Time `json:"timestamp"`
	Status       string    `json:"status"`
}

// EventType distinguishes orchestrator events.
type EventType string

// Event types
const (
	EventStateChanged EventType = "state"
	EventOutcome      EventType = "outcome"
)

// Event is published on the orchestrator's Events channel.
type Event struct {
	Type    EventType `json:"type"`
	State   State     `json:"state"`
	Outcome *Outcome  `json:"outcome,omitempty"`
	Error   string    `json:"error,omitempty"`
	At      time.Time `json:"at"`
}

// Applier sets a fitted image on a wallpaper slot.
type Applier interface {
	ApplyImage(ctx context.Context, img image.Image, slot Slot) error
}

// CandidateSource refills an empty pool.
type CandidateSource interface {
	FetchCandidates(ctx context.Context, tag string, width, height int) []Candidate
}

// Selector picks one acceptable candidate from the pool.
type Selector interface {
	SelectNonFaceCandidate(ctx context.Context, pool *Pool) (*Selection, bool)
}

// Fitter scales an image to the target size.
type Fitter interface {
	Fit(ctx context.Context, img image.Image, width, height int) image.Image
}

// Orchestrator runs rotation cycles. It holds no lock against concurrent
// RunCycle calls; callers serialise triggers.
type Orchestrator struct {
	cfg      *Config
	store    *Store
	source   CandidateSource
	selector Selector
	fitter   Fitter
	applier  Applier
	metrics  *Metrics

	state  atomic.Int32
	events chan Event
	now    func() time.Time
}

// Dependencies wires an Orchestrator.
type Dependencies struct {
	Config   *Config
	Store    *Store
	Source   CandidateSource
	Selector Selector
	Fitter   Fitter
	Applier  Applier
	Metrics  *Metrics
}

// NewOrchestrator creates an Orchestrator from deps.
func NewOrchestrator(deps Dependencies) *Orchestrator {
	return &Orchestrator{
		cfg:      deps.Config,
		store:    deps.Store,
		source:   deps.Source,
		selector: deps.Selector,
		fitter:   deps.Fitter,
		applier:  deps.Applier,
		metrics:  deps.Metrics,
		events:   make(chan Event, eventBufferSize),
		now:      time.Now,
	}
}

// State returns the current lifecycle state.
func (o *Orchestrator) State() State {
	return State(o.state.Load())
}

// Events returns the outbound event stream. Events are dropped when the
// buffer is full.
func (o *Orchestrator) Events() <-chan Event {
	return o.events
}

func (o *Orchestrator) setState(s State) {
	o.state.Store(int32(s))
	o.publish(Event{Type: EventStateChanged, State: s, At: o.now()})
}

func (o *Orchestrator) publish(ev Event) {
	select {
	case o.events <- ev:
	default:
		log.Debugf("Dropping %s event: no listener", ev.Type)
	}
}

// RunCycle performs one rotation: refill the pool if empty, select one
// acceptable image per slot, fit and apply it, then record the outcome.
func (o *Orchestrator) RunCycle(ctx context.Context, trigger Trigger) (Outcome, error) {
	start := o.now()
	if trigger.At.IsZero() {
		trigger.At = start
	}
	outcome := Outcome{Trigger: trigger}
	log.Printf("Starting rotation cycle (trigger: %s)", trigger.Kind)

	o.setState(StateLoadingConfig)
	if err := o.cfg.Reload(); err != nil {
		log.Printf("Failed to reload preferences, using cached values: %v", err)
	}
	cfg := o.cfg.Snapshot()
	pool, err := o.store.LoadPool()
	if err != nil {
		log.Printf("Discarding unreadable candidate pool: %v", err)
	}

	if pool.Len() == 0 {
		o.setState(StateRefilling)
		added := pool.Append(o.source.FetchCandidates(ctx, cfg.Tag, cfg.TargetWidth, cfg.TargetHeight)...)
		log.Printf("Refilled candidate pool with %d images", added)
		if ctx.Err() != nil {
			return o.fail(ctx, start, outcome, ctx.Err())
		}
		if pool.Len() == 0 {
			return o.fail(ctx, start, outcome, ErrNoCandidatesAvailable)
		}
	}
	initialSize := pool.Len()

	o.setState(StateSelectingPerSlot)
	slots := cfg.Target.Slots()
	selections := make([]*Selection, len(slots))
	defer removeScratch(selections)

	for i, slot := range slots {
		if i > 0 && initialSize == 1 {
			selections[i] = selections[0]
			continue
		}
		sel, ok := o.selector.SelectNonFaceCandidate(ctx, pool)
		if !ok {
			o.savePool(pool)
			if ctx.Err() != nil {
				return o.fail(ctx, start, outcome, ctx.Err())
			}
			return o.fail(ctx, start, outcome, fmt.Errorf("%w for %s screen", ErrNoAcceptableImage, slot))
		}
		selections[i] = sel
	}
	o.savePool(pool)

	o.setState(StateApplying)
	var applyErr error
	for i, slot := range slots {
		fitted := o.fitter.Fit(ctx, selections[i].Image, cfg.TargetWidth, cfg.TargetHeight)
		if err := o.applier.ApplyImage(ctx, fitted, slot); err != nil {
			applyErr = &ApplyError{Slot: slot, Err: err}
			break
		}
		log.Printf("Applied %s to %s screen", selections[i].Candidate.URL, slot)
		outcome.AppliedSlots = append(outcome.AppliedSlots, slot)
	}

	if len(outcome.AppliedSlots) == 0 {
		if ctx.Err() != nil {
			return o.fail(ctx, start, outcome, ctx.Err())
		}
		return o.fail(ctx, start, outcome, applyErr)
	}

	at := o.now()
	outcome.Timestamp = at
	outcome.Status = "Wallpaper updated: " + slotList(outcome.AppliedSlots)
	result := "success"
	if applyErr != nil {
		outcome.Status += "; " + applyErr.Error()
		result = "partial"
	}
	o.store.SetLastChange(at)
	o.store.AppendStatus(at, outcome.Status)

	o.state.Store(int32(StateDone))
	ev := Event{Type: EventOutcome, State: StateDone, Outcome: &outcome, At: at}
	if applyErr != nil {
		ev.Error = applyErr.Error()
	}
	o.publish(ev)
	o.metrics.cycle(result, o.now().Sub(start))
	log.Printf("Rotation cycle finished: %s", outcome.Status)
	return outcome, applyErr
}

// fail ends a cycle without a new wallpaper. Cancelled cycles leave no trace
// in the history.
func (o *Orchestrator) fail(ctx context.Context, start time.Time, outcome Outcome, err error) (Outcome, error) {
	at := o.now()
	outcome.Status = "Failed: " + err.Error()
	result := "failure"

	if ctx.Err() != nil && errors.Is(err, ctx.Err()) {
		outcome.Status = "Cancelled: " + err.Error()
		result = "cancelled"
	} else {
		o.store.AppendStatus(at, outcome.Status)
	}

	o.state.Store(int32(StateFailed))
	o.publish(Event{Type: EventOutcome, State: StateFailed, Outcome: &outcome, Error: err.Error(), At: at})
	o.metrics.cycle(result, at.Sub(start))
	log.Printf("Rotation cycle %s: %v", result, err)
	return outcome, err
}

func (o *Orchestrator) savePool(pool *Pool) {
	if err := o.store.SavePool(pool); err != nil {
		log.Printf("Failed to persist candidate pool: %v", err)
	}
}

func removeScratch(selections []*Selection) {
	seen := make(map[string]bool)
	for _, sel := range selections {
		if sel == nil || sel.Path == "" || seen[sel.Path] {
			continue
		}
		seen[sel.Path] = true
		if err := os.Remove(sel.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
			log.Printf("Failed to remove scratch file %s: %v", sel.Path, err)
		}
	}
}

func slotList(slots []Slot) string {
	names := make([]string, len(slots))
	for i, s := range slots {
		names[i] = s.String()
	}
	return strings.Join(names, ", ")
}
