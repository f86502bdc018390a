package schedule

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rk/wallify/pkg/prefs"
	"github.com/rk/wallify/pkg/rotation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type runnerFunc func(ctx context.Context, t rotation.Trigger) (rotation.Outcome, error)

func (f runnerFunc) RunCycle(ctx context.Context, t rotation.Trigger) (rotation.Outcome, error) {
	return f(ctx, t)
}

type MockChecker struct {
	mock.Mock
}

func (m *MockChecker) Check(ctx context.Context, cs rotation.Constraints) []string {
	args := m.Called(ctx, cs)
	if v := args.Get(0); v != nil {
		return v.([]string)
	}
	return nil
}

func newConfig() *rotation.Config {
	return rotation.NewConfig(prefs.NewInMemory())
}

// blockingRunner returns a runner that signals started and waits for
// release or cancellation.
func blockingRunner(started chan<- struct{}, release <-chan struct{}) Runner {
	return runnerFunc(func(ctx context.Context, tr rotation.Trigger) (rotation.Outcome, error) {
		started <- struct{}{}
		select {
		case <-release:
			return rotation.Outcome{Trigger: tr, Status: "ok"}, nil
		case <-ctx.Done():
			return rotation.Outcome{Trigger: tr}, ctx.Err()
		}
	})
}

func TestTrigger_Success(t *testing.T) {
	var got rotation.Trigger
	s := New(runnerFunc(func(_ context.Context, tr rotation.Trigger) (rotation.Outcome, error) {
		got = tr
		return rotation.Outcome{Trigger: tr, Status: "Wallpaper updated: lock"}, nil
	}), newConfig(), nil)

	res := s.Trigger(context.Background(), rotation.TriggerManual, PolicyReplace)

	assert.Equal(t, StatusSuccess, res.Status)
	require.NotNil(t, res.Outcome)
	assert.Equal(t, "Wallpaper updated: lock", res.Outcome.Status)
	assert.Equal(t, rotation.TriggerManual, got.Kind)
	assert.False(t, got.At.IsZero())
	assert.Equal(t, Stats{Runs: 1, Successes: 1}, s.Stats())
	assert.False(t, s.Running())
}

func TestTrigger_FailureCarriesError(t *testing.T) {
	s := New(runnerFunc(func(context.Context, rotation.Trigger) (rotation.Outcome, error) {
		return rotation.Outcome{}, rotation.ErrNoCandidatesAvailable
	}), newConfig(), nil)

	res := s.Trigger(context.Background(), rotation.TriggerPeriodic, PolicyKeep)

	assert.Equal(t, StatusFailure, res.Status)
	assert.ErrorIs(t, res.Err, rotation.ErrNoCandidatesAvailable)
	assert.Equal(t, 1, s.Stats().Failures)
}

func TestTrigger_KeepSkipsWhileRunning(t *testing.T) {
	started := make(chan struct{}, 1)
	release := make(chan struct{})
	s := New(blockingRunner(started, release), newConfig(), nil)

	first := make(chan Result, 1)
	go func() { first <- s.Trigger(context.Background(), rotation.TriggerPeriodic, PolicyKeep) }()
	<-started
	assert.True(t, s.Running())

	res := s.Trigger(context.Background(), rotation.TriggerPowerConnected, PolicyKeep)
	assert.Equal(t, StatusSkipped, res.Status)
	assert.Equal(t, "cycle already running", res.Reason)

	close(release)
	assert.Equal(t, StatusSuccess, (<-first).Status)
	assert.Equal(t, Stats{Runs: 1, Successes: 1, Skips: 1}, s.Stats())
}

func TestTrigger_ReplaceCancelsRunningCycle(t *testing.T) {
	started := make(chan struct{}, 2)
	release := make(chan struct{})
	s := New(blockingRunner(started, release), newConfig(), nil)

	first := make(chan Result, 1)
	go func() { first <- s.Trigger(context.Background(), rotation.TriggerPeriodic, PolicyKeep) }()
	<-started

	second := make(chan Result, 1)
	go func() { second <- s.Trigger(context.Background(), rotation.TriggerManual, PolicyReplace) }()

	r1 := <-first
	assert.Equal(t, StatusFailure, r1.Status)
	assert.Equal(t, "cancelled", r1.Reason)
	assert.ErrorIs(t, r1.Err, context.Canceled)

	<-started
	close(release)
	r2 := <-second
	assert.Equal(t, StatusSuccess, r2.Status)
	assert.Equal(t, rotation.TriggerManual, r2.Outcome.Trigger.Kind)
}

func TestTrigger_ReplaceGivesUpWhenCallerCancels(t *testing.T) {
	started := make(chan struct{}, 1)
	release := make(chan struct{})
	defer close(release)

	// Runner ignores cancellation so the semaphore stays held.
	s := New(runnerFunc(func(context.Context, rotation.Trigger) (rotation.Outcome, error) {
		started <- struct{}{}
		<-release
		return rotation.Outcome{}, nil
	}), newConfig(), nil)

	go s.Trigger(context.Background(), rotation.TriggerPeriodic, PolicyKeep)
	<-started

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	res := s.Trigger(ctx, rotation.TriggerManual, PolicyReplace)

	assert.Equal(t, StatusFailure, res.Status)
	assert.ErrorIs(t, res.Err, context.DeadlineExceeded)
}

func TestTrigger_UnmetConstraintsSkip(t *testing.T) {
	var calls atomic.Int32
	checker := new(MockChecker)
	checker.On("Check", mock.Anything, mock.Anything).Return([]string{"charging", "network"})

	s := New(runnerFunc(func(context.Context, rotation.Trigger) (rotation.Outcome, error) {
		calls.Add(1)
		return rotation.Outcome{}, nil
	}), newConfig(), checker)

	res := s.Trigger(context.Background(), rotation.TriggerPeriodic, PolicyKeep)
	assert.Equal(t, StatusSkipped, res.Status)
	assert.Equal(t, "constraints not met: charging, network", res.Reason)
	assert.Zero(t, calls.Load())

	res = s.Trigger(context.Background(), rotation.TriggerManual, PolicyReplace)
	assert.Equal(t, StatusSuccess, res.Status, "manual triggers bypass constraints")
	assert.EqualValues(t, 1, calls.Load())
	checker.AssertNumberOfCalls(t, "Check", 1)
}

func TestTrigger_ReplaceCancelsConstraintCheck(t *testing.T) {
	checking := make(chan struct{})
	checker := new(MockChecker)
	checker.On("Check", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		close(checking)
		select {
		case <-args.Get(0).(context.Context).Done():
		case <-time.After(200 * time.Millisecond):
		}
	}).Return(nil)

	var kinds []rotation.TriggerKind
	var mu sync.Mutex
	s := New(runnerFunc(func(_ context.Context, tr rotation.Trigger) (rotation.Outcome, error) {
		mu.Lock()
		kinds = append(kinds, tr.Kind)
		mu.Unlock()
		return rotation.Outcome{Trigger: tr}, nil
	}), newConfig(), checker)

	first := make(chan Result, 1)
	go func() { first <- s.Trigger(context.Background(), rotation.TriggerPeriodic, PolicyKeep) }()
	<-checking
	assert.True(t, s.Running())

	res := s.Trigger(context.Background(), rotation.TriggerManual, PolicyReplace)
	assert.Equal(t, StatusSuccess, res.Status, res.Reason)

	r1 := <-first
	assert.Equal(t, StatusSkipped, r1.Status)
	assert.Equal(t, "cancelled", r1.Reason)
	assert.ErrorIs(t, r1.Err, context.Canceled)

	mu.Lock()
	assert.Equal(t, []rotation.TriggerKind{rotation.TriggerManual}, kinds)
	mu.Unlock()
}

func TestTrigger_PassesConfiguredConstraints(t *testing.T) {
	cfg := newConfig()
	cfg.SetConstraints(rotation.Constraints{RequireCharging: true, RequireIdle: true})

	checker := new(MockChecker)
	checker.On("Check", mock.Anything, rotation.Constraints{RequireCharging: true, RequireIdle: true}).Return(nil)

	s := New(runnerFunc(func(context.Context, rotation.Trigger) (rotation.Outcome, error) {
		return rotation.Outcome{}, nil
	}), cfg, checker)

	res := s.Trigger(context.Background(), rotation.TriggerBoot, PolicyKeep)
	assert.Equal(t, StatusSuccess, res.Status)
	checker.AssertExpectations(t)
}

func TestStartRegistersPeriodicEntry(t *testing.T) {
	cfg := newConfig()
	cfg.SetIntervalMinutes(30)
	s := New(runnerFunc(func(context.Context, rotation.Trigger) (rotation.Outcome, error) {
		return rotation.Outcome{}, nil
	}), cfg, nil)

	require.NoError(t, s.Start(context.Background()))
	defer s.Stop()

	next := s.Next()
	assert.WithinDuration(t, time.Now().Add(30*time.Minute), next, time.Minute)
	assert.Error(t, s.Start(context.Background()), "second start must fail")

	require.NoError(t, s.Reschedule(context.Background(), 5))
	assert.WithinDuration(t, time.Now().Add(15*time.Minute), s.Next(), time.Minute, "interval is clamped to the minimum")
	assert.Len(t, s.cron.Entries(), 1)
}

func TestRescheduleBeforeStart(t *testing.T) {
	s := New(nil, nil, nil)
	assert.Error(t, s.Reschedule(context.Background(), 20))
	assert.True(t, s.Next().IsZero())
	s.Stop()
}

func TestWatchPower_FiresOnRisingEdge(t *testing.T) {
	var mu sync.Mutex
	states := []bool{false, true, true, false, true}
	i := 0
	probe := func() (bool, error) {
		mu.Lock()
		defer mu.Unlock()
		if i >= len(states) {
			return true, nil
		}
		v := states[i]
		i++
		return v, nil
	}

	var triggers atomic.Int32
	s := New(runnerFunc(func(_ context.Context, tr rotation.Trigger) (rotation.Outcome, error) {
		assert.Equal(t, rotation.TriggerPowerConnected, tr.Kind)
		triggers.Add(1)
		return rotation.Outcome{}, nil
	}), newConfig(), nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.WatchPower(ctx, probe, time.Millisecond)
		close(done)
	}()

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return i >= len(states)
	}, time.Second, time.Millisecond)
	time.Sleep(10 * time.Millisecond)
	cancel()
	<-done

	assert.EqualValues(t, 2, triggers.Load())
}

func TestWatchPower_UnsupportedReturns(t *testing.T) {
	s := New(nil, nil, nil)
	done := make(chan struct{})
	go func() {
		s.WatchPower(context.Background(), func() (bool, error) {
			return false, sysinfoUnsupported()
		}, time.Millisecond)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("WatchPower did not return for an unsupported probe")
	}
}
