package api

import (
	"context"
	"encoding/json"
	"image/color"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/disintegration/imaging"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rk/wallify/pkg/desktop"
	"github.com/rk/wallify/pkg/prefs"
	"github.com/rk/wallify/pkg/rotation"
	"github.com/rk/wallify/pkg/schedule"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockScheduler struct {
	mock.Mock
}

func (m *MockScheduler) Trigger(ctx context.Context, kind rotation.TriggerKind, policy schedule.Policy) schedule.Result {
	return m.Called(kind, policy).Get(0).(schedule.Result)
}

func (m *MockScheduler) Stats() schedule.Stats {
	return m.Called().Get(0).(schedule.Stats)
}

func (m *MockScheduler) Running() bool {
	return m.Called().Bool(0)
}

func (m *MockScheduler) Next() time.Time {
	return m.Called().Get(0).(time.Time)
}

type fixedState rotation.State

func (f fixedState) State() rotation.State { return rotation.State(f) }

func wsURL(server *httptest.Server) string {
	return "ws" + strings.TrimPrefix(server.URL, "http") + "/ws"
}

func TestHealthCheck(t *testing.T) {
	sched := new(MockScheduler)
	sched.On("Running").Return(true)
	sched.On("Stats").Return(schedule.Stats{Runs: 3, Successes: 2, Skips: 1})
	s := NewServer(Options{Version: "1.2.3", Scheduler: sched, State: fixedState(rotation.StateApplying)})

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	s.Handler().ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "http://localhost:5173", rr.Header().Get("Access-Control-Allow-Origin"))

	var resp HealthResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.Equal(t, "running", resp.Status)
	assert.Equal(t, "1.2.3", resp.Version)
	assert.True(t, resp.Running)
	assert.Equal(t, 3, resp.Stats.Runs)
	sched.AssertExpectations(t)
}

func TestHealthStateIsNamed(t *testing.T) {
	s := NewServer(Options{State: fixedState(rotation.StateRefilling)})
	rr := httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Contains(t, rr.Body.String(), `"state":"refilling"`)
}

func TestPreflight(t *testing.T) {
	s := NewServer(Options{})
	rr := httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodOptions, "/rotate", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Header().Get("Access-Control-Allow-Methods"), "POST")
}

func TestAllowedOrigin(t *testing.T) {
	tests := []struct {
		origin string
		want   bool
	}{
		{"", true},
		{"http://localhost", true},
		{"http://localhost:8080", true},
		{"https://127.0.0.1:3000", true},
		{"http://[::1]:49280", true},
		{"https://evil.example", false},
		{"http://localhost.evil.example", false},
		{"null", false},
		{"file://localhost", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, allowedOrigin(tt.origin), tt.origin)
	}
}

func TestForeignOriginCannotRotate(t *testing.T) {
	sched := new(MockScheduler)
	s := NewServer(Options{Scheduler: sched})

	for _, method := range []string{http.MethodOptions, http.MethodPost} {
		rr := httptest.NewRecorder()
		req := httptest.NewRequest(method, "/rotate", nil)
		req.Header.Set("Origin", "https://evil.example")
		s.Handler().ServeHTTP(rr, req)

		assert.Equal(t, http.StatusForbidden, rr.Code, method)
		assert.Empty(t, rr.Header().Get("Access-Control-Allow-Origin"), method)
	}
	sched.AssertNotCalled(t, "Trigger", mock.Anything, mock.Anything)
}

func TestStatus(t *testing.T) {
	store := rotation.NewStore(prefs.NewInMemory())
	require.NoError(t, store.SavePool(rotation.NewPool(
		rotation.Candidate{URL: "https://a/1.jpg", Provider: rotation.ProviderPexels},
		rotation.Candidate{URL: "https://a/2.jpg", Provider: rotation.ProviderPexels},
	)))
	at := time.Date(2026, 3, 1, 9, 30, 0, 0, time.Local)
	store.SetLastChange(at)
	store.AppendStatus(at, "Wallpaper updated: lock")

	next := at.Add(15 * time.Minute)
	sched := new(MockScheduler)
	sched.On("Next").Return(next)
	s := NewServer(Options{Store: store, Scheduler: sched})

	rr := httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/status", nil))
	require.Equal(t, http.StatusOK, rr.Code)

	var resp StatusResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.Equal(t, "2026-03-01 09:30:00", resp.LastChange)
	assert.Equal(t, []string{"2026-03-01 09:30:00 Wallpaper updated: lock"}, resp.History)
	assert.Equal(t, 2, resp.PoolSize)
	assert.True(t, next.Equal(resp.NextRun))
}

func TestStatusWithoutStore(t *testing.T) {
	s := NewServer(Options{})
	rr := httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/status", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
}

func TestRotate(t *testing.T) {
	tests := []struct {
		name   string
		result schedule.Result
		code   int
	}{
		{"success", schedule.Result{Status: schedule.StatusSuccess, Outcome: &rotation.Outcome{Status: "Wallpaper updated: home"}}, http.StatusOK},
		{"skipped", schedule.Result{Status: schedule.StatusSkipped, Reason: "cycle already running"}, http.StatusConflict},
		{"failure", schedule.Result{Status: schedule.StatusFailure, Reason: "no candidates"}, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sched := new(MockScheduler)
			sched.On("Trigger", rotation.TriggerManual, schedule.PolicyReplace).Return(tt.result).Once()
			s := NewServer(Options{Scheduler: sched})

			rr := httptest.NewRecorder()
			s.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/rotate", nil))

			assert.Equal(t, tt.code, rr.Code)
			var got schedule.Result
			require.NoError(t, json.NewDecoder(rr.Body).Decode(&got))
			assert.Equal(t, tt.result.Status, got.Status)
			assert.Equal(t, tt.result.Reason, got.Reason)
			sched.AssertExpectations(t)
		})
	}
}

func TestRotateRequiresPost(t *testing.T) {
	sched := new(MockScheduler)
	s := NewServer(Options{Scheduler: sched})

	rr := httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/rotate", nil))

	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
	sched.AssertNotCalled(t, "Trigger", mock.Anything, mock.Anything)
}

func TestWallpaperServing(t *testing.T) {
	dir := t.TempDir()
	exp := desktop.NewExportApplier(dir, 80)
	require.NoError(t, exp.ApplyImage(context.Background(), imaging.New(4, 4, color.White), rotation.SlotLock))
	s := NewServer(Options{ExportDir: dir})

	rr := httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/wallpaper/lock", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "image/jpeg", rr.Header().Get("Content-Type"))

	rr = httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/wallpaper/home", nil))
	assert.Equal(t, http.StatusNotFound, rr.Code, "nothing exported for home yet")

	rr = httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/wallpaper/desktop", nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := rotation.NewMetrics(reg)
	m.CyclesTotal.WithLabelValues("success").Inc()
	s := NewServer(Options{Gatherer: reg})

	rr := httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `wallify_cycles_total{result="success"} 1`)
}

func TestWebSocketForwardsEvents(t *testing.T) {
	s := NewServer(Options{})
	server := httptest.NewServer(s.Handler())
	defer server.Close()

	ws, _, err := websocket.DefaultDialer.Dial(wsURL(server), nil)
	require.NoError(t, err)
	defer ws.Close()
	require.Eventually(t, func() bool { return s.ClientCount() == 1 }, time.Second, 5*time.Millisecond)

	events := make(chan rotation.Event, 2)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go s.Forward(ctx, events)

	events <- rotation.Event{Type: rotation.EventStateChanged, State: rotation.StateApplying}
	events <- rotation.Event{Type: rotation.EventOutcome, State: rotation.StateDone,
		Outcome: &rotation.Outcome{Status: "Wallpaper updated: home", AppliedSlots: []rotation.Slot{rotation.SlotHome}}}

	require.NoError(t, ws.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, p, err := ws.ReadMessage()
	require.NoError(t, err)
	assert.Contains(t, string(p), `"state":"applying"`)

	_, p, err = ws.ReadMessage()
	require.NoError(t, err)
	assert.Contains(t, string(p), `"type":"outcome"`)
	assert.Contains(t, string(p), `"appliedSlots":["home"]`)
}

func TestWebSocketClientRemovedOnClose(t *testing.T) {
	s := NewServer(Options{})
	server := httptest.NewServer(s.Handler())
	defer server.Close()

	ws, _, err := websocket.DefaultDialer.Dial(wsURL(server), nil)
	require.NoError(t, err)
	require.Eventually(t, func() bool { return s.ClientCount() == 1 }, time.Second, 5*time.Millisecond)

	// Keepalive messages are accepted and ignored.
	require.NoError(t, ws.WriteMessage(websocket.TextMessage, []byte(`{"type":"ping"}`)))
	ws.Close()

	assert.Eventually(t, func() bool { return s.ClientCount() == 0 }, time.Second, 5*time.Millisecond)
}

func TestWebSocketRejectsForeignOrigin(t *testing.T) {
	s := NewServer(Options{})
	server := httptest.NewServer(s.Handler())
	defer server.Close()

	_, resp, err := websocket.DefaultDialer.Dial(wsURL(server), http.Header{"Origin": {"https://evil.example"}})
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Zero(t, s.ClientCount())

	ws, _, err := websocket.DefaultDialer.Dial(wsURL(server), http.Header{"Origin": {server.URL}})
	require.NoError(t, err)
	ws.Close()
}

func TestStopBeforeServe(t *testing.T) {
	s := NewServer(Options{})
	ln, err := newLocalListener()
	require.NoError(t, err)

	require.NoError(t, s.Stop(context.Background()))
	assert.NoError(t, s.Serve(ln))
}

func TestServeAndStop(t *testing.T) {
	s := NewServer(Options{Addr: "127.0.0.1:0"})
	ln, err := newLocalListener()
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() { done <- s.Serve(ln) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + ln.Addr().String() + "/health")
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, s.Stop(context.Background()))
	assert.NoError(t, <-done)
}

func newLocalListener() (net.Listener, error) {
	return net.Listen("tcp", "127.0.0.1:0")
}
