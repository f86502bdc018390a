package api

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/rk/wallify/pkg/desktop"
	"github.com/rk/wallify/pkg/rotation"
	"github.com/rk/wallify/pkg/schedule"
	"github.com/rk/wallify/util/log"
)

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status  string         `json:"status"`
	Version string         `json:"version"`
	State   rotation.State `json:"state"`
	Running bool           `json:"running"`
	Stats   schedule.Stats `json:"stats"`
}

// StatusResponse is the body of GET /status.
type StatusResponse struct {
	LastChange string    `json:"lastChange"`
	History    []string  `json:"history"`
	PoolSize   int       `json:"poolSize"`
	NextRun    time.Time `json:"nextRun,omitempty"`
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Failed to encode response: %v", err)
	}
}

// handleHealth returns the server health status.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{Status: "running", Version: s.opts.Version}
	if s.opts.State != nil {
		resp.State = s.opts.State.State()
	}
	if s.opts.Scheduler != nil {
		resp.Running = s.opts.Scheduler.Running()
		resp.Stats = s.opts.Scheduler.Stats()
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleStatus returns the persisted rotation state.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if s.opts.Store == nil {
		http.Error(w, "Feature not available", http.StatusServiceUnavailable)
		return
	}
	resp := StatusResponse{
		LastChange: s.opts.Store.LastChange(),
		History:    s.opts.Store.StatusHistory(),
	}
	if pool, err := s.opts.Store.LoadPool(); err == nil {
		resp.PoolSize = pool.Len()
	}
	if s.opts.Scheduler != nil {
		resp.NextRun = s.opts.Scheduler.Next()
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleRotate runs a manual cycle, replacing any cycle in progress. The
// request context bounds the cycle.
func (s *Server) handleRotate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if s.opts.Scheduler == nil {
		http.Error(w, "Feature not available", http.StatusServiceUnavailable)
		return
	}

	res := s.opts.Scheduler.Trigger(r.Context(), rotation.TriggerManual, schedule.PolicyReplace)
	code := http.StatusOK
	switch res.Status {
	case schedule.StatusSkipped:
		code = http.StatusConflict
	case schedule.StatusFailure:
		code = http.StatusInternalServerError
	}
	writeJSON(w, code, res)
}

// handleWallpaper serves the exported image for a slot:
// /wallpaper/{home|lock}
func (s *Server) handleWallpaper(w http.ResponseWriter, r *http.Request) {
	if s.opts.ExportDir == "" {
		http.Error(w, "Feature not available", http.StatusServiceUnavailable)
		return
	}

	var slot rotation.Slot
	name := strings.TrimPrefix(r.URL.Path, "/wallpaper/")
	if err := slot.UnmarshalText([]byte(name)); err != nil {
		http.Error(w, "Unknown slot", http.StatusNotFound)
		return
	}

	path, err := desktop.Latest(s.opts.ExportDir, slot)
	if err != nil {
		http.Error(w, "No wallpaper exported", http.StatusNotFound)
		return
	}
	w.Header().Set("Cache-Control", "no-cache")
	http.ServeFile(w, r, path)
}

// handleWebSocket upgrades the connection to WebSocket. Clients only
// receive; incoming messages are read and discarded to keep the
// connection alive.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	s.clientsMu.Lock()
	s.clients[conn] = true
	s.clientsMu.Unlock()

	defer func() {
		s.clientsMu.Lock()
		delete(s.clients, conn)
		s.clientsMu.Unlock()
	}()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
}
