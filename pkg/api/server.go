// Package api is the local REST/WebSocket surface of the daemon.
package api

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rk/wallify/pkg/rotation"
	"github.com/rk/wallify/pkg/schedule"
	"github.com/rk/wallify/util/log"
)

const writeWait = 5 * time.Second

// Scheduler is the part of schedule.Scheduler the server drives.
type Scheduler interface {
	Trigger(ctx context.Context, kind rotation.TriggerKind, policy schedule.Policy) schedule.Result
	Stats() schedule.Stats
	Running() bool
	Next() time.Time
}

// StateSource reports the orchestrator lifecycle state.
type StateSource interface {
	State() rotation.State
}

// Options configures a Server.
type Options struct {
	Addr      string
	Version   string
	Scheduler Scheduler
	State     StateSource
	Store     *rotation.Store
	ExportDir string
	Gatherer  prometheus.Gatherer
}

// Server represents the Local REST/WebSocket server.
type Server struct {
	opts       Options
	httpServer *http.Server
	mux        *http.ServeMux
	upgrader   websocket.Upgrader

	clients   map[*websocket.Conn]bool
	clientsMu sync.Mutex
}

// NewServer creates a new API server.
func NewServer(opts Options) *Server {
	if opts.Gatherer == nil {
		opts.Gatherer = prometheus.DefaultGatherer
	}
	s := &Server{
		opts: opts,
		mux:  http.NewServeMux(),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return allowedOrigin(r.Header.Get("Origin"))
			},
		},
		clients: make(map[*websocket.Conn]bool),
	}
	s.httpServer = &http.Server{
		Handler:           s.mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.setupRoutes()
	return s
}

// allowedOrigin reports whether a browser origin may call the API. Requests
// without an Origin header come from local tools and are allowed; pages are
// allowed only when served from the loopback interface.
func allowedOrigin(origin string) bool {
	if origin == "" {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return false
	}
	switch u.Hostname() {
	case "localhost", "127.0.0.1", "::1":
		return true
	}
	return false
}

func (s *Server) setupRoutes() {
	s.mux.HandleFunc("/health", s.enableCORS(s.handleHealth))
	s.mux.HandleFunc("/status", s.enableCORS(s.handleStatus))
	s.mux.HandleFunc("/rotate", s.enableCORS(s.handleRotate))
	s.mux.HandleFunc("/wallpaper/", s.enableCORS(s.handleWallpaper))
	s.mux.HandleFunc("/ws", s.handleWebSocket)
	s.mux.Handle("/metrics", promhttp.HandlerFor(s.opts.Gatherer, promhttp.HandlerOpts{}))
}

// enableCORS adds CORS headers for loopback origins and rejects every other
// browser origin.
func (s *Server) enableCORS(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if !allowedOrigin(origin) {
			log.Debugf("Rejected %s %s from origin %q", r.Method, r.URL.Path, origin)
			http.Error(w, "Origin not allowed", http.StatusForbidden)
			return
		}
		w.Header().Add("Vary", "Origin")
		if origin != "" {
			w.Header().Set("Access-Control-Allow-Origin", origin)
		}
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next(w, r)
	}
}

// Handler returns the HTTP handler for the server.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// Start listens on the configured address and serves until Stop.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.opts.Addr)
	if err != nil {
		return err
	}
	return s.Serve(ln)
}

// Serve serves on ln until Stop.
func (s *Server) Serve(ln net.Listener) error {
	log.Printf("API listening on %s", ln.Addr())
	if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop shuts the server down and disconnects websocket clients.
func (s *Server) Stop(ctx context.Context) error {
	s.clientsMu.Lock()
	for client := range s.clients {
		client.Close()
		delete(s.clients, client)
	}
	s.clientsMu.Unlock()

	return s.httpServer.Shutdown(ctx)
}

// ClientCount returns the number of connected websocket clients.
func (s *Server) ClientCount() int {
	s.clientsMu.Lock()
	defer s.clientsMu.Unlock()
	return len(s.clients)
}

// Broadcast sends v as JSON to every connected client. Clients that fail
// to receive are dropped.
func (s *Server) Broadcast(v interface{}) {
	s.clientsMu.Lock()
	defer s.clientsMu.Unlock()

	for client := range s.clients {
		_ = client.SetWriteDeadline(time.Now().Add(writeWait))
		if err := client.WriteJSON(v); err != nil {
			log.Printf("Failed to broadcast to client: %v", err)
			client.Close()
			delete(s.clients, client)
		}
	}
}

// Forward broadcasts every orchestrator event until events closes or ctx
// is done.
func (s *Server) Forward(ctx context.Context, events <-chan rotation.Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			s.Broadcast(ev)
		}
	}
}
