package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Server exposes /health and /metrics for the relay agent.
type Server struct {
	addr        string
	srv         *http.Server
	running     atomic.Bool
	relays      atomic.Int64
	lastRelayOk atomic.Bool
	lastRelayAt atomic.Int64 // unix nanos, 0 before the first POST
}

func New(addr string) *Server {
	s := &Server{addr: addr}
	s.srv = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

func (s *Server) SetRunning(ok bool) {
	s.running.Store(ok)
}

// RecordRelay notes the outcome of the latest POST upstream.
func (s *Server) RecordRelay(ok bool, at time.Time) {
	s.relays.Add(1)
	s.lastRelayOk.Store(ok)
	s.lastRelayAt.Store(at.UnixNano())
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.handleHealth)
	mux.Handle("/metrics", promhttp.Handler())
	return mux
}

// Serve blocks until the server is shut down.
func (s *Server) Serve() error {
	if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

type status struct {
	Running     bool       `json:"running"`
	Relays      int64      `json:"relays"`
	LastRelayOk bool       `json:"last_relay_ok"`
	LastRelayAt *time.Time `json:"last_relay_at,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := status{
		Running:     s.running.Load(),
		Relays:      s.relays.Load(),
		LastRelayOk: s.lastRelayOk.Load(),
	}
	if ns := s.lastRelayAt.Load(); ns != 0 {
		at := time.Unix(0, ns).UTC()
		resp.LastRelayAt = &at
	}

	w.Header().Set("Content-Type", "application/json")
	if !resp.Running {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	_ = json.NewEncoder(w).Encode(resp)
}
