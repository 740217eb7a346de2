// Package web provides the clock's HTTP status server.
package web

import (
	"context"
	"net"
	"net/http"

	"github.com/rs/zerolog/log"
	"github.com/sweeney/matrix-clock/internal/status"
)

// Forcer requests an immediate resync.
type Forcer interface {
	Force()
}

// Server serves the status page, JSON status, metrics and manual resync.
type Server struct {
	httpServer *http.Server
	tracker    *status.Tracker
	forcer     Forcer
}

// New creates a Server. forcer and metrics may be nil, which disables
// POST /sync and /metrics respectively.
func New(addr string, tracker *status.Tracker, forcer Forcer, metrics http.Handler) *Server {
	s := &Server{tracker: tracker, forcer: forcer}

	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleIndex)
	mux.HandleFunc("/index.html", s.handleIndex)
	mux.HandleFunc("/index.json", s.handleJSON)
	if forcer != nil {
		mux.HandleFunc("POST /sync", s.handleSync)
	}
	if metrics != nil {
		mux.Handle("/metrics", metrics)
	}

	s.httpServer = &http.Server{
		Addr:    addr,
		Handler: mux,
	}
	return s
}

// Handler returns the server's routes. Useful for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// ListenAndServe starts listening. It blocks until the server is shut down.
func (s *Server) ListenAndServe() error {
	return s.httpServer.ListenAndServe()
}

// Serve accepts connections on the given listener.
func (s *Server) Serve(ln net.Listener) error {
	return s.httpServer.Serve(ln)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" && r.URL.Path != "/index.html" {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := renderHTML(w, s.tracker.Snapshot()); err != nil {
		log.Error().Err(err).Msg("render status page")
	}
}

func (s *Server) handleJSON(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write(status.FormatJSON(s.tracker.Snapshot()))
}

func (s *Server) handleSync(w http.ResponseWriter, r *http.Request) {
	log.Info().Str("remote", r.RemoteAddr).Msg("manual resync requested")
	s.forcer.Force()
	w.WriteHeader(http.StatusAccepted)
}
