// Package web exposes the display set, settings and live countdown stream
// over HTTP.
package web

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"gridclock/internal/config"
	"gridclock/internal/countdown"
	applog "gridclock/internal/log"
	"gridclock/internal/metrics"
	"gridclock/internal/pipeline"
)

// Server provides the HTTP API.
type Server struct {
	store   *config.Store
	pipe    *pipeline.Pipeline
	bc      *countdown.Broadcaster
	metrics metrics.Recorder
	mux     *http.ServeMux
	log     zerolog.Logger
}

// NewServer constructs a Server over the given collaborators.
func NewServer(store *config.Store, pipe *pipeline.Pipeline, bc *countdown.Broadcaster, rec metrics.Recorder) *Server {
	if rec == nil {
		rec = metrics.Noop{}
	}
	s := &Server{
		store:   store,
		pipe:    pipe,
		bc:      bc,
		metrics: rec,
		mux:     http.NewServeMux(),
		log:     applog.WithComponent("web"),
	}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.HandleFunc("GET /api/sessions", s.handleSessions)
	s.mux.HandleFunc("GET /api/config", s.handleGetConfig)
	s.mux.HandleFunc("PUT /api/config", s.handlePutConfig)
	s.mux.HandleFunc("POST /api/reload", s.handleReload)
	s.mux.HandleFunc("POST /api/notifications/test", s.handleTestNotification)
	s.mux.HandleFunc("GET /ws", s.handleWS)
	s.mux.Handle("GET /metrics", promhttp.Handler())
}

// Handler returns the HTTP handler, wrapped in basic auth when configured.
func (s *Server) Handler() http.Handler {
	h := http.Handler(s.mux)
	if cfg := s.store.Get(); cfg.BasicAuth != nil && cfg.BasicAuth.Username != "" && cfg.BasicAuth.Password != "" {
		s.log.Info().Msg("HTTP basic auth enabled")
		return s.basicAuthMiddleware(h)
	}
	return h
}

// basicAuthMiddleware protects every endpoint except /health.
func (s *Server) basicAuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			next.ServeHTTP(w, r)
			return
		}

		cfg := s.store.Get()
		if cfg.BasicAuth == nil {
			next.ServeHTTP(w, r)
			return
		}

		u, p, ok := r.BasicAuth()
		if !ok || !secureCompare(u, cfg.BasicAuth.Username) || !secureCompare(p, cfg.BasicAuth.Password) {
			w.Header().Set("WWW-Authenticate", `Basic realm="Gridclock", charset="UTF-8"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// secureCompare compares two strings in constant time.
func secureCompare(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleSessions(w http.ResponseWriter, _ *http.Request) {
	set, err := s.pipe.Display()
	if err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "Error loading events"})
		return
	}
	writeJSON(w, http.StatusOK, set)
}

func (s *Server) handleGetConfig(w http.ResponseWriter, _ *http.Request) {
	cfg := s.store.Get()
	// Credentials stay server-side.
	cfg.BasicAuth = nil
	writeJSON(w, http.StatusOK, cfg)
}

// handlePutConfig persists new settings and triggers a fresh cycle, the
// settings-change reload path.
func (s *Server) handlePutConfig(w http.ResponseWriter, r *http.Request) {
	var next config.Config
	if err := json.NewDecoder(r.Body).Decode(&next); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid config payload"})
		return
	}

	// Preserve credentials; they are not settable over the API.
	current := s.store.Get()
	next.BasicAuth = current.BasicAuth

	if err := s.store.Replace(&next); err != nil {
		s.log.Error().Err(err).Msg("config save failed")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to save config"})
		return
	}

	s.refreshAsync(r.Context())
	writeJSON(w, http.StatusOK, map[string]string{"status": "saved"})
}

func (s *Server) handleReload(w http.ResponseWriter, r *http.Request) {
	s.refreshAsync(r.Context())
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "reloading"})
}

func (s *Server) handleTestNotification(w http.ResponseWriter, _ *http.Request) {
	s.pipe.TestNotification()
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	var initial []byte
	if set, err := s.pipe.Display(); err == nil {
		initial, _ = json.Marshal(struct {
			Type string      `json:"type"`
			Set  interface{} `json:"set"`
		}{Type: "display", Set: set})
	}

	s.metrics.SetConnectedClients(s.bc.Clients() + 1)
	s.bc.HandleConnection(w, r, initial)
	s.metrics.SetConnectedClients(s.bc.Clients())
}

// refreshAsync runs a cycle without holding up the HTTP response. The
// request context would die with the response, so the cycle gets its own.
func (s *Server) refreshAsync(_ context.Context) {
	go func() {
		if err := s.pipe.Refresh(context.Background()); err != nil {
			s.log.Error().Err(err).Msg("refresh failed")
		}
	}()
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
