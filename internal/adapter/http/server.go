// Package http exposes the navigator API: scene CRUD and playback control
// under /v1, the websocket bridge at /ws, and the health, readiness, and
// metrics endpoints.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/couchcryptid/storm-navigator/internal/broadcast"
	"github.com/couchcryptid/storm-navigator/internal/domain"
	"github.com/couchcryptid/storm-navigator/internal/playback"
	"github.com/couchcryptid/storm-navigator/internal/scene"
)

// ReadinessChecker reports whether the service is ready to serve traffic.
type ReadinessChecker interface {
	CheckReadiness(ctx context.Context) error
}

// Server exposes the navigator HTTP API.
type Server struct {
	httpServer  *http.Server
	engine      *playback.Engine
	broadcaster *broadcast.Broadcaster
	logger      *slog.Logger
}

// NewServer creates an HTTP server with the full route table. ws serves the
// map client bridge; pass nil to disable the endpoint (tests mostly do).
func NewServer(addr string, engine *playback.Engine, broadcaster *broadcast.Broadcaster, ws http.Handler, ready ReadinessChecker, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		engine:      engine,
		broadcaster: broadcaster,
		logger:      logger,
	}

	mux.HandleFunc("GET /v1/scenes", s.handleListScenes)
	mux.HandleFunc("POST /v1/scenes", s.handleCaptureScene)
	mux.HandleFunc("POST /v1/scenes/last/play", s.handlePlayLast)
	mux.HandleFunc("POST /v1/scenes/{id}/play", s.handlePlayScene)
	mux.HandleFunc("POST /v1/scenes/{id}/rename", s.handleRenameScene)
	mux.HandleFunc("PUT /v1/scenes/{id}/view", s.handleUpdateView)
	mux.HandleFunc("DELETE /v1/scenes/{id}", s.handleDeleteScene)
	mux.HandleFunc("GET /v1/scenes/{id}/cards", s.handleSceneCards)
	mux.HandleFunc("POST /v1/navigate/{id}", s.handleNavigate)
	mux.HandleFunc("GET /v1/playback", s.handlePlaybackState)
	mux.HandleFunc("GET /v1/transition", s.handleTransition)
	mux.HandleFunc("POST /v1/transition/manual", s.handleManualTransition)
	mux.HandleFunc("POST /v1/capacity", s.handleCapacity)

	if ws != nil {
		mux.Handle("GET /ws", ws)
	}

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", handleReady(ready))
	mux.Handle("GET /metrics", promhttp.Handler())

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

// layerStateBody is the capture and re-capture request body: the client's
// current layer state. The camera comes from the websocket bridge.
type layerStateBody struct {
	LayerVisibility map[string]bool `json:"layerVisibility"`
	ParksEnabled    bool            `json:"parksEnabled"`
}

func (s *Server) handleListScenes(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.engine.Scenes())
}

func (s *Server) handleCaptureScene(w http.ResponseWriter, r *http.Request) {
	var body layerStateBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	captured, err := s.engine.Capture(r.Context(), body.LayerVisibility, body.ParksEnabled)
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, captured)
}

func (s *Server) handlePlayLast(w http.ResponseWriter, r *http.Request) {
	if err := s.engine.PlayLast(r.Context()); err != nil {
		s.writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.engine.Snapshot())
}

func (s *Server) handlePlayScene(w http.ResponseWriter, r *http.Request) {
	if err := s.engine.Play(r.Context(), r.PathValue("id")); err != nil {
		s.writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.engine.Snapshot())
}

func (s *Server) handleRenameScene(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	renamed, err := s.engine.Rename(r.Context(), r.PathValue("id"), body.Name)
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, renamed)
}

func (s *Server) handleUpdateView(w http.ResponseWriter, r *http.Request) {
	var body layerStateBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	updated, err := s.engine.UpdateView(r.Context(), r.PathValue("id"), body.LayerVisibility, body.ParksEnabled)
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleDeleteScene(w http.ResponseWriter, r *http.Request) {
	if err := s.engine.Remove(r.Context(), r.PathValue("id")); err != nil {
		s.writeEngineError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSceneCards(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.engine.CardsForScene(r.PathValue("id")))
}

func (s *Server) handleNavigate(w http.ResponseWriter, r *http.Request) {
	if err := s.engine.NavigateToScene(r.Context(), r.PathValue("id")); err != nil {
		s.writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.engine.Snapshot())
}

func (s *Server) handlePlaybackState(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.engine.Snapshot())
}

func (s *Server) handleTransition(w http.ResponseWriter, _ *http.Request) {
	diff, ok := s.broadcaster.Active()
	if !ok {
		writeJSON(w, http.StatusOK, nil)
		return
	}
	writeJSON(w, http.StatusOK, diff)
}

func (s *Server) handleManualTransition(w http.ResponseWriter, r *http.Request) {
	var body struct {
		ChangedKeys []string `json:"changedKeys"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(body.ChangedKeys) == 0 {
		writeError(w, http.StatusBadRequest, "changedKeys is required")
		return
	}

	s.broadcaster.Trigger(body.ChangedKeys, domain.DiffManual)
	diff, _ := s.broadcaster.Active()
	writeJSON(w, http.StatusOK, diff)
}

func (s *Server) handleCapacity(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Visibility    map[string]bool `json:"visibility"`
		FeatureCounts map[string]int  `json:"featureCounts"`
		Zoom          float64         `json:"zoom"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	writeJSON(w, http.StatusOK, domain.EstimateCapacity(body.Visibility, body.FeatureCounts, body.Zoom))
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func handleReady(checker ReadinessChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := checker.CheckReadiness(ctx); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "not ready",
				"error":  err.Error(),
			})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

// writeEngineError maps engine sentinels to response codes. The engine has
// already set its user-visible status text by the time these surface.
func (s *Server) writeEngineError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrSceneNotFound), errors.Is(err, scene.ErrNoScenes):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrControllerNotReady):
		writeError(w, http.StatusServiceUnavailable, err.Error())
	default:
		s.logger.Error("request failed", "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort response write
}
