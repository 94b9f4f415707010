// Package server provides the HTTP server for the Abhinaya face retargeting system.
package server

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/ayusman/abhinaya/internal/app"
	"github.com/ayusman/abhinaya/internal/capture"
	"github.com/ayusman/abhinaya/internal/server/api"
	"github.com/ayusman/abhinaya/internal/store"
)

// Config holds the server configuration.
type Config struct {
	StaticDir string
	Store     *store.Store
	Camera    capture.Camera
	App       *app.App
}

// Server represents the HTTP server for the Abhinaya application.
type Server struct {
	config Config
	mux    *http.ServeMux
	face   *FaceHandler
	start  time.Time
}

// New creates a new Server with the given configuration. When an App is
// configured, the server subscribes to its render output and forwards every
// frame to WebSocket clients.
func New(config Config) *Server {
	s := &Server{
		config: config,
		mux:    http.NewServeMux(),
		face:   NewFaceHandler(),
		start:  time.Now(),
	}
	s.setupRoutes()

	if config.App != nil {
		config.App.OnRender(s.face.Publish)
	}

	return s
}

// FaceHandler returns the WebSocket broadcast handler, so callers can push
// render commands without going through an App.
func (s *Server) FaceHandler() *FaceHandler {
	return s.face
}

// setupRoutes configures all HTTP routes for the server.
func (s *Server) setupRoutes() {
	s.mux.HandleFunc("/api/health", s.handleHealth)

	// Register resource API handlers if Store is configured
	if s.config.Store != nil {
		avatarHandler := api.NewAvatarHandler(s.config.Store)
		s.mux.Handle("/api/avatars", avatarHandler)
		s.mux.Handle("/api/avatars/", avatarHandler)

		gainHandler := api.NewGainHandler(s.config.Store, s.reloadGains)
		s.mux.Handle("/api/gains", gainHandler)
		s.mux.Handle("/api/gains/", gainHandler)

		triggerHandler := api.NewTriggerHandler(s.config.Store, s.reloadTriggers)
		s.mux.Handle("/api/triggers", triggerHandler)
		s.mux.Handle("/api/triggers/", triggerHandler)

		actionHandler := api.NewActionHandler(s.config.Store)
		s.mux.Handle("/api/actions", actionHandler)
		s.mux.Handle("/api/actions/", actionHandler)
	}

	// Register camera endpoints if Camera is configured
	if s.config.Camera != nil {
		s.mux.Handle("/api/stream", NewStreamHandler(s.config.Camera))
		s.mux.Handle("/api/snapshot", NewSnapshotHandler(s.config.Camera))
	}

	// Render command WebSocket endpoint
	s.mux.Handle("/api/face", s.face)

	// Serve static files if StaticDir is configured
	if s.config.StaticDir != "" {
		fs := http.FileServer(http.Dir(s.config.StaticDir))
		s.mux.Handle("/", fs)
	}
}

// reloadGains refreshes the running pipeline's gain table after an API write.
func (s *Server) reloadGains() {
	if s.config.App == nil {
		return
	}
	if err := s.config.App.LoadGainRules(); err != nil {
		log.Printf("Failed to reload gain rules: %v", err)
	}
}

// reloadTriggers refreshes the running pipeline's trigger rules after an API write.
func (s *Server) reloadTriggers() {
	if s.config.App == nil {
		return
	}
	if err := s.config.App.LoadTriggers(); err != nil {
		log.Printf("Failed to reload triggers: %v", err)
	}
}

// ServeHTTP implements the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// handleHealth handles GET requests to /api/health.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	uptime := time.Since(s.start)

	response := map[string]interface{}{
		"status": "ok",
		"uptime": uptime.String(),
	}
	if s.config.App != nil {
		response["state"] = s.config.App.State().String()
		response["tracking"] = s.config.App.Status()
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
		return
	}
}

// ListenAndServe starts the HTTP server on the given address.
func (s *Server) ListenAndServe(addr string) error {
	return http.ListenAndServe(addr, s)
}
