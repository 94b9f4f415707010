// Package api provides HTTP API handlers for the Abhinaya face retargeting system.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/ayusman/abhinaya/internal/store"
)

// AvatarHandler handles HTTP requests for avatar resources.
type AvatarHandler struct {
	store *store.Store
}

// NewAvatarHandler creates a new AvatarHandler with the given store.
func NewAvatarHandler(s *store.Store) *AvatarHandler {
	return &AvatarHandler{store: s}
}

// ServeHTTP implements the http.Handler interface and routes requests to appropriate methods.
func (h *AvatarHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// Parse the path to determine if this is a collection or item request
	// Expected paths: /api/avatars or /api/avatars/{id}
	path := strings.TrimPrefix(r.URL.Path, "/api/avatars")
	path = strings.TrimPrefix(path, "/")

	if path == "" {
		// Collection endpoint: /api/avatars
		switch r.Method {
		case http.MethodGet:
			h.list(w, r)
		case http.MethodPost:
			h.create(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
		return
	}

	// Item endpoint: /api/avatars/{id}
	id := path
	switch r.Method {
	case http.MethodGet:
		h.get(w, r, id)
	case http.MethodPut:
		h.update(w, r, id)
	case http.MethodDelete:
		h.delete(w, r, id)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// Request and response types

type avatarRequest struct {
	Name      string  `json:"name"`
	ModelURL  string  `json:"model_url"`
	PoseScale float64 `json:"pose_scale"`
}

type avatarResponse struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	ModelURL  string  `json:"model_url"`
	PoseScale float64 `json:"pose_scale"`
	CreatedAt string  `json:"created_at"`
	UpdatedAt string  `json:"updated_at"`
}

type listAvatarsResponse struct {
	Avatars []avatarResponse `json:"avatars"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// toAvatarResponse converts a store.Avatar to an avatarResponse.
func toAvatarResponse(a *store.Avatar) avatarResponse {
	return avatarResponse{
		ID:        a.ID,
		Name:      a.Name,
		ModelURL:  a.ModelURL,
		PoseScale: a.PoseScale,
		CreatedAt: a.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		UpdatedAt: a.UpdatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// list handles GET /api/avatars and returns all avatars.
func (h *AvatarHandler) list(w http.ResponseWriter, r *http.Request) {
	avatars, err := h.store.Avatars().List()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list avatars")
		return
	}

	response := listAvatarsResponse{
		Avatars: make([]avatarResponse, 0, len(avatars)),
	}

	for _, a := range avatars {
		response.Avatars = append(response.Avatars, toAvatarResponse(a))
	}

	writeJSON(w, http.StatusOK, response)
}

// get handles GET /api/avatars/{id} and returns a single avatar.
func (h *AvatarHandler) get(w http.ResponseWriter, r *http.Request, id string) {
	avatar, err := h.store.Avatars().GetByID(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Avatar not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to get avatar")
		return
	}

	writeJSON(w, http.StatusOK, toAvatarResponse(avatar))
}

// create handles POST /api/avatars and creates a new avatar.
func (h *AvatarHandler) create(w http.ResponseWriter, r *http.Request) {
	var req avatarRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	// Validate required fields
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "Name is required")
		return
	}
	if req.ModelURL == "" {
		writeError(w, http.StatusBadRequest, "Model URL is required")
		return
	}

	// Set default pose scale if not provided
	poseScale := req.PoseScale
	if poseScale == 0 {
		poseScale = 40
	}
	if poseScale < 0 {
		writeError(w, http.StatusBadRequest, "Pose scale must be positive")
		return
	}

	avatar := &store.Avatar{
		ID:        uuid.New().String(),
		Name:      req.Name,
		ModelURL:  req.ModelURL,
		PoseScale: poseScale,
	}

	if err := h.store.Avatars().Create(avatar); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create avatar")
		return
	}

	writeJSON(w, http.StatusCreated, toAvatarResponse(avatar))
}

// update handles PUT /api/avatars/{id} and updates an existing avatar.
func (h *AvatarHandler) update(w http.ResponseWriter, r *http.Request, id string) {
	var req avatarRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	avatar, err := h.store.Avatars().GetByID(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Avatar not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to get avatar")
		return
	}

	if req.Name != "" {
		avatar.Name = req.Name
	}
	if req.ModelURL != "" {
		avatar.ModelURL = req.ModelURL
	}
	if req.PoseScale > 0 {
		avatar.PoseScale = req.PoseScale
	}

	if err := h.store.Avatars().Update(avatar); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to update avatar")
		return
	}

	writeJSON(w, http.StatusOK, toAvatarResponse(avatar))
}

// delete handles DELETE /api/avatars/{id} and removes an avatar.
func (h *AvatarHandler) delete(w http.ResponseWriter, r *http.Request, id string) {
	if err := h.store.Avatars().Delete(id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Avatar not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to delete avatar")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
