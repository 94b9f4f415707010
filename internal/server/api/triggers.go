package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/ayusman/abhinaya/internal/store"
)

// TriggerHandler handles HTTP requests for expression trigger resources.
type TriggerHandler struct {
	store    *store.Store
	onChange func()
}

// NewTriggerHandler creates a new TriggerHandler with the given store.
// onChange, if non-nil, runs after every successful write so a live pipeline
// can reload its trigger rules.
func NewTriggerHandler(s *store.Store, onChange func()) *TriggerHandler {
	return &TriggerHandler{store: s, onChange: onChange}
}

// notify reports a successful write to the pipeline.
func (h *TriggerHandler) notify() {
	if h.onChange != nil {
		h.onChange()
	}
}

// ServeHTTP implements the http.Handler interface and routes requests to appropriate methods.
func (h *TriggerHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// Expected paths: /api/triggers or /api/triggers/{id}
	path := strings.TrimPrefix(r.URL.Path, "/api/triggers")
	path = strings.TrimPrefix(path, "/")

	if path == "" {
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

type createTriggerRequest struct {
	Name       string  `json:"name"`
	Blendshape string  `json:"blendshape"`
	Threshold  float64 `json:"threshold"`
	HoldFrames int     `json:"hold_frames"`
	CooldownMs int     `json:"cooldown_ms"`
}

type updateTriggerRequest struct {
	Name       string   `json:"name"`
	Blendshape string   `json:"blendshape"`
	Threshold  *float64 `json:"threshold"`
	HoldFrames *int     `json:"hold_frames"`
	CooldownMs *int     `json:"cooldown_ms"`
	Enabled    *bool    `json:"enabled"`
}

type triggerResponse struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	Blendshape string  `json:"blendshape"`
	Threshold  float64 `json:"threshold"`
	HoldFrames int     `json:"hold_frames"`
	CooldownMs int     `json:"cooldown_ms"`
	Enabled    bool    `json:"enabled"`
	CreatedAt  string  `json:"created_at"`
}

type listTriggersResponse struct {
	Triggers []triggerResponse `json:"triggers"`
}

// toTriggerResponse converts a store.Trigger to a triggerResponse.
func toTriggerResponse(t *store.Trigger) triggerResponse {
	return triggerResponse{
		ID:         t.ID,
		Name:       t.Name,
		Blendshape: t.Blendshape,
		Threshold:  t.Threshold,
		HoldFrames: t.HoldFrames,
		CooldownMs: t.CooldownMs,
		Enabled:    t.Enabled,
		CreatedAt:  t.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}

// list handles GET /api/triggers and returns all triggers.
func (h *TriggerHandler) list(w http.ResponseWriter, r *http.Request) {
	triggers, err := h.store.Triggers().List()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list triggers")
		return
	}

	response := listTriggersResponse{
		Triggers: make([]triggerResponse, 0, len(triggers)),
	}

	for _, t := range triggers {
		response.Triggers = append(response.Triggers, toTriggerResponse(t))
	}

	writeJSON(w, http.StatusOK, response)
}

// get handles GET /api/triggers/{id} and returns a single trigger.
func (h *TriggerHandler) get(w http.ResponseWriter, r *http.Request, id string) {
	trig, err := h.store.Triggers().GetByID(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Trigger not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to get trigger")
		return
	}

	writeJSON(w, http.StatusOK, toTriggerResponse(trig))
}

// create handles POST /api/triggers and creates a new trigger.
func (h *TriggerHandler) create(w http.ResponseWriter, r *http.Request) {
	var req createTriggerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "Name is required")
		return
	}
	if req.Blendshape == "" {
		writeError(w, http.StatusBadRequest, "Blendshape is required")
		return
	}
	if req.Threshold < 0 || req.Threshold > 1 {
		writeError(w, http.StatusBadRequest, "Threshold must be in [0,1]")
		return
	}

	trig := &store.Trigger{
		ID:         uuid.New().String(),
		Name:       req.Name,
		Blendshape: req.Blendshape,
		Threshold:  req.Threshold,
		HoldFrames: req.HoldFrames,
		CooldownMs: req.CooldownMs,
		Enabled:    true,
	}
	if trig.Threshold == 0 {
		trig.Threshold = 0.8
	}
	if trig.HoldFrames <= 0 {
		trig.HoldFrames = 3
	}
	if trig.CooldownMs <= 0 {
		trig.CooldownMs = 1000
	}

	if err := h.store.Triggers().Create(trig); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create trigger")
		return
	}

	h.notify()
	writeJSON(w, http.StatusCreated, toTriggerResponse(trig))
}

// update handles PUT /api/triggers/{id} and updates an existing trigger.
func (h *TriggerHandler) update(w http.ResponseWriter, r *http.Request, id string) {
	trig, err := h.store.Triggers().GetByID(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Trigger not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to get trigger")
		return
	}

	var req updateTriggerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	if req.Name != "" {
		trig.Name = req.Name
	}
	if req.Blendshape != "" {
		trig.Blendshape = req.Blendshape
	}
	if req.Threshold != nil {
		if *req.Threshold < 0 || *req.Threshold > 1 {
			writeError(w, http.StatusBadRequest, "Threshold must be in [0,1]")
			return
		}
		trig.Threshold = *req.Threshold
	}
	if req.HoldFrames != nil && *req.HoldFrames > 0 {
		trig.HoldFrames = *req.HoldFrames
	}
	if req.CooldownMs != nil && *req.CooldownMs >= 0 {
		trig.CooldownMs = *req.CooldownMs
	}
	if req.Enabled != nil {
		trig.Enabled = *req.Enabled
	}

	if err := h.store.Triggers().Update(trig); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to update trigger")
		return
	}

	h.notify()
	writeJSON(w, http.StatusOK, toTriggerResponse(trig))
}

// delete handles DELETE /api/triggers/{id} and removes a trigger together with
// its bound action.
func (h *TriggerHandler) delete(w http.ResponseWriter, r *http.Request, id string) {
	if err := h.store.Triggers().Delete(id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Trigger not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to delete trigger")
		return
	}

	h.notify()
	w.WriteHeader(http.StatusNoContent)
}
