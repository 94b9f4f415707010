package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/ayusman/abhinaya/internal/store"
)

// GainHandler handles HTTP requests for retargeting gain rule resources.
type GainHandler struct {
	store    *store.Store
	onChange func()
}

// NewGainHandler creates a new GainHandler with the given store. onChange, if
// non-nil, runs after every successful write so a live pipeline can reload the
// gain table.
func NewGainHandler(s *store.Store, onChange func()) *GainHandler {
	return &GainHandler{store: s, onChange: onChange}
}

// notify reports a successful write to the pipeline.
func (h *GainHandler) notify() {
	if h.onChange != nil {
		h.onChange()
	}
}

// ServeHTTP implements the http.Handler interface and routes requests to appropriate methods.
func (h *GainHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// Expected paths: /api/gains or /api/gains/{id}
	path := strings.TrimPrefix(r.URL.Path, "/api/gains")
	path = strings.TrimPrefix(path, "/")

	if path == "" {
		switch r.Method {
		case http.MethodGet:
			h.list(w, r)
		case http.MethodPost:
			h.create(w, r)
		case http.MethodPut:
			h.replace(w, r)
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

type gainRuleRequest struct {
	Category   string  `json:"category"`
	Multiplier float64 `json:"multiplier"`
	Priority   int     `json:"priority"`
}

type updateGainRuleRequest struct {
	Category   string   `json:"category"`
	Multiplier *float64 `json:"multiplier"`
	Priority   *int     `json:"priority"`
}

type gainRuleResponse struct {
	ID         string  `json:"id"`
	Category   string  `json:"category"`
	Multiplier float64 `json:"multiplier"`
	Priority   int     `json:"priority"`
	CreatedAt  string  `json:"created_at"`
}

type listGainRulesResponse struct {
	Rules []gainRuleResponse `json:"rules"`
}

type replaceGainRulesRequest struct {
	Rules []gainRuleRequest `json:"rules"`
}

// toGainRuleResponse converts a store.GainRule to a gainRuleResponse.
func toGainRuleResponse(g *store.GainRule) gainRuleResponse {
	return gainRuleResponse{
		ID:         g.ID,
		Category:   g.Category,
		Multiplier: g.Multiplier,
		Priority:   g.Priority,
		CreatedAt:  g.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}

// list handles GET /api/gains and returns all gain rules in priority order.
func (h *GainHandler) list(w http.ResponseWriter, r *http.Request) {
	rules, err := h.store.GainRules().List()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list gain rules")
		return
	}

	response := listGainRulesResponse{
		Rules: make([]gainRuleResponse, 0, len(rules)),
	}

	for _, g := range rules {
		response.Rules = append(response.Rules, toGainRuleResponse(g))
	}

	writeJSON(w, http.StatusOK, response)
}

// get handles GET /api/gains/{id} and returns a single gain rule.
func (h *GainHandler) get(w http.ResponseWriter, r *http.Request, id string) {
	rule, err := h.store.GainRules().GetByID(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Gain rule not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to get gain rule")
		return
	}

	writeJSON(w, http.StatusOK, toGainRuleResponse(rule))
}

// create handles POST /api/gains and creates a new gain rule.
func (h *GainHandler) create(w http.ResponseWriter, r *http.Request) {
	var req gainRuleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	if req.Category == "" {
		writeError(w, http.StatusBadRequest, "Category is required")
		return
	}
	if req.Multiplier <= 0 {
		writeError(w, http.StatusBadRequest, "Multiplier must be positive")
		return
	}

	rule := &store.GainRule{
		ID:         uuid.New().String(),
		Category:   req.Category,
		Multiplier: req.Multiplier,
		Priority:   req.Priority,
	}

	if err := h.store.GainRules().Create(rule); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create gain rule")
		return
	}

	h.notify()
	writeJSON(w, http.StatusCreated, toGainRuleResponse(rule))
}

// replace handles PUT /api/gains and swaps the whole gain table atomically.
// The rule order in the request becomes the match priority.
func (h *GainHandler) replace(w http.ResponseWriter, r *http.Request) {
	var req replaceGainRulesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	rules := make([]*store.GainRule, 0, len(req.Rules))
	for _, in := range req.Rules {
		if in.Category == "" {
			writeError(w, http.StatusBadRequest, "Category is required")
			return
		}
		if in.Multiplier <= 0 {
			writeError(w, http.StatusBadRequest, "Multiplier must be positive")
			return
		}
		rules = append(rules, &store.GainRule{
			ID:         uuid.New().String(),
			Category:   in.Category,
			Multiplier: in.Multiplier,
		})
	}

	if err := h.store.GainRules().Replace(rules); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to replace gain rules")
		return
	}

	h.notify()

	response := listGainRulesResponse{
		Rules: make([]gainRuleResponse, 0, len(rules)),
	}
	for _, g := range rules {
		response.Rules = append(response.Rules, toGainRuleResponse(g))
	}

	writeJSON(w, http.StatusOK, response)
}

// update handles PUT /api/gains/{id} and updates an existing gain rule.
func (h *GainHandler) update(w http.ResponseWriter, r *http.Request, id string) {
	rule, err := h.store.GainRules().GetByID(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Gain rule not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to get gain rule")
		return
	}

	var req updateGainRuleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	if req.Category != "" {
		rule.Category = req.Category
	}
	if req.Multiplier != nil {
		if *req.Multiplier <= 0 {
			writeError(w, http.StatusBadRequest, "Multiplier must be positive")
			return
		}
		rule.Multiplier = *req.Multiplier
	}
	if req.Priority != nil {
		rule.Priority = *req.Priority
	}

	if err := h.store.GainRules().Update(rule); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to update gain rule")
		return
	}

	h.notify()
	writeJSON(w, http.StatusOK, toGainRuleResponse(rule))
}

// delete handles DELETE /api/gains/{id} and removes a gain rule.
func (h *GainHandler) delete(w http.ResponseWriter, r *http.Request, id string) {
	if err := h.store.GainRules().Delete(id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Gain rule not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to delete gain rule")
		return
	}

	h.notify()
	w.WriteHeader(http.StatusNoContent)
}
