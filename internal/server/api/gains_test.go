package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ayusman/abhinaya/internal/store"
)

func TestGainHandler_Replace(t *testing.T) {
	s := newTestStore(t)
	handler := NewGainHandler(s, nil)

	// Seed a rule that the replace must wipe.
	if err := s.GainRules().Create(&store.GainRule{
		ID: "old", Category: "cheek", Multiplier: 9.9, Priority: 0,
	}); err != nil {
		t.Fatalf("failed to seed gain rule: %v", err)
	}

	body := `{"rules": [
		{"category": "mouth", "multiplier": 2.2},
		{"category": "jaw", "multiplier": 2.0}
	]}`
	req := httptest.NewRequest(http.MethodPut, "/api/gains", bytes.NewBufferString(body))
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
	}

	rules, err := s.GainRules().List()
	if err != nil {
		t.Fatalf("failed to list gain rules: %v", err)
	}
	if len(rules) != 2 {
		t.Fatalf("expected 2 rules after replace, got %d", len(rules))
	}
	if rules[0].Category != "mouth" || rules[1].Category != "jaw" {
		t.Errorf("rule order = [%s, %s], want [mouth, jaw]", rules[0].Category, rules[1].Category)
	}
}

func TestGainHandler_Create_RejectsBadMultiplier(t *testing.T) {
	s := newTestStore(t)
	handler := NewGainHandler(s, nil)

	body := `{"category": "mouth", "multiplier": -1}`
	req := httptest.NewRequest(http.MethodPost, "/api/gains", bytes.NewBufferString(body))
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected status %d, got %d", http.StatusBadRequest, rec.Code)
	}
}

func TestTriggerHandler_Create_Defaults(t *testing.T) {
	s := newTestStore(t)
	handler := NewTriggerHandler(s, nil)

	body := `{"name": "brow raise", "blendshape": "browInnerUp"}`
	req := httptest.NewRequest(http.MethodPost, "/api/triggers", bytes.NewBufferString(body))
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected status %d, got %d", http.StatusCreated, rec.Code)
	}

	var response triggerResponse
	if err := json.NewDecoder(rec.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if response.Threshold != 0.8 {
		t.Errorf("expected default threshold 0.8, got %f", response.Threshold)
	}
	if response.HoldFrames != 3 {
		t.Errorf("expected default hold_frames 3, got %d", response.HoldFrames)
	}
	if response.CooldownMs != 1000 {
		t.Errorf("expected default cooldown_ms 1000, got %d", response.CooldownMs)
	}
	if !response.Enabled {
		t.Error("expected new trigger to be enabled")
	}
}

func TestTriggerHandler_Create_RejectsBadThreshold(t *testing.T) {
	s := newTestStore(t)
	handler := NewTriggerHandler(s, nil)

	body := `{"name": "x", "blendshape": "jawOpen", "threshold": 1.5}`
	req := httptest.NewRequest(http.MethodPost, "/api/triggers", bytes.NewBufferString(body))
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected status %d, got %d", http.StatusBadRequest, rec.Code)
	}
}

func TestGainHandler_NotifiesOnWrite(t *testing.T) {
	s := newTestStore(t)

	var notified int
	handler := NewGainHandler(s, func() { notified++ })

	// Create
	req := httptest.NewRequest(http.MethodPost, "/api/gains",
		bytes.NewBufferString(`{"category": "mouth", "multiplier": 2.2}`))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d, want %d", rec.Code, http.StatusCreated)
	}
	if notified != 1 {
		t.Errorf("notified = %d after create, want 1", notified)
	}

	var created gainRuleResponse
	json.NewDecoder(rec.Body).Decode(&created)

	// Update
	req = httptest.NewRequest(http.MethodPut, "/api/gains/"+created.ID,
		bytes.NewBufferString(`{"multiplier": 3.0}`))
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("update status = %d, want %d", rec.Code, http.StatusOK)
	}

	// Replace
	req = httptest.NewRequest(http.MethodPut, "/api/gains",
		bytes.NewBufferString(`{"rules": [{"category": "jaw", "multiplier": 2.0}]}`))
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("replace status = %d, want %d", rec.Code, http.StatusOK)
	}

	if notified != 3 {
		t.Errorf("notified = %d after create+update+replace, want 3", notified)
	}

	// A rejected write must not notify.
	req = httptest.NewRequest(http.MethodPost, "/api/gains",
		bytes.NewBufferString(`{"category": "", "multiplier": 1.0}`))
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("invalid create status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
	if notified != 3 {
		t.Errorf("notified = %d after rejected write, want 3", notified)
	}
}

func TestGainHandler_Update_PriorityToZero(t *testing.T) {
	s := newTestStore(t)
	handler := NewGainHandler(s, nil)

	if err := s.GainRules().Create(&store.GainRule{
		ID: "r1", Category: "mouth", Multiplier: 2.2, Priority: 5,
	}); err != nil {
		t.Fatalf("failed to seed gain rule: %v", err)
	}

	req := httptest.NewRequest(http.MethodPut, "/api/gains/r1",
		bytes.NewBufferString(`{"priority": 0}`))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("update status = %d, want %d", rec.Code, http.StatusOK)
	}

	rule, err := s.GainRules().GetByID("r1")
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if rule.Priority != 0 {
		t.Errorf("priority = %d, want 0", rule.Priority)
	}
	if rule.Multiplier != 2.2 {
		t.Errorf("multiplier = %f, want untouched 2.2", rule.Multiplier)
	}
}

func TestGainHandler_Update_OmittedPriorityUnchanged(t *testing.T) {
	s := newTestStore(t)
	handler := NewGainHandler(s, nil)

	if err := s.GainRules().Create(&store.GainRule{
		ID: "r1", Category: "mouth", Multiplier: 2.2, Priority: 5,
	}); err != nil {
		t.Fatalf("failed to seed gain rule: %v", err)
	}

	req := httptest.NewRequest(http.MethodPut, "/api/gains/r1",
		bytes.NewBufferString(`{"multiplier": 3.0}`))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("update status = %d, want %d", rec.Code, http.StatusOK)
	}

	rule, err := s.GainRules().GetByID("r1")
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if rule.Priority != 5 {
		t.Errorf("priority = %d, want untouched 5", rule.Priority)
	}
}

func TestTriggerHandler_NotifiesOnWrite(t *testing.T) {
	s := newTestStore(t)

	var notified int
	handler := NewTriggerHandler(s, func() { notified++ })

	req := httptest.NewRequest(http.MethodPost, "/api/triggers",
		bytes.NewBufferString(`{"name": "wink", "blendshape": "eyeBlinkLeft"}`))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d, want %d", rec.Code, http.StatusCreated)
	}

	var created triggerResponse
	json.NewDecoder(rec.Body).Decode(&created)

	req = httptest.NewRequest(http.MethodDelete, "/api/triggers/"+created.ID, nil)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d, want %d", rec.Code, http.StatusNoContent)
	}

	if notified != 2 {
		t.Errorf("notified = %d after create+delete, want 2", notified)
	}
}
