package store

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestTriggerRepository_CRUD(t *testing.T) {
	s := newTestStore(t)
	repo := s.Triggers()

	trig := &Trigger{
		ID:         "trig-1",
		Name:       "jaw drop",
		Blendshape: "jawOpen",
		Threshold:  0.8,
		HoldFrames: 3,
		CooldownMs: 1000,
		Enabled:    true,
	}
	if err := repo.Create(trig); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	got, err := repo.GetByID("trig-1")
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got.Blendshape != "jawOpen" {
		t.Errorf("Blendshape = %q, want jawOpen", got.Blendshape)
	}
	if !got.Enabled {
		t.Error("trigger should be enabled")
	}

	got.Threshold = 0.9
	got.Enabled = false
	if err := repo.Update(got); err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	updated, err := repo.GetByID("trig-1")
	if err != nil {
		t.Fatalf("GetByID() after update error = %v", err)
	}
	if updated.Threshold != 0.9 {
		t.Errorf("Threshold = %f, want 0.9", updated.Threshold)
	}
	if updated.Enabled {
		t.Error("trigger should be disabled after update")
	}

	triggers, err := repo.List()
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(triggers) != 1 {
		t.Errorf("List() returned %d triggers, want 1", len(triggers))
	}

	if err := repo.Delete("trig-1"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := repo.GetByID("trig-1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetByID() after delete error = %v, want ErrNotFound", err)
	}
}

func TestActionRepository_BoundToTrigger(t *testing.T) {
	s := newTestStore(t)

	trig := &Trigger{
		ID:         "trig-wink",
		Name:       "wink",
		Blendshape: "eyeBlinkLeft",
		Threshold:  0.85,
		HoldFrames: 2,
		CooldownMs: 2000,
		Enabled:    true,
	}
	if err := s.Triggers().Create(trig); err != nil {
		t.Fatalf("Triggers().Create() error = %v", err)
	}

	action := &Action{
		ID:         "action-1",
		TriggerID:  "trig-wink",
		PluginName: "keyboard",
		ActionName: "shortcut",
		Config:     json.RawMessage(`{"key":"m","modifiers":["command"]}`),
		Enabled:    true,
	}
	if err := s.Actions().Create(action); err != nil {
		t.Fatalf("Actions().Create() error = %v", err)
	}

	got, err := s.Actions().GetByTriggerID("trig-wink")
	if err != nil {
		t.Fatalf("GetByTriggerID() error = %v", err)
	}
	if got == nil {
		t.Fatal("expected a bound action")
	}
	if got.PluginName != "keyboard" {
		t.Errorf("PluginName = %q, want keyboard", got.PluginName)
	}

	// No action bound: nil, nil.
	unbound, err := s.Actions().GetByTriggerID("trig-other")
	if err != nil {
		t.Fatalf("GetByTriggerID(unbound) error = %v", err)
	}
	if unbound != nil {
		t.Error("expected nil action for unbound trigger")
	}

	// Deleting the trigger cascades to the action.
	if err := s.Triggers().Delete("trig-wink"); err != nil {
		t.Fatalf("Triggers().Delete() error = %v", err)
	}
	if _, err := s.Actions().GetByID("action-1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("action should cascade on trigger delete, got err = %v", err)
	}
}

func TestSettingsRepository(t *testing.T) {
	s := newTestStore(t)
	repo := s.Settings()

	if _, err := repo.Get("camera_id"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get(missing) error = %v, want ErrNotFound", err)
	}

	if err := repo.Set("camera_id", "0"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if err := repo.Set("camera_id", "1"); err != nil {
		t.Fatalf("Set() overwrite error = %v", err)
	}

	got, err := repo.Get("camera_id")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got != "1" {
		t.Errorf("Get() = %q, want %q", got, "1")
	}
}
