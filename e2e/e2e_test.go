package e2e

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ayusman/abhinaya/internal/app"
	"github.com/ayusman/abhinaya/internal/detector"
	"github.com/ayusman/abhinaya/internal/server"
	"github.com/ayusman/abhinaya/internal/store"
)

func TestE2E_CompleteWorkflow(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping e2e test")
	}

	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "data.db")

	s, err := store.New(dbPath)
	if err != nil {
		t.Fatalf("store.New() error = %v", err)
	}
	defer s.Close()

	// Serve an avatar manifest the way a model CDN would.
	manifest := `{
		"name": "raccoon",
		"poseScale": 40,
		"meshes": [
			{"name": "face", "morphTargets": ["jawOpen", "mouthSmileLeft", "eyeBlinkLeft"]}
		]
	}`
	modelSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(manifest))
	}))
	defer modelSrv.Close()

	application := app.New(app.Config{
		Store:        s,
		PluginDir:    filepath.Join(tmpDir, "plugins"),
		MotionThresh: 0.05,
		ModelURL:     modelSrv.URL,
	})
	defer application.Stop()

	mockDetector := detector.NewMockDetector()
	application.SetDetector(mockDetector)

	srv := server.New(server.Config{Store: s, App: application})
	ts := httptest.NewServer(srv)
	defer ts.Close()

	client := ts.Client()

	t.Run("LoadAvatar", func(t *testing.T) {
		if err := application.LoadAvatar(nil); err != nil {
			t.Fatalf("LoadAvatar() error = %v", err)
		}
		if application.Avatar() == nil {
			t.Fatal("avatar should be loaded")
		}
	})

	t.Run("ConfigureGains", func(t *testing.T) {
		body := `{"rules": [{"category": "mouth", "multiplier": 2.2}, {"category": "jaw", "multiplier": 2.0}]}`
		req, _ := http.NewRequest(http.MethodPut, ts.URL+"/api/gains", strings.NewReader(body))
		resp, err := client.Do(req)
		if err != nil {
			t.Fatalf("replace gains error = %v", err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusOK)
		}

		// The server reloads the live session's gain table; no manual step.
		if got := application.Retargeter().Gain("mouthSmileLeft"); got != 2.2 {
			t.Fatalf("mouth gain = %f after replace, want 2.2", got)
		}
	})

	t.Run("DriveAvatar", func(t *testing.T) {
		face := detector.SmilingFace()
		cmd := application.OnFrame(&face, time.Now().UnixMilli())

		if got := cmd.Weights["mouthSmileLeft"]; got != 1.0 {
			t.Errorf("mouthSmileLeft weight = %f, want 1.0", got)
		}

		avatar := application.Avatar()
		mesh := avatar.Mesh("face")
		if got := mesh.Influences[mesh.MorphIndex["jawOpen"]]; got < 0.839 || got > 0.841 {
			t.Errorf("jawOpen influence = %f, want 0.84", got)
		}
		if avatar.Root.LocalTransform.IsIdentity() {
			t.Error("root transform should carry the scaled head pose")
		}
	})

	t.Run("APIStillWorks", func(t *testing.T) {
		resp, _ := client.Get(ts.URL + "/api/health")
		if resp.StatusCode != http.StatusOK {
			t.Errorf("health check failed after app operations")
		}
		resp.Body.Close()
	})
}

func TestE2E_TriggerFiresExpression(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping e2e test")
	}

	tmpDir := t.TempDir()
	s, _ := store.New(filepath.Join(tmpDir, "data.db"))
	defer s.Close()

	if err := s.Triggers().Create(&store.Trigger{
		ID:         "t1",
		Name:       "big smile",
		Blendshape: "mouthSmileLeft",
		Threshold:  0.9,
		HoldFrames: 2,
		CooldownMs: 0,
		Enabled:    true,
	}); err != nil {
		t.Fatalf("create trigger error = %v", err)
	}

	application := app.New(app.Config{Store: s, PluginDir: filepath.Join(tmpDir, "plugins")})
	defer application.Stop()

	if err := application.LoadTriggers(); err != nil {
		t.Fatalf("LoadTriggers() error = %v", err)
	}

	// mouthSmileLeft 0.88 × 2.2 saturates at 1.0, above the 0.9 threshold.
	// The trigger needs two consecutive frames to fire.
	face := detector.SmilingFace()
	application.OnFrame(&face, 1)
	if got := application.LastExpression(); got != "" {
		t.Fatalf("trigger fired after one frame, want hold of 2")
	}
	application.OnFrame(&face, 2)

	if got := application.LastExpression(); got != "big smile" {
		t.Errorf("LastExpression() = %q, want %q", got, "big smile")
	}
}

func TestE2E_ActionBinding(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping e2e test")
	}

	tmpDir := t.TempDir()
	s, _ := store.New(filepath.Join(tmpDir, "data.db"))
	defer s.Close()

	srv := server.New(server.Config{Store: s})
	ts := httptest.NewServer(srv)
	defer ts.Close()

	client := ts.Client()

	resp, err := client.Post(
		ts.URL+"/api/triggers",
		"application/json",
		strings.NewReader(`{"name": "wink", "blendshape": "eyeBlinkLeft", "threshold": 0.85}`),
	)
	if err != nil {
		t.Fatalf("create trigger error = %v", err)
	}

	var triggerResp struct {
		ID string `json:"id"`
	}
	json.NewDecoder(resp.Body).Decode(&triggerResp)
	resp.Body.Close()

	actionReq := map[string]interface{}{
		"trigger_id":  triggerResp.ID,
		"plugin_name": "system-control",
		"action_name": "media-play-pause",
		"enabled":     true,
	}
	actionBody, _ := json.Marshal(actionReq)

	resp, err = client.Post(
		ts.URL+"/api/actions",
		"application/json",
		strings.NewReader(string(actionBody)),
	)
	if err != nil {
		t.Fatalf("create action error = %v", err)
	}

	if resp.StatusCode != http.StatusCreated {
		t.Errorf("create action status = %d, want %d", resp.StatusCode, http.StatusCreated)
	}
	resp.Body.Close()

	resp, err = client.Get(ts.URL + "/api/actions")
	if err != nil {
		t.Fatalf("list actions error = %v", err)
	}

	var listResp struct {
		Actions []struct {
			ID         string `json:"id"`
			TriggerID  string `json:"trigger_id"`
			PluginName string `json:"plugin_name"`
			ActionName string `json:"action_name"`
			Enabled    bool   `json:"enabled"`
		} `json:"actions"`
	}
	json.NewDecoder(resp.Body).Decode(&listResp)
	resp.Body.Close()

	if len(listResp.Actions) != 1 {
		t.Errorf("expected 1 action, got %d", len(listResp.Actions))
	}

	if listResp.Actions[0].TriggerID != triggerResp.ID {
		t.Errorf("action trigger_id mismatch: got %s, want %s", listResp.Actions[0].TriggerID, triggerResp.ID)
	}
}
