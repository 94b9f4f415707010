// Package app provides the main application logic for the Abhinaya face
// retargeting system. An App is one self-contained tracking session: camera,
// detector, retargeter and avatar are fields rather than package globals so
// sessions can run and be tested in isolation.
package app

import (
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/ayusman/abhinaya/internal/capture"
	"github.com/ayusman/abhinaya/internal/detector"
	"github.com/ayusman/abhinaya/internal/mathutil"
	"github.com/ayusman/abhinaya/internal/plugin"
	"github.com/ayusman/abhinaya/internal/retarget"
	"github.com/ayusman/abhinaya/internal/rig"
	"github.com/ayusman/abhinaya/internal/store"
	"github.com/ayusman/abhinaya/internal/trigger"
)

// Pipeline timing constants.
const (
	// IdleFPS is the frame rate when no motion is detected.
	IdleFPS = 5
	// ActiveFPS is the frame rate during active tracking.
	ActiveFPS = 15
	// IdleTimeoutMs is the time in milliseconds to wait before switching back to idle mode.
	IdleTimeoutMs = 2000
)

// RenderCommand is the per-frame output handed to renderer clients: the scaled
// head pose plus the retargeted morph-target weights.
type RenderCommand struct {
	Pose      mathutil.Mat4      `json:"pose"`
	HasPose   bool               `json:"hasPose"`
	Weights   map[string]float64 `json:"weights"`
	Timestamp int64              `json:"timestamp"`
}

// Config holds configuration options for the application.
type Config struct {
	Store        *store.Store
	PluginDir    string
	CameraID     int
	MotionThresh float64
	// ModelURL points at the avatar manifest to fetch at startup. Empty means
	// start without an avatar; render commands are still published.
	ModelURL string
	// PoseScale overrides the avatar's pose scale when > 0.
	PoseScale float64
}

// App is the main application that orchestrates face tracking and retargeting.
type App struct {
	config     Config
	camera     capture.Camera
	motion     *capture.MotionDetector
	detector   detector.Detector
	retargeter *retarget.Retargeter
	evaluator  *trigger.Evaluator
	pluginMgr  *plugin.Manager
	pluginExec *plugin.Executor
	avatar     *rig.Avatar
	onRender   func(RenderCommand)
	onTrigger  func(name string)
	lastFace   string
	state      State
	status     string
	enabled    bool
	mu         sync.RWMutex
	stopCh     chan struct{}
}

// New creates a new App instance with the given configuration.
func New(config Config) *App {
	motionThreshold := config.MotionThresh
	if motionThreshold <= 0 {
		motionThreshold = 1.0 // Default threshold: 1% pixel change
	}

	a := &App{
		config:     config,
		camera:     capture.NewCamera(config.CameraID),
		motion:     capture.NewMotionDetector(motionThreshold),
		retargeter: retarget.New(nil),
		evaluator:  trigger.NewEvaluator(),
		pluginMgr:  plugin.NewManager(config.PluginDir),
		pluginExec: plugin.NewExecutor(5000), // 5 second timeout for plugin execution
		enabled:    false,
		state:      StateNotStarted,
		status:     StateNotStarted.String(),
		stopCh:     nil,
	}

	// Try MediaPipe first, fall back to mock detector
	if mp, err := detector.NewMediaPipeDetector(detector.DefaultConfig()); err == nil {
		a.detector = mp
		log.Println("Using MediaPipe face landmark detection")
	} else {
		log.Printf("MediaPipe not available (%v), using mock detector", err)
		a.detector = detector.NewMockDetector()
	}

	return a
}

// SetEnabled enables or disables face tracking.
func (a *App) SetEnabled(enabled bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.enabled = enabled
}

// IsEnabled returns whether face tracking is currently enabled.
func (a *App) IsEnabled() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.enabled
}

// SetDetector sets the face detector implementation to use.
func (a *App) SetDetector(d detector.Detector) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.detector = d
}

// OnRender registers the callback invoked with every frame's RenderCommand.
func (a *App) OnRender(fn func(RenderCommand)) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.onRender = fn
}

// OnTrigger registers the callback invoked with the name of every fired
// expression trigger, for display surfaces like the tray.
func (a *App) OnTrigger(fn func(name string)) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.onTrigger = fn
}

// SetAvatar replaces the current avatar. The previous avatar is detached by
// dropping its reference; its morph index dies with it.
func (a *App) SetAvatar(avatar *rig.Avatar) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.avatar = avatar
}

// Avatar returns the currently loaded avatar, or nil before load.
func (a *App) Avatar() *rig.Avatar {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.avatar
}

// LoadGainRules loads the retargeting gain table from the database.
// An empty table restores the built-in defaults.
func (a *App) LoadGainRules() error {
	if a.config.Store == nil {
		return nil
	}

	stored, err := a.config.Store.GainRules().List()
	if err != nil {
		return err
	}
	if len(stored) == 0 {
		a.retargeter.SetRules(nil)
		return nil
	}

	rules := make([]retarget.Rule, len(stored))
	for i, g := range stored {
		rules[i] = retarget.Rule{Category: g.Category, Gain: g.Multiplier}
	}
	a.retargeter.SetRules(rules)

	log.Printf("Loaded %d gain rules from database", len(rules))
	return nil
}

// LoadTriggers loads enabled expression triggers from the database into the
// evaluator.
func (a *App) LoadTriggers() error {
	if a.config.Store == nil {
		return nil
	}

	stored, err := a.config.Store.Triggers().List()
	if err != nil {
		return err
	}

	var rules []*trigger.Rule
	for _, t := range stored {
		if !t.Enabled {
			continue
		}
		rules = append(rules, &trigger.Rule{
			ID:         t.ID,
			Name:       t.Name,
			Blendshape: t.Blendshape,
			Threshold:  t.Threshold,
			HoldFrames: t.HoldFrames,
			Cooldown:   time.Duration(t.CooldownMs) * time.Millisecond,
		})
	}
	a.evaluator.SetRules(rules)

	log.Printf("Loaded %d triggers from database", len(rules))
	return nil
}

// LoadAvatar fetches the avatar manifest from the configured URL and installs
// it. A session without a ModelURL skips the load.
func (a *App) LoadAvatar(client *http.Client) error {
	if a.config.ModelURL == "" {
		return nil
	}

	avatar, err := rig.Fetch(client, a.config.ModelURL)
	if err != nil {
		return err
	}
	if a.config.PoseScale > 0 {
		avatar.PoseScale = a.config.PoseScale
	}

	a.SetAvatar(avatar)
	log.Printf("Loaded avatar %q with %d meshes", avatar.Name, len(avatar.Meshes))
	return nil
}

// DiscoverPlugins scans the plugin directory and loads available plugins.
func (a *App) DiscoverPlugins() error {
	return a.pluginMgr.Discover()
}

// Start runs the startup sequence and begins the tracking pipeline:
// open the camera, fetch the avatar, then spin up the frame loop. Any failure
// is classified into the status line and returned; there is no retry.
func (a *App) Start() error {
	a.mu.Lock()
	if a.stopCh != nil {
		a.mu.Unlock()
		return nil
	}
	a.mu.Unlock()

	a.setState(StateRequestingCamera)
	if err := a.camera.Open(); err != nil {
		a.setFailure(err)
		return err
	}
	a.setState(StateCameraAcquired)

	a.setState(StateModelLoading)
	if err := a.LoadAvatar(nil); err != nil {
		a.setFailure(err)
		return err
	}

	a.mu.Lock()
	a.camera.SetFPS(IdleFPS)
	a.stopCh = make(chan struct{})
	a.mu.Unlock()

	go a.runPipeline()
	a.setState(StateReady)

	log.Println("Tracking pipeline started")
	return nil
}

// Stop halts the tracking pipeline and releases resources.
func (a *App) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()

	// Signal the pipeline to stop
	if a.stopCh != nil {
		close(a.stopCh)
		a.stopCh = nil
	}

	// Close the camera
	if err := a.camera.Close(); err != nil {
		log.Printf("Error closing camera: %v", err)
	}

	// Close motion detector
	a.motion.Close()

	// Close the face detector if set
	if a.detector != nil {
		if err := a.detector.Close(); err != nil {
			log.Printf("Error closing detector: %v", err)
		}
	}

	log.Println("Tracking pipeline stopped")
}

// Camera returns the camera instance.
func (a *App) Camera() capture.Camera {
	return a.camera
}

// MotionDetector returns the motion detector instance.
func (a *App) MotionDetector() *capture.MotionDetector {
	return a.motion
}

// Retargeter returns the expression retargeter.
func (a *App) Retargeter() *retarget.Retargeter {
	return a.retargeter
}

// PluginManager returns the plugin manager.
func (a *App) PluginManager() *plugin.Manager {
	return a.pluginMgr
}

// Detector returns the face detector.
func (a *App) Detector() detector.Detector {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.detector
}

// LastExpression returns the most recent fired trigger name, for display.
func (a *App) LastExpression() string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.lastFace
}
