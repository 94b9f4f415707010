package app

import (
	"encoding/json"
	"log"
	"time"

	"github.com/ayusman/abhinaya/internal/detector"
	"github.com/ayusman/abhinaya/internal/plugin"
	"github.com/ayusman/abhinaya/internal/rig"
	"github.com/ayusman/abhinaya/internal/trigger"
)

// runPipeline is the main tracking loop that processes frames from the camera.
// It manages the state transitions between idle and active modes based on
// motion detection.
//
// Pipeline logic:
// 1. Start in idle mode (idleFPS=5)
// 2. On motion detected, switch to active mode (activeFPS=15)
// 3. Run face landmark detection
// 4. Retarget the first face's blendshapes onto the avatar rig
// 5. Publish a RenderCommand to subscribers
// 6. Evaluate expression triggers and execute bound actions
// 7. After 2s no motion, switch back to idle mode
func (a *App) runPipeline() {
	// Track whether we're in active mode
	activeMode := false

	// Track the last motion detection time
	lastMotionTime := time.Now()

	// Frame interval based on current FPS
	frameInterval := time.Second / time.Duration(IdleFPS)

	ticker := time.NewTicker(frameInterval)
	defer ticker.Stop()

	for {
		select {
		case <-a.stopCh:
			return
		case <-ticker.C:
			// Skip processing if tracking is disabled
			if !a.IsEnabled() {
				continue
			}

			// Read a frame from the camera
			frame, err := a.camera.ReadFrame()
			if err != nil {
				log.Printf("Error reading frame: %v", err)
				continue
			}

			// Step 1: Motion detection
			motionDetected, _ := a.motion.Detect(frame)

			if motionDetected {
				lastMotionTime = time.Now()

				// Switch to active mode if not already
				if !activeMode {
					activeMode = true
					a.camera.SetFPS(ActiveFPS)
					frameInterval = time.Second / time.Duration(ActiveFPS)
					ticker.Reset(frameInterval)
					log.Println("Switched to active mode")
				}
			} else if activeMode {
				// Check if we should switch back to idle mode
				if time.Since(lastMotionTime) > time.Duration(IdleTimeoutMs)*time.Millisecond {
					activeMode = false
					a.camera.SetFPS(IdleFPS)
					frameInterval = time.Second / time.Duration(IdleFPS)
					ticker.Reset(frameInterval)
					log.Println("Switched to idle mode")
				}
			}

			// Snapshot the detector; SetDetector may swap it from another goroutine.
			a.mu.RLock()
			det := a.detector
			a.mu.RUnlock()

			// Skip further processing if not in active mode or no detector
			if !activeMode || det == nil {
				frame.Close()
				continue
			}

			// Step 2: Face landmark detection
			faces, err := det.Detect(frame)
			frame.Close() // Done with the frame

			if err != nil {
				// Malformed or failed detector output degrades to
				// "no update this frame".
				log.Printf("Error detecting face: %v", err)
				continue
			}

			if len(faces) == 0 {
				continue
			}

			// Only the first detected face drives the avatar.
			a.OnFrame(&faces[0], time.Now().UnixMilli())
		}
	}
}

// OnFrame retargets one detected face onto the avatar rig, publishes the
// resulting RenderCommand, and evaluates expression triggers. It is the whole
// of the per-frame path: synchronous, non-blocking arithmetic.
func (a *App) OnFrame(face *detector.FaceResult, timestamp int64) RenderCommand {
	// Step 3: Retarget blendshape scores to morph-target weights
	weights := a.retargeter.Retarget(face.Blendshapes)

	cmd := RenderCommand{
		Weights:   weights,
		Timestamp: timestamp,
	}

	// Step 4: Apply pose and weights to the rig
	avatar := a.Avatar()
	scale := a.config.PoseScale
	if avatar != nil {
		scale = avatar.PoseScale
	}

	if face.HasPose {
		cmd.Pose = face.Pose.Scaled(pickScale(scale))
		cmd.HasPose = true
		if avatar != nil {
			rig.ApplyPose(avatar.Root, face.Pose, scale)
		}
	}
	if avatar != nil {
		rig.ApplyWeights(avatar.Meshes, weights)
	}

	// Step 5: Publish to renderer subscribers
	a.mu.RLock()
	onRender := a.onRender
	a.mu.RUnlock()
	if onRender != nil {
		onRender(cmd)
	}

	// Step 6: Expression triggers
	for _, firing := range a.evaluator.Evaluate(weights) {
		a.mu.Lock()
		a.lastFace = firing.Rule.Name
		onTrigger := a.onTrigger
		a.mu.Unlock()

		log.Printf("Trigger fired: %s (%s=%.2f)", firing.Rule.Name, firing.Rule.Blendshape, firing.Weight)
		if onTrigger != nil {
			onTrigger(firing.Rule.Name)
		}
		go a.executeAction(firing)
	}

	return cmd
}

func pickScale(scale float64) float64 {
	if scale <= 0 {
		return rig.DefaultPoseScale
	}
	return scale
}

// executeAction executes the action bound to a fired trigger, if any.
// Runs off the frame path; plugin subprocesses may block for seconds.
func (a *App) executeAction(firing trigger.Firing) {
	if a.config.Store == nil {
		return
	}

	action, err := a.config.Store.Actions().GetByTriggerID(firing.Rule.ID)
	if err != nil {
		log.Printf("Failed to look up action for trigger %s: %v", firing.Rule.Name, err)
		return
	}
	if action == nil || !action.Enabled {
		return
	}

	p, err := a.pluginMgr.Get(action.PluginName)
	if err != nil {
		log.Printf("Plugin %q not found for trigger %s", action.PluginName, firing.Rule.Name)
		return
	}

	req := &plugin.Request{
		Action:  action.ActionName,
		Trigger: firing.Rule.Name,
		Weight:  firing.Weight,
		Config:  action.Config,
		Params:  json.RawMessage("{}"),
	}

	resp, err := a.pluginExec.Execute(p, req)
	if err != nil {
		log.Printf("Plugin %s failed for trigger %s: %v", action.PluginName, firing.Rule.Name, err)
		return
	}
	if !resp.Success {
		log.Printf("Plugin %s reported error for trigger %s: %s", action.PluginName, firing.Rule.Name, resp.Error)
	}
}
