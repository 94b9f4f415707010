package detector

import "gocv.io/x/gocv"

// Delegate selects the execution backend for the landmark model.
type Delegate string

const (
	// DelegateGPU runs the model on the GPU.
	DelegateGPU Delegate = "gpu"
	// DelegateCPU runs the model on the CPU.
	DelegateCPU Delegate = "cpu"
)

// Detector defines the interface for face landmark detection implementations.
type Detector interface {
	// Detect analyzes a video frame and returns detected faces with their
	// blendshape scores and head pose. Returns an empty slice if no face
	// is detected.
	Detect(frame *gocv.Mat) ([]FaceResult, error)

	// Close releases any resources held by the detector.
	Close() error
}

// Config holds configuration options for face detection.
type Config struct {
	// MaxFaces is the maximum number of faces to detect (default: 1).
	MaxFaces int

	// MinConfidence is the minimum detection confidence threshold (0.0-1.0).
	MinConfidence float64

	// Delegate is the preferred execution backend. The GPU delegate is tried
	// first; on failure the detector falls back to the CPU delegate.
	Delegate Delegate
}

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() Config {
	return Config{
		MaxFaces:      1,
		MinConfidence: 0.5,
		Delegate:      DelegateGPU,
	}
}
