package detector

import (
	"gocv.io/x/gocv"

	"github.com/ayusman/abhinaya/internal/mathutil"
)

// MockDetector is a test implementation of the Detector interface.
// It allows tests to control the detection results.
type MockDetector struct {
	faces []FaceResult
	err   error
}

// NewMockDetector creates a new MockDetector instance.
func NewMockDetector() *MockDetector {
	return &MockDetector{}
}

// SetFaces sets the faces that will be returned by Detect.
func (m *MockDetector) SetFaces(faces []FaceResult) {
	m.faces = faces
}

// SetError sets the error that will be returned by Detect.
func (m *MockDetector) SetError(err error) {
	m.err = err
}

// Detect returns the pre-configured faces or error.
func (m *MockDetector) Detect(frame *gocv.Mat) ([]FaceResult, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.faces, nil
}

// Close is a no-op for the mock detector.
func (m *MockDetector) Close() error {
	return nil
}

// NeutralFace returns a preset FaceResult for a relaxed, forward-looking face.
// All expression scores are near zero and the head pose is centered roughly an
// arm's length from the camera.
func NeutralFace() FaceResult {
	pose := mathutil.Mat4Identity()
	pose[11] = -0.45 // head ~45cm in front of the camera

	return FaceResult{
		Blendshapes: []Blendshape{
			{Name: "_neutral", Score: 0.92},
			{Name: "browDownLeft", Score: 0.02},
			{Name: "browDownRight", Score: 0.02},
			{Name: "browInnerUp", Score: 0.04},
			{Name: "eyeBlinkLeft", Score: 0.05},
			{Name: "eyeBlinkRight", Score: 0.05},
			{Name: "jawOpen", Score: 0.03},
			{Name: "mouthClose", Score: 0.08},
			{Name: "mouthSmileLeft", Score: 0.01},
			{Name: "mouthSmileRight", Score: 0.01},
			{Name: "tongueOut", Score: 0.0},
		},
		Pose:    pose,
		HasPose: true,
		Score:   0.97,
	}
}

// SmilingFace returns a preset FaceResult for a wide open-mouthed smile.
// Mouth and jaw scores are strongly activated, eyes slightly squinted.
func SmilingFace() FaceResult {
	pose := mathutil.Mat4Identity()
	pose[11] = -0.45

	return FaceResult{
		Blendshapes: []Blendshape{
			{Name: "browInnerUp", Score: 0.15},
			{Name: "eyeBlinkLeft", Score: 0.12},
			{Name: "eyeBlinkRight", Score: 0.12},
			{Name: "eyeSquintLeft", Score: 0.35},
			{Name: "eyeSquintRight", Score: 0.35},
			{Name: "jawOpen", Score: 0.42},
			{Name: "mouthSmileLeft", Score: 0.88},
			{Name: "mouthSmileRight", Score: 0.85},
			{Name: "mouthStretchLeft", Score: 0.3},
			{Name: "mouthStretchRight", Score: 0.3},
		},
		Pose:    pose,
		HasPose: true,
		Score:   0.95,
	}
}

// BlinkingFace returns a preset FaceResult for a face with both eyes shut.
func BlinkingFace() FaceResult {
	pose := mathutil.Mat4Identity()
	pose[11] = -0.45

	return FaceResult{
		Blendshapes: []Blendshape{
			{Name: "eyeBlinkLeft", Score: 0.93},
			{Name: "eyeBlinkRight", Score: 0.91},
			{Name: "jawOpen", Score: 0.02},
			{Name: "mouthSmileLeft", Score: 0.03},
			{Name: "mouthSmileRight", Score: 0.03},
		},
		Pose:    pose,
		HasPose: true,
		Score:   0.94,
	}
}
