// Package detector provides face landmark detection interfaces and types for
// expression retargeting.
package detector

import "github.com/ayusman/abhinaya/internal/mathutil"

// Blendshape is a single named expression score in [0,1], following the
// face_landmarker blendshape naming convention (jawOpen, eyeBlinkLeft, ...).
// See: https://developers.google.com/mediapipe/solutions/vision/face_landmarker
type Blendshape struct {
	Name  string  `json:"name"`
	Score float64 `json:"score"`
}

// FaceResult represents one detected face in a single frame.
type FaceResult struct {
	// Blendshapes holds the per-expression activation scores.
	Blendshapes []Blendshape `json:"blendshapes"`

	// Pose is the head transform in camera space. Only valid when HasPose is true.
	Pose    mathutil.Mat4 `json:"pose"`
	HasPose bool          `json:"hasPose"`

	// Score is the detection confidence.
	Score float64 `json:"score"`
}

// Blendshape returns the score for the named expression and whether the face
// reported it.
func (f *FaceResult) Blendshape(name string) (float64, bool) {
	if f == nil {
		return 0, false
	}
	for _, b := range f.Blendshapes {
		if b.Name == name {
			return b.Score, true
		}
	}
	return 0, false
}
