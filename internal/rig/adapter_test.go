package rig

import (
	"testing"

	"github.com/ayusman/abhinaya/internal/mathutil"
)

func TestApplyPose(t *testing.T) {
	node := &Node{
		Name:             "avatar",
		LocalTransform:   mathutil.Mat4Identity(),
		MatrixAutoUpdate: true,
	}

	pose := mathutil.Mat4Identity()
	pose[3], pose[7], pose[11] = 0.1, 0.2, -0.5

	ApplyPose(node, pose, 40)

	if node.MatrixAutoUpdate {
		t.Error("expected MatrixAutoUpdate to be disabled after ApplyPose")
	}

	tr := node.LocalTransform.Translation()
	want := mathutil.Vec3{4, 8, -20}
	if tr != want {
		t.Errorf("translation = %v, want %v", tr, want)
	}
}

func TestApplyPose_NilNode(t *testing.T) {
	// Avatar not loaded yet: must not panic.
	ApplyPose(nil, mathutil.Mat4Identity(), 40)
}

func TestApplyPose_DefaultScale(t *testing.T) {
	node := &Node{LocalTransform: mathutil.Mat4Identity()}

	pose := mathutil.Mat4Identity()
	pose[3] = 1

	ApplyPose(node, pose, 0)

	if got := node.LocalTransform.Translation()[0]; got != DefaultPoseScale {
		t.Errorf("translation X = %v, want default scale %v", got, float64(DefaultPoseScale))
	}
}

func TestApplyWeights(t *testing.T) {
	face := &Mesh{
		Name:       "face",
		MorphIndex: map[string]int{"jawOpen": 0, "mouthSmileLeft": 1},
		Influences: make([]float64, 2),
	}
	// Teeth mesh exposes a disjoint subset of expression names.
	teeth := &Mesh{
		Name:       "teeth",
		MorphIndex: map[string]int{"jawOpen": 0},
		Influences: make([]float64, 1),
	}

	ApplyWeights([]*Mesh{face, teeth}, map[string]float64{
		"jawOpen":      0.7,
		"eyeBlinkLeft": 0.4, // indexed by neither mesh
	})

	if face.Influences[0] != 0.7 {
		t.Errorf("face jawOpen influence = %f, want 0.7", face.Influences[0])
	}
	if face.Influences[1] != 0 {
		t.Errorf("face mouthSmileLeft influence = %f, want 0 (untouched)", face.Influences[1])
	}
	if teeth.Influences[0] != 0.7 {
		t.Errorf("teeth jawOpen influence = %f, want 0.7", teeth.Influences[0])
	}
}

func TestApplyWeights_EmptyWeights(t *testing.T) {
	mesh := &Mesh{
		Name:       "face",
		MorphIndex: map[string]int{"jawOpen": 0},
		Influences: []float64{0.5},
	}

	// A frame with no detected face leaves prior influences unchanged.
	ApplyWeights([]*Mesh{mesh}, nil)
	ApplyWeights([]*Mesh{mesh}, map[string]float64{})

	if mesh.Influences[0] != 0.5 {
		t.Errorf("influence = %f, want 0.5 (unchanged)", mesh.Influences[0])
	}
}

func TestApplyWeights_IgnoresOutOfRangeIndex(t *testing.T) {
	// A corrupt index must never write outside the influence array.
	mesh := &Mesh{
		Name:       "face",
		MorphIndex: map[string]int{"jawOpen": 5},
		Influences: make([]float64, 1),
	}

	ApplyWeights([]*Mesh{mesh}, map[string]float64{"jawOpen": 0.9})

	if mesh.Influences[0] != 0 {
		t.Errorf("influence = %f, want 0", mesh.Influences[0])
	}
}

func TestApplyWeights_NilMesh(t *testing.T) {
	ApplyWeights([]*Mesh{nil}, map[string]float64{"jawOpen": 0.5})
}
