package rig

import (
	"github.com/ayusman/abhinaya/internal/mathutil"
)

// DefaultPoseScale converts detector pose units (meters in camera space) to
// scene units. Chosen empirically to frame the avatar's head.
const DefaultPoseScale = 40

// ApplyPose overwrites the node's local transform with the head pose scaled
// uniformly by scale, disabling automatic transform recomposition first.
// A nil node (avatar not yet loaded) is a no-op. A scale of zero or below
// falls back to DefaultPoseScale.
func ApplyPose(node *Node, pose mathutil.Mat4, scale float64) {
	if node == nil {
		return
	}
	if scale <= 0 {
		scale = DefaultPoseScale
	}
	node.MatrixAutoUpdate = false
	node.LocalTransform = pose.Scaled(scale)
}

// ApplyWeights writes each named weight into the matching influence slot of
// every mesh whose MorphIndex contains the name. Names a mesh does not index
// are skipped; meshes may expose disjoint subsets of expression names.
func ApplyWeights(meshes []*Mesh, weights map[string]float64) {
	for _, m := range meshes {
		if m == nil || len(m.MorphIndex) == 0 {
			continue
		}
		for name, w := range weights {
			idx, ok := m.MorphIndex[name]
			if !ok || idx < 0 || idx >= len(m.Influences) {
				continue
			}
			m.Influences[idx] = w
		}
	}
}
