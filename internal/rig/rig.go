// Package rig models the avatar's renderable nodes and morph-target meshes and
// applies per-frame head pose and expression weights to them.
package rig

import (
	"github.com/ayusman/abhinaya/internal/mathutil"
)

// Mesh is a renderable mesh exposing morph targets.
type Mesh struct {
	// Name identifies the mesh within the avatar.
	Name string

	// MorphIndex maps an expression name to its slot in Influences.
	// Built once at load time, read-only afterwards.
	MorphIndex map[string]int

	// Influences holds the current morph-target weights, one per slot.
	Influences []float64
}

// Node is a transformable scene node.
type Node struct {
	Name string

	// LocalTransform is the node's local 4×4 transform.
	LocalTransform mathutil.Mat4

	// MatrixAutoUpdate mirrors the renderer's automatic transform
	// recomposition flag. Cleared when a pose is written directly.
	MatrixAutoUpdate bool

	Children []*Node
}

// Avatar is a loaded model: one root node plus every mesh that exposes
// morph targets.
type Avatar struct {
	Name      string
	Root      *Node
	Meshes    []*Mesh
	PoseScale float64
}

// Mesh returns the named mesh, or nil when the avatar has no such mesh.
func (a *Avatar) Mesh(name string) *Mesh {
	if a == nil {
		return nil
	}
	for _, m := range a.Meshes {
		if m.Name == name {
			return m
		}
	}
	return nil
}
