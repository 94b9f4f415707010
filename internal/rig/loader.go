package rig

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/ayusman/abhinaya/internal/mathutil"
)

// manifest is the on-the-wire avatar description: each mesh lists its morph
// target names in slot order.
type manifest struct {
	Name      string         `json:"name"`
	PoseScale float64        `json:"poseScale"`
	Meshes    []manifestMesh `json:"meshes"`
}

type manifestMesh struct {
	Name         string   `json:"name"`
	MorphTargets []string `json:"morphTargets"`
}

// Parse builds an Avatar from manifest JSON, constructing each mesh's
// MorphIndex and zeroed influence array.
func Parse(data []byte) (*Avatar, error) {
	var m manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse avatar manifest: %w", err)
	}
	if m.Name == "" {
		return nil, fmt.Errorf("avatar manifest has no name")
	}

	avatar := &Avatar{
		Name:      m.Name,
		PoseScale: m.PoseScale,
		Root: &Node{
			Name:             m.Name,
			LocalTransform:   mathutil.Mat4Identity(),
			MatrixAutoUpdate: true,
		},
	}
	if avatar.PoseScale <= 0 {
		avatar.PoseScale = DefaultPoseScale
	}

	for _, mm := range m.Meshes {
		mesh := &Mesh{
			Name:       mm.Name,
			MorphIndex: make(map[string]int, len(mm.MorphTargets)),
			Influences: make([]float64, len(mm.MorphTargets)),
		}
		for i, name := range mm.MorphTargets {
			mesh.MorphIndex[name] = i
		}
		avatar.Meshes = append(avatar.Meshes, mesh)
	}

	return avatar, nil
}

// Fetch downloads the avatar manifest from url and parses it. The previous
// avatar, if any, is simply dropped by the caller replacing its reference.
func Fetch(client *http.Client, url string) (*Avatar, error) {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}

	resp, err := client.Get(url)
	if err != nil {
		return nil, fmt.Errorf("fetch avatar: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch avatar: network error: status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read avatar manifest: %w", err)
	}

	return Parse(data)
}
