// Package model builds runtime creatures and animation clips from parsed
// creature documents.
package model

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/Faultbox/creature/internal/engine/skeleton"
)

// Bounds holds the axis-aligned 2D box of the posed mesh.
type Bounds struct {
	Min mgl64.Vec2
	Max mgl64.Vec2
}

// Width returns the horizontal extent.
func (b Bounds) Width() float64 { return b.Max[0] - b.Min[0] }

// Height returns the vertical extent.
func (b Bounds) Height() float64 { return b.Max[1] - b.Min[1] }

// BuildOptions contains options for mesh building.
type BuildOptions struct {
	// WeightCutoff drops bone influences at or below this weight.
	WeightCutoff float64
}

// DefaultBuildOptions returns the standard build settings.
func DefaultBuildOptions() BuildOptions {
	return BuildOptions{WeightCutoff: skeleton.DefaultWeightCutoff}
}

// boundaryMaxRefs is the most region indices a vertex may appear in and
// still count as a boundary vertex.
const boundaryMaxRefs = 5
