package animation

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/Faultbox/creature/internal/engine/skeleton"
)

// IsContactBone returns the first bone, depth-first from the root, whose
// posed segment passes within radius of pt. Only points that project
// onto the segment itself count. It returns nil when nothing is hit.
func (m *Manager) IsContactBone(pt mgl64.Vec2, radius float64) *skeleton.Bone {
	root := m.target.Composition().RootBone()
	if root == nil {
		return nil
	}
	return contactBone(pt, radius, root)
}

func contactBone(pt mgl64.Vec2, radius float64, b *skeleton.Bone) *skeleton.Bone {
	start := b.WorldStartPt().Vec2()
	seg := b.WorldEndPt().Vec2().Sub(start)
	length := seg.Len()

	if length > 0 {
		dir := seg.Mul(1 / length)
		rel := pt.Sub(start)
		proj := rel.Dot(dir)
		if proj >= 0 && proj <= length {
			// Perpendicular distance via the 2D cross product.
			dist := rel[0]*dir[1] - rel[1]*dir[0]
			if dist < 0 {
				dist = -dist
			}
			if dist <= radius {
				return b
			}
		}
	}

	for _, c := range b.Children() {
		if hit := contactBone(pt, radius, c); hit != nil {
			return hit
		}
	}
	return nil
}
