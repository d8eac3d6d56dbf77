package model

import (
	"fmt"

	"github.com/Faultbox/creature/internal/engine/skeleton"
	"github.com/Faultbox/creature/pkg/formats"
)

// BuildSkeleton creates the bone hierarchy of doc and computes its rest
// transforms. The returned root has world points set to rest.
func BuildSkeleton(doc *formats.Creature) (*skeleton.Bone, error) {
	bones := make(map[int]*skeleton.Bone, len(doc.Skeleton))
	for _, name := range doc.BoneNames() {
		rec := doc.Skeleton[name]
		b := skeleton.NewBone(name,
			formats.Point3(rec.LocalRestStartPt),
			formats.Point3(rec.LocalRestEndPt),
			formats.Mat4(rec.RestParentMat))
		b.SetTagID(rec.ID)
		bones[rec.ID] = b
	}

	rootName := doc.RootBone()
	if rootName == "" {
		return nil, formats.ErrNoRootBone
	}
	root := bones[doc.Skeleton[rootName].ID]

	// Attach top-down from the root. A revisit means a cycle.
	visited := make(map[int]bool, len(bones))
	var attach func(b *skeleton.Bone) error
	attach = func(b *skeleton.Bone) error {
		if visited[b.TagID()] {
			return fmt.Errorf("%w: at bone %s", formats.ErrBoneCycle, b.Key())
		}
		visited[b.TagID()] = true
		for _, id := range doc.Skeleton[b.Key()].Children {
			child, ok := bones[id]
			if !ok {
				return fmt.Errorf("%w: bone %s child %d", formats.ErrDanglingChild, b.Key(), id)
			}
			b.AddChild(child)
			if err := attach(child); err != nil {
				return err
			}
		}
		return nil
	}
	if err := attach(root); err != nil {
		return nil, err
	}

	root.ComputeRestParentTransforms()
	root.InitWorldPts()
	return root, nil
}

// BuildRegions creates the render regions of doc over the shared mesh
// buffers, in mesh order.
func BuildRegions(doc *formats.Creature, indices []uint32, restPts, uvs []float64) []*skeleton.Region {
	names := doc.RegionNames()
	regions := make([]*skeleton.Region, 0, len(names))
	for _, name := range names {
		rec := doc.Mesh.Regions[name]
		r := skeleton.NewRegion(name, indices, restPts, uvs,
			rec.StartPtIndex, rec.EndPtIndex, rec.StartIndex, rec.EndIndex)
		r.SetTagID(rec.ID)
		for bone, w := range rec.Weights {
			r.SetWeights(bone, w)
		}
		regions = append(regions, r)
	}
	return regions
}
