package skeleton

import (
	"errors"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

func TestCompositionMaps(t *testing.T) {
	r, root, arm, _ := newRegionFixture(t)
	r.SetTagID(4)

	c := NewComposition()
	if err := c.InitBoneMap(); !errors.Is(err, ErrNoRootBone) {
		t.Errorf("expected ErrNoRootBone, got %v", err)
	}

	c.SetRootBone(root)
	c.AddRegion(r)
	if err := c.InitBoneMap(); err != nil {
		t.Fatalf("InitBoneMap: %v", err)
	}
	if err := c.InitRegionsMap(); err != nil {
		t.Fatalf("InitRegionsMap: %v", err)
	}

	if c.Bone("arm") != arm || c.Bone("nope") != nil {
		t.Error("bone lookup mismatch")
	}
	if len(c.Bones()) != 2 || c.Bones()[0] != root {
		t.Errorf("expected depth-first bone order starting at root")
	}
	if c.Region("body") != r {
		t.Error("expected to find region by name")
	}
	if c.RegionWithID(4) != r || c.RegionWithID(9) != nil {
		t.Error("RegionWithID mismatch")
	}

	c.AddRegion(r)
	if err := c.InitRegionsMap(); !errors.Is(err, ErrDuplicateRegion) {
		t.Errorf("expected ErrDuplicateRegion, got %v", err)
	}
}

func TestCompositionUpdateAllTransforms(t *testing.T) {
	root, arm := newChain()
	c := NewComposition()
	c.SetRootBone(root)
	if err := c.InitBoneMap(); err != nil {
		t.Fatalf("InitBoneMap: %v", err)
	}

	root.SetWorldEndPt(mgl64.Vec3{-10, 0.5, 0})
	arm.SetWorldStartPt(mgl64.Vec3{-10, 0.5, 0})
	arm.SetWorldEndPt(mgl64.Vec3{-20, -0.5, 0})
	c.UpdateAllTransforms(true)

	for _, b := range c.Bones() {
		for _, child := range b.Children() {
			if d := child.WorldDQ().Real.Dot(b.WorldDQ().Real); d < 0 {
				t.Errorf("%s -> %s: expected non-negative dot, got %v", b.Key(), child.Key(), d)
			}
		}
	}

	c.ResetToWorldRestPts()
	if !near(arm.WorldEndPt(), mgl64.Vec3{20, 0, 0}) {
		t.Errorf("expected arm back at rest end, got %v", arm.WorldEndPt())
	}
}
