package skeleton

import (
	"errors"
	gomath "math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

// newRegionFixture returns a three point region over the chain from
// newChain: two points follow root, one follows arm.
func newRegionFixture(t *testing.T) (*Region, *Bone, *Bone, []float64) {
	t.Helper()
	root, arm := newChain()

	pts := []float64{
		0, 1, 0,
		5, -1, 0,
		15, 1, 0,
	}
	uvs := []float64{0, 0, 0.5, 0.5, 1, 1}
	indices := []uint32{0, 1, 2}

	r := NewRegion("body", indices, pts, uvs, 0, 2, 0, 2)
	r.SetWeights("root", []float64{1, 1, 0})
	r.SetWeights("arm", []float64{0, 0, 1})
	if err := r.InitFastNormalWeightMap([]*Bone{root, arm}, DefaultWeightCutoff); err != nil {
		t.Fatalf("InitFastNormalWeightMap: %v", err)
	}
	return r, root, arm, uvs
}

func pointAt(buf []float64, i int) mgl64.Vec3 {
	return mgl64.Vec3{buf[i*3], buf[i*3+1], buf[i*3+2]}
}

func TestRegionPoseAtRest(t *testing.T) {
	r, root, _, _ := newRegionFixture(t)
	root.ComputeWorldDeltaTransforms()

	out := make([]float64, 9)
	r.PoseFinalPts(out, 0)

	for i := 0; i < r.NumPts(); i++ {
		if got, want := pointAt(out, i), r.RestLocalPt(i); !near(got, want) {
			t.Errorf("point %d: expected rest %v, got %v", i, want, got)
		}
	}
}

func TestRegionSingleWeightFollowsBone(t *testing.T) {
	r, root, arm, _ := newRegionFixture(t)

	// Translate the whole chain up by 5.
	shift := mgl64.Vec3{0, 5, 0}
	root.SetWorldStartPt(root.WorldStartPt().Add(shift))
	root.SetWorldEndPt(root.WorldEndPt().Add(shift))
	arm.SetWorldStartPt(arm.WorldStartPt().Add(shift))
	arm.SetWorldEndPt(arm.WorldEndPt().Add(shift))
	root.ComputeWorldDeltaTransforms()

	out := make([]float64, 9)
	r.PoseFinalPts(out, 0)

	for i := 0; i < r.NumPts(); i++ {
		want := r.RestLocalPt(i).Add(shift)
		if got := pointAt(out, i); !near(got, want) {
			t.Errorf("point %d: expected %v, got %v", i, want, got)
		}
	}
}

func TestRegionDisplacementOrder(t *testing.T) {
	r, root, _, _ := newRegionFixture(t)

	// Rotate root 90 degrees about the origin.
	root.SetWorldEndPt(mgl64.Vec3{0, 10, 0})
	root.ComputeWorldDeltaTransforms()

	r.SetUseLocalDisplacements(true)
	r.SetUsePostDisplacements(true)
	if len(r.LocalDisplacements()) != 3 || len(r.PostDisplacements()) != 3 {
		t.Fatalf("expected lazily allocated displacements of length 3")
	}
	r.LocalDisplacements()[0] = mgl64.Vec2{1, 0}
	r.PostDisplacements()[0] = mgl64.Vec2{1, 0}

	out := make([]float64, 9)
	r.PoseFinalPts(out, 0)

	// (0,1) + (1,0) rotated by 90 is (-1,1), then shifted by (1,0).
	if got := pointAt(out, 0); !near(got, mgl64.Vec3{0, 1, 0}) {
		t.Errorf("expected (0,1,0), got %v", got)
	}

	r.ClearLocalDisplacements()
	r.ClearPostDisplacements()
	if r.LocalDisplacements()[0] != (mgl64.Vec2{}) || r.PostDisplacements()[0] != (mgl64.Vec2{}) {
		t.Error("expected displacements cleared")
	}

	r.SetUseLocalDisplacements(false)
	if len(r.LocalDisplacements()) != 3 {
		t.Error("expected disabling to keep the buffer")
	}
}

func TestRegionOutputOffset(t *testing.T) {
	r, root, _, _ := newRegionFixture(t)
	root.ComputeWorldDeltaTransforms()

	out := make([]float64, 12)
	out[0], out[1], out[2] = -7, -7, -7
	r.PoseFinalPts(out, 3)

	if out[0] != -7 {
		t.Errorf("expected leading slot untouched, got %v", out[0])
	}
	if got := pointAt(out, 1); !near(got, r.RestLocalPt(0)) {
		t.Errorf("expected first point at offset 3, got %v", got)
	}
}

func TestRegionWeightCutoff(t *testing.T) {
	root, arm := newChain()
	pts := []float64{0, 0, 0, 1, 0, 0}
	uvs := []float64{0, 0, 1, 1}
	r := NewRegion("tip", []uint32{0, 1}, pts, uvs, 0, 1, 0, 1)
	r.SetWeights("root", []float64{0.96, 0.5})
	r.SetWeights("arm", []float64{0.04, 0.5})

	if err := r.InitFastNormalWeightMap([]*Bone{root, arm}, DefaultWeightCutoff); err != nil {
		t.Fatalf("InitFastNormalWeightMap: %v", err)
	}

	if got := r.RelevantBones(0); len(got) != 1 || got[0] != root {
		t.Errorf("expected only root to influence vertex 0, got %d bones", len(got))
	}
	if got := r.RelevantBones(1); len(got) != 2 {
		t.Errorf("expected both bones to influence vertex 1, got %d", len(got))
	}

	// A lower cutoff lets the small weight through.
	if err := r.InitFastNormalWeightMap([]*Bone{root, arm}, 0.01); err != nil {
		t.Fatalf("InitFastNormalWeightMap: %v", err)
	}
	if got := r.RelevantBones(0); len(got) != 2 {
		t.Errorf("expected 2 bones with cutoff 0.01, got %d", len(got))
	}
}

func TestRegionWeightErrors(t *testing.T) {
	root, arm := newChain()
	pts := []float64{0, 0, 0, 1, 0, 0}
	uvs := []float64{0, 0, 1, 1}

	r := NewRegion("bad", []uint32{0, 1}, pts, uvs, 0, 1, 0, 1)
	r.SetWeights("root", []float64{1})
	err := r.InitFastNormalWeightMap([]*Bone{root, arm}, DefaultWeightCutoff)
	if !errors.Is(err, ErrWeightLength) {
		t.Errorf("expected ErrWeightLength, got %v", err)
	}

	r = NewRegion("bad", []uint32{0, 1}, pts, uvs, 0, 1, 0, 1)
	r.SetWeights("ghost", []float64{1, 1})
	err = r.InitFastNormalWeightMap([]*Bone{root, arm}, DefaultWeightCutoff)
	if !errors.Is(err, ErrUnknownBone) {
		t.Errorf("expected ErrUnknownBone, got %v", err)
	}
}

func TestRegionUvWarp(t *testing.T) {
	r, _, _, uvs := newRegionFixture(t)

	r.SetUseUvWarp(true)
	r.SetUvWarpLocalOffset(mgl64.Vec2{0.1, 0})
	r.SetUvWarpScale(mgl64.Vec2{2, 2})
	r.SetUvWarpGlobalOffset(mgl64.Vec2{0.5, 0.5})
	r.RunUvWarp()

	want := []float64{
		(0-0.1)*2 + 0.5, 0*2 + 0.5,
		(0.5-0.1)*2 + 0.5, 0.5*2 + 0.5,
		(1-0.1)*2 + 0.5, 1*2 + 0.5,
	}
	for i := range want {
		if gomath.Abs(uvs[i]-want[i]) > tol {
			t.Errorf("uv[%d]: expected %v, got %v", i, want[i], uvs[i])
		}
	}

	r.SetUseUvWarp(false)
	ref := []float64{0, 0, 0.5, 0.5, 1, 1}
	for i := range ref {
		if uvs[i] != ref[i] {
			t.Errorf("uv[%d]: expected restored %v, got %v", i, ref[i], uvs[i])
		}
	}
}

func TestRegionLocalIndex(t *testing.T) {
	pts := make([]float64, 5*3)
	uvs := make([]float64, 5*2)
	indices := []uint32{0, 1, 2, 2, 3, 4}
	r := NewRegion("tail", indices, pts, uvs, 2, 4, 3, 5)

	if r.NumPts() != 3 || r.NumIndices() != 3 {
		t.Fatalf("expected 3 points and 3 indices, got %d and %d", r.NumPts(), r.NumIndices())
	}
	for i, want := range []int{0, 1, 2} {
		if got := r.LocalIndex(i); got != want {
			t.Errorf("LocalIndex(%d) = %d, want %d", i, got, want)
		}
	}
	if r.TagID() != -1 {
		t.Errorf("expected default tag id -1, got %d", r.TagID())
	}
	if r.UvWarpScale() != (mgl64.Vec2{1, 1}) {
		t.Errorf("expected default uv scale (1,1), got %v", r.UvWarpScale())
	}
}

func TestRegionMainBone(t *testing.T) {
	r, root, _, _ := newRegionFixture(t)
	r.DetermineMainBone(root)
	if got := r.MainBone(); got != root {
		t.Errorf("expected root as main bone, got %v", got)
	}

	r.SetMainBoneKey("arm")
	r.DetermineMainBone(root)
	if got := r.MainBone(); got == nil || got.Key() != "arm" {
		t.Errorf("expected arm as main bone, got %v", got)
	}
}
