package skeleton

import (
	gomath "math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/Faultbox/creature/pkg/math"
)

const tol = 1e-9

func near(a, b mgl64.Vec3) bool {
	return gomath.Abs(a[0]-b[0]) <= tol && gomath.Abs(a[1]-b[1]) <= tol && gomath.Abs(a[2]-b[2]) <= tol
}

// newChain builds root (0,0)-(10,0) with child arm (10,0)-(20,0).
func newChain() (*Bone, *Bone) {
	root := NewBone("root", mgl64.Vec3{0, 0, 0}, mgl64.Vec3{10, 0, 0}, mgl64.Ident4())
	arm := NewBone("arm", mgl64.Vec3{0, 0, 0}, mgl64.Vec3{10, 0, 0}, mgl64.Ident4())
	root.AddChild(arm)
	root.ComputeRestParentTransforms()
	root.InitWorldPts()
	return root, arm
}

func TestBoneRestTransforms(t *testing.T) {
	root, arm := newChain()

	if got := arm.WorldRestStartPt(); !near(got, mgl64.Vec3{10, 0, 0}) {
		t.Errorf("expected arm rest start (10,0,0), got %v", got)
	}
	if got := arm.WorldRestEndPt(); !near(got, mgl64.Vec3{20, 0, 0}) {
		t.Errorf("expected arm rest end (20,0,0), got %v", got)
	}
	if got := math.MatTranslate(root.RestWorldMat()); !near(got, mgl64.Vec3{10, 0, 0}) {
		t.Errorf("expected root rest world at its end point, got %v", got)
	}
	if got := mgl64.TransformCoordinate(mgl64.Vec3{}, arm.BindWorldMat()); !near(got, mgl64.Vec3{10, 0, 0}) {
		t.Errorf("expected arm bind frame at (10,0,0), got %v", got)
	}
	if root.RestLength() != 10 || arm.RestLength() != 10 {
		t.Errorf("expected rest lengths 10, got %v and %v", root.RestLength(), arm.RestLength())
	}
}

func TestBoneDeltaIdentityAtRest(t *testing.T) {
	root, arm := newChain()
	root.ComputeWorldDeltaTransforms()

	for _, b := range []*Bone{root, arm} {
		p := mgl64.Vec3{3, -2, 0}
		if got := b.WorldDQ().TransformPoint(p); !near(got, p) {
			t.Errorf("%s: expected rest pose to leave %v unchanged, got %v", b.Key(), p, got)
		}
	}
}

func TestBoneDeltaRotation(t *testing.T) {
	root, arm := newChain()

	// Swing the arm up by 90 degrees around its start.
	arm.SetWorldEndPt(mgl64.Vec3{10, 10, 0})
	root.ComputeWorldDeltaTransforms()

	got := arm.WorldDQ().TransformPoint(mgl64.Vec3{20, 1, 0})
	if !near(got, mgl64.Vec3{9, 10, 0}) {
		t.Errorf("expected (9,10,0), got %v", got)
	}

	m := arm.WorldDeltaMat()
	if got := mgl64.TransformCoordinate(mgl64.Vec3{20, 1, 0}, m); !near(got, mgl64.Vec3{9, 10, 0}) {
		t.Errorf("expected delta matrix to agree with dual quaternion, got %v", got)
	}
}

func TestBoneComputeParentTransforms(t *testing.T) {
	root, arm := newChain()
	root.SetWorldEndPt(mgl64.Vec3{0, 10, 0})
	root.ComputeParentTransforms()

	if got := math.MatTranslate(arm.ParentWorldMat()); !near(got, mgl64.Vec3{0, 10, 0}) {
		t.Errorf("expected parent frame at root end, got %v", got)
	}
	// The parent frame is rotated along the root's current direction.
	if got := mgl64.TransformCoordinate(mgl64.Vec3{1, 0, 0}, arm.ParentWorldMat()); !near(got, mgl64.Vec3{0, 11, 0}) {
		t.Errorf("expected local +X along root direction, got %v", got)
	}
	back := mgl64.TransformCoordinate(mgl64.Vec3{0, 10, 0}, arm.ParentWorldInvMat())
	if !near(back, mgl64.Vec3{}) {
		t.Errorf("expected inverse to map root end to origin, got %v", back)
	}
}

func TestBoneFixDQs(t *testing.T) {
	root, arm := newChain()

	q := mgl64.QuatRotate(0.4, mgl64.Vec3{0, 0, 1})
	root.worldDQ = math.DualQuatFromRotationTranslation(q, mgl64.Vec3{})
	arm.worldDQ = math.DualQuatFromRotationTranslation(q, mgl64.Vec3{1, 0, 0})
	arm.worldDQ.Negate()

	root.FixDQs(root.WorldDQ())

	if d := arm.WorldDQ().Real.Dot(root.WorldDQ().Real); d < 0 {
		t.Errorf("expected child aligned with parent, dot = %v", d)
	}
	if root.WorldDQ().Real.W < 0 {
		t.Error("expected root to stay in its own hemisphere")
	}
}

func TestBoneFixDQsAfterLargeRotation(t *testing.T) {
	root, arm := newChain()

	a := 170 * gomath.Pi / 180
	b := 190 * gomath.Pi / 180
	rootEnd := mgl64.Vec3{10 * gomath.Cos(a), 10 * gomath.Sin(a), 0}
	root.SetWorldEndPt(rootEnd)
	arm.SetWorldStartPt(rootEnd)
	arm.SetWorldEndPt(rootEnd.Add(mgl64.Vec3{10 * gomath.Cos(b), 10 * gomath.Sin(b), 0}))

	root.ComputeWorldDeltaTransforms()
	root.FixDQs(root.WorldDQ())

	if d := arm.WorldDQ().Real.Dot(root.WorldDQ().Real); d < 0 {
		t.Errorf("expected non-negative dot between parent and child, got %v", d)
	}
}

func TestBoneTree(t *testing.T) {
	root, arm := newChain()
	stray := NewBone("stray", mgl64.Vec3{}, mgl64.Vec3{1, 0, 0}, mgl64.Ident4())

	if got := root.ChildByKey("arm"); got != arm {
		t.Errorf("expected to find arm, got %v", got)
	}
	if got := root.ChildByKey("missing"); got != nil {
		t.Errorf("expected nil for missing key, got %v", got)
	}

	keys := root.AllBoneKeys()
	if len(keys) != 2 || keys[0] != "root" || keys[1] != "arm" {
		t.Errorf("expected [root arm], got %v", keys)
	}
	if n := len(root.AllChildren()); n != 2 {
		t.Errorf("expected 2 bones, got %d", n)
	}

	if d := root.BoneDepth(arm); d != 1 {
		t.Errorf("expected arm depth 1, got %d", d)
	}
	if d := root.BoneDepth(stray); d != -1 {
		t.Errorf("expected -1 for bone outside tree, got %d", d)
	}

	if root.IsLeaf() || !arm.IsLeaf() {
		t.Error("expected only arm to be a leaf")
	}
	if !root.HasBone(arm) || root.HasBone(stray) {
		t.Error("HasBone mismatch")
	}

	root.DeleteChildren()
	if !root.IsLeaf() {
		t.Error("expected root to be a leaf after DeleteChildren")
	}
}
