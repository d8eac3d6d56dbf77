// Package skeleton provides the bone hierarchy, skinned render regions
// and their composition for 2D mesh deformation.
package skeleton

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/Faultbox/creature/pkg/math"
)

// Bone is a node in the skeleton. Rest data is expressed in the parent's
// rest frame; world data is rewritten every frame by the pose.
type Bone struct {
	key   string
	tagID int

	restParentMat    mgl64.Mat4
	restParentInvMat mgl64.Mat4
	restWorldMat     mgl64.Mat4
	restWorldInvMat  mgl64.Mat4
	bindWorldMat     mgl64.Mat4
	bindWorldInvMat  mgl64.Mat4

	parentWorldMat    mgl64.Mat4
	parentWorldInvMat mgl64.Mat4

	localRestStartPt mgl64.Vec3
	localRestEndPt   mgl64.Vec3
	localRestDir     mgl64.Vec3
	localRestNormal  mgl64.Vec3
	localBinormalDir mgl64.Vec3
	restLength       float64

	worldStartPt  mgl64.Vec3
	worldEndPt    mgl64.Vec3
	worldDeltaMat mgl64.Mat4
	worldDQ       math.DualQuat

	children []*Bone
}

// NewBone creates a bone from its local rest segment and the rest frame
// of its parent.
func NewBone(key string, localRestStart, localRestEnd mgl64.Vec3, restParentMat mgl64.Mat4) *Bone {
	b := &Bone{
		key:               key,
		localRestStartPt:  localRestStart,
		localRestEndPt:    localRestEnd,
		localBinormalDir:  mgl64.Vec3{0, 0, 1},
		restWorldMat:      mgl64.Ident4(),
		restWorldInvMat:   mgl64.Ident4(),
		bindWorldMat:      mgl64.Ident4(),
		bindWorldInvMat:   mgl64.Ident4(),
		parentWorldMat:    mgl64.Ident4(),
		parentWorldInvMat: mgl64.Ident4(),
		worldDeltaMat:     mgl64.Ident4(),
	}
	b.worldDQ.Reset()
	b.SetRestParentMat(restParentMat)
	b.calcRestData()
	return b
}

// Key returns the bone name.
func (b *Bone) Key() string { return b.key }

// TagID returns the numeric id assigned by the document.
func (b *Bone) TagID() int { return b.tagID }

// SetTagID sets the numeric id.
func (b *Bone) SetTagID(id int) { b.tagID = id }

// Children returns the direct children in attachment order.
func (b *Bone) Children() []*Bone { return b.children }

// SetRestParentMat sets the parent's rest frame and its inverse.
func (b *Bone) SetRestParentMat(m mgl64.Mat4) {
	b.setRestParentMats(m, m.Inv())
}

func (b *Bone) setRestParentMats(m, inv mgl64.Mat4) {
	b.restParentMat = m
	b.restParentInvMat = inv
}

// SetParentWorldMat sets the current world frame of the parent.
func (b *Bone) SetParentWorldMat(m, inv mgl64.Mat4) {
	b.parentWorldMat = m
	b.parentWorldInvMat = inv
}

// SetLocalRestStartPt sets the rest start point in the parent frame.
func (b *Bone) SetLocalRestStartPt(p mgl64.Vec3) {
	b.localRestStartPt = p
	b.calcRestData()
}

// SetLocalRestEndPt sets the rest end point in the parent frame.
func (b *Bone) SetLocalRestEndPt(p mgl64.Vec3) {
	b.localRestEndPt = p
	b.calcRestData()
}

// calcRestData refreshes the rest direction, normal and length.
func (b *Bone) calcRestData() {
	dir := b.localRestEndPt.Sub(b.localRestStartPt)
	b.restLength = dir.Len()
	b.localRestDir = math.NormalizeVec3(dir)
	b.localRestNormal = math.RotateVec90(b.localRestDir)
}

// RestLength returns the length of the rest segment.
func (b *Bone) RestLength() float64 { return b.restLength }

// LocalRestStartPt returns the rest start point in the parent frame.
func (b *Bone) LocalRestStartPt() mgl64.Vec3 { return b.localRestStartPt }

// LocalRestEndPt returns the rest end point in the parent frame.
func (b *Bone) LocalRestEndPt() mgl64.Vec3 { return b.localRestEndPt }

// RestParentMat returns the parent's rest frame.
func (b *Bone) RestParentMat() mgl64.Mat4 { return b.restParentMat }

// RestWorldMat returns this bone's rest frame in world space.
func (b *Bone) RestWorldMat() mgl64.Mat4 { return b.restWorldMat }

// BindWorldMat returns the bind frame placed at the rest start point.
func (b *Bone) BindWorldMat() mgl64.Mat4 { return b.bindWorldMat }

// BindWorldInvMat returns the inverse of the bind frame.
func (b *Bone) BindWorldInvMat() mgl64.Mat4 { return b.bindWorldInvMat }

// ParentWorldMat returns the parent's current world frame.
func (b *Bone) ParentWorldMat() mgl64.Mat4 { return b.parentWorldMat }

// ParentWorldInvMat returns the inverse of ParentWorldMat.
func (b *Bone) ParentWorldInvMat() mgl64.Mat4 { return b.parentWorldInvMat }

// WorldRestStartPt returns the rest start point in world space.
func (b *Bone) WorldRestStartPt() mgl64.Vec3 {
	return mgl64.TransformCoordinate(b.localRestStartPt, b.restParentMat)
}

// WorldRestEndPt returns the rest end point in world space.
func (b *Bone) WorldRestEndPt() mgl64.Vec3 {
	return mgl64.TransformCoordinate(b.localRestEndPt, b.restParentMat)
}

// WorldStartPt returns the posed start point.
func (b *Bone) WorldStartPt() mgl64.Vec3 { return b.worldStartPt }

// WorldEndPt returns the posed end point.
func (b *Bone) WorldEndPt() mgl64.Vec3 { return b.worldEndPt }

// SetWorldStartPt sets the posed start point.
func (b *Bone) SetWorldStartPt(p mgl64.Vec3) { b.worldStartPt = p }

// SetWorldEndPt sets the posed end point.
func (b *Bone) SetWorldEndPt(p mgl64.Vec3) { b.worldEndPt = p }

// WorldDeltaMat returns the rest-to-current transform of the bone.
func (b *Bone) WorldDeltaMat() mgl64.Mat4 { return b.worldDeltaMat }

// WorldDQ returns the dual quaternion form of WorldDeltaMat.
func (b *Bone) WorldDQ() math.DualQuat { return b.worldDQ }

// InitWorldPts resets the posed segment of this bone and its subtree to
// the rest segment.
func (b *Bone) InitWorldPts() {
	b.worldStartPt = b.WorldRestStartPt()
	b.worldEndPt = b.WorldRestEndPt()
	for _, c := range b.children {
		c.InitWorldPts()
	}
}

// AddChild attaches child and hands it this bone's rest frame.
func (b *Bone) AddChild(child *Bone) {
	child.setRestParentMats(b.restWorldMat, b.restWorldInvMat)
	b.children = append(b.children, child)
}

// ComputeRestParentTransforms derives the rest and bind frames of the
// whole subtree, top-down.
func (b *Bone) ComputeRestParentTransforms() {
	axis := math.SetAxisMatrix(b.localRestDir, b.localRestNormal, b.localBinormalDir)
	endMat := mgl64.Translate3D(b.localRestEndPt[0], b.localRestEndPt[1], b.localRestEndPt[2])
	local := endMat.Mul4(axis)

	b.restWorldMat = b.restParentMat.Mul4(local)
	b.restWorldInvMat = b.restWorldMat.Inv()

	start := b.WorldRestStartPt()
	end := b.WorldRestEndPt()
	b.bindWorldMat = mgl64.Translate3D(start[0], start[1], start[2]).Mul4(math.CalcRotateMat(end.Sub(start)))
	b.bindWorldInvMat = b.bindWorldMat.Inv()

	for _, c := range b.children {
		c.setRestParentMats(b.restWorldMat, b.restWorldInvMat)
		c.ComputeRestParentTransforms()
	}
}

// ComputeParentTransforms pushes this bone's current world frame, placed
// at its posed end point, down to its children.
func (b *Bone) ComputeParentTransforms() {
	end := b.worldEndPt
	trans := mgl64.Translate3D(end[0], end[1], end[2])
	rot := math.CalcRotateMat(b.worldEndPt.Sub(b.worldStartPt))
	m := trans.Mul4(rot)
	inv := m.Inv()

	for _, c := range b.children {
		c.SetParentWorldMat(m, inv)
		c.ComputeParentTransforms()
	}
}

// ComputeWorldDeltaTransforms computes the rest-to-current transform of
// every bone in the subtree and its dual quaternion.
func (b *Bone) ComputeWorldDeltaTransforms() {
	dir := math.NormalizeVec3(b.worldEndPt.Sub(b.worldStartPt))
	normal := math.RotateVec90(dir)

	axis := math.SetAxisMatrix(dir, normal, b.localBinormalDir)
	start := mgl64.Translate3D(b.worldStartPt[0], b.worldStartPt[1], b.worldStartPt[2])
	b.worldDeltaMat = start.Mul4(axis).Mul4(b.bindWorldInvMat)

	rot := math.MatrixToQuat(b.worldDeltaMat)
	b.worldDQ = math.DualQuatFromRotationTranslation(rot, math.MatTranslate(b.worldDeltaMat))

	for _, c := range b.children {
		c.ComputeWorldDeltaTransforms()
	}
}

// FixDQs flips each bone's dual quaternion into the hemisphere of its
// parent's so blends between neighbours take the short path.
func (b *Bone) FixDQs(ref math.DualQuat) {
	if b.worldDQ.Real.Dot(ref.Real) < 0 {
		b.worldDQ.Negate()
	}
	for _, c := range b.children {
		c.FixDQs(b.worldDQ)
	}
}

// ChildByKey returns the bone with key in this subtree, or nil.
func (b *Bone) ChildByKey(key string) *Bone {
	if b.key == key {
		return b
	}
	for _, c := range b.children {
		if found := c.ChildByKey(key); found != nil {
			return found
		}
	}
	return nil
}

// AllBoneKeys returns the keys of this subtree in depth-first order.
func (b *Bone) AllBoneKeys() []string {
	keys := []string{b.key}
	for _, c := range b.children {
		keys = append(keys, c.AllBoneKeys()...)
	}
	return keys
}

// AllChildren returns this bone and every descendant, depth-first.
func (b *Bone) AllChildren() []*Bone {
	bones := []*Bone{b}
	for _, c := range b.children {
		bones = append(bones, c.AllChildren()...)
	}
	return bones
}

// BoneDepth returns the depth of target below this bone, or -1 if it is
// not in the subtree.
func (b *Bone) BoneDepth(target *Bone) int {
	if b == target {
		return 0
	}
	for _, c := range b.children {
		if d := c.BoneDepth(target); d >= 0 {
			return d + 1
		}
	}
	return -1
}

// IsLeaf reports whether the bone has no children.
func (b *Bone) IsLeaf() bool { return len(b.children) == 0 }

// HasBone reports whether target is a direct child.
func (b *Bone) HasBone(target *Bone) bool {
	for _, c := range b.children {
		if c == target {
			return true
		}
	}
	return false
}

// DeleteChildren detaches every child.
func (b *Bone) DeleteChildren() {
	b.children = nil
}
