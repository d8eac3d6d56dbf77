package math

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// DualQuat is a unit dual quaternion encoding a rigid transform.
// Real holds the rotation, Imaginary holds half the translation
// multiplied by the rotation (0.5 * t * q).
type DualQuat struct {
	Real      mgl64.Quat
	Imaginary mgl64.Quat
}

// Reset zeroes both parts. A reset dual quaternion is the neutral
// element for Accumulate, not the identity transform.
func (dq *DualQuat) Reset() {
	dq.Real = mgl64.Quat{}
	dq.Imaginary = mgl64.Quat{}
}

// DualQuatFromRotationTranslation builds a dual quaternion that rotates
// by q and then translates by t.
func DualQuatFromRotationTranslation(q mgl64.Quat, t mgl64.Vec3) DualQuat {
	return DualQuat{
		Real: q,
		Imaginary: mgl64.Quat{
			W: -0.5 * t.Dot(q.V),
			V: t.Mul(q.W).Add(t.Cross(q.V)).Mul(0.5),
		},
	}
}

// Accumulate adds a weighted copy of other. Linear blending of dual
// quaternions followed by Normalize gives dual-quaternion skinning.
func (dq *DualQuat) Accumulate(other DualQuat, realWeight, imaginaryWeight float64) {
	dq.Real = dq.Real.Add(other.Real.Scale(realWeight))
	dq.Imaginary = dq.Imaginary.Add(other.Imaginary.Scale(imaginaryWeight))
}

// Normalize divides both parts by the length of the real part.
// A zero real part is left untouched.
func (dq *DualQuat) Normalize() {
	norm := math.Sqrt(dq.Real.Dot(dq.Real))
	if norm == 0 {
		return
	}
	inv := 1.0 / norm
	dq.Real = dq.Real.Scale(inv)
	dq.Imaginary = dq.Imaginary.Scale(inv)
}

// Negate flips the sign of both parts. q and -q encode the same transform.
func (dq *DualQuat) Negate() {
	dq.Real = dq.Real.Scale(-1)
	dq.Imaginary = dq.Imaginary.Scale(-1)
}

// Translation recovers the translation part of a unit dual quaternion.
func (dq DualQuat) Translation() mgl64.Vec3 {
	v0 := dq.Real.V
	ve := dq.Imaginary.V
	return ve.Mul(dq.Real.W).Sub(v0.Mul(dq.Imaginary.W)).Add(v0.Cross(ve)).Mul(2)
}

// TransformPoint applies the rigid transform to p: rotation by the real
// part followed by the recovered translation.
func (dq DualQuat) TransformPoint(p mgl64.Vec3) mgl64.Vec3 {
	return dq.Real.Rotate(p).Add(dq.Translation())
}
