// Package math provides the dual-quaternion and frame helpers used by
// skeletal skinning. Vector, matrix and quaternion types come from mgl64.
package math

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"golang.org/x/exp/constraints"
)

// SetAxisMatrix returns a matrix whose first three columns are the given
// axes. The result maps local (x, y, z) into the frame spanned by them.
func SetAxisMatrix(xAxis, yAxis, zAxis mgl64.Vec3) mgl64.Mat4 {
	return mgl64.Mat4{
		xAxis[0], xAxis[1], xAxis[2], 0,
		yAxis[0], yAxis[1], yAxis[2], 0,
		zAxis[0], zAxis[1], zAxis[2], 0,
		0, 0, 0, 1,
	}
}

// MatrixToQuat extracts the rotation of the upper 3x3 block of m.
// Uses the trace when positive, otherwise the largest diagonal element.
func MatrixToQuat(m mgl64.Mat4) mgl64.Quat {
	m11, m12, m13 := m[0], m[4], m[8]
	m21, m22, m23 := m[1], m[5], m[9]
	m31, m32, m33 := m[2], m[6], m[10]

	trace := m11 + m22 + m33

	switch {
	case trace > 0:
		s := 0.5 / math.Sqrt(trace+1.0)
		return mgl64.Quat{
			W: 0.25 / s,
			V: mgl64.Vec3{(m32 - m23) * s, (m13 - m31) * s, (m21 - m12) * s},
		}
	case m11 > m22 && m11 > m33:
		s := 2.0 * math.Sqrt(1.0+m11-m22-m33)
		return mgl64.Quat{
			W: (m32 - m23) / s,
			V: mgl64.Vec3{0.25 * s, (m12 + m21) / s, (m13 + m31) / s},
		}
	case m22 > m33:
		s := 2.0 * math.Sqrt(1.0+m22-m11-m33)
		return mgl64.Quat{
			W: (m13 - m31) / s,
			V: mgl64.Vec3{(m12 + m21) / s, 0.25 * s, (m23 + m32) / s},
		}
	default:
		s := 2.0 * math.Sqrt(1.0+m33-m11-m22)
		return mgl64.Quat{
			W: (m21 - m12) / s,
			V: mgl64.Vec3{(m13 + m31) / s, (m23 + m32) / s, 0.25 * s},
		}
	}
}

// RotateVec90 rotates v by 90 degrees counter-clockwise in the XY plane.
func RotateVec90(v mgl64.Vec3) mgl64.Vec3 {
	return mgl64.Vec3{-v[1], v[0], v[2]}
}

// CalcRotateMat builds the bone frame for a direction in the XY plane:
// tangent along dir, normal at +90 degrees, binormal along +Z.
func CalcRotateMat(dir mgl64.Vec3) mgl64.Mat4 {
	dir = NormalizeVec3(dir)
	tangent := mgl64.Vec3{dir[0], dir[1], 0}
	normal := RotateVec90(tangent)
	binormal := mgl64.Vec3{0, 0, 1}
	return SetAxisMatrix(tangent, normal, binormal)
}

// MatTranslate returns the translation column of m.
func MatTranslate(m mgl64.Mat4) mgl64.Vec3 {
	return mgl64.Vec3{m[12], m[13], m[14]}
}

// NormalizeVec3 returns v scaled to unit length, or the zero vector when
// v has no length.
func NormalizeVec3(v mgl64.Vec3) mgl64.Vec3 {
	l := v.Len()
	if l == 0 {
		return mgl64.Vec3{}
	}
	return v.Mul(1 / l)
}

// LerpVec3 linearly interpolates between a and b.
func LerpVec3(a, b mgl64.Vec3, t float64) mgl64.Vec3 {
	return a.Mul(1 - t).Add(b.Mul(t))
}

// LerpVec2 linearly interpolates between a and b.
func LerpVec2(a, b mgl64.Vec2, t float64) mgl64.Vec2 {
	return a.Mul(1 - t).Add(b.Mul(t))
}

// Clamp restricts v to [lo, hi].
func Clamp[T constraints.Ordered](v, lo, hi T) T {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
