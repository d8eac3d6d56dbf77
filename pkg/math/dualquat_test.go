package math

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"gonum.org/v1/gonum/num/dualquat"
	"gonum.org/v1/gonum/num/quat"
)

const eps = 1e-9

func vecNear(a, b mgl64.Vec3, tol float64) bool {
	return math.Abs(a[0]-b[0]) <= tol && math.Abs(a[1]-b[1]) <= tol && math.Abs(a[2]-b[2]) <= tol
}

func toGonum(q mgl64.Quat) quat.Number {
	return quat.Number{Real: q.W, Imag: q.V[0], Jmag: q.V[1], Kmag: q.V[2]}
}

func TestDualQuatReset(t *testing.T) {
	dq := DualQuatFromRotationTranslation(mgl64.QuatIdent(), mgl64.Vec3{1, 2, 3})
	dq.Reset()

	if dq.Real != (mgl64.Quat{}) || dq.Imaginary != (mgl64.Quat{}) {
		t.Errorf("expected zeroed dual quaternion after Reset, got %+v", dq)
	}
}

func TestDualQuatRoundTrip(t *testing.T) {
	tests := []struct {
		name  string
		angle float64
		axis  mgl64.Vec3
		trans mgl64.Vec3
	}{
		{"identity", 0, mgl64.Vec3{0, 0, 1}, mgl64.Vec3{}},
		{"translate only", 0, mgl64.Vec3{0, 0, 1}, mgl64.Vec3{3, -4, 0}},
		{"rotate z 90", math.Pi / 2, mgl64.Vec3{0, 0, 1}, mgl64.Vec3{}},
		{"rotate z and translate", 0.7, mgl64.Vec3{0, 0, 1}, mgl64.Vec3{10, 5, 0}},
		{"rotate diagonal and translate", 2 * math.Pi / 3, mgl64.Vec3{1, 1, 1}.Normalize(), mgl64.Vec3{3, 4, 5}},
	}

	points := []mgl64.Vec3{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}, {2.5, -1.5, 0}, {1, 1, 1}}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := mgl64.QuatRotate(tt.angle, tt.axis)
			dq := DualQuatFromRotationTranslation(q, tt.trans)

			for _, p := range points {
				want := q.Rotate(p).Add(tt.trans)
				got := dq.TransformPoint(p)
				if !vecNear(got, want, eps) {
					t.Errorf("TransformPoint(%v) = %v, want %v", p, got, want)
				}
			}

			if got := dq.Translation(); !vecNear(got, tt.trans, eps) {
				t.Errorf("Translation() = %v, want %v", got, tt.trans)
			}
		})
	}
}

// The construction must agree with an independent dual quaternion
// product: translate(t) * rotate(q).
func TestDualQuatMatchesGonum(t *testing.T) {
	q := mgl64.QuatRotate(1.1, mgl64.Vec3{0, 0, 1})
	tr := mgl64.Vec3{-2, 7, 0}

	rotate := dualquat.Number{Real: toGonum(q)}
	displace := dualquat.Number{
		Real: quat.Number{Real: 1},
		Dual: quat.Scale(0.5, quat.Number{Imag: tr[0], Jmag: tr[1], Kmag: tr[2]}),
	}
	want := dualquat.Mul(displace, rotate)

	got := DualQuatFromRotationTranslation(q, tr)
	gotReal := toGonum(got.Real)
	gotDual := toGonum(got.Imaginary)

	if quat.Abs(quat.Sub(gotReal, want.Real)) > eps {
		t.Errorf("real part = %v, want %v", gotReal, want.Real)
	}
	if quat.Abs(quat.Sub(gotDual, want.Dual)) > eps {
		t.Errorf("dual part = %v, want %v", gotDual, want.Dual)
	}
}

func TestDualQuatAccumulateNormalize(t *testing.T) {
	q := mgl64.QuatRotate(0.5, mgl64.Vec3{0, 0, 1})
	a := DualQuatFromRotationTranslation(q, mgl64.Vec3{1, 2, 0})

	var acc DualQuat
	acc.Reset()
	acc.Accumulate(a, 0.25, 0.25)
	acc.Accumulate(a, 0.25, 0.25)
	acc.Normalize()

	p := mgl64.Vec3{3, -1, 0}
	if got, want := acc.TransformPoint(p), a.TransformPoint(p); !vecNear(got, want, eps) {
		t.Errorf("blend of identical transforms = %v, want %v", got, want)
	}
}

func TestDualQuatNormalizeZero(t *testing.T) {
	var dq DualQuat
	dq.Normalize()

	if dq.Real != (mgl64.Quat{}) {
		t.Errorf("expected zero real part to stay zero, got %+v", dq.Real)
	}
}

func TestDualQuatNegate(t *testing.T) {
	q := mgl64.QuatRotate(2.0, mgl64.Vec3{0, 0, 1})
	dq := DualQuatFromRotationTranslation(q, mgl64.Vec3{4, 0, 0})
	neg := dq
	neg.Negate()

	p := mgl64.Vec3{1, 1, 0}
	if got, want := neg.TransformPoint(p), dq.TransformPoint(p); !vecNear(got, want, eps) {
		t.Errorf("negated transform = %v, want %v", got, want)
	}
	if neg.Real.Dot(dq.Real) >= 0 {
		t.Error("expected negated real part to point the other way")
	}
}
