package model

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/go-cmp/cmp"

	"github.com/Faultbox/creature/internal/testutil"
	"github.com/Faultbox/creature/pkg/formats"
)

func loadDoc(t *testing.T) *formats.Creature {
	t.Helper()
	doc, err := formats.ParseCreature(testutil.CreatureJSON)
	testutil.AssertNoError(t, err)
	return doc
}

func TestNewMesh(t *testing.T) {
	m, err := NewMesh(loadDoc(t), DefaultBuildOptions())
	testutil.AssertNoError(t, err)

	if m.TotalNumPoints() != testutil.NumPoints {
		t.Errorf("expected %d points, got %d", testutil.NumPoints, m.TotalNumPoints())
	}
	if m.TotalNumIndices() != 12 {
		t.Errorf("expected 12 indices, got %d", m.TotalNumIndices())
	}
	if len(m.RestPoints()) != testutil.NumPoints*3 || len(m.RenderPts()) != testutil.NumPoints*3 {
		t.Errorf("expected 3D buffers")
	}
	// 2D points are widened with z = 0.
	if m.RestPoints()[3] != 0 || m.RestPoints()[4] != 1 || m.RestPoints()[5] != 0 {
		t.Errorf("expected second point (0,1,0), got %v", m.RestPoints()[3:6])
	}

	comp := m.Composition()
	if comp.RootBone().Key() != "root" {
		t.Errorf("expected root bone 'root', got %s", comp.RootBone().Key())
	}
	if len(comp.Regions()) != 2 || comp.Regions()[0].Name() != "body" {
		t.Errorf("expected regions [body tail] in mesh order")
	}
	if comp.RegionWithID(1).Name() != "tail" {
		t.Errorf("expected region id 1 to be tail")
	}
	if mb := comp.Region("tail").MainBone(); mb == nil || mb.Key() != "arm" {
		t.Errorf("expected arm as tail main bone, got %v", mb)
	}

	arm := comp.Bone("arm")
	if got := arm.WorldRestEndPt(); got != (mgl64.Vec3{20, 0, 0}) {
		t.Errorf("expected arm rest end (20,0,0), got %v", got)
	}
}

func TestMeshRenderColours(t *testing.T) {
	m, err := NewMesh(loadDoc(t), DefaultBuildOptions())
	testutil.AssertNoError(t, err)

	c := m.RenderColours()
	if len(c) != testutil.NumPoints*4 || c[0] != 1 || c[len(c)-1] != 1 {
		t.Fatalf("expected opaque white by default")
	}

	m.FillRenderColours(0.5, 0.25, 0, 1)
	if c[4] != 0.5 || c[5] != 0.25 || c[6] != 0 || c[7] != 1 {
		t.Errorf("unexpected colour %v", c[4:8])
	}
}

func TestMeshBoundary(t *testing.T) {
	m, err := NewMesh(loadDoc(t), DefaultBuildOptions())
	testutil.AssertNoError(t, err)

	// Every vertex of a quad strip lies on the outline.
	idx := m.ComputeBoundaryIndices()
	if len(idx) != testutil.NumPoints {
		t.Errorf("expected all %d points on the boundary, got %v", testutil.NumPoints, idx)
	}

	b := m.ComputeBoundaryMinMax()
	if b.Min != (mgl64.Vec2{0, -1}) || b.Max != (mgl64.Vec2{20, 1}) {
		t.Errorf("unexpected bounds %+v", b)
	}
	if b.Width() != 20 || b.Height() != 2 {
		t.Errorf("expected 20x2, got %vx%v", b.Width(), b.Height())
	}
	if m.Bounds() != b {
		t.Error("expected bounds to be stored")
	}
}

func TestMeshBoundaryReferenceCount(t *testing.T) {
	doc := loadDoc(t)
	// Body collapses to point 0, leaving points 1-3 unreferenced.
	copy(doc.Mesh.Indices[:6], []uint32{0, 0, 0, 0, 0, 0})

	m, err := NewMesh(doc, DefaultBuildOptions())
	testutil.AssertNoError(t, err)

	want := []int{1, 2, 3, 4, 5, 6, 7}
	if diff := cmp.Diff(want, m.ComputeBoundaryIndices()); diff != "" {
		t.Errorf("unexpected boundary (-want +got):\n%s", diff)
	}
}

func TestBuildSkeletonCycle(t *testing.T) {
	doc := loadDoc(t)
	// Introduce a cycle after validation.
	arm := doc.Skeleton["arm"]
	arm.Children = []int{0}
	doc.Skeleton["arm"] = arm

	if _, err := BuildSkeleton(doc); err == nil {
		t.Error("expected cycle error")
	}
}
