package model

import (
	gomath "math"

	"go.uber.org/zap"

	"github.com/Faultbox/creature/internal/engine/skeleton"
	"github.com/Faultbox/creature/internal/logger"
	"github.com/Faultbox/creature/pkg/formats"
)

// Mesh is a skinned creature: rest buffers, the posed output buffer and
// the bone composition driving it.
type Mesh struct {
	numPts  int
	indices []uint32
	points  []float64 // rest, x y z per point
	uvs     []float64

	renderPts     []float64
	renderColours []float64

	composition *skeleton.Composition

	boundaryIndices []int
	bounds          Bounds
}

// NewMesh builds a mesh and its composition from a parsed document.
func NewMesh(doc *formats.Creature, opts BuildOptions) (*Mesh, error) {
	n := doc.NumPoints()
	m := &Mesh{
		numPts:        n,
		indices:       append([]uint32(nil), doc.Mesh.Indices...),
		points:        make([]float64, n*3),
		uvs:           append([]float64(nil), doc.Mesh.UVs...),
		renderPts:     make([]float64, n*3),
		renderColours: make([]float64, n*4),
	}
	for i := 0; i < n; i++ {
		m.points[i*3] = doc.Mesh.Points[i*2]
		m.points[i*3+1] = doc.Mesh.Points[i*2+1]
	}
	copy(m.renderPts, m.points)
	m.FillRenderColours(1, 1, 1, 1)

	root, err := BuildSkeleton(doc)
	if err != nil {
		return nil, err
	}

	comp := skeleton.NewComposition()
	comp.SetRootBone(root)
	if err := comp.InitBoneMap(); err != nil {
		return nil, err
	}
	for _, r := range BuildRegions(doc, m.indices, m.points, m.uvs) {
		if err := r.InitFastNormalWeightMap(comp.Bones(), opts.WeightCutoff); err != nil {
			return nil, err
		}
		r.DetermineMainBone(root)
		comp.AddRegion(r)
	}
	if err := comp.InitRegionsMap(); err != nil {
		return nil, err
	}
	m.composition = comp

	logger.Log.Named("model").Info("creature mesh built",
		zap.Int("points", n),
		zap.Int("indices", len(m.indices)),
		zap.Int("bones", len(comp.Bones())),
		zap.Int("regions", len(comp.Regions())))

	return m, nil
}

// TotalNumPoints returns the number of mesh points.
func (m *Mesh) TotalNumPoints() int { return m.numPts }

// TotalNumIndices returns the number of mesh indices.
func (m *Mesh) TotalNumIndices() int { return len(m.indices) }

// Indices returns the triangle index buffer.
func (m *Mesh) Indices() []uint32 { return m.indices }

// RestPoints returns the rest positions, x y z per point.
func (m *Mesh) RestPoints() []float64 { return m.points }

// UVs returns the UV buffer. Regions with UV warping rewrite it in place.
func (m *Mesh) UVs() []float64 { return m.uvs }

// RenderPts returns the posed positions, x y z per point.
func (m *Mesh) RenderPts() []float64 { return m.renderPts }

// RenderColours returns r g b a per point.
func (m *Mesh) RenderColours() []float64 { return m.renderColours }

// Composition returns the bones and regions of the mesh.
func (m *Mesh) Composition() *skeleton.Composition { return m.composition }

// FillRenderColours sets every point to one colour.
func (m *Mesh) FillRenderColours(r, g, b, a float64) {
	for i := 0; i < len(m.renderColours); i += 4 {
		m.renderColours[i] = r
		m.renderColours[i+1] = g
		m.renderColours[i+2] = b
		m.renderColours[i+3] = a
	}
}

// ComputeBoundaryIndices finds the outline vertices: those referenced by
// few region triangles. Vertices no triangle references count as outline.
func (m *Mesh) ComputeBoundaryIndices() []int {
	freq := make(map[int]int)
	for _, r := range m.composition.Regions() {
		for _, idx := range r.Indices() {
			freq[int(idx)]++
		}
	}

	m.boundaryIndices = m.boundaryIndices[:0]
	for i := 0; i < m.numPts; i++ {
		if freq[i] <= boundaryMaxRefs {
			m.boundaryIndices = append(m.boundaryIndices, i)
		}
	}
	return m.boundaryIndices
}

// BoundaryIndices returns the last computed boundary vertices.
func (m *Mesh) BoundaryIndices() []int { return m.boundaryIndices }

// ComputeBoundaryMinMax updates the bounds from the posed boundary
// vertices, computing them on first use.
func (m *Mesh) ComputeBoundaryMinMax() Bounds {
	if len(m.boundaryIndices) == 0 {
		m.ComputeBoundaryIndices()
	}
	if len(m.boundaryIndices) == 0 {
		m.bounds = Bounds{}
		return m.bounds
	}

	b := Bounds{}
	b.Min[0], b.Min[1] = gomath.Inf(1), gomath.Inf(1)
	b.Max[0], b.Max[1] = gomath.Inf(-1), gomath.Inf(-1)
	for _, i := range m.boundaryIndices {
		x, y := m.renderPts[i*3], m.renderPts[i*3+1]
		b.Min[0] = gomath.Min(b.Min[0], x)
		b.Min[1] = gomath.Min(b.Min[1], y)
		b.Max[0] = gomath.Max(b.Max[0], x)
		b.Max[1] = gomath.Max(b.Max[1], y)
	}
	m.bounds = b
	return b
}

// Bounds returns the last computed bounds.
func (m *Mesh) Bounds() Bounds { return m.bounds }
