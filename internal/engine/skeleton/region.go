package skeleton

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/Faultbox/creature/pkg/math"
)

// DefaultWeightCutoff is the weight a bone must exceed to influence a
// vertex after InitFastNormalWeightMap.
const DefaultWeightCutoff = 0.05

// Region is a contiguous slice of the mesh that is skinned as a unit.
// Point, index and UV buffers are shared with the owning mesh; the
// region only addresses its own window of them.
type Region struct {
	name  string
	tagID int

	storeIndices []uint32
	storeRestPts []float64
	storeUVs     []float64

	startPtIndex, endPtIndex int
	startIndex, endIndex     int

	useLocalDisplacements bool
	usePostDisplacements  bool
	localDisplacements    []mgl64.Vec2
	postDisplacements     []mgl64.Vec2

	useUvWarp          bool
	uvWarpLocalOffset  mgl64.Vec2
	uvWarpGlobalOffset mgl64.Vec2
	uvWarpScale        mgl64.Vec2
	uvWarpRefUVs       []mgl64.Vec2

	weights map[string][]float64

	fastBones     []*Bone
	fastWeights   [][]float64
	relevantBones [][]int

	mainBoneKey string
	mainBone    *Bone
}

// NewRegion creates a region over the inclusive point range
// [startPt, endPt] and index range [startIndex, endIndex] of the shared
// buffers. The current UVs of the range become the warp reference.
func NewRegion(name string, indices []uint32, restPts, uvs []float64,
	startPt, endPt, startIndex, endIndex int) *Region {
	r := &Region{
		name:         name,
		tagID:        -1,
		storeIndices: indices,
		storeRestPts: restPts,
		storeUVs:     uvs,
		startPtIndex: startPt,
		endPtIndex:   endPt,
		startIndex:   startIndex,
		endIndex:     endIndex,
		uvWarpScale:  mgl64.Vec2{1, 1},
		weights:      make(map[string][]float64),
	}

	r.uvWarpRefUVs = make([]mgl64.Vec2, r.NumPts())
	for i := range r.uvWarpRefUVs {
		off := (startPt + i) * 2
		r.uvWarpRefUVs[i] = mgl64.Vec2{uvs[off], uvs[off+1]}
	}
	return r
}

// Name returns the region name.
func (r *Region) Name() string { return r.name }

// TagID returns the numeric id of the region, -1 when unset.
func (r *Region) TagID() int { return r.tagID }

// SetTagID sets the numeric id.
func (r *Region) SetTagID(id int) { r.tagID = id }

// StartPtIndex returns the first mesh point owned by the region.
func (r *Region) StartPtIndex() int { return r.startPtIndex }

// EndPtIndex returns the last mesh point owned by the region.
func (r *Region) EndPtIndex() int { return r.endPtIndex }

// StartIndex returns the first mesh index owned by the region.
func (r *Region) StartIndex() int { return r.startIndex }

// EndIndex returns the last mesh index owned by the region.
func (r *Region) EndIndex() int { return r.endIndex }

// NumPts returns the number of points in the region.
func (r *Region) NumPts() int { return r.endPtIndex - r.startPtIndex + 1 }

// NumIndices returns the number of indices in the region.
func (r *Region) NumIndices() int { return r.endIndex - r.startIndex + 1 }

// Indices returns the region's window of the shared index buffer.
func (r *Region) Indices() []uint32 {
	return r.storeIndices[r.startIndex : r.endIndex+1]
}

// RestLocalPt returns the rest position of the i-th region point.
func (r *Region) RestLocalPt(i int) mgl64.Vec3 {
	off := (r.startPtIndex + i) * 3
	return mgl64.Vec3{r.storeRestPts[off], r.storeRestPts[off+1], r.storeRestPts[off+2]}
}

// LocalIndex converts the i-th region index into a region-local point index.
func (r *Region) LocalIndex(i int) int {
	return int(r.storeIndices[r.startIndex+i]) - r.startPtIndex
}

// Weights returns the bone key to per-vertex weight table.
func (r *Region) Weights() map[string][]float64 { return r.weights }

// SetWeights replaces the weight table for one bone.
func (r *Region) SetWeights(boneKey string, w []float64) {
	r.weights[boneKey] = w
}

// InitFastNormalWeightMap flattens the weight table against bones,
// keeping for each vertex only the bones whose weight exceeds cutoff.
// Bones missing from the table contribute nothing.
func (r *Region) InitFastNormalWeightMap(bones []*Bone, cutoff float64) error {
	n := r.NumPts()
	known := make(map[string]bool, len(bones))

	r.fastBones = r.fastBones[:0]
	r.fastWeights = r.fastWeights[:0]
	for _, b := range bones {
		known[b.Key()] = true
		w, ok := r.weights[b.Key()]
		if !ok {
			continue
		}
		if len(w) != n {
			return fmt.Errorf("%w: region %s bone %s has %d weights for %d points", ErrWeightLength, r.name, b.Key(), len(w), n)
		}
		r.fastBones = append(r.fastBones, b)
		r.fastWeights = append(r.fastWeights, w)
	}
	for key := range r.weights {
		if !known[key] {
			return fmt.Errorf("%w: region %s weights bone %s", ErrUnknownBone, r.name, key)
		}
	}

	r.relevantBones = make([][]int, n)
	for i := 0; i < n; i++ {
		var relevant []int
		for j, w := range r.fastWeights {
			if w[i] > cutoff {
				relevant = append(relevant, j)
			}
		}
		r.relevantBones[i] = relevant
	}
	return nil
}

// RelevantBones returns the bones that influence vertex i.
func (r *Region) RelevantBones(i int) []*Bone {
	idx := r.relevantBones[i]
	bones := make([]*Bone, len(idx))
	for k, j := range idx {
		bones[k] = r.fastBones[j]
	}
	return bones
}

// PoseFinalPts skins every region point into output starting at
// outputOffset (in floats). Each point is written as x, y, z.
func (r *Region) PoseFinalPts(output []float64, outputOffset int) {
	out := outputOffset
	for i := 0; i < r.NumPts(); i++ {
		p := r.RestLocalPt(i)
		if r.useLocalDisplacements {
			d := r.localDisplacements[i]
			p[0] += d[0]
			p[1] += d[1]
		}

		relevant := r.relevantBones[i]
		if len(relevant) > 0 {
			var accum math.DualQuat
			for _, j := range relevant {
				w := r.fastWeights[j][i]
				accum.Accumulate(r.fastBones[j].worldDQ, w, w)
			}
			accum.Normalize()
			p = accum.TransformPoint(p)
		}

		if r.usePostDisplacements {
			d := r.postDisplacements[i]
			p[0] += d[0]
			p[1] += d[1]
		}

		output[out] = p[0]
		output[out+1] = p[1]
		output[out+2] = p[2]
		out += 3
	}

	if r.useUvWarp {
		r.RunUvWarp()
	}
}

// UseLocalDisplacements reports whether pre-skinning offsets are applied.
func (r *Region) UseLocalDisplacements() bool { return r.useLocalDisplacements }

// UsePostDisplacements reports whether post-skinning offsets are applied.
func (r *Region) UsePostDisplacements() bool { return r.usePostDisplacements }

// SetUseLocalDisplacements toggles pre-skinning offsets, allocating them
// on first use.
func (r *Region) SetUseLocalDisplacements(flag bool) {
	r.useLocalDisplacements = flag
	if flag && len(r.localDisplacements) != r.NumPts() {
		r.localDisplacements = make([]mgl64.Vec2, r.NumPts())
	}
}

// SetUsePostDisplacements toggles post-skinning offsets, allocating them
// on first use.
func (r *Region) SetUsePostDisplacements(flag bool) {
	r.usePostDisplacements = flag
	if flag && len(r.postDisplacements) != r.NumPts() {
		r.postDisplacements = make([]mgl64.Vec2, r.NumPts())
	}
}

// LocalDisplacements returns the mutable pre-skinning offsets.
func (r *Region) LocalDisplacements() []mgl64.Vec2 { return r.localDisplacements }

// PostDisplacements returns the mutable post-skinning offsets.
func (r *Region) PostDisplacements() []mgl64.Vec2 { return r.postDisplacements }

// ClearLocalDisplacements zeroes the pre-skinning offsets.
func (r *Region) ClearLocalDisplacements() {
	clear(r.localDisplacements)
}

// ClearPostDisplacements zeroes the post-skinning offsets.
func (r *Region) ClearPostDisplacements() {
	clear(r.postDisplacements)
}

// UseUvWarp reports whether UV warping is enabled.
func (r *Region) UseUvWarp() bool { return r.useUvWarp }

// SetUseUvWarp toggles UV warping. Disabling restores the reference UVs.
func (r *Region) SetUseUvWarp(flag bool) {
	if r.useUvWarp && !flag {
		r.RestoreRefUV()
	}
	r.useUvWarp = flag
}

// UvWarpLocalOffset returns the local UV offset.
func (r *Region) UvWarpLocalOffset() mgl64.Vec2 { return r.uvWarpLocalOffset }

// UvWarpGlobalOffset returns the global UV offset.
func (r *Region) UvWarpGlobalOffset() mgl64.Vec2 { return r.uvWarpGlobalOffset }

// UvWarpScale returns the UV scale.
func (r *Region) UvWarpScale() mgl64.Vec2 { return r.uvWarpScale }

// SetUvWarpLocalOffset sets the local UV offset.
func (r *Region) SetUvWarpLocalOffset(v mgl64.Vec2) { r.uvWarpLocalOffset = v }

// SetUvWarpGlobalOffset sets the global UV offset.
func (r *Region) SetUvWarpGlobalOffset(v mgl64.Vec2) { r.uvWarpGlobalOffset = v }

// SetUvWarpScale sets the UV scale.
func (r *Region) SetUvWarpScale(v mgl64.Vec2) { r.uvWarpScale = v }

// RunUvWarp rewrites the region's UVs as
// (ref - localOffset) * scale + globalOffset.
func (r *Region) RunUvWarp() {
	off := r.startPtIndex * 2
	for _, ref := range r.uvWarpRefUVs {
		r.storeUVs[off] = (ref[0]-r.uvWarpLocalOffset[0])*r.uvWarpScale[0] + r.uvWarpGlobalOffset[0]
		r.storeUVs[off+1] = (ref[1]-r.uvWarpLocalOffset[1])*r.uvWarpScale[1] + r.uvWarpGlobalOffset[1]
		off += 2
	}
}

// RestoreRefUV writes the reference UVs back into the shared buffer.
func (r *Region) RestoreRefUV() {
	off := r.startPtIndex * 2
	for _, ref := range r.uvWarpRefUVs {
		r.storeUVs[off] = ref[0]
		r.storeUVs[off+1] = ref[1]
		off += 2
	}
}

// SetMainBoneKey records the bone that owns the region.
func (r *Region) SetMainBoneKey(key string) { r.mainBoneKey = key }

// MainBone returns the resolved owning bone, or nil.
func (r *Region) MainBone() *Bone { return r.mainBone }

// DetermineMainBone resolves the main bone key against root. When no key
// is set, the bone with the largest summed weight wins.
func (r *Region) DetermineMainBone(root *Bone) {
	if r.mainBoneKey != "" {
		r.mainBone = root.ChildByKey(r.mainBoneKey)
		return
	}

	best := -1.0
	for key, w := range r.weights {
		sum := 0.0
		for _, v := range w {
			sum += v
		}
		if sum > best || (sum == best && key < r.mainBoneKey) {
			best = sum
			r.mainBoneKey = key
		}
	}
	if r.mainBoneKey != "" {
		r.mainBone = root.ChildByKey(r.mainBoneKey)
	}
}
