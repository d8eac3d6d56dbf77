package model

import (
	"errors"
	"fmt"
	gomath "math"
	"sort"
	"strconv"

	"gonum.org/v1/gonum/floats"

	"github.com/Faultbox/creature/internal/engine/cache"
	"github.com/Faultbox/creature/pkg/formats"
	"github.com/Faultbox/creature/pkg/math"
)

// Point cache load errors.
var (
	ErrCacheStartTime  = errors.New("point cache start time does not match clip")
	ErrCacheFrameCount = errors.New("point cache frame count does not match clip")
	ErrCacheFrameLen   = errors.New("point cache frame length does not match mesh")
)

// Animation is one clip: keyframe caches over an inclusive frame range
// plus an optional baked point cache.
type Animation struct {
	name               string
	startTime, endTime int

	boneCache         cache.BoneCache
	displacementCache cache.DisplacementCache
	uvWarpCache       cache.UVWarpCache

	cachePts     [][]float64
	fillCachePts [][]float64
}

// NewAnimation loads clip name of doc. The frame range comes from the
// bone table; all three caches share it.
func NewAnimation(doc *formats.Creature, name string) (*Animation, error) {
	clip, err := doc.Clip(name)
	if err != nil {
		return nil, err
	}
	start, end, err := clip.StartEndTimes()
	if err != nil {
		return nil, fmt.Errorf("animation %s: %w", name, err)
	}

	a := &Animation{name: name, startTime: start, endTime: end}
	a.boneCache.Init(start, end)
	a.displacementCache.Init(start, end)
	a.uvWarpCache.Init(start, end)

	if err := fillCache(&a.boneCache, clip.Bones, boneEntry); err != nil {
		return nil, fmt.Errorf("animation %s bones: %w", name, err)
	}
	if err := fillCache(&a.displacementCache, clip.Meshes, displacementEntry); err != nil {
		return nil, fmt.Errorf("animation %s meshes: %w", name, err)
	}
	if err := fillCache(&a.uvWarpCache, clip.UVSwaps, uvWarpEntry); err != nil {
		return nil, fmt.Errorf("animation %s uv_swaps: %w", name, err)
	}
	return a, nil
}

func boneEntry(f formats.BoneFrame) cache.BonePose {
	return cache.BonePose{WorldStart: formats.Point3(f.StartPt), WorldEnd: formats.Point3(f.EndPt)}
}

func displacementEntry(f formats.MeshFrame) cache.Displacement {
	var d cache.Displacement
	if f.UseLocalDisplacements {
		d.Local = formats.Vec2s(f.LocalDisplacements)
	}
	if f.UsePostDisplacements {
		d.Post = formats.Vec2s(f.PostDisplacements)
	}
	return d
}

func uvWarpEntry(f formats.UVSwapFrame) cache.UVWarp {
	def := cache.DefaultUVWarp()
	if !f.Enabled {
		return def
	}
	return cache.UVWarp{
		Enabled:      true,
		LocalOffset:  formats.Vec2(f.LocalOffset, def.LocalOffset),
		GlobalOffset: formats.Vec2(f.GlobalOffset, def.GlobalOffset),
		Scale:        formats.Vec2(f.Scale, def.Scale),
	}
}

// fillCache stores every frame of table and marks the cache ready.
// Entries within a frame are ordered by key.
func fillCache[F, V any](c *cache.Manager[V], table map[string]map[string]F, convert func(F) V) error {
	for key, frame := range table {
		t, err := strconv.Atoi(key)
		if err != nil {
			return fmt.Errorf("%w: %q", formats.ErrBadFrameKey, key)
		}
		names := make([]string, 0, len(frame))
		for n := range frame {
			names = append(names, n)
		}
		sort.Strings(names)

		entries := make([]cache.Entry[V], len(names))
		for i, n := range names {
			entries[i] = cache.Entry[V]{Key: n, Value: convert(frame[n])}
		}
		c.Set(t, entries)
	}
	c.MakeAllReady()
	return nil
}

// Name returns the clip name.
func (a *Animation) Name() string { return a.name }

// StartTime returns the first frame.
func (a *Animation) StartTime() int { return a.startTime }

// EndTime returns the last frame.
func (a *Animation) EndTime() int { return a.endTime }

// BoneCache returns the bone pose cache.
func (a *Animation) BoneCache() *cache.BoneCache { return &a.boneCache }

// DisplacementCache returns the region displacement cache.
func (a *Animation) DisplacementCache() *cache.DisplacementCache { return &a.displacementCache }

// UVWarpCache returns the region UV warp cache.
func (a *Animation) UVWarpCache() *cache.UVWarpCache { return &a.uvWarpCache }

// NumFrames returns the number of integer frames in the clip.
func (a *Animation) NumFrames() int { return a.endTime - a.startTime + 1 }

// CachePts returns the baked frames, one posed buffer per frame.
func (a *Animation) CachePts() [][]float64 { return a.cachePts }

// HasCachePts reports whether the clip has been baked.
func (a *Animation) HasCachePts() bool { return len(a.cachePts) > 0 }

// ClearCachePts drops the baked and partially baked frames.
func (a *Animation) ClearCachePts() {
	a.cachePts = nil
	a.fillCachePts = nil
}

// AppendCachePts adds one baked frame.
func (a *Animation) AppendCachePts(pts []float64) {
	a.cachePts = append(a.cachePts, pts)
}

// LoadCachePts replaces the bake with frames read from pc. Every frame
// must hold numPts points and the frames must cover the clip exactly.
func (a *Animation) LoadCachePts(pc *formats.PointCache, numPts int) error {
	if int(pc.StartTime) != a.startTime {
		return fmt.Errorf("%w: %s starts at %d, clip at %d", ErrCacheStartTime, a.name, pc.StartTime, a.startTime)
	}
	if len(pc.Frames) != a.NumFrames() {
		return fmt.Errorf("%w: %s has %d frames, clip has %d", ErrCacheFrameCount, a.name, len(pc.Frames), a.NumFrames())
	}
	for i, f := range pc.Frames {
		if len(f) != numPts*3 {
			return fmt.Errorf("%w: %s frame %d has %d values, expected %d", ErrCacheFrameLen, a.name, i, len(f), numPts*3)
		}
	}

	a.ClearCachePts()
	for _, f := range pc.Frames {
		a.AppendCachePts(f)
	}
	return nil
}

// FillCacheFrame stores one frame of an incremental bake. Once every
// frame has been stored the bake becomes the active point cache.
func (a *Animation) FillCacheFrame(t int, pts []float64) {
	if len(a.fillCachePts) != a.NumFrames() {
		a.fillCachePts = make([][]float64, a.NumFrames())
	}
	a.fillCachePts[a.IndexByTime(float64(t))] = pts
	a.verifyFillCache()
}

func (a *Animation) verifyFillCache() {
	for _, f := range a.fillCachePts {
		if f == nil {
			return
		}
	}
	a.cachePts = a.fillCachePts
	a.fillCachePts = nil
}

// IndexByTime maps a time to its baked frame, clamped.
func (a *Animation) IndexByTime(t float64) int {
	n := len(a.cachePts)
	if n == 0 {
		n = a.NumFrames()
	}
	return math.Clamp(int(gomath.Floor(t))-a.startTime, 0, n-1)
}

// PoseFromCachePts writes the baked pose at t into target, linearly
// blending the frames around t.
func (a *Animation) PoseFromCachePts(t float64, target []float64, numPts int) {
	if !a.HasCachePts() {
		return
	}
	n := numPts * 3
	floorIdx := a.IndexByTime(t)
	ceilIdx := math.Clamp(floorIdx+1, 0, len(a.cachePts)-1)
	ratio := t - gomath.Floor(t)
	if raw := int(gomath.Floor(t)) - a.startTime; raw < 0 || raw >= len(a.cachePts)-1 {
		ceilIdx = floorIdx
		ratio = 0
	}

	dst := target[:n]
	floats.ScaleTo(dst, 1-ratio, a.cachePts[floorIdx][:n])
	floats.AddScaled(dst, ratio, a.cachePts[ceilIdx][:n])
}
