package cache

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
	"go.uber.org/zap"

	"github.com/Faultbox/creature/internal/engine/skeleton"
	"github.com/Faultbox/creature/internal/logger"
	"github.com/Faultbox/creature/pkg/math"
)

// BonePose is the posed world segment of a bone.
type BonePose struct {
	WorldStart mgl64.Vec3
	WorldEnd   mgl64.Vec3
}

// Displacement holds per-vertex offsets of a region. An empty slice
// means the clip carries no offsets of that kind for the frame.
type Displacement struct {
	Local []mgl64.Vec2
	Post  []mgl64.Vec2
}

// UVWarp holds the UV transform of a region.
type UVWarp struct {
	LocalOffset  mgl64.Vec2
	GlobalOffset mgl64.Vec2
	Scale        mgl64.Vec2
	Enabled      bool
}

// DefaultUVWarp is the value of a region with no warp data.
func DefaultUVWarp() UVWarp {
	return UVWarp{Scale: mgl64.Vec2{-1, -1}}
}

type (
	BoneCache         = Manager[BonePose]
	DisplacementCache = Manager[Displacement]
	UVWarpCache       = Manager[UVWarp]
)

// BoneApplier writes interpolated bone segments into bones.
func BoneApplier(bones map[string]*skeleton.Bone) Applier[BonePose] {
	return func(key string, base, end BonePose, ratio float64) error {
		b, ok := bones[key]
		if !ok {
			return fmt.Errorf("%w: bone %s", ErrUnknownKey, key)
		}
		b.SetWorldStartPt(math.LerpVec3(base.WorldStart, end.WorldStart, ratio))
		b.SetWorldEndPt(math.LerpVec3(base.WorldEnd, end.WorldEnd, ratio))
		return nil
	}
}

// DisplacementApplier writes interpolated offsets into the regions that
// have displacements enabled. Offsets whose length disagrees with the
// region reset it to zero and warn once per region.
func DisplacementApplier(regions map[string]*skeleton.Region) Applier[Displacement] {
	warned := make(map[string]bool)

	write := func(r *skeleton.Region, kind string, dst, base, end []mgl64.Vec2, ratio float64) {
		if len(base) == len(dst) && len(end) == len(dst) {
			for i := range dst {
				dst[i] = math.LerpVec2(base[i], end[i], ratio)
			}
			return
		}
		clear(dst)
		if len(base) > 0 && !warned[r.Name()+kind] {
			warned[r.Name()+kind] = true
			logger.Log.Named("cache").Warn("displacement length mismatch, resetting to zero",
				zap.String("region", r.Name()),
				zap.String("kind", kind),
				zap.Int("cached", len(base)),
				zap.Int("points", len(dst)))
		}
	}

	return func(key string, base, end Displacement, ratio float64) error {
		r, ok := regions[key]
		if !ok {
			return fmt.Errorf("%w: region %s", ErrUnknownKey, key)
		}
		if r.UseLocalDisplacements() {
			write(r, "local", r.LocalDisplacements(), base.Local, end.Local, ratio)
		}
		if r.UsePostDisplacements() {
			write(r, "post", r.PostDisplacements(), base.Post, end.Post, ratio)
		}
		return nil
	}
}

// UVWarpApplier writes UV transforms into regions. The enabled flag
// follows the base slot; offsets and scale interpolate only when both
// slots are enabled.
func UVWarpApplier(regions map[string]*skeleton.Region) Applier[UVWarp] {
	return func(key string, base, end UVWarp, ratio float64) error {
		r, ok := regions[key]
		if !ok {
			return fmt.Errorf("%w: region %s", ErrUnknownKey, key)
		}
		r.SetUseUvWarp(base.Enabled)
		if !base.Enabled {
			return nil
		}
		if !end.Enabled {
			end = base
		}
		r.SetUvWarpLocalOffset(math.LerpVec2(base.LocalOffset, end.LocalOffset, ratio))
		r.SetUvWarpGlobalOffset(math.LerpVec2(base.GlobalOffset, end.GlobalOffset, ratio))
		r.SetUvWarpScale(math.LerpVec2(base.Scale, end.Scale, ratio))
		return nil
	}
}
