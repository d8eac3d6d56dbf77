// Package animation drives playback of creature clips: run time, looping,
// custom ranges, two-clip blending and point-cache baking.
package animation

import (
	"errors"
	"fmt"
	"sort"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/floats"

	"github.com/Faultbox/creature/internal/engine/cache"
	"github.com/Faultbox/creature/internal/engine/model"
	"github.com/Faultbox/creature/internal/engine/skeleton"
	"github.com/Faultbox/creature/internal/logger"
	"github.com/Faultbox/creature/pkg/formats"
)

// ErrUnknownAnimation is returned for clip names the manager does not hold.
var ErrUnknownAnimation = errors.New("unknown animation")

// BonesOverrideFunc may rewrite bone world points after the bone cache
// is applied and before transforms are computed.
type BonesOverrideFunc func(bones map[string]*skeleton.Bone)

// Options configures a Manager.
type Options struct {
	TimeScale   float64
	Loop        bool
	RegionZStep float64
}

// DefaultOptions returns 30 frames per second, looping, and a 0.001 z
// step between regions.
func DefaultOptions() Options {
	return Options{
		TimeScale:   30,
		Loop:        true,
		RegionZStep: 0.001,
	}
}

// Manager plays clips on one mesh.
type Manager struct {
	target     *model.Mesh
	animations map[string]*model.Animation
	activeName string

	isPlaying   bool
	runTime     float64
	timeScale   float64
	shouldLoop  bool
	regionZStep float64

	useCustomTimeRange bool
	customStartTime    float64
	customEndTime      float64

	doBlending     bool
	blendingFactor float64
	blendNames     [2]string
	blendPts       [2][]float64

	bonesOverride BonesOverrideFunc

	applyBones        cache.Applier[cache.BonePose]
	applyDisplacement cache.Applier[cache.Displacement]
	applyUVWarp       cache.Applier[cache.UVWarp]

	log *zap.Logger
}

// NewManager creates a manager for target.
func NewManager(target *model.Mesh, opts Options) *Manager {
	comp := target.Composition()
	return &Manager{
		target:            target,
		animations:        make(map[string]*model.Animation),
		timeScale:         opts.TimeScale,
		shouldLoop:        opts.Loop,
		regionZStep:       opts.RegionZStep,
		applyBones:        cache.BoneApplier(comp.BonesMap()),
		applyDisplacement: cache.DisplacementApplier(comp.RegionsMap()),
		applyUVWarp:       cache.UVWarpApplier(comp.RegionsMap()),
		log:               logger.Log.Named("animation"),
	}
}

// Target returns the mesh being animated.
func (m *Manager) Target() *model.Mesh { return m.target }

// CreateAnimation loads clip name from doc and registers it.
func (m *Manager) CreateAnimation(doc *formats.Creature, name string) error {
	a, err := model.NewAnimation(doc, name)
	if err != nil {
		return err
	}
	m.AddAnimation(a)
	return nil
}

// CreateAllAnimations loads every clip of doc and activates the first
// one by name.
func (m *Manager) CreateAllAnimations(doc *formats.Creature) error {
	names := doc.AnimationNames()
	for _, name := range names {
		if err := m.CreateAnimation(doc, name); err != nil {
			return err
		}
	}
	if len(names) > 0 {
		m.SetActiveAnimationName(names[0], false)
	}
	return nil
}

// AddAnimation registers a, replacing any clip of the same name.
func (m *Manager) AddAnimation(a *model.Animation) {
	m.animations[a.Name()] = a
}

// Animation returns the clip called name.
func (m *Manager) Animation(name string) (*model.Animation, bool) {
	a, ok := m.animations[name]
	return a, ok
}

// AnimationNames returns the registered clip names, sorted.
func (m *Manager) AnimationNames() []string {
	names := make([]string, 0, len(m.animations))
	for name := range m.animations {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (m *Manager) animation(name string) (*model.Animation, error) {
	a, ok := m.animations[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownAnimation, name)
	}
	return a, nil
}

// ActiveAnimationName returns the playing clip name.
func (m *Manager) ActiveAnimationName() string { return m.activeName }

// SetActiveAnimationName switches to clip name, rewinds to its start and
// sets each region's displacement and UV warp flags from the clip's
// first frame. It reports false for an unknown clip, or when the clip is
// already active and checkAlreadyActive is set.
func (m *Manager) SetActiveAnimationName(name string, checkAlreadyActive bool) bool {
	if checkAlreadyActive && m.activeName == name {
		return false
	}
	a, ok := m.animations[name]
	if !ok {
		m.log.Warn("cannot activate unknown animation", zap.String("animation", name))
		return false
	}

	m.activeName = name
	m.runTime = float64(a.StartTime())

	for _, r := range m.target.Composition().Regions() {
		disp, _ := a.DisplacementCache().Find(0, r.Name())
		r.SetUseLocalDisplacements(len(disp.Local) > 0)
		r.SetUsePostDisplacements(len(disp.Post) > 0)

		uv, ok := a.UVWarpCache().Find(0, r.Name())
		r.SetUseUvWarp(ok && uv.Enabled)
	}

	m.log.Debug("active animation changed",
		zap.String("animation", name),
		zap.Int("start", a.StartTime()),
		zap.Int("end", a.EndTime()))
	return true
}

// MakePointCache bakes clip name at every integer frame. Clips that are
// already baked are left as they are.
func (m *Manager) MakePointCache(name string) error {
	a, err := m.animation(name)
	if err != nil {
		return err
	}
	if a.HasCachePts() {
		return nil
	}

	stored := m.runTime
	defer func() { m.runTime = stored }()

	n := m.target.TotalNumPoints() * 3
	for t := a.StartTime(); t <= a.EndTime(); t++ {
		m.runTime = float64(t)
		pts := make([]float64, n)
		if err := m.PoseCreature(name, pts); err != nil {
			a.ClearCachePts()
			return err
		}
		a.AppendCachePts(pts)
	}

	m.log.Debug("point cache built", zap.String("animation", name), zap.Int("frames", len(a.CachePts())))
	return nil
}

// LoadPointCache installs a bake read from disk on the clip it names.
func (m *Manager) LoadPointCache(pc *formats.PointCache) error {
	a, err := m.animation(pc.Animation)
	if err != nil {
		return err
	}
	if err := a.LoadCachePts(pc, m.target.TotalNumPoints()); err != nil {
		return err
	}
	m.log.Debug("point cache loaded", zap.String("animation", pc.Animation), zap.Int("frames", len(pc.Frames)))
	return nil
}

// FillSinglePointCacheFrame bakes one frame of clip name. The bake is
// used once every frame of the clip has been filled.
func (m *Manager) FillSinglePointCacheFrame(name string, t int) error {
	a, err := m.animation(name)
	if err != nil {
		return err
	}

	stored := m.runTime
	defer func() { m.runTime = stored }()

	m.runTime = float64(t)
	pts := make([]float64, m.target.TotalNumPoints()*3)
	if err := m.PoseCreature(name, pts); err != nil {
		return err
	}
	a.FillCacheFrame(t, pts)
	return nil
}

// IsPlaying reports whether Update advances time.
func (m *Manager) IsPlaying() bool { return m.isPlaying }

// SetIsPlaying starts or pauses playback.
func (m *Manager) SetIsPlaying(flag bool) { m.isPlaying = flag }

// ShouldLoop reports whether playback wraps at the range ends.
func (m *Manager) ShouldLoop() bool { return m.shouldLoop }

// SetShouldLoop sets wrap or clamp at the range ends.
func (m *Manager) SetShouldLoop(flag bool) { m.shouldLoop = flag }

// TimeScale returns frames advanced per second of Update time.
func (m *Manager) TimeScale() float64 { return m.timeScale }

// SetTimeScale sets frames advanced per second of Update time.
func (m *Manager) SetTimeScale(scale float64) { m.timeScale = scale }

// SetUseCustomTimeRange limits playback to the custom range.
func (m *Manager) SetUseCustomTimeRange(flag bool) { m.useCustomTimeRange = flag }

// SetCustomTimeRange sets the custom playback range.
func (m *Manager) SetCustomTimeRange(start, end float64) {
	m.customStartTime = start
	m.customEndTime = end
}

// ResetToStartTimes rewinds to the active clip's start.
func (m *Manager) ResetToStartTimes() {
	if a, ok := m.animations[m.activeName]; ok {
		m.runTime = float64(a.StartTime())
	}
}

// RunTime returns the current time in frames.
func (m *Manager) RunTime() float64 { return m.runTime }

// SetRunTime jumps to t, wrapped or clamped to the playback range.
func (m *Manager) SetRunTime(t float64) {
	m.runTime = t
	m.correctTime()
}

// IncreRunTime advances by delta frames, wrapped or clamped.
func (m *Manager) IncreRunTime(delta float64) {
	m.runTime += delta
	m.correctTime()
}

func (m *Manager) playRange() (float64, float64, bool) {
	if m.useCustomTimeRange {
		return m.customStartTime, m.customEndTime, true
	}
	a, ok := m.animations[m.activeName]
	if !ok {
		return 0, 0, false
	}
	return float64(a.StartTime()), float64(a.EndTime()), true
}

func (m *Manager) correctTime() {
	start, end, ok := m.playRange()
	if !ok {
		return
	}
	if m.runTime > end {
		if m.shouldLoop {
			m.runTime = start
		} else {
			m.runTime = end
		}
	} else if m.runTime < start {
		if m.shouldLoop {
			m.runTime = end
		} else {
			m.runTime = start
		}
	}
}

// Update advances playback by dt seconds and poses the mesh. It does
// nothing while paused.
func (m *Manager) Update(dt float64) error {
	if !m.isPlaying {
		return nil
	}
	m.IncreRunTime(dt * m.timeScale)
	return m.RunCreature()
}

// RunAtTime jumps to t and poses the mesh, whether or not it is playing.
func (m *Manager) RunAtTime(t float64) error {
	m.SetRunTime(t)
	return m.RunCreature()
}

// RunCreature poses the mesh at the current time, blending two clips
// when blending is on.
func (m *Manager) RunCreature() error {
	numPts := m.target.TotalNumPoints()
	render := m.target.RenderPts()

	if !m.doBlending {
		return m.poseInto(m.activeName, render, numPts)
	}

	m.allocBlendPts()
	for i, name := range m.blendNames {
		if err := m.poseInto(name, m.blendPts[i], numPts); err != nil {
			return err
		}
	}
	floats.ScaleTo(render, 1-m.blendingFactor, m.blendPts[0])
	floats.AddScaled(render, m.blendingFactor, m.blendPts[1])
	return nil
}

// poseInto poses clip name into target, from its point cache when baked.
func (m *Manager) poseInto(name string, target []float64, numPts int) error {
	a, err := m.animation(name)
	if err != nil {
		return err
	}
	if a.HasCachePts() {
		a.PoseFromCachePts(m.runTime, target, numPts)
		return nil
	}
	return m.PoseCreature(name, target)
}

func (m *Manager) allocBlendPts() {
	n := m.target.TotalNumPoints() * 3
	for i := range m.blendPts {
		if len(m.blendPts[i]) != n {
			m.blendPts[i] = make([]float64, n)
		}
	}
}

// Blending reports whether two clips are blended.
func (m *Manager) Blending() bool { return m.doBlending }

// SetBlending turns two-clip blending on or off.
func (m *Manager) SetBlending(flag bool) {
	m.doBlending = flag
	if flag {
		m.allocBlendPts()
	}
}

// SetBlendingAnimations picks the two clips to blend.
func (m *Manager) SetBlendingAnimations(name1, name2 string) {
	m.blendNames = [2]string{name1, name2}
}

// BlendingFactor returns the weight of the second clip.
func (m *Manager) BlendingFactor() float64 { return m.blendingFactor }

// SetBlendingFactor sets the weight of the second clip, in [0, 1].
func (m *Manager) SetBlendingFactor(f float64) { m.blendingFactor = f }

// SetBonesOverride installs fn to run after the bone cache each pose.
func (m *Manager) SetBonesOverride(fn BonesOverrideFunc) { m.bonesOverride = fn }

// PoseCreature poses clip name at the current run time into target:
// caches are applied, transforms recomputed, every region skinned and
// each region pushed back by the z step in draw order.
func (m *Manager) PoseCreature(name string, target []float64) error {
	a, err := m.animation(name)
	if err != nil {
		return err
	}
	comp := m.target.Composition()

	if err := a.BoneCache().RetrieveValuesAtTime(m.runTime, m.applyBones); err != nil {
		return fmt.Errorf("animation %s: %w", name, err)
	}
	if m.bonesOverride != nil {
		m.bonesOverride(comp.BonesMap())
	}
	if err := a.DisplacementCache().RetrieveValuesAtTime(m.runTime, m.applyDisplacement); err != nil {
		return fmt.Errorf("animation %s: %w", name, err)
	}
	if err := a.UVWarpCache().RetrieveValuesAtTime(m.runTime, m.applyUVWarp); err != nil {
		return fmt.Errorf("animation %s: %w", name, err)
	}

	comp.UpdateAllTransforms(false)

	for j, r := range comp.Regions() {
		r.PoseFinalPts(target, r.StartPtIndex()*3)

		z := -float64(j) * m.regionZStep
		for k := r.StartPtIndex(); k <= r.EndPtIndex(); k++ {
			target[k*3+2] = z
		}
	}
	return nil
}
