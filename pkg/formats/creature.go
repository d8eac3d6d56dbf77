package formats

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"strconv"

	"github.com/go-gl/mathgl/mgl64"
)

// Creature document errors.
var (
	ErrMissingMesh       = errors.New("creature document has no mesh points")
	ErrMalformedPoints   = errors.New("mesh points must be x,y pairs")
	ErrMalformedUVs      = errors.New("mesh uvs must be one u,v pair per point")
	ErrIndexOutOfRange   = errors.New("mesh index out of range")
	ErrRegionRange       = errors.New("region range outside mesh")
	ErrWeightLength      = errors.New("region weight count does not match region points")
	ErrUnknownWeightBone = errors.New("region weights reference unknown bone")
	ErrNoRootBone        = errors.New("skeleton has no root bone")
	ErrMultipleRootBones = errors.New("skeleton has more than one root bone")
	ErrDuplicateBoneID   = errors.New("duplicate bone id")
	ErrDanglingChild     = errors.New("bone child id does not exist")
	ErrMultipleParents   = errors.New("bone has more than one parent")
	ErrBoneCycle         = errors.New("skeleton contains a cycle")
	ErrMalformedMatrix   = errors.New("restParentMat must have 16 values")
	ErrMalformedVector   = errors.New("vector must have at least 2 values")
	ErrBadFrameKey       = errors.New("animation frame key is not an integer")
	ErrUnknownAnimation  = errors.New("unknown animation")
)

// Creature is a parsed creature JSON document.
type Creature struct {
	Mesh      Mesh                    `json:"mesh"`
	Skeleton  map[string]SkeletonBone `json:"skeleton"`
	Animation map[string]Clip         `json:"animation"`

	root string
}

// Mesh holds the flat mesh buffers. Points are 2D pairs.
type Mesh struct {
	Points  []float64             `json:"points"`
	Indices []uint32              `json:"indices"`
	UVs     []float64             `json:"uvs"`
	Regions map[string]MeshRegion `json:"regions"`
}

// MeshRegion addresses an inclusive point range and index range of the
// mesh. Weights map bone names to one weight per region point.
type MeshRegion struct {
	ID           int                  `json:"id"`
	StartPtIndex int                  `json:"start_pt_index"`
	EndPtIndex   int                  `json:"end_pt_index"`
	StartIndex   int                  `json:"start_index"`
	EndIndex     int                  `json:"end_index"`
	Weights      map[string][]float64 `json:"weights"`
}

// SkeletonBone is one bone record. Children are bone ids.
type SkeletonBone struct {
	ID               int       `json:"id"`
	RestParentMat    []float64 `json:"restParentMat"`
	LocalRestStartPt []float64 `json:"localRestStartPt"`
	LocalRestEndPt   []float64 `json:"localRestEndPt"`
	Children         []int     `json:"children"`
}

// Clip is one animation. Each table maps a frame number (as a string)
// to per-bone or per-region values.
type Clip struct {
	Bones   map[string]map[string]BoneFrame   `json:"bones"`
	Meshes  map[string]map[string]MeshFrame   `json:"meshes"`
	UVSwaps map[string]map[string]UVSwapFrame `json:"uv_swaps"`
}

// BoneFrame is the posed world segment of a bone.
type BoneFrame struct {
	StartPt []float64 `json:"start_pt"`
	EndPt   []float64 `json:"end_pt"`
}

// MeshFrame holds the displacements of a region. Displacements are
// flat x,y pairs.
type MeshFrame struct {
	UseLocalDisplacements bool      `json:"use_local_displacements"`
	UsePostDisplacements  bool      `json:"use_post_displacements"`
	LocalDisplacements    []float64 `json:"local_displacements"`
	PostDisplacements     []float64 `json:"post_displacements"`
}

// UVSwapFrame holds the UV warp of a region.
type UVSwapFrame struct {
	Enabled      bool      `json:"enabled"`
	LocalOffset  []float64 `json:"local_offset"`
	GlobalOffset []float64 `json:"global_offset"`
	Scale        []float64 `json:"scale"`
}

// ParseCreature parses and validates a creature JSON document.
func ParseCreature(data []byte) (*Creature, error) {
	var c Creature
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("decoding creature JSON: %w", err)
	}
	if err := c.validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// ParseCreatureFile reads and parses a creature JSON file.
func ParseCreatureFile(path string) (*Creature, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading creature file: %w", err)
	}
	return ParseCreature(data)
}

// NumPoints returns the number of mesh points.
func (c *Creature) NumPoints() int { return len(c.Mesh.Points) / 2 }

// RootBone returns the name of the bone that is nobody's child.
func (c *Creature) RootBone() string { return c.root }

// BoneNames returns the skeleton bone names ordered by id.
func (c *Creature) BoneNames() []string {
	names := make([]string, 0, len(c.Skeleton))
	for name := range c.Skeleton {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		return c.Skeleton[names[i]].ID < c.Skeleton[names[j]].ID
	})
	return names
}

// BoneNameByID returns the name of the bone with id.
func (c *Creature) BoneNameByID(id int) (string, bool) {
	for name, b := range c.Skeleton {
		if b.ID == id {
			return name, true
		}
	}
	return "", false
}

// RegionNames returns the region names in mesh order (by first point).
func (c *Creature) RegionNames() []string {
	names := make([]string, 0, len(c.Mesh.Regions))
	for name := range c.Mesh.Regions {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		a, b := c.Mesh.Regions[names[i]], c.Mesh.Regions[names[j]]
		if a.StartPtIndex != b.StartPtIndex {
			return a.StartPtIndex < b.StartPtIndex
		}
		return names[i] < names[j]
	})
	return names
}

// AnimationNames returns the clip names sorted alphabetically.
func (c *Creature) AnimationNames() []string {
	names := make([]string, 0, len(c.Animation))
	for name := range c.Animation {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Clip returns the clip called name.
func (c *Creature) Clip(name string) (Clip, error) {
	clip, ok := c.Animation[name]
	if !ok {
		return Clip{}, fmt.Errorf("%w: %s", ErrUnknownAnimation, name)
	}
	return clip, nil
}

// StartEndTimes returns the first and last frame of the bone table.
// An empty table spans [0, 0].
func (c Clip) StartEndTimes() (int, int, error) {
	frames, err := FrameNumbers(c.Bones)
	if err != nil || len(frames) == 0 {
		return 0, 0, err
	}
	return frames[0], frames[len(frames)-1], nil
}

// FrameNumbers returns the frame keys of a clip table in ascending order.
func FrameNumbers[T any](table map[string]T) ([]int, error) {
	frames := make([]int, 0, len(table))
	for key := range table {
		n, err := strconv.Atoi(key)
		if err != nil {
			return nil, fmt.Errorf("%w: %q", ErrBadFrameKey, key)
		}
		frames = append(frames, n)
	}
	sort.Ints(frames)
	return frames, nil
}

// Point3 widens a 2D document vector to 3D with z = 0.
func Point3(v []float64) mgl64.Vec3 {
	if len(v) < 2 {
		return mgl64.Vec3{}
	}
	return mgl64.Vec3{v[0], v[1], 0}
}

// Vec2 reads a 2D document vector, or def when v is too short.
func Vec2(v []float64, def mgl64.Vec2) mgl64.Vec2 {
	if len(v) < 2 {
		return def
	}
	return mgl64.Vec2{v[0], v[1]}
}

// Vec2s converts flat x,y pairs into vectors.
func Vec2s(flat []float64) []mgl64.Vec2 {
	if len(flat) == 0 {
		return nil
	}
	out := make([]mgl64.Vec2, len(flat)/2)
	for i := range out {
		out[i] = mgl64.Vec2{flat[i*2], flat[i*2+1]}
	}
	return out
}

// Mat4 converts a 16 value column-major array.
func Mat4(v []float64) mgl64.Mat4 {
	var m mgl64.Mat4
	copy(m[:], v)
	return m
}

func (c *Creature) validate() error {
	if err := c.validateMesh(); err != nil {
		return err
	}
	if err := c.validateSkeleton(); err != nil {
		return err
	}
	if err := c.validateRegions(); err != nil {
		return err
	}
	return c.validateAnimations()
}

func (c *Creature) validateMesh() error {
	m := &c.Mesh
	if len(m.Points) == 0 {
		return ErrMissingMesh
	}
	if len(m.Points)%2 != 0 {
		return fmt.Errorf("%w: %d values", ErrMalformedPoints, len(m.Points))
	}
	n := c.NumPoints()
	if len(m.UVs) != n*2 {
		return fmt.Errorf("%w: %d values for %d points", ErrMalformedUVs, len(m.UVs), n)
	}
	for i, idx := range m.Indices {
		if int(idx) >= n {
			return fmt.Errorf("%w: indices[%d] = %d with %d points", ErrIndexOutOfRange, i, idx, n)
		}
	}
	return nil
}

func (c *Creature) validateRegions() error {
	n := c.NumPoints()
	for name, r := range c.Mesh.Regions {
		if r.StartPtIndex < 0 || r.EndPtIndex < r.StartPtIndex || r.EndPtIndex >= n {
			return fmt.Errorf("%w: region %s points [%d, %d] of %d", ErrRegionRange, name, r.StartPtIndex, r.EndPtIndex, n)
		}
		if r.StartIndex < 0 || r.EndIndex < r.StartIndex || r.EndIndex >= len(c.Mesh.Indices) {
			return fmt.Errorf("%w: region %s indices [%d, %d] of %d", ErrRegionRange, name, r.StartIndex, r.EndIndex, len(c.Mesh.Indices))
		}
		count := r.EndPtIndex - r.StartPtIndex + 1
		for bone, w := range r.Weights {
			if _, ok := c.Skeleton[bone]; !ok {
				return fmt.Errorf("%w: region %s bone %s", ErrUnknownWeightBone, name, bone)
			}
			if len(w) != count {
				return fmt.Errorf("%w: region %s bone %s has %d for %d points", ErrWeightLength, name, bone, len(w), count)
			}
		}
	}
	return nil
}

func (c *Creature) validateSkeleton() error {
	if len(c.Skeleton) == 0 {
		return ErrNoRootBone
	}

	byID := make(map[int]string, len(c.Skeleton))
	for name, b := range c.Skeleton {
		if other, dup := byID[b.ID]; dup {
			return fmt.Errorf("%w: %d used by %s and %s", ErrDuplicateBoneID, b.ID, other, name)
		}
		byID[b.ID] = name

		if len(b.RestParentMat) != 16 {
			return fmt.Errorf("%w: bone %s has %d", ErrMalformedMatrix, name, len(b.RestParentMat))
		}
		if len(b.LocalRestStartPt) < 2 || len(b.LocalRestEndPt) < 2 {
			return fmt.Errorf("%w: bone %s rest points", ErrMalformedVector, name)
		}
	}

	parentOf := make(map[int]string, len(c.Skeleton))
	for name, b := range c.Skeleton {
		for _, child := range b.Children {
			if _, ok := byID[child]; !ok {
				return fmt.Errorf("%w: bone %s child %d", ErrDanglingChild, name, child)
			}
			if prev, seen := parentOf[child]; seen {
				return fmt.Errorf("%w: bone %s claimed by %s and %s", ErrMultipleParents, byID[child], prev, name)
			}
			parentOf[child] = name
		}
	}

	var roots []string
	for name, b := range c.Skeleton {
		if _, isChild := parentOf[b.ID]; !isChild {
			roots = append(roots, name)
		}
	}
	switch {
	case len(roots) == 0:
		return fmt.Errorf("%w: every bone is a child", ErrBoneCycle)
	case len(roots) > 1:
		sort.Strings(roots)
		return fmt.Errorf("%w: %v", ErrMultipleRootBones, roots)
	}
	c.root = roots[0]

	// With one parent per bone, anything unreachable from the root sits
	// on a cycle.
	visited := make(map[string]bool, len(c.Skeleton))
	stack := []string{c.root}
	for len(stack) > 0 {
		name := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if visited[name] {
			return fmt.Errorf("%w: at bone %s", ErrBoneCycle, name)
		}
		visited[name] = true
		for _, child := range c.Skeleton[name].Children {
			stack = append(stack, byID[child])
		}
	}
	if len(visited) != len(c.Skeleton) {
		return fmt.Errorf("%w: %d of %d bones reachable from %s", ErrBoneCycle, len(visited), len(c.Skeleton), c.root)
	}
	return nil
}

func (c *Creature) validateAnimations() error {
	for name, clip := range c.Animation {
		if _, err := FrameNumbers(clip.Bones); err != nil {
			return fmt.Errorf("animation %s bones: %w", name, err)
		}
		if _, err := FrameNumbers(clip.Meshes); err != nil {
			return fmt.Errorf("animation %s meshes: %w", name, err)
		}
		if _, err := FrameNumbers(clip.UVSwaps); err != nil {
			return fmt.Errorf("animation %s uv_swaps: %w", name, err)
		}
		for frame, bones := range clip.Bones {
			for bone, bf := range bones {
				if len(bf.StartPt) < 2 || len(bf.EndPt) < 2 {
					return fmt.Errorf("%w: animation %s frame %s bone %s", ErrMalformedVector, name, frame, bone)
				}
			}
		}
		for frame, regions := range clip.Meshes {
			for region, mf := range regions {
				if len(mf.LocalDisplacements)%2 != 0 || len(mf.PostDisplacements)%2 != 0 {
					return fmt.Errorf("%w: animation %s frame %s region %s displacements", ErrMalformedVector, name, frame, region)
				}
			}
		}
	}
	return nil
}
