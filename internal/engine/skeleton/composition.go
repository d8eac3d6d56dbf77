package skeleton

import (
	"errors"
	"fmt"
)

// Errors returned while assembling a composition.
var (
	ErrWeightLength    = errors.New("weight count does not match region points")
	ErrUnknownBone     = errors.New("unknown bone")
	ErrDuplicateRegion = errors.New("duplicate region name")
	ErrNoRootBone      = errors.New("composition has no root bone")
)

// Composition owns the bone hierarchy and the render regions it drives.
type Composition struct {
	root       *Bone
	bones      []*Bone
	bonesMap   map[string]*Bone
	regions    []*Region
	regionsMap map[string]*Region
}

// NewComposition creates an empty composition.
func NewComposition() *Composition {
	return &Composition{
		bonesMap:   make(map[string]*Bone),
		regionsMap: make(map[string]*Region),
	}
}

// SetRootBone sets the root of the hierarchy.
func (c *Composition) SetRootBone(root *Bone) { c.root = root }

// RootBone returns the root of the hierarchy.
func (c *Composition) RootBone() *Bone { return c.root }

// AddRegion appends a region. Region order is draw order.
func (c *Composition) AddRegion(r *Region) {
	c.regions = append(c.regions, r)
}

// InitBoneMap indexes every bone under the root by key, depth-first.
func (c *Composition) InitBoneMap() error {
	if c.root == nil {
		return ErrNoRootBone
	}
	c.bones = c.root.AllChildren()
	c.bonesMap = make(map[string]*Bone, len(c.bones))
	for _, b := range c.bones {
		c.bonesMap[b.Key()] = b
	}
	return nil
}

// InitRegionsMap indexes regions by name.
func (c *Composition) InitRegionsMap() error {
	c.regionsMap = make(map[string]*Region, len(c.regions))
	for _, r := range c.regions {
		if _, dup := c.regionsMap[r.Name()]; dup {
			return fmt.Errorf("%w: %s", ErrDuplicateRegion, r.Name())
		}
		c.regionsMap[r.Name()] = r
	}
	return nil
}

// Bones returns every bone in depth-first order.
func (c *Composition) Bones() []*Bone { return c.bones }

// BonesMap returns the key to bone index.
func (c *Composition) BonesMap() map[string]*Bone { return c.bonesMap }

// Bone returns the bone with key, or nil.
func (c *Composition) Bone(key string) *Bone { return c.bonesMap[key] }

// Regions returns the regions in draw order.
func (c *Composition) Regions() []*Region { return c.regions }

// RegionsMap returns the name to region index.
func (c *Composition) RegionsMap() map[string]*Region { return c.regionsMap }

// Region returns the region with name, or nil.
func (c *Composition) Region(name string) *Region { return c.regionsMap[name] }

// RegionWithID returns the region whose tag id matches, or nil.
func (c *Composition) RegionWithID(id int) *Region {
	for _, r := range c.regions {
		if r.TagID() == id {
			return r
		}
	}
	return nil
}

// ResetToWorldRestPts puts every bone back on its rest segment.
func (c *Composition) ResetToWorldRestPts() {
	if c.root != nil {
		c.root.InitWorldPts()
	}
}

// UpdateAllTransforms recomputes the delta transforms of every bone from
// its current world segment and aligns their dual quaternions. Parent
// frames are refreshed first when updateParentXf is set.
func (c *Composition) UpdateAllTransforms(updateParentXf bool) {
	if c.root == nil {
		return
	}
	if updateParentXf {
		c.root.ComputeParentTransforms()
	}
	c.root.ComputeWorldDeltaTransforms()
	c.root.FixDQs(c.root.WorldDQ())
}
