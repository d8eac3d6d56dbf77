package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/Faultbox/creature/pkg/formats"
)

var (
	errBadPoint      = errors.New("point must be x,y")
	errCacheMismatch = errors.New("point cache names another clip")
)

func cmdPlay(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("play", flag.ContinueOnError)
	frames := fs.Int("frames", 0, "Steps to run (0 = one pass over the clip)")
	step := fs.Float64("step", 1, "Frames advanced per step")
	points := fs.Bool("points", false, "Print every posed point")
	contact := fs.String("contact", "", "Report the bone touching x,y after each step")
	radius := fs.Float64("radius", 1, "Contact radius")
	cacheDir := fs.String("cache", "", "Play clips from point caches baked into this directory")
	cfg, err := setup(fs, args)
	if err != nil {
		return err
	}

	var contactPt *mgl64.Vec2
	if *contact != "" {
		p, err := parsePoint(*contact)
		if err != nil {
			return err
		}
		contactPt = &p
	}

	s, err := loadSession(cfg)
	if err != nil {
		return err
	}
	mgr := s.manager
	if *cacheDir != "" {
		if err := loadPointCaches(s, *cacheDir); err != nil {
			return err
		}
	}

	n := *frames
	if n <= 0 {
		if a, ok := mgr.Animation(mgr.ActiveAnimationName()); ok {
			n = a.NumFrames()
		}
	}

	// Update takes seconds; step is in frames.
	dt := *step / mgr.TimeScale()

	mgr.SetIsPlaying(true)
	if err := mgr.RunCreature(); err != nil {
		return err
	}
	for i := 0; i < n; i++ {
		b := s.mesh.ComputeBoundaryMinMax()
		fmt.Fprintf(out, "t=%-8.3f bounds (%.3f, %.3f)-(%.3f, %.3f)",
			mgr.RunTime(), b.Min[0], b.Min[1], b.Max[0], b.Max[1])
		if contactPt != nil {
			name := "-"
			if bone := mgr.IsContactBone(*contactPt, *radius); bone != nil {
				name = bone.Key()
			}
			fmt.Fprintf(out, " contact %s", name)
		}
		fmt.Fprintln(out)

		if *points {
			pts := s.mesh.RenderPts()
			for k := 0; k < s.mesh.TotalNumPoints(); k++ {
				fmt.Fprintf(out, "  %4d (%.4f, %.4f, %.4f)\n", k, pts[k*3], pts[k*3+1], pts[k*3+2])
			}
		}

		if err := mgr.Update(dt); err != nil {
			return err
		}
	}
	return nil
}

// loadPointCaches installs <dir>/<clip>.cptc for every clip that has one.
func loadPointCaches(s *session, dir string) error {
	for _, name := range s.manager.AnimationNames() {
		path := filepath.Join(dir, name+pointCacheExt)
		pc, err := formats.ParsePointCacheFile(path)
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return fmt.Errorf("loading %s: %w", path, err)
		}
		if pc.Animation != name {
			return fmt.Errorf("loading %s: %w: file holds %q", path, errCacheMismatch, pc.Animation)
		}
		if err := s.manager.LoadPointCache(pc); err != nil {
			return fmt.Errorf("loading %s: %w", path, err)
		}
	}
	return nil
}

func parsePoint(s string) (mgl64.Vec2, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return mgl64.Vec2{}, fmt.Errorf("%w: %q", errBadPoint, s)
	}
	var p mgl64.Vec2
	for i, part := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return mgl64.Vec2{}, fmt.Errorf("%w: %q", errBadPoint, s)
		}
		p[i] = v
	}
	return p, nil
}
