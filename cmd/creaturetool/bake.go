package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/Faultbox/creature/internal/logger"
	"github.com/Faultbox/creature/pkg/formats"
)

// pointCacheExt is the file extension of baked clips.
const pointCacheExt = ".cptc"

func cmdBake(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("bake", flag.ContinueOnError)
	outDir := fs.String("out", "", "Output directory (default from config)")
	cfg, err := setup(fs, args)
	if err != nil {
		return err
	}
	if *outDir != "" {
		cfg.Asset.PointCacheDir = *outDir
	}

	s, err := loadSession(cfg)
	if err != nil {
		return err
	}

	names := s.manager.AnimationNames()
	if cfg.Playback.StartAnimation != "" {
		names = []string{cfg.Playback.StartAnimation}
	}

	if err := os.MkdirAll(cfg.Asset.PointCacheDir, 0755); err != nil {
		return err
	}

	for _, name := range names {
		if err := s.manager.MakePointCache(name); err != nil {
			return err
		}
		a, _ := s.manager.Animation(name)

		path := filepath.Join(cfg.Asset.PointCacheDir, name+pointCacheExt)
		pc := &formats.PointCache{
			Animation: name,
			StartTime: int32(a.StartTime()),
			Frames:    a.CachePts(),
		}
		if err := writePointCacheFile(path, pc); err != nil {
			return fmt.Errorf("writing %s: %w", path, err)
		}

		logger.Debug("point cache written", zap.String("path", path), zap.Int("frames", len(pc.Frames)))
		fmt.Fprintf(out, "%-16s %d frames -> %s\n", name, len(pc.Frames), path)
	}
	return nil
}

func writePointCacheFile(path string, pc *formats.PointCache) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	if err := formats.WritePointCache(w, pc); err != nil {
		return err
	}
	if err := w.Flush(); err != nil {
		return err
	}
	return f.Close()
}
