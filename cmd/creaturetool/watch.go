package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/Faultbox/creature/internal/logger"
)

func cmdWatch(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("watch", flag.ContinueOnError)
	cfg, err := setup(fs, args)
	if err != nil {
		return err
	}

	if _, err := loadSession(cfg); err != nil {
		return err
	}

	w, err := newAssetWatcher(cfg.Asset.Path, func() error {
		s, err := loadSession(cfg)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "reloaded %s: %d points, animations %v\n",
			cfg.Asset.Path, s.mesh.TotalNumPoints(), s.manager.AnimationNames())
		return nil
	})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Fprintf(out, "watching %s (Ctrl+C to stop)\n", cfg.Asset.Path)
	return w.Run(ctx)
}

// assetWatcher calls reload whenever one document is written or
// replaced. It watches the parent directory so editors that save by
// renaming over the file are still seen.
type assetWatcher struct {
	fsw    *fsnotify.Watcher
	target string
	reload func() error
	log    *zap.Logger
}

func newAssetWatcher(path string, reload func() error) (*assetWatcher, error) {
	target, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fsw.Add(filepath.Dir(target)); err != nil {
		fsw.Close()
		return nil, err
	}

	return &assetWatcher{
		fsw:    fsw,
		target: target,
		reload: reload,
		log:    logger.Named("watch"),
	}, nil
}

// Run dispatches events until ctx is done or the watcher fails. Reload
// errors are logged and watching continues.
func (w *assetWatcher) Run(ctx context.Context) error {
	defer w.fsw.Close()

	for {
		select {
		case <-ctx.Done():
			return nil

		case e, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			name, err := filepath.Abs(e.Name)
			if err != nil || name != w.target {
				continue
			}
			if e.Op&(fsnotify.Create|fsnotify.Write) == 0 {
				continue
			}
			w.log.Debug("document changed", zap.String("path", name), zap.Stringer("op", e.Op))
			if err := w.reload(); err != nil {
				w.log.Warn("reload failed", zap.String("path", name), zap.Error(err))
			}

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			w.log.Error("watcher error", zap.Error(err))
		}
	}
}
