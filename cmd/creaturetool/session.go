package main

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/Faultbox/creature/internal/config"
	"github.com/Faultbox/creature/internal/engine/animation"
	"github.com/Faultbox/creature/internal/engine/model"
	"github.com/Faultbox/creature/internal/logger"
	"github.com/Faultbox/creature/pkg/formats"
)

// session is a loaded document with its mesh and animation manager.
type session struct {
	doc     *formats.Creature
	mesh    *model.Mesh
	manager *animation.Manager
}

func loadSession(cfg *config.Config) (*session, error) {
	doc, err := formats.ParseCreatureFile(cfg.Asset.Path)
	if err != nil {
		return nil, err
	}
	mesh, err := model.NewMesh(doc, cfg.BuildOptions())
	if err != nil {
		return nil, fmt.Errorf("building %s: %w", cfg.Asset.Path, err)
	}

	mgr := animation.NewManager(mesh, cfg.PlaybackOptions())
	if err := mgr.CreateAllAnimations(doc); err != nil {
		return nil, fmt.Errorf("loading animations: %w", err)
	}

	if start := cfg.Playback.StartAnimation; start != "" {
		if !mgr.SetActiveAnimationName(start, false) {
			return nil, fmt.Errorf("%w: %s", animation.ErrUnknownAnimation, start)
		}
	}

	if b := cfg.Playback.Blend; b.Enabled {
		mgr.SetBlending(true)
		mgr.SetBlendingAnimations(b.From, b.To)
		mgr.SetBlendingFactor(b.Factor)
	}

	logger.Info("creature loaded",
		zap.String("path", cfg.Asset.Path),
		zap.Int("points", mesh.TotalNumPoints()),
		zap.Strings("animations", mgr.AnimationNames()),
		zap.String("active", mgr.ActiveAnimationName()))

	return &session{doc: doc, mesh: mesh, manager: mgr}, nil
}
