// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/jeranaias/sentinel-tui/internal/api"
	"github.com/jeranaias/sentinel-tui/internal/config"
	"github.com/jeranaias/sentinel-tui/internal/session"
	"github.com/jeranaias/sentinel-tui/internal/ui/styles"
	"github.com/jeranaias/sentinel-tui/internal/util"
)

// Run starts the interactive dashboard and blocks until the user quits or
// ctx is cancelled. The terminal belongs to Bubble Tea, so logs go to the
// configured log file.
func Run(ctx context.Context, cfg *config.Config, version string) error {
	logger, err := newFileLogger(cfg)
	if err != nil {
		return err
	}
	defer util.SyncLogger()

	client := api.NewClient(cfg.Server.BaseURL).
		WithTimeout(cfg.Server.Timeout()).
		WithRateLimit(cfg.Server.RateLimitPerSec, cfg.Server.RateLimitBurst).
		WithUserAgent("sentinel-tui/" + version).
		WithLogger(logger)

	tokenPath, err := cfg.TokenPath()
	if err != nil {
		return err
	}
	mgr := session.NewManager(client, session.NewFileTokenStore(tokenPath), logger)
	client.WithTokenSource(mgr)

	m := New(Options{
		Session: mgr,
		Backend: client,
		Config:  cfg,
		Theme:   styles.NewTheme(cfg.UI.Theme),
		Logger:  logger,
	})

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))

	// Transitions triggered outside a command (expiry while a request is in
	// flight) reach the model this way. Send blocks until Update reads it,
	// and callbacks may fire from inside Update.
	unsubscribe := mgr.Subscribe(func(s session.State) {
		go p.Send(session.StateMsg{State: s})
	})
	defer unsubscribe()

	go watchConfig(ctx, p, logger)

	logger.Info("dashboard started", zap.String("server", cfg.Server.BaseURL), zap.String("version", version))
	_, err = p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		err = nil
	}
	logger.Info("dashboard stopped", zap.Error(err))
	return err
}

// watchConfig forwards config file changes to the program.
func watchConfig(ctx context.Context, p *tea.Program, logger *zap.Logger) {
	if err := config.EnsureConfigDir(); err != nil {
		logger.Warn("config watch disabled", zap.Error(err))
		return
	}
	path, err := config.ActivePath()
	if err != nil {
		logger.Warn("config watch disabled", zap.Error(err))
		return
	}
	err = config.Watch(ctx, path, func(cfg *config.Config, err error) {
		p.Send(ConfigReloadedMsg{Config: cfg, Err: err})
	})
	if err != nil {
		logger.Warn("config watch stopped", zap.String("path", path), zap.Error(err))
	}
}

func newFileLogger(cfg *config.Config) (*zap.Logger, error) {
	path, err := cfg.LogPath()
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	return util.InitLogger(util.LogOptions{
		Environment: "production",
		Level:       cfg.Logging.Level,
		Format:      cfg.Logging.Format,
		OutputPaths: []string{path},
	})
}
