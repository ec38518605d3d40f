// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// env.go - Shared wiring for commands that talk to the server.

package cli

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/jeranaias/sentinel-tui/internal/api"
	"github.com/jeranaias/sentinel-tui/internal/config"
	"github.com/jeranaias/sentinel-tui/internal/session"
	"github.com/jeranaias/sentinel-tui/internal/util"
)

// Env is everything a server-facing command needs: configuration, a logger,
// an API client and the session that authorizes it.
type Env struct {
	Args    Args
	IO      IO
	Config  *config.Config
	Logger  *zap.Logger
	Client  *api.Client
	Session *session.Manager
}

// NewEnv loads configuration, applies --api-url and builds the client and
// session. A config file that fails to parse is a warning, not an error.
func NewEnv(args Args, stdio IO) (*Env, error) {
	cfg, err := config.Load()
	if cfg == nil {
		return nil, &ConfigError{Err: err}
	}
	if err != nil && !args.JSON {
		fmt.Fprintf(stdio.Err, "%s %v (using defaults)\n", WarningStyle.Render("[WARN]"), err)
	}

	if args.APIURL != "" {
		cfg.Server.BaseURL = strings.TrimRight(args.APIURL, "/")
		if err := cfg.Validate(); err != nil {
			return nil, &ConfigError{Err: err}
		}
	}

	logger, err := newCommandLogger(args, cfg)
	if err != nil {
		return nil, &ConfigError{Err: err}
	}

	client := api.NewClient(cfg.Server.BaseURL).
		WithTimeout(cfg.Server.Timeout()).
		WithRateLimit(cfg.Server.RateLimitPerSec, cfg.Server.RateLimitBurst).
		WithUserAgent("sentinel-tui/" + Version).
		WithLogger(logger)

	tokenPath, err := cfg.TokenPath()
	if err != nil {
		return nil, &ConfigError{Err: err}
	}
	mgr := session.NewManager(client, session.NewFileTokenStore(tokenPath), logger)
	client.WithTokenSource(mgr)

	return &Env{
		Args:    args,
		IO:      stdio,
		Config:  cfg,
		Logger:  logger,
		Client:  client,
		Session: mgr,
	}, nil
}

// newCommandLogger logs at debug to stderr with --verbose, to the configured
// log file when one is set, and nowhere otherwise.
func newCommandLogger(args Args, cfg *config.Config) (*zap.Logger, error) {
	switch {
	case args.Verbose:
		return util.InitLogger(util.LogOptions{Level: "debug", Format: "console"})
	case cfg.Logging.File != "":
		path, err := cfg.LogPath()
		if err != nil {
			return nil, err
		}
		return util.InitLogger(util.LogOptions{
			Environment: "production",
			Level:       cfg.Logging.Level,
			Format:      cfg.Logging.Format,
			OutputPaths: []string{path},
		})
	default:
		return zap.NewNop(), nil
	}
}

// Close flushes the logger.
func (e *Env) Close() {
	_ = e.Logger.Sync()
}

// RequireSession restores the stored session and fails unless it is
// authenticated.
func (e *Env) RequireSession(ctx context.Context, op string) (session.State, error) {
	state := e.Session.Initialize(ctx)
	if session.Guard(state) != session.AccessAllow {
		return state, &api.Error{
			Op:     op,
			Kind:   api.ErrRequestFailed,
			Detail: "not logged in",
			Err:    api.ErrNotAuthenticated,
		}
	}
	return state, nil
}

// checkSession discards the stored token when err says the server rejected
// it, and passes err through.
func (e *Env) checkSession(err error) error {
	if err != nil && e.Session.Invalidate(err) {
		e.Logger.Debug("stored session discarded")
	}
	return err
}

// output writes data as a JSON envelope in --json mode, or calls text.
func (e *Env) output(command string, data any, text func()) error {
	if e.Args.JSON {
		return NewJSONResponse(command, data).Fprint(e.IO.Out)
	}
	text()
	return nil
}

// limitFlag returns --limit, defaulting to the configured page size.
func (e *Env) limitFlag(p *ArgParser) (int, error) {
	n, err := p.FlagInt("limit", e.Config.Events.Limit)
	if err != nil {
		return 0, err
	}
	if n == 0 {
		return 0, NewValidationErrorWithExample("limit", "0", "must be at least 1", "--limit 50")
	}
	return n, nil
}
