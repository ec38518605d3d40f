// sentinel - terminal client for the security event triage dashboard.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"go.uber.org/zap"

	"github.com/jeranaias/sentinel-tui/internal/cli"
	"github.com/jeranaias/sentinel-tui/internal/config"
	"github.com/jeranaias/sentinel-tui/internal/ui/app"
	"github.com/jeranaias/sentinel-tui/internal/util"
)

// Version information (set at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

func init() {
	// Sync version info with cli package
	cli.Version = Version
	cli.GitCommit = GitCommit
	cli.BuildDate = BuildDate
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd, args := cli.Parse(os.Args[1:])

	var err error
	if cmd == cli.CmdTUI {
		err = runTUI(ctx, args)
	} else {
		err = cli.Run(ctx, cmd, args, cli.StdIO())
	}
	if err != nil {
		stop()
		code := cli.GetExitCode(err)
		util.Logger().Error("command failed", zap.String("command", args.Name), zap.Int("exit_code", code), zap.Error(err))
		// os.Exit skips deferred flushes.
		util.SyncLogger()
		cli.DisplayError(os.Stdout, os.Stderr, args.Name, err, args.JSON)
		os.Exit(code)
	}
}

// runTUI starts the interactive dashboard.
func runTUI(ctx context.Context, args cli.Args) error {
	cfg, err := config.Load()
	if cfg == nil {
		return &cli.ConfigError{Err: err}
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "[WARN] %v (using defaults)\n", err)
	}
	if args.APIURL != "" {
		cfg.Server.BaseURL = strings.TrimRight(args.APIURL, "/")
		if err := cfg.Validate(); err != nil {
			return &cli.ConfigError{Err: err}
		}
	}
	config.SetGlobal(cfg)

	return app.Run(ctx, cfg, Version)
}
