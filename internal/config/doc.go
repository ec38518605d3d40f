// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config loads and saves sentinel's configuration.
//
// Supports both TOML and JSON configuration formats, with defaults, a .env
// file, environment variable overrides, and validation.
//
// # Key Types
//
//   - Config: the complete configuration
//   - ServerConfig: triage API address, timeout and client-side rate limit
//   - SessionConfig: where the bearer token is stored
//   - LoggingConfig: level, format and log file
//
// # Configuration Precedence
//
// Configuration is loaded from (in order of precedence):
//   - Environment variables (SENTINEL_*), including those from ./.env
//   - ~/.sentinel/config.toml
//   - ~/.sentinel/config.json
//   - Built-in defaults
//
// SENTINEL_CONFIG_DIR moves the whole ~/.sentinel directory.
//
// # Usage
//
//	cfg, err := config.Load()
//	if err != nil {
//	    return err
//	}
//	client := api.NewClient(cfg.Server.BaseURL).WithTimeout(cfg.Server.Timeout())
//
// Watch the file while the TUI runs:
//
//	go config.Watch(ctx, path, func(cfg *config.Config, err error) { ... })
package config
