// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// config_cmd.go - The "config" command.
//
// Subcommands:
//   show (default)      Display the effective configuration
//   path                Show the configuration file location
//   get <key>           Show one setting
//   set <key> <value>   Change one setting and save the file
//   reset               Write the built-in defaults
//
// Examples:
//   sentinel config
//   sentinel config get server.base_url
//   sentinel config set server.base_url https://triage.example.org
//   sentinel config set events.limit 250
//   sentinel config path --json

package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/jeranaias/sentinel-tui/internal/config"
)

// HandleConfig dispatches config subcommands.
func HandleConfig(args Args, stdio IO) error {
	p := args.Parser()
	switch sub := p.Subcommand(); sub {
	case "", "show":
		return handleConfigShow(args, stdio)
	case "path":
		return handleConfigPath(args, stdio)
	case "get":
		key := p.Positional(1)
		if key == "" {
			return ErrMissingArgument("key", "sentinel config get server.base_url")
		}
		return handleConfigGet(args, stdio, key)
	case "set":
		key, value := p.Positional(1), p.Positional(2)
		if key == "" || p.PositionalCount() < 3 {
			return ErrMissingArgument("key and value", "sentinel config set events.limit 250")
		}
		return handleConfigSet(args, stdio, key, value)
	case "reset":
		return handleConfigReset(args, stdio)
	default:
		return NewValidationErrorWithExample("subcommand", sub, "expected show, path, get, set or reset", "sentinel config show")
	}
}

func handleConfigShow(args Args, stdio IO) error {
	cfg, err := config.Load()
	if cfg == nil {
		return &ConfigError{Err: err}
	}
	if args.JSON {
		return NewJSONResponse("config", cfg).Fprint(stdio.Out)
	}
	if err != nil {
		fmt.Fprintf(stdio.Err, "%s %v (showing defaults)\n", WarningStyle.Render("[WARN]"), err)
	}

	fmt.Fprintln(stdio.Out, TitleStyle.Render("Configuration"))
	keys := config.GetAllKeys()
	sort.Strings(keys)
	section := ""
	for _, key := range keys {
		group, name, ok := strings.Cut(key, ".")
		if !ok {
			group, name = "", key
		}
		if group != section {
			section = group
			fmt.Fprintln(stdio.Out, SectionStyle.Render("["+group+"]"))
		}
		value, _ := cfg.Get(key)
		fmt.Fprintf(stdio.Out, "  %s%s\n", RenderLabel(name, 22), ValueStyle.Render(formatConfigValue(value)))
	}
	return nil
}

func handleConfigPath(args Args, stdio IO) error {
	path, err := config.ActivePath()
	if err != nil {
		return &ConfigError{Err: err}
	}
	_, statErr := os.Stat(path)
	data := ConfigPathData{Path: path, Exists: statErr == nil}

	if args.JSON {
		return NewJSONResponse("config", data).Fprint(stdio.Out)
	}
	fmt.Fprintln(stdio.Out, path)
	if !data.Exists {
		fmt.Fprintln(stdio.Err, DimStyle.Render("(not created yet; built-in defaults are in use)"))
	}
	return nil
}

func handleConfigGet(args Args, stdio IO, key string) error {
	cfg, err := config.Load()
	if cfg == nil {
		return &ConfigError{Err: err}
	}
	value, err := cfg.Get(key)
	if err != nil {
		return NewValidationErrorWithExample("key", key, "unknown setting", "one of: "+strings.Join(config.GetAllKeys(), ", "))
	}
	if args.JSON {
		return NewJSONResponse("config", ConfigValueData{Key: key, Value: value}).Fprint(stdio.Out)
	}
	fmt.Fprintln(stdio.Out, formatConfigValue(value))
	return nil
}

// handleConfigSet edits the file on disk. Environment overrides are not
// applied, so they are never written back.
func handleConfigSet(args Args, stdio IO, key, value string) error {
	cfg, path, err := loadFileOnly()
	if err != nil {
		return &ConfigError{Err: err}
	}

	if _, err := cfg.Get(key); err != nil {
		return NewValidationErrorWithExample("key", key, "unknown setting", "one of: "+strings.Join(config.GetAllKeys(), ", "))
	}
	if err := cfg.Set(key, value); err != nil {
		return NewValidationError(key, value, err.Error())
	}
	if err := cfg.Validate(); err != nil {
		return &ConfigError{Err: err}
	}
	if err := saveTo(cfg, path); err != nil {
		return &ConfigError{Err: err}
	}

	stored, _ := cfg.Get(key)
	if args.JSON {
		return NewJSONResponse("config", ConfigValueData{Key: key, Value: stored}).Fprint(stdio.Out)
	}
	fmt.Fprintf(stdio.Out, "%s %s = %s\n", RenderStatus("ok"), key, formatConfigValue(stored))
	return nil
}

func handleConfigReset(args Args, stdio IO) error {
	path, err := config.ActivePath()
	if err != nil {
		return &ConfigError{Err: err}
	}
	if err := saveTo(config.Default(), path); err != nil {
		return &ConfigError{Err: err}
	}
	if args.JSON {
		return NewJSONResponse("config", ConfigPathData{Path: path, Exists: true}).Fprint(stdio.Out)
	}
	fmt.Fprintf(stdio.Out, "%s Configuration reset to defaults (%s)\n", RenderStatus("ok"), path)
	return nil
}

// loadFileOnly reads the active config file over the defaults, without
// .env or SENTINEL_* overrides.
func loadFileOnly() (*config.Config, string, error) {
	path, err := config.ActivePath()
	if err != nil {
		return nil, "", err
	}
	cfg := config.Default()
	if _, statErr := os.Stat(path); statErr == nil {
		if strings.EqualFold(filepath.Ext(path), ".json") {
			err = config.LoadJSON(cfg, path)
		} else {
			err = config.LoadTOML(cfg, path)
		}
		if err != nil {
			return nil, "", err
		}
	} else if !errors.Is(statErr, os.ErrNotExist) {
		return nil, "", statErr
	}
	if err := cfg.Migrate(); err != nil {
		return nil, "", err
	}
	cfg.SetDefaults()
	return cfg, path, nil
}

func saveTo(cfg *config.Config, path string) error {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return config.SaveJSON(cfg, path)
	}
	return config.SaveTOML(cfg, path)
}

func formatConfigValue(v any) string {
	switch val := v.(type) {
	case string:
		if val == "" {
			return "(default)"
		}
		return val
	default:
		return fmt.Sprint(val)
	}
}
