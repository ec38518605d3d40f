// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// upload_cmd.go - Data commands that require a session: upload, clear.
//
// Examples:
//   sentinel upload ./access.csv                 Replace stored events
//   sentinel upload ./access.json --keep-existing
//   sentinel clear --confirm

package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/jeranaias/sentinel-tui/internal/api"
)

// HandleUpload sends a .csv or .json log file for ingestion. Stored events
// are replaced unless --keep-existing is given.
func HandleUpload(ctx context.Context, env *Env) error {
	p := env.Args.Parser()
	path := p.Positional(0)
	if path == "" {
		return ErrMissingArgument("file", "sentinel upload <file.csv|file.json> [--keep-existing]")
	}
	if err := api.ValidateUploadName(path); err != nil {
		return NewValidationErrorWithExample("file", filepath.Base(path), err.Error(), "sentinel upload ./access.csv")
	}

	if _, err := env.RequireSession(ctx, "POST /upload/logs"); err != nil {
		return err
	}

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &NotFoundError{Resource: "file", ID: path}
		}
		return NewCommandError("upload", "open file", path, err)
	}
	defer f.Close()

	clearExisting := !p.BoolFlag("keep-existing")
	env.Logger.Info("uploading logs",
		zap.String("file", filepath.Base(path)),
		zap.Bool("clear_existing", clearExisting),
	)

	resp, err := env.Client.UploadLogs(ctx, path, f, clearExisting)
	if err != nil {
		return env.checkSession(err)
	}

	return env.output("upload", MessageData{Message: resp.Message}, func() {
		fmt.Fprintf(env.IO.Out, "%s %s\n", RenderStatus("ok"), resp.Message)
		if clearExisting {
			fmt.Fprintln(env.IO.Out, DimStyle.Render("Previously stored events were replaced."))
		}
	})
}

// HandleClear deletes every stored event. It refuses without --confirm.
func HandleClear(ctx context.Context, env *Env) error {
	if !env.Args.Parser().BoolFlag("confirm") {
		return NewValidationErrorWithExample("confirm", "", "clearing deletes every stored event; pass --confirm", "sentinel clear --confirm")
	}

	if _, err := env.RequireSession(ctx, "DELETE /events"); err != nil {
		return err
	}

	resp, err := env.Client.ClearEvents(ctx)
	if err != nil {
		return env.checkSession(err)
	}

	return env.output("clear", MessageData{Message: resp.Message}, func() {
		fmt.Fprintf(env.IO.Out, "%s %s\n", RenderStatus("ok"), resp.Message)
	})
}
