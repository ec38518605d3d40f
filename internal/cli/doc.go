// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli implements sentinel's non-interactive commands.
//
// Every command the TUI offers has a scriptable counterpart that shares the
// same session, client and correlation code:
//
//	cmd, args := cli.Parse(os.Args[1:])
//	if err := cli.Run(ctx, cmd, args, cli.StdIO()); err != nil {
//	    cli.DisplayError(os.Stdout, os.Stderr, args.Name, err, args.JSON)
//	    os.Exit(cli.GetExitCode(err))
//	}
//
// # Commands
//
// Session: login, signup, logout, whoami.
// Events: events, explain, storyline, investigate, stats.
// Data (login required): upload, clear.
// Local: config, version, help.
//
// # Output
//
// With --json every command prints one JSONResponse envelope on stdout,
// including failures, so scripts and SIEM collectors can consume it.
// Otherwise output is styled with lipgloss; colors follow NO_COLOR,
// FORCE_COLOR, --no-color and TTY detection.
//
// # Exit Codes
//
//	0 success, 1 general, 2 usage, 3 config, 4 auth, 5 network, 7 not found
package cli
