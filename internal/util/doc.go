// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util provides small helpers shared by the sentinel packages.
//
// # Key Functions
//
//   - AtomicWriteFile: crash-safe file writing with fsync and rename
//   - TruncateWidth, PadWidth: column-aware truncation for table output
//   - Fingerprint: log-safe identifier for bearer tokens
//   - InitLogger, Logger: process-wide zap logger
//
// # Usage
//
//	logger, err := util.InitLogger(util.LogOptions{Level: "debug"})
//	display := util.TruncateWidth(event.URL, 40)
//	err = util.AtomicWriteFile(path, data, 0600)
package util
