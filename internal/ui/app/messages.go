// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package app

import (
	"github.com/jeranaias/sentinel-tui/internal/config"
	"github.com/jeranaias/sentinel-tui/internal/dashboard"
)

// overviewLoadedMsg carries an Overview tagged with the load that produced
// it. Only the newest load is applied.
type overviewLoadedMsg struct {
	gen      uint64
	overview *dashboard.Overview
}

// UploadDoneMsg reports the end of a log upload.
type UploadDoneMsg struct {
	Name    string
	Message string
	Err     error
}

// ClearDoneMsg reports the end of a delete-all.
type ClearDoneMsg struct {
	Message string
	Err     error
}

// ConfigReloadedMsg is sent when the config file changes on disk. Config is
// nil when the new file failed to load.
type ConfigReloadedMsg struct {
	Config *config.Config
	Err    error
}
