// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package app is the interactive triage dashboard.
//
// Model is the root Bubble Tea model. It owns the screens (landing, login,
// signup, overview, investigation and upload) and routes every protected
// screen through session.Guard, so an unauthenticated user only ever sees
// the landing page and a user whose token is still being checked sees a
// spinner.
//
// Remote calls run as tea.Cmds. Overview loads are tagged with a
// generation and investigation lookups go through correlation.Controller,
// so a late response never overwrites newer data.
package app
