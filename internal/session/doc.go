// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session owns the authentication token and the console's
// authentication status.
//
// The token is the only state that survives a restart. Whether it is still
// good cannot be decided locally, so every process start begins in Loading
// when a token is stored and asks the server who it belongs to before any
// protected view is shown.
//
// # Key Types
//
//   - Manager: three-state machine (Unauthenticated, Loading, Authenticated)
//   - TokenStore: durable token storage (FileTokenStore, MemoryTokenStore)
//   - Access: what a protected view should do for a given State (see Guard)
//   - StateMsg, AuthErrorMsg: Bubble Tea messages produced by the Cmd helpers
//
// # Usage
//
//	store := session.NewFileTokenStore(cfg.Session.TokenPath)
//	mgr := session.NewManager(client, store, logger)
//	client.WithTokenSource(mgr)
//
//	// In the Bubble Tea program:
//	func (m model) Init() tea.Cmd { return session.InitCmd(m.session) }
//
//	switch session.Guard(mgr.State()) {
//	case session.AccessWait:     // render a spinner, do not redirect
//	case session.AccessRedirect: // go to the landing screen
//	case session.AccessAllow:    // render the protected view
//	}
package session
