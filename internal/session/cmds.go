// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
)

// =============================================================================
// BUBBLE TEA INTEGRATION
// =============================================================================

// StateMsg carries the session state after a transition.
type StateMsg struct {
	State State
}

// AuthErrorMsg reports a failed login or signup. The session state is
// unchanged apart from what the failed operation settled on.
type AuthErrorMsg struct {
	Op  string
	Err error
}

// InitCmd runs Initialize off the event loop.
func InitCmd(m *Manager) tea.Cmd {
	return func() tea.Msg {
		return StateMsg{State: m.Initialize(context.Background())}
	}
}

// LoginCmd runs Login off the event loop.
func LoginCmd(m *Manager, username, password string) tea.Cmd {
	return func() tea.Msg {
		if _, err := m.Login(context.Background(), username, password); err != nil {
			return AuthErrorMsg{Op: "login", Err: err}
		}
		return StateMsg{State: m.State()}
	}
}

// SignupCmd runs Signup off the event loop.
func SignupCmd(m *Manager, username, password string) tea.Cmd {
	return func() tea.Msg {
		if _, err := m.Signup(context.Background(), username, password); err != nil {
			return AuthErrorMsg{Op: "signup", Err: err}
		}
		return StateMsg{State: m.State()}
	}
}

// LogoutCmd logs out and reports the new state.
func LogoutCmd(m *Manager) tea.Cmd {
	return func() tea.Msg {
		m.Logout()
		return StateMsg{State: m.State()}
	}
}
