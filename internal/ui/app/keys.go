// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package app

import (
	"github.com/charmbracelet/bubbles/key"
)

// =============================================================================
// KEY MAP DEFINITION
// =============================================================================

// KeyMap defines the keyboard bindings for every screen.
type KeyMap struct {
	// Global
	Quit      key.Binding
	ForceQuit key.Binding
	Back      key.Binding

	// Landing
	Login  key.Binding
	Signup key.Binding

	// Forms
	NextField key.Binding
	PrevField key.Binding
	Submit    key.Binding

	// Protected screens
	Overview    key.Binding
	Investigate key.Binding
	Upload      key.Binding
	NextTab     key.Binding
	Refresh     key.Binding
	Logout      key.Binding

	// Investigation
	Up       key.Binding
	Down     key.Binding
	PageUp   key.Binding
	PageDown key.Binding
	Select   key.Binding
	Payload  key.Binding

	// Upload
	ToggleKeep key.Binding
	Clear      key.Binding
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Quit: key.NewBinding(
			key.WithKeys("q"),
			key.WithHelp("q", "quit"),
		),
		ForceQuit: key.NewBinding(
			key.WithKeys("ctrl+c"),
			key.WithHelp("C-c", "quit"),
		),
		Back: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("Esc", "back"),
		),
		Login: key.NewBinding(
			key.WithKeys("l", "enter"),
			key.WithHelp("l", "log in"),
		),
		Signup: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "sign up"),
		),
		NextField: key.NewBinding(
			key.WithKeys("tab", "down"),
			key.WithHelp("Tab", "next field"),
		),
		PrevField: key.NewBinding(
			key.WithKeys("shift+tab", "up"),
			key.WithHelp("S-Tab", "previous field"),
		),
		Submit: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("Enter", "submit"),
		),
		Overview: key.NewBinding(
			key.WithKeys("1"),
			key.WithHelp("1", "overview"),
		),
		Investigate: key.NewBinding(
			key.WithKeys("2"),
			key.WithHelp("2", "investigate"),
		),
		Upload: key.NewBinding(
			key.WithKeys("3"),
			key.WithHelp("3", "upload"),
		),
		NextTab: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("Tab", "next screen"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("r", "ctrl+r"),
			key.WithHelp("r", "refresh"),
		),
		Logout: key.NewBinding(
			key.WithKeys("L"),
			key.WithHelp("L", "log out"),
		),
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("up/k", "previous event"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("down/j", "next event"),
		),
		PageUp: key.NewBinding(
			key.WithKeys("pgup", "ctrl+u"),
			key.WithHelp("PgUp", "page up"),
		),
		PageDown: key.NewBinding(
			key.WithKeys("pgdown", "ctrl+d"),
			key.WithHelp("PgDn", "page down"),
		),
		Select: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("Enter", "investigate"),
		),
		Payload: key.NewBinding(
			key.WithKeys("p"),
			key.WithHelp("p", "toggle payload"),
		),
		ToggleKeep: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("Tab", "keep/replace events"),
		),
		Clear: key.NewBinding(
			key.WithKeys("ctrl+x"),
			key.WithHelp("C-x", "clear all events"),
		),
	}
}

// =============================================================================
// KEY BINDING HELPERS
// =============================================================================

// LandingHelp returns the shortcuts shown on the landing screen.
func (k KeyMap) LandingHelp() []key.Binding {
	return []key.Binding{k.Login, k.Signup, k.Quit}
}

// FormHelp returns the shortcuts shown on the login and signup forms.
func (k KeyMap) FormHelp() []key.Binding {
	return []key.Binding{k.Submit, k.NextField, k.Back, k.ForceQuit}
}

// OverviewHelp returns the shortcuts shown on the overview.
func (k KeyMap) OverviewHelp() []key.Binding {
	return []key.Binding{k.Investigate, k.Upload, k.Refresh, k.Logout, k.Quit}
}

// InvestigateHelp returns the shortcuts shown on the investigation screen.
func (k KeyMap) InvestigateHelp() []key.Binding {
	return []key.Binding{k.Select, k.Up, k.Down, k.Payload, k.Overview, k.Refresh, k.Logout, k.Quit}
}

// UploadHelp returns the shortcuts shown on the upload screen.
func (k KeyMap) UploadHelp() []key.Binding {
	return []key.Binding{k.Submit, k.ToggleKeep, k.Clear, k.Back, k.ForceQuit}
}
