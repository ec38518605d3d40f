// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package app

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/sentinel-tui/internal/session"
	"github.com/jeranaias/sentinel-tui/internal/ui/styles"
)

// =============================================================================
// AUTH FORM
// =============================================================================

const (
	fieldUsername = iota
	fieldPassword
	fieldConfirm
)

// authForm backs both the login and signup screens. The confirm field is
// only used for signup.
type authForm struct {
	inputs []textinput.Model
	focus  int
	busy   bool
	err    string
}

func newAuthForm(theme *styles.Theme) authForm {
	mk := func(placeholder string, secret bool) textinput.Model {
		ti := textinput.New()
		ti.Placeholder = placeholder
		ti.CharLimit = 128
		ti.Width = 32
		ti.PromptStyle = theme.InputLabel
		if secret {
			ti.EchoMode = textinput.EchoPassword
			ti.EchoCharacter = '*'
		}
		return ti
	}
	return authForm{
		inputs: []textinput.Model{
			mk("username", false),
			mk("password", true),
			mk("confirm password", true),
		},
	}
}

func (f *authForm) fieldCount(signup bool) int {
	if signup {
		return 3
	}
	return 2
}

func (f *authForm) value(field int) string {
	return f.inputs[field].Value()
}

// open clears the form and focuses the username.
func (f *authForm) open() tea.Cmd {
	f.reset()
	return f.setFocus(fieldUsername)
}

func (f *authForm) reset() {
	for i := range f.inputs {
		f.inputs[i].Reset()
		f.inputs[i].Blur()
	}
	f.focus = fieldUsername
	f.busy = false
	f.err = ""
}

func (f *authForm) setFocus(field int) tea.Cmd {
	f.focus = field
	var cmd tea.Cmd
	for i := range f.inputs {
		if i == field {
			cmd = f.inputs[i].Focus()
		} else {
			f.inputs[i].Blur()
		}
	}
	return cmd
}

func (f *authForm) fail(msg string) {
	f.busy = false
	f.err = msg
	// Keep the username, retype the secrets.
	f.inputs[fieldPassword].Reset()
	f.inputs[fieldConfirm].Reset()
	f.setFocus(fieldPassword)
}

func (f *authForm) update(msg tea.Msg) tea.Cmd {
	if f.busy {
		return nil
	}
	var cmd tea.Cmd
	f.inputs[f.focus], cmd = f.inputs[f.focus].Update(msg)
	return cmd
}

// =============================================================================
// KEYS
// =============================================================================

func (m *Model) handleLandingKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Login):
		m.screen = ScreenLogin
		m.setStatus("", false)
		return m, m.form.open()
	case key.Matches(msg, m.keys.Signup):
		m.screen = ScreenSignup
		m.setStatus("", false)
		return m, m.form.open()
	}
	return m, nil
}

func (m *Model) handleFormKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	signup := m.screen == ScreenSignup
	n := m.form.fieldCount(signup)

	switch {
	case key.Matches(msg, m.keys.Back):
		m.form.reset()
		m.screen = ScreenLanding
		return m, nil
	case m.form.busy:
		return m, nil
	case key.Matches(msg, m.keys.Submit):
		if m.form.focus < n-1 {
			return m, m.form.setFocus(m.form.focus + 1)
		}
		return m, m.submitForm(signup)
	case key.Matches(msg, m.keys.NextField):
		return m, m.form.setFocus((m.form.focus + 1) % n)
	case key.Matches(msg, m.keys.PrevField):
		return m, m.form.setFocus((m.form.focus + n - 1) % n)
	}
	return m, m.form.update(msg)
}

func (m *Model) submitForm(signup bool) tea.Cmd {
	username := strings.TrimSpace(m.form.value(fieldUsername))
	password := m.form.value(fieldPassword)

	switch {
	case username == "":
		m.form.err = "Username is required"
		return m.form.setFocus(fieldUsername)
	case password == "":
		m.form.err = "Password is required"
		return m.form.setFocus(fieldPassword)
	case signup && password != m.form.value(fieldConfirm):
		m.form.fail("Passwords do not match")
		return nil
	}

	m.form.busy = true
	m.form.err = ""
	if signup {
		return session.SignupCmd(m.session, username, password)
	}
	return session.LoginCmd(m.session, username, password)
}

// =============================================================================
// VIEWS
// =============================================================================

func (m *Model) viewChecking(width, height int) string {
	msg := m.spinner.View() + " Checking session..."
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, m.theme.Muted.Render(msg))
}

func (m *Model) viewLanding(width, height int) string {
	t := m.theme
	lines := []string{
		t.FormTitle.Render("Security Event Triage"),
		"",
		t.Muted.Render("Review blocked and successful attacks, see why each"),
		t.Muted.Render("was flagged and follow the source across its events."),
		"",
		t.ShortcutKey.Render("l") + " " + t.ShortcutDesc.Render("log in") + "    " +
			t.ShortcutKey.Render("s") + " " + t.ShortcutDesc.Render("create an account"),
	}
	box := t.FormBox.Render(lipgloss.JoinVertical(lipgloss.Center, lines...))
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, box)
}

func (m *Model) viewForm(screen Screen, width, height int) string {
	t := m.theme
	signup := screen == ScreenSignup
	title := "Log in"
	labels := []string{"Username", "Password"}
	if signup {
		title = "Create account"
		labels = append(labels, "Confirm")
	}

	rows := []string{t.FormTitle.Render(title), ""}
	for i, label := range labels {
		rows = append(rows, t.InputLabel.Render(label), m.form.inputs[i].View(), "")
	}

	button := t.Button
	if m.form.focus == len(labels)-1 {
		button = t.ButtonActive
	}
	action := title
	if m.form.busy {
		action = m.spinner.View() + " Working..."
	}
	rows = append(rows, button.Render(action))

	if m.form.err != "" {
		rows = append(rows, "", t.ErrorText.Render(m.form.err))
	}

	box := t.FormBox.Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, box)
}
