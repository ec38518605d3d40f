// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package app

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/jeranaias/sentinel-tui/internal/api"
	"github.com/jeranaias/sentinel-tui/internal/ui/styles"
)

// =============================================================================
// UPLOAD FORM
// =============================================================================

type uploadForm struct {
	path         textinput.Model
	keepExisting bool
	busy         bool
	confirmClear bool
	result       string
	err          string
}

func newUploadForm(theme *styles.Theme) uploadForm {
	ti := textinput.New()
	ti.Placeholder = "path/to/access.csv"
	ti.CharLimit = 1024
	ti.Width = 48
	ti.PromptStyle = theme.InputLabel
	return uploadForm{path: ti}
}

func (f *uploadForm) focus() tea.Cmd {
	return f.path.Focus()
}

func (f *uploadForm) blur() {
	f.path.Blur()
}

func (f *uploadForm) reset() {
	f.path.Reset()
	f.path.Blur()
	f.keepExisting = false
	f.busy = false
	f.confirmClear = false
	f.result = ""
	f.err = ""
}

func (f *uploadForm) done(message string) {
	f.path.Reset()
	f.result = message
	f.err = ""
}

func (f *uploadForm) update(msg tea.Msg) tea.Cmd {
	if f.busy {
		return nil
	}
	var cmd tea.Cmd
	f.path, cmd = f.path.Update(msg)
	return cmd
}

// expandPath resolves a leading "~/" against the home directory.
func expandPath(p string) string {
	p = strings.TrimSpace(p)
	if rest, ok := strings.CutPrefix(p, "~/"); ok {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, rest)
		}
	}
	return p
}

// =============================================================================
// KEYS
// =============================================================================

func (m *Model) handleUploadKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	f := &m.upload

	switch {
	case key.Matches(msg, m.keys.Back):
		f.confirmClear = false
		return m, m.switchTo(ScreenOverview)
	case f.busy:
		return m, nil
	case key.Matches(msg, m.keys.ToggleKeep):
		f.keepExisting = !f.keepExisting
		return m, nil
	case key.Matches(msg, m.keys.Clear):
		if !f.confirmClear {
			f.confirmClear = true
			f.err = ""
			f.result = ""
			return m, nil
		}
		f.confirmClear = false
		f.busy = true
		m.logger.Info("clearing all events")
		return m, clearCmd(m.backend)
	case key.Matches(msg, m.keys.Submit):
		return m, m.submitUpload()
	}

	f.confirmClear = false
	return m, f.update(msg)
}

func (m *Model) submitUpload() tea.Cmd {
	f := &m.upload
	f.confirmClear = false
	f.result = ""

	path := expandPath(f.path.Value())
	if path == "" {
		f.err = "Enter the path of a .csv or .json log file"
		return nil
	}
	if err := api.ValidateUploadName(path); err != nil {
		f.err = err.Error()
		return nil
	}
	info, err := os.Stat(path)
	if err != nil {
		f.err = "Cannot read " + path
		return nil
	}
	if info.IsDir() {
		f.err = path + " is a directory"
		return nil
	}

	f.err = ""
	f.busy = true
	m.logger.Info("uploading logs",
		zap.String("file", filepath.Base(path)),
		zap.Int64("bytes", info.Size()),
		zap.Bool("keep_existing", f.keepExisting),
	)
	return uploadCmd(m.backend, path, !f.keepExisting)
}

// =============================================================================
// VIEW
// =============================================================================

func (m *Model) viewUpload(width, height int) string {
	t := m.theme
	f := &m.upload

	mode := "Replace existing events"
	if f.keepExisting {
		mode = "Keep existing events"
	}

	rows := []string{
		t.FormTitle.Render("Upload access logs"),
		t.Muted.Render("CSV or JSON web server logs are classified on the server."),
		"",
		t.InputLabel.Render("File"),
		f.path.View(),
		"",
		t.Label.Render("Mode: ") + t.Value.Render(mode) + t.Muted.Render("  (tab to change)"),
		"",
	}

	switch {
	case f.busy:
		rows = append(rows, m.spinner.View()+" Working...")
	case f.confirmClear:
		rows = append(rows, t.ErrorText.Render("Delete ALL stored events? Press ctrl+x again to confirm."))
	case f.err != "":
		rows = append(rows, t.ErrorText.Render(f.err))
	case f.result != "":
		rows = append(rows, styles.RenderSuccess(f.result))
	default:
		rows = append(rows, t.ButtonActive.Render("Upload"))
	}

	box := t.FormBox.Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, box)
}
