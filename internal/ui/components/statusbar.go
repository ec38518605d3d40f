// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/sentinel-tui/internal/ui/styles"
)

// =============================================================================
// STATUS BAR COMPONENT
// =============================================================================

// StatusBar is the bottom line: a message on the left, shortcuts on the
// right.
type StatusBar struct {
	Message string
	IsError bool
	Keys    []key.Binding
	Width   int
}

// Render draws the bar. Shortcuts that do not fit are dropped from the end.
func (s StatusBar) Render(theme *styles.Theme) string {
	msg := s.Message
	if s.IsError && msg != "" {
		msg = theme.ErrorText.Render(styles.StatusIndicators.Error + " " + msg)
	}

	budget := s.Width - lipgloss.Width(msg) - 4
	var shortcuts []string
	used := 0
	for _, k := range s.Keys {
		if !k.Enabled() {
			continue
		}
		help := k.Help()
		item := theme.ShortcutKey.Render(help.Key) + " " + theme.ShortcutDesc.Render(help.Desc)
		w := lipgloss.Width(item) + 2
		if used+w > budget {
			break
		}
		shortcuts = append(shortcuts, item)
		used += w
	}
	right := strings.Join(shortcuts, "  ")

	gap := s.Width - lipgloss.Width(msg) - lipgloss.Width(right) - 2
	if gap < 1 {
		gap = 1
	}
	return theme.StatusBar.Render(msg + strings.Repeat(" ", gap) + right)
}
