// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/sentinel-tui/internal/ui/styles"
)

// Header is the top bar: brand, screen tabs and the signed-in user.
type Header struct {
	Brand  string
	Tabs   []string
	Active int
	User   string
	Width  int
}

// Render draws the header to Width columns.
func (h Header) Render(theme *styles.Theme) string {
	left := theme.HeaderBrand.Render(h.Brand)

	var tabs []string
	for i, tab := range h.Tabs {
		if i == h.Active {
			tabs = append(tabs, theme.TabActive.Render(tab))
		} else {
			tabs = append(tabs, theme.Tab.Render(tab))
		}
	}
	if len(tabs) > 0 {
		left += "  " + strings.Join(tabs, "")
	}

	right := ""
	if h.User != "" {
		right = theme.HeaderUser.Render(h.User)
	}

	gap := h.Width - lipgloss.Width(left) - lipgloss.Width(right) - 2
	if gap < 1 {
		gap = 1
	}
	return theme.Header.Render(left + strings.Repeat(" ", gap) + right)
}
