// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Theme holds all the styled components for the application.
type Theme struct {
	// Terminal capabilities
	IsDark       bool
	ColorProfile termenv.Profile

	// Layout dimensions
	Width  int
	Height int

	// ==========================================================================
	// APPLICATION CHROME
	// ==========================================================================

	App         lipgloss.Style
	Header      lipgloss.Style
	HeaderBrand lipgloss.Style
	HeaderUser  lipgloss.Style
	Tab         lipgloss.Style
	TabActive   lipgloss.Style

	// ==========================================================================
	// PANELS
	// ==========================================================================

	Panel        lipgloss.Style
	PanelFocused lipgloss.Style
	PanelTitle   lipgloss.Style

	// ==========================================================================
	// TABLES
	// ==========================================================================

	TableHeader      lipgloss.Style
	TableRow         lipgloss.Style
	TableRowSelected lipgloss.Style

	// ==========================================================================
	// TOTALS AND TIMELINE
	// ==========================================================================

	TotalsValue   lipgloss.Style
	TotalsLabel   lipgloss.Style
	TotalsBlocked lipgloss.Style
	TotalsCrit    lipgloss.Style
	BarAttempt    lipgloss.Style
	BarSuccess    lipgloss.Style

	// ==========================================================================
	// EXPLANATION
	// ==========================================================================

	RuleBadge  lipgloss.Style
	ModelBadge lipgloss.Style
	RuleName   lipgloss.Style
	CodeBlock  lipgloss.Style
	CodeBadge  lipgloss.Style

	// ==========================================================================
	// FORMS
	// ==========================================================================

	FormBox      lipgloss.Style
	FormTitle    lipgloss.Style
	InputLabel   lipgloss.Style
	Button       lipgloss.Style
	ButtonActive lipgloss.Style

	// ==========================================================================
	// TEXT AND STATUS
	// ==========================================================================

	Label        lipgloss.Style
	Value        lipgloss.Style
	Muted        lipgloss.Style
	ErrorText    lipgloss.Style
	ErrorBox     lipgloss.Style
	Spinner      lipgloss.Style
	StatusBar    lipgloss.Style
	ShortcutKey  lipgloss.Style
	ShortcutDesc lipgloss.Style
}

// NewTheme creates a theme. name is "dark", "light" or "auto"; auto keeps
// the terminal's own background detection.
func NewTheme(name string) *Theme {
	colorProfile := termenv.ColorProfile()

	isDark := termenv.HasDarkBackground()
	switch strings.ToLower(name) {
	case "dark":
		isDark = true
		lipgloss.SetHasDarkBackground(true)
	case "light":
		isDark = false
		lipgloss.SetHasDarkBackground(false)
	}

	t := &Theme{
		IsDark:       isDark,
		ColorProfile: colorProfile,
	}
	t.initStyles()
	return t
}

func (t *Theme) initStyles() {
	t.App = lipgloss.NewStyle().Padding(0, 1)

	// Chrome
	t.Header = lipgloss.NewStyle().
		Background(SurfaceDim).
		Padding(0, 1)
	t.HeaderBrand = lipgloss.NewStyle().
		Bold(true).
		Foreground(Cyan)
	t.HeaderUser = lipgloss.NewStyle().
		Foreground(TextSecondary)
	t.Tab = lipgloss.NewStyle().
		Foreground(TextMuted).
		Padding(0, 1)
	t.TabActive = lipgloss.NewStyle().
		Foreground(TextInverse).
		Background(Purple).
		Bold(true).
		Padding(0, 1)

	// Panels
	t.Panel = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(Overlay).
		Padding(0, 1)
	t.PanelFocused = t.Panel.
		BorderForeground(Purple)
	t.PanelTitle = lipgloss.NewStyle().
		Bold(true).
		Foreground(Cyan)

	// Tables
	t.TableHeader = lipgloss.NewStyle().
		Bold(true).
		Foreground(TextSecondary).
		BorderStyle(lipgloss.NormalBorder()).
		BorderBottom(true).
		BorderForeground(Overlay)
	t.TableRow = lipgloss.NewStyle().
		Foreground(TextPrimary)
	t.TableRowSelected = lipgloss.NewStyle().
		Foreground(TextPrimary).
		Background(SelectionBg).
		Bold(true)

	// Totals
	t.TotalsValue = lipgloss.NewStyle().
		Bold(true).
		Foreground(TextPrimary)
	t.TotalsLabel = lipgloss.NewStyle().
		Foreground(TextMuted)
	t.TotalsBlocked = lipgloss.NewStyle().
		Bold(true).
		Foreground(Emerald)
	t.TotalsCrit = lipgloss.NewStyle().
		Bold(true).
		Foreground(Rose)
	t.BarAttempt = lipgloss.NewStyle().
		Foreground(Cyan)
	t.BarSuccess = lipgloss.NewStyle().
		Foreground(Rose)

	// Explanation
	t.RuleBadge = lipgloss.NewStyle().
		Foreground(TextInverse).
		Background(Emerald).
		Bold(true).
		Padding(0, 1)
	t.ModelBadge = lipgloss.NewStyle().
		Foreground(TextInverse).
		Background(Amber).
		Bold(true).
		Padding(0, 1)
	t.RuleName = lipgloss.NewStyle().
		Foreground(Purple)
	t.CodeBlock = lipgloss.NewStyle().
		Background(SurfaceDim).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(Overlay).
		Padding(0, 1)
	t.CodeBadge = lipgloss.NewStyle().
		Foreground(TextMuted).
		Background(OverlayDim).
		Bold(true).
		Padding(0, 1)

	// Forms
	t.FormBox = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(Purple).
		Padding(1, 3)
	t.FormTitle = lipgloss.NewStyle().
		Bold(true).
		Foreground(Purple).
		MarginBottom(1)
	t.InputLabel = lipgloss.NewStyle().
		Foreground(TextSecondary).
		Width(10)
	t.Button = lipgloss.NewStyle().
		Foreground(TextSecondary).
		Background(Overlay).
		Padding(0, 2)
	t.ButtonActive = lipgloss.NewStyle().
		Foreground(TextInverse).
		Background(Purple).
		Bold(true).
		Padding(0, 2)

	// Text and status
	t.Label = lipgloss.NewStyle().
		Foreground(TextSecondary)
	t.Value = lipgloss.NewStyle().
		Foreground(TextPrimary)
	t.Muted = lipgloss.NewStyle().
		Foreground(TextMuted)
	t.ErrorText = lipgloss.NewStyle().
		Foreground(ErrorHighContrast).
		Bold(true)
	t.ErrorBox = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(Rose).
		Foreground(Rose).
		Padding(0, 1)
	t.Spinner = lipgloss.NewStyle().
		Foreground(Purple)
	t.StatusBar = lipgloss.NewStyle().
		Foreground(TextSecondary).
		Background(SurfaceDim).
		Padding(0, 1)
	t.ShortcutKey = lipgloss.NewStyle().
		Foreground(Cyan).
		Bold(true)
	t.ShortcutDesc = lipgloss.NewStyle().
		Foreground(TextMuted)
}

// SetSize updates the theme dimensions for responsive layouts.
func (t *Theme) SetSize(width, height int) {
	t.Width = width
	t.Height = height
}

// GetLayoutMode returns the current layout mode based on width.
func (t *Theme) GetLayoutMode() LayoutMode {
	if t.Width < 60 {
		return LayoutNarrow
	}
	if t.Width < 100 {
		return LayoutMedium
	}
	return LayoutWide
}

// LayoutMode represents the current responsive layout mode.
type LayoutMode int

const (
	LayoutNarrow LayoutMode = iota // < 60 columns
	LayoutMedium                   // 60-100 columns
	LayoutWide                     // > 100 columns
)
