// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package styles provides the visual styling system for the sentinel TUI.
// All colors use Lip Gloss AdaptiveColor for automatic light/dark detection.
package styles

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// =============================================================================
// PRIMARY ACCENT COLORS
// =============================================================================

// Purple - Primary accent, selections, focused panels
var Purple = lipgloss.AdaptiveColor{Light: "#7C3AED", Dark: "#A78BFA"}

// Cyan - Brand color, info, headers
var Cyan = lipgloss.AdaptiveColor{Light: "#0891B2", Dark: "#22D3EE"}

// Emerald - Blocked attempts, healthy states
var Emerald = lipgloss.AdaptiveColor{Light: "#059669", Dark: "#34D399"}

// =============================================================================
// SEMANTIC COLORS
// =============================================================================

// Rose - Successful attacks, errors
var Rose = lipgloss.AdaptiveColor{Light: "#E11D48", Dark: "#FB7185"}

// Amber - Warnings, model-only verdicts
var Amber = lipgloss.AdaptiveColor{Light: "#D97706", Dark: "#FBBF24"}

// =============================================================================
// SURFACE COLORS
// =============================================================================

// Surface - Main background
var Surface = lipgloss.AdaptiveColor{Light: "#FFFFFF", Dark: "#1E1E2E"}

// SurfaceDim - Headers and footers
var SurfaceDim = lipgloss.AdaptiveColor{Light: "#F5F5F5", Dark: "#181825"}

// Overlay - Borders and separators
var Overlay = lipgloss.AdaptiveColor{Light: "#E5E5E5", Dark: "#313244"}

// OverlayDim - Badge backgrounds
var OverlayDim = lipgloss.AdaptiveColor{Light: "#D4D4D4", Dark: "#45475A"}

// SelectionBg - Highlighted table row
var SelectionBg = lipgloss.AdaptiveColor{Light: "#BFDBFE", Dark: "#1E3A5F"}

// =============================================================================
// TEXT COLORS
// =============================================================================

// TextPrimary - Main body text
var TextPrimary = lipgloss.AdaptiveColor{Light: "#1F2937", Dark: "#CDD6F4"}

// TextSecondary - Labels
var TextSecondary = lipgloss.AdaptiveColor{Light: "#6B7280", Dark: "#A6ADC8"}

// TextMuted - Hints and timestamps
var TextMuted = lipgloss.AdaptiveColor{Light: "#9CA3AF", Dark: "#6C7086"}

// TextInverse - Text on colored backgrounds
var TextInverse = lipgloss.AdaptiveColor{Light: "#FFFFFF", Dark: "#1E1E2E"}

// =============================================================================
// ATTACK CATEGORIES
// =============================================================================

// Attack category colors (Catppuccin Latte/Mocha).
var (
	AttackSQLi          = lipgloss.AdaptiveColor{Light: "#D20F39", Dark: "#F38BA8"} // Red
	AttackXSS           = lipgloss.AdaptiveColor{Light: "#FE640B", Dark: "#FAB387"} // Peach
	AttackTraversal     = lipgloss.AdaptiveColor{Light: "#DF8E1D", Dark: "#F9E2AF"} // Yellow
	AttackSSRF          = lipgloss.AdaptiveColor{Light: "#8839EF", Dark: "#CBA6F7"} // Mauve
	AttackCmdInjection  = lipgloss.AdaptiveColor{Light: "#E64553", Dark: "#EBA0AC"} // Maroon
	AttackTyposquatting = lipgloss.AdaptiveColor{Light: "#EA76CB", Dark: "#F5C2E7"} // Pink
	AttackNormal        = TextSecondary
	AttackUnknown       = lipgloss.AdaptiveColor{Light: "#04A5E5", Dark: "#89DCEB"} // Sky
)

// AttackColor returns the color for an attack category. Matching ignores
// case and separators, so "cmd_injection" and "CmdInjection" agree.
func AttackColor(attackType string) lipgloss.AdaptiveColor {
	switch normalizeAttack(attackType) {
	case "sqli", "sqlinjection":
		return AttackSQLi
	case "xss":
		return AttackXSS
	case "traversal", "pathtraversal":
		return AttackTraversal
	case "ssrf":
		return AttackSSRF
	case "cmdinjection", "commandinjection":
		return AttackCmdInjection
	case "typosquatting":
		return AttackTyposquatting
	case "normal", "":
		return AttackNormal
	default:
		return AttackUnknown
	}
}

func normalizeAttack(attackType string) string {
	return strings.NewReplacer("_", "", "-", "", " ", "").Replace(strings.ToLower(attackType))
}

// IsBenign reports whether the category marks a non-attack.
func IsBenign(attackType string) bool {
	n := normalizeAttack(attackType)
	return n == "normal" || n == ""
}

// =============================================================================
// ACCESSIBILITY: Shapes alongside colors
// =============================================================================

// StatusIndicatorSet contains text indicators for status states.
type StatusIndicatorSet struct {
	Success string
	Error   string
	Warning string
	Info    string
	Pending string
	Active  string
}

// StatusIndicators are ASCII-only so they survive any terminal.
var StatusIndicators = StatusIndicatorSet{
	Success: "[OK]",
	Error:   "[X]",
	Warning: "[!]",
	Info:    "[i]",
	Pending: "[ ]",
	Active:  "[*]",
}

// High contrast status colors.
var (
	SuccessHighContrast = lipgloss.AdaptiveColor{Light: "#15803D", Dark: "#22C55E"}
	ErrorHighContrast   = lipgloss.AdaptiveColor{Light: "#DC2626", Dark: "#EF4444"}
	WarningHighContrast = lipgloss.AdaptiveColor{Light: "#D97706", Dark: "#F59E0B"}
	InfoHighContrast    = lipgloss.AdaptiveColor{Light: "#2563EB", Dark: "#3B82F6"}
)

// RenderSuccess renders a success message with its indicator.
func RenderSuccess(message string) string {
	return lipgloss.NewStyle().Foreground(SuccessHighContrast).Bold(true).
		Render(StatusIndicators.Success + " " + message)
}

// RenderError renders an error message with its indicator.
func RenderError(message string) string {
	return lipgloss.NewStyle().Foreground(ErrorHighContrast).Bold(true).
		Render(StatusIndicators.Error + " " + message)
}

// RenderWarning renders a warning message with its indicator.
func RenderWarning(message string) string {
	return lipgloss.NewStyle().Foreground(WarningHighContrast).Bold(true).
		Render(StatusIndicators.Warning + " " + message)
}

// RenderInfo renders an info message with its indicator.
func RenderInfo(message string) string {
	return lipgloss.NewStyle().Foreground(InfoHighContrast).Bold(true).
		Render(StatusIndicators.Info + " " + message)
}

// RenderPending renders a loading placeholder with its indicator.
func RenderPending(message string) string {
	return lipgloss.NewStyle().Foreground(TextMuted).Italic(true).
		Render(StatusIndicators.Pending + " " + message)
}

// RenderAttack renders an attack category in its color. Successful attacks
// are bold.
func RenderAttack(attackType string, successful bool) string {
	label := attackType
	if label == "" {
		label = "Unknown"
	}
	style := lipgloss.NewStyle().Foreground(AttackColor(attackType))
	if successful && !IsBenign(attackType) {
		style = style.Bold(true)
	}
	return style.Render(label)
}
