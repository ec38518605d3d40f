// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	chromaStyles "github.com/alecthomas/chroma/v2/styles"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/jeranaias/sentinel-tui/internal/ui/styles"
	"github.com/jeranaias/sentinel-tui/internal/util"
)

// =============================================================================
// PAYLOAD BLOCK RENDERER
// =============================================================================

// PayloadBlock is a highlighted payload excerpt.
type PayloadBlock struct {
	AttackType string
	Code       string
	MaxWidth   int
	MaxLines   int
	Profile    termenv.Profile
}

// NewPayloadBlock creates a payload block using the terminal's color profile.
func NewPayloadBlock(attackType, code string) PayloadBlock {
	return PayloadBlock{
		AttackType: attackType,
		Code:       code,
		MaxWidth:   80,
		MaxLines:   12,
		Profile:    termenv.ColorProfile(),
	}
}

// Render renders the block inside the theme's code box with a language badge.
func (p PayloadBlock) Render(theme *styles.Theme) string {
	code := strings.TrimRight(p.Code, "\n")
	lines := strings.Split(code, "\n")
	truncated := false
	if p.MaxLines > 0 && len(lines) > p.MaxLines {
		lines = lines[:p.MaxLines]
		truncated = true
	}

	inner := p.MaxWidth - 4
	if inner < 20 {
		inner = 20
	}
	for i, line := range lines {
		lines[i] = util.TruncateWidth(line, inner)
	}

	body := HighlightPayload(p.AttackType, strings.Join(lines, "\n"), p.Profile)
	if truncated {
		body += "\n" + theme.Muted.Render("...")
	}

	badge := theme.CodeBadge.Render(LanguageFor(p.AttackType))
	return theme.CodeBlock.MaxWidth(p.MaxWidth).Render(badge + "\n" + body)
}

// =============================================================================
// SYNTAX HIGHLIGHTING (Chroma-based)
// =============================================================================

// LanguageFor picks the lexer that best fits a payload of the given attack
// category.
func LanguageFor(attackType string) string {
	n := strings.NewReplacer("_", "", "-", "", " ", "").Replace(strings.ToLower(attackType))
	switch n {
	case "sqli", "sqlinjection":
		return "sql"
	case "xss":
		return "html"
	case "cmdinjection", "commandinjection":
		return "bash"
	default:
		return "plaintext"
	}
}

// HighlightPayload highlights code for the attack category. The Ascii
// profile and any highlighting failure return code unchanged.
func HighlightPayload(attackType, code string, profile termenv.Profile) string {
	name := formatterFor(profile)
	if name == "" {
		return code
	}
	return highlightCode(code, LanguageFor(attackType), name)
}

func formatterFor(profile termenv.Profile) string {
	switch profile {
	case termenv.TrueColor:
		return "terminal16m"
	case termenv.ANSI256:
		return "terminal256"
	case termenv.ANSI:
		return "terminal16"
	default:
		return ""
	}
}

func highlightCode(code, language, formatterName string) string {
	lexer := lexers.Get(language)
	if lexer == nil {
		lexer = lexers.Fallback
	}
	lexer = chroma.Coalesce(lexer)

	style := chromaStyles.Get("monokai")
	if style == nil {
		style = chromaStyles.Fallback
	}

	formatter := formatters.Get(formatterName)
	if formatter == nil {
		formatter = formatters.Fallback
	}

	iterator, err := lexer.Tokenise(nil, code)
	if err != nil {
		return code
	}

	var buf strings.Builder
	if err := formatter.Format(&buf, style, iterator); err != nil {
		return code
	}
	return strings.TrimRight(buf.String(), "\n")
}

// RenderInlineCode renders a short identifier with a subtle background.
func RenderInlineCode(code string) string {
	return lipgloss.NewStyle().
		Background(styles.SurfaceDim).
		Foreground(styles.Cyan).
		Padding(0, 1).
		Render(code)
}
