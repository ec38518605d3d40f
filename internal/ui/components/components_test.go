// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"
	"testing"

	"github.com/charmbracelet/bubbles/key"
	"github.com/muesli/termenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/sentinel-tui/internal/ui/styles"
)

func TestFormatNumber(t *testing.T) {
	tests := []struct {
		in   int
		want string
	}{
		{0, "0"},
		{999, "999"},
		{1000, "1,000"},
		{12345, "12,345"},
		{1234567, "1,234,567"},
		{-4200, "-4,200"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatNumber(tt.in), "FormatNumber(%d)", tt.in)
	}
}

func TestFormatPercentAndConfidence(t *testing.T) {
	assert.Equal(t, "50.0%", FormatPercent(0.5))
	assert.Equal(t, "0.0%", FormatPercent(0))
	assert.Equal(t, "93%", FormatConfidence(0.93))
	assert.Equal(t, "100%", FormatConfidence(1.7))
	assert.Equal(t, "0%", FormatConfidence(-1))
}

func TestLanguageFor(t *testing.T) {
	assert.Equal(t, "sql", LanguageFor("SQLi"))
	assert.Equal(t, "html", LanguageFor("XSS"))
	assert.Equal(t, "bash", LanguageFor("CmdInjection"))
	assert.Equal(t, "bash", LanguageFor("command_injection"))
	assert.Equal(t, "plaintext", LanguageFor("Traversal"))
	assert.Equal(t, "plaintext", LanguageFor(""))
}

func TestHighlightPayload(t *testing.T) {
	code := "id=1 UNION SELECT password FROM users"

	assert.Equal(t, code, HighlightPayload("SQLi", code, termenv.Ascii), "no color profile leaves code untouched")

	out := HighlightPayload("SQLi", code, termenv.ANSI256)
	assert.Contains(t, out, "\x1b[")
	assert.Contains(t, out, "SELECT")
}

func TestPayloadBlock_Render(t *testing.T) {
	theme := styles.NewTheme("dark")
	block := PayloadBlock{
		AttackType: "XSS",
		Code:       strings.Repeat("<script>alert(1)</script>\n", 20),
		MaxWidth:   60,
		MaxLines:   3,
		Profile:    termenv.Ascii,
	}
	out := block.Render(theme)
	assert.Contains(t, out, "html")
	assert.Equal(t, 3, strings.Count(out, "<script>"))
	assert.Contains(t, out, "...")
}

func TestTable_Render(t *testing.T) {
	theme := styles.NewTheme("dark")
	table := NewTable([]Column{{Title: "IP", Width: 8}, {Title: "URL", Width: 10}})
	table.Rows = [][]string{
		{"10.0.0.1", "/index.php?id=1"},
		{"10.0.0.2", "/"},
	}
	table.Selected = 1

	out := table.Render(theme)
	lines := strings.Split(out, "\n")
	require.GreaterOrEqual(t, len(lines), 3)
	assert.Contains(t, out, "IP")
	assert.Contains(t, out, "/index...")
	assert.NotContains(t, out, "/index.php?id=1")
}

func TestTable_Scrolling(t *testing.T) {
	table := NewTable([]Column{{Title: "N", Width: 3}})
	for i := 0; i < 10; i++ {
		table.Rows = append(table.Rows, []string{FormatNumber(i)})
	}
	table.Height = 3

	start, end := table.VisibleRange()
	assert.Equal(t, 0, start)
	assert.Equal(t, 3, end)

	table.ScrollTo(5)
	start, end = table.VisibleRange()
	assert.Equal(t, 3, start)
	assert.Equal(t, 6, end)

	table.ScrollTo(1)
	start, _ = table.VisibleRange()
	assert.Equal(t, 1, start)
}

func TestTable_CellStyleSkipsSelected(t *testing.T) {
	theme := styles.NewTheme("dark")
	table := NewTable([]Column{{Title: "A", Width: 4}})
	table.Rows = [][]string{{"one"}, {"two"}}
	table.Selected = 0
	var styled []int
	table.CellStyle = func(row, col int, padded string) string {
		styled = append(styled, row)
		return padded
	}
	table.Render(theme)
	assert.Equal(t, []int{1}, styled)
}

func TestBar(t *testing.T) {
	assert.Equal(t, "", Bar(0, 10, 20))
	assert.Equal(t, "", Bar(5, 0, 20))
	assert.Equal(t, strings.Repeat("█", 10), Bar(5, 10, 20))
	assert.Equal(t, "█", Bar(1, 1000, 20), "non-zero values stay visible")
	assert.Equal(t, strings.Repeat("█", 20), Bar(50, 10, 20))
}

func TestHeaderAndStatusBar(t *testing.T) {
	theme := styles.NewTheme("dark")

	header := Header{Brand: "sentinel", Tabs: []string{"Overview", "Investigate"}, Active: 1, User: "analyst", Width: 80}
	out := header.Render(theme)
	assert.Contains(t, out, "sentinel")
	assert.Contains(t, out, "Investigate")
	assert.Contains(t, out, "analyst")

	quit := key.NewBinding(key.WithKeys("q"), key.WithHelp("q", "quit"))
	bar := StatusBar{Message: "could not reach server", IsError: true, Keys: []key.Binding{quit}, Width: 80}
	out = bar.Render(theme)
	assert.Contains(t, out, "could not reach server")
	assert.Contains(t, out, "quit")
}
