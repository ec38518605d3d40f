// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package app

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/jeranaias/sentinel-tui/internal/api"
	"github.com/jeranaias/sentinel-tui/internal/correlation"
	"github.com/jeranaias/sentinel-tui/internal/ui/components"
	"github.com/jeranaias/sentinel-tui/internal/ui/styles"
	"github.com/jeranaias/sentinel-tui/internal/util"
)

// =============================================================================
// INVESTIGATION SCREEN
// =============================================================================

const (
	colMarker = iota
	colTime
	colSource
	colMethod
	colURL
	colStatus
	colAttack
	colResult
)

func newEventTable() components.Table {
	return components.NewTable([]components.Column{
		{Title: "", Width: 1},
		{Title: "Time", Width: 19},
		{Title: "Source", Width: 15},
		{Title: "Method", Width: 6},
		{Title: "URL", Width: 30},
		{Title: "Code", Width: 4},
		{Title: "Attack", Width: 14},
		{Title: "Result", Width: 7},
	})
}

func (m *Model) events() []api.Event {
	if m.overview == nil {
		return nil
	}
	return m.overview.Events
}

func (m *Model) handleInvestigateKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	events := m.events()
	page := max(m.table.Height, 1)

	switch {
	case key.Matches(msg, m.keys.Up):
		m.moveCursor(-1)
	case key.Matches(msg, m.keys.Down):
		m.moveCursor(1)
	case key.Matches(msg, m.keys.PageUp):
		m.moveCursor(-page)
	case key.Matches(msg, m.keys.PageDown):
		m.moveCursor(page)
	case key.Matches(msg, m.keys.Payload):
		m.showPayload = !m.showPayload
	case key.Matches(msg, m.keys.Select):
		if m.cursor < 0 || m.cursor >= len(events) {
			return m, nil
		}
		ev := events[m.cursor]
		m.logger.Debug("investigate", zap.String("event_id", ev.EventID), zap.String("source_ip", ev.SourceIP))
		return m, m.corr.Select(ev)
	}
	return m, nil
}

func (m *Model) moveCursor(delta int) {
	n := len(m.events())
	if n == 0 {
		m.cursor = 0
		return
	}
	m.cursor = min(max(m.cursor+delta, 0), n-1)
	m.table.ScrollTo(m.cursor)
}

func (m *Model) viewInvestigate(width, height int) string {
	t := m.theme
	events := m.events()

	if m.overview == nil {
		return m.spinner.View() + " Loading events..."
	}
	if m.overview.EventsErr != nil {
		return t.ErrorBox.Render("Events unavailable: " + api.UserMessage(m.overview.EventsErr))
	}
	if len(events) == 0 {
		return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center,
			t.Muted.Render("No events yet. Press 3 to upload a log file."))
	}

	sel := m.corr.Selection()
	tableHeight := max(height/2-2, 3)
	m.table.Height = tableHeight
	m.table.Selected = m.cursor
	m.table.ScrollTo(m.cursor)
	m.table.Rows = eventRows(events, sel)
	m.table.CellStyle = func(row, col int, padded string) string {
		if col == colAttack {
			return lipgloss.NewStyle().Foreground(styles.AttackColor(events[row].AttackType)).Render(padded)
		}
		if col == colResult && events[row].IsSuccessful && !styles.IsBenign(events[row].AttackType) {
			return t.TotalsCrit.Render(padded)
		}
		return padded
	}

	start, end := m.table.VisibleRange()
	position := t.Muted.Render(fmt.Sprintf("%d-%d of %d", start+1, end, len(events)))
	list := lipgloss.JoinVertical(lipgloss.Left, m.table.Render(t), position)

	if sel.Empty() {
		hint := t.Muted.Render("Select an event with Enter to see why it was flagged and what else its source did.")
		return lipgloss.JoinVertical(lipgloss.Left, list, "", hint)
	}

	detailWidth := width - 4
	half := detailWidth
	if width >= 120 {
		half = detailWidth/2 - 2
	}
	explain := m.panel("Why it was flagged", m.viewExplanation(sel, half-4), half)
	story := m.panel("Source storyline: "+sel.Event.SourceIP, m.viewStoryline(sel, half-4), half)

	var details string
	if width >= 120 {
		details = lipgloss.JoinHorizontal(lipgloss.Top, explain, " ", story)
	} else {
		details = lipgloss.JoinVertical(lipgloss.Left, explain, story)
	}
	return lipgloss.JoinVertical(lipgloss.Left, list, details)
}

func eventRows(events []api.Event, sel correlation.Selection) [][]string {
	rows := make([][]string, len(events))
	for i, ev := range events {
		marker := ""
		if sel.Event != nil && sel.Event.EventID == ev.EventID {
			marker = ">"
		}
		rows[i] = []string{
			marker,
			formatTime(ev.Timestamp),
			ev.SourceIP,
			ev.Method,
			ev.URL,
			strconv.Itoa(ev.StatusCode),
			attackLabel(ev.AttackType),
			resultLabel(ev),
		}
	}
	return rows
}

func (m *Model) viewExplanation(sel correlation.Selection, width int) string {
	t := m.theme
	slot := sel.Explanation
	switch {
	case slot.Loading():
		return m.spinner.View() + " Loading explanation..."
	case slot.Failed():
		return t.ErrorText.Render(api.UserMessage(slot.Err))
	}
	exp, ok := slot.Get()
	if !ok || exp == nil {
		return ""
	}

	var b strings.Builder
	if exp.Source() == api.SourceRule {
		b.WriteString(t.RuleBadge.Render("RULE-BACKED"))
	} else {
		b.WriteString(t.ModelBadge.Render("MODEL ONLY"))
	}
	attack := exp.AttackType
	if attack == "" {
		attack = sel.Event.AttackType
	}
	b.WriteString("  " + styles.RenderAttack(attackLabel(attack), sel.Event.IsSuccessful))
	b.WriteString("  " + t.Label.Render("confidence ") + t.Value.Render(components.FormatConfidence(exp.Confidence)))
	b.WriteString("\n")

	if cats := exp.Categories(); len(cats) > 0 {
		b.WriteString("\n" + t.Label.Render("Rule hits") + "\n")
		for _, cat := range cats {
			color := lipgloss.NewStyle().Foreground(styles.AttackColor(cat))
			b.WriteString("  " + color.Render(cat) + ": " + t.RuleName.Render(strings.Join(exp.RuleHits[cat], ", ")) + "\n")
		}
	} else {
		b.WriteString("\n" + t.Muted.Render("No signature rule matched; this verdict is the model's alone.") + "\n")
	}

	if len(exp.Factors) > 0 {
		b.WriteString("\n" + t.Label.Render("Factors") + "\n")
		for _, f := range exp.Factors {
			b.WriteString("  - " + util.TruncateWidth(f, width-4) + "\n")
		}
	}

	if snippet, ok := exp.Snippet(); ok {
		if m.showPayload {
			block := components.NewPayloadBlock(attack, snippet)
			block.MaxWidth = width
			block.Profile = t.ColorProfile
			b.WriteString("\n" + block.Render(t))
		} else {
			b.WriteString("\n" + t.Muted.Render("Payload hidden (p to show)"))
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

func (m *Model) viewStoryline(sel correlation.Selection, width int) string {
	t := m.theme
	slot := sel.Storyline
	switch {
	case slot.Loading():
		return m.spinner.View() + " Loading storyline..."
	case slot.Failed():
		return t.ErrorText.Render(api.UserMessage(slot.Err))
	}
	events, _ := slot.Get()
	if len(events) == 0 {
		return t.Muted.Render("No other events from this source")
	}

	urlWidth := max(width-45, 10)
	lines := make([]string, 0, len(events)+1)
	lines = append(lines, t.Muted.Render(fmt.Sprintf("%d events", len(events))))
	for _, ev := range events {
		line := fmt.Sprintf("%s %s %s %s",
			formatTime(ev.Timestamp),
			util.PadWidth(ev.Method, 6),
			util.PadWidth(ev.URL, urlWidth),
			styles.RenderAttack(attackLabel(ev.AttackType), ev.IsSuccessful),
		)
		if ev.EventID == sel.Event.EventID {
			line = t.TableRowSelected.Render("> " + line)
		} else {
			line = "  " + line
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

func formatTime(ts api.Timestamp) string {
	if ts.IsZero() {
		return "-"
	}
	return ts.Local().Format("2006-01-02 15:04:05")
}

func attackLabel(attackType string) string {
	if attackType == "" {
		return "Unknown"
	}
	return attackType
}

func resultLabel(ev api.Event) string {
	if styles.IsBenign(ev.AttackType) {
		return "-"
	}
	if ev.IsSuccessful {
		return "SUCCESS"
	}
	return "blocked"
}
