// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package app

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/sentinel-tui/internal/api"
	"github.com/jeranaias/sentinel-tui/internal/ui/components"
	"github.com/jeranaias/sentinel-tui/internal/util"
)

// =============================================================================
// OVERVIEW SCREEN
// =============================================================================

func (m *Model) viewOverview(width, height int) string {
	ov := m.overview
	if ov == nil {
		msg := m.spinner.View() + " Loading overview..."
		return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, m.theme.Muted.Render(msg))
	}

	cards := m.viewTotals(width)

	panelWidth := width - 4
	half := panelWidth
	if width >= 100 {
		half = panelWidth/2 - 2
	}
	top := m.panel("Top sources", m.viewTopIPs(half-4), half)
	timeline := m.panel("Timeline", m.viewTimeline(half-4, height-10), half)

	var panels string
	if width >= 100 {
		panels = lipgloss.JoinHorizontal(lipgloss.Top, top, " ", timeline)
	} else {
		panels = lipgloss.JoinVertical(lipgloss.Left, top, timeline)
	}

	footer := ""
	if m.overviewLoading {
		footer = m.spinner.View() + " refreshing"
	} else if !ov.LoadedAt.IsZero() {
		footer = "updated " + ov.LoadedAt.Local().Format("15:04:05")
	}
	if ov.EventsErr != nil {
		footer += "  events: " + api.UserMessage(ov.EventsErr)
	}

	return lipgloss.JoinVertical(lipgloss.Left, cards, panels, m.theme.Muted.Render(footer))
}

// viewTotals renders the three headline numbers derived from the timeline.
func (m *Model) viewTotals(width int) string {
	t := m.theme
	ov := m.overview
	if ov.TimelineErr != nil {
		return t.ErrorBox.Render("Totals unavailable: " + api.UserMessage(ov.TimelineErr))
	}

	card := func(label, value string) string {
		return t.Panel.Width(max(width/3-4, 14)).Render(t.TotalsLabel.Render(label) + "\n" + value)
	}
	totals := ov.Totals
	return lipgloss.JoinHorizontal(lipgloss.Top,
		card("Total events", t.TotalsValue.Render(components.FormatNumber(totals.Total))),
		card("Blocked", t.TotalsBlocked.Render(components.FormatNumber(totals.Blocked))),
		card("Successful", t.TotalsCrit.Render(components.FormatNumber(totals.Critical))+
			t.Muted.Render(" "+components.FormatPercent(totals.SuccessRate()))),
	)
}

func (m *Model) viewTopIPs(width int) string {
	t := m.theme
	ov := m.overview
	if ov.TopIPsErr != nil {
		return t.ErrorText.Render(api.UserMessage(ov.TopIPsErr))
	}
	if len(ov.TopIPs) == 0 {
		return t.Muted.Render("No sources yet")
	}

	peak := 0
	for _, e := range ov.TopIPs {
		peak = max(peak, e.Count)
	}
	barWidth := max(width-30, 5)

	lines := make([]string, 0, len(ov.TopIPs))
	for _, e := range ov.TopIPs {
		lines = append(lines, fmt.Sprintf("%s %s %s",
			util.PadWidth(e.IP, 18),
			fmt.Sprintf("%6s", components.FormatNumber(e.Count)),
			t.BarAttempt.Render(components.Bar(e.Count, peak, barWidth)),
		))
	}
	return strings.Join(lines, "\n")
}

func (m *Model) viewTimeline(width, height int) string {
	t := m.theme
	ov := m.overview
	if ov.TimelineErr != nil {
		return t.ErrorText.Render(api.UserMessage(ov.TimelineErr))
	}
	if len(ov.Timeline) == 0 {
		return t.Muted.Render("No activity yet")
	}

	peak := 0
	for _, b := range ov.Timeline {
		peak = max(peak, b.Attempt, b.Success)
	}
	barWidth := max((width-34)/2, 4)

	table := components.NewTable([]components.Column{
		{Title: "Time", Width: 16},
		{Title: "Blocked", Width: 7},
		{Title: "Success", Width: 7},
		{Title: "", Width: barWidth*2 + 1},
	})
	for _, b := range ov.Timeline {
		bar := util.PadWidth(components.Bar(b.Attempt, peak, barWidth), barWidth) + " " +
			components.Bar(b.Success, peak, barWidth)
		table.Rows = append(table.Rows, []string{
			b.Time,
			components.FormatNumber(b.Attempt),
			components.FormatNumber(b.Success),
			bar,
		})
	}
	if height > 2 && len(table.Rows) > height-2 {
		// Show the most recent buckets.
		table.Height = height - 2
		table.Offset = len(table.Rows) - table.Height
	}
	table.CellStyle = func(row, col int, padded string) string {
		if col != 3 {
			return padded
		}
		attempt := []rune(padded)
		if len(attempt) <= barWidth {
			return t.BarAttempt.Render(padded)
		}
		return t.BarAttempt.Render(string(attempt[:barWidth])) + t.BarSuccess.Render(string(attempt[barWidth:]))
	}
	return table.Render(t)
}

// panel frames content with a title.
func (m *Model) panel(title, content string, width int) string {
	return m.theme.Panel.Width(width).Render(m.theme.PanelTitle.Render(title) + "\n" + content)
}
