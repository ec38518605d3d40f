// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// stats_cmd.go - The "stats" command: the overview screen as text.

package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/jeranaias/sentinel-tui/internal/api"
	"github.com/jeranaias/sentinel-tui/internal/dashboard"
	"github.com/jeranaias/sentinel-tui/internal/ui/components"
	"github.com/jeranaias/sentinel-tui/internal/util"
)

// HandleStats loads events, timeline and top sources concurrently. A panel
// that fails is reported inline; the command fails only when all do.
func HandleStats(ctx context.Context, env *Env) error {
	p := env.Args.Parser()
	limit, err := env.limitFlag(p)
	if err != nil {
		return err
	}
	top, err := p.FlagInt("top", env.Config.Events.TopIPLimit)
	if err != nil {
		return err
	}
	if _, err := env.RequireSession(ctx, "GET /stats/timeline"); err != nil {
		return err
	}

	ov := dashboard.LoadOverview(ctx, env.Client, dashboard.Options{
		Events:     api.EventQuery{Limit: limit},
		TopIPLimit: top,
	}, env.Logger)
	if ov.Failed() {
		return env.checkSession(ov.FirstErr())
	}

	data := StatsData{
		Totals:        ov.Totals,
		SuccessRate:   ov.Totals.SuccessRate(),
		Timeline:      ov.Timeline,
		TimelineError: errString(ov.TimelineErr),
		TopIPs:        ov.TopIPs,
		TopIPsError:   errString(ov.TopIPsErr),
		RecentEvents:  len(ov.Events),
		EventsError:   errString(ov.EventsErr),
	}
	return env.output("stats", data, func() {
		printStats(env.IO.Out, ov)
	})
}

func printStats(w io.Writer, ov *dashboard.Overview) {
	fmt.Fprintln(w, TitleStyle.Render("Overview"))

	if ov.TimelineErr != nil {
		fmt.Fprintf(w, "%s %s\n", RenderStatus("error"), api.UserMessage(ov.TimelineErr))
	} else {
		fmt.Fprintf(w, "%s%s\n", RenderLabel("Total events:"), ValueStyle.Render(components.FormatNumber(ov.Totals.Total)))
		fmt.Fprintf(w, "%s%s\n", RenderLabel("Blocked:"), SuccessStyle.Render(components.FormatNumber(ov.Totals.Blocked)))
		fmt.Fprintf(w, "%s%s (%s)\n", RenderLabel("Successful:"),
			ErrorStyle.Render(components.FormatNumber(ov.Totals.Critical)),
			components.FormatPercent(ov.Totals.SuccessRate()))
	}

	if ov.EventsErr != nil {
		fmt.Fprintf(w, "%s %s\n", RenderStatus("error"), api.UserMessage(ov.EventsErr))
	} else {
		fmt.Fprintf(w, "%s%s\n", RenderLabel("Recent events:"), ValueStyle.Render(components.FormatNumber(len(ov.Events))))
	}

	fmt.Fprintln(w, SectionStyle.Render("Top sources"))
	switch {
	case ov.TopIPsErr != nil:
		fmt.Fprintf(w, "%s %s\n", RenderStatus("error"), api.UserMessage(ov.TopIPsErr))
	case len(ov.TopIPs) == 0:
		fmt.Fprintln(w, DimStyle.Render("No sources yet."))
	default:
		most := ov.TopIPs[0].Count
		for _, entry := range ov.TopIPs {
			most = max(most, entry.Count)
		}
		for _, entry := range ov.TopIPs {
			fmt.Fprintf(w, "  %s %7s  %s\n",
				util.PadWidth(entry.IP, 15),
				components.FormatNumber(entry.Count),
				WarningStyle.Render(components.Bar(entry.Count, most, 30)))
		}
	}

	if ov.TimelineErr == nil {
		fmt.Fprintln(w, SectionStyle.Render("Timeline"))
		if len(ov.Timeline) == 0 {
			fmt.Fprintln(w, DimStyle.Render("No activity yet."))
		}
		peak := 0
		for _, b := range ov.Timeline {
			peak = max(peak, b.Attempt, b.Success)
		}
		for _, b := range ov.Timeline {
			fmt.Fprintf(w, "  %s %6s %s %s\n",
				util.PadWidth(b.Time, 16),
				components.FormatNumber(b.Attempt),
				InfoStyle.Render(util.PadWidth(components.Bar(b.Attempt, peak, 24), 24)),
				ErrorStyle.Render(components.Bar(b.Success, peak, 24)))
		}
	}
}
