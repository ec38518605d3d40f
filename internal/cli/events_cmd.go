// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// events_cmd.go - Event browsing and correlation: events, explain,
// storyline, investigate.
//
// Examples:
//   sentinel events --type SQLi --successful
//   sentinel events --ip 203.0.113.7 --limit 20 --json
//   sentinel explain 3f9c2a1e
//   sentinel storyline 203.0.113.7
//   sentinel investigate 3f9c2a1e --ip 203.0.113.7

package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/sentinel-tui/internal/api"
	"github.com/jeranaias/sentinel-tui/internal/correlation"
	"github.com/jeranaias/sentinel-tui/internal/ui/components"
	"github.com/jeranaias/sentinel-tui/internal/ui/styles"
	"github.com/jeranaias/sentinel-tui/internal/util"
)

// =============================================================================
// EVENTS
// =============================================================================

// HandleEvents lists a filtered page of events, oldest first.
func HandleEvents(ctx context.Context, env *Env) error {
	p := env.Args.Parser()

	limit, err := env.limitFlag(p)
	if err != nil {
		return err
	}
	offset, err := p.FlagInt("offset", 0)
	if err != nil {
		return err
	}
	successful, err := p.OptionalBool("successful")
	if err != nil {
		return err
	}

	q := api.EventQuery{
		Limit:        limit,
		Offset:       offset,
		SourceIP:     p.Flag("ip"),
		AttackType:   p.Flag("type"),
		IsSuccessful: successful,
	}
	if _, err := env.RequireSession(ctx, "GET /events"); err != nil {
		return err
	}
	events, err := env.Client.Events(ctx, q)
	if err != nil {
		return env.checkSession(err)
	}
	api.SortByTime(events)

	data := EventsData{Count: len(events), Offset: offset, Events: events}
	return env.output("events", data, func() {
		if len(events) == 0 {
			fmt.Fprintln(env.IO.Out, DimStyle.Render("No events match."))
			return
		}
		printEventTable(env.IO.Out, events)
		fmt.Fprintf(env.IO.Out, "\n%s\n", DimStyle.Render(fmt.Sprintf("%d events (offset %d)", len(events), offset)))
	})
}

// =============================================================================
// EXPLAIN
// =============================================================================

// HandleExplain shows why one event was classified the way it was.
func HandleExplain(ctx context.Context, env *Env) error {
	id := env.Args.Parser().Positional(0)
	if id == "" {
		return ErrMissingArgument("event-id", "sentinel explain <event-id>")
	}
	if _, err := env.RequireSession(ctx, "GET /explain/{event_id}"); err != nil {
		return err
	}

	exp, err := env.Client.Explain(ctx, id)
	if err != nil {
		return env.checkSession(err)
	}

	data := ExplainData{Explanation: exp, Verdict: exp.Source()}
	return env.output("explain", data, func() {
		fmt.Fprintln(env.IO.Out, TitleStyle.Render("Explanation for "+id))
		printExplanation(env.IO.Out, exp)
	})
}

// =============================================================================
// STORYLINE
// =============================================================================

// HandleStoryline lists every event from one source address, oldest first.
func HandleStoryline(ctx context.Context, env *Env) error {
	ip := env.Args.Parser().Positional(0)
	if ip == "" {
		return ErrMissingArgument("ip", "sentinel storyline <ip>")
	}
	if _, err := env.RequireSession(ctx, "GET /storyline/{source_ip}"); err != nil {
		return err
	}

	events, err := env.Client.Storyline(ctx, ip)
	if err != nil {
		return env.checkSession(err)
	}

	data := StorylineData{SourceIP: ip, Count: len(events), Events: events}
	return env.output("storyline", data, func() {
		fmt.Fprintln(env.IO.Out, TitleStyle.Render("Storyline for "+ip))
		printStoryline(env.IO.Out, events)
	})
}

// =============================================================================
// INVESTIGATE
// =============================================================================

// HandleInvestigate finds an event in the recent page and loads its
// explanation and storyline together. Each lookup fails on its own.
func HandleInvestigate(ctx context.Context, env *Env) error {
	p := env.Args.Parser()
	id := p.Positional(0)
	if id == "" {
		return ErrMissingArgument("event-id", "sentinel investigate <event-id> [--ip ADDR]")
	}
	limit, err := env.limitFlag(p)
	if err != nil {
		return err
	}
	if _, err := env.RequireSession(ctx, "GET /events"); err != nil {
		return err
	}

	events, err := env.Client.Events(ctx, api.EventQuery{Limit: limit, SourceIP: p.Flag("ip")})
	if err != nil {
		return env.checkSession(err)
	}
	var target *api.Event
	for i := range events {
		if events[i].EventID == id {
			target = &events[i]
			break
		}
	}
	if target == nil {
		return &NotFoundError{Resource: "event", ID: id}
	}

	sel := correlation.NewController(env.Client, env.Logger).SelectAndWait(ctx, *target)

	data := InvestigateData{Event: *target}
	if exp, ok := sel.Explanation.Get(); ok {
		data.Explanation = exp
	}
	data.ExplanationError = errString(env.checkSession(sel.Explanation.Err))
	if story, ok := sel.Storyline.Get(); ok {
		data.Storyline = story
	}
	data.StorylineError = errString(env.checkSession(sel.Storyline.Err))

	return env.output("investigate", data, func() {
		out := env.IO.Out
		fmt.Fprintln(out, TitleStyle.Render("Investigation: "+id))
		printEventDetail(out, *target)

		fmt.Fprintln(out, SectionStyle.Render("Explanation"))
		if data.ExplanationError != nil {
			fmt.Fprintf(out, "%s %s\n", RenderStatus("error"), *data.ExplanationError)
		} else if data.Explanation != nil {
			printExplanation(out, data.Explanation)
		}

		fmt.Fprintln(out, SectionStyle.Render("Storyline for "+target.SourceIP))
		if data.StorylineError != nil {
			fmt.Fprintf(out, "%s %s\n", RenderStatus("error"), *data.StorylineError)
		} else {
			printStoryline(out, data.Storyline)
		}
	})
}

// =============================================================================
// TEXT RENDERING
// =============================================================================

var eventColumns = []struct {
	title string
	width int
}{
	{"TIME", 19},
	{"SOURCE", 15},
	{"METHOD", 6},
	{"STATUS", 6},
	{"TYPE", 13},
	{"OK", 3},
	{"URL", 0},
}

func printEventTable(w io.Writer, events []api.Event) {
	urlWidth := GetTerminalWidth() - 19 - 15 - 6 - 6 - 13 - 3 - 2*6
	if urlWidth < 16 {
		urlWidth = 16
	}

	var header []string
	for _, col := range eventColumns {
		width := col.width
		if width == 0 {
			width = urlWidth
		}
		header = append(header, util.PadWidth(col.title, width))
	}
	fmt.Fprintln(w, LabelStyle.Copy().Width(0).Bold(true).Render(strings.Join(header, "  ")))

	for _, ev := range events {
		ok := "no"
		if ev.IsSuccessful {
			ok = "yes"
		}
		cells := []string{
			util.PadWidth(ev.Timestamp.Format("2006-01-02 15:04:05"), 19),
			util.PadWidth(util.TruncateWidth(ev.SourceIP, 15), 15),
			util.PadWidth(ev.Method, 6),
			util.PadWidth(fmt.Sprint(ev.StatusCode), 6),
			attackCell(ev, 13),
			util.PadWidth(ok, 3),
			util.TruncateWidth(ev.URL, urlWidth),
		}
		fmt.Fprintln(w, strings.Join(cells, "  "))
	}
}

// attackCell pads before styling so escape codes do not skew the columns.
func attackCell(ev api.Event, width int) string {
	label := ev.AttackType
	if label == "" {
		label = "Unknown"
	}
	padding := width - util.StringWidth(util.TruncateWidth(label, width))
	return styles.RenderAttack(util.TruncateWidth(label, width), ev.IsSuccessful) + strings.Repeat(" ", max(padding, 0))
}

func printEventDetail(w io.Writer, ev api.Event) {
	fmt.Fprintf(w, "%s%s\n", RenderLabel("Time:"), ev.Timestamp.Format("2006-01-02 15:04:05 MST"))
	fmt.Fprintf(w, "%s%s\n", RenderLabel("Source:"), ev.SourceIP)
	fmt.Fprintf(w, "%s%s %s\n", RenderLabel("Request:"), ev.Method, ev.URL)
	fmt.Fprintf(w, "%s%d\n", RenderLabel("Status:"), ev.StatusCode)
	fmt.Fprintf(w, "%s%s\n", RenderLabel("Attack type:"), styles.RenderAttack(ev.AttackType, ev.IsSuccessful))
	outcome := "blocked"
	if ev.IsSuccessful {
		outcome = "succeeded"
	}
	fmt.Fprintf(w, "%s%s\n", RenderLabel("Outcome:"), outcome)
	if ev.UserAgent != "" {
		fmt.Fprintf(w, "%s%s\n", RenderLabel("User agent:"), ev.UserAgent)
	}
}

func printExplanation(w io.Writer, exp *api.Explanation) {
	badge := ModelBadgeStyle.Render("[MODEL ONLY]")
	if exp.Source() == api.SourceRule {
		badge = RuleBadgeStyle.Render("[RULE-BACKED]")
	}
	fmt.Fprintf(w, "%s%s %s\n", RenderLabel("Verdict:"), badge, ValueStyle.Render(exp.AttackType))
	fmt.Fprintf(w, "%s%s\n", RenderLabel("Confidence:"), components.FormatConfidence(exp.Confidence))

	if cats := exp.Categories(); len(cats) > 0 {
		fmt.Fprintln(w, RenderLabel("Rule hits:"))
		for _, cat := range cats {
			fmt.Fprintf(w, "  %s %s\n",
				lipgloss.NewStyle().Foreground(styles.AttackColor(cat)).Render(cat+":"),
				strings.Join(exp.RuleHits[cat], ", "))
		}
	} else {
		fmt.Fprintf(w, "%s%s\n", RenderLabel("Rule hits:"), DimStyle.Render("none; the verdict is the model's alone"))
	}

	if len(exp.Factors) > 0 {
		fmt.Fprintln(w, RenderLabel("Factors:"))
		for _, f := range exp.Factors {
			fmt.Fprintf(w, "  - %s\n", f)
		}
	}

	if snippet, ok := exp.Snippet(); ok {
		fmt.Fprintln(w, RenderLabel("Payload:"))
		fmt.Fprintln(w, components.HighlightPayload(exp.AttackType, snippet, GetColorProfile()))
	}
}

func printStoryline(w io.Writer, events []api.Event) {
	if len(events) == 0 {
		fmt.Fprintln(w, DimStyle.Render("No events from this source."))
		return
	}
	for _, ev := range events {
		fmt.Fprintf(w, "%s  %-6s %s  %s\n",
			ev.Timestamp.Format("2006-01-02 15:04:05"),
			ev.Method,
			styles.RenderAttack(ev.AttackType, ev.IsSuccessful),
			util.TruncateWidth(ev.URL, 60),
		)
	}
	fmt.Fprintf(w, "%s\n", DimStyle.Render(fmt.Sprintf("%d events", len(events))))
}
