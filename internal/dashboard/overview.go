// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package dashboard

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/jeranaias/sentinel-tui/internal/api"
	"github.com/jeranaias/sentinel-tui/internal/util"
)

// Source is the part of the API the overview reads.
// *api.Client implements it.
type Source interface {
	Events(ctx context.Context, q api.EventQuery) ([]api.Event, error)
	Timeline(ctx context.Context) ([]api.TimelineBucket, error)
	TopIPs(ctx context.Context, limit int) ([]api.TopIPEntry, error)
}

// Options controls what LoadOverview asks for.
type Options struct {
	Events     api.EventQuery
	TopIPLimit int
}

// Overview is the data behind the overview screen. Each panel carries its
// own error; a failed panel leaves the others intact.
type Overview struct {
	Events    []api.Event
	EventsErr error

	Timeline    []api.TimelineBucket
	TimelineErr error
	Totals      Totals

	TopIPs    []api.TopIPEntry
	TopIPsErr error

	LoadedAt time.Time
}

// Failed reports whether every panel failed.
func (o *Overview) Failed() bool {
	return o.EventsErr != nil && o.TimelineErr != nil && o.TopIPsErr != nil
}

// FirstErr returns the first panel error, if any.
func (o *Overview) FirstErr() error {
	for _, err := range []error{o.EventsErr, o.TimelineErr, o.TopIPsErr} {
		if err != nil {
			return err
		}
	}
	return nil
}

// LoadOverview fetches events, timeline and top sources concurrently.
// Panel failures are recorded on the Overview and never cancel the other
// fetches.
func LoadOverview(ctx context.Context, src Source, opts Options, logger *zap.Logger) *Overview {
	logger = util.OrNop(logger).Named("dashboard")
	ov := &Overview{}

	var g errgroup.Group
	g.Go(func() error {
		ov.Events, ov.EventsErr = src.Events(ctx, opts.Events)
		return nil
	})
	g.Go(func() error {
		ov.Timeline, ov.TimelineErr = src.Timeline(ctx)
		return nil
	})
	g.Go(func() error {
		ov.TopIPs, ov.TopIPsErr = src.TopIPs(ctx, opts.TopIPLimit)
		return nil
	})
	_ = g.Wait()

	// Totals of a failed timeline stay zero; the panel shows the error.
	if ov.TimelineErr == nil {
		ov.Totals = ComputeTotals(ov.Timeline)
	}
	ov.LoadedAt = time.Now()

	logger.Debug("overview loaded",
		zap.Int("events", len(ov.Events)),
		zap.Int("buckets", len(ov.Timeline)),
		zap.Int("top_ips", len(ov.TopIPs)),
		zap.NamedError("events_err", ov.EventsErr),
		zap.NamedError("timeline_err", ov.TimelineErr),
		zap.NamedError("top_ips_err", ov.TopIPsErr),
	)
	return ov
}

// OverviewMsg carries a loaded Overview into the Bubble Tea loop.
type OverviewMsg struct {
	Overview *Overview
}

// LoadCmd runs LoadOverview off the event loop.
func LoadCmd(src Source, opts Options, logger *zap.Logger) tea.Cmd {
	return func() tea.Msg {
		return OverviewMsg{Overview: LoadOverview(context.Background(), src, opts, logger)}
	}
}
