// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package correlation

import (
	"context"
	"sync"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/jeranaias/sentinel-tui/internal/api"
	"github.com/jeranaias/sentinel-tui/internal/util"
)

// Fetcher is the part of the API the controller needs.
// *api.Client implements it.
type Fetcher interface {
	Explain(ctx context.Context, eventID string) (*api.Explanation, error)
	Storyline(ctx context.Context, sourceIP string) ([]api.Event, error)
}

// Selection is what the investigation view shows: one event and the two
// lookups that belong to it.
type Selection struct {
	Event       *api.Event
	Explanation Slot[*api.Explanation]
	Storyline   Slot[[]api.Event]
	// Seq is the generation the slots belong to.
	Seq uint64
}

// Empty reports whether nothing is selected.
func (s Selection) Empty() bool {
	return s.Event == nil
}

// =============================================================================
// MESSAGES
// =============================================================================

// ExplanationMsg is the result of an explanation lookup.
type ExplanationMsg struct {
	Seq         uint64
	EventID     string
	Explanation *api.Explanation
	Err         error
}

// StorylineMsg is the result of a storyline lookup.
type StorylineMsg struct {
	Seq      uint64
	SourceIP string
	Events   []api.Event
	Err      error
}

// =============================================================================
// CONTROLLER
// =============================================================================

// Controller owns the Selection. Only the latest Select's results are ever
// applied.
type Controller struct {
	mu sync.Mutex

	fetcher Fetcher
	logger  *zap.Logger

	seq uint64
	sel Selection
}

// NewController creates a controller with an empty Selection.
func NewController(fetcher Fetcher, logger *zap.Logger) *Controller {
	return &Controller{
		fetcher: fetcher,
		logger:  util.OrNop(logger).Named("correlation"),
	}
}

// Selection returns a snapshot of the current Selection.
func (c *Controller) Selection() Selection {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sel
}

// Seq returns the current generation.
func (c *Controller) Seq() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.seq
}

// Select makes ev the selected event. Both slots are set to Loading before
// it returns; the returned command performs the two lookups concurrently.
func (c *Controller) Select(ev api.Event) tea.Cmd {
	seq := c.begin(ev)
	return tea.Batch(
		c.explainCmd(seq, ev.EventID),
		c.storylineCmd(seq, ev.SourceIP),
	)
}

// Update applies a lookup result if it belongs to the current generation
// and reports whether the Selection changed. Other messages are ignored.
func (c *Controller) Update(msg tea.Msg) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch msg := msg.(type) {
	case ExplanationMsg:
		if msg.Seq != c.seq {
			c.logger.Debug("dropped stale explanation",
				zap.String("event_id", msg.EventID),
				zap.Uint64("seq", msg.Seq),
				zap.Uint64("current", c.seq),
			)
			return false
		}
		if msg.Err != nil {
			c.sel.Explanation = FailedSlot[*api.Explanation](msg.Err)
		} else {
			c.sel.Explanation = ReadySlot(msg.Explanation)
		}
		return true

	case StorylineMsg:
		if msg.Seq != c.seq {
			c.logger.Debug("dropped stale storyline",
				zap.String("source_ip", msg.SourceIP),
				zap.Uint64("seq", msg.Seq),
				zap.Uint64("current", c.seq),
			)
			return false
		}
		if msg.Err != nil {
			c.sel.Storyline = FailedSlot[[]api.Event](msg.Err)
		} else {
			c.sel.Storyline = ReadySlot(msg.Events)
		}
		return true
	}
	return false
}

// Reset clears the Selection. Lookups still in flight are dropped when
// they arrive.
func (c *Controller) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq++
	c.sel = Selection{Seq: c.seq}
}

// SelectAndWait runs the Select protocol without an event loop and returns
// the Selection once both lookups have been applied or superseded.
func (c *Controller) SelectAndWait(ctx context.Context, ev api.Event) Selection {
	seq := c.begin(ev)

	var g errgroup.Group
	g.Go(func() error {
		c.Update(c.explain(ctx, seq, ev.EventID))
		return nil
	})
	g.Go(func() error {
		c.Update(c.storyline(ctx, seq, ev.SourceIP))
		return nil
	})
	_ = g.Wait()

	return c.Selection()
}

// begin starts a new generation for ev and returns its sequence number.
func (c *Controller) begin(ev api.Event) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq++
	selected := ev
	c.sel = Selection{
		Event:       &selected,
		Explanation: LoadingSlot[*api.Explanation](),
		Storyline:   LoadingSlot[[]api.Event](),
		Seq:         c.seq,
	}
	c.logger.Debug("selected",
		zap.String("event_id", ev.EventID),
		zap.String("source_ip", ev.SourceIP),
		zap.Uint64("seq", c.seq),
	)
	return c.seq
}

func (c *Controller) explainCmd(seq uint64, eventID string) tea.Cmd {
	return func() tea.Msg {
		return c.explain(context.Background(), seq, eventID)
	}
}

func (c *Controller) storylineCmd(seq uint64, sourceIP string) tea.Cmd {
	return func() tea.Msg {
		return c.storyline(context.Background(), seq, sourceIP)
	}
}

func (c *Controller) explain(ctx context.Context, seq uint64, eventID string) ExplanationMsg {
	exp, err := c.fetcher.Explain(ctx, eventID)
	return ExplanationMsg{Seq: seq, EventID: eventID, Explanation: exp, Err: err}
}

func (c *Controller) storyline(ctx context.Context, seq uint64, sourceIP string) StorylineMsg {
	events, err := c.fetcher.Storyline(ctx, sourceIP)
	return StorylineMsg{Seq: seq, SourceIP: sourceIP, Events: events, Err: err}
}
