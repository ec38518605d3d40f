// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"time"
)

// =============================================================================
// TIMESTAMPS
// =============================================================================

// timestampLayouts are tried in order. The server emits naive ISO-8601
// timestamps (no zone), which encoding/json's time.Time refuses.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04",
}

// Timestamp is an instant decoded from the server's ISO-8601 strings.
// Timestamps without a zone are interpreted as UTC.
type Timestamp struct {
	time.Time
}

// ParseTimestamp parses s with the layouts the server is known to emit.
func ParseTimestamp(s string) (Timestamp, error) {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return Timestamp{Time: t.UTC()}, nil
		}
	}
	return Timestamp{}, fmt.Errorf("unrecognised timestamp %q", s)
}

// UnmarshalJSON implements json.Unmarshaler.
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		*t = Timestamp{}
		return nil
	}
	s, err := strconv.Unquote(string(data))
	if err != nil {
		return fmt.Errorf("timestamp must be a string: %w", err)
	}
	parsed, err := ParseTimestamp(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// MarshalJSON implements json.Marshaler.
func (t Timestamp) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.UTC().Format(time.RFC3339Nano))
}

// =============================================================================
// EVENTS
// =============================================================================

// Event is one classified HTTP request. Events are immutable once fetched
// and identified by EventID.
type Event struct {
	EventID      string    `json:"event_id"`
	Timestamp    Timestamp `json:"timestamp"`
	SourceIP     string    `json:"source_ip"`
	Method       string    `json:"method"`
	URL          string    `json:"url"`
	StatusCode   int       `json:"status_code"`
	AttackType   string    `json:"attack_type"`
	IsSuccessful bool      `json:"is_successful"`

	// Optional fields the server includes when it has them.
	UserAgent    string  `json:"user_agent,omitempty"`
	Payload      *string `json:"payload,omitempty"`
	ResponseSize int64   `json:"response_size,omitempty"`
	Confidence   float64 `json:"confidence,omitempty"`
}

// EventQuery filters GET /events. Zero values are omitted from the query.
type EventQuery struct {
	Limit        int
	Offset       int
	SourceIP     string
	AttackType   string
	IsSuccessful *bool
}

// SortByTime orders events by timestamp ascending, keeping the server order
// for equal timestamps.
func SortByTime(events []Event) {
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Timestamp.Before(events[j].Timestamp.Time)
	})
}

// =============================================================================
// EXPLANATION
// =============================================================================

// ClassificationSource says where a verdict came from.
type ClassificationSource string

const (
	// SourceRule means at least one signature rule matched.
	SourceRule ClassificationSource = "rule"
	// SourceModel means no rule matched and the verdict is the model's alone.
	SourceModel ClassificationSource = "model"
)

// Explanation is the classification rationale for exactly one event.
type Explanation struct {
	EventID    string  `json:"event_id,omitempty"`
	AttackType string  `json:"attack_type,omitempty"`
	Confidence float64 `json:"confidence"`
	// RuleHits maps attack category to the identifiers of matched rules.
	// An empty map is a valid result: no rule fired.
	RuleHits       map[string][]string `json:"rule_hits"`
	PayloadSnippet *string             `json:"payload_snippet"`
	Factors        []string            `json:"factors,omitempty"`
	// ReportedSource is the server's own discriminant, when it sends one.
	ReportedSource ClassificationSource `json:"source,omitempty"`
}

// Source reports whether the verdict is rule-backed or model-only. An
// explicit server discriminant wins; otherwise a non-empty RuleHits map
// means rule-backed.
func (e *Explanation) Source() ClassificationSource {
	switch e.ReportedSource {
	case SourceRule, SourceModel:
		return e.ReportedSource
	}
	if len(e.RuleHits) > 0 {
		return SourceRule
	}
	return SourceModel
}

// Categories returns the attack categories with rule hits, sorted.
func (e *Explanation) Categories() []string {
	cats := make([]string, 0, len(e.RuleHits))
	for cat := range e.RuleHits {
		cats = append(cats, cat)
	}
	sort.Strings(cats)
	return cats
}

// Snippet returns the payload excerpt and whether there was one. The server
// sends an empty string when the request had no body.
func (e *Explanation) Snippet() (string, bool) {
	if e.PayloadSnippet == nil || *e.PayloadSnippet == "" {
		return "", false
	}
	return *e.PayloadSnippet, true
}

// =============================================================================
// STATISTICS
// =============================================================================

// TimelineBucket is the attempt/success count for one time label.
type TimelineBucket struct {
	Time    string `json:"time"`
	Attempt int    `json:"attempt"`
	Success int    `json:"success"`
}

// TopIPEntry is one of the most active source addresses.
type TopIPEntry struct {
	IP    string `json:"ip"`
	Count int    `json:"count"`
}

// =============================================================================
// AUTH
// =============================================================================

// User is the identity the server resolves a token to.
type User struct {
	Username string `json:"username"`
}

// LoginResponse is the credential-exchange payload.
type LoginResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type,omitempty"`
	User        User   `json:"user"`
}

// MessageResponse is returned by the write endpoints (upload, delete-all).
type MessageResponse struct {
	Message string `json:"message"`
}
