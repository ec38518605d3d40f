// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package dashboard

import "github.com/jeranaias/sentinel-tui/internal/api"

// Totals summarises a timeline.
type Totals struct {
	// Total is every event: attempts plus successes.
	Total int `json:"total"`
	// Blocked is the number of attempts that did not succeed.
	Blocked int `json:"blocked"`
	// Critical is the number of successful attacks.
	Critical int `json:"critical"`
}

// ComputeTotals sums the buckets in one pass. An empty timeline yields
// zero totals.
func ComputeTotals(buckets []api.TimelineBucket) Totals {
	var t Totals
	for _, b := range buckets {
		t.Blocked += b.Attempt
		t.Critical += b.Success
		t.Total += b.Attempt + b.Success
	}
	return t
}

// SuccessRate returns Critical/Total, or 0 for an empty timeline.
func (t Totals) SuccessRate() float64 {
	if t.Total == 0 {
		return 0
	}
	return float64(t.Critical) / float64(t.Total)
}
