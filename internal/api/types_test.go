// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTimestamp(t *testing.T) {
	want := time.Date(2024, 3, 1, 10, 15, 30, 0, time.UTC)
	for _, in := range []string{
		"2024-03-01T10:15:30",
		"2024-03-01 10:15:30",
		"2024-03-01T10:15:30Z",
		"2024-03-01T12:15:30+02:00",
	} {
		ts, err := ParseTimestamp(in)
		require.NoError(t, err, in)
		assert.True(t, want.Equal(ts.Time), "%s parsed as %s", in, ts.Time)
	}

	ts, err := ParseTimestamp("2024-03-01T10:15:30.250000")
	require.NoError(t, err)
	assert.Equal(t, 250*time.Millisecond, time.Duration(ts.Nanosecond()))

	_, err = ParseTimestamp("yesterday")
	assert.Error(t, err)
}

func TestTimestampJSON(t *testing.T) {
	var v struct {
		At Timestamp `json:"at"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"at":null}`), &v))
	assert.True(t, v.At.IsZero())

	require.NoError(t, json.Unmarshal([]byte(`{"at":"2024-03-01T10:15:30"}`), &v))
	out, err := json.Marshal(v)
	require.NoError(t, err)
	assert.JSONEq(t, `{"at":"2024-03-01T10:15:30Z"}`, string(out))

	assert.Error(t, json.Unmarshal([]byte(`{"at":17}`), &v))
}

func TestSortByTime_Stable(t *testing.T) {
	at := func(min int) Timestamp {
		return Timestamp{Time: time.Date(2024, 1, 1, 0, min, 0, 0, time.UTC)}
	}
	events := []Event{
		{EventID: "late", Timestamp: at(9)},
		{EventID: "tie-1", Timestamp: at(5)},
		{EventID: "early", Timestamp: at(1)},
		{EventID: "tie-2", Timestamp: at(5)},
	}
	SortByTime(events)

	ids := make([]string, len(events))
	for i, ev := range events {
		ids[i] = ev.EventID
	}
	assert.Equal(t, []string{"early", "tie-1", "tie-2", "late"}, ids)
}

func TestExplanationSource(t *testing.T) {
	assert.Equal(t, SourceModel, (&Explanation{}).Source())
	assert.Equal(t, SourceModel, (&Explanation{RuleHits: map[string][]string{}}).Source())
	assert.Equal(t, SourceRule, (&Explanation{RuleHits: map[string][]string{"xss": {"script_tag"}}}).Source())
	assert.Equal(t, SourceModel, (&Explanation{
		RuleHits:       map[string][]string{"xss": {"script_tag"}},
		ReportedSource: SourceModel,
	}).Source())

	empty := ""
	_, ok := (&Explanation{PayloadSnippet: &empty}).Snippet()
	assert.False(t, ok)
}
