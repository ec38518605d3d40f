// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// json_output.go - JSON output for scripting and SIEM ingestion.

package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/jeranaias/sentinel-tui/internal/api"
	"github.com/jeranaias/sentinel-tui/internal/dashboard"
)

// JSONResponse is the envelope every command prints in --json mode.
type JSONResponse struct {
	// Success indicates whether the command completed successfully
	Success bool `json:"success"`

	// Data contains the command-specific response data
	Data any `json:"data"`

	// Error contains the error message if Success is false, null otherwise
	Error *string `json:"error"`

	// ErrorType classifies the failure (auth_error, request_error, ...)
	ErrorType string `json:"error_type,omitempty"`

	// Status is the HTTP status behind a failed API call, if any
	Status int `json:"status,omitempty"`

	// Timestamp is the ISO8601 timestamp when the response was generated
	Timestamp string `json:"timestamp"`

	// Command is the command that was executed
	Command string `json:"command,omitempty"`
}

// NewJSONResponse creates a new successful JSON response.
func NewJSONResponse(command string, data any) *JSONResponse {
	return &JSONResponse{
		Success:   true,
		Data:      data,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Command:   command,
	}
}

// NewJSONErrorResponse creates a new error JSON response.
func NewJSONErrorResponse(command string, err error) *JSONResponse {
	errStr := err.Error()
	return &JSONResponse{
		Success:   false,
		Error:     &errStr,
		ErrorType: errorType(err),
		Status:    api.StatusCode(err),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Command:   command,
	}
}

// Fprint writes the response as indented JSON to w.
func (r *JSONResponse) Fprint(w io.Writer) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(r)
}

// Print outputs the JSON response to stdout.
func (r *JSONResponse) Print() error {
	return r.Fprint(os.Stdout)
}

// String returns the JSON response as a string.
func (r *JSONResponse) String() string {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Sprintf(`{"success":false,"error":"failed to marshal response: %s","timestamp":"%s"}`,
			err.Error(), time.Now().UTC().Format(time.RFC3339))
	}
	return string(data)
}

// errString returns a pointer to err's message, or nil.
func errString(err error) *string {
	if err == nil {
		return nil
	}
	s := api.UserMessage(err)
	return &s
}

// =============================================================================
// COMMAND-SPECIFIC DATA STRUCTURES
// =============================================================================

// VersionData represents the data returned by the version command.
type VersionData struct {
	Version   string `json:"version"`
	GitCommit string `json:"git_commit"`
	BuildDate string `json:"build_date"`
	GoVersion string `json:"go_version"`
}

// SessionData is returned by login, signup, logout and whoami.
type SessionData struct {
	Status   string `json:"status"`
	Username string `json:"username,omitempty"`
	Server   string `json:"server"`
}

// EventsData is returned by events.
type EventsData struct {
	Count  int         `json:"count"`
	Offset int         `json:"offset"`
	Events []api.Event `json:"events"`
}

// ExplainData is returned by explain.
type ExplainData struct {
	*api.Explanation
	Verdict api.ClassificationSource `json:"verdict_source"`
}

// StorylineData is returned by storyline.
type StorylineData struct {
	SourceIP string      `json:"source_ip"`
	Count    int         `json:"count"`
	Events   []api.Event `json:"events"`
}

// InvestigateData is returned by investigate. Each lookup carries its own
// error so a partial result is still reported.
type InvestigateData struct {
	Event            api.Event        `json:"event"`
	Explanation      *api.Explanation `json:"explanation"`
	ExplanationError *string          `json:"explanation_error"`
	Storyline        []api.Event      `json:"storyline"`
	StorylineError   *string          `json:"storyline_error"`
}

// StatsData is returned by stats.
type StatsData struct {
	Totals        dashboard.Totals     `json:"totals"`
	SuccessRate   float64              `json:"success_rate"`
	Timeline      []api.TimelineBucket `json:"timeline"`
	TimelineError *string              `json:"timeline_error"`
	TopIPs        []api.TopIPEntry     `json:"top_ips"`
	TopIPsError   *string              `json:"top_ips_error"`
	RecentEvents  int                  `json:"recent_events"`
	EventsError   *string              `json:"events_error"`
}

// MessageData wraps a server acknowledgement.
type MessageData struct {
	Message string `json:"message"`
}

// ConfigPathData is returned by config path.
type ConfigPathData struct {
	Path   string `json:"path"`
	Exists bool   `json:"exists"`
}

// ConfigValueData is returned by config get and config set.
type ConfigValueData struct {
	Key   string `json:"key"`
	Value any    `json:"value"`
}
