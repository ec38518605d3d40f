// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Error classes. Every *Error matches exactly one of the first six with
// errors.Is; ErrNotAuthenticated and ErrMalformedResponse describe the cause.
var (
	// ErrRequestFailed is a failed read (events, stats, explain, storyline).
	ErrRequestFailed = errors.New("request failed")

	// ErrAuthenticationFailed is a failed credential exchange.
	ErrAuthenticationFailed = errors.New("authentication failed")

	// ErrSignupFailed is a rejected account creation (duplicate name, validation).
	ErrSignupFailed = errors.New("signup failed")

	// ErrSessionInvalid means the server rejected the bearer token.
	ErrSessionInvalid = errors.New("session invalid")

	// ErrUploadFailed is a failed log upload.
	ErrUploadFailed = errors.New("upload failed")

	// ErrClearFailed is a failed delete-all.
	ErrClearFailed = errors.New("clear failed")

	// ErrNotAuthenticated means a protected call was made without a token.
	ErrNotAuthenticated = errors.New("not authenticated")

	// ErrMalformedResponse means the body did not match the expected schema.
	ErrMalformedResponse = errors.New("malformed response")
)

// Error is a failed API call.
type Error struct {
	// Op names the call, e.g. "GET /explain/{event_id}".
	Op string
	// Kind is the error class (one of the sentinels above).
	Kind error
	// Status is the HTTP status, or 0 when no response was received.
	Status int
	// Detail is the user-facing message: the server's detail field when
	// present, otherwise a local description.
	Detail string
	// Err is the underlying cause, if any.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	var b strings.Builder
	if e.Kind != nil {
		b.WriteString(e.Kind.Error())
	} else {
		b.WriteString("api error")
	}
	if e.Status != 0 {
		fmt.Fprintf(&b, " (HTTP %d)", e.Status)
	}
	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	} else if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

// Unwrap exposes both the class and the cause to errors.Is/As.
func (e *Error) Unwrap() []error {
	var errs []error
	if e.Kind != nil {
		errs = append(errs, e.Kind)
	}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

// Message returns the text to show the user: the detail when there is one.
func (e *Error) Message() string {
	if e.Detail != "" {
		return e.Detail
	}
	return e.Error()
}

// UserMessage extracts a display message from any error.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Message()
	}
	return err.Error()
}

// StatusCode returns the HTTP status carried by err, or 0.
func StatusCode(err error) int {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}

// errorBody is the server's error envelope. detail is either a string or,
// for request validation failures, a list of {loc, msg, type} objects.
type errorBody struct {
	Detail json.RawMessage `json:"detail"`
}

type validationIssue struct {
	Loc []any  `json:"loc"`
	Msg string `json:"msg"`
}

// parseDetail extracts the detail message from an error body, falling back
// to the HTTP status text.
func parseDetail(status int, body []byte) string {
	var eb errorBody
	if err := json.Unmarshal(body, &eb); err == nil && len(eb.Detail) > 0 {
		var s string
		if err := json.Unmarshal(eb.Detail, &s); err == nil && s != "" {
			return s
		}
		var issues []validationIssue
		if err := json.Unmarshal(eb.Detail, &issues); err == nil && len(issues) > 0 {
			msgs := make([]string, 0, len(issues))
			for _, is := range issues {
				if len(is.Loc) > 0 {
					msgs = append(msgs, fmt.Sprintf("%v: %s", is.Loc[len(is.Loc)-1], is.Msg))
				} else {
					msgs = append(msgs, is.Msg)
				}
			}
			return strings.Join(msgs, "; ")
		}
	}
	if text := http.StatusText(status); text != "" {
		return text
	}
	return fmt.Sprintf("unexpected status %d", status)
}
