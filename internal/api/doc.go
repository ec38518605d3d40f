// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package api is the HTTP client for the triage server.
//
// Every endpoint the console uses is exposed as a typed method on Client.
// Response bodies are validated against embedded JSON schemas before they
// are decoded, so a malformed payload is reported as ErrRequestFailed
// instead of leaking zero-valued fields into the UI.
//
// # Key Types
//
//   - Client: endpoint methods, bearer authorization, optional rate limit
//   - Event, Explanation, TimelineBucket, TopIPEntry, User: wire types
//   - Error: failure with HTTP status and the server's detail message
//
// # Usage
//
//	client := api.NewClient("http://localhost:8000").
//	    WithTimeout(15 * time.Second).
//	    WithTokenSource(sessionManager)
//	events, err := client.Events(ctx, api.EventQuery{Limit: 100})
//	if errors.Is(err, api.ErrRequestFailed) {
//	    // show an empty/error state for this panel only
//	}
//
// # Errors
//
// Failures are *Error values that match one of the sentinels with
// errors.Is: ErrRequestFailed, ErrAuthenticationFailed, ErrSignupFailed,
// ErrSessionInvalid, ErrUploadFailed and ErrClearFailed. Nothing in this
// package retries.
package api
