// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// errors.go - Error types, exit codes and error display for CLI commands.
//
// Handlers always return errors; Run's caller displays them once and picks
// the exit code.

package cli

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/jeranaias/sentinel-tui/internal/api"
	"github.com/jeranaias/sentinel-tui/internal/config"
)

// =============================================================================
// EXIT CODES
// =============================================================================

const (
	// ExitSuccess indicates successful execution
	ExitSuccess = 0
	// ExitGeneralError indicates a general/unknown error
	ExitGeneralError = 1
	// ExitUsageError indicates invalid command usage or arguments
	ExitUsageError = 2
	// ExitConfigError indicates configuration file or settings error
	ExitConfigError = 3
	// ExitAuthError indicates an authentication or session failure
	ExitAuthError = 4
	// ExitNetworkError indicates a failed request or unreachable server
	ExitNetworkError = 5
	// ExitNotFoundError indicates a resource was not found
	ExitNotFoundError = 7
)

// =============================================================================
// ERROR TYPES
// =============================================================================

// CommandError represents a CLI command error with context.
type CommandError struct {
	Command string // Command that failed (e.g., "upload")
	Action  string // Action being performed (e.g., "open file")
	Reason  string // Human-readable reason
	Err     error  // Underlying error (if any)
}

func (e *CommandError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s %s failed: %s: %v", e.Command, e.Action, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s %s failed: %s", e.Command, e.Action, e.Reason)
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// ValidationError represents bad user input.
type ValidationError struct {
	Field   string
	Value   string
	Reason  string
	Example string
}

func (e *ValidationError) Error() string {
	msg := fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
	if e.Value != "" {
		msg += fmt.Sprintf(" (got: %s)", e.Value)
	}
	if e.Example != "" {
		msg += fmt.Sprintf("\nExample: %s", e.Example)
	}
	return msg
}

// NotFoundError represents a resource not found locally.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

// ConfigError wraps a failure to load or apply configuration.
type ConfigError struct {
	Err error
}

func (e *ConfigError) Error() string {
	return "configuration error: " + e.Err.Error()
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// =============================================================================
// ERROR CONSTRUCTION HELPERS
// =============================================================================

// NewCommandError creates a new command error.
func NewCommandError(command, action, reason string, err error) error {
	return &CommandError{Command: command, Action: action, Reason: reason, Err: err}
}

// NewValidationError creates a new validation error.
func NewValidationError(field, value, reason string) error {
	return &ValidationError{Field: field, Value: value, Reason: reason}
}

// NewValidationErrorWithExample creates a validation error with an example.
func NewValidationErrorWithExample(field, value, reason, example string) error {
	return &ValidationError{Field: field, Value: value, Reason: reason, Example: example}
}

// ErrMissingArgument creates an error for missing required arguments.
func ErrMissingArgument(argName, usage string) error {
	return NewValidationErrorWithExample(argName, "", "required argument missing", usage)
}

// =============================================================================
// EXIT CODE MAPPING
// =============================================================================

// GetExitCode determines the exit code for an error.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}

	var validationErr *ValidationError
	var ttyErr *TTYRequiredError
	if errors.As(err, &validationErr) || errors.As(err, &ttyErr) {
		return ExitUsageError
	}

	var configErr *ConfigError
	var configValidation config.ValidateErrors
	if errors.As(err, &configErr) || errors.As(err, &configValidation) {
		return ExitConfigError
	}

	var notFoundErr *NotFoundError
	if errors.As(err, &notFoundErr) || api.StatusCode(err) == http.StatusNotFound {
		return ExitNotFoundError
	}

	switch {
	case errors.Is(err, api.ErrAuthenticationFailed),
		errors.Is(err, api.ErrSignupFailed),
		errors.Is(err, api.ErrSessionInvalid),
		errors.Is(err, api.ErrNotAuthenticated):
		return ExitAuthError
	case errors.Is(err, api.ErrRequestFailed),
		errors.Is(err, api.ErrUploadFailed),
		errors.Is(err, api.ErrClearFailed):
		return ExitNetworkError
	}

	return ExitGeneralError
}

// errorType names the error class in JSON output.
func errorType(err error) string {
	switch GetExitCode(err) {
	case ExitUsageError:
		return "usage_error"
	case ExitConfigError:
		return "config_error"
	case ExitAuthError:
		return "auth_error"
	case ExitNetworkError:
		return "request_error"
	case ExitNotFoundError:
		return "not_found_error"
	default:
		return "generic_error"
	}
}

// =============================================================================
// ERROR DISPLAY
// =============================================================================

// DisplayError writes err for the user. In JSON mode the error envelope
// goes to out so scripts see one document; otherwise a styled line goes to
// errOut.
func DisplayError(out, errOut io.Writer, command string, err error, jsonMode bool) {
	if err == nil {
		return
	}

	if jsonMode {
		_ = NewJSONErrorResponse(command, err).Fprint(out)
		return
	}

	fmt.Fprintf(errOut, "%s %s\n", ErrorStyle.Render("[ERROR]"), err.Error())
	if hint := errorHint(err); hint != "" {
		fmt.Fprintf(errOut, "%s\n", DimStyle.Render(hint))
	}
}

func errorHint(err error) string {
	switch {
	case errors.Is(err, api.ErrNotAuthenticated), errors.Is(err, api.ErrSessionInvalid):
		return "Run 'sentinel login' to sign in."
	case api.StatusCode(err) == 0 && errors.Is(err, api.ErrRequestFailed):
		return "Check the server address with 'sentinel config get server.base_url' or --api-url."
	}
	return ""
}
