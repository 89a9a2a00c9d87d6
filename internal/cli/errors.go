// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/jeranaias/queryosity-tui/internal/api"
	"github.com/jeranaias/queryosity-tui/internal/config"
	"github.com/jeranaias/queryosity-tui/internal/session"
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
	// ExitAuthError indicates a missing, expired or rejected credential
	ExitAuthError = 4
	// ExitNetworkError indicates the backend could not be reached or sent an
	// unreadable reply
	ExitNetworkError = 5
	// ExitTimeoutError indicates an operation timed out
	ExitTimeoutError = 8
)

// =============================================================================
// ERROR TYPES
// =============================================================================

// ErrNotLoggedIn is returned by commands that need a stored credential.
var ErrNotLoggedIn = errors.New("not logged in; run 'queryosity login'")

// ErrSessionExpired is returned when the stored credential has expired.
var ErrSessionExpired = errors.New("session expired; run 'queryosity login'")

// CommandError represents a CLI command error with context.
type CommandError struct {
	Command string // Command that failed (e.g., "upload")
	Reason  string // Human-readable reason
	Err     error  // Underlying error (if any)
}

func (e *CommandError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s failed: %s: %v", e.Command, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s failed: %s", e.Command, e.Reason)
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// NewCommandError creates a new command error.
func NewCommandError(command, reason string, err error) error {
	return &CommandError{Command: command, Reason: reason, Err: err}
}

// rejected reports a backend refusal carried in a response body.
func rejected(command, detail, fallback string) error {
	if detail == "" {
		detail = fallback
	}
	return &CommandError{Command: command, Reason: detail}
}

// =============================================================================
// ERROR DISPLAY
// =============================================================================

// ExitCode maps err to a process exit code.
func ExitCode(err error) int {
	var verrs config.ValidateErrors
	switch {
	case err == nil:
		return ExitSuccess
	case errors.As(err, &verrs):
		return ExitConfigError
	case errors.Is(err, ErrNotLoggedIn), errors.Is(err, ErrSessionExpired),
		errors.Is(err, session.ErrMalformedToken), api.IsLoginFailed(err):
		return ExitAuthError
	case api.IsConnection(err), api.IsInvalidResponse(err):
		return ExitNetworkError
	case api.IsTimeout(err):
		return ExitTimeoutError
	default:
		return ExitGeneralError
	}
}

// DisplayError writes err to w in the standard format.
func DisplayError(w io.Writer, err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(w, "%s %s\n", ErrorStyle.Render("[ERROR]"), err.Error())
}
