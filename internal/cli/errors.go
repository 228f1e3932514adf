// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// errors.go - Exit codes and error display for aigw commands.
//
// Commands always return errors; main displays them and exits. The
// exit code contract is deliberately small: 0 for success (including a
// graceful end of an interactive session), 1 for everything else.

package cli

import (
	"fmt"
	"os"
)

const (
	// ExitSuccess indicates successful execution
	ExitSuccess = 0
	// ExitError indicates any failure: missing credential, gateway
	// error, invalid usage
	ExitError = 1
)

// ConfigurationError reports a missing or unusable credential or
// setting, detected before any network activity.
type ConfigurationError struct {
	Reason string
}

func (e *ConfigurationError) Error() string {
	return e.Reason
}

// ErrMissingAPIKey is returned when no API key is available from the
// --api-key flag, the environment, or the config file.
func ErrMissingAPIKey() error {
	return &ConfigurationError{
		Reason: "AI_GATEWAY_API_KEY environment variable not set or API key not provided",
	}
}

// GetExitCode determines the exit code for an error.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	return ExitError
}

// DisplayError prints an error to stderr in a consistent format.
func DisplayError(err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(os.Stderr, "%s %v\n", ErrorStyle.Render("Error:"), err)
}
