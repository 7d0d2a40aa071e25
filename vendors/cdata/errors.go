package cdata

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrorCode represents a normalized error code for C-Data terminal errors
type ErrorCode string

const (
	// Session errors
	ErrAuthFailed    ErrorCode = "AUTH_FAILED"
	ErrEnableDenied  ErrorCode = "ENABLE_DENIED"
	ErrSessionLimit  ErrorCode = "SESSION_LIMIT"
	ErrPromptMissing ErrorCode = "PROMPT_MISSING"

	// Command errors
	ErrUnknownCommand ErrorCode = "UNKNOWN_CMD"
	ErrPortNotFound   ErrorCode = "PORT_NOT_FOUND"
	ErrONUNotFound    ErrorCode = "ONU_NOT_FOUND"

	// Connection errors
	ErrTimeout    ErrorCode = "TIMEOUT"
	ErrConnReset  ErrorCode = "CONN_RESET"
	ErrConnRefuse ErrorCode = "CONN_REFUSED"

	// Hardware errors
	ErrHardwareFault ErrorCode = "HARDWARE_FAULT"
	ErrMemoryFull    ErrorCode = "MEMORY_FULL"

	// Unknown
	ErrUnknown ErrorCode = "UNKNOWN"
)

// ErrorMapping maps C-Data error patterns to human-readable messages
type ErrorMapping struct {
	Code        ErrorCode
	Human       string
	Action      string
	Recoverable bool
}

// cdataErrorPatterns maps C-Data terminal error strings to structured errors
var cdataErrorPatterns = map[string]ErrorMapping{
	// Login errors
	"authentication failed": {
		Code:        ErrAuthFailed,
		Human:       "Authentication failed",
		Action:      "Check username and password",
		Recoverable: false,
	},
	"login incorrect": {
		Code:        ErrAuthFailed,
		Human:       "OLT rejected the login",
		Action:      "Check username and password",
		Recoverable: false,
	},
	"bad password": {
		Code:        ErrAuthFailed,
		Human:       "OLT rejected the password",
		Action:      "Check the password configured for this OLT",
		Recoverable: false,
	},
	"access denied": {
		Code:        ErrAuthFailed,
		Human:       "Access denied",
		Action:      "Verify user has admin privileges",
		Recoverable: false,
	},
	"% permission denied": {
		Code:        ErrEnableDenied,
		Human:       "Privileged mode was refused",
		Action:      "Set enable_password in the OLT metadata",
		Recoverable: false,
	},
	"too many users": {
		Code:        ErrSessionLimit,
		Human:       "OLT terminal session limit reached",
		Action:      "Will retry after other sessions close",
		Recoverable: true,
	},
	"waiting for prompt": {
		Code:        ErrPromptMissing,
		Human:       "OLT did not return a prompt",
		Action:      "Check the terminal is not stuck in a pager or wizard",
		Recoverable: true,
	},

	// Command errors
	"% unknown command": {
		Code:        ErrUnknownCommand,
		Human:       "Command not supported by this firmware",
		Action:      "Check OLT firmware version - may need upgrade",
		Recoverable: false,
	},
	"incomplete command": {
		Code:        ErrUnknownCommand,
		Human:       "Command is incomplete",
		Action:      "Internal error - contact support",
		Recoverable: false,
	},
	"invalid input": {
		Code:        ErrUnknownCommand,
		Human:       "Invalid command syntax",
		Action:      "Check command parameters",
		Recoverable: false,
	},
	"port not exist": {
		Code:        ErrPortNotFound,
		Human:       "PON port does not exist",
		Action:      "Verify PON port number (format: slot/card/pon)",
		Recoverable: false,
	},
	"interface not found": {
		Code:        ErrPortNotFound,
		Human:       "Interface does not exist",
		Action:      "Verify interface name matches OLT configuration",
		Recoverable: false,
	},
	"onu not found": {
		Code:        ErrONUNotFound,
		Human:       "ONU is not registered",
		Action:      "Verify ONU id and PON port",
		Recoverable: false,
	},
	"no onu": {
		Code:        ErrONUNotFound,
		Human:       "ONU does not exist at this location",
		Action:      "Check PON port and ONU ID",
		Recoverable: false,
	},

	// Connection errors
	"timeout": {
		Code:        ErrTimeout,
		Human:       "Command timed out",
		Action:      "Will retry with longer timeout",
		Recoverable: true,
	},
	"connection reset": {
		Code:        ErrConnReset,
		Human:       "Lost connection to OLT",
		Action:      "Will reconnect and retry",
		Recoverable: true,
	},
	"connection refused": {
		Code:        ErrConnRefuse,
		Human:       "Connection to OLT refused",
		Action:      "Check OLT is reachable and SSH/Telnet is enabled",
		Recoverable: true,
	},

	// Hardware errors
	"hardware fault": {
		Code:        ErrHardwareFault,
		Human:       "OLT hardware fault detected",
		Action:      "Check OLT hardware status and logs",
		Recoverable: false,
	},
	"memory full": {
		Code:        ErrMemoryFull,
		Human:       "OLT memory is full",
		Action:      "Reboot OLT or clear old configurations",
		Recoverable: false,
	},
}

// TranslatedError represents a user-friendly error
type TranslatedError struct {
	Original    error
	Code        ErrorCode
	Human       string
	Action      string
	Recoverable bool
}

func (e *TranslatedError) Error() string {
	return fmt.Sprintf("[%s] %s (action: %s)", e.Code, e.Human, e.Action)
}

func (e *TranslatedError) Unwrap() error {
	return e.Original
}

var sortedPatterns = func() []string {
	patterns := make([]string, 0, len(cdataErrorPatterns))
	for p := range cdataErrorPatterns {
		patterns = append(patterns, p)
	}
	sort.Slice(patterns, func(i, j int) bool {
		if len(patterns[i]) != len(patterns[j]) {
			return len(patterns[i]) > len(patterns[j])
		}
		return patterns[i] < patterns[j]
	})
	return patterns
}()

// TranslateError converts a raw CLI error into a human-readable error.
// Longer patterns win so that "onu not found" beats "no onu".
func TranslateError(err error) error {
	if err == nil {
		return nil
	}

	var te *TranslatedError
	if errors.As(err, &te) {
		return err
	}

	errStr := strings.ToLower(err.Error())

	for _, pattern := range sortedPatterns {
		mapping := cdataErrorPatterns[pattern]
		if strings.Contains(errStr, pattern) {
			return &TranslatedError{
				Original:    err,
				Code:        mapping.Code,
				Human:       mapping.Human,
				Action:      mapping.Action,
				Recoverable: mapping.Recoverable,
			}
		}
	}

	// Unknown error
	return &TranslatedError{
		Original:    err,
		Code:        ErrUnknown,
		Human:       err.Error(),
		Action:      "Check OLT logs for details",
		Recoverable: false,
	}
}

// IsRecoverable returns true if the error can be retried
func IsRecoverable(err error) bool {
	var te *TranslatedError
	if errors.As(err, &te) {
		return te.Recoverable
	}
	return false
}

// GetErrorCode returns the error code for a translated error
func GetErrorCode(err error) ErrorCode {
	var te *TranslatedError
	if errors.As(err, &te) {
		return te.Code
	}
	return ErrUnknown
}

// GetSuggestedAction returns the suggested action for an error
func GetSuggestedAction(err error) string {
	var te *TranslatedError
	if errors.As(err, &te) {
		return te.Action
	}
	return "Check OLT logs for details"
}
