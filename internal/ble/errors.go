package ble

import (
	"errors"
	"fmt"
	"strings"
)

// ConnectionState classifies connection-related failures.
type ConnectionState string

const (
	NotConnected     ConnectionState = "not_connected"
	AlreadyConnected ConnectionState = "already_connected"
	RadioUnavailable ConnectionState = "radio_unavailable"
)

// ConnectionError represents any connection-related problem.
type ConnectionError struct {
	State ConnectionState
	Msg   string
}

func (e *ConnectionError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Msg == "" {
		return string(e.State)
	}
	return fmt.Sprintf("%s: %s", e.State, e.Msg)
}

// Is allows errors.Is to compare ConnectionError values by State.
func (e *ConnectionError) Is(target error) bool {
	if e == nil {
		return false
	}
	t, ok := target.(*ConnectionError)
	if !ok {
		return false
	}
	return e.State == t.State
}

// Sentinel errors for connection states.
var (
	ErrNotConnected     = &ConnectionError{State: NotConnected}
	ErrAlreadyConnected = &ConnectionError{State: AlreadyConnected}

	// ErrRadioUnavailable means Bluetooth is off, unauthorized, or not
	// supported. Scanning and connecting are blocked until the capability
	// comes back; it cannot be recovered from inside this process.
	ErrRadioUnavailable = &ConnectionError{State: RadioUnavailable}
)

// NormalizeError maps known platform-stack error strings to the
// structured ConnectionError types above, so the session layer never
// string-matches. Unrecognized errors pass through unchanged, wrapped
// errors preserve the original context.
func NormalizeError(err error) error {
	if err == nil {
		return nil
	}

	msg := err.Error()
	switch {
	case containsIgnoreCase(msg, "central manager has invalid state"),
		containsIgnoreCase(msg, "bluetooth is turned off"),
		containsIgnoreCase(msg, "not authorized"),
		containsIgnoreCase(msg, "hci device down"):
		return fmt.Errorf("%w: %v", ErrRadioUnavailable, err)
	case containsIgnoreCase(msg, "device not connected"),
		containsIgnoreCase(msg, "disconnected"):
		return fmt.Errorf("%w: %v", ErrNotConnected, err)
	case containsIgnoreCase(msg, "device already connected"):
		return fmt.Errorf("%w: %v", ErrAlreadyConnected, err)
	default:
		return err
	}
}

// IsRadioUnavailable reports whether err indicates a lost radio
// capability rather than an ordinary transport failure.
func IsRadioUnavailable(err error) bool {
	return errors.Is(err, ErrRadioUnavailable)
}

func containsIgnoreCase(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
