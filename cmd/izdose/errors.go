package main

import (
	"errors"

	"github.com/srg/izdose/internal/ble"
)

// FormatUserError turns internal errors into a message suitable for the
// terminal, without stack traces or wrapped-error chains.
func FormatUserError(err error) string {
	switch {
	case errors.Is(err, ble.ErrRadioUnavailable):
		return "Bluetooth is unavailable. Turn the radio on and check permissions, then retry."
	case errors.Is(err, ble.ErrNotConnected):
		return "device is not connected"
	case errors.Is(err, ble.ErrAlreadyConnected):
		return "device is already connected"
	default:
		return err.Error()
	}
}
