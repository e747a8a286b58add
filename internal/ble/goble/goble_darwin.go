//go:build darwin

package goble

import (
	blelib "github.com/go-ble/ble"
	"github.com/go-ble/ble/darwin"
)

// DeviceFactory creates the platform ble.Device (can be overridden in tests).
//
//nolint:revive // DeviceFactory name is intentional for test mocking
var DeviceFactory = func() (blelib.Device, error) {
	return darwin.NewDevice()
}
