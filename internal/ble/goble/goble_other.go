//go:build !darwin

package goble

import (
	"fmt"
	"runtime"

	blelib "github.com/go-ble/ble"
)

// DeviceFactory creates the platform ble.Device (can be overridden in tests).
//
//nolint:revive // DeviceFactory name is intentional for test mocking
var DeviceFactory = func() (blelib.Device, error) {
	return nil, fmt.Errorf("BLE stack is not supported on %s", runtime.GOOS)
}
