// Package ble defines the narrow radio-stack surface the session layer
// depends on. The platform stack (go-ble) is wrapped behind these
// interfaces in the goble subpackage so tests can substitute a fake
// central and drive every callback deterministically.
//
// All radio calls are fire-and-forget from the session's perspective:
// they run on their own goroutines and report back as messages into the
// session loop.
package ble

import (
	"context"
	"strings"
)

// Advertisement is one discovery sighting of a peripheral.
type Advertisement interface {
	Addr() string
	LocalName() string
	RSSI() int
	Connectable() bool
}

// Central is the local radio: it scans for advertisements and dials
// peripherals. Scan blocks until ctx is done; Dial blocks until the link
// is up or fails.
type Central interface {
	Scan(ctx context.Context, allowDup bool, handler func(Advertisement)) error
	Dial(ctx context.Context, addr string) (Client, error)
}

// Client is an established link to one peripheral.
type Client interface {
	Addr() string

	// DiscoverServices enumerates GATT services, optionally filtered to
	// the given UUIDs (empty means all).
	DiscoverServices(uuids []string) ([]Service, error)

	// Subscribe enables notifications (indication=false) or indications
	// (indication=true) on c and registers the value-update handler. The
	// handler runs on the radio stack's I/O goroutine; it must not block.
	Subscribe(c Characteristic, indication bool, handler func([]byte)) error

	// Unsubscribe disables the CCCD flag set by Subscribe.
	Unsubscribe(c Characteristic, indication bool) error

	// Disconnected returns a channel closed when the link drops, whether
	// by request or unsolicited.
	Disconnected() <-chan struct{}

	// CancelConnection tears the link down.
	CancelConnection() error
}

// Service is a discovered GATT service.
type Service interface {
	UUID() string
	DiscoverCharacteristics(uuids []string) ([]Characteristic, error)
}

// Characteristic is a discovered GATT characteristic. Implementations
// retain the attribute handles from discovery, so a Characteristic cached
// from an earlier connection to the same peripheral can be passed to
// Subscribe on a fresh Client, skipping re-enumeration.
type Characteristic interface {
	UUID() string
}

// NormalizeUUID converts a UUID string to the lookup format used
// throughout (lowercase, no dashes).
func NormalizeUUID(uuid string) string {
	return strings.ToLower(strings.ReplaceAll(uuid, "-", ""))
}
