package session

import "github.com/srg/izdose/internal/ble"

// Radio-stack callbacks and user intents both enter the session as
// messages handled on a single goroutine, turning the platform's implicit
// callback reentrancy into one testable dispatch function (see handle in
// machine.go).
type message interface {
	isMessage()
}

// User intents.
type (
	msgStartScan struct{ resp chan error }

	msgStopScan struct{ resp chan error }

	msgConnect struct {
		identity string
		resp     chan error
	}

	msgDisconnect struct {
		identity string
		resp     chan error
	}
)

// Radio-stack callbacks, re-entering from I/O goroutines.
type (
	msgSighting struct {
		identity string
		name     string
		rssi     int
	}

	msgScanStopped struct {
		gen uint64
		err error
	}

	msgConnectResult struct {
		identity string
		gen      uint64
		client   ble.Client
		err      error
	}

	msgSubscribed struct {
		identity string
		char     ble.Characteristic
		cached   bool
		err      error
	}

	msgDisconnected struct {
		identity string
		client   ble.Client
	}

	msgValue struct {
		identity string
		data     []byte
	}
)

// Internal triggers.
type (
	msgTimerFired struct{ identity string }

	msgRadioState struct{ available bool }
)

func (msgStartScan) isMessage()     {}
func (msgStopScan) isMessage()      {}
func (msgConnect) isMessage()       {}
func (msgDisconnect) isMessage()    {}
func (msgSighting) isMessage()      {}
func (msgScanStopped) isMessage()   {}
func (msgConnectResult) isMessage() {}
func (msgSubscribed) isMessage()    {}
func (msgDisconnected) isMessage()  {}
func (msgValue) isMessage()         {}
func (msgTimerFired) isMessage()    {}
func (msgRadioState) isMessage()    {}
