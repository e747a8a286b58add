// Package session manages the logical connection lifecycle for IZDOSE
// sensors: discovery, connect, GATT discovery, indication subscription,
// and automatic reconnection after unsolicited link drops. It exposes the
// decoded event stream and a device-record snapshot to callers.
//
// All shared state (registry, reconnect intent, pending timers, per-link
// bookkeeping) is mutated from a single loop goroutine; radio-stack
// callbacks arriving on platform I/O goroutines are serialized into it as
// messages.
package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/cornelk/hashmap"
	"github.com/sirupsen/logrus"

	"github.com/srg/izdose/internal/ble"
	"github.com/srg/izdose/internal/ble/goble"
	"github.com/srg/izdose/internal/groutine"
	"github.com/srg/izdose/internal/protocol"
	"github.com/srg/izdose/internal/registry"
	"github.com/srg/izdose/internal/ringchan"
)

// ErrSessionClosed is returned by facade calls after Run has exited.
var ErrSessionClosed = errors.New("session closed")

// DecodedEvent is one event from one device, as delivered on the feed.
// GapBefore marks that at least one indication between this event and the
// previous one from the same device never reached the application — the
// radio layer acknowledged it, typically during the re-subscribe window
// after a reconnect.
type DecodedEvent struct {
	Identity  string         `json:"identity"`
	Event     protocol.Event `json:"event"`
	GapBefore bool           `json:"gapBefore,omitempty"`
}

// link is the loop-owned runtime state for one device identity.
type link struct {
	client ble.Client
	delay  time.Duration // next reconnect delay

	// dialGen stamps each dial attempt. A dial result whose stamp no
	// longer matches was superseded (user disconnect + reconnect while
	// it was in flight) and must not be adopted.
	dialGen uint64

	lastSeq    uint32
	haveSeq    bool
	subscribed bool
}

// Session is the only surface exposed to callers. Create with New, start
// the loop with Run, then use the facade methods from any goroutine.
type Session struct {
	cfg    Config
	logger *logrus.Logger

	reg    *registry.Registry
	events *ringchan.Ring[DecodedEvent]
	msgs   chan message
	sched  *scheduler

	// gatt caches the discovered event characteristic per identity so a
	// repeat reconnect can subscribe without re-enumerating, shrinking
	// the window in which the device re-sends buffered indications the
	// application is not yet listening for.
	gatt *hashmap.Map[string, ble.Characteristic]

	// Loop-owned fields; never touched outside the Run goroutine.
	central    ble.Central
	links      map[string]*link
	intent     map[string]struct{} // identities the user disconnected
	suspended  map[string]struct{} // reconnects parked while the radio is down
	radioUp    bool
	scanCancel context.CancelFunc
	scanGen    uint64
	runCtx     context.Context

	stopped   chan struct{}
	closeOnce sync.Once
}

// New creates a Session. The loop does not start until Run is called.
func New(cfg Config, logger *logrus.Logger) *Session {
	if logger == nil {
		logger = logrus.New()
	}
	cfg.ApplyDefaults()
	if cfg.CentralFactory == nil {
		cfg.CentralFactory = goble.NewCentral
	}

	s := &Session{
		cfg:       cfg,
		logger:    logger,
		reg:       registry.New(),
		events:    ringchan.New[DecodedEvent](cfg.EventBufferSize),
		msgs:      make(chan message, 64),
		gatt:      hashmap.New[string, ble.Characteristic](),
		links:     make(map[string]*link),
		intent:    make(map[string]struct{}),
		suspended: make(map[string]struct{}),
		radioUp:   true,
		stopped:   make(chan struct{}),
	}
	s.sched = newScheduler(func(identity string) {
		s.post(msgTimerFired{identity: identity})
	})
	return s
}

// Run executes the session loop until ctx is cancelled. It owns every
// mutation of shared state; see the message types for what flows in.
func (s *Session) Run(ctx context.Context) error {
	s.runCtx = ctx
	defer s.shutdown()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case m := <-s.msgs:
			s.handle(m)
		}
	}
}

func (s *Session) shutdown() {
	s.closeOnce.Do(func() {
		if s.scanCancel != nil {
			s.scanCancel()
			s.scanCancel = nil
		}
		s.sched.CancelAll()
		for id, l := range s.links {
			if l.client != nil {
				if err := l.client.CancelConnection(); err != nil {
					s.logger.WithError(err).WithField("device", id).Warn("Failed to drop connection during shutdown")
				}
				l.client = nil
			}
		}
		close(s.stopped)

		written, dropped := s.events.Stats()
		s.logger.WithFields(logrus.Fields{
			"events_written": written,
			"events_dropped": dropped,
		}).Debug("Session loop stopped")
		s.events.Close()
	})
}

// post delivers a message to the loop, dropping it if the session has
// already stopped. Radio callbacks firing during teardown land here.
func (s *Session) post(m message) bool {
	select {
	case s.msgs <- m:
		return true
	case <-s.stopped:
		return false
	}
}

// request posts a message that carries a reply channel and waits for the
// loop's answer.
func (s *Session) request(m message, resp chan error) error {
	if !s.post(m) {
		return ErrSessionClosed
	}
	select {
	case err := <-resp:
		return err
	case <-s.stopped:
		return ErrSessionClosed
	}
}

// StartScan begins discovery of IZDOSE sensors. Sightings upsert the
// device registry; read them via Snapshot. Returns
// ble.ErrRadioUnavailable while the radio capability is down.
func (s *Session) StartScan() error {
	resp := make(chan error, 1)
	return s.request(msgStartScan{resp: resp}, resp)
}

// StopScan ends discovery. Safe to call when no scan is running.
func (s *Session) StopScan() error {
	resp := make(chan error, 1)
	return s.request(msgStopScan{resp: resp}, resp)
}

// Connect initiates a connection to identity and clears any previous
// user-disconnect intent for it. The connection itself completes
// asynchronously; watch the registry for state changes.
func (s *Session) Connect(identity string) error {
	if identity == "" {
		return errors.New("device identity is required")
	}
	resp := make(chan error, 1)
	return s.request(msgConnect{identity: identity, resp: resp}, resp)
}

// Disconnect drops identity by user intent: automatic reconnection stays
// suppressed until the next Connect call for the same identity.
func (s *Session) Disconnect(identity string) error {
	if identity == "" {
		return errors.New("device identity is required")
	}
	resp := make(chan error, 1)
	return s.request(msgDisconnect{identity: identity, resp: resp}, resp)
}

// Events returns the decoded event feed. The channel closes when the
// session stops. The feed is bounded: if the consumer falls behind, the
// oldest undelivered events are discarded (sequence numbers expose this).
func (s *Session) Events() <-chan DecodedEvent {
	return s.events.C()
}

// Snapshot returns the known devices in first-sighting order.
func (s *Session) Snapshot() []registry.DeviceRecord {
	return s.reg.Snapshot()
}

// ConnectedIdentities returns the identities currently in the Connected
// state, in first-sighting order. Used for checkpointing.
func (s *Session) ConnectedIdentities() []string {
	var out []string
	for _, rec := range s.reg.Snapshot() {
		if rec.State == registry.Connected {
			out = append(out, rec.Identity)
		}
	}
	return out
}

// SetRadioAvailability informs the session that the radio capability was
// lost or restored (Bluetooth toggled, permission changed). Loss cancels
// all pending reconnect timers; restoration re-arms them.
func (s *Session) SetRadioAvailability(available bool) {
	s.post(msgRadioState{available: available})
}

// spawn runs fn on its own goroutine, labeled for profiling, tied to the
// session lifetime.
func (s *Session) spawn(name string, fn func(ctx context.Context)) {
	groutine.Go(s.runCtx, name, fn)
}
