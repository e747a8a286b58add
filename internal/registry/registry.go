// Package registry is the authoritative store of known devices and their
// connection state. It is written from a single goroutine (the session
// loop); anything else only reads snapshots.
package registry

import (
	"sync"
	"time"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// ConnectionState is the session-level link state of one device. Every
// identity has exactly one state at any instant, and transitions happen
// only inside the session loop.
type ConnectionState int

const (
	Disconnected ConnectionState = iota
	Connecting
	Connected
)

func (s ConnectionState) String() string {
	switch s {
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	default:
		return "disconnected"
	}
}

// DeviceRecord is one device as last observed. DisplayName and LastRSSI
// refresh on every advertisement sighting; State changes only through
// the session's state machine. Records are never removed while the
// process runs; a stale record is harmless.
type DeviceRecord struct {
	Identity    string          `json:"identity"`
	DisplayName string          `json:"displayName"`
	LastRSSI    int             `json:"lastRssi"`
	State       ConnectionState `json:"state"`
	LastSeen    time.Time       `json:"lastSeen"`
}

// Registry maps device identity to its record, preserving first-sighting
// order for snapshots.
type Registry struct {
	mu      sync.RWMutex
	records *orderedmap.OrderedMap[string, DeviceRecord]
}

func New() *Registry {
	return &Registry{
		records: orderedmap.New[string, DeviceRecord](),
	}
}

// Upsert creates or refreshes the record for identity. State is applied
// only when the record is new; an existing record keeps its state so that
// advertisement sightings cannot clobber an in-flight connection.
func (r *Registry) Upsert(identity, name string, rssi int, state ConnectionState) DeviceRecord {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.records.Get(identity)
	if !ok {
		rec = DeviceRecord{Identity: identity, State: state}
	}
	rec.DisplayName = name
	rec.LastRSSI = rssi
	rec.LastSeen = time.Now()
	r.records.Set(identity, rec)
	return rec
}

// SetState updates the connection state for identity. Unknown identities
// get a bare record; a connect request may legitimately arrive for a
// device restored from a checkpoint that was never sighted this run.
func (r *Registry) SetState(identity string, state ConnectionState) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.records.Get(identity)
	if !ok {
		rec = DeviceRecord{Identity: identity}
	}
	rec.State = state
	r.records.Set(identity, rec)
}

// Get returns the record for identity, if any.
func (r *Registry) Get(identity string) (DeviceRecord, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.records.Get(identity)
}

// Snapshot returns all records in first-sighting order.
func (r *Registry) Snapshot() []DeviceRecord {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]DeviceRecord, 0, r.records.Len())
	for pair := r.records.Oldest(); pair != nil; pair = pair.Next() {
		out = append(out, pair.Value)
	}
	return out
}

// Len returns the number of known devices.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.records.Len()
}
