package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpsertAndSnapshotOrder(t *testing.T) {
	r := New()

	r.Upsert("aa", "IZDOSE-001", -60, Disconnected)
	r.Upsert("bb", "IZDOSE-002", -70, Disconnected)
	r.Upsert("cc", "IZDOSE-003", -80, Disconnected)

	// Re-sighting an existing device refreshes name/RSSI but must not
	// move it in the snapshot order.
	r.Upsert("aa", "IZDOSE-001x", -55, Disconnected)

	snap := r.Snapshot()
	require.Len(t, snap, 3)
	assert.Equal(t, []string{"aa", "bb", "cc"}, []string{snap[0].Identity, snap[1].Identity, snap[2].Identity})
	assert.Equal(t, "IZDOSE-001x", snap[0].DisplayName)
	assert.Equal(t, -55, snap[0].LastRSSI)
	assert.False(t, snap[0].LastSeen.IsZero())
}

func TestUpsertDoesNotClobberState(t *testing.T) {
	r := New()

	r.Upsert("aa", "IZDOSE-001", -60, Disconnected)
	r.SetState("aa", Connecting)

	// A sighting during connection establishment keeps the state.
	r.Upsert("aa", "IZDOSE-001", -58, Disconnected)

	rec, ok := r.Get("aa")
	require.True(t, ok)
	assert.Equal(t, Connecting, rec.State)
	assert.Equal(t, -58, rec.LastRSSI)
}

func TestSetStateCreatesRecordForUnknownIdentity(t *testing.T) {
	r := New()

	r.SetState("checkpointed-device", Connecting)

	rec, ok := r.Get("checkpointed-device")
	require.True(t, ok)
	assert.Equal(t, Connecting, rec.State)
	assert.Empty(t, rec.DisplayName)
	assert.Equal(t, 1, r.Len())
}

func TestConnectionStateString(t *testing.T) {
	assert.Equal(t, "disconnected", Disconnected.String())
	assert.Equal(t, "connecting", Connecting.String())
	assert.Equal(t, "connected", Connected.String())
}
