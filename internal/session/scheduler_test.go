package session

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBackoffSequence(t *testing.T) {
	// Starting at 3s, consecutive failures multiply the delay by 1.5x
	// until the 30s cap, where it stays.
	base := 3 * time.Second
	max := 30 * time.Second

	want := []time.Duration{
		3 * time.Second,
		4500 * time.Millisecond,
		6750 * time.Millisecond,
		10125 * time.Millisecond,
		15187500 * time.Microsecond,
		22781250 * time.Microsecond,
		30 * time.Second,
		30 * time.Second,
		30 * time.Second,
	}

	d := base
	for i, w := range want {
		assert.Equal(t, w, d, "delay #%d", i)
		d = nextDelay(d, max)
	}
}

func TestSchedulerArmIsCancelAndReplace(t *testing.T) {
	var fires atomic.Int32
	s := newScheduler(func(string) { fires.Add(1) })

	// Arming twice in quick succession must leave exactly one live timer.
	s.Arm("aa", 30*time.Millisecond)
	s.Arm("aa", 30*time.Millisecond)
	require.True(t, s.Pending("aa"))

	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, int32(1), fires.Load(), "exactly one expiry for a re-armed identity")
	assert.False(t, s.Pending("aa"), "expired timer must be cleared")
}

func TestSchedulerCancelIsIdempotent(t *testing.T) {
	var fires atomic.Int32
	s := newScheduler(func(string) { fires.Add(1) })

	s.Arm("aa", 20*time.Millisecond)
	s.Cancel("aa")
	s.Cancel("aa") // second cancel is a no-op
	s.Cancel("never-armed")

	time.Sleep(60 * time.Millisecond)
	assert.Zero(t, fires.Load(), "cancelled timer must not fire")
	assert.False(t, s.Pending("aa"))
}

func TestSchedulerTimersAreIndependentPerIdentity(t *testing.T) {
	fired := make(chan string, 4)
	s := newScheduler(func(id string) { fired <- id })

	s.Arm("aa", 20*time.Millisecond)
	s.Arm("bb", 20*time.Millisecond)
	s.Cancel("aa")

	select {
	case id := <-fired:
		assert.Equal(t, "bb", id)
	case <-time.After(200 * time.Millisecond):
		t.Fatal("timer for bb must fire")
	}

	select {
	case id := <-fired:
		t.Fatalf("unexpected extra expiry for %q", id)
	case <-time.After(60 * time.Millisecond):
	}
}

func TestSchedulerCancelAllReturnsArmedIdentities(t *testing.T) {
	var fires atomic.Int32
	s := newScheduler(func(string) { fires.Add(1) })

	s.Arm("aa", 20*time.Millisecond)
	s.Arm("bb", 20*time.Millisecond)

	ids := s.CancelAll()
	assert.ElementsMatch(t, []string{"aa", "bb"}, ids)

	time.Sleep(60 * time.Millisecond)
	assert.Zero(t, fires.Load())
}
