package session

import (
	"sync"
	"time"
)

// nextDelay advances the reconnect backoff: 1.5x per consecutive failure,
// capped at max. Once at the cap it stays there.
func nextDelay(cur, max time.Duration) time.Duration {
	next := time.Duration(float64(cur) * 1.5)
	if next > max {
		return max
	}
	return next
}

// scheduler owns at most one pending reconnect timer per device identity.
// Arming an identity that already has a timer cancels and replaces it, so
// "one timer per device" is structural rather than a convention. Expiry
// calls fire, which posts back into the session loop; the scheduler never
// touches session state itself.
type scheduler struct {
	mu     sync.Mutex
	timers map[string]*time.Timer
	fire   func(identity string)
}

func newScheduler(fire func(identity string)) *scheduler {
	return &scheduler{
		timers: make(map[string]*time.Timer),
		fire:   fire,
	}
}

// Arm schedules a reconnect attempt for identity after delay, replacing
// any timer already pending for it.
func (s *scheduler) Arm(identity string, delay time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if t, ok := s.timers[identity]; ok {
		t.Stop()
	}

	var t *time.Timer
	t = time.AfterFunc(delay, func() {
		s.mu.Lock()
		// A replaced timer can still run its callback; only the current
		// one is allowed to fire.
		if cur, ok := s.timers[identity]; !ok || cur != t {
			s.mu.Unlock()
			return
		}
		delete(s.timers, identity)
		s.mu.Unlock()
		s.fire(identity)
	})
	s.timers[identity] = t
}

// Cancel stops the pending timer for identity, if any. Idempotent.
func (s *scheduler) Cancel(identity string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if t, ok := s.timers[identity]; ok {
		t.Stop()
		delete(s.timers, identity)
	}
}

// CancelAll stops every pending timer and returns the identities that had
// one, so the caller can re-arm them when the radio capability returns.
func (s *scheduler) CancelAll() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := make([]string, 0, len(s.timers))
	for id, t := range s.timers {
		t.Stop()
		ids = append(ids, id)
	}
	s.timers = make(map[string]*time.Timer)
	return ids
}

// Pending reports whether identity has an armed timer.
func (s *scheduler) Pending(identity string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.timers[identity]
	return ok
}
