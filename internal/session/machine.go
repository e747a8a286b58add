package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/srg/izdose/internal/ble"
	"github.com/srg/izdose/internal/protocol"
	"github.com/srg/izdose/internal/registry"
)

// handle is the state machine's single entry point. It runs on the loop
// goroutine only.
func (s *Session) handle(m message) {
	switch m := m.(type) {
	case msgStartScan:
		m.resp <- s.startScan()
	case msgStopScan:
		s.stopScan()
		m.resp <- nil
	case msgConnect:
		m.resp <- s.connect(m.identity)
	case msgDisconnect:
		m.resp <- s.disconnect(m.identity)
	case msgSighting:
		s.sighting(m)
	case msgScanStopped:
		s.scanStopped(m)
	case msgConnectResult:
		s.connectResult(m)
	case msgSubscribed:
		s.subscribed(m)
	case msgDisconnected:
		s.unsolicitedDisconnect(m)
	case msgValue:
		s.value(m)
	case msgTimerFired:
		s.timerFired(m.identity)
	case msgRadioState:
		if m.available {
			s.radioRestored()
		} else {
			s.radioLost()
		}
	}
}

// link returns the runtime state for identity, creating it on first use.
func (s *Session) link(identity string) *link {
	l, ok := s.links[identity]
	if !ok {
		l = &link{delay: s.cfg.ReconnectBaseDelay}
		s.links[identity] = l
	}
	return l
}

// acquireCentral returns the radio central, creating it on first use. A
// capability failure marks the radio down and parks pending reconnects.
func (s *Session) acquireCentral() (ble.Central, error) {
	if s.central != nil {
		return s.central, nil
	}
	if !s.radioUp {
		return nil, ble.ErrRadioUnavailable
	}
	c, err := s.cfg.CentralFactory()
	if err != nil {
		err = ble.NormalizeError(err)
		if ble.IsRadioUnavailable(err) {
			s.radioLost()
		}
		return nil, err
	}
	s.central = c
	return c, nil
}

func (s *Session) startScan() error {
	if s.scanCancel != nil {
		return nil // already scanning
	}
	central, err := s.acquireCentral()
	if err != nil {
		return err
	}

	scanCtx, cancel := context.WithCancel(s.runCtx)
	s.scanCancel = cancel
	s.scanGen++
	gen := s.scanGen
	s.logger.Info("Starting BLE scan for IZDOSE sensors")

	s.spawn("ble-scan", func(ctx context.Context) {
		err := central.Scan(scanCtx, true, func(adv ble.Advertisement) {
			if !MatchesProductName(adv.LocalName()) {
				return
			}
			s.post(msgSighting{
				identity: adv.Addr(),
				name:     adv.LocalName(),
				rssi:     adv.RSSI(),
			})
		})
		s.post(msgScanStopped{gen: gen, err: err})
	})
	return nil
}

// stopScan clears scanCancel right away so a prompt StartScan actually
// starts a new scan instead of seeing the stopping one as still active.
func (s *Session) stopScan() {
	if s.scanCancel != nil {
		s.scanCancel()
		s.scanCancel = nil
	}
}

func (s *Session) scanStopped(m msgScanStopped) {
	if m.gen != s.scanGen {
		return // a newer scan is running; this is the old one winding down
	}
	if s.scanCancel != nil {
		s.scanCancel()
		s.scanCancel = nil
	}
	if m.err == nil || errors.Is(m.err, context.Canceled) || errors.Is(m.err, context.DeadlineExceeded) {
		s.logger.WithField("device_count", s.reg.Len()).Info("BLE scan stopped")
		return
	}
	s.logger.WithError(m.err).Warn("BLE scan ended with error")
	if ble.IsRadioUnavailable(m.err) {
		s.radioLost()
	}
}

func (s *Session) sighting(m msgSighting) {
	s.reg.Upsert(m.identity, m.name, m.rssi, registry.Disconnected)
}

func (s *Session) connect(identity string) error {
	// A user connect always clears the user-disconnect intent first.
	delete(s.intent, identity)

	if rec, ok := s.reg.Get(identity); ok && rec.State != registry.Disconnected {
		return nil // connect already in progress or established
	}
	central, err := s.acquireCentral()
	if err != nil {
		return err
	}
	s.startDial(central, identity)
	return nil
}

func (s *Session) startDial(central ble.Central, identity string) {
	l := s.link(identity)
	l.dialGen++
	gen := l.dialGen
	s.reg.SetState(identity, registry.Connecting)

	s.spawn("dial-"+identity, func(ctx context.Context) {
		dialCtx, cancel := context.WithTimeout(ctx, s.cfg.ConnectTimeout)
		defer cancel()

		client, err := central.Dial(dialCtx, identity)
		s.post(msgConnectResult{identity: identity, gen: gen, client: client, err: err})
	})
}

func (s *Session) connectResult(m msgConnectResult) {
	l := s.link(m.identity)

	if m.gen != l.dialGen {
		// A newer dial superseded this one; its outcome must not touch
		// the link. A stale success still holds a live radio connection,
		// which has to be dropped or the device ends up double-linked.
		if m.client != nil {
			client := m.client
			s.spawn("cancel-"+m.identity, func(context.Context) {
				_ = client.CancelConnection()
			})
		}
		s.logger.WithField("device", m.identity).Debug("Discarding superseded dial result")
		return
	}

	if m.err != nil {
		err := ble.NormalizeError(m.err)
		s.reg.SetState(m.identity, registry.Disconnected)
		s.logger.WithError(err).WithField("device", m.identity).Warn("Connect attempt failed")

		if ble.IsRadioUnavailable(err) {
			s.radioLost()
			s.suspended[m.identity] = struct{}{}
			return
		}
		if _, userStopped := s.intent[m.identity]; userStopped {
			return
		}
		if !s.radioUp {
			s.suspended[m.identity] = struct{}{}
			return
		}
		s.sched.Arm(m.identity, l.delay)
		l.delay = nextDelay(l.delay, s.cfg.ReconnectMaxDelay)
		return
	}

	if _, userStopped := s.intent[m.identity]; userStopped {
		// The user disconnected while this dial was in flight.
		s.reg.SetState(m.identity, registry.Disconnected)
		client := m.client
		s.spawn("cancel-"+m.identity, func(context.Context) {
			_ = client.CancelConnection()
		})
		return
	}

	l.client = m.client
	l.delay = s.cfg.ReconnectBaseDelay
	s.reg.SetState(m.identity, registry.Connected)
	s.sched.Cancel(m.identity)
	s.logger.WithField("device", m.identity).Info("Device connected")

	s.watchDisconnect(m.identity, m.client)
	s.startSubscription(m.identity, m.client)
}

// watchDisconnect reports the link drop back into the loop, solicited or
// not. The loop tells the two apart by the user-disconnect intent.
func (s *Session) watchDisconnect(identity string, client ble.Client) {
	s.spawn("watch-"+identity, func(ctx context.Context) {
		select {
		case <-client.Disconnected():
			s.post(msgDisconnected{identity: identity, client: client})
		case <-ctx.Done():
		}
	})
}

// startSubscription runs the discovery chain off-loop: cached
// characteristic first, full service/characteristic enumeration as
// fallback, then the indication subscribe. The device starts re-sending
// buffered indications as soon as the link is up, so every step skipped
// here narrows the window of acknowledged-but-undelivered frames.
func (s *Session) startSubscription(identity string, client ble.Client) {
	handler := s.valueHandler(identity)

	s.spawn("subscribe-"+identity, func(context.Context) {
		if cached, ok := s.gatt.Get(identity); ok {
			err := client.Subscribe(cached, true, handler)
			if err == nil {
				s.post(msgSubscribed{identity: identity, char: cached, cached: true})
				return
			}
			s.logger.WithError(err).WithField("device", identity).
				Debug("Cached characteristic rejected, falling back to discovery")
		}

		char, err := s.discoverEventCharacteristic(client)
		if err != nil {
			s.post(msgSubscribed{identity: identity, err: err})
			return
		}
		err = client.Subscribe(char, true, handler)
		s.post(msgSubscribed{identity: identity, char: char, err: err})
	})
}

func (s *Session) discoverEventCharacteristic(client ble.Client) (ble.Characteristic, error) {
	svcs, err := client.DiscoverServices([]string{s.cfg.ServiceUUID})
	if err != nil {
		return nil, fmt.Errorf("service discovery failed: %w", err)
	}
	if len(svcs) == 0 {
		return nil, fmt.Errorf("service %q not found", s.cfg.ServiceUUID)
	}
	chars, err := svcs[0].DiscoverCharacteristics([]string{s.cfg.CharacteristicUUID})
	if err != nil {
		return nil, fmt.Errorf("characteristic discovery failed: %w", err)
	}
	if len(chars) == 0 {
		return nil, fmt.Errorf("characteristic %q not found in service %q", s.cfg.CharacteristicUUID, s.cfg.ServiceUUID)
	}
	return chars[0], nil
}

// valueHandler copies indication payloads off the radio I/O goroutine and
// into the loop. The stack may reuse its buffer after the callback
// returns, so the copy is mandatory.
func (s *Session) valueHandler(identity string) func([]byte) {
	return func(data []byte) {
		buf := make([]byte, len(data))
		copy(buf, data)
		s.post(msgValue{identity: identity, data: buf})
	}
}

func (s *Session) subscribed(m msgSubscribed) {
	if m.err != nil {
		// Not a reconnect trigger: the link stays Connected but inert for
		// this device until the next disconnect callback starts a full
		// cycle.
		s.logger.WithError(m.err).WithField("device", m.identity).
			Warn("Subscription setup failed; no events until next reconnect")
		return
	}
	s.gatt.Set(m.identity, m.char)
	s.link(m.identity).subscribed = true
	s.logger.WithFields(logrus.Fields{
		"device":     m.identity,
		"from_cache": m.cached,
	}).Info("Subscribed to event indications")
}

func (s *Session) value(m msgValue) {
	if len(m.data) < protocol.MinFrameLen {
		s.logger.WithFields(logrus.Fields{
			"device": m.identity,
			"len":    len(m.data),
		}).Warn("Discarding short event frame")
		return
	}
	ev, err := protocol.Decode(m.data)
	if err != nil {
		s.logger.WithError(err).WithField("device", m.identity).Warn("Discarding undecodable event frame")
		return
	}

	l := s.link(m.identity)
	gap := l.haveSeq && ev.SequenceNumber != l.lastSeq+1
	if gap {
		s.logger.WithFields(logrus.Fields{
			"device":   m.identity,
			"expected": l.lastSeq + 1,
			"got":      ev.SequenceNumber,
		}).Warn("Sequence gap: events were lost between device and application")
	}
	l.lastSeq = ev.SequenceNumber
	l.haveSeq = true

	if dropped := s.events.Send(DecodedEvent{Identity: m.identity, Event: ev, GapBefore: gap}); dropped {
		s.logger.WithField("device", m.identity).Debug("Event feed full, dropped oldest")
	}
}

func (s *Session) disconnect(identity string) error {
	s.intent[identity] = struct{}{}
	s.sched.Cancel(identity)

	l := s.link(identity)
	if l.client != nil {
		client := l.client
		s.spawn("cancel-"+identity, func(context.Context) {
			_ = client.CancelConnection()
		})
		// State flips to Disconnected when the disconnect callback lands.
		return nil
	}
	if rec, ok := s.reg.Get(identity); ok && rec.State == registry.Disconnected {
		return nil
	}
	// A dial may still be in flight; connectResult sees the intent and
	// drops the link. Either way the user-visible state is final.
	s.reg.SetState(identity, registry.Disconnected)
	return nil
}

func (s *Session) unsolicitedDisconnect(m msgDisconnected) {
	l := s.link(m.identity)
	if l.client != m.client {
		return // stale watcher from a connection already replaced
	}
	l.client = nil
	l.subscribed = false
	s.reg.SetState(m.identity, registry.Disconnected)

	if _, userStopped := s.intent[m.identity]; userStopped {
		s.logger.WithField("device", m.identity).Info("Device disconnected by user")
		return
	}

	s.logger.WithField("device", m.identity).Warn("Device disconnected unexpectedly")
	if !s.radioUp {
		s.suspended[m.identity] = struct{}{}
		return
	}
	s.sched.Arm(m.identity, s.cfg.ReconnectBaseDelay)
	l.delay = nextDelay(s.cfg.ReconnectBaseDelay, s.cfg.ReconnectMaxDelay)
}

func (s *Session) timerFired(identity string) {
	if _, userStopped := s.intent[identity]; userStopped {
		return
	}
	if !s.radioUp {
		s.suspended[identity] = struct{}{}
		return
	}
	if rec, ok := s.reg.Get(identity); ok && rec.State != registry.Disconnected {
		return
	}
	central, err := s.acquireCentral()
	if err != nil {
		s.logger.WithError(err).WithField("device", identity).Warn("Reconnect attempt blocked")
		if ble.IsRadioUnavailable(err) {
			s.suspended[identity] = struct{}{}
			return
		}
		// A transient acquisition failure must not end reconnection for
		// good; keep the timer cycle alive at the current backoff.
		l := s.link(identity)
		s.sched.Arm(identity, l.delay)
		l.delay = nextDelay(l.delay, s.cfg.ReconnectMaxDelay)
		return
	}
	s.startDial(central, identity)
}

// radioLost parks every pending reconnect until the capability returns.
// The timers are cancelled, not forgotten: radioRestored re-arms them.
func (s *Session) radioLost() {
	if !s.radioUp && s.central == nil {
		return
	}
	s.radioUp = false
	s.central = nil
	if s.scanCancel != nil {
		s.scanCancel()
		s.scanCancel = nil
	}
	for _, id := range s.sched.CancelAll() {
		s.suspended[id] = struct{}{}
	}
	s.logger.Warn("Radio capability lost; reconnect timers suspended")
}

func (s *Session) radioRestored() {
	s.radioUp = true
	for id := range s.suspended {
		if _, userStopped := s.intent[id]; userStopped {
			continue
		}
		s.sched.Arm(id, s.cfg.ReconnectBaseDelay)
		s.link(id).delay = nextDelay(s.cfg.ReconnectBaseDelay, s.cfg.ReconnectMaxDelay)
	}
	s.suspended = make(map[string]struct{})
	s.logger.Info("Radio capability restored; reconnect timers re-armed")
}
