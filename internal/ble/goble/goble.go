// Package goble adapts the go-ble stack to the ble package interfaces.
package goble

import (
	"context"
	"fmt"

	blelib "github.com/go-ble/ble"

	"github.com/srg/izdose/internal/ble"
)

// NewCentral creates a ble.Central backed by the platform stack. A
// capability problem (Bluetooth off, unauthorized) surfaces here as
// ble.ErrRadioUnavailable.
func NewCentral() (ble.Central, error) {
	dev, err := DeviceFactory()
	if err != nil {
		return nil, ble.NormalizeError(err)
	}
	return &central{dev: dev}, nil
}

type central struct {
	dev blelib.Device
}

func (c *central) Scan(ctx context.Context, allowDup bool, handler func(ble.Advertisement)) error {
	err := c.dev.Scan(ctx, allowDup, func(adv blelib.Advertisement) {
		handler(&advertisement{adv: adv})
	})
	return ble.NormalizeError(err)
}

func (c *central) Dial(ctx context.Context, addr string) (ble.Client, error) {
	cl, err := c.dev.Dial(ctx, blelib.NewAddr(addr))
	if err != nil {
		return nil, ble.NormalizeError(err)
	}
	return &client{cl: cl}, nil
}

type advertisement struct {
	adv blelib.Advertisement
}

func (a *advertisement) Addr() string      { return a.adv.Addr().String() }
func (a *advertisement) LocalName() string { return a.adv.LocalName() }
func (a *advertisement) RSSI() int         { return a.adv.RSSI() }
func (a *advertisement) Connectable() bool { return a.adv.Connectable() }

type client struct {
	cl blelib.Client
}

func (c *client) Addr() string { return c.cl.Addr().String() }

func (c *client) DiscoverServices(uuids []string) ([]ble.Service, error) {
	filter, err := parseUUIDs(uuids)
	if err != nil {
		return nil, err
	}
	svcs, err := c.cl.DiscoverServices(filter)
	if err != nil {
		return nil, ble.NormalizeError(err)
	}
	out := make([]ble.Service, 0, len(svcs))
	for _, s := range svcs {
		out = append(out, &service{cl: c.cl, svc: s})
	}
	return out, nil
}

func (c *client) Subscribe(ch ble.Characteristic, indication bool, handler func([]byte)) error {
	gc, ok := ch.(*characteristic)
	if !ok {
		return fmt.Errorf("characteristic %q was not discovered through this stack", ch.UUID())
	}
	return ble.NormalizeError(c.cl.Subscribe(gc.char, indication, func(data []byte) {
		handler(data)
	}))
}

func (c *client) Unsubscribe(ch ble.Characteristic, indication bool) error {
	gc, ok := ch.(*characteristic)
	if !ok {
		return fmt.Errorf("characteristic %q was not discovered through this stack", ch.UUID())
	}
	return ble.NormalizeError(c.cl.Unsubscribe(gc.char, indication))
}

func (c *client) Disconnected() <-chan struct{} {
	return c.cl.Disconnected()
}

func (c *client) CancelConnection() error {
	return ble.NormalizeError(c.cl.CancelConnection())
}

type service struct {
	cl  blelib.Client
	svc *blelib.Service
}

func (s *service) UUID() string {
	return ble.NormalizeUUID(s.svc.UUID.String())
}

func (s *service) DiscoverCharacteristics(uuids []string) ([]ble.Characteristic, error) {
	filter, err := parseUUIDs(uuids)
	if err != nil {
		return nil, err
	}
	chars, err := s.cl.DiscoverCharacteristics(filter, s.svc)
	if err != nil {
		return nil, ble.NormalizeError(err)
	}
	out := make([]ble.Characteristic, 0, len(chars))
	for _, ch := range chars {
		out = append(out, &characteristic{char: ch})
	}
	return out, nil
}

// characteristic keeps the live *blelib.Characteristic, including its
// attribute and CCCD handles. The handles are stable per peripheral, so a
// cached characteristic can be re-subscribed on a later connection
// without re-running discovery.
type characteristic struct {
	char *blelib.Characteristic
}

func (c *characteristic) UUID() string {
	return ble.NormalizeUUID(c.char.UUID.String())
}

func parseUUIDs(uuids []string) ([]blelib.UUID, error) {
	if len(uuids) == 0 {
		return nil, nil
	}
	out := make([]blelib.UUID, 0, len(uuids))
	for _, s := range uuids {
		u, err := blelib.Parse(s)
		if err != nil {
			return nil, fmt.Errorf("invalid UUID %q: %w", s, err)
		}
		out = append(out, u)
	}
	return out, nil
}
