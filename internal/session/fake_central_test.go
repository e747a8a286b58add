package session

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/srg/izdose/internal/ble"
)

// Fake radio stack for driving the session loop deterministically: the
// test advertises sightings, resolves dials, pushes indication frames,
// and drops links by closing the client's disconnect channel.

type fakeAdvertisement struct {
	addr string
	name string
	rssi int
}

func (a fakeAdvertisement) Addr() string      { return a.addr }
func (a fakeAdvertisement) LocalName() string { return a.name }
func (a fakeAdvertisement) RSSI() int         { return a.rssi }
func (a fakeAdvertisement) Connectable() bool { return true }

type fakeCharacteristic struct {
	uuid string
}

func (c *fakeCharacteristic) UUID() string { return c.uuid }

type fakeService struct {
	uuid  string
	chars []ble.Characteristic
	err   error
}

func (s *fakeService) UUID() string { return s.uuid }

func (s *fakeService) DiscoverCharacteristics([]string) ([]ble.Characteristic, error) {
	return s.chars, s.err
}

type fakeClient struct {
	addr         string
	services     []ble.Service
	disconnected chan struct{}
	dropOnce     sync.Once

	mu           sync.Mutex
	handler      func([]byte)
	subscribeErr error
	discoverErr  error

	subscribeCalls atomic.Int32
	discoverCalls  atomic.Int32
}

func newFakeClient(addr string) *fakeClient {
	char := &fakeCharacteristic{uuid: ble.NormalizeUUID(DefaultCharacteristicUUID)}
	return &fakeClient{
		addr: addr,
		services: []ble.Service{&fakeService{
			uuid:  ble.NormalizeUUID(DefaultServiceUUID),
			chars: []ble.Characteristic{char},
		}},
		disconnected: make(chan struct{}),
	}
}

func (c *fakeClient) Addr() string { return c.addr }

func (c *fakeClient) DiscoverServices([]string) ([]ble.Service, error) {
	c.discoverCalls.Add(1)
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.discoverErr != nil {
		return nil, c.discoverErr
	}
	return c.services, nil
}

func (c *fakeClient) Subscribe(_ ble.Characteristic, _ bool, handler func([]byte)) error {
	c.subscribeCalls.Add(1)
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.subscribeErr != nil {
		return c.subscribeErr
	}
	c.handler = handler
	return nil
}

func (c *fakeClient) Unsubscribe(ble.Characteristic, bool) error { return nil }

func (c *fakeClient) Disconnected() <-chan struct{} { return c.disconnected }

func (c *fakeClient) CancelConnection() error {
	c.drop()
	return nil
}

// drop simulates the radio stack reporting the link down.
func (c *fakeClient) drop() {
	c.dropOnce.Do(func() { close(c.disconnected) })
}

// isDropped reports whether the link has been torn down.
func (c *fakeClient) isDropped() bool {
	select {
	case <-c.disconnected:
		return true
	default:
		return false
	}
}

// push delivers an indication frame as the radio I/O goroutine would.
func (c *fakeClient) push(frame []byte) bool {
	c.mu.Lock()
	handler := c.handler
	c.mu.Unlock()
	if handler == nil {
		return false
	}
	handler(frame)
	return true
}

type fakeCentral struct {
	mu               sync.Mutex
	dialQueue        []error // next dial outcomes; empty means success
	dialHold         chan struct{}
	clients          []*fakeClient
	nextSubscribeErr error
	dialCalls        atomic.Int32

	scanMu        sync.Mutex
	scanHandler   func(ble.Advertisement)
	scanSeq       int
	activeScan    int
	scanStopDelay time.Duration
}

func newFakeCentral() *fakeCentral { return &fakeCentral{} }

func (c *fakeCentral) Scan(ctx context.Context, _ bool, handler func(ble.Advertisement)) error {
	c.scanMu.Lock()
	c.scanSeq++
	id := c.scanSeq
	c.scanHandler = handler
	c.activeScan = id
	delay := c.scanStopDelay
	c.scanMu.Unlock()

	<-ctx.Done()

	// A cancelled scan can take a while to actually wind down on a real
	// stack; a newer scan may already have registered its handler.
	if delay > 0 {
		time.Sleep(delay)
	}
	c.scanMu.Lock()
	if c.activeScan == id {
		c.scanHandler = nil
	}
	c.scanMu.Unlock()
	return ctx.Err()
}

// advertise injects a sighting into a running scan.
func (c *fakeCentral) advertise(adv fakeAdvertisement) bool {
	c.scanMu.Lock()
	handler := c.scanHandler
	c.scanMu.Unlock()
	if handler == nil {
		return false
	}
	handler(adv)
	return true
}

// failNextDial queues an error for the next dial attempt.
func (c *fakeCentral) failNextDial(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.dialQueue = append(c.dialQueue, err)
}

// failSubscribe makes clients from subsequent dials reject Subscribe.
func (c *fakeCentral) failSubscribe(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.nextSubscribeErr = err
}

// holdNextDial makes exactly one upcoming dial block until the returned
// gate is closed, so a test can keep a dial in flight across other calls.
func (c *fakeCentral) holdNextDial() chan struct{} {
	gate := make(chan struct{})
	c.mu.Lock()
	c.dialHold = gate
	c.mu.Unlock()
	return gate
}

func (c *fakeCentral) Dial(_ context.Context, addr string) (ble.Client, error) {
	c.dialCalls.Add(1)

	c.mu.Lock()
	gate := c.dialHold
	c.dialHold = nil
	c.mu.Unlock()
	if gate != nil {
		<-gate
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.dialQueue) > 0 {
		err := c.dialQueue[0]
		c.dialQueue = c.dialQueue[1:]
		if err != nil {
			return nil, err
		}
	}
	client := newFakeClient(addr)
	client.subscribeErr = c.nextSubscribeErr
	c.clients = append(c.clients, client)
	return client, nil
}

// lastClient returns the most recently dialed client.
func (c *fakeCentral) lastClient() *fakeClient {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.clients) == 0 {
		return nil
	}
	return c.clients[len(c.clients)-1]
}

// client returns the i-th dialed client in creation order, or nil.
func (c *fakeCentral) client(i int) *fakeClient {
	c.mu.Lock()
	defer c.mu.Unlock()
	if i >= len(c.clients) {
		return nil
	}
	return c.clients[i]
}
