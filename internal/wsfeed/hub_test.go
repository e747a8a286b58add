package wsfeed

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

func newTestHub(t *testing.T) (*Hub, *httptest.Server) {
	t.Helper()

	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)

	hub := NewHub(logger)
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)

	srv := httptest.NewServer(hub.Handler())
	t.Cleanup(func() {
		srv.Close()
		cancel()
	})
	return hub, srv
}

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err, "websocket dial must succeed")
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func TestBroadcastReachesAllSubscribers(t *testing.T) {
	// GOAL: Verify a published event is fanned out to every subscriber
	//
	// TEST SCENARIO: Two clients connected → BroadcastJSON → both read
	// the same JSON text frame

	hub, srv := newTestHub(t)

	first := dial(t, srv)
	second := dial(t, srv)

	// Registration goes through the hub channel; give the loop a moment
	// before publishing.
	time.Sleep(50 * time.Millisecond)

	hub.BroadcastJSON(map[string]string{"device": "AA:BB", "type": "DoseEvent"})

	for _, conn := range []*websocket.Conn{first, second} {
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
		kind, msg, err := conn.ReadMessage()
		require.NoError(t, err)
		require.Equal(t, websocket.TextMessage, kind)
		require.JSONEq(t, `{"device":"AA:BB","type":"DoseEvent"}`, string(msg))
	}
}

func TestBroadcastWithNoSubscribersDoesNotBlock(t *testing.T) {
	// GOAL: Verify publishing never blocks the session loop
	//
	// TEST SCENARIO: No clients, broadcast channel overfilled → all
	// calls return promptly

	hub, _ := newTestHub(t)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 1000; i++ {
			hub.BroadcastJSON(map[string]int{"seq": i})
		}
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("BroadcastJSON blocked")
	}
}
