package main

import (
	"bytes"
	"context"
	"io"
	"os"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/srg/izdose/internal/ble"
	"github.com/srg/izdose/internal/registry"
)

func TestFormatVersion(t *testing.T) {
	assert.Equal(t, "v1.2.3", formatVersion("1.2.3"))
	assert.Equal(t, "v2.0", formatVersion("2.0"))
	assert.Equal(t, "dev", formatVersion("dev"))
	assert.Equal(t, "", formatVersion(""))
}

func TestFormatUserError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{
			name: "radio unavailable gets actionable message",
			err:  ble.ErrRadioUnavailable,
			want: "Bluetooth is unavailable. Turn the radio on and check permissions, then retry.",
		},
		{
			name: "wrapped radio error still recognized",
			err:  errors.Wrap(ble.ErrRadioUnavailable, "scan"),
			want: "Bluetooth is unavailable. Turn the radio on and check permissions, then retry.",
		},
		{
			name: "not connected",
			err:  ble.ErrNotConnected,
			want: "device is not connected",
		},
		{
			name: "unknown errors pass through",
			err:  errors.New("boom"),
			want: "boom",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatUserError(tt.err))
		})
	}
}

func TestScanLifetimeHonorsDuration(t *testing.T) {
	// --duration bounds the scan in watch mode too, not only one-shot.
	ctx, cancel := scanLifetime(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, ok := ctx.Deadline()
	assert.True(t, ok, "positive duration must bound the scan lifetime")

	unbounded, cancel2 := scanLifetime(context.Background(), 0)
	defer cancel2()
	_, ok = unbounded.Deadline()
	assert.False(t, ok, "zero duration means run until interrupted")
}

func TestDedupePreservesOrder(t *testing.T) {
	in := []string{"aa", "bb", "aa", "cc", "bb"}
	assert.Equal(t, []string{"aa", "bb", "cc"}, dedupe(in))
	assert.Empty(t, dedupe(nil))
}

func TestDisplayDevicesTable(t *testing.T) {
	color.NoColor = true
	defer func() { color.NoColor = false }()

	devices := []registry.DeviceRecord{
		{
			Identity:    "AA:BB:CC:DD:EE:FF",
			DisplayName: "IZDOSE-001",
			LastRSSI:    -58,
			State:       registry.Connected,
			LastSeen:    time.Now(),
		},
		{
			Identity:    "11:22:33:44:55:66",
			DisplayName: "izdose-lab-unit-with-long-name",
			LastRSSI:    -80,
			State:       registry.Disconnected,
			LastSeen:    time.Now(),
		},
	}

	out := captureStdout(t, func() {
		require.NoError(t, displayDevicesTable(devices))
	})

	assert.Contains(t, out, "IZDOSE-001")
	assert.Contains(t, out, "AA:BB:CC:DD:EE:FF")
	assert.Contains(t, out, "-58 dBm")
	assert.Contains(t, out, "connected")
	assert.Contains(t, out, "izdose-lab-unit-w...", "long names are truncated")
}

func TestDisplayDevicesTableEmpty(t *testing.T) {
	out := captureStdout(t, func() {
		require.NoError(t, displayDevicesTable(nil))
	})
	assert.Contains(t, out, "No IZDOSE sensors discovered")
}

// captureStdout executes fn while capturing stdout, returns captured output.
func captureStdout(t *testing.T, fn func()) string {
	t.Helper()

	oldStdout := os.Stdout
	r, w, err := os.Pipe()
	require.NoError(t, err, "pipe creation MUST succeed")
	os.Stdout = w
	defer func() { os.Stdout = oldStdout }()

	fn()

	w.Close()
	var buf bytes.Buffer
	_, _ = io.Copy(&buf, r)
	return buf.String()
}
