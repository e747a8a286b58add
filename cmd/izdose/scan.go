package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/srg/izdose/internal/registry"
	"github.com/srg/izdose/internal/session"
)

// scanCmd represents the scan command
var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Scan for IZDOSE sensors",
	Long: `Scan for IZDOSE dose sensors in the vicinity.

Only devices advertising an IZDOSE product name are shown, with their
addresses, RSSI values, and connection state. Results keep first-sighting
order.`,
	RunE: runScan,
}

var (
	scanDuration time.Duration
	scanFormat   string
	scanWatch    bool
)

func init() {
	scanCmd.Flags().DurationVarP(&scanDuration, "duration", "d", 10*time.Second, "Scan duration (0 for indefinite)")
	scanCmd.Flags().StringVarP(&scanFormat, "format", "f", "table", "Output format (table, json)")
	scanCmd.Flags().BoolVarP(&scanWatch, "watch", "w", false, "Continuously scan and update results")
	scanCmd.Flags().BoolVar(&scanVerbose, "verbose", false, "Enable debug logging")
}

var scanVerbose bool

func runScan(cmd *cobra.Command, args []string) error {
	if scanFormat != "table" && scanFormat != "json" {
		return fmt.Errorf("invalid format '%s': must be one of [table json]", scanFormat)
	}

	// Configure logger based on --log-level and --verbose flags
	logger, err := configureLogger(cmd, "verbose")
	if err != nil {
		return err
	}

	cfg, err := loadSessionConfig(cmd)
	if err != nil {
		return err
	}

	// All arguments validated - don't show usage on runtime errors
	cmd.SilenceUsage = true

	baseCtx, baseCancel := scanLifetime(context.Background(), scanDuration)
	defer baseCancel()
	ctx, cancel := context.WithCancel(baseCtx)
	defer cancel()

	// Listen for Ctrl+C to cancel
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		<-sigCh
		fmt.Println("\nCtrl+C pressed, cancelling scan...")
		cancel()
	}()

	sess := session.New(cfg, logger)
	runErrCh := make(chan error, 1)
	go func() { runErrCh <- sess.Run(ctx) }()

	if err := sess.StartScan(); err != nil {
		cancel()
		<-runErrCh
		return fmt.Errorf("failed to start BLE scan: %w", err)
	}

	if scanWatch {
		ticker := time.NewTicker(time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return displayDevices(sess.Snapshot())
			case <-ticker.C:
				clearScreen()
				if err := displayDevices(sess.Snapshot()); err != nil {
					return err
				}
			}
		}
	}

	<-ctx.Done()
	if err := <-runErrCh; err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return displayDevices(sess.Snapshot())
}

// scanLifetime bounds the scan by --duration in both one-shot and watch
// modes; zero means run until interrupted.
func scanLifetime(parent context.Context, duration time.Duration) (context.Context, context.CancelFunc) {
	if duration > 0 {
		return context.WithTimeout(parent, duration)
	}
	return context.WithCancel(parent)
}

func displayDevices(devices []registry.DeviceRecord) error {
	if scanFormat == "json" {
		return displayDevicesJSON(devices)
	}
	return displayDevicesTable(devices)
}

func displayDevicesTable(devices []registry.DeviceRecord) error {
	if len(devices) == 0 {
		fmt.Println("No IZDOSE sensors discovered")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tADDRESS\tRSSI\tSTATE\tLAST SEEN")
	fmt.Fprintln(w, strings.Repeat("-", 72))

	for _, dev := range devices {
		name := dev.DisplayName
		if len(name) > 20 {
			name = name[:17] + "..."
		}
		lastSeen := time.Since(dev.LastSeen).Truncate(time.Second)
		fmt.Fprintf(w, "%s\t%s\t%d dBm\t%s\t%s ago\n",
			name, dev.Identity, dev.LastRSSI, colorState(dev.State), lastSeen)
	}

	return w.Flush()
}

func colorState(state registry.ConnectionState) string {
	switch state {
	case registry.Connected:
		return color.GreenString(state.String())
	case registry.Connecting:
		return color.YellowString(state.String())
	default:
		return state.String()
	}
}

func displayDevicesJSON(devices []registry.DeviceRecord) error {
	var w io.Writer = os.Stdout
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(devices)
}

func clearScreen() {
	fmt.Print("\033[2J\033[H")
}
