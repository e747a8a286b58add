package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/srg/izdose/internal/checkpoint"
	"github.com/srg/izdose/internal/protocol"
	"github.com/srg/izdose/internal/session"
	"github.com/srg/izdose/internal/wsfeed"
)

// monitorCmd represents the monitor command
var monitorCmd = &cobra.Command{
	Use:   "monitor [device-address...]",
	Short: "Stream decoded dose events from IZDOSE sensors",
	Long: `Connect to one or more IZDOSE sensors and stream their decoded dose
events until interrupted.

Dropped links reconnect automatically with exponential backoff; a user
Ctrl+C disconnects cleanly. Sequence gaps (events the sensor sent while
no subscription was active) are flagged on the first event after the gap.

With --listen, decoded events are additionally served as JSON to
WebSocket subscribers on ws://<addr>/events.

With --checkpoint, the set of connected sensors is persisted; --restore
reconnects to the persisted set in addition to any addresses given.`,
	RunE: runMonitor,
}

var (
	monitorFormat     string
	monitorListen     string
	monitorCheckpoint string
	monitorRestore    bool
	monitorVerbose    bool
)

func init() {
	monitorCmd.Flags().StringVarP(&monitorFormat, "format", "f", "text", "Output format (text, json)")
	monitorCmd.Flags().StringVar(&monitorListen, "listen", "", "Serve events to WebSocket subscribers on this address (e.g. :8080)")
	monitorCmd.Flags().StringVar(&monitorCheckpoint, "checkpoint", "", "Path to the checkpoint database")
	monitorCmd.Flags().BoolVar(&monitorRestore, "restore", false, "Also connect to sensors from the checkpoint (requires --checkpoint)")
	monitorCmd.Flags().BoolVar(&monitorVerbose, "verbose", false, "Enable debug logging")
}

func runMonitor(cmd *cobra.Command, args []string) error {
	if monitorFormat != "text" && monitorFormat != "json" {
		return fmt.Errorf("invalid format '%s': must be one of [text json]", monitorFormat)
	}
	if monitorRestore && monitorCheckpoint == "" {
		return errors.New("--restore requires --checkpoint")
	}

	logger, err := configureLogger(cmd, "verbose")
	if err != nil {
		return err
	}

	cfg, err := loadSessionConfig(cmd)
	if err != nil {
		return err
	}

	var store *checkpoint.Store
	if monitorCheckpoint != "" {
		store, err = checkpoint.Open(monitorCheckpoint)
		if err != nil {
			return fmt.Errorf("failed to open checkpoint %q: %w", monitorCheckpoint, err)
		}
		defer store.Close()
	}

	targets := args
	if monitorRestore {
		restored, err := store.Load()
		if err != nil {
			return fmt.Errorf("failed to load checkpoint: %w", err)
		}
		targets = append(targets, restored...)
	}
	if len(targets) == 0 {
		return errors.New("no device addresses: give at least one address or use --restore")
	}

	cmd.SilenceUsage = true

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		<-sigCh
		fmt.Println("\nCtrl+C pressed, shutting down...")
		cancel()
	}()

	sess := session.New(cfg, logger)
	runErrCh := make(chan error, 1)
	go func() { runErrCh <- sess.Run(ctx) }()

	var hub *wsfeed.Hub
	if monitorListen != "" {
		hub = wsfeed.NewHub(logger)
		go hub.Run(ctx)
		go serveFeed(ctx, logger, hub, monitorListen)
	}

	for _, addr := range dedupe(targets) {
		if err := sess.Connect(addr); err != nil {
			cancel()
			<-runErrCh
			return fmt.Errorf("failed to connect to %s: %w", addr, err)
		}
	}

	// Checkpoint the connected set periodically and once more on exit,
	// so a restart can restore the session.
	var saveTicker *time.Ticker
	if store != nil {
		saveTicker = time.NewTicker(15 * time.Second)
		defer saveTicker.Stop()
		defer saveCheckpoint(logger, store, sess)
	} else {
		saveTicker = time.NewTicker(time.Hour)
		saveTicker.Stop()
	}

	encoder := json.NewEncoder(os.Stdout)
	for {
		select {
		case <-ctx.Done():
			return <-runErrCh

		case <-saveTicker.C:
			saveCheckpoint(logger, store, sess)

		case ev, ok := <-sess.Events():
			if !ok {
				return <-runErrCh
			}
			if hub != nil {
				hub.BroadcastJSON(ev)
			}
			if monitorFormat == "json" {
				if err := encoder.Encode(ev); err != nil {
					return err
				}
				continue
			}
			printEvent(ev)
		}
	}
}

func serveFeed(ctx context.Context, logger *logrus.Logger, hub *wsfeed.Hub, addr string) {
	mux := http.NewServeMux()
	mux.Handle("/events", hub.Handler())
	srv := &http.Server{Addr: addr, Handler: mux}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.WithField("addr", addr).Info("Serving event feed")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.WithError(err).Error("Event feed server failed")
	}
}

func saveCheckpoint(logger *logrus.Logger, store *checkpoint.Store, sess *session.Session) {
	if err := store.Save(sess.ConnectedIdentities()); err != nil {
		logger.WithError(err).Warn("Failed to save checkpoint")
	}
}

func printEvent(ev session.DecodedEvent) {
	gap := ""
	if ev.GapBefore {
		gap = color.RedString(" [gap]")
	}
	payload, _ := json.Marshal(ev.Event.Payload)
	fmt.Printf("%s  %s  seq=%d  %s%s  %s\n",
		time.Now().Format(time.RFC3339),
		ev.Identity,
		ev.Event.SequenceNumber,
		colorEventType(ev.Event.Type),
		gap,
		payload)
}

func colorEventType(t protocol.EventType) string {
	switch t {
	case protocol.EventDose, protocol.EventInjection, protocol.EventAdjustedInjection:
		return color.CyanString(t.String())
	case protocol.EventSystemError, protocol.EventTemperatureWarning, protocol.EventFailedRead:
		return color.RedString(t.String())
	case protocol.EventUnknown:
		return color.YellowString(t.String())
	default:
		return t.String()
	}
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
