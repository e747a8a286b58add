package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"unicode"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// formatVersion adds 'v' prefix if version starts with a digit
func formatVersion(ver string) string {
	if len(ver) > 0 && unicode.IsDigit(rune(ver[0])) {
		return "v" + ver
	}
	return ver
}

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "izdose",
	Short: "IZDOSE dose-sensor session manager",
	Long: `Command-line session manager for IZDOSE dose sensors:

- Scan and discover nearby IZDOSE sensors
- Monitor a sensor's dose event stream with automatic reconnection
- Serve the decoded event stream to WebSocket subscribers
- Checkpoint connected devices for session restore

Designed for sensor bring-up, field diagnostics, and event capture.`,
	Version: formatVersion(version),
}

func main() {
	// Local .env files override nothing, they only fill gaps; missing
	// files are fine.
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		// Ctrl+C is a normal exit, not an error - exit silently
		if errors.Is(err, context.Canceled) {
			return
		}
		// Print user-friendly error message
		fmt.Fprintf(os.Stderr, "ERROR: %s\n", FormatUserError(err))
		os.Exit(1)
	}
}

func init() {
	// Silence Cobra's "Error:" prefix - main() prints clean errors
	rootCmd.SilenceErrors = true

	// Add subcommands
	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(monitorCmd)
	rootCmd.AddCommand(devicesCmd)

	// Global flags
	rootCmd.PersistentFlags().String("log-level", "", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("config", "", "Path to YAML config file")

	// Add -v as a short flag for --version
	rootCmd.Flags().BoolP("version", "v", false, "Show version information")
}
