package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/srg/izdose/internal/checkpoint"
)

// devicesCmd represents the devices command
var devicesCmd = &cobra.Command{
	Use:   "devices",
	Short: "List checkpointed sensors",
	Long: `List the sensors persisted in the checkpoint database, in the order
they were connected. These are the devices 'monitor --restore' will
reconnect to.`,
	RunE: runDevices,
}

var (
	devicesCheckpoint string
	devicesFormat     string
)

func init() {
	devicesCmd.Flags().StringVar(&devicesCheckpoint, "checkpoint", "", "Path to the checkpoint database")
	devicesCmd.Flags().StringVarP(&devicesFormat, "format", "f", "table", "Output format (table, json)")
}

func runDevices(cmd *cobra.Command, args []string) error {
	if devicesCheckpoint == "" {
		return errors.New("--checkpoint is required")
	}
	if devicesFormat != "table" && devicesFormat != "json" {
		return fmt.Errorf("invalid format '%s': must be one of [table json]", devicesFormat)
	}

	cmd.SilenceUsage = true

	store, err := checkpoint.Open(devicesCheckpoint)
	if err != nil {
		return fmt.Errorf("failed to open checkpoint %q: %w", devicesCheckpoint, err)
	}
	defer store.Close()

	identities, err := store.Load()
	if err != nil {
		return fmt.Errorf("failed to load checkpoint: %w", err)
	}

	if devicesFormat == "json" {
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		return encoder.Encode(identities)
	}

	if len(identities) == 0 {
		fmt.Println("No checkpointed sensors")
		return nil
	}
	for i, id := range identities {
		fmt.Printf("%d  %s\n", i+1, id)
	}
	return nil
}
