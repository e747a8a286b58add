package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/srg/izdose/internal/session"
)

// loadSessionConfig resolves the session configuration: the --config YAML
// file when given, built-in defaults otherwise.
func loadSessionConfig(cmd *cobra.Command) (session.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	if path == "" {
		cfg := session.Config{}
		cfg.ApplyDefaults()
		return cfg, nil
	}
	cfg, err := session.LoadConfig(path)
	if err != nil {
		return session.Config{}, fmt.Errorf("failed to load config %q: %w", path, err)
	}
	return *cfg, nil
}
