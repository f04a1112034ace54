package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/vango-dev/tableview"
	"github.com/vango-dev/tableview/internal/config"
)

func serveCmd() *cobra.Command {
	var (
		dir  string
		addr string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the table server",
		Long: `Start the HTTP and WebSocket server.

Configuration is read from tableview.json, tableview.toml or
tableview.yaml in the config directory. Without a config file the
defaults are used: in-memory snapshots and the fixture rows.

Examples:
  tableview serve
  tableview serve --addr=:9090
  tableview serve --config=./deploy`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), dir, addr)
		},
	}

	cmd.Flags().StringVarP(&dir, "config", "c", ".", "Directory containing the config file")
	cmd.Flags().StringVarP(&addr, "addr", "a", "", "Listen address (default from config)")

	return cmd
}

// loadConfig reads the config in dir, or returns defaults when none exists.
func loadConfig(dir string) (*config.Config, error) {
	if !config.Exists(dir) {
		return config.New(), nil
	}
	return config.Load(dir)
}

func runServe(ctx context.Context, dir, addr string) error {
	cfg, err := loadConfig(dir)
	if err != nil {
		return err
	}
	if addr != "" {
		cfg.Server.Address = addr
	}
	if cfg.Path() == "" {
		warn("No config file in %s, using defaults", dir)
	}

	logger := tableview.NewLogger(cfg, os.Stderr)
	if ctx == nil {
		ctx = context.Background()
	}

	app, err := tableview.New(ctx, cfg, tableview.WithLogger(logger))
	if err != nil {
		return err
	}
	defer app.Close()

	printBanner()
	success("Serving %s on %s", cfg.Table.Path, cfg.Server.Address)
	info("Snapshots: %s", cfg.Snapshot.Backend)
	info("Rows:      %s", cfg.Rows.Source)
	if cfg.Metrics.Enabled {
		info("Metrics:   %s", cfg.Metrics.Path)
	}

	return app.Run()
}
