package main

import (
	stderrors "errors"
	"fmt"
	"io"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/vango-dev/tableview/internal/config"
	"github.com/vango-dev/tableview/internal/errors"
)

// errReported is returned by commands that already printed their failure.
var errReported = stderrors.New("reported")

func configCmd() *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:   "config",
		Short: "Create or check a config file",
	}
	cmd.PersistentFlags().StringVarP(&dir, "config", "c", ".", "Directory containing the config file")

	var (
		format  string
		force   bool
		upgrade bool
	)
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write a config file with the default settings",
		Long: `Write tableview.json, tableview.toml or tableview.yaml with the
default settings: in-memory snapshots, fixture rows and metrics on.
With --upgrade the existing file is rewritten in place with every
missing setting filled in.

Examples:
  tableview config init
  tableview config init --format=toml --config=./deploy
  tableview config init --upgrade`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if upgrade {
				path, err := upgradeConfig(dir)
				if err != nil {
					return err
				}
				success("Updated %s", path)
				return nil
			}
			path, err := initConfig(dir, format, force)
			if err != nil {
				return err
			}
			success("Wrote %s", path)
			return nil
		},
	}
	initCmd.Flags().StringVarP(&format, "format", "f", "json", "File format: json, toml or yaml")
	initCmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing config file")
	initCmd.Flags().BoolVar(&upgrade, "upgrade", false, "Fill missing settings into the existing config file")

	validateCmd := &cobra.Command{
		Use:   "validate",
		Short: "Load and validate the config file",
		RunE: func(cmd *cobra.Command, args []string) error {
			return validateConfig(cmd.OutOrStdout(), dir)
		},
	}

	cmd.AddCommand(initCmd, validateCmd)
	return cmd
}

// initConfig writes the default config into dir and returns its path.
func initConfig(dir, format string, force bool) (string, error) {
	switch format {
	case "json", "toml", "yaml", "yml":
	default:
		return "", errors.New(errors.CodeInvalidConfig).
			WithDetailf("unknown format %q", format).
			WithSuggestion("Use json, toml or yaml")
	}
	if config.Exists(dir) && !force {
		return "", errors.New(errors.CodeInvalidConfig).
			WithDetailf("a config file already exists in %s", dir).
			WithSuggestion("Pass --force to overwrite it")
	}

	path := filepath.Join(dir, config.ConfigBaseName+"."+format)
	if err := config.New().SaveTo(path); err != nil {
		return "", err
	}
	return path, nil
}

// upgradeConfig rewrites the config in dir with defaults applied.
func upgradeConfig(dir string) (string, error) {
	cfg, err := config.Load(dir)
	if err != nil {
		return "", err
	}
	if err := cfg.Save(); err != nil {
		return "", err
	}
	return cfg.Path(), nil
}

// validateConfig prints one line for the config in dir: ok, or the
// compact form of the first problem.
func validateConfig(w io.Writer, dir string) error {
	cfg, err := config.Load(dir)
	if err == nil {
		err = cfg.Validate()
	}
	if err != nil {
		te := errors.FromError(err, errors.CodeInvalidConfig)
		fmt.Fprintf(w, "✗ %s\n", te.FormatCompact())
		if te.Detail != "" {
			fmt.Fprintf(w, "  %s\n", te.Detail)
		}
		return errReported
	}
	fmt.Fprintf(w, "✓ %s is valid\n", cfg.Path())
	return nil
}
