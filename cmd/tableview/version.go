package main

import (
	"fmt"
	"io"
	"runtime"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vango-dev/tableview/internal/config"
)

func versionCmd() *cobra.Command {
	var short bool

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Long: `Print the tableview build and the storage it was built with.

The snapshot backends and row sources listed are the values accepted
by snapshot.backend and rows.source in the config file.`,
		Run: func(cmd *cobra.Command, args []string) {
			if short {
				fmt.Fprintln(cmd.OutOrStdout(), version)
				return
			}
			printBanner()
			writeVersion(cmd.OutOrStdout())
		},
	}

	cmd.Flags().BoolVarP(&short, "short", "s", false, "Print only version number")

	return cmd
}

func writeVersion(w io.Writer) {
	fmt.Fprintf(w, "\n  tableview %s (%s, built %s)\n", version, commit, date)
	fmt.Fprintf(w, "  %s %s/%s\n\n", runtime.Version(), runtime.GOOS, runtime.GOARCH)
	fmt.Fprintf(w, "  Snapshot backends: %s\n", strings.Join([]string{
		config.BackendMemory, config.BackendFile, config.BackendSQL, config.BackendS3,
	}, ", "))
	fmt.Fprintf(w, "  Row sources:       %s\n", strings.Join([]string{
		config.SourceFixture, config.SourceSQL,
	}, ", "))
	fmt.Fprintf(w, "  SQL drivers:       pgx, sqlite\n\n")
}
