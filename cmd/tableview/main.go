package main

import (
	stderrors "errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/vango-dev/tableview/internal/errors"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

const banner = `
  ╔╦╗┌─┐┌┐ ┬  ┌─┐┬  ┬┬┌─┐┬ ┬
   ║ ├─┤├┴┐│  ├┤ └┐┌┘│├┤ │││
   ╩ ┴ ┴└─┘┴─┘└─┘ └┘ ┴└─┘└┴┘
`

func main() {
	if err := rootCmd().Execute(); err != nil {
		if !stderrors.Is(err, errReported) {
			errors.PrintError(os.Stderr, err)
		}
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "tableview",
		Short: "Serve a sortable table whose view state lives in the URL",
		Long: `tableview serves a sortable, filterable, paginated table.

The table's view state (sort, filter, pageSize, pageIndex) is kept in
the page URL and persisted per client, so a reload or a shared link
restores the same view.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		serveCmd(),
		snapshotCmd(),
		configCmd(),
		versionCmd(),
	)
	return root
}

// printBanner prints the ASCII art banner.
func printBanner() {
	fmt.Print(banner)
}

// success prints a success message.
func success(format string, args ...any) {
	fmt.Printf("\033[32m✓\033[0m %s\n", fmt.Sprintf(format, args...))
}

// info prints an info message.
func info(format string, args ...any) {
	fmt.Printf("  %s\n", fmt.Sprintf(format, args...))
}

// warn prints a warning message.
func warn(format string, args ...any) {
	fmt.Printf("\033[33m⚠\033[0m %s\n", fmt.Sprintf(format, args...))
}
