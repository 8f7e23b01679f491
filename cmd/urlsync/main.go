package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/vango-dev/urlsync/internal/errors"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

const banner = `
  ┬ ┬┬─┐┬  ┌─┐┬ ┬┌┐┌┌─┐
  │ │├┬┘│  └─┐└┬┘││││
  └─┘┴└─┴─┘└─┘ ┴ ┘└┘└─┘
`

func main() {
	if os.Getenv("NO_COLOR") != "" {
		errors.DisableColors()
	}
	if err := rootCmd().Execute(); err != nil {
		errors.FprintError(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var noColor bool

	cmd := &cobra.Command{
		Use:   "urlsync",
		Short: "Typed query string state, shared over a socket",
		Long: `urlsync keeps typed parameters in sync with a query string.

A schema file declares the parameters. The server keeps one shared
location, pushes every change to connected sockets, and serves the
parsed state over HTTP:

  • Typed parsing with per-field errors
  • Defaults and required fields
  • WebSocket clients see each other's navigation
  • Prometheus metrics and optional tracing`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if noColor {
				errors.DisableColors()
			}
		},
	}

	cmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored error output")

	cmd.AddCommand(
		serveCmd(),
		parseCmd(),
		stringifyCmd(),
		explainCmd(),
		versionCmd(),
	)

	return cmd
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

// errorMsg prints an error message.
func errorMsg(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "\033[31m✗\033[0m %s\n", fmt.Sprintf(format, args...))
}
