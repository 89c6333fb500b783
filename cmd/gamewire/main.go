package main

import (
	stderrors "errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/vango-dev/gamewire/internal/errors"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// globalFlags are shared by every subcommand.
type globalFlags struct {
	configDir  string
	jsonErrors bool
}

func newRootCmd() (*cobra.Command, *globalFlags) {
	flags := &globalFlags{}

	rootCmd := &cobra.Command{
		Use:   "gamewire",
		Short: "Game protocol wire codec toolkit",
		Long: `gamewire decodes, encodes and verifies bit-packed game messages.

It serves the message catalog over WebSocket sessions, records
reference captures from a live peer and replays them through the
codec to prove each schema matches the wire byte for byte.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVarP(&flags.configDir, "config", "c", ".", "Directory containing gamewire.json or gamewire.yaml")
	rootCmd.PersistentFlags().BoolVar(&flags.jsonErrors, "json-errors", false, "Print errors as JSON")

	rootCmd.AddCommand(
		opcodesCmd(flags),
		decodeCmd(flags),
		explainCmd(),
		serveCmd(flags),
		captureCmd(flags),
		versionCmd(),
	)
	return rootCmd, flags
}

func main() {
	rootCmd, flags := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		printErr(os.Stderr, err, flags.jsonErrors)
		os.Exit(1)
	}
}

func printErr(w io.Writer, err error, asJSON bool) {
	if asJSON {
		var we *errors.WireError
		if !stderrors.As(err, &we) {
			we = errors.FromDecodeError(err)
		}
		fmt.Fprintln(w, we.FormatJSON())
		return
	}
	errors.PrintError(w, err)
}

// success prints a success message.
func success(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "\033[32m✓\033[0m %s\n", fmt.Sprintf(format, args...))
}

// info prints an info message.
func info(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "  %s\n", fmt.Sprintf(format, args...))
}

// warn prints a warning message.
func warn(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "\033[33m⚠\033[0m %s\n", fmt.Sprintf(format, args...))
}
