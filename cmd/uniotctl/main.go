// Command uniotctl is the operator CLI for a uniotd device (SPEC_FULL.md
// §0.1): inspects the persisted configuration and state database a
// running daemon shares the machine with, and can push or run a Lisp
// script through the same storage path a broker push would take, for
// local development without a broker.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

const version = "0.1.0"

func main() {
	root := &cobra.Command{
		Use:           "uniotctl",
		Short:         "Inspect and drive a uniotd device",
		Version:       version,
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	var configPath string
	root.PersistentFlags().StringVar(&configPath, "config", "", "Device config path (defaults to the standard location)")

	root.AddCommand(statusCmd(&configPath))
	root.AddCommand(scriptCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
