// Package cmd defines the CLI commands for the ogparser executable.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// version is overridden at build time via -ldflags "-X".
var version = "dev"

// newRootCmd creates the root command. Running it without a subcommand
// starts the server.
func newRootCmd() *cobra.Command {
	var cfgFile string

	cmd := &cobra.Command{
		Use:   "ogparser",
		Short: "Open Graph metadata parser service.",
		Long: `ogparser fetches a web page on request and returns its Open Graph
metadata (title, description, image, url, site name, type) as JSON,
falling back to standard HTML tags where Open Graph tags are missing.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), cfgFile)
		},
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (YAML or JSON)")

	cmd.AddCommand(newServeCmd(&cfgFile))
	cmd.AddCommand(newVersionCmd())

	return cmd
}

// Execute is the main entry point.
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "ogparser: %v\n", err)
		os.Exit(1)
	}
}
