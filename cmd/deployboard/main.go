package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pinterest/teletraan/internal/errors"
)

// Set at build time with -ldflags.
var (
	version = "dev"
	commit  = "none"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		errors.Fprint(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	rootCmd := &cobra.Command{
		Use:   "deployboard",
		Short: "Deploy board console",
		Long: `Deploy board is a console for Teletraan environments.

It shows environments, their current deploy and build, recent builds and
Kubernetes pods, and submits new deploys. Pages are rendered on the server
and kept live over a websocket.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "",
		"configuration file or directory (default: ./deployboard.json)")

	rootCmd.AddCommand(
		serveCmd(&configPath),
		renderCmd(&configPath),
		routesCmd(&configPath),
		initCmd(),
		&cobra.Command{
			Use:   "version",
			Short: "Print the version",
			Args:  cobra.NoArgs,
			Run: func(cmd *cobra.Command, _ []string) {
				fmt.Fprintf(cmd.OutOrStdout(), "deployboard %s (%s)\n", version, commit)
			},
		},
	)
	return rootCmd
}

// success prints a success message.
func success(format string, args ...any) {
	fmt.Printf("\033[32m✓\033[0m %s\n", fmt.Sprintf(format, args...))
}

// info prints an info message.
func info(format string, args ...any) {
	fmt.Printf("  %s\n", fmt.Sprintf(format, args...))
}
