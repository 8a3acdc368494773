package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pinterest/teletraan/pkg/board"
	"github.com/pinterest/teletraan/pkg/router"
)

func renderCmd(configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "render <path>",
		Short: "Render one page to stdout",
		Long: `Render the board at a URL path and print the HTML.

The path is resolved like a browser location: redirecting routes are
followed and the final URL is reported on stderr. Rendering waits for the
page's data up to server.renderTimeout.`,
		Example: `  deployboard render /envs
  deployboard render "/envs/prod/api/new_deploy?build=b-1"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			logger, err := newLogger(cfg)
			if err != nil {
				return err
			}
			api, err := newAPI(cfg, nil)
			if err != nil {
				return err
			}

			bc := boardConfig(cfg, api, logger)
			bc.History = router.NewMemoryHistory(args[0])
			b, err := board.New(bc)
			if err != nil {
				return err
			}
			defer b.Close()

			b.Start()
			ctx, cancel := context.WithTimeout(cmd.Context(), cfg.RenderTimeout())
			defer cancel()
			if err := b.Tracker.WaitIdle(ctx); err != nil {
				logger.Warn("rendering before data loaded", "error", err)
			}

			if url := b.Store.CurrentURL(); url != args[0] {
				fmt.Fprintf(os.Stderr, "→ %s\n", url)
			}
			return b.Render(cmd.OutOrStdout())
		},
	}
	return cmd
}
