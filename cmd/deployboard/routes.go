package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/pinterest/teletraan/pkg/board"
)

func routesCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "routes",
		Short: "List the route table",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			b, err := board.New(boardConfig(cfg, nil, nil))
			if err != nil {
				return err
			}
			defer b.Close()

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "PATH\tID\tMAIN\tNOTE")
			for _, r := range b.Store.Table().Routes() {
				note := ""
				switch {
				case r.RedirectTarget() != "":
					note = "→ " + r.RedirectTarget()
				case r.DefaultPath:
					note = "default"
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", r.Path, r.ID, r.Views.Main, note)
			}
			return w.Flush()
		},
	}
}
