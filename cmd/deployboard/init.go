package main

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/pinterest/teletraan/internal/config"
	"github.com/pinterest/teletraan/internal/errors"
)

func initCmd() *cobra.Command {
	var (
		force bool
		yaml  bool
	)

	cmd := &cobra.Command{
		Use:   "init [dir]",
		Short: "Write a default configuration file",
		Long: `Write deployboard.json (or deployboard.yaml with --yaml) with default
settings into dir, the working directory by default.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) == 1 {
				dir = args[0]
			}
			name := config.ConfigFileName
			if yaml {
				name = "deployboard.yaml"
			}
			path := filepath.Join(dir, name)

			if _, err := os.Stat(path); err == nil && !force {
				return errors.New("E120").
					WithDetail(path + " already exists").
					WithSuggestion("Pass --force to overwrite it")
			}
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return err
			}
			if err := config.New().SaveTo(path); err != nil {
				return err
			}

			success("Wrote %s", path)
			info("Set api.remote and the service URLs to call the deploy services")
			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "overwrite an existing file")
	cmd.Flags().BoolVar(&yaml, "yaml", false, "write YAML instead of JSON")

	return cmd
}
