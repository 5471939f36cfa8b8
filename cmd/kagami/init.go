package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/hyperjump/kagami/internal/cli"
	"github.com/hyperjump/kagami/internal/config"
)

func NewInitCmd(opts *rootOptions) *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default config file",
		Long: `Write the default configuration to --config, or to ./config.yaml when --config is not
given. Paths in the written file are absolute, resolved against the file's directory.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path := opts.configPath
			if path == cli.DefaultConfigPath {
				path = "config.yaml"
			}
			abs, err := filepath.Abs(path)
			if err != nil {
				return err
			}
			if _, err := os.Stat(abs); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", abs)
			}
			if err := config.Save(abs, config.Default(filepath.Dir(abs))); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", abs)
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")
	return cmd
}
