package main

import (
	"github.com/spf13/cobra"

	"github.com/hyperjump/kagami/internal/cli"
)

func NewStatusCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show gallery and catalog statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			format, err := cli.ParseOutputFormat(opts.output)
			if err != nil {
				return err
			}
			components, cleanup, err := setup(cmd, opts)
			if err != nil {
				return err
			}
			defer cleanup()

			st, err := components.Status(cmd.Context())
			if err != nil {
				return err
			}
			return cli.WriteStatus(cmd.OutOrStdout(), st, format)
		},
	}
}
