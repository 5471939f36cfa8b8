package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func NewIndexCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "index [file-or-directory]",
		Short: "Embed images into the gallery",
		Long: `Embed an image file, or every image under a directory, write its feature file and record
it in the catalog. Defaults to the configured image directory. Unchanged files are skipped.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			components, cleanup, err := setup(cmd, opts)
			if err != nil {
				return err
			}
			defer cleanup()

			path := components.Config.Store.ImageDir
			if len(args) == 1 {
				path = args[0]
			}
			info, err := os.Stat(path)
			if err != nil {
				return fmt.Errorf("stat path: %w", err)
			}
			out := cmd.OutOrStdout()
			if info.IsDir() {
				res, err := components.Indexer.IngestDirectory(cmd.Context(), path)
				if err != nil {
					return fmt.Errorf("indexing directory failed: %w", err)
				}
				fmt.Fprintf(out, "Indexed %d image(s) from %s (%d unchanged, %d rejected)\n",
					res.Indexed, path, res.Unchanged, res.Rejected)
				return nil
			}
			indexed, err := components.Indexer.IngestFile(cmd.Context(), path)
			if err != nil {
				return fmt.Errorf("indexing failed: %w", err)
			}
			if indexed {
				fmt.Fprintf(out, "Image indexed: %s\n", path)
			} else {
				fmt.Fprintf(out, "Image unchanged: %s\n", path)
			}
			return nil
		},
	}
}
