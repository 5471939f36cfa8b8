package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func NewWatchCmd(opts *rootOptions) *cobra.Command {
	var syncExisting bool
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Ingest images as they appear in the image directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			components, cleanup, err := setup(cmd, opts)
			if err != nil {
				return err
			}
			defer cleanup()

			ctx := cmd.Context()
			w := components.NewWatcher(ctx)
			if err := w.Start(ctx); err != nil {
				return fmt.Errorf("start watcher: %w", err)
			}
			defer w.Stop()
			if syncExisting {
				w.SyncExistingFiles()
			}
			components.Logger.Info("Watching image directory",
				zap.String("dir", w.Root()),
				zap.Int("gallery_size", components.Gallery.Size()))
			fmt.Fprintf(cmd.OutOrStdout(), "Watching %s (Ctrl+C to stop)\n", w.Root())

			<-ctx.Done()
			components.Logger.Info("Watcher stopped", zap.Int("gallery_size", components.Gallery.Size()))
			return nil
		},
	}
	cmd.Flags().BoolVar(&syncExisting, "sync", true, "ingest images already in the directory on start")
	return cmd
}
