package main

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/hyperjump/kagami/internal/cli"
	"github.com/hyperjump/kagami/internal/models"
)

func NewSearchCmd(opts *rootOptions) *cobra.Command {
	var (
		relevant bool
		limit    int
	)
	cmd := &cobra.Command{
		Use:   "search <image|->",
		Short: "Rank the gallery against a query image",
		Long: `Embed the query image and list the nearest gallery entries by Euclidean distance.
By default prints the distances of the top score_limit entries; with --relevant prints the
top relevant_limit images, failing if one of their files is missing.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := cli.ParseOutputFormat(opts.output)
			if err != nil {
				return err
			}
			data, err := readInput(cmd.InOrStdin(), args[0])
			if err != nil {
				return fmt.Errorf("read query image: %w", err)
			}

			components, cleanup, err := setup(cmd, opts)
			if err != nil {
				return err
			}
			defer cleanup()

			start := time.Now()
			queryID := uuid.NewString()
			logger := components.Logger.With(zap.String("query_id", queryID))
			name := cli.DisplayName(args[0])
			sess := components.NewSession()
			if err := sess.LoadQuery(cmd.Context(), name, data); err != nil {
				return err
			}

			view := cli.ViewScores
			var matches []*models.Match
			if relevant {
				view = cli.ViewRelevant
				matches, err = sess.Relevant(limit)
			} else {
				matches, err = sess.Similarity(limit)
			}
			if err != nil {
				return err
			}

			resp := &models.SearchResponse{
				QueryID:     queryID,
				Query:       name,
				GallerySize: components.Gallery.Size(),
				Matches:     matches,
				QueryTimeMs: time.Since(start).Milliseconds(),
			}
			logger.Info("Search completed",
				zap.String("query", name),
				zap.Int("matches", len(matches)),
				zap.Int64("query_time_ms", resp.QueryTimeMs))
			return cli.WriteSearchResults(cmd.OutOrStdout(), resp, view, format)
		},
	}
	cmd.Flags().BoolVar(&relevant, "relevant", false, "list the matched images instead of scores")
	cmd.Flags().IntVarP(&limit, "limit", "k", 0, "number of results (0 = configured limit)")
	return cmd
}
