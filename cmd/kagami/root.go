package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/hyperjump/kagami/internal/cli"
	"github.com/hyperjump/kagami/internal/errortypes"
	"github.com/hyperjump/kagami/pkg/utils"
)

type rootOptions struct {
	configPath string
	debug      bool
	output     string
}

func NewRootCmd(version string) *cobra.Command {
	opts := &rootOptions{}
	rootCmd := &cobra.Command{
		Use:           "kagami",
		Short:         "Query-by-example image retrieval",
		Long:          `Find the gallery images closest to a query image by comparing CNN embeddings.`,
		Version:       version,
		SilenceErrors: true,
		SilenceUsage:  true,
		Run: func(cmd *cobra.Command, _ []string) {
			_ = cmd.Help()
		},
	}
	rootCmd.SetVersionTemplate("kagami version {{.Version}}\n")

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&opts.configPath, "config", cli.DefaultConfigPath, "config file path")
	pf.BoolVar(&opts.debug, "debug", false, "enable debug logging")
	pf.StringVarP(&opts.output, "output", "o", "text", "output format: text, compact, or json")

	rootCmd.AddCommand(
		NewSearchCmd(opts),
		NewIndexCmd(opts),
		NewWatchCmd(opts),
		NewStatusCmd(opts),
		NewInitCmd(opts),
		NewVersionCmd(version),
	)
	return rootCmd
}

func NewVersionCmd(version string) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "kagami version %s\n", version)
		},
	}
}

// setup loads config, builds the logger and initializes every component. The returned
// cleanup must be called when the command is done.
func setup(cmd *cobra.Command, opts *rootOptions) (*cli.Components, func(), error) {
	cfg, loadedFrom, err := cli.LoadConfig(opts.configPath)
	if err != nil {
		return nil, nil, err
	}
	debugMode := cfg.Debug || opts.debug
	logger, err := utils.NewLogger(debugMode)
	if err != nil {
		return nil, nil, fmt.Errorf("create logger: %w", err)
	}
	if loadedFrom == "" {
		logger.Debug("No config file found; using defaults")
	} else {
		logger.Debug("Config loaded", zap.String("config_path", loadedFrom))
	}

	components, err := cli.Initialize(cmd.Context(), cfg, logger)
	if err != nil {
		_ = logger.Sync()
		return nil, nil, err
	}
	cleanup := func() {
		components.Close()
		_ = logger.Sync()
	}
	return components, cleanup, nil
}

func exitCode(err error) int {
	switch {
	case errortypes.Fatal(err):
		return 3
	case errortypes.Recoverable(err), errors.Is(err, errortypes.ErrImageNotFound):
		return 2
	default:
		return 1
	}
}

// readInput reads path, or stdin when path is "-".
func readInput(stdin io.Reader, path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(stdin)
	}
	return os.ReadFile(path)
}
