package cmd

import (
	"context"
	"fmt"
	"os"

	"notesapi/config"
	"notesapi/log"

	"github.com/spf13/cobra"
)

var (
	verbose bool
	cfg     *config.Config
)

// rootCmd runs the server when called without a subcommand.
var rootCmd = &cobra.Command{
	Use:   "notesapi",
	Short: "Notes API with background summarization and sentiment scoring",
	Long: `notesapi stores short text notes, enriches each one with a summary and a
sentiment score in the background, and serves enriched notes with cursor
pagination.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		if verbose {
			loaded.Logging.Level = "debug"
		}
		cfg = loaded
		return setupLogging(cmd.Context(), cfg)
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if err := log.Logger().Close(); err != nil {
			fmt.Fprintf(os.Stderr, "close logger: %v\n", err)
		}
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context())
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main().
func Execute() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
}

func setupLogging(ctx context.Context, cfg *config.Config) error {
	level := log.ParseSeverity(cfg.Logging.Level)

	switch cfg.Logging.Backend {
	case config.LogGCP:
		l, err := log.NewGCPLogger(ctx, cfg.GoogleCloud.ProjectID, cfg.GoogleCloud.ServiceAccountFilename, cfg.Logging.LogID, level)
		if err != nil {
			return err
		}
		log.Set(l)
	default:
		log.Set(log.NewConsoleLogger(os.Stdout, level))
	}
	return nil
}
