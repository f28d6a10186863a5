// Package main implements the kanjidrill command: an HTTP server and a set of
// subcommands that schedule kanji reviews with a spaced repetition model.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/phrazzld/kanjidrill/internal/config"
	"github.com/phrazzld/kanjidrill/internal/platform/logger"
	"github.com/spf13/cobra"
)

var configFile string

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "kanjidrill",
		Short: "Spaced repetition scheduling for kanji drills",
		Long: `kanjidrill schedules kanji reviews with a spaced repetition memory model.
Command output is JSON on stdout; logs go to stderr.`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "Path to a YAML config file (default ./kanjidrill.yaml if present)")

	rootCmd.AddCommand(newServeCommand())
	rootCmd.AddCommand(newRecordCommand())
	rootCmd.AddCommand(newStudyCommand())
	rootCmd.AddCommand(newStatsCommand())
	rootCmd.AddCommand(newCardCommand())
	rootCmd.AddCommand(newExcludeCommand())
	rootCmd.AddCommand(newExportCommand())
	rootCmd.AddCommand(newImportCommand())
	rootCmd.AddCommand(newResetCommand())
	rootCmd.AddCommand(newMigrateCommand())

	return rootCmd
}

// loadConfig loads configuration and installs the configured logger.
func loadConfig() (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	log, err := logger.Setup(cfg.Server)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to set up logger: %w", err)
	}
	return cfg, log, nil
}

// withApp runs fn with a fully wired application and releases it afterwards.
func withApp(ctx context.Context, fn func(app *application) error) error {
	cfg, log, err := loadConfig()
	if err != nil {
		return err
	}
	app, err := newApplication(logger.WithLogger(ctx, log), cfg, log)
	if err != nil {
		return err
	}
	defer app.cleanup()
	return fn(app)
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
