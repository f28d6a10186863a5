package main

import (
	"fmt"
	"log/slog"

	"github.com/phrazzld/kanjidrill/internal/platform/sqldb"
	"github.com/phrazzld/kanjidrill/internal/redact"
	"github.com/spf13/cobra"
)

func newMigrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:       "migrate [up|down|reset|status|version]",
		Short:     "Run schema migrations against the SQL storage medium",
		Long:      "Run schema migrations for the sqlite or postgres driver. Defaults to up.",
		Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
		ValidArgs: sqldb.MigrationCommands,
		RunE: func(cmd *cobra.Command, args []string) error {
			command := "up"
			if len(args) == 1 {
				command = args[0]
			}

			cfg, log, err := loadConfig()
			if err != nil {
				return err
			}
			dialect, err := sqldb.ParseDialect(cfg.Storage.Driver)
			if err != nil {
				return fmt.Errorf("migrations apply only to sql drivers: %w", err)
			}

			db, err := sqldb.OpenDB(cmd.Context(), dialect, cfg.Storage.DSN)
			if err != nil {
				log.Error("failed to open database", slog.String("error", redact.Error(err)))
				return err
			}
			defer func() {
				if err := db.Close(); err != nil {
					log.Error("failed to close database", slog.String("error", err.Error()))
				}
			}()

			if err := sqldb.Migrate(cmd.Context(), db, dialect, command, log); err != nil {
				return err
			}

			version, err := sqldb.SchemaVersion(cmd.Context(), db, dialect)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), map[string]interface{}{
				"command": command,
				"version": version,
			})
		},
	}
}
