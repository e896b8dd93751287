package cmd

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/frahmantamala/genops/internal"
	"github.com/frahmantamala/genops/pkg/logger"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/spf13/cobra"
	_ "gorm.io/driver/sqlite"
)

var (
	migrateCmd = &cobra.Command{
		RunE:      runMigration,
		Use:       "migrate [up|down|status|version|redo]",
		Short:     "apply the documents schema under db/migrations to the sql backend",
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: []string{"up", "down", "status", "version", "redo"},
	}
	migrateRollback bool
	migrateDir      string
)

func init() {
	migrateCmd.Flags().BoolVarP(&migrateRollback, "rollback", "r", false, "shorthand for migrate down")
	migrateCmd.PersistentFlags().StringVarP(&migrateDir, "dir", "d", "db/migrations", "sql migrations directory")
}

func runMigration(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	command := "up"
	if len(args) == 1 {
		command = args[0]
	}
	if migrateRollback {
		command = "down"
	}

	db, dialect, err := openMigrationDB(cfg)
	if err != nil {
		return fmt.Errorf("goose: open %s: %w", cfg.Store.Backend, err)
	}
	defer db.Close()

	if err := goose.SetDialect(dialect); err != nil {
		return err
	}
	goose.SetTableName("schema_migrations")

	logger.LoggerWrapper().Info("running migrations",
		"command", command,
		"backend", cfg.Store.Backend,
		"dir", migrateDir)

	ctx := context.Background()
	if cmd != nil {
		ctx = cmd.Context()
	}
	if err := goose.RunContext(ctx, command, db, migrateDir); err != nil {
		return fmt.Errorf("goose %s: %w", command, err)
	}
	return nil
}

// openMigrationDB opens the database behind the sql backends. The redis backend
// keeps no schema.
func openMigrationDB(cfg *internal.Config) (*sql.DB, string, error) {
	switch cfg.Store.Backend {
	case internal.StoreBackendPostgres:
		db, err := goose.OpenDBWithDriver("pgx", cfg.Database.GetDSN())
		return db, "postgres", err
	case internal.StoreBackendSQLite:
		db, err := goose.OpenDBWithDriver("sqlite3", cfg.Store.SQLitePath)
		return db, "sqlite3", err
	default:
		return nil, "", fmt.Errorf("backend %q has no schema to migrate", cfg.Store.Backend)
	}
}
