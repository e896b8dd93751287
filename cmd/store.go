package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/frahmantamala/genops/internal"
	"github.com/frahmantamala/genops/internal/core/docstore"
	"github.com/frahmantamala/genops/internal/core/docstore/gormstore"
	"github.com/frahmantamala/genops/internal/core/docstore/redisstore"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
)

// openStore opens the configured backend. The SQL pool is returned for health checks
// and is nil for redis.
func openStore(cfg *internal.Config, logger *slog.Logger) (docstore.Store, *sqlx.DB, error) {
	switch cfg.Store.Backend {
	case internal.StoreBackendRedis:
		store, err := redisstore.New(redisstore.Options{
			URL:            cfg.Store.RedisURL,
			Prefix:         cfg.Store.Prefix,
			PoolSize:       cfg.Store.PoolSize,
			ConnectTimeout: cfg.Store.ConnectTimeout,
		}, logger)
		if err != nil {
			return nil, nil, err
		}
		return store, nil, nil

	case internal.StoreBackendPostgres:
		db, err := initDB(cfg.Database)
		if err != nil {
			return nil, nil, err
		}
		gdb, err := gorm.Open(postgres.New(postgres.Config{Conn: db.DB}), gormConfig())
		if err != nil {
			_ = db.Close()
			return nil, nil, fmt.Errorf("failed to open gorm on postgres: %w", err)
		}
		return gormstore.New(gdb, logger), db, nil

	case internal.StoreBackendSQLite:
		if err := os.MkdirAll(filepath.Dir(cfg.Store.SQLitePath), 0o755); err != nil {
			return nil, nil, fmt.Errorf("failed to create sqlite directory: %w", err)
		}
		gdb, err := gorm.Open(sqlite.Open(cfg.Store.SQLitePath), gormConfig())
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open sqlite: %w", err)
		}
		sqlDB, err := gdb.DB()
		if err != nil {
			return nil, nil, err
		}
		// sqlite allows a single writer
		sqlDB.SetMaxOpenConns(1)

		store := gormstore.New(gdb, logger)
		if err := store.AutoMigrate(); err != nil {
			return nil, nil, fmt.Errorf("failed to migrate sqlite store: %w", err)
		}
		return store, sqlx.NewDb(sqlDB, "sqlite3"), nil

	default:
		return nil, nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}
}

// initDB initializes the postgres connection pool
func initDB(cfg internal.DatabaseConfig) (*sqlx.DB, error) {
	const driver = "pgx"

	dbConn, err := sqlx.Connect(driver, cfg.GetDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open db connection: %w", err)
	}

	dbConn.SetMaxIdleConns(cfg.MaxIdleConns)
	dbConn.SetMaxOpenConns(cfg.MaxOpenConns)
	dbConn.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	dbConn.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	if err := dbConn.Ping(); err != nil {
		_ = dbConn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return dbConn, nil
}

func gormConfig() *gorm.Config {
	return &gorm.Config{
		Logger: gormLogger.Default.LogMode(gormLogger.Warn),
	}
}
