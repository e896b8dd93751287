package storetest

import (
	"log/slog"
	"os"

	"github.com/frahmantamala/genops/internal/core/docstore/gormstore"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewMemoryStore returns a gorm store over a private in-memory sqlite database that is
// closed when the current spec ends. Call it from a setup node or spec.
func NewMemoryStore() *gormstore.Store {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	Expect(err).NotTo(HaveOccurred())

	// every pooled connection would otherwise get its own in-memory database
	sqlDB, err := db.DB()
	Expect(err).NotTo(HaveOccurred())
	sqlDB.SetMaxOpenConns(1)
	DeferCleanup(sqlDB.Close)

	store := gormstore.New(db, QuietLogger())
	Expect(store.AutoMigrate()).To(Succeed())
	DeferCleanup(store.Close)
	return store
}

func QuietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}
