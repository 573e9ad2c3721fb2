// Package testdb opens throwaway in-memory databases for package tests.
package testdb

import (
	"context"
	"log/slog"
	"testing"

	"github.com/nicholas357/E-commerce-fullstack-2.0-sub002/internal/client"
	"github.com/nicholas357/E-commerce-fullstack-2.0-sub002/internal/repository"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// Open returns a migrated and seeded sqlite database private to the test.
func Open(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         client.NewGormLogger(slog.New(slog.DiscardHandler)),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, client.Migrate(db))
	require.NoError(t, repository.NewCategoryRepository(db).Seed(context.Background()))

	return db
}
