package client

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/nicholas357/E-commerce-fullstack-2.0-sub002/internal/config"
	"github.com/nicholas357/E-commerce-fullstack-2.0-sub002/internal/model"
	"github.com/nicholas357/E-commerce-fullstack-2.0-sub002/internal/repository"

	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewGormLogger sends gorm's warnings, slow queries and failed statements to log.
// Statements are logged without their parameters.
func NewGormLogger(log *slog.Logger) logger.Interface {
	return logger.NewSlogLogger(log.With("component", "gorm"), logger.Config{
		SlowThreshold:             200 * time.Millisecond,
		IgnoreRecordNotFoundError: true,
		ParameterizedQueries:      true,
		LogLevel:                  logger.Warn,
	})
}

// InitDatabaseClient opens the relational store, migrates the schema and seeds the fixed categories.
func InitDatabaseClient(ctx context.Context, cfg *config.Database, log *slog.Logger) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.Driver {
	case "mysql":
		dialector = mysql.Open(cfg.URL)
	case "sqlite", "":
		dialector = sqlite.Open(cfg.URL)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		TranslateError: true,
		Logger:         NewGormLogger(log),
	})
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("get sql db: %w", err)
	}

	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(50)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := Migrate(db); err != nil {
		return nil, err
	}

	if err := repository.NewCategoryRepository(db).Seed(ctx); err != nil {
		return nil, fmt.Errorf("seed categories: %w", err)
	}

	return db, nil
}

func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&model.Category{},
		&model.Product{},
		&model.Denomination{},
		&model.Edition{},
		&model.LicenseType{},
		&model.StreamingPlan{},
		&model.GiftCard{},
		&model.Banner{},
		&model.Profile{},
		&model.ShippingAddress{},
		&model.UserPaymentMethod{},
		&model.Order{},
		&model.OrderItem{},
		&model.LibraryItem{},
	); err != nil {
		return fmt.Errorf("migrate schema: %w", err)
	}
	return nil
}
