package repository

import (
	"context"
	"time"

	"github.com/nicholas357/E-commerce-fullstack-2.0-sub002/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// LibraryRepository tracks the digital goods each customer owns.
type LibraryRepository interface {
	Grant(ctx context.Context, tx *gorm.DB, item *model.LibraryItem) error
	ListByUser(ctx context.Context, userID string) ([]*model.LibraryItem, error)
}

type libraryRepoImpl struct {
	db *gorm.DB
}

func NewLibraryRepository(db *gorm.DB) LibraryRepository {
	return &libraryRepoImpl{
		db: db,
	}
}

func (r *libraryRepoImpl) Grant(ctx context.Context, tx *gorm.DB, item *model.LibraryItem) error {
	if tx == nil {
		tx = r.db
	}

	return mapError(tx.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}, {Name: "product_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"quantity":   gorm.Expr("library_items.quantity + ?", item.Quantity),
			"updated_at": time.Now(),
		}),
	}).Create(item).Error)
}

func (r *libraryRepoImpl) ListByUser(ctx context.Context, userID string) ([]*model.LibraryItem, error) {
	var items []*model.LibraryItem

	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("updated_at DESC").
		Find(&items).Error
	if err != nil {
		return nil, mapError(err)
	}

	return items, nil
}
