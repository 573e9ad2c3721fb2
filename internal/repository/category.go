package repository

import (
	"context"

	"github.com/nicholas357/E-commerce-fullstack-2.0-sub002/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CategoryRepository interface {
	CRUD[model.Category]

	Seed(ctx context.Context) error
	ListAll(ctx context.Context) ([]*model.Category, error)
	CountChildren(ctx context.Context, categoryID string) (int64, error)
	Reorder(ctx context.Context, ids []string) error
}

type categoryRepoImpl struct {
	*gormCRUD[model.Category]
	db *gorm.DB
}

func NewCategoryRepository(db *gorm.DB) CategoryRepository {
	return &categoryRepoImpl{
		gormCRUD: newCRUD[model.Category](db),
		db:       db,
	}
}

// Seed inserts the fixed top-level parents; existing rows are left untouched.
func (r *categoryRepoImpl) Seed(ctx context.Context) error {
	parents := []model.Category{
		{ID: "00000000-0000-0000-0000-000000000001", Name: "Games", Slug: "games", DisplayOrder: 0, ShowInNavbar: true, Fixed: true},
		{ID: "00000000-0000-0000-0000-000000000002", Name: "Gift Cards", Slug: "gift-cards", DisplayOrder: 1, ShowInNavbar: true, Fixed: true},
		{ID: "00000000-0000-0000-0000-000000000003", Name: "Streaming", Slug: "streaming", DisplayOrder: 2, ShowInNavbar: true, Fixed: true},
		{ID: "00000000-0000-0000-0000-000000000004", Name: "Software", Slug: "software", DisplayOrder: 3, ShowInNavbar: true, Fixed: true},
	}

	return mapError(r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&parents).Error)
}

func (r *categoryRepoImpl) ListAll(ctx context.Context) ([]*model.Category, error) {
	var categories []*model.Category
	err := r.db.WithContext(ctx).
		Order("display_order ASC, name ASC").
		Find(&categories).Error
	if err != nil {
		return nil, mapError(err)
	}

	return categories, nil
}

func (r *categoryRepoImpl) CountChildren(ctx context.Context, categoryID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Category{}).
		Where("parent_id = ?", categoryID).
		Count(&count).Error

	return count, mapError(err)
}

// Reorder assigns display_order by position in ids.
func (r *categoryRepoImpl) Reorder(ctx context.Context, ids []string) error {
	return reorder(ctx, r.db, &model.Category{}, ids)
}

func reorder(ctx context.Context, db *gorm.DB, table interface{}, ids []string) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i, id := range ids {
			result := tx.Model(table).Where("id = ?", id).Update("display_order", i)
			if result.Error != nil {
				return mapError(result.Error)
			}
			if result.RowsAffected == 0 {
				return ErrNotFound
			}
		}
		return nil
	})
}
