package repository

import (
	"context"
	"database/sql"

	"github.com/nicholas357/E-commerce-fullstack-2.0-sub002/internal/model"

	"gorm.io/gorm"
)

type BannerRepository interface {
	CRUD[model.Banner]

	List(ctx context.Context, activeOnly bool) ([]*model.Banner, error)
	Reorder(ctx context.Context, ids []string) error
	MaxDisplayOrder(ctx context.Context) (int, error)
}

type bannerRepoImpl struct {
	*gormCRUD[model.Banner]
	db *gorm.DB
}

func NewBannerRepository(db *gorm.DB) BannerRepository {
	return &bannerRepoImpl{
		gormCRUD: newCRUD[model.Banner](db),
		db:       db,
	}
}

func (r *bannerRepoImpl) List(ctx context.Context, activeOnly bool) ([]*model.Banner, error) {
	q := r.db.WithContext(ctx)
	if activeOnly {
		q = q.Where("active = ?", true)
	}

	var banners []*model.Banner
	if err := q.Order("display_order ASC, created_at ASC").Find(&banners).Error; err != nil {
		return nil, mapError(err)
	}

	return banners, nil
}

func (r *bannerRepoImpl) Reorder(ctx context.Context, ids []string) error {
	return reorder(ctx, r.db, &model.Banner{}, ids)
}

func (r *bannerRepoImpl) MaxDisplayOrder(ctx context.Context) (int, error) {
	var max sql.NullInt64
	err := r.db.WithContext(ctx).Model(&model.Banner{}).
		Select("MAX(display_order)").
		Row().
		Scan(&max)
	if err != nil {
		return 0, mapError(err)
	}
	if !max.Valid {
		return -1, nil
	}

	return int(max.Int64), nil
}
