package repository

import (
	"context"

	"github.com/nicholas357/E-commerce-fullstack-2.0-sub002/internal/model"

	"gorm.io/gorm"
)

type GiftCardRepository interface {
	CRUD[model.GiftCard]

	List(ctx context.Context, activeOnly bool) ([]*model.GiftCard, error)
}

type giftCardRepoImpl struct {
	*gormCRUD[model.GiftCard]
	db *gorm.DB
}

func NewGiftCardRepository(db *gorm.DB) GiftCardRepository {
	return &giftCardRepoImpl{
		gormCRUD: newCRUD[model.GiftCard](db),
		db:       db,
	}
}

func (r *giftCardRepoImpl) List(ctx context.Context, activeOnly bool) ([]*model.GiftCard, error) {
	q := r.db.WithContext(ctx)
	if activeOnly {
		q = q.Where("active = ?", true)
	}

	var cards []*model.GiftCard
	if err := q.Order("name ASC").Find(&cards).Error; err != nil {
		return nil, mapError(err)
	}

	return cards, nil
}
