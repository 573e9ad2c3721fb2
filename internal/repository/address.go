package repository

import (
	"context"

	"github.com/nicholas357/E-commerce-fullstack-2.0-sub002/internal/model"

	"gorm.io/gorm"
)

type AddressRepository interface {
	CRUD[model.ShippingAddress]

	ListByUser(ctx context.Context, userID string) ([]*model.ShippingAddress, error)
	FindForUser(ctx context.Context, userID, addressID string) (*model.ShippingAddress, error)
	SetDefault(ctx context.Context, userID, addressID string) error
}

type addressRepoImpl struct {
	*gormCRUD[model.ShippingAddress]
	db *gorm.DB
}

func NewAddressRepository(db *gorm.DB) AddressRepository {
	return &addressRepoImpl{
		gormCRUD: newCRUD[model.ShippingAddress](db),
		db:       db,
	}
}

func (r *addressRepoImpl) ListByUser(ctx context.Context, userID string) ([]*model.ShippingAddress, error) {
	var addresses []*model.ShippingAddress
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("is_default DESC, created_at ASC").
		Find(&addresses).Error
	if err != nil {
		return nil, mapError(err)
	}

	return addresses, nil
}

func (r *addressRepoImpl) FindForUser(ctx context.Context, userID, addressID string) (*model.ShippingAddress, error) {
	var address model.ShippingAddress
	err := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", addressID, userID).
		First(&address).Error
	if err != nil {
		return nil, mapError(err)
	}

	return &address, nil
}

// SetDefault makes addressID the only default address of the user.
func (r *addressRepoImpl) SetDefault(ctx context.Context, userID, addressID string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&model.ShippingAddress{}).
			Where("user_id = ? AND id <> ?", userID, addressID).
			Update("is_default", false).Error; err != nil {
			return mapError(err)
		}

		result := tx.Model(&model.ShippingAddress{}).
			Where("user_id = ? AND id = ?", userID, addressID).
			Update("is_default", true)
		if result.Error != nil {
			return mapError(result.Error)
		}
		if result.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}
