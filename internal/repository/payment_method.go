package repository

import (
	"context"
	"time"

	"github.com/nicholas357/E-commerce-fullstack-2.0-sub002/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PaymentMethodRepository interface {
	Create(ctx context.Context, method *model.UserPaymentMethod) error
	ListByUser(ctx context.Context, userID string) ([]*model.UserPaymentMethod, error)
	FindForUser(ctx context.Context, userID, methodID string) (*model.UserPaymentMethod, error)
	Delete(ctx context.Context, userID, methodID string) error
}

type paymentMethodRepoImpl struct {
	db *gorm.DB
}

func NewPaymentMethodRepository(db *gorm.DB) PaymentMethodRepository {
	return &paymentMethodRepoImpl{
		db: db,
	}
}

// Create stores a vaulted method; re-vaulting the same provider token only refreshes it.
func (r *paymentMethodRepoImpl) Create(ctx context.Context, method *model.UserPaymentMethod) error {
	return mapError(r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "provider_token"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"label":      method.Label,
			"updated_at": time.Now(),
		}),
	}).Create(method).Error)
}

func (r *paymentMethodRepoImpl) ListByUser(ctx context.Context, userID string) ([]*model.UserPaymentMethod, error) {
	var methods []*model.UserPaymentMethod
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("is_default DESC, created_at ASC").
		Find(&methods).Error
	if err != nil {
		return nil, mapError(err)
	}

	return methods, nil
}

func (r *paymentMethodRepoImpl) FindForUser(ctx context.Context, userID, methodID string) (*model.UserPaymentMethod, error) {
	var method model.UserPaymentMethod
	err := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", methodID, userID).
		First(&method).Error
	if err != nil {
		return nil, mapError(err)
	}

	return &method, nil
}

func (r *paymentMethodRepoImpl) Delete(ctx context.Context, userID, methodID string) error {
	result := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", methodID, userID).
		Delete(&model.UserPaymentMethod{})
	if result.Error != nil {
		return mapError(result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
