package repository

import (
	"context"
	"time"

	"github.com/nicholas357/E-commerce-fullstack-2.0-sub002/internal/model"

	"gorm.io/gorm"
)

type OrderFilter struct {
	UserID string
	Status model.OrderStatus
	Limit  int
	Offset int
}

type OrderRepository interface {
	Create(ctx context.Context, tx *gorm.DB, order *model.Order) error
	FindByID(ctx context.Context, orderID string) (*model.Order, error)
	List(ctx context.Context, filter OrderFilter) ([]*model.Order, int64, error)
	UpdateStatus(ctx context.Context, tx *gorm.DB, orderID string, from []model.OrderStatus, to model.OrderStatus) error
	AttachProof(ctx context.Context, orderID, proofKey string) error
	MarkPaid(ctx context.Context, tx *gorm.DB, orderID, paymentReference string) error
	SetNotes(ctx context.Context, tx *gorm.DB, orderID, notes string) error
	GetOrderItems(ctx context.Context, tx *gorm.DB, orderID string) ([]*model.OrderItem, error)
}

type orderRepoImpl struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) OrderRepository {
	return &orderRepoImpl{
		db: db,
	}
}

func (r *orderRepoImpl) tx(tx *gorm.DB) *gorm.DB {
	if tx == nil {
		return r.db
	}
	return tx
}

// Create stores the order and its items.
func (r *orderRepoImpl) Create(ctx context.Context, tx *gorm.DB, order *model.Order) error {
	return mapError(r.tx(tx).WithContext(ctx).Create(order).Error)
}

func (r *orderRepoImpl) FindByID(ctx context.Context, orderID string) (*model.Order, error) {
	var order model.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("id = ?", orderID).
		First(&order).Error

	if err != nil {
		return nil, mapError(err)
	}

	order.HasProof = order.ProofKey != ""
	return &order, nil
}

func (r *orderRepoImpl) List(ctx context.Context, filter OrderFilter) ([]*model.Order, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.Order{})
	if filter.UserID != "" {
		q = q.Where("user_id = ?", filter.UserID)
	}
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	q = q.Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, mapError(err)
	}

	var orders []*model.Order
	err := paginate(q, filter.Limit, filter.Offset).
		Preload("Items").
		Order("created_at DESC, id ASC").
		Find(&orders).Error
	if err != nil {
		return nil, 0, mapError(err)
	}

	for _, o := range orders {
		o.HasProof = o.ProofKey != ""
	}
	return orders, total, nil
}

// UpdateStatus moves the order to `to` only while its current status is one of `from`.
func (r *orderRepoImpl) UpdateStatus(ctx context.Context, tx *gorm.DB, orderID string, from []model.OrderStatus, to model.OrderStatus) error {
	result := r.tx(tx).WithContext(ctx).Model(&model.Order{}).
		Where(`
			id = ?
			AND status IN ?
		`,
			orderID,
			from,
		).
		Updates(map[string]interface{}{
			"status":     to,
			"updated_at": time.Now(),
		})

	if result.Error != nil {
		return mapError(result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// AttachProof records the proof object and moves the order into verification.
func (r *orderRepoImpl) AttachProof(ctx context.Context, orderID, proofKey string) error {
	result := r.db.WithContext(ctx).Model(&model.Order{}).
		Where("id = ? AND status IN ?", orderID, []model.OrderStatus{
			model.OrderStatusAwaitingProof,
			model.OrderStatusPendingVerification,
		}).
		Updates(map[string]interface{}{
			"proof_key":  proofKey,
			"status":     model.OrderStatusPendingVerification,
			"updated_at": time.Now(),
		})

	if result.Error != nil {
		return mapError(result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// MarkPaid settles an order that has not been paid, cancelled or rejected yet.
func (r *orderRepoImpl) MarkPaid(ctx context.Context, tx *gorm.DB, orderID, paymentReference string) error {
	result := r.tx(tx).WithContext(ctx).Model(&model.Order{}).
		Where("id = ? AND status IN ?", orderID, []model.OrderStatus{
			model.OrderStatusAwaitingProof,
			model.OrderStatusPendingVerification,
		}).
		Updates(map[string]interface{}{
			"status":            model.OrderStatusPaid,
			"payment_reference": paymentReference,
			"updated_at":        time.Now(),
		})

	if result.Error != nil {
		return mapError(result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *orderRepoImpl) SetNotes(ctx context.Context, tx *gorm.DB, orderID, notes string) error {
	result := r.tx(tx).WithContext(ctx).Model(&model.Order{}).
		Where("id = ?", orderID).
		Update("notes", notes)

	if result.Error != nil {
		return mapError(result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *orderRepoImpl) GetOrderItems(ctx context.Context, tx *gorm.DB, orderID string) ([]*model.OrderItem, error) {
	var items []*model.OrderItem
	err := r.tx(tx).WithContext(ctx).Where("order_id = ?", orderID).
		Find(&items).Error

	if err != nil {
		return nil, mapError(err)
	}

	return items, nil
}
