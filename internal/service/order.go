package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/nicholas357/E-commerce-fullstack-2.0-sub002/internal/auth"
	"github.com/nicholas357/E-commerce-fullstack-2.0-sub002/internal/dto"
	"github.com/nicholas357/E-commerce-fullstack-2.0-sub002/internal/model"
	"github.com/nicholas357/E-commerce-fullstack-2.0-sub002/internal/repository"
	"github.com/nicholas357/E-commerce-fullstack-2.0-sub002/internal/storage"

	"gorm.io/gorm"
)

type OrderService interface {
	ListMine(ctx context.Context, userID string, limit, offset int) (*dto.Page[*model.Order], error)
	GetMine(ctx context.Context, userID, orderID string) (*model.Order, error)
	UploadProof(ctx context.Context, userID, orderID, filename string, size int64, r io.Reader) (*model.Order, error)
	// OpenProof streams the payment proof to the order owner or an admin.
	OpenProof(ctx context.Context, user auth.User, orderID string) (io.ReadCloser, *storage.Object, error)
	Library(ctx context.Context, userID string) ([]*model.LibraryItem, error)

	List(ctx context.Context, status model.OrderStatus, limit, offset int) (*dto.Page[*model.Order], error)
	Get(ctx context.Context, orderID string) (*model.Order, error)
	UpdateStatus(ctx context.Context, orderID string, req dto.UpdateOrderStatusRequest) (*model.Order, error)
}

type orderServiceImpl struct {
	db          *gorm.DB
	orderRepo   repository.OrderRepository
	productRepo repository.ProductRepository
	libraryRepo repository.LibraryRepository
	uploader    *storage.Uploader
	logger      *slog.Logger
}

func NewOrderService(
	db *gorm.DB,
	orderRepo repository.OrderRepository,
	productRepo repository.ProductRepository,
	libraryRepo repository.LibraryRepository,
	uploader *storage.Uploader,
	logger *slog.Logger,
) OrderService {
	return &orderServiceImpl{
		db:          db,
		orderRepo:   orderRepo,
		productRepo: productRepo,
		libraryRepo: libraryRepo,
		uploader:    uploader,
		logger:      logger,
	}
}

func (s *orderServiceImpl) list(ctx context.Context, filter repository.OrderFilter) (*dto.Page[*model.Order], error) {
	filter.Limit, filter.Offset = pageBounds(filter.Limit, filter.Offset)

	orders, total, err := s.orderRepo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}

	return &dto.Page[*model.Order]{
		Items:  orders,
		Total:  total,
		Limit:  filter.Limit,
		Offset: filter.Offset,
	}, nil
}

func (s *orderServiceImpl) ListMine(ctx context.Context, userID string, limit, offset int) (*dto.Page[*model.Order], error) {
	return s.list(ctx, repository.OrderFilter{UserID: userID, Limit: limit, Offset: offset})
}

// GetMine reports orders of other customers as not found.
func (s *orderServiceImpl) GetMine(ctx context.Context, userID, orderID string) (*model.Order, error) {
	order, err := s.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.UserID != userID {
		return nil, fmt.Errorf("find order: %w", ErrNotFound)
	}
	return order, nil
}

func (s *orderServiceImpl) UploadProof(ctx context.Context, userID, orderID, filename string, size int64, r io.Reader) (*model.Order, error) {
	order, err := s.GetMine(ctx, userID, orderID)
	if err != nil {
		return nil, err
	}
	if !order.Status.AcceptsProof() {
		return nil, fmt.Errorf("%w: order is %s", ErrInvalidTransition, order.Status)
	}

	return attachProof(ctx, s.orderRepo, s.uploader, s.logger, order, filename, size, r)
}

// attachProof stores the file and records it on the order; the previous proof is removed.
func attachProof(
	ctx context.Context,
	orderRepo repository.OrderRepository,
	uploader *storage.Uploader,
	logger *slog.Logger,
	order *model.Order,
	filename string,
	size int64,
	r io.Reader,
) (*model.Order, error) {
	obj, err := uploader.Upload(ctx, storage.BucketPaymentProofs, "orders/"+order.ID, storage.ProofRule, filename, size, r)
	if err != nil {
		return nil, err
	}

	if err := orderRepo.AttachProof(ctx, order.ID, obj.Key); err != nil {
		removeObject(ctx, uploader, logger, storage.BucketPaymentProofs, obj.Key)
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: order no longer accepts a proof", ErrInvalidTransition)
		}
		return nil, fmt.Errorf("attach proof: %w", err)
	}
	removeObject(ctx, uploader, logger, storage.BucketPaymentProofs, order.ProofKey)

	updated, err := orderRepo.FindByID(ctx, order.ID)
	if err != nil {
		return nil, fmt.Errorf("find order: %w", err)
	}
	return updated, nil
}

func (s *orderServiceImpl) OpenProof(ctx context.Context, user auth.User, orderID string) (io.ReadCloser, *storage.Object, error) {
	order, err := s.Get(ctx, orderID)
	if err != nil {
		return nil, nil, err
	}
	if order.UserID != user.ID && !user.IsAdmin() {
		return nil, nil, fmt.Errorf("find order: %w", ErrNotFound)
	}
	if order.ProofKey == "" {
		return nil, nil, fmt.Errorf("find proof: %w", ErrNotFound)
	}

	rc, obj, err := s.uploader.Store().Open(ctx, storage.BucketPaymentProofs, order.ProofKey)
	if errors.Is(err, storage.ErrObjectNotFound) {
		return nil, nil, fmt.Errorf("open proof: %w", ErrNotFound)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("open proof: %w", err)
	}
	return rc, obj, nil
}

func (s *orderServiceImpl) Library(ctx context.Context, userID string) ([]*model.LibraryItem, error) {
	items, err := s.libraryRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list library: %w", err)
	}
	return items, nil
}

func (s *orderServiceImpl) List(ctx context.Context, status model.OrderStatus, limit, offset int) (*dto.Page[*model.Order], error) {
	if status != "" && !status.Valid() {
		return nil, invalid("unknown order status %q", status)
	}
	return s.list(ctx, repository.OrderFilter{Status: status, Limit: limit, Offset: offset})
}

func (s *orderServiceImpl) Get(ctx context.Context, orderID string) (*model.Order, error) {
	order, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("find order: %w", err)
	}
	return order, nil
}

// UpdateStatus applies an admin transition. Cancelling puts the stock back,
// paying grants the items to the customer's library.
func (s *orderServiceImpl) UpdateStatus(ctx context.Context, orderID string, req dto.UpdateOrderStatusRequest) (*model.Order, error) {
	if !req.Status.Valid() {
		return nil, invalid("unknown order status %q", req.Status)
	}

	order, err := s.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !order.Status.CanTransitionTo(req.Status) {
		return nil, fmt.Errorf("%w: %s to %s", ErrInvalidTransition, order.Status, req.Status)
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := s.orderRepo.UpdateStatus(ctx, tx, orderID, []model.OrderStatus{order.Status}, req.Status)
		if errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("%w: order changed concurrently", ErrConflict)
		}
		if err != nil {
			return fmt.Errorf("update order status: %w", err)
		}

		if req.Notes != "" {
			if err := s.orderRepo.SetNotes(ctx, tx, orderID, req.Notes); err != nil {
				return fmt.Errorf("set order notes: %w", err)
			}
		}

		switch req.Status {
		case model.OrderStatusCancelled:
			return restoreStock(ctx, tx, s.orderRepo, s.productRepo, orderID)
		case model.OrderStatusPaid:
			return grantLibrary(ctx, tx, s.orderRepo, s.libraryRepo, order.UserID, orderID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("order status updated", "order_id", orderID, "from", order.Status, "to", req.Status)
	return s.Get(ctx, orderID)
}

func restoreStock(ctx context.Context, tx *gorm.DB, orderRepo repository.OrderRepository, productRepo repository.ProductRepository, orderID string) error {
	items, err := orderRepo.GetOrderItems(ctx, tx, orderID)
	if err != nil {
		return fmt.Errorf("get order items: %w", err)
	}

	for _, item := range items {
		err := productRepo.AdjustStock(ctx, tx, item.ProductID, item.Quantity)
		// the product may have been deleted since
		if err != nil && !errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("restore stock: %w", err)
		}
	}
	return nil
}

func grantLibrary(ctx context.Context, tx *gorm.DB, orderRepo repository.OrderRepository, libraryRepo repository.LibraryRepository, userID, orderID string) error {
	items, err := orderRepo.GetOrderItems(ctx, tx, orderID)
	if err != nil {
		return fmt.Errorf("get order items: %w", err)
	}

	for _, item := range items {
		err = libraryRepo.Grant(ctx, tx, &model.LibraryItem{
			UserID:    userID,
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
		})
		if err != nil {
			return fmt.Errorf("update user library: %w", err)
		}
	}
	return nil
}
