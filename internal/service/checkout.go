package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/nicholas357/E-commerce-fullstack-2.0-sub002/internal/auth"
	"github.com/nicholas357/E-commerce-fullstack-2.0-sub002/internal/cart"
	"github.com/nicholas357/E-commerce-fullstack-2.0-sub002/internal/checkout"
	"github.com/nicholas357/E-commerce-fullstack-2.0-sub002/internal/client"
	"github.com/nicholas357/E-commerce-fullstack-2.0-sub002/internal/dto"
	"github.com/nicholas357/E-commerce-fullstack-2.0-sub002/internal/model"
	"github.com/nicholas357/E-commerce-fullstack-2.0-sub002/internal/repository"
	"github.com/nicholas357/E-commerce-fullstack-2.0-sub002/internal/storage"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const proofUploadWarning = "the order was placed but the payment proof could not be stored, upload it again from your orders"

// FileUpload is a file received from a multipart form.
type FileUpload struct {
	Filename string
	Size     int64
	Reader   io.Reader
}

// CheckoutService drives the wizard and turns the cart into an order.
// The wizard and cart are mutated in place; the caller persists them.
type CheckoutService interface {
	View(ctx context.Context, w *checkout.Wizard, c *cart.Cart) (*dto.CheckoutView, error)
	SubmitShipping(ctx context.Context, user auth.User, w *checkout.Wizard, shipping checkout.Shipping) error
	SelectPayment(ctx context.Context, user auth.User, w *checkout.Wizard, payment checkout.Payment) error
	Back(w *checkout.Wizard) error
	Submit(ctx context.Context, user auth.User, w *checkout.Wizard, c *cart.Cart, proof *FileUpload) (*dto.CheckoutResult, error)
}

type checkoutServiceImpl struct {
	db                *gorm.DB
	braintreeClient   client.BraintreeClient
	productRepo       repository.ProductRepository
	orderRepo         repository.OrderRepository
	libraryRepo       repository.LibraryRepository
	addressRepo       repository.AddressRepository
	paymentMethodRepo repository.PaymentMethodRepository
	uploader          *storage.Uploader
	logger            *slog.Logger
}

// NewCheckoutService accepts a nil braintreeClient; card payments are then unavailable.
func NewCheckoutService(
	db *gorm.DB,
	braintreeClient client.BraintreeClient,
	productRepo repository.ProductRepository,
	orderRepo repository.OrderRepository,
	libraryRepo repository.LibraryRepository,
	addressRepo repository.AddressRepository,
	paymentMethodRepo repository.PaymentMethodRepository,
	uploader *storage.Uploader,
	logger *slog.Logger,
) CheckoutService {
	return &checkoutServiceImpl{
		db:                db,
		braintreeClient:   braintreeClient,
		productRepo:       productRepo,
		orderRepo:         orderRepo,
		libraryRepo:       libraryRepo,
		addressRepo:       addressRepo,
		paymentMethodRepo: paymentMethodRepo,
		uploader:          uploader,
		logger:            logger,
	}
}

func (s *checkoutServiceImpl) View(ctx context.Context, w *checkout.Wizard, c *cart.Cart) (*dto.CheckoutView, error) {
	lines, stale, err := priceLines(ctx, s.productRepo, c)
	if err != nil {
		return nil, err
	}

	return &dto.CheckoutView{
		Step:     w.Step,
		Shipping: w.Shipping,
		Payment: dto.PaymentView{
			Method:        w.Payment.Method,
			SavedMethodID: w.Payment.SavedMethodID,
			NonceProvided: w.Payment.Nonce != "",
		},
		Cart: cartView(lines, stale),
	}, nil
}

// SubmitShipping fills the details from a saved address when one is referenced.
func (s *checkoutServiceImpl) SubmitShipping(ctx context.Context, user auth.User, w *checkout.Wizard, shipping checkout.Shipping) error {
	if shipping.AddressID != "" {
		addr, err := s.addressRepo.FindForUser(ctx, user.ID, shipping.AddressID)
		if err != nil {
			return fmt.Errorf("find address: %w", err)
		}
		shipping.FullName = addr.FullName
		shipping.Phone = addr.Phone
		shipping.Address = addr.Address
		shipping.City = addr.City
		shipping.PostalCode = addr.PostalCode
		shipping.Country = addr.Country
	}
	if shipping.Email == "" {
		shipping.Email = user.Email
	}

	return w.SubmitShipping(shipping)
}

func (s *checkoutServiceImpl) SelectPayment(ctx context.Context, user auth.User, w *checkout.Wizard, payment checkout.Payment) error {
	if payment.Method == model.PaymentMethodCard {
		if s.braintreeClient == nil {
			return fmt.Errorf("card payments: %w", ErrUnavailable)
		}
		if payment.SavedMethodID != "" {
			if _, err := s.paymentMethodRepo.FindForUser(ctx, user.ID, payment.SavedMethodID); err != nil {
				return fmt.Errorf("find payment method: %w", err)
			}
		}
	}

	return w.SelectPayment(payment)
}

func (s *checkoutServiceImpl) Back(w *checkout.Wizard) error {
	return w.Back()
}

func (s *checkoutServiceImpl) Submit(ctx context.Context, user auth.User, w *checkout.Wizard, c *cart.Cart, proof *FileUpload) (*dto.CheckoutResult, error) {
	if err := w.ReadyToSubmit(); err != nil {
		return nil, err
	}

	method := w.Payment.Method
	var proofData []byte
	switch {
	case method.RequiresProof():
		if proof == nil {
			return nil, invalid("a payment proof is required for %s", method)
		}
		// reject unusable files before anything is reserved
		data, _, err := storage.ProofRule.Validate(proof.Filename, proof.Size, proof.Reader)
		if err != nil {
			return nil, err
		}
		proofData = data
	case method == model.PaymentMethodCard && s.braintreeClient == nil:
		return nil, fmt.Errorf("card payments: %w", ErrUnavailable)
	}

	lines, stale, err := priceLines(ctx, s.productRepo, c)
	if err != nil {
		return nil, err
	}
	if len(stale) > 0 {
		return nil, fmt.Errorf("%w: %d cart items are no longer available, review your cart", ErrConflict, len(stale))
	}
	if len(lines) == 0 {
		return nil, invalid("cart is empty")
	}

	order, err := buildOrder(user.ID, w, lines)
	if err != nil {
		return nil, err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.orderRepo.Create(ctx, tx, order); err != nil {
			return fmt.Errorf("store order in db: %w", err)
		}

		for _, pl := range lines {
			err := s.productRepo.AdjustStock(ctx, tx, pl.product.ID, -pl.line.Quantity)
			if errors.Is(err, repository.ErrOutOfStock) {
				return fmt.Errorf("%w: %s", ErrInsufficientStock, pl.product.Name)
			}
			if err != nil {
				return fmt.Errorf("reserve stock: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("order created", "order_id", order.ID, "user_id", user.ID, "method", method, "total", order.Total.String())

	result := &dto.CheckoutResult{}
	if method == model.PaymentMethodCard {
		if err := s.chargeCard(ctx, user, w.Payment, order); err != nil {
			return nil, err
		}
	} else {
		_, err := attachProof(ctx, s.orderRepo, s.uploader, s.logger, order, proof.Filename, int64(len(proofData)), bytes.NewReader(proofData))
		if err != nil {
			s.logger.Warn("store payment proof", "order_id", order.ID, "error", err)
			result.Warning = proofUploadWarning
		} else {
			result.ProofUploaded = true
		}
	}

	c.Clear()
	*w = *checkout.New()

	result.Order, err = s.orderRepo.FindByID(ctx, order.ID)
	if err != nil {
		return nil, fmt.Errorf("find order: %w", err)
	}
	return result, nil
}

func buildOrder(userID string, w *checkout.Wizard, lines []pricedLine) (*model.Order, error) {
	order := &model.Order{
		ID:                 uuid.NewString(),
		UserID:             userID,
		Status:             model.OrderStatusAwaitingProof,
		PaymentMethod:      w.Payment.Method,
		ShippingName:       w.Shipping.FullName,
		ShippingEmail:      w.Shipping.Email,
		ShippingPhone:      w.Shipping.Phone,
		ShippingAddress:    w.Shipping.Address,
		ShippingCity:       w.Shipping.City,
		ShippingPostalCode: w.Shipping.PostalCode,
		ShippingCountry:    w.Shipping.Country,
		Currency:           lines[0].product.Currency,
		Subtotal:           decimal.Zero,
		Items:              make([]model.OrderItem, 0, len(lines)),
	}

	for _, pl := range lines {
		if pl.product.Currency != order.Currency {
			return nil, invalid("cart mixes %s and %s prices", order.Currency, pl.product.Currency)
		}
		order.Items = append(order.Items, model.OrderItem{
			ProductID:    pl.product.ID,
			Name:         pl.product.Name,
			VariantID:    pl.variant.ID,
			VariantLabel: pl.variant.Label,
			Quantity:     pl.line.Quantity,
			UnitPrice:    pl.unitPrice(),
		})
		order.Subtotal = order.Subtotal.Add(pl.total())
	}
	order.Total = order.Subtotal
	return order, nil
}

// chargeCard settles the order through Braintree. A declined charge cancels
// the order and releases its stock.
func (s *checkoutServiceImpl) chargeCard(ctx context.Context, user auth.User, payment checkout.Payment, order *model.Order) error {
	var (
		txnID string
		err   error
	)
	if payment.SavedMethodID != "" {
		var method *model.UserPaymentMethod
		method, err = s.paymentMethodRepo.FindForUser(ctx, user.ID, payment.SavedMethodID)
		if err == nil {
			txnID, err = s.braintreeClient.ChargeOneTime(ctx, method.ProviderToken, order.Total)
		}
	} else {
		txnID, err = s.braintreeClient.ChargeNonce(ctx, payment.Nonce, order.Total)
	}

	if err != nil {
		s.logger.Warn("card charge failed", "order_id", order.ID, "error", err)
		cancelErr := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := s.orderRepo.UpdateStatus(ctx, tx, order.ID, []model.OrderStatus{model.OrderStatusAwaitingProof}, model.OrderStatusCancelled); err != nil {
				return fmt.Errorf("cancel order: %w", err)
			}
			return restoreStock(ctx, tx, s.orderRepo, s.productRepo, order.ID)
		})
		if cancelErr != nil {
			s.logger.Error("release unpaid order", "order_id", order.ID, "error", cancelErr)
		}
		return fmt.Errorf("%w: %v", ErrPaymentFailed, err)
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.orderRepo.MarkPaid(ctx, tx, order.ID, txnID); err != nil {
			return fmt.Errorf("mark order paid: %w", err)
		}
		return grantLibrary(ctx, tx, s.orderRepo, s.libraryRepo, user.ID, order.ID)
	})
}
