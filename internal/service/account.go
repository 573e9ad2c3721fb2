package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/nicholas357/E-commerce-fullstack-2.0-sub002/internal/client"
	"github.com/nicholas357/E-commerce-fullstack-2.0-sub002/internal/dto"
	"github.com/nicholas357/E-commerce-fullstack-2.0-sub002/internal/model"
	"github.com/nicholas357/E-commerce-fullstack-2.0-sub002/internal/repository"

	"github.com/google/uuid"
)

const providerBraintree = "braintree"

// AccountService manages the saved shipping addresses and payment methods of a customer.
type AccountService interface {
	ListAddresses(ctx context.Context, userID string) ([]*model.ShippingAddress, error)
	AddAddress(ctx context.Context, userID string, in dto.AddressInput) (*model.ShippingAddress, error)
	UpdateAddress(ctx context.Context, userID, addressID string, in dto.AddressInput) (*model.ShippingAddress, error)
	DeleteAddress(ctx context.Context, userID, addressID string) error

	ListPaymentMethods(ctx context.Context, userID string) ([]*model.UserPaymentMethod, error)
	AddPaymentMethod(ctx context.Context, profile *model.Profile, req dto.AddPaymentMethodRequest) (*model.UserPaymentMethod, error)
	DeletePaymentMethod(ctx context.Context, userID, methodID string) error
}

type accountServiceImpl struct {
	addressRepo       repository.AddressRepository
	paymentMethodRepo repository.PaymentMethodRepository
	braintreeClient   client.BraintreeClient
	logger            *slog.Logger
}

func NewAccountService(
	addressRepo repository.AddressRepository,
	paymentMethodRepo repository.PaymentMethodRepository,
	braintreeClient client.BraintreeClient,
	logger *slog.Logger,
) AccountService {
	return &accountServiceImpl{
		addressRepo:       addressRepo,
		paymentMethodRepo: paymentMethodRepo,
		braintreeClient:   braintreeClient,
		logger:            logger,
	}
}

func (s *accountServiceImpl) ListAddresses(ctx context.Context, userID string) ([]*model.ShippingAddress, error) {
	addresses, err := s.addressRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list addresses: %w", err)
	}
	return addresses, nil
}

func validateAddress(in *dto.AddressInput) error {
	in.FullName = strings.TrimSpace(in.FullName)
	in.Address = strings.TrimSpace(in.Address)
	in.City = strings.TrimSpace(in.City)
	in.Country = strings.TrimSpace(in.Country)

	var missing []string
	if in.FullName == "" {
		missing = append(missing, "full_name")
	}
	if in.Address == "" {
		missing = append(missing, "address")
	}
	if in.City == "" {
		missing = append(missing, "city")
	}
	if in.Country == "" {
		missing = append(missing, "country")
	}
	if len(missing) > 0 {
		return invalid("missing %s", strings.Join(missing, ", "))
	}
	return nil
}

func applyAddress(addr *model.ShippingAddress, in dto.AddressInput) {
	addr.Label = strings.TrimSpace(in.Label)
	addr.FullName = in.FullName
	addr.Phone = strings.TrimSpace(in.Phone)
	addr.Address = in.Address
	addr.City = in.City
	addr.PostalCode = strings.TrimSpace(in.PostalCode)
	addr.Country = in.Country
}

// AddAddress makes the first address of a customer the default one.
func (s *accountServiceImpl) AddAddress(ctx context.Context, userID string, in dto.AddressInput) (*model.ShippingAddress, error) {
	if err := validateAddress(&in); err != nil {
		return nil, err
	}

	existing, err := s.addressRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list addresses: %w", err)
	}

	addr := &model.ShippingAddress{ID: uuid.NewString(), UserID: userID}
	applyAddress(addr, in)
	if err := s.addressRepo.Create(ctx, addr); err != nil {
		return nil, fmt.Errorf("create address: %w", err)
	}

	if in.IsDefault || len(existing) == 0 {
		if err := s.addressRepo.SetDefault(ctx, userID, addr.ID); err != nil {
			return nil, fmt.Errorf("set default address: %w", err)
		}
		addr.IsDefault = true
	}
	return addr, nil
}

func (s *accountServiceImpl) UpdateAddress(ctx context.Context, userID, addressID string, in dto.AddressInput) (*model.ShippingAddress, error) {
	if err := validateAddress(&in); err != nil {
		return nil, err
	}

	addr, err := s.addressRepo.FindForUser(ctx, userID, addressID)
	if err != nil {
		return nil, fmt.Errorf("find address: %w", err)
	}
	applyAddress(addr, in)
	if err := s.addressRepo.Save(ctx, addr); err != nil {
		return nil, fmt.Errorf("save address: %w", err)
	}

	if in.IsDefault && !addr.IsDefault {
		if err := s.addressRepo.SetDefault(ctx, userID, addr.ID); err != nil {
			return nil, fmt.Errorf("set default address: %w", err)
		}
		addr.IsDefault = true
	}
	return addr, nil
}

// DeleteAddress hands the default over to the oldest remaining address.
func (s *accountServiceImpl) DeleteAddress(ctx context.Context, userID, addressID string) error {
	addr, err := s.addressRepo.FindForUser(ctx, userID, addressID)
	if err != nil {
		return fmt.Errorf("find address: %w", err)
	}
	if err := s.addressRepo.Delete(ctx, addr.ID); err != nil {
		return fmt.Errorf("delete address: %w", err)
	}
	if !addr.IsDefault {
		return nil
	}

	rest, err := s.addressRepo.ListByUser(ctx, userID)
	if err != nil {
		return fmt.Errorf("list addresses: %w", err)
	}
	if len(rest) > 0 {
		if err := s.addressRepo.SetDefault(ctx, userID, rest[0].ID); err != nil {
			return fmt.Errorf("set default address: %w", err)
		}
	}
	return nil
}

func (s *accountServiceImpl) ListPaymentMethods(ctx context.Context, userID string) ([]*model.UserPaymentMethod, error) {
	methods, err := s.paymentMethodRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list payment methods: %w", err)
	}
	return methods, nil
}

// AddPaymentMethod vaults the nonce with Braintree and keeps only the token.
func (s *accountServiceImpl) AddPaymentMethod(ctx context.Context, profile *model.Profile, req dto.AddPaymentMethodRequest) (*model.UserPaymentMethod, error) {
	if s.braintreeClient == nil {
		return nil, fmt.Errorf("card vault: %w", ErrUnavailable)
	}
	if req.Nonce == "" {
		return nil, invalid("nonce is required")
	}

	card, err := s.braintreeClient.VaultPaymentMethod(ctx, req.Nonce, profile.FullName, profile.Email)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPaymentFailed, err)
	}

	existing, err := s.paymentMethodRepo.ListByUser(ctx, profile.ID)
	if err != nil {
		return nil, fmt.Errorf("list payment methods: %w", err)
	}

	method := &model.UserPaymentMethod{
		ID:            uuid.NewString(),
		UserID:        profile.ID,
		Kind:          model.PaymentMethodCard,
		Provider:      providerBraintree,
		ProviderToken: card.Token,
		Label:         card.Label,
		IsDefault:     req.IsDefault || len(existing) == 0,
	}
	if err := s.paymentMethodRepo.Create(ctx, method); err != nil {
		return nil, fmt.Errorf("store payment method: %w", err)
	}
	return method, nil
}

func (s *accountServiceImpl) DeletePaymentMethod(ctx context.Context, userID, methodID string) error {
	method, err := s.paymentMethodRepo.FindForUser(ctx, userID, methodID)
	if err != nil {
		return fmt.Errorf("find payment method: %w", err)
	}
	if err := s.paymentMethodRepo.Delete(ctx, userID, methodID); err != nil {
		return fmt.Errorf("delete payment method: %w", err)
	}

	if s.braintreeClient != nil {
		err := s.braintreeClient.DeletePaymentMethod(ctx, method.ProviderToken)
		if err != nil && !errors.Is(err, context.Canceled) {
			s.logger.Warn("delete vaulted payment method", "method_id", methodID, "error", err)
		}
	}
	return nil
}
