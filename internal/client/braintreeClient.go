package client

import (
	"context"
	"fmt"
	"strings"

	"github.com/nicholas357/E-commerce-fullstack-2.0-sub002/internal/config"

	"github.com/braintree-go/braintree-go"
	"github.com/shopspring/decimal"
)

// --- INTERFACE ---

type VaultedCard struct {
	Token string
	Label string
}

type BraintreeClient interface {
	// VaultPaymentMethod takes a frontend nonce and creates a customer, returning a permanent payment token
	VaultPaymentMethod(ctx context.Context, nonce, fullName, email string) (*VaultedCard, error)

	// ChargeOneTime charges a vaulted payment token for a specific amount
	ChargeOneTime(ctx context.Context, paymentToken string, amount decimal.Decimal) (string, error)

	// ChargeNonce charges a single-use nonce without vaulting it
	ChargeNonce(ctx context.Context, nonce string, amount decimal.Decimal) (string, error)

	DeletePaymentMethod(ctx context.Context, paymentToken string) error
}

// --- IMPLEMENTATION ---

type braintreeClientImpl struct {
	gateway *braintree.Braintree
}

// NewBraintreeClient initializes the Braintree SDK gateway
func NewBraintreeClient(cfg *config.Braintree) BraintreeClient {
	env := braintree.Sandbox
	if cfg.Environment == "production" {
		env = braintree.Production
	}

	gateway := braintree.New(
		env,
		cfg.MerchantID,
		cfg.PublicKey,
		cfg.PrivateKey,
	)

	return &braintreeClientImpl{
		gateway: gateway,
	}
}

// --- METHODS ---

func (c *braintreeClientImpl) VaultPaymentMethod(ctx context.Context, nonce, fullName, email string) (*VaultedCard, error) {
	firstName, lastName := splitName(fullName)
	req := &braintree.CustomerRequest{
		PaymentMethodNonce: nonce,
		FirstName:          firstName,
		LastName:           lastName,
		Email:              email,
	}

	customer, err := c.gateway.Customer().Create(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("failed to vault payment method: %w", err)
	}

	if customer.DefaultPaymentMethod() == nil {
		return nil, fmt.Errorf("no default payment method returned from vault")
	}

	card := &VaultedCard{
		Token: customer.DefaultPaymentMethod().GetToken(),
		Label: "card",
	}
	if customer.CreditCards != nil {
		for _, cc := range customer.CreditCards.CreditCard {
			if cc.Token == card.Token {
				card.Label = fmt.Sprintf("%s •••• %s", cc.CardType, cc.Last4)
			}
		}
	}

	return card, nil
}

func (c *braintreeClientImpl) ChargeOneTime(ctx context.Context, paymentToken string, amount decimal.Decimal) (string, error) {
	return c.sale(ctx, &braintree.TransactionRequest{
		Type:               "sale",
		Amount:             toBraintreeAmount(amount),
		PaymentMethodToken: paymentToken,
		Options: &braintree.TransactionOptions{
			SubmitForSettlement: true, // Captures the funds immediately
		},
	})
}

func (c *braintreeClientImpl) ChargeNonce(ctx context.Context, nonce string, amount decimal.Decimal) (string, error) {
	return c.sale(ctx, &braintree.TransactionRequest{
		Type:               "sale",
		Amount:             toBraintreeAmount(amount),
		PaymentMethodNonce: nonce,
		Options: &braintree.TransactionOptions{
			SubmitForSettlement: true,
		},
	})
}

func (c *braintreeClientImpl) sale(ctx context.Context, req *braintree.TransactionRequest) (string, error) {
	tx, err := c.gateway.Transaction().Create(ctx, req)
	if err != nil {
		return "", fmt.Errorf("transaction creation failed: %w", err)
	}

	if tx.Status == braintree.TransactionStatusProcessorDeclined || tx.Status == braintree.TransactionStatusGatewayRejected {
		return "", fmt.Errorf("transaction declined by processor: %s", tx.ProcessorResponseText)
	}

	return tx.Id, nil
}

func (c *braintreeClientImpl) DeletePaymentMethod(ctx context.Context, paymentToken string) error {
	if err := c.gateway.PaymentMethod().Delete(ctx, paymentToken); err != nil {
		return fmt.Errorf("failed to delete payment method: %w", err)
	}
	return nil
}

// Braintree expects NewDecimal(unscaled, scale): "50.00" -> NewDecimal(5000, 2)
func toBraintreeAmount(amount decimal.Decimal) *braintree.Decimal {
	cents := amount.Mul(decimal.NewFromInt(100)).IntPart()
	return braintree.NewDecimal(cents, 2)
}

func splitName(fullName string) (string, string) {
	first, last, _ := strings.Cut(strings.TrimSpace(fullName), " ")
	return first, last
}
