package service_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/nicholas357/E-commerce-fullstack-2.0-sub002/internal/auth"
	"github.com/nicholas357/E-commerce-fullstack-2.0-sub002/internal/cart"
	"github.com/nicholas357/E-commerce-fullstack-2.0-sub002/internal/checkout"
	"github.com/nicholas357/E-commerce-fullstack-2.0-sub002/internal/dto"
	"github.com/nicholas357/E-commerce-fullstack-2.0-sub002/internal/model"
	"github.com/nicholas357/E-commerce-fullstack-2.0-sub002/internal/repository"
	"github.com/nicholas357/E-commerce-fullstack-2.0-sub002/internal/service"
	"github.com/nicholas357/E-commerce-fullstack-2.0-sub002/internal/storage"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var buyerShipping = checkout.Shipping{
	FullName: "Ann Buyer",
	Address:  "1 Main Street",
	City:     "Hanoi",
	Country:  "VN",
}

func newBuyer() auth.User {
	return auth.User{ID: uuid.NewString(), Email: "buyer@example.com", Name: "Ann Buyer", Role: model.RoleUser}
}

func proofUpload() *service.FileUpload {
	data := pngOfSize(2048)
	return &service.FileUpload{Filename: "receipt.png", Size: int64(len(data)), Reader: bytes.NewReader(data)}
}

// readyWizard walks the wizard up to the proof step.
func readyWizard(t *testing.T, f *fixture, user auth.User, payment checkout.Payment) *checkout.Wizard {
	t.Helper()
	ctx := context.Background()

	w := checkout.New()
	require.NoError(t, f.checkout.SubmitShipping(ctx, user, w, buyerShipping))
	require.NoError(t, f.checkout.SelectPayment(ctx, user, w, payment))
	return w
}

func TestCheckout_WizardSteps(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	user := newBuyer()
	w := checkout.New()

	_, err := f.checkout.Submit(ctx, user, w, &cart.Cart{}, nil)
	assert.ErrorIs(t, err, checkout.ErrWrongStep)

	var verr *checkout.ValidationError
	err = f.checkout.SubmitShipping(ctx, user, w, checkout.Shipping{FullName: "Ann"})
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "city")
	assert.Equal(t, checkout.StepShipping, w.Step)

	require.NoError(t, f.checkout.SubmitShipping(ctx, user, w, buyerShipping))
	assert.Equal(t, checkout.StepPayment, w.Step)
	assert.Equal(t, user.Email, w.Shipping.Email, "email defaults to the account email")

	require.NoError(t, f.checkout.SelectPayment(ctx, user, w, checkout.Payment{Method: model.PaymentMethodEWallet}))
	assert.Equal(t, checkout.StepProof, w.Step)

	require.NoError(t, f.checkout.Back(w))
	require.NoError(t, f.checkout.Back(w))
	assert.Equal(t, checkout.StepShipping, w.Step)
	assert.Equal(t, buyerShipping.City, w.Shipping.City)
	assert.Equal(t, model.PaymentMethodEWallet, w.Payment.Method)
}

func TestCheckout_SavedAddressAndMethodMustBelongToUser(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	owner, other := newBuyer(), newBuyer()

	addr, err := f.accounts.AddAddress(ctx, owner.ID, dto.AddressInput{
		FullName: "Owner", Address: "5 Side Road", City: "Da Nang", Country: "VN",
	})
	require.NoError(t, err)

	w := checkout.New()
	err = f.checkout.SubmitShipping(ctx, other, w, checkout.Shipping{AddressID: addr.ID})
	assert.ErrorIs(t, err, service.ErrNotFound)

	require.NoError(t, f.checkout.SubmitShipping(ctx, owner, w, checkout.Shipping{AddressID: addr.ID}))
	assert.Equal(t, "Da Nang", w.Shipping.City)

	err = f.checkout.SelectPayment(ctx, owner, w, checkout.Payment{Method: model.PaymentMethodCard, SavedMethodID: uuid.NewString()})
	assert.ErrorIs(t, err, service.ErrNotFound)
	assert.Equal(t, checkout.StepPayment, w.Step)
}

func TestCheckout_SubmitWithProof(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	user := newBuyer()
	p := f.product(t, "Elden Ring", "59.99", 3)

	c := &cart.Cart{}
	require.NoError(t, f.carts.Add(ctx, c, dto.CartLineRequest{ProductID: p.ID, Quantity: 2}))
	w := readyWizard(t, f, user, checkout.Payment{Method: model.PaymentMethodBankTransfer})

	_, err := f.checkout.Submit(ctx, user, w, c, nil)
	assert.ErrorIs(t, err, service.ErrInvalidInput)

	res, err := f.checkout.Submit(ctx, user, w, c, proofUpload())
	require.NoError(t, err)
	assert.True(t, res.ProofUploaded)
	assert.Empty(t, res.Warning)

	order := res.Order
	assert.Equal(t, model.OrderStatusPendingVerification, order.Status)
	assert.True(t, order.HasProof)
	assert.True(t, order.Total.Equal(decimal.RequireFromString("119.98")))
	require.Len(t, order.Items, 1)
	assert.Equal(t, 2, order.Items[0].Quantity)

	assert.Equal(t, 1, f.stock(t, p.ID))
	assert.True(t, c.Empty())
	assert.Equal(t, checkout.StepShipping, w.Step)

	rc, obj, err := f.orders.OpenProof(ctx, user, order.ID)
	require.NoError(t, err)
	defer rc.Close()
	assert.Equal(t, storage.BucketPaymentProofs, obj.Bucket)
}

func TestCheckout_ProofStorageFailureKeepsOrder(t *testing.T) {
	ctx := context.Background()
	store, err := storage.NewLocalStore(t.TempDir(), "http://shop.test")
	require.NoError(t, err)
	f := newFixtureWithStore(t, brokenStore{Store: store})
	user := newBuyer()
	p := f.product(t, "Hades", "24.99", 5)

	c := &cart.Cart{}
	require.NoError(t, f.carts.Add(ctx, c, dto.CartLineRequest{ProductID: p.ID, Quantity: 1}))
	w := readyWizard(t, f, user, checkout.Payment{Method: model.PaymentMethodBankTransfer})

	res, err := f.checkout.Submit(ctx, user, w, c, proofUpload())
	require.NoError(t, err)
	assert.False(t, res.ProofUploaded)
	assert.NotEmpty(t, res.Warning)
	assert.Equal(t, model.OrderStatusAwaitingProof, res.Order.Status)
	assert.Equal(t, 4, f.stock(t, p.ID))
	assert.True(t, c.Empty())
}

func TestCheckout_InvalidProofCreatesNothing(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	user := newBuyer()
	p := f.product(t, "Celeste", "19.99", 5)

	c := &cart.Cart{}
	require.NoError(t, f.carts.Add(ctx, c, dto.CartLineRequest{ProductID: p.ID, Quantity: 1}))
	w := readyWizard(t, f, user, checkout.Payment{Method: model.PaymentMethodBankTransfer})

	data := []byte("not a receipt")
	_, err := f.checkout.Submit(ctx, user, w, c, &service.FileUpload{Filename: "receipt.png", Size: int64(len(data)), Reader: bytes.NewReader(data)})
	assert.ErrorIs(t, err, storage.ErrInvalidFileType)

	_, total, err := f.orderRepo.List(ctx, repository.OrderFilter{UserID: user.ID})
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Equal(t, 5, f.stock(t, p.ID))
	assert.False(t, c.Empty())
}

func TestCheckout_ProductEditKeepsCartLines(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	user := newBuyer()
	cheap := f.product(t, "Tetris", "5.00", 10)

	in := dto.ProductInput{
		Name:       "Starfield",
		Price:      decimal.RequireFromString("59.99"),
		CategoryID: gamesCategoryID,
		Kind:       model.ProductKindGame,
		Stock:      10,
		Editions: []dto.EditionInput{
			{Name: "Standard", Price: decimal.RequireFromString("59.99")},
			{Name: "Deluxe", Price: decimal.RequireFromString("79.99")},
		},
	}
	game, err := f.products.Create(ctx, in)
	require.NoError(t, err)
	deluxe := game.Editions[1].ID
	if game.Editions[0].Name == "Deluxe" {
		deluxe = game.Editions[0].ID
	}

	c := &cart.Cart{}
	require.NoError(t, f.carts.Add(ctx, c, dto.CartLineRequest{ProductID: game.ID, VariantID: deluxe, Quantity: 1}))
	require.NoError(t, f.carts.Add(ctx, c, dto.CartLineRequest{ProductID: cheap.ID, Quantity: 1}))

	in.Description = "now with a photo mode"
	updated, err := f.products.Update(ctx, game.ID, in)
	require.NoError(t, err)
	_, ok := updated.FindVariant(deluxe)
	require.True(t, ok, "an unchanged edition keeps its id")

	t.Run("submit charges every line", func(t *testing.T) {
		w := readyWizard(t, f, user, checkout.Payment{Method: model.PaymentMethodBankTransfer})
		res, err := f.checkout.Submit(ctx, user, w, c, proofUpload())
		require.NoError(t, err)
		require.Len(t, res.Order.Items, 2)
		assert.True(t, res.Order.Total.Equal(decimal.RequireFromString("84.99")))
		assert.True(t, c.Empty())
	})

	t.Run("removed variant blocks submit", func(t *testing.T) {
		c := &cart.Cart{}
		require.NoError(t, f.carts.Add(ctx, c, dto.CartLineRequest{ProductID: game.ID, VariantID: deluxe, Quantity: 1}))
		require.NoError(t, f.carts.Add(ctx, c, dto.CartLineRequest{ProductID: cheap.ID, Quantity: 1}))

		edited := in
		edited.Editions = []dto.EditionInput{{Name: "Standard", Price: decimal.RequireFromString("59.99")}}
		_, err := f.products.Update(ctx, game.ID, edited)
		require.NoError(t, err)

		view, err := f.carts.View(ctx, c)
		require.NoError(t, err)
		require.Len(t, view.Unavailable, 1)
		assert.Equal(t, deluxe, view.Unavailable[0].VariantID)

		w := readyWizard(t, f, user, checkout.Payment{Method: model.PaymentMethodBankTransfer})
		_, err = f.checkout.Submit(ctx, user, w, c, proofUpload())
		assert.ErrorIs(t, err, service.ErrConflict)
		assert.Len(t, c.Lines, 2, "the cart is left for the customer to review")
		assert.Equal(t, 9, f.stock(t, cheap.ID))
	})
}

func TestCheckout_InsufficientStock(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	user := newBuyer()
	plenty := f.product(t, "Tetris", "4.99", 10)
	scarce := f.product(t, "Limited Edition", "99.00", 1)

	c := &cart.Cart{}
	require.NoError(t, f.carts.Add(ctx, c, dto.CartLineRequest{ProductID: plenty.ID, Quantity: 2}))
	require.NoError(t, f.carts.Add(ctx, c, dto.CartLineRequest{ProductID: scarce.ID, Quantity: 2}))
	w := readyWizard(t, f, user, checkout.Payment{Method: model.PaymentMethodBankTransfer})

	_, err := f.checkout.Submit(ctx, user, w, c, proofUpload())
	assert.ErrorIs(t, err, service.ErrInsufficientStock)

	_, total, err := f.orderRepo.List(ctx, repository.OrderFilter{UserID: user.ID})
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Equal(t, 10, f.stock(t, plenty.ID), "reservation is rolled back")
	assert.Equal(t, checkout.StepProof, w.Step)
}

func TestCheckout_Card(t *testing.T) {
	ctx := context.Background()

	t.Run("charged order is paid and granted", func(t *testing.T) {
		f := newFixture(t)
		user := newBuyer()
		p := f.product(t, "Minecraft", "26.95", 5)

		c := &cart.Cart{}
		require.NoError(t, f.carts.Add(ctx, c, dto.CartLineRequest{ProductID: p.ID, Quantity: 2}))
		w := readyWizard(t, f, user, checkout.Payment{Method: model.PaymentMethodCard, Nonce: "fake-valid-nonce"})

		res, err := f.checkout.Submit(ctx, user, w, c, nil)
		require.NoError(t, err)
		assert.Equal(t, model.OrderStatusPaid, res.Order.Status)
		assert.NotEmpty(t, res.Order.PaymentReference)
		require.Len(t, f.gateway.charges, 1)
		assert.True(t, f.gateway.charges[0].Equal(decimal.RequireFromString("53.90")))

		library, err := f.orders.Library(ctx, user.ID)
		require.NoError(t, err)
		require.Len(t, library, 1)
		assert.Equal(t, p.ID, library[0].ProductID)
		assert.Equal(t, 2, library[0].Quantity)
	})

	t.Run("saved method is charged", func(t *testing.T) {
		f := newFixture(t)
		user := newBuyer()
		p := f.product(t, "Stardew Valley", "14.99", 5)

		profile, err := f.users.CreateProfile(ctx, dto.CreateProfileRequest{ID: user.ID, Email: user.Email})
		require.NoError(t, err)
		method, err := f.accounts.AddPaymentMethod(ctx, profile, dto.AddPaymentMethodRequest{Nonce: "n1"})
		require.NoError(t, err)

		c := &cart.Cart{}
		require.NoError(t, f.carts.Add(ctx, c, dto.CartLineRequest{ProductID: p.ID, Quantity: 1}))
		w := readyWizard(t, f, user, checkout.Payment{Method: model.PaymentMethodCard, SavedMethodID: method.ID})

		res, err := f.checkout.Submit(ctx, user, w, c, nil)
		require.NoError(t, err)
		assert.Equal(t, model.OrderStatusPaid, res.Order.Status)
	})

	t.Run("declined charge releases stock", func(t *testing.T) {
		f := newFixture(t)
		f.gateway.decline = true
		user := newBuyer()
		p := f.product(t, "Factorio", "35.00", 4)

		c := &cart.Cart{}
		require.NoError(t, f.carts.Add(ctx, c, dto.CartLineRequest{ProductID: p.ID, Quantity: 3}))
		w := readyWizard(t, f, user, checkout.Payment{Method: model.PaymentMethodCard, Nonce: "fake-processor-declined"})

		_, err := f.checkout.Submit(ctx, user, w, c, nil)
		assert.ErrorIs(t, err, service.ErrPaymentFailed)
		assert.Equal(t, 4, f.stock(t, p.ID))
		assert.False(t, c.Empty(), "cart is kept for another attempt")

		orders, _, err := f.orderRepo.List(ctx, repository.OrderFilter{UserID: user.ID})
		require.NoError(t, err)
		require.Len(t, orders, 1)
		assert.Equal(t, model.OrderStatusCancelled, orders[0].Status)
	})
}

func TestCheckout_EmptyCart(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	user := newBuyer()
	w := readyWizard(t, f, user, checkout.Payment{Method: model.PaymentMethodEWallet})

	_, err := f.checkout.Submit(ctx, user, w, &cart.Cart{}, proofUpload())
	assert.ErrorIs(t, err, service.ErrInvalidInput)
}
