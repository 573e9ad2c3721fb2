package service_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sort"
	"sync"
	"testing"

	"github.com/nicholas357/E-commerce-fullstack-2.0-sub002/internal/client"
	"github.com/nicholas357/E-commerce-fullstack-2.0-sub002/internal/model"
	"github.com/nicholas357/E-commerce-fullstack-2.0-sub002/internal/pkg/testdb"
	"github.com/nicholas357/E-commerce-fullstack-2.0-sub002/internal/repository"
	"github.com/nicholas357/E-commerce-fullstack-2.0-sub002/internal/service"
	"github.com/nicholas357/E-commerce-fullstack-2.0-sub002/internal/storage"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const gamesCategoryID = "00000000-0000-0000-0000-000000000001"

type fixture struct {
	db       *gorm.DB
	store    storage.Store
	uploader *storage.Uploader
	gateway  *fakeBraintree
	logger   *slog.Logger

	productRepo repository.ProductRepository
	orderRepo   repository.OrderRepository
	libraryRepo repository.LibraryRepository

	products   service.ProductService
	categories service.CategoryService
	carts      service.CartService
	checkout   service.CheckoutService
	orders     service.OrderService
	users      service.UserService
	accounts   service.AccountService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	store, err := storage.NewLocalStore(t.TempDir(), "http://shop.test")
	require.NoError(t, err)
	return newFixtureWithStore(t, store)
}

func newFixtureWithStore(t *testing.T, store storage.Store) *fixture {
	t.Helper()

	db := testdb.Open(t)
	f := &fixture{
		db:       db,
		store:    store,
		uploader: storage.NewUploader(store),
		gateway:  &fakeBraintree{},
		logger:   slog.New(slog.DiscardHandler),

		productRepo: repository.NewProductRepository(db),
		orderRepo:   repository.NewOrderRepository(db),
		libraryRepo: repository.NewLibraryRepository(db),
	}

	categoryRepo := repository.NewCategoryRepository(db)
	addressRepo := repository.NewAddressRepository(db)
	paymentMethodRepo := repository.NewPaymentMethodRepository(db)

	f.products = service.NewProductService(f.productRepo, categoryRepo, f.uploader, f.logger)
	f.categories = service.NewCategoryService(categoryRepo, f.productRepo)
	f.carts = service.NewCartService(f.productRepo)
	f.checkout = service.NewCheckoutService(db, f.gateway, f.productRepo, f.orderRepo, f.libraryRepo, addressRepo, paymentMethodRepo, f.uploader, f.logger)
	f.orders = service.NewOrderService(db, f.orderRepo, f.productRepo, f.libraryRepo, f.uploader, f.logger)
	f.users = service.NewUserService(repository.NewProfileRepository(db), f.uploader, []string{"Owner@Shop.test"}, f.logger)
	f.accounts = service.NewAccountService(addressRepo, paymentMethodRepo, f.gateway, f.logger)
	return f
}

// product stores a game in the seeded Games category.
func (f *fixture) product(t *testing.T, name, price string, stock int) *model.Product {
	t.Helper()

	p := &model.Product{
		ID:         uuid.NewString(),
		Name:       name,
		Slug:       uuid.NewString(),
		Price:      decimal.RequireFromString(price),
		Currency:   "USD",
		CategoryID: gamesCategoryID,
		Kind:       model.ProductKindGame,
		Stock:      stock,
		IsDigital:  true,
	}
	require.NoError(t, f.productRepo.Create(context.Background(), p))
	return p
}

func (f *fixture) stock(t *testing.T, productID string) int {
	t.Helper()

	p, err := f.productRepo.FindByID(context.Background(), productID)
	require.NoError(t, err)
	return p.Stock
}

func pngOfSize(n int) []byte {
	data := make([]byte, n)
	copy(data, []byte("\x89PNG\r\n\x1a\n"))
	return data
}

type fakeBraintree struct {
	mu      sync.Mutex
	decline bool
	charges []decimal.Decimal
	vaulted []string
	deleted []string
}

var _ client.BraintreeClient = (*fakeBraintree)(nil)

func (f *fakeBraintree) VaultPaymentMethod(_ context.Context, nonce, _, _ string) (*client.VaultedCard, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.decline {
		return nil, errors.New("processor declined")
	}
	token := "tok-" + nonce
	f.vaulted = append(f.vaulted, token)
	return &client.VaultedCard{Token: token, Label: "Visa •••• 1111"}, nil
}

func (f *fakeBraintree) ChargeOneTime(_ context.Context, _ string, amount decimal.Decimal) (string, error) {
	return f.charge(amount)
}

func (f *fakeBraintree) ChargeNonce(_ context.Context, _ string, amount decimal.Decimal) (string, error) {
	return f.charge(amount)
}

func (f *fakeBraintree) charge(amount decimal.Decimal) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.decline {
		return "", errors.New("transaction declined by processor: Do Not Honor")
	}
	f.charges = append(f.charges, amount)
	return "txn-" + uuid.NewString()[:8], nil
}

func (f *fakeBraintree) DeletePaymentMethod(_ context.Context, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, token)
	return nil
}

// brokenStore accepts reads and deletes but fails every write.
type brokenStore struct {
	storage.Store
}

func (brokenStore) Put(context.Context, storage.Bucket, string, string, io.Reader) (*storage.Object, error) {
	return nil, errors.New("bucket unavailable")
}

type memoryReviews struct {
	mu      sync.Mutex
	reviews map[string]*model.Review
}

var _ repository.ReviewRepository = (*memoryReviews)(nil)

func newMemoryReviews() *memoryReviews {
	return &memoryReviews{reviews: map[string]*model.Review{}}
}

func (m *memoryReviews) Create(_ context.Context, review *model.Review) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.reviews[review.ID]; ok {
		return repository.ErrDuplicate
	}
	cp := *review
	m.reviews[review.ID] = &cp
	return nil
}

func (m *memoryReviews) ListByProduct(_ context.Context, productID string, approvedOnly bool) ([]*model.Review, error) {
	return m.filter(func(r *model.Review) bool {
		return r.ProductID == productID && (!approvedOnly || r.Approved)
	}, true), nil
}

func (m *memoryReviews) ListPending(_ context.Context, limit int) ([]*model.Review, error) {
	out := m.filter(func(r *model.Review) bool { return !r.Approved }, false)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memoryReviews) filter(keep func(*model.Review) bool, newestFirst bool) []*model.Review {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := []*model.Review{}
	for _, r := range m.reviews {
		if keep(r) {
			cp := *r
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if newestFirst {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

func (m *memoryReviews) Approve(_ context.Context, reviewID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.reviews[reviewID]
	if !ok {
		return repository.ErrNotFound
	}
	r.Approved = true
	return nil
}

func (m *memoryReviews) Delete(_ context.Context, reviewID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.reviews[reviewID]; !ok {
		return repository.ErrNotFound
	}
	delete(m.reviews, reviewID)
	return nil
}

func (m *memoryReviews) AverageRating(ctx context.Context, productID string) (float64, int64, error) {
	approved, _ := m.ListByProduct(ctx, productID, true)
	if len(approved) == 0 {
		return 0, 0, nil
	}
	sum := 0
	for _, r := range approved {
		sum += r.Rating
	}
	return float64(sum) / float64(len(approved)), int64(len(approved)), nil
}
