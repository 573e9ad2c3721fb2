package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/nicholas357/E-commerce-fullstack-2.0-sub002/internal/dto"
	"github.com/nicholas357/E-commerce-fullstack-2.0-sub002/internal/model"
	"github.com/nicholas357/E-commerce-fullstack-2.0-sub002/internal/repository"
	"github.com/nicholas357/E-commerce-fullstack-2.0-sub002/internal/storage"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	defaultPageSize = 24
	maxPageSize     = 100
	defaultCurrency = "USD"
)

type ProductService interface {
	List(ctx context.Context, q dto.ProductQuery) (*dto.Page[*model.Product], error)
	Featured(ctx context.Context, limit int) ([]*model.Product, error)
	NewArrivals(ctx context.Context, limit int) ([]*model.Product, error)
	Get(ctx context.Context, id string) (*model.Product, error)
	// Lookup resolves a slug, falling back to an id.
	Lookup(ctx context.Context, ref string) (*model.Product, error)

	Create(ctx context.Context, in dto.ProductInput) (*model.Product, error)
	Update(ctx context.Context, id string, in dto.ProductInput) (*model.Product, error)
	Delete(ctx context.Context, id string) error
	UploadImage(ctx context.Context, id, filename string, size int64, r io.Reader) (*model.Product, error)
	AdjustStock(ctx context.Context, id string, delta int) (*model.Product, error)
}

type productServiceImpl struct {
	productRepo  repository.ProductRepository
	categoryRepo repository.CategoryRepository
	uploader     *storage.Uploader
	logger       *slog.Logger
}

func NewProductService(
	productRepo repository.ProductRepository,
	categoryRepo repository.CategoryRepository,
	uploader *storage.Uploader,
	logger *slog.Logger,
) ProductService {
	return &productServiceImpl{
		productRepo:  productRepo,
		categoryRepo: categoryRepo,
		uploader:     uploader,
		logger:       logger,
	}
}

func pageBounds(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

func (s *productServiceImpl) List(ctx context.Context, q dto.ProductQuery) (*dto.Page[*model.Product], error) {
	limit, offset := pageBounds(q.Limit, q.Offset)

	filter := repository.ProductFilter{
		Kind:     q.Kind,
		Featured: q.Featured,
		IsNew:    q.IsNew,
		Search:   strings.TrimSpace(q.Search),
		MinPrice: q.MinPrice,
		MaxPrice: q.MaxPrice,
		Sort:     repository.ProductSort(q.Sort),
		Limit:    limit,
		Offset:   offset,
	}

	if q.Category != "" {
		ids, err := s.categoryScope(ctx, q.Category)
		if err != nil {
			return nil, err
		}
		filter.CategoryIDs = ids
	}

	products, total, err := s.productRepo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}

	return &dto.Page[*model.Product]{
		Items:  products,
		Total:  total,
		Limit:  limit,
		Offset: offset,
	}, nil
}

// categoryScope returns the category with that slug and its direct children.
func (s *productServiceImpl) categoryScope(ctx context.Context, slug string) ([]string, error) {
	category, err := s.categoryRepo.FindOneBy(ctx, "slug", slug)
	if err != nil {
		return nil, fmt.Errorf("find category %q: %w", slug, err)
	}

	all, err := s.categoryRepo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}

	ids := []string{category.ID}
	for _, c := range all {
		if c.ParentID != nil && *c.ParentID == category.ID {
			ids = append(ids, c.ID)
		}
	}
	return ids, nil
}

func (s *productServiceImpl) flagged(ctx context.Context, filter repository.ProductFilter, limit int) ([]*model.Product, error) {
	filter.Limit, _ = pageBounds(limit, 0)
	filter.Sort = repository.SortNewest

	products, _, err := s.productRepo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return products, nil
}

// Featured returns only featured products, newest first with id as tiebreak.
func (s *productServiceImpl) Featured(ctx context.Context, limit int) ([]*model.Product, error) {
	featured := true
	return s.flagged(ctx, repository.ProductFilter{Featured: &featured}, limit)
}

func (s *productServiceImpl) NewArrivals(ctx context.Context, limit int) ([]*model.Product, error) {
	isNew := true
	return s.flagged(ctx, repository.ProductFilter{IsNew: &isNew}, limit)
}

func (s *productServiceImpl) Get(ctx context.Context, id string) (*model.Product, error) {
	product, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("find product: %w", err)
	}
	return product, nil
}

func (s *productServiceImpl) Lookup(ctx context.Context, ref string) (*model.Product, error) {
	product, err := s.productRepo.FindOneBy(ctx, "slug", ref)
	if errors.Is(err, repository.ErrNotFound) {
		return s.Get(ctx, ref)
	}
	if err != nil {
		return nil, fmt.Errorf("find product: %w", err)
	}
	return product, nil
}

func (s *productServiceImpl) validate(ctx context.Context, in *dto.ProductInput) error {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return invalid("name is required")
	}
	if !in.Price.IsPositive() {
		return invalid("price must be greater than zero")
	}
	if in.Stock < 0 {
		return invalid("stock cannot be negative")
	}

	in.Currency = strings.ToUpper(strings.TrimSpace(in.Currency))
	if in.Currency == "" {
		in.Currency = defaultCurrency
	}
	if len(in.Currency) != 3 {
		return invalid("currency must be a 3-letter code")
	}

	if in.Kind == "" {
		in.Kind = model.ProductKindOther
	}
	if !in.Kind.Valid() {
		return invalid("unknown product kind %q", in.Kind)
	}

	in.Slug = slugify(in.Slug)
	if in.Slug == "" {
		in.Slug = slugify(in.Name)
	}
	if in.Slug == "" {
		return invalid("slug cannot be derived from name")
	}

	if in.CategoryID == "" {
		return invalid("category_id is required")
	}
	if _, err := s.categoryRepo.FindByID(ctx, in.CategoryID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return invalid("category %s does not exist", in.CategoryID)
		}
		return fmt.Errorf("find category: %w", err)
	}

	prices := []decimal.Decimal{}
	for _, d := range in.Denominations {
		if !d.Value.IsPositive() {
			return invalid("denomination value must be greater than zero")
		}
		prices = append(prices, d.Price)
	}
	for _, e := range in.Editions {
		if strings.TrimSpace(e.Name) == "" {
			return invalid("edition name is required")
		}
		prices = append(prices, e.Price)
	}
	for _, l := range in.LicenseTypes {
		if strings.TrimSpace(l.Name) == "" || l.Devices < 0 || l.DurationDays < 0 {
			return invalid("license type needs a name and non-negative devices and duration")
		}
		prices = append(prices, l.Price)
	}
	for _, p := range in.StreamingPlans {
		if strings.TrimSpace(p.Name) == "" || p.DurationMonths <= 0 {
			return invalid("streaming plan needs a name and a positive duration")
		}
		prices = append(prices, p.Price)
	}
	for _, p := range prices {
		if !p.IsPositive() {
			return invalid("variant price must be greater than zero")
		}
	}

	return nil
}

// variantIDs hands out sub-record ids so unchanged variants keep the id that
// carts and orders refer to. An explicit id wins, then a matching natural key.
type variantIDs struct {
	known map[string]bool
	byKey map[string]string
	used  map[string]bool
}

func newVariantIDs() *variantIDs {
	return &variantIDs{
		known: map[string]bool{},
		byKey: map[string]string{},
		used:  map[string]bool{},
	}
}

func (v *variantIDs) add(kind, key, id string) {
	v.known[kind+":"+id] = true
	v.byKey[kind+":"+key] = id
}

func (v *variantIDs) pick(kind, key, requested string) string {
	var id string
	match := v.byKey[kind+":"+key]
	switch {
	case requested != "" && v.known[kind+":"+requested] && !v.used[requested]:
		id = requested
	case match != "" && !v.used[match]:
		id = match
	default:
		id = uuid.NewString()
	}
	v.used[id] = true
	return id
}

func variantKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

func existingVariantIDs(p *model.Product) *variantIDs {
	ids := newVariantIDs()
	for _, d := range p.Denominations {
		ids.add("denomination", d.Value.String(), d.ID)
	}
	for _, e := range p.Editions {
		ids.add("edition", variantKey(e.Name), e.ID)
	}
	for _, l := range p.LicenseTypes {
		ids.add("license", variantKey(l.Name), l.ID)
	}
	for _, sp := range p.StreamingPlans {
		ids.add("plan", variantKey(sp.Name), sp.ID)
	}
	return ids
}

func applyProductInput(p *model.Product, in dto.ProductInput) {
	ids := existingVariantIDs(p)

	p.Name = in.Name
	p.Slug = in.Slug
	p.Description = in.Description
	p.Price = in.Price
	p.Currency = in.Currency
	p.CategoryID = in.CategoryID
	p.Kind = in.Kind
	p.Stock = in.Stock
	p.Featured = in.Featured
	p.IsNew = in.IsNew
	p.IsDigital = in.IsDigital
	p.IsSubscription = in.IsSubscription
	p.IsGiftCard = in.IsGiftCard

	p.Denominations = make([]model.Denomination, len(in.Denominations))
	for i, d := range in.Denominations {
		id := ids.pick("denomination", d.Value.String(), d.ID)
		p.Denominations[i] = model.Denomination{ID: id, ProductID: p.ID, Value: d.Value, Price: d.Price}
	}
	p.Editions = make([]model.Edition, len(in.Editions))
	for i, e := range in.Editions {
		id := ids.pick("edition", variantKey(e.Name), e.ID)
		p.Editions[i] = model.Edition{ID: id, ProductID: p.ID, Name: strings.TrimSpace(e.Name), Description: e.Description, Price: e.Price}
	}
	p.LicenseTypes = make([]model.LicenseType, len(in.LicenseTypes))
	for i, l := range in.LicenseTypes {
		devices := l.Devices
		if devices == 0 {
			devices = 1
		}
		id := ids.pick("license", variantKey(l.Name), l.ID)
		p.LicenseTypes[i] = model.LicenseType{ID: id, ProductID: p.ID, Name: strings.TrimSpace(l.Name), Devices: devices, DurationDays: l.DurationDays, Price: l.Price}
	}
	p.StreamingPlans = make([]model.StreamingPlan, len(in.StreamingPlans))
	for i, sp := range in.StreamingPlans {
		id := ids.pick("plan", variantKey(sp.Name), sp.ID)
		p.StreamingPlans[i] = model.StreamingPlan{ID: id, ProductID: p.ID, Name: strings.TrimSpace(sp.Name), DurationMonths: sp.DurationMonths, Price: sp.Price}
	}
}

func (s *productServiceImpl) Create(ctx context.Context, in dto.ProductInput) (*model.Product, error) {
	if err := s.validate(ctx, &in); err != nil {
		return nil, err
	}

	product := &model.Product{ID: uuid.NewString()}
	applyProductInput(product, in)

	if err := s.productRepo.Create(ctx, product); err != nil {
		return nil, fmt.Errorf("create product: %w", err)
	}
	return s.Get(ctx, product.ID)
}

// Update replaces the product fields and all of its sub-records. Variants that
// survive the edit keep their ids.
func (s *productServiceImpl) Update(ctx context.Context, id string, in dto.ProductInput) (*model.Product, error) {
	product, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.validate(ctx, &in); err != nil {
		return nil, err
	}

	applyProductInput(product, in)
	if err := s.productRepo.SaveWithVariants(ctx, product); err != nil {
		return nil, fmt.Errorf("save product: %w", err)
	}

	return s.Get(ctx, id)
}

func (s *productServiceImpl) Delete(ctx context.Context, id string) error {
	product, err := s.Get(ctx, id)
	if err != nil {
		return err
	}

	if err := s.productRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete product: %w", err)
	}

	s.removeObject(ctx, storage.BucketProductImages, product.ImageKey)
	return nil
}

func (s *productServiceImpl) UploadImage(ctx context.Context, id, filename string, size int64, r io.Reader) (*model.Product, error) {
	product, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	obj, err := s.uploader.Upload(ctx, storage.BucketProductImages, "products", storage.ImageRule, filename, size, r)
	if err != nil {
		return nil, err
	}

	oldKey := product.ImageKey
	product.ImageURL = obj.URL
	product.ImageKey = obj.Key
	if err := s.productRepo.Save(ctx, product); err != nil {
		s.removeObject(ctx, storage.BucketProductImages, obj.Key)
		return nil, fmt.Errorf("save product image: %w", err)
	}

	s.removeObject(ctx, storage.BucketProductImages, oldKey)
	return product, nil
}

func (s *productServiceImpl) AdjustStock(ctx context.Context, id string, delta int) (*model.Product, error) {
	if err := s.productRepo.AdjustStock(ctx, nil, id, delta); err != nil {
		return nil, fmt.Errorf("adjust stock: %w", err)
	}
	return s.Get(ctx, id)
}

// removeObject deletes a replaced or orphaned upload; failures are only logged.
func (s *productServiceImpl) removeObject(ctx context.Context, bucket storage.Bucket, key string) {
	removeObject(ctx, s.uploader, s.logger, bucket, key)
}

func removeObject(ctx context.Context, uploader *storage.Uploader, logger *slog.Logger, bucket storage.Bucket, key string) {
	if key == "" {
		return
	}
	err := uploader.Store().Delete(ctx, bucket, key)
	if err != nil && !errors.Is(err, storage.ErrObjectNotFound) {
		logger.Warn("delete stored object", "bucket", bucket, "key", key, "error", err)
	}
}
