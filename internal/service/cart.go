package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/nicholas357/E-commerce-fullstack-2.0-sub002/internal/cart"
	"github.com/nicholas357/E-commerce-fullstack-2.0-sub002/internal/dto"
	"github.com/nicholas357/E-commerce-fullstack-2.0-sub002/internal/model"
	"github.com/nicholas357/E-commerce-fullstack-2.0-sub002/internal/repository"

	"github.com/shopspring/decimal"
)

// CartService prices the cookie-held cart and wishlist against the catalog.
// It never stores them; the caller persists the mutated values.
type CartService interface {
	View(ctx context.Context, c *cart.Cart) (*dto.CartView, error)
	Add(ctx context.Context, c *cart.Cart, line dto.CartLineRequest) error
	Update(ctx context.Context, c *cart.Cart, line dto.CartLineRequest) error

	Wishlist(ctx context.Context, wl *cart.Wishlist) (*dto.WishlistView, error)
	AddToWishlist(ctx context.Context, wl *cart.Wishlist, productID string) (string, error)
}

type cartServiceImpl struct {
	productRepo repository.ProductRepository
}

func NewCartService(productRepo repository.ProductRepository) CartService {
	return &cartServiceImpl{
		productRepo: productRepo,
	}
}

type pricedLine struct {
	product *model.Product
	variant model.Variant
	line    cart.Line
}

func (p pricedLine) unitPrice() decimal.Decimal {
	if p.variant.ID != "" {
		return p.variant.Price
	}
	return p.product.Price
}

func (p pricedLine) total() decimal.Decimal {
	return p.unitPrice().Mul(decimal.NewFromInt(int64(p.line.Quantity)))
}

// priceLines resolves every cart line. Lines whose product or variant no longer
// exists come back separately so callers can surface them.
func priceLines(ctx context.Context, productRepo repository.ProductRepository, c *cart.Cart) ([]pricedLine, []cart.Line, error) {
	if c.Empty() {
		return nil, nil, nil
	}

	products, err := productRepo.FindMany(ctx, c.ProductIDs())
	if err != nil {
		return nil, nil, fmt.Errorf("get cart products: %w", err)
	}
	byID := make(map[string]*model.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	lines := make([]pricedLine, 0, len(c.Lines))
	var stale []cart.Line
	for _, l := range c.Lines {
		p, ok := byID[l.ProductID]
		if !ok {
			stale = append(stale, l)
			continue
		}
		pl := pricedLine{product: p, line: l}
		if l.VariantID != "" {
			v, ok := p.FindVariant(l.VariantID)
			if !ok {
				stale = append(stale, l)
				continue
			}
			pl.variant = v
		}
		lines = append(lines, pl)
	}
	return lines, stale, nil
}

func cartView(lines []pricedLine, stale []cart.Line) *dto.CartView {
	view := &dto.CartView{
		Lines:    make([]dto.CartLineView, 0, len(lines)),
		Subtotal: decimal.Zero,
		Currency: defaultCurrency,
	}
	for i, pl := range lines {
		if i == 0 {
			view.Currency = pl.product.Currency
		}
		view.Lines = append(view.Lines, dto.CartLineView{
			ProductID:    pl.product.ID,
			VariantID:    pl.variant.ID,
			Name:         pl.product.Name,
			VariantLabel: pl.variant.Label,
			ImageURL:     pl.product.ImageURL,
			UnitPrice:    pl.unitPrice(),
			Quantity:     pl.line.Quantity,
			LineTotal:    pl.total(),
			InStock:      pl.product.Stock >= pl.line.Quantity,
		})
		view.Count += pl.line.Quantity
		view.Subtotal = view.Subtotal.Add(pl.total())
	}
	for _, l := range stale {
		view.Unavailable = append(view.Unavailable, dto.CartLineRequest{
			ProductID: l.ProductID,
			VariantID: l.VariantID,
			Quantity:  l.Quantity,
		})
	}
	return view
}

func (s *cartServiceImpl) View(ctx context.Context, c *cart.Cart) (*dto.CartView, error) {
	lines, stale, err := priceLines(ctx, s.productRepo, c)
	if err != nil {
		return nil, err
	}
	return cartView(lines, stale), nil
}

func (s *cartServiceImpl) checkLine(ctx context.Context, line dto.CartLineRequest) error {
	if line.ProductID == "" {
		return invalid("product_id is required")
	}
	p, err := s.productRepo.FindByID(ctx, line.ProductID)
	if err != nil {
		return fmt.Errorf("find product: %w", err)
	}
	if line.VariantID != "" {
		if _, ok := p.FindVariant(line.VariantID); !ok {
			return fmt.Errorf("find variant: %w", ErrNotFound)
		}
	}
	return nil
}

func cartError(err error) error {
	switch {
	case errors.Is(err, cart.ErrInvalidQuantity), errors.Is(err, cart.ErrCartFull), errors.Is(err, cart.ErrWishlistFull):
		return fmt.Errorf("%w: %s", ErrInvalidInput, err.Error())
	case errors.Is(err, cart.ErrLineNotFound):
		return fmt.Errorf("cart line: %w", ErrNotFound)
	}
	return err
}

func (s *cartServiceImpl) Add(ctx context.Context, c *cart.Cart, line dto.CartLineRequest) error {
	if line.Quantity == 0 {
		line.Quantity = 1
	}
	if err := s.checkLine(ctx, line); err != nil {
		return err
	}
	return cartError(c.Add(line.ProductID, line.VariantID, line.Quantity))
}

func (s *cartServiceImpl) Update(ctx context.Context, c *cart.Cart, line dto.CartLineRequest) error {
	return cartError(c.Update(line.ProductID, line.VariantID, line.Quantity))
}

func (s *cartServiceImpl) Wishlist(ctx context.Context, wl *cart.Wishlist) (*dto.WishlistView, error) {
	view := &dto.WishlistView{Items: []*model.Product{}}
	if len(wl.ProductIDs) == 0 {
		return view, nil
	}

	products, err := s.productRepo.FindMany(ctx, wl.ProductIDs)
	if err != nil {
		return nil, fmt.Errorf("get wishlist products: %w", err)
	}
	byID := make(map[string]*model.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	// keep the order in which items were added
	for _, id := range wl.ProductIDs {
		if p, ok := byID[id]; ok {
			view.Items = append(view.Items, p)
		}
	}
	return view, nil
}

func (s *cartServiceImpl) AddToWishlist(ctx context.Context, wl *cart.Wishlist, productID string) (string, error) {
	if productID == "" {
		return "", invalid("product_id is required")
	}
	if _, err := s.productRepo.FindByID(ctx, productID); err != nil {
		return "", fmt.Errorf("find product: %w", err)
	}

	_, notice, err := wl.Add(productID)
	if err != nil {
		return "", cartError(err)
	}
	return notice, nil
}
