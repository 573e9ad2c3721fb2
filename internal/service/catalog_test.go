package service_test

import (
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/nicholas357/E-commerce-fullstack-2.0-sub002/internal/dto"
	"github.com/nicholas357/E-commerce-fullstack-2.0-sub002/internal/model"
	"github.com/nicholas357/E-commerce-fullstack-2.0-sub002/internal/repository"
	"github.com/nicholas357/E-commerce-fullstack-2.0-sub002/internal/service"
	"github.com/nicholas357/E-commerce-fullstack-2.0-sub002/internal/storage"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func gameInput(name, price string, featured bool) dto.ProductInput {
	return dto.ProductInput{
		Name:       name,
		Price:      decimal.RequireFromString(price),
		CategoryID: gamesCategoryID,
		Kind:       model.ProductKindGame,
		Stock:      3,
		Featured:   featured,
		IsDigital:  true,
	}
}

func TestProductService_CreateAndLookup(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	in := gameInput("The Witcher 3: Wild Hunt", "29.99", false)
	in.Editions = []dto.EditionInput{
		{Name: "Standard", Price: decimal.RequireFromString("29.99")},
		{Name: "Complete", Price: decimal.RequireFromString("49.99")},
	}
	p, err := f.products.Create(ctx, in)
	require.NoError(t, err)
	assert.Equal(t, "the-witcher-3-wild-hunt", p.Slug)
	assert.Equal(t, "USD", p.Currency)
	assert.True(t, p.IsDigital)
	require.Len(t, p.Editions, 2)

	bySlug, err := f.products.Lookup(ctx, p.Slug)
	require.NoError(t, err)
	byID, err := f.products.Lookup(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, bySlug.ID, byID.ID)

	_, err = f.products.Create(ctx, in)
	assert.ErrorIs(t, err, service.ErrDuplicate)

	bad := gameInput("Free", "0", false)
	_, err = f.products.Create(ctx, bad)
	assert.ErrorIs(t, err, service.ErrInvalidInput)
}

func TestProductService_FeaturedIsStable(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	for _, name := range []string{"a", "b", "c", "d", "e"} {
		_, err := f.products.Create(ctx, gameInput("featured "+name, "10.00", name != "c"))
		require.NoError(t, err)
	}

	first, err := f.products.Featured(ctx, 10)
	require.NoError(t, err)
	require.Len(t, first, 4)
	for _, p := range first {
		assert.True(t, p.Featured)
	}

	second, err := f.products.Featured(ctx, 10)
	require.NoError(t, err)
	for i := range first {
		assert.Equal(t, first[i].ID, second[i].ID)
	}
}

func TestProductService_UploadImage(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	p, err := f.products.Create(ctx, gameInput("Cuphead", "19.99", false))
	require.NoError(t, err)

	img := pngOfSize(2 << 20)
	got, err := f.products.UploadImage(ctx, p.ID, "cover.png", int64(len(img)), bytes.NewReader(img))
	require.NoError(t, err)
	assert.Contains(t, got.ImageURL, "http://shop.test/files/product-images/products/")

	rc, _, err := f.store.Open(ctx, storage.BucketProductImages, got.ImageKey)
	require.NoError(t, err)
	data, err := io.ReadAll(rc)
	rc.Close()
	require.NoError(t, err)
	assert.Len(t, data, len(img))

	bmp := append([]byte("BM"), make([]byte, 512)...)
	_, err = f.products.UploadImage(ctx, p.ID, "cover.bmp", int64(len(bmp)), bytes.NewReader(bmp))
	assert.ErrorIs(t, err, storage.ErrInvalidFileType)

	require.NoError(t, f.products.Delete(ctx, p.ID))
	_, _, err = f.store.Open(ctx, storage.BucketProductImages, got.ImageKey)
	assert.ErrorIs(t, err, storage.ErrObjectNotFound)
}

func TestCategoryService_Delete(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	parentID := gamesCategoryID
	sub, err := f.categories.Create(ctx, dto.CategoryInput{Name: "RPG", ParentID: &parentID})
	require.NoError(t, err)
	assert.True(t, sub.ShowInNavbar)

	t.Run("parent with children is refused", func(t *testing.T) {
		err := f.categories.Delete(ctx, gamesCategoryID)
		assert.ErrorIs(t, err, service.ErrForbidden)
	})

	t.Run("category with products is refused", func(t *testing.T) {
		in := gameInput("Baldur's Gate 3", "59.99", false)
		in.CategoryID = sub.ID
		p, err := f.products.Create(ctx, in)
		require.NoError(t, err)

		err = f.categories.Delete(ctx, sub.ID)
		assert.ErrorIs(t, err, service.ErrConflict)

		require.NoError(t, f.products.Delete(ctx, p.ID))
	})

	t.Run("empty subcategory is removed", func(t *testing.T) {
		require.NoError(t, f.categories.Delete(ctx, sub.ID))
		_, err := f.categories.Get(ctx, sub.ID)
		assert.ErrorIs(t, err, service.ErrNotFound)
	})
}

func TestCategoryService_TreeAndFixedParents(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	parentID := gamesCategoryID
	hidden := false
	_, err := f.categories.Create(ctx, dto.CategoryInput{Name: "Indie", ParentID: &parentID})
	require.NoError(t, err)
	_, err = f.categories.Create(ctx, dto.CategoryInput{Name: "Retro", ParentID: &parentID, ShowInNavbar: &hidden})
	require.NoError(t, err)

	_, err = f.categories.Create(ctx, dto.CategoryInput{Name: "Top level"})
	assert.ErrorIs(t, err, service.ErrInvalidInput)

	tree, err := f.categories.Tree(ctx)
	require.NoError(t, err)
	require.Len(t, tree, 4)
	assert.Equal(t, "games", tree[0].Slug)
	assert.Len(t, tree[0].Children, 2)

	nav, err := f.categories.Navbar(ctx)
	require.NoError(t, err)
	assert.Len(t, nav[0].Children, 1)

	_, err = f.categories.Update(ctx, gamesCategoryID, dto.CategoryInput{Name: "Videogames"})
	assert.ErrorIs(t, err, service.ErrForbidden)

	order := 9
	got, err := f.categories.Update(ctx, gamesCategoryID, dto.CategoryInput{DisplayOrder: &order})
	require.NoError(t, err)
	assert.Equal(t, 9, got.DisplayOrder)
}

func TestGiftCardAndBannerServices(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	cards := service.NewGiftCardService(repository.NewGiftCardRepository(f.db), f.uploader, f.logger)
	banners := service.NewBannerService(repository.NewBannerRepository(f.db), f.uploader, f.logger)

	inactive := false
	card, err := cards.Create(ctx, dto.GiftCardInput{
		Name:          "Steam Wallet",
		Denominations: []decimal.Decimal{decimal.NewFromInt(50), decimal.NewFromInt(10), decimal.NewFromInt(50)},
		Active:        &inactive,
	})
	require.NoError(t, err)
	assert.False(t, card.Active)
	require.Len(t, card.Denominations, 2)
	assert.True(t, card.Denominations[0].Equal(decimal.NewFromInt(10)))

	_, err = cards.GetBySlug(ctx, "steam-wallet")
	assert.ErrorIs(t, err, service.ErrNotFound)
	active, err := cards.ListActive(ctx)
	require.NoError(t, err)
	assert.Empty(t, active)

	_, err = cards.SetActive(ctx, card.ID, true)
	require.NoError(t, err)
	got, err := cards.GetBySlug(ctx, "steam-wallet")
	require.NoError(t, err)
	assert.True(t, got.Active)

	_, err = cards.Create(ctx, dto.GiftCardInput{Name: "Broken", Denominations: []decimal.Decimal{decimal.Zero}})
	assert.ErrorIs(t, err, service.ErrInvalidInput)

	first, err := banners.Create(ctx, dto.BannerInput{Title: "Summer sale"})
	require.NoError(t, err)
	second, err := banners.Create(ctx, dto.BannerInput{Title: "New releases"})
	require.NoError(t, err)
	assert.Equal(t, 0, first.DisplayOrder)
	assert.Equal(t, 1, second.DisplayOrder)

	require.NoError(t, banners.Reorder(ctx, []string{second.ID, first.ID}))
	list, err := banners.ListActive(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, second.ID, list[0].ID)
}
