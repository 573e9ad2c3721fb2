package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/nicholas357/E-commerce-fullstack-2.0-sub002/internal/dto"
	"github.com/nicholas357/E-commerce-fullstack-2.0-sub002/internal/model"
	"github.com/nicholas357/E-commerce-fullstack-2.0-sub002/internal/repository"
	"github.com/nicholas357/E-commerce-fullstack-2.0-sub002/internal/storage"

	"github.com/google/uuid"
)

type GiftCardService interface {
	ListActive(ctx context.Context) ([]*model.GiftCard, error)
	GetBySlug(ctx context.Context, slug string) (*model.GiftCard, error)

	List(ctx context.Context) ([]*model.GiftCard, error)
	Create(ctx context.Context, in dto.GiftCardInput) (*model.GiftCard, error)
	Update(ctx context.Context, id string, in dto.GiftCardInput) (*model.GiftCard, error)
	SetActive(ctx context.Context, id string, active bool) (*model.GiftCard, error)
	Delete(ctx context.Context, id string) error
	UploadImage(ctx context.Context, id, filename string, size int64, r io.Reader) (*model.GiftCard, error)
}

type giftCardServiceImpl struct {
	giftCardRepo repository.GiftCardRepository
	uploader     *storage.Uploader
	logger       *slog.Logger
}

func NewGiftCardService(
	giftCardRepo repository.GiftCardRepository,
	uploader *storage.Uploader,
	logger *slog.Logger,
) GiftCardService {
	return &giftCardServiceImpl{
		giftCardRepo: giftCardRepo,
		uploader:     uploader,
		logger:       logger,
	}
}

func (s *giftCardServiceImpl) ListActive(ctx context.Context) ([]*model.GiftCard, error) {
	cards, err := s.giftCardRepo.List(ctx, true)
	if err != nil {
		return nil, fmt.Errorf("list gift cards: %w", err)
	}
	return cards, nil
}

// GetBySlug hides inactive cards from the storefront.
func (s *giftCardServiceImpl) GetBySlug(ctx context.Context, slug string) (*model.GiftCard, error) {
	card, err := s.giftCardRepo.FindOneBy(ctx, "slug", slug)
	if err != nil {
		return nil, fmt.Errorf("find gift card: %w", err)
	}
	if !card.Active {
		return nil, fmt.Errorf("find gift card: %w", ErrNotFound)
	}
	return card, nil
}

func (s *giftCardServiceImpl) List(ctx context.Context) ([]*model.GiftCard, error) {
	cards, err := s.giftCardRepo.List(ctx, false)
	if err != nil {
		return nil, fmt.Errorf("list gift cards: %w", err)
	}
	return cards, nil
}

func (s *giftCardServiceImpl) get(ctx context.Context, id string) (*model.GiftCard, error) {
	card, err := s.giftCardRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("find gift card: %w", err)
	}
	return card, nil
}

func normalizeGiftCard(in *dto.GiftCardInput) (model.Amounts, error) {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return nil, invalid("name is required")
	}
	in.Slug = slugify(in.Slug)
	if in.Slug == "" {
		in.Slug = slugify(in.Name)
	}
	if len(in.Denominations) == 0 {
		return nil, invalid("at least one denomination is required")
	}
	for _, d := range in.Denominations {
		if !d.IsPositive() {
			return nil, invalid("denominations must be greater than zero")
		}
	}
	return model.Amounts(in.Denominations).Normalized(), nil
}

func (s *giftCardServiceImpl) Create(ctx context.Context, in dto.GiftCardInput) (*model.GiftCard, error) {
	amounts, err := normalizeGiftCard(&in)
	if err != nil {
		return nil, err
	}

	card := &model.GiftCard{
		ID:            uuid.NewString(),
		Name:          in.Name,
		Slug:          in.Slug,
		Active:        in.Active == nil || *in.Active,
		Denominations: amounts,
	}
	if err := s.giftCardRepo.Create(ctx, card); err != nil {
		return nil, fmt.Errorf("create gift card: %w", err)
	}
	return card, nil
}

func (s *giftCardServiceImpl) Update(ctx context.Context, id string, in dto.GiftCardInput) (*model.GiftCard, error) {
	card, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	amounts, err := normalizeGiftCard(&in)
	if err != nil {
		return nil, err
	}

	card.Name = in.Name
	card.Slug = in.Slug
	card.Denominations = amounts
	if in.Active != nil {
		card.Active = *in.Active
	}

	if err := s.giftCardRepo.Save(ctx, card); err != nil {
		return nil, fmt.Errorf("save gift card: %w", err)
	}
	return card, nil
}

func (s *giftCardServiceImpl) SetActive(ctx context.Context, id string, active bool) (*model.GiftCard, error) {
	card, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}

	card.Active = active
	if err := s.giftCardRepo.Save(ctx, card); err != nil {
		return nil, fmt.Errorf("save gift card: %w", err)
	}
	return card, nil
}

func (s *giftCardServiceImpl) Delete(ctx context.Context, id string) error {
	card, err := s.get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.giftCardRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete gift card: %w", err)
	}

	removeObject(ctx, s.uploader, s.logger, storage.BucketGiftCardImages, card.ImageKey)
	return nil
}

func (s *giftCardServiceImpl) UploadImage(ctx context.Context, id, filename string, size int64, r io.Reader) (*model.GiftCard, error) {
	card, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}

	obj, err := s.uploader.Upload(ctx, storage.BucketGiftCardImages, "cards", storage.ImageRule, filename, size, r)
	if err != nil {
		return nil, err
	}

	oldKey := card.ImageKey
	card.ImageURL = obj.URL
	card.ImageKey = obj.Key
	if err := s.giftCardRepo.Save(ctx, card); err != nil {
		removeObject(ctx, s.uploader, s.logger, storage.BucketGiftCardImages, obj.Key)
		return nil, fmt.Errorf("save gift card image: %w", err)
	}

	removeObject(ctx, s.uploader, s.logger, storage.BucketGiftCardImages, oldKey)
	return card, nil
}
