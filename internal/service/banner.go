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

type BannerService interface {
	ListActive(ctx context.Context) ([]*model.Banner, error)
	List(ctx context.Context) ([]*model.Banner, error)
	Create(ctx context.Context, in dto.BannerInput) (*model.Banner, error)
	Update(ctx context.Context, id string, in dto.BannerInput) (*model.Banner, error)
	Delete(ctx context.Context, id string) error
	Reorder(ctx context.Context, ids []string) error
	UploadImage(ctx context.Context, id, filename string, size int64, r io.Reader) (*model.Banner, error)
}

type bannerServiceImpl struct {
	bannerRepo repository.BannerRepository
	uploader   *storage.Uploader
	logger     *slog.Logger
}

func NewBannerService(
	bannerRepo repository.BannerRepository,
	uploader *storage.Uploader,
	logger *slog.Logger,
) BannerService {
	return &bannerServiceImpl{
		bannerRepo: bannerRepo,
		uploader:   uploader,
		logger:     logger,
	}
}

func (s *bannerServiceImpl) ListActive(ctx context.Context) ([]*model.Banner, error) {
	banners, err := s.bannerRepo.List(ctx, true)
	if err != nil {
		return nil, fmt.Errorf("list banners: %w", err)
	}
	return banners, nil
}

func (s *bannerServiceImpl) List(ctx context.Context) ([]*model.Banner, error) {
	banners, err := s.bannerRepo.List(ctx, false)
	if err != nil {
		return nil, fmt.Errorf("list banners: %w", err)
	}
	return banners, nil
}

func (s *bannerServiceImpl) get(ctx context.Context, id string) (*model.Banner, error) {
	banner, err := s.bannerRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("find banner: %w", err)
	}
	return banner, nil
}

// Create appends the banner after the current last one.
func (s *bannerServiceImpl) Create(ctx context.Context, in dto.BannerInput) (*model.Banner, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, invalid("title is required")
	}

	last, err := s.bannerRepo.MaxDisplayOrder(ctx)
	if err != nil {
		return nil, fmt.Errorf("find last banner: %w", err)
	}

	banner := &model.Banner{
		ID:           uuid.NewString(),
		Title:        title,
		Description:  in.Description,
		Link:         strings.TrimSpace(in.Link),
		DisplayOrder: last + 1,
		Active:       in.Active == nil || *in.Active,
	}
	if err := s.bannerRepo.Create(ctx, banner); err != nil {
		return nil, fmt.Errorf("create banner: %w", err)
	}
	return banner, nil
}

func (s *bannerServiceImpl) Update(ctx context.Context, id string, in dto.BannerInput) (*model.Banner, error) {
	banner, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}

	if title := strings.TrimSpace(in.Title); title != "" {
		banner.Title = title
	}
	banner.Description = in.Description
	banner.Link = strings.TrimSpace(in.Link)
	if in.Active != nil {
		banner.Active = *in.Active
	}

	if err := s.bannerRepo.Save(ctx, banner); err != nil {
		return nil, fmt.Errorf("save banner: %w", err)
	}
	return banner, nil
}

func (s *bannerServiceImpl) Delete(ctx context.Context, id string) error {
	banner, err := s.get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.bannerRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete banner: %w", err)
	}

	removeObject(ctx, s.uploader, s.logger, storage.BucketProductImages, banner.ImageKey)
	return nil
}

func (s *bannerServiceImpl) Reorder(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return invalid("ids is required")
	}
	if err := s.bannerRepo.Reorder(ctx, ids); err != nil {
		return fmt.Errorf("reorder banners: %w", err)
	}
	return nil
}

func (s *bannerServiceImpl) UploadImage(ctx context.Context, id, filename string, size int64, r io.Reader) (*model.Banner, error) {
	banner, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}

	obj, err := s.uploader.Upload(ctx, storage.BucketProductImages, "banners", storage.ImageRule, filename, size, r)
	if err != nil {
		return nil, err
	}

	oldKey := banner.ImageKey
	banner.ImageURL = obj.URL
	banner.ImageKey = obj.Key
	if err := s.bannerRepo.Save(ctx, banner); err != nil {
		removeObject(ctx, s.uploader, s.logger, storage.BucketProductImages, obj.Key)
		return nil, fmt.Errorf("save banner image: %w", err)
	}

	removeObject(ctx, s.uploader, s.logger, storage.BucketProductImages, oldKey)
	return banner, nil
}
