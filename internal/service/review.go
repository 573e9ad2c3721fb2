package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/nicholas357/E-commerce-fullstack-2.0-sub002/internal/auth"
	"github.com/nicholas357/E-commerce-fullstack-2.0-sub002/internal/dto"
	"github.com/nicholas357/E-commerce-fullstack-2.0-sub002/internal/model"
	"github.com/nicholas357/E-commerce-fullstack-2.0-sub002/internal/repository"

	"github.com/google/uuid"
)

const (
	maxCommentLength   = 2000
	pendingReviewLimit = 100
)

type ReviewService interface {
	Create(ctx context.Context, user auth.User, productRef string, req dto.ReviewRequest) (*model.Review, error)
	ListForProduct(ctx context.Context, productRef string) (*dto.ReviewList, error)

	ListPending(ctx context.Context) ([]*model.Review, error)
	Approve(ctx context.Context, reviewID string) error
	Delete(ctx context.Context, reviewID string) error
}

type reviewServiceImpl struct {
	reviewRepo repository.ReviewRepository
	products   ProductService
}

// NewReviewService accepts a nil reviewRepo when no document store is configured.
// Products are referenced by slug or id, like the catalog routes.
func NewReviewService(reviewRepo repository.ReviewRepository, products ProductService) ReviewService {
	return &reviewServiceImpl{
		reviewRepo: reviewRepo,
		products:   products,
	}
}

func (s *reviewServiceImpl) available() error {
	if s.reviewRepo == nil {
		return fmt.Errorf("reviews: %w", ErrUnavailable)
	}
	return nil
}

// Create stores the review unapproved; it shows up once an admin approves it.
func (s *reviewServiceImpl) Create(ctx context.Context, user auth.User, productRef string, req dto.ReviewRequest) (*model.Review, error) {
	if err := s.available(); err != nil {
		return nil, err
	}
	if req.Rating < 1 || req.Rating > 5 {
		return nil, invalid("rating must be between 1 and 5")
	}
	comment := strings.TrimSpace(req.Comment)
	if len(comment) > maxCommentLength {
		return nil, invalid("comment must be at most %d characters", maxCommentLength)
	}

	product, err := s.products.Lookup(ctx, productRef)
	if err != nil {
		return nil, err
	}

	review := &model.Review{
		ID:         uuid.NewString(),
		ProductID:  product.ID,
		UserID:     user.ID,
		AuthorName: user.Name,
		Rating:     req.Rating,
		Comment:    comment,
		CreatedAt:  time.Now().UTC(),
	}
	if err := s.reviewRepo.Create(ctx, review); err != nil {
		return nil, fmt.Errorf("create review: %w", err)
	}
	return review, nil
}

func (s *reviewServiceImpl) ListForProduct(ctx context.Context, productRef string) (*dto.ReviewList, error) {
	if err := s.available(); err != nil {
		return nil, err
	}

	product, err := s.products.Lookup(ctx, productRef)
	if err != nil {
		return nil, err
	}
	productID := product.ID

	reviews, err := s.reviewRepo.ListByProduct(ctx, productID, true)
	if err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}
	avg, count, err := s.reviewRepo.AverageRating(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("average rating: %w", err)
	}

	return &dto.ReviewList{
		Reviews: reviews,
		Average: avg,
		Count:   count,
	}, nil
}

func (s *reviewServiceImpl) ListPending(ctx context.Context) ([]*model.Review, error) {
	if err := s.available(); err != nil {
		return nil, err
	}

	reviews, err := s.reviewRepo.ListPending(ctx, pendingReviewLimit)
	if err != nil {
		return nil, fmt.Errorf("list pending reviews: %w", err)
	}
	return reviews, nil
}

func (s *reviewServiceImpl) Approve(ctx context.Context, reviewID string) error {
	if err := s.available(); err != nil {
		return err
	}
	if err := s.reviewRepo.Approve(ctx, reviewID); err != nil {
		return fmt.Errorf("approve review: %w", err)
	}
	return nil
}

func (s *reviewServiceImpl) Delete(ctx context.Context, reviewID string) error {
	if err := s.available(); err != nil {
		return err
	}
	if err := s.reviewRepo.Delete(ctx, reviewID); err != nil {
		return fmt.Errorf("delete review: %w", err)
	}
	return nil
}
