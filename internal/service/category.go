package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/nicholas357/E-commerce-fullstack-2.0-sub002/internal/dto"
	"github.com/nicholas357/E-commerce-fullstack-2.0-sub002/internal/model"
	"github.com/nicholas357/E-commerce-fullstack-2.0-sub002/internal/repository"

	"github.com/google/uuid"
)

type CategoryService interface {
	Tree(ctx context.Context) ([]*model.Category, error)
	Navbar(ctx context.Context) ([]*model.Category, error)
	Get(ctx context.Context, id string) (*model.Category, error)
	Create(ctx context.Context, in dto.CategoryInput) (*model.Category, error)
	Update(ctx context.Context, id string, in dto.CategoryInput) (*model.Category, error)
	Delete(ctx context.Context, id string) error
	Reorder(ctx context.Context, ids []string) error
}

type categoryServiceImpl struct {
	categoryRepo repository.CategoryRepository
	productRepo  repository.ProductRepository
}

func NewCategoryService(
	categoryRepo repository.CategoryRepository,
	productRepo repository.ProductRepository,
) CategoryService {
	return &categoryServiceImpl{
		categoryRepo: categoryRepo,
		productRepo:  productRepo,
	}
}

// buildTree nests subcategories under their parents, keeping the repository order.
func buildTree(all []*model.Category, keep func(*model.Category) bool) []*model.Category {
	byID := make(map[string]*model.Category, len(all))
	var roots []*model.Category
	for _, c := range all {
		c.Children = nil
		if c.IsTopLevel() && keep(c) {
			byID[c.ID] = c
			roots = append(roots, c)
		}
	}
	for _, c := range all {
		if c.IsTopLevel() || !keep(c) {
			continue
		}
		if parent, ok := byID[*c.ParentID]; ok {
			parent.Children = append(parent.Children, c)
		}
	}
	return roots
}

func (s *categoryServiceImpl) Tree(ctx context.Context) ([]*model.Category, error) {
	all, err := s.categoryRepo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return buildTree(all, func(*model.Category) bool { return true }), nil
}

func (s *categoryServiceImpl) Navbar(ctx context.Context) ([]*model.Category, error) {
	all, err := s.categoryRepo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return buildTree(all, func(c *model.Category) bool { return c.ShowInNavbar }), nil
}

func (s *categoryServiceImpl) Get(ctx context.Context, id string) (*model.Category, error) {
	category, err := s.categoryRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("find category: %w", err)
	}
	return category, nil
}

// topLevelParent checks that parentID names an existing top-level category.
func (s *categoryServiceImpl) topLevelParent(ctx context.Context, parentID *string) (*model.Category, error) {
	if parentID == nil || *parentID == "" {
		return nil, invalid("parent_id is required: only subcategories can be created")
	}

	parent, err := s.categoryRepo.FindByID(ctx, *parentID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, invalid("parent category %s does not exist", *parentID)
		}
		return nil, fmt.Errorf("find parent category: %w", err)
	}
	if !parent.IsTopLevel() {
		return nil, invalid("parent category must be a top-level category")
	}
	return parent, nil
}

func (s *categoryServiceImpl) Create(ctx context.Context, in dto.CategoryInput) (*model.Category, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, invalid("name is required")
	}

	parent, err := s.topLevelParent(ctx, in.ParentID)
	if err != nil {
		return nil, err
	}

	slug := slugify(in.Slug)
	if slug == "" {
		slug = slugify(name)
	}

	order := 0
	if in.DisplayOrder != nil {
		order = *in.DisplayOrder
	} else {
		n, err := s.categoryRepo.CountChildren(ctx, parent.ID)
		if err != nil {
			return nil, fmt.Errorf("count subcategories: %w", err)
		}
		order = int(n)
	}

	category := &model.Category{
		ID:           uuid.NewString(),
		Name:         name,
		Slug:         slug,
		ParentID:     &parent.ID,
		DisplayOrder: order,
		ShowInNavbar: in.ShowInNavbar == nil || *in.ShowInNavbar,
	}
	if err := s.categoryRepo.Create(ctx, category); err != nil {
		return nil, fmt.Errorf("create category: %w", err)
	}
	return category, nil
}

// Update edits a category; fixed parents accept only display order and navbar changes.
func (s *categoryServiceImpl) Update(ctx context.Context, id string, in dto.CategoryInput) (*model.Category, error) {
	category, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	name := strings.TrimSpace(in.Name)
	slug := slugify(in.Slug)

	if category.Fixed {
		if (name != "" && name != category.Name) || (slug != "" && slug != category.Slug) || in.ParentID != nil {
			return nil, fmt.Errorf("%w: fixed categories only allow display order and navbar changes", ErrForbidden)
		}
	} else {
		if name != "" {
			category.Name = name
		}
		if slug != "" {
			category.Slug = slug
		}
		if in.ParentID != nil && (category.ParentID == nil || *in.ParentID != *category.ParentID) {
			if *in.ParentID == category.ID {
				return nil, invalid("a category cannot be its own parent")
			}
			if category.IsTopLevel() {
				n, err := s.categoryRepo.CountChildren(ctx, category.ID)
				if err != nil {
					return nil, fmt.Errorf("count subcategories: %w", err)
				}
				if n > 0 {
					return nil, invalid("a category with subcategories cannot become a subcategory")
				}
			}
			parent, err := s.topLevelParent(ctx, in.ParentID)
			if err != nil {
				return nil, err
			}
			category.ParentID = &parent.ID
		}
	}

	if in.DisplayOrder != nil {
		category.DisplayOrder = *in.DisplayOrder
	}
	if in.ShowInNavbar != nil {
		category.ShowInNavbar = *in.ShowInNavbar
	}

	if err := s.categoryRepo.Save(ctx, category); err != nil {
		return nil, fmt.Errorf("save category: %w", err)
	}
	return category, nil
}

// Delete never cascades: categories with subcategories or products are refused.
func (s *categoryServiceImpl) Delete(ctx context.Context, id string) error {
	category, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if category.Fixed {
		return fmt.Errorf("%w: fixed categories cannot be deleted", ErrForbidden)
	}

	children, err := s.categoryRepo.CountChildren(ctx, id)
	if err != nil {
		return fmt.Errorf("count subcategories: %w", err)
	}
	if children > 0 {
		return fmt.Errorf("%w: category still has %d subcategories", ErrConflict, children)
	}

	products, err := s.productRepo.CountByCategory(ctx, id)
	if err != nil {
		return fmt.Errorf("count products: %w", err)
	}
	if products > 0 {
		return fmt.Errorf("%w: category still has %d products", ErrConflict, products)
	}

	if err := s.categoryRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	return nil
}

func (s *categoryServiceImpl) Reorder(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return invalid("ids is required")
	}
	if err := s.categoryRepo.Reorder(ctx, ids); err != nil {
		return fmt.Errorf("reorder categories: %w", err)
	}
	return nil
}
