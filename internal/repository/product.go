package repository

import (
	"context"
	"strings"

	"github.com/nicholas357/E-commerce-fullstack-2.0-sub002/internal/model"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ProductSort string

const (
	SortNewest    ProductSort = "newest"
	SortPriceAsc  ProductSort = "price_asc"
	SortPriceDesc ProductSort = "price_desc"
	SortName      ProductSort = "name"
)

var productOrder = map[ProductSort]string{
	SortNewest:    "created_at DESC, id ASC",
	SortPriceAsc:  "price ASC, id ASC",
	SortPriceDesc: "price DESC, id ASC",
	SortName:      "name ASC, id ASC",
}

type ProductFilter struct {
	CategoryIDs []string
	Kind        model.ProductKind
	Featured    *bool
	IsNew       *bool
	Search      string
	MinPrice    *decimal.Decimal
	MaxPrice    *decimal.Decimal
	Sort        ProductSort
	Limit       int
	Offset      int
}

type ProductRepository interface {
	CRUD[model.Product]

	List(ctx context.Context, filter ProductFilter) ([]*model.Product, int64, error)
	FindMany(ctx context.Context, productIDs []string) ([]*model.Product, error)
	SaveWithVariants(ctx context.Context, product *model.Product) error
	AdjustStock(ctx context.Context, tx *gorm.DB, productID string, delta int) error
	CountByCategory(ctx context.Context, categoryID string) (int64, error)
}

type productRepoImpl struct {
	*gormCRUD[model.Product]
	db *gorm.DB
}

func NewProductRepository(db *gorm.DB) ProductRepository {
	return &productRepoImpl{
		gormCRUD: newCRUD[model.Product](db, "Denominations", "Editions", "LicenseTypes", "StreamingPlans"),
		db:       db,
	}
}

func (r *productRepoImpl) List(ctx context.Context, filter ProductFilter) ([]*model.Product, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.Product{})

	if len(filter.CategoryIDs) > 0 {
		q = q.Where("category_id IN ?", filter.CategoryIDs)
	}
	if filter.Kind != "" {
		q = q.Where("kind = ?", filter.Kind)
	}
	if filter.Featured != nil {
		q = q.Where("featured = ?", *filter.Featured)
	}
	if filter.IsNew != nil {
		q = q.Where("is_new = ?", *filter.IsNew)
	}
	if filter.Search != "" {
		q = q.Where("LOWER(name) LIKE ?", "%"+strings.ToLower(filter.Search)+"%")
	}
	if filter.MinPrice != nil {
		q = q.Where("price >= ?", *filter.MinPrice)
	}
	if filter.MaxPrice != nil {
		q = q.Where("price <= ?", *filter.MaxPrice)
	}

	q = q.Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, mapError(err)
	}

	order, ok := productOrder[filter.Sort]
	if !ok {
		order = productOrder[SortNewest]
	}

	var products []*model.Product
	err := paginate(q, filter.Limit, filter.Offset).
		Preload("Denominations").
		Preload("Editions").
		Preload("LicenseTypes").
		Preload("StreamingPlans").
		Order(order).
		Find(&products).Error
	if err != nil {
		return nil, 0, mapError(err)
	}

	return products, total, nil
}

func (r *productRepoImpl) FindMany(ctx context.Context, productIDs []string) ([]*model.Product, error) {
	var products []*model.Product
	err := r.db.WithContext(ctx).
		Preload("Denominations").
		Preload("Editions").
		Preload("LicenseTypes").
		Preload("StreamingPlans").
		Where("id IN ?", productIDs).
		Find(&products).
		Error

	if err != nil {
		return nil, mapError(err)
	}

	return products, nil
}

// SaveWithVariants writes the product row and swaps every sub-record for the
// ones it currently holds, in one transaction.
func (r *productRepoImpl) SaveWithVariants(ctx context.Context, product *model.Product) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Save(product).Error; err != nil {
			return mapError(err)
		}

		for _, table := range []interface{}{&model.Denomination{}, &model.Edition{}, &model.LicenseType{}, &model.StreamingPlan{}} {
			if err := tx.Where("product_id = ?", product.ID).Delete(table).Error; err != nil {
				return mapError(err)
			}
		}

		for i := range product.Denominations {
			product.Denominations[i].ProductID = product.ID
		}
		for i := range product.Editions {
			product.Editions[i].ProductID = product.ID
		}
		for i := range product.LicenseTypes {
			product.LicenseTypes[i].ProductID = product.ID
		}
		for i := range product.StreamingPlans {
			product.StreamingPlans[i].ProductID = product.ID
		}

		if len(product.Denominations) > 0 {
			if err := tx.Create(&product.Denominations).Error; err != nil {
				return mapError(err)
			}
		}
		if len(product.Editions) > 0 {
			if err := tx.Create(&product.Editions).Error; err != nil {
				return mapError(err)
			}
		}
		if len(product.LicenseTypes) > 0 {
			if err := tx.Create(&product.LicenseTypes).Error; err != nil {
				return mapError(err)
			}
		}
		if len(product.StreamingPlans) > 0 {
			if err := tx.Create(&product.StreamingPlans).Error; err != nil {
				return mapError(err)
			}
		}
		return nil
	})
}

// Delete removes the product together with its sub-records.
func (r *productRepoImpl) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, table := range []interface{}{&model.Denomination{}, &model.Edition{}, &model.LicenseType{}, &model.StreamingPlan{}} {
			if err := tx.Where("product_id = ?", id).Delete(table).Error; err != nil {
				return mapError(err)
			}
		}

		result := tx.Delete(&model.Product{}, "id = ?", id)
		if result.Error != nil {
			return mapError(result.Error)
		}
		if result.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

// AdjustStock adds delta to the product stock, refusing to go below zero.
func (r *productRepoImpl) AdjustStock(ctx context.Context, tx *gorm.DB, productID string, delta int) error {
	if tx == nil {
		tx = r.db
	}

	result := tx.WithContext(ctx).Model(&model.Product{}).
		Where("id = ? AND stock + ? >= 0", productID, delta).
		UpdateColumn("stock", gorm.Expr("stock + ?", delta))
	if result.Error != nil {
		return mapError(result.Error)
	}
	if result.RowsAffected > 0 {
		return nil
	}

	var count int64
	if err := tx.WithContext(ctx).Model(&model.Product{}).Where("id = ?", productID).Count(&count).Error; err != nil {
		return mapError(err)
	}
	if count == 0 {
		return ErrNotFound
	}
	return ErrOutOfStock
}

func (r *productRepoImpl) CountByCategory(ctx context.Context, categoryID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Product{}).
		Where("category_id = ?", categoryID).
		Count(&count).Error

	return count, mapError(err)
}
