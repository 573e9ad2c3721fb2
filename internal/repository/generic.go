package repository

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrNotFound   = errors.New("not found")
	ErrDuplicate  = errors.New("already exists")
	ErrOutOfStock = errors.New("insufficient stock")
)

// CRUD is the table-level contract shared by every relational entity.
type CRUD[T any] interface {
	Create(ctx context.Context, entity *T) error
	Save(ctx context.Context, entity *T) error
	Delete(ctx context.Context, id string) error
	FindByID(ctx context.Context, id string) (*T, error)
	FindOneBy(ctx context.Context, column string, value interface{}) (*T, error)
}

type gormCRUD[T any] struct {
	db       *gorm.DB
	preloads []string
}

func newCRUD[T any](db *gorm.DB, preloads ...string) *gormCRUD[T] {
	return &gormCRUD[T]{
		db:       db,
		preloads: preloads,
	}
}

func (r *gormCRUD[T]) query(ctx context.Context) *gorm.DB {
	q := r.db.WithContext(ctx)
	for _, p := range r.preloads {
		q = q.Preload(p)
	}
	return q
}

func (r *gormCRUD[T]) Create(ctx context.Context, entity *T) error {
	return mapError(r.db.WithContext(ctx).Create(entity).Error)
}

// Save writes the row only; associations are managed by the entity repositories.
func (r *gormCRUD[T]) Save(ctx context.Context, entity *T) error {
	return mapError(r.db.WithContext(ctx).Omit(clause.Associations).Save(entity).Error)
}

func (r *gormCRUD[T]) Delete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Delete(new(T), "id = ?", id)
	if result.Error != nil {
		return mapError(result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *gormCRUD[T]) FindByID(ctx context.Context, id string) (*T, error) {
	return r.FindOneBy(ctx, "id", id)
}

func (r *gormCRUD[T]) FindOneBy(ctx context.Context, column string, value interface{}) (*T, error) {
	var entity T
	err := r.query(ctx).
		Where(clause.Eq{Column: clause.Column{Name: column}, Value: value}).
		First(&entity).Error
	if err != nil {
		return nil, mapError(err)
	}

	return &entity, nil
}

// mapError translates driver and gorm errors into repository sentinels.
func mapError(err error) error {
	if err == nil {
		return nil
	}

	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrDuplicate
	}

	// drivers that do not implement gorm's error translator
	msg := err.Error()
	if strings.Contains(msg, "UNIQUE constraint failed") || strings.Contains(msg, "Duplicate entry") {
		return ErrDuplicate
	}

	return err
}

func paginate(q *gorm.DB, limit, offset int) *gorm.DB {
	if limit > 0 {
		q = q.Limit(limit)
	}
	if offset > 0 {
		q = q.Offset(offset)
	}
	return q
}
