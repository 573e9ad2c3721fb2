package repository

import (
	"context"
	"strings"

	"github.com/nicholas357/E-commerce-fullstack-2.0-sub002/internal/model"

	"gorm.io/gorm"
)

type ProfileRepository interface {
	CRUD[model.Profile]

	FindByEmail(ctx context.Context, email string) (*model.Profile, error)
	List(ctx context.Context, search string, limit, offset int) ([]*model.Profile, int64, error)
	UpdateRole(ctx context.Context, id string, role model.Role) error
}

type profileRepoImpl struct {
	*gormCRUD[model.Profile]
	db *gorm.DB
}

func NewProfileRepository(db *gorm.DB) ProfileRepository {
	return &profileRepoImpl{
		gormCRUD: newCRUD[model.Profile](db),
		db:       db,
	}
}

func (r *profileRepoImpl) FindByEmail(ctx context.Context, email string) (*model.Profile, error) {
	return r.FindOneBy(ctx, "email", strings.ToLower(strings.TrimSpace(email)))
}

func (r *profileRepoImpl) List(ctx context.Context, search string, limit, offset int) ([]*model.Profile, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.Profile{})
	if search != "" {
		like := "%" + strings.ToLower(search) + "%"
		q = q.Where("LOWER(email) LIKE ? OR LOWER(full_name) LIKE ?", like, like)
	}
	q = q.Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, mapError(err)
	}

	var profiles []*model.Profile
	if err := paginate(q, limit, offset).Order("created_at DESC, id ASC").Find(&profiles).Error; err != nil {
		return nil, 0, mapError(err)
	}

	return profiles, total, nil
}

func (r *profileRepoImpl) UpdateRole(ctx context.Context, id string, role model.Role) error {
	result := r.db.WithContext(ctx).Model(&model.Profile{}).
		Where("id = ?", id).
		Update("role", role)

	if result.Error != nil {
		return mapError(result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
