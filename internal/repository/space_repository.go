package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/spacefindr/core/internal/model"
)

type SpaceRepository interface {
	Create(ctx context.Context, space *model.Space) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Space, error)
	// Частичное обновление: ключи, имена колонок.
	Update(ctx context.Context, id uuid.UUID, fields map[string]any) error
	ListByOwner(ctx context.Context, ownerID uuid.UUID, limit, offset int) ([]model.Space, int64, error)
	// Активные помещения для каталога; пустые фильтры не применяются.
	ListActive(ctx context.Context, city string, category model.SpaceCategory, limit, offset int) ([]model.Space, int64, error)
}

type GormSpaceRepository struct {
	db *gorm.DB
}

func NewGormSpaceRepository(db *gorm.DB) *GormSpaceRepository {
	return &GormSpaceRepository{db: db}
}

func (r *GormSpaceRepository) Create(ctx context.Context, space *model.Space) error {
	return r.db.WithContext(ctx).Create(space).Error
}

func (r *GormSpaceRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Space, error) {
	var s model.Space
	if err := r.db.WithContext(ctx).First(&s, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &s, nil
}

func (r *GormSpaceRepository) Update(ctx context.Context, id uuid.UUID, fields map[string]any) error {
	res := r.db.WithContext(ctx).
		Model(&model.Space{}).
		Where("id = ?", id).
		Updates(fields)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *GormSpaceRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID, limit, offset int) ([]model.Space, int64, error) {
	q := r.db.WithContext(ctx).
		Model(&model.Space{}).
		Where("owner_id = ?", ownerID)
	return listSpaces(q, limit, offset)
}

func (r *GormSpaceRepository) ListActive(
	ctx context.Context,
	city string,
	category model.SpaceCategory,
	limit, offset int,
) ([]model.Space, int64, error) {
	q := r.db.WithContext(ctx).
		Model(&model.Space{}).
		Where("is_active = ?", true)
	if city != "" {
		q = q.Where("LOWER(city) = LOWER(?)", city)
	}
	if category != "" {
		q = q.Where("category = ?", category)
	}
	return listSpaces(q, limit, offset)
}

func listSpaces(q *gorm.DB, limit, offset int) ([]model.Space, int64, error) {
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var spaces []model.Space
	if err := paged(q, limit, offset).Order("created_at DESC").Find(&spaces).Error; err != nil {
		return nil, 0, err
	}
	return spaces, total, nil
}
