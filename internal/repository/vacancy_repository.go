package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/spacefindr/core/internal/model"
)

type VacancyRepository interface {
	Create(ctx context.Context, report *model.VacancyReport) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.VacancyReport, error)
	// Сохранить next и записать событие аудита в той же транзакции.
	// Запись проходит, только если статусы в базе всё ещё совпадают с prev,
	// иначе ErrStaleReport.
	Save(ctx context.Context, prev, next *model.VacancyReport, ev *model.Event) error
	// Есть ли по адресу другая наводка с eligible/paid вознаграждением.
	AddressRewarded(ctx context.Context, addressKey string, excludeID uuid.UUID) (bool, error)
	List(ctx context.Context, status model.VacancyStatus, limit, offset int) ([]model.VacancyReport, int64, error)
}

type GormVacancyRepository struct {
	db *gorm.DB
}

func NewGormVacancyRepository(db *gorm.DB) *GormVacancyRepository {
	return &GormVacancyRepository{db: db}
}

func (r *GormVacancyRepository) Create(ctx context.Context, report *model.VacancyReport) error {
	return r.db.WithContext(ctx).Create(report).Error
}

func (r *GormVacancyRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.VacancyReport, error) {
	var v model.VacancyReport
	if err := r.db.WithContext(ctx).First(&v, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &v, nil
}

func (r *GormVacancyRepository) Save(ctx context.Context, prev, next *model.VacancyReport, ev *model.Event) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(next).
			Where("status = ? AND reward_status = ?", prev.Status, prev.RewardStatus).
			Select("*").Omit("id", "created_at").
			Updates(next)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrStaleReport
		}
		return insertEvent(tx, ev)
	})
}

func (r *GormVacancyRepository) AddressRewarded(ctx context.Context, addressKey string, excludeID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.VacancyReport{}).
		Where("address_key = ?", addressKey).
		Where("id <> ?", excludeID).
		Where("reward_status IN ?", []model.RewardStatus{model.RewardStatusEligible, model.RewardStatusPaid}).
		Count(&count).Error
	return count > 0, err
}

func (r *GormVacancyRepository) List(ctx context.Context, status model.VacancyStatus, limit, offset int) ([]model.VacancyReport, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.VacancyReport{})
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var reports []model.VacancyReport
	if err := paged(q, limit, offset).Order("created_at DESC").Find(&reports).Error; err != nil {
		return nil, 0, err
	}
	return reports, total, nil
}
