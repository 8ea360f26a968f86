package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/spacefindr/core/internal/model"
)

type ContractRepository interface {
	GetByBookingID(ctx context.Context, bookingID uuid.UUID) (*model.Contract, error)
	// Создать или обновить договор и записать событие аудита.
	// Зафиксированный договор не перезаписывается: ErrContractFinalized.
	Save(ctx context.Context, c *model.Contract, ev *model.Event) error
}

type GormContractRepository struct {
	db *gorm.DB
}

func NewGormContractRepository(db *gorm.DB) *GormContractRepository {
	return &GormContractRepository{db: db}
}

func (r *GormContractRepository) GetByBookingID(ctx context.Context, bookingID uuid.UUID) (*model.Contract, error) {
	var c model.Contract
	if err := r.db.WithContext(ctx).First(&c, "booking_id = ?", bookingID).Error; err != nil {
		return nil, translate(err)
	}
	return &c, nil
}

func (r *GormContractRepository) Save(ctx context.Context, c *model.Contract, ev *model.Event) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if c.ID == uuid.Nil {
			if err := tx.Create(c).Error; err != nil {
				return err
			}
			return insertEvent(tx, ev)
		}
		res := tx.Model(c).
			Where("status <> ?", model.ContractStatusFinalized).
			Select("*").Omit("id", "booking_id", "created_at").
			Updates(c)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrContractFinalized
		}
		return insertEvent(tx, ev)
	})
}
