package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/spacefindr/core/internal/model"
)

// EventRepository: чтение журнала аудита. Запись идёт только
// внутри транзакций других репозиториев.
type EventRepository interface {
	ListByBooking(ctx context.Context, bookingID uuid.UUID) ([]model.Event, error)
	ListBySubject(ctx context.Context, subjectID uuid.UUID) ([]model.Event, error)
}

type GormEventRepository struct {
	db *gorm.DB
}

func NewGormEventRepository(db *gorm.DB) *GormEventRepository {
	return &GormEventRepository{db: db}
}

func (r *GormEventRepository) ListByBooking(ctx context.Context, bookingID uuid.UUID) ([]model.Event, error) {
	var events []model.Event
	err := r.db.WithContext(ctx).
		Where("booking_id = ?", bookingID).
		Order("created_at ASC").
		Find(&events).Error
	return events, err
}

func (r *GormEventRepository) ListBySubject(ctx context.Context, subjectID uuid.UUID) ([]model.Event, error) {
	var events []model.Event
	err := r.db.WithContext(ctx).
		Where("subject_id = ?", subjectID).
		Order("created_at ASC").
		Find(&events).Error
	return events, err
}

func insertEvent(tx *gorm.DB, ev *model.Event) error {
	if ev == nil {
		return nil
	}
	return tx.Create(ev).Error
}
