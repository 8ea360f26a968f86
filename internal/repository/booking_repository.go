package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/spacefindr/core/internal/booking"
	"github.com/spacefindr/core/internal/model"
)

// BuildFunc получает помещение и его активные бронирования, прочитанные
// внутри транзакции, и возвращает проверенный переход создания.
type BuildFunc func(space *model.Space, existing []model.Booking) (*booking.Transition, error)

type BookingRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.Booking, error)
	// Бронирования помещения, занимающие календарь (не cancelled/rejected).
	ListActiveBySpace(ctx context.Context, spaceID uuid.UUID) ([]model.Booking, error)
	// Создать бронирование, пока никто другой не может занять даты того же помещения.
	CreateExclusive(ctx context.Context, spaceID uuid.UUID, build BuildFunc) (*booking.Transition, error)
	// Сохранить изменённые колонки перехода при совпадении версии.
	UpdateFields(ctx context.Context, tr *booking.Transition) error
	ListByTenant(ctx context.Context, tenantID uuid.UUID, status model.BookingStatus, limit, offset int) ([]model.Booking, int64, error)
	ListByLandlord(ctx context.Context, landlordID uuid.UUID, status model.BookingStatus, limit, offset int) ([]model.Booking, int64, error)
	// Идущие аренды с записанным выездом, кандидаты на автозавершение.
	ListCheckedOut(ctx context.Context, limit int) ([]model.Booking, error)
}

type GormBookingRepository struct {
	db *gorm.DB
}

func NewGormBookingRepository(db *gorm.DB) *GormBookingRepository {
	return &GormBookingRepository{db: db}
}

var inactiveStatuses = []model.BookingStatus{model.BookingStatusCancelled, model.BookingStatusRejected}

func (r *GormBookingRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Booking, error) {
	var b model.Booking
	if err := r.db.WithContext(ctx).First(&b, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &b, nil
}

func (r *GormBookingRepository) ListActiveBySpace(ctx context.Context, spaceID uuid.UUID) ([]model.Booking, error) {
	return activeBySpace(r.db.WithContext(ctx), spaceID)
}

func activeBySpace(db *gorm.DB, spaceID uuid.UUID) ([]model.Booking, error) {
	var bookings []model.Booking
	err := db.
		Where("space_id = ?", spaceID).
		Where("status NOT IN ?", inactiveStatuses).
		Order("start_date ASC").
		Find(&bookings).Error
	return bookings, err
}

func (r *GormBookingRepository) CreateExclusive(ctx context.Context, spaceID uuid.UUID, build BuildFunc) (*booking.Transition, error) {
	var tr *booking.Transition
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		q := tx
		// sqlite не знает FOR UPDATE; там запись и так сериализована единственным соединением
		if tx.Dialector.Name() == "postgres" {
			q = q.Clauses(clause.Locking{Strength: "UPDATE"})
		}
		var space model.Space
		if err := q.First(&space, "id = ?", spaceID).Error; err != nil {
			return translate(err)
		}

		existing, err := activeBySpace(tx, spaceID)
		if err != nil {
			return err
		}

		tr, err = build(&space, existing)
		if err != nil {
			return err
		}
		if err := tx.Create(&tr.Next).Error; err != nil {
			return fmt.Errorf("insert booking: %w", err)
		}
		return insertEvent(tx, transitionEvent(tr))
	})
	if err != nil {
		return nil, err
	}
	return tr, nil
}

func (r *GormBookingRepository) UpdateFields(ctx context.Context, tr *booking.Transition) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		next := tr.Next
		res := tx.Model(&next).
			Where("version = ?", tr.ExpectedVersion()).
			Select(tr.Columns).
			Updates(&next)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			var count int64
			if err := tx.Model(&model.Booking{}).Where("id = ?", tr.BookingID).Count(&count).Error; err != nil {
				return err
			}
			if count == 0 {
				return ErrNotFound
			}
			return ErrStaleBooking
		}
		return insertEvent(tx, transitionEvent(tr))
	})
}

func (r *GormBookingRepository) ListByTenant(
	ctx context.Context,
	tenantID uuid.UUID,
	status model.BookingStatus,
	limit, offset int,
) ([]model.Booking, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.Booking{}).Where("tenant_id = ?", tenantID)
	return listBookings(q, status, limit, offset)
}

func (r *GormBookingRepository) ListByLandlord(
	ctx context.Context,
	landlordID uuid.UUID,
	status model.BookingStatus,
	limit, offset int,
) ([]model.Booking, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.Booking{}).Where("landlord_id = ?", landlordID)
	return listBookings(q, status, limit, offset)
}

func listBookings(q *gorm.DB, status model.BookingStatus, limit, offset int) ([]model.Booking, int64, error) {
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var bookings []model.Booking
	if err := paged(q, limit, offset).Order("start_date DESC").Order("created_at DESC").Find(&bookings).Error; err != nil {
		return nil, 0, err
	}
	return bookings, total, nil
}

func (r *GormBookingRepository) ListCheckedOut(ctx context.Context, limit int) ([]model.Booking, error) {
	var bookings []model.Booking
	q := r.db.WithContext(ctx).
		Where("status = ?", model.BookingStatusInProgress).
		Where("checked_out_at IS NOT NULL").
		Order("end_date ASC")
	if err := paged(q, limit, 0).Find(&bookings).Error; err != nil {
		return nil, err
	}
	return bookings, nil
}

type transitionDetails struct {
	Columns       []string              `json:"columns,omitempty"`
	Reason        string                `json:"reason,omitempty"`
	Version       int                   `json:"version"`
	Money         booking.MoneyMovement `json:"money"`
	RefundPercent *int                  `json:"refundPercent,omitempty"`
}

func transitionEvent(tr *booking.Transition) *model.Event {
	evType := model.EventTypeBookingTransition
	switch {
	case tr.IsCreate():
		evType = model.EventTypeBookingCreated
	case !tr.StatusChanged():
		evType = model.EventTypeBookingUpdated
	}

	details := transitionDetails{
		Columns: tr.Columns,
		Reason:  tr.Reason,
		Version: tr.Next.Version,
		Money:   tr.Money,
	}
	if tr.Refund != nil {
		details.RefundPercent = &tr.Refund.Percent
	}

	bookingID := tr.BookingID
	ev := &model.Event{
		EventType:  evType,
		CreatedAt:  tr.At,
		BookingID:  &bookingID,
		SubjectID:  &bookingID,
		FromStatus: string(tr.From),
		ToStatus:   string(tr.To),
		Details:    model.EventDetails(details),
	}
	if tr.Actor.ID != uuid.Nil {
		actorID := tr.Actor.ID
		ev.ActorID = &actorID
	}
	return ev
}
