package model

import (
	"database/sql/driver"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type BookingStatus string

const (
	BookingStatusRequested  BookingStatus = "requested"
	BookingStatusConfirmed  BookingStatus = "confirmed"
	BookingStatusInProgress BookingStatus = "in_progress"
	BookingStatusCompleted  BookingStatus = "completed"
	BookingStatusRejected   BookingStatus = "rejected"
	BookingStatusCancelled  BookingStatus = "cancelled"
)

// legacyPending: старое имя для "ожидает решения арендодателя".
// Внутри домена не существует, принимается только на границе.
const legacyPending = "pending"

// ParseBookingStatus разбирает статус из внешнего представления.
// "pending" приводится к requested.
func ParseBookingStatus(s string) (BookingStatus, error) {
	if s == legacyPending {
		return BookingStatusRequested, nil
	}
	status := BookingStatus(s)
	switch status {
	case BookingStatusRequested, BookingStatusConfirmed, BookingStatusInProgress,
		BookingStatusCompleted, BookingStatusRejected, BookingStatusCancelled:
		return status, nil
	}
	return "", fmt.Errorf("invalid booking status: %q", s)
}

// IsTerminal — из этих статусов переходов нет.
func (s BookingStatus) IsTerminal() bool {
	return s == BookingStatusCompleted || s == BookingStatusRejected || s == BookingStatusCancelled
}

// BlocksCalendar: бронирование занимает даты помещения.
func (s BookingStatus) BlocksCalendar() bool {
	return s != BookingStatusCancelled && s != BookingStatusRejected
}

// Scan нормализует legacy-значения при чтении из БД.
func (s *BookingStatus) Scan(value any) error {
	var raw string
	switch v := value.(type) {
	case string:
		raw = v
	case []byte:
		raw = string(v)
	case nil:
		*s = ""
		return nil
	default:
		return fmt.Errorf("booking status: unsupported type %T", value)
	}
	parsed, err := ParseBookingStatus(raw)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

func (s BookingStatus) Value() (driver.Value, error) {
	return string(s), nil
}

type PaymentStatus string

const (
	PaymentStatusPending    PaymentStatus = "pending"
	PaymentStatusProcessing PaymentStatus = "processing"
	PaymentStatusPaid       PaymentStatus = "paid"
	PaymentStatusFailed     PaymentStatus = "failed"
	PaymentStatusRefunded   PaymentStatus = "refunded"
)

type DepositStatus string

const (
	DepositStatusNone       DepositStatus = "none"
	DepositStatusAuthorized DepositStatus = "authorized"
	DepositStatusHeld       DepositStatus = "held"
	DepositStatusReleased   DepositStatus = "released"
	DepositStatusForfeited  DepositStatus = "forfeited"
)

// bookings. Даты StartDate/EndDate, включительный диапазон календарных дней.
type Booking struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey"`
	SpaceID    uuid.UUID `gorm:"type:uuid;not null;index"`
	TenantID   uuid.UUID `gorm:"type:uuid;not null;index"`
	LandlordID uuid.UUID `gorm:"type:uuid;not null;index"`

	// Снимок помещения на момент создания, дальше не меняется.
	SpaceName   string `gorm:"type:varchar(255);not null"`
	SpaceImage  string `gorm:"type:text"`
	PricePerDay int64  `gorm:"not null"`

	StartDate time.Time `gorm:"type:date;not null;index"`
	EndDate   time.Time `gorm:"type:date;not null;index"`
	TotalDays int       `gorm:"not null"`

	RentAmount    int64 `gorm:"not null"`
	ServiceAmount int64 `gorm:"not null"`
	DepositAmount int64 `gorm:"not null;default:0"`
	TotalPrice    int64 `gorm:"not null"`

	Status        BookingStatus `gorm:"type:varchar(32);not null;index"`
	PaymentStatus PaymentStatus `gorm:"type:varchar(32);not null;default:'pending'"`
	DepositStatus DepositStatus `gorm:"type:varchar(32);not null;default:'none'"`

	RefundAmount           int64 `gorm:"not null;default:0"`
	DepositForfeitedAmount int64 `gorm:"not null;default:0"`

	Message          string `gorm:"type:text"`
	StatusReason     string `gorm:"type:text"`
	CheckoutNote     string `gorm:"type:text"`
	PaymentReference string `gorm:"type:varchar(128)"`
	PaidAt           *time.Time
	ConfirmedAt      *time.Time
	CancelledAt      *time.Time
	CheckedInAt      *time.Time
	CheckedOutAt     *time.Time
	CompletedAt      *time.Time

	// Оптимистичная блокировка для обновлений одного бронирования.
	Version int `gorm:"not null"`

	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`

	Space *Space `gorm:"foreignKey:SpaceID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT"`
}
