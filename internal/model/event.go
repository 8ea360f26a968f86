package model

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Тип события аудита.
type EventType string

const (
	EventTypeBookingCreated    EventType = "booking_created"
	EventTypeBookingTransition EventType = "booking_transition"
	EventTypeBookingUpdated    EventType = "booking_updated"
	EventTypeVacancyReviewed   EventType = "vacancy_reviewed"
	EventTypeContractGenerated EventType = "contract_generated"
	EventTypeContractFinalized EventType = "contract_finalized"
)

// events: журнал аудита. Пишется в той же транзакции, что и изменение.
type Event struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey"`

	EventType EventType `gorm:"type:varchar(64);not null;index"`

	CreatedAt time.Time `gorm:"not null;index"`

	ActorID   *uuid.UUID `gorm:"type:uuid;index"`
	BookingID *uuid.UUID `gorm:"type:uuid;index"`
	SubjectID *uuid.UUID `gorm:"type:uuid;index"`

	FromStatus string `gorm:"type:varchar(32)"`
	ToStatus   string `gorm:"type:varchar(32)"`

	Details datatypes.JSON
}

// EventDetails сериализует детали события. Годится только для значений
// без каналов и функций: на них Marshal не возвращает ошибку.
func EventDetails(v any) datatypes.JSON {
	b, err := json.Marshal(v)
	if err != nil {
		panic(errors.Join(errors.New("marshal event details"), err))
	}
	return datatypes.JSON(b)
}
