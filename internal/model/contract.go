package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type ContractStatus string

const (
	ContractStatusDraft     ContractStatus = "draft"
	ContractStatusFinalized ContractStatus = "finalized"
)

// contracts — снимок условий подтверждённого бронирования.
// Один договор на бронирование; после finalize не меняется.
type Contract struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	BookingID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex"`

	Status ContractStatus `gorm:"type:varchar(16);not null;default:'draft'"`
	Terms  datatypes.JSON `gorm:"not null"`

	DocumentKey string `gorm:"type:text;not null"`
	Revision    int    `gorm:"not null;default:1"`

	FinalizedAt *time.Time
	CreatedAt   time.Time `gorm:"not null"`
	UpdatedAt   time.Time `gorm:"not null"`
}
