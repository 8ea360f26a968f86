package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Категория помещения.
type SpaceCategory string

const (
	SpaceCategoryOffice    SpaceCategory = "office"
	SpaceCategoryWarehouse SpaceCategory = "warehouse"
	SpaceCategoryPopup     SpaceCategory = "popup"
	SpaceCategoryEvent     SpaceCategory = "event"
	SpaceCategoryRetail    SpaceCategory = "retail"
	SpaceCategoryStudio    SpaceCategory = "studio"
)

// Политика отмены бронирования.
type CancellationPolicy string

const (
	CancellationFlexible CancellationPolicy = "flexible"
	CancellationModerate CancellationPolicy = "moderate"
	CancellationStrict   CancellationPolicy = "strict"
)

// spaces: сдаваемое помещение. Все суммы в центах.
type Space struct {
	ID      uuid.UUID `gorm:"type:uuid;primaryKey"`
	OwnerID uuid.UUID `gorm:"type:uuid;not null;index"`

	Title       string `gorm:"type:varchar(255);not null"`
	Description string `gorm:"type:text"`
	ImageURL    string `gorm:"type:text"`

	Address    string  `gorm:"type:varchar(255);not null"`
	City       string  `gorm:"type:varchar(128);not null;index"`
	PostalCode string  `gorm:"type:varchar(16);not null"`
	Latitude   float64 `gorm:"not null"`
	Longitude  float64 `gorm:"not null"`

	PricePerDay   int64  `gorm:"not null"`
	PricePerWeek  *int64 `gorm:"type:bigint"`
	PricePerMonth *int64 `gorm:"type:bigint"`

	SizeSqm   float64       `gorm:"not null"`
	Category  SpaceCategory `gorm:"type:varchar(32);not null;index"`
	Amenities datatypes.JSON

	MinRentalDays int `gorm:"not null;default:1"`
	MaxRentalDays int `gorm:"not null;default:365"`

	DepositRequired bool  `gorm:"not null;default:false"`
	DepositAmount   int64 `gorm:"not null;default:0"`

	CancellationPolicy CancellationPolicy `gorm:"type:varchar(16);not null;default:'moderate'"`
	InstantBooking     bool               `gorm:"not null;default:false"`
	IsActive           bool               `gorm:"not null;index"`

	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// EffectiveDeposit — залог, который копируется в бронирование.
func (s *Space) EffectiveDeposit() int64 {
	if !s.DepositRequired {
		return 0
	}
	return s.DepositAmount
}
