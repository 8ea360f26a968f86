package model

import (
	"time"

	"github.com/google/uuid"
)

type VacancyStatus string

const (
	VacancyStatusSubmitted        VacancyStatus = "submitted"
	VacancyStatusUnderReview      VacancyStatus = "under_review"
	VacancyStatusVerified         VacancyStatus = "verified"
	VacancyStatusRejected         VacancyStatus = "rejected"
	VacancyStatusDuplicate        VacancyStatus = "duplicate"
	VacancyStatusConvertedToSpace VacancyStatus = "converted_to_space"
)

type RewardStatus string

const (
	RewardStatusPending     RewardStatus = "pending"
	RewardStatusEligible    RewardStatus = "eligible"
	RewardStatusPaid        RewardStatus = "paid"
	RewardStatusNotEligible RewardStatus = "not_eligible"
)

// vacancy_reports: наводка на пустующий объект, который ещё не размещён.
type VacancyReport struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey"`

	ReporterID    *uuid.UUID `gorm:"type:uuid;index"`
	ReporterName  string     `gorm:"type:varchar(255);not null"`
	ReporterEmail string     `gorm:"type:varchar(255);not null"`
	ReporterPhone string     `gorm:"type:varchar(32)"`

	Address    string `gorm:"type:varchar(255);not null"`
	City       string `gorm:"type:varchar(128);not null"`
	PostalCode string `gorm:"type:varchar(16);not null"`
	// Нормализованный адрес: по нему ищем дубликаты.
	AddressKey string `gorm:"type:varchar(400);not null;index"`

	SizeSqm     *float64 `gorm:"type:numeric"`
	VacantSince string   `gorm:"type:varchar(64)"`
	Description string   `gorm:"type:text"`
	PhotoURL    string   `gorm:"type:text"`

	Status       VacancyStatus `gorm:"type:varchar(32);not null;default:'submitted';index"`
	RewardStatus RewardStatus  `gorm:"type:varchar(32);not null;default:'pending';index"`
	RewardAmount int64         `gorm:"not null;default:0"`
	AdminNote    string        `gorm:"type:text"`

	SpaceID      *uuid.UUID `gorm:"type:uuid"`
	ReviewedBy   *uuid.UUID `gorm:"type:uuid"`
	ReviewedAt   *time.Time
	RewardPaidAt *time.Time

	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}
