package model

import (
	"time"

	"github.com/google/uuid"
)

// Роль пользователя на площадке.
type Role string

const (
	RoleTenant   Role = "tenant"
	RoleLandlord Role = "landlord"
	RoleAdmin    Role = "admin"
)

func (r Role) Valid() bool {
	return r == RoleTenant || r == RoleLandlord || r == RoleAdmin
}

// users: профиль; аутентификация во внешнем провайдере.
// Нужен для сторон договора и контактов.
type User struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey"`

	DisplayName  string `gorm:"type:varchar(255)"`
	Email        string `gorm:"type:varchar(255);index"`
	ContactPhone string `gorm:"type:varchar(32)"`
	Role         Role   `gorm:"type:varchar(16);not null;default:'tenant'"`

	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}
