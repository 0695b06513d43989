package models

import (
	"gorm.io/datatypes"
)

type User struct {
	BaseModel
	Email        string     `gorm:"uniqueIndex;not null"`
	PasswordHash string     `gorm:"not null"`
	Role         UserRole   `gorm:"not null;index"`
	Status       UserStatus `gorm:"default:'active'"`

	// EmailPrefs maps an email type to an opt-in flag.
	// A missing key means opted in. {"application_status": false, ...}
	EmailPrefs datatypes.JSON `gorm:"type:jsonb"`
}
