package models

import (
	"time"

	"gorm.io/datatypes"
)

type SubscriptionPlan struct {
	BaseModel
	Name         string           `gorm:"not null"`
	Tier         SubscriptionTier `gorm:"not null"`
	Price        float64          `gorm:"not null"`
	Currency     string           `gorm:"default:'EUR'"`
	BillingCycle string           `gorm:"not null"` // "monthly", "yearly"

	// MaxApplications null means unlimited.
	MaxApplications *int

	Features datatypes.JSON `gorm:"type:jsonb"` // {"priority_support": true, ...}
	IsActive bool           `gorm:"default:true"`
}

type Subscription struct {
	BaseModel
	StudentID string             `gorm:"not null;index"`
	PlanID    string             `gorm:"not null;index"`
	Status    SubscriptionStatus `gorm:"default:'active'"`
	StartDate time.Time
	EndDate   time.Time
	AutoRenew bool `gorm:"default:true"`

	CancelledAt *time.Time

	// Relations
	Plan SubscriptionPlan `gorm:"foreignKey:PlanID"`
}
