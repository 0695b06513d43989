package models

import "time"

type Notification struct {
	BaseModel
	RecipientID   string   `gorm:"not null;index"`
	RecipientType UserRole `gorm:"not null"`
	Type          string   `gorm:"not null"` // "application_status", "job_status", ...
	Title         string   `gorm:"not null"`
	Message       string
	Link          string

	// DedupeKey makes dispatch replays safe: a redelivered event
	// collides on the unique index and is skipped, not duplicated.
	DedupeKey *string `gorm:"uniqueIndex"`

	IsRead bool `gorm:"default:false"`
	ReadAt *time.Time
}
