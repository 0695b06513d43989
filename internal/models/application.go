package models

import "time"

// Application rows are unique per (student, job). A withdrawn row is
// reactivated in place on re-application instead of inserting a
// duplicate, so the compound index holds regardless of status.
type Application struct {
	BaseModel
	StudentID    string            `gorm:"not null;uniqueIndex:idx_student_job"`
	JobPostingID string            `gorm:"not null;uniqueIndex:idx_student_job"`
	Status       ApplicationStatus `gorm:"default:'pending';index"`

	RejectionReason *string

	// ReviewedAt is non-null only for statuses reached through an
	// admin review step. An admin reject from pending deliberately
	// leaves it null so the rejection stays invisible to the company.
	ReviewedAt *time.Time

	// Relations
	Student    Student    `gorm:"foreignKey:StudentID"`
	JobPosting JobPosting `gorm:"foreignKey:JobPostingID"`
}
