package models

import "time"

// JobPosting content fields are pointers because a draft may hold any
// subset of them; full validation gates the submit transition, not the
// draft writes.
type JobPosting struct {
	BaseModel
	CompanyID    string `gorm:"not null;index"`
	Title        *string
	Description  *string
	Requirements *string
	Location     *string
	JobType      *string
	SalaryMin    *float64
	SalaryMax    *float64
	Deadline     *time.Time
	Status       JobStatus `gorm:"default:'draft';index"`

	// RejectionReason is set on admin reject and cleared when the
	// posting re-enters the review queue.
	RejectionReason *string

	// ApprovedAt is set iff the posting has ever been approved and is
	// cleared on rejection or republish.
	ApprovedAt *time.Time

	// Relations
	Company Company `gorm:"foreignKey:CompanyID"`
}
