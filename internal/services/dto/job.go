package dto

import "time"

// DraftJobRequest carries draft content. Everything is optional while
// drafting; the submit transition runs the full validation.
type DraftJobRequest struct {
	Title        *string    `json:"title"`
	Description  *string    `json:"description"`
	Requirements *string    `json:"requirements"`
	Location     *string    `json:"location"`
	JobType      *string    `json:"job_type"`
	SalaryMin    *float64   `json:"salary_min"`
	SalaryMax    *float64   `json:"salary_max"`
	Deadline     *time.Time `json:"deadline"`
}

// RejectJobRequest carries the admin's rejection reason.
type RejectJobRequest struct {
	Reason string `json:"reason" binding:"required"`
}

type JobResponse struct {
	ID              string     `json:"id"`
	CompanyID       string     `json:"company_id"`
	Title           *string    `json:"title"`
	Description     *string    `json:"description"`
	Requirements    *string    `json:"requirements"`
	Location        *string    `json:"location"`
	JobType         *string    `json:"job_type"`
	SalaryMin       *float64   `json:"salary_min"`
	SalaryMax       *float64   `json:"salary_max"`
	Deadline        *time.Time `json:"deadline"`
	Status          string     `json:"status"`
	RejectionReason *string    `json:"rejection_reason,omitempty"`
	ApprovedAt      *time.Time `json:"approved_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
}
