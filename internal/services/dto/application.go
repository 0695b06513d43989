package dto

import "time"

type ApplyRequest struct {
	JobPostingID string `json:"job_posting_id" binding:"required"`
}

type RejectApplicationRequest struct {
	Reason string `json:"reason" binding:"required"`
}

type ApplicationResponse struct {
	ID              string     `json:"id"`
	StudentID       string     `json:"student_id"`
	JobPostingID    string     `json:"job_posting_id"`
	Status          string     `json:"status"`
	RejectionReason *string    `json:"rejection_reason,omitempty"`
	ReviewedAt      *time.Time `json:"reviewed_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
}

// AdmissionDecision is the canApply outcome, surfaced to callers so
// the UI can display used/limit counters.
type AdmissionDecision struct {
	Allowed bool   `json:"allowed"`
	Reason  string `json:"reason,omitempty"` // "not_found", "hired", "limit"
	Used    int    `json:"used"`
	Limit   int    `json:"limit"` // -1 = unlimited
}

const (
	AdmissionReasonNotFound = "not_found"
	AdmissionReasonHired    = "hired"
	AdmissionReasonLimit    = "limit"
)
