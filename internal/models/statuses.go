package models

type UserStatus string
type UserRole string
type CompanyStatus string
type JobStatus string
type ApplicationStatus string
type SubscriptionStatus string
type SubscriptionTier string

const (
	UserStatusPending   UserStatus = "pending"
	UserStatusActive    UserStatus = "active"
	UserStatusSuspended UserStatus = "suspended"

	UserRoleStudent UserRole = "student"
	UserRoleCompany UserRole = "company"
	UserRoleAdmin   UserRole = "admin"

	CompanyStatusPending  CompanyStatus = "pending"
	CompanyStatusApproved CompanyStatus = "approved"
	CompanyStatusRejected CompanyStatus = "rejected"

	JobStatusDraft       JobStatus = "draft"
	JobStatusPending     JobStatus = "pending"
	JobStatusApproved    JobStatus = "approved"
	JobStatusRejected    JobStatus = "rejected"
	JobStatusUnpublished JobStatus = "unpublished"
	JobStatusClosed      JobStatus = "closed"

	ApplicationStatusPending   ApplicationStatus = "pending"
	ApplicationStatusReviewed  ApplicationStatus = "reviewed"
	ApplicationStatusHired     ApplicationStatus = "hired"
	ApplicationStatusRejected  ApplicationStatus = "rejected"
	ApplicationStatusWithdrawn ApplicationStatus = "withdrawn"

	SubscriptionStatusPending   SubscriptionStatus = "pending"
	SubscriptionStatusActive    SubscriptionStatus = "active"
	SubscriptionStatusExpired   SubscriptionStatus = "expired"
	SubscriptionStatusCancelled SubscriptionStatus = "cancelled"

	SubscriptionTierFree SubscriptionTier = "free"
	SubscriptionTierPaid SubscriptionTier = "paid"
)

// ActiveApplicationStatuses are the statuses that count against a
// student's application quota. Withdrawn and rejected rows free the slot.
var ActiveApplicationStatuses = []ApplicationStatus{
	ApplicationStatusPending,
	ApplicationStatusReviewed,
	ApplicationStatusHired,
}

// CascadableApplicationStatuses are the statuses a job-close cascade
// bulk-rejects. Terminal and withdrawn rows are left untouched.
var CascadableApplicationStatuses = []ApplicationStatus{
	ApplicationStatusPending,
	ApplicationStatusReviewed,
}

// ClosableJobStatuses are the job states from which close is allowed.
// A draft must be submitted (or deleted) first.
var ClosableJobStatuses = []JobStatus{
	JobStatusApproved,
	JobStatusUnpublished,
	JobStatusPending,
}
