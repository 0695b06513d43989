package dto

import "time"

// Entitlement is the computed subscription state used for admission.
// Quota -1 means unlimited.
type Entitlement struct {
	Tier          string `json:"tier"`
	Status        string `json:"status"` // "free" or the subscription status
	IsActive      bool   `json:"is_active"`
	InGracePeriod bool   `json:"in_grace_period"`
	Quota         int    `json:"quota"`
}

type PurchaseSubscriptionRequest struct {
	PlanID string `json:"plan_id" binding:"required"`
}

type SubscriptionResponse struct {
	ID        string    `json:"id"`
	PlanID    string    `json:"plan_id"`
	PlanName  string    `json:"plan_name,omitempty"`
	Status    string    `json:"status"`
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`
	AutoRenew bool      `json:"auto_renew"`
}

type CreatePlanRequest struct {
	Name            string  `json:"name" binding:"required"`
	Tier            string  `json:"tier" binding:"required"`
	Price           float64 `json:"price"`
	Currency        string  `json:"currency"`
	BillingCycle    string  `json:"billing_cycle" binding:"required"`
	MaxApplications *int    `json:"max_applications"` // null = unlimited
}

type PlanResponse struct {
	ID              string  `json:"id"`
	Name            string  `json:"name"`
	Tier            string  `json:"tier"`
	Price           float64 `json:"price"`
	Currency        string  `json:"currency"`
	BillingCycle    string  `json:"billing_cycle"`
	MaxApplications *int    `json:"max_applications"`
}
