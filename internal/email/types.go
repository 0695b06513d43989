package email

import "fmt"

// Type classifies outbound mail for per-user opt-out checks.
type Type string

const (
	TypeWelcome            Type = "welcome"
	TypeApplicationStatus  Type = "application_status"
	TypeJobStatus          Type = "job_status"
	TypeSubscriptionExpiry Type = "subscription_expiry"
)

// Status is the delivery outcome of a single Send call.
type Status string

const (
	StatusSuccess Status = "success"
	StatusSkipped Status = "skipped"
	StatusError   Status = "error"
)

// Result reports what happened to a Send. Skipped means the recipient
// opted out of this email type; that is a final outcome, not a failure.
type Result struct {
	Status Status
	Err    error
}

// Meta identifies the recipient user and the email type for the
// opt-out check.
type Meta struct {
	UserID string
	Type   Type
}

// Sender delivers templated mail. Implementations must check the
// recipient's opt-out preference before attempting delivery.
type Sender interface {
	Send(to, templateKey string, data interface{}, meta Meta) Result
}

// OptOutChecker answers whether a user has opted out of an email type.
type OptOutChecker interface {
	IsOptedOut(userID string, t Type) (bool, error)
}

// PermanentError marks a provider failure that retrying cannot fix
// (rejected recipient, bad template data). The dispatcher gives up on
// these immediately.
type PermanentError struct {
	Err error
}

func (e *PermanentError) Error() string {
	return fmt.Sprintf("permanent email failure: %v", e.Err)
}

func (e *PermanentError) Unwrap() error {
	return e.Err
}

// TemplateData is the base payload shared by all mail templates.
type TemplateData struct {
	UserName     string
	Subject      string
	Message      string
	ActionURL    string
	ActionText   string
	SupportEmail string
}

// ApplicationStatusData renders the application-status template.
type ApplicationStatusData struct {
	TemplateData
	JobTitle string
	Status   string
	Reason   string
}

// JobStatusData renders the job-status template.
type JobStatusData struct {
	TemplateData
	JobTitle string
	Status   string
	Reason   string
}

// SubscriptionExpiryData renders the subscription-expiry template.
type SubscriptionExpiryData struct {
	TemplateData
	PlanName      string
	DaysRemaining int
}
