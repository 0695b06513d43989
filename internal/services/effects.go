package services

import (
	"jobbridge_backend/internal/dispatch"
	"jobbridge_backend/internal/logger"
	"jobbridge_backend/internal/models"
	"jobbridge_backend/internal/repositories"
)

// Notification type tags shared by the lifecycle services.
const (
	NotifTypeApplicationStatus   = "application_status"
	NotifTypeNewApplication      = "new_application"
	NotifTypeWithdrawalRequested = "withdrawal_requested"
	NotifTypeJobStatus           = "job_status"
	NotifTypeNewJobPending       = "new_job_pending"
	NotifTypeNewCompanyPending   = "new_company_pending"
	NotifTypeSubscriptionExpiry  = "subscription_expiry"
)

// fanOutToAdmins appends one notification per admin user to the event.
// A lookup failure is logged and swallowed: effect construction must
// not fail the transition that triggered it.
func fanOutToAdmins(users repositories.UserRepository, e *dispatch.Event, notifType, title, message, link string) {
	admins, err := users.FindByRole(models.UserRoleAdmin)
	if err != nil {
		logger.WithError(err).Warn("admin fanout lookup failed", "event", e.Kind)
		return
	}
	for _, admin := range admins {
		e.Notify(dispatch.NotificationSpec{
			RecipientID:   admin.ID,
			RecipientType: models.UserRoleAdmin,
			Type:          notifType,
			Title:         title,
			Message:       message,
			Link:          link,
		})
	}
}

// strOr dereferences an optional string for display.
func strOr(s *string, fallback string) string {
	if s == nil || *s == "" {
		return fallback
	}
	return *s
}
