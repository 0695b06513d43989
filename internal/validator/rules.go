package validator

import (
	"log"
	"time"

	"github.com/go-playground/validator/v10"

	"jobbridge_backend/internal/models"
)

// registerCustomRules registers all custom validation functions on the
// given validator instance.
func registerCustomRules(v *validator.Validate) {
	mustRegister := func(tag string, fn validator.Func) {
		if err := v.RegisterValidation(tag, fn); err != nil {
			// Registration failure is a startup bug, not a runtime condition.
			log.Fatalf("failed to register custom validation tag '%s': %v", tag, err)
		}
	}

	mustRegister("is-user-role", validateUserRole)
	mustRegister("is-job-status", validateJobStatus)
	mustRegister("is-application-status", validateApplicationStatus)
	mustRegister("is-subscription-status", validateSubscriptionStatus)
	mustRegister("is-billing-cycle", validateBillingCycle)
	mustRegister("future-date", validateFutureDate)
}

func validateUserRole(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true // 'required' owns the empty check
	}
	switch models.UserRole(value) {
	case models.UserRoleStudent, models.UserRoleCompany, models.UserRoleAdmin:
		return true
	}
	return false
}

func validateJobStatus(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true
	}
	switch models.JobStatus(value) {
	case models.JobStatusDraft, models.JobStatusPending, models.JobStatusApproved,
		models.JobStatusRejected, models.JobStatusUnpublished, models.JobStatusClosed:
		return true
	}
	return false
}

func validateApplicationStatus(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true
	}
	switch models.ApplicationStatus(value) {
	case models.ApplicationStatusPending, models.ApplicationStatusReviewed,
		models.ApplicationStatusHired, models.ApplicationStatusRejected,
		models.ApplicationStatusWithdrawn:
		return true
	}
	return false
}

func validateSubscriptionStatus(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true
	}
	switch models.SubscriptionStatus(value) {
	case models.SubscriptionStatusPending, models.SubscriptionStatusActive,
		models.SubscriptionStatusExpired, models.SubscriptionStatusCancelled:
		return true
	}
	return false
}

func validateBillingCycle(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true
	}
	return value == "monthly" || value == "yearly"
}

// validateFutureDate accepts time.Time and *time.Time fields.
func validateFutureDate(fl validator.FieldLevel) bool {
	field := fl.Field()
	t, ok := field.Interface().(time.Time)
	if !ok {
		return false
	}
	if t.IsZero() {
		return true
	}
	return t.After(time.Now())
}
