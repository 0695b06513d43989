package apperrors

import (
	"net/http"
)

// Factories for the lifecycle-engine error taxonomy. Guard violations,
// conflicts and quota denials carry distinct codes so callers can tell
// "not allowed" from "already done" from "over the limit".

// ErrNotFound converts a repository miss into a 404.
func ErrNotFound(err error, domain, message string) *AppError {
	return Wrap(err, CodeNotFound, domain, message, http.StatusNotFound)
}

// ErrConflict reports an already-done or duplicate outcome (409).
func ErrConflict(domain, message string) *AppError {
	return New(CodeConflict, domain, message, http.StatusConflict)
}

// ErrGuardViolation reports a transition attempted from a state/actor
// combination outside the allowed graph (403).
func ErrGuardViolation(domain, message string) *AppError {
	return New(CodeGuardViolation, domain, message, http.StatusForbidden)
}

// QuotaDetails is attached to limit-exceeded errors for caller display.
type QuotaDetails struct {
	Used  int `json:"used"`
	Limit int `json:"limit"`
}

// ErrLimitExceeded reports an admission denial with usage counters.
func ErrLimitExceeded(domain, message string, used, limit int) *AppError {
	return New(CodeLimitExceeded, domain, message, http.StatusForbidden).
		WithDetails(QuotaDetails{Used: used, Limit: limit})
}

// ErrDatabase wraps a store failure.
func ErrDatabase(err error, domain string) *AppError {
	return Wrap(err, CodeDatabaseError, domain, "Database operation failed", http.StatusInternalServerError)
}

var ErrInvalidCredentials = New(
	CodeInvalidCredentials,
	"auth",
	"Invalid email or password",
	http.StatusUnauthorized,
)
