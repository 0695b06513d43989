package dispatch

import (
	"fmt"

	"github.com/google/uuid"

	"jobbridge_backend/internal/email"
	"jobbridge_backend/internal/models"
)

// NotificationSpec is one notification to materialize for an event.
type NotificationSpec struct {
	RecipientID   string
	RecipientType models.UserRole
	Type          string
	Title         string
	Message       string
	Link          string
}

// EmailSpec is the at-most-one outbound email of an event.
type EmailSpec struct {
	To          string
	UserID      string
	Type        email.Type
	TemplateKey string
	Data        interface{}
}

// Event is a completed lifecycle transition handed to the dispatcher.
// The ID doubles as the dedupe-key prefix, so a replayed event cannot
// produce duplicate notifications.
type Event struct {
	ID            string
	Kind          string
	Notifications []NotificationSpec
	Email         *EmailSpec
}

// NewEvent creates an event with a fresh ID.
func NewEvent(kind string) *Event {
	return &Event{
		ID:   uuid.NewString(),
		Kind: kind,
	}
}

// NewEventWithID creates an event with a caller-chosen ID. Use a
// deterministic ID when the same logical event can be produced more
// than once, such as the expiry reminder sweep.
func NewEventWithID(id, kind string) *Event {
	return &Event{
		ID:   id,
		Kind: kind,
	}
}

// Notify appends a notification to the event.
func (e *Event) Notify(spec NotificationSpec) *Event {
	e.Notifications = append(e.Notifications, spec)
	return e
}

// WithEmail attaches the event's single email.
func (e *Event) WithEmail(spec EmailSpec) *Event {
	e.Email = &spec
	return e
}

// dedupeKey is unique per (event, recipient, ordinal).
func (e *Event) dedupeKey(i int) string {
	return fmt.Sprintf("%s:%d", e.ID, i)
}
