package errors

import "fmt"

var (
	ErrWorkerPanic = fmt.Errorf("worker panic")

	// Appointment lifecycle
	ErrInvalidTransition   = fmt.Errorf("invalid appointment status transition")
	ErrMissingReason       = fmt.Errorf("a reason is required to reject or cancel an appointment")
	ErrInvalidDateTime     = fmt.Errorf("appointment date time is not a valid instant")
	ErrAppointmentNotFound = fmt.Errorf("appointment not found")
	ErrPropertyNotFound    = fmt.Errorf("property not found")
	ErrUnknownStatus       = fmt.Errorf("unknown appointment status")
	ErrUnknownRole         = fmt.Errorf("unknown role")

	// Messaging
	ErrEmptyMessageContent  = fmt.Errorf("message content is empty")
	ErrSelfConversation     = fmt.Errorf("sender and receiver must be different participants")
	ErrNoActiveConversation = fmt.Errorf("no conversation is selected")
	ErrProfileNotFound      = fmt.Errorf("profile not found")
	ErrSyncNotStarted       = fmt.Errorf("synchronizer is not started")

	// Access
	ErrForbidden       = fmt.Errorf("principal is not allowed to perform this action")
	ErrUnauthenticated = fmt.Errorf("principal is missing")
	ErrInvalidRequest  = fmt.Errorf("invalid request")
)
