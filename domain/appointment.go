// Package domain contains core concepts of the viewing desk.
// This file defines appointments and the rules of their lifecycle.
// No runtime, network, or storage logic should be added here.
package domain

import (
	"estate-desk/errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

type AppointmentStatus string

const (
	StatusPending   AppointmentStatus = "PENDING"
	StatusApproved  AppointmentStatus = "APPROVED"
	StatusRejected  AppointmentStatus = "REJECTED"
	StatusCancelled AppointmentStatus = "CANCELLED"
)

// transitions lists, for each status, the statuses it may move to.
// Terminal statuses have no entry.
var transitions = map[AppointmentStatus][]AppointmentStatus{
	StatusPending:  {StatusApproved, StatusRejected, StatusCancelled},
	StatusApproved: {StatusCancelled},
}

func ParseStatus(s string) (AppointmentStatus, error) {
	status := AppointmentStatus(strings.ToUpper(strings.TrimSpace(s)))
	switch status {
	case StatusPending, StatusApproved, StatusRejected, StatusCancelled:
		return status, nil
	}
	return "", fmt.Errorf("%w: %q", errors.ErrUnknownStatus, s)
}

// IsTerminal reports whether no transition may leave the status.
func (s AppointmentStatus) IsTerminal() bool {
	return s == StatusRejected || s == StatusCancelled
}

// RequiresReason reports whether entering the status needs a comment.
func (s AppointmentStatus) RequiresReason() bool {
	return s == StatusRejected || s == StatusCancelled
}

func (s AppointmentStatus) CanTransitionTo(next AppointmentStatus) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Appointment is a property viewing booked between an agent and a client.
type Appointment struct {
	ID             uuid.UUID
	PropertyID     string
	AgentEmail     string
	ClientEmail    string
	ClientName     string
	DateTime       time.Time
	Status         AppointmentStatus
	Comment        string
	IdempotencyKey string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Transition applies a status change and returns the updated appointment.
// The receiver is left untouched so that a failed transition leaves no partial update.
//
// The transition table is checked before the reason so that a terminal
// appointment always answers ErrInvalidTransition.
func (a Appointment) Transition(next AppointmentStatus, comment string, at time.Time) (Appointment, error) {
	if !a.Status.CanTransitionTo(next) {
		return Appointment{}, fmt.Errorf("%w: %s -> %s", errors.ErrInvalidTransition, a.Status, next)
	}
	comment = strings.TrimSpace(comment)
	if next.RequiresReason() && comment == "" {
		return Appointment{}, fmt.Errorf("%w: status %s", errors.ErrMissingReason, next)
	}
	a.Status = next
	if comment != "" {
		a.Comment = comment
	}
	a.UpdatedAt = at
	return a, nil
}

// IsParty reports whether the email is the agent or the client of the appointment.
func (a Appointment) IsParty(email string) bool {
	return a.AgentEmail == email || a.ClientEmail == email
}

// NormalizeDateTime keeps minute precision in UTC.
func NormalizeDateTime(t time.Time) time.Time {
	return t.UTC().Truncate(time.Minute)
}

// NormalizeEmail is applied to every email entering the domain.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
