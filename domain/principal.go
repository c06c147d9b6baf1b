package domain

import (
	"estate-desk/errors"
	"fmt"
	"strings"
)

// Role is the account role of a participant.
type Role string

const (
	RoleOwner   Role = "OWNER"
	RoleAgent   Role = "AGENT"
	RoleVisitor Role = "VISITOR"
)

func ParseRole(s string) (Role, error) {
	role := Role(strings.ToUpper(strings.TrimSpace(s)))
	switch role {
	case RoleOwner, RoleAgent, RoleVisitor:
		return role, nil
	}
	return "", fmt.Errorf("%w: %q", errors.ErrUnknownRole, s)
}

// AppointmentRole selects which side of an appointment is listed.
type AppointmentRole string

const (
	AsClient AppointmentRole = "CLIENT"
	AsAgent  AppointmentRole = "AGENT"
)

func ParseAppointmentRole(s string) (AppointmentRole, error) {
	role := AppointmentRole(strings.ToUpper(strings.TrimSpace(s)))
	switch role {
	case AsClient, AsAgent:
		return role, nil
	}
	return "", fmt.Errorf("%w: %q", errors.ErrUnknownRole, s)
}

// Principal is the authenticated identity every operation is scoped to.
type Principal struct {
	Email string
	Role  Role
}
