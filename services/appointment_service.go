//go:generate go run go.uber.org/mock/mockgen -source=appointment_service.go -destination=../mocks/mock_appointment_service.go -package=mocks
package services

import (
	"context"
	"estate-desk/contract"
	"estate-desk/domain"
	"estate-desk/domain/event"
	"estate-desk/errors"
	"estate-desk/repositories"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
)

type IAppointmentService interface {
	Create(ctx context.Context, principal domain.Principal, cmd domain.CreateAppointmentCommand) (domain.Appointment, error)
	Transition(ctx context.Context, principal domain.Principal, cmd domain.TransitionAppointmentCommand) (domain.Appointment, error)
	ListForRole(ctx context.Context, email string, role domain.AppointmentRole) ([]domain.Appointment, error)
}

// AppointmentService is the only writer of appointments.
// Failures are returned to the caller, nothing is retried here.
type AppointmentService struct {
	log          *slog.Logger
	appointments repositories.IAppointmentRepository
	directory    repositories.IDirectoryRepository
	publisher    contract.EventPublisher
	now          func() time.Time
}

func NewAppointmentService(log *slog.Logger,
	appointments repositories.IAppointmentRepository,
	directory repositories.IDirectoryRepository,
	publisher contract.EventPublisher) *AppointmentService {
	return &AppointmentService{
		log:          log,
		appointments: appointments,
		directory:    directory,
		publisher:    publisher,
		now:          time.Now,
	}
}

// Create books a viewing. The appointment starts PENDING.
// Replaying the same idempotency key returns the first appointment untouched.
func (s *AppointmentService) Create(ctx context.Context, principal domain.Principal,
	cmd domain.CreateAppointmentCommand) (domain.Appointment, error) {
	cmd.PropertyID = strings.TrimSpace(cmd.PropertyID)
	cmd.AgentEmail = domain.NormalizeEmail(cmd.AgentEmail)
	cmd.ClientEmail = domain.NormalizeEmail(cmd.ClientEmail)
	cmd.ClientName = strings.TrimSpace(cmd.ClientName)
	cmd.Comment = strings.TrimSpace(cmd.Comment)
	cmd.IdempotencyKey = strings.TrimSpace(cmd.IdempotencyKey)

	// 1. Shape of the request, no store access yet
	if err := validateCommand(cmd); err != nil {
		return domain.Appointment{}, err
	}
	if cmd.DateTime.IsZero() {
		return domain.Appointment{}, errors.ErrInvalidDateTime
	}

	// 2. Only one of the two parties may book
	principalEmail := domain.NormalizeEmail(principal.Email)
	if principalEmail != cmd.AgentEmail && principalEmail != cmd.ClientEmail {
		return domain.Appointment{}, fmt.Errorf("%w: %s is not a party of the appointment",
			errors.ErrForbidden, principalEmail)
	}

	// 3. The listing must exist
	if _, err := s.directory.GetListing(ctx, cmd.PropertyID); err != nil {
		return domain.Appointment{}, err
	}

	now := s.now().UTC()
	appointment := domain.Appointment{
		ID:             uuid.Must(uuid.NewV7()),
		PropertyID:     cmd.PropertyID,
		AgentEmail:     cmd.AgentEmail,
		ClientEmail:    cmd.ClientEmail,
		ClientName:     cmd.ClientName,
		DateTime:       domain.NormalizeDateTime(cmd.DateTime),
		Status:         domain.StatusPending,
		Comment:        cmd.Comment,
		IdempotencyKey: cmd.IdempotencyKey,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	stored, created, err := s.appointments.Create(ctx, appointment)
	if err != nil {
		return domain.Appointment{}, err
	}
	if !created {
		s.log.Debug("Appointment replayed", "id", stored.ID, "idempotency_key", cmd.IdempotencyKey)
		return stored, nil
	}

	s.log.Info("Appointment created", "id", stored.ID, "property_id", stored.PropertyID)
	s.publisher.Publish(event.AppointmentChanged{Appointment: stored})
	return stored, nil
}

// Transition moves an appointment to its next status.
// The check and the write happen in the same store transaction.
func (s *AppointmentService) Transition(ctx context.Context, principal domain.Principal,
	cmd domain.TransitionAppointmentCommand) (domain.Appointment, error) {
	if err := validateCommand(cmd); err != nil {
		return domain.Appointment{}, err
	}
	id, err := uuid.Parse(cmd.AppointmentID)
	if err != nil {
		return domain.Appointment{}, fmt.Errorf("%w: %v", errors.ErrInvalidRequest, err)
	}
	next, err := domain.ParseStatus(string(cmd.Status))
	if err != nil {
		return domain.Appointment{}, err
	}

	updated, err := s.appointments.Update(ctx, id, func(current domain.Appointment) (domain.Appointment, error) {
		if err := authorizeTransition(principal, current, next); err != nil {
			return domain.Appointment{}, err
		}
		return current.Transition(next, cmd.Comment, s.now().UTC())
	})
	if err != nil {
		return domain.Appointment{}, err
	}

	s.log.Info("Appointment transitioned", "id", updated.ID, "status", updated.Status)
	s.publisher.Publish(event.AppointmentChanged{Appointment: updated})
	return updated, nil
}

// authorizeTransition: the agent decides, either party can cancel.
// Parties asking for an impossible move learn about the status first.
func authorizeTransition(principal domain.Principal, appointment domain.Appointment, next domain.AppointmentStatus) error {
	email := domain.NormalizeEmail(principal.Email)
	switch {
	case !appointment.IsParty(email):
		return fmt.Errorf("%w: %s is not a party of appointment %s", errors.ErrForbidden, email, appointment.ID)
	case !appointment.Status.CanTransitionTo(next):
		return fmt.Errorf("%w: %s -> %s", errors.ErrInvalidTransition, appointment.Status, next)
	case next == domain.StatusCancelled:
		return nil
	case email != appointment.AgentEmail:
		return fmt.Errorf("%w: only the agent can set %s", errors.ErrForbidden, next)
	}
	return nil
}

// ListForRole lists the appointments where email plays role, most recent viewing first.
func (s *AppointmentService) ListForRole(ctx context.Context, email string,
	role domain.AppointmentRole) ([]domain.Appointment, error) {
	email = domain.NormalizeEmail(email)
	switch role {
	case domain.AsClient:
		return s.appointments.ListByClient(ctx, email)
	case domain.AsAgent:
		return s.appointments.ListByAgent(ctx, email)
	}
	return nil, fmt.Errorf("%w: %q", errors.ErrUnknownRole, role)
}
