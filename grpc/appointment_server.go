package grpc

import (
	"context"
	"estate-desk/auth"
	"estate-desk/domain"
	"estate-desk/errors"
	"estate-desk/services"
	"log/slog"

	"github.com/samber/lo"
)

var _ AppointmentServiceServer = (*AppointmentServer)(nil)

// AppointmentServer exposes the lifecycle controller to the principal of each call.
type AppointmentServer struct {
	log     *slog.Logger
	service services.IAppointmentService
}

func NewAppointmentServer(log *slog.Logger, service services.IAppointmentService) *AppointmentServer {
	return &AppointmentServer{log: log, service: service}
}

func (s *AppointmentServer) Create(ctx context.Context, req *CreateAppointmentRequest) (*Appointment, error) {
	principal, err := auth.PrincipalFrom(ctx)
	if err != nil {
		return nil, errors.MapToGRPCError(err)
	}
	appointment, err := s.service.Create(ctx, principal, domain.CreateAppointmentCommand{
		PropertyID:     req.PropertyID,
		AgentEmail:     req.AgentEmail,
		ClientEmail:    req.ClientEmail,
		ClientName:     req.ClientName,
		DateTime:       req.DateTime,
		Comment:        req.Comment,
		IdempotencyKey: req.IdempotencyKey,
	})
	if err != nil {
		s.log.Debug("Create appointment refused", "principal", principal.Email, "error", err)
		return nil, errors.MapToGRPCError(err)
	}
	return lo.ToPtr(toAppointment(appointment)), nil
}

func (s *AppointmentServer) Transition(ctx context.Context, req *TransitionAppointmentRequest) (*Appointment, error) {
	principal, err := auth.PrincipalFrom(ctx)
	if err != nil {
		return nil, errors.MapToGRPCError(err)
	}
	appointment, err := s.service.Transition(ctx, principal, domain.TransitionAppointmentCommand{
		AppointmentID: req.AppointmentID,
		Status:        domain.AppointmentStatus(req.Status),
		Comment:       req.Comment,
	})
	if err != nil {
		s.log.Debug("Transition refused", "principal", principal.Email, "appointment_id", req.AppointmentID, "error", err)
		return nil, errors.MapToGRPCError(err)
	}
	return lo.ToPtr(toAppointment(appointment)), nil
}

// List returns the appointments of the caller, a principal never lists someone else's.
func (s *AppointmentServer) List(ctx context.Context, req *ListAppointmentsRequest) (*ListAppointmentsResponse, error) {
	principal, err := auth.PrincipalFrom(ctx)
	if err != nil {
		return nil, errors.MapToGRPCError(err)
	}
	role, err := domain.ParseAppointmentRole(req.Role)
	if err != nil {
		return nil, errors.MapToGRPCError(err)
	}
	appointments, err := s.service.ListForRole(ctx, principal.Email, role)
	if err != nil {
		return nil, errors.MapToGRPCError(err)
	}
	return &ListAppointmentsResponse{
		Appointments: lo.Map(appointments, func(item domain.Appointment, _ int) Appointment {
			return toAppointment(item)
		}),
	}, nil
}
