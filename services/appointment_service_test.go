package services

import (
	"context"
	"estate-desk/domain"
	"estate-desk/domain/event"
	"estate-desk/errors"
	"estate-desk/mocks"
	"estate-desk/repositories"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func newBadgerAppointmentService(t *testing.T) (*AppointmentService, *recordingPublisher) {
	t.Helper()
	ctx := context.Background()
	db := openDB(t)
	directory := repositories.NewDirectoryRepository(db)
	putListing(t, ctx, directory)
	publisher := &recordingPublisher{}
	svc := NewAppointmentService(slog.Default(), repositories.NewAppointmentRepository(db, slog.Default()), directory, publisher)
	svc.now = func() time.Time { return fixed }
	return svc, publisher
}

func TestAppointmentService_Reject_Needs_A_Reason_Then_Is_Terminal(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	svc, publisher := newBadgerAppointmentService(t)

	// Given a pending appointment
	appointment, err := svc.Create(ctx, client, createCommand())
	req.NoError(err)
	req.Equal(domain.StatusPending, appointment.Status)
	req.Equal(time.Date(2025, 4, 1, 15, 0, 0, 0, time.UTC), appointment.DateTime)
	id := appointment.ID.String()

	// When the agent rejects without a reason
	_, err = svc.Transition(ctx, agent, domain.TransitionAppointmentCommand{AppointmentID: id, Status: domain.StatusRejected})

	// Then it fails and nothing changed
	req.ErrorIs(err, errors.ErrMissingReason)
	list, err := svc.ListForRole(ctx, "client@x.com", domain.AsClient)
	req.NoError(err)
	req.Len(list, 1)
	req.Equal(domain.StatusPending, list[0].Status)

	// When the agent rejects with a reason
	rejected, err := svc.Transition(ctx, agent, domain.TransitionAppointmentCommand{AppointmentID: id, Status: domain.StatusRejected, Comment: "Unavailable"})
	req.NoError(err)
	req.Equal(domain.StatusRejected, rejected.Status)
	req.Equal("Unavailable", rejected.Comment)

	// Then the appointment never leaves REJECTED
	_, err = svc.Transition(ctx, client, domain.TransitionAppointmentCommand{AppointmentID: id, Status: domain.StatusCancelled, Comment: "Changed my mind"})
	req.ErrorIs(err, errors.ErrInvalidTransition)

	events := publisher.Events()
	req.Len(events, 2)
	req.Equal(domain.StatusPending, events[0].(event.AppointmentChanged).Appointment.Status)
	req.Equal(domain.StatusRejected, events[1].(event.AppointmentChanged).Appointment.Status)
}

func TestAppointmentService_Approve_Then_Cancel(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	svc, _ := newBadgerAppointmentService(t)

	appointment, err := svc.Create(ctx, agent, createCommand())
	req.NoError(err)
	id := appointment.ID.String()

	approved, err := svc.Transition(ctx, agent, domain.TransitionAppointmentCommand{AppointmentID: id, Status: domain.StatusApproved, Comment: "See you there"})
	req.NoError(err)
	req.Equal(domain.StatusApproved, approved.Status)

	_, err = svc.Transition(ctx, client, domain.TransitionAppointmentCommand{AppointmentID: id, Status: domain.StatusCancelled})
	req.ErrorIs(err, errors.ErrMissingReason)

	cancelled, err := svc.Transition(ctx, client, domain.TransitionAppointmentCommand{AppointmentID: id, Status: domain.StatusCancelled, Comment: "Found another place"})
	req.NoError(err)
	req.Equal(domain.StatusCancelled, cancelled.Status)
	req.Equal("Found another place", cancelled.Comment)

	byAgent, err := svc.ListForRole(ctx, "AGENT@x.com", domain.AsAgent)
	req.NoError(err)
	req.Len(byAgent, 1)
	req.Equal(domain.StatusCancelled, byAgent[0].Status)
}

func TestAppointmentService_Create_Is_Idempotent(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	svc, publisher := newBadgerAppointmentService(t)
	cmd := createCommand()
	cmd.IdempotencyKey = "booking-42"

	first, err := svc.Create(ctx, client, cmd)
	req.NoError(err)
	second, err := svc.Create(ctx, client, cmd)
	req.NoError(err)

	req.Equal(first.ID, second.ID)
	req.Len(publisher.Events(), 1)
	list, err := svc.ListForRole(ctx, "client@x.com", domain.AsClient)
	req.NoError(err)
	req.Len(list, 1)
}

func TestAppointmentService_Create_Rejections(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	ctx := context.Background()

	appointments := mocks.NewMockIAppointmentRepository(ctrl)
	directory := mocks.NewMockIDirectoryRepository(ctrl)
	publisher := mocks.NewMockEventPublisher(ctrl)
	svc := NewAppointmentService(slog.Default(), appointments, directory, publisher)

	// The store is never reached for a rejected request
	appointments.EXPECT().Create(gomock.Any(), gomock.Any()).Times(0)
	publisher.EXPECT().Publish(gomock.Any()).Times(0)

	tests := []struct {
		name      string
		principal domain.Principal
		mutate    func(cmd *domain.CreateAppointmentCommand)
		expected  error
	}{
		{"Zero date time", client, func(cmd *domain.CreateAppointmentCommand) { cmd.DateTime = time.Time{} }, errors.ErrInvalidDateTime},
		{"Invalid client email", client, func(cmd *domain.CreateAppointmentCommand) { cmd.ClientEmail = "nope" }, errors.ErrInvalidRequest},
		{"Agent is the client", agent, func(cmd *domain.CreateAppointmentCommand) { cmd.ClientEmail = "AGENT@x.com" }, errors.ErrInvalidRequest},
		{"Missing property", client, func(cmd *domain.CreateAppointmentCommand) { cmd.PropertyID = "  " }, errors.ErrInvalidRequest},
		{"Not a party", other, func(cmd *domain.CreateAppointmentCommand) {}, errors.ErrForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := require.New(t)
			cmd := createCommand()
			tt.mutate(&cmd)

			_, err := svc.Create(ctx, tt.principal, cmd)

			req.ErrorIs(err, tt.expected)
		})
	}
}

func TestAppointmentService_Create_Unknown_Property(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	appointments := mocks.NewMockIAppointmentRepository(ctrl)
	directory := mocks.NewMockIDirectoryRepository(ctrl)
	publisher := mocks.NewMockEventPublisher(ctrl)
	svc := NewAppointmentService(slog.Default(), appointments, directory, publisher)

	directory.EXPECT().GetListing(gomock.Any(), "P1").Return(domain.Listing{}, errors.ErrPropertyNotFound).Times(1)
	appointments.EXPECT().Create(gomock.Any(), gomock.Any()).Times(0)

	_, err := svc.Create(context.Background(), client, createCommand())

	req.ErrorIs(err, errors.ErrPropertyNotFound)
}

func TestAppointmentService_Transition_Role_Checks(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	ctx := context.Background()

	appointments := mocks.NewMockIAppointmentRepository(ctrl)
	publisher := mocks.NewMockEventPublisher(ctrl)
	svc := NewAppointmentService(slog.Default(), appointments, mocks.NewMockIDirectoryRepository(ctrl), publisher)
	svc.now = func() time.Time { return fixed }

	pending := domain.Appointment{
		ID:          uuid.Must(uuid.NewV7()),
		PropertyID:  "P1",
		AgentEmail:  "agent@x.com",
		ClientEmail: "client@x.com",
		Status:      domain.StatusPending,
	}
	rejected := pending
	rejected.ID = uuid.Must(uuid.NewV7())
	rejected.Status = domain.StatusRejected
	rejected.Comment = "Not available"
	stored := map[uuid.UUID]domain.Appointment{pending.ID: pending, rejected.ID: rejected}

	// The repository applies the update func on the stored appointment
	appointments.EXPECT().Update(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, id uuid.UUID, fn repositories.UpdateFunc) (domain.Appointment, error) {
			return fn(stored[id])
		}).AnyTimes()
	publisher.EXPECT().Publish(gomock.Any()).AnyTimes()

	tests := []struct {
		name        string
		appointment domain.Appointment
		principal   domain.Principal
		status      domain.AppointmentStatus
		expected    error
	}{
		{"Agent approves", pending, agent, domain.StatusApproved, nil},
		{"Client cannot approve", pending, client, domain.StatusApproved, errors.ErrForbidden},
		{"Client cannot reject", pending, client, domain.StatusRejected, errors.ErrForbidden},
		{"Agent rejects", pending, agent, domain.StatusRejected, nil},
		{"Client cancels", pending, client, domain.StatusCancelled, nil},
		{"Agent cancels", pending, agent, domain.StatusCancelled, nil},
		{"Stranger cannot cancel", pending, other, domain.StatusCancelled, errors.ErrForbidden},
		{"Nobody goes back to pending", pending, agent, domain.StatusPending, errors.ErrInvalidTransition},
		{"Client cannot approve a rejected viewing", rejected, client, domain.StatusApproved, errors.ErrInvalidTransition},
		{"Client cannot reject a rejected viewing", rejected, client, domain.StatusRejected, errors.ErrInvalidTransition},
		{"Agent cannot approve a rejected viewing", rejected, agent, domain.StatusApproved, errors.ErrInvalidTransition},
		{"Client cannot cancel a rejected viewing", rejected, client, domain.StatusCancelled, errors.ErrInvalidTransition},
		{"Stranger still gets forbidden on a rejected viewing", rejected, other, domain.StatusApproved, errors.ErrForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := require.New(t)
			updated, err := svc.Transition(ctx, tt.principal, domain.TransitionAppointmentCommand{
				AppointmentID: tt.appointment.ID.String(),
				Status:        tt.status,
				Comment:       "Because",
			})
			if tt.expected != nil {
				req.ErrorIs(err, tt.expected)
				return
			}
			req.NoError(err)
			req.Equal(tt.status, updated.Status)
			req.Equal(fixed, updated.UpdatedAt)
		})
	}
}

func TestAppointmentService_Transition_Bad_Requests(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	appointments := mocks.NewMockIAppointmentRepository(ctrl)
	svc := NewAppointmentService(slog.Default(), appointments, mocks.NewMockIDirectoryRepository(ctrl), mocks.NewMockEventPublisher(ctrl))
	appointments.EXPECT().Update(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

	_, err := svc.Transition(context.Background(), agent, domain.TransitionAppointmentCommand{AppointmentID: "not-a-uuid", Status: domain.StatusApproved})
	req.ErrorIs(err, errors.ErrInvalidRequest)

	_, err = svc.Transition(context.Background(), agent, domain.TransitionAppointmentCommand{AppointmentID: uuid.NewString(), Status: "ARCHIVED"})
	req.ErrorIs(err, errors.ErrUnknownStatus)
}

func TestAppointmentService_Transition_Unknown_Appointment(t *testing.T) {
	req := require.New(t)
	svc, _ := newBadgerAppointmentService(t)

	_, err := svc.Transition(context.Background(), agent, domain.TransitionAppointmentCommand{
		AppointmentID: uuid.NewString(),
		Status:        domain.StatusApproved,
	})

	req.ErrorIs(err, errors.ErrAppointmentNotFound)
}

func TestAppointmentService_ListForRole_Unknown_Role(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	svc := NewAppointmentService(slog.Default(), mocks.NewMockIAppointmentRepository(ctrl),
		mocks.NewMockIDirectoryRepository(ctrl), mocks.NewMockEventPublisher(ctrl))

	_, err := svc.ListForRole(context.Background(), "a@x.com", "OWNER")

	req.ErrorIs(err, errors.ErrUnknownRole)
}
