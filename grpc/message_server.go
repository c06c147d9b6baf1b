package grpc

import (
	"context"
	"estate-desk/auth"
	"estate-desk/contract"
	"estate-desk/domain"
	"estate-desk/domain/event"
	"estate-desk/errors"
	"estate-desk/observability"
	"estate-desk/services"
	"log/slog"

	"github.com/samber/lo"
)

var _ MessageServiceServer = (*MessageServer)(nil)

// ParticipantRegistry connects a Watch stream to the event fanout.
type ParticipantRegistry interface {
	RegisterParticipant(email string, sink contract.EventSink) func()
}

// MessageServer scopes every conversation call to the principal:
// self is always the authenticated email, never a request field.
type MessageServer struct {
	log                  *slog.Logger
	service              services.IMessageService
	registry             ParticipantRegistry
	monitoring           *observability.MonitoringManager
	connectionBufferSize int
}

func NewMessageServer(log *slog.Logger, service services.IMessageService, registry ParticipantRegistry,
	monitoring *observability.MonitoringManager, connectionBufferSize int) *MessageServer {
	return &MessageServer{
		log:                  log,
		service:              service,
		registry:             registry,
		monitoring:           monitoring,
		connectionBufferSize: connectionBufferSize,
	}
}

func (s *MessageServer) ListConversations(ctx context.Context, _ *ListConversationsRequest) (*ListConversationsResponse, error) {
	principal, err := auth.PrincipalFrom(ctx)
	if err != nil {
		return nil, errors.MapToGRPCError(err)
	}
	conversations, err := s.service.GetConversationsForUser(ctx, principal.Email)
	if err != nil {
		return nil, errors.MapToGRPCError(err)
	}
	return &ListConversationsResponse{
		Conversations: lo.Map(conversations, func(item domain.Conversation, _ int) Conversation {
			return toConversation(item)
		}),
	}, nil
}

func (s *MessageServer) GetMessages(ctx context.Context, req *ConversationRequest) (*GetMessagesResponse, error) {
	principal, err := auth.PrincipalFrom(ctx)
	if err != nil {
		return nil, errors.MapToGRPCError(err)
	}
	messages, err := s.service.GetMessages(ctx, domain.NewSelection(principal.Email, req.Other, req.PropertyID))
	if err != nil {
		return nil, errors.MapToGRPCError(err)
	}
	return &GetMessagesResponse{Messages: toMessages(messages)}, nil
}

func (s *MessageServer) SendMessage(ctx context.Context, req *SendMessageRequest) (*Message, error) {
	principal, err := auth.PrincipalFrom(ctx)
	if err != nil {
		return nil, errors.MapToGRPCError(err)
	}
	message, err := s.service.SendMessage(ctx, domain.SendMessageCommand{
		Content:       req.Content,
		SenderEmail:   principal.Email,
		ReceiverEmail: req.ReceiverEmail,
		PropertyID:    req.PropertyID,
	})
	if err != nil {
		return nil, errors.MapToGRPCError(err)
	}
	return lo.ToPtr(toMessage(message)), nil
}

func (s *MessageServer) MarkRead(ctx context.Context, req *ConversationRequest) (*MarkReadResponse, error) {
	principal, err := auth.PrincipalFrom(ctx)
	if err != nil {
		return nil, errors.MapToGRPCError(err)
	}
	count, err := s.service.MarkMessagesRead(ctx, domain.NewSelection(principal.Email, req.Other, req.PropertyID))
	if err != nil {
		return nil, errors.MapToGRPCError(err)
	}
	return &MarkReadResponse{Count: count}, nil
}

// Watch streams a hint for every event concerning the principal.
// It registers a dedicated Sink in the registry and blocks until the client disconnects.
func (s *MessageServer) Watch(_ *WatchRequest, stream WatchServer) error {
	principal, err := auth.PrincipalFrom(stream.Context())
	if err != nil {
		return errors.MapToGRPCError(err)
	}
	sink := NewGrpcSink(s.connectionBufferSize)
	unregister := s.registry.RegisterParticipant(principal.Email, sink)
	defer unregister()
	defer s.monitoring.StreamOpened()()

	s.log.Debug("Watcher connected", "principal", principal.Email)
	for {
		select {
		case <-stream.Context().Done():
			s.log.Debug("Watcher disconnected", "principal", principal.Email)
			return nil
		case evt := <-sink.ConnectedUserEvent:
			watchEvent, ok := toWatchEvent(evt)
			if !ok {
				continue
			}
			if err := stream.Send(&watchEvent); err != nil {
				s.log.Error("failed to push event to stream", "principal", principal.Email, "error", err)
				return err
			}
		}
	}
}

func toWatchEvent(evt event.DomainEvent) (WatchEvent, bool) {
	switch e := evt.(type) {
	case event.MessageSent:
		key := e.Message.Key()
		return WatchEvent{
			Kind:         KindMessageSent,
			PropertyID:   key.PropertyID,
			ParticipantA: key.ParticipantA,
			ParticipantB: key.ParticipantB,
		}, true
	case event.MessagesRead:
		return WatchEvent{
			Kind:         KindMessagesRead,
			PropertyID:   e.Key.PropertyID,
			ParticipantA: e.Key.ParticipantA,
			ParticipantB: e.Key.ParticipantB,
		}, true
	case event.AppointmentChanged:
		return WatchEvent{
			Kind:          KindAppointmentChanged,
			PropertyID:    e.Appointment.PropertyID,
			AppointmentID: e.Appointment.ID.String(),
			Status:        string(e.Appointment.Status),
		}, true
	}
	return WatchEvent{}, false
}
