package runtime

import (
	"context"
	"estate-desk/domain/event"
	"fmt"
	"log/slog"
)

// AuditSink writes every domain event to the log.
type AuditSink struct {
	log *slog.Logger
}

func NewAuditSink(log *slog.Logger) *AuditSink {
	return &AuditSink{log: log}
}

func (s *AuditSink) Consume(_ context.Context, e event.DomainEvent) error {
	switch evt := e.(type) {
	case event.MessageSent:
		s.log.Info("Message sent",
			"id", evt.Message.ID,
			"property_id", evt.Message.PropertyID,
			"sender", evt.Message.SenderEmail,
			"receiver", evt.Message.ReceiverEmail)
	case event.MessagesRead:
		s.log.Info("Messages read",
			"conversation", evt.Key.String(),
			"reader", evt.Reader,
			"count", evt.Count)
	case event.AppointmentChanged:
		s.log.Info("Appointment changed",
			"id", evt.Appointment.ID,
			"property_id", evt.Appointment.PropertyID,
			"status", evt.Appointment.Status)
	default:
		s.log.Debug(fmt.Sprintf("Unknown domain event %T", e))
	}
	return nil
}
