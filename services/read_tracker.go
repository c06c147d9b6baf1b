package services

import (
	"context"
	"estate-desk/contract"
	"estate-desk/domain"
	"estate-desk/domain/event"
	"estate-desk/repositories"
	"log/slog"
	"time"
)

// ReadTracker flips the read flag of a conversation for one reader.
type ReadTracker struct {
	log       *slog.Logger
	messages  repositories.IMessageRepository
	publisher contract.EventPublisher
	now       func() time.Time
}

func NewReadTracker(log *slog.Logger, messages repositories.IMessageRepository,
	publisher contract.EventPublisher) *ReadTracker {
	return &ReadTracker{log: log, messages: messages, publisher: publisher, now: time.Now}
}

// MarkRead marks every message of the conversation addressed to self as read
// and returns how many were flipped. Calling it twice returns 0 the second time.
func (r *ReadTracker) MarkRead(ctx context.Context, self, other, propertyID string) (int, error) {
	selection := domain.NewSelection(self, other, propertyID)
	count, err := r.messages.MarkRead(ctx, selection.Self, selection.Key())
	if err != nil {
		return 0, err
	}
	if count == 0 {
		return 0, nil
	}

	r.log.Debug("Messages marked as read", "reader", selection.Self, "conversation", selection.Key().String(), "count", count)
	r.publisher.Publish(event.MessagesRead{
		Key:    selection.Key(),
		Reader: selection.Self,
		Count:  count,
		At:     r.now().UTC(),
	})
	return count, nil
}
