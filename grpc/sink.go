package grpc

import (
	"context"
	"estate-desk/contract"
	"estate-desk/domain/event"
)

var _ contract.EventSink = (*Sink)(nil)

// Sink is the registry side of one Watch stream.
type Sink struct {
	ConnectedUserEvent chan event.DomainEvent
}

func NewGrpcSink(bufferSize int) *Sink {
	return &Sink{ConnectedUserEvent: make(chan event.DomainEvent, bufferSize)}
}

// Consume is called by fanout.
// Redirect the event through the concerned owner of the channel,
// the gRPC handler will take it from now.
// A full buffer blocks until the fanout gives up, watchers then rely on polling.
func (s *Sink) Consume(ctx context.Context, e event.DomainEvent) error {
	select {
	case s.ConnectedUserEvent <- e:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
