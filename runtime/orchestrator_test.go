package runtime_test

import (
	"context"
	"estate-desk/domain"
	"estate-desk/domain/event"
	"estate-desk/observability"
	"estate-desk/runtime"
	"estate-desk/runtime/workers"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

type RecordingSink struct {
	mu     sync.Mutex
	events []event.DomainEvent
}

func (s *RecordingSink) Consume(_ context.Context, e event.DomainEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, e)
	return nil
}

func (s *RecordingSink) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.events)
}

func newOrchestrator(bufferSize int) (*runtime.Orchestrator, *observability.MonitoringManager) {
	log := slog.Default()
	monitoring := observability.NewMonitoringManager(log, time.Minute)
	return runtime.NewOrchestrator(log, workers.NewSupervisor(log), runtime.NewRegistry(),
		monitoring, bufferSize, 100*time.Millisecond), monitoring
}

func Test_Orchestrator_Delivers_Events_To_Recipients_Only(t *testing.T) {
	req := require.New(t)
	orchestrator, monitoring := newOrchestrator(10)

	sender, receiver, stranger, audit := &RecordingSink{}, &RecordingSink{}, &RecordingSink{}, &RecordingSink{}
	orchestrator.Add(audit)
	orchestrator.RegisterParticipant("u1@x.com", sender)
	orchestrator.RegisterParticipant("u2@x.com", receiver)
	orchestrator.RegisterParticipant("u3@x.com", stranger)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = orchestrator.Start(ctx)
		close(done)
	}()

	// When a message between u1 and u2 is published
	orchestrator.Publish(event.MessageSent{Message: domain.Message{
		ID:            uuid.Must(uuid.NewV7()),
		Content:       "hello",
		SenderEmail:   "u1@x.com",
		ReceiverEmail: "u2@x.com",
		PropertyID:    "P1",
		SentAt:        time.Now().UTC(),
	}})

	// Then both parties and the permanent sink get it
	req.Eventually(func() bool {
		return sender.Len() == 1 && receiver.Len() == 1 && audit.Len() == 1
	}, time.Second, 5*time.Millisecond)
	req.Zero(stranger.Len())
	req.Equal(uint64(1), monitoring.GetLatest().EventsPublished)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		req.Fail("Orchestrator should stop when its context is canceled")
	}
}

func Test_Orchestrator_Publish_Never_Blocks(t *testing.T) {
	req := require.New(t)
	orchestrator, monitoring := newOrchestrator(1)

	// Given the pipeline is not started, the channel fills up
	evt := event.MessagesRead{Key: domain.NewConversationKey("a@x.com", "b@x.com", "P1"), Reader: "a@x.com", Count: 1}
	orchestrator.Publish(evt)
	orchestrator.Publish(evt)
	orchestrator.Publish(evt)

	stats := monitoring.GetLatest()
	req.Equal(uint64(1), stats.EventsPublished)
	req.Equal(uint64(2), stats.EventsDropped)
}
