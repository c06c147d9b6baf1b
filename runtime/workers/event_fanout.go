package workers

import (
	"context"
	"estate-desk/contract"
	"estate-desk/domain/event"
	"estate-desk/observability"
	"log/slog"
	"sync"
	"time"

	"github.com/samber/lo"
)

var _ contract.Worker = (*EventFanout)(nil)

// EventFanout broadcasts domain events to the sinks of their recipients.
//
// It provides best-effort fan-out with no guarantees regarding delivery,
// ordering, durability, or retries. EventFanout is not a message broker:
// watchers only get a hint that something changed and keep polling the stores.
//
// Each sink gets its own goroutine and at most sinkTimeout to consume an event,
// a slow stream never holds back the others.
type EventFanout struct {
	log            *slog.Logger
	registry       contract.IRegistry
	permanentSinks []contract.EventSink
	domainEvents   <-chan event.DomainEvent
	sinkTimeout    time.Duration
	monitoring     *observability.MonitoringManager
}

func NewEventFanout(log *slog.Logger,
	permanentSinks []contract.EventSink,
	registry contract.IRegistry,
	domainEvents <-chan event.DomainEvent,
	sinkTimeout time.Duration,
	monitoring *observability.MonitoringManager) *EventFanout {
	return &EventFanout{
		log:            log,
		registry:       registry,
		permanentSinks: permanentSinks,
		domainEvents:   domainEvents,
		sinkTimeout:    sinkTimeout,
		monitoring:     monitoring,
	}
}

func (w *EventFanout) Run(ctx context.Context) error {
	for {
		select {
		case evt, ok := <-w.domainEvents:
			if !ok {
				w.log.Debug("Domain event channel closed")
				return nil
			}
			w.Fanout(ctx, evt)
		case <-ctx.Done():
			w.log.Debug("Context done, stopping fanout")
			return nil
		}
	}
}

// Fanout delivers one event to the permanent sinks and to every sink of its recipients.
// It returns once each sink consumed the event or timed out.
func (w *EventFanout) Fanout(ctx context.Context, evt event.DomainEvent) {
	sinks := append([]contract.EventSink{}, w.permanentSinks...)
	for _, email := range lo.Uniq(evt.Recipients()) {
		sinks = append(sinks, w.registry.GetSinks(email)...)
	}

	var wg sync.WaitGroup
	for _, sink := range sinks {
		wg.Add(1)
		go func(sink contract.EventSink) {
			defer wg.Done()
			sinkCtx, cancel := context.WithTimeout(ctx, w.sinkTimeout)
			defer cancel()
			if err := sink.Consume(sinkCtx, evt); err != nil {
				w.monitoring.IncrEventsDropped()
				w.log.Debug("Sink did not consume event", "error", err)
				return
			}
			w.monitoring.IncrEventsDelivered()
		}(sink)
	}
	wg.Wait()
}
