// Package runtime handles event propagation and the client side synchronization loop.
// It orchestrates the system without containing business logic or domain rules.
package runtime

import (
	"context"
	"estate-desk/contract"
	"estate-desk/domain/event"
	"estate-desk/observability"
	"estate-desk/runtime/workers"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

var _ contract.EventPublisher = (*Orchestrator)(nil)

// Orchestrator owns the server side event pipeline:
// services publish, the fanout worker delivers to the watchers of each recipient.
type Orchestrator struct {
	mu             sync.Mutex
	log            *slog.Logger
	permanentSinks []contract.EventSink
	supervisor     contract.ISupervisor
	registry       contract.IRegistry
	domainEvents   chan event.DomainEvent
	sinkTimeout    time.Duration
	monitoring     *observability.MonitoringManager
}

func NewOrchestrator(log *slog.Logger, supervisor *workers.Supervisor,
	registry *Registry, monitoring *observability.MonitoringManager,
	bufferSize int, sinkTimeout time.Duration) *Orchestrator {
	return &Orchestrator{
		log:          log,
		supervisor:   supervisor,
		registry:     registry,
		domainEvents: make(chan event.DomainEvent, bufferSize),
		sinkTimeout:  sinkTimeout,
		monitoring:   monitoring,
	}
}

// Add registers sinks receiving every event, whoever the recipients are.
// Must be called before Start.
func (o *Orchestrator) Add(sinks ...contract.EventSink) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.permanentSinks = append(o.permanentSinks, sinks...)
}

// Publish never blocks: when the pipeline is full the event is dropped,
// watchers catch up on their next poll.
func (o *Orchestrator) Publish(evt event.DomainEvent) {
	select {
	case o.domainEvents <- evt:
		o.monitoring.IncrEventsPublished()
	default:
		o.monitoring.IncrEventsDropped()
		o.log.Warn(fmt.Sprintf("Domain event channel full, dropping %T", evt))
	}
}

// RegisterParticipant connects a stream, the returned func disconnects it.
func (o *Orchestrator) RegisterParticipant(email string, sink contract.EventSink) func() {
	return o.registry.Subscribe(email, sink)
}

// Start registers the fanout and the monitoring workers then blocks until ctx is done.
func (o *Orchestrator) Start(ctx context.Context) error {
	o.mu.Lock()
	sinks := append([]contract.EventSink{}, o.permanentSinks...)
	o.supervisor.Add(
		workers.NewEventFanout(o.log, sinks, o.registry, o.domainEvents, o.sinkTimeout, o.monitoring),
		o.monitoring,
	)
	o.mu.Unlock()

	o.log.Info("Starting orchestrator and all supervised workers")
	o.supervisor.Run(ctx)
	return nil
}

// Stop cancels the supervised context, workers drain and return.
func (o *Orchestrator) Stop() {
	o.log.Info("Requesting orchestrator shutdown")
	o.supervisor.Stop()
}
