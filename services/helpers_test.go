package services

import (
	"context"
	"estate-desk/domain"
	"estate-desk/domain/event"
	"estate-desk/repositories"
	"sync"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/require"
)

var (
	agent  = domain.Principal{Email: "agent@x.com", Role: domain.RoleAgent}
	client = domain.Principal{Email: "client@x.com", Role: domain.RoleVisitor}
	other  = domain.Principal{Email: "other@x.com", Role: domain.RoleVisitor}
	loft   = domain.Listing{ID: "P1", Title: "Loft", OwnerEmail: "owner@x.com", AgentEmail: "agent@x.com"}
	fixed  = time.Date(2025, 3, 10, 9, 30, 0, 0, time.UTC)
)

func openDB(t *testing.T) *badger.DB {
	t.Helper()
	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).WithLoggingLevel(badger.ERROR))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

// recordingPublisher keeps every published event.
type recordingPublisher struct {
	mu     sync.Mutex
	events []event.DomainEvent
}

func (p *recordingPublisher) Publish(e event.DomainEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
}

func (p *recordingPublisher) Events() []event.DomainEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]event.DomainEvent{}, p.events...)
}

func createCommand() domain.CreateAppointmentCommand {
	return domain.CreateAppointmentCommand{
		PropertyID:  "P1",
		AgentEmail:  "agent@x.com",
		ClientEmail: "client@x.com",
		ClientName:  "Carla Client",
		DateTime:    time.Date(2025, 4, 1, 15, 0, 42, 0, time.UTC),
	}
}

func putListing(t *testing.T, ctx context.Context, repo repositories.IDirectoryRepository) {
	t.Helper()
	require.NoError(t, repo.PutListing(ctx, loft))
}
