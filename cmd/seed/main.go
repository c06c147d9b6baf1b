package main

import (
	"context"
	"estate-desk/domain"
	"estate-desk/domain/event"
	"estate-desk/repositories"
	"estate-desk/services"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/mama165/sdk-go/logs"
)

var (
	profiles = []domain.Profile{
		{Email: "olivia.owner@example.com", DisplayName: "Olivia Owner", Role: domain.RoleOwner},
		{Email: "adam.agent@example.com", DisplayName: "Adam Agent", Role: domain.RoleAgent},
		{Email: "vera.visitor@example.com", DisplayName: "Vera Visitor", Role: domain.RoleVisitor},
		{Email: "victor.visitor@example.com", DisplayName: "Victor Visitor", Role: domain.RoleVisitor},
	}
	listings = []domain.Listing{
		{ID: "LOFT-11", Title: "Canal loft, 2 bedrooms", Thumbnail: "https://img.example.com/loft-11.jpg",
			OwnerEmail: "olivia.owner@example.com", AgentEmail: "adam.agent@example.com"},
		{ID: "HOUSE-7", Title: "Family house with garden",
			OwnerEmail: "olivia.owner@example.com", AgentEmail: "adam.agent@example.com"},
	}
	conversation = []domain.SendMessageCommand{
		{SenderEmail: "vera.visitor@example.com", ReceiverEmail: "adam.agent@example.com", PropertyID: "LOFT-11",
			Content: "Hello, is the loft still available?"},
		{SenderEmail: "adam.agent@example.com", ReceiverEmail: "vera.visitor@example.com", PropertyID: "LOFT-11",
			Content: "It is, would you like to visit on Saturday?"},
		{SenderEmail: "vera.visitor@example.com", ReceiverEmail: "adam.agent@example.com", PropertyID: "LOFT-11",
			Content: "Saturday 10am works for me."},
		{SenderEmail: "victor.visitor@example.com", ReceiverEmail: "adam.agent@example.com", PropertyID: "HOUSE-7",
			Content: "Is the garden south facing?"},
	}
)

type discardPublisher struct{}

func (discardPublisher) Publish(event.DomainEvent) {}

// Fills an offline database with a small desk: profiles, listings, one conversation per listing
// and a pending viewing.
func main() {
	dbPath := flag.String("db", "./data/badger", "Path to badger DB")
	flag.Parse()

	if err := seed(*dbPath); err != nil {
		fmt.Fprintf(os.Stderr, "Seeding failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("Seed done:", *dbPath)
}

func seed(path string) error {
	ctx := context.Background()
	logger := logs.GetLoggerFromString("INFO")
	db, err := badger.Open(badger.DefaultOptions(path).WithLoggingLevel(badger.WARNING))
	if err != nil {
		return err
	}
	defer db.Close()

	directory := repositories.NewDirectoryRepository(db)
	for _, p := range profiles {
		if err := directory.PutProfile(ctx, p); err != nil {
			return err
		}
	}
	for _, l := range listings {
		if err := directory.PutListing(ctx, l); err != nil {
			return err
		}
	}

	messages := services.NewMessageService(logger,
		repositories.NewMessageRepository(db, logger, nil), directory, discardPublisher{})
	for _, cmd := range conversation {
		if _, err := messages.SendMessage(ctx, cmd); err != nil {
			return fmt.Errorf("message %q: %w", cmd.Content, err)
		}
		// v7 ids only order by millisecond
		time.Sleep(2 * time.Millisecond)
	}

	appointments := services.NewAppointmentService(logger,
		repositories.NewAppointmentRepository(db, logger), directory, discardPublisher{})
	saturday := nextSaturday(time.Now()).Add(10 * time.Hour)
	appointment, err := appointments.Create(ctx,
		domain.Principal{Email: "vera.visitor@example.com", Role: domain.RoleVisitor},
		domain.CreateAppointmentCommand{
			PropertyID:     "LOFT-11",
			AgentEmail:     "adam.agent@example.com",
			ClientEmail:    "vera.visitor@example.com",
			ClientName:     "Vera Visitor",
			DateTime:       saturday,
			Comment:        "First visit",
			IdempotencyKey: "seed-loft-11",
		})
	if err != nil {
		return err
	}
	log.Printf("Appointment %s %s on %s", appointment.ID, appointment.Status, appointment.DateTime.Format(time.RFC1123))
	return nil
}

func nextSaturday(from time.Time) time.Time {
	day := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.UTC)
	offset := (int(time.Saturday) - int(day.Weekday()) + 7) % 7
	if offset == 0 {
		offset = 7
	}
	return day.AddDate(0, 0, offset)
}
