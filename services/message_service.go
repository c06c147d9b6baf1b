//go:generate go run go.uber.org/mock/mockgen -source=message_service.go -destination=../mocks/mock_message_service.go -package=mocks
package services

import (
	"context"
	stderrors "errors"
	"estate-desk/contract"
	"estate-desk/domain"
	"estate-desk/domain/event"
	"estate-desk/errors"
	"estate-desk/projection"
	"estate-desk/repositories"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
)

// IMessageService is what the synchronizer polls, in process or through gRPC.
type IMessageService interface {
	GetConversationsForUser(ctx context.Context, email string) ([]domain.Conversation, error)
	GetMessages(ctx context.Context, selection domain.Selection) ([]domain.Message, error)
	SendMessage(ctx context.Context, cmd domain.SendMessageCommand) (domain.Message, error)
	MarkMessagesRead(ctx context.Context, selection domain.Selection) (int, error)
}

type MessageService struct {
	log         *slog.Logger
	messages    repositories.IMessageRepository
	directory   repositories.IDirectoryRepository
	readTracker *ReadTracker
	publisher   contract.EventPublisher
	now         func() time.Time
}

func NewMessageService(log *slog.Logger,
	messages repositories.IMessageRepository,
	directory repositories.IDirectoryRepository,
	publisher contract.EventPublisher) *MessageService {
	return &MessageService{
		log:         log,
		messages:    messages,
		directory:   directory,
		readTracker: NewReadTracker(log, messages, publisher),
		publisher:   publisher,
		now:         time.Now,
	}
}

// GetConversationsForUser rebuilds the conversation list from the stored messages
// and decorates it with the directory records that still exist.
func (s *MessageService) GetConversationsForUser(ctx context.Context, email string) ([]domain.Conversation, error) {
	email = domain.NormalizeEmail(email)
	messages, err := s.messages.GetMessagesForUser(ctx, email)
	if err != nil {
		return nil, err
	}
	conversations := projection.BuildConversations(email, messages)
	return projection.Decorate(conversations, s.participants(ctx, conversations), s.properties(ctx, conversations)), nil
}

func (s *MessageService) participants(ctx context.Context, conversations []domain.Conversation) map[string]domain.Participant {
	emails := lo.Uniq(lo.Map(conversations, func(item domain.Conversation, _ int) string {
		return item.Participant.Email
	}))
	res := make(map[string]domain.Participant, len(emails))
	for _, email := range emails {
		profile, err := s.directory.GetProfile(ctx, email)
		if err != nil {
			s.logLookupFailure(err, "email", email)
			continue
		}
		res[email] = profile.ToParticipant()
	}
	return res
}

func (s *MessageService) properties(ctx context.Context, conversations []domain.Conversation) map[string]domain.Property {
	ids := lo.Uniq(lo.Map(conversations, func(item domain.Conversation, _ int) string {
		return item.Property.ID
	}))
	res := make(map[string]domain.Property, len(ids))
	for _, id := range ids {
		listing, err := s.directory.GetListing(ctx, id)
		if err != nil {
			s.logLookupFailure(err, "property_id", id)
			continue
		}
		res[id] = listing.ToProperty()
	}
	return res
}

// Missing records are expected (deleted accounts or listings), anything else is worth a warning.
func (s *MessageService) logLookupFailure(err error, args ...any) {
	if stderrors.Is(err, errors.ErrProfileNotFound) || stderrors.Is(err, errors.ErrPropertyNotFound) {
		return
	}
	s.log.Warn("Directory lookup failed, falling back", append(args, "error", err)...)
}

// GetMessages returns the conversation of the selection, oldest first.
func (s *MessageService) GetMessages(ctx context.Context, selection domain.Selection) ([]domain.Message, error) {
	selection = domain.NewSelection(selection.Self, selection.Other, selection.PropertyID)
	return s.messages.GetConversation(ctx, selection.Key())
}

// SendMessage stores a new unread message. Blank content never reaches the store.
func (s *MessageService) SendMessage(ctx context.Context, cmd domain.SendMessageCommand) (domain.Message, error) {
	cmd.Content = strings.TrimSpace(cmd.Content)
	cmd.SenderEmail = domain.NormalizeEmail(cmd.SenderEmail)
	cmd.ReceiverEmail = domain.NormalizeEmail(cmd.ReceiverEmail)
	cmd.PropertyID = strings.TrimSpace(cmd.PropertyID)

	if cmd.Content == "" {
		return domain.Message{}, errors.ErrEmptyMessageContent
	}
	if err := validateCommand(cmd); err != nil {
		return domain.Message{}, err
	}
	if cmd.SenderEmail == cmd.ReceiverEmail {
		return domain.Message{}, fmt.Errorf("%w: %s", errors.ErrSelfConversation, cmd.SenderEmail)
	}
	if _, err := s.directory.GetListing(ctx, cmd.PropertyID); err != nil {
		return domain.Message{}, err
	}

	message := domain.Message{
		ID:            uuid.Must(uuid.NewV7()),
		Content:       cmd.Content,
		SenderEmail:   cmd.SenderEmail,
		ReceiverEmail: cmd.ReceiverEmail,
		PropertyID:    cmd.PropertyID,
		SentAt:        s.now().UTC(),
		Read:          false,
	}
	if err := s.messages.StoreMessage(ctx, message); err != nil {
		return domain.Message{}, err
	}

	s.publisher.Publish(event.MessageSent{Message: message})
	return message, nil
}

// MarkMessagesRead flips the messages of the selection addressed to its owner.
func (s *MessageService) MarkMessagesRead(ctx context.Context, selection domain.Selection) (int, error) {
	return s.readTracker.MarkRead(ctx, selection.Self, selection.Other, selection.PropertyID)
}
