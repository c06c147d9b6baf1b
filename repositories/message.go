//go:generate go run go.uber.org/mock/mockgen -source=message.go -destination=../mocks/mock_message_repository.go -package=mocks
package repositories

import (
	"context"
	stderrors "errors"
	"estate-desk/domain"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
)

const (
	messagePrefix     = "msg"
	conversationIndex = "conv"
	inboxIndex        = "inbox"
	unreadIndex       = "unread"
)

type IMessageRepository interface {
	StoreMessage(ctx context.Context, message domain.Message) error
	// GetConversation returns the messages of one conversation, oldest first.
	GetConversation(ctx context.Context, key domain.ConversationKey) ([]domain.Message, error)
	// GetMessagesForUser returns every message the email sent or received, oldest first.
	GetMessagesForUser(ctx context.Context, email string) ([]domain.Message, error)
	// MarkRead flips the unread messages addressed to reader in the conversation
	// and returns how many were flipped.
	MarkRead(ctx context.Context, reader string, key domain.ConversationKey) (int, error)
}

type MessageRepository struct {
	db            *badger.DB
	log           *slog.Logger
	limitMessages *int
}

// NewMessageRepository builds the badger message store.
// When limitMessages is set, GetConversation only returns the most recent ones.
func NewMessageRepository(db *badger.DB, log *slog.Logger, limitMessages *int) MessageRepository {
	return MessageRepository{db: db, log: log, limitMessages: limitMessages}
}

type DiskMessage struct {
	ID       string
	Content  string
	Sender   string
	Receiver string
	Property string
	At       int64
	Read     bool
}

// StoreMessage persists a message and its indexes in one transaction:
//
//	msg:{id}                                   -> record
//	conv:{property}\x00{a}\x00{b}\x00{id}      -> nil
//	inbox:{sender}\x00{id}, inbox:{receiver}\x00{id} -> nil
//	unread:{receiver}\x00{property}\x00{sender}\x00{id} -> nil (while unread)
//
// Ids are uuid v7 so index keys of one conversation are naturally time ordered.
func (m MessageRepository) StoreMessage(ctx context.Context, message domain.Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	bytes, err := marshal(fromMessage(message))
	if err != nil {
		return err
	}
	id := message.ID.String()
	k := message.Key()
	return m.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set(key(messagePrefix, id), bytes); err != nil {
			return err
		}
		if err := txn.Set(key(conversationIndex, k.PropertyID, k.ParticipantA, k.ParticipantB, id), nil); err != nil {
			return err
		}
		if err := txn.Set(key(inboxIndex, message.SenderEmail, id), nil); err != nil {
			return err
		}
		if err := txn.Set(key(inboxIndex, message.ReceiverEmail, id), nil); err != nil {
			return err
		}
		if message.Read {
			return nil
		}
		return txn.Set(key(unreadIndex, message.ReceiverEmail, message.PropertyID, message.SenderEmail, id), nil)
	})
}

func (m MessageRepository) GetConversation(ctx context.Context, k domain.ConversationKey) ([]domain.Message, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	messages, err := m.resolve(scanPrefix(conversationIndex, k.PropertyID, k.ParticipantA, k.ParticipantB))
	if err != nil {
		return nil, err
	}
	if m.limitMessages != nil && len(messages) > *m.limitMessages {
		m.log.Debug(fmt.Sprintf("Maximum of %d message reached", *m.limitMessages))
		messages = messages[len(messages)-*m.limitMessages:]
	}
	return messages, nil
}

func (m MessageRepository) GetMessagesForUser(ctx context.Context, email string) ([]domain.Message, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return m.resolve(scanPrefix(inboxIndex, email))
}

// MarkRead scans the unread index of the reader for this conversation, so the
// cost only depends on the number of unread messages.
// The whole flip happens in one transaction: either every message becomes
// read or none does.
func (m MessageRepository) MarkRead(ctx context.Context, reader string, k domain.ConversationKey) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	sender := k.Other(reader)
	prefix := scanPrefix(unreadIndex, reader, k.PropertyID, sender)
	count := 0
	err := m.db.Update(func(txn *badger.Txn) error {
		var unreadKeys [][]byte
		options := badger.DefaultIteratorOptions
		options.PrefetchValues = false
		it := txn.NewIterator(options)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			unreadKeys = append(unreadKeys, it.Item().KeyCopy(nil))
		}
		it.Close()

		for _, unreadKey := range unreadKeys {
			id := lastPart(unreadKey)
			message, err := getMessage(txn, id)
			if err != nil {
				return err
			}
			if !message.Read {
				message.Read = true
				bytes, err := marshal(fromMessage(message))
				if err != nil {
					return err
				}
				if err = txn.Set(key(messagePrefix, id), bytes); err != nil {
					return err
				}
				count++
			}
			if err := txn.Delete(unreadKey); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return count, nil
}

// resolve loads every record referenced by an index prefix, oldest first.
func (m MessageRepository) resolve(prefix []byte) ([]domain.Message, error) {
	var messages []domain.Message
	err := m.db.View(func(txn *badger.Txn) error {
		options := badger.DefaultIteratorOptions
		options.PrefetchValues = false
		it := txn.NewIterator(options)
		defer it.Close()

		var ids []string
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			ids = append(ids, lastPart(it.Item().Key()))
		}
		for _, id := range ids {
			message, err := getMessage(txn, id)
			if err != nil {
				return err
			}
			messages = append(messages, message)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	SortMessages(messages)
	return messages, nil
}

// SortMessages orders oldest first using domain.Message.Before.
func SortMessages(messages []domain.Message) {
	sort.SliceStable(messages, func(i, j int) bool {
		return messages[i].Before(messages[j])
	})
}

func getMessage(txn *badger.Txn, id string) (domain.Message, error) {
	item, err := txn.Get(key(messagePrefix, id))
	if err != nil {
		if stderrors.Is(err, badger.ErrKeyNotFound) {
			return domain.Message{}, fmt.Errorf("message %s is indexed but missing: %w", id, err)
		}
		return domain.Message{}, err
	}
	var disk DiskMessage
	if err = item.Value(func(val []byte) error {
		return unmarshal(val, &disk)
	}); err != nil {
		return domain.Message{}, err
	}
	return toMessage(disk)
}

func fromMessage(message domain.Message) DiskMessage {
	return DiskMessage{
		ID:       message.ID.String(),
		Content:  message.Content,
		Sender:   message.SenderEmail,
		Receiver: message.ReceiverEmail,
		Property: message.PropertyID,
		At:       message.SentAt.UnixNano(),
		Read:     message.Read,
	}
}

func toMessage(disk DiskMessage) (domain.Message, error) {
	parsedID, err := uuid.Parse(disk.ID)
	if err != nil {
		return domain.Message{}, err
	}
	return domain.Message{
		ID:            parsedID,
		Content:       disk.Content,
		SenderEmail:   disk.Sender,
		ReceiverEmail: disk.Receiver,
		PropertyID:    disk.Property,
		SentAt:        time.Unix(0, disk.At).UTC(),
		Read:          disk.Read,
	}, nil
}

// DecodeMessage decodes a raw "msg:" value, as read by the inspect tool.
func DecodeMessage(val []byte) (domain.Message, error) {
	var disk DiskMessage
	if err := unmarshal(val, &disk); err != nil {
		return domain.Message{}, err
	}
	return toMessage(disk)
}
