// Package domain contains core concepts of the viewing desk.
// This file defines Message events and the conversation key they belong to.
package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Message is a chat line between two participants about one listing.
// Read only ever moves from false to true.
type Message struct {
	ID            uuid.UUID // time ordered (v7)
	Content       string
	SenderEmail   string
	ReceiverEmail string
	PropertyID    string
	SentAt        time.Time
	Read          bool
}

// ConversationKey identifies the unordered pair of participants plus the listing.
// ParticipantA is always the lexicographically smaller email.
type ConversationKey struct {
	PropertyID   string
	ParticipantA string
	ParticipantB string
}

func NewConversationKey(first, second, propertyID string) ConversationKey {
	first, second = NormalizeEmail(first), NormalizeEmail(second)
	if second < first {
		first, second = second, first
	}
	return ConversationKey{
		PropertyID:   strings.TrimSpace(propertyID),
		ParticipantA: first,
		ParticipantB: second,
	}
}

func (m Message) Key() ConversationKey {
	return NewConversationKey(m.SenderEmail, m.ReceiverEmail, m.PropertyID)
}

// Involves reports whether the email is one of the two participants.
func (m Message) Involves(email string) bool {
	return m.SenderEmail == email || m.ReceiverEmail == email
}

// Counterpart returns the participant that is not self.
func (m Message) Counterpart(self string) string {
	if m.SenderEmail == self {
		return m.ReceiverEmail
	}
	return m.SenderEmail
}

// Before gives the total order used everywhere messages are compared:
// SentAt first, then ID.
func (m Message) Before(other Message) bool {
	if !m.SentAt.Equal(other.SentAt) {
		return m.SentAt.Before(other.SentAt)
	}
	return m.ID.String() < other.ID.String()
}

func (k ConversationKey) Includes(email string) bool {
	return k.ParticipantA == email || k.ParticipantB == email
}

func (k ConversationKey) Other(self string) string {
	if k.ParticipantA == self {
		return k.ParticipantB
	}
	return k.ParticipantA
}

func (k ConversationKey) String() string {
	return fmt.Sprintf("%s|%s|%s", k.PropertyID, k.ParticipantA, k.ParticipantB)
}

// Selection is a conversation seen from one participant.
type Selection struct {
	Self       string
	Other      string
	PropertyID string
}

func NewSelection(self, other, propertyID string) Selection {
	return Selection{
		Self:       NormalizeEmail(self),
		Other:      NormalizeEmail(other),
		PropertyID: strings.TrimSpace(propertyID),
	}
}

func (s Selection) Key() ConversationKey {
	return NewConversationKey(s.Self, s.Other, s.PropertyID)
}
