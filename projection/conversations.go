// Package projection builds read models from the stored messages.
// Handles grouping, ordering and unread counts.
// Does not write to any store nor interact with the UI directly.
package projection

import (
	"estate-desk/domain"
	"fmt"
	"sort"
)

// BuildConversations derives one conversation per (other participant, listing)
// from the messages self sent or received. Messages not involving self are ignored.
//
// The result is a pure function of its input: the same messages always give
// the same conversations in the same order. Participants and properties carry
// fallback labels until Decorate resolves them.
func BuildConversations(self string, messages []domain.Message) []domain.Conversation {
	self = domain.NormalizeEmail(self)
	index := make(map[domain.ConversationKey]*domain.Conversation)
	for _, message := range messages {
		if !message.Involves(self) {
			continue
		}
		k := message.Key()
		conversation, ok := index[k]
		if !ok {
			conversation = &domain.Conversation{
				Participant: FallbackParticipant(message.Counterpart(self)),
				Property:    FallbackProperty(message.PropertyID),
				LastMessage: message,
			}
			index[k] = conversation
		}
		if conversation.LastMessage.Before(message) {
			conversation.LastMessage = message
		}
		if IsUnreadFor(message, self) {
			conversation.UnreadCount++
		}
	}

	conversations := make([]domain.Conversation, 0, len(index))
	for _, conversation := range index {
		conversations = append(conversations, *conversation)
	}
	SortConversations(conversations)
	return conversations
}

// SortConversations puts the most recent activity first.
// Ties are broken by the last message id, then by participant and listing,
// which makes the order total.
func SortConversations(conversations []domain.Conversation) {
	sort.Slice(conversations, func(i, j int) bool {
		a, b := conversations[i], conversations[j]
		if b.LastMessage.Before(a.LastMessage) {
			return true
		}
		if a.LastMessage.Before(b.LastMessage) {
			return false
		}
		if a.Participant.Email != b.Participant.Email {
			return a.Participant.Email < b.Participant.Email
		}
		return a.Property.ID < b.Property.ID
	})
}

// Decorate overlays the directory records that could be resolved.
// Missing entries keep their fallback labels, a deleted account never hides a conversation.
func Decorate(conversations []domain.Conversation,
	participants map[string]domain.Participant,
	properties map[string]domain.Property) []domain.Conversation {
	decorated := make([]domain.Conversation, len(conversations))
	for i, conversation := range conversations {
		if participant, ok := participants[conversation.Participant.Email]; ok {
			conversation.Participant = participant
		}
		if property, ok := properties[conversation.Property.ID]; ok {
			conversation.Property = property
		}
		decorated[i] = conversation
	}
	return decorated
}

func FallbackParticipant(email string) domain.Participant {
	return domain.Participant{
		Email:       email,
		DisplayName: email,
		Role:        domain.RoleVisitor,
	}
}

func FallbackProperty(id string) domain.Property {
	return domain.Property{
		ID:    id,
		Title: fmt.Sprintf("Listing %s", id),
	}
}
