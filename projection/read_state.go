package projection

import (
	"estate-desk/domain"

	"github.com/samber/lo"
)

// IsUnreadFor reports whether the message waits to be read by reader.
func IsUnreadFor(message domain.Message, reader string) bool {
	return message.ReceiverEmail == reader && !message.Read
}

// UnreadCount counts the messages of the slice still unread by reader.
func UnreadCount(reader string, messages []domain.Message) int {
	return lo.CountBy(messages, func(item domain.Message) bool {
		return IsUnreadFor(item, reader)
	})
}

// TotalUnread sums the unread counters of a conversation list.
func TotalUnread(conversations []domain.Conversation) int {
	return lo.SumBy(conversations, func(item domain.Conversation) int {
		return item.UnreadCount
	})
}
