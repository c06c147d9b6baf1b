package projection

import (
	"estate-desk/domain"
)

// Timeline holds the messages displayed for the active conversation.
// It is replaced wholesale on every fetch, the store stays the only source of truth.
type Timeline struct {
	Selection domain.Selection
	Messages  []domain.Message
	seen      map[string]struct{}
}

func NewTimeline(selection domain.Selection) *Timeline {
	return &Timeline{
		Selection: selection,
		Messages:  nil,
		seen:      make(map[string]struct{}),
	}
}

// Replace swaps the displayed messages and returns how many were not shown before.
func (t *Timeline) Replace(messages []domain.Message) int {
	added := 0
	seen := make(map[string]struct{}, len(messages))
	for _, message := range messages {
		id := message.ID.String()
		seen[id] = struct{}{}
		if _, ok := t.seen[id]; !ok {
			added++
		}
	}
	t.Messages = messages
	t.seen = seen
	return added
}

func (t *Timeline) Last() (domain.Message, bool) {
	if len(t.Messages) == 0 {
		return domain.Message{}, false
	}
	return t.Messages[len(t.Messages)-1], true
}
