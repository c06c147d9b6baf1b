package projection

import (
	"estate-desk/domain"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2025, 3, 10, 14, 0, 0, 0, time.UTC)

func message(from, to, property string, at time.Time) domain.Message {
	return domain.Message{
		ID:            uuid.Must(uuid.NewV7()),
		Content:       "hello",
		SenderEmail:   from,
		ReceiverEmail: to,
		PropertyID:    property,
		SentAt:        at,
	}
}

func TestBuildConversations_Two_Unread_Messages(t *testing.T) {
	req := require.New(t)
	t1, t2 := t0, t0.Add(time.Minute)
	messages := []domain.Message{
		message("u1@x.com", "u2@x.com", "P1", t2),
		message("u1@x.com", "u2@x.com", "P1", t1),
	}

	conversations := BuildConversations("u2@x.com", messages)

	req.Len(conversations, 1)
	req.Equal(t2, conversations[0].LastMessage.SentAt)
	req.Equal(2, conversations[0].UnreadCount)
	req.Equal("u1@x.com", conversations[0].Participant.Email)
	req.Equal("P1", conversations[0].Property.ID)

	// When the messages become read
	for i := range messages {
		messages[i].Read = true
	}

	// Then the next build has nothing unread
	req.Zero(BuildConversations("u2@x.com", messages)[0].UnreadCount)
}

func TestBuildConversations_Is_Idempotent(t *testing.T) {
	req := require.New(t)
	messages := []domain.Message{
		message("u1@x.com", "me@x.com", "P1", t0),
		message("me@x.com", "u1@x.com", "P1", t0.Add(time.Minute)),
		message("u2@x.com", "me@x.com", "P1", t0.Add(time.Minute)),
		message("u1@x.com", "me@x.com", "P2", t0.Add(2*time.Minute)),
		message("u3@x.com", "me@x.com", "P3", t0.Add(time.Minute)),
	}

	first := BuildConversations("me@x.com", messages)
	second := BuildConversations("me@x.com", messages)

	req.Equal(first, second)
	req.Len(first, 4)
	for i := 1; i < len(first); i++ {
		req.False(first[i].LastMessage.SentAt.After(first[i-1].LastMessage.SentAt))
	}
}

func TestBuildConversations_Partitions_By_Participant_And_Listing(t *testing.T) {
	req := require.New(t)
	messages := []domain.Message{
		message("u1@x.com", "me@x.com", "P1", t0),
		message("me@x.com", "u1@x.com", "P1", t0.Add(time.Minute)),
		message("u1@x.com", "me@x.com", "P2", t0.Add(2*time.Minute)),
		message("u2@x.com", "me@x.com", "P1", t0.Add(3*time.Minute)),
		// Not involving me
		message("u1@x.com", "u2@x.com", "P1", t0.Add(4*time.Minute)),
	}

	conversations := BuildConversations("ME@x.com", messages)

	req.Len(conversations, 3)
	req.Equal("u2@x.com", conversations[0].Participant.Email)
	req.Equal("P2", conversations[1].Property.ID)
	req.Equal("P1", conversations[2].Property.ID)
	req.Equal("u1@x.com", conversations[2].Participant.Email)
	// The reply I sent is the last message but does not count as unread
	req.Equal("me@x.com", conversations[2].LastMessage.SenderEmail)
	req.Equal(1, conversations[2].UnreadCount)
}

func TestBuildConversations_Ties_Are_Broken_By_Id(t *testing.T) {
	req := require.New(t)
	first := message("u1@x.com", "me@x.com", "P1", t0)
	second := message("me@x.com", "u1@x.com", "P1", t0)
	req.Less(first.ID.String(), second.ID.String())

	for _, messages := range [][]domain.Message{{first, second}, {second, first}} {
		conversations := BuildConversations("me@x.com", messages)
		req.Len(conversations, 1)
		req.Equal(second.ID, conversations[0].LastMessage.ID)
	}
}

func TestBuildConversations_Empty(t *testing.T) {
	req := require.New(t)
	conversations := BuildConversations("me@x.com", nil)
	req.NotNil(conversations)
	req.Empty(conversations)
}

func TestDecorate_Falls_Back_For_Unknown_Records(t *testing.T) {
	req := require.New(t)
	messages := []domain.Message{
		message("known@x.com", "me@x.com", "P1", t0),
		message("deleted@x.com", "me@x.com", "P404", t0.Add(time.Minute)),
	}
	participants := map[string]domain.Participant{
		"known@x.com": domain.Profile{Email: "known@x.com", DisplayName: "Kim Known", Role: domain.RoleOwner}.ToParticipant(),
	}
	properties := map[string]domain.Property{
		"P1": domain.Listing{ID: "P1", Title: "Loft", Thumbnail: "p1.jpg"}.ToProperty(),
	}

	conversations := Decorate(BuildConversations("me@x.com", messages), participants, properties)

	req.Len(conversations, 2)
	deleted, known := conversations[0], conversations[1]
	req.False(deleted.Participant.Resolved)
	req.Equal("deleted@x.com", deleted.Participant.DisplayName)
	req.Equal(domain.RoleVisitor, deleted.Participant.Role)
	req.False(deleted.Property.Resolved)
	req.Equal("Listing P404", deleted.Property.Title)

	req.True(known.Participant.Resolved)
	req.Equal("Kim Known", known.Participant.DisplayName)
	req.Equal(domain.RoleOwner, known.Participant.Role)
	req.Equal("Loft", known.Property.Title)
}

func TestUnreadCount_Matches_Conversation_Counter(t *testing.T) {
	req := require.New(t)
	messages := []domain.Message{
		message("u1@x.com", "me@x.com", "P1", t0),
		message("u1@x.com", "me@x.com", "P1", t0.Add(time.Minute)),
		message("me@x.com", "u1@x.com", "P1", t0.Add(2*time.Minute)),
	}
	messages[0].Read = true

	conversations := BuildConversations("me@x.com", messages)

	req.Equal(1, UnreadCount("me@x.com", messages))
	req.Equal(UnreadCount("me@x.com", messages), conversations[0].UnreadCount)
	req.Equal(1, TotalUnread(conversations))
	req.Equal(1, UnreadCount("u1@x.com", messages))
}

func TestTimeline_Replace_Counts_New_Messages(t *testing.T) {
	req := require.New(t)
	timeline := NewTimeline(domain.NewSelection("me@x.com", "u1@x.com", "P1"))
	m1 := message("u1@x.com", "me@x.com", "P1", t0)
	m2 := message("me@x.com", "u1@x.com", "P1", t0.Add(time.Minute))

	req.Equal(1, timeline.Replace([]domain.Message{m1}))
	req.Equal(1, timeline.Replace([]domain.Message{m1, m2}))
	req.Zero(timeline.Replace([]domain.Message{m1, m2}))

	last, ok := timeline.Last()
	req.True(ok)
	req.Equal(m2.ID, last.ID)
}
