package grpc

import (
	"estate-desk/domain"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
)

type Appointment struct {
	ID          string    `cbor:"1,keyasint"`
	PropertyID  string    `cbor:"2,keyasint"`
	AgentEmail  string    `cbor:"3,keyasint"`
	ClientEmail string    `cbor:"4,keyasint"`
	ClientName  string    `cbor:"5,keyasint,omitempty"`
	DateTime    time.Time `cbor:"6,keyasint"`
	Status      string    `cbor:"7,keyasint"`
	Comment     string    `cbor:"8,keyasint,omitempty"`
	CreatedAt   time.Time `cbor:"9,keyasint"`
	UpdatedAt   time.Time `cbor:"10,keyasint"`
}

type CreateAppointmentRequest struct {
	PropertyID     string    `cbor:"1,keyasint"`
	AgentEmail     string    `cbor:"2,keyasint"`
	ClientEmail    string    `cbor:"3,keyasint"`
	ClientName     string    `cbor:"4,keyasint,omitempty"`
	DateTime       time.Time `cbor:"5,keyasint"`
	Comment        string    `cbor:"6,keyasint,omitempty"`
	IdempotencyKey string    `cbor:"7,keyasint,omitempty"`
}

type TransitionAppointmentRequest struct {
	AppointmentID string `cbor:"1,keyasint"`
	Status        string `cbor:"2,keyasint"`
	Comment       string `cbor:"3,keyasint,omitempty"`
}

// ListAppointmentsRequest lists the appointments of the caller.
type ListAppointmentsRequest struct {
	Role string `cbor:"1,keyasint"`
}

type ListAppointmentsResponse struct {
	Appointments []Appointment `cbor:"1,keyasint"`
}

type Message struct {
	ID            string    `cbor:"1,keyasint"`
	Content       string    `cbor:"2,keyasint"`
	SenderEmail   string    `cbor:"3,keyasint"`
	ReceiverEmail string    `cbor:"4,keyasint"`
	PropertyID    string    `cbor:"5,keyasint"`
	SentAt        time.Time `cbor:"6,keyasint"`
	Read          bool      `cbor:"7,keyasint"`
}

type Participant struct {
	Email       string `cbor:"1,keyasint"`
	DisplayName string `cbor:"2,keyasint"`
	Role        string `cbor:"3,keyasint"`
	Resolved    bool   `cbor:"4,keyasint"`
}

type Property struct {
	ID        string `cbor:"1,keyasint"`
	Title     string `cbor:"2,keyasint"`
	Thumbnail string `cbor:"3,keyasint,omitempty"`
	Resolved  bool   `cbor:"4,keyasint"`
}

type Conversation struct {
	Participant Participant `cbor:"1,keyasint"`
	Property    Property    `cbor:"2,keyasint"`
	LastMessage Message     `cbor:"3,keyasint"`
	UnreadCount int         `cbor:"4,keyasint"`
}

type ListConversationsRequest struct{}

type ListConversationsResponse struct {
	Conversations []Conversation `cbor:"1,keyasint"`
}

// ConversationRequest targets the conversation between the caller and Other about PropertyID.
type ConversationRequest struct {
	Other      string `cbor:"1,keyasint"`
	PropertyID string `cbor:"2,keyasint"`
}

type GetMessagesResponse struct {
	Messages []Message `cbor:"1,keyasint"`
}

type SendMessageRequest struct {
	ReceiverEmail string `cbor:"1,keyasint"`
	PropertyID    string `cbor:"2,keyasint"`
	Content       string `cbor:"3,keyasint"`
}

type MarkReadResponse struct {
	Count int `cbor:"1,keyasint"`
}

type WatchRequest struct{}

type WatchEventKind string

const (
	KindMessageSent        WatchEventKind = "MESSAGE_SENT"
	KindMessagesRead       WatchEventKind = "MESSAGES_READ"
	KindAppointmentChanged WatchEventKind = "APPOINTMENT_CHANGED"
)

// WatchEvent is a hint that something changed, the client fetches the details.
type WatchEvent struct {
	Kind          WatchEventKind `cbor:"1,keyasint"`
	PropertyID    string         `cbor:"2,keyasint"`
	ParticipantA  string         `cbor:"3,keyasint,omitempty"`
	ParticipantB  string         `cbor:"4,keyasint,omitempty"`
	AppointmentID string         `cbor:"5,keyasint,omitempty"`
	Status        string         `cbor:"6,keyasint,omitempty"`
}

// Key returns the conversation the event is about, if any.
func (e WatchEvent) Key() (domain.ConversationKey, bool) {
	if e.ParticipantA == "" || e.ParticipantB == "" {
		return domain.ConversationKey{}, false
	}
	return domain.NewConversationKey(e.ParticipantA, e.ParticipantB, e.PropertyID), true
}

func toAppointment(a domain.Appointment) Appointment {
	return Appointment{
		ID:          a.ID.String(),
		PropertyID:  a.PropertyID,
		AgentEmail:  a.AgentEmail,
		ClientEmail: a.ClientEmail,
		ClientName:  a.ClientName,
		DateTime:    a.DateTime,
		Status:      string(a.Status),
		Comment:     a.Comment,
		CreatedAt:   a.CreatedAt,
		UpdatedAt:   a.UpdatedAt,
	}
}

func fromAppointment(a Appointment) (domain.Appointment, error) {
	id, err := uuid.Parse(a.ID)
	if err != nil {
		return domain.Appointment{}, err
	}
	status, err := domain.ParseStatus(a.Status)
	if err != nil {
		return domain.Appointment{}, err
	}
	return domain.Appointment{
		ID:          id,
		PropertyID:  a.PropertyID,
		AgentEmail:  a.AgentEmail,
		ClientEmail: a.ClientEmail,
		ClientName:  a.ClientName,
		DateTime:    a.DateTime.UTC(),
		Status:      status,
		Comment:     a.Comment,
		CreatedAt:   a.CreatedAt.UTC(),
		UpdatedAt:   a.UpdatedAt.UTC(),
	}, nil
}

func toMessage(m domain.Message) Message {
	return Message{
		ID:            m.ID.String(),
		Content:       m.Content,
		SenderEmail:   m.SenderEmail,
		ReceiverEmail: m.ReceiverEmail,
		PropertyID:    m.PropertyID,
		SentAt:        m.SentAt,
		Read:          m.Read,
	}
}

func fromMessage(m Message) (domain.Message, error) {
	id, err := uuid.Parse(m.ID)
	if err != nil {
		return domain.Message{}, err
	}
	return domain.Message{
		ID:            id,
		Content:       m.Content,
		SenderEmail:   m.SenderEmail,
		ReceiverEmail: m.ReceiverEmail,
		PropertyID:    m.PropertyID,
		SentAt:        m.SentAt.UTC(),
		Read:          m.Read,
	}, nil
}

func toMessages(messages []domain.Message) []Message {
	return lo.Map(messages, func(item domain.Message, _ int) Message { return toMessage(item) })
}

func fromMessages(messages []Message) ([]domain.Message, error) {
	res := make([]domain.Message, 0, len(messages))
	for _, m := range messages {
		message, err := fromMessage(m)
		if err != nil {
			return nil, err
		}
		res = append(res, message)
	}
	return res, nil
}

func toConversation(c domain.Conversation) Conversation {
	return Conversation{
		Participant: Participant{
			Email:       c.Participant.Email,
			DisplayName: c.Participant.DisplayName,
			Role:        string(c.Participant.Role),
			Resolved:    c.Participant.Resolved,
		},
		Property: Property{
			ID:        c.Property.ID,
			Title:     c.Property.Title,
			Thumbnail: c.Property.Thumbnail,
			Resolved:  c.Property.Resolved,
		},
		LastMessage: toMessage(c.LastMessage),
		UnreadCount: c.UnreadCount,
	}
}

func fromConversation(c Conversation) (domain.Conversation, error) {
	last, err := fromMessage(c.LastMessage)
	if err != nil {
		return domain.Conversation{}, err
	}
	return domain.Conversation{
		Participant: domain.Participant{
			Email:       c.Participant.Email,
			DisplayName: c.Participant.DisplayName,
			Role:        domain.Role(c.Participant.Role),
			Resolved:    c.Participant.Resolved,
		},
		Property: domain.Property{
			ID:        c.Property.ID,
			Title:     c.Property.Title,
			Thumbnail: c.Property.Thumbnail,
			Resolved:  c.Property.Resolved,
		},
		LastMessage: last,
		UnreadCount: c.UnreadCount,
	}, nil
}
