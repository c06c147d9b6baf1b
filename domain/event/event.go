package event

import (
	"estate-desk/domain"
	"time"
)

// DomainEvent is published by the services after a successful store write.
// Recipients lists the participant emails that should be told about it.
type DomainEvent interface {
	Recipients() []string
}

type MessageSent struct {
	Message domain.Message
}

func (e MessageSent) Recipients() []string {
	return []string{e.Message.SenderEmail, e.Message.ReceiverEmail}
}

// MessagesRead is published when a reader flipped unread messages of a conversation.
type MessagesRead struct {
	Key    domain.ConversationKey
	Reader string
	Count  int
	At     time.Time
}

func (e MessagesRead) Recipients() []string {
	return []string{e.Key.ParticipantA, e.Key.ParticipantB}
}

type AppointmentChanged struct {
	Appointment domain.Appointment
}

func (e AppointmentChanged) Recipients() []string {
	return []string{e.Appointment.AgentEmail, e.Appointment.ClientEmail}
}
