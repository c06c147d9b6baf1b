package domain

import (
	"time"
)

// Command is any write intent addressed to the desk.
// The validate tags are checked by the services before any store access.
type Command interface {
	Name() string
}

type CreateAppointmentCommand struct {
	PropertyID     string `validate:"required,max=128,printascii"`
	AgentEmail     string `validate:"required,email"`
	ClientEmail    string `validate:"required,email,nefield=AgentEmail"`
	ClientName     string `validate:"max=256"`
	DateTime       time.Time
	Comment        string `validate:"max=2000"`
	IdempotencyKey string `validate:"max=128"`
}

func (CreateAppointmentCommand) Name() string { return "create_appointment" }

type TransitionAppointmentCommand struct {
	AppointmentID string            `validate:"required,uuid"`
	Status        AppointmentStatus `validate:"required"`
	Comment       string            `validate:"max=2000"`
}

func (TransitionAppointmentCommand) Name() string { return "transition_appointment" }

type SendMessageCommand struct {
	Content       string `validate:"max=5000"`
	SenderEmail   string `validate:"required,email"`
	ReceiverEmail string `validate:"required,email"`
	PropertyID    string `validate:"required,max=128,printascii"`
}

func (SendMessageCommand) Name() string { return "send_message" }
