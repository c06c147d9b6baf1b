package internal

import (
	"estate-desk/repositories"
	"fmt"
	"strings"
)

// DeskMapper decodes appointments and messages, every other key falls back to DefaultMapper.
func DeskMapper(key string, val []byte) InspectRow {
	row := DefaultMapper(key, val)
	switch {
	case strings.HasPrefix(key, "apt:"):
		appointment, err := repositories.DecodeAppointment(val)
		if err != nil {
			row.Detail = "undecodable: " + err.Error()
			return row
		}
		row.Type = "APPOINTMENT"
		row.Timestamp = appointment.DateTime.Format("2006-01-02 15:04")
		row.Scope = appointment.PropertyID
		row.Detail = fmt.Sprintf("%s %s -> %s", appointment.Status, appointment.ClientEmail, appointment.AgentEmail)
	case strings.HasPrefix(key, "msg:"):
		message, err := repositories.DecodeMessage(val)
		if err != nil {
			row.Detail = "undecodable: " + err.Error()
			return row
		}
		row.Type = "MESSAGE"
		if message.Read {
			row.Type = "MESSAGE (read)"
		}
		row.Timestamp = message.SentAt.Format("15:04:05")
		row.Scope = message.PropertyID
		row.Detail = fmt.Sprintf("%s -> %s: %s", message.SenderEmail, message.ReceiverEmail, message.Content)
	}
	return row
}
