package domain

// Participant is the other side of a conversation.
// Resolved is false when no profile could be found, the display name then
// falls back to the email.
type Participant struct {
	Email       string
	DisplayName string
	Role        Role
	Resolved    bool
}

// Property is the listing a conversation is about.
type Property struct {
	ID        string
	Title     string
	Thumbnail string
	Resolved  bool
}

// Conversation is derived from messages every time they are fetched.
// It is never stored.
type Conversation struct {
	Participant Participant
	Property    Property
	LastMessage Message
	UnreadCount int
}

// Selection returns the conversation as seen from self.
func (c Conversation) Selection(self string) Selection {
	return NewSelection(self, c.Participant.Email, c.Property.ID)
}

// Profile is the directory record of an account.
type Profile struct {
	Email       string
	DisplayName string
	Role        Role
}

// Listing is the directory record of a property.
type Listing struct {
	ID         string
	Title      string
	Thumbnail  string
	OwnerEmail string
	AgentEmail string
}

func (p Profile) ToParticipant() Participant {
	return Participant{
		Email:       p.Email,
		DisplayName: p.DisplayName,
		Role:        p.Role,
		Resolved:    true,
	}
}

func (l Listing) ToProperty() Property {
	return Property{
		ID:        l.ID,
		Title:     l.Title,
		Thumbnail: l.Thumbnail,
		Resolved:  true,
	}
}
