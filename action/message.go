package action

// Placeholders substituted for absent message metadata.
const (
	UnknownRoom   = "unknown"
	NoTopic       = "no topic set"
	UnknownSender = "unknown"
	UnknownID     = "unknown"
)

// Message is an inbound chat message as delivered by the host. Any field may
// be empty when the host could not provide it.
type Message struct {
	ID              string
	Text            string
	SenderID        string
	SenderUsername  string
	RoomID          string
	RoomName        string
	RoomDescription string
	RoomTopic       string
}

// View is a Message with every field defaulted. Builders only read Views,
// so a missing room, sender or id never reaches a request body as a gap.
type View struct {
	ID             string
	Text           string
	SenderUsername string
	RoomID         string
	RoomName       string
	RoomTopic      string

	// HasTopic is false when RoomTopic is the NoTopic placeholder.
	HasTopic bool
}

// NewView extracts a fully-defaulted view of msg.
func NewView(msg Message) View {
	v := View{
		ID:             msg.ID,
		Text:           msg.Text,
		SenderUsername: or(msg.SenderUsername, UnknownSender),
		RoomID:         msg.RoomID,
		RoomName:       or(msg.RoomName, UnknownRoom),
		RoomTopic:      or(msg.RoomTopic, msg.RoomDescription),
	}
	v.HasTopic = v.RoomTopic != ""
	if !v.HasTopic {
		v.RoomTopic = NoTopic
	}
	return v
}

// DisplayID returns the message id, or UnknownID when the host gave none.
func (v View) DisplayID() string {
	return or(v.ID, UnknownID)
}

func or(val, fallback string) string {
	if val == "" {
		return fallback
	}
	return val
}
