package models

// RoomEvent is broadcast through websockets to every subscriber of a room.
// Presence and typing events carry the full recomputed view rather than a
// delta, so late or missed events cannot leave an observer stale.
type RoomEvent struct {
	Type      string       `json:"type"`
	Room      string       `json:"room"`
	Message   *Message     `json:"message,omitempty"`
	MessageID string       `json:"message_id,omitempty"`
	Online    []OnlineUser `json:"online,omitempty"`
	Typing    []TypingUser `json:"typing,omitempty"`
}

const (
	EventMessage        = "message"
	EventMessageEdited  = "message_edited"
	EventMessageDeleted = "message_deleted"
	EventPresence       = "presence"
	EventTyping         = "typing"
)
