package models

// TypingEntry is one typing row, keyed by (room, user). Typing is a momentary
// per-user signal, so there is no per-session granularity.
type TypingEntry struct {
	Room        string `json:"room"`
	UserID      string `json:"user_id"`
	DisplayName string `json:"display_name"`
	LastTypedMs int64  `json:"last_typed_ms"`
}

// TypingUser is the derived "currently typing" view.
type TypingUser struct {
	UserID      string `json:"user_id"`
	DisplayName string `json:"display_name"`
}
