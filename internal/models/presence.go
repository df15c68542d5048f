package models

// PresenceEntry is one liveness row, keyed by (room, user, session). One row
// per open tab, so closing one tab cannot erase the liveness of another.
// Entries are never eagerly deleted on expiry; readers filter by the online
// window against their own clock.
type PresenceEntry struct {
	Room        string `json:"room"`
	UserID      string `json:"user_id"`
	SessionID   string `json:"session_id"`
	DisplayName string `json:"display_name"`
	LastSeenMs  int64  `json:"last_seen_ms"`
}

// OnlineUser is the deduplicated per-user view derived from fresh presence
// entries: a user with three open tabs appears once.
type OnlineUser struct {
	UserID      string `json:"user_id"`
	DisplayName string `json:"display_name"`
}
