package rooms

import "strings"

// DefaultRoom is used whenever a client supplies an empty room name.
const DefaultRoom = "general"

// Normalize trims the room name and falls back to DefaultRoom when empty.
// Every operation that takes a room argument goes through this, so clients
// cannot create divergent "" vs "general" rooms.
func Normalize(room string) string {
	room = strings.TrimSpace(room)
	if room == "" {
		return DefaultRoom
	}
	return room
}
