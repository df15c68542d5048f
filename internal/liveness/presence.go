package liveness

import (
	"sort"

	"rooms-service/internal/models"
)

// OnlineUsers derives the per-user online view from raw presence entries:
// entries outside OnlineWindow relative to nowMs are dropped, the survivors
// collapse by user keeping the most recently seen entry's display name, and
// the result is sorted by user id so repeated reads are comparable.
func OnlineUsers(entries []models.PresenceEntry, nowMs int64) []models.OnlineUser {
	latest := map[string]models.PresenceEntry{}
	for _, entry := range entries {
		if !FreshMillis(nowMs, entry.LastSeenMs, OnlineWindow) {
			continue
		}
		if prev, ok := latest[entry.UserID]; !ok || entry.LastSeenMs > prev.LastSeenMs {
			latest[entry.UserID] = entry
		}
	}

	users := make([]models.OnlineUser, 0, len(latest))
	for _, entry := range latest {
		users = append(users, models.OnlineUser{UserID: entry.UserID, DisplayName: entry.DisplayName})
	}
	sort.Slice(users, func(i, j int) bool { return users[i].UserID < users[j].UserID })
	return users
}
