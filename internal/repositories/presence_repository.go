package repositories

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"rooms-service/internal/liveness"
	"rooms-service/internal/models"
)

// presenceKeyTTL keeps abandoned room hashes from accumulating forever.
// Individual entries are expired at read time by the window policy; this TTL
// only garbage-collects rooms nobody has touched in a day.
const presenceKeyTTL = 24 * time.Hour

// PresenceRepository defines the session-keyed liveness store.
type PresenceRepository interface {
	Heartbeat(ctx context.Context, entry models.PresenceEntry) error
	Leave(ctx context.Context, room, userID, sessionID string) error
	ListOnline(ctx context.Context, room string, now time.Time) ([]models.OnlineUser, error)
}

// PresenceRepo stores presence entries in one Redis hash per room, one field
// per (user, session) pair.
type PresenceRepo struct {
	client *redis.Client
}

// NewPresenceRepo constructs PresenceRepo.
func NewPresenceRepo(client *redis.Client) *PresenceRepo {
	return &PresenceRepo{client: client}
}

func presenceKey(room string) string {
	return fmt.Sprintf("presence:room:%s", room)
}

func presenceField(userID, sessionID string) string {
	return userID + "|" + sessionID
}

// Heartbeat upserts the entry for the exact (room, user, session) key,
// refreshing last seen and the display name. Repeated calls just refresh.
func (r *PresenceRepo) Heartbeat(ctx context.Context, entry models.PresenceEntry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return err
	}

	key := presenceKey(entry.Room)
	if err := r.client.HSet(ctx, key, presenceField(entry.UserID, entry.SessionID), data).Err(); err != nil {
		return fmt.Errorf("presence heartbeat: %w", err)
	}
	r.client.Expire(ctx, key, presenceKeyTTL)
	return nil
}

// Leave removes one session's entry. Missing entries are not an error; this
// is called best-effort during page-unload races.
func (r *PresenceRepo) Leave(ctx context.Context, room, userID, sessionID string) error {
	err := r.client.HDel(ctx, presenceKey(room), presenceField(userID, sessionID)).Err()
	if err != nil {
		return fmt.Errorf("presence leave: %w", err)
	}
	return nil
}

// ListOnline reads every entry for the room and derives the window-filtered,
// per-user deduplicated view through liveness.OnlineUsers.
func (r *PresenceRepo) ListOnline(ctx context.Context, room string, now time.Time) ([]models.OnlineUser, error) {
	rows, err := r.client.HGetAll(ctx, presenceKey(room)).Result()
	if err != nil {
		return nil, fmt.Errorf("presence list: %w", err)
	}

	entries := make([]models.PresenceEntry, 0, len(rows))
	for field, raw := range rows {
		var entry models.PresenceEntry
		if err := json.Unmarshal([]byte(raw), &entry); err != nil {
			log.Printf("presence: dropping malformed entry %s: %v", field, err)
			continue
		}
		entries = append(entries, entry)
	}

	return liveness.OnlineUsers(entries, now.UnixMilli()), nil
}
