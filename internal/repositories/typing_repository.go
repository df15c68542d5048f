package repositories

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"

	"rooms-service/internal/liveness"
	"rooms-service/internal/models"
)

const typingKeyTTL = time.Hour

// TypingRepository defines the per-user typing signal store.
type TypingRepository interface {
	Ping(ctx context.Context, entry models.TypingEntry) error
	Stop(ctx context.Context, room, userID string) error
	ListTyping(ctx context.Context, room string, now time.Time) ([]models.TypingUser, error)
}

// TypingRepo stores typing entries in one Redis hash per room, one field per
// user. The key is already per-user, so reads need no deduplication.
type TypingRepo struct {
	client *redis.Client
}

// NewTypingRepo constructs TypingRepo.
func NewTypingRepo(client *redis.Client) *TypingRepo {
	return &TypingRepo{client: client}
}

func typingKey(room string) string {
	return fmt.Sprintf("typing:room:%s", room)
}

// Ping upserts the caller's typing timestamp.
func (r *TypingRepo) Ping(ctx context.Context, entry models.TypingEntry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return err
	}

	key := typingKey(entry.Room)
	if err := r.client.HSet(ctx, key, entry.UserID, data).Err(); err != nil {
		return fmt.Errorf("typing ping: %w", err)
	}
	r.client.Expire(ctx, key, typingKeyTTL)
	return nil
}

// Stop removes the caller's typing entry immediately, ahead of window
// expiry. A missing entry is not an error.
func (r *TypingRepo) Stop(ctx context.Context, room, userID string) error {
	err := r.client.HDel(ctx, typingKey(room), userID).Err()
	if err != nil {
		return fmt.Errorf("typing stop: %w", err)
	}
	return nil
}

// ListTyping returns the users whose last ping is inside the typing window
// relative to now.
func (r *TypingRepo) ListTyping(ctx context.Context, room string, now time.Time) ([]models.TypingUser, error) {
	rows, err := r.client.HGetAll(ctx, typingKey(room)).Result()
	if err != nil {
		return nil, fmt.Errorf("typing list: %w", err)
	}

	nowMs := now.UnixMilli()
	users := make([]models.TypingUser, 0, len(rows))
	for field, raw := range rows {
		var entry models.TypingEntry
		if err := json.Unmarshal([]byte(raw), &entry); err != nil {
			log.Printf("typing: dropping malformed entry %s: %v", field, err)
			continue
		}
		if !liveness.FreshMillis(nowMs, entry.LastTypedMs, liveness.TypingWindow) {
			continue
		}
		users = append(users, models.TypingUser{UserID: entry.UserID, DisplayName: entry.DisplayName})
	}
	sort.Slice(users, func(i, j int) bool { return users[i].UserID < users[j].UserID })
	return users, nil
}
