package ws

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"rooms-service/internal/models"
)

// OnlineLister is the read slice of the presence store the refresher needs.
type OnlineLister interface {
	ListOnline(ctx context.Context, room string, now time.Time) ([]models.OnlineUser, error)
}

// TypingLister is the read slice of the typing store the refresher needs.
type TypingLister interface {
	ListTyping(ctx context.Context, room string, now time.Time) ([]models.TypingUser, error)
}

// DefaultRefreshInterval bounds how long a subscriber can observe a view
// that only changed through window expiry (a ghost entry aging out announces
// nothing by itself).
const DefaultRefreshInterval = 2 * time.Second

// Refresher recomputes the filtered presence/typing views for every room
// with subscribers and pushes them when they changed. Store mutations call
// Refresh directly for low latency; the periodic sweep covers expiry.
type Refresher struct {
	hub      *Hub
	presence OnlineLister
	typing   TypingLister
	interval time.Duration

	mu           sync.Mutex
	lastPresence map[string]string
	lastTyping   map[string]string
	done         chan struct{}
	stopOnce     sync.Once
}

// NewRefresher constructs a Refresher over the hub and the two view sources.
func NewRefresher(hub *Hub, presence OnlineLister, typing TypingLister, interval time.Duration) *Refresher {
	if interval <= 0 {
		interval = DefaultRefreshInterval
	}
	return &Refresher{
		hub:          hub,
		presence:     presence,
		typing:       typing,
		interval:     interval,
		lastPresence: make(map[string]string),
		lastTyping:   make(map[string]string),
		done:         make(chan struct{}),
	}
}

// Start runs the periodic sweep until Stop or context cancellation.
func (r *Refresher) Start(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(r.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				for _, room := range r.hub.Rooms() {
					r.Refresh(ctx, room)
				}
			case <-r.done:
				return
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Stop halts the periodic sweep.
func (r *Refresher) Stop() {
	r.stopOnce.Do(func() { close(r.done) })
}

// Refresh recomputes both views for a room and broadcasts each one that
// differs from what subscribers last saw.
func (r *Refresher) Refresh(ctx context.Context, room string) {
	r.refresh(ctx, room, false)
}

// ForceRefresh broadcasts the current views even when unchanged, used to
// hand a fresh subscriber its initial snapshot.
func (r *Refresher) ForceRefresh(ctx context.Context, room string) {
	r.refresh(ctx, room, true)
}

func (r *Refresher) refresh(ctx context.Context, room string, force bool) {
	now := time.Now()

	online, err := r.presence.ListOnline(ctx, room, now)
	if err != nil {
		log.Printf("refresh presence failed room=%s: %v", room, err)
	} else if r.viewChanged(r.lastPresence, room, online) || force {
		r.hub.Broadcast(models.RoomEvent{Type: models.EventPresence, Room: room, Online: online})
	}

	typing, err := r.typing.ListTyping(ctx, room, now)
	if err != nil {
		log.Printf("refresh typing failed room=%s: %v", room, err)
	} else if r.viewChanged(r.lastTyping, room, typing) || force {
		r.hub.Broadcast(models.RoomEvent{Type: models.EventTyping, Room: room, Typing: typing})
	}
}

func (r *Refresher) viewChanged(seen map[string]string, room string, view any) bool {
	encoded, err := json.Marshal(view)
	if err != nil {
		return true
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if seen[room] == string(encoded) {
		return false
	}
	seen[room] = string(encoded)
	return true
}
