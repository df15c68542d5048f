package liveness

import (
	"context"
	"log"
	"sync"
	"time"

	"rooms-service/internal/identity"
	"rooms-service/internal/models"
)

// PresenceStore is the slice of the presence repository the driver mutates.
type PresenceStore interface {
	Heartbeat(ctx context.Context, entry models.PresenceEntry) error
	Leave(ctx context.Context, room, userID, sessionID string) error
}

// TypingStore is the slice of the typing repository the driver mutates.
type TypingStore interface {
	Ping(ctx context.Context, entry models.TypingEntry) error
	Stop(ctx context.Context, room, userID string) error
}

// Driver owns the liveness timers for one subscribed session in one room:
// the heartbeat loop, the typing throttle, and the typing idle-stop timer.
// Every exit path cancels all of them deterministically; switching rooms
// means closing this driver and starting a fresh one.
type Driver struct {
	presence PresenceStore
	typing   TypingStore
	room     string
	id       identity.Identity
	session  string
	notify   func()

	interval time.Duration
	throttle time.Duration
	idleStop time.Duration
	clock    func() time.Time

	mu            sync.Mutex
	throttleUntil time.Time
	stopTimer     *time.Timer
	done          chan struct{}
	started       bool
	closed        bool
}

// DriverOption configures a Driver.
type DriverOption func(*Driver)

// WithHeartbeatInterval overrides the heartbeat cadence.
func WithHeartbeatInterval(d time.Duration) DriverOption {
	return func(dr *Driver) { dr.interval = d }
}

// WithTypingTimings overrides the typing throttle and idle-stop delays.
func WithTypingTimings(throttle, idleStop time.Duration) DriverOption {
	return func(dr *Driver) {
		dr.throttle = throttle
		dr.idleStop = idleStop
	}
}

// WithClock overrides the time source.
func WithClock(clock func() time.Time) DriverOption {
	return func(dr *Driver) { dr.clock = clock }
}

// WithNotify registers a callback fired after every store mutation, used to
// push recomputed views to subscribers without waiting for the refresher.
func WithNotify(notify func()) DriverOption {
	return func(dr *Driver) { dr.notify = notify }
}

// NewDriver builds a driver for one (room, identity, session) subscription.
func NewDriver(presence PresenceStore, typing TypingStore, room string, id identity.Identity, session string, opts ...DriverOption) *Driver {
	d := &Driver{
		presence: presence,
		typing:   typing,
		room:     room,
		id:       id,
		session:  session,
		interval: HeartbeatInterval,
		throttle: TypingThrottle,
		idleStop: TypingIdleStop,
		clock:    time.Now,
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Start sends one heartbeat immediately, then keeps heartbeating on the
// configured interval until Close. The error of the first heartbeat is
// returned so the caller can refuse the subscription; later misses are only
// logged. The window policy absorbs them, there is no retry.
func (d *Driver) Start(ctx context.Context) error {
	d.mu.Lock()
	if d.started || d.closed {
		d.mu.Unlock()
		return nil
	}
	d.started = true
	d.mu.Unlock()

	if err := d.heartbeat(ctx); err != nil {
		return err
	}

	go func() {
		ticker := time.NewTicker(d.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if err := d.heartbeat(context.Background()); err != nil {
					log.Printf("heartbeat failed room=%s user=%s: %v", d.room, d.id.Subject, err)
				}
			case <-d.done:
				return
			case <-ctx.Done():
				return
			}
		}
	}()
	return nil
}

func (d *Driver) heartbeat(ctx context.Context) error {
	err := d.presence.Heartbeat(ctx, models.PresenceEntry{
		Room:        d.room,
		UserID:      d.id.Subject,
		SessionID:   d.session,
		DisplayName: d.id.DisplayName(),
		LastSeenMs:  d.clock().UnixMilli(),
	})
	if err == nil && d.notify != nil {
		d.notify()
	}
	return err
}

// Typing records a keystroke: pings the typing store unless a ping was sent
// within the throttle window, and (re)arms the idle-stop timer that clears
// the indicator shortly after the user pauses.
func (d *Driver) Typing(ctx context.Context) {
	now := d.clock()

	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	shouldPing := now.After(d.throttleUntil) || now.Equal(d.throttleUntil)
	if shouldPing {
		d.throttleUntil = now.Add(d.throttle)
	}
	if d.stopTimer != nil {
		d.stopTimer.Stop()
	}
	d.stopTimer = time.AfterFunc(d.idleStop, func() {
		d.TypingStop(context.Background())
	})
	d.mu.Unlock()

	if !shouldPing {
		return
	}
	err := d.typing.Ping(ctx, models.TypingEntry{
		Room:        d.room,
		UserID:      d.id.Subject,
		DisplayName: d.id.DisplayName(),
		LastTypedMs: now.UnixMilli(),
	})
	if err != nil {
		log.Printf("typing ping failed room=%s user=%s: %v", d.room, d.id.Subject, err)
		return
	}
	if d.notify != nil {
		d.notify()
	}
}

// TypingStop clears the caller's typing indicator immediately and disarms
// the idle-stop timer. Safe to call at any time; errors are swallowed since
// the store's window expiry backstops a lost stop.
func (d *Driver) TypingStop(ctx context.Context) {
	d.mu.Lock()
	if d.stopTimer != nil {
		d.stopTimer.Stop()
		d.stopTimer = nil
	}
	d.throttleUntil = time.Time{}
	d.mu.Unlock()

	if err := d.typing.Stop(ctx, d.room, d.id.Subject); err != nil {
		log.Printf("typing stop failed room=%s user=%s: %v", d.room, d.id.Subject, err)
		return
	}
	if d.notify != nil {
		d.notify()
	}
}

// Close tears the subscription down: cancels the heartbeat loop and typing
// timers, then best-effort leaves presence and clears typing. A leave racing
// a just-sent heartbeat may let the entry briefly reappear; window expiry
// self-heals that within OnlineWindow.
func (d *Driver) Close(ctx context.Context) {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	close(d.done)
	if d.stopTimer != nil {
		d.stopTimer.Stop()
		d.stopTimer = nil
	}
	d.mu.Unlock()

	if err := d.presence.Leave(ctx, d.room, d.id.Subject, d.session); err != nil {
		log.Printf("presence leave failed room=%s user=%s: %v", d.room, d.id.Subject, err)
	}
	if err := d.typing.Stop(ctx, d.room, d.id.Subject); err != nil {
		log.Printf("typing stop failed room=%s user=%s: %v", d.room, d.id.Subject, err)
	}
	if d.notify != nil {
		d.notify()
	}
}
