package liveness

import "time"

const (
	// OnlineWindow is how long a presence entry stays fresh after its last
	// heartbeat. Wide enough to absorb heartbeat jitter and backgrounded
	// tabs, narrow enough that "online" still feels live.
	OnlineWindow = 90 * time.Second

	// TypingWindow is how long a typing entry stays fresh after the last
	// ping. It is a safety net for missed stop calls; the client driver
	// clears typing state much sooner on its own.
	TypingWindow = 4 * time.Second

	// HeartbeatInterval is the cadence at which connected clients refresh
	// their presence. Kept materially shorter than OnlineWindow so several
	// heartbeats land inside one window and dropped pings are tolerated.
	HeartbeatInterval = 10 * time.Second

	// TypingThrottle suppresses redundant typing pings while the user keeps
	// typing.
	TypingThrottle = 800 * time.Millisecond

	// TypingIdleStop is how long after the last keystroke the driver
	// proactively sends a typing stop, independent of TypingWindow.
	TypingIdleStop = 1200 * time.Millisecond
)

// Fresh reports whether a timestamp is still inside the window relative to
// now. The interval is closed: an entry aged exactly window is still fresh.
func Fresh(now, last time.Time, window time.Duration) bool {
	return now.Sub(last) <= window
}

// FreshMillis is Fresh over epoch-millisecond timestamps, the representation
// the presence and typing stores persist.
func FreshMillis(nowMs, lastMs int64, window time.Duration) bool {
	return nowMs-lastMs <= window.Milliseconds()
}
