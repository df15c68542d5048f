package liveness

import (
	"testing"
	"time"
)

func TestFreshClosedInterval(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	if !Fresh(now, now, OnlineWindow) {
		t.Error("entry seen right now should be fresh")
	}
	if !Fresh(now, now.Add(-OnlineWindow), OnlineWindow) {
		t.Error("entry aged exactly OnlineWindow should still be fresh")
	}
	if Fresh(now, now.Add(-OnlineWindow-time.Millisecond), OnlineWindow) {
		t.Error("entry aged OnlineWindow+1ms should be stale")
	}
}

func TestFreshMillis(t *testing.T) {
	now := time.Now().UnixMilli()

	if !FreshMillis(now, now-TypingWindow.Milliseconds(), TypingWindow) {
		t.Error("boundary timestamp should be fresh")
	}
	if FreshMillis(now, now-TypingWindow.Milliseconds()-1, TypingWindow) {
		t.Error("timestamp 1ms past the window should be stale")
	}
}

func TestTypingWindowShorterThanOnlineWindow(t *testing.T) {
	if TypingWindow >= OnlineWindow {
		t.Error("typing entries must expire independently and sooner than presence entries")
	}
	if HeartbeatInterval*6 > OnlineWindow {
		t.Error("at least six heartbeats should fit inside one online window")
	}
}
