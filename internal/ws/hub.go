package ws

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"rooms-service/internal/models"
	"rooms-service/internal/observability"
)

// Hub maintains active websocket subscriptions, one set per room.
type Hub struct {
	rooms    map[string]map[*websocket.Conn]bool
	connInfo map[string]map[*websocket.Conn]ConnInfo
	mu       sync.RWMutex
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{
		rooms:    make(map[string]map[*websocket.Conn]bool),
		connInfo: make(map[string]map[*websocket.Conn]ConnInfo),
	}
}

// AddClient registers a websocket connection as a subscriber of a room.
func (h *Hub) AddClient(room string, conn *websocket.Conn, info ConnInfo) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.rooms[room]; !ok {
		h.rooms[room] = make(map[*websocket.Conn]bool)
	}
	h.rooms[room][conn] = true
	if _, ok := h.connInfo[room]; !ok {
		h.connInfo[room] = make(map[*websocket.Conn]ConnInfo)
	}
	h.connInfo[room][conn] = info
}

// RemoveClient removes a room subscription.
func (h *Hub) RemoveClient(room string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if conns, ok := h.rooms[room]; ok {
		delete(conns, conn)
		if len(conns) == 0 {
			delete(h.rooms, room)
		}
	}
	if infos, ok := h.connInfo[room]; ok {
		delete(infos, conn)
		if len(infos) == 0 {
			delete(h.connInfo, room)
		}
	}
}

// Rooms returns the rooms that currently have at least one subscriber.
func (h *Hub) Rooms() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	rooms := make([]string, 0, len(h.rooms))
	for room := range h.rooms {
		rooms = append(rooms, room)
	}
	return rooms
}

// SubscriberCount reports how many connections are watching a room.
func (h *Hub) SubscriberCount(room string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[room])
}

// Broadcast sends an event to every subscriber of its room. Connections that
// fail to accept the write are closed and dropped.
func (h *Hub) Broadcast(event models.RoomEvent) {
	h.mu.RLock()
	conns := make([]*websocket.Conn, 0, len(h.rooms[event.Room]))
	for conn := range h.rooms[event.Room] {
		conns = append(conns, conn)
	}
	h.mu.RUnlock()

	payload, err := json.Marshal(event)
	if err != nil {
		log.Printf("websocket marshal error: %v", err)
		return
	}
	for _, conn := range conns {
		if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			log.Printf("websocket write error: %v", err)
			// Capture the info before RemoveClient drops it.
			info, tracked := h.getConnInfo(event.Room, conn)
			conn.Close()
			h.RemoveClient(event.Room, conn)
			if tracked {
				h.publishWSError(event.Room, info, err)
			}
		}
	}
	observability.IncWSEvent(event.Type)
}

func (h *Hub) publishWSError(room string, info ConnInfo, err error) {
	headers := observability.BuildHeaders(info.RequestID, info.TraceID)
	_ = observability.PublishEvent(context.Background(), observability.WSEventsRoutingKey, observability.EventEnvelope{
		EventType: "ws_events",
		EventName: "ws_error",
		Payload:   wsEventPayload(room, "ws_error", info, time.Since(info.ConnectedAt).Milliseconds(), err.Error()),
	}, headers)
	observability.IncWSEvent("ws_error")
}

func (h *Hub) getConnInfo(room string, conn *websocket.Conn) (ConnInfo, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if infos, ok := h.connInfo[room]; ok {
		info, exists := infos[conn]
		return info, exists
	}
	return ConnInfo{}, false
}
