package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel"

	"rooms-service/internal/identity"
	"rooms-service/internal/liveness"
	"rooms-service/internal/observability"
	"rooms-service/internal/repositories"
	"rooms-service/internal/rooms"
)

// RoomSocketHandler handles room subscription websockets. A connection is
// one session in one room: while it lives the server heartbeats on its
// behalf, and typing frames from the client feed the typing throttle.
// Switching rooms means opening a new connection, so the previous
// subscription's timers are torn down with the old socket.
type RoomSocketHandler struct {
	hub       *Hub
	presence  repositories.PresenceRepository
	typing    repositories.TypingRepository
	refresher *Refresher
	verifier  *identity.Verifier
}

// NewRoomSocketHandler constructs a RoomSocketHandler.
func NewRoomSocketHandler(hub *Hub, presence repositories.PresenceRepository, typing repositories.TypingRepository, refresher *Refresher, verifier *identity.Verifier) *RoomSocketHandler {
	return &RoomSocketHandler{hub: hub, presence: presence, typing: typing, refresher: refresher, verifier: verifier}
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

type clientFrame struct {
	Type string `json:"type"`
}

// Handle upgrades the connection, registers the subscriber and, for
// authenticated callers, runs the liveness driver for the connection's
// lifetime. Unauthenticated callers get a read-only subscription.
func (h *RoomSocketHandler) Handle(c *gin.Context) {
	room := rooms.Normalize(c.Param("room"))

	ctx, span := otel.Tracer("rooms-service/ws").Start(c.Request.Context(), "ws.handshake")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	id, authenticated := h.resolveIdentity(c)

	session := strings.TrimSpace(c.Query("session"))
	if session == "" {
		session = uuid.NewString()
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}
	traceID := span.SpanContext().TraceID().String()
	requestID := observability.RequestIDFromRequest(c.Request)
	info := ConnInfo{
		ConnID:      newConnID(),
		UserID:      id.Subject,
		SessionID:   session,
		IP:          observability.IPFromRequest(c.Request),
		RequestID:   requestID,
		TraceID:     traceID,
		ConnectedAt: time.Now(),
	}
	h.hub.AddClient(room, conn, info)

	observability.IncWSActive()
	observability.IncWSEvent("ws_connect")
	_ = observability.PublishEvent(ctx, observability.WSEventsRoutingKey, observability.EventEnvelope{
		EventType: "ws_events",
		EventName: "ws_connect",
		Payload:   wsEventPayload(room, "ws_connect", info, 0, ""),
	}, observability.BuildHeaders(requestID, traceID))

	// The request context dies when this handler returns even though the
	// hijacked connection lives on, so everything scoped to the connection
	// runs on its own context.
	connCtx := context.Background()

	var driver *liveness.Driver
	if authenticated {
		driver = liveness.NewDriver(h.presence, h.typing, room, id, session,
			liveness.WithNotify(func() {
				h.refresher.Refresh(connCtx, room)
			}))
		if err := driver.Start(connCtx); err != nil {
			// Failed first heartbeat. Keep the subscription read-only;
			// the client falls back to polling or reconnects.
			driver = nil
		}
	}

	// Hand the new subscriber its initial presence/typing snapshot.
	h.refresher.ForceRefresh(ctx, room)

	go func() {
		var closeReason string
		defer func() {
			if driver != nil {
				driver.Close(connCtx)
			}
			h.hub.RemoveClient(room, conn)
			observability.DecWSActive()
			observability.IncWSEvent("ws_disconnect")
			_ = observability.PublishEvent(connCtx, observability.WSEventsRoutingKey, observability.EventEnvelope{
				EventType: "ws_events",
				EventName: "ws_disconnect",
				Payload:   wsEventPayload(room, "ws_disconnect", info, time.Since(info.ConnectedAt).Milliseconds(), closeReason),
			}, observability.BuildHeaders(requestID, traceID))
			conn.Close()
		}()
		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				closeReason = err.Error()
				if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					observability.IncWSEvent("ws_error")
					_ = observability.PublishEvent(connCtx, observability.WSEventsRoutingKey, observability.EventEnvelope{
						EventType: "ws_events",
						EventName: "ws_error",
						Payload:   wsEventPayload(room, "ws_error", info, time.Since(info.ConnectedAt).Milliseconds(), closeReason),
					}, observability.BuildHeaders(requestID, traceID))
				}
				return
			}
			if driver == nil {
				continue
			}
			var frame clientFrame
			if err := json.Unmarshal(data, &frame); err != nil {
				continue
			}
			switch frame.Type {
			case "typing":
				driver.Typing(connCtx)
			case "typing_stop":
				driver.TypingStop(connCtx)
			}
		}
	}()
}

func (h *RoomSocketHandler) resolveIdentity(c *gin.Context) (identity.Identity, bool) {
	token := c.GetHeader("Authorization")
	if token != "" {
		parts := strings.SplitN(token, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
			return identity.Identity{}, false
		}
		token = parts[1]
	} else {
		token = c.Query("token")
	}
	if token == "" {
		return identity.Identity{}, false
	}

	id, err := h.verifier.Verify(token)
	if err != nil {
		return identity.Identity{}, false
	}
	return id, true
}

func wsEventPayload(room, event string, info ConnInfo, durationMs int64, reason string) map[string]interface{} {
	return map[string]interface{}{
		"ws": map[string]interface{}{
			"room":        room,
			"event":       event,
			"conn_id":     info.ConnID,
			"duration_ms": durationMs,
			"reason":      reason,
		},
		"identity": map[string]interface{}{
			"user_id":    info.UserID,
			"session_id": info.SessionID,
			"ip":         info.IP,
		},
	}
}
