package observability

// Routing keys on the service's topic exchange. Websocket lifecycle events
// and audit records ride separate keys so consumers can bind selectively.
const (
	WSEventsRoutingKey = "ws_events.rooms"
	AuditRoutingKey    = "audit.rooms"
)

// EventEnvelope frames every event published to the exchange: a coarse type
// for routing decisions, a name for the concrete occurrence, and a free-form
// payload.
type EventEnvelope struct {
	EventType string      `json:"event_type"`
	EventName string      `json:"event_name"`
	Payload   interface{} `json:"payload"`
}

// BuildHeaders carries the request and trace correlation ids into AMQP
// message headers. Empty ids are omitted rather than sent blank.
func BuildHeaders(requestID, traceID string) map[string]string {
	headers := map[string]string{}
	if requestID != "" {
		headers["x-request-id"] = requestID
	}
	if traceID != "" {
		headers["trace_id"] = traceID
	}
	return headers
}
