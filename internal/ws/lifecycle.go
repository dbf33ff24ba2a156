package ws

import (
	"context"

	"github.com/google/uuid"

	"deckchat-service/internal/observability"
)

func newConnID() string {
	return uuid.NewString()
}

// publishLifecycle records a ws_connect/ws_disconnect/ws_error event for a
// connection on the metrics counter and the AMQP event stream.
func publishLifecycle(ctx context.Context, kind string, resourceID int, info ConnInfo, event, reason string, durationMS int64) {
	observability.IncWSEvent(kind, event)
	payload := map[string]interface{}{
		"ws": map[string]interface{}{
			"kind":        kind,
			"resource_id": resourceID,
			"event":       event,
			"conn_id":     info.ConnID,
			"duration_ms": durationMS,
			"reason":      reason,
		},
		"identity": map[string]interface{}{
			"user_id":   info.UserID,
			"device_id": info.DeviceID,
			"ip":        info.IP,
		},
	}
	_ = observability.PublishEvent(ctx, wsRoutingKey(kind), observability.EventEnvelope{
		EventType: "ws_events",
		EventName: event,
		Payload:   payload,
	}, observability.BuildHeaders(info.RequestID, info.TraceID))
}
