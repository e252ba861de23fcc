package events

import "context"

// Event types
const (
	EventTrailSuspicious      = "trail_suspicious"
	EventAuditStatusChanged   = "audit_status_changed"
	EventFindingStatusChanged = "finding_status_changed"
	EventCARStatusChanged     = "corrective_action_status_changed"
	EventNotificationDue      = "notification_due"
)

// Streams
const (
	StreamTrail      = "events:trail"
	StreamCompliance = "events:compliance"
)

type Event struct {
	Type    string         `json:"type"`
	Payload map[string]any `json:"payload"`
}

type Publisher interface {
	Publish(ctx context.Context, stream string, event Event) error
}

type Subscriber interface {
	Subscribe(ctx context.Context, stream string, handler func(Event)) error
}
