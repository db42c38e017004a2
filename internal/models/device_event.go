package models

import "time"

// Event types.
const (
	EventContactAcquired = "CONTACT_ACQUIRED"
	EventContactLost     = "CONTACT_LOST"
	EventPhaseChange     = "PHASE_CHANGE"
	EventReading         = "READING"
	EventSessionClosed   = "SESSION_CLOSED"
)

// DeviceEvent is a single log entry.
type DeviceEvent struct {
	EventID     string    `json:"event_id"`
	DeviceID    string    `json:"device_id"`
	SessionID   string    `json:"session_id,omitempty"`
	OccurredAt  time.Time `json:"occurred_at"`
	Type        string    `json:"type"`
	Description string    `json:"description"`
	Metadata    any       `json:"metadata,omitempty"`
}
