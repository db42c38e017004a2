package models

import "time"

// DeviceState is the latest displayable reading of one sensor.
type DeviceState struct {
	DeviceID       string    `json:"device_id"`
	SessionID      string    `json:"session_id,omitempty"`
	HeartRate      int       `json:"heart_rate"`
	FingerDetected bool      `json:"finger_detected"`
	Zone           string    `json:"zone"`
	ZoneColor      string    `json:"zone_color"`
	Quality        float64   `json:"quality"`
	Confidence     float64   `json:"confidence"`
	Trend          string    `json:"trend"`
	IsStable       bool      `json:"is_stable"`
	Phase          string    `json:"phase"`
	UpdatedAt      time.Time `json:"updated_at"`
}
