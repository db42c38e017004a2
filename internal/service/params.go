package service

import "time"

// IngestParams is one batch from a sensor. SampleRateHz 0 means the
// configured rate.
type IngestParams struct {
	DeviceID     string
	Samples      []int
	SampleRateHz int
}

// LogFilter supports history filtering by time range, type and device.
type LogFilter struct {
	From     time.Time // inclusive; zero means no lower bound
	To       time.Time // inclusive; zero means no upper bound
	Type     string    // "", "CONTACT_ACQUIRED", "CONTACT_LOST", "PHASE_CHANGE", "READING", "SESSION_CLOSED"
	DeviceID string
}

type AuthConfig struct {
	SigningKey string
	TokenTTL   time.Duration
}
