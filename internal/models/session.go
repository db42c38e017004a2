package models

import "time"

// Session spans one uninterrupted stream of batches from a device. EndedAt
// stays zero while the session is open.
type Session struct {
	ID            string    `json:"id"`
	DeviceID      string    `json:"device_id"`
	StartedAt     time.Time `json:"started_at"`
	LastBatchAt   time.Time `json:"last_batch_at"`
	EndedAt       time.Time `json:"ended_at,omitempty"`
	Batches       int       `json:"batches"`
	Samples       int       `json:"samples"`
	LastHeartRate int       `json:"last_heart_rate"`
	ArchivePath   string    `json:"archive_path,omitempty"`
}

// Active reports whether the session is still receiving batches.
func (s Session) Active() bool { return s.EndedAt.IsZero() }
