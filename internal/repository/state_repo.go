package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"pulse_monitor/internal/models"
)

type StateSQLite struct {
	db *sql.DB
}

func NewStateSQLite(db *sql.DB) *StateSQLite {
	return &StateSQLite{db: db}
}

const (
	upsertStateSQL = `
		INSERT INTO device_state (device_id, session_id, heart_rate, finger_detected, zone, zone_color,
			quality, confidence, trend, is_stable, phase, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(device_id) DO UPDATE SET
			session_id=excluded.session_id,
			heart_rate=excluded.heart_rate,
			finger_detected=excluded.finger_detected,
			zone=excluded.zone,
			zone_color=excluded.zone_color,
			quality=excluded.quality,
			confidence=excluded.confidence,
			trend=excluded.trend,
			is_stable=excluded.is_stable,
			phase=excluded.phase,
			updated_at=excluded.updated_at
	`

	selectStateColumns = `SELECT device_id, session_id, heart_rate, finger_detected, zone, zone_color,
			quality, confidence, trend, is_stable, phase, updated_at FROM device_state`

	selectStateSQL     = selectStateColumns + ` WHERE device_id=?`
	selectAllStatesSQL = selectStateColumns + ` ORDER BY device_id ASC`
)

// Save upserts the row for s.DeviceID. A zero UpdatedAt is stamped with now.
func (r *StateSQLite) Save(ctx context.Context, s models.DeviceState) error {
	ts := s.UpdatedAt
	if ts.IsZero() {
		ts = time.Now().UTC()
	} else {
		ts = ts.UTC()
	}

	_, err := r.db.ExecContext(ctx, upsertStateSQL,
		s.DeviceID,
		nullString(s.SessionID),
		s.HeartRate,
		s.FingerDetected,
		s.Zone,
		s.ZoneColor,
		s.Quality,
		s.Confidence,
		s.Trend,
		s.IsStable,
		s.Phase,
		ts,
	)
	if err != nil {
		return fmt.Errorf("save state for %q: %w", s.DeviceID, err)
	}
	return nil
}

// Load returns the state of deviceID, or the zero value when none is stored.
func (r *StateSQLite) Load(ctx context.Context, deviceID string) (models.DeviceState, error) {
	s, err := scanState(r.db.QueryRowContext(ctx, selectStateSQL, deviceID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.DeviceState{}, nil
		}
		return models.DeviceState{}, fmt.Errorf("load state for %q: %w", deviceID, err)
	}
	return s, nil
}

// List returns the state of every known device ordered by id.
func (r *StateSQLite) List(ctx context.Context) ([]models.DeviceState, error) {
	rows, err := r.db.QueryContext(ctx, selectAllStatesSQL)
	if err != nil {
		return nil, fmt.Errorf("list states: %w", err)
	}
	defer rows.Close()

	out := make([]models.DeviceState, 0, 8)
	for rows.Next() {
		s, err := scanState(rows)
		if err != nil {
			return nil, fmt.Errorf("scan state: %w", err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanState(row rowScanner) (models.DeviceState, error) {
	var (
		s       models.DeviceState
		session sql.NullString
	)
	if err := row.Scan(
		&s.DeviceID,
		&session,
		&s.HeartRate,
		&s.FingerDetected,
		&s.Zone,
		&s.ZoneColor,
		&s.Quality,
		&s.Confidence,
		&s.Trend,
		&s.IsStable,
		&s.Phase,
		&s.UpdatedAt,
	); err != nil {
		return models.DeviceState{}, err
	}
	s.SessionID = session.String
	s.UpdatedAt = s.UpdatedAt.UTC()
	return s, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullTime(t time.Time) sql.NullTime {
	if t.IsZero() {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}
