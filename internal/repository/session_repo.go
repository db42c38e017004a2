package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"pulse_monitor/internal/models"
)

type SessionSQLite struct {
	db *sql.DB
}

func NewSessionSQLite(db *sql.DB) *SessionSQLite { return &SessionSQLite{db: db} }

var _ SessionRepo = (*SessionSQLite)(nil)

const (
	insertSessionSQL = `
		INSERT INTO sessions (id, device_id, started_at, last_batch_at, ended_at, batches, samples, last_heart_rate, archive_path)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	updateSessionSQL = `
		UPDATE sessions SET last_batch_at=?, ended_at=?, batches=?, samples=?, last_heart_rate=?, archive_path=?
		WHERE id=?
	`

	selectSessionColumns = `SELECT id, device_id, started_at, last_batch_at, ended_at, batches, samples, last_heart_rate, archive_path FROM sessions`
)

// ErrNoSessionRow is returned by Update when the id does not exist.
var ErrNoSessionRow = errors.New("session row not found")

func (r *SessionSQLite) Create(ctx context.Context, s models.Session) error {
	_, err := r.db.ExecContext(ctx, insertSessionSQL,
		s.ID,
		s.DeviceID,
		s.StartedAt.UTC(),
		s.LastBatchAt.UTC(),
		nullTime(s.EndedAt),
		s.Batches,
		s.Samples,
		s.LastHeartRate,
		nullString(s.ArchivePath),
	)
	if err != nil {
		return fmt.Errorf("insert session %q: %w", s.ID, err)
	}
	return nil
}

// Update writes the progress fields of an existing session.
func (r *SessionSQLite) Update(ctx context.Context, s models.Session) error {
	res, err := r.db.ExecContext(ctx, updateSessionSQL,
		s.LastBatchAt.UTC(),
		nullTime(s.EndedAt),
		s.Batches,
		s.Samples,
		s.LastHeartRate,
		nullString(s.ArchivePath),
		s.ID,
	)
	if err != nil {
		return fmt.Errorf("update session %q: %w", s.ID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected for session %q: %w", s.ID, err)
	}
	if n == 0 {
		return fmt.Errorf("update session %q: %w", s.ID, ErrNoSessionRow)
	}
	return nil
}

// Get returns the session or (nil, nil) when it does not exist.
func (r *SessionSQLite) Get(ctx context.Context, id string) (*models.Session, error) {
	s, err := scanSession(r.db.QueryRowContext(ctx, selectSessionColumns+` WHERE id=?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("select session %q: %w", id, err)
	}
	return &s, nil
}

// List returns sessions newest first, optionally restricted to one device.
func (r *SessionSQLite) List(ctx context.Context, deviceID string) ([]models.Session, error) {
	q := selectSessionColumns
	var args []any
	if deviceID != "" {
		q += ` WHERE device_id=?`
		args = append(args, deviceID)
	}
	q += ` ORDER BY started_at DESC`

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	out := make([]models.Session, 0, 16)
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func scanSession(row rowScanner) (models.Session, error) {
	var (
		s       models.Session
		ended   sql.NullTime
		archive sql.NullString
	)
	if err := row.Scan(
		&s.ID,
		&s.DeviceID,
		&s.StartedAt,
		&s.LastBatchAt,
		&ended,
		&s.Batches,
		&s.Samples,
		&s.LastHeartRate,
		&archive,
	); err != nil {
		return models.Session{}, err
	}
	s.StartedAt = s.StartedAt.UTC()
	s.LastBatchAt = s.LastBatchAt.UTC()
	if ended.Valid {
		s.EndedAt = ended.Time.UTC()
	}
	s.ArchivePath = archive.String
	return s, nil
}
