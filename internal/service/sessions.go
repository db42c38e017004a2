package service

import (
	"context"
	"errors"
	"io"
	"strings"

	"pulse_monitor/internal/archive"
	"pulse_monitor/internal/models"
	"pulse_monitor/internal/repository"
)

var (
	ErrSessionNotFound    = errors.New("session not found")
	ErrArchiveUnavailable = errors.New("session has no raw archive")
)

type SessionService struct {
	repo    repository.SessionRepo
	archive *archive.Store
}

// NewSessionService returns a session reader. store may be nil when raw
// archiving is disabled.
func NewSessionService(repo repository.SessionRepo, store *archive.Store) *SessionService {
	return &SessionService{repo: repo, archive: store}
}

// ListSessions returns sessions newest first, optionally for one device.
func (s *SessionService) ListSessions(ctx context.Context, deviceID string) ([]models.Session, error) {
	return s.repo.List(ctx, strings.TrimSpace(deviceID))
}

func (s *SessionService) GetSession(ctx context.Context, id string) (models.Session, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return models.Session{}, ErrSessionNotFound
	}
	sess, err := s.repo.Get(ctx, id)
	if err != nil {
		return models.Session{}, err
	}
	if sess == nil {
		return models.Session{}, ErrSessionNotFound
	}
	return *sess, nil
}

// OpenSessionSamples opens the raw sample archive of a session. The caller
// closes the reader.
func (s *SessionService) OpenSessionSamples(ctx context.Context, id string) (io.ReadCloser, models.Session, error) {
	sess, err := s.GetSession(ctx, id)
	if err != nil {
		return nil, models.Session{}, err
	}
	if s.archive == nil || sess.ArchivePath == "" {
		return nil, sess, ErrArchiveUnavailable
	}
	rc, err := s.archive.Open(sess.ArchivePath)
	if err != nil {
		return nil, sess, err
	}
	return rc, sess, nil
}
