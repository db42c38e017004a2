package repository

import (
	"context"
	"database/sql"
	"time"

	"pulse_monitor/internal/models"
)

type Authorization interface {
	Create(ctx context.Context, username, hash string) (int, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
}

type StateRepo interface {
	Save(ctx context.Context, s models.DeviceState) error
	Load(ctx context.Context, deviceID string) (models.DeviceState, error)
	List(ctx context.Context) ([]models.DeviceState, error)
}

type EventRepo interface {
	Append(ctx context.Context, e models.DeviceEvent) error
	List(ctx context.Context, from, to time.Time, typ, deviceID string) ([]models.DeviceEvent, error)
}

type SessionRepo interface {
	Create(ctx context.Context, s models.Session) error
	Update(ctx context.Context, s models.Session) error
	Get(ctx context.Context, id string) (*models.Session, error)
	List(ctx context.Context, deviceID string) ([]models.Session, error)
}

type Repository struct {
	StateRepo   StateRepo
	EventRepo   EventRepo
	SessionRepo SessionRepo
	Auth        Authorization
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{
		StateRepo:   NewStateSQLite(db),
		EventRepo:   NewEventSQLite(db),
		SessionRepo: NewSessionSQLite(db),
		Auth:        NewUserRepository(db),
	}
}
