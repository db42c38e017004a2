package service

import (
	"context"
	"io"
	"time"

	"pulse_monitor/internal/archive"
	"pulse_monitor/internal/broadcast"
	"pulse_monitor/internal/engine"
	"pulse_monitor/internal/logger"
	"pulse_monitor/internal/models"
	"pulse_monitor/internal/repository"
)

type Authorization interface {
	SignUp(ctx context.Context, username, password string) (int, error)
	GenerateToken(ctx context.Context, username, password string) (string, error)
	ParseToken(accessToken string) (int, error)
}

// HeartRate runs sensor batches through a per-device engine.
type HeartRate interface {
	Ingest(ctx context.Context, p IngestParams) (engine.Result, error)
	CloseIdle(ctx context.Context, now time.Time) int
	CloseAll(ctx context.Context) int
}

// Monitoring exposes the latest state of each device.
type Monitoring interface {
	GetState(ctx context.Context, deviceID string) (models.DeviceState, error)
	ListDevices(ctx context.Context) ([]models.DeviceState, error)
}

// EventLog exposes the append-only device event log.
type EventLog interface {
	List(ctx context.Context, f LogFilter) ([]models.DeviceEvent, error)
}

// Sessions exposes recorded sessions and their raw archives.
type Sessions interface {
	ListSessions(ctx context.Context, deviceID string) ([]models.Session, error)
	GetSession(ctx context.Context, id string) (models.Session, error)
	OpenSessionSamples(ctx context.Context, id string) (io.ReadCloser, models.Session, error)
}

// Reaper closes idle sessions in the background until ctx is canceled.
type Reaper interface {
	Run(ctx context.Context, tick time.Duration)
}

type Service struct {
	HeartRate
	Monitoring
	EventLog
	Sessions
	Reaper
	Authorization
}

// StateCache is the optional shared cache of latest device states.
type StateCache interface {
	SetLatest(ctx context.Context, s models.DeviceState) error
	GetLatest(ctx context.Context, deviceID string) (models.DeviceState, bool, error)
	Forget(ctx context.Context, deviceID string) error
}

// Deps carries everything NewService wires together. Archive, Cache and
// Publisher are optional.
type Deps struct {
	Repos       *repository.Repository
	Engine      engine.Config
	Archive     *archive.Store
	Cache       StateCache
	Publisher   broadcast.Publisher
	Log         *logger.Logger
	Auth        AuthConfig
	IdleTimeout time.Duration
}

func NewService(d Deps) *Service {
	if d.Log == nil {
		d.Log = logger.Nop()
	}
	hr := NewHeartRateService(HeartRateDeps{
		Engine:      d.Engine,
		States:      d.Repos.StateRepo,
		Events:      d.Repos.EventRepo,
		Sessions:    d.Repos.SessionRepo,
		Archive:     d.Archive,
		Cache:       d.Cache,
		Publisher:   d.Publisher,
		Log:         d.Log,
		IdleTimeout: d.IdleTimeout,
	})
	return &Service{
		HeartRate:     hr,
		Monitoring:    NewMonitoringService(d.Repos.StateRepo, d.Cache),
		EventLog:      NewEventLogService(d.Repos.EventRepo),
		Sessions:      NewSessionService(d.Repos.SessionRepo, d.Archive),
		Reaper:        NewReaperService(hr, d.Log),
		Authorization: NewAuthService(d.Repos.Auth, d.Auth),
	}
}
