package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"pulse_monitor/internal/archive"
	"pulse_monitor/internal/broadcast"
	"pulse_monitor/internal/engine"
	"pulse_monitor/internal/logger"
	"pulse_monitor/internal/metrics"
	"pulse_monitor/internal/models"
	"pulse_monitor/internal/repository"

	"github.com/google/uuid"
)

const defaultIdleTimeout = 30 * time.Second

var (
	ErrEmptyBatch            = errors.New("samples are required")
	ErrUnsupportedSampleRate = errors.New("unsupported sample rate")
)

// HeartRateDeps configures a HeartRateService. Archive, Cache and Publisher
// may be nil; Clock defaults to time.Now.
type HeartRateDeps struct {
	Engine      engine.Config
	States      repository.StateRepo
	Events      repository.EventRepo
	Sessions    repository.SessionRepo
	Archive     *archive.Store
	Cache       StateCache
	Publisher   broadcast.Publisher
	Log         *logger.Logger
	IdleTimeout time.Duration
	Clock       func() time.Time
}

// deviceSession is the live pipeline of one device. mu serializes batches
// so the engine sees them in arrival order.
type deviceSession struct {
	mu           sync.Mutex
	deviceID     string
	engine       *engine.Engine
	session      models.Session
	lastPhase    engine.Phase
	lastFinger   bool
	lastReported int
	closed       bool

	lastSeen time.Time // guarded by HeartRateService.mu
}

// HeartRateService owns one engine per device and records what each batch
// produced: session bookkeeping, raw archive, events, latest state, cache,
// live stream and metrics. Only validation errors fail a batch.
type HeartRateService struct {
	cfg       engine.Config
	states    repository.StateRepo
	events    repository.EventRepo
	sessions  repository.SessionRepo
	archive   *archive.Store
	cache     StateCache
	publisher broadcast.Publisher
	log       *logger.Logger
	idle      time.Duration
	now       func() time.Time

	mu      sync.Mutex
	devices map[string]*deviceSession
}

func NewHeartRateService(d HeartRateDeps) *HeartRateService {
	if d.Log == nil {
		d.Log = logger.Nop()
	}
	if d.IdleTimeout <= 0 {
		d.IdleTimeout = defaultIdleTimeout
	}
	if d.Clock == nil {
		d.Clock = time.Now
	}
	return &HeartRateService{
		cfg:       d.Engine,
		states:    d.States,
		events:    d.Events,
		sessions:  d.Sessions,
		archive:   d.Archive,
		cache:     d.Cache,
		publisher: d.Publisher,
		log:       d.Log,
		idle:      d.IdleTimeout,
		now:       d.Clock,
		devices:   make(map[string]*deviceSession),
	}
}

// Ingest runs one batch through the device's engine.
func (s *HeartRateService) Ingest(ctx context.Context, p IngestParams) (engine.Result, error) {
	deviceID := strings.TrimSpace(p.DeviceID)
	switch {
	case deviceID == "":
		metrics.RejectedBatches.WithLabelValues("device_id").Inc()
		return engine.Result{}, ErrEmptyDeviceID
	case len(p.Samples) == 0:
		metrics.RejectedBatches.WithLabelValues("empty").Inc()
		return engine.Result{}, ErrEmptyBatch
	case p.SampleRateHz != 0 && p.SampleRateHz != s.cfg.SampleRateHz:
		metrics.RejectedBatches.WithLabelValues("sample_rate").Inc()
		return engine.Result{}, fmt.Errorf("%w: got %d Hz, engine runs at %d Hz",
			ErrUnsupportedSampleRate, p.SampleRateHz, s.cfg.SampleRateHz)
	}

	now := s.now()
	ds := s.acquire(deviceID, now)
	defer ds.mu.Unlock()

	if ds.session.ID == "" {
		s.openSession(ctx, ds, now)
	}
	if s.archive != nil && ds.session.ArchivePath != "" {
		if err := s.archive.Append(ds.session.ArchivePath, p.Samples); err != nil {
			s.sideEffectFailed("archive_append", deviceID, err)
		}
	}

	started := time.Now()
	res := ds.engine.ProcessBatch(p.Samples, now)
	elapsed := time.Since(started).Seconds()

	ds.session.LastBatchAt = now.UTC()
	ds.session.Batches++
	ds.session.Samples += len(p.Samples)
	if res.HeartRate > 0 {
		ds.session.LastHeartRate = res.HeartRate
	}
	if err := s.sessions.Update(ctx, ds.session); err != nil {
		s.sideEffectFailed("session_update", deviceID, err)
	}

	if res.Debug.Reason == engine.ReasonShortBatch {
		metrics.RejectedBatches.WithLabelValues("short").Inc()
		return res, nil
	}

	s.recordTransitions(ctx, ds, res, now)
	s.storeState(ctx, stateFromResult(deviceID, ds.session.ID, res, now))
	s.publish(deviceID, p.Samples, res, now)
	metrics.ObserveReading(deviceID, string(res.Phase), res.HeartRate, elapsed)
	return res, nil
}

// acquire returns the device's live session locked. A session closed by the
// reaper between lookup and lock is replaced by a fresh one.
func (s *HeartRateService) acquire(deviceID string, now time.Time) *deviceSession {
	for {
		s.mu.Lock()
		ds, ok := s.devices[deviceID]
		if !ok {
			ds = &deviceSession{
				deviceID:  deviceID,
				engine:    engine.New(s.cfg),
				lastPhase: engine.PhaseNoSignal,
			}
			s.devices[deviceID] = ds
		}
		ds.lastSeen = now
		s.mu.Unlock()

		ds.mu.Lock()
		if !ds.closed {
			return ds
		}
		ds.mu.Unlock()
	}
}

func (s *HeartRateService) openSession(ctx context.Context, ds *deviceSession, now time.Time) {
	ds.session = models.Session{
		ID:          uuid.NewString(),
		DeviceID:    ds.deviceID,
		StartedAt:   now.UTC(),
		LastBatchAt: now.UTC(),
	}
	if s.archive != nil {
		path, err := s.archive.Create(ds.deviceID, now)
		if err != nil {
			s.sideEffectFailed("archive_create", ds.deviceID, err)
		}
		ds.session.ArchivePath = path
	}
	if err := s.sessions.Create(ctx, ds.session); err != nil {
		s.sideEffectFailed("session_create", ds.deviceID, err)
	}
	metrics.ActiveSessions.Inc()
	s.log.Infow("session_opened", "device_id", ds.deviceID, "session_id", ds.session.ID)
}

// recordTransitions appends contact, phase and stable-reading events.
func (s *HeartRateService) recordTransitions(ctx context.Context, ds *deviceSession, res engine.Result, now time.Time) {
	if res.FingerDetected != ds.lastFinger {
		if res.FingerDetected {
			s.appendEvent(ctx, ds, now, models.EventContactAcquired, "Finger placed on sensor", nil)
		} else {
			s.appendEvent(ctx, ds, now, models.EventContactLost, "Finger removed from sensor",
				map[string]any{"reason": res.Debug.Reason})
		}
		ds.lastFinger = res.FingerDetected
	}

	if res.Phase != ds.lastPhase {
		s.appendEvent(ctx, ds, now, models.EventPhaseChange,
			fmt.Sprintf("Phase changed to %s", res.Phase),
			map[string]any{"from": string(ds.lastPhase), "to": string(res.Phase)})
		ds.lastPhase = res.Phase
	}

	switch {
	case !res.FingerDetected:
		ds.lastReported = 0
	case res.IsStable && res.HeartRate > 0 && res.HeartRate != ds.lastReported:
		s.appendEvent(ctx, ds, now, models.EventReading,
			fmt.Sprintf("Heart rate %d bpm", res.HeartRate),
			map[string]any{
				"heart_rate": res.HeartRate,
				"confidence": res.Confidence,
				"zone":       res.Zone,
				"trend":      string(res.Trend),
			})
		ds.lastReported = res.HeartRate
	}
}

func (s *HeartRateService) appendEvent(ctx context.Context, ds *deviceSession, now time.Time, typ, desc string, meta map[string]any) {
	err := s.events.Append(ctx, models.DeviceEvent{
		EventID:     uuid.NewString(),
		DeviceID:    ds.deviceID,
		SessionID:   ds.session.ID,
		OccurredAt:  now.UTC(),
		Type:        typ,
		Description: desc,
		Metadata:    meta,
	})
	if err != nil {
		s.sideEffectFailed("event_append", ds.deviceID, err)
	}
}

func (s *HeartRateService) storeState(ctx context.Context, st models.DeviceState) {
	if err := s.states.Save(ctx, st); err != nil {
		s.sideEffectFailed("state_save", st.DeviceID, err)
	}
	if s.cache != nil {
		if err := s.cache.SetLatest(ctx, st); err != nil {
			s.sideEffectFailed("cache_set", st.DeviceID, err)
		}
	}
}

func (s *HeartRateService) publish(deviceID string, samples []int, res engine.Result, now time.Time) {
	if s.publisher == nil {
		return
	}
	s.publisher.Publish(broadcast.Message{
		Type:     broadcast.TypeReading,
		DeviceID: deviceID,
		Samples:  samples,
		At:       now.UTC(),
		Result:   res,
	})
}

// CloseIdle ends every session that has not received a batch within the
// idle timeout and returns how many were closed.
func (s *HeartRateService) CloseIdle(ctx context.Context, now time.Time) int {
	return s.closeWhere(ctx, now, func(ds *deviceSession) bool {
		return now.Sub(ds.lastSeen) >= s.idle
	})
}

// CloseAll ends every live session, e.g. on shutdown.
func (s *HeartRateService) CloseAll(ctx context.Context) int {
	return s.closeWhere(ctx, s.now(), func(*deviceSession) bool { return true })
}

func (s *HeartRateService) closeWhere(ctx context.Context, now time.Time, match func(*deviceSession) bool) int {
	s.mu.Lock()
	var victims []*deviceSession
	for id, ds := range s.devices {
		if match(ds) {
			delete(s.devices, id)
			victims = append(victims, ds)
		}
	}
	s.mu.Unlock()

	for _, ds := range victims {
		s.closeSession(ctx, ds, now)
	}
	return len(victims)
}

func (s *HeartRateService) closeSession(ctx context.Context, ds *deviceSession, now time.Time) {
	ds.mu.Lock()
	defer ds.mu.Unlock()
	ds.closed = true
	if ds.session.ID == "" {
		return
	}

	ds.session.EndedAt = now.UTC()
	if err := s.sessions.Update(ctx, ds.session); err != nil {
		s.sideEffectFailed("session_update", ds.deviceID, err)
	}
	s.appendEvent(ctx, ds, now, models.EventSessionClosed, "Session closed after inactivity",
		map[string]any{
			"batches":         ds.session.Batches,
			"samples":         ds.session.Samples,
			"last_heart_rate": ds.session.LastHeartRate,
		})

	idle := engine.NoSignal("")
	if err := s.states.Save(ctx, stateFromResult(ds.deviceID, ds.session.ID, idle, now)); err != nil {
		s.sideEffectFailed("state_save", ds.deviceID, err)
	}
	if s.cache != nil {
		if err := s.cache.Forget(ctx, ds.deviceID); err != nil {
			s.sideEffectFailed("cache_forget", ds.deviceID, err)
		}
	}
	s.publish(ds.deviceID, nil, idle, now)

	metrics.ForgetDevice(ds.deviceID)
	metrics.ActiveSessions.Dec()
	s.log.Infow("session_closed",
		"device_id", ds.deviceID,
		"session_id", ds.session.ID,
		"batches", ds.session.Batches,
	)
}

// Active returns the number of devices with a live session.
func (s *HeartRateService) Active() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.devices)
}

func (s *HeartRateService) sideEffectFailed(stage, deviceID string, err error) {
	metrics.SideEffectErrors.WithLabelValues(stage).Inc()
	s.log.Warnw("side_effect_failed", "stage", stage, "device_id", deviceID, "err", err)
}
