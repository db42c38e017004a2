package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"pulse_monitor/internal/engine"
	"pulse_monitor/internal/metrics"
	"pulse_monitor/internal/models"
	"pulse_monitor/internal/repository"
)

var ErrEmptyDeviceID = errors.New("device id is required")

type MonitoringService struct {
	stateRepo repository.StateRepo
	cache     StateCache
}

// NewMonitoringService returns a monitoring service. cache may be nil.
func NewMonitoringService(stateRepo repository.StateRepo, cache StateCache) *MonitoringService {
	return &MonitoringService{stateRepo: stateRepo, cache: cache}
}

// GetState returns the latest state of a device, consulting the cache
// before the database. Unknown devices get a baseline no_signal snapshot.
func (s *MonitoringService) GetState(ctx context.Context, deviceID string) (models.DeviceState, error) {
	deviceID = strings.TrimSpace(deviceID)
	if deviceID == "" {
		return models.DeviceState{}, ErrEmptyDeviceID
	}

	if s.cache != nil {
		st, ok, err := s.cache.GetLatest(ctx, deviceID)
		switch {
		case err != nil:
			metrics.SideEffectErrors.WithLabelValues("cache_get").Inc()
		case ok:
			metrics.CacheHits.Inc()
			st.UpdatedAt = toUTC(st.UpdatedAt)
			return st, nil
		default:
			metrics.CacheMisses.Inc()
		}
	}

	state, err := s.stateRepo.Load(ctx, deviceID)
	if err != nil {
		return models.DeviceState{}, err
	}
	if state.DeviceID == "" {
		return baselineState(deviceID), nil
	}
	state.UpdatedAt = toUTC(state.UpdatedAt)
	return state, nil
}

// ListDevices returns the latest persisted state of every known device.
func (s *MonitoringService) ListDevices(ctx context.Context) ([]models.DeviceState, error) {
	states, err := s.stateRepo.List(ctx)
	if err != nil {
		return nil, err
	}
	for i := range states {
		states[i].UpdatedAt = toUTC(states[i].UpdatedAt)
	}
	return states, nil
}

// baselineState is what a device looks like before its first batch.
func baselineState(deviceID string) models.DeviceState {
	return stateFromResult(deviceID, "", engine.NoSignal(""), time.Now())
}

func stateFromResult(deviceID, sessionID string, r engine.Result, at time.Time) models.DeviceState {
	return models.DeviceState{
		DeviceID:       deviceID,
		SessionID:      sessionID,
		HeartRate:      r.HeartRate,
		FingerDetected: r.FingerDetected,
		Zone:           r.Zone,
		ZoneColor:      r.ZoneColor,
		Quality:        r.Quality,
		Confidence:     r.Confidence,
		Trend:          string(r.Trend),
		IsStable:       r.IsStable,
		Phase:          string(r.Phase),
		UpdatedAt:      at.UTC(),
	}
}

// toUTC normalizes non-zero time to UTC, preserving zero values.
func toUTC(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	return t.UTC()
}
