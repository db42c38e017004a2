package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"pulse_monitor/internal/archive"
	"pulse_monitor/internal/engine"
	"pulse_monitor/internal/models"

	"github.com/spf13/afero"
)

var t0 = time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)

type hrHarness struct {
	svc      *HeartRateService
	states   *memStates
	events   *memEvents
	sessions *memSessions
	cache    *memCache
	pub      *recordingPublisher
	clock    *stepClock
	store    *archive.Store
}

func newHRHarness(t *testing.T) *hrHarness {
	t.Helper()
	h := &hrHarness{
		states:   newMemStates(),
		events:   &memEvents{},
		sessions: newMemSessions(),
		cache:    newMemCache(),
		pub:      &recordingPublisher{},
		clock:    &stepClock{now: t0},
		store:    archive.New(afero.NewMemMapFs(), "sessions"),
	}
	h.svc = NewHeartRateService(HeartRateDeps{
		Engine:      engine.DefaultConfig(),
		States:      h.states,
		Events:      h.events,
		Sessions:    h.sessions,
		Archive:     h.store,
		Cache:       h.cache,
		Publisher:   h.pub,
		IdleTimeout: 30 * time.Second,
		Clock:       h.clock.Now,
	})
	return h
}

func (h *hrHarness) ingest(t *testing.T, deviceID string, samples []int) engine.Result {
	t.Helper()
	res, err := h.svc.Ingest(context.Background(), IngestParams{DeviceID: deviceID, Samples: samples})
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	h.clock.Advance(500 * time.Millisecond)
	return res
}

func (h *hrHarness) onlySession(t *testing.T, deviceID string) models.Session {
	t.Helper()
	list, _ := h.sessions.List(context.Background(), deviceID)
	if len(list) != 1 {
		t.Fatalf("want 1 session for %s, got %d", deviceID, len(list))
	}
	return list[0]
}

func contains(ss []string, want string) bool {
	for _, s := range ss {
		if s == want {
			return true
		}
	}
	return false
}

func TestHeartRateService_Ingest_Validation(t *testing.T) {
	cases := []struct {
		name    string
		params  IngestParams
		wantErr error
	}{
		{"empty device", IngestParams{DeviceID: "  ", Samples: flatBatch(500, 50000)}, ErrEmptyDeviceID},
		{"empty batch", IngestParams{DeviceID: "dev", Samples: nil}, ErrEmptyBatch},
		{"wrong rate", IngestParams{DeviceID: "dev", Samples: flatBatch(500, 50000), SampleRateHz: 100}, ErrUnsupportedSampleRate},
		{"configured rate", IngestParams{DeviceID: "dev", Samples: flatBatch(500, 50000), SampleRateHz: 150}, nil},
		{"implicit rate", IngestParams{DeviceID: "dev", Samples: flatBatch(500, 50000)}, nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := newHRHarness(t)
			_, err := h.svc.Ingest(context.Background(), tc.params)
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("want %v, got %v", tc.wantErr, err)
			}
			if tc.wantErr != nil && h.svc.Active() != 0 {
				t.Fatalf("rejected batch must not open a session")
			}
		})
	}
}

func TestHeartRateService_Ingest_TracksPulse(t *testing.T) {
	h := newHRHarness(t)
	src := newPulseSource(72)

	var last engine.Result
	for i := 0; i < 8; i++ {
		last = h.ingest(t, "wrist-1", src.next(500))
	}

	if last.Phase != engine.PhaseTracking {
		t.Fatalf("phase=%q, want tracking (debug %+v)", last.Phase, last.Debug)
	}
	if last.HeartRate < 69 || last.HeartRate > 75 {
		t.Fatalf("heart rate=%d, want 72±3", last.HeartRate)
	}

	sess := h.onlySession(t, "wrist-1")
	if sess.Batches != 8 || sess.Samples != 4000 {
		t.Fatalf("session counters: batches=%d samples=%d", sess.Batches, sess.Samples)
	}
	if sess.LastHeartRate != last.HeartRate {
		t.Fatalf("session last hr=%d, want %d", sess.LastHeartRate, last.HeartRate)
	}
	if !sess.Active() {
		t.Fatalf("session should still be open")
	}

	rc, err := h.store.Open(sess.ArchivePath)
	if err != nil {
		t.Fatalf("open archive: %v", err)
	}
	defer rc.Close()
	raw, err := archive.ReadSamples(rc)
	if err != nil {
		t.Fatalf("read archive: %v", err)
	}
	if len(raw) != 4000 {
		t.Fatalf("archived %d samples, want 4000", len(raw))
	}

	types := h.events.types()
	if len(types) == 0 || types[0] != models.EventContactAcquired {
		t.Fatalf("first event should be contact acquired, got %v", types)
	}
	for _, want := range []string{models.EventPhaseChange, models.EventReading} {
		if !contains(types, want) {
			t.Fatalf("missing %s event in %v", want, types)
		}
	}

	st, _ := h.states.Load(context.Background(), "wrist-1")
	if st.HeartRate != last.HeartRate || st.SessionID != sess.ID || st.Phase != "tracking" {
		t.Fatalf("persisted state mismatch: %+v", st)
	}
	cached, ok, _ := h.cache.GetLatest(context.Background(), "wrist-1")
	if !ok || cached.HeartRate != last.HeartRate {
		t.Fatalf("cache mismatch: ok=%v state=%+v", ok, cached)
	}
	if h.pub.count() != 8 {
		t.Fatalf("published %d messages, want 8", h.pub.count())
	}
	if msg := h.pub.last(); len(msg.Samples) != 500 || msg.Result.HeartRate != last.HeartRate {
		t.Fatalf("published message should carry the raw batch: samples=%d hr=%d", len(msg.Samples), msg.Result.HeartRate)
	}
}

func TestHeartRateService_Ingest_ShortBatchRecordsOnlyRawData(t *testing.T) {
	h := newHRHarness(t)

	res := h.ingest(t, "wrist-2", flatBatch(50, 50000))
	if res.Debug.Reason != engine.ReasonShortBatch {
		t.Fatalf("reason=%q, want short_batch", res.Debug.Reason)
	}
	if h.states.saves != 0 || h.pub.count() != 0 || len(h.events.types()) != 0 {
		t.Fatalf("short batch leaked side effects: saves=%d published=%d events=%v",
			h.states.saves, h.pub.count(), h.events.types())
	}
	if sess := h.onlySession(t, "wrist-2"); sess.Batches != 1 || sess.Samples != 50 {
		t.Fatalf("session counters: %+v", sess)
	}
}

func TestHeartRateService_Ingest_ContactLost(t *testing.T) {
	h := newHRHarness(t)
	src := newPulseSource(72)

	for i := 0; i < 3; i++ {
		h.ingest(t, "wrist-3", src.next(500))
	}
	var last engine.Result
	for i := 0; i < 3; i++ {
		last = h.ingest(t, "wrist-3", flatBatch(500, 0))
	}

	if last.FingerDetected || last.HeartRate != 0 {
		t.Fatalf("expected no signal after removal, got %+v", last)
	}
	types := h.events.types()
	if !contains(types, models.EventContactLost) {
		t.Fatalf("missing contact lost event in %v", types)
	}
	st, _ := h.states.Load(context.Background(), "wrist-3")
	if st.FingerDetected || st.Phase != string(engine.PhaseNoSignal) {
		t.Fatalf("state should show no signal: %+v", st)
	}
}

func TestHeartRateService_Ingest_SideEffectFailuresAreSwallowed(t *testing.T) {
	h := newHRHarness(t)
	h.states.saveErr = errors.New("disk full")

	res, err := h.svc.Ingest(context.Background(), IngestParams{DeviceID: "wrist-4", Samples: flatBatch(500, 50000)})
	if err != nil {
		t.Fatalf("side-effect failure must not fail the batch: %v", err)
	}
	if !res.FingerDetected {
		t.Fatalf("expected finger detected on bright flat batch, got %+v", res)
	}
}

func TestHeartRateService_CloseIdle(t *testing.T) {
	h := newHRHarness(t)
	ctx := context.Background()
	h.ingest(t, "wrist-5", newPulseSource(72).next(500))
	first := h.onlySession(t, "wrist-5")

	h.clock.Advance(10 * time.Second)
	if n := h.svc.CloseIdle(ctx, h.clock.Now()); n != 0 {
		t.Fatalf("closed %d sessions before idle timeout", n)
	}

	h.clock.Advance(30 * time.Second)
	if n := h.svc.CloseIdle(ctx, h.clock.Now()); n != 1 {
		t.Fatalf("closed %d sessions, want 1", n)
	}
	if h.svc.Active() != 0 {
		t.Fatalf("active=%d after close", h.svc.Active())
	}

	closed, _ := h.sessions.Get(ctx, first.ID)
	if closed == nil || closed.Active() {
		t.Fatalf("session not ended: %+v", closed)
	}
	if msg := h.pub.last(); msg.Samples != nil || msg.Result.Phase != engine.PhaseNoSignal {
		t.Fatalf("close message: samples=%v phase=%q", msg.Samples, msg.Result.Phase)
	}
	if !contains(h.events.types(), models.EventSessionClosed) {
		t.Fatalf("missing session closed event in %v", h.events.types())
	}
	if _, ok, _ := h.cache.GetLatest(ctx, "wrist-5"); ok {
		t.Fatalf("cache entry should be forgotten")
	}
	st, _ := h.states.Load(ctx, "wrist-5")
	if st.Phase != string(engine.PhaseNoSignal) || st.HeartRate != 0 {
		t.Fatalf("closed device state: %+v", st)
	}

	h.ingest(t, "wrist-5", newPulseSource(72).next(500))
	list, _ := h.sessions.List(ctx, "wrist-5")
	if len(list) != 2 {
		t.Fatalf("expected a fresh session after reopening, got %d", len(list))
	}
}

func TestHeartRateService_CloseAll(t *testing.T) {
	h := newHRHarness(t)
	for i := 0; i < 3; i++ {
		h.ingest(t, fmt.Sprintf("dev-%d", i), flatBatch(500, 50000))
	}
	if n := h.svc.CloseAll(context.Background()); n != 3 {
		t.Fatalf("closed %d, want 3", n)
	}
	for i := 0; i < 3; i++ {
		if h.onlySession(t, fmt.Sprintf("dev-%d", i)).Active() {
			t.Fatalf("dev-%d still active", i)
		}
	}
}

func TestHeartRateService_ConcurrentDevices(t *testing.T) {
	h := newHRHarness(t)

	var wg sync.WaitGroup
	for d := 0; d < 4; d++ {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			src := newPulseSource(72)
			for i := 0; i < 5; i++ {
				if _, err := h.svc.Ingest(context.Background(), IngestParams{DeviceID: id, Samples: src.next(500)}); err != nil {
					t.Errorf("Ingest %s: %v", id, err)
				}
			}
		}(fmt.Sprintf("dev-%d", d))
	}
	wg.Wait()

	if h.svc.Active() != 4 {
		t.Fatalf("active=%d, want 4", h.svc.Active())
	}
	for d := 0; d < 4; d++ {
		if sess := h.onlySession(t, fmt.Sprintf("dev-%d", d)); sess.Batches != 5 {
			t.Fatalf("dev-%d batches=%d, want 5", d, sess.Batches)
		}
	}
}
