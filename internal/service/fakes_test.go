package service

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"sync"
	"time"

	"pulse_monitor/internal/broadcast"
	"pulse_monitor/internal/models"
)

// memStates is an in-memory repository.StateRepo.
type memStates struct {
	mu      sync.Mutex
	byID    map[string]models.DeviceState
	saves   int
	saveErr error
}

func newMemStates() *memStates { return &memStates{byID: map[string]models.DeviceState{}} }

func (m *memStates) Save(_ context.Context, s models.DeviceState) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saves++
	if m.saveErr != nil {
		return m.saveErr
	}
	m.byID[s.DeviceID] = s
	return nil
}

func (m *memStates) Load(_ context.Context, id string) (models.DeviceState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.byID[id], nil
}

func (m *memStates) List(context.Context) ([]models.DeviceState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.DeviceState, 0, len(m.byID))
	for _, s := range m.byID {
		out = append(out, s)
	}
	return out, nil
}

// memEvents is an in-memory repository.EventRepo.
type memEvents struct {
	mu     sync.Mutex
	events []models.DeviceEvent
}

func (m *memEvents) Append(_ context.Context, e models.DeviceEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, e)
	return nil
}

func (m *memEvents) List(_ context.Context, _, _ time.Time, typ, deviceID string) ([]models.DeviceEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.DeviceEvent
	for _, e := range m.events {
		if (typ == "" || e.Type == typ) && (deviceID == "" || e.DeviceID == deviceID) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *memEvents) types() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.events))
	for i, e := range m.events {
		out[i] = e.Type
	}
	return out
}

// memSessions is an in-memory repository.SessionRepo.
type memSessions struct {
	mu   sync.Mutex
	byID map[string]models.Session
}

func newMemSessions() *memSessions { return &memSessions{byID: map[string]models.Session{}} }

func (m *memSessions) Create(_ context.Context, s models.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[s.ID]; ok {
		return errors.New("duplicate session")
	}
	m.byID[s.ID] = s
	return nil
}

func (m *memSessions) Update(_ context.Context, s models.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[s.ID]; !ok {
		return errors.New("no such session")
	}
	m.byID[s.ID] = s
	return nil
}

func (m *memSessions) Get(_ context.Context, id string) (*models.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.byID[id]
	if !ok {
		return nil, nil
	}
	return &s, nil
}

func (m *memSessions) List(_ context.Context, deviceID string) ([]models.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Session
	for _, s := range m.byID {
		if deviceID == "" || s.DeviceID == deviceID {
			out = append(out, s)
		}
	}
	return out, nil
}

// memCache is an in-memory StateCache.
type memCache struct {
	mu     sync.Mutex
	latest map[string]models.DeviceState
}

func newMemCache() *memCache { return &memCache{latest: map[string]models.DeviceState{}} }

func (c *memCache) SetLatest(_ context.Context, s models.DeviceState) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.latest[s.DeviceID] = s
	return nil
}

func (c *memCache) GetLatest(_ context.Context, id string) (models.DeviceState, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.latest[id]
	return s, ok, nil
}

func (c *memCache) Forget(_ context.Context, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.latest, id)
	return nil
}

// recordingPublisher collects published messages.
type recordingPublisher struct {
	mu   sync.Mutex
	msgs []broadcast.Message
}

func (p *recordingPublisher) Publish(m broadcast.Message) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.msgs = append(p.msgs, m)
}

func (p *recordingPublisher) last() broadcast.Message {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.msgs) == 0 {
		return broadcast.Message{}
	}
	return p.msgs[len(p.msgs)-1]
}

func (p *recordingPublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.msgs)
}

// pulseSource produces a finger-on PPG waveform at a fixed rate: a fast
// raised-cosine upstroke followed by a slow decay, plus uniform noise.
type pulseSource struct {
	period float64
	rng    *rand.Rand
	pos    int
}

func newPulseSource(bpm float64) *pulseSource {
	return &pulseSource{period: 60 * 150 / bpm, rng: rand.New(rand.NewSource(7))}
}

func (p *pulseSource) next(n int) []int {
	const base, amp, rise, noise = 50000.0, 3000.0, 0.2, 0.05
	out := make([]int, n)
	for i := range out {
		phase := math.Mod(float64(p.pos)/p.period, 1)
		var x float64
		if phase < rise {
			x = 0.5 * (1 - math.Cos(math.Pi*phase/rise))
		} else {
			x = 0.5 * (1 + math.Cos(math.Pi*(phase-rise)/(1-rise)))
		}
		v := base + amp*x + amp*noise*(2*p.rng.Float64()-1)
		out[i] = int(math.Round(v))
		p.pos++
	}
	return out
}

func flatBatch(n, value int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = value
	}
	return out
}

// stepClock is a manually advanced clock.
type stepClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *stepClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}
