// Package broadcast fans engine results out to live subscribers in this
// process and, optionally, to other instances over NATS.
package broadcast

import (
	"sync"
	"time"

	"pulse_monitor/internal/engine"
	"pulse_monitor/internal/metrics"
)

const TypeReading = "reading"

// Message is one processed batch as seen by stream consumers. Samples is
// the raw batch behind Result; it is nil for the record sent on session close.
type Message struct {
	Type     string        `json:"type"`
	DeviceID string        `json:"deviceId"`
	Origin   string        `json:"origin,omitempty"`
	Samples  []int         `json:"samples"`
	At       time.Time     `json:"at"`
	Result   engine.Result `json:"result"`
}

// Publisher accepts messages for delivery. Publish must not block on slow
// consumers.
type Publisher interface {
	Publish(m Message)
}

// Subscription receives messages for one device, or for all devices when
// its device id is empty. C is closed when the subscription ends.
type Subscription struct {
	C        <-chan Message
	ch       chan Message
	deviceID string
}

type Hub struct {
	mu     sync.Mutex
	subs   map[*Subscription]struct{}
	buffer int
}

func NewHub(buffer int) *Hub {
	if buffer < 1 {
		buffer = 1
	}
	return &Hub{subs: make(map[*Subscription]struct{}), buffer: buffer}
}

func (h *Hub) Subscribe(deviceID string) *Subscription {
	ch := make(chan Message, h.buffer)
	s := &Subscription{C: ch, ch: ch, deviceID: deviceID}
	h.mu.Lock()
	h.subs[s] = struct{}{}
	h.mu.Unlock()
	return s
}

// Unsubscribe ends s. Calling it twice, or after the hub dropped s, is a no-op.
func (h *Hub) Unsubscribe(s *Subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(s)
}

func (h *Hub) removeLocked(s *Subscription) {
	if _, ok := h.subs[s]; !ok {
		return
	}
	delete(h.subs, s)
	close(s.ch)
}

// Publish delivers m to every matching subscriber. A subscriber whose buffer
// is full is dropped.
func (h *Hub) Publish(m Message) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for s := range h.subs {
		if s.deviceID != "" && s.deviceID != m.DeviceID {
			continue
		}
		select {
		case s.ch <- m:
		default:
			h.removeLocked(s)
			metrics.BroadcastDropped.Inc()
		}
	}
}

// Len returns the number of live subscriptions.
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// Fanout publishes to several publishers in order.
type Fanout []Publisher

func (f Fanout) Publish(m Message) {
	for _, p := range f {
		p.Publish(m)
	}
}
