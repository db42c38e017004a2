package broadcast

import (
	"encoding/json"
	"strings"
	"time"

	"pulse_monitor/internal/logger"
	"pulse_monitor/internal/metrics"

	"github.com/nats-io/nats.go"
)

// Connect dials NATS with reconnects enabled forever.
func Connect(url, name string) (*nats.Conn, error) {
	return nats.Connect(
		url,
		nats.Name(name),
		nats.Timeout(3*time.Second),
		nats.ReconnectWait(500*time.Millisecond),
		nats.MaxReconnects(-1),
	)
}

type natsPublisher interface {
	Publish(subj string, data []byte) error
}

// NATSSink publishes messages on <subject>.<deviceId>.
type NATSSink struct {
	conn    natsPublisher
	subject string
	origin  string
	log     *logger.Logger
}

func NewNATSSink(conn natsPublisher, subject, origin string, log *logger.Logger) *NATSSink {
	return &NATSSink{conn: conn, subject: subject, origin: origin, log: log}
}

func (s *NATSSink) subjectFor(deviceID string) string {
	return s.subject + "." + subjectToken(deviceID)
}

// subjectToken replaces characters NATS treats as separators or wildcards.
func subjectToken(id string) string {
	return strings.NewReplacer(".", "_", "*", "_", ">", "_", " ", "_").Replace(id)
}

func (s *NATSSink) Publish(m Message) {
	if m.Origin == "" {
		m.Origin = s.origin
	} else if m.Origin != s.origin {
		// relayed from another instance
		return
	}
	data, err := json.Marshal(m)
	if err != nil {
		s.logError("nats_marshal_failed", m.DeviceID, err)
		return
	}
	if err := s.conn.Publish(s.subjectFor(m.DeviceID), data); err != nil {
		metrics.SideEffectErrors.WithLabelValues("nats").Inc()
		s.logError("nats_publish_failed", m.DeviceID, err)
	}
}

func (s *NATSSink) logError(event, deviceID string, err error) {
	if s.log != nil {
		s.log.Errorw(event, "device_id", deviceID, "err", err)
	}
}

// Relay forwards messages published by other instances into hub and returns
// the subscription so the caller can drain it on shutdown.
func Relay(conn *nats.Conn, subject, origin string, hub Publisher, log *logger.Logger) (*nats.Subscription, error) {
	return conn.Subscribe(subject+".>", func(msg *nats.Msg) {
		m, ok := decodeRemote(msg.Data, origin)
		if !ok {
			if log != nil {
				log.Debugw("nats_relay_skipped", "subject", msg.Subject)
			}
			return
		}
		hub.Publish(m)
	})
}

// decodeRemote parses data and reports whether it came from another origin.
func decodeRemote(data []byte, origin string) (Message, bool) {
	var m Message
	if err := json.Unmarshal(data, &m); err != nil {
		return Message{}, false
	}
	if m.Origin == "" || m.Origin == origin {
		return Message{}, false
	}
	return m, true
}
