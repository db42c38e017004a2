package handlers

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"pulse_monitor/internal/broadcast"
	"pulse_monitor/internal/metrics"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// Send/receive timing configuration and message size limits.
const (
	writeWait        = 10 * time.Second
	pongWait         = 60 * time.Second
	pingPeriod       = (pongWait * 9) / 10
	maxMsgSize       = 1 << 12 // 4 KB
	defaultInterval  = 1 * time.Second
	maxInterval      = 10 * time.Second
	maxIntervalMilli = 10_000 // 10s in ms
)

// Envelope types sent to websocket clients.
const (
	wsTypeReading = broadcast.TypeReading
	wsTypeState   = "state"
	wsTypeDevices = "devices"
	wsTypeError   = "error"
)

// Envelope used for WebSocket messages.
type wsEnvelope struct {
	Type  string      `json:"type"`
	Data  interface{} `json:"data,omitempty"`
	Error string      `json:"error,omitempty"`
}

func (h *Handler) upgrader() *websocket.Upgrader {
	return &websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool { return h.origins.allows(r.Header.Get("Origin")) },
	}
}

// wsConnect streams live readings for ?device_id (all devices when empty)
// plus a periodic snapshot every ?interval or ?interval_ms.
func (h *Handler) wsConnect(c *gin.Context) {
	interval := h.parseInterval(c)
	deviceID := strings.TrimSpace(c.Query("device_id"))

	conn, err := h.upgrader().Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Errorw("ws_upgrade_failed", "err", err)
		return
	}
	defer func() { _ = conn.Close() }()

	metrics.WSClients.Inc()
	defer metrics.WSClients.Dec()

	conn.SetReadLimit(maxMsgSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	done := make(chan struct{})
	go h.startReader(conn, done)

	// A nil channel never fires, leaving snapshots only.
	var readings <-chan broadcast.Message
	if h.stream != nil {
		sub := h.stream.Subscribe(deviceID)
		defer h.stream.Unsubscribe(sub)
		readings = sub.C
	}

	ticker := time.NewTicker(interval)
	ping := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		ping.Stop()
	}()

	ctx := c.Request.Context()
	if err := h.sendSnapshot(ctx, conn, deviceID); err != nil {
		h.log.Infow("ws_write_failed_initial", "err", err)
		return
	}

	for {
		select {
		case <-done:
			return
		case <-ctx.Done():
			return
		case m, ok := <-readings:
			if !ok {
				_ = writeEnvelope(conn, wsEnvelope{Type: wsTypeError, Error: "stream fell behind; reconnect"})
				return
			}
			if err := writeEnvelope(conn, wsEnvelope{Type: wsTypeReading, Data: m}); err != nil {
				h.log.Infow("ws_write_failed", "err", err)
				return
			}
		case <-ping.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				h.log.Infow("ws_ping_failed", "err", err)
				return
			}
		case <-ticker.C:
			if err := h.sendSnapshot(ctx, conn, deviceID); err != nil {
				h.log.Infow("ws_write_failed", "err", err)
				return
			}
		}
	}
}

// parseInterval reads ?interval=2s or ?interval_ms=2000 with bounds.
func (h *Handler) parseInterval(c *gin.Context) time.Duration {
	interval := defaultInterval

	if s := c.Query("interval"); s != "" {
		if d, err := time.ParseDuration(s); err == nil && d > 0 && d <= maxInterval {
			return d
		}
	}

	if ms := c.Query("interval_ms"); ms != "" {
		if v, err := strconv.Atoi(ms); err == nil && v > 0 && v <= maxIntervalMilli {
			return time.Duration(v) * time.Millisecond
		}
	}

	return interval
}

// startReader drains incoming messages to handle control frames and detect closure.
func (h *Handler) startReader(conn *websocket.Conn, done chan<- struct{}) {
	defer close(done)
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			h.log.Infow("ws_read_closed", "err", err)
			return
		}
	}
}

// sendSnapshot writes the device state, or every device when none was asked for.
func (h *Handler) sendSnapshot(ctx context.Context, conn *websocket.Conn, deviceID string) error {
	if deviceID == "" {
		states, err := h.services.Monitoring.ListDevices(ctx)
		if err != nil {
			h.log.Errorw("ws_list_devices_failed", "err", err)
			return err
		}
		return writeEnvelope(conn, wsEnvelope{Type: wsTypeDevices, Data: states})
	}

	st, err := h.services.Monitoring.GetState(ctx, deviceID)
	if err != nil {
		h.log.Errorw("ws_get_state_failed", "err", err, "device_id", deviceID)
		return err
	}
	return writeEnvelope(conn, wsEnvelope{Type: wsTypeState, Data: st})
}

func writeEnvelope(conn *websocket.Conn, env wsEnvelope) error {
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(env)
}
