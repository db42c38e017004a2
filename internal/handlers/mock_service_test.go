package handlers

import (
	"context"
	"io"
	"net/http"
	"strings"
	"time"

	"pulse_monitor/internal/engine"
	"pulse_monitor/internal/models"
	"pulse_monitor/internal/service"

	"github.com/gin-gonic/gin"
)

// ---- Service Mocks ----

type mockAuth struct {
	signUpID      int
	signUpErr     error
	genTokenToken string
	genTokenErr   error
	parseID       int
	parseErr      error

	lastSignUpUsername string
	lastSignUpPassword string
	lastGenUsername    string
	lastGenPassword    string
	lastParseToken     string
}

func (m *mockAuth) SignUp(_ context.Context, username, password string) (int, error) {
	m.lastSignUpUsername = username
	m.lastSignUpPassword = password
	return m.signUpID, m.signUpErr
}
func (m *mockAuth) GenerateToken(_ context.Context, username, password string) (string, error) {
	m.lastGenUsername = username
	m.lastGenPassword = password
	return m.genTokenToken, m.genTokenErr
}
func (m *mockAuth) ParseToken(token string) (int, error) {
	m.lastParseToken = token
	return m.parseID, m.parseErr
}

type mockHeartRate struct {
	result     engine.Result
	err        error
	lastParams service.IngestParams
	calls      int
}

func (m *mockHeartRate) Ingest(_ context.Context, p service.IngestParams) (engine.Result, error) {
	m.calls++
	m.lastParams = p
	return m.result, m.err
}
func (m *mockHeartRate) CloseIdle(context.Context, time.Time) int { return 0 }
func (m *mockHeartRate) CloseAll(context.Context) int             { return 0 }

type mockMonitoring struct {
	state      models.DeviceState
	states     []models.DeviceState
	err        error
	lastDevice string
}

func (m *mockMonitoring) GetState(_ context.Context, deviceID string) (models.DeviceState, error) {
	m.lastDevice = deviceID
	return m.state, m.err
}
func (m *mockMonitoring) ListDevices(context.Context) ([]models.DeviceState, error) {
	return m.states, m.err
}

type mockEventLog struct {
	resp       []models.DeviceEvent
	err        error
	lastFrom   time.Time
	lastTo     time.Time
	lastType   string
	lastDevice string
}

func (m *mockEventLog) List(_ context.Context, f service.LogFilter) ([]models.DeviceEvent, error) {
	m.lastFrom = f.From
	m.lastTo = f.To
	m.lastType = f.Type
	m.lastDevice = f.DeviceID
	return m.resp, m.err
}

type mockSessions struct {
	list       []models.Session
	session    models.Session
	samples    string
	err        error
	lastDevice string
}

func (m *mockSessions) ListSessions(_ context.Context, deviceID string) ([]models.Session, error) {
	m.lastDevice = deviceID
	return m.list, m.err
}
func (m *mockSessions) GetSession(context.Context, string) (models.Session, error) {
	return m.session, m.err
}
func (m *mockSessions) OpenSessionSamples(context.Context, string) (io.ReadCloser, models.Session, error) {
	if m.err != nil {
		return nil, models.Session{}, m.err
	}
	return io.NopCloser(strings.NewReader(m.samples)), m.session, nil
}

// ---- Shared Test Helpers ----

func newTestRouter(s *service.Service) *gin.Engine {
	h := NewHandler(s, nil, nil, []string{"*"})
	gin.SetMode(gin.TestMode)
	return h.InitRoutes()
}

func authHeader(token string) http.Header {
	h := http.Header{}
	if token != "" {
		h.Set("Authorization", "Bearer "+token)
	}
	return h
}

func withAuth(req *http.Request, token string) *http.Request {
	for k, vv := range authHeader(token) {
		for _, v := range vv {
			req.Header.Add(k, v)
		}
	}
	return req
}
