package handlers

import (
	"pulse_monitor/internal/broadcast"
	"pulse_monitor/internal/logger"
	"pulse_monitor/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// Streamer hands out live reading subscriptions.
type Streamer interface {
	Subscribe(deviceID string) *broadcast.Subscription
	Unsubscribe(s *broadcast.Subscription)
}

// Handler wires HTTP layer to services and logging.
type Handler struct {
	services *service.Service
	stream   Streamer
	log      *logger.Logger
	origins  originPolicy
}

// NewHandler constructs a new HTTP handler with dependencies. stream may be
// nil, in which case websocket clients only receive periodic snapshots.
func NewHandler(services *service.Service, stream Streamer, log *logger.Logger, allowedOrigins []string) *Handler {
	if log == nil {
		log = logger.Nop()
	}
	return &Handler{
		services: services,
		stream:   stream,
		log:      log,
		origins:  newOriginPolicy(allowedOrigins),
	}
}

// InitRoutes builds and returns the Gin router with all routes registered.
func (h *Handler) InitRoutes() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), h.metricsMiddleware, h.corsMiddleware)

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/health", h.health)

	h.registerAuthRoutes(router)
	h.registerIngestRoutes(router)
	h.registerAPIRoutes(router)

	router.GET("/ws", h.wsConnect)

	return router
}

func (h *Handler) registerAuthRoutes(r *gin.Engine) {
	auth := r.Group("/auth")
	{
		auth.POST("/sign-up", h.signUp)
		auth.POST("/sign-in", h.signIn)
	}
}

// Sensors post without a token.
func (h *Handler) registerIngestRoutes(r *gin.Engine) {
	r.POST("/api/v1/ppg", h.ingestPPG)
}

func (h *Handler) registerAPIRoutes(r *gin.Engine) {
	api := r.Group("/api/v1", h.userIdMiddleware)
	{
		h.registerDeviceRoutes(api)
		h.registerEventRoutes(api)
		h.registerSessionRoutes(api)
	}
}

func (h *Handler) registerDeviceRoutes(api *gin.RouterGroup) {
	devices := api.Group("/devices")
	{
		devices.GET("", h.listDevices)
		devices.GET("/:id/state", h.getDeviceState)
	}
}

func (h *Handler) registerEventRoutes(api *gin.RouterGroup) {
	api.GET("/events", h.getEvents)
}

func (h *Handler) registerSessionRoutes(api *gin.RouterGroup) {
	sessions := api.Group("/sessions")
	{
		sessions.GET("", h.listSessions)
		sessions.GET("/:id", h.getSession)
		sessions.GET("/:id/samples", h.getSessionSamples)
	}
}
