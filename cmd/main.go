package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "pulse_monitor/docs"
	"pulse_monitor/internal/archive"
	"pulse_monitor/internal/broadcast"
	"pulse_monitor/internal/cache"
	"pulse_monitor/internal/config"
	"pulse_monitor/internal/handlers"
	"pulse_monitor/internal/logger"
	"pulse_monitor/internal/repository"
	"pulse_monitor/internal/repository/db"
	"pulse_monitor/internal/server"
	"pulse_monitor/internal/service"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/spf13/afero"
)

const (
	defaultConfigPath = "configs/config.yml"
	defaultReapEvery  = 5 * time.Second
	hubBuffer         = 64
)

// @title        PPG Heart Rate Monitor API
// @version      1.0
// @description  Turns raw PPG sensor batches into stabilised heart-rate readings.
// @BasePath     /
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
func main() {
	fs := afero.NewOsFs()

	// load config.yml; PPG_CONFIG points elsewhere
	path := defaultConfigPath
	if p := os.Getenv("PPG_CONFIG"); p != "" {
		path = p
	}
	cfg, cfgErr := config.Load(fs, path)

	log := logger.Get(cfg.Log.Level, cfg.Log.Encoding)
	if cfgErr != nil {
		log.Fatalw("error reading config", "err", cfgErr)
	}
	if cfg.Auth.SigningKey == "" {
		log.Warnw("auth.signing_key is empty; protected routes will reject every token")
	}

	// open DB
	sqlDB, err := openDB(cfg.DB, log)
	if err != nil {
		log.Fatalw("failed to init sqlite", "err", err)
	}
	defer func() {
		if cerr := sqlDB.Close(); cerr != nil {
			log.Errorw("failed to close sqlite", "err", cerr)
		}
	}()

	// context for background goroutines
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := broadcast.NewHub(hubBuffer)
	publisher := broadcast.Fanout{hub}

	natsConn := connectNATS(cfg.NATS, hub, log)
	if natsConn != nil {
		defer natsConn.Close()
		publisher = append(publisher, broadcast.NewNATSSink(natsConn, cfg.NATS.Subject, instanceID, log))
	}

	var stateCache service.StateCache
	if rc := connectRedis(ctx, cfg.Redis, log); rc != nil {
		defer func() { _ = rc.Close() }()
		stateCache = rc
	}

	var store *archive.Store
	if cfg.Archive.Dir != "" {
		store = archive.New(fs, cfg.Archive.Dir)
	}

	// wire dependencies
	repos := repository.NewRepository(sqlDB)
	services := service.NewService(service.Deps{
		Repos:       repos,
		Engine:      cfg.Engine,
		Archive:     store,
		Cache:       stateCache,
		Publisher:   publisher,
		Log:         log,
		Auth:        service.AuthConfig{SigningKey: cfg.Auth.SigningKey, TokenTTL: cfg.Auth.TokenTTL},
		IdleTimeout: cfg.Session.IdleTimeout,
	})
	apiHandler := handlers.NewHandler(services, hub, log, cfg.CORS.AllowedOrigins)

	reapEvery := cfg.Session.ReapEvery
	if reapEvery <= 0 {
		reapEvery = defaultReapEvery
	}
	go services.Reaper.Run(ctx, reapEvery)

	// start HTTP server
	srv := &server.Server{}
	runHTTPServer(srv, cfg.Server, apiHandler, log)

	// graceful shutdown
	waitForShutdown(cancel, srv, services, cfg.Server.ShutdownTimeout, log)
}

// instanceID tags messages this process puts on NATS so the relay can skip them.
var instanceID = uuid.NewString()

// openDB initializes the SQLite database using configuration.
func openDB(cfg config.DBConfig, log *logger.Logger) (*sql.DB, error) {
	dbPath := cfg.Path
	if dbPath == "" {
		log.Infow("db.path not set in config; using default file", "default", "pulse.db")
		dbPath = "pulse.db"
	}
	return db.InitDB(dbPath)
}

// connectRedis returns nil when redis is not configured or unreachable; the
// service then reads state straight from sqlite.
func connectRedis(ctx context.Context, cfg config.RedisConfig, log *logger.Logger) *cache.RedisCache {
	if cfg.Addr == "" {
		return nil
	}
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	rc, err := cache.NewRedisCache(pingCtx, cfg.Addr, cfg.Password, cfg.DB, cfg.TTL)
	if err != nil {
		log.Warnw("redis unavailable; running without state cache", "addr", cfg.Addr, "err", err)
		return nil
	}
	log.Infow("redis state cache enabled", "addr", cfg.Addr)
	return rc
}

// connectNATS returns nil when NATS is not configured or unreachable.
// Readings from other instances are relayed into hub.
func connectNATS(cfg config.NATSConfig, hub broadcast.Publisher, log *logger.Logger) *nats.Conn {
	if cfg.URL == "" {
		return nil
	}
	conn, err := broadcast.Connect(cfg.URL, "pulse-monitor-"+instanceID)
	if err != nil {
		log.Warnw("nats unavailable; readings stay local", "url", cfg.URL, "err", err)
		return nil
	}
	if _, err := broadcast.Relay(conn, cfg.Subject, instanceID, hub, log); err != nil {
		log.Warnw("nats relay subscribe failed", "subject", cfg.Subject, "err", err)
	}
	log.Infow("nats fan-out enabled", "url", cfg.URL, "subject", cfg.Subject)
	return conn
}

// runHTTPServer runs the HTTP server in a separate goroutine.
func runHTTPServer(srv *server.Server, cfg config.ServerConfig, handler *handlers.Handler, log *logger.Logger) {
	go func() {
		port := cfg.Port
		if port == "" {
			port = "8080"
		}
		log.Infow("http server listening", "port", port)
		err := srv.Run(port, handler.InitRoutes(), server.Timeouts{
			ReadHeader: cfg.ReadHeaderTimeout,
			Write:      cfg.WriteTimeout,
			Idle:       cfg.IdleTimeout,
		})
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalw("error starting server", "err", err)
		}
	}()
}

// waitForShutdown listens for termination signals and performs graceful shutdown.
func waitForShutdown(cancel context.CancelFunc, srv *server.Server, services *service.Service, timeout time.Duration, log *logger.Logger) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Infow("shutting down server...")

	// stop background goroutines
	cancel()

	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	ctx, shutdownCancel := context.WithTimeout(context.Background(), timeout)
	defer shutdownCancel()

	// allow in-flight requests to complete
	if err := srv.Shutdown(ctx); err != nil {
		log.Errorw("server forced to shutdown", "err", err)
	}

	// close open sessions so their end time and final state are recorded
	if n := services.HeartRate.CloseAll(ctx); n > 0 {
		log.Infow("closed open sessions", "count", n)
	}
	_ = log.Sync()
}
