package config

import (
	"fmt"
	"strings"
	"time"

	"pulse_monitor/internal/engine"

	"github.com/spf13/afero"
	"github.com/spf13/viper"
)

const envPrefix = "PPG"

type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	DB      DBConfig      `mapstructure:"db"`
	Archive ArchiveConfig `mapstructure:"archive"`
	Redis   RedisConfig   `mapstructure:"redis"`
	NATS    NATSConfig    `mapstructure:"nats"`
	Auth    AuthConfig    `mapstructure:"auth"`
	Session SessionConfig `mapstructure:"session"`
	Log     LogConfig     `mapstructure:"log"`
	CORS    CORSConfig    `mapstructure:"cors"`
	Engine  engine.Config `mapstructure:"engine"`
}

type ServerConfig struct {
	Port              string        `mapstructure:"port"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout"`
	WriteTimeout      time.Duration `mapstructure:"write_timeout"`
	IdleTimeout       time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout"`
}

type DBConfig struct {
	Path string `mapstructure:"path"`
}

// ArchiveConfig points at the directory receiving raw session samples.
// An empty Dir disables archiving.
type ArchiveConfig struct {
	Dir string `mapstructure:"dir"`
}

// RedisConfig enables the latest-result cache when Addr is set.
type RedisConfig struct {
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	TTL      time.Duration `mapstructure:"ttl"`
}

// NATSConfig enables cross-instance publishing when URL is set.
type NATSConfig struct {
	URL     string `mapstructure:"url"`
	Subject string `mapstructure:"subject"`
}

type AuthConfig struct {
	SigningKey string        `mapstructure:"signing_key"`
	TokenTTL   time.Duration `mapstructure:"token_ttl"`
}

type SessionConfig struct {
	IdleTimeout time.Duration `mapstructure:"idle_timeout"`
	ReapEvery   time.Duration `mapstructure:"reap_every"`
}

type LogConfig struct {
	Level    string `mapstructure:"level"`
	Encoding string `mapstructure:"encoding"`
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// Default returns a configuration that runs without any external services.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Port:              "8080",
			ReadHeaderTimeout: 10 * time.Second,
			WriteTimeout:      10 * time.Second,
			IdleTimeout:       60 * time.Second,
			ShutdownTimeout:   10 * time.Second,
		},
		DB:      DBConfig{Path: "pulse.db"},
		Archive: ArchiveConfig{Dir: "sessions"},
		Redis:   RedisConfig{TTL: 5 * time.Minute},
		NATS:    NATSConfig{Subject: "ppg.readings"},
		Auth:    AuthConfig{TokenTTL: time.Hour},
		Session: SessionConfig{
			IdleTimeout: 30 * time.Second,
			ReapEvery:   5 * time.Second,
		},
		Log:    LogConfig{Level: "info", Encoding: "console"},
		CORS:   CORSConfig{AllowedOrigins: []string{"*"}},
		Engine: engine.DefaultConfig(),
	}
}

// Load reads the YAML file at path from fs and applies PPG_-prefixed
// environment overrides (PPG_SERVER_PORT, PPG_REDIS_ADDR, ...). Keys missing
// from both keep their Default values. An empty path skips the file.
func Load(fs afero.Fs, path string) (Config, error) {
	cfg := Default()

	v := viper.New()
	v.SetFs(fs)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	registerEnvKeys(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %q: %w", path, err)
		}
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// registerEnvKeys makes viper aware of keys that may only come from the
// environment; AutomaticEnv ignores keys it has never seen.
func registerEnvKeys(v *viper.Viper) {
	for _, key := range []string{
		"server.port",
		"db.path",
		"archive.dir",
		"redis.addr",
		"redis.password",
		"nats.url",
		"auth.signing_key",
		"log.level",
		"log.encoding",
	} {
		_ = v.BindEnv(key)
	}
}

func (c Config) validate() error {
	if c.Engine.SampleRateHz <= 0 {
		return fmt.Errorf("engine.sample_rate_hz must be positive, got %d", c.Engine.SampleRateHz)
	}
	if c.Engine.MinWindowSamples > c.Engine.WindowCapacity {
		return fmt.Errorf("engine.min_window_samples (%d) exceeds window_capacity (%d)",
			c.Engine.MinWindowSamples, c.Engine.WindowCapacity)
	}
	if c.Engine.MinHR <= 0 || c.Engine.MinHR >= c.Engine.MaxHR {
		return fmt.Errorf("engine heart-rate bounds [%d, %d] are invalid", c.Engine.MinHR, c.Engine.MaxHR)
	}
	return nil
}
