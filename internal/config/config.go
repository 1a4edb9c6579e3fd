package config

import (
	"time"

	"github.com/rameerez/allgood/internal/obs"

	pgcache "github.com/rameerez/allgood/cache/postgres"
)

type App struct {
	Name    string `mapstructure:"name"`
	Env     string `mapstructure:"env"`
	Version string `mapstructure:"version"`
}

type Server struct {
	HTTPAddr        string        `mapstructure:"http_addr"`
	GRPCAddr        string        `mapstructure:"grpc_addr"`
	MetricsAddr     string        `mapstructure:"metrics_addr"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	GracefulTimeout time.Duration `mapstructure:"graceful_timeout"`
}

// Cache picks the backend the engine persists run state in. "memory" needs
// nothing else; "redis" uses redis_url; "postgres" uses the db block.
type Cache struct {
	Backend  string         `mapstructure:"backend"`
	RedisURL string         `mapstructure:"redis_url"`
	DB       pgcache.Config `mapstructure:"db"`
}

// Checks configures the built-in checks the standalone server registers.
type Checks struct {
	DefaultTimeout time.Duration `mapstructure:"default_timeout"`
	MaxHeapMB      int           `mapstructure:"max_heap_mb"`
	MaxGoroutines  int           `mapstructure:"max_goroutines"`
	URLs           []string      `mapstructure:"urls"`
	URLFrequency   string        `mapstructure:"url_frequency"`
}

type OTEL struct {
	Enable       bool    `mapstructure:"enable"`
	OTLPEndpoint string  `mapstructure:"otlp_endpoint"`
	SampleRatio  float64 `mapstructure:"sample_ratio"`
}

type Log struct {
	Level  string `mapstructure:"level"`
	Pretty bool   `mapstructure:"pretty"`
}

type Config struct {
	App    App    `mapstructure:"app"`
	Server Server `mapstructure:"server"`
	Cache  Cache  `mapstructure:"cache"`
	Checks Checks `mapstructure:"checks"`
	OTEL   OTEL   `mapstructure:"otel"`
	Log    Log    `mapstructure:"log"`
}

func (c *Config) AsLoggerConfig() obs.LogConfig {
	return obs.LogConfig{
		Level:   c.Log.Level,
		Pretty:  c.Log.Pretty,
		Service: c.App.Name,
		Env:     c.App.Env,
		Version: c.App.Version,
	}
}

func (c *Config) AsOTELConfig() obs.OTELConfig {
	return obs.OTELConfig{
		Enable:      c.OTEL.Enable,
		Endpoint:    c.OTEL.OTLPEndpoint,
		ServiceName: c.App.Name,
		Version:     c.App.Version,
		SampleRatio: c.OTEL.SampleRatio,
	}
}
