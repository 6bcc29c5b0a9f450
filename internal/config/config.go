package config

import (
	"time"

	"github.com/victoralfred/retail_analytics/internal/analytics/algorithms"
	"github.com/victoralfred/retail_analytics/internal/logging"
)

// Config holds the application configuration
type Config struct {
	// Server settings
	Port        int       `mapstructure:"port"`
	Environment string    `mapstructure:"environment"`
	Version     string    `mapstructure:"version"`
	StartTime   time.Time `mapstructure:"-"`

	// CORS settings
	CORS CORSConfig `mapstructure:"cors"`

	// Rate limiting
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`

	// API info
	DocsURL       string `mapstructure:"docs_url"`
	SupportEmail  string `mapstructure:"support_email"`
	StatusPageURL string `mapstructure:"status_page_url"`

	// Metrics
	Metrics MetricsConfig `mapstructure:"metrics"`

	Log        logging.Config    `mapstructure:"log"`
	Engine     EngineConfig      `mapstructure:"engine"`
	Redis      RedisConfig       `mapstructure:"redis"`
	Algorithms algorithms.Params `mapstructure:"algorithms"`
}

// CORSConfig holds CORS configuration
type CORSConfig struct {
	AllowedOrigins   []string      `mapstructure:"allowed_origins"`
	AllowedMethods   []string      `mapstructure:"allowed_methods"`
	AllowedHeaders   []string      `mapstructure:"allowed_headers"`
	ExposedHeaders   []string      `mapstructure:"exposed_headers"`
	AllowCredentials bool          `mapstructure:"allow_credentials"`
	MaxAge           time.Duration `mapstructure:"max_age"`
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	Global int `mapstructure:"global"` // requests per minute
	PerIP  int `mapstructure:"per_ip"` // requests per minute
	Burst  int `mapstructure:"burst"`
}

// MetricsConfig holds metrics configuration
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// Transport names accepted by EngineConfig.Transport
const (
	TransportPipe  = "pipe"
	TransportRedis = "redis"
)

// EngineConfig holds analytics engine settings
type EngineConfig struct {
	Transport      string        `mapstructure:"transport"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	CacheTTL       time.Duration `mapstructure:"cache_ttl"`
	CacheSize      int           `mapstructure:"cache_size"`
	PipeBuffer     int           `mapstructure:"pipe_buffer"`
	// EmbeddedWorker runs a Redis worker inside the server process
	EmbeddedWorker bool `mapstructure:"embedded_worker"`
	// SyncFallback computes locally when the engine rejects a request
	SyncFallback bool `mapstructure:"sync_fallback"`
}

// RedisConfig holds the Redis transport connection
type RedisConfig struct {
	Addr        string        `mapstructure:"addr"`
	Password    string        `mapstructure:"password"`
	DB          int           `mapstructure:"db"`
	Prefix      string        `mapstructure:"prefix"`
	PollTimeout time.Duration `mapstructure:"poll_timeout"`
	ReplyTTL    time.Duration `mapstructure:"reply_ttl"`
}
