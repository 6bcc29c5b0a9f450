package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/victoralfred/retail_analytics/internal/analytics/algorithms"
	"github.com/victoralfred/retail_analytics/internal/cache"
	"github.com/victoralfred/retail_analytics/internal/correlator"
	"github.com/victoralfred/retail_analytics/internal/transport"
)

// EnvPrefix prefixes every environment override, e.g. ANALYTICS_ENGINE_TRANSPORT
const EnvPrefix = "ANALYTICS"

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", 8080)
	v.SetDefault("environment", "development")
	v.SetDefault("version", "1.0.0")
	v.SetDefault("docs_url", "http://localhost:8080/docs")
	v.SetDefault("support_email", "support@retail-analytics.local")
	v.SetDefault("status_page_url", "http://localhost:8080/status")

	v.SetDefault("cors.allowed_origins", []string{"*"})
	v.SetDefault("cors.allowed_methods", []string{"GET", "POST", "OPTIONS"})
	v.SetDefault("cors.allowed_headers", []string{"Origin", "Content-Type", "Accept", "X-Request-ID", "X-Cache-Key"})
	v.SetDefault("cors.exposed_headers", []string{"X-Request-ID", "X-RateLimit-Limit", "X-RateLimit-Remaining"})
	v.SetDefault("cors.allow_credentials", false)
	v.SetDefault("cors.max_age", 12*time.Hour)

	v.SetDefault("rate_limit.global", 600)
	v.SetDefault("rate_limit.per_ip", 120)
	v.SetDefault("rate_limit.burst", 20)

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("log.output", "stdout")
	v.SetDefault("log.file_path", "")
	v.SetDefault("log.mask_pii", false)
	v.SetDefault("log.pii_fields", []string{})
	v.SetDefault("log.slow_request_threshold", 2*time.Second)
	v.SetDefault("log.max_size", 100)
	v.SetDefault("log.max_backups", 5)
	v.SetDefault("log.max_age", 30)

	v.SetDefault("engine.transport", TransportPipe)
	v.SetDefault("engine.request_timeout", correlator.DefaultTimeout)
	v.SetDefault("engine.cache_ttl", cache.DefaultTTL)
	v.SetDefault("engine.cache_size", cache.DefaultSize)
	v.SetDefault("engine.pipe_buffer", transport.DefaultPipeBuffer)
	v.SetDefault("engine.embedded_worker", false)
	v.SetDefault("engine.sync_fallback", true)

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.prefix", "analytics")
	v.SetDefault("redis.poll_timeout", time.Second)
	v.SetDefault("redis.reply_ttl", time.Minute)

	p := algorithms.DefaultParams()
	v.SetDefault("algorithms.risk_free_rate", p.RiskFreeRate)
	v.SetDefault("algorithms.var_confidence", p.VaRConfidence)
	v.SetDefault("algorithms.low_risk_threshold", p.LowRiskThreshold)
	v.SetDefault("algorithms.medium_risk_threshold", p.MediumRiskThreshold)
	v.SetDefault("algorithms.monte_carlo_iterations", p.MonteCarloIterations)
	v.SetDefault("algorithms.noi_variation", p.NOIVariation)
	v.SetDefault("algorithms.occupancy_variation", p.OccupancyVariation)
	v.SetDefault("algorithms.value_variation", p.ValueVariation)
	v.SetDefault("algorithms.forecast_confidence_step", p.ForecastConfidenceStep)
	v.SetDefault("algorithms.forecast_confidence_floor", p.ForecastConfidenceFloor)
	v.SetDefault("algorithms.forecast_periods", p.ForecastPeriods)
	v.SetDefault("algorithms.iqr_multiplier", p.IQRMultiplier)
	v.SetDefault("algorithms.default_max_points", p.DefaultMaxPoints)
	v.SetDefault("algorithms.default_precision", p.DefaultPrecision)
	v.SetDefault("algorithms.max_precision", p.MaxPrecision)
	v.SetDefault("algorithms.budget_tolerance", p.BudgetTolerance)
	v.SetDefault("algorithms.volatile_trend_cv", p.VolatileTrendCV)
	v.SetDefault("algorithms.stable_trend_band", p.StableTrendBand)
	v.SetDefault("algorithms.top_n", p.TopN)
}

// Load reads defaults, then the optional config file at path, then
// ANALYTICS_ environment overrides.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshalling config: %w", err)
	}
	cfg.StartTime = time.Now()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks settings that would otherwise fail at runtime
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	switch c.Engine.Transport {
	case TransportPipe, TransportRedis:
	default:
		return fmt.Errorf("unsupported engine transport %q", c.Engine.Transport)
	}
	if c.Engine.RequestTimeout <= 0 {
		return fmt.Errorf("engine request timeout must be positive")
	}
	if c.Engine.Transport == TransportRedis && c.Redis.Addr == "" {
		return fmt.Errorf("redis transport requires redis.addr")
	}
	return nil
}

// RedisOptions maps the Redis settings onto transport options
func (c *Config) RedisOptions() transport.RedisOptions {
	return transport.RedisOptions{
		Prefix:      c.Redis.Prefix,
		PollTimeout: c.Redis.PollTimeout,
		ReplyTTL:    c.Redis.ReplyTTL,
	}
}
