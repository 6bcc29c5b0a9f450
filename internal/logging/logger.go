// Package logging builds the zap loggers used across the engine
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Config defines logger configuration
type Config struct {
	Level                string        `mapstructure:"level"`
	Format               string        `mapstructure:"format"`
	Output               string        `mapstructure:"output"`
	FilePath             string        `mapstructure:"file_path"`
	MaskPII              bool          `mapstructure:"mask_pii"`
	PIIFields            []string      `mapstructure:"pii_fields"`
	SlowRequestThreshold time.Duration `mapstructure:"slow_request_threshold"`
	MaxSize              int           `mapstructure:"max_size"` // MB
	MaxBackups           int           `mapstructure:"max_backups"`
	MaxAge               int           `mapstructure:"max_age"` // days

	// Writer receives output when Output is "writer"
	Writer io.Writer `mapstructure:"-"`
}

// DefaultConfig logs JSON at info level to stdout
func DefaultConfig() Config {
	return Config{
		Level:      "info",
		Format:     "json",
		Output:     "stdout",
		MaxSize:    100,
		MaxBackups: 5,
		MaxAge:     30,
	}
}

// New builds a logger from cfg
func New(cfg Config) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil {
		level = zapcore.InfoLevel
	}

	ws, err := writeSyncer(cfg)
	if err != nil {
		return nil, err
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.TimeKey = "timestamp"
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	var enc zapcore.Encoder
	switch cfg.Format {
	case "console", "text":
		encCfg.EncodeLevel = zapcore.CapitalLevelEncoder
		enc = zapcore.NewConsoleEncoder(encCfg)
	default:
		enc = zapcore.NewJSONEncoder(encCfg)
	}

	var core zapcore.Core = zapcore.NewCore(enc, ws, zap.NewAtomicLevelAt(level))
	if cfg.MaskPII && len(cfg.PIIFields) > 0 {
		core = newMaskingCore(core, cfg.PIIFields)
	}

	return zap.New(core, zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel)), nil
}

func writeSyncer(cfg Config) (zapcore.WriteSyncer, error) {
	switch cfg.Output {
	case "", "stdout":
		return zapcore.Lock(os.Stdout), nil
	case "stderr":
		return zapcore.Lock(os.Stderr), nil
	case "writer":
		if cfg.Writer == nil {
			return nil, fmt.Errorf("writer output requires a writer")
		}
		return zapcore.AddSync(cfg.Writer), nil
	case "file":
		if cfg.FilePath == "" {
			return nil, fmt.Errorf("file path required for file output")
		}
		if err := os.MkdirAll(filepath.Dir(cfg.FilePath), 0755); err != nil {
			return nil, fmt.Errorf("failed to create log directory: %w", err)
		}
		return zapcore.AddSync(&lumberjack.Logger{
			Filename:   cfg.FilePath,
			MaxSize:    cfg.MaxSize,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAge,
		}), nil
	default:
		return nil, fmt.Errorf("unsupported log output %q", cfg.Output)
	}
}

const redacted = "***REDACTED***"

// maskingCore replaces the value of configured fields before encoding
type maskingCore struct {
	zapcore.Core
	fields map[string]bool
}

func newMaskingCore(core zapcore.Core, names []string) zapcore.Core {
	fields := make(map[string]bool, len(names))
	for _, n := range names {
		fields[n] = true
	}
	return &maskingCore{Core: core, fields: fields}
}

func (c *maskingCore) mask(fields []zapcore.Field) []zapcore.Field {
	out := make([]zapcore.Field, len(fields))
	for i, f := range fields {
		if c.fields[f.Key] {
			out[i] = zap.String(f.Key, redacted)
			continue
		}
		out[i] = f
	}
	return out
}

func (c *maskingCore) With(fields []zapcore.Field) zapcore.Core {
	return &maskingCore{Core: c.Core.With(c.mask(fields)), fields: c.fields}
}

func (c *maskingCore) Check(ent zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if c.Enabled(ent.Level) {
		return ce.AddCore(ent, c)
	}
	return ce
}

func (c *maskingCore) Write(ent zapcore.Entry, fields []zapcore.Field) error {
	return c.Core.Write(ent, c.mask(fields))
}

// HTTPLoggingMiddleware logs every request; requests slower than
// slowThreshold are logged at warn level.
func HTTPLoggingMiddleware(logger *zap.Logger, slowThreshold time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		raw := c.Request.URL.RawQuery

		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.Int("status", status),
			zap.Int64("latency_ms", latency.Milliseconds()),
			zap.String("ip", c.ClientIP()),
		}
		if raw != "" {
			fields = append(fields, zap.String("query", raw))
		}
		if reqID := c.GetString("request_id"); reqID != "" {
			fields = append(fields, zap.String("request_id", reqID))
		}

		switch {
		case status >= 500:
			logger.Error("HTTP request", fields...)
		case slowThreshold > 0 && latency > slowThreshold:
			logger.Warn("Slow HTTP request", fields...)
		default:
			logger.Info("HTTP request", fields...)
		}
	}
}
