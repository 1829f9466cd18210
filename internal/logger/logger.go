// Package logger owns the process-wide zap logger and the request-scoped
// loggers stored on echo contexts.
package logger

import (
	"context"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var log *zap.Logger

type contextKey string

const (
	loggerKey contextKey = "logger"
	echoKey              = "logger"
)

// InitLogger builds the global logger. production selects JSON output,
// anything else the colored console encoder. An unknown level falls back to
// info.
func InitLogger(env, level string) *zap.Logger {
	var cfg zap.Config
	if env == "production" {
		cfg = zap.NewProductionConfig()
	} else {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = zapcore.InfoLevel
	}
	cfg.Level.SetLevel(lvl)

	l, err := cfg.Build()
	if err != nil {
		panic("failed to initialize logger: " + err.Error())
	}
	log = l
	log.Info("logger initialized", zap.String("level", lvl.String()), zap.String("env", env))
	return log
}

// GetLogger returns the global logger, or a no-op logger before InitLogger.
func GetLogger() *zap.Logger {
	if log == nil {
		return zap.NewNop()
	}
	return log
}

// FromContext returns the logger stored by WithContext, or the global one.
func FromContext(ctx context.Context) *zap.Logger {
	if l, ok := ctx.Value(loggerKey).(*zap.Logger); ok {
		return l
	}
	return GetLogger()
}

func WithContext(ctx context.Context, l *zap.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}

// FromEcho returns the request-scoped logger set by the access log middleware.
func FromEcho(c echo.Context) *zap.Logger {
	if l, ok := c.Get(echoKey).(*zap.Logger); ok {
		return l
	}
	return GetLogger()
}

// SetEcho attaches l to the echo context and to the request context.
func SetEcho(c echo.Context, l *zap.Logger) {
	c.Set(echoKey, l)
	c.SetRequest(c.Request().WithContext(WithContext(c.Request().Context(), l)))
}
