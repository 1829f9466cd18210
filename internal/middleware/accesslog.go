package middleware

import (
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/iliyamo/choir-api/internal/logger"
	"github.com/iliyamo/choir-api/internal/metrics"
)

// RequestID assigns X-Request-ID when the client did not send one.
func RequestID() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id := c.Request().Header.Get(echo.HeaderXRequestID)
			if id == "" {
				id = uuid.NewString()
				c.Request().Header.Set(echo.HeaderXRequestID, id)
			}
			c.Response().Header().Set(echo.HeaderXRequestID, id)
			return next(c)
		}
	}
}

// AccessLog attaches a request-scoped logger, logs one line per request and
// records the request duration histogram. Request bodies are never logged.
func AccessLog(base *zap.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			reqLog := base.With(zap.String("request_id", c.Request().Header.Get(echo.HeaderXRequestID)))
			logger.SetEcho(c, reqLog)

			err := next(c)
			if err != nil {
				c.Error(err)
			}

			status := c.Response().Status
			latency := time.Since(start)
			route := c.Path()
			metrics.RequestDuration.WithLabelValues(c.Request().Method, route, strconv.Itoa(status)).Observe(latency.Seconds())

			fields := []zapcore.Field{
				zap.String("method", c.Request().Method),
				zap.String("route", route),
				zap.Int("status", status),
				zap.Duration("latency", latency),
				zap.String("ip", c.RealIP()),
			}
			if p := PrincipalFrom(c); p != nil {
				fields = append(fields, zap.String("user_id", p.ID))
			}
			switch {
			case err != nil || status >= 500:
				if err != nil {
					fields = append(fields, zap.Error(err))
				}
				reqLog.Error("request failed", fields...)
			case status >= 400:
				reqLog.Info("request rejected", fields...)
			default:
				reqLog.Info("request completed", fields...)
			}
			return nil
		}
	}
}
