// Package middleware provides HTTP middleware for the presentation layer.
package middleware

import (
	"errors"
	"net"
	"strings"
	"syscall"
	"time"

	"github.com/LedgerLine/ledgerline-go/internal/infrastructure/observability/logging"
	"github.com/gin-gonic/gin"
)

// isClientDisconnectError checks if the error is a common network error
// that occurs when a client closes the connection prematurely. These errors
// are safe to ignore in logs as they are not application-level bugs.
func isClientDisconnectError(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, syscall.EPIPE) {
		return true
	}
	if errors.Is(err, syscall.ECONNRESET) {
		return true
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		if opErr.Err.Error() == "write: broken pipe" {
			return true
		}
		if errors.Is(opErr.Err, syscall.EPIPE) || errors.Is(opErr.Err, syscall.ECONNRESET) {
			return true
		}
	}

	return strings.Contains(strings.ToLower(err.Error()), "broken pipe")
}

// FilteredLogger logs each request through the system channel, tagged with
// the company the request resolved to. Benign "broken pipe" errors from
// clients hanging up early are dropped to keep the channel readable.
func FilteredLogger(logger *logging.ChanneledLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		if c.Request.URL.RawQuery != "" {
			path = path + "?" + c.Request.URL.RawQuery
		}

		c.Next()

		lastError := c.Errors.Last()
		if lastError != nil && isClientDisconnectError(lastError.Err) {
			return
		}

		status := c.Writer.Status()
		attrs := []any{
			"status", status,
			"method", c.Request.Method,
			"path", path,
			"latency", time.Since(start).String(),
			"clientIP", c.ClientIP(),
		}
		if company := c.Writer.Header().Get("X-ERP-Tenant"); company != "" {
			attrs = append(attrs, "company", company)
		}
		if reason := c.Writer.Header().Get("X-ERP-Degraded"); reason != "" {
			attrs = append(attrs, "degraded", reason)
		}
		if lastError != nil {
			attrs = append(attrs, "error", lastError.Error())
		}

		switch {
		case status >= 500:
			logger.System().Error("Request failed", attrs...)
		case status >= 400:
			logger.System().Warn("Request rejected", attrs...)
		default:
			logger.System().Info("Request served", attrs...)
		}
	}
}
