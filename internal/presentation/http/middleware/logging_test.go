package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"syscall"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LedgerLine/ledgerline-go/internal/infrastructure/observability/logging"
)

func newTestLogger(t *testing.T) (*logging.ChanneledLogger, string) {
	t.Helper()
	dir := t.TempDir()
	cfg := logging.DefaultLoggerConfig()
	cfg.OutputToConsole = false
	cfg.LogDirectory = dir
	logger, err := logging.NewChanneledLogger(cfg)
	require.NoError(t, err)
	return logger, dir
}

func readSystemLog(t *testing.T, dir string) string {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join(dir, "*.log"))
	require.NoError(t, err)
	var combined []byte
	for _, m := range matches {
		data, err := os.ReadFile(m)
		require.NoError(t, err)
		combined = append(combined, data...)
	}
	return string(combined)
}

func TestFilteredLoggerRecordsRequest(t *testing.T) {
	gin.SetMode(gin.TestMode)
	logger, dir := newTestLogger(t)

	r := gin.New()
	r.Use(FilteredLogger(logger))
	r.GET("/reports", func(c *gin.Context) {
		c.Header("X-ERP-Tenant", "acme")
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/reports?limit=5", nil))
	require.Equal(t, http.StatusOK, w.Code)

	out := readSystemLog(t, dir)
	assert.Contains(t, out, "/reports?limit=5")
	assert.Contains(t, out, `"company":"acme"`)
	assert.Contains(t, out, "Request served")
}

func TestFilteredLoggerSuppressesClientDisconnects(t *testing.T) {
	gin.SetMode(gin.TestMode)
	logger, dir := newTestLogger(t)

	r := gin.New()
	r.Use(FilteredLogger(logger))
	r.GET("/stream", func(c *gin.Context) {
		c.Error(syscall.EPIPE)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/stream", nil))

	out := readSystemLog(t, dir)
	assert.NotContains(t, out, "/stream", "client hangups must not reach the log")
}

func TestIsClientDisconnectError(t *testing.T) {
	assert.False(t, isClientDisconnectError(nil))
	assert.False(t, isClientDisconnectError(errors.New("table not found")))
	assert.True(t, isClientDisconnectError(syscall.EPIPE))
	assert.True(t, isClientDisconnectError(syscall.ECONNRESET))
	assert.True(t, isClientDisconnectError(errors.New("write tcp: broken pipe")))
}
