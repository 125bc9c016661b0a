package services

import (
	"testing"

	"github.com/LedgerLine/ledgerline-go/internal/infrastructure/observability/logging"
	"github.com/stretchr/testify/require"
)

func newTestLogger(t *testing.T) *logging.ChanneledLogger {
	t.Helper()
	cfg := logging.DefaultLoggerConfig()
	cfg.OutputToConsole = false
	cfg.LogDirectory = t.TempDir()

	logger, err := logging.NewChanneledLogger(cfg)
	require.NoError(t, err)
	return logger
}
