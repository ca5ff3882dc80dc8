package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestNew_WritesJSONToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "client.log")

	log, err := New(Config{Level: "debug", Format: "json", OutputPaths: []string{path}})
	require.NoError(t, err)

	log.Debug("lookup fired")
	require.NoError(t, log.Sync())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"lookup fired"`)
}

func TestNew_UnknownLevelFallsBackToInfo(t *testing.T) {
	log, err := New(Config{Level: "chatty", Format: "console"})
	require.NoError(t, err)

	assert.False(t, log.Core().Enabled(zapcore.DebugLevel))
	assert.True(t, log.Core().Enabled(zapcore.InfoLevel))
}

func TestNew_StampsAppAndVersion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "client.log")

	log, err := New(Config{Level: "info", OutputPaths: []string{path}, App: "stub", Version: "1.2.3"})
	require.NoError(t, err)

	log.Info("listening")
	require.NoError(t, log.Sync())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"app":"stub"`)
	assert.Contains(t, string(data), `"version":"1.2.3"`)
}
