package logger

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNew_WritesJSONToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "game.log")
	log, err := New(Config{Level: "debug", Encoding: "json", OutputPath: path})
	require.NoError(t, err)

	log.Named("SessionDriver").Debug("transition", zap.String("state", "Idle"))
	require.NoError(t, log.Sync())

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(strings.TrimSpace(string(raw))), &entry))
	assert.Equal(t, "DEBUG", entry["level"])
	assert.Equal(t, "SessionDriver", entry["logger"])
	assert.Equal(t, "Idle", entry["state"])
	assert.Contains(t, entry, "timestamp")
}

func TestNew_FallsBackOnBadSettings(t *testing.T) {
	path := filepath.Join(t.TempDir(), "game.log")
	log, err := New(Config{Level: "loud", Encoding: "xml", OutputPath: path})
	require.NoError(t, err)

	assert.False(t, log.Core().Enabled(zap.DebugLevel))
	assert.True(t, log.Core().Enabled(zap.InfoLevel))
	assert.Equal(t, "json", encoding("xml"))
	assert.Equal(t, "console", encoding("CONSOLE"))
}
