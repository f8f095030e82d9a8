package logger

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetupRejectsUnknownLevel(t *testing.T) {
	err := Setup(LogConfig{Level: "loud", Format: "json", Output: "stderr"})
	assert.Error(t, err)
}

func TestSetupWritesJSONToFile(t *testing.T) {
	prev := GetLogger()
	prevLevel := zerolog.GlobalLevel()
	t.Cleanup(func() {
		SetGlobal(prev)
		zerolog.SetGlobalLevel(prevLevel)
	})

	path := filepath.Join(t.TempDir(), "billbook.log")
	require.NoError(t, Setup(LogConfig{Level: "debug", Format: "json", Output: path}))

	log := WithBill("session", "INV-007")
	log.Info().Msg("Saved bill")
	log.Debug().Msg("details")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "session", entry["component"])
	assert.Equal(t, "INV-007", entry["bill_number"])
	assert.Equal(t, "Saved bill", entry["message"])
	assert.Equal(t, "info", entry["level"])
}

func TestDefaultConfigKeepsStdoutFree(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, "stderr", cfg.Output)
	assert.Equal(t, "warn", cfg.Level)
}
