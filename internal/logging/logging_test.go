package logging

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitWritesLogFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "segexport.log")

	closer, err := Init(true, path)
	require.NoError(t, err)
	assert.Equal(t, zerolog.DebugLevel, zerolog.GlobalLevel())

	logger := WithComponent("driver")
	logger.Info().Int("index", 2).Msg("segment exported")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var record map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(data), &record))
	assert.Equal(t, "driver", record["component"])
	assert.Equal(t, "segment exported", record["message"])
	assert.EqualValues(t, 2, record["index"])
}

func TestInitBadLogFile(t *testing.T) {
	_, err := Init(false, filepath.Join(t.TempDir(), "missing", "dir", "x.log"))
	assert.Error(t, err)
	assert.Equal(t, zerolog.InfoLevel, zerolog.GlobalLevel())
}

func TestNewLogger(t *testing.T) {
	var a, b bytes.Buffer
	logger := NewLogger(&a, &b)
	logger.Warn().Msg("hello")

	assert.Contains(t, a.String(), `"message":"hello"`)
	assert.Equal(t, a.String(), b.String())
}
