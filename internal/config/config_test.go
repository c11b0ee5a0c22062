package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")

	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.HTTP.Addr)
	assert.Equal(t, 5*time.Second, cfg.HTTP.ShutdownTimeout)
	assert.Equal(t, Game{Rows: 6, Cols: 7, ConnectLength: 4, MaxRows: 32, MaxCols: 32}, cfg.Game)
	assert.Equal(t, BackendRedis, cfg.Scores.Backend)
	assert.False(t, cfg.Telemetry.Enabled)
}

func TestLoadEnvironment(t *testing.T) {
	t.Setenv("SCORE_BACKEND", "sqlite")
	t.Setenv("SQLITE_PATH", "/tmp/scores.db")
	t.Setenv("GAME_CONNECT_LENGTH", "5")

	cfg, err := Load("")

	require.NoError(t, err)
	assert.Equal(t, BackendSQLite, cfg.Scores.Backend)
	assert.Equal(t, "/tmp/scores.db", cfg.Scores.SQLitePath)
	assert.Equal(t, 5, cfg.Game.ConnectLength)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(`
log-level: debug
http:
  addr: ":9090"
game:
  rows: 8
  cols: 9
scores:
  backend: memory
`), 0o600))

	cfg, err := Load(path)

	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, ":9090", cfg.HTTP.Addr)
	assert.Equal(t, 8, cfg.Game.Rows)
	assert.Equal(t, 9, cfg.Game.Cols)
	assert.Equal(t, 4, cfg.Game.ConnectLength)
	assert.Equal(t, BackendMemory, cfg.Scores.Backend)
}

func TestValidate(t *testing.T) {
	t.Setenv("SCORE_BACKEND", "mongo")
	_, err := Load("")
	assert.ErrorContains(t, err, `unknown score backend "mongo"`)

	t.Setenv("SCORE_BACKEND", "memory")
	t.Setenv("GAME_ROWS", "0")
	_, err = Load("")
	assert.ErrorContains(t, err, "must be positive")
}
