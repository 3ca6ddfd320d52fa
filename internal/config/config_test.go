package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
user_id: 42
api:
  base_url: http://localhost:8080/api
  ws_url: ws://localhost:8080
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, int64(42), cfg.UserID)
	assert.Equal(t, 20, cfg.Sync.PageSize)
	assert.Equal(t, 20, cfg.Sync.BackfillBatchSize)
	assert.Equal(t, 3, cfg.Sync.BackfillMaxEmpty)
	assert.Equal(t, 0.5, cfg.Sync.ReadFraction)
	assert.Equal(t, "8090", cfg.DebugPort)
	assert.Equal(t, 10*time.Second, cfg.APITimeout)
	assert.Equal(t, 200*time.Millisecond, cfg.BackfillInterval)
	assert.Equal(t, 30*time.Second, cfg.BreakerOpen)
}

func TestLoadOverrides(t *testing.T) {
	path := writeConfig(t, `
user_id: 1
debug_port: "9999"
api:
  base_url: http://chat.internal/api
  timeout_seconds: 3
sync:
  page_size: 50
  backfill_interval_ms: 25
  read_fraction: 0.8
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "9999", cfg.DebugPort)
	assert.Equal(t, 50, cfg.Sync.PageSize)
	assert.Equal(t, 50, cfg.Sync.BackfillBatchSize, "batch size follows page size when unset")
	assert.Equal(t, 3*time.Second, cfg.APITimeout)
	assert.Equal(t, 25*time.Millisecond, cfg.BackfillInterval)
	assert.Equal(t, 0.8, cfg.Sync.ReadFraction)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
