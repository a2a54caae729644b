package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.ServerPort)
	assert.Equal(t, "electron-socket", cfg.DefaultChannel)
	assert.Equal(t, "https://i.pximg.net", cfg.ImageOrigin)
	assert.Contains(t, cfg.AuditLogPath, "download.log")

	timing := cfg.Timing()
	assert.Equal(t, 60*time.Second, timing.AnchorTimeout)
	assert.Equal(t, 30*time.Second, timing.NavigationTimeout)
	assert.Equal(t, 60*time.Second, timing.FetchTimeout)
	assert.Equal(t, 3*time.Second, timing.ThrottleDelay)
	assert.Equal(t, 2*time.Second, timing.RetryDelay)
	assert.Equal(t, 300, timing.ScrollStep)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("SERVER_PORT", "9002")
	t.Setenv("THROTTLE_DELAY_MS", "0")
	t.Setenv("POSTGRES_URL", "postgres://u:p@db/harvester")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9002", cfg.ServerPort)
	assert.Equal(t, time.Duration(0), cfg.Timing().ThrottleDelay)
	assert.Equal(t, "postgres://u:p@db/harvester", cfg.PostgresURL)
}
