package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"gridcast/pkg/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempConfig(t *testing.T, content string) string {
	t.Helper()

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write temp config: %v", err)
	}
	return path
}

func TestLoad_UsesDefaultsWhenFileMissing(t *testing.T) {
	cfg, err := config.Load("non-existent-config.yaml")
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Server.Address)
	assert.Equal(t, "ffmpeg", cfg.Engine.Binary)
	assert.Equal(t, 8554, cfg.Engine.BasePort)
	assert.Equal(t, 100, cfg.Engine.PortCount)
	assert.Equal(t, 5*time.Second, cfg.Broadcast.SnapshotInterval)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoad_LoadsFromYAMLAndAppliesEnvOverrides(t *testing.T) {
	path := writeTempConfig(t, `
server:
  address: ":9000"

engine:
  binary: /usr/local/bin/ffmpeg
  public_host: relay.example.com
  base_port: 9554
  port_count: 20
  stop_timeout: 5s

broadcast:
  snapshot_interval: 2s

logging:
  level: "debug"
`)

	t.Setenv("GRIDCAST_PUBLIC_HOST", "override.example.com")

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":9000", cfg.Server.Address)
	assert.Equal(t, "/usr/local/bin/ffmpeg", cfg.Engine.Binary)
	assert.Equal(t, "override.example.com", cfg.Engine.PublicHost)
	assert.Equal(t, 9554, cfg.Engine.BasePort)
	assert.Equal(t, 20, cfg.Engine.PortCount)
	assert.Equal(t, 5*time.Second, cfg.Engine.StopTimeout)
	assert.Equal(t, 2*time.Second, cfg.Broadcast.SnapshotInterval)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoad_RejectsInvalidFile(t *testing.T) {
	path := writeTempConfig(t, `
engine:
  port_count: 0
`)

	_, err := config.Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "port_count")
}

func TestValidate_RejectsBadPortRange(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Engine.BasePort = 65000
	cfg.Engine.PortCount = 1000
	assert.Error(t, cfg.Validate())

	cfg = config.DefaultConfig()
	cfg.Engine.PortCount = 0
	assert.Error(t, cfg.Validate())
}

func TestValidate_RejectsNonPositiveIntervals(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Broadcast.SnapshotInterval = 0
	assert.Error(t, cfg.Validate())

	cfg = config.DefaultConfig()
	cfg.Engine.StopTimeout = 0
	assert.Error(t, cfg.Validate())
}

func TestValidate_RedisRequiresAddressWhenEnabled(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Redis.Enabled = true
	cfg.Redis.Address = ""
	assert.Error(t, cfg.Validate())
}
