package server

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	assert.Equal(t, "localhost", cfg.Server.Address)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 30, cfg.Server.DisconnectGraceSec)
	assert.Equal(t, 5, cfg.Server.ReapIntervalSec)
	assert.Equal(t, "localhost:8080", cfg.ListenAddress())
	require.NoError(t, cfg.Validate())
}

func TestLoadConfigMissingFileUsesDefaults(t *testing.T) {
	t.Parallel()

	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.hcl"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoadConfigFromFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "burad.hcl")
	content := `
server {
  address              = "0.0.0.0"
  port                 = 9090
  log_level            = "debug"
  allowed_origins      = ["https://bura.example.com"]
  disconnect_grace_sec = 60
}
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "0.0.0.0", cfg.Server.Address)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "debug", cfg.Server.LogLevel)
	assert.Equal(t, []string{"https://bura.example.com"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, 60, cfg.Server.DisconnectGraceSec)
	// Unset fields fall back to defaults.
	assert.Equal(t, "bura.db", cfg.Server.DBPath)
	assert.Equal(t, 5, cfg.Server.ReapIntervalSec)
}

func TestConfigValidate(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	cfg.Server.Port = 0
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.Server.DisconnectGraceSec = -1
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.Server.ReapIntervalSec = 0
	assert.Error(t, cfg.Validate())
}
