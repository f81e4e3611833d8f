package main

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

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("SHEETSYNC_SECRET", "")
	path := writeConfig(t, `
server:
  secret: topsecret
`)
	config, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, ":8080", config.Server.Addr)
	assert.Equal(t, "topsecret", config.Server.Secret)
	assert.Equal(t, "sqlite3", config.Store.Driver)
	assert.Equal(t, 200, config.Sync.DefaultLimit)
	assert.Equal(t, "sheetsync.changes", config.NATS.Subject)
	assert.Equal(t, 2*time.Second, config.NATS.ReconnectWait)
}

func TestLoadConfigEnvOverridesSecret(t *testing.T) {
	t.Setenv("SHEETSYNC_SECRET", "from-env")
	path := writeConfig(t, `
server:
  secret: from-file
`)
	config, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "from-env", config.Server.Secret)
}

func TestLoadConfigRequiresSecret(t *testing.T) {
	t.Setenv("SHEETSYNC_SECRET", "")
	path := writeConfig(t, `
server:
  addr: ":9090"
`)
	_, err := LoadConfig(path)
	assert.ErrorContains(t, err, "secret")
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
