package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, ":8080", cfg.Listen)
	assert.Equal(t, "/var/lib/netvault/nn", cfg.StoreDir)
	assert.Equal(t, "256MB", cfg.MaxUploadSize)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.True(t, cfg.Metrics.Enabled)
	assert.NoError(t, cfg.Validate())
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
listen: ":9000"
store_dir: /srv/nets
auth_token: sekrit
max_upload_size: 64MB
log_level: debug
metrics:
  enabled: true
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":9000", cfg.Listen)
	assert.Equal(t, "/srv/nets", cfg.StoreDir)
	assert.Equal(t, "sekrit", cfg.AuthToken)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.True(t, cfg.Metrics.Enabled)

	maxBytes, err := cfg.MaxUploadBytes()
	require.NoError(t, err)
	assert.Equal(t, int64(64<<20), maxBytes)
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `{}`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Listen)
	assert.Equal(t, "/var/lib/netvault/nn", cfg.StoreDir)
	assert.Equal(t, "256MB", cfg.MaxUploadSize)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoadExpandsHome(t *testing.T) {
	t.Setenv("HOME", "/home/netvault-test")
	path := writeConfig(t, "store_dir: ~/nets\n")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/home/netvault-test/nets", cfg.StoreDir)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoadInvalidYAML(t *testing.T) {
	path := writeConfig(t, "listen: [:::\n")
	_, err := Load(path)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.Listen = ""
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.StoreDir = ""
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.MaxUploadSize = "lots"
	assert.Error(t, cfg.Validate())
}

func TestMaxUploadBytesUnlimited(t *testing.T) {
	cfg := Default()
	cfg.MaxUploadSize = "0"
	n, err := cfg.MaxUploadBytes()
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)
}
