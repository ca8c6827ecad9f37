package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	return path
}

func TestLoadConfig_Defaults(t *testing.T) {
	path := writeConfig(t, `
http_server:
  address: ":3000"
jwt:
  secret: "test-secret"
`)

	cfg, err := loadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "local", cfg.Env)
	assert.Equal(t, "postgres", cfg.DB.Driver)
	assert.Equal(t, "memory", cfg.Session.Backend)
	assert.Equal(t, 24*time.Hour, cfg.JWT.TTL)
	assert.Equal(t, 18, cfg.App.MinimumAge)
	assert.Equal(t, 10*time.Second, cfg.HTTPServer.ReadTimeout)
}

func TestLoadConfig_RejectsUnknownBackend(t *testing.T) {
	path := writeConfig(t, `
http_server:
  address: ":3000"
jwt:
  secret: "test-secret"
session:
  backend: "etcd"
`)

	_, err := loadConfig(path)
	assert.Error(t, err)
}

func TestLoadConfig_SecretRequired(t *testing.T) {
	path := writeConfig(t, `
http_server:
  address: ":3000"
`)

	_, err := loadConfig(path)
	assert.Error(t, err)
}

func TestMustLoadConfig_MissingFile(t *testing.T) {
	assert.Panics(t, func() {
		MustLoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	})
}

func TestLocalConfig_SecretFromEnv(t *testing.T) {
	path := filepath.Join("..", "..", "config", "local.yaml")

	// Setenv registers the restore; the variable itself must be absent.
	t.Setenv("JWT_SECRET", "")
	require.NoError(t, os.Unsetenv("JWT_SECRET"))

	_, err := loadConfig(path)
	assert.Error(t, err, "the committed config must not carry a signing key")

	t.Setenv("JWT_SECRET", "from-env")
	cfg, err := loadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.JWT.Secret)
}
