package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Relay.Addr)
	assert.Equal(t, 1920, cfg.Relay.ImageWidth)
	assert.Equal(t, 10*time.Second, cfg.Relay.ShutdownTimeout)
	assert.Equal(t, "memory", cfg.Storage.Driver)
	assert.Equal(t, 5432, cfg.Storage.Database.Port)
	assert.Equal(t, "stickytab", cfg.Storage.RedisPrefix)
	assert.Equal(t, 120*time.Millisecond, cfg.AIWrite.Debounce)
	assert.Equal(t, "stepfun/step-3.5-flash:free", cfg.AIWrite.Model)
	assert.False(t, cfg.Log.Development)
}

func TestLoadConfigFileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
relay:
  addr: ":9000"
  image_width: 1280
storage:
  driver: redis
  redis_url: redis://localhost:6379/0
aiwrite:
  debounce: 250ms
telegram:
  allowed_user_id: 12345
log:
  development: true
`), 0o600))

	t.Setenv("OPENROUTER_API_KEY", "or-key")
	t.Setenv("UNSPLASH_ACCESS_KEY", "us-key")
	t.Setenv("TELEGRAM_TOKEN", "tg-token")
	t.Setenv("PROXY_BASE_URL", "https://relay.example")
	t.Setenv("DATABASE_URL", "postgres://u:p@db:6543/notes?sslmode=require")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, ":9000", cfg.Relay.Addr)
	assert.Equal(t, 1280, cfg.Relay.ImageWidth)
	assert.Equal(t, "or-key", cfg.Relay.ChatAPIKey)
	assert.Equal(t, "us-key", cfg.Relay.ImageAccessKey)
	assert.Equal(t, "tg-token", cfg.Telegram.Token)
	assert.Equal(t, int64(12345), cfg.Telegram.AllowedUserID)
	assert.Equal(t, "https://relay.example", cfg.AIWrite.ProxyBaseURL)
	assert.Equal(t, 250*time.Millisecond, cfg.AIWrite.Debounce)
	assert.True(t, cfg.Log.Development)

	// The file names the driver explicitly, so DATABASE_URL only fills in the connection.
	assert.Equal(t, "redis", cfg.Storage.Driver)
	assert.Equal(t, DatabaseConfig{Host: "db", Port: 6543, User: "u", Password: "p", DBName: "notes", SSLMode: "require"}, cfg.Storage.Database)
}

func TestLoadConfigDriverFollowsEnv(t *testing.T) {
	t.Setenv("REDIS_URL", "redis://cache:6379/1")

	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, "redis", cfg.Storage.Driver)
	assert.Equal(t, "redis://cache:6379/1", cfg.Storage.RedisURL)
}

func TestLoadConfigInvalidDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "mysql://root@localhost/db")

	_, err := LoadConfig("")
	assert.Error(t, err)
}

func TestParseDatabaseURL(t *testing.T) {
	cfg, err := parseDatabaseURL("postgresql://admin@localhost/stickytab")
	require.NoError(t, err)
	assert.Equal(t, DatabaseConfig{Host: "localhost", Port: 5432, User: "admin", DBName: "stickytab", SSLMode: "disable"}, cfg)

	_, err = parseDatabaseURL("postgres://u@h:notaport/db")
	assert.Error(t, err)
}
