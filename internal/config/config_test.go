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

	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

func TestLoad(t *testing.T) {
	t.Run("Applies defaults", func(t *testing.T) {
		// Given: a file with only the secret
		path := writeConfig(t, "auth:\n  jwt-secret-key: secret\n")

		// When: it is loaded
		conf, err := Load(path)

		// Then: every other value falls back to its default
		require.NoError(t, err)
		assert.Equal(t, "info", conf.LogLevel)
		assert.Equal(t, "9090", conf.HTTPPort)
		assert.Equal(t, "9091", conf.SocketPort)
		assert.Equal(t, "localhost:6379", conf.Redis.GetRedisAddr())
		assert.Equal(t, 24*time.Hour, conf.Auth.TokenTTL)
		assert.False(t, conf.Auth.AllowAnonymousPlay)
		assert.Equal(t, 5, conf.Rooms.CodeAttempts)
		assert.Zero(t, conf.RoomReaper.IdleTimeout)
		assert.Equal(t, 54*time.Second, conf.WebSocket.PingInterval)
		assert.Equal(t, 60*time.Second, conf.WebSocket.PongWait)
		assert.Equal(t, 256, conf.WebSocket.SendBuffer)
	})

	t.Run("Reads every section", func(t *testing.T) {
		path := writeConfig(t, `
log-level: debug
http-port: "8080"
socket-port: "8081"
redis:
  host: redis
  port: "6380"
  db: 2
postgres:
  dsn: postgres://u:p@db:5432/x
auth:
  jwt-secret-key: secret
  token-ttl: 1h
  allow-anonymous-play: true
rooms:
  code-attempts: 3
room-reaper:
  interval: 30s
  idle-timeout: 15m
websocket:
  send-buffer: 32
`)

		conf, err := Load(path)

		require.NoError(t, err)
		assert.Equal(t, "debug", conf.LogLevel)
		assert.Equal(t, "redis:6380", conf.Redis.GetRedisAddr())
		assert.Equal(t, 2, conf.Redis.DB)
		assert.Equal(t, "postgres://u:p@db:5432/x", conf.Postgres.DSN)
		assert.Equal(t, time.Hour, conf.Auth.TokenTTL)
		assert.True(t, conf.Auth.AllowAnonymousPlay)
		assert.Equal(t, 3, conf.Rooms.CodeAttempts)
		assert.Equal(t, 15*time.Minute, conf.RoomReaper.IdleTimeout)
		assert.Equal(t, 32, conf.WebSocket.SendBuffer)
	})

	t.Run("Environment overrides the file", func(t *testing.T) {
		path := writeConfig(t, "auth:\n  jwt-secret-key: secret\n")
		t.Setenv("HTTP_PORT", "7070")
		t.Setenv("ALLOW_ANONYMOUS_PLAY", "true")

		conf, err := Load(path)

		require.NoError(t, err)
		assert.Equal(t, "7070", conf.HTTPPort)
		assert.True(t, conf.Auth.AllowAnonymousPlay)
	})

	t.Run("Secret is required", func(t *testing.T) {
		path := writeConfig(t, "log-level: info\n")

		_, err := Load(path)

		require.Error(t, err)
	})

	t.Run("Missing file", func(t *testing.T) {
		assert.Panics(t, func() {
			MustLoad(filepath.Join(t.TempDir(), "missing.yml"))
		})
	})
}
