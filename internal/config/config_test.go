package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("AUTH_SECRET", "s3cret")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "data/wildkids.db", cfg.DBPath)
	assert.Equal(t, "wildkids", cfg.RedisPrefix)
	assert.Equal(t, 3*time.Second, cfg.RemoteTimeout)
	assert.Equal(t, 720*time.Hour, cfg.TokenTTL)
	assert.Equal(t, 800*time.Millisecond, cfg.NotifyStagger)
	assert.Equal(t, time.Hour, cfg.PlayTTL)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
}

func TestLoadRequiresSecret(t *testing.T) {
	t.Setenv("AUTH_SECRET", "")
	_, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	assert.Error(t, err)
}

func TestLoadDotEnv(t *testing.T) {
	t.Setenv("AUTH_SECRET", "from-env")
	t.Cleanup(func() {
		os.Unsetenv("REMOTE_TIMEOUT")
		os.Unsetenv("REDIS_PREFIX")
	})

	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("AUTH_SECRET=from-file\nREMOTE_TIMEOUT=500ms\nREDIS_PREFIX=kids\n"), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.AuthSecret, "the environment wins over the file")
	assert.Equal(t, 500*time.Millisecond, cfg.RemoteTimeout)
	assert.Equal(t, "kids", cfg.RedisPrefix)
}
