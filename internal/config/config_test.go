package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	require.NoError(t, Load(t.TempDir()))

	assert.Equal(t, "5050", Conf.Server.Port)
	assert.Equal(t, "redis", Conf.Session.Store)
	assert.Equal(t, 24*time.Hour, Conf.Session.TTL)
	assert.Equal(t, time.Second, Conf.Session.TickInterval)
	assert.Equal(t, "FUTURE", Conf.Admin.Secret)
	assert.Equal(t, 3, Conf.Detector.MaxAttempts)
	assert.Equal(t, 1, Conf.Detector.MaxNames)
	assert.Equal(t, "unlocked", Conf.Quiz.RevisitTimerPolicy)
}

func TestLoadFileAndEnv(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "config"), 0o755))
	yaml := []byte("server:\n  port: \"9090\"\nsession:\n  store: memory\n  ttl: 2h\ndetector:\n  max_attempts: 5\n")
	require.NoError(t, os.WriteFile(filepath.Join(root, "config", "config.yaml"), yaml, 0o644))

	t.Setenv("CDCFIB_ADMIN_SECRET", "s3cret")

	require.NoError(t, Load(root))
	assert.Equal(t, "9090", Conf.Server.Port)
	assert.Equal(t, "memory", Conf.Session.Store)
	assert.Equal(t, 2*time.Hour, Conf.Session.TTL)
	assert.Equal(t, 5, Conf.Detector.MaxAttempts)
	assert.Equal(t, "s3cret", Conf.Admin.Secret)
}

func TestLoadRejectsBrokenFile(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "config"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "config", "config.yaml"), []byte("server: [\n"), 0o644))

	assert.Error(t, Load(root))
}
