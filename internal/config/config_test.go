package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clinote/clinote/internal/backend"
)

func newViper() *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	v.SetEnvPrefix("CLINOTE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

func TestFromViper_Defaults(t *testing.T) {
	cfg, err := FromViper(newViper())
	require.NoError(t, err)

	assert.Equal(t, backend.DefaultBaseURL, cfg.Backend.URL)
	assert.Zero(t, cfg.Backend.Timeout)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Empty(t, cfg.Doctor)
}

func TestFromViper_EnvOverride(t *testing.T) {
	t.Setenv("CLINOTE_BACKEND_URL", "http://typing.internal:9000")
	t.Setenv("CLINOTE_BACKEND_TIMEOUT", "45s")
	t.Setenv("CLINOTE_DOCTOR", "2056")

	cfg, err := FromViper(newViper())
	require.NoError(t, err)

	assert.Equal(t, "http://typing.internal:9000", cfg.Backend.URL)
	assert.Equal(t, 45*time.Second, cfg.Backend.Timeout)
	assert.Equal(t, "2056", cfg.Doctor)
}

func TestFromViper_BadTimeout(t *testing.T) {
	t.Setenv("CLINOTE_BACKEND_TIMEOUT", "soon")

	_, err := FromViper(newViper())
	assert.Error(t, err)
}

func TestFromViper_ReadsConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	cfg := Default()
	cfg.Backend.URL = "http://10.0.0.5:8000"
	cfg.Backend.Timeout = 2 * time.Minute
	cfg.Downloads.Dir = "/srv/drafts"
	require.NoError(t, Save(path, cfg))

	v := newViper()
	v.SetConfigFile(path)
	require.NoError(t, v.ReadInConfig())

	got, err := FromViper(v)
	require.NoError(t, err)
	assert.Equal(t, "http://10.0.0.5:8000", got.Backend.URL)
	assert.Equal(t, 2*time.Minute, got.Backend.Timeout)
	assert.Equal(t, "/srv/drafts", got.Downloads.Dir)
}

func TestSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", FileName)
	cfg := Default()
	cfg.Doctor = "1001"
	cfg.Log.Level = "debug"

	require.NoError(t, Save(path, cfg))
	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, got)
}

func TestLoad_Missing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestLoad_Malformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	require.NoError(t, os.WriteFile(path, []byte("backend: [unterminated"), 0644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestGetConfigDir_XDG(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg")

	dir, err := GetConfigDir()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/tmp/xdg", "clinote"), dir)
}
