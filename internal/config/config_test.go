package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	dir := t.TempDir()

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, 10000, cfg.Redmine.TimeoutMs)
	assert.True(t, cfg.Tracking.SaveCurrentFirst)
	assert.Equal(t, 5*time.Second, cfg.MessageTimeout())
	assert.Equal(t, filepath.Join(dir, "redtimer.db"), cfg.Storage.DBPath)
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	body := `
redmine:
  url: https://redmine.example.com
  api_key: secret
  timeout_ms: 2500
tracking:
  start_timer_after_load: false
ui:
  message_timeout_ms: 1500
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(body), 0o600))

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, "https://redmine.example.com", cfg.Redmine.URL)
	assert.Equal(t, "secret", cfg.Redmine.APIKey)
	assert.Equal(t, 2500*time.Millisecond, cfg.Timeout())
	assert.Equal(t, 1, cfg.Redmine.MaxRetries, "unset keys keep defaults")
	assert.False(t, cfg.Tracking.StartTimerAfterLoad)
	assert.Equal(t, 1500, cfg.UI.MessageTimeoutMs)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"),
		[]byte("redmine:\n  url: https://file.example.com\n"), 0o600))
	t.Setenv("REDTIMER_URL", "https://env.example.com")
	t.Setenv("REDTIMER_MAX_RETRIES", "3")
	t.Setenv("REDTIMER_LOG_CALLS", "true")
	t.Setenv("REDTIMER_TIMEOUT_MS", "not-a-number")

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, "https://env.example.com", cfg.Redmine.URL)
	assert.Equal(t, 3, cfg.Redmine.MaxRetries)
	assert.True(t, cfg.Log.Calls)
	assert.Equal(t, 10000, cfg.Redmine.TimeoutMs, "invalid override is ignored")
}

func TestLoad_ConfigPathFromEnv(t *testing.T) {
	dir := t.TempDir()
	custom := filepath.Join(dir, "elsewhere.yaml")
	require.NoError(t, os.WriteFile(custom, []byte("storage:\n  db_path: /tmp/x.db\n"), 0o600))
	t.Setenv("REDTIMER_CONFIG", custom)

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/x.db", cfg.Storage.DBPath)
}

func TestLoad_MalformedFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("redmine: [unclosed"), 0o600))

	_, err := Load(dir)
	assert.ErrorContains(t, err, "parsing config")
}

func TestValidate(t *testing.T) {
	cfg := DefaultConfig(t.TempDir())
	assert.ErrorIs(t, cfg.Validate(), ErrMissingURL)

	cfg.Redmine.URL = "redmine.example.com"
	assert.ErrorContains(t, cfg.Validate(), "must start with")

	cfg.Redmine.URL = "https://redmine.example.com"
	assert.NoError(t, cfg.Validate())
}

func TestSaveRoundTrip(t *testing.T) {
	dir := t.TempDir()
	cfg := DefaultConfig(dir)
	cfg.Redmine.URL = "https://redmine.example.com"
	cfg.Tracking.RestoreLastIssue = false

	require.NoError(t, cfg.Save(Path(dir)))
	loaded, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, cfg, loaded)
}

func TestRedacted(t *testing.T) {
	cfg := DefaultConfig(t.TempDir())
	cfg.Redmine.APIKey = "secret"

	assert.Equal(t, "********", cfg.Redacted().Redmine.APIKey)
	assert.Equal(t, "secret", cfg.Redmine.APIKey, "original untouched")
}
