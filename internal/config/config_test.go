package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaultsWithoutFile(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "http://0.0.0.0:8000/api/v1", cfg.Backend.BaseURL())
	assert.Equal(t, 30*time.Second, cfg.Backend.RequestTimeout())
	assert.Equal(t, 5*time.Second, cfg.Detection.Interval())
	assert.True(t, cfg.Detection.StrictMethods)
	assert.Equal(t, "blockscope", cfg.Detection.DefaultMethod)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, filepath.Join(home, DefaultDBFile), cfg.Database.Path)
}

func TestLoadFileAndEnvOverride(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("CGCONSOLE_DETECTION_POLL_INTERVAL", "2")

	path := filepath.Join(home, "custom.json")
	body := `{
  "backend": {"url": "http://backend:9000/", "api_prefix": "api/v2"},
  "database": {"path": "~/data/journal.db"},
  "schedules": [{"name": "nightly", "expr": "@daily", "bug_id": "CVE-1", "project": "proj", "patch_file": "~/p.diff", "enabled": true}]
}`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "http://backend:9000/api/v2", cfg.Backend.BaseURL())
	assert.Equal(t, 2*time.Second, cfg.Detection.Interval())
	assert.Equal(t, filepath.Join(home, "data/journal.db"), cfg.Database.Path)
	require.Len(t, cfg.Schedules, 1)
	assert.Equal(t, "nightly", cfg.Schedules[0].Name)
	assert.Equal(t, filepath.Join(home, "p.diff"), cfg.Schedules[0].PatchFile)
}

func TestLoadMalformedFile(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	path := filepath.Join(home, "broken.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	_, err := Load(path)
	require.Error(t, err)
}

func TestSaveRoundTrip(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	path := filepath.Join(home, "out", "config.json")

	cfg := &Config{Backend: BackendConfig{URL: "http://example:8000", APIPrefix: "/api/v1", Timeout: 10}}
	require.NoError(t, Save(cfg, path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "http://example:8000/api/v1", loaded.Backend.BaseURL())
	assert.Equal(t, 10*time.Second, loaded.Backend.RequestTimeout())
}
