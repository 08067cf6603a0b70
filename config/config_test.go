// ABOUTME: Tests for configuration loading
// ABOUTME: Covers defaults, environment overrides, YAML files, and validation
package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/adrg/xdg"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFileDefaults(t *testing.T) {
	cfg, err := LoadFile("")
	require.NoError(t, err)

	assert.Equal(t, BackendBadger, cfg.Store.Backend)
	assert.Equal(t, filepath.Join(xdg.DataHome, "kinship", "badger"), cfg.Store.Path)
	assert.Equal(t, 30*time.Second, cfg.Cascade.Timeout)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
	assert.Equal(t, "kinship", cfg.Metrics.Namespace)
}

func TestLoadFileEnvOverrides(t *testing.T) {
	t.Setenv("KINSHIP_STORE_BACKEND", "sqlite")
	t.Setenv("KINSHIP_CASCADE_TIMEOUT", "5s")
	t.Setenv("KINSHIP_LOG_LEVEL", "debug")

	cfg, err := LoadFile("")
	require.NoError(t, err)

	assert.Equal(t, BackendSQLite, cfg.Store.Backend)
	assert.Equal(t, filepath.Join(xdg.DataHome, "kinship", "kinship.db"), cfg.Store.Path)
	assert.Equal(t, 5*time.Second, cfg.Cascade.Timeout)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoadFileYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kinship.yaml")
	yaml := "store:\n  backend: memory\ncascade:\n  timeout: 2s\nlog:\n  format: json\n"
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0600))

	cfg, err := LoadFile(path)
	require.NoError(t, err)

	assert.Equal(t, BackendMemory, cfg.Store.Backend)
	assert.Empty(t, cfg.Store.Path)
	assert.Equal(t, 2*time.Second, cfg.Cascade.Timeout)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoadFileMissingPath(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestValidateRejectsUnknownBackend(t *testing.T) {
	t.Setenv("KINSHIP_STORE_BACKEND", "couch")

	_, err := LoadFile("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "store.backend")
}
