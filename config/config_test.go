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
	path := filepath.Join(t.TempDir(), "warp.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadMissingFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.Equal(t, 2*time.Second, cfg.ReadTimeout())
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
[adapter]
force = "nvidia"
power = "low"

[run]
debug = true
read-timeout-ms = 5000
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "nvidia", cfg.Adapter.Force)
	assert.Equal(t, "low", cfg.Adapter.Power)
	assert.True(t, cfg.Run.Debug)
	assert.Equal(t, 5*time.Second, cfg.ReadTimeout())
}

func TestLoadPartial(t *testing.T) {
	// Unset fields keep their defaults.
	path := writeConfig(t, `
[run]
debug = true
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "high", cfg.Adapter.Power)
	assert.Equal(t, 2000, cfg.Run.ReadTimeoutMS)
	assert.True(t, cfg.Run.Debug)
}

func TestLoadInvalid(t *testing.T) {
	_, err := Load(writeConfig(t, `[adapter]
power = "turbo"`))
	assert.ErrorContains(t, err, "invalid adapter power")

	_, err = Load(writeConfig(t, `[run]
read-timeout-ms = -1`))
	assert.ErrorContains(t, err, "invalid read-timeout-ms")

	_, err = Load(writeConfig(t, `not toml at all = = =`))
	assert.Error(t, err)
}
