package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	v := viper.New()
	setDefaults(v)
	s := settingsFrom(v)

	assert.Equal(t, "https://registry.npmjs.org", s.Registry)
	assert.Equal(t, 8, s.Concurrency)
	assert.Equal(t, 30*time.Second, s.Timeout)
	assert.Equal(t, "pnpm", s.PackageManager)
	assert.True(t, s.Catalog)
	assert.Equal(t, "info", s.LogLevel)
	assert.Equal(t, time.Hour, s.CacheTTL)
	assert.True(t, s.UpdateCheck)
}

func TestSettingsClampsConcurrency(t *testing.T) {
	v := viper.New()
	setDefaults(v)
	v.Set(KeyConcurrency, 0)
	v.Set(KeyTimeout, "-1s")

	s := settingsFrom(v)
	assert.Equal(t, 1, s.Concurrency)
	assert.Equal(t, 30*time.Second, s.Timeout)
}

func TestEnvOverride(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("MONOKIT_REGISTRY", "https://npm.internal.example")
	viper.Reset()
	t.Cleanup(viper.Reset)

	Load()
	assert.Equal(t, "https://npm.internal.example", Current().Registry)
}

func TestSetPersists(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	viper.Reset()
	t.Cleanup(viper.Reset)

	Load()
	require.NoError(t, Set(KeyPackageManager, "npm"))

	data, err := os.ReadFile(filepath.Join(home, ".monokit", "config.yaml"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "package_manager: npm")
	assert.Equal(t, "npm", Get(KeyPackageManager))
}
