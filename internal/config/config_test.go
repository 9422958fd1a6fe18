package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())
	unsetenv(t, "BLADE_ENV", "BLADE_VIEWS", "BLADE_CACHE", "BLADE_ADDR", "BLADE_PRECOMPILE")

	cfg := Load()
	assert.Equal(t, "development", cfg.Env)
	assert.Equal(t, "views", cfg.ViewsDir)
	assert.Equal(t, filepath.Join(os.TempDir(), "blade"), cfg.CacheDir)
	assert.Equal(t, ":8080", cfg.Addr)
	assert.False(t, cfg.Precompile)
}

func TestLoadFromDotEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	unsetenv(t, "BLADE_VIEWS", "BLADE_PRECOMPILE")
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("BLADE_VIEWS=templates\nBLADE_PRECOMPILE=1\n"), 0o644))

	cfg := Load()
	assert.Equal(t, "templates", cfg.ViewsDir)
	assert.True(t, cfg.Precompile)
}

// unsetenv removes keys for the duration of the test; godotenv never
// overrides a variable that is set, even to the empty string.
func unsetenv(t *testing.T, keys ...string) {
	t.Helper()
	for _, key := range keys {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}
}
