package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolate runs the test in an empty directory with no config on the
// search paths and a fresh viper instance.
func isolate(t *testing.T) *Loader {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("HOME", dir)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, ".config"))
	return NewLoaderWithViper(viper.New())
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := isolate(t).Load()
	require.NoError(t, err)
	assert.Equal(t, infoLevel, cfg.LogLevel)
	assert.Equal(t, 500, cfg.Limits.MaxFiles)
	assert.Equal(t, 8080, cfg.Server.Port)
}

func TestLoad_LegacyEnvironment(t *testing.T) {
	loader := isolate(t)
	t.Setenv("DATA_PATH", "/srv/scans/in")
	t.Setenv("SUCCESS_PATH", "/srv/scans/ok")
	t.Setenv("MAX_FILES", "120")
	t.Setenv("RECOMMENDED_FILES", "60")
	t.Setenv("SHARPNESS", "420.5")
	t.Setenv("MIN_CELL_WIDTH", "180")

	cfg, err := loader.Load()
	require.NoError(t, err)
	assert.Equal(t, "/srv/scans/in", cfg.Paths.Data)
	assert.Equal(t, "/srv/scans/ok", cfg.Paths.Success)
	assert.Equal(t, 120, cfg.Limits.MaxFiles)
	assert.Equal(t, 60, cfg.Limits.RecommendedFiles)
	assert.InDelta(t, 420.5, cfg.Region.Sharpness, 1e-9)
	assert.Equal(t, 180, cfg.Region.MinCellWidth)
}

func TestLoad_PrefixedEnvironmentWins(t *testing.T) {
	loader := isolate(t)
	t.Setenv("DATA_PATH", "/legacy")
	t.Setenv("OCRHEADER_PATHS_DATA", "/prefixed")
	t.Setenv("OCRHEADER_SERVER_PORT", "9090")

	cfg, err := loader.Load()
	require.NoError(t, err)
	assert.Equal(t, "/prefixed", cfg.Paths.Data)
	assert.Equal(t, 9090, cfg.Server.Port)
}

func TestLoad_YAMLFileInWorkingDirectory(t *testing.T) {
	loader := isolate(t)
	content := `
log_level: debug
paths:
  data: /data
  failed: /failed
limits:
  max_files: 50
  recommended_files: 20
debug:
  overlay: true
`
	require.NoError(t, os.WriteFile("ocrheader.yaml", []byte(content), 0o600))

	cfg, err := loader.Load()
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "/data", cfg.Paths.Data)
	assert.Equal(t, "/failed", cfg.Paths.Failed)
	assert.Equal(t, 50, cfg.Limits.MaxFiles)
	assert.True(t, cfg.Debug.Overlay)
	assert.Equal(t, 33, cfg.Region.TextPadding)
	assert.NotEmpty(t, loader.GetConfigFileUsed())
}

func TestLoad_VerboseRaisesLevel(t *testing.T) {
	loader := isolate(t)
	t.Setenv("OCRHEADER_VERBOSE", "true")

	cfg, err := loader.Load()
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoad_InvalidValues(t *testing.T) {
	loader := isolate(t)
	t.Setenv("MAX_FILES", "10")
	t.Setenv("RECOMMENDED_FILES", "20")

	_, err := loader.Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "configuration validation failed")
}

func TestLoadWithFile(t *testing.T) {
	loader := isolate(t)

	_, err := loader.LoadWithFile("missing.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not exist")

	path := filepath.Join(t.TempDir(), "custom.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  port: 7000\n"), 0o600))
	cfg, err := loader.LoadWithFile(path)
	require.NoError(t, err)
	assert.Equal(t, 7000, cfg.Server.Port)
	assert.Equal(t, path, loader.GetConfigFileUsed())
}

func TestGenerateDefaultConfigFile_RoundTrips(t *testing.T) {
	loader := isolate(t)
	require.NoError(t, GenerateDefaultConfigFile(""))
	require.FileExists(t, "ocrheader.yaml")

	cfg, err := loader.LoadWithFile("ocrheader.yaml")
	require.NoError(t, err)
	def := DefaultConfig()
	assert.Equal(t, def.Limits, cfg.Limits)
	assert.Equal(t, def.Region, cfg.Region)
	assert.Equal(t, def.Watch, cfg.Watch)
}

func TestGetConfigSearchPaths(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/xdg")
	paths := GetConfigSearchPaths()
	assert.Equal(t, ".", paths[0])
	assert.Contains(t, paths, filepath.Join("/xdg", "ocrheader"))
	assert.Equal(t, "/etc/ocrheader", paths[len(paths)-1])
}
