package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ruby2js/ruby2go/internal/config"
)

func TestLoadConfig_NoFile_ReturnsDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := config.LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, config.DefaultESLevel, cfg.Convert.ESLevel)
	assert.Equal(t, config.DefaultOr, cfg.Convert.Or)
	assert.Equal(t, config.DefaultNodeCacheSize, cfg.Cache.NodeCacheSize)
	assert.Equal(t, config.DefaultServerPort, cfg.Server.Port)
	assert.Equal(t, config.DefaultLogLevel, cfg.Logging.Level)
}

func TestLoadConfig_ExplicitFile_Unmarshals(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ruby2go.yaml")

	yaml := `
convert:
  eslevel: 2017
  filters:
    - camel_case
    - string_interp
  auto_exports: default
cache:
  node_cache_size: 256
server:
  enabled: true
  port: 8080
logging:
  level: debug
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o600))

	cfg, err := config.LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 2017, cfg.Convert.ESLevel)
	assert.Equal(t, []string{"camel_case", "string_interp"}, cfg.Convert.Filters)
	assert.Equal(t, "default", cfg.Convert.AutoExports)
	assert.Equal(t, 256, cfg.Cache.NodeCacheSize)
	assert.True(t, cfg.Server.Enabled)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoadConfig_EnvironmentOverride_WinsOverDefault(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("RUBY2GO_CONVERT_ESLEVEL", "2025")
	t.Setenv("RUBY2GO_SERVER_PORT", "9999")

	cfg, err := config.LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, 2025, cfg.Convert.ESLevel)
	assert.Equal(t, 9999, cfg.Server.Port)
}

func TestLoadConfig_InvalidConfig_ReturnsValidationError(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ruby2go.yaml")

	yaml := `
server:
  enabled: true
  port: 70000
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o600))

	_, err := config.LoadConfig(path)
	assert.ErrorIs(t, err, config.ErrInvalidServerPort)
}

func TestLoadConfig_MissingExplicitFile_ReturnsError(t *testing.T) {
	_, err := config.LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
