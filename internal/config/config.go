// Package config provides YAML-based project configuration for ruby2go.
package config

import "errors"

// validESLevels enumerates the target levels filterpipe.ESLevel accepts.
var validESLevels = map[int]bool{
	2015: true, 2017: true, 2019: true, 2020: true, 2021: true,
	2022: true, 2023: true, 2024: true, 2025: true,
}

// Config is the top-level configuration struct for ruby2go.
// Field tags use mapstructure for viper unmarshalling.
type Config struct {
	Convert ConvertConfig `mapstructure:"convert"`
	Cache   CacheConfig   `mapstructure:"cache"`
	Server  ServerConfig  `mapstructure:"server"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// ConvertConfig holds the project-wide defaults for filterpipe.Options —
// the per-invocation CLI flags of `ruby2go convert` override these.
type ConvertConfig struct {
	ESLevel          int               `mapstructure:"eslevel"`
	Filters          []string          `mapstructure:"filters"`
	Include          []string          `mapstructure:"include"`
	IncludeAll       bool              `mapstructure:"include_all"`
	Exclude          []string          `mapstructure:"exclude"`
	AutoExports      string            `mapstructure:"auto_exports"`
	AutoImports      map[string]string `mapstructure:"auto_imports"`
	RequireRecursive bool              `mapstructure:"require_recursive"`
	Or               string            `mapstructure:"or"`
	NullishToS       bool              `mapstructure:"nullish_tostring"`
	Truthy           string            `mapstructure:"truthy"`
}

// CacheConfig holds settings for the on-disk require_recursive node/export
// cache (internal/cache), the equivalent of the teacher's blob/diff cache knobs.
type CacheConfig struct {
	Enabled         bool   `mapstructure:"enabled"`
	Directory       string `mapstructure:"directory"`
	NodeCacheSize   int    `mapstructure:"node_cache_size"`
	ExportCacheSize int    `mapstructure:"export_cache_size"`
	TTLHours        int    `mapstructure:"ttl_hours"`
}

// ServerConfig holds settings for the long-running serve-lsp/serve-mcp commands.
type ServerConfig struct {
	Host        string `mapstructure:"host"`
	Port        int    `mapstructure:"port"`
	MetricsPort int    `mapstructure:"metrics_port"`
	Enabled     bool   `mapstructure:"enabled"`
}

// LoggingConfig holds logging-specific configuration.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

const (
	minPort = 1
	maxPort = 65535
)

// Sentinel errors for configuration validation.
var (
	// ErrInvalidESLevel indicates an unrecognized target ES level.
	ErrInvalidESLevel = errors.New("convert.eslevel must be a supported ES level")
	// ErrInvalidNodeCacheSize indicates the node cache size is negative.
	ErrInvalidNodeCacheSize = errors.New("cache.node_cache_size must be non-negative")
	// ErrInvalidExportCacheSize indicates the export cache size is negative.
	ErrInvalidExportCacheSize = errors.New("cache.export_cache_size must be non-negative")
	// ErrInvalidTTLHours indicates the cache TTL is negative.
	ErrInvalidTTLHours = errors.New("cache.ttl_hours must be non-negative")
	// ErrInvalidServerPort indicates the server port is out of range.
	ErrInvalidServerPort = errors.New("server.port must be between 1 and 65535")
	// ErrInvalidMetricsPort indicates the metrics port is out of range.
	ErrInvalidMetricsPort = errors.New("server.metrics_port must be between 1 and 65535")
)

// Validate checks Config invariants and returns the first error found.
func (c *Config) Validate() error {
	if err := c.validateConvert(); err != nil {
		return err
	}

	if err := c.validateCache(); err != nil {
		return err
	}

	return c.validateServer()
}

func (c *Config) validateConvert() error {
	if c.Convert.ESLevel != 0 && !validESLevels[c.Convert.ESLevel] {
		return ErrInvalidESLevel
	}

	return nil
}

func (c *Config) validateCache() error {
	if c.Cache.NodeCacheSize < 0 {
		return ErrInvalidNodeCacheSize
	}

	if c.Cache.ExportCacheSize < 0 {
		return ErrInvalidExportCacheSize
	}

	if c.Cache.TTLHours < 0 {
		return ErrInvalidTTLHours
	}

	return nil
}

func (c *Config) validateServer() error {
	if !c.Server.Enabled {
		return nil
	}

	if c.Server.Port < minPort || c.Server.Port > maxPort {
		return ErrInvalidServerPort
	}

	if c.Server.MetricsPort != 0 && (c.Server.MetricsPort < minPort || c.Server.MetricsPort > maxPort) {
		return ErrInvalidMetricsPort
	}

	return nil
}
