package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

const (
	configName      = ".ruby2go"
	configType      = "yaml"
	envPrefix       = "RUBY2GO"
	envKeySeparator = "_"
)

// Default values applied when neither a config file nor an environment
// variable sets the corresponding key.
const (
	DefaultESLevel          = 2022
	DefaultAutoExports      = ""
	DefaultOr               = "||"
	DefaultNodeCacheSize    = 4096
	DefaultExportCacheSize  = 1024
	DefaultCacheTTLHours    = 24
	DefaultServerHost       = "127.0.0.1"
	DefaultServerPort       = 7777
	DefaultServerMetricsPort = 9090
	DefaultLogLevel         = "info"
	DefaultLogFormat        = "json"
)

// LoadConfig reads project configuration from configPath, or (when empty)
// searches the current directory and $HOME for a .ruby2go.yaml file.
// RUBY2GO_-prefixed environment variables take priority over the file,
// which takes priority over the built-in defaults.
func LoadConfig(configPath string) (*Config, error) {
	viperCfg := viper.New()
	applyDefaults(viperCfg)

	viperCfg.SetConfigType(configType)
	viperCfg.SetEnvPrefix(envPrefix)
	viperCfg.SetEnvKeyReplacer(strings.NewReplacer(".", envKeySeparator))
	viperCfg.AutomaticEnv()

	if configPath != "" {
		viperCfg.SetConfigFile(configPath)
	} else {
		viperCfg.SetConfigName(configName)
		viperCfg.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viperCfg.AddConfigPath(home)
		}
	}

	readErr := viperCfg.ReadInConfig()
	if readErr != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(readErr, &notFound) {
			return nil, fmt.Errorf("read config: %w", readErr)
		}
	}

	var cfg Config

	unmarshalErr := viperCfg.Unmarshal(&cfg)
	if unmarshalErr != nil {
		return nil, fmt.Errorf("unmarshal config: %w", unmarshalErr)
	}

	validateErr := cfg.Validate()
	if validateErr != nil {
		return nil, fmt.Errorf("validate config: %w", validateErr)
	}

	return &cfg, nil
}

func applyDefaults(viperCfg *viper.Viper) {
	viperCfg.SetDefault("convert.eslevel", DefaultESLevel)
	viperCfg.SetDefault("convert.filters", []string{})
	viperCfg.SetDefault("convert.include", []string{})
	viperCfg.SetDefault("convert.include_all", false)
	viperCfg.SetDefault("convert.exclude", []string{})
	viperCfg.SetDefault("convert.auto_exports", DefaultAutoExports)
	viperCfg.SetDefault("convert.require_recursive", false)
	viperCfg.SetDefault("convert.or", DefaultOr)
	viperCfg.SetDefault("convert.nullish_tostring", false)
	viperCfg.SetDefault("convert.truthy", "")

	viperCfg.SetDefault("cache.enabled", true)
	viperCfg.SetDefault("cache.directory", "")
	viperCfg.SetDefault("cache.node_cache_size", DefaultNodeCacheSize)
	viperCfg.SetDefault("cache.export_cache_size", DefaultExportCacheSize)
	viperCfg.SetDefault("cache.ttl_hours", DefaultCacheTTLHours)

	viperCfg.SetDefault("server.host", DefaultServerHost)
	viperCfg.SetDefault("server.port", DefaultServerPort)
	viperCfg.SetDefault("server.metrics_port", DefaultServerMetricsPort)
	viperCfg.SetDefault("server.enabled", false)

	viperCfg.SetDefault("logging.level", DefaultLogLevel)
	viperCfg.SetDefault("logging.format", DefaultLogFormat)
}
