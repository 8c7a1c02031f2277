// Package config loads service configuration from an optional YAML file
// with environment-variable overrides.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config is the full service configuration.
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Log     LogConfig     `mapstructure:"log"`
	Model   ModelConfig   `mapstructure:"model"`
	Stream  StreamConfig  `mapstructure:"stream"`
	Storage StorageConfig `mapstructure:"storage"`
}

type ServerConfig struct {
	Addr string `mapstructure:"addr"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type ModelConfig struct {
	DefaultFamily string `mapstructure:"default_family"`
	MaxTokens     int    `mapstructure:"max_tokens"`
}

type StreamConfig struct {
	HistoryLimit     int `mapstructure:"history_limit"`
	KeepaliveSeconds int `mapstructure:"keepalive_seconds"`
}

type StorageConfig struct {
	OutputDir string `mapstructure:"output_dir"`
}

// Load reads configuration from path (optional; empty means defaults plus
// environment only). Environment variables use the WEBFORGE prefix with
// underscores, e.g. WEBFORGE_SERVER_ADDR.
func Load(path string) (*Config, error) {
	v := viper.New()

	v.SetDefault("server.addr", ":8080")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("model.default_family", "gemini")
	v.SetDefault("model.max_tokens", 16384)
	v.SetDefault("stream.history_limit", 1000)
	v.SetDefault("stream.keepalive_seconds", 30)
	v.SetDefault("storage.output_dir", "output")

	v.SetEnvPrefix("WEBFORGE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &cfg, nil
}
