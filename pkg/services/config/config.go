// Package config loads the engine configuration from file and environment.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

type AWSConfig struct {
	Profile string `mapstructure:"profile"`
	Region  string `mapstructure:"region"`
}

type CarbonConfig struct {
	Zone  string `mapstructure:"zone"`
	Token string `mapstructure:"token"`
}

type AnalysisConfig struct {
	WindowDays        int     `mapstructure:"window_days"`
	LookbackDays      int     `mapstructure:"lookback_days"`
	MetricsHours      int     `mapstructure:"metrics_hours"`
	ValidationMinDays float64 `mapstructure:"validation_min_days"`
	Workers           int     `mapstructure:"workers"`
}

type ServerConfig struct {
	Addr string `mapstructure:"addr"`
}

type Config struct {
	AWS      AWSConfig      `mapstructure:"aws"`
	Carbon   CarbonConfig   `mapstructure:"carbon"`
	Analysis AnalysisConfig `mapstructure:"analysis"`
	Server   ServerConfig   `mapstructure:"server"`
	CacheDir string         `mapstructure:"cache_dir"`
}

// Load reads config.yaml from the working directory (or path, when given)
// and overlays FINOPS_-prefixed environment variables. Missing files are
// fine; missing credentials surface later as MissingCredential when a
// source is actually consulted.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	v.SetDefault("aws.region", "eu-central-1")
	v.SetDefault("carbon.zone", "DE")
	v.SetDefault("analysis.window_days", 7)
	v.SetDefault("analysis.lookback_days", 30)
	v.SetDefault("analysis.metrics_hours", 24)
	v.SetDefault("analysis.validation_min_days", 7)
	v.SetDefault("analysis.workers", 4)
	v.SetDefault("server.addr", "localhost:8080")
	v.SetDefault("cache_dir", ".finops-cache")

	v.SetEnvPrefix("FINOPS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return &cfg, nil
}
