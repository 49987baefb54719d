// Package config loads the simulator configuration from YAML, environment
// variables, and CLI overrides, and hot-reloads it on file changes.
package config

import (
	"fmt"
	"os"

	"github.com/spf13/viper"

	"github.com/llmsim/llmsim/internal/domain/generator"
	"github.com/llmsim/llmsim/internal/domain/models"
	apperrors "github.com/llmsim/llmsim/pkg/errors"
)

// Config is the full simulator configuration.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Latency  LatencyConfig  `mapstructure:"latency"`
	Response ResponseConfig `mapstructure:"response"`
	Errors   ErrorsConfig   `mapstructure:"errors"`
	Models   ModelsConfig   `mapstructure:"models"`
	Log      LogConfig      `mapstructure:"log"`
	// Seed makes all sampling deterministic when nonzero. Zero means
	// runtime-seeded, which is what load tests normally want.
	Seed uint64 `mapstructure:"seed"`
}

// ServerConfig holds the HTTP listener settings.
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
	Mode string `mapstructure:"mode"` // debug, release
}

// LatencyConfig overrides per-model latency when Profile or any explicit
// value is set; otherwise the requested model picks the profile.
type LatencyConfig struct {
	Profile      string  `mapstructure:"profile"`
	TTFTMeanMs   float64 `mapstructure:"ttft_mean_ms"`
	TTFTStddevMs float64 `mapstructure:"ttft_stddev_ms"`
	TBTMeanMs    float64 `mapstructure:"tbt_mean_ms"`
	TBTStddevMs  float64 `mapstructure:"tbt_stddev_ms"`
}

// Overridden reports whether the config pins a latency profile instead of
// deriving one from the model.
func (l LatencyConfig) Overridden() bool {
	return l.Profile != "" || l.TTFTMeanMs != 0 || l.TTFTStddevMs != 0 ||
		l.TBTMeanMs != 0 || l.TBTStddevMs != 0
}

// ResponseConfig selects the content generator.
type ResponseConfig struct {
	Generator    string `mapstructure:"generator"` // lorem, echo, random, sequence, fixed:TEXT
	TargetTokens int    `mapstructure:"target_tokens"`
}

// ErrorsConfig holds the fault injection rates.
type ErrorsConfig struct {
	RateLimitRate   float64 `mapstructure:"rate_limit_rate"`
	ServerErrorRate float64 `mapstructure:"server_error_rate"`
	TimeoutRate     float64 `mapstructure:"timeout_rate"`
	TimeoutAfterMs  int     `mapstructure:"timeout_after_ms"`
}

// ModelsConfig lists the model IDs the simulator serves.
type ModelsConfig struct {
	Available []string `mapstructure:"available"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads configuration with the precedence: defaults < config file <
// environment (LLMSIM_*). An empty path searches ./config.yaml and
// ./config/config.yaml; a missing file is fine, a broken one is not.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigType("yaml")
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	v.SetEnvPrefix("LLMSIM")
	v.AutomaticEnv()
	bindEnvAliases(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// bindEnvAliases maps the documented flat env vars onto nested keys, so
// LLMSIM_HOST works without spelling LLMSIM_SERVER_HOST.
func bindEnvAliases(v *viper.Viper) {
	if host := os.Getenv("LLMSIM_HOST"); host != "" {
		v.Set("server.host", host)
	}
	if port := os.Getenv("LLMSIM_PORT"); port != "" {
		v.Set("server.port", port)
	}
	if seed := os.Getenv("LLMSIM_SEED"); seed != "" {
		v.Set("seed", seed)
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "release")

	v.SetDefault("response.generator", "lorem")
	v.SetDefault("response.target_tokens", 100)

	v.SetDefault("errors.rate_limit_rate", 0.0)
	v.SetDefault("errors.server_error_rate", 0.0)
	v.SetDefault("errors.timeout_rate", 0.0)
	v.SetDefault("errors.timeout_after_ms", 30000)

	v.SetDefault("models.available", models.DefaultAvailable)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
}

// Validate rejects configurations the simulator cannot honor.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return apperrors.NewInvalidInputError(fmt.Sprintf("server.port %d out of range", c.Server.Port))
	}

	rates := map[string]float64{
		"errors.rate_limit_rate":   c.Errors.RateLimitRate,
		"errors.server_error_rate": c.Errors.ServerErrorRate,
		"errors.timeout_rate":      c.Errors.TimeoutRate,
	}
	var sum float64
	for name, r := range rates {
		if r < 0 || r > 1 {
			return apperrors.NewInvalidInputError(fmt.Sprintf("%s %v out of [0,1]", name, r))
		}
		sum += r
	}
	if sum > 1 {
		return apperrors.NewInvalidInputError(fmt.Sprintf("error rates sum to %v, must not exceed 1", sum))
	}

	if c.Errors.TimeoutAfterMs < 0 {
		return apperrors.NewInvalidInputError("errors.timeout_after_ms must not be negative")
	}
	if c.Response.TargetTokens < 1 {
		return apperrors.NewInvalidInputError("response.target_tokens must be at least 1")
	}
	if !generator.ValidSpec(c.Response.Generator) {
		return apperrors.NewInvalidInputError(fmt.Sprintf("unknown response.generator %q", c.Response.Generator))
	}
	return nil
}
