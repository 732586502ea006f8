package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable, so server.port is
// read from SCRY_SERVER_PORT.
const EnvPrefix = "SCRY"

// keys without defaults still need binding so Unmarshal sees their env vars
var envOnlyKeys = []string{
	"database.url",
	"auth.jwt_secret",
	"sessions.redis_url",
	"srs.min_ease_factor",
	"srs.max_ease_factor",
	"srs.again_ease_adjustment",
	"srs.hard_ease_adjustment",
	"srs.good_ease_adjustment",
	"srs.easy_ease_adjustment",
	"srs.hard_interval_modifier",
	"srs.easy_interval_modifier",
	"srs.again_interval",
	"srs.first_good_interval",
}

// Load reads configuration from an optional config file and environment variables.
// Environment variables take precedence over values from config files.
// configFile may be empty, in which case config.yaml is looked up in the
// working directory and its absence is not an error.
// Returns a populated Config struct or an error if loading/validation fails.
func Load(configFile string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for _, key := range envOnlyKeys {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("failed to bind environment variable for %s: %w", key, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.log_level", "info")
	v.SetDefault("server.shutdown_seconds", 15)

	v.SetDefault("database.max_open_conns", 25)

	v.SetDefault("study.timezone", "UTC")
	v.SetDefault("study.max_due_limit", 100)
	v.SetDefault("study.default_due_limit", 20)

	v.SetDefault("sessions.backend", SessionBackendMemory)
	v.SetDefault("sessions.ttl_minutes", 720)
}
