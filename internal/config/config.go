package config

import (
	"time"
	_ "time/tzdata" // study timezones must resolve in minimal images

	"github.com/phrazzld/scry-study/internal/domain/srs"
)

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server   ServerConfig   `mapstructure:"server" validate:"required"`
	Database DatabaseConfig `mapstructure:"database" validate:"required"`
	Auth     AuthConfig     `mapstructure:"auth" validate:"required"`
	Study    StudyConfig    `mapstructure:"study" validate:"required"`
	Sessions SessionsConfig `mapstructure:"sessions" validate:"required"`
	SRS      SRSConfig      `mapstructure:"srs"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port            int    `mapstructure:"port" validate:"required,gt=0,lt=65536"`
	LogLevel        string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
	ShutdownSeconds int    `mapstructure:"shutdown_seconds" validate:"gte=0"`
}

// DatabaseConfig contains all database-related configuration settings.
type DatabaseConfig struct {
	URL          string `mapstructure:"url" validate:"required,url"`
	MaxOpenConns int    `mapstructure:"max_open_conns" validate:"gte=0"`
}

// AuthConfig contains the settings used to verify bearer tokens issued by
// the external identity provider.
type AuthConfig struct {
	JWTSecret string `mapstructure:"jwt_secret" validate:"required,min=32"`
}

// StudyConfig contains the due selection and calendar settings.
type StudyConfig struct {
	// Timezone is the IANA zone whose midnight starts a new study day.
	Timezone        string `mapstructure:"timezone" validate:"required,timezone"`
	MaxDueLimit     int    `mapstructure:"max_due_limit" validate:"required,gt=0,lte=1000"`
	DefaultDueLimit int    `mapstructure:"default_due_limit" validate:"required,gt=0,ltefield=MaxDueLimit"`
}

// Location loads the configured study timezone.
func (c StudyConfig) Location() (*time.Location, error) {
	return time.LoadLocation(c.Timezone)
}

// Session tally backends
const (
	SessionBackendMemory = "memory"
	SessionBackendRedis  = "redis"
)

// SessionsConfig selects where in-progress session tallies are kept.
type SessionsConfig struct {
	Backend    string `mapstructure:"backend" validate:"required,oneof=memory redis"`
	RedisURL   string `mapstructure:"redis_url" validate:"required_if=Backend redis"`
	TTLMinutes int    `mapstructure:"ttl_minutes" validate:"gte=0"`
}

// TTL returns the tally lifetime. Zero keeps tallies until finalized.
func (c SessionsConfig) TTL() time.Duration {
	return time.Duration(c.TTLMinutes) * time.Minute
}

// SRSConfig overrides the scheduling engine tunables. Zero values keep the
// engine defaults.
//
// The ease bounds must admit the stored starting ease (2.5) and stay inside
// what study_cards accepts (1.3 to 99.99).
type SRSConfig struct {
	MinEaseFactor        float64 `mapstructure:"min_ease_factor" validate:"omitempty,gte=1.3,lte=2.5"`
	MaxEaseFactor        float64 `mapstructure:"max_ease_factor" validate:"omitempty,gte=2.5,lt=100"`
	AgainEaseAdjustment  float64 `mapstructure:"again_ease_adjustment"`
	HardEaseAdjustment   float64 `mapstructure:"hard_ease_adjustment"`
	GoodEaseAdjustment   float64 `mapstructure:"good_ease_adjustment"`
	EasyEaseAdjustment   float64 `mapstructure:"easy_ease_adjustment"`
	HardIntervalModifier float64 `mapstructure:"hard_interval_modifier" validate:"gte=0"`
	EasyIntervalModifier float64 `mapstructure:"easy_interval_modifier" validate:"gte=0"`
	AgainInterval        int     `mapstructure:"again_interval" validate:"gte=0"`
	FirstGoodInterval    int     `mapstructure:"first_good_interval" validate:"gte=0"`
}

// Params builds the engine parameters from the defaults and these overrides.
func (c SRSConfig) Params() *srs.Params {
	return srs.NewParams(srs.ParamsConfig{
		MinEaseFactor:             c.MinEaseFactor,
		MaxEaseFactor:             c.MaxEaseFactor,
		AgainEaseFactorAdjustment: c.AgainEaseAdjustment,
		HardEaseFactorAdjustment:  c.HardEaseAdjustment,
		GoodEaseFactorAdjustment:  c.GoodEaseAdjustment,
		EasyEaseFactorAdjustment:  c.EasyEaseAdjustment,
		HardIntervalModifier:      c.HardIntervalModifier,
		EasyIntervalModifier:      c.EasyIntervalModifier,
		AgainInterval:             c.AgainInterval,
		FirstGoodInterval:         c.FirstGoodInterval,
	})
}
