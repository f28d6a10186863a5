package config

import (
	"fmt"
	"time"
)

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"    validate:"required"`
	Storage   StorageConfig   `mapstructure:"storage"   validate:"required"`
	Scheduler SchedulerConfig `mapstructure:"scheduler" validate:"required"`
	Study     StudyConfig     `mapstructure:"study"     validate:"required"`
	Stats     StatsConfig     `mapstructure:"stats"`
}

// ServerConfig contains the HTTP server and logging settings.
type ServerConfig struct {
	Port      int    `mapstructure:"port"       validate:"required,gt=0,lt=65536"`
	LogLevel  string `mapstructure:"log_level"  validate:"required,oneof=debug info warn error"`
	LogFormat string `mapstructure:"log_format" validate:"omitempty,oneof=json text"`
}

// StorageConfig selects and configures the durable medium.
type StorageConfig struct {
	Driver        string `mapstructure:"driver"         validate:"required,oneof=sqlite postgres redis memory"`
	DSN           string `mapstructure:"dsn"            validate:"required_if=Driver sqlite,required_if=Driver postgres"`
	Namespace     string `mapstructure:"namespace"      validate:"required"`
	RedisAddr     string `mapstructure:"redis_addr"     validate:"required_if=Driver redis"`
	RedisPassword string `mapstructure:"redis_password"`
	RedisDB       int    `mapstructure:"redis_db"       validate:"gte=0"`
}

// SchedulerConfig carries the memory model parameters.
// An empty Weights list keeps the built-in defaults.
type SchedulerConfig struct {
	DesiredRetention float64         `mapstructure:"desired_retention" validate:"gt=0,lt=1"`
	MaximumInterval  int             `mapstructure:"maximum_interval"  validate:"gte=1"`
	LearningSteps    []time.Duration `mapstructure:"learning_steps"    validate:"dive,gt=0"`
	RelearningSteps  []time.Duration `mapstructure:"relearning_steps"  validate:"min=1,dive,gt=0"`
	EnableFuzz       bool            `mapstructure:"enable_fuzz"`
	Weights          []float64       `mapstructure:"weights"`
}

// StudyConfig holds the default study session budget.
type StudyConfig struct {
	MaxReviews int `mapstructure:"max_reviews" validate:"gte=0"`
	MaxNew     int `mapstructure:"max_new"     validate:"gte=0"`
	TotalLimit int `mapstructure:"total_limit" validate:"gte=0"`
}

// StatsConfig controls how calendar days are computed.
type StatsConfig struct {
	// Timezone is an IANA name; empty or "Local" means the process time zone.
	Timezone string `mapstructure:"timezone"`
}

// Location resolves the configured time zone.
func (c StatsConfig) Location() (*time.Location, error) {
	if c.Timezone == "" || c.Timezone == "Local" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid stats timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}
