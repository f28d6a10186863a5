package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// WeightCount is the number of memory model weights accepted in scheduler.weights.
const WeightCount = 21

// EnvPrefix is prepended to every environment variable, e.g. KANJIDRILL_SERVER_PORT.
const EnvPrefix = "KANJIDRILL"

// Load reads configuration from defaults, an optional YAML file and environment
// variables, in increasing order of precedence. When configFile is empty a
// kanjidrill.yaml in the working directory is used if present.
// Returns a populated Config or an error if loading or validation fails.
func Load(configFile string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigType("yaml")
	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", configFile, err)
		}
	} else {
		v.SetConfigName("kanjidrill")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv("scheduler.weights"); err != nil {
		return nil, fmt.Errorf("error binding environment variable for scheduler.weights: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks struct tags and cross-field rules.
func Validate(cfg *Config) error {
	if err := validator.New().Struct(cfg); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}
	if n := len(cfg.Scheduler.Weights); n != 0 && n != WeightCount {
		return fmt.Errorf("configuration validation failed: scheduler.weights needs %d values, got %d", WeightCount, n)
	}
	if _, err := cfg.Stats.Location(); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.log_level", "info")
	v.SetDefault("server.log_format", "json")

	v.SetDefault("storage.driver", "sqlite")
	v.SetDefault("storage.dsn", "kanjidrill.db")
	v.SetDefault("storage.namespace", "kanjidrill")
	v.SetDefault("storage.redis_addr", "localhost:6379")
	v.SetDefault("storage.redis_password", "")
	v.SetDefault("storage.redis_db", 0)

	v.SetDefault("scheduler.desired_retention", 0.9)
	v.SetDefault("scheduler.maximum_interval", 36500)
	v.SetDefault("scheduler.learning_steps", []string{"1m", "10m"})
	v.SetDefault("scheduler.relearning_steps", []string{"10m"})
	v.SetDefault("scheduler.enable_fuzz", false)

	v.SetDefault("study.max_reviews", 20)
	v.SetDefault("study.max_new", 10)
	v.SetDefault("study.total_limit", 20)

	v.SetDefault("stats.timezone", "")
}
