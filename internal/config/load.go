package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "PRODSHOT"

// ConfigFileEnv names the environment variable holding an explicit config file path.
const ConfigFileEnv = "PRODSHOT_CONFIG_FILE"

// Load configuration from environment variables and optionally config files.
// Environment variables take precedence over values from config files.
// A .env file in the working directory is loaded first when present.
// Returns a populated Config struct or an error if loading/validation fails.
func Load() (*Config, error) {
	// a missing .env file is not an error
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// keys without defaults are only seen by Unmarshal when bound explicitly
	for _, key := range []string{
		"auth.api_key_secret",
		"pixian.api_user",
		"pixian.api_key",
		"llm.gemini_api_key",
	} {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("failed to bind environment variable for %s: %w", key, err)
		}
	}

	if err := readConfigFile(v); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks cfg against its struct tags and cross-field rules.
func Validate(cfg *Config) error {
	if err := validator.New().Struct(cfg); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	if cfg.Auth.Enabled && cfg.Auth.APIKeySecret == "" {
		return errors.New("config validation failed: auth.api_key_secret is required when auth is enabled")
	}

	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8000)
	v.SetDefault("server.log_level", "info")
	v.SetDefault("server.max_upload_mb", 64)
	v.SetDefault("server.shutdown_timeout_seconds", 10)

	v.SetDefault("task.worker_count", 2)
	v.SetDefault("task.queue_size", 100)
	v.SetDefault("task.retention_minutes", 60)
	v.SetDefault("task.sweep_interval_minutes", 60)

	v.SetDefault("auth.enabled", false)
	v.SetDefault("auth.default_rate_limit", 100)

	v.SetDefault("pixian.api_url", "https://api.pixian.ai/api/v2/remove-background")
	v.SetDefault("pixian.background_color", "FFFFFF")
	v.SetDefault("pixian.test_mode", true)
	v.SetDefault("pixian.timeout_seconds", 120)
	v.SetDefault("pixian.max_retries", 2)

	v.SetDefault("llm.classifier_model", "gemini-2.0-flash")
	v.SetDefault("llm.image_model", "gemini-2.0-flash-preview-image-generation")
	v.SetDefault("llm.timeout_seconds", 120)
}

// readConfigFile reads the file named by PRODSHOT_CONFIG_FILE, or config.yaml
// from the working directory if it exists.
func readConfigFile(v *viper.Viper) error {
	if path := os.Getenv(ConfigFileEnv); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		return nil
	}

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}
	return nil
}
