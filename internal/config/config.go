package config

import "time"

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server ServerConfig `mapstructure:"server" validate:"required"`
	Task   TaskConfig   `mapstructure:"task" validate:"required"`
	Auth   AuthConfig   `mapstructure:"auth"`
	Pixian PixianConfig `mapstructure:"pixian" validate:"required"`
	LLM    LLMConfig    `mapstructure:"llm" validate:"required"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port                   int    `mapstructure:"port" validate:"required,gt=0,lt=65536"`
	LogLevel               string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
	MaxUploadMB            int    `mapstructure:"max_upload_mb" validate:"required,gt=0"`
	ShutdownTimeoutSeconds int    `mapstructure:"shutdown_timeout_seconds" validate:"required,gt=0"`
}

// MaxUploadBytes is the request body limit for multipart uploads.
func (c ServerConfig) MaxUploadBytes() int64 {
	return int64(c.MaxUploadMB) << 20
}

// ShutdownTimeout is how long in-flight requests get on shutdown.
func (c ServerConfig) ShutdownTimeout() time.Duration {
	return time.Duration(c.ShutdownTimeoutSeconds) * time.Second
}

// TaskConfig controls background task execution and retention.
type TaskConfig struct {
	WorkerCount          int `mapstructure:"worker_count" validate:"required,gt=0"`
	QueueSize            int `mapstructure:"queue_size" validate:"required,gt=0"`
	RetentionMinutes     int `mapstructure:"retention_minutes" validate:"required,gt=0"`
	SweepIntervalMinutes int `mapstructure:"sweep_interval_minutes" validate:"required,gt=0"`
}

// Retention is how long finished tasks are kept.
func (c TaskConfig) Retention() time.Duration {
	return time.Duration(c.RetentionMinutes) * time.Minute
}

// SweepInterval is how often finished tasks are evicted.
func (c TaskConfig) SweepInterval() time.Duration {
	return time.Duration(c.SweepIntervalMinutes) * time.Minute
}

// AuthConfig contains API key authentication settings.
// APIKeySecret is only required when Enabled is true.
type AuthConfig struct {
	Enabled          bool   `mapstructure:"enabled"`
	APIKeySecret     string `mapstructure:"api_key_secret" validate:"omitempty,min=32"`
	DefaultRateLimit int    `mapstructure:"default_rate_limit" validate:"gt=0"`
}

// PixianConfig configures the background removal provider.
type PixianConfig struct {
	APIURL          string `mapstructure:"api_url" validate:"required,url"`
	APIUser         string `mapstructure:"api_user" validate:"required"`
	APIKey          string `mapstructure:"api_key" validate:"required"`
	BackgroundColor string `mapstructure:"background_color" validate:"required,len=6,hexadecimal"`
	TestMode        bool   `mapstructure:"test_mode"`
	TimeoutSeconds  int    `mapstructure:"timeout_seconds" validate:"required,gt=0"`
	MaxRetries      int    `mapstructure:"max_retries" validate:"gte=0,lte=10"`
}

// Timeout is the per-request deadline.
func (c PixianConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// LLMConfig contains Gemini settings for classification and scene generation.
type LLMConfig struct {
	GeminiAPIKey    string `mapstructure:"gemini_api_key" validate:"required"`
	ClassifierModel string `mapstructure:"classifier_model" validate:"required"`
	ImageModel      string `mapstructure:"image_model" validate:"required"`
	TimeoutSeconds  int    `mapstructure:"timeout_seconds" validate:"required,gt=0"`
}

// Timeout is the per-request deadline.
func (c LLMConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}
