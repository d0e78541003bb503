// internal/common/config/config.go
package config

import (
	"fmt"
	"time"
)

// Config is the main application configuration struct.
type Config struct {
	App           AppConfig          `mapstructure:"app"`
	Server        ServerConfig       `mapstructure:"server"`
	Database      DatabaseConfig     `mapstructure:"database"`
	AWS           AWSConfig          `mapstructure:"aws"`
	Notifications NotificationConfig `mapstructure:"notifications"`
	Logging       LoggingConfig      `mapstructure:"logging"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

// ServerConfig holds the health/metrics listener.
type ServerConfig struct {
	Address string `mapstructure:"address"`
}

type DatabaseConfig struct {
	Postgres PostgresConfig `mapstructure:"postgres"`
	Redis    RedisConfig    `mapstructure:"redis"`
}

type PostgresConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Database       string `mapstructure:"database"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	MaxConnections int    `mapstructure:"max_connections"`
	MaxIdle        int    `mapstructure:"max_idle"`
	SSLMode        string `mapstructure:"sslmode"`
}

// GetDSN returns the PostgreSQL connection string
func (p PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type AWSConfig struct {
	Region string `mapstructure:"region"`
}

// NotificationConfig holds settings for the transition notification pipeline.
type NotificationConfig struct {
	Dispatch DispatchConfig `mapstructure:"dispatch"`

	Realtime struct {
		Enabled       bool   `mapstructure:"enabled"`
		ChannelPrefix string `mapstructure:"channel_prefix"`
	} `mapstructure:"realtime"`

	Push struct {
		Enabled bool `mapstructure:"enabled"`
		// PlatformApplications maps web/android/ios to SNS platform application ARNs.
		PlatformApplications map[string]string `mapstructure:"platform_applications"`
	} `mapstructure:"push"`

	Email struct {
		Enabled   bool   `mapstructure:"enabled"`
		FromEmail string `mapstructure:"from_email"`
	} `mapstructure:"email"`
}

// DispatchConfig sizes the event bus and the per-transition fan-out.
type DispatchConfig struct {
	Workers        int `mapstructure:"workers"`
	QueueSize      int `mapstructure:"queue_size"`
	MaxConcurrency int `mapstructure:"max_concurrency"`
	SendTimeout    int `mapstructure:"send_timeout"`  // milliseconds
	DrainTimeout   int `mapstructure:"drain_timeout"` // milliseconds
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// GetDuration converts milliseconds from config to time.Duration
func GetDuration(milliseconds int) time.Duration {
	return time.Duration(milliseconds) * time.Millisecond
}
