// Package config provides the configuration structure for the TTS backend.
package config

import (
	"fmt"

	"github.com/book-expert/configurator"
	"github.com/book-expert/logger"
)

// Default values applied when the TOML file leaves a field unset. Zero
// values are treated as unset, so none of these can be configured to 0.
const (
	DefaultListenHost          = "0.0.0.0"
	DefaultListenPort          = 8000
	DefaultSynthesisTimeoutSec = 60
	DefaultRetentionHours      = 24
	DefaultTokenExpiryMinutes  = 30
	DefaultOutputDir           = "output"
	DefaultDatabasePath        = "data/users.db"
)

// ServerConfig holds the HTTP listener configuration.
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// TTSConfig holds the configuration for the external synthesis provider.
// A TimeoutSeconds of 0 selects the default; the timeout cannot be
// disabled.
type TTSConfig struct {
	ProviderURL    string `toml:"provider_url"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// PathsConfig holds the configuration for file paths.
type PathsConfig struct {
	OutputDir   string `toml:"output_dir"`
	BaseLogsDir string `toml:"base_logs_dir"`
}

// RetentionConfig holds the artifact cleanup configuration. An Hours of 0
// selects the default; retention cannot be turned off. The shortest
// configurable window is one hour.
type RetentionConfig struct {
	Hours int `toml:"hours"`
}

// AuthConfig holds the token and password policy configuration.
type AuthConfig struct {
	Secret             string `toml:"secret"`
	TokenExpiryMinutes int    `toml:"token_expiry_minutes"`
	ProtectGenerate    bool   `toml:"protect_generate"`
}

// DatabaseConfig holds the user store configuration.
type DatabaseConfig struct {
	Path string `toml:"path"`
}

// NATSConfig holds the lifecycle event publishing configuration. An empty
// URL disables publishing entirely.
type NATSConfig struct {
	URL                   string `toml:"url"`
	AudioGeneratedSubject string `toml:"audio_generated_subject"`
	AudioExpiredSubject   string `toml:"audio_expired_subject"`
}

// Config is the root configuration structure.
type Config struct {
	Server    ServerConfig    `toml:"server"`
	TTS       TTSConfig       `toml:"tts"`
	Paths     PathsConfig     `toml:"paths"`
	Retention RetentionConfig `toml:"retention"`
	Auth      AuthConfig      `toml:"auth"`
	Database  DatabaseConfig  `toml:"database"`
	NATS      NATSConfig      `toml:"nats"`
}

// Load loads the configuration for the TTS backend and applies defaults
// for any unset fields.
func Load(log *logger.Logger) (*Config, error) {
	var cfg Config

	err := configurator.Load(&cfg, log)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration from configurator: %w", err)
	}

	cfg.ApplyDefaults()

	return &cfg, nil
}

// ApplyDefaults fills unset fields with their default values.
func (c *Config) ApplyDefaults() {
	if c.Server.Host == "" {
		c.Server.Host = DefaultListenHost
	}

	if c.Server.Port == 0 {
		c.Server.Port = DefaultListenPort
	}

	if c.TTS.TimeoutSeconds == 0 {
		c.TTS.TimeoutSeconds = DefaultSynthesisTimeoutSec
	}

	if c.Retention.Hours == 0 {
		c.Retention.Hours = DefaultRetentionHours
	}

	if c.Auth.TokenExpiryMinutes == 0 {
		c.Auth.TokenExpiryMinutes = DefaultTokenExpiryMinutes
	}

	if c.Paths.OutputDir == "" {
		c.Paths.OutputDir = DefaultOutputDir
	}

	if c.Database.Path == "" {
		c.Database.Path = DefaultDatabasePath
	}
}

// ListenAddr returns the host:port address for the HTTP listener.
func (c *Config) ListenAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}
