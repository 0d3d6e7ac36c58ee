package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration (final merged config)
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	JWT      JWTConfig      `yaml:"jwt"`
	CORS     CORSConfig     `yaml:"cors"`
	Logging  LoggingConfig  `yaml:"logging"`
	Admin    AdminConfig    `yaml:"admin"`
}

// RawConfig represents the YAML file structure with common/backend sections
type RawConfig struct {
	Common  CommonConfig  `yaml:"common"`
	Backend BackendConfig `yaml:"backend"`
}

type CommonConfig struct {
	Database DatabaseConfig `yaml:"database"`
	Logging  LoggingConfig  `yaml:"logging"`
}

type BackendConfig struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	JWT      JWTConfig      `yaml:"jwt"`
	CORS     CORSConfig     `yaml:"cors"`
	Logging  LoggingConfig  `yaml:"logging"`
	Admin    AdminConfig    `yaml:"admin"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port string `yaml:"port"`
}

type DatabaseConfig struct {
	URL          string `yaml:"url"`
	MaxOpenConns int    `yaml:"max-open-conns"`
}

type JWTConfig struct {
	Secret      string `yaml:"secret"`
	Issuer      string `yaml:"issuer"`
	ExpiryHours int    `yaml:"expiry-hours"`
}

type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed-origins"`
	AllowedMethods []string `yaml:"allowed-methods"`
	AllowedHeaders []string `yaml:"allowed-headers"`
}

type LoggingConfig struct {
	Level    string `yaml:"level"`
	FilePath string `yaml:"file-path"` // Empty logs to stdout only
}

// AdminConfig is the optional first administrator seeded at startup
type AdminConfig struct {
	Email     string `yaml:"email"`
	Password  string `yaml:"password"`
	FirstName string `yaml:"first-name"`
	LastName  string `yaml:"last-name"`
}

// Environment overrides for sensitive data
const (
	EnvDatabaseURL   = "WEAVER_DATABASE_URL"
	EnvJWTSecret     = "WEAVER_JWT_SECRET"
	EnvAdminEmail    = "WEAVER_ADMIN_EMAIL"
	EnvAdminPassword = "WEAVER_ADMIN_PASSWORD"
	EnvPort          = "WEAVER_PORT"
)

var globalConfig *Config

// Load loads configuration from a YAML file. Without an explicit path the
// default locations are tried, and defaults are used when none exists.
func Load(configPath string) (*Config, error) {
	if configPath == "" {
		home, _ := os.UserHomeDir()
		candidates := []string{
			"weaverd.yaml",
			"backend/weaverd.yaml",
			filepath.Join(home, ".config", "weaver", "weaverd.yaml"),
		}
		for _, candidate := range candidates {
			if _, err := os.Stat(candidate); err == nil {
				configPath = candidate
				break
			}
		}
	}

	var rawCfg RawConfig
	if configPath != "" {
		data, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &rawCfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	cfg := mergeConfig(rawCfg)
	applyEnv(&cfg, os.Getenv)
	applyDefaults(&cfg)

	globalConfig = &cfg
	return &cfg, nil
}

// mergeConfig merges common config with backend-specific overrides
func mergeConfig(raw RawConfig) Config {
	cfg := Config{
		// Start with common values
		Database: raw.Common.Database,
		Logging:  raw.Common.Logging,

		// Backend-specific values
		Server: raw.Backend.Server,
		JWT:    raw.Backend.JWT,
		CORS:   raw.Backend.CORS,
		Admin:  raw.Backend.Admin,
	}

	// Override common with backend-specific if set
	if raw.Backend.Database.URL != "" {
		cfg.Database.URL = raw.Backend.Database.URL
	}
	if raw.Backend.Database.MaxOpenConns != 0 {
		cfg.Database.MaxOpenConns = raw.Backend.Database.MaxOpenConns
	}
	if raw.Backend.Logging.Level != "" {
		cfg.Logging.Level = raw.Backend.Logging.Level
	}
	if raw.Backend.Logging.FilePath != "" {
		cfg.Logging.FilePath = raw.Backend.Logging.FilePath
	}

	return cfg
}

func applyEnv(cfg *Config, getenv func(string) string) {
	if v := getenv(EnvDatabaseURL); v != "" {
		cfg.Database.URL = v
	}
	if v := getenv(EnvJWTSecret); v != "" {
		cfg.JWT.Secret = v
	}
	if v := getenv(EnvAdminEmail); v != "" {
		cfg.Admin.Email = v
	}
	if v := getenv(EnvAdminPassword); v != "" {
		cfg.Admin.Password = v
	}
	if v := getenv(EnvPort); v != "" {
		cfg.Server.Port = v
	}
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "0.0.0.0"
	}
	if cfg.Server.Port == "" {
		cfg.Server.Port = "3001"
	}
	if cfg.Database.URL == "" {
		home, _ := os.UserHomeDir()
		cfg.Database.URL = "sqlite://" + filepath.Join(home, ".local", "share", "weaver", "weaver.db")
	}
	if cfg.JWT.Issuer == "" {
		cfg.JWT.Issuer = "weaver"
	}
	if cfg.JWT.ExpiryHours == 0 {
		cfg.JWT.ExpiryHours = 24
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if len(cfg.CORS.AllowedMethods) == 0 {
		cfg.CORS.AllowedMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	}
	if len(cfg.CORS.AllowedHeaders) == 0 {
		cfg.CORS.AllowedHeaders = []string{"Content-Type", "Authorization"}
	}
}

// Validate reports configuration problems
func (c *Config) Validate() error {
	var problems []string
	if c.Admin.Email != "" && c.Admin.Password == "" {
		problems = append(problems, "admin.password is required when admin.email is set")
	}
	if c.JWT.ExpiryHours < 0 {
		problems = append(problems, "jwt.expiry-hours must be positive")
	}
	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}
	return nil
}

// Addr returns the listen address
func (c *Config) Addr() string {
	return c.Server.Host + ":" + c.Server.Port
}

// GetConfig returns the global configuration
func GetConfig() *Config {
	return globalConfig
}

// SetConfig sets the global configuration
func SetConfig(cfg *Config) {
	globalConfig = cfg
}
