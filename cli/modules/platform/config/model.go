package config

import (
	"github.com/fpokrzywa/weaver-live/cli/modules/core/sections"
	"github.com/fpokrzywa/weaver-live/cli/modules/platform/auth"
	"github.com/fpokrzywa/weaver-live/cli/modules/platform/database"
)

// Config represents the main configuration
type Config struct {
	Version  string    `yaml:"version"`
	Settings *Settings `yaml:"settings"`
}

// LoggerConfig represents logger configuration
type LoggerConfig struct {
	Level      string `yaml:"level" json:"level"`             // debug, info, warn, error
	FilePath   string `yaml:"file_path" json:"file_path"`     // Log file path (empty = no file)
	MaxSizeMB  int    `yaml:"max_size_mb" json:"max_size_mb"` // Max log file size before rotation
	MaxBackups int    `yaml:"max_backups" json:"max_backups"` // Rotated files kept
	MaxAgeDays int    `yaml:"max_age_days" json:"max_age_days"`
	Compress   bool   `yaml:"compress" json:"compress"`
}

// DefaultLoggerConfig returns default logger configuration
func DefaultLoggerConfig() *LoggerConfig {
	return &LoggerConfig{
		Level:      "info",
		FilePath:   "", // Will default to ~/.local/share/weaver/weaver.log
		MaxSizeMB:  10,
		MaxBackups: 3,
		MaxAgeDays: 28,
		Compress:   true,
	}
}

// AdminConfig describes the optional bootstrap administrator
type AdminConfig struct {
	Email     string `yaml:"email" json:"email"`
	Password  string `yaml:"password,omitempty" json:"-"`
	FirstName string `yaml:"first_name,omitempty" json:"first_name,omitempty"`
	LastName  string `yaml:"last_name,omitempty" json:"last_name,omitempty"`
}

// AuthConfig holds token and bootstrap settings
type AuthConfig struct {
	auth.Config `yaml:",inline"`
	Admin       *AdminConfig `yaml:"admin,omitempty" json:"admin,omitempty"`
}

// UIConfig holds terminal UI preferences
type UIConfig struct {
	Theme          string `yaml:"theme" json:"theme"` // dark, light
	DefaultModel   string `yaml:"default_model" json:"default_model"`
	ShowTimestamps bool   `yaml:"show_timestamps" json:"show_timestamps"`
	Mouse          bool   `yaml:"mouse" json:"mouse"`
}

// ServerConfig is where the CLI finds the API daemon
type ServerConfig struct {
	URL string `yaml:"url" json:"url"`
}

// Settings represents global application settings
type Settings struct {
	Logger   *LoggerConfig    `yaml:"logger,omitempty" json:"logger,omitempty"`
	Database *database.Config `yaml:"database,omitempty" json:"database,omitempty"`
	Auth     *AuthConfig      `yaml:"auth,omitempty" json:"auth,omitempty"`
	UI       *UIConfig        `yaml:"ui,omitempty" json:"ui,omitempty"`
	Server   *ServerConfig    `yaml:"server,omitempty" json:"server,omitempty"`
}

// DefaultSettings returns default configuration settings
func DefaultSettings() *Settings {
	return &Settings{
		Logger: DefaultLoggerConfig(),
		Database: &database.Config{
			URL: "sqlite://" + defaultDatabasePath(),
		},
		Auth: &AuthConfig{
			Config: auth.Config{
				Issuer:      "weaver",
				ExpiryHours: 24,
			},
		},
		UI: &UIConfig{
			Theme:          "dark",
			DefaultModel:   sections.DefaultModel,
			ShowTimestamps: true,
		},
		Server: &ServerConfig{
			URL: "http://localhost:3001",
		},
	}
}

// DefaultConfig returns a default configuration
func DefaultConfig() *Config {
	return &Config{
		Version:  "1.0",
		Settings: DefaultSettings(),
	}
}

// applyDefaults fills the sections a partial file left out
func (c *Config) applyDefaults() {
	def := DefaultSettings()
	if c.Version == "" {
		c.Version = "1.0"
	}
	if c.Settings == nil {
		c.Settings = def
		return
	}
	s := c.Settings
	if s.Logger == nil {
		s.Logger = def.Logger
	}
	if s.Database == nil || s.Database.URL == "" {
		s.Database = def.Database
	}
	if s.Auth == nil {
		s.Auth = def.Auth
	}
	if s.Auth.ExpiryHours == 0 {
		s.Auth.ExpiryHours = def.Auth.ExpiryHours
	}
	if s.UI == nil {
		s.UI = def.UI
	}
	if s.UI.DefaultModel == "" {
		s.UI.DefaultModel = sections.DefaultModel
	}
	if s.Server == nil {
		s.Server = def.Server
	}
}

// Validate validates the configuration
func (c *Config) Validate() []string {
	var errors []string

	if c.Settings == nil {
		errors = append(errors, "settings is required")
		return errors
	}

	if c.Settings.Database == nil || database.DetectType(c.Settings.Database.URL) == database.DatabaseUnknown {
		errors = append(errors, "database.url must be a postgres:// url or a sqlite path")
	}

	if a := c.Settings.Auth; a != nil && a.Admin != nil && a.Admin.Email != "" && a.Admin.Password == "" {
		errors = append(errors, "auth.admin.password is required when auth.admin.email is set")
	}

	if ui := c.Settings.UI; ui != nil && ui.Theme != "dark" && ui.Theme != "light" {
		errors = append(errors, "ui.theme must be dark or light")
	}

	return errors
}

// BootstrapAdmin returns the configured first administrator, if any
func (s *Settings) BootstrapAdmin() *AdminConfig {
	if s.Auth == nil || s.Auth.Admin == nil || s.Auth.Admin.Email == "" {
		return nil
	}
	return s.Auth.Admin
}
