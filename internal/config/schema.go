package config

import "time"

// Config represents the full realms-admin configuration
type Config struct {
	Version string `yaml:"version" mapstructure:"version"`

	// Deployment and session the CLI acts against
	Server ServerConfig `yaml:"server" mapstructure:"server"`

	// Local draft store for multi-step subgroup edits
	Drafts DraftsConfig `yaml:"drafts" mapstructure:"drafts"`

	// Local sandbox server
	Sandbox SandboxConfig `yaml:"sandbox" mapstructure:"sandbox"`

	Log LogConfig `yaml:"log" mapstructure:"log"`

	Output OutputConfig `yaml:"output" mapstructure:"output"`
}

// ServerConfig identifies the Realms deployment and the admin session
type ServerConfig struct {
	BaseURL    string        `yaml:"base_url" mapstructure:"base_url"`
	UserID     int64         `yaml:"user_id" mapstructure:"user_id"`
	Session    string        `yaml:"session" mapstructure:"session"`
	CookieName string        `yaml:"cookie_name" mapstructure:"cookie_name"`
	Timeout    time.Duration `yaml:"timeout" mapstructure:"timeout"`
}

// DraftsConfig locates the SQLite draft database
type DraftsConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

// SandboxConfig configures `realms-admin sandbox serve`
type SandboxConfig struct {
	Addr    string `yaml:"addr" mapstructure:"addr"`
	Metrics bool   `yaml:"metrics" mapstructure:"metrics"`
	// UserID is the only user the sandbox accepts
	UserID  int64  `yaml:"user_id" mapstructure:"user_id"`
	Session string `yaml:"session" mapstructure:"session"`
}

type LogConfig struct {
	Level string `yaml:"level" mapstructure:"level"`
}

type OutputConfig struct {
	JSON bool `yaml:"json" mapstructure:"json"`
}
