package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const dirName = ".realms-admin"

// Environment variables that override file configuration
const (
	EnvBaseURL   = "REALMS_ADMIN_BASE_URL"
	EnvUserID    = "REALMS_ADMIN_USER_ID"
	EnvSession   = "REALMS_ADMIN_SESSION"
	EnvDraftsDB  = "REALMS_ADMIN_DRAFTS_DB"
	EnvLogLevel  = "LOG_LEVEL"
	redactedMark = "********"
)

// Load loads and merges configuration from global and project sources, then
// applies environment overrides. A non-empty explicit path replaces both files.
func Load(explicit string) (*Config, error) {
	home, _ := os.UserHomeDir()
	cwd, _ := os.Getwd()
	return LoadFrom(home, cwd, explicit)
}

// LoadFrom is Load with the home and working directories supplied.
func LoadFrom(home, cwd, explicit string) (*Config, error) {
	cfg := DefaultConfig()
	if home != "" {
		cfg.Drafts.Path = filepath.Join(home, dirName, "drafts.db")
	}

	if explicit != "" {
		if err := loadFile(explicit, cfg); err != nil {
			return nil, fmt.Errorf("failed to load config %s: %w", explicit, err)
		}
	} else {
		// Global first, project overrides
		for _, dir := range []string{home, cwd} {
			if dir == "" {
				continue
			}
			path := filepath.Join(dir, dirName, "config.yaml")
			if err := loadFile(path, cfg); err != nil && !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("failed to load config %s: %w", path, err)
			}
		}
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	cfg.Drafts.Path = expandHome(cfg.Drafts.Path, home)
	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	if _, err := os.Stat(path); err != nil {
		return err
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		return err
	}

	return v.Unmarshal(cfg)
}

// envBindings maps viper keys onto the environment variables that set them.
var envBindings = []struct{ key, env string }{
	{"base_url", EnvBaseURL},
	{"user_id", EnvUserID},
	{"session", EnvSession},
	{"drafts_db", EnvDraftsDB},
	{"log_level", EnvLogLevel},
}

func bindEnv(v *viper.Viper) error {
	for _, b := range envBindings {
		if err := v.BindEnv(b.key, b.env); err != nil {
			return fmt.Errorf("failed to bind %s: %w", b.env, err)
		}
	}
	return nil
}

func applyEnv(cfg *Config) error {
	v := viper.New()
	if err := bindEnv(v); err != nil {
		return err
	}

	if s := v.GetString("base_url"); s != "" {
		cfg.Server.BaseURL = s
	}
	if s := v.GetString("user_id"); s != "" {
		id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", EnvUserID, s, err)
		}
		cfg.Server.UserID = id
	}
	if s := v.GetString("session"); s != "" {
		cfg.Server.Session = s
	}
	if s := v.GetString("drafts_db"); s != "" {
		cfg.Drafts.Path = s
	}
	if s := v.GetString("log_level"); s != "" {
		cfg.Log.Level = s
	}
	return nil
}

func expandHome(path, home string) string {
	if home == "" {
		return path
	}
	if path == "~" {
		return home
	}
	if rest, ok := strings.CutPrefix(path, "~/"); ok {
		return filepath.Join(home, rest)
	}
	return path
}

// ValidateServer checks the settings every API command needs.
func (c *Config) ValidateServer() error {
	var missing []string
	if strings.TrimSpace(c.Server.BaseURL) == "" {
		missing = append(missing, "server.base_url ("+EnvBaseURL+")")
	}
	if c.Server.UserID <= 0 {
		missing = append(missing, "server.user_id ("+EnvUserID+")")
	}
	if strings.TrimSpace(c.Server.Session) == "" {
		missing = append(missing, "server.session ("+EnvSession+")")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing configuration: %s", strings.Join(missing, ", "))
	}
	return nil
}

// Redacted returns the YAML form of c with secrets masked.
func (c *Config) Redacted() ([]byte, error) {
	out := *c
	if out.Server.Session != "" {
		out.Server.Session = redactedMark
	}
	if out.Sandbox.Session != "" {
		out.Sandbox.Session = redactedMark
	}
	return yaml.Marshal(&out)
}

// GlobalDir returns the global realms-admin directory
func GlobalDir() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, dirName)
}

// GlobalConfigPath returns the path to the global config file
func GlobalConfigPath() string {
	return filepath.Join(GlobalDir(), "config.yaml")
}

// ProjectConfigPath returns the path to the project config file
func ProjectConfigPath() string {
	cwd, _ := os.Getwd()
	return filepath.Join(cwd, dirName, "config.yaml")
}
