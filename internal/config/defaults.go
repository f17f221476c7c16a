package config

import (
	"os"
	"path/filepath"
	"time"
)

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Version: "1",
		Server: ServerConfig{
			CookieName: "realms_session",
			Timeout:    30 * time.Second,
		},
		Drafts: DraftsConfig{
			Path: filepath.Join(GlobalDir(), "drafts.db"),
		},
		Sandbox: SandboxConfig{
			Addr:    "127.0.0.1:18080",
			Metrics: true,
			UserID:  1,
			Session: "sandbox-session",
		},
		Log: LogConfig{
			Level: "warn",
		},
	}
}

// WriteDefault writes the default global configuration to a file
func WriteDefault(path string) error {
	content := `# realms-admin Global Configuration
version: "1"

# Realms deployment and admin session
server:
  base_url: ""          # e.g. https://realms.example.com
  user_id: 0            # id of the logged-in admin (sent as Realms-User)
  session: ""           # value of the realms_session cookie
  cookie_name: realms_session
  timeout: 30s

# Draft store for main-group subgroup edits
drafts:
  path: ~/.realms-admin/drafts.db

# Local sandbox server (realms-admin sandbox serve)
sandbox:
  addr: 127.0.0.1:18080
  metrics: true
  user_id: 1
  session: sandbox-session

# debug, info, warn or error
log:
  level: warn

output:
  json: false
`
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(content), 0600)
}

// WriteProjectDefault writes the default project configuration to a file
func WriteProjectDefault(path string) error {
	content := `# realms-admin Project Configuration
version: "1"

# Override global settings as needed
# server:
#   base_url: http://127.0.0.1:18080
#   user_id: 1
#   session: sandbox-session
# log:
#   level: info
`
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(content), 0600)
}
