// Package testutil provides reusable test utilities for realms-admin
// integration tests.
package testutil

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/FlowerRealm/realms-admin/internal/config"
)

// TestEnv provides access to isolated test directories
type TestEnv struct {
	Home          string // Mocked HOME directory
	ProjectDir    string // Test project directory
	GlobalDir     string // ~/.realms-admin equivalent
	ProjectConfig string // .realms-admin in project
	t             *testing.T
}

// SetupTestEnv creates an isolated test environment with mocked HOME and
// every REALMS_ADMIN_* variable cleared.
// Uses t.TempDir() for automatic cleanup and t.Setenv() for automatic env restoration.
func SetupTestEnv(t *testing.T) *TestEnv {
	t.Helper()

	tmpHome := t.TempDir()
	tmpProject := t.TempDir()

	globalDir := filepath.Join(tmpHome, ".realms-admin")
	projectConfig := filepath.Join(tmpProject, ".realms-admin")

	if err := os.MkdirAll(globalDir, 0755); err != nil {
		t.Fatalf("Failed to create global .realms-admin: %v", err)
	}
	if err := os.MkdirAll(projectConfig, 0755); err != nil {
		t.Fatalf("Failed to create project .realms-admin: %v", err)
	}

	t.Setenv("HOME", tmpHome)
	for _, k := range []string{config.EnvBaseURL, config.EnvUserID, config.EnvSession, config.EnvDraftsDB, config.EnvLogLevel} {
		t.Setenv(k, "")
	}

	return &TestEnv{
		Home:          tmpHome,
		ProjectDir:    tmpProject,
		GlobalDir:     globalDir,
		ProjectConfig: projectConfig,
		t:             t,
	}
}

// CreateFile creates a file with the given content in the test environment.
func (e *TestEnv) CreateFile(path, content string) {
	e.t.Helper()

	fullPath := path
	if !filepath.IsAbs(path) {
		fullPath = filepath.Join(e.ProjectDir, path)
	}

	dir := filepath.Dir(fullPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		e.t.Fatalf("Failed to create directory %s: %v", dir, err)
	}

	if err := os.WriteFile(fullPath, []byte(content), 0600); err != nil {
		e.t.Fatalf("Failed to write file %s: %v", fullPath, err)
	}
}

// CreateGlobalFile creates a file relative to the global .realms-admin directory.
func (e *TestEnv) CreateGlobalFile(relPath, content string) {
	e.t.Helper()
	e.CreateFile(filepath.Join(e.GlobalDir, relPath), content)
}

// CreateProjectFile creates a file relative to the project directory.
func (e *TestEnv) CreateProjectFile(relPath, content string) {
	e.t.Helper()
	e.CreateFile(filepath.Join(e.ProjectDir, relPath), content)
}

// ReadFile reads a file from the test environment.
func (e *TestEnv) ReadFile(path string) string {
	e.t.Helper()

	fullPath := path
	if !filepath.IsAbs(path) {
		fullPath = filepath.Join(e.ProjectDir, path)
	}

	data, err := os.ReadFile(fullPath)
	if err != nil {
		e.t.Fatalf("Failed to read file %s: %v", fullPath, err)
	}
	return string(data)
}

// FileExists checks if a file exists in the test environment.
func (e *TestEnv) FileExists(path string) bool {
	e.t.Helper()

	fullPath := path
	if !filepath.IsAbs(path) {
		fullPath = filepath.Join(e.ProjectDir, path)
	}

	_, err := os.Stat(fullPath)
	return err == nil
}

// ConfigPath is the explicit config file WriteConfig produces.
func (e *TestEnv) ConfigPath() string {
	return filepath.Join(e.ProjectConfig, "config.yaml")
}

// DraftsPath is the drafts database WriteConfig points at.
func (e *TestEnv) DraftsPath() string {
	return filepath.Join(e.GlobalDir, "drafts.db")
}

// WriteConfig writes a project config that targets baseURL with the given
// session and returns its path.
func (e *TestEnv) WriteConfig(baseURL string, userID int64, session string) string {
	e.t.Helper()

	e.CreateFile(e.ConfigPath(), fmt.Sprintf(`version: "1"
server:
  base_url: %s
  user_id: %d
  session: %s
  timeout: 5s
drafts:
  path: %s
log:
  level: error
`, baseURL, userID, session, e.DraftsPath()))
	return e.ConfigPath()
}
