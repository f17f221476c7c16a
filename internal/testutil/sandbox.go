package testutil

import (
	"io"
	"log/slog"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/FlowerRealm/realms-admin/internal/api"
	"github.com/FlowerRealm/realms-admin/internal/sandbox"
)

// Sandbox credentials used by StartSandbox.
const (
	SandboxUserID  int64 = 1
	SandboxSession       = "test-session"
)

// Sandbox is a running sandbox server with a client logged in to it.
type Sandbox struct {
	Server *sandbox.Server
	HTTP   *httptest.Server
	Client *api.Client
}

// URL is the sandbox base URL.
func (s *Sandbox) URL() string {
	return s.HTTP.URL
}

// StartSandbox starts a seeded sandbox with metrics enabled and returns a
// client for it. The server is closed when the test ends.
func StartSandbox(t *testing.T) *Sandbox {
	t.Helper()
	gin.SetMode(gin.TestMode)

	quiet := slog.New(slog.NewTextHandler(io.Discard, nil))
	srv := sandbox.NewServer(sandbox.Options{
		UserID:  SandboxUserID,
		Session: SandboxSession,
		Metrics: true,
		Logger:  quiet,
	})
	hs := httptest.NewServer(srv.Handler())
	t.Cleanup(hs.Close)

	client, err := api.NewClient(api.Options{
		BaseURL:       hs.URL,
		UserID:        SandboxUserID,
		SessionCookie: SandboxSession,
		Logger:        quiet,
	})
	if err != nil {
		t.Fatalf("Failed to create client: %v", err)
	}

	return &Sandbox{Server: srv, HTTP: hs, Client: client}
}
