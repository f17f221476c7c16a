package sandbox

import (
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/FlowerRealm/realms-admin/internal/api"
)

func (s *Server) registerOAuthApps(g *gin.RouterGroup) {
	g.GET("", s.handleListOAuthApps)
	g.POST("", s.handleCreateOAuthApp)
	g.GET("/:app_id", s.handleGetOAuthApp)
	g.PUT("/:app_id", s.handleUpdateOAuthApp)
	g.POST("/:app_id/rotate-secret", s.handleRotateOAuthSecret)
}

func (s *Server) oauthAppParam(c *gin.Context) (*oauthApp, bool) {
	id, valid := paramID(c, "app_id")
	if !valid {
		return nil, false
	}
	app, found := s.state.oauthApps[id]
	if !found {
		notFound(c)
		return nil, false
	}
	return app, true
}

func statusLabel(status int) string {
	if status == 1 {
		return "enabled"
	}
	return "disabled"
}

// redirectURIs trims the list and rejects anything that is not an absolute URL.
func redirectURIs(c *gin.Context, raw []string) ([]string, bool) {
	out := make([]string, 0, len(raw))
	for _, r := range raw {
		r = strings.TrimSpace(r)
		if r == "" {
			continue
		}
		u, err := url.Parse(r)
		if err != nil || u.Scheme == "" || u.Host == "" {
			fail(c, "redirect_uri 不合法: "+r)
			return nil, false
		}
		out = append(out, r)
	}
	if len(out) == 0 {
		fail(c, "至少需要一个 redirect_uri")
		return nil, false
	}
	return out, true
}

func uuidShort() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:16]
}

func newSecret() string {
	return "rlm_sk_" + strings.ReplaceAll(uuid.NewString(), "-", "")
}

func (s *Server) handleListOAuthApps(c *gin.Context) {
	s.state.mu.Lock()
	defer s.state.mu.Unlock()

	apps := sortedValues(s.state.oauthApps)
	out := make([]api.OAuthApp, 0, len(apps))
	for _, a := range apps {
		out = append(out, a.info)
	}
	ok(c, out)
}

func (s *Server) handleCreateOAuthApp(c *gin.Context) {
	var req api.OAuthAppRequest
	if !bind(c, &req) {
		return
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		fail(c, "name 不能为空")
		return
	}
	uris, valid := redirectURIs(c, req.RedirectURIs)
	if !valid {
		return
	}
	s.state.mu.Lock()
	defer s.state.mu.Unlock()

	id := s.state.id()
	app := &oauthApp{
		info: api.OAuthApp{
			ID:           id,
			ClientID:     "rlm_app_" + uuidShort(),
			Name:         name,
			Status:       req.Status,
			StatusLabel:  statusLabel(req.Status),
			HasSecret:    true,
			RedirectURIs: uris,
		},
		secret: newSecret(),
	}
	s.state.oauthApps[id] = app
	ok(c, api.OAuthAppCredentials{ID: id, ClientID: app.info.ClientID, ClientSecret: app.secret})
}

func (s *Server) handleGetOAuthApp(c *gin.Context) {
	s.state.mu.Lock()
	defer s.state.mu.Unlock()

	app, found := s.oauthAppParam(c)
	if !found {
		return
	}
	ok(c, app.info)
}

func (s *Server) handleUpdateOAuthApp(c *gin.Context) {
	var req api.OAuthAppRequest
	if !bind(c, &req) {
		return
	}
	s.state.mu.Lock()
	defer s.state.mu.Unlock()

	app, found := s.oauthAppParam(c)
	if !found {
		return
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		fail(c, "name 不能为空")
		return
	}
	uris, valid := redirectURIs(c, req.RedirectURIs)
	if !valid {
		return
	}
	app.info.Name = name
	app.info.Status = req.Status
	app.info.StatusLabel = statusLabel(req.Status)
	app.info.RedirectURIs = uris
	okMessage(c, "已保存")
}

func (s *Server) handleRotateOAuthSecret(c *gin.Context) {
	s.state.mu.Lock()
	defer s.state.mu.Unlock()

	app, found := s.oauthAppParam(c)
	if !found {
		return
	}
	app.secret = newSecret()
	app.info.HasSecret = true
	ok(c, api.OAuthAppCredentials{ClientSecret: app.secret})
}
