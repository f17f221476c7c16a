package sandbox

import (
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/FlowerRealm/realms-admin/internal/api"
)

func (s *Server) registerSettings(g *gin.RouterGroup) {
	g.GET("", s.handleGetSettings)
	g.PUT("", s.handleUpdateSettings)
	g.POST("/reset", s.handleResetSettings)
}

// cloneSettings copies the nested feature groups so callers can mutate them.
func cloneSettings(in api.Settings) api.Settings {
	out := in
	out.FeatureBanGroups = make([]api.FeatureBanGroup, len(in.FeatureBanGroups))
	for i, g := range in.FeatureBanGroups {
		out.FeatureBanGroups[i] = api.FeatureBanGroup{Title: g.Title, Items: slices.Clone(g.Items)}
	}
	out.StartupConfigKeys = slices.Clone(in.StartupConfigKeys)
	return out
}

func (s *Server) handleGetSettings(c *gin.Context) {
	s.state.mu.Lock()
	defer s.state.mu.Unlock()
	ok(c, cloneSettings(s.state.settings))
}

func (s *Server) handleUpdateSettings(c *gin.Context) {
	var req api.UpdateSettingsRequest
	if !bind(c, &req) {
		return
	}
	if req.SMTPPort < 0 || req.SMTPPort > 65535 {
		fail(c, "smtp_port 不合法")
		return
	}
	siteURL := strings.TrimSpace(req.SiteBaseURL)
	if siteURL != "" {
		u, err := url.Parse(siteURL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			fail(c, "site_base_url 不合法")
			return
		}
	}
	tz := strings.TrimSpace(req.AdminTimeZone)
	if tz != "" {
		if _, err := time.LoadLocation(tz); err != nil {
			fail(c, "admin_time_zone 不合法")
			return
		}
	}

	s.state.mu.Lock()
	defer s.state.mu.Unlock()

	next := cloneSettings(s.state.settings)
	next.SiteBaseURL = siteURL
	next.SiteBaseURLOverride = siteURL != ""
	next.SiteBaseURLEffective = s.state.defaults.SiteBaseURLEffective
	if siteURL != "" {
		next.SiteBaseURLEffective = siteURL
	}
	next.AdminTimeZone = tz
	next.AdminTimeZoneOverride = tz != ""
	next.AdminTimeZoneEffective = s.state.defaults.AdminTimeZoneEffective
	if tz != "" {
		next.AdminTimeZoneEffective = tz
	}
	next.EmailVerificationEnabled = req.EmailVerificationEnable
	next.SMTPServer = strings.TrimSpace(req.SMTPServer)
	next.SMTPPort = req.SMTPPort
	next.SMTPSSLEnabled = req.SMTPSSLEnabled
	next.SMTPAccount = strings.TrimSpace(req.SMTPAccount)
	next.SMTPFrom = strings.TrimSpace(req.SMTPFrom)
	if strings.TrimSpace(req.SMTPToken) != "" {
		next.SMTPTokenSet = true
	}
	next.BillingEnablePayAsYouGo = req.BillingEnablePayAsYouGo
	if v := strings.TrimSpace(req.BillingMinTopupCNY); v != "" {
		next.BillingMinTopupCNY = v
	}
	if v := strings.TrimSpace(req.BillingCreditUSDPerCNY); v != "" {
		next.BillingCreditUSDPerCNY = v
	}
	for gi := range next.FeatureBanGroups {
		items := next.FeatureBanGroups[gi].Items
		for i := range items {
			enabled, present := req.FeatureEnabled[items[i].Key]
			if !present || !items[i].Editable {
				continue
			}
			items[i].Disabled = !enabled
			items[i].Override = true
		}
	}
	s.state.settings = next
	okMessage(c, "已保存")
}

func (s *Server) handleResetSettings(c *gin.Context) {
	s.state.mu.Lock()
	defer s.state.mu.Unlock()

	s.state.settings = cloneSettings(s.state.defaults)
	okMessage(c, "已恢复默认")
}
