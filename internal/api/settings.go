package api

import "context"

type FeatureBanItem struct {
	Key              string `json:"key"`
	Label            string `json:"label"`
	Hint             string `json:"hint"`
	Disabled         bool   `json:"disabled"`
	Override         bool   `json:"override"`
	Editable         bool   `json:"editable"`
	ForcedBySelfMode bool   `json:"forced_by_self_mode"`
	ForcedByBuild    bool   `json:"forced_by_build"`
}

type FeatureBanGroup struct {
	Title string           `json:"title"`
	Items []FeatureBanItem `json:"items"`
}

// Settings is the subset of runtime settings this console shows. Secrets are
// reported only as *Set flags.
type Settings struct {
	SelfMode          bool              `json:"self_mode"`
	FeatureBanGroups  []FeatureBanGroup `json:"feature_ban_groups"`
	StartupConfigKeys []string          `json:"startup_config_keys"`

	SiteBaseURL          string `json:"site_base_url"`
	SiteBaseURLOverride  bool   `json:"site_base_url_override"`
	SiteBaseURLEffective string `json:"site_base_url_effective"`
	SiteBaseURLInvalid   bool   `json:"site_base_url_invalid"`

	AdminTimeZone          string `json:"admin_time_zone"`
	AdminTimeZoneOverride  bool   `json:"admin_time_zone_override"`
	AdminTimeZoneEffective string `json:"admin_time_zone_effective"`
	AdminTimeZoneInvalid   bool   `json:"admin_time_zone_invalid"`

	EmailVerificationEnabled bool `json:"email_verification_enabled"`

	SMTPServer     string `json:"smtp_server"`
	SMTPPort       int    `json:"smtp_port"`
	SMTPSSLEnabled bool   `json:"smtp_ssl_enabled"`
	SMTPAccount    string `json:"smtp_account"`
	SMTPFrom       string `json:"smtp_from"`
	SMTPTokenSet   bool   `json:"smtp_token_set"`

	BillingEnablePayAsYouGo bool   `json:"billing_enable_pay_as_you_go"`
	BillingMinTopupCNY      string `json:"billing_min_topup_cny"`
	BillingCreditUSDPerCNY  string `json:"billing_credit_usd_per_cny"`
}

// UpdateSettingsRequest is a full replacement of the editable settings.
type UpdateSettingsRequest struct {
	SiteBaseURL             string `json:"site_base_url"`
	AdminTimeZone           string `json:"admin_time_zone"`
	EmailVerificationEnable bool   `json:"email_verification_enable"`

	SMTPServer     string `json:"smtp_server"`
	SMTPPort       int    `json:"smtp_port"`
	SMTPSSLEnabled bool   `json:"smtp_ssl_enabled"`
	SMTPAccount    string `json:"smtp_account"`
	SMTPFrom       string `json:"smtp_from"`
	SMTPToken      string `json:"smtp_token"`

	BillingEnablePayAsYouGo bool   `json:"billing_enable_pay_as_you_go"`
	BillingMinTopupCNY      string `json:"billing_min_topup_cny"`
	BillingCreditUSDPerCNY  string `json:"billing_credit_usd_per_cny"`

	FeatureEnabled map[string]bool `json:"feature_enabled"`
}

// UpdateRequest seeds an update from the current settings so callers only
// touch the fields they mean to change. Secrets start empty, which the server
// reads as "keep".
func (s Settings) UpdateRequest() UpdateSettingsRequest {
	features := make(map[string]bool)
	for _, g := range s.FeatureBanGroups {
		for _, it := range g.Items {
			if it.Editable {
				features[it.Key] = !it.Disabled
			}
		}
	}
	return UpdateSettingsRequest{
		SiteBaseURL:             s.SiteBaseURL,
		AdminTimeZone:           s.AdminTimeZone,
		EmailVerificationEnable: s.EmailVerificationEnabled,
		SMTPServer:              s.SMTPServer,
		SMTPPort:                s.SMTPPort,
		SMTPSSLEnabled:          s.SMTPSSLEnabled,
		SMTPAccount:             s.SMTPAccount,
		SMTPFrom:                s.SMTPFrom,
		BillingEnablePayAsYouGo: s.BillingEnablePayAsYouGo,
		BillingMinTopupCNY:      s.BillingMinTopupCNY,
		BillingCreditUSDPerCNY:  s.BillingCreditUSDPerCNY,
		FeatureEnabled:          features,
	}
}

const settingsPath = "/api/admin/settings"

func (c *Client) GetSettings(ctx context.Context) (*Settings, error) {
	var out Settings
	if err := c.get(ctx, settingsPath, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateSettings(ctx context.Context, req UpdateSettingsRequest) error {
	if req.SMTPPort < 0 || req.SMTPPort > 65535 {
		return &ValidationError{Field: "smtp_port", Reason: "must be between 0 and 65535"}
	}
	if req.BillingMinTopupCNY != "" {
		if err := validateDecimal("billing_min_topup_cny", req.BillingMinTopupCNY); err != nil {
			return err
		}
	}
	if req.BillingCreditUSDPerCNY != "" {
		if err := validateDecimal("billing_credit_usd_per_cny", req.BillingCreditUSDPerCNY); err != nil {
			return err
		}
	}
	return c.put(ctx, settingsPath, req, nil)
}

// ResetSettings drops every runtime override and falls back to startup config.
func (c *Client) ResetSettings(ctx context.Context) error {
	return c.post(ctx, settingsPath+"/reset", nil, nil)
}
