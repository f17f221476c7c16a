package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/FlowerRealm/realms-admin/internal/api"
)

func (a *app) settingsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Show and edit runtime settings",
	}

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Show effective settings and feature switches",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.connect()
			if err != nil {
				return err
			}
			s, err := c.GetSettings(cmd.Context())
			if err != nil {
				return err
			}
			return a.render(cmd, s, func(w io.Writer) { renderSettings(w, s) })
		},
	}

	var (
		enable  []string
		disable []string
	)
	updateCmd := &cobra.Command{
		Use:   "update",
		Short: "Change selected settings; everything else keeps its value",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.connect()
			if err != nil {
				return err
			}
			cur, err := c.GetSettings(cmd.Context())
			if err != nil {
				return err
			}
			req := cur.UpdateRequest()
			if v := stringFlag(cmd, "site-base-url"); v != nil {
				req.SiteBaseURL = *v
			}
			if v := stringFlag(cmd, "time-zone"); v != nil {
				req.AdminTimeZone = *v
			}
			if v := boolFlag(cmd, "email-verification"); v != nil {
				req.EmailVerificationEnable = *v
			}
			if v := stringFlag(cmd, "smtp-server"); v != nil {
				req.SMTPServer = *v
			}
			if v := intFlag(cmd, "smtp-port"); v != nil {
				req.SMTPPort = *v
			}
			if v := boolFlag(cmd, "smtp-ssl"); v != nil {
				req.SMTPSSLEnabled = *v
			}
			if v := stringFlag(cmd, "smtp-account"); v != nil {
				req.SMTPAccount = *v
			}
			if v := stringFlag(cmd, "smtp-from"); v != nil {
				req.SMTPFrom = *v
			}
			if v := stringFlag(cmd, "smtp-token"); v != nil {
				req.SMTPToken = *v
			}
			if v := boolFlag(cmd, "pay-as-you-go"); v != nil {
				req.BillingEnablePayAsYouGo = *v
			}
			if v := stringFlag(cmd, "min-topup-cny"); v != nil {
				req.BillingMinTopupCNY = *v
			}
			if v := stringFlag(cmd, "credit-usd-per-cny"); v != nil {
				req.BillingCreditUSDPerCNY = *v
			}
			for _, key := range enable {
				if err := setFeature(cur, req.FeatureEnabled, key, true); err != nil {
					return err
				}
			}
			for _, key := range disable {
				if err := setFeature(cur, req.FeatureEnabled, key, false); err != nil {
					return err
				}
			}
			if err := c.UpdateSettings(cmd.Context(), req); err != nil {
				return err
			}
			return a.done(cmd, req, "Settings updated")
		},
	}
	f := updateCmd.Flags()
	f.String("site-base-url", "", "Public base URL of the site")
	f.String("time-zone", "", "IANA time zone for admin pages")
	f.Bool("email-verification", false, "Require email verification on sign-up")
	f.String("smtp-server", "", "SMTP host")
	f.Int("smtp-port", 0, "SMTP port")
	f.Bool("smtp-ssl", false, "Use implicit TLS for SMTP")
	f.String("smtp-account", "", "SMTP account")
	f.String("smtp-from", "", "Sender address")
	f.String("smtp-token", "", "SMTP password or token")
	f.Bool("pay-as-you-go", false, "Enable pay-as-you-go billing")
	f.String("min-topup-cny", "", "Minimum top-up in CNY (decimal)")
	f.String("credit-usd-per-cny", "", "USD credit granted per CNY (decimal)")
	f.StringArrayVar(&enable, "enable-feature", nil, "Feature key to enable (repeatable)")
	f.StringArrayVar(&disable, "disable-feature", nil, "Feature key to disable (repeatable)")

	resetCmd := &cobra.Command{
		Use:   "reset",
		Short: "Drop all runtime overrides and fall back to startup config",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.connect()
			if err != nil {
				return err
			}
			if err := c.ResetSettings(cmd.Context()); err != nil {
				return err
			}
			return a.done(cmd, map[string]bool{"reset": true}, "Settings reset to startup config")
		},
	}

	cmd.AddCommand(showCmd, updateCmd, resetCmd)
	return cmd
}

// setFeature refuses keys the server reports as locked or unknown.
func setFeature(cur *api.Settings, features map[string]bool, key string, enabled bool) error {
	for _, g := range cur.FeatureBanGroups {
		for _, it := range g.Items {
			if it.Key != key {
				continue
			}
			if !it.Editable {
				return &api.ValidationError{Field: key, Reason: "is not editable"}
			}
			features[key] = enabled
			return nil
		}
	}
	return &api.ValidationError{Field: key, Reason: "is not a known feature"}
}

func renderSettings(w io.Writer, s *api.Settings) {
	fmt.Fprintf(w, "Self mode:\t%t\n", s.SelfMode)
	fmt.Fprintf(w, "Site base URL:\t%s%s\n", s.SiteBaseURLEffective, marker(s.SiteBaseURLOverride, s.SiteBaseURLInvalid))
	fmt.Fprintf(w, "Time zone:\t%s%s\n", s.AdminTimeZoneEffective, marker(s.AdminTimeZoneOverride, s.AdminTimeZoneInvalid))
	fmt.Fprintf(w, "Email verification:\t%t\n", s.EmailVerificationEnabled)
	fmt.Fprintf(w, "SMTP:\t%s:%d ssl=%t account=%s from=%s token set=%t\n",
		s.SMTPServer, s.SMTPPort, s.SMTPSSLEnabled, s.SMTPAccount, s.SMTPFrom, s.SMTPTokenSet)
	fmt.Fprintf(w, "Pay as you go:\t%t (min %s CNY, %s USD/CNY)\n",
		s.BillingEnablePayAsYouGo, s.BillingMinTopupCNY, s.BillingCreditUSDPerCNY)
	if len(s.StartupConfigKeys) > 0 {
		fmt.Fprintf(w, "Startup keys:\t%s\n", strings.Join(s.StartupConfigKeys, ", "))
	}
	for _, g := range s.FeatureBanGroups {
		fmt.Fprintf(w, "\n%s\n", g.Title)
		for _, it := range g.Items {
			state := "on"
			if it.Disabled {
				state = "off"
			}
			var notes []string
			if it.Override {
				notes = append(notes, "override")
			}
			if it.ForcedBySelfMode {
				notes = append(notes, "forced by self mode")
			}
			if it.ForcedByBuild {
				notes = append(notes, "forced by build")
			}
			row(w, "  "+it.Key, state, it.Label, strings.Join(notes, ", "))
		}
	}
}

func marker(override, invalid bool) string {
	switch {
	case invalid:
		return " (invalid override)"
	case override:
		return " (override)"
	}
	return ""
}
