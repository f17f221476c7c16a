package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/FlowerRealm/realms-admin/internal/api"
	"github.com/FlowerRealm/realms-admin/internal/console"
)

func (a *app) oauthAppsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "oauth-apps",
		Short: "Manage OAuth applications",
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List OAuth apps",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.connect()
			if err != nil {
				return err
			}
			view := console.NewListView(c.ListOAuthApps)
			if err := view.Load(cmd.Context()); err != nil {
				return err
			}
			return a.render(cmd, view.Rows, func(w io.Writer) {
				row(w, "ID", "CLIENT ID", "NAME", "STATUS", "REDIRECT URIS")
				for _, oa := range view.Rows {
					row(w, oa.ID, oa.ClientID, oa.Name, oa.StatusLabel, strings.Join(oa.RedirectURIs, " "))
				}
			})
		},
	}

	showCmd := &cobra.Command{
		Use:   "show <app-id>",
		Short: "Show an OAuth app",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := idArg("app_id", args[0])
			if err != nil {
				return err
			}
			c, err := a.connect()
			if err != nil {
				return err
			}
			oa, err := c.GetOAuthApp(cmd.Context(), id)
			if err != nil {
				return err
			}
			return a.render(cmd, oa, func(w io.Writer) {
				fmt.Fprintf(w, "ID:\t%d\n", oa.ID)
				fmt.Fprintf(w, "Client ID:\t%s\n", oa.ClientID)
				fmt.Fprintf(w, "Name:\t%s\n", oa.Name)
				fmt.Fprintf(w, "Status:\t%s\n", oa.StatusLabel)
				fmt.Fprintf(w, "Secret set:\t%t\n", oa.HasSecret)
				for _, u := range oa.RedirectURIs {
					fmt.Fprintf(w, "Redirect:\t%s\n", u)
				}
			})
		},
	}

	var (
		redirects []string
		status    int
	)
	createCmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Create an OAuth app; the secret is shown once",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.connect()
			if err != nil {
				return err
			}
			creds, err := c.CreateOAuthApp(cmd.Context(), api.OAuthAppRequest{Name: args[0], Status: status, RedirectURIs: redirects})
			if err != nil {
				return err
			}
			return a.render(cmd, creds, func(w io.Writer) {
				fmt.Fprintf(w, "ID:\t%d\n", creds.ID)
				fmt.Fprintf(w, "Client ID:\t%s\n", creds.ClientID)
				fmt.Fprintf(w, "Client secret:\t%s\n", creds.ClientSecret)
				fmt.Fprintln(w, "\nStore the secret now; it cannot be shown again.")
			})
		},
	}
	createCmd.Flags().StringArrayVar(&redirects, "redirect-uri", nil, "Allowed redirect URI (repeatable)")
	createCmd.Flags().IntVar(&status, "status", 1, "1 enabled, 0 disabled")

	updateCmd := &cobra.Command{
		Use:   "update <app-id>",
		Short: "Update an OAuth app",
		Long:  "Update an OAuth app. Flags that are not given keep the current value.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := idArg("app_id", args[0])
			if err != nil {
				return err
			}
			c, err := a.connect()
			if err != nil {
				return err
			}
			cur, err := c.GetOAuthApp(cmd.Context(), id)
			if err != nil {
				return err
			}
			req := api.OAuthAppRequest{Name: cur.Name, Status: cur.Status, RedirectURIs: cur.RedirectURIs}
			if v := stringFlag(cmd, "name"); v != nil {
				req.Name = *v
			}
			if v := intFlag(cmd, "status"); v != nil {
				req.Status = *v
			}
			if cmd.Flags().Changed("redirect-uri") {
				req.RedirectURIs, _ = cmd.Flags().GetStringArray("redirect-uri")
			}
			if err := c.UpdateOAuthApp(cmd.Context(), id, req); err != nil {
				return err
			}
			return a.done(cmd, api.Created{ID: id}, "Updated OAuth app #%d", id)
		},
	}
	updateCmd.Flags().String("name", "", "Name")
	updateCmd.Flags().Int("status", 1, "1 enabled, 0 disabled")
	updateCmd.Flags().StringArray("redirect-uri", nil, "Replace redirect URIs (repeatable)")

	rotateCmd := &cobra.Command{
		Use:   "rotate-secret <app-id>",
		Short: "Issue a new client secret",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := idArg("app_id", args[0])
			if err != nil {
				return err
			}
			c, err := a.connect()
			if err != nil {
				return err
			}
			secret, err := c.RotateOAuthAppSecret(cmd.Context(), id)
			if err != nil {
				return err
			}
			return a.done(cmd, api.OAuthAppCredentials{ID: id, ClientSecret: secret}, "New client secret: %s", secret)
		},
	}

	cmd.AddCommand(listCmd, showCmd, createCmd, updateCmd, rotateCmd)
	return cmd
}
