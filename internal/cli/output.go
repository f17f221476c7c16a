package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/FlowerRealm/realms-admin/internal/api"
	"github.com/FlowerRealm/realms-admin/internal/ordering"
)

// connect builds the API client on first use from server.* configuration.
func (a *app) connect() (*api.Client, error) {
	if a.client != nil {
		return a.client, nil
	}
	if err := a.cfg.ValidateServer(); err != nil {
		return nil, err
	}
	c, err := api.NewClient(api.Options{
		BaseURL:       a.cfg.Server.BaseURL,
		UserID:        a.cfg.Server.UserID,
		SessionCookie: a.cfg.Server.Session,
		CookieName:    a.cfg.Server.CookieName,
		Timeout:       a.cfg.Server.Timeout,
		Logger:        a.log,
	})
	if err != nil {
		return nil, err
	}
	a.client = c
	return c, nil
}

// render prints v as JSON with --json, otherwise hands a tab writer to table.
func (a *app) render(cmd *cobra.Command, v any, table func(w io.Writer)) error {
	out := cmd.OutOrStdout()
	if a.jsonOut {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	table(tw)
	return tw.Flush()
}

// done reports a mutation: v as JSON with --json, otherwise msg.
func (a *app) done(cmd *cobra.Command, v any, msg string, args ...any) error {
	return a.render(cmd, v, func(w io.Writer) {
		fmt.Fprintf(w, msg+"\n", args...)
	})
}

func row(w io.Writer, cols ...any) {
	parts := make([]string, len(cols))
	for i, c := range cols {
		parts[i] = fmt.Sprint(c)
	}
	fmt.Fprintln(w, strings.Join(parts, "\t"))
}

func statusText(status int) string {
	if status == 1 {
		return "enabled"
	}
	return "disabled"
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return ""
}

func deref[T any](p *T) T {
	var zero T
	if p == nil {
		return zero
	}
	return *p
}

func idArg(field, raw string) (int64, error) {
	return api.ParseID(field, raw)
}

func idArgs(field string, raws []string) ([]int64, error) {
	out := make([]int64, 0, len(raws))
	for _, r := range raws {
		id, err := idArg(field, r)
		if err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, nil
}

// positionArg parses a 1-based row number as shown in tables.
func positionArg(raw string, n int) (int, error) {
	pos, err := api.ParseID("position", raw)
	if err != nil {
		return 0, err
	}
	if int(pos) > n {
		return 0, &api.ValidationError{Field: "position", Reason: fmt.Sprintf("must be between 1 and %d", n)}
	}
	return int(pos) - 1, nil
}

func directionArg(raw string) (ordering.Direction, error) {
	dir, err := ordering.ParseDirection(raw)
	if err != nil {
		return dir, &api.ValidationError{Field: "direction", Reason: err.Error()}
	}
	return dir, nil
}

// intFlag returns a pointer to the flag value when it was set on the command line.
func intFlag(cmd *cobra.Command, name string) *int {
	if !cmd.Flags().Changed(name) {
		return nil
	}
	v, _ := cmd.Flags().GetInt(name)
	return &v
}

func stringFlag(cmd *cobra.Command, name string) *string {
	if !cmd.Flags().Changed(name) {
		return nil
	}
	v, _ := cmd.Flags().GetString(name)
	return &v
}

func boolFlag(cmd *cobra.Command, name string) *bool {
	if !cmd.Flags().Changed(name) {
		return nil
	}
	v, _ := cmd.Flags().GetBool(name)
	return &v
}
