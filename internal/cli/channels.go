package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/FlowerRealm/realms-admin/internal/api"
	"github.com/FlowerRealm/realms-admin/internal/console"
)

func (a *app) channelsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "channels",
		Short: "Manage upstream channels",
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List channels in priority order",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.connect()
			if err != nil {
				return err
			}
			view := console.NewListView(c.ListChannels)
			if err := view.Load(cmd.Context()); err != nil {
				return err
			}
			return a.render(cmd, view.Rows, func(w io.Writer) {
				row(w, "ID", "NAME", "TYPE", "GROUPS", "STATUS", "PRIORITY", "KEY")
				for _, ch := range view.Rows {
					row(w, ch.ID, ch.Name, ch.Type, ch.Groups, statusText(ch.Status), ch.Priority, deref(ch.KeyHint))
				}
			})
		},
	}

	showCmd := &cobra.Command{
		Use:   "show <channel-id>",
		Short: "Show one channel",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := idArg("channel_id", args[0])
			if err != nil {
				return err
			}
			c, err := a.connect()
			if err != nil {
				return err
			}
			ch, err := c.GetChannel(cmd.Context(), id)
			if err != nil {
				return err
			}
			return a.render(cmd, ch, func(w io.Writer) {
				fmt.Fprintf(w, "ID:\t%d\n", ch.ID)
				fmt.Fprintf(w, "Name:\t%s\n", ch.Name)
				fmt.Fprintf(w, "Type:\t%s\n", ch.Type)
				fmt.Fprintf(w, "Base URL:\t%s\n", ch.BaseURL)
				fmt.Fprintf(w, "Groups:\t%s\n", ch.Groups)
				fmt.Fprintf(w, "Status:\t%s\n", statusText(ch.Status))
				fmt.Fprintf(w, "Priority:\t%d\n", ch.Priority)
				fmt.Fprintf(w, "Key:\t%s\n", deref(ch.KeyHint))
				if ch.LastTestAt != nil {
					fmt.Fprintf(w, "Last test:\t%s (%d ms, ok=%t)\n", *ch.LastTestAt, deref(ch.LastTestLatencyMS), deref(ch.LastTestOK))
				}
			})
		},
	}

	var create api.CreateChannelRequest
	createCmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a channel",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.connect()
			if err != nil {
				return err
			}
			req := create
			req.Name = args[0]
			req.Priority = intFlag(cmd, "priority")
			req.Promotion = boolFlag(cmd, "promotion")
			id, err := c.CreateChannel(cmd.Context(), req)
			if err != nil {
				return err
			}
			return a.done(cmd, api.Created{ID: id}, "Created channel #%d", id)
		},
	}
	createCmd.Flags().StringVar(&create.Type, "type", "openai_compatible", "Channel type")
	createCmd.Flags().StringVar(&create.BaseURL, "base-url", "", "Upstream base URL")
	createCmd.Flags().StringVar(&create.Groups, "groups", "", "Comma-separated channel group names")
	createCmd.Flags().StringVar(&create.Key, "key", "", "Upstream API key")
	createCmd.Flags().Int("priority", 0, "Priority (higher first)")
	createCmd.Flags().Bool("promotion", false, "Promote the channel")

	updateCmd := &cobra.Command{
		Use:   "update <channel-id>",
		Short: "Update a channel; only the flags given are changed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := idArg("channel_id", args[0])
			if err != nil {
				return err
			}
			c, err := a.connect()
			if err != nil {
				return err
			}
			req := api.UpdateChannelRequest{
				ID:        id,
				Name:      stringFlag(cmd, "name"),
				Groups:    stringFlag(cmd, "groups"),
				BaseURL:   stringFlag(cmd, "base-url"),
				Key:       stringFlag(cmd, "key"),
				Status:    intFlag(cmd, "status"),
				Priority:  intFlag(cmd, "priority"),
				Promotion: boolFlag(cmd, "promotion"),
			}
			if err := c.UpdateChannel(cmd.Context(), req); err != nil {
				return err
			}
			return a.done(cmd, api.Created{ID: id}, "Updated channel #%d", id)
		},
	}
	updateCmd.Flags().String("name", "", "Name")
	updateCmd.Flags().String("groups", "", "Comma-separated channel group names")
	updateCmd.Flags().String("base-url", "", "Upstream base URL")
	updateCmd.Flags().String("key", "", "Upstream API key")
	updateCmd.Flags().Int("status", 1, "1 enabled, 0 disabled")
	updateCmd.Flags().Int("priority", 0, "Priority (higher first)")
	updateCmd.Flags().Bool("promotion", false, "Promote the channel")

	deleteCmd := &cobra.Command{
		Use:   "delete <channel-id>",
		Short: "Delete a channel",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := idArg("channel_id", args[0])
			if err != nil {
				return err
			}
			c, err := a.connect()
			if err != nil {
				return err
			}
			if err := c.DeleteChannel(cmd.Context(), id); err != nil {
				return err
			}
			return a.done(cmd, api.Created{ID: id}, "Deleted channel #%d", id)
		},
	}

	reorderCmd := &cobra.Command{
		Use:   "reorder <channel-id>...",
		Short: "Put the given channels first, in this order",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := idArgs("channel_id", args)
			if err != nil {
				return err
			}
			c, err := a.connect()
			if err != nil {
				return err
			}
			if err := c.ReorderChannels(cmd.Context(), ids); err != nil {
				return err
			}
			return a.done(cmd, ids, "Reordered %d channels", len(ids))
		},
	}

	testCmd := &cobra.Command{
		Use:   "test <channel-id>",
		Short: "Probe a channel",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := idArg("channel_id", args[0])
			if err != nil {
				return err
			}
			c, err := a.connect()
			if err != nil {
				return err
			}
			res, err := c.TestChannel(cmd.Context(), id)
			if err != nil {
				return err
			}
			return a.done(cmd, res, "Channel #%d OK in %d ms", id, res.LatencyMS)
		},
	}

	cmd.AddCommand(listCmd, showCmd, createCmd, updateCmd, deleteCmd, reorderCmd, testCmd)
	return cmd
}
