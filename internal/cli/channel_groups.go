package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/FlowerRealm/realms-admin/internal/api"
	"github.com/FlowerRealm/realms-admin/internal/console"
)

func (a *app) channelGroupsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "channel-groups",
		Aliases: []string{"cg"},
		Short:   "Manage channel groups, their members and routing pointer",
	}

	cmd.AddCommand(a.channelGroupsListCmd())
	cmd.AddCommand(a.channelGroupsShowCmd())
	cmd.AddCommand(a.channelGroupsCreateCmd())
	cmd.AddCommand(a.channelGroupsUpdateCmd())
	cmd.AddCommand(a.channelGroupsDeleteCmd())
	cmd.AddCommand(a.channelGroupsAddChannelCmd())
	cmd.AddCommand(a.channelGroupsCreateChildCmd())
	cmd.AddCommand(a.channelGroupsRemoveMemberCmd())
	cmd.AddCommand(a.channelGroupsMoveCmd())
	cmd.AddCommand(a.channelGroupsPointerCmd())
	return cmd
}

func (a *app) channelGroupsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List top-level channel groups",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.connect()
			if err != nil {
				return err
			}
			view := console.NewListView(c.ListChannelGroups)
			if err := view.Load(cmd.Context()); err != nil {
				return err
			}
			return a.render(cmd, view.Rows, func(w io.Writer) {
				row(w, "ID", "NAME", "MULTIPLIER", "MAX ATTEMPTS", "STATUS", "DESCRIPTION")
				for _, g := range view.Rows {
					row(w, g.ID, g.Name, g.PriceMultiplier, g.MaxAttempts, statusText(g.Status), deref(g.Description))
				}
			})
		},
	}
}

// loadGroupView opens the detail view of the group named by raw.
func (a *app) loadGroupView(cmd *cobra.Command, raw string, opts ...console.ReorderOption) (*console.ChannelGroupDetailView, error) {
	id, err := idArg("group_id", raw)
	if err != nil {
		return nil, err
	}
	c, err := a.connect()
	if err != nil {
		return nil, err
	}
	opts = append(opts, console.WithLogger(a.log))
	view := console.NewChannelGroupDetailView(c, id, opts...)
	if err := view.Load(cmd.Context()); err != nil {
		return nil, err
	}
	return view, nil
}

type groupDetailOutput struct {
	Group        api.ChannelGroup            `json:"group"`
	Breadcrumb   []string                    `json:"breadcrumb"`
	Members      []api.ChannelGroupMember    `json:"members"`
	Pointer      *api.ChannelGroupPointer    `json:"pointer,omitempty"`
	PointerError string                      `json:"pointer_error,omitempty"`
	Order        console.ReorderState[int64] `json:"order"`
}

// renderGroup prints the group header, pointer and members in the order the
// view holds, which after a failed save is the unsaved local order.
func (a *app) renderGroup(cmd *cobra.Command, view *console.ChannelGroupDetailView) error {
	d := view.Detail
	var crumbs []string
	for _, g := range d.Breadcrumb {
		crumbs = append(crumbs, g.Name)
	}
	members := view.Members()
	state := view.Order()

	out := groupDetailOutput{
		Group:        d.Group,
		Breadcrumb:   crumbs,
		Members:      members,
		Pointer:      view.Pointer,
		PointerError: view.PointerErr,
		Order:        state,
	}
	return a.render(cmd, out, func(w io.Writer) {
		fmt.Fprintf(w, "Group:\t%s (#%d)\n", strings.Join(crumbs, " / "), d.Group.ID)
		fmt.Fprintf(w, "Status:\t%s\n", statusText(d.Group.Status))
		fmt.Fprintf(w, "Multiplier:\t%s\n", d.Group.PriceMultiplier)
		switch {
		case view.PointerErr != "":
			fmt.Fprintf(w, "Pointer:\tunavailable (%s)\n", view.PointerErr)
		case view.Pointer != nil && view.Pointer.ChannelID > 0:
			pin := ""
			if view.Pointer.Pinned {
				pin = " [pinned]"
			}
			fmt.Fprintf(w, "Pointer:\t%s (#%d)%s\n", view.Pointer.ChannelName, view.Pointer.ChannelID, pin)
			if view.Pointer.Note != "" {
				fmt.Fprintf(w, "\t%s\n", view.Pointer.Note)
			}
		default:
			fmt.Fprintln(w, "Pointer:\tnone")
		}
		if state.Phase == console.PhasePersistFailed {
			fmt.Fprintf(w, "Order:\tNOT SAVED (%s)\n", state.Err)
		}
		fmt.Fprintln(w)

		row(w, "#", "MEMBER", "KIND", "NAME", "STATUS", "PINNED")
		for i, m := range members {
			var status int
			switch m.Kind() {
			case api.MemberKindGroup:
				status = deref(m.MemberGroupStatus)
			case api.MemberKindChannel:
				status = deref(m.MemberChannelStatus)
			}
			row(w, i+1, m.MemberID, m.Kind(), m.DisplayName(), statusText(status), yesNo(view.IsPinnedChannel(m)))
		}
	})
}

func (a *app) channelGroupsShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <group-id>",
		Short: "Show a channel group with its ordered members and pointer",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			view, err := a.loadGroupView(cmd, args[0])
			if err != nil {
				return err
			}
			return a.renderGroup(cmd, view)
		},
	}
}

func addGroupFlags(cmd *cobra.Command) {
	cmd.Flags().String("description", "", "Description")
	cmd.Flags().String("multiplier", "", "Price multiplier (decimal)")
	cmd.Flags().Int("max-attempts", 0, "Maximum upstream attempts")
	cmd.Flags().Int("status", 1, "1 enabled, 0 disabled")
}

func createGroupRequest(cmd *cobra.Command, name string) api.CreateChannelGroupRequest {
	multiplier, _ := cmd.Flags().GetString("multiplier")
	attempts, _ := cmd.Flags().GetInt("max-attempts")
	return api.CreateChannelGroupRequest{
		Name:            name,
		Description:     stringFlag(cmd, "description"),
		PriceMultiplier: multiplier,
		MaxAttempts:     attempts,
		Status:          intFlag(cmd, "status"),
	}
}

func (a *app) channelGroupsCreateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a top-level channel group",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.connect()
			if err != nil {
				return err
			}
			id, err := c.CreateChannelGroup(cmd.Context(), createGroupRequest(cmd, args[0]))
			if err != nil {
				return err
			}
			return a.done(cmd, api.Created{ID: id}, "Created channel group #%d", id)
		},
	}
	addGroupFlags(cmd)
	return cmd
}

func (a *app) channelGroupsUpdateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "update <group-id>",
		Short: "Update a channel group; only the flags given are changed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := idArg("group_id", args[0])
			if err != nil {
				return err
			}
			c, err := a.connect()
			if err != nil {
				return err
			}
			req := api.UpdateChannelGroupRequest{
				Description:     stringFlag(cmd, "description"),
				PriceMultiplier: stringFlag(cmd, "multiplier"),
				MaxAttempts:     intFlag(cmd, "max-attempts"),
				Status:          intFlag(cmd, "status"),
			}
			if err := c.UpdateChannelGroup(cmd.Context(), id, req); err != nil {
				return err
			}
			return a.done(cmd, api.Created{ID: id}, "Updated channel group #%d", id)
		},
	}
	addGroupFlags(cmd)
	return cmd
}

func (a *app) channelGroupsDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <group-id>",
		Short: "Delete a channel group and its nested groups",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := idArg("group_id", args[0])
			if err != nil {
				return err
			}
			c, err := a.connect()
			if err != nil {
				return err
			}
			if err := c.DeleteChannelGroup(cmd.Context(), id); err != nil {
				return err
			}
			return a.done(cmd, api.Created{ID: id}, "Deleted channel group #%d", id)
		},
	}
}

func (a *app) channelGroupsAddChannelCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add-channel <group-id> <channel-id>",
		Short: "Append a channel to a group's members",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			view, err := a.loadGroupView(cmd, args[0])
			if err != nil {
				return err
			}
			channelID, err := idArg("channel_id", args[1])
			if err != nil {
				return err
			}
			if err := view.AddChannel(cmd.Context(), channelID); err != nil {
				return err
			}
			return a.renderGroup(cmd, view)
		},
	}
}

func (a *app) channelGroupsCreateChildCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create-child <group-id> <name>",
		Short: "Create a nested group as the last member of a group",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			view, err := a.loadGroupView(cmd, args[0])
			if err != nil {
				return err
			}
			if _, err := view.CreateChild(cmd.Context(), createGroupRequest(cmd, args[1])); err != nil {
				return err
			}
			return a.renderGroup(cmd, view)
		},
	}
	addGroupFlags(cmd)
	return cmd
}

func (a *app) channelGroupsRemoveMemberCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove-member <group-id> <position>",
		Short: "Remove the member at a position (as numbered by show)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			view, err := a.loadGroupView(cmd, args[0])
			if err != nil {
				return err
			}
			idx, err := positionArg(args[1], len(view.Members()))
			if err != nil {
				return err
			}
			if err := view.RemoveMember(cmd.Context(), idx); err != nil {
				return err
			}
			return a.renderGroup(cmd, view)
		},
	}
}

func (a *app) channelGroupsMoveCmd() *cobra.Command {
	var rollback bool

	cmd := &cobra.Command{
		Use:   "move <group-id> <position> <up|down>",
		Short: "Swap a member with its neighbour and save the whole order",
		Long: `Swap the member at <position> with the one above or below it and submit
the complete member order. Moves past either end do nothing.

If the save fails the new order is still shown, marked NOT SAVED, unless
--rollback is given.`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			var opts []console.ReorderOption
			if rollback {
				opts = append(opts, console.WithRollbackOnFailure())
			}
			view, err := a.loadGroupView(cmd, args[0], opts...)
			if err != nil {
				return err
			}
			idx, err := positionArg(args[1], len(view.Members()))
			if err != nil {
				return err
			}
			dir, err := directionArg(args[2])
			if err != nil {
				return err
			}

			moved, moveErr := view.MoveMember(cmd.Context(), idx, dir)
			if !moved {
				fmt.Fprintln(cmd.ErrOrStderr(), "Already at the edge; nothing to move.")
			}
			if err := a.renderGroup(cmd, view); err != nil {
				return err
			}
			return moveErr
		},
	}
	cmd.Flags().BoolVar(&rollback, "rollback", false, "Restore the previous order if the save fails")
	return cmd
}

func (a *app) channelGroupsPointerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pointer",
		Short: "Show or move a group's routing pointer",
	}

	showCmd := &cobra.Command{
		Use:   "show <group-id>",
		Short: "Show the pointer",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := idArg("group_id", args[0])
			if err != nil {
				return err
			}
			c, err := a.connect()
			if err != nil {
				return err
			}
			p, err := c.GetChannelGroupPointer(cmd.Context(), id)
			if err != nil {
				return err
			}
			return a.render(cmd, p, func(w io.Writer) {
				fmt.Fprintf(w, "Channel:\t%s (#%d)\n", p.ChannelName, p.ChannelID)
				fmt.Fprintf(w, "Pinned:\t%t\n", p.Pinned)
				if p.Note != "" {
					fmt.Fprintf(w, "Note:\t%s\n", p.Note)
				}
			})
		},
	}

	var unpinned bool
	setCmd := &cobra.Command{
		Use:   "set <group-id> <channel-id>",
		Short: "Point the group at a channel reachable from it",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			view, err := a.loadGroupView(cmd, args[0])
			if err != nil {
				return err
			}
			channelID, err := idArg("channel_id", args[1])
			if err != nil {
				return err
			}
			if unpinned {
				c, _ := a.connect()
				pinned := false
				err = c.UpdateChannelGroupPointer(cmd.Context(), view.GroupID(), api.UpdateChannelGroupPointerRequest{ChannelID: channelID, Pinned: &pinned})
				if err == nil {
					err = view.Load(cmd.Context())
				}
			} else {
				err = view.PinChannel(cmd.Context(), channelID)
			}
			if err != nil {
				return err
			}
			return a.renderGroup(cmd, view)
		},
	}
	setCmd.Flags().BoolVar(&unpinned, "unpinned", false, "Move the pointer without pinning it")

	clearCmd := &cobra.Command{
		Use:   "clear <group-id>",
		Short: "Clear the pointer",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			view, err := a.loadGroupView(cmd, args[0])
			if err != nil {
				return err
			}
			if err := view.ClearPointer(cmd.Context()); err != nil {
				return err
			}
			return a.renderGroup(cmd, view)
		},
	}

	candidatesCmd := &cobra.Command{
		Use:   "candidates <group-id>",
		Short: "List channels the pointer may target",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := idArg("group_id", args[0])
			if err != nil {
				return err
			}
			c, err := a.connect()
			if err != nil {
				return err
			}
			refs, err := c.ListChannelGroupPointerCandidates(cmd.Context(), id)
			if err != nil {
				return err
			}
			return a.render(cmd, refs, func(w io.Writer) {
				row(w, "ID", "NAME", "TYPE")
				for _, r := range refs {
					row(w, r.ID, r.Name, r.Type)
				}
			})
		},
	}

	cmd.AddCommand(showCmd, setCmd, clearCmd, candidatesCmd)
	return cmd
}
