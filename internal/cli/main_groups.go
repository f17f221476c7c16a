package cli

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/FlowerRealm/realms-admin/internal/api"
	"github.com/FlowerRealm/realms-admin/internal/console"
	"github.com/FlowerRealm/realms-admin/internal/drafts"
	"github.com/FlowerRealm/realms-admin/internal/ordering"
)

func (a *app) mainGroupsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "main-groups",
		Aliases: []string{"mg"},
		Short:   "Manage main groups and the channel groups bound to them",
	}

	cmd.AddCommand(a.mainGroupsListCmd())
	cmd.AddCommand(a.mainGroupsShowCmd())
	cmd.AddCommand(a.mainGroupsCreateCmd())
	cmd.AddCommand(a.mainGroupsUpdateCmd())
	cmd.AddCommand(a.mainGroupsDeleteCmd())
	cmd.AddCommand(a.subgroupsCmd())
	return cmd
}

func (a *app) mainGroupsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List main groups",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.connect()
			if err != nil {
				return err
			}
			view := console.NewListView(c.ListMainGroups)
			if err := view.Load(cmd.Context()); err != nil {
				return err
			}
			return a.render(cmd, view.Rows, func(w io.Writer) {
				row(w, "NAME", "STATUS", "DESCRIPTION", "UPDATED")
				for _, g := range view.Rows {
					row(w, g.Name, statusText(g.Status), deref(g.Description), g.UpdatedAt)
				}
			})
		},
	}
}

func (a *app) mainGroupsShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <name>",
		Short: "Show a main group and its subgroups",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.connect()
			if err != nil {
				return err
			}
			g, err := c.GetMainGroup(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			rows, err := c.ListMainGroupSubgroups(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			out := struct {
				Group     *api.MainGroup          `json:"group"`
				Subgroups []api.MainGroupSubgroup `json:"subgroups"`
			}{g, rows}
			return a.render(cmd, out, func(w io.Writer) {
				fmt.Fprintf(w, "Name:\t%s\n", g.Name)
				fmt.Fprintf(w, "Status:\t%s\n", statusText(g.Status))
				fmt.Fprintf(w, "Description:\t%s\n\n", deref(g.Description))
				row(w, "#", "SUBGROUP", "PRIORITY")
				for i, r := range rows {
					row(w, i+1, r.Subgroup, r.Priority)
				}
			})
		},
	}
}

func (a *app) mainGroupsCreateCmd() *cobra.Command {
	var description string
	cmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a main group bound to the default subgroup",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.connect()
			if err != nil {
				return err
			}
			req := api.CreateMainGroupRequest{Name: args[0], Description: description, Status: intFlag(cmd, "status")}
			if err := c.CreateMainGroup(cmd.Context(), req); err != nil {
				return err
			}
			return a.done(cmd, req, "Created main group %s", strings.TrimSpace(args[0]))
		},
	}
	cmd.Flags().StringVar(&description, "description", "", "Description")
	cmd.Flags().Int("status", 1, "1 enabled, 0 disabled")
	return cmd
}

func (a *app) mainGroupsUpdateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "update <name>",
		Short: "Rename or edit a main group",
		Long: `Update a main group. Description and status are always sent: flags that are
not given keep the current value.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.connect()
			if err != nil {
				return err
			}
			cur, err := c.GetMainGroup(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			req := api.UpdateMainGroupRequest{Description: deref(cur.Description), Status: cur.Status}
			if v := stringFlag(cmd, "new-name"); v != nil {
				req.NewName = *v
			}
			if v := stringFlag(cmd, "description"); v != nil {
				req.Description = *v
			}
			if v := intFlag(cmd, "status"); v != nil {
				req.Status = *v
			}
			if err := c.UpdateMainGroup(cmd.Context(), args[0], req); err != nil {
				return err
			}
			return a.done(cmd, req, "Updated main group %s", cur.Name)
		},
	}
	cmd.Flags().String("new-name", "", "Rename the group")
	cmd.Flags().String("description", "", "Description")
	cmd.Flags().Int("status", 1, "1 enabled, 0 disabled")
	return cmd
}

func (a *app) mainGroupsDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <name>",
		Short: "Delete a main group no user belongs to",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.connect()
			if err != nil {
				return err
			}
			if err := c.DeleteMainGroup(cmd.Context(), args[0]); err != nil {
				return err
			}
			return a.done(cmd, map[string]string{"deleted": args[0]}, "Deleted main group %s", args[0])
		},
	}
}

// subgroupSession is one subgroup edit, resumed from a draft when one exists.
type subgroupSession struct {
	store  *drafts.Store
	key    drafts.Key
	editor *console.SubgroupEditor
	// fromDraft is true when the working set came from the draft store.
	fromDraft bool
}

func (a *app) openSubgroups(cmd *cobra.Command, name string) (*subgroupSession, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, &api.ValidationError{Field: "name", Reason: "is required"}
	}
	c, err := a.connect()
	if err != nil {
		return nil, err
	}
	store, err := drafts.NewStore(a.cfg.Drafts.Path)
	if err != nil {
		return nil, err
	}
	s := &subgroupSession{
		store:  store,
		key:    drafts.Key{BaseURL: c.BaseURL(), Kind: drafts.KindSubgroups, Parent: name},
		editor: console.NewSubgroupEditor(c, name),
	}

	d, err := store.Get(s.key)
	switch {
	case err == nil:
		s.editor.Restore(d.Base, d.Working)
		s.fromDraft = true
	case errors.Is(err, drafts.ErrNotFound):
		if err := s.editor.Load(cmd.Context()); err != nil {
			store.Close()
			return nil, err
		}
	default:
		store.Close()
		return nil, err
	}
	return s, nil
}

func (s *subgroupSession) Close() error {
	return s.store.Close()
}

// stage writes the working set back to the draft store and journals the edit.
func (s *subgroupSession) stage(action, detail string) error {
	if err := s.store.Save(&drafts.Draft{Key: s.key, Base: s.editor.Base(), Working: s.editor.Names()}); err != nil {
		return err
	}
	return s.store.Record(s.key, action, detail)
}

type subgroupOutput struct {
	Group      string              `json:"group"`
	Base       []string            `json:"base"`
	Working    []string            `json:"working"`
	Dirty      bool                `json:"dirty"`
	Draft      bool                `json:"draft"`
	Candidates []console.Candidate `json:"candidates,omitempty"`
}

func (a *app) renderSubgroups(cmd *cobra.Command, s *subgroupSession, candidates []console.Candidate) error {
	ed := s.editor
	out := subgroupOutput{
		Group:      ed.Group(),
		Base:       ed.Base(),
		Working:    ed.Names(),
		Dirty:      ed.Dirty(),
		Draft:      s.fromDraft || ed.Dirty(),
		Candidates: candidates,
	}
	return a.render(cmd, out, func(w io.Writer) {
		state := "saved"
		if out.Dirty {
			state = "draft (unsaved; run save or discard)"
		}
		fmt.Fprintf(w, "Main group:\t%s\n", out.Group)
		fmt.Fprintf(w, "State:\t%s\n\n", state)
		row(w, "#", "SUBGROUP", "")
		for i, name := range out.Working {
			mark := ""
			if ordering.IndexOf(out.Base, name) < 0 {
				mark = "added"
			}
			row(w, i+1, name, mark)
		}
		for _, name := range out.Base {
			if ordering.IndexOf(out.Working, name) < 0 {
				row(w, "-", name, "removed")
			}
		}
		if len(candidates) > 0 {
			fmt.Fprintln(w)
			row(w, "CANDIDATE", "MULTIPLIER", "AVAILABLE")
			for _, c := range candidates {
				row(w, c.Name, c.PriceMultiplier, yesNo(c.Available))
			}
		}
	})
}

func (a *app) subgroupsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "subgroups",
		Short: "Edit the ordered channel groups bound to a main group",
		Long: `Subgroup edits are staged in a local draft until "save" submits the whole
set in one request. "discard" drops the draft. "reorder" skips the draft and
saves each move immediately.`,
	}

	var withCandidates bool
	showCmd := &cobra.Command{
		Use:   "show <name>",
		Short: "Show the draft (or server) subgroup set",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.openSubgroups(cmd, args[0])
			if err != nil {
				return err
			}
			defer s.Close()

			var candidates []console.Candidate
			if withCandidates {
				c, _ := a.connect()
				view := console.NewMainGroupsView(c)
				if err := view.Load(cmd.Context()); err != nil {
					return err
				}
				candidates = view.Candidates(s.editor.Names())
			}
			return a.renderSubgroups(cmd, s, candidates)
		},
	}
	showCmd.Flags().BoolVar(&withCandidates, "candidates", false, "Also list channel groups that can be added")

	addCmd := &cobra.Command{
		Use:   "add <name> <subgroup>...",
		Short: "Append subgroups to the draft",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.openSubgroups(cmd, args[0])
			if err != nil {
				return err
			}
			defer s.Close()
			var added []string
			for _, name := range args[1:] {
				if s.editor.Add(name) {
					added = append(added, strings.TrimSpace(name))
				}
			}
			if len(added) > 0 {
				if err := s.stage("add", strings.Join(added, ",")); err != nil {
					return err
				}
			}
			return a.renderSubgroups(cmd, s, nil)
		},
	}

	removeCmd := &cobra.Command{
		Use:   "remove <name> <subgroup>...",
		Short: "Remove subgroups from the draft",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.openSubgroups(cmd, args[0])
			if err != nil {
				return err
			}
			defer s.Close()
			var removed []string
			for _, name := range args[1:] {
				if s.editor.Remove(name) {
					removed = append(removed, strings.TrimSpace(name))
				}
			}
			if len(removed) > 0 {
				if err := s.stage("remove", strings.Join(removed, ",")); err != nil {
					return err
				}
			}
			return a.renderSubgroups(cmd, s, nil)
		},
	}

	moveCmd := &cobra.Command{
		Use:   "move <name> <position> <up|down>",
		Short: "Swap a subgroup with its neighbour in the draft",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.openSubgroups(cmd, args[0])
			if err != nil {
				return err
			}
			defer s.Close()
			idx, err := positionArg(args[1], len(s.editor.Names()))
			if err != nil {
				return err
			}
			dir, err := directionArg(args[2])
			if err != nil {
				return err
			}
			if s.editor.Move(idx, dir) {
				if err := s.stage("move", fmt.Sprintf("%d %s", idx+1, dir)); err != nil {
					return err
				}
			}
			return a.renderSubgroups(cmd, s, nil)
		},
	}

	saveCmd := &cobra.Command{
		Use:   "save <name>",
		Short: "Submit the draft as the complete subgroup set",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.openSubgroups(cmd, args[0])
			if err != nil {
				return err
			}
			defer s.Close()
			if err := s.editor.Save(cmd.Context()); err != nil {
				if rerr := s.store.Record(s.key, "submit_failed", api.Message(err)); rerr != nil {
					a.log.Warn("failed to journal draft", "draft", s.key.String(), "error", rerr)
				}
				return err
			}
			if err := s.store.Delete(s.key); err != nil {
				return err
			}
			if err := s.store.Record(s.key, "submitted", strings.Join(s.editor.Names(), ",")); err != nil {
				return err
			}
			// Reload so the output shows what the server kept.
			if err := s.editor.Load(cmd.Context()); err != nil {
				return err
			}
			s.fromDraft = false
			return a.renderSubgroups(cmd, s, nil)
		},
	}

	discardCmd := &cobra.Command{
		Use:   "discard <name>",
		Short: "Drop the draft",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.connect()
			if err != nil {
				return err
			}
			store, err := drafts.NewStore(a.cfg.Drafts.Path)
			if err != nil {
				return err
			}
			defer store.Close()
			key := drafts.Key{BaseURL: c.BaseURL(), Kind: drafts.KindSubgroups, Parent: strings.TrimSpace(args[0])}
			if err := store.Delete(key); err != nil {
				return err
			}
			if err := store.Record(key, "discarded", ""); err != nil {
				return err
			}
			return a.done(cmd, map[string]string{"discarded": key.Parent}, "Discarded draft for %s", key.Parent)
		},
	}

	draftsCmd := &cobra.Command{
		Use:   "drafts",
		Short: "List unsaved subgroup drafts for this deployment",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.connect()
			if err != nil {
				return err
			}
			store, err := drafts.NewStore(a.cfg.Drafts.Path)
			if err != nil {
				return err
			}
			defer store.Close()
			list, err := store.List(c.BaseURL())
			if err != nil {
				return err
			}
			return a.render(cmd, list, func(w io.Writer) {
				row(w, "MAIN GROUP", "WORKING SET", "UPDATED")
				for _, d := range list {
					row(w, d.Parent, strings.Join(d.Working, ", "), d.UpdatedAt.Local().Format("2006-01-02 15:04"))
				}
			})
		},
	}

	var rollback bool
	reorderCmd := &cobra.Command{
		Use:   "reorder <name> <position> <up|down>",
		Short: "Swap a subgroup with its neighbour and save immediately",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.connect()
			if err != nil {
				return err
			}
			opts := []console.ReorderOption{console.WithLogger(a.log)}
			if rollback {
				opts = append(opts, console.WithRollbackOnFailure())
			}
			view := console.NewSubgroupOrderView(c, strings.TrimSpace(args[0]), opts...)
			if err := view.Reload(cmd.Context()); err != nil {
				return err
			}
			idx, err := positionArg(args[1], len(view.Items()))
			if err != nil {
				return err
			}
			dir, err := directionArg(args[2])
			if err != nil {
				return err
			}
			_, moveErr := view.Move(cmd.Context(), idx, dir)
			state := view.State()
			if err := a.render(cmd, state, func(w io.Writer) {
				if state.Phase == console.PhasePersistFailed {
					fmt.Fprintf(w, "NOT SAVED:\t%s\n\n", state.Err)
				}
				row(w, "#", "SUBGROUP")
				for i, name := range state.Items {
					row(w, i+1, name)
				}
			}); err != nil {
				return err
			}
			return moveErr
		},
	}
	reorderCmd.Flags().BoolVar(&rollback, "rollback", false, "Restore the previous order if the save fails")

	cmd.AddCommand(showCmd, addCmd, removeCmd, moveCmd, saveCmd, discardCmd, draftsCmd, reorderCmd)
	return cmd
}
