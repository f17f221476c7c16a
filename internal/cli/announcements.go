package cli

import (
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/FlowerRealm/realms-admin/internal/api"
	"github.com/FlowerRealm/realms-admin/internal/console"
)

func (a *app) announcementsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "announcements",
		Short: "Publish and withdraw announcements",
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List announcements, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.connect()
			if err != nil {
				return err
			}
			view := console.NewListView(c.ListAnnouncements)
			if err := view.Load(cmd.Context()); err != nil {
				return err
			}
			return a.render(cmd, view.Rows, func(w io.Writer) {
				row(w, "ID", "TITLE", "STATUS", "CREATED")
				for _, an := range view.Rows {
					row(w, an.ID, an.Title, statusText(an.Status), an.CreatedAt)
				}
			})
		},
	}

	var body string
	createCmd := &cobra.Command{
		Use:   "create <title>",
		Short: "Create an announcement",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.connect()
			if err != nil {
				return err
			}
			id, err := c.CreateAnnouncement(cmd.Context(), api.CreateAnnouncementRequest{Title: args[0], Body: body, Status: intFlag(cmd, "status")})
			if err != nil {
				return err
			}
			return a.done(cmd, api.Created{ID: id}, "Created announcement #%d", id)
		},
	}
	createCmd.Flags().StringVarP(&body, "body", "m", "", "Announcement text")
	createCmd.Flags().Int("status", 1, "1 published, 0 hidden")

	statusCmd := &cobra.Command{
		Use:   "status <announcement-id> <0|1>",
		Short: "Publish (1) or hide (0) an announcement",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := idArg("announcement_id", args[0])
			if err != nil {
				return err
			}
			status, err := strconv.Atoi(args[1])
			if err != nil {
				return &api.ValidationError{Field: "status", Reason: "must be 0 or 1"}
			}
			c, err := a.connect()
			if err != nil {
				return err
			}
			if err := c.SetAnnouncementStatus(cmd.Context(), id, status); err != nil {
				return err
			}
			return a.done(cmd, api.Created{ID: id}, "Announcement #%d is now %s", id, statusText(status))
		},
	}

	deleteCmd := &cobra.Command{
		Use:   "delete <announcement-id>",
		Short: "Delete an announcement",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := idArg("announcement_id", args[0])
			if err != nil {
				return err
			}
			c, err := a.connect()
			if err != nil {
				return err
			}
			if err := c.DeleteAnnouncement(cmd.Context(), id); err != nil {
				return err
			}
			return a.done(cmd, api.Created{ID: id}, "Deleted announcement #%d", id)
		},
	}

	cmd.AddCommand(listCmd, createCmd, statusCmd, deleteCmd)
	return cmd
}
