package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/FlowerRealm/realms-admin/internal/api"
	"github.com/FlowerRealm/realms-admin/internal/console"
)

func (a *app) ticketsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tickets",
		Short: "Read, answer and close support tickets",
	}

	var status string
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List tickets",
		RunE: func(cmd *cobra.Command, args []string) error {
			filter, err := api.ParseTicketStatusFilter(status)
			if err != nil {
				return err
			}
			c, err := a.connect()
			if err != nil {
				return err
			}
			view := console.NewListView(func(ctx context.Context) ([]api.TicketListItem, error) {
				return c.ListTickets(ctx, filter)
			})
			if err := view.Load(cmd.Context()); err != nil {
				return err
			}
			return a.render(cmd, view.Rows, func(w io.Writer) {
				row(w, "ID", "USER", "SUBJECT", "STATUS", "LAST MESSAGE")
				for _, t := range view.Rows {
					row(w, t.ID, t.UserEmail, t.Subject, t.StatusText, t.LastMessageAt)
				}
			})
		},
	}
	listCmd.Flags().StringVar(&status, "status", "all", "all, open or closed")

	showCmd := &cobra.Command{
		Use:   "show <ticket-id>",
		Short: "Show a ticket with its messages",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := idArg("ticket_id", args[0])
			if err != nil {
				return err
			}
			c, err := a.connect()
			if err != nil {
				return err
			}
			d, err := c.GetTicket(cmd.Context(), id)
			if err != nil {
				return err
			}
			return a.render(cmd, d, func(w io.Writer) {
				fmt.Fprintf(w, "Ticket:\t#%d %s\n", d.Ticket.ID, d.Ticket.Subject)
				fmt.Fprintf(w, "User:\t%s\n", d.Ticket.UserEmail)
				fmt.Fprintf(w, "Status:\t%s\n", d.Ticket.StatusText)
				for _, m := range d.Messages {
					fmt.Fprintf(w, "\n[%s] %s (%s)\n", m.CreatedAt, m.Actor, m.ActorMeta)
					for _, line := range strings.Split(m.Body, "\n") {
						fmt.Fprintf(w, "  %s\n", line)
					}
					for _, att := range m.Attachments {
						fmt.Fprintf(w, "  attachment: %s (%s) %s\n", att.Name, att.Size, att.URL)
					}
				}
			})
		},
	}

	var (
		body    string
		attachs []string
	)
	replyCmd := &cobra.Command{
		Use:   "reply <ticket-id>",
		Short: "Reply to a ticket, optionally with file attachments",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := idArg("ticket_id", args[0])
			if err != nil {
				return err
			}
			files := make([]api.Attachment, 0, len(attachs))
			for _, path := range attachs {
				att, err := api.OpenAttachment(path)
				if err != nil {
					return err
				}
				files = append(files, att)
			}
			c, err := a.connect()
			if err != nil {
				return err
			}
			if err := c.ReplyTicket(cmd.Context(), id, body, files); err != nil {
				return err
			}
			return a.done(cmd, api.Created{ID: id}, "Replied to ticket #%d", id)
		},
	}
	replyCmd.Flags().StringVarP(&body, "body", "m", "", "Reply text")
	replyCmd.Flags().StringArrayVarP(&attachs, "attach", "a", nil, "File to attach (repeatable)")

	closeCmd := &cobra.Command{
		Use:   "close <ticket-id>",
		Short: "Close a ticket",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.ticketTransition(cmd, args[0], true)
		},
	}
	reopenCmd := &cobra.Command{
		Use:   "reopen <ticket-id>",
		Short: "Reopen a closed ticket",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.ticketTransition(cmd, args[0], false)
		},
	}

	cmd.AddCommand(listCmd, showCmd, replyCmd, closeCmd, reopenCmd)
	return cmd
}

func (a *app) ticketTransition(cmd *cobra.Command, raw string, closing bool) error {
	id, err := idArg("ticket_id", raw)
	if err != nil {
		return err
	}
	c, err := a.connect()
	if err != nil {
		return err
	}
	if closing {
		err = c.CloseTicket(cmd.Context(), id)
	} else {
		err = c.ReopenTicket(cmd.Context(), id)
	}
	if err != nil {
		return err
	}
	verb := "Reopened"
	if closing {
		verb = "Closed"
	}
	return a.done(cmd, api.Created{ID: id}, "%s ticket #%d", verb, id)
}
