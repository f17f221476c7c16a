package cli

import (
	"io"

	"github.com/spf13/cobra"

	"github.com/FlowerRealm/realms-admin/internal/api"
	"github.com/FlowerRealm/realms-admin/internal/console"
)

func (a *app) usersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "users",
		Short: "Manage user accounts",
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List users",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.connect()
			if err != nil {
				return err
			}
			view := console.NewListView(c.ListUsers)
			if err := view.Load(cmd.Context()); err != nil {
				return err
			}
			return a.render(cmd, view.Rows, func(w io.Writer) {
				row(w, "ID", "EMAIL", "USERNAME", "GROUP", "ROLE", "STATUS", "BALANCE USD")
				for _, u := range view.Rows {
					row(w, u.ID, u.Email, u.Username, u.UserGroup, u.Role, statusText(u.Status), u.BalanceUSD)
				}
			})
		},
	}

	var create api.CreateUserRequest
	createCmd := &cobra.Command{
		Use:   "create <email>",
		Short: "Create a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.connect()
			if err != nil {
				return err
			}
			req := create
			req.Email = args[0]
			id, err := c.CreateUser(cmd.Context(), req)
			if err != nil {
				return err
			}
			return a.done(cmd, api.Created{ID: id}, "Created user #%d", id)
		},
	}
	createCmd.Flags().StringVar(&create.Username, "username", "", "Username")
	createCmd.Flags().StringVar(&create.Password, "password", "", "Initial password")
	createCmd.Flags().StringVar(&create.Role, "role", "user", "Role (user or root)")
	createCmd.Flags().StringVar(&create.UserGroup, "group", "", "Main group")

	updateCmd := &cobra.Command{
		Use:   "update <user-id>",
		Short: "Update a user; only the flags given are changed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := idArg("user_id", args[0])
			if err != nil {
				return err
			}
			c, err := a.connect()
			if err != nil {
				return err
			}
			req := api.UpdateUserRequest{
				Email:     stringFlag(cmd, "email"),
				Status:    intFlag(cmd, "status"),
				Role:      stringFlag(cmd, "role"),
				UserGroup: stringFlag(cmd, "group"),
			}
			if err := c.UpdateUser(cmd.Context(), id, req); err != nil {
				return err
			}
			return a.done(cmd, api.Created{ID: id}, "Updated user #%d", id)
		},
	}
	updateCmd.Flags().String("email", "", "Email")
	updateCmd.Flags().Int("status", 1, "1 enabled, 0 disabled")
	updateCmd.Flags().String("role", "", "Role")
	updateCmd.Flags().String("group", "", "Main group")

	passwordCmd := &cobra.Command{
		Use:   "password <user-id> <new-password>",
		Short: "Reset a user's password",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := idArg("user_id", args[0])
			if err != nil {
				return err
			}
			c, err := a.connect()
			if err != nil {
				return err
			}
			if err := c.ResetUserPassword(cmd.Context(), id, args[1]); err != nil {
				return err
			}
			return a.done(cmd, api.Created{ID: id}, "Password reset for user #%d", id)
		},
	}

	var note string
	balanceCmd := &cobra.Command{
		Use:   "balance <user-id> <amount-usd>",
		Short: "Add a signed decimal amount to a user's balance",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := idArg("user_id", args[0])
			if err != nil {
				return err
			}
			c, err := a.connect()
			if err != nil {
				return err
			}
			bal, err := c.AddUserBalance(cmd.Context(), id, args[1], note)
			if err != nil {
				return err
			}
			return a.done(cmd, map[string]string{"balance_usd": bal}, "User #%d balance: %s USD", id, bal)
		},
	}
	balanceCmd.Flags().StringVar(&note, "note", "", "Note recorded with the adjustment")

	deleteCmd := &cobra.Command{
		Use:   "delete <user-id>",
		Short: "Delete a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := idArg("user_id", args[0])
			if err != nil {
				return err
			}
			c, err := a.connect()
			if err != nil {
				return err
			}
			if err := c.DeleteUser(cmd.Context(), id); err != nil {
				return err
			}
			return a.done(cmd, api.Created{ID: id}, "Deleted user #%d", id)
		},
	}

	cmd.AddCommand(listCmd, createCmd, updateCmd, passwordCmd, balanceCmd, deleteCmd)
	return cmd
}
