package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/FlowerRealm/realms-admin/internal/api"
	"github.com/FlowerRealm/realms-admin/internal/console"
)

func (a *app) paymentChannelsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "payment-channels",
		Short: "Manage Stripe and EPay payment channels",
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List payment channels",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.connect()
			if err != nil {
				return err
			}
			view := console.NewListView(c.ListPaymentChannels)
			if err := view.Load(cmd.Context()); err != nil {
				return err
			}
			return a.render(cmd, view.Rows, func(w io.Writer) {
				row(w, "ID", "TYPE", "NAME", "STATUS", "USABLE", "WEBHOOK")
				for _, pc := range view.Rows {
					row(w, pc.ID, pc.TypeLabel, pc.Name, statusText(pc.Status), yesNo(pc.Usable), pc.WebhookURL)
				}
			})
		},
	}

	var create api.CreatePaymentChannelRequest
	createCmd := &cobra.Command{
		Use:   "create <stripe|epay> <name>",
		Short: "Create a payment channel",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.connect()
			if err != nil {
				return err
			}
			req := create
			req.Type, req.Name = args[0], args[1]
			id, err := c.CreatePaymentChannel(cmd.Context(), req)
			if err != nil {
				return err
			}
			return a.done(cmd, api.Created{ID: id}, "Created payment channel #%d", id)
		},
	}
	createCmd.Flags().BoolVar(&create.Enabled, "enabled", true, "Enable the channel")
	createCmd.Flags().StringVar(&create.StripeCurrency, "stripe-currency", "", "Stripe currency, e.g. cny")
	createCmd.Flags().StringVar(&create.StripeSecretKey, "stripe-secret-key", "", "Stripe secret key")
	createCmd.Flags().StringVar(&create.StripeWebhookSecret, "stripe-webhook-secret", "", "Stripe webhook signing secret")
	createCmd.Flags().StringVar(&create.EPayGateway, "epay-gateway", "", "EPay gateway URL")
	createCmd.Flags().StringVar(&create.EPayPartnerID, "epay-partner-id", "", "EPay partner id")
	createCmd.Flags().StringVar(&create.EPayKey, "epay-key", "", "EPay key")

	updateCmd := &cobra.Command{
		Use:   "update <payment-channel-id>",
		Short: "Update a payment channel; secrets left out are kept",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := idArg("payment_channel_id", args[0])
			if err != nil {
				return err
			}
			c, err := a.connect()
			if err != nil {
				return err
			}
			req := api.UpdatePaymentChannelRequest{
				Name:                stringFlag(cmd, "name"),
				Enabled:             boolFlag(cmd, "enabled"),
				StripeCurrency:      stringFlag(cmd, "stripe-currency"),
				StripeSecretKey:     stringFlag(cmd, "stripe-secret-key"),
				StripeWebhookSecret: stringFlag(cmd, "stripe-webhook-secret"),
				EPayGateway:         stringFlag(cmd, "epay-gateway"),
				EPayPartnerID:       stringFlag(cmd, "epay-partner-id"),
				EPayKey:             stringFlag(cmd, "epay-key"),
			}
			if err := c.UpdatePaymentChannel(cmd.Context(), id, req); err != nil {
				return err
			}
			return a.done(cmd, api.Created{ID: id}, "Updated payment channel #%d", id)
		},
	}
	updateCmd.Flags().String("name", "", "Name")
	updateCmd.Flags().Bool("enabled", true, "Enable or disable the channel")
	updateCmd.Flags().String("stripe-currency", "", "Stripe currency")
	updateCmd.Flags().String("stripe-secret-key", "", "Stripe secret key")
	updateCmd.Flags().String("stripe-webhook-secret", "", "Stripe webhook signing secret")
	updateCmd.Flags().String("epay-gateway", "", "EPay gateway URL")
	updateCmd.Flags().String("epay-partner-id", "", "EPay partner id")
	updateCmd.Flags().String("epay-key", "", "EPay key")

	deleteCmd := &cobra.Command{
		Use:   "delete <payment-channel-id>",
		Short: "Delete a payment channel",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := idArg("payment_channel_id", args[0])
			if err != nil {
				return err
			}
			c, err := a.connect()
			if err != nil {
				return err
			}
			if err := c.DeletePaymentChannel(cmd.Context(), id); err != nil {
				return err
			}
			return a.done(cmd, api.Created{ID: id}, "Deleted payment channel #%d", id)
		},
	}

	cmd.AddCommand(listCmd, createCmd, updateCmd, deleteCmd)
	return cmd
}

func addPlanFlags(cmd *cobra.Command, req *api.SubscriptionPlanRequest) {
	cmd.Flags().StringVar(&req.Code, "code", "", "Plan code (generated when empty)")
	cmd.Flags().StringVar(&req.GroupName, "group", "", "Main group granted by the plan")
	cmd.Flags().StringVar(&req.PriceCNY, "price-cny", "", "Price in CNY (decimal)")
	cmd.Flags().StringVar(&req.PriceMultiplier, "multiplier", "", "Price multiplier (decimal)")
	cmd.Flags().IntVar(&req.DurationDays, "days", 30, "Duration in days")
	cmd.Flags().StringVar(&req.Limit5h, "limit-5h", "", "USD limit per 5 hours")
	cmd.Flags().StringVar(&req.Limit1d, "limit-1d", "", "USD limit per day")
	cmd.Flags().StringVar(&req.Limit7d, "limit-7d", "", "USD limit per 7 days")
	cmd.Flags().StringVar(&req.Limit30d, "limit-30d", "", "USD limit per 30 days")
	cmd.Flags().Int("status", 1, "1 enabled, 0 disabled")
}

func (a *app) plansCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plans",
		Short: "Manage subscription plans",
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List subscription plans",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.connect()
			if err != nil {
				return err
			}
			view := console.NewListView(c.ListSubscriptionPlans)
			if err := view.Load(cmd.Context()); err != nil {
				return err
			}
			return a.render(cmd, view.Rows, func(w io.Writer) {
				row(w, "ID", "CODE", "NAME", "GROUP", "PRICE CNY", "DAYS", "STATUS")
				for _, p := range view.Rows {
					row(w, p.ID, p.Code, p.Name, p.GroupName, p.PriceCNY, p.DurationDays, statusText(p.Status))
				}
			})
		},
	}

	showCmd := &cobra.Command{
		Use:   "show <plan-id>",
		Short: "Show a subscription plan",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := idArg("plan_id", args[0])
			if err != nil {
				return err
			}
			c, err := a.connect()
			if err != nil {
				return err
			}
			p, err := c.GetSubscriptionPlan(cmd.Context(), id)
			if err != nil {
				return err
			}
			return a.render(cmd, p, func(w io.Writer) {
				fmt.Fprintf(w, "ID:\t%d\n", p.ID)
				fmt.Fprintf(w, "Code:\t%s\n", p.Code)
				fmt.Fprintf(w, "Name:\t%s\n", p.Name)
				fmt.Fprintf(w, "Group:\t%s\n", p.GroupName)
				fmt.Fprintf(w, "Price:\t%s CNY x%s\n", p.PriceCNY, p.PriceMultiplier)
				fmt.Fprintf(w, "Duration:\t%d days\n", p.DurationDays)
				fmt.Fprintf(w, "Limits:\t5h=%s 1d=%s 7d=%s 30d=%s\n", p.Limit5h, p.Limit1d, p.Limit7d, p.Limit30d)
				fmt.Fprintf(w, "Status:\t%s\n", statusText(p.Status))
			})
		},
	}

	var create api.SubscriptionPlanRequest
	createCmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a subscription plan",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.connect()
			if err != nil {
				return err
			}
			req := create
			req.Name = args[0]
			req.Status = intFlag(cmd, "status")
			id, err := c.CreateSubscriptionPlan(cmd.Context(), req)
			if err != nil {
				return err
			}
			return a.done(cmd, api.Created{ID: id}, "Created plan #%d", id)
		},
	}
	addPlanFlags(createCmd, &create)

	var update api.SubscriptionPlanRequest
	updateCmd := &cobra.Command{
		Use:   "update <plan-id> <name>",
		Short: "Replace a subscription plan's fields",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := idArg("plan_id", args[0])
			if err != nil {
				return err
			}
			c, err := a.connect()
			if err != nil {
				return err
			}
			req := update
			req.Name = args[1]
			req.Status = intFlag(cmd, "status")
			if err := c.UpdateSubscriptionPlan(cmd.Context(), id, req); err != nil {
				return err
			}
			return a.done(cmd, api.Created{ID: id}, "Updated plan #%d", id)
		},
	}
	addPlanFlags(updateCmd, &update)

	deleteCmd := &cobra.Command{
		Use:   "delete <plan-id>",
		Short: "Delete a subscription plan",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := idArg("plan_id", args[0])
			if err != nil {
				return err
			}
			c, err := a.connect()
			if err != nil {
				return err
			}
			if err := c.DeleteSubscriptionPlan(cmd.Context(), id); err != nil {
				return err
			}
			return a.done(cmd, api.Created{ID: id}, "Deleted plan #%d", id)
		},
	}

	cmd.AddCommand(listCmd, showCmd, createCmd, updateCmd, deleteCmd)
	return cmd
}

func (a *app) ordersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "orders",
		Short: "Review subscription orders",
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List subscription orders",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.connect()
			if err != nil {
				return err
			}
			view := console.NewListView(c.ListSubscriptionOrders)
			if err := view.Load(cmd.Context()); err != nil {
				return err
			}
			return a.render(cmd, view.Rows, func(w io.Writer) {
				row(w, "ID", "USER", "PLAN", "AMOUNT CNY", "STATUS", "CREATED")
				for _, o := range view.Rows {
					row(w, o.ID, o.UserEmail, o.PlanName, o.AmountCNY, o.StatusText, o.CreatedAt)
				}
			})
		},
	}

	decide := func(approve bool) *cobra.Command {
		use, short, verb := "approve", "Approve a pending order", "Approved"
		if !approve {
			use, short, verb = "reject", "Reject a pending order", "Rejected"
		}
		return &cobra.Command{
			Use:   use + " <order-id>",
			Short: short,
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				id, err := idArg("order_id", args[0])
				if err != nil {
					return err
				}
				c, err := a.connect()
				if err != nil {
					return err
				}
				if approve {
					err = c.ApproveSubscriptionOrder(cmd.Context(), id)
				} else {
					err = c.RejectSubscriptionOrder(cmd.Context(), id)
				}
				if err != nil {
					return err
				}
				return a.done(cmd, api.Created{ID: id}, "%s order #%d", verb, id)
			},
		}
	}

	cmd.AddCommand(listCmd, decide(true), decide(false))
	return cmd
}
