package api

import "context"

type SubscriptionPlan struct {
	ID              int64  `json:"id"`
	Code            string `json:"code"`
	Name            string `json:"name"`
	GroupName       string `json:"group_name"`
	PriceMultiplier string `json:"price_multiplier"`
	PriceCNY        string `json:"price_cny"`
	DurationDays    int    `json:"duration_days"`
	Status          int    `json:"status"`

	Limit5h  string `json:"limit_5h,omitempty"`
	Limit1d  string `json:"limit_1d,omitempty"`
	Limit7d  string `json:"limit_7d,omitempty"`
	Limit30d string `json:"limit_30d,omitempty"`

	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

// SubscriptionPlanRequest is used for both create and update.
type SubscriptionPlanRequest struct {
	Code            string `json:"code,omitempty"`
	Name            string `json:"name"`
	GroupName       string `json:"group_name,omitempty"`
	PriceMultiplier string `json:"price_multiplier,omitempty"`
	PriceCNY        string `json:"price_cny"`
	DurationDays    int    `json:"duration_days"`
	Status          *int   `json:"status,omitempty"`

	Limit5h  string `json:"limit_5h,omitempty"`
	Limit1d  string `json:"limit_1d,omitempty"`
	Limit7d  string `json:"limit_7d,omitempty"`
	Limit30d string `json:"limit_30d,omitempty"`
}

type SubscriptionOrder struct {
	ID         int64  `json:"id"`
	UserEmail  string `json:"user_email"`
	PlanName   string `json:"plan_name"`
	GroupName  string `json:"group_name,omitempty"`
	AmountCNY  string `json:"amount_cny"`
	Status     int    `json:"status"`
	StatusText string `json:"status_text"`
	CreatedAt  string `json:"created_at"`
	PaidAt     string `json:"paid_at,omitempty"`
	ApprovedAt string `json:"approved_at,omitempty"`
}

const (
	plansPath  = "/api/admin/subscriptions"
	ordersPath = "/api/admin/orders"
)

func (c *Client) ListSubscriptionPlans(ctx context.Context) ([]SubscriptionPlan, error) {
	var out []SubscriptionPlan
	if err := c.get(ctx, plansPath, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) GetSubscriptionPlan(ctx context.Context, planID int64) (*SubscriptionPlan, error) {
	if err := requireID("plan_id", planID); err != nil {
		return nil, err
	}
	var out SubscriptionPlan
	if err := c.get(ctx, idPath(plansPath+"/%d", planID), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) CreateSubscriptionPlan(ctx context.Context, req SubscriptionPlanRequest) (int64, error) {
	if err := validatePlan(req); err != nil {
		return 0, err
	}
	var out Created
	if err := c.post(ctx, plansPath, req, &out); err != nil {
		return 0, err
	}
	return out.ID, nil
}

func (c *Client) UpdateSubscriptionPlan(ctx context.Context, planID int64, req SubscriptionPlanRequest) error {
	if err := requireID("plan_id", planID); err != nil {
		return err
	}
	if err := validatePlan(req); err != nil {
		return err
	}
	return c.put(ctx, idPath(plansPath+"/%d", planID), req, nil)
}

func (c *Client) DeleteSubscriptionPlan(ctx context.Context, planID int64) error {
	if err := requireID("plan_id", planID); err != nil {
		return err
	}
	return c.delete(ctx, idPath(plansPath+"/%d", planID), nil)
}

func (c *Client) ListSubscriptionOrders(ctx context.Context) ([]SubscriptionOrder, error) {
	var out []SubscriptionOrder
	if err := c.get(ctx, ordersPath, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) ApproveSubscriptionOrder(ctx context.Context, orderID int64) error {
	if err := requireID("order_id", orderID); err != nil {
		return err
	}
	return c.post(ctx, idPath(ordersPath+"/%d/approve", orderID), nil, nil)
}

func (c *Client) RejectSubscriptionOrder(ctx context.Context, orderID int64) error {
	if err := requireID("order_id", orderID); err != nil {
		return err
	}
	return c.post(ctx, idPath(ordersPath+"/%d/reject", orderID), nil, nil)
}

func validatePlan(req SubscriptionPlanRequest) error {
	if err := requireText("name", req.Name); err != nil {
		return err
	}
	if err := validateDecimal("price_cny", req.PriceCNY); err != nil {
		return err
	}
	if req.DurationDays <= 0 {
		return &ValidationError{Field: "duration_days", Reason: "must be a positive integer"}
	}
	if req.PriceMultiplier != "" {
		if err := validateDecimal("price_multiplier", req.PriceMultiplier); err != nil {
			return err
		}
	}
	limits := []struct{ field, value string }{
		{"limit_5h", req.Limit5h},
		{"limit_1d", req.Limit1d},
		{"limit_7d", req.Limit7d},
		{"limit_30d", req.Limit30d},
	}
	for _, l := range limits {
		if l.value == "" {
			continue
		}
		if err := validateDecimal(l.field, l.value); err != nil {
			return err
		}
	}
	if req.Status != nil {
		if err := validateStatus("status", *req.Status); err != nil {
			return err
		}
	}
	return nil
}
