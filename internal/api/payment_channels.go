package api

import (
	"context"
	"strings"
)

// Payment channel types accepted by the server.
const (
	PaymentChannelStripe = "stripe"
	PaymentChannelEPay   = "epay"
)

// PaymentChannel never carries secrets back; the *Set flags say whether one is stored.
type PaymentChannel struct {
	ID        int64  `json:"id"`
	Type      string `json:"type"`
	TypeLabel string `json:"type_label"`
	Name      string `json:"name"`
	Status    int    `json:"status"`
	Usable    bool   `json:"usable"`

	StripeCurrency         string `json:"stripe_currency,omitempty"`
	StripeSecretKeySet     bool   `json:"stripe_secret_key_set"`
	StripeWebhookSecretSet bool   `json:"stripe_webhook_secret_set"`

	EPayGateway   string `json:"epay_gateway,omitempty"`
	EPayPartnerID string `json:"epay_partner_id,omitempty"`
	EPayKeySet    bool   `json:"epay_key_set"`

	WebhookURL string `json:"webhook_url,omitempty"`
	CreatedAt  string `json:"created_at"`
	UpdatedAt  string `json:"updated_at"`
}

type CreatePaymentChannelRequest struct {
	Type    string `json:"type"`
	Name    string `json:"name"`
	Enabled bool   `json:"enabled"`

	StripeCurrency      string `json:"stripe_currency,omitempty"`
	StripeSecretKey     string `json:"stripe_secret_key,omitempty"`
	StripeWebhookSecret string `json:"stripe_webhook_secret,omitempty"`

	EPayGateway   string `json:"epay_gateway,omitempty"`
	EPayPartnerID string `json:"epay_partner_id,omitempty"`
	EPayKey       string `json:"epay_key,omitempty"`
}

// UpdatePaymentChannelRequest leaves nil fields untouched server-side.
type UpdatePaymentChannelRequest struct {
	Name    *string `json:"name,omitempty"`
	Enabled *bool   `json:"enabled,omitempty"`

	StripeCurrency      *string `json:"stripe_currency,omitempty"`
	StripeSecretKey     *string `json:"stripe_secret_key,omitempty"`
	StripeWebhookSecret *string `json:"stripe_webhook_secret,omitempty"`

	EPayGateway   *string `json:"epay_gateway,omitempty"`
	EPayPartnerID *string `json:"epay_partner_id,omitempty"`
	EPayKey       *string `json:"epay_key,omitempty"`
}

const paymentChannelsPath = "/api/admin/payment-channels"

func (c *Client) ListPaymentChannels(ctx context.Context) ([]PaymentChannel, error) {
	var out []PaymentChannel
	if err := c.get(ctx, paymentChannelsPath, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) CreatePaymentChannel(ctx context.Context, req CreatePaymentChannelRequest) (int64, error) {
	switch strings.ToLower(strings.TrimSpace(req.Type)) {
	case PaymentChannelStripe, PaymentChannelEPay:
	default:
		return 0, &ValidationError{Field: "type", Reason: "must be stripe or epay"}
	}
	if err := requireText("name", req.Name); err != nil {
		return 0, err
	}
	var out Created
	if err := c.post(ctx, paymentChannelsPath, req, &out); err != nil {
		return 0, err
	}
	return out.ID, nil
}

func (c *Client) UpdatePaymentChannel(ctx context.Context, id int64, req UpdatePaymentChannelRequest) error {
	if err := requireID("payment_channel_id", id); err != nil {
		return err
	}
	return c.put(ctx, idPath(paymentChannelsPath+"/%d", id), req, nil)
}

func (c *Client) DeletePaymentChannel(ctx context.Context, id int64) error {
	if err := requireID("payment_channel_id", id); err != nil {
		return err
	}
	return c.delete(ctx, idPath(paymentChannelsPath+"/%d", id), nil)
}
