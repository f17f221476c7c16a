package api

import (
	"context"

	"github.com/FlowerRealm/realms-admin/internal/ordering"
)

// Channel is an upstream provider endpoint.
type Channel struct {
	ID        int64   `json:"id"`
	Type      string  `json:"type"`
	Name      string  `json:"name"`
	Groups    string  `json:"groups"`
	Status    int     `json:"status"`
	Priority  int     `json:"priority"`
	Promotion bool    `json:"promotion"`
	BaseURL   string  `json:"base_url,omitempty"`
	Tag       *string `json:"tag,omitempty"`
	Weight    int     `json:"weight"`
	KeyHint   *string `json:"key_hint,omitempty"`
	Remark    *string `json:"remark,omitempty"`

	AllowServiceTier      bool `json:"allow_service_tier"`
	DisableStore          bool `json:"disable_store"`
	AllowSafetyIdentifier bool `json:"allow_safety_identifier"`

	LastTestAt        *string `json:"last_test_at,omitempty"`
	LastTestLatencyMS *int    `json:"last_test_latency_ms,omitempty"`
	LastTestOK        *bool   `json:"last_test_ok,omitempty"`
}

type CreateChannelRequest struct {
	Type      string `json:"type"`
	Name      string `json:"name"`
	Groups    string `json:"groups,omitempty"`
	BaseURL   string `json:"base_url"`
	Key       string `json:"key,omitempty"`
	Priority  *int   `json:"priority,omitempty"`
	Promotion *bool  `json:"promotion,omitempty"`
}

// UpdateChannelRequest patches a channel; the id travels in the body.
type UpdateChannelRequest struct {
	ID        int64   `json:"id"`
	Name      *string `json:"name,omitempty"`
	Groups    *string `json:"groups,omitempty"`
	BaseURL   *string `json:"base_url,omitempty"`
	Key       *string `json:"key,omitempty"`
	Status    *int    `json:"status,omitempty"`
	Priority  *int    `json:"priority,omitempty"`
	Promotion *bool   `json:"promotion,omitempty"`
}

// ChannelTestResult is the outcome of a single connectivity probe.
type ChannelTestResult struct {
	LatencyMS int64 `json:"latency_ms"`
}

const channelsPath = "/api/channel"

func (c *Client) ListChannels(ctx context.Context) ([]Channel, error) {
	var out []Channel
	if err := c.get(ctx, channelsPath, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) GetChannel(ctx context.Context, channelID int64) (*Channel, error) {
	if err := requireID("channel_id", channelID); err != nil {
		return nil, err
	}
	var out Channel
	if err := c.get(ctx, idPath(channelsPath+"/%d", channelID), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) CreateChannel(ctx context.Context, req CreateChannelRequest) (int64, error) {
	if err := requireText("type", req.Type); err != nil {
		return 0, err
	}
	if err := requireText("name", req.Name); err != nil {
		return 0, err
	}
	if err := requireText("base_url", req.BaseURL); err != nil {
		return 0, err
	}
	var out Created
	if err := c.post(ctx, channelsPath, req, &out); err != nil {
		return 0, err
	}
	return out.ID, nil
}

func (c *Client) UpdateChannel(ctx context.Context, req UpdateChannelRequest) error {
	if err := requireID("id", req.ID); err != nil {
		return err
	}
	if req.Status != nil {
		if err := validateStatus("status", *req.Status); err != nil {
			return err
		}
	}
	return c.put(ctx, channelsPath, req, nil)
}

func (c *Client) DeleteChannel(ctx context.Context, channelID int64) error {
	if err := requireID("channel_id", channelID); err != nil {
		return err
	}
	return c.delete(ctx, idPath(channelsPath+"/%d", channelID), nil)
}

// ReorderChannels replaces the global channel order with ids.
func (c *Client) ReorderChannels(ctx context.Context, ids []int64) error {
	if !ordering.Unique(ids) {
		return &ValidationError{Field: "ids", Reason: "must not contain duplicates"}
	}
	if ids == nil {
		ids = []int64{}
	}
	return c.post(ctx, channelsPath+"/reorder", ids, nil)
}

func (c *Client) TestChannel(ctx context.Context, channelID int64) (*ChannelTestResult, error) {
	if err := requireID("channel_id", channelID); err != nil {
		return nil, err
	}
	var out ChannelTestResult
	if err := c.get(ctx, idPath(channelsPath+"/test/%d", channelID), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
