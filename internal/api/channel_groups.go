package api

import (
	"context"

	"github.com/FlowerRealm/realms-admin/internal/ordering"
)

// ChannelGroup is a routing group of upstream channels and nested groups.
type ChannelGroup struct {
	ID              int64   `json:"id"`
	Name            string  `json:"name"`
	Description     *string `json:"description,omitempty"`
	PriceMultiplier string  `json:"price_multiplier"`
	MaxAttempts     int     `json:"max_attempts"`
	Status          int     `json:"status"`
	CreatedAt       string  `json:"created_at"`
	UpdatedAt       string  `json:"updated_at"`
}

// ChannelGroupMember is one ordered child of a channel group: either a nested
// group or a channel. MemberID is the identifier submitted when reordering.
type ChannelGroupMember struct {
	MemberID      int64 `json:"member_id"`
	ParentGroupID int64 `json:"parent_group_id"`

	MemberGroupID          *int64  `json:"member_group_id,omitempty"`
	MemberGroupName        *string `json:"member_group_name,omitempty"`
	MemberGroupStatus      *int    `json:"member_group_status,omitempty"`
	MemberGroupMaxAttempts *int    `json:"member_group_max_attempts,omitempty"`

	MemberChannelID     *int64  `json:"member_channel_id,omitempty"`
	MemberChannelName   *string `json:"member_channel_name,omitempty"`
	MemberChannelType   *string `json:"member_channel_type,omitempty"`
	MemberChannelGroups *string `json:"member_channel_groups,omitempty"`
	MemberChannelStatus *int    `json:"member_channel_status,omitempty"`

	Priority  int  `json:"priority"`
	Promotion bool `json:"promotion"`
}

// MemberKind classifies a channel group member.
type MemberKind string

const (
	MemberKindGroup   MemberKind = "group"
	MemberKindChannel MemberKind = "channel"
	MemberKindUnknown MemberKind = "unknown"
)

// Kind reports whether the member is a nested group or a channel.
func (m ChannelGroupMember) Kind() MemberKind {
	switch {
	case m.MemberGroupID != nil && *m.MemberGroupID > 0:
		return MemberKindGroup
	case m.MemberChannelID != nil && *m.MemberChannelID > 0:
		return MemberKindChannel
	default:
		return MemberKindUnknown
	}
}

// DisplayName is the group or channel name, whichever applies.
func (m ChannelGroupMember) DisplayName() string {
	switch m.Kind() {
	case MemberKindGroup:
		if m.MemberGroupName != nil {
			return *m.MemberGroupName
		}
	case MemberKindChannel:
		if m.MemberChannelName != nil {
			return *m.MemberChannelName
		}
	}
	return ""
}

// ChannelRef is a short channel reference used in pickers.
type ChannelRef struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Type string `json:"type"`
}

// ChannelGroupDetail is everything the group detail view renders.
type ChannelGroupDetail struct {
	Group      ChannelGroup         `json:"group"`
	Breadcrumb []ChannelGroup       `json:"breadcrumb"`
	Members    []ChannelGroupMember `json:"members"`
	Channels   []ChannelRef         `json:"channels"`
}

// MemberIDs returns the member identifiers in their current order.
func (d ChannelGroupDetail) MemberIDs() []int64 {
	ids := make([]int64, len(d.Members))
	for i, m := range d.Members {
		ids[i] = m.MemberID
	}
	return ids
}

// ChannelGroupPointer is the channel the router currently prefers in a group.
type ChannelGroupPointer struct {
	GroupID     int64  `json:"group_id"`
	ChannelID   int64  `json:"channel_id"`
	ChannelName string `json:"channel_name,omitempty"`
	Pinned      bool   `json:"pinned"`
	MovedAt     string `json:"moved_at,omitempty"`
	Reason      string `json:"reason,omitempty"`
	Note        string `json:"note,omitempty"`
}

// CreateChannelGroupRequest creates a top-level or child channel group.
type CreateChannelGroupRequest struct {
	Name            string  `json:"name"`
	Description     *string `json:"description,omitempty"`
	PriceMultiplier string  `json:"price_multiplier,omitempty"`
	MaxAttempts     int     `json:"max_attempts,omitempty"`
	Status          *int    `json:"status,omitempty"`
}

// UpdateChannelGroupRequest patches a channel group; nil fields are left alone.
type UpdateChannelGroupRequest struct {
	Description     *string `json:"description,omitempty"`
	PriceMultiplier *string `json:"price_multiplier,omitempty"`
	MaxAttempts     *int    `json:"max_attempts,omitempty"`
	Status          *int    `json:"status,omitempty"`
}

// UpdateChannelGroupPointerRequest moves the group pointer; ChannelID 0 clears it.
type UpdateChannelGroupPointerRequest struct {
	ChannelID int64 `json:"channel_id"`
	Pinned    *bool `json:"pinned,omitempty"`
}

// Created is the payload returned by create endpoints.
type Created struct {
	ID int64 `json:"id"`
}

const channelGroupsPath = "/api/admin/channel-groups"

func (c *Client) ListChannelGroups(ctx context.Context) ([]ChannelGroup, error) {
	var out []ChannelGroup
	if err := c.get(ctx, channelGroupsPath, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) CreateChannelGroup(ctx context.Context, req CreateChannelGroupRequest) (int64, error) {
	if err := validateCreateChannelGroup(req); err != nil {
		return 0, err
	}
	var out Created
	if err := c.post(ctx, channelGroupsPath, req, &out); err != nil {
		return 0, err
	}
	return out.ID, nil
}

func (c *Client) GetChannelGroup(ctx context.Context, groupID int64) (*ChannelGroup, error) {
	if err := requireID("group_id", groupID); err != nil {
		return nil, err
	}
	var out ChannelGroup
	if err := c.get(ctx, idPath(channelGroupsPath+"/%d", groupID), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetChannelGroupDetail returns the group, its breadcrumb, ordered members and
// the channels available for adding.
func (c *Client) GetChannelGroupDetail(ctx context.Context, groupID int64) (*ChannelGroupDetail, error) {
	if err := requireID("group_id", groupID); err != nil {
		return nil, err
	}
	var out ChannelGroupDetail
	if err := c.get(ctx, idPath(channelGroupsPath+"/%d/detail", groupID), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateChannelGroup(ctx context.Context, groupID int64, req UpdateChannelGroupRequest) error {
	if err := requireID("group_id", groupID); err != nil {
		return err
	}
	if req.PriceMultiplier != nil {
		if err := validateDecimal("price_multiplier", *req.PriceMultiplier); err != nil {
			return err
		}
	}
	return c.put(ctx, idPath(channelGroupsPath+"/%d", groupID), req, nil)
}

func (c *Client) DeleteChannelGroup(ctx context.Context, groupID int64) error {
	if err := requireID("group_id", groupID); err != nil {
		return err
	}
	return c.delete(ctx, idPath(channelGroupsPath+"/%d", groupID), nil)
}

// CreateChildChannelGroup creates a new group and appends it as a member of parentID.
func (c *Client) CreateChildChannelGroup(ctx context.Context, parentID int64, req CreateChannelGroupRequest) (int64, error) {
	if err := requireID("group_id", parentID); err != nil {
		return 0, err
	}
	if err := validateCreateChannelGroup(req); err != nil {
		return 0, err
	}
	var out Created
	if err := c.post(ctx, idPath(channelGroupsPath+"/%d/children/groups", parentID), req, &out); err != nil {
		return 0, err
	}
	return out.ID, nil
}

func (c *Client) AddChannelGroupChannel(ctx context.Context, parentID, channelID int64) error {
	if err := requireID("group_id", parentID); err != nil {
		return err
	}
	if err := requireID("channel_id", channelID); err != nil {
		return err
	}
	body := struct {
		ChannelID int64 `json:"channel_id"`
	}{channelID}
	return c.post(ctx, idPath(channelGroupsPath+"/%d/children/channels", parentID), body, nil)
}

func (c *Client) RemoveChannelGroupGroup(ctx context.Context, parentID, childGroupID int64) error {
	if err := requireID("group_id", parentID); err != nil {
		return err
	}
	if err := requireID("child_group_id", childGroupID); err != nil {
		return err
	}
	return c.delete(ctx, idPath(channelGroupsPath+"/%d/children/groups/%d", parentID, childGroupID), nil)
}

func (c *Client) RemoveChannelGroupChannel(ctx context.Context, parentID, channelID int64) error {
	if err := requireID("group_id", parentID); err != nil {
		return err
	}
	if err := requireID("channel_id", channelID); err != nil {
		return err
	}
	return c.delete(ctx, idPath(channelGroupsPath+"/%d/children/channels/%d", parentID, channelID), nil)
}

// ReorderChannelGroupMembers replaces the member order of parentID with
// orderedMemberIDs. The body is the complete ordered array, never a diff.
func (c *Client) ReorderChannelGroupMembers(ctx context.Context, parentID int64, orderedMemberIDs []int64) error {
	if err := requireID("group_id", parentID); err != nil {
		return err
	}
	if !ordering.Unique(orderedMemberIDs) {
		return &ValidationError{Field: "member_ids", Reason: "must not contain duplicates"}
	}
	if orderedMemberIDs == nil {
		orderedMemberIDs = []int64{}
	}
	return c.post(ctx, idPath(channelGroupsPath+"/%d/children/reorder", parentID), orderedMemberIDs, nil)
}

func (c *Client) GetChannelGroupPointer(ctx context.Context, groupID int64) (*ChannelGroupPointer, error) {
	if err := requireID("group_id", groupID); err != nil {
		return nil, err
	}
	var out ChannelGroupPointer
	if err := c.get(ctx, idPath(channelGroupsPath+"/%d/pointer", groupID), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateChannelGroupPointer(ctx context.Context, groupID int64, req UpdateChannelGroupPointerRequest) error {
	if err := requireID("group_id", groupID); err != nil {
		return err
	}
	if req.ChannelID < 0 {
		return &ValidationError{Field: "channel_id", Reason: "must not be negative"}
	}
	return c.put(ctx, idPath(channelGroupsPath+"/%d/pointer", groupID), req, nil)
}

// ListChannelGroupPointerCandidates lists the channels the pointer may be moved to.
func (c *Client) ListChannelGroupPointerCandidates(ctx context.Context, groupID int64) ([]ChannelRef, error) {
	if err := requireID("group_id", groupID); err != nil {
		return nil, err
	}
	var out []ChannelRef
	if err := c.get(ctx, idPath(channelGroupsPath+"/%d/pointer/candidates", groupID), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func validateCreateChannelGroup(req CreateChannelGroupRequest) error {
	if err := requireText("name", req.Name); err != nil {
		return err
	}
	if req.PriceMultiplier != "" {
		if err := validateDecimal("price_multiplier", req.PriceMultiplier); err != nil {
			return err
		}
	}
	if req.MaxAttempts < 0 {
		return &ValidationError{Field: "max_attempts", Reason: "must not be negative"}
	}
	return nil
}
