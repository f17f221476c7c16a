package console

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/FlowerRealm/realms-admin/internal/api"
	"github.com/FlowerRealm/realms-admin/internal/ordering"
)

// ChannelGroupAPI is what the channel group detail view needs from the admin API.
type ChannelGroupAPI interface {
	GetChannelGroupDetail(ctx context.Context, groupID int64) (*api.ChannelGroupDetail, error)
	GetChannelGroupPointer(ctx context.Context, groupID int64) (*api.ChannelGroupPointer, error)
	ReorderChannelGroupMembers(ctx context.Context, parentID int64, orderedMemberIDs []int64) error
	AddChannelGroupChannel(ctx context.Context, parentID, channelID int64) error
	RemoveChannelGroupGroup(ctx context.Context, parentID, childGroupID int64) error
	RemoveChannelGroupChannel(ctx context.Context, parentID, channelID int64) error
	CreateChildChannelGroup(ctx context.Context, parentID int64, req api.CreateChannelGroupRequest) (int64, error)
	UpdateChannelGroupPointer(ctx context.Context, groupID int64, req api.UpdateChannelGroupPointerRequest) error
}

// ChannelGroupDetailView is one channel group with its ordered members and
// routing pointer.
type ChannelGroupDetailView struct {
	client  ChannelGroupAPI
	groupID int64
	log     *slog.Logger

	// Detail is nil until the first successful Load.
	Detail *api.ChannelGroupDetail
	// Pointer is nil when the group has none or it could not be loaded.
	Pointer *api.ChannelGroupPointer
	// PointerErr is set when the pointer failed to load while the detail did not.
	PointerErr string

	order *ReorderView[int64]
}

func NewChannelGroupDetailView(client ChannelGroupAPI, groupID int64, opts ...ReorderOption) *ChannelGroupDetailView {
	v := &ChannelGroupDetailView{client: client, groupID: groupID, log: slog.Default()}
	o := reorderOptions{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger != nil {
		v.log = o.logger
	}

	load := func(ctx context.Context) ([]int64, error) {
		d, err := client.GetChannelGroupDetail(ctx, groupID)
		if err != nil {
			return nil, err
		}
		v.Detail = d
		return d.MemberIDs(), nil
	}
	persist := func(ctx context.Context, ids []int64) error {
		return client.ReorderChannelGroupMembers(ctx, groupID, ids)
	}
	v.order = NewReorderView(fmt.Sprintf("channel_group:%d", groupID), load, persist, opts...)
	return v
}

// GroupID is the group this view shows.
func (v *ChannelGroupDetailView) GroupID() int64 { return v.groupID }

// Load fetches detail and pointer concurrently. A detail failure fails the
// load and clears the view; a pointer failure only clears the pointer.
func (v *ChannelGroupDetailView) Load(ctx context.Context) error {
	if v.groupID <= 0 {
		return &api.ValidationError{Field: "group_id", Reason: "must be a positive integer"}
	}

	var (
		detail     *api.ChannelGroupDetail
		pointer    *api.ChannelGroupPointer
		pointerErr error
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		d, err := v.client.GetChannelGroupDetail(gctx, v.groupID)
		if err != nil {
			return err
		}
		detail = d
		return nil
	})
	g.Go(func() error {
		p, err := v.client.GetChannelGroupPointer(gctx, v.groupID)
		if err != nil {
			pointerErr = err
			return nil
		}
		pointer = p
		return nil
	})
	if err := g.Wait(); err != nil {
		v.Detail = nil
		v.Pointer = nil
		v.PointerErr = ""
		v.order.Seed(nil)
		return err
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}

	v.Detail = detail
	v.Pointer = pointer
	v.PointerErr = ""
	if pointerErr != nil {
		v.PointerErr = api.Message(pointerErr)
		v.log.Debug("channel group pointer unavailable", "group_id", v.groupID, "error", pointerErr)
	}
	v.order.Seed(detail.MemberIDs())
	return nil
}

// Members returns the members in the order the operator sees, which after a
// failed persist may differ from the server's.
func (v *ChannelGroupDetailView) Members() []api.ChannelGroupMember {
	if v.Detail == nil {
		return nil
	}
	byID := make(map[int64]api.ChannelGroupMember, len(v.Detail.Members))
	for _, m := range v.Detail.Members {
		byID[m.MemberID] = m
	}
	ids := v.order.Items()
	out := make([]api.ChannelGroupMember, 0, len(ids))
	for _, id := range ids {
		if m, ok := byID[id]; ok {
			out = append(out, m)
		}
	}
	return out
}

// Order exposes the reorder state for rendering.
func (v *ChannelGroupDetailView) Order() ReorderState[int64] { return v.order.State() }

// MoveMember transposes the member at index and persists the full order.
// The view is not refetched; call Load to reconfirm.
func (v *ChannelGroupDetailView) MoveMember(ctx context.Context, index int, dir ordering.Direction) (bool, error) {
	return v.order.Move(ctx, index, dir)
}

// IsPinnedChannel reports whether m is the channel the pinned pointer targets.
func (v *ChannelGroupDetailView) IsPinnedChannel(m api.ChannelGroupMember) bool {
	if v.Pointer == nil || !v.Pointer.Pinned || m.Kind() != api.MemberKindChannel {
		return false
	}
	return *m.MemberChannelID == v.Pointer.ChannelID
}

// AddChannel appends a channel member, then reloads.
func (v *ChannelGroupDetailView) AddChannel(ctx context.Context, channelID int64) error {
	return v.mutate(ctx, func(ctx context.Context) error {
		return v.client.AddChannelGroupChannel(ctx, v.groupID, channelID)
	})
}

// CreateChild creates a nested group under this one, then reloads.
func (v *ChannelGroupDetailView) CreateChild(ctx context.Context, req api.CreateChannelGroupRequest) (int64, error) {
	var id int64
	err := v.mutate(ctx, func(ctx context.Context) error {
		var err error
		id, err = v.client.CreateChildChannelGroup(ctx, v.groupID, req)
		return err
	})
	return id, err
}

// RemoveMember removes the member at index in the visible order, then reloads.
func (v *ChannelGroupDetailView) RemoveMember(ctx context.Context, index int) error {
	members := v.Members()
	if index < 0 || index >= len(members) {
		return &api.ValidationError{Field: "index", Reason: fmt.Sprintf("must be between 0 and %d", len(members)-1)}
	}
	m := members[index]
	return v.mutate(ctx, func(ctx context.Context) error {
		switch m.Kind() {
		case api.MemberKindGroup:
			return v.client.RemoveChannelGroupGroup(ctx, v.groupID, *m.MemberGroupID)
		case api.MemberKindChannel:
			return v.client.RemoveChannelGroupChannel(ctx, v.groupID, *m.MemberChannelID)
		default:
			return &api.ValidationError{Field: "member", Reason: fmt.Sprintf("%d is neither a group nor a channel", m.MemberID)}
		}
	})
}

// PinChannel points the group at channelID and pins it, then reloads.
func (v *ChannelGroupDetailView) PinChannel(ctx context.Context, channelID int64) error {
	pinned := true
	return v.mutate(ctx, func(ctx context.Context) error {
		return v.client.UpdateChannelGroupPointer(ctx, v.groupID, api.UpdateChannelGroupPointerRequest{ChannelID: channelID, Pinned: &pinned})
	})
}

// ClearPointer removes the pointer, then reloads.
func (v *ChannelGroupDetailView) ClearPointer(ctx context.Context) error {
	pinned := false
	return v.mutate(ctx, func(ctx context.Context) error {
		return v.client.UpdateChannelGroupPointer(ctx, v.groupID, api.UpdateChannelGroupPointerRequest{ChannelID: 0, Pinned: &pinned})
	})
}

func (v *ChannelGroupDetailView) mutate(ctx context.Context, fn func(context.Context) error) error {
	if err := fn(ctx); err != nil {
		return err
	}
	return v.Load(ctx)
}
