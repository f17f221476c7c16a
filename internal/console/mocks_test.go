package console

import (
	"context"
	"errors"

	"github.com/FlowerRealm/realms-admin/internal/api"
)

var (
	ErrMockReorder = errors.New("reorder error")
	ErrMockPointer = errors.New("pointer error")
	ErrMockDetail  = errors.New("detail error")
	ErrMockReplace = errors.New("replace error")
)

// MockAdminAPI implements every view API for tests.
type MockAdminAPI struct {
	GetChannelGroupDetailFunc      func(ctx context.Context, groupID int64) (*api.ChannelGroupDetail, error)
	GetChannelGroupPointerFunc     func(ctx context.Context, groupID int64) (*api.ChannelGroupPointer, error)
	ReorderChannelGroupMembersFunc func(ctx context.Context, parentID int64, ids []int64) error
	AddChannelGroupChannelFunc     func(ctx context.Context, parentID, channelID int64) error
	RemoveChannelGroupGroupFunc    func(ctx context.Context, parentID, childGroupID int64) error
	RemoveChannelGroupChannelFunc  func(ctx context.Context, parentID, channelID int64) error
	CreateChildChannelGroupFunc    func(ctx context.Context, parentID int64, req api.CreateChannelGroupRequest) (int64, error)
	UpdateChannelGroupPointerFunc  func(ctx context.Context, groupID int64, req api.UpdateChannelGroupPointerRequest) error

	ListMainGroupsFunc            func(ctx context.Context) ([]api.MainGroup, error)
	ListChannelGroupsFunc         func(ctx context.Context) ([]api.ChannelGroup, error)
	ListMainGroupSubgroupsFunc    func(ctx context.Context, name string) ([]api.MainGroupSubgroup, error)
	ReplaceMainGroupSubgroupsFunc func(ctx context.Context, name string, subgroups []string) error
}

func (m *MockAdminAPI) GetChannelGroupDetail(ctx context.Context, groupID int64) (*api.ChannelGroupDetail, error) {
	if m.GetChannelGroupDetailFunc != nil {
		return m.GetChannelGroupDetailFunc(ctx, groupID)
	}
	return nil, ErrMockDetail
}

func (m *MockAdminAPI) GetChannelGroupPointer(ctx context.Context, groupID int64) (*api.ChannelGroupPointer, error) {
	if m.GetChannelGroupPointerFunc != nil {
		return m.GetChannelGroupPointerFunc(ctx, groupID)
	}
	return nil, ErrMockPointer
}

func (m *MockAdminAPI) ReorderChannelGroupMembers(ctx context.Context, parentID int64, ids []int64) error {
	if m.ReorderChannelGroupMembersFunc != nil {
		return m.ReorderChannelGroupMembersFunc(ctx, parentID, ids)
	}
	return nil
}

func (m *MockAdminAPI) AddChannelGroupChannel(ctx context.Context, parentID, channelID int64) error {
	if m.AddChannelGroupChannelFunc != nil {
		return m.AddChannelGroupChannelFunc(ctx, parentID, channelID)
	}
	return nil
}

func (m *MockAdminAPI) RemoveChannelGroupGroup(ctx context.Context, parentID, childGroupID int64) error {
	if m.RemoveChannelGroupGroupFunc != nil {
		return m.RemoveChannelGroupGroupFunc(ctx, parentID, childGroupID)
	}
	return nil
}

func (m *MockAdminAPI) RemoveChannelGroupChannel(ctx context.Context, parentID, channelID int64) error {
	if m.RemoveChannelGroupChannelFunc != nil {
		return m.RemoveChannelGroupChannelFunc(ctx, parentID, channelID)
	}
	return nil
}

func (m *MockAdminAPI) CreateChildChannelGroup(ctx context.Context, parentID int64, req api.CreateChannelGroupRequest) (int64, error) {
	if m.CreateChildChannelGroupFunc != nil {
		return m.CreateChildChannelGroupFunc(ctx, parentID, req)
	}
	return 0, nil
}

func (m *MockAdminAPI) UpdateChannelGroupPointer(ctx context.Context, groupID int64, req api.UpdateChannelGroupPointerRequest) error {
	if m.UpdateChannelGroupPointerFunc != nil {
		return m.UpdateChannelGroupPointerFunc(ctx, groupID, req)
	}
	return nil
}

func (m *MockAdminAPI) ListMainGroups(ctx context.Context) ([]api.MainGroup, error) {
	if m.ListMainGroupsFunc != nil {
		return m.ListMainGroupsFunc(ctx)
	}
	return nil, nil
}

func (m *MockAdminAPI) ListChannelGroups(ctx context.Context) ([]api.ChannelGroup, error) {
	if m.ListChannelGroupsFunc != nil {
		return m.ListChannelGroupsFunc(ctx)
	}
	return nil, nil
}

func (m *MockAdminAPI) ListMainGroupSubgroups(ctx context.Context, name string) ([]api.MainGroupSubgroup, error) {
	if m.ListMainGroupSubgroupsFunc != nil {
		return m.ListMainGroupSubgroupsFunc(ctx, name)
	}
	return nil, nil
}

func (m *MockAdminAPI) ReplaceMainGroupSubgroups(ctx context.Context, name string, subgroups []string) error {
	if m.ReplaceMainGroupSubgroupsFunc != nil {
		return m.ReplaceMainGroupSubgroupsFunc(ctx, name, subgroups)
	}
	return nil
}

func channelMember(memberID, channelID int64, name string) api.ChannelGroupMember {
	return api.ChannelGroupMember{MemberID: memberID, ParentGroupID: 7, MemberChannelID: &channelID, MemberChannelName: &name}
}

func groupMember(memberID, groupID int64, name string) api.ChannelGroupMember {
	return api.ChannelGroupMember{MemberID: memberID, ParentGroupID: 7, MemberGroupID: &groupID, MemberGroupName: &name}
}

func subgroupRows(names ...string) []api.MainGroupSubgroup {
	rows := make([]api.MainGroupSubgroup, len(names))
	for i, n := range names {
		rows[i] = api.MainGroupSubgroup{Subgroup: n, Priority: len(names) - i}
	}
	return rows
}
