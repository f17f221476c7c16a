package sandbox

import (
	"cmp"
	"slices"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/FlowerRealm/realms-admin/internal/api"
	"github.com/FlowerRealm/realms-admin/internal/ordering"
)

func (s *Server) registerChannelGroups(g *gin.RouterGroup) {
	g.GET("", s.handleListChannelGroups)
	g.POST("", s.handleCreateChannelGroup)
	g.GET("/:group_id", s.handleGetChannelGroup)
	g.PUT("/:group_id", s.handleUpdateChannelGroup)
	g.DELETE("/:group_id", s.handleDeleteChannelGroup)
	g.GET("/:group_id/detail", s.handleChannelGroupDetail)
	g.POST("/:group_id/children/groups", s.handleCreateChildGroup)
	g.POST("/:group_id/children/channels", s.handleAddChildChannel)
	g.DELETE("/:group_id/children/groups/:child_group_id", s.handleRemoveChildGroup)
	g.DELETE("/:group_id/children/channels/:channel_id", s.handleRemoveChildChannel)
	g.POST("/:group_id/children/reorder", s.handleReorderMembers)
	g.GET("/:group_id/pointer", s.handleGetPointer)
	g.PUT("/:group_id/pointer", s.handlePutPointer)
	g.GET("/:group_id/pointer/candidates", s.handlePointerCandidates)
}

// groupParam resolves :group_id to an existing group. Callers hold state.mu.
func (s *Server) groupParam(c *gin.Context) (*api.ChannelGroup, bool) {
	id, valid := paramID(c, "group_id")
	if !valid {
		return nil, false
	}
	g, found := s.state.groups[id]
	if !found {
		notFound(c)
		return nil, false
	}
	return g, true
}

func (s *Server) handleListChannelGroups(c *gin.Context) {
	s.state.mu.Lock()
	defer s.state.mu.Unlock()

	// Nested groups are only reachable through their parent.
	out := make([]api.ChannelGroup, 0, len(s.state.groups))
	for _, g := range sortedValues(s.state.groups) {
		if _, nested := s.state.parents[g.ID]; !nested {
			out = append(out, g)
		}
	}
	ok(c, out)
}

func (s *Server) newGroup(c *gin.Context, req api.CreateChannelGroupRequest) (*api.ChannelGroup, bool) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		fail(c, "name 不能为空")
		return nil, false
	}
	for _, g := range s.state.groups {
		if g.Name == name {
			fail(c, "分组名已存在")
			return nil, false
		}
	}
	mult := strings.TrimSpace(req.PriceMultiplier)
	if mult == "" {
		mult = "1"
	}
	attempts := req.MaxAttempts
	if attempts <= 0 {
		attempts = 5
	}
	status := 1
	if req.Status != nil {
		status = *req.Status
	}
	ts := s.state.stamp()
	g := &api.ChannelGroup{
		ID:              s.state.id(),
		Name:            name,
		Description:     req.Description,
		PriceMultiplier: mult,
		MaxAttempts:     attempts,
		Status:          status,
		CreatedAt:       ts,
		UpdatedAt:       ts,
	}
	s.state.groups[g.ID] = g
	return g, true
}

func (s *Server) handleCreateChannelGroup(c *gin.Context) {
	var req api.CreateChannelGroupRequest
	if !bind(c, &req) {
		return
	}
	s.state.mu.Lock()
	defer s.state.mu.Unlock()

	g, valid := s.newGroup(c, req)
	if !valid {
		return
	}
	created(c, g.ID)
}

func (s *Server) handleGetChannelGroup(c *gin.Context) {
	s.state.mu.Lock()
	defer s.state.mu.Unlock()

	g, found := s.groupParam(c)
	if !found {
		return
	}
	ok(c, g)
}

func (s *Server) handleUpdateChannelGroup(c *gin.Context) {
	var req api.UpdateChannelGroupRequest
	if !bind(c, &req) {
		return
	}
	s.state.mu.Lock()
	defer s.state.mu.Unlock()

	g, found := s.groupParam(c)
	if !found {
		return
	}
	if req.Description != nil {
		g.Description = req.Description
	}
	if req.PriceMultiplier != nil {
		g.PriceMultiplier = strings.TrimSpace(*req.PriceMultiplier)
	}
	if req.MaxAttempts != nil {
		g.MaxAttempts = *req.MaxAttempts
	}
	if req.Status != nil {
		g.Status = *req.Status
	}
	g.UpdatedAt = s.state.stamp()
	okMessage(c, "已保存")
}

func (s *Server) handleDeleteChannelGroup(c *gin.Context) {
	s.state.mu.Lock()
	defer s.state.mu.Unlock()

	g, found := s.groupParam(c)
	if !found {
		return
	}
	if g.Name == "default" {
		fail(c, "default 分组不允许删除")
		return
	}
	s.state.removeGroupTree(g.ID)
	okMessage(c, "已删除")
}

func (s *Server) handleChannelGroupDetail(c *gin.Context) {
	s.state.mu.Lock()
	defer s.state.mu.Unlock()

	g, found := s.groupParam(c)
	if !found {
		return
	}
	members := make([]api.ChannelGroupMember, 0, len(s.state.members[g.ID]))
	for _, m := range s.state.members[g.ID] {
		members = append(members, s.state.memberView(g.ID, m))
	}
	channels := make([]api.ChannelRef, 0, len(s.state.channels))
	for _, id := range s.state.channelOrder {
		if s.state.hasChannelMember(g.ID, id) {
			continue
		}
		ch := s.state.channels[id]
		channels = append(channels, api.ChannelRef{ID: ch.ID, Name: ch.Name, Type: ch.Type})
	}
	ok(c, api.ChannelGroupDetail{
		Group:      *g,
		Breadcrumb: s.state.breadcrumb(g.ID),
		Members:    members,
		Channels:   channels,
	})
}

func (s *Server) handleCreateChildGroup(c *gin.Context) {
	var req api.CreateChannelGroupRequest
	if !bind(c, &req) {
		return
	}
	s.state.mu.Lock()
	defer s.state.mu.Unlock()

	parent, found := s.groupParam(c)
	if !found {
		return
	}
	child, valid := s.newGroup(c, req)
	if !valid {
		return
	}
	s.state.parents[child.ID] = parent.ID
	s.state.members[parent.ID] = append(s.state.members[parent.ID], member{id: s.state.id(), groupID: child.ID})
	created(c, child.ID)
}

func (s *Server) handleAddChildChannel(c *gin.Context) {
	var req struct {
		ChannelID int64 `json:"channel_id"`
	}
	if !bind(c, &req) {
		return
	}
	s.state.mu.Lock()
	defer s.state.mu.Unlock()

	g, found := s.groupParam(c)
	if !found {
		return
	}
	if _, exists := s.state.channels[req.ChannelID]; !exists {
		fail(c, "channel 不存在")
		return
	}
	if s.state.hasChannelMember(g.ID, req.ChannelID) {
		fail(c, "channel 已在该渠道组中")
		return
	}
	s.state.members[g.ID] = append(s.state.members[g.ID], member{id: s.state.id(), channelID: req.ChannelID})
	okMessage(c, "已添加")
}

func (s *Server) handleRemoveChildGroup(c *gin.Context) {
	s.state.mu.Lock()
	defer s.state.mu.Unlock()

	g, found := s.groupParam(c)
	if !found {
		return
	}
	childID, valid := paramID(c, "child_group_id")
	if !valid {
		return
	}
	if s.state.parents[childID] != g.ID {
		fail(c, "子组不存在")
		return
	}
	s.state.removeGroupTree(childID)
	okMessage(c, "已移除")
}

func (s *Server) handleRemoveChildChannel(c *gin.Context) {
	s.state.mu.Lock()
	defer s.state.mu.Unlock()

	g, found := s.groupParam(c)
	if !found {
		return
	}
	channelID, valid := paramID(c, "channel_id")
	if !valid {
		return
	}
	if !s.state.hasChannelMember(g.ID, channelID) {
		fail(c, "channel 不在该渠道组中")
		return
	}
	s.state.members[g.ID] = slices.DeleteFunc(s.state.members[g.ID], func(m member) bool { return m.channelID == channelID })
	if p, has := s.state.pointers[g.ID]; has && p.ChannelID == channelID {
		delete(s.state.pointers, g.ID)
	}
	okMessage(c, "已移除")
}

// handleReorderMembers replaces the member order with the posted array. The
// array must be a permutation of the current member ids; an empty array is a
// no-op.
func (s *Server) handleReorderMembers(c *gin.Context) {
	var ids []int64
	if !bind(c, &ids) {
		return
	}
	s.state.mu.Lock()
	defer s.state.mu.Unlock()

	g, found := s.groupParam(c)
	if !found {
		return
	}
	if len(ids) == 0 {
		okMessage(c, "已保存")
		return
	}
	current := s.state.members[g.ID]
	if !ordering.Unique(ids) || len(ids) != len(current) {
		fail(c, "排序列表与成员不一致")
		return
	}
	byID := make(map[int64]member, len(current))
	for _, m := range current {
		byID[m.id] = m
	}
	next := make([]member, 0, len(ids))
	for _, id := range ids {
		m, exists := byID[id]
		if !exists {
			fail(c, "member_id "+strconv.FormatInt(id, 10)+" 不属于该渠道组")
			return
		}
		next = append(next, m)
	}
	s.state.members[g.ID] = next
	okMessage(c, "已保存")
}

// channelsUnder walks enabled nested groups breadth first and returns every
// channel reachable from groupID, sorted by name then id.
func (s *Server) channelsUnder(groupID int64) []api.ChannelRef {
	visited := make(map[int64]bool)
	seen := make(map[int64]bool)
	var out []api.ChannelRef
	queue := []int64{groupID}
	for len(queue) > 0 {
		gid := queue[0]
		queue = queue[1:]
		if visited[gid] {
			continue
		}
		visited[gid] = true
		for _, m := range s.state.members[gid] {
			if m.channelID > 0 && !seen[m.channelID] {
				seen[m.channelID] = true
				ref := api.ChannelRef{ID: m.channelID, Name: "channel-" + strconv.FormatInt(m.channelID, 10)}
				if ch, exists := s.state.channels[m.channelID]; exists {
					if name := strings.TrimSpace(ch.Name); name != "" {
						ref.Name = name
					}
					ref.Type = ch.Type
				}
				out = append(out, ref)
			}
			if m.groupID > 0 {
				if child, exists := s.state.groups[m.groupID]; exists && child.Status == 1 {
					queue = append(queue, m.groupID)
				}
			}
		}
	}
	slices.SortStableFunc(out, func(a, b api.ChannelRef) int {
		if n := strings.Compare(a.Name, b.Name); n != 0 {
			return n
		}
		return cmp.Compare(a.ID, b.ID)
	})
	if out == nil {
		out = []api.ChannelRef{}
	}
	return out
}

func pointerReasonText(reason string) string {
	switch reason {
	case "manual":
		return "手动设置"
	case "clear":
		return "清除"
	default:
		return reason
	}
}

func (s *Server) handleGetPointer(c *gin.Context) {
	s.state.mu.Lock()
	defer s.state.mu.Unlock()

	g, found := s.groupParam(c)
	if !found {
		return
	}
	p, has := s.state.pointers[g.ID]
	if !has {
		p = api.ChannelGroupPointer{GroupID: g.ID}
	}
	if p.ChannelID <= 0 {
		// Unset pointers report the first candidate the router would pick.
		if cands := s.channelsUnder(g.ID); len(cands) > 0 {
			p.ChannelID = cands[0].ID
			p.Pinned = false
		}
	}
	if ch, exists := s.state.channels[p.ChannelID]; exists {
		p.ChannelName = ch.Name
	}
	var notes []string
	if p.MovedAt != "" {
		notes = append(notes, "更新时间："+p.MovedAt)
	}
	if text := pointerReasonText(p.Reason); text != "" {
		notes = append(notes, "原因："+text)
	}
	p.Note = strings.Join(notes, "；")
	ok(c, p)
}

func (s *Server) handlePutPointer(c *gin.Context) {
	var req api.UpdateChannelGroupPointerRequest
	if !bind(c, &req) {
		return
	}
	s.state.mu.Lock()
	defer s.state.mu.Unlock()

	g, found := s.groupParam(c)
	if !found {
		return
	}
	if req.ChannelID < 0 {
		fail(c, "channel_id 不合法")
		return
	}
	pinned := true
	if req.Pinned != nil {
		pinned = *req.Pinned
	}
	reason := "manual"
	if req.ChannelID == 0 {
		pinned = false
		reason = "clear"
	} else {
		if _, exists := s.state.channels[req.ChannelID]; !exists {
			fail(c, "channel 不存在")
			return
		}
		if !slices.ContainsFunc(s.channelsUnder(g.ID), func(r api.ChannelRef) bool { return r.ID == req.ChannelID }) {
			fail(c, "channel 不属于该渠道组")
			return
		}
	}
	s.state.pointers[g.ID] = api.ChannelGroupPointer{
		GroupID:   g.ID,
		ChannelID: req.ChannelID,
		Pinned:    pinned,
		MovedAt:   s.state.now().Format("2006-01-02 15:04:05"),
		Reason:    reason,
	}
	okMessage(c, "已更新")
}

func (s *Server) handlePointerCandidates(c *gin.Context) {
	s.state.mu.Lock()
	defer s.state.mu.Unlock()

	g, found := s.groupParam(c)
	if !found {
		return
	}
	ok(c, s.channelsUnder(g.ID))
}
