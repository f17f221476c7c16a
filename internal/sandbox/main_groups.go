package sandbox

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/FlowerRealm/realms-admin/internal/api"
	"github.com/FlowerRealm/realms-admin/internal/ordering"
)

// defaultGroup is always bound to every main group so routing has a fallback.
const defaultGroup = "default"

func (s *Server) registerMainGroups(g *gin.RouterGroup) {
	g.GET("", s.handleListMainGroups)
	g.POST("", s.handleCreateMainGroup)
	g.GET("/:group_name", s.handleGetMainGroup)
	g.PUT("/:group_name", s.handleUpdateMainGroup)
	g.DELETE("/:group_name", s.handleDeleteMainGroup)
	g.GET("/:group_name/subgroups", s.handleListSubgroups)
	g.PUT("/:group_name/subgroups", s.handleReplaceSubgroups)
}

// mainGroupParam resolves :group_name. Callers hold state.mu.
func (s *Server) mainGroupParam(c *gin.Context) (*api.MainGroup, bool) {
	name := strings.TrimSpace(c.Param("group_name"))
	if name == "" {
		fail(c, "group_name 不能为空")
		return nil, false
	}
	mg, found := s.state.mainGroups[name]
	if !found {
		notFound(c)
		return nil, false
	}
	return mg, true
}

func (s *Server) handleListMainGroups(c *gin.Context) {
	s.state.mu.Lock()
	defer s.state.mu.Unlock()
	ok(c, sortedValues(s.state.mainGroups))
}

func (s *Server) handleCreateMainGroup(c *gin.Context) {
	var req api.CreateMainGroupRequest
	if !bind(c, &req) {
		return
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		fail(c, "name 不能为空")
		return
	}
	s.state.mu.Lock()
	defer s.state.mu.Unlock()

	if _, exists := s.state.mainGroups[name]; exists {
		fail(c, "分组已存在")
		return
	}
	status := 1
	if req.Status != nil {
		status = *req.Status
	}
	ts := s.state.stamp()
	mg := &api.MainGroup{Name: name, Status: status, CreatedAt: ts, UpdatedAt: ts}
	if d := strings.TrimSpace(req.Description); d != "" {
		mg.Description = &d
	}
	s.state.mainGroups[name] = mg
	s.state.subgroups[name] = []string{defaultGroup}
	okMessage(c, "已创建")
}

func (s *Server) handleGetMainGroup(c *gin.Context) {
	s.state.mu.Lock()
	defer s.state.mu.Unlock()

	mg, found := s.mainGroupParam(c)
	if !found {
		return
	}
	ok(c, mg)
}

func (s *Server) handleUpdateMainGroup(c *gin.Context) {
	var req api.UpdateMainGroupRequest
	if !bind(c, &req) {
		return
	}
	s.state.mu.Lock()
	defer s.state.mu.Unlock()

	mg, found := s.mainGroupParam(c)
	if !found {
		return
	}
	next := strings.TrimSpace(req.NewName)
	rename := next != "" && next != mg.Name
	if _, taken := s.state.mainGroups[next]; rename && taken {
		fail(c, "分组已存在")
		return
	}
	if d := strings.TrimSpace(req.Description); d != "" {
		mg.Description = &d
	} else {
		mg.Description = nil
	}
	mg.Status = req.Status
	mg.UpdatedAt = s.state.stamp()

	if rename {
		old := mg.Name
		mg.Name = next
		s.state.mainGroups[next] = mg
		s.state.subgroups[next] = s.state.subgroups[old]
		delete(s.state.mainGroups, old)
		delete(s.state.subgroups, old)
		for _, u := range s.state.users {
			if u.UserGroup == old {
				u.UserGroup = next
			}
		}
	}
	okMessage(c, "已保存")
}

func (s *Server) handleDeleteMainGroup(c *gin.Context) {
	s.state.mu.Lock()
	defer s.state.mu.Unlock()

	mg, found := s.mainGroupParam(c)
	if !found {
		return
	}
	for _, u := range s.state.users {
		if u.UserGroup == mg.Name {
			fail(c, "仍有用户使用该分组")
			return
		}
	}
	delete(s.state.mainGroups, mg.Name)
	delete(s.state.subgroups, mg.Name)
	okMessage(c, "已删除")
}

func (s *Server) handleListSubgroups(c *gin.Context) {
	s.state.mu.Lock()
	defer s.state.mu.Unlock()

	mg, found := s.mainGroupParam(c)
	if !found {
		return
	}
	names := s.state.subgroups[mg.Name]
	rows := make([]api.MainGroupSubgroup, 0, len(names))
	for i, n := range names {
		rows = append(rows, api.MainGroupSubgroup{
			Subgroup:  n,
			Priority:  (len(names) - i) * 10,
			CreatedAt: mg.CreatedAt,
			UpdatedAt: mg.UpdatedAt,
		})
	}
	ok(c, rows)
}

// handleReplaceSubgroups drops the current binding and stores the posted set
// in the posted order, appending "default" when it is missing.
func (s *Server) handleReplaceSubgroups(c *gin.Context) {
	var req struct {
		Subgroups []string `json:"subgroups"`
	}
	if !bind(c, &req) {
		return
	}
	s.state.mu.Lock()
	defer s.state.mu.Unlock()

	mg, found := s.mainGroupParam(c)
	if !found {
		return
	}
	names := ordering.Normalize(req.Subgroups)
	for _, n := range names {
		g := s.groupByName(n)
		if g == nil {
			fail(c, "子组不存在: "+n)
			return
		}
		if g.Status != 1 {
			fail(c, "子组已禁用: "+n)
			return
		}
	}
	names, _ = ordering.AddIfAbsent(names, defaultGroup)
	s.state.subgroups[mg.Name] = names
	mg.UpdatedAt = s.state.stamp()
	okMessage(c, "已保存")
}

func (s *Server) groupByName(name string) *api.ChannelGroup {
	for _, g := range s.state.groups {
		if g.Name == name {
			return g
		}
	}
	return nil
}
