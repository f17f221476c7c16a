package sandbox

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/FlowerRealm/realms-admin/internal/api"
)

func (s *Server) registerAnnouncements(g *gin.RouterGroup) {
	g.GET("", s.handleListAnnouncements)
	g.POST("", s.handleCreateAnnouncement)
	g.PUT("/:announcement_id", s.handleSetAnnouncementStatus)
	g.DELETE("/:announcement_id", s.handleDeleteAnnouncement)
}

func (s *Server) announcementParam(c *gin.Context) (*api.Announcement, bool) {
	id, valid := paramID(c, "announcement_id")
	if !valid {
		return nil, false
	}
	a, found := s.state.announcements[id]
	if !found {
		notFound(c)
		return nil, false
	}
	return a, true
}

// handleListAnnouncements returns the newest first, like the admin page.
func (s *Server) handleListAnnouncements(c *gin.Context) {
	s.state.mu.Lock()
	defer s.state.mu.Unlock()

	out := sortedValues(s.state.announcements)
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	ok(c, out)
}

func (s *Server) handleCreateAnnouncement(c *gin.Context) {
	var req api.CreateAnnouncementRequest
	if !bind(c, &req) {
		return
	}
	title, body := strings.TrimSpace(req.Title), strings.TrimSpace(req.Body)
	if title == "" || body == "" {
		fail(c, "title、body 不能为空")
		return
	}
	s.state.mu.Lock()
	defer s.state.mu.Unlock()

	status := 1
	if req.Status != nil {
		status = *req.Status
	}
	ts := s.state.stamp()
	a := &api.Announcement{ID: s.state.id(), Title: title, Body: body, Status: status, CreatedAt: ts, UpdatedAt: ts}
	s.state.announcements[a.ID] = a
	created(c, a.ID)
}

func (s *Server) handleSetAnnouncementStatus(c *gin.Context) {
	var req struct {
		Status *int `json:"status"`
	}
	if !bind(c, &req) {
		return
	}
	s.state.mu.Lock()
	defer s.state.mu.Unlock()

	a, found := s.announcementParam(c)
	if !found {
		return
	}
	if req.Status == nil || (*req.Status != 0 && *req.Status != 1) {
		fail(c, "status 不合法")
		return
	}
	a.Status = *req.Status
	a.UpdatedAt = s.state.stamp()
	okMessage(c, "已更新")
}

func (s *Server) handleDeleteAnnouncement(c *gin.Context) {
	s.state.mu.Lock()
	defer s.state.mu.Unlock()

	a, found := s.announcementParam(c)
	if !found {
		return
	}
	delete(s.state.announcements, a.ID)
	okMessage(c, "已删除")
}
