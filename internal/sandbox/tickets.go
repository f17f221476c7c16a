package sandbox

import (
	"fmt"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/FlowerRealm/realms-admin/internal/api"
)

const maxReplyMemory = 8 << 20

func (s *Server) registerTickets(g *gin.RouterGroup) {
	g.GET("", s.handleListTickets)
	g.GET("/:ticket_id", s.handleGetTicket)
	g.POST("/:ticket_id/reply", s.handleReplyTicket)
	g.POST("/:ticket_id/close", s.handleCloseTicket)
	g.POST("/:ticket_id/reopen", s.handleReopenTicket)
}

func (s *Server) ticketParam(c *gin.Context) (*ticket, bool) {
	id, valid := paramID(c, "ticket_id")
	if !valid {
		return nil, false
	}
	t, found := s.state.tickets[id]
	if !found {
		notFound(c)
		return nil, false
	}
	return t, true
}

func (s *Server) handleListTickets(c *gin.Context) {
	status := strings.TrimSpace(c.Query("status"))
	if status != "" && status != "open" && status != "closed" {
		fail(c, "status 不合法")
		return
	}
	s.state.mu.Lock()
	defer s.state.mu.Unlock()

	out := make([]api.TicketListItem, 0, len(s.state.tickets))
	for _, t := range sortedValues(s.state.tickets) {
		if (status == "open" && t.info.Closed) || (status == "closed" && !t.info.Closed) {
			continue
		}
		out = append(out, api.TicketListItem{
			ID:            t.info.ID,
			UserEmail:     t.info.UserEmail,
			Subject:       t.info.Subject,
			StatusText:    t.info.StatusText,
			StatusBadge:   t.info.StatusBadge,
			LastMessageAt: t.info.LastMessageAt,
			CreatedAt:     t.info.CreatedAt,
		})
	}
	ok(c, out)
}

func (s *Server) handleGetTicket(c *gin.Context) {
	s.state.mu.Lock()
	defer s.state.mu.Unlock()

	t, found := s.ticketParam(c)
	if !found {
		return
	}
	messages := make([]api.TicketMessage, len(t.messages))
	copy(messages, t.messages)
	ok(c, api.TicketDetail{Ticket: t.info, Messages: messages})
}

func humanSize(n int64) string {
	switch {
	case n >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1f KB", float64(n)/(1<<10))
	default:
		return fmt.Sprintf("%d B", n)
	}
}

// handleReplyTicket accepts the multipart form the admin console posts: a
// body field plus any number of "attachments" files.
func (s *Server) handleReplyTicket(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		fail(c, "表单解析失败")
		return
	}
	body := ""
	if v := form.Value["body"]; len(v) > 0 {
		body = strings.TrimSpace(v[0])
	}
	files := form.File["attachments"]
	if body == "" && len(files) == 0 {
		fail(c, "回复内容不能为空")
		return
	}

	s.state.mu.Lock()
	defer s.state.mu.Unlock()

	t, found := s.ticketParam(c)
	if !found {
		return
	}
	if t.info.Closed {
		fail(c, "工单已关闭")
		return
	}

	now := s.state.now()
	msg := api.TicketMessage{
		ID:        s.state.id(),
		Actor:     "admin",
		ActorMeta: "admin",
		Body:      body,
		CreatedAt: now.Format(timeLayout),
	}
	for _, fh := range files {
		id := s.state.id()
		msg.Attachments = append(msg.Attachments, api.TicketAttachment{
			ID:        id,
			Name:      fh.Filename,
			Size:      humanSize(fh.Size),
			ExpiresAt: now.Add(7 * 24 * time.Hour).Format(timeLayout),
			URL:       fmt.Sprintf("/api/admin/tickets/%d/attachments/%d", t.info.ID, id),
		})
	}
	t.messages = append(t.messages, msg)
	t.info.LastMessageAt = msg.CreatedAt
	okMessage(c, "已回复")
}

func (s *Server) setTicketClosed(c *gin.Context, closed bool) {
	s.state.mu.Lock()
	defer s.state.mu.Unlock()

	t, found := s.ticketParam(c)
	if !found {
		return
	}
	t.info.Closed = closed
	t.info.CanReply = !closed
	if closed {
		t.info.StatusText = "closed"
		t.info.StatusBadge = "bg-secondary"
		t.info.ClosedAt = s.state.stamp()
		okMessage(c, "已关闭")
		return
	}
	t.info.StatusText = "open"
	t.info.StatusBadge = "bg-success"
	t.info.ClosedAt = ""
	okMessage(c, "已重新打开")
}

func (s *Server) handleCloseTicket(c *gin.Context)  { s.setTicketClosed(c, true) }
func (s *Server) handleReopenTicket(c *gin.Context) { s.setTicketClosed(c, false) }
