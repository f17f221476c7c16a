package sandbox

import (
	"hash/fnv"
	"slices"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/FlowerRealm/realms-admin/internal/api"
	"github.com/FlowerRealm/realms-admin/internal/ordering"
)

func (s *Server) registerChannels(g *gin.RouterGroup) {
	g.GET("", s.handleListChannels)
	g.POST("", s.handleCreateChannel)
	g.PUT("", s.handleUpdateChannel)
	g.POST("/reorder", s.handleReorderChannels)
	g.GET("/test/:channel_id", s.handleTestChannel)
	g.GET("/:channel_id", s.handleGetChannel)
	g.DELETE("/:channel_id", s.handleDeleteChannel)
}

func (s *Server) channelParam(c *gin.Context) (*api.Channel, bool) {
	id, valid := paramID(c, "channel_id")
	if !valid {
		return nil, false
	}
	ch, found := s.state.channels[id]
	if !found {
		notFound(c)
		return nil, false
	}
	return ch, true
}

func (s *Server) handleListChannels(c *gin.Context) {
	s.state.mu.Lock()
	defer s.state.mu.Unlock()

	out := make([]api.Channel, 0, len(s.state.channelOrder))
	for _, id := range s.state.channelOrder {
		out = append(out, *s.state.channels[id])
	}
	ok(c, out)
}

func (s *Server) handleGetChannel(c *gin.Context) {
	s.state.mu.Lock()
	defer s.state.mu.Unlock()

	ch, found := s.channelParam(c)
	if !found {
		return
	}
	ok(c, ch)
}

func keyHint(key string) *string {
	key = strings.TrimSpace(key)
	if key == "" {
		return nil
	}
	if len(key) <= 4 {
		return strPtr("****")
	}
	return strPtr("****" + key[len(key)-4:])
}

func (s *Server) handleCreateChannel(c *gin.Context) {
	var req api.CreateChannelRequest
	if !bind(c, &req) {
		return
	}
	if strings.TrimSpace(req.Name) == "" || strings.TrimSpace(req.Type) == "" || strings.TrimSpace(req.BaseURL) == "" {
		fail(c, "type、name、base_url 不能为空")
		return
	}
	s.state.mu.Lock()
	defer s.state.mu.Unlock()

	ch := &api.Channel{
		ID:      s.state.id(),
		Type:    strings.TrimSpace(req.Type),
		Name:    strings.TrimSpace(req.Name),
		Groups:  strings.TrimSpace(req.Groups),
		Status:  1,
		BaseURL: strings.TrimSpace(req.BaseURL),
		KeyHint: keyHint(req.Key),
		Weight:  1,
	}
	if req.Priority != nil {
		ch.Priority = *req.Priority
	}
	if req.Promotion != nil {
		ch.Promotion = *req.Promotion
	}
	s.state.channels[ch.ID] = ch
	s.state.channelOrder = append(s.state.channelOrder, ch.ID)
	created(c, ch.ID)
}

func (s *Server) handleUpdateChannel(c *gin.Context) {
	var req api.UpdateChannelRequest
	if !bind(c, &req) {
		return
	}
	s.state.mu.Lock()
	defer s.state.mu.Unlock()

	ch, found := s.state.channels[req.ID]
	if !found {
		fail(c, "channel 不存在")
		return
	}
	if req.Name != nil {
		ch.Name = strings.TrimSpace(*req.Name)
	}
	if req.Groups != nil {
		ch.Groups = strings.TrimSpace(*req.Groups)
	}
	if req.BaseURL != nil {
		ch.BaseURL = strings.TrimSpace(*req.BaseURL)
	}
	if req.Key != nil {
		ch.KeyHint = keyHint(*req.Key)
	}
	if req.Status != nil {
		ch.Status = *req.Status
	}
	if req.Priority != nil {
		ch.Priority = *req.Priority
	}
	if req.Promotion != nil {
		ch.Promotion = *req.Promotion
	}
	okMessage(c, "已保存")
}

func (s *Server) handleDeleteChannel(c *gin.Context) {
	s.state.mu.Lock()
	defer s.state.mu.Unlock()

	ch, found := s.channelParam(c)
	if !found {
		return
	}
	delete(s.state.channels, ch.ID)
	s.state.channelOrder = slices.DeleteFunc(s.state.channelOrder, func(id int64) bool { return id == ch.ID })
	for gid, ms := range s.state.members {
		s.state.members[gid] = slices.DeleteFunc(ms, func(m member) bool { return m.channelID == ch.ID })
	}
	for gid, p := range s.state.pointers {
		if p.ChannelID == ch.ID {
			delete(s.state.pointers, gid)
		}
	}
	okMessage(c, "已删除")
}

// handleReorderChannels sets the global channel order. Channels missing from
// the posted list keep their relative order after the listed ones.
func (s *Server) handleReorderChannels(c *gin.Context) {
	var ids []int64
	if !bind(c, &ids) {
		return
	}
	s.state.mu.Lock()
	defer s.state.mu.Unlock()

	if !ordering.Unique(ids) {
		fail(c, "排序列表包含重复项")
		return
	}
	for _, id := range ids {
		if _, exists := s.state.channels[id]; !exists {
			fail(c, "channel 不存在")
			return
		}
	}
	next := slices.Clone(ids)
	for _, id := range s.state.channelOrder {
		if !slices.Contains(ids, id) {
			next = append(next, id)
		}
	}
	s.state.channelOrder = next
	n := len(next)
	for i, id := range next {
		s.state.channels[id].Priority = n - i
	}
	okMessage(c, "已保存")
}

// handleTestChannel fakes a probe with a latency derived from the channel name
// so repeated runs are stable.
func (s *Server) handleTestChannel(c *gin.Context) {
	s.state.mu.Lock()
	defer s.state.mu.Unlock()

	ch, found := s.channelParam(c)
	if !found {
		return
	}
	if ch.Status != 1 {
		fail(c, "channel 已禁用")
		return
	}
	h := fnv.New32a()
	_, _ = h.Write([]byte(ch.Name))
	latency := 80 + int(h.Sum32()%400)

	now := s.state.stamp()
	ch.LastTestAt = &now
	ch.LastTestLatencyMS = intPtr(latency)
	ch.LastTestOK = new(bool)
	*ch.LastTestOK = true
	ok(c, api.ChannelTestResult{LatencyMS: int64(latency)})
}
