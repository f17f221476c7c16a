package sandbox

import (
	"math/big"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/FlowerRealm/realms-admin/internal/api"
)

func (s *Server) registerUsers(g *gin.RouterGroup) {
	g.GET("", s.handleListUsers)
	g.POST("", s.handleCreateUser)
	g.PUT("/:user_id", s.handleUpdateUser)
	g.DELETE("/:user_id", s.handleDeleteUser)
	g.POST("/:user_id/password", s.handleResetPassword)
	g.POST("/:user_id/balance", s.handleAddBalance)
}

func (s *Server) userParam(c *gin.Context) (*api.User, bool) {
	id, valid := paramID(c, "user_id")
	if !valid {
		return nil, false
	}
	u, found := s.state.users[id]
	if !found {
		notFound(c)
		return nil, false
	}
	return u, true
}

func (s *Server) handleListUsers(c *gin.Context) {
	s.state.mu.Lock()
	defer s.state.mu.Unlock()
	ok(c, sortedValues(s.state.users))
}

func (s *Server) handleCreateUser(c *gin.Context) {
	var req api.CreateUserRequest
	if !bind(c, &req) {
		return
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if !strings.Contains(email, "@") || strings.TrimSpace(req.Username) == "" || req.Password == "" {
		fail(c, "email、username、password 不能为空")
		return
	}
	s.state.mu.Lock()
	defer s.state.mu.Unlock()

	for _, u := range s.state.users {
		if u.Email == email {
			fail(c, "邮箱已被使用")
			return
		}
	}
	role := strings.TrimSpace(req.Role)
	if role == "" {
		role = "user"
	}
	group := strings.TrimSpace(req.UserGroup)
	if group == "" {
		group = "free"
	}
	if _, exists := s.state.mainGroups[group]; !exists {
		fail(c, "用户分组不存在")
		return
	}
	u := &api.User{
		ID:         s.state.id(),
		Email:      email,
		Username:   strings.TrimSpace(req.Username),
		UserGroup:  group,
		Role:       role,
		Status:     1,
		BalanceUSD: "0",
		CreatedAt:  s.state.stamp(),
	}
	s.state.users[u.ID] = u
	created(c, u.ID)
}

func (s *Server) handleUpdateUser(c *gin.Context) {
	var req api.UpdateUserRequest
	if !bind(c, &req) {
		return
	}
	s.state.mu.Lock()
	defer s.state.mu.Unlock()

	u, found := s.userParam(c)
	if !found {
		return
	}
	if u.ID == s.userID && req.Status != nil && *req.Status != 1 {
		fail(c, "不能禁用当前登录的账号")
		return
	}
	if req.UserGroup != nil {
		if _, exists := s.state.mainGroups[*req.UserGroup]; !exists {
			fail(c, "用户分组不存在")
			return
		}
		u.UserGroup = *req.UserGroup
	}
	if req.Email != nil {
		u.Email = strings.ToLower(strings.TrimSpace(*req.Email))
	}
	if req.Status != nil {
		u.Status = *req.Status
	}
	if req.Role != nil {
		u.Role = strings.TrimSpace(*req.Role)
	}
	okMessage(c, "已保存")
}

func (s *Server) handleDeleteUser(c *gin.Context) {
	s.state.mu.Lock()
	defer s.state.mu.Unlock()

	u, found := s.userParam(c)
	if !found {
		return
	}
	if u.ID == s.userID {
		fail(c, "不能删除当前登录的账号")
		return
	}
	delete(s.state.users, u.ID)
	okMessage(c, "已删除")
}

func (s *Server) handleResetPassword(c *gin.Context) {
	var req struct {
		Password string `json:"password"`
	}
	if !bind(c, &req) {
		return
	}
	s.state.mu.Lock()
	defer s.state.mu.Unlock()

	if _, found := s.userParam(c); !found {
		return
	}
	if len(req.Password) < 8 {
		fail(c, "密码至少 8 位")
		return
	}
	okMessage(c, "已重置")
}

// handleAddBalance adds a signed decimal amount. Balances never go below zero.
func (s *Server) handleAddBalance(c *gin.Context) {
	var req struct {
		AmountUSD string `json:"amount_usd"`
		Note      string `json:"note"`
	}
	if !bind(c, &req) {
		return
	}
	s.state.mu.Lock()
	defer s.state.mu.Unlock()

	u, found := s.userParam(c)
	if !found {
		return
	}
	delta, valid := new(big.Rat).SetString(strings.TrimSpace(req.AmountUSD))
	if !valid || delta.Sign() == 0 {
		fail(c, "amount_usd 不合法")
		return
	}
	current, valid := new(big.Rat).SetString(u.BalanceUSD)
	if !valid {
		current = new(big.Rat)
	}
	next := new(big.Rat).Add(current, delta)
	if next.Sign() < 0 {
		fail(c, "余额不足")
		return
	}
	u.BalanceUSD = formatDecimal(next)
	ok(c, gin.H{"balance_usd": u.BalanceUSD})
}

// formatDecimal renders r with up to six fractional digits and no trailing zeros.
func formatDecimal(r *big.Rat) string {
	out := r.FloatString(6)
	if strings.Contains(out, ".") {
		out = strings.TrimRight(out, "0")
		out = strings.TrimSuffix(out, ".")
	}
	return out
}
