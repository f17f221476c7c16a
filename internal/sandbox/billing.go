package sandbox

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/FlowerRealm/realms-admin/internal/api"
)

func (s *Server) registerPaymentChannels(g *gin.RouterGroup) {
	g.GET("", s.handleListPaymentChannels)
	g.POST("", s.handleCreatePaymentChannel)
	g.PUT("/:payment_channel_id", s.handleUpdatePaymentChannel)
	g.DELETE("/:payment_channel_id", s.handleDeletePaymentChannel)
}

func (s *Server) registerSubscriptions(plans, orders *gin.RouterGroup) {
	plans.GET("", s.handleListPlans)
	plans.POST("", s.handleCreatePlan)
	plans.GET("/:plan_id", s.handleGetPlan)
	plans.PUT("/:plan_id", s.handleUpdatePlan)
	plans.DELETE("/:plan_id", s.handleDeletePlan)

	orders.GET("", s.handleListOrders)
	orders.POST("/:order_id/approve", s.handleApproveOrder)
	orders.POST("/:order_id/reject", s.handleRejectOrder)
}

// refreshUsable recomputes whether a payment channel has every secret its
// type needs and is enabled.
func refreshUsable(pc *api.PaymentChannel) {
	switch pc.Type {
	case api.PaymentChannelStripe:
		pc.TypeLabel = "Stripe"
		pc.Usable = pc.Status == 1 && pc.StripeSecretKeySet
	case api.PaymentChannelEPay:
		pc.TypeLabel = "EPay"
		pc.Usable = pc.Status == 1 && pc.EPayKeySet && pc.EPayGateway != "" && pc.EPayPartnerID != ""
	}
	if pc.Usable {
		pc.WebhookURL = "/api/pay/" + pc.Type + "/webhook"
	} else {
		pc.WebhookURL = ""
	}
}

func boolStatus(enabled bool) int {
	if enabled {
		return 1
	}
	return 0
}

func (s *Server) handleListPaymentChannels(c *gin.Context) {
	s.state.mu.Lock()
	defer s.state.mu.Unlock()
	ok(c, sortedValues(s.state.paymentChannels))
}

func (s *Server) handleCreatePaymentChannel(c *gin.Context) {
	var req api.CreatePaymentChannelRequest
	if !bind(c, &req) {
		return
	}
	typ := strings.ToLower(strings.TrimSpace(req.Type))
	if typ != api.PaymentChannelStripe && typ != api.PaymentChannelEPay {
		fail(c, "type 不合法")
		return
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		fail(c, "name 不能为空")
		return
	}
	s.state.mu.Lock()
	defer s.state.mu.Unlock()

	ts := s.state.stamp()
	pc := &api.PaymentChannel{
		ID:                     s.state.id(),
		Type:                   typ,
		Name:                   name,
		Status:                 boolStatus(req.Enabled),
		StripeCurrency:         strings.ToLower(strings.TrimSpace(req.StripeCurrency)),
		StripeSecretKeySet:     strings.TrimSpace(req.StripeSecretKey) != "",
		StripeWebhookSecretSet: strings.TrimSpace(req.StripeWebhookSecret) != "",
		EPayGateway:            strings.TrimSpace(req.EPayGateway),
		EPayPartnerID:          strings.TrimSpace(req.EPayPartnerID),
		EPayKeySet:             strings.TrimSpace(req.EPayKey) != "",
		CreatedAt:              ts,
		UpdatedAt:              ts,
	}
	refreshUsable(pc)
	s.state.paymentChannels[pc.ID] = pc
	created(c, pc.ID)
}

func (s *Server) handleUpdatePaymentChannel(c *gin.Context) {
	var req api.UpdatePaymentChannelRequest
	if !bind(c, &req) {
		return
	}
	s.state.mu.Lock()
	defer s.state.mu.Unlock()

	id, valid := paramID(c, "payment_channel_id")
	if !valid {
		return
	}
	pc, found := s.state.paymentChannels[id]
	if !found {
		notFound(c)
		return
	}
	if req.Name != nil {
		pc.Name = strings.TrimSpace(*req.Name)
	}
	if req.Enabled != nil {
		pc.Status = boolStatus(*req.Enabled)
	}
	if req.StripeCurrency != nil {
		pc.StripeCurrency = strings.ToLower(strings.TrimSpace(*req.StripeCurrency))
	}
	// Secrets are write-only: an empty value keeps the stored one.
	if req.StripeSecretKey != nil && strings.TrimSpace(*req.StripeSecretKey) != "" {
		pc.StripeSecretKeySet = true
	}
	if req.StripeWebhookSecret != nil && strings.TrimSpace(*req.StripeWebhookSecret) != "" {
		pc.StripeWebhookSecretSet = true
	}
	if req.EPayGateway != nil {
		pc.EPayGateway = strings.TrimSpace(*req.EPayGateway)
	}
	if req.EPayPartnerID != nil {
		pc.EPayPartnerID = strings.TrimSpace(*req.EPayPartnerID)
	}
	if req.EPayKey != nil && strings.TrimSpace(*req.EPayKey) != "" {
		pc.EPayKeySet = true
	}
	pc.UpdatedAt = s.state.stamp()
	refreshUsable(pc)
	okMessage(c, "已保存")
}

func (s *Server) handleDeletePaymentChannel(c *gin.Context) {
	s.state.mu.Lock()
	defer s.state.mu.Unlock()

	id, valid := paramID(c, "payment_channel_id")
	if !valid {
		return
	}
	if _, found := s.state.paymentChannels[id]; !found {
		notFound(c)
		return
	}
	delete(s.state.paymentChannels, id)
	okMessage(c, "已删除")
}

func (s *Server) handleListPlans(c *gin.Context) {
	s.state.mu.Lock()
	defer s.state.mu.Unlock()
	ok(c, sortedValues(s.state.plans))
}

func (s *Server) planParam(c *gin.Context) (*api.SubscriptionPlan, bool) {
	id, valid := paramID(c, "plan_id")
	if !valid {
		return nil, false
	}
	p, found := s.state.plans[id]
	if !found {
		notFound(c)
		return nil, false
	}
	return p, true
}

func (s *Server) handleGetPlan(c *gin.Context) {
	s.state.mu.Lock()
	defer s.state.mu.Unlock()

	p, found := s.planParam(c)
	if !found {
		return
	}
	ok(c, p)
}

// applyPlan copies req onto p after checking the target main group.
// Callers hold state.mu.
func (s *Server) applyPlan(c *gin.Context, p *api.SubscriptionPlan, req api.SubscriptionPlanRequest) bool {
	name := strings.TrimSpace(req.Name)
	if name == "" || req.DurationDays <= 0 {
		fail(c, "name、duration_days 不合法")
		return false
	}
	group := strings.TrimSpace(req.GroupName)
	if group != "" {
		if _, exists := s.state.mainGroups[group]; !exists {
			fail(c, "用户分组不存在")
			return false
		}
	}
	p.Name = name
	p.GroupName = group
	p.PriceCNY = strings.TrimSpace(req.PriceCNY)
	p.PriceMultiplier = strings.TrimSpace(req.PriceMultiplier)
	if p.PriceMultiplier == "" {
		p.PriceMultiplier = "1"
	}
	p.DurationDays = req.DurationDays
	if req.Status != nil {
		p.Status = *req.Status
	}
	if code := strings.TrimSpace(req.Code); code != "" {
		p.Code = code
	}
	p.UpdatedAt = s.state.stamp()
	return true
}

func (s *Server) handleCreatePlan(c *gin.Context) {
	var req api.SubscriptionPlanRequest
	if !bind(c, &req) {
		return
	}
	s.state.mu.Lock()
	defer s.state.mu.Unlock()

	p := &api.SubscriptionPlan{Status: 1, CreatedAt: s.state.stamp()}
	if !s.applyPlan(c, p, req) {
		return
	}
	p.ID = s.state.id()
	if p.Code == "" {
		p.Code = "plan-" + uuidShort()
	}
	s.state.plans[p.ID] = p
	created(c, p.ID)
}

func (s *Server) handleUpdatePlan(c *gin.Context) {
	var req api.SubscriptionPlanRequest
	if !bind(c, &req) {
		return
	}
	s.state.mu.Lock()
	defer s.state.mu.Unlock()

	p, found := s.planParam(c)
	if !found {
		return
	}
	next := *p
	if !s.applyPlan(c, &next, req) {
		return
	}
	*p = next
	okMessage(c, "已保存")
}

func (s *Server) handleDeletePlan(c *gin.Context) {
	s.state.mu.Lock()
	defer s.state.mu.Unlock()

	p, found := s.planParam(c)
	if !found {
		return
	}
	delete(s.state.plans, p.ID)
	okMessage(c, "已删除")
}

func (s *Server) handleListOrders(c *gin.Context) {
	s.state.mu.Lock()
	defer s.state.mu.Unlock()
	ok(c, sortedValues(s.state.orders))
}

// Order statuses as the admin page reports them.
const (
	orderPending  = 0
	orderActive   = 1
	orderRejected = 2
)

func (s *Server) decideOrder(c *gin.Context, approve bool) {
	s.state.mu.Lock()
	defer s.state.mu.Unlock()

	id, valid := paramID(c, "order_id")
	if !valid {
		return
	}
	o, found := s.state.orders[id]
	if !found {
		notFound(c)
		return
	}
	if o.Status != orderPending {
		fail(c, "订单状态不允许该操作")
		return
	}
	if approve {
		o.Status = orderActive
		o.StatusText = "active"
		o.ApprovedAt = s.state.stamp()
		okMessage(c, "已批准")
		return
	}
	o.Status = orderRejected
	o.StatusText = "rejected"
	okMessage(c, "已拒绝")
}

func (s *Server) handleApproveOrder(c *gin.Context) { s.decideOrder(c, true) }
func (s *Server) handleRejectOrder(c *gin.Context)  { s.decideOrder(c, false) }
