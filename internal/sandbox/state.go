package sandbox

import (
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/FlowerRealm/realms-admin/internal/api"
)

const timeLayout = "2006-01-02 15:04"

// member is one ordered child of a channel group. Exactly one of groupID and
// channelID is set.
type member struct {
	id        int64
	groupID   int64
	channelID int64
	promotion bool
}

type ticket struct {
	info     api.Ticket
	messages []api.TicketMessage
}

type oauthApp struct {
	info   api.OAuthApp
	secret string
}

// state is the whole sandbox dataset. Every handler holds mu for its full
// read-modify-write.
type state struct {
	mu  sync.Mutex
	now func() time.Time

	nextID int64

	groups   map[int64]*api.ChannelGroup
	members  map[int64][]member
	parents  map[int64]int64
	pointers map[int64]api.ChannelGroupPointer

	channels     map[int64]*api.Channel
	channelOrder []int64

	mainGroups map[string]*api.MainGroup
	subgroups  map[string][]string

	users           map[int64]*api.User
	announcements   map[int64]*api.Announcement
	tickets         map[int64]*ticket
	oauthApps       map[int64]*oauthApp
	paymentChannels map[int64]*api.PaymentChannel
	plans           map[int64]*api.SubscriptionPlan
	orders          map[int64]*api.SubscriptionOrder
	settings        api.Settings
	defaults        api.Settings
}

func newState(now func() time.Time) *state {
	return &state{
		now:             now,
		nextID:          1000,
		groups:          make(map[int64]*api.ChannelGroup),
		members:         make(map[int64][]member),
		parents:         make(map[int64]int64),
		pointers:        make(map[int64]api.ChannelGroupPointer),
		channels:        make(map[int64]*api.Channel),
		mainGroups:      make(map[string]*api.MainGroup),
		subgroups:       make(map[string][]string),
		users:           make(map[int64]*api.User),
		announcements:   make(map[int64]*api.Announcement),
		tickets:         make(map[int64]*ticket),
		oauthApps:       make(map[int64]*oauthApp),
		paymentChannels: make(map[int64]*api.PaymentChannel),
		plans:           make(map[int64]*api.SubscriptionPlan),
		orders:          make(map[int64]*api.SubscriptionOrder),
	}
}

func (s *state) id() int64 {
	s.nextID++
	return s.nextID
}

func (s *state) stamp() string {
	return s.now().Format(timeLayout)
}

// sortedValues returns map values ordered by key.
func sortedValues[K int64 | string, V any](m map[K]*V) []V {
	out := make([]V, 0, len(m))
	for _, k := range slices.Sorted(maps.Keys(m)) {
		out = append(out, *m[k])
	}
	return out
}

func strPtr(s string) *string { return &s }
func intPtr(i int) *int       { return &i }
func int64Ptr(i int64) *int64 { return &i }

// seed loads the fixture every sandbox starts with: channel group 7 with
// members 101, 102 and 103, a main group "vip", and a few records per area.
func (s *state) seed(adminID int64) {
	ts := s.stamp()

	for _, ch := range []api.Channel{
		{ID: 11, Type: "openai_compatible", Name: "openai-a", Groups: "primary", Status: 1, BaseURL: "https://a.example.com/v1"},
		{ID: 12, Type: "openai_compatible", Name: "openai-b", Groups: "primary", Status: 1, BaseURL: "https://b.example.com/v1"},
		{ID: 13, Type: "anthropic", Name: "claude-a", Groups: "backup", Status: 1, BaseURL: "https://c.example.com"},
		{ID: 14, Type: "openai_compatible", Name: "spare", Status: 0, BaseURL: "https://d.example.com/v1"},
	} {
		s.channels[ch.ID] = &ch
		s.channelOrder = append(s.channelOrder, ch.ID)
	}

	for _, g := range []api.ChannelGroup{
		{ID: 1, Name: "default", PriceMultiplier: "1", MaxAttempts: 3, Status: 1},
		{ID: 7, Name: "primary", PriceMultiplier: "1", MaxAttempts: 5, Status: 1},
		{ID: 8, Name: "backup", PriceMultiplier: "0.8", MaxAttempts: 2, Status: 1},
		{ID: 9, Name: "legacy", PriceMultiplier: "1.5", MaxAttempts: 1, Status: 0},
	} {
		g.CreatedAt, g.UpdatedAt = ts, ts
		s.groups[g.ID] = &g
	}
	s.members[7] = []member{
		{id: 101, channelID: 11},
		{id: 102, groupID: 8},
		{id: 103, channelID: 12},
	}
	s.parents[8] = 7
	s.members[8] = []member{{id: 104, channelID: 13}}

	s.mainGroups["vip"] = &api.MainGroup{Name: "vip", Description: strPtr("paying customers"), Status: 1, CreatedAt: ts, UpdatedAt: ts}
	s.mainGroups["free"] = &api.MainGroup{Name: "free", Status: 1, CreatedAt: ts, UpdatedAt: ts}
	s.subgroups["vip"] = []string{"primary", "backup", "default"}
	s.subgroups["free"] = []string{"default"}

	s.users[adminID] = &api.User{ID: adminID, Email: "root@example.com", Username: "root", UserGroup: "vip", Role: "root", Status: 1, BalanceUSD: "0", CreatedAt: ts}
	s.users[2] = &api.User{ID: 2, Email: "alice@example.com", Username: "alice", UserGroup: "free", Role: "user", Status: 1, BalanceUSD: "12.5", CreatedAt: ts}

	s.announcements[1] = &api.Announcement{ID: 1, Title: "Maintenance", Body: "Sunday 02:00 UTC", Status: 1, CreatedAt: ts, UpdatedAt: ts}

	s.tickets[1] = &ticket{
		info: api.Ticket{ID: 1, UserEmail: "alice@example.com", Subject: "Billing question", StatusText: "open", StatusBadge: "bg-success", LastMessageAt: ts, CreatedAt: ts, CanReply: true},
		messages: []api.TicketMessage{
			{ID: 1, Actor: "alice@example.com", ActorMeta: "user", Body: "Why was I charged twice?", CreatedAt: ts},
		},
	}

	s.oauthApps[1] = &oauthApp{
		info:   api.OAuthApp{ID: 1, ClientID: "rlm_app_sandbox", Name: "Sandbox App", Status: 1, StatusLabel: "enabled", HasSecret: true, RedirectURIs: []string{"https://app.example.com/callback"}},
		secret: "sandbox-secret",
	}

	s.paymentChannels[1] = &api.PaymentChannel{ID: 1, Type: api.PaymentChannelStripe, TypeLabel: "Stripe", Name: "stripe-main", Status: 1, Usable: true, StripeCurrency: "cny", StripeSecretKeySet: true, CreatedAt: ts, UpdatedAt: ts}

	s.plans[1] = &api.SubscriptionPlan{ID: 1, Code: "pro-monthly", Name: "Pro", GroupName: "vip", PriceMultiplier: "1", PriceCNY: "30", DurationDays: 30, Status: 1, CreatedAt: ts, UpdatedAt: ts}
	s.orders[1] = &api.SubscriptionOrder{ID: 1, UserEmail: "alice@example.com", PlanName: "Pro", GroupName: "vip", AmountCNY: "30", Status: 0, StatusText: "pending", CreatedAt: ts}

	s.settings = api.Settings{
		SiteBaseURLEffective:   "http://127.0.0.1:18080",
		AdminTimeZone:          "UTC",
		AdminTimeZoneEffective: "UTC",
		SMTPPort:               465,
		SMTPSSLEnabled:         true,
		BillingMinTopupCNY:     "10",
		BillingCreditUSDPerCNY: "0.14",
		FeatureBanGroups: []api.FeatureBanGroup{{
			Title: "Features",
			Items: []api.FeatureBanItem{
				{Key: "feature_disable_billing", Label: "Billing", Editable: true},
				{Key: "feature_disable_tickets", Label: "Tickets", Editable: true},
			},
		}},
	}
	s.defaults = cloneSettings(s.settings)
}

// memberView renders m the way the detail endpoint returns it.
func (s *state) memberView(parentID int64, m member) api.ChannelGroupMember {
	out := api.ChannelGroupMember{MemberID: m.id, ParentGroupID: parentID, Promotion: m.promotion}
	if m.groupID > 0 {
		out.MemberGroupID = int64Ptr(m.groupID)
		if g, ok := s.groups[m.groupID]; ok {
			out.MemberGroupName = strPtr(g.Name)
			out.MemberGroupStatus = intPtr(g.Status)
			out.MemberGroupMaxAttempts = intPtr(g.MaxAttempts)
		}
	}
	if m.channelID > 0 {
		out.MemberChannelID = int64Ptr(m.channelID)
		if ch, ok := s.channels[m.channelID]; ok {
			out.MemberChannelName = strPtr(ch.Name)
			out.MemberChannelType = strPtr(ch.Type)
			out.MemberChannelGroups = strPtr(ch.Groups)
			out.MemberChannelStatus = intPtr(ch.Status)
		}
	}
	return out
}

func (s *state) breadcrumb(groupID int64) []api.ChannelGroup {
	var chain []api.ChannelGroup
	cur := groupID
	for i := 0; i < 32 && cur > 0; i++ {
		g, ok := s.groups[cur]
		if !ok {
			break
		}
		chain = append(chain, *g)
		cur = s.parents[cur]
	}
	slices.Reverse(chain)
	return chain
}

func (s *state) hasChannelMember(groupID, channelID int64) bool {
	for _, m := range s.members[groupID] {
		if m.channelID == channelID {
			return true
		}
	}
	return false
}

// removeGroupTree deletes a group and every nested group it owns.
func (s *state) removeGroupTree(groupID int64) {
	for _, m := range s.members[groupID] {
		if m.groupID > 0 {
			s.removeGroupTree(m.groupID)
		}
	}
	delete(s.groups, groupID)
	delete(s.members, groupID)
	delete(s.pointers, groupID)
	if parent, ok := s.parents[groupID]; ok {
		s.members[parent] = slices.DeleteFunc(s.members[parent], func(m member) bool { return m.groupID == groupID })
		delete(s.parents, groupID)
	}
}
