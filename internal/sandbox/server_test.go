package sandbox

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"slices"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/FlowerRealm/realms-admin/internal/api"
)

const (
	testUser    int64 = 5
	testSession       = "sess-test"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	return NewServer(Options{
		UserID:  testUser,
		Session: testSession,
		Metrics: true,
		Logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		Now:     func() time.Time { return time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC) },
	})
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// do sends an authenticated request and decodes the envelope.
func do(t *testing.T, s *Server, method, path string, body any) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set(api.UserHeader, "5")
	req.AddCookie(&http.Cookie{Name: api.DefaultCookieName, Value: testSession})
	return serve(t, s, req)
}

func serve(t *testing.T, s *Server, req *http.Request) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)

	var env envelope
	if strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
			t.Fatalf("Failed to parse response %q: %v", w.Body.String(), err)
		}
	}
	return w, env
}

func decode[T any](t *testing.T, env envelope) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(env.Data, &out); err != nil {
		t.Fatalf("Failed to decode data %s: %v", env.Data, err)
	}
	return out
}

func memberIDs(t *testing.T, s *Server, groupID string) []int64 {
	t.Helper()
	_, env := do(t, s, http.MethodGet, "/api/admin/channel-groups/"+groupID+"/detail", nil)
	if !env.Success {
		t.Fatalf("detail failed: %s", env.Message)
	}
	return decode[api.ChannelGroupDetail](t, env).MemberIDs()
}

func TestRequireSession(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name    string
		cookie  string
		user    string
		wantMsg string
	}{
		{"no cookie", "", "5", "未登录"},
		{"wrong cookie", "other", "5", "未登录"},
		{"missing user header", testSession, "", "Realms-User"},
		{"wrong user", testSession, "6", "Realms-User"},
		{"non-numeric user", testSession, "root", "Realms-User"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/admin/channel-groups", nil)
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: api.DefaultCookieName, Value: tt.cookie})
			}
			if tt.user != "" {
				req.Header.Set(api.UserHeader, tt.user)
			}
			w, env := serve(t, s, req)
			if w.Code != http.StatusOK {
				t.Errorf("Expected status 200, got %d", w.Code)
			}
			if env.Success {
				t.Error("Expected success=false")
			}
			if !strings.Contains(env.Message, tt.wantMsg) {
				t.Errorf("message = %q, want it to contain %q", env.Message, tt.wantMsg)
			}
		})
	}
}

func TestRequestIDEcho(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(api.RequestIDHeader, "req-123")
	w, _ := serve(t, s, req)
	if got := w.Header().Get(api.RequestIDHeader); got != "req-123" {
		t.Errorf("X-Request-Id = %q", got)
	}

	w, _ = serve(t, s, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if w.Header().Get(api.RequestIDHeader) == "" {
		t.Error("Expected a generated request id")
	}
}

func TestReorderMembers(t *testing.T) {
	s := newTestServer(t)

	if got := memberIDs(t, s, "7"); !slices.Equal(got, []int64{101, 102, 103}) {
		t.Fatalf("seed order = %v", got)
	}

	_, env := do(t, s, http.MethodPost, "/api/admin/channel-groups/7/children/reorder", []int64{101, 103, 102})
	if !env.Success || env.Message != "已保存" {
		t.Fatalf("reorder = %+v", env)
	}
	if got := memberIDs(t, s, "7"); !slices.Equal(got, []int64{101, 103, 102}) {
		t.Errorf("order after reorder = %v", got)
	}
}

func TestReorderMembers_Rejects(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name string
		ids  []int64
	}{
		{"unknown member", []int64{101, 102, 999}},
		{"duplicate", []int64{101, 101, 103}},
		{"missing member", []int64{103, 101}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, env := do(t, s, http.MethodPost, "/api/admin/channel-groups/7/children/reorder", tt.ids)
			if env.Success {
				t.Error("Expected rejection")
			}
		})
	}
	if got := memberIDs(t, s, "7"); !slices.Equal(got, []int64{101, 102, 103}) {
		t.Errorf("order changed by rejected reorders: %v", got)
	}

	_, env := do(t, s, http.MethodPost, "/api/admin/channel-groups/7/children/reorder", []int64{})
	if !env.Success {
		t.Errorf("empty reorder should be a no-op success, got %q", env.Message)
	}
}

func TestChannelGroupNotFound(t *testing.T) {
	s := newTestServer(t)

	w, env := do(t, s, http.MethodGet, "/api/admin/channel-groups/404/detail", nil)
	if w.Code != http.StatusNotFound || env.Success {
		t.Errorf("Expected 404 envelope, got %d %+v", w.Code, env)
	}

	w, env = do(t, s, http.MethodGet, "/api/admin/channel-groups/abc", nil)
	if w.Code != http.StatusOK || env.Success || !strings.Contains(env.Message, "group_id") {
		t.Errorf("Expected invalid id envelope, got %d %+v", w.Code, env)
	}
}

func TestChildGroupsAndChannels(t *testing.T) {
	s := newTestServer(t)

	_, env := do(t, s, http.MethodPost, "/api/admin/channel-groups/7/children/channels", gin.H{"channel_id": 14})
	if !env.Success {
		t.Fatalf("add channel: %s", env.Message)
	}
	_, env = do(t, s, http.MethodPost, "/api/admin/channel-groups/7/children/channels", gin.H{"channel_id": 14})
	if env.Success {
		t.Error("Expected duplicate channel to be rejected")
	}

	_, env = do(t, s, http.MethodPost, "/api/admin/channel-groups/7/children/groups", api.CreateChannelGroupRequest{Name: "overflow"})
	if !env.Success {
		t.Fatalf("create child: %s", env.Message)
	}
	childID := decode[api.Created](t, env).ID

	ids := memberIDs(t, s, "7")
	if len(ids) != 5 {
		t.Fatalf("Expected 5 members, got %v", ids)
	}

	_, env = do(t, s, http.MethodGet, "/api/admin/channel-groups", nil)
	for _, g := range decode[[]api.ChannelGroup](t, env) {
		if g.ID == childID || g.ID == 8 {
			t.Errorf("nested group %d listed at top level", g.ID)
		}
	}

	_, env = do(t, s, http.MethodGet, "/api/admin/channel-groups/"+strconv.FormatInt(childID, 10)+"/detail", nil)
	detail := decode[api.ChannelGroupDetail](t, env)
	if len(detail.Breadcrumb) != 2 || detail.Breadcrumb[0].ID != 7 {
		t.Errorf("breadcrumb = %+v", detail.Breadcrumb)
	}

	_, env = do(t, s, http.MethodDelete, "/api/admin/channel-groups/7/children/groups/"+strconv.FormatInt(childID, 10), nil)
	if !env.Success {
		t.Fatalf("remove child group: %s", env.Message)
	}
	_, env = do(t, s, http.MethodDelete, "/api/admin/channel-groups/7/children/channels/14", nil)
	if !env.Success {
		t.Fatalf("remove channel: %s", env.Message)
	}
	if got := memberIDs(t, s, "7"); !slices.Equal(got, []int64{101, 102, 103}) {
		t.Errorf("members after removals = %v", got)
	}
}

func TestPointer(t *testing.T) {
	s := newTestServer(t)

	_, env := do(t, s, http.MethodGet, "/api/admin/channel-groups/7/pointer/candidates", nil)
	var names []string
	for _, c := range decode[[]api.ChannelRef](t, env) {
		names = append(names, c.Name)
	}
	// Nested group 8 contributes claude-a.
	if !slices.Equal(names, []string{"claude-a", "openai-a", "openai-b"}) {
		t.Errorf("candidates = %v", names)
	}

	_, env = do(t, s, http.MethodGet, "/api/admin/channel-groups/7/pointer", nil)
	p := decode[api.ChannelGroupPointer](t, env)
	if p.ChannelID != 13 || p.Pinned {
		t.Errorf("default pointer = %+v", p)
	}

	_, env = do(t, s, http.MethodPut, "/api/admin/channel-groups/7/pointer", api.UpdateChannelGroupPointerRequest{ChannelID: 12})
	if !env.Success {
		t.Fatalf("pin: %s", env.Message)
	}
	_, env = do(t, s, http.MethodGet, "/api/admin/channel-groups/7/pointer", nil)
	p = decode[api.ChannelGroupPointer](t, env)
	if p.ChannelID != 12 || !p.Pinned || p.ChannelName != "openai-b" || p.Reason != "manual" {
		t.Errorf("pinned pointer = %+v", p)
	}
	if !strings.Contains(p.Note, "手动设置") {
		t.Errorf("note = %q", p.Note)
	}

	_, env = do(t, s, http.MethodPut, "/api/admin/channel-groups/7/pointer", api.UpdateChannelGroupPointerRequest{ChannelID: 14})
	if env.Success {
		t.Error("Expected channel outside the group to be rejected")
	}

	_, env = do(t, s, http.MethodPut, "/api/admin/channel-groups/7/pointer", api.UpdateChannelGroupPointerRequest{ChannelID: 0})
	if !env.Success {
		t.Fatalf("clear: %s", env.Message)
	}
	_, env = do(t, s, http.MethodGet, "/api/admin/channel-groups/7/pointer", nil)
	p = decode[api.ChannelGroupPointer](t, env)
	if p.Pinned || p.Reason != "clear" {
		t.Errorf("cleared pointer = %+v", p)
	}
}

func TestSubgroups(t *testing.T) {
	s := newTestServer(t)

	_, env := do(t, s, http.MethodPut, "/api/admin/main-groups/vip/subgroups", gin.H{"subgroups": []string{"backup", " primary ", "backup"}})
	if !env.Success {
		t.Fatalf("replace: %s", env.Message)
	}
	_, env = do(t, s, http.MethodGet, "/api/admin/main-groups/vip/subgroups", nil)
	rows := decode[[]api.MainGroupSubgroup](t, env)
	if got := api.SubgroupNames(rows); !slices.Equal(got, []string{"backup", "primary", "default"}) {
		t.Errorf("subgroups = %v", got)
	}
	if rows[0].Priority <= rows[1].Priority {
		t.Errorf("priorities not descending: %+v", rows)
	}

	tests := []struct {
		name string
		set  []string
		want string
	}{
		{"unknown", []string{"nope"}, "子组不存在"},
		{"disabled", []string{"legacy"}, "子组已禁用"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, env := do(t, s, http.MethodPut, "/api/admin/main-groups/vip/subgroups", gin.H{"subgroups": tt.set})
			if env.Success || !strings.Contains(env.Message, tt.want) {
				t.Errorf("got %+v, want failure containing %q", env, tt.want)
			}
		})
	}
}

func TestMainGroupEscapedName(t *testing.T) {
	s := newTestServer(t)

	_, env := do(t, s, http.MethodPost, "/api/admin/main-groups", api.CreateMainGroupRequest{Name: "team a/b"})
	if !env.Success {
		t.Fatalf("create: %s", env.Message)
	}
	_, env = do(t, s, http.MethodGet, "/api/admin/main-groups/team%20a%2Fb", nil)
	if !env.Success {
		t.Fatalf("get escaped: %s", env.Message)
	}
	if mg := decode[api.MainGroup](t, env); mg.Name != "team a/b" {
		t.Errorf("name = %q", mg.Name)
	}
}

func TestMainGroupRenameAndDelete(t *testing.T) {
	s := newTestServer(t)

	_, env := do(t, s, http.MethodPut, "/api/admin/main-groups/vip", api.UpdateMainGroupRequest{NewName: "gold", Status: 1})
	if !env.Success {
		t.Fatalf("rename: %s", env.Message)
	}
	_, env = do(t, s, http.MethodGet, "/api/admin/main-groups/gold/subgroups", nil)
	if got := api.SubgroupNames(decode[[]api.MainGroupSubgroup](t, env)); !slices.Equal(got, []string{"primary", "backup", "default"}) {
		t.Errorf("subgroups did not follow rename: %v", got)
	}

	_, env = do(t, s, http.MethodDelete, "/api/admin/main-groups/gold", nil)
	if env.Success {
		t.Error("Expected delete of a group with users to fail")
	}
}

func TestFaultInjection(t *testing.T) {
	s := newTestServer(t)
	path := "/api/admin/channel-groups/7/children/reorder"

	s.InjectFault(Fault{Method: http.MethodPost, Path: path, Message: "数据库繁忙", Times: 1})
	_, env := do(t, s, http.MethodPost, path, []int64{103, 102, 101})
	if env.Success || env.Message != "数据库繁忙" {
		t.Errorf("first call = %+v", env)
	}
	if got := memberIDs(t, s, "7"); !slices.Equal(got, []int64{101, 102, 103}) {
		t.Errorf("faulted call changed state: %v", got)
	}

	_, env = do(t, s, http.MethodPost, path, []int64{103, 102, 101})
	if !env.Success {
		t.Errorf("fault should have expired: %+v", env)
	}

	s.InjectFault(Fault{Method: http.MethodGet, Path: "/api/channel", Status: http.StatusBadGateway, Message: "upstream down"})
	w, _ := do(t, s, http.MethodGet, "/api/channel", nil)
	if w.Code != http.StatusBadGateway || w.Body.String() != "upstream down" {
		t.Errorf("got %d %q", w.Code, w.Body.String())
	}
	s.ClearFaults()
	w, _ = do(t, s, http.MethodGet, "/api/channel", nil)
	if w.Code != http.StatusOK {
		t.Errorf("after ClearFaults got %d", w.Code)
	}
}

func TestMetrics(t *testing.T) {
	s := newTestServer(t)

	do(t, s, http.MethodGet, "/api/admin/channel-groups", nil)
	do(t, s, http.MethodPost, "/api/admin/channel-groups/7/children/reorder", []int64{1})

	w, _ := serve(t, s, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("metrics status %d", w.Code)
	}
	body := w.Body.String()
	for _, want := range []string{
		`realms_sandbox_requests_total{method="GET",route="/api/admin/channel-groups",status="200"} 1`,
		`realms_sandbox_envelope_failures_total{method="POST",route="/api/admin/channel-groups/:group_id/children/reorder"} 1`,
		"realms_sandbox_request_duration_seconds_bucket",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("metrics missing %q", want)
		}
	}
}

func TestMetricsDisabled(t *testing.T) {
	s := NewServer(Options{UserID: testUser, Session: testSession, Logger: slog.New(slog.NewTextHandler(io.Discard, nil))})
	w, _ := serve(t, s, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected 404 without metrics, got %d", w.Code)
	}
}

func TestChannelsReorderAndTest(t *testing.T) {
	s := newTestServer(t)

	_, env := do(t, s, http.MethodPost, "/api/channel/reorder", []int64{13, 11})
	if !env.Success {
		t.Fatalf("reorder: %s", env.Message)
	}
	_, env = do(t, s, http.MethodGet, "/api/channel", nil)
	var ids []int64
	for _, ch := range decode[[]api.Channel](t, env) {
		ids = append(ids, ch.ID)
	}
	if !slices.Equal(ids, []int64{13, 11, 12, 14}) {
		t.Errorf("channel order = %v", ids)
	}

	_, env = do(t, s, http.MethodGet, "/api/channel/test/11", nil)
	if res := decode[api.ChannelTestResult](t, env); !env.Success || res.LatencyMS <= 0 {
		t.Errorf("test = %+v %+v", env, res)
	}
	_, env = do(t, s, http.MethodGet, "/api/channel/test/14", nil)
	if env.Success {
		t.Error("Expected disabled channel test to fail")
	}
}

func TestUserBalance(t *testing.T) {
	s := newTestServer(t)

	_, env := do(t, s, http.MethodPost, "/api/admin/users/2/balance", gin.H{"amount_usd": "0.25", "note": "refund"})
	if got := decode[map[string]string](t, env)["balance_usd"]; got != "12.75" {
		t.Errorf("balance = %q", got)
	}
	_, env = do(t, s, http.MethodPost, "/api/admin/users/2/balance", gin.H{"amount_usd": "-100"})
	if env.Success {
		t.Error("Expected overdraft to be rejected")
	}
	_, env = do(t, s, http.MethodDelete, "/api/admin/users/5", nil)
	if env.Success {
		t.Error("Expected deleting the logged-in user to fail")
	}
}

func TestTicketReplyMultipart(t *testing.T) {
	s := newTestServer(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	_ = mw.WriteField("body", "Refunded.")
	part, _ := mw.CreateFormFile("attachments", "receipt.txt")
	_, _ = part.Write([]byte("paid twice"))
	_ = mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/admin/tickets/1/reply", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set(api.UserHeader, "5")
	req.AddCookie(&http.Cookie{Name: api.DefaultCookieName, Value: testSession})
	_, env := serve(t, s, req)
	if !env.Success {
		t.Fatalf("reply: %s", env.Message)
	}

	_, env = do(t, s, http.MethodGet, "/api/admin/tickets/1", nil)
	detail := decode[api.TicketDetail](t, env)
	last := detail.Messages[len(detail.Messages)-1]
	if last.Body != "Refunded." || len(last.Attachments) != 1 || last.Attachments[0].Name != "receipt.txt" {
		t.Errorf("last message = %+v", last)
	}

	do(t, s, http.MethodPost, "/api/admin/tickets/1/close", nil)
	_, env = do(t, s, http.MethodGet, "/api/admin/tickets?status=open", nil)
	if got := decode[[]api.TicketListItem](t, env); len(got) != 0 {
		t.Errorf("open tickets after close = %+v", got)
	}
	_, env = do(t, s, http.MethodGet, "/api/admin/tickets?status=closed", nil)
	if got := decode[[]api.TicketListItem](t, env); len(got) != 1 {
		t.Errorf("closed tickets = %+v", got)
	}
}

func TestSettingsUpdateAndReset(t *testing.T) {
	s := newTestServer(t)

	_, env := do(t, s, http.MethodGet, "/api/admin/settings", nil)
	req := decode[api.Settings](t, env).UpdateRequest()
	req.SiteBaseURL = "https://realms.example.com"
	req.FeatureEnabled["feature_disable_tickets"] = false

	_, env = do(t, s, http.MethodPut, "/api/admin/settings", req)
	if !env.Success {
		t.Fatalf("update: %s", env.Message)
	}
	_, env = do(t, s, http.MethodGet, "/api/admin/settings", nil)
	got := decode[api.Settings](t, env)
	if got.SiteBaseURLEffective != "https://realms.example.com" || !got.SiteBaseURLOverride {
		t.Errorf("site url = %+v", got)
	}
	if item := got.FeatureBanGroups[0].Items[1]; !item.Disabled || !item.Override {
		t.Errorf("tickets feature = %+v", item)
	}

	do(t, s, http.MethodPost, "/api/admin/settings/reset", nil)
	_, env = do(t, s, http.MethodGet, "/api/admin/settings", nil)
	got = decode[api.Settings](t, env)
	if got.SiteBaseURLOverride || got.FeatureBanGroups[0].Items[1].Disabled {
		t.Errorf("reset did not restore defaults: %+v", got)
	}
}
