package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := NewClient(Options{
		BaseURL:       srv.URL + "/",
		UserID:        42,
		SessionCookie: "sess-abc",
		Timeout:       5 * time.Second,
	})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return c
}

func writeEnvelope(w http.ResponseWriter, status int, success bool, message string, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	body := map[string]any{"success": success}
	if message != "" {
		body["message"] = message
	}
	if data != nil {
		body["data"] = data
	}
	_ = json.NewEncoder(w).Encode(body)
}

func TestNewClient_RejectsBadBaseURL(t *testing.T) {
	tests := []struct {
		name    string
		baseURL string
	}{
		{"empty", ""},
		{"blank", "   "},
		{"relative", "/api"},
		{"no host", "http://"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewClient(Options{BaseURL: tt.baseURL})
			if !IsValidation(err) {
				t.Errorf("NewClient(%q) error = %v, want validation error", tt.baseURL, err)
			}
		})
	}
}

func TestNewClient_TrimsTrailingSlash(t *testing.T) {
	c, err := NewClient(Options{BaseURL: "https://realms.example.com/"})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	if got := c.BaseURL(); got != "https://realms.example.com" {
		t.Errorf("BaseURL() = %q", got)
	}
}

func TestClient_SendsSessionHeaders(t *testing.T) {
	var seen *http.Request
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		seen = r.Clone(context.Background())
		writeEnvelope(w, http.StatusOK, true, "", []ChannelGroup{{ID: 1, Name: "default"}})
	})

	groups, err := c.ListChannelGroups(context.Background())
	if err != nil {
		t.Fatalf("ListChannelGroups: %v", err)
	}
	if len(groups) != 1 || groups[0].Name != "default" {
		t.Fatalf("groups = %+v", groups)
	}

	if seen.URL.Path != "/api/admin/channel-groups" {
		t.Errorf("path = %q", seen.URL.Path)
	}
	if got := seen.Header.Get(UserHeader); got != "42" {
		t.Errorf("%s = %q, want 42", UserHeader, got)
	}
	if got := seen.Header.Get("Accept"); got != "application/json" {
		t.Errorf("Accept = %q", got)
	}
	if seen.Header.Get(RequestIDHeader) == "" {
		t.Errorf("missing %s", RequestIDHeader)
	}
	cookie, err := seen.Cookie(DefaultCookieName)
	if err != nil {
		t.Fatalf("missing session cookie: %v", err)
	}
	if cookie.Value != "sess-abc" {
		t.Errorf("cookie = %q", cookie.Value)
	}
}

func TestClient_RequestIDIsFreshPerCall(t *testing.T) {
	var ids []string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		ids = append(ids, r.Header.Get(RequestIDHeader))
		writeEnvelope(w, http.StatusOK, true, "", nil)
	})

	ctx := context.Background()
	if err := c.DeleteChannelGroup(ctx, 3); err != nil {
		t.Fatal(err)
	}
	if err := c.DeleteChannelGroup(ctx, 3); err != nil {
		t.Fatal(err)
	}
	if len(ids) != 2 || ids[0] == ids[1] {
		t.Errorf("request ids = %v, want two distinct", ids)
	}
}

func TestClient_ServerFailure(t *testing.T) {
	tests := []struct {
		name        string
		handler     http.HandlerFunc
		wantStatus  int
		wantMessage string
	}{
		{
			name: "success false with 200",
			handler: func(w http.ResponseWriter, r *http.Request) {
				writeEnvelope(w, http.StatusOK, false, "分组不存在", nil)
			},
			wantStatus:  http.StatusOK,
			wantMessage: "分组不存在",
		},
		{
			name: "envelope on 400",
			handler: func(w http.ResponseWriter, r *http.Request) {
				writeEnvelope(w, http.StatusBadRequest, false, "name is required", nil)
			},
			wantStatus:  http.StatusBadRequest,
			wantMessage: "name is required",
		},
		{
			name: "non-JSON 502",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusBadGateway)
				_, _ = io.WriteString(w, "upstream exploded")
			},
			wantStatus:  http.StatusBadGateway,
			wantMessage: "upstream exploded",
		},
		{
			name: "empty 500",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
			},
			wantStatus:  http.StatusInternalServerError,
			wantMessage: "Internal Server Error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, tt.handler)
			_, err := c.GetChannelGroup(context.Background(), 9)

			var apiErr *Error
			if !errors.As(err, &apiErr) {
				t.Fatalf("error = %v, want *Error", err)
			}
			if apiErr.Status != tt.wantStatus {
				t.Errorf("Status = %d, want %d", apiErr.Status, tt.wantStatus)
			}
			if got := Message(err); got != tt.wantMessage {
				t.Errorf("Message() = %q, want %q", got, tt.wantMessage)
			}
			if IsTransport(err) {
				t.Error("server failure reported as transport error")
			}
		})
	}
}

func TestClient_TransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	base := srv.URL
	srv.Close()

	c, err := NewClient(Options{BaseURL: base, UserID: 1})
	if err != nil {
		t.Fatal(err)
	}
	_, err = c.ListUsers(context.Background())
	if !IsTransport(err) {
		t.Fatalf("error = %v, want transport error", err)
	}
	if msg := Message(err); !strings.HasPrefix(msg, "network error: ") {
		t.Errorf("Message() = %q", msg)
	}
}

func TestClient_CancelledContext(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, http.StatusOK, true, "", nil)
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := c.DeleteUser(ctx, 5)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("error = %v, want context.Canceled", err)
	}
	if got := Message(err); got != "request cancelled" {
		t.Errorf("Message() = %q", got)
	}
}

// blockingGroups serves one channel group list once release is closed and
// reports on arrived when the first request comes in.
func blockingGroups(calls *atomic.Int32, arrived chan<- struct{}, release <-chan struct{}) http.HandlerFunc {
	var once sync.Once
	return func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		once.Do(func() { close(arrived) })
		select {
		case <-release:
		case <-r.Context().Done():
			return
		}
		writeEnvelope(w, http.StatusOK, true, "", []map[string]any{{"id": 7, "name": "primary", "status": 1}})
	}
}

func TestClient_ConcurrentGetsShareOneCall(t *testing.T) {
	var calls atomic.Int32
	arrived, release := make(chan struct{}), make(chan struct{})
	c := newTestClient(t, blockingGroups(&calls, arrived, release))

	type result struct {
		n   int
		err error
	}
	results := make(chan result, 2)
	get := func() {
		groups, err := c.ListChannelGroups(context.Background())
		results <- result{len(groups), err}
	}

	go get()
	<-arrived
	go get()
	time.Sleep(50 * time.Millisecond)
	close(release)

	for range 2 {
		r := <-results
		if r.err != nil || r.n != 1 {
			t.Errorf("result = %d groups, %v", r.n, r.err)
		}
	}
	if n := calls.Load(); n != 1 {
		t.Errorf("server saw %d calls, want 1", n)
	}
}

func TestClient_SharedGetSurvivesOtherCallerCancel(t *testing.T) {
	var calls atomic.Int32
	arrived, release := make(chan struct{}), make(chan struct{})
	c := newTestClient(t, blockingGroups(&calls, arrived, release))

	ctxA, cancelA := context.WithCancel(context.Background())
	defer cancelA()
	errA := make(chan error, 1)
	go func() {
		_, err := c.ListChannelGroups(ctxA)
		errA <- err
	}()
	<-arrived

	type result struct {
		n   int
		err error
	}
	resB := make(chan result, 1)
	go func() {
		groups, err := c.ListChannelGroups(context.Background())
		resB <- result{len(groups), err}
	}()
	time.Sleep(50 * time.Millisecond)

	cancelA()
	select {
	case err := <-errA:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("cancelled caller error = %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("cancelled caller did not return")
	}

	close(release)
	select {
	case r := <-resB:
		if r.err != nil {
			t.Fatalf("caller that never cancelled failed: %v", r.err)
		}
		if r.n != 1 {
			t.Errorf("groups = %d, want 1", r.n)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("second caller did not return")
	}
}

func TestClient_ValidationHappensBeforeAnyCall(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		writeEnvelope(w, http.StatusOK, true, "", nil)
	})
	ctx := context.Background()

	checks := []struct {
		name string
		call func() error
	}{
		{"zero group id", func() error { _, err := c.GetChannelGroupDetail(ctx, 0); return err }},
		{"negative pointer channel", func() error {
			return c.UpdateChannelGroupPointer(ctx, 1, UpdateChannelGroupPointerRequest{ChannelID: -1})
		}},
		{"duplicate member ids", func() error { return c.ReorderChannelGroupMembers(ctx, 7, []int64{1, 2, 1}) }},
		{"empty group name", func() error { _, err := c.CreateChannelGroup(ctx, CreateChannelGroupRequest{Name: " "}); return err }},
		{"bad multiplier", func() error {
			_, err := c.CreateChannelGroup(ctx, CreateChannelGroupRequest{Name: "g", PriceMultiplier: "1e3"})
			return err
		}},
		{"duplicate subgroups", func() error { return c.ReplaceMainGroupSubgroups(ctx, "vip", []string{"a", "a"}) }},
		{"blank subgroup", func() error { return c.ReplaceMainGroupSubgroups(ctx, "vip", []string{"a", ""}) }},
		{"empty main group", func() error { return c.DeleteMainGroup(ctx, "") }},
		{"bad email", func() error {
			_, err := c.CreateUser(ctx, CreateUserRequest{Email: "nope", Username: "u", Password: "p"})
			return err
		}},
		{"bad balance", func() error { _, err := c.AddUserBalance(ctx, 1, "ten", ""); return err }},
		{"empty reply", func() error { return c.ReplyTicket(ctx, 1, "  ", nil) }},
		{"bad redirect uri", func() error {
			_, err := c.CreateOAuthApp(ctx, OAuthAppRequest{Name: "app", Status: 1, RedirectURIs: []string{"not a uri"}})
			return err
		}},
		{"bad status", func() error { return c.SetAnnouncementStatus(ctx, 1, 2) }},
		{"bad payment type", func() error {
			_, err := c.CreatePaymentChannel(ctx, CreatePaymentChannelRequest{Type: "paypal", Name: "p"})
			return err
		}},
		{"zero duration plan", func() error {
			_, err := c.CreateSubscriptionPlan(ctx, SubscriptionPlanRequest{Name: "p", PriceCNY: "10"})
			return err
		}},
		{"bad smtp port", func() error { return c.UpdateSettings(ctx, UpdateSettingsRequest{SMTPPort: 70000}) }},
	}

	for _, tt := range checks {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.call(); !IsValidation(err) {
				t.Errorf("error = %v, want validation error", err)
			}
		})
	}
	if n := calls.Load(); n != 0 {
		t.Errorf("server saw %d requests, want 0", n)
	}
}

func TestClient_ReorderSendsFullArray(t *testing.T) {
	var (
		path string
		body []int64
	)
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		if r.Method != http.MethodPost {
			t.Errorf("method = %s", r.Method)
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode body: %v", err)
		}
		writeEnvelope(w, http.StatusOK, true, "", nil)
	})

	if err := c.ReorderChannelGroupMembers(context.Background(), 7, []int64{101, 103, 102}); err != nil {
		t.Fatal(err)
	}
	if path != "/api/admin/channel-groups/7/children/reorder" {
		t.Errorf("path = %q", path)
	}
	want := []int64{101, 103, 102}
	if len(body) != len(want) {
		t.Fatalf("body = %v, want %v", body, want)
	}
	for i := range want {
		if body[i] != want[i] {
			t.Fatalf("body = %v, want %v", body, want)
		}
	}
}

func TestClient_ReplaceSubgroupsEscapesName(t *testing.T) {
	var (
		rawPath string
		body    struct {
			Subgroups []string `json:"subgroups"`
		}
	)
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		rawPath = r.URL.EscapedPath()
		_ = json.NewDecoder(r.Body).Decode(&body)
		writeEnvelope(w, http.StatusOK, true, "", nil)
	})

	if err := c.ReplaceMainGroupSubgroups(context.Background(), "team a/b", []string{"x", "y"}); err != nil {
		t.Fatal(err)
	}
	if rawPath != "/api/admin/main-groups/team%20a%2Fb/subgroups" {
		t.Errorf("path = %q", rawPath)
	}
	if strings.Join(body.Subgroups, ",") != "x,y" {
		t.Errorf("subgroups = %v", body.Subgroups)
	}
}

func TestClient_ReplaceSubgroupsSendsEmptyArray(t *testing.T) {
	var raw string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		raw = string(b)
		writeEnvelope(w, http.StatusOK, true, "", nil)
	})

	if err := c.ReplaceMainGroupSubgroups(context.Background(), "vip", nil); err != nil {
		t.Fatal(err)
	}
	if raw != `{"subgroups":[]}` {
		t.Errorf("body = %s", raw)
	}
}

func TestClient_TicketFilterAndReply(t *testing.T) {
	var (
		query       string
		replyBody   string
		attachNames []string
		attachData  []string
	)
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet:
			query = r.URL.RawQuery
			writeEnvelope(w, http.StatusOK, true, "", []TicketListItem{})
		case strings.HasSuffix(r.URL.Path, "/reply"):
			if !strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
				t.Errorf("content type = %q", r.Header.Get("Content-Type"))
			}
			if err := r.ParseMultipartForm(1 << 20); err != nil {
				t.Errorf("ParseMultipartForm: %v", err)
			}
			replyBody = r.FormValue("body")
			for _, fh := range r.MultipartForm.File["attachments"] {
				attachNames = append(attachNames, fh.Filename)
				f, _ := fh.Open()
				b, _ := io.ReadAll(f)
				f.Close()
				attachData = append(attachData, string(b))
			}
			writeEnvelope(w, http.StatusOK, true, "", nil)
		}
	})
	ctx := context.Background()

	if _, err := c.ListTickets(ctx, TicketsAll); err != nil {
		t.Fatal(err)
	}
	if query != "" {
		t.Errorf("all filter query = %q, want none", query)
	}
	if _, err := c.ListTickets(ctx, TicketsOpen); err != nil {
		t.Fatal(err)
	}
	if query != "status=open" {
		t.Errorf("open filter query = %q", query)
	}

	err := c.ReplyTicket(ctx, 12, "looking into it", []Attachment{
		{Name: "trace.txt", Content: strings.NewReader("line 1")},
		{Name: "shot.png", Content: strings.NewReader("PNG")},
	})
	if err != nil {
		t.Fatal(err)
	}
	if replyBody != "looking into it" {
		t.Errorf("body = %q", replyBody)
	}
	if strings.Join(attachNames, ",") != "trace.txt,shot.png" {
		t.Errorf("attachment names = %v", attachNames)
	}
	if strings.Join(attachData, ",") != "line 1,PNG" {
		t.Errorf("attachment data = %v", attachData)
	}
}

func TestClient_PointerRoundTrip(t *testing.T) {
	var put UpdateChannelGroupPointerRequest
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			writeEnvelope(w, http.StatusOK, true, "", ChannelGroupPointer{GroupID: 7, ChannelID: 11, Pinned: true})
		case http.MethodPut:
			_ = json.NewDecoder(r.Body).Decode(&put)
			writeEnvelope(w, http.StatusOK, true, "", nil)
		}
	})
	ctx := context.Background()

	p, err := c.GetChannelGroupPointer(ctx, 7)
	if err != nil {
		t.Fatal(err)
	}
	if p.ChannelID != 11 || !p.Pinned {
		t.Errorf("pointer = %+v", p)
	}

	pinned := false
	if err := c.UpdateChannelGroupPointer(ctx, 7, UpdateChannelGroupPointerRequest{ChannelID: 12, Pinned: &pinned}); err != nil {
		t.Fatal(err)
	}
	if put.ChannelID != 12 || put.Pinned == nil || *put.Pinned {
		t.Errorf("put body = %+v", put)
	}
}

func TestClient_CreateReturnsID(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, http.StatusOK, true, "", Created{ID: 55})
	})
	id, err := c.CreateChildChannelGroup(context.Background(), 7, CreateChannelGroupRequest{Name: "fallback"})
	if err != nil {
		t.Fatal(err)
	}
	if id != 55 {
		t.Errorf("id = %d, want 55", id)
	}
}

func TestMemberKind(t *testing.T) {
	gid, cid := int64(3), int64(4)
	gname, cname := "nested", "openai-1"
	tests := []struct {
		name     string
		member   ChannelGroupMember
		wantKind MemberKind
		wantName string
	}{
		{"group", ChannelGroupMember{MemberGroupID: &gid, MemberGroupName: &gname}, MemberKindGroup, "nested"},
		{"channel", ChannelGroupMember{MemberChannelID: &cid, MemberChannelName: &cname}, MemberKindChannel, "openai-1"},
		{"neither", ChannelGroupMember{}, MemberKindUnknown, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.member.Kind(); got != tt.wantKind {
				t.Errorf("Kind() = %q, want %q", got, tt.wantKind)
			}
			if got := tt.member.DisplayName(); got != tt.wantName {
				t.Errorf("DisplayName() = %q, want %q", got, tt.wantName)
			}
		})
	}
}

func TestValidateDecimal(t *testing.T) {
	tests := []struct {
		in string
		ok bool
	}{
		{"1", true},
		{"0.85", true},
		{"12.50", true},
		{"", false},
		{"-1", false},
		{"1.", false},
		{".5", false},
		{"1e3", false},
		{"abc", false},
	}
	for _, tt := range tests {
		err := validateDecimal("x", tt.in)
		if (err == nil) != tt.ok {
			t.Errorf("validateDecimal(%q) error = %v, want ok=%v", tt.in, err, tt.ok)
		}
	}
	if err := validateSignedDecimal("x", "-2.5"); err != nil {
		t.Errorf("validateSignedDecimal(-2.5) = %v", err)
	}
}

func TestParseID(t *testing.T) {
	if id, err := ParseID("group_id", " 17 "); err != nil || id != 17 {
		t.Errorf("ParseID(17) = %d, %v", id, err)
	}
	for _, raw := range []string{"", "0", "-3", "x"} {
		if _, err := ParseID("group_id", raw); !IsValidation(err) {
			t.Errorf("ParseID(%q) error = %v, want validation error", raw, err)
		}
	}
}

func TestSettingsUpdateRequest(t *testing.T) {
	s := Settings{
		SiteBaseURL: "https://realms.example.com",
		SMTPPort:    465,
		FeatureBanGroups: []FeatureBanGroup{{
			Title: "billing",
			Items: []FeatureBanItem{
				{Key: "feature_disable_billing", Disabled: true, Editable: true},
				{Key: "feature_disable_models", Disabled: false, Editable: true},
				{Key: "feature_disable_web_announcements", Disabled: true, Editable: false},
			},
		}},
	}
	req := s.UpdateRequest()
	if req.SiteBaseURL != s.SiteBaseURL || req.SMTPPort != 465 {
		t.Errorf("req = %+v", req)
	}
	if req.FeatureEnabled["feature_disable_billing"] {
		t.Error("disabled feature reported enabled")
	}
	if !req.FeatureEnabled["feature_disable_models"] {
		t.Error("enabled feature reported disabled")
	}
	if _, ok := req.FeatureEnabled["feature_disable_web_announcements"]; ok {
		t.Error("non-editable feature included")
	}
}
