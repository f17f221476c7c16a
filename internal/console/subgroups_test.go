package console

import (
	"context"
	"errors"
	"slices"
	"testing"

	"github.com/FlowerRealm/realms-admin/internal/api"
	"github.com/FlowerRealm/realms-admin/internal/ordering"
)

// fakeSubgroupServer stores whatever the last replacement submitted.
type fakeSubgroupServer struct {
	stored   []string
	replaces int
	err      error
}

func (f *fakeSubgroupServer) mock() *MockAdminAPI {
	return &MockAdminAPI{
		ListMainGroupSubgroupsFunc: func(ctx context.Context, name string) ([]api.MainGroupSubgroup, error) {
			return subgroupRows(f.stored...), nil
		},
		ReplaceMainGroupSubgroupsFunc: func(ctx context.Context, name string, subgroups []string) error {
			f.replaces++
			if f.err != nil {
				return f.err
			}
			f.stored = slices.Clone(subgroups)
			return nil
		},
	}
}

func TestSubgroupEditor_LoadNormalizes(t *testing.T) {
	srv := &fakeSubgroupServer{stored: []string{"a", " b ", "a", "", "c", "b"}}
	e := NewSubgroupEditor(srv.mock(), "vip")

	if err := e.Load(context.Background()); err != nil {
		t.Fatal(err)
	}
	if got := e.Names(); !slices.Equal(got, []string{"a", "b", "c"}) {
		t.Errorf("Names() = %v, want [a b c]", got)
	}
	if e.Dirty() {
		t.Error("fresh editor reported dirty")
	}
}

func TestSubgroupEditor_EditsStayLocalUntilSave(t *testing.T) {
	srv := &fakeSubgroupServer{stored: []string{"a", "b"}}
	e := NewSubgroupEditor(srv.mock(), "vip")
	ctx := context.Background()
	if err := e.Load(ctx); err != nil {
		t.Fatal(err)
	}

	if !e.Add(" c ") {
		t.Error("Add(c) reported no change")
	}
	if e.Add("a") {
		t.Error("Add(a) changed a set that already has a")
	}
	if e.Add("  ") {
		t.Error("Add(blank) changed the set")
	}
	if !e.Remove("a") {
		t.Error("Remove(a) reported no change")
	}
	if !e.Move(1, ordering.Up) {
		t.Error("Move(1, up) reported no change")
	}
	if e.Move(0, ordering.Up) {
		t.Error("boundary move reported a change")
	}

	if srv.replaces != 0 {
		t.Fatalf("server saw %d replacements before save", srv.replaces)
	}
	if !e.Dirty() {
		t.Fatal("editor not dirty after edits")
	}

	if err := e.Save(ctx); err != nil {
		t.Fatal(err)
	}
	if srv.replaces != 1 {
		t.Errorf("replacements = %d, want 1", srv.replaces)
	}
	if !slices.Equal(srv.stored, []string{"c", "b"}) {
		t.Errorf("server = %v, want [c b]", srv.stored)
	}
	if e.Dirty() {
		t.Error("editor dirty after save")
	}
}

// Saving S1 then S2 leaves the server at exactly S2.
func TestSubgroupEditor_FullReplace(t *testing.T) {
	srv := &fakeSubgroupServer{stored: []string{"old"}}
	e := NewSubgroupEditor(srv.mock(), "vip")
	ctx := context.Background()
	if err := e.Load(ctx); err != nil {
		t.Fatal(err)
	}

	e.Remove("old")
	e.Add("x")
	e.Add("y")
	if err := e.Save(ctx); err != nil {
		t.Fatal(err)
	}

	e.Remove("x")
	e.Add("z")
	if err := e.Save(ctx); err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(srv.stored, []string{"y", "z"}) {
		t.Errorf("server = %v, want [y z]", srv.stored)
	}
}

func TestSubgroupEditor_SaveEmptySendsEmptyList(t *testing.T) {
	srv := &fakeSubgroupServer{stored: []string{"a"}}
	e := NewSubgroupEditor(srv.mock(), "vip")
	ctx := context.Background()
	if err := e.Load(ctx); err != nil {
		t.Fatal(err)
	}
	e.Remove("a")
	if err := e.Save(ctx); err != nil {
		t.Fatal(err)
	}
	if srv.stored == nil || len(srv.stored) != 0 {
		t.Errorf("server = %#v, want empty non-nil list", srv.stored)
	}
}

func TestSubgroupEditor_FailedSaveKeepsWorkingSet(t *testing.T) {
	srv := &fakeSubgroupServer{stored: []string{"a"}}
	e := NewSubgroupEditor(srv.mock(), "vip")
	ctx := context.Background()
	if err := e.Load(ctx); err != nil {
		t.Fatal(err)
	}
	e.Add("b")
	srv.err = ErrMockReplace

	if err := e.Save(ctx); !errors.Is(err, ErrMockReplace) {
		t.Fatalf("Save = %v", err)
	}
	if !slices.Equal(e.Names(), []string{"a", "b"}) || !e.Dirty() {
		t.Errorf("working set = %v dirty=%v", e.Names(), e.Dirty())
	}
	if !slices.Equal(srv.stored, []string{"a"}) {
		t.Errorf("server = %v", srv.stored)
	}
}

func TestSubgroupEditor_Restore(t *testing.T) {
	e := NewSubgroupEditor(&MockAdminAPI{}, "vip")
	e.Restore([]string{"a", "b"}, []string{"b", "a", "b", " "})
	if !slices.Equal(e.Base(), []string{"a", "b"}) {
		t.Errorf("Base() = %v", e.Base())
	}
	if !slices.Equal(e.Names(), []string{"b", "a"}) {
		t.Errorf("Names() = %v", e.Names())
	}
	if !e.Dirty() {
		t.Error("restored draft not dirty")
	}
}

func TestSubgroupOrderView_PersistsEachMove(t *testing.T) {
	srv := &fakeSubgroupServer{stored: []string{"a", "b", "c"}}
	v := NewSubgroupOrderView(srv.mock(), "vip", WithLogger(quietLogger()))
	ctx := context.Background()
	if err := v.Reload(ctx); err != nil {
		t.Fatal(err)
	}

	if _, err := v.Move(ctx, 2, ordering.Up); err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(srv.stored, []string{"a", "c", "b"}) {
		t.Errorf("server = %v", srv.stored)
	}
}

func TestMainGroupsView_LoadAndCandidates(t *testing.T) {
	mock := &MockAdminAPI{
		ListMainGroupsFunc: func(ctx context.Context) ([]api.MainGroup, error) {
			return []api.MainGroup{{Name: "vip", Status: 1}}, nil
		},
		ListChannelGroupsFunc: func(ctx context.Context) ([]api.ChannelGroup, error) {
			return []api.ChannelGroup{
				{ID: 3, Name: "zeta", Status: 1, PriceMultiplier: "1"},
				{ID: 1, Name: "alpha", Status: 1, PriceMultiplier: "0.8"},
				{ID: 2, Name: "off", Status: 0},
			}, nil
		},
	}
	v := NewMainGroupsView(mock)
	if err := v.Load(context.Background()); err != nil {
		t.Fatal(err)
	}
	if len(v.Groups) != 1 || len(v.ChannelGroups) != 3 {
		t.Fatalf("groups=%d channel groups=%d", len(v.Groups), len(v.ChannelGroups))
	}

	cands := v.Candidates([]string{"zeta"})
	if len(cands) != 2 {
		t.Fatalf("candidates = %+v", cands)
	}
	if cands[0].Name != "alpha" || !cands[0].Available {
		t.Errorf("cands[0] = %+v", cands[0])
	}
	if cands[1].Name != "zeta" || cands[1].Available {
		t.Errorf("cands[1] = %+v", cands[1])
	}
	if g, ok := v.ChannelGroup("off"); !ok || g.ID != 2 {
		t.Errorf("ChannelGroup(off) = %+v, %v", g, ok)
	}
}

func TestMainGroupsView_AnyFailureClears(t *testing.T) {
	mock := &MockAdminAPI{
		ListMainGroupsFunc: func(ctx context.Context) ([]api.MainGroup, error) {
			return []api.MainGroup{{Name: "vip"}}, nil
		},
		ListChannelGroupsFunc: func(ctx context.Context) ([]api.ChannelGroup, error) {
			return nil, errors.New("boom")
		},
	}
	v := NewMainGroupsView(mock)
	if err := v.Load(context.Background()); err == nil {
		t.Fatal("expected error")
	}
	if v.Groups != nil || v.ChannelGroups != nil {
		t.Errorf("view not cleared")
	}
}

func TestListView_MutateRefetches(t *testing.T) {
	rows := []string{"a"}
	fetches := 0
	v := NewListView(func(context.Context) ([]string, error) {
		fetches++
		return slices.Clone(rows), nil
	})
	ctx := context.Background()
	if err := v.Load(ctx); err != nil {
		t.Fatal(err)
	}

	err := v.Mutate(ctx, func(context.Context) error {
		rows = append(rows, "b")
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if fetches != 2 || !slices.Equal(v.Rows, []string{"a", "b"}) {
		t.Errorf("fetches=%d rows=%v", fetches, v.Rows)
	}

	err = v.Mutate(ctx, func(context.Context) error { return errors.New("denied") })
	if err == nil || fetches != 2 {
		t.Errorf("failed mutate: err=%v fetches=%d", err, fetches)
	}
}
