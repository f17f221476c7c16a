package drafts

import (
	"errors"
	"path/filepath"
	"slices"
	"testing"
	"time"
)

func createTestStore(t *testing.T) *Store {
	t.Helper()

	store, err := NewStore(filepath.Join(t.TempDir(), "nested", "drafts.db"))
	if err != nil {
		t.Fatalf("Failed to create Store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func subgroupKey(parent string) Key {
	return Key{BaseURL: "https://realms.example.com", Kind: KindSubgroups, Parent: parent}
}

func TestStore_SaveAndGet(t *testing.T) {
	t.Parallel()
	store := createTestStore(t)

	d := &Draft{Key: subgroupKey("vip"), Base: []string{"a", "b"}, Working: []string{"b", "c"}}
	if err := store.Save(d); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	got, err := store.Get(subgroupKey("vip"))
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if !slices.Equal(got.Base, []string{"a", "b"}) {
		t.Errorf("Base = %v", got.Base)
	}
	if !slices.Equal(got.Working, []string{"b", "c"}) {
		t.Errorf("Working = %v", got.Working)
	}
	if got.CreatedAt.IsZero() || got.UpdatedAt.IsZero() {
		t.Error("timestamps not set")
	}
}

func TestStore_SaveReplacesWorkingSet(t *testing.T) {
	t.Parallel()
	store := createTestStore(t)
	k := subgroupKey("vip")

	if err := store.Save(&Draft{Key: k, Base: []string{"a"}, Working: []string{"a", "b"}}); err != nil {
		t.Fatal(err)
	}
	first, err := store.Get(k)
	if err != nil {
		t.Fatal(err)
	}

	time.Sleep(5 * time.Millisecond)
	if err := store.Save(&Draft{Key: k, Base: []string{"a"}, Working: []string{"c"}}); err != nil {
		t.Fatal(err)
	}
	second, err := store.Get(k)
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(second.Working, []string{"c"}) {
		t.Errorf("Working = %v, want [c]", second.Working)
	}
	if !second.CreatedAt.Equal(first.CreatedAt) {
		t.Errorf("CreatedAt changed: %v -> %v", first.CreatedAt, second.CreatedAt)
	}
	if !second.UpdatedAt.After(first.UpdatedAt) {
		t.Errorf("UpdatedAt not advanced: %v -> %v", first.UpdatedAt, second.UpdatedAt)
	}
}

func TestStore_EmptyWorkingSetRoundTrips(t *testing.T) {
	t.Parallel()
	store := createTestStore(t)
	k := subgroupKey("vip")

	if err := store.Save(&Draft{Key: k, Base: []string{"a"}}); err != nil {
		t.Fatal(err)
	}
	got, err := store.Get(k)
	if err != nil {
		t.Fatal(err)
	}
	if got.Working == nil || len(got.Working) != 0 {
		t.Errorf("Working = %#v, want empty list", got.Working)
	}
}

func TestStore_KeyedByParentAndDeployment(t *testing.T) {
	t.Parallel()
	store := createTestStore(t)

	other := Key{BaseURL: "http://127.0.0.1:18080", Kind: KindSubgroups, Parent: "vip"}
	for _, d := range []*Draft{
		{Key: subgroupKey("vip"), Working: []string{"x"}},
		{Key: subgroupKey("free"), Working: []string{"y"}},
		{Key: other, Working: []string{"z"}},
	} {
		if err := store.Save(d); err != nil {
			t.Fatal(err)
		}
	}

	got, err := store.Get(other)
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(got.Working, []string{"z"}) {
		t.Errorf("Working = %v", got.Working)
	}

	list, err := store.List("https://realms.example.com")
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 2 {
		t.Fatalf("List returned %d drafts, want 2", len(list))
	}
}

func TestStore_GetMissing(t *testing.T) {
	t.Parallel()
	store := createTestStore(t)

	_, err := store.Get(subgroupKey("nope"))
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Get error = %v, want ErrNotFound", err)
	}
}

func TestStore_Delete(t *testing.T) {
	t.Parallel()
	store := createTestStore(t)
	k := subgroupKey("vip")

	if err := store.Save(&Draft{Key: k, Working: []string{"a"}}); err != nil {
		t.Fatal(err)
	}
	if err := store.Delete(k); err != nil {
		t.Fatal(err)
	}
	if _, err := store.Get(k); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get after Delete = %v", err)
	}
	if err := store.Delete(k); err != nil {
		t.Errorf("second Delete = %v", err)
	}
}

func TestStore_Events(t *testing.T) {
	t.Parallel()
	store := createTestStore(t)
	k := subgroupKey("vip")

	for _, action := range []string{"add", "move", "submit"} {
		if err := store.Record(k, action, "detail-"+action); err != nil {
			t.Fatal(err)
		}
	}
	if err := store.Record(subgroupKey("free"), "add", ""); err != nil {
		t.Fatal(err)
	}

	events, err := store.Events(k)
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 3 {
		t.Fatalf("Events returned %d, want 3", len(events))
	}
	var actions []string
	for _, e := range events {
		actions = append(actions, e.Action)
		if e.ID == "" {
			t.Error("event without id")
		}
	}
	if !slices.Equal(actions, []string{"add", "move", "submit"}) {
		t.Errorf("actions = %v", actions)
	}
	if events[2].Detail != "detail-submit" {
		t.Errorf("detail = %q", events[2].Detail)
	}
}

func TestStore_Reopen(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "drafts.db")
	k := subgroupKey("vip")

	store, err := NewStore(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := store.Save(&Draft{Key: k, Working: []string{"kept"}}); err != nil {
		t.Fatal(err)
	}
	store.Close()

	reopened, err := NewStore(path)
	if err != nil {
		t.Fatal(err)
	}
	defer reopened.Close()
	got, err := reopened.Get(k)
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(got.Working, []string{"kept"}) {
		t.Errorf("Working = %v", got.Working)
	}
}
