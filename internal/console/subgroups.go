package console

import (
	"context"

	"github.com/FlowerRealm/realms-admin/internal/api"
	"github.com/FlowerRealm/realms-admin/internal/ordering"
)

// SubgroupAPI is what the subgroup editor needs from the admin API.
type SubgroupAPI interface {
	ListMainGroupSubgroups(ctx context.Context, name string) ([]api.MainGroupSubgroup, error)
	ReplaceMainGroupSubgroups(ctx context.Context, name string, subgroups []string) error
}

// SubgroupEditor is the working set of one main group's subgroups.
type SubgroupEditor struct {
	client  SubgroupAPI
	group   string
	base    []string
	working []string
}

func NewSubgroupEditor(client SubgroupAPI, group string) *SubgroupEditor {
	return &SubgroupEditor{client: client, group: group}
}

// Group is the main group being edited.
func (e *SubgroupEditor) Group() string { return e.group }

// Load seeds base and working set from the server, normalized.
func (e *SubgroupEditor) Load(ctx context.Context) error {
	rows, err := e.client.ListMainGroupSubgroups(ctx, e.group)
	if err != nil {
		return err
	}
	names := ordering.Normalize(api.SubgroupNames(rows))
	e.base = names
	e.working = clone(names)
	return nil
}

// Restore resumes an edit started earlier, e.g. from a saved draft.
func (e *SubgroupEditor) Restore(base, working []string) {
	e.base = ordering.Normalize(base)
	e.working = ordering.Normalize(working)
}

// Names returns the working set in order.
func (e *SubgroupEditor) Names() []string { return clone(e.working) }

// Base returns the set as last loaded or saved.
func (e *SubgroupEditor) Base() []string { return clone(e.base) }

// Add appends name unless it is blank or already present.
func (e *SubgroupEditor) Add(name string) bool {
	next, ok := ordering.AddIfAbsent(e.working, name)
	if ok {
		e.working = next
	}
	return ok
}

func (e *SubgroupEditor) Remove(name string) bool {
	next, ok := ordering.Remove(e.working, name)
	if ok {
		e.working = next
	}
	return ok
}

// Move transposes the subgroup at index with its neighbour in the working set.
func (e *SubgroupEditor) Move(index int, dir ordering.Direction) bool {
	next, ok := ordering.Move(e.working, index, dir)
	if ok {
		e.working = next
	}
	return ok
}

// Dirty reports whether the working set differs from the base.
func (e *SubgroupEditor) Dirty() bool {
	return !ordering.Equal(e.base, e.working)
}

// Save submits the complete working set as one replacement. On failure the
// working set is kept so the operator can retry.
func (e *SubgroupEditor) Save(ctx context.Context) error {
	names := clone(e.working)
	if names == nil {
		names = []string{}
	}
	if err := e.client.ReplaceMainGroupSubgroups(ctx, e.group, names); err != nil {
		return err
	}
	e.base = names
	e.working = clone(names)
	return nil
}

// NewSubgroupOrderView reorders a main group's subgroups with immediate
// persistence, one adjacent move at a time.
func NewSubgroupOrderView(client SubgroupAPI, group string, opts ...ReorderOption) *ReorderView[string] {
	load := func(ctx context.Context) ([]string, error) {
		rows, err := client.ListMainGroupSubgroups(ctx, group)
		if err != nil {
			return nil, err
		}
		return ordering.Normalize(api.SubgroupNames(rows)), nil
	}
	persist := func(ctx context.Context, names []string) error {
		return client.ReplaceMainGroupSubgroups(ctx, group, names)
	}
	return NewReorderView("main_group:"+group, load, persist, opts...)
}
