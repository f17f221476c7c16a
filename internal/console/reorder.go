package console

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/FlowerRealm/realms-admin/internal/api"
	"github.com/FlowerRealm/realms-admin/internal/ordering"
)

// Phase is where an ordered collection sits in the reorder-and-persist flow.
type Phase int

const (
	PhaseLoaded Phase = iota
	PhaseReordering
	PhasePersisting
	PhasePersisted
	PhasePersistFailed
)

func (p Phase) String() string {
	switch p {
	case PhaseLoaded:
		return "loaded"
	case PhaseReordering:
		return "reordering"
	case PhasePersisting:
		return "persisting"
	case PhasePersisted:
		return "persisted"
	case PhasePersistFailed:
		return "persist_failed"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// ReorderState is the value the reducer works on. Items is the order the
// operator sees; Baseline is the order before the move currently in flight.
type ReorderState[T comparable] struct {
	Items    []T    `json:"items"`
	Baseline []T    `json:"baseline,omitempty"`
	Phase    Phase  `json:"phase"`
	Err      string `json:"error,omitempty"`
}

// ActionKind enumerates reducer inputs.
type ActionKind int

const (
	ActionLoaded ActionKind = iota
	ActionMove
	ActionPersistStarted
	ActionPersistSucceeded
	ActionPersistFailed
	ActionRollback
)

// ReorderAction is one input to Reduce. Only the fields relevant to Kind are read.
type ReorderAction[T comparable] struct {
	Kind  ActionKind
	Items []T
	Index int
	Dir   ordering.Direction
	Err   error
}

// Reduce applies a to s and returns the next state. It never mutates s.
//
// A move at a boundary, or while a persist is in flight, returns s unchanged.
// A failed persist keeps the swapped order and records the error; the next
// move proceeds as from Reordering.
func Reduce[T comparable](s ReorderState[T], a ReorderAction[T]) ReorderState[T] {
	switch a.Kind {
	case ActionLoaded:
		return ReorderState[T]{Items: clone(a.Items), Phase: PhaseLoaded}

	case ActionMove:
		if s.Phase == PhasePersisting {
			return s
		}
		next, ok := ordering.Move(s.Items, a.Index, a.Dir)
		if !ok {
			return s
		}
		return ReorderState[T]{Items: next, Baseline: clone(s.Items), Phase: PhaseReordering}

	case ActionPersistStarted:
		if s.Phase != PhaseReordering {
			return s
		}
		s.Phase = PhasePersisting
		return s

	case ActionPersistSucceeded:
		if s.Phase != PhasePersisting {
			return s
		}
		return ReorderState[T]{Items: s.Items, Phase: PhasePersisted}

	case ActionPersistFailed:
		if s.Phase != PhasePersisting {
			return s
		}
		s.Phase = PhasePersistFailed
		s.Err = api.Message(a.Err)
		return s

	case ActionRollback:
		if s.Phase != PhasePersistFailed || s.Baseline == nil {
			return s
		}
		s.Items = clone(s.Baseline)
		s.Baseline = nil
		return s
	}
	return s
}

// LoadFunc fetches the authoritative order of one collection.
type LoadFunc[T comparable] func(ctx context.Context) ([]T, error)

// PersistFunc submits the complete order of one collection.
type PersistFunc[T comparable] func(ctx context.Context, items []T) error

type reorderOptions struct {
	rollback bool
	logger   *slog.Logger
}

// ReorderOption configures a ReorderView.
type ReorderOption func(*reorderOptions)

// WithRollbackOnFailure restores the pre-move order when a persist fails. The
// error annotation is kept either way.
func WithRollbackOnFailure() ReorderOption {
	return func(o *reorderOptions) { o.rollback = true }
}

// WithLogger sets the logger for persist outcomes.
func WithLogger(l *slog.Logger) ReorderOption {
	return func(o *reorderOptions) { o.logger = l }
}

// ReorderView drives one ordered collection through load, move and persist.
// A view is owned by one goroutine.
type ReorderView[T comparable] struct {
	name    string
	state   ReorderState[T]
	load    LoadFunc[T]
	persist PersistFunc[T]
	opts    reorderOptions
}

// NewReorderView builds a view. name only appears in logs.
func NewReorderView[T comparable](name string, load LoadFunc[T], persist PersistFunc[T], opts ...ReorderOption) *ReorderView[T] {
	o := reorderOptions{logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}
	return &ReorderView[T]{name: name, load: load, persist: persist, opts: o}
}

// Seed sets the order without a fetch, for views whose order arrives as part
// of a larger payload.
func (v *ReorderView[T]) Seed(items []T) {
	v.state = Reduce(v.state, ReorderAction[T]{Kind: ActionLoaded, Items: items})
}

// Reload refetches the authoritative order. On error the current state is kept.
func (v *ReorderView[T]) Reload(ctx context.Context) error {
	items, err := v.load(ctx)
	if err != nil {
		return err
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	v.Seed(items)
	return nil
}

// Move swaps the item at index with its neighbour and persists the whole
// list. It reports whether a swap happened; boundary moves issue no call.
// A persist error is returned and also recorded on the state.
func (v *ReorderView[T]) Move(ctx context.Context, index int, dir ordering.Direction) (bool, error) {
	next := Reduce(v.state, ReorderAction[T]{Kind: ActionMove, Index: index, Dir: dir})
	if next.Phase != PhaseReordering {
		return false, nil
	}
	v.state = Reduce(next, ReorderAction[T]{Kind: ActionPersistStarted})

	err := v.persist(ctx, clone(v.state.Items))
	if err != nil {
		v.state = Reduce(v.state, ReorderAction[T]{Kind: ActionPersistFailed, Err: err})
		if v.opts.rollback {
			v.state = Reduce(v.state, ReorderAction[T]{Kind: ActionRollback})
		}
		v.opts.logger.Warn("reorder not saved", "collection", v.name, "index", index, "direction", dir.String(), "error", err)
		return true, err
	}
	v.state = Reduce(v.state, ReorderAction[T]{Kind: ActionPersistSucceeded})
	v.opts.logger.Debug("reorder saved", "collection", v.name, "index", index, "direction", dir.String())
	return true, nil
}

// State returns a copy of the current state.
func (v *ReorderView[T]) State() ReorderState[T] {
	s := v.state
	s.Items = clone(s.Items)
	s.Baseline = clone(s.Baseline)
	return s
}

// Items returns a copy of the order the operator sees.
func (v *ReorderView[T]) Items() []T {
	return clone(v.state.Items)
}

func clone[T any](s []T) []T {
	if s == nil {
		return nil
	}
	out := make([]T, len(s))
	copy(out, s)
	return out
}
