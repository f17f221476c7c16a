package console

import "context"

// ListView is the fetch-render-mutate-refetch loop shared by the flat record
// pages (users, tickets, OAuth apps, announcements, payment channels, plans,
// orders).
type ListView[T any] struct {
	fetch func(ctx context.Context) ([]T, error)
	Rows  []T
}

func NewListView[T any](fetch func(ctx context.Context) ([]T, error)) *ListView[T] {
	return &ListView[T]{fetch: fetch}
}

// Load replaces Rows with the server's list. On error Rows is cleared.
func (v *ListView[T]) Load(ctx context.Context) error {
	rows, err := v.fetch(ctx)
	if err != nil {
		v.Rows = nil
		return err
	}
	v.Rows = rows
	return nil
}

// Mutate runs fn and refetches on success. A failed fn leaves Rows untouched.
func (v *ListView[T]) Mutate(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := fn(ctx); err != nil {
		return err
	}
	return v.Load(ctx)
}
