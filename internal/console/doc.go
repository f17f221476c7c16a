// Package console holds the per-view state behind the realms-admin commands.
//
// Each view fetches what it renders, applies operator actions and refetches
// the authoritative record after a mutation succeeds. Views never merge
// partial server state locally.
//
// # Ordered collections
//
// Channel-group members and main-group subgroups are ordered collections.
// Their order changes only by adjacent transposition, and every change is
// persisted by submitting the complete list:
//
//	Loaded -> Reordering -> Persisting -> Persisted
//	                                   -> PersistFailed
//
// Reduce is the pure transition function; ReorderView runs it against a
// load and a persist call. A failed persist leaves the swapped order on
// screen with an error annotation until the next Reload, unless the view was
// built WithRollbackOnFailure.
//
// # Membership editing
//
// SubgroupEditor stages additions, removals and moves of a main group's
// subgroups and submits the whole working set on Save. Nothing reaches the
// server before Save.
//
// Views are owned by a single goroutine. Independent loads inside one view
// run concurrently and share a context; the first failure cancels the rest.
package console
