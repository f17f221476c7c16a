// Package ordering holds the pure list operations behind member priority editing:
// adjacent transposition for ordered collections and the add/remove/normalize
// helpers for full-replace name sets.
//
// Nothing here touches the network. Every function returns a fresh slice and
// leaves its input untouched so callers can keep the pre-move list around.
package ordering

import (
	"fmt"
	"strings"
)

// Direction is the way a member moves inside its parent collection.
type Direction int

const (
	Up Direction = iota
	Down
)

func (d Direction) String() string {
	switch d {
	case Up:
		return "up"
	case Down:
		return "down"
	default:
		return fmt.Sprintf("Direction(%d)", int(d))
	}
}

// ParseDirection accepts "up" or "down" (case-insensitive).
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "up":
		return Up, nil
	case "down":
		return Down, nil
	default:
		return 0, fmt.Errorf("invalid direction %q (want up or down)", s)
	}
}

// CanMove reports whether a move of index in dir stays inside the list.
func CanMove(length, index int, dir Direction) bool {
	if index < 0 || index >= length {
		return false
	}
	switch dir {
	case Up:
		return index > 0
	case Down:
		return index < length-1
	default:
		return false
	}
}

// Move swaps list[index] with its neighbour in dir and returns the new order.
// Boundary and out-of-range moves return the input slice and false.
func Move[T any](list []T, index int, dir Direction) ([]T, bool) {
	if !CanMove(len(list), index, dir) {
		return list, false
	}
	other := index - 1
	if dir == Down {
		other = index + 1
	}
	next := make([]T, len(list))
	copy(next, list)
	next[index], next[other] = next[other], next[index]
	return next, true
}

// Equal reports whether a and b hold the same elements in the same order.
func Equal[T comparable](a, b []T) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// Unique reports whether every element of list occurs once.
func Unique[T comparable](list []T) bool {
	seen := make(map[T]struct{}, len(list))
	for _, v := range list {
		if _, ok := seen[v]; ok {
			return false
		}
		seen[v] = struct{}{}
	}
	return true
}

// IndexOf returns the position of v in list, or -1.
func IndexOf[T comparable](list []T, v T) int {
	for i := range list {
		if list[i] == v {
			return i
		}
	}
	return -1
}

// Dedup keeps the first occurrence of each element, preserving order.
func Dedup[T comparable](list []T) []T {
	out := make([]T, 0, len(list))
	seen := make(map[T]struct{}, len(list))
	for _, v := range list {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
