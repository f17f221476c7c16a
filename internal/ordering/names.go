package ordering

import "strings"

// Normalize trims names, drops empty ones and keeps the first occurrence of
// each, so a server payload with accidental repeats loads as a clean set.
func Normalize(names []string) []string {
	trimmed := make([]string, 0, len(names))
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n == "" {
			continue
		}
		trimmed = append(trimmed, n)
	}
	return Dedup(trimmed)
}

// AddIfAbsent appends name unless it is empty or already present.
// The second result reports whether the set changed.
func AddIfAbsent(set []string, name string) ([]string, bool) {
	name = strings.TrimSpace(name)
	if name == "" || IndexOf(set, name) >= 0 {
		return set, false
	}
	next := make([]string, len(set), len(set)+1)
	copy(next, set)
	return append(next, name), true
}

// Remove filters name out of set. The second result reports whether the set changed.
func Remove(set []string, name string) ([]string, bool) {
	name = strings.TrimSpace(name)
	next := make([]string, 0, len(set))
	for _, v := range set {
		if v == name {
			continue
		}
		next = append(next, v)
	}
	if len(next) == len(set) {
		return set, false
	}
	return next, true
}
