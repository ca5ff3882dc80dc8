// Package ingredient holds the normalized, insertion-ordered ingredient
// collection the user builds before asking for recipes.
package ingredient

import "strings"

// Normalize trims surrounding whitespace and lowercases the name.
// An empty result means the input carried no ingredient.
func Normalize(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

// Set is an ordered sequence of unique normalized ingredient names.
// The zero value is an empty set ready to use.
type Set struct {
	items []string
}

// NewSet builds a set from previously stored names. Entries are normalized
// and deduplicated, so a hand-edited or corrupted store cannot break the
// uniqueness invariant.
func NewSet(names ...string) *Set {
	s := &Set{}
	for _, name := range names {
		s.Add(name)
	}
	return s
}

// Add normalizes raw and appends it unless it is empty or already present.
// It returns the set so callers can chain into a persist cycle.
func (s *Set) Add(raw string) *Set {
	name := Normalize(raw)
	if name == "" || s.Contains(name) {
		return s
	}
	s.items = append(s.items, name)
	return s
}

// Remove deletes the element equal to name. Missing names are ignored.
func (s *Set) Remove(name string) *Set {
	for i, item := range s.items {
		if item == name {
			s.items = append(s.items[:i:i], s.items[i+1:]...)
			break
		}
	}
	return s
}

// Clear empties the set.
func (s *Set) Clear() *Set {
	s.items = nil
	return s
}

// Contains reports whether the exact normalized name is present.
func (s *Set) Contains(name string) bool {
	for _, item := range s.items {
		if item == name {
			return true
		}
	}
	return false
}

// Len returns the number of ingredients.
func (s *Set) Len() int {
	return len(s.items)
}

// Items returns a copy of the names in insertion order.
func (s *Set) Items() []string {
	out := make([]string, len(s.items))
	copy(out, s.items)
	return out
}

// Clone returns an independent copy of the set.
func (s *Set) Clone() *Set {
	return &Set{items: s.Items()}
}

// Equal reports whether both sets hold the same names in the same order.
func (s *Set) Equal(other *Set) bool {
	if s.Len() != other.Len() {
		return false
	}
	for i := range s.items {
		if s.items[i] != other.items[i] {
			return false
		}
	}
	return true
}
