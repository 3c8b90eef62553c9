package favorites

import "slices"

// Set is an insertion-ordered collection of ids without duplicates.
// The zero value is an empty set.
type Set struct {
	ids []string
}

// NewSet builds a Set holding ids exactly as given. Toggle never introduces
// duplicates, and removes every copy of an id that was loaded twice.
func NewSet(ids []string) Set {
	return Set{ids: slices.Clone(ids)}
}

// Contains reports whether id is in the set.
func (s Set) Contains(id string) bool {
	return slices.Contains(s.ids, id)
}

// Toggle removes id if present, otherwise appends it. It returns whether id
// is a member afterwards.
func (s *Set) Toggle(id string) bool {
	if s.Contains(id) {
		s.ids = slices.DeleteFunc(s.ids, func(v string) bool { return v == id })
		return false
	}
	s.ids = append(s.ids, id)
	return true
}

// IDs returns a copy of the ids in insertion order.
func (s Set) IDs() []string {
	if s.ids == nil {
		return []string{}
	}
	return slices.Clone(s.ids)
}

// Len returns the number of ids.
func (s Set) Len() int {
	return len(s.ids)
}
