package grid

import "sort"

// PositionSet is a set of distinct positions.
// The zero value is not usable; create sets with NewPositionSet.
type PositionSet map[Position]struct{}

// NewPositionSet returns a set holding the given positions.
func NewPositionSet(positions ...Position) PositionSet {
	s := make(PositionSet, len(positions))
	for _, p := range positions {
		s[p] = struct{}{}
	}
	return s
}

// Add inserts p and reports whether it was new.
func (s PositionSet) Add(p Position) bool {
	if _, ok := s[p]; ok {
		return false
	}
	s[p] = struct{}{}
	return true
}

// AddAll inserts every position in positions.
func (s PositionSet) AddAll(positions []Position) {
	for _, p := range positions {
		s[p] = struct{}{}
	}
}

// Has reports whether p is in the set.
func (s PositionSet) Has(p Position) bool {
	_, ok := s[p]
	return ok
}

// Len returns the number of positions.
func (s PositionSet) Len() int {
	return len(s)
}

// Union adds every member of o to s.
func (s PositionSet) Union(o PositionSet) {
	for p := range o {
		s[p] = struct{}{}
	}
}

// Sorted returns the members in row-major order.
func (s PositionSet) Sorted() []Position {
	out := make([]Position, 0, len(s))
	for p := range s {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Less(out[j]) })
	return out
}
