package index

import (
	"sort"
	"strings"
)

// DocSet is a set of document ids. Every set operation returns a new set and
// leaves its operands untouched, so results handed out by a store can be
// combined freely.
type DocSet map[string]struct{}

func NewDocSet(ids ...string) DocSet {
	s := make(DocSet, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

func (s DocSet) Add(id string) {
	s[id] = struct{}{}
}

func (s DocSet) Contains(id string) bool {
	_, ok := s[id]
	return ok
}

func (s DocSet) Len() int {
	return len(s)
}

func (s DocSet) Clone() DocSet {
	out := make(DocSet, len(s))
	for id := range s {
		out[id] = struct{}{}
	}
	return out
}

func (s DocSet) Union(other DocSet) DocSet {
	out := make(DocSet, len(s)+len(other))
	for id := range s {
		out[id] = struct{}{}
	}
	for id := range other {
		out[id] = struct{}{}
	}
	return out
}

// Intersect iterates the smaller operand.
func (s DocSet) Intersect(other DocSet) DocSet {
	small, large := s, other
	if len(large) < len(small) {
		small, large = large, small
	}
	out := make(DocSet, len(small))
	for id := range small {
		if _, ok := large[id]; ok {
			out[id] = struct{}{}
		}
	}
	return out
}

func (s DocSet) Difference(other DocSet) DocSet {
	out := make(DocSet, len(s))
	for id := range s {
		if _, ok := other[id]; !ok {
			out[id] = struct{}{}
		}
	}
	return out
}

// Equal reports whether both sets hold exactly the same ids.
func (s DocSet) Equal(other DocSet) bool {
	if len(s) != len(other) {
		return false
	}
	for id := range s {
		if _, ok := other[id]; !ok {
			return false
		}
	}
	return true
}

// Sorted returns the ids ordered case-insensitively, ties broken by byte order.
func (s DocSet) Sorted() []string {
	out := make([]string, 0, len(s))
	for id := range s {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool {
		li, lj := strings.ToLower(out[i]), strings.ToLower(out[j])
		if li != lj {
			return li < lj
		}
		return out[i] < out[j]
	})
	return out
}
