package model

import (
	"cmp"
	"slices"
)

// OrderedSet keeps unique members in insertion order.
type OrderedSet[T comparable] struct {
	items []T
	index map[T]struct{}
}

// NewOrderedSet creates a set seeded with values.
func NewOrderedSet[T comparable](values ...T) *OrderedSet[T] {
	s := &OrderedSet[T]{index: make(map[T]struct{})}
	s.Add(values...)
	return s
}

// Add appends values not already present. It reports whether anything was added.
func (s *OrderedSet[T]) Add(values ...T) bool {
	if s.index == nil {
		s.index = make(map[T]struct{})
	}
	added := false
	for _, v := range values {
		if _, ok := s.index[v]; ok {
			continue
		}
		s.index[v] = struct{}{}
		s.items = append(s.items, v)
		added = true
	}
	return added
}

// Contains reports membership.
func (s *OrderedSet[T]) Contains(v T) bool {
	_, ok := s.index[v]
	return ok
}

// Len returns the number of members.
func (s *OrderedSet[T]) Len() int {
	return len(s.items)
}

// Values returns the members in insertion order.
func (s *OrderedSet[T]) Values() []T {
	return slices.Clone(s.items)
}

// Clear removes every member.
func (s *OrderedSet[T]) Clear() {
	s.items = nil
	s.index = make(map[T]struct{})
}

// Sorted returns the members of s in ascending order.
func Sorted[T cmp.Ordered](s *OrderedSet[T]) []T {
	out := s.Values()
	slices.Sort(out)
	return out
}
