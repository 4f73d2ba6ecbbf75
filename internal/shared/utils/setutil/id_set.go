// Package setutil provides small set types for id collections.
package setutil

import "sort"

// IDSet is a set of int64 ids backed by map[int64]struct{}.
// The zero value is not usable; build one with NewIDSet.
type IDSet struct {
	items map[int64]struct{}
}

// NewIDSet creates a set holding ids.
func NewIDSet(ids ...int64) *IDSet {
	s := &IDSet{items: make(map[int64]struct{}, len(ids))}
	s.AddAll(ids)
	return s
}

func (s *IDSet) Add(id int64) {
	s.items[id] = struct{}{}
}

func (s *IDSet) AddAll(ids []int64) {
	for _, id := range ids {
		s.items[id] = struct{}{}
	}
}

// Remove deletes id and reports whether it was present.
func (s *IDSet) Remove(id int64) bool {
	if _, ok := s.items[id]; !ok {
		return false
	}
	delete(s.items, id)
	return true
}

func (s *IDSet) Has(id int64) bool {
	if s == nil {
		return false
	}
	_, ok := s.items[id]
	return ok
}

// Sorted returns the ids in ascending order.
func (s *IDSet) Sorted() []int64 {
	if s == nil {
		return nil
	}
	result := make([]int64, 0, len(s.items))
	for id := range s.items {
		result = append(result, id)
	}
	sort.Slice(result, func(i, j int) bool { return result[i] < result[j] })
	return result
}

func (s *IDSet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.items)
}
