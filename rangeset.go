package dedupe

import (
	"cmp"
	"slices"

	"github.com/emirpasic/gods/maps/treemap"
)

// RangeSet is a sorted set of disjoint ranges that merges ranges as they are added.
// Overlapping and touching ranges are merged into one, empty ranges are ignored.
// A RangeSet is not safe for concurrent use.
type RangeSet struct {
	// start -> end
	tree *treemap.Map
}

func NewRangeSet() *RangeSet {
	return &RangeSet{
		tree: treemap.NewWithIntComparator(),
	}
}

// Add merges r into the set in O(k log n), where k is the number of
// existing ranges r absorbs.
func (s *RangeSet) Add(r Range) {
	if r.Empty() {
		return
	}
	start, end := r.Start, r.End

	// The range starting at or before r may reach into it.
	if key, value := s.tree.Floor(start); key != nil {
		if floorEnd := value.(int); floorEnd >= start {
			s.tree.Remove(key)
			start = key.(int)
			end = max(end, floorEnd)
		}
	}

	// Absorb every range starting inside [start, end].
	for {
		key, value := s.tree.Ceiling(start)
		if key == nil || key.(int) > end {
			break
		}
		s.tree.Remove(key)
		end = max(end, value.(int))
	}

	s.tree.Put(start, end)
}

// Len returns the number of disjoint ranges in the set.
func (s *RangeSet) Len() int {
	return s.tree.Size()
}

// Ranges returns the ranges in ascending order.
func (s *RangeSet) Ranges() []Range {
	ranges := make([]Range, 0, s.tree.Size())
	it := s.tree.Iterator()
	for it.Next() {
		ranges = append(ranges, Range{Start: it.Key().(int), End: it.Value().(int)})
	}
	return ranges
}

// ConsolidateRanges merges overlapping and touching ranges into a sorted,
// disjoint list by sorting on the start and merging in one pass.
// It produces the same ranges as adding every range to a RangeSet.
func ConsolidateRanges(ranges []Range) []Range {
	sorted := make([]Range, 0, len(ranges))
	for _, r := range ranges {
		if !r.Empty() {
			sorted = append(sorted, r)
		}
	}
	if len(sorted) == 0 {
		return sorted
	}

	slices.SortFunc(sorted, func(a, b Range) int {
		return cmp.Compare(a.Start, b.Start)
	})

	// Merge in place, the write index never passes the read index.
	merged := sorted[:1]
	for _, r := range sorted[1:] {
		last := &merged[len(merged)-1]
		if r.Start <= last.End {
			last.End = max(last.End, r.End)
			continue
		}
		merged = append(merged, r)
	}
	return merged
}
