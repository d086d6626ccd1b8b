package dedupe

import (
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestConsolidateRanges(t *testing.T) {
	tests := map[string]struct {
		ranges   []Range
		expected []Range
	}{
		"nil": {
			ranges:   nil,
			expected: []Range{},
		},
		"single": {
			ranges:   []Range{{Start: 1, End: 3}},
			expected: []Range{{Start: 1, End: 3}},
		},
		"disjoint unsorted": {
			ranges:   []Range{{Start: 8, End: 9}, {Start: 1, End: 3}, {Start: 4, End: 6}},
			expected: []Range{{Start: 1, End: 3}, {Start: 4, End: 6}, {Start: 8, End: 9}},
		},
		"touching": {
			ranges:   []Range{{Start: 3, End: 5}, {Start: 1, End: 3}},
			expected: []Range{{Start: 1, End: 5}},
		},
		"overlapping": {
			ranges:   []Range{{Start: 1, End: 4}, {Start: 2, End: 6}},
			expected: []Range{{Start: 1, End: 6}},
		},
		"contained": {
			ranges:   []Range{{Start: 1, End: 10}, {Start: 2, End: 3}, {Start: 5, End: 8}},
			expected: []Range{{Start: 1, End: 10}},
		},
		"bridging": {
			ranges:   []Range{{Start: 1, End: 3}, {Start: 6, End: 8}, {Start: 2, End: 7}},
			expected: []Range{{Start: 1, End: 8}},
		},
		"duplicates": {
			ranges:   []Range{{Start: 2, End: 4}, {Start: 2, End: 4}},
			expected: []Range{{Start: 2, End: 4}},
		},
		"empty ranges ignored": {
			ranges:   []Range{{Start: 5, End: 6}, {Start: 3, End: 4}, {Start: 1, End: 1}, {Start: 4, End: 4}, {Start: 2, End: 2}},
			expected: []Range{{Start: 3, End: 4}, {Start: 5, End: 6}},
		},
		"only empty ranges": {
			ranges:   []Range{{Start: 2, End: 2}},
			expected: []Range{},
		},
		"nested suffixes": {
			ranges: []Range{
				{Start: 9, End: 16}, {Start: 13, End: 16}, {Start: 10, End: 16}, {Start: 8, End: 16},
				{Start: 11, End: 16}, {Start: 12, End: 16}, {Start: 7, End: 16},
			},
			expected: []Range{{Start: 7, End: 16}},
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			require.Equal(t, tc.expected, ConsolidateRanges(tc.ranges))

			set := NewRangeSet()
			for _, r := range tc.ranges {
				set.Add(r)
			}
			require.Equal(t, tc.expected, set.Ranges())
			require.Equal(t, len(tc.expected), set.Len())
		})
	}
}

func TestConsolidateRangesDoesNotModifyInput(t *testing.T) {
	ranges := []Range{{Start: 4, End: 6}, {Start: 1, End: 5}}
	ConsolidateRanges(ranges)
	require.Equal(t, []Range{{Start: 4, End: 6}, {Start: 1, End: 5}}, ranges)
}

func TestRangeSetEmpty(t *testing.T) {
	set := NewRangeSet()
	require.Zero(t, set.Len())
	require.Equal(t, []Range{}, set.Ranges())
}

func rangeGenerator() *rapid.Generator[Range] {
	return rapid.Custom(func(t *rapid.T) Range {
		start := rapid.IntRange(0, 100).Draw(t, "start")
		length := rapid.IntRange(0, 20).Draw(t, "length")
		return Range{Start: start, End: start + length}
	})
}

func TestRangeSetMatchesConsolidateRanges(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		ranges := rapid.SliceOfN(rangeGenerator(), 0, 50).Draw(t, "ranges")

		set := NewRangeSet()
		for _, r := range ranges {
			set.Add(r)
		}
		consolidated := ConsolidateRanges(ranges)
		require.Equal(t, consolidated, set.Ranges())

		// Sorted, disjoint and non-touching.
		for i := 1; i < len(consolidated); i++ {
			require.Less(t, consolidated[i-1].End, consolidated[i].Start)
		}

		// Covers exactly the positions of the non-empty input ranges.
		covered := map[int]bool{}
		for _, r := range ranges {
			for pos := r.Start; pos < r.End; pos++ {
				covered[pos] = true
			}
		}
		total := 0
		for _, r := range consolidated {
			require.False(t, r.Empty())
			for pos := r.Start; pos < r.End; pos++ {
				require.True(t, covered[pos], "position %d is not covered by the input", pos)
			}
			total += r.Len()
		}
		require.Equal(t, len(covered), total)
	})
}
