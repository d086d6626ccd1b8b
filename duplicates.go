package dedupe

import "slices"

// Range is the half-open span [Start, End) of code point offsets.
type Range struct {
	Start int
	End   int
}

// Len returns the number of code points in r.
func (r Range) Len() int {
	return r.End - r.Start
}

// Empty reports whether r covers no code points.
func (r Range) Empty() bool {
	return r.Start >= r.End
}

// FindDuplicateRanges returns the spans that repeat an earlier span of at
// least minLength code points. The ranges may overlap and are not sorted.
func FindDuplicateRanges(suffixArray, lcp []int32, minLength int) []Range {
	ranges := []Range{}
	visitDuplicateRanges(suffixArray, lcp, minLength, func(r Range) {
		ranges = append(ranges, r)
	})
	return ranges
}

// visitDuplicateRanges scans the LCP array for runs of adjacent suffixes
// sharing a prefix. A run starts at an LCP value l >= minLength and extends
// while the following LCP values stay >= l, so every suffix in it starts with
// the same l code points. The earliest suffix of the run is kept and every
// other one yields the range [pos, pos+l).
//
// The scan resumes at the end of the run. Shorter or longer matches that begin
// inside a consumed run are never examined, so a span occurring twice can be
// removed in both places when each occurrence is covered by a different run.
func visitDuplicateRanges(suffixArray, lcp []int32, minLength int, visit func(Range)) {
	i := 0
	for i < len(lcp) {
		length := int(lcp[i])
		if length < minLength {
			i++
			continue
		}

		j := i + 1
		for j < len(lcp) && int(lcp[j]) >= length {
			j++
		}

		// suffixArray[i..j] all start with the same length code points.
		members := suffixArray[i : j+1]
		earliest := slices.Min(members)
		for _, pos := range members {
			if pos != earliest {
				visit(Range{Start: int(pos), End: int(pos) + length})
			}
		}

		i = j
	}
}
