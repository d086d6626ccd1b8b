package dedupe

import "golang.org/x/exp/constraints"

// Kasai's algorithm for building the LCP array in O(n) time.
// lcp[i] is the length of the longest common prefix of the suffixes
// starting at suffixArray[i] and suffixArray[i+1], so len(lcp) == len(suffixArray)-1.
func BuildLCPArray[S constraints.Integer](suffixArray []int32, text []S) []int32 {
	if len(suffixArray) == 0 {
		return []int32{}
	}

	rank := make([]int32, len(suffixArray))
	for i, pos := range suffixArray {
		rank[pos] = int32(i)
	}

	// Walk the text in text order. Moving one position forward shortens the
	// match with the sorted predecessor by at most one, so l only drops by one.
	lcp := make([]int32, len(suffixArray)-1)
	l := 0
	for i := range text {
		r := rank[i]
		if r == 0 {
			l = 0
			continue
		}
		j := int(suffixArray[r-1])
		for i+l < len(text) && j+l < len(text) && text[i+l] == text[j+l] {
			l++
		}
		lcp[r-1] = int32(l)
		if l > 0 {
			l--
		}
	}

	return lcp
}
