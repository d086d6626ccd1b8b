package dedupe

import (
	"github.com/bits-and-blooms/bitset"
)

// SL-types of a text position.
// Position i is S-type if text[i:] < text[i+1:] and L-type otherwise.
// The text is treated as if followed by a virtual sentinel smaller than
// every symbol, which makes the final position L-type.
const (
	typeS = false
	typeL = true
)

// slTypes is a view into a bit vector holding the SL-type of every
// position of one text. The recursion levels of suffixSort view
// consecutive regions of one shared vector, so a view must not be used
// after the top-level call that allocated the vector returns.
type slTypes struct {
	bits   *bitset.BitSet
	offset uint
	length int
}

func newSLTypes(n int) slTypes {
	// Every recursion level has at most half the positions of its parent,
	// so 2n bits hold all of them.
	return slTypes{bits: bitset.New(uint(2 * n)), length: n}
}

func (t slTypes) get(i int) bool {
	return t.bits.Test(t.offset + uint(i))
}

func (t slTypes) set(i int, v bool) {
	t.bits.SetTo(t.offset+uint(i), v)
}

// isLMS reports whether i is a leftmost S-type position,
// that is, an S-type position preceded by an L-type position.
func (t slTypes) isLMS(i int) bool {
	return i > 0 && t.get(i) == typeS && t.get(i-1) == typeL
}

// next returns a view of the region that follows t.
func (t slTypes) next(length int) slTypes {
	return slTypes{bits: t.bits, offset: t.offset + uint(t.length), length: length}
}

// SuffixArray returns the suffix array of the code points of text.
// Positions in the result are code point offsets, not byte offsets.
func SuffixArray(text string) []int32 {
	runes := []rune(text)
	return BuildSuffixArray(runes, keyBound(runes))
}

// BuildSuffixArray computes the suffix array of symbols with the SA-IS
// algorithm in O(n) time. Every symbol must be in [0, keyBound).
func BuildSuffixArray(symbols []int32, keyBound int) []int32 {
	sa := make([]int32, len(symbols))
	if len(symbols) < 2 {
		if len(symbols) == 1 {
			sa[0] = 0
		}
		return sa
	}
	for _, c := range symbols {
		if c < 0 || int(c) >= keyBound {
			panic("dedupe: misuse of BuildSuffixArray: symbol out of key bound")
		}
	}
	suffixSort(symbols, keyBound, sa, newSLTypes(len(symbols)))
	return sa
}

// keyBound returns one more than the largest symbol in text.
func keyBound(text []int32) int {
	maxSymbol := int32(-1)
	for _, c := range text {
		if c > maxSymbol {
			maxSymbol = c
		}
	}
	return int(maxSymbol) + 1
}

// suffixSort writes the suffix array of text into sa.
// The SAIS algorithm proceeds in a fixed sequence of scans:
// classify positions, seed LMS suffixes, induce the LMS-substring order,
// name the LMS substrings, recurse on the names if they are not unique,
// and finally induce the full order from the sorted LMS suffixes.
func suffixSort(text []int32, keyBound int, sa []int32, types slTypes) {
	n := len(text)
	if n == 1 {
		sa[0] = 0
	}
	if n < 2 {
		return
	}

	lmsCount := classify(text, types)
	lms := findLMS(types, lmsCount)
	buckets := bucketCounts(text, keyBound)
	bounds := make([]int32, keyBound)

	if len(lms) > 1 {
		// Seeded with the LMS suffixes in text order, induced sorting
		// leaves the LMS substrings (not yet the suffixes) in sorted order.
		inducedSort(text, types, lms, buckets, bounds, sa)

		// lms is now in LMS-substring order and labels holds their names.
		labels, labelCount := labelLMSSubstrings(text, types, sa, lms)

		if labelCount < len(lms) {
			// Some LMS substrings repeat, so their order does not decide
			// the order of the LMS suffixes. Rewrite the names in text
			// order, using sa as scratch space, to form the reduced string.
			for i, p := range lms {
				sa[p] = labels[i]
			}
			j := 0
			for i := 1; i < n; i++ {
				if types.isLMS(i) {
					labels[j] = sa[i]
					lms[j] = int32(i)
					j++
				}
			}

			// The reduced string is over labelCount symbols,
			// not over the alphabet of text.
			reduced := sa[:len(lms)]
			suffixSort(labels, labelCount, reduced, types.next(len(lms)))

			// Map suffixes of the reduced string back to text positions.
			for i, r := range reduced {
				reduced[i] = lms[r]
			}
			copy(lms, reduced)
		}
		// If every label is unique, the LMS-substring order
		// already is the LMS-suffix order.
	}

	inducedSort(text, types, lms, buckets, bounds, sa)
}

// classify records the SL-type of every position of text in one backward
// pass and returns the number of LMS positions.
func classify(text []int32, types slTypes) int {
	lmsCount := 0
	prevType := typeL
	prevKey := int32(-1) // virtual sentinel
	for i := len(text) - 1; i >= 0; i-- {
		key := text[i]
		switch {
		case prevKey < 0 || key > prevKey:
			if prevType == typeS {
				// i+1 is S-type and i is L-type.
				lmsCount++
			}
			prevType = typeL
		case key < prevKey:
			prevType = typeS
		}
		// Equal keys keep the type of the following position.
		types.set(i, prevType)
		prevKey = key
	}
	return lmsCount
}

// findLMS returns the LMS positions of a classified text in text order.
func findLMS(types slTypes, count int) []int32 {
	lms := make([]int32, 0, count)
	for i := 1; i < types.length; i++ {
		if types.isLMS(i) {
			lms = append(lms, int32(i))
		}
	}
	return lms
}

// bucketCounts returns the frequency of every symbol of text.
func bucketCounts(text []int32, keyBound int) []int32 {
	buckets := make([]int32, keyBound)
	for _, c := range text {
		buckets[c]++
	}
	return buckets
}

// bucketHeads stores into bounds[c] the first index of the bucket for c.
func bucketHeads(buckets, bounds []int32) {
	total := int32(0)
	for c, n := range buckets {
		bounds[c] = total
		total += n
	}
}

// bucketTails stores into bounds[c] one past the last index of the bucket for c.
func bucketTails(buckets, bounds []int32) {
	total := int32(0)
	for c, n := range buckets {
		total += n
		bounds[c] = total
	}
}

// inducedSort fills sa from the LMS positions in lms.
// The LMS positions are placed at the tails of their buckets keeping the
// order they have in lms, then L-type suffixes are induced in a forward
// scan and S-type suffixes in a backward scan. Each suffix is placed from
// the already known position of its successor, never by comparison.
func inducedSort(text []int32, types slTypes, lms, buckets, bounds, sa []int32) {
	n := len(text)
	empty := int32(n)
	for i := range sa {
		sa[i] = empty
	}

	// Walk lms in reverse so that earlier entries end up first in a bucket.
	bucketTails(buckets, bounds)
	for i := len(lms) - 1; i >= 0; i-- {
		c := text[lms[i]]
		bounds[c]--
		sa[bounds[c]] = lms[i]
	}

	bucketHeads(buckets, bounds)

	// The final suffix is preceded only by the virtual sentinel,
	// which would have induced it first.
	last := int32(n - 1)
	c := text[last]
	sa[bounds[c]] = last
	bounds[c]++

	for i := 0; i < n; i++ {
		j := sa[i]
		if j == empty || j == 0 {
			continue
		}
		k := j - 1
		if types.get(int(k)) == typeL {
			c := text[k]
			sa[bounds[c]] = k
			bounds[c]++
		}
	}

	// S-type suffixes overwrite the LMS seeds at the bucket tails.
	bucketTails(buckets, bounds)
	for i := n - 1; i >= 0; i-- {
		j := sa[i]
		if j == empty || j == 0 {
			continue
		}
		k := j - 1
		if types.get(int(k)) == typeS {
			c := text[k]
			bounds[c]--
			sa[bounds[c]] = k
		}
	}
}

// labelLMSSubstrings scans sa, which holds the LMS substrings in sorted
// order, and names each LMS substring. Equal substrings get equal names.
// It rewrites lms into sorted order and returns the names in that order
// along with the number of distinct names.
func labelLMSSubstrings(text []int32, types slTypes, sa, lms []int32) ([]int32, int) {
	n := len(text)
	labels := make([]int32, len(lms))
	label := int32(0)
	prev := -1
	j := 0
	for _, p := range sa {
		cur := int(p)
		if cur >= n || !types.isLMS(cur) {
			continue
		}
		if prev >= 0 && !equalLMSSubstrings(text, types, prev, cur) {
			label++
		}
		lms[j] = int32(cur)
		labels[j] = label
		j++
		prev = cur
	}
	return labels, int(label) + 1
}

// equalLMSSubstrings reports whether the LMS substrings starting at a and b
// have the same symbols and end at the same offset. A substring ends where
// an S-type position follows an L-type one, or at the end of the text.
func equalLMSSubstrings(text []int32, types slTypes, a, b int) bool {
	n := len(text)
	aType, bType := typeS, typeS
	for k := 0; ; k++ {
		aEnd := a+k >= n || (aType == typeL && types.get(a+k) == typeS)
		bEnd := b+k >= n || (bType == typeL && types.get(b+k) == typeS)
		if aEnd && bEnd {
			return true
		}
		if aEnd != bEnd || text[a+k] != text[b+k] {
			return false
		}
		aType, bType = types.get(a+k), types.get(b+k)
	}
}
