package dedupe

import (
	"sync"

	"github.com/viniciusth/rmq"
)

// Index holds the suffix array and LCP array of a text.
// Positions are code point offsets into the text.
type Index struct {
	text []rune
	sa   []int32
	lcp  []int32

	// Built on the first LongestCommonPrefix call.
	rmqOnce sync.Once
	rank    []int32
	lcpRMQ  *rmq.RMQHybridNaive[int32]
}

func NewIndex(text string) *Index {
	return newIndex([]rune(text))
}

func newIndex(text []rune) *Index {
	sa := BuildSuffixArray(text, keyBound(text))
	return &Index{
		text: text,
		sa:   sa,
		lcp:  BuildLCPArray(sa, text),
	}
}

// Len returns the number of code points in the indexed text.
func (x *Index) Len() int {
	return len(x.text)
}

// SuffixArray returns the suffix array. The caller must not modify it.
func (x *Index) SuffixArray() []int32 {
	return x.sa
}

// LCPArray returns the LCP array of adjacent suffixes. The caller must not modify it.
func (x *Index) LCPArray() []int32 {
	return x.lcp
}

// LongestCommonPrefix returns the length of the longest common prefix of the
// suffixes starting at code point offsets i and j. Offsets equal to Len()
// denote the empty suffix.
//
// The first call builds a range minimum query structure over the LCP array in O(n);
// every call after that answers in O(1). The LCP of two suffixes is the minimum
// of the adjacent LCP values between their ranks.
func (x *Index) LongestCommonPrefix(i, j int) int {
	n := len(x.text)
	if i < 0 || i > n || j < 0 || j > n {
		panic("dedupe: LongestCommonPrefix offset out of range")
	}
	if i == n || j == n {
		return 0
	}
	if i == j {
		return n - i
	}

	x.rmqOnce.Do(x.buildRMQ)

	ri, rj := int(x.rank[i]), int(x.rank[j])
	if ri > rj {
		ri, rj = rj, ri
	}
	return int(x.lcp[x.lcpRMQ.Query(ri, rj-1)])
}

func (x *Index) buildRMQ() {
	x.rank = make([]int32, len(x.sa))
	for i, pos := range x.sa {
		x.rank[pos] = int32(i)
	}
	x.lcpRMQ = rmq.NewRMQHybridNaive(x.lcp)
}
