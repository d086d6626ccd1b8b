package dedupe

import (
	"unicode/utf8"

	"github.com/nuclio/errors"
	"github.com/nuclio/logger"
	"golang.org/x/text/unicode/norm"
)

var (
	ErrInvalidUTF8 = errors.New("dedupe: invalid UTF-8 encoding in input text")
)

// Deduplicate removes every span of at least minLength code points that
// repeats an earlier span, keeping the earliest occurrence.
//
// Deduplicate is a pure function and safe for concurrent use. A minLength
// of zero or less is accepted and makes every adjacent suffix pair qualify.
// Invalid UTF-8 sequences are read as U+FFFD.
func Deduplicate(minLength int, text string) string {
	return deduplicate(minLength, text, nopLog)
}

func deduplicate(minLength int, text string, log logFunc) string {
	runes := []rune(text)
	log("Deduplicating text", "length", len(runes), "minLength", minLength)

	index := newIndex(runes)
	log("Built suffix and LCP arrays", "suffixes", len(index.sa))

	ranges := NewRangeSet()
	visitDuplicateRanges(index.sa, index.lcp, minLength, ranges.Add)
	log("Consolidated duplicate ranges", "ranges", ranges.Len())

	if ranges.Len() == 0 {
		log("No duplicates found")
		return text
	}

	result := ApplyRemovals(runes, ranges.Ranges())
	log("Deduplication complete",
		"originalLength", len(runes),
		"resultLength", utf8.RuneCountInString(result))

	return result
}

// Trace holds the intermediate results of one deduplication.
type Trace struct {
	Input              string
	MinLength          int
	SuffixArray        []int32
	LCPArray           []int32
	DuplicateRanges    []Range
	ConsolidatedRanges []Range
	Result             string
}

// DeduplicateWithTrace deduplicates text like Deduplicate and returns the
// intermediate arrays and ranges along with the result.
func DeduplicateWithTrace(minLength int, text string) *Trace {
	runes := []rune(text)
	index := newIndex(runes)
	duplicates := FindDuplicateRanges(index.sa, index.lcp, minLength)
	consolidated := ConsolidateRanges(duplicates)

	result := text
	if len(consolidated) > 0 {
		result = ApplyRemovals(runes, consolidated)
	}

	return &Trace{
		Input:              text,
		MinLength:          minLength,
		SuffixArray:        index.sa,
		LCPArray:           index.lcp,
		DuplicateRanges:    duplicates,
		ConsolidatedRanges: consolidated,
		Result:             result,
	}
}

type logFunc func(message string, vars ...interface{})

func nopLog(string, ...interface{}) {}

type Builder struct {
	minLength int
	normalize bool
	logger    logger.Logger
}

// NewBuilder returns a builder for a Deduplicator removing repeats of at
// least minLength code points. minLength is not validated.
func NewBuilder(minLength int) *Builder {
	return &Builder{
		minLength: minLength,
	}
}

// Normalize makes the Deduplicator convert its input to NFC first, so that
// canonically equivalent spans count as repeats. The output is then NFC too.
func (b *Builder) Normalize() *Builder {
	b.normalize = true
	return b
}

// WithLogger makes the Deduplicator log the progress of every stage at debug level.
func (b *Builder) WithLogger(loggerInstance logger.Logger) *Builder {
	b.logger = loggerInstance
	return b
}

func (b *Builder) Build() *Deduplicator {
	return &Deduplicator{
		minLength: b.minLength,
		normalize: b.normalize,
		logger:    b.logger,
	}
}

// Deduplicator deduplicates texts with a fixed configuration.
// It holds no per-text state and is safe for concurrent use.
type Deduplicator struct {
	minLength int
	normalize bool
	logger    logger.Logger
}

// MinLength returns the minimum length of a removed repeat.
func (d *Deduplicator) MinLength() int {
	return d.minLength
}

// Deduplicate validates and prepares text, then deduplicates it.
func (d *Deduplicator) Deduplicate(text string) (string, error) {
	prepared, err := d.prepare(text)
	if err != nil {
		return "", err
	}
	return deduplicate(d.minLength, prepared, d.log), nil
}

// Trace validates and prepares text, then deduplicates it keeping the intermediate results.
func (d *Deduplicator) Trace(text string) (*Trace, error) {
	prepared, err := d.prepare(text)
	if err != nil {
		return nil, err
	}
	trace := DeduplicateWithTrace(d.minLength, prepared)
	d.log("Traced deduplication",
		"duplicateRanges", len(trace.DuplicateRanges),
		"consolidatedRanges", len(trace.ConsolidatedRanges))
	return trace, nil
}

func (d *Deduplicator) prepare(text string) (string, error) {
	if !utf8.ValidString(text) {
		return "", ErrInvalidUTF8
	}
	if d.normalize {
		text = norm.NFC.String(text)
	}
	return text, nil
}

func (d *Deduplicator) log(message string, vars ...interface{}) {
	if d.logger != nil {
		d.logger.DebugWith(message, vars...)
	}
}
