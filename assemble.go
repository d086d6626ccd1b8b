package dedupe

import "strings"

// ApplyRemovals returns text without the given ranges.
// The ranges must be sorted, disjoint and within the text.
func ApplyRemovals(text []rune, ranges []Range) string {
	if len(ranges) == 0 {
		return string(text)
	}

	var builder strings.Builder
	builder.Grow(len(text))

	cursor := 0
	for _, r := range ranges {
		writeRunes(&builder, text[cursor:r.Start])
		cursor = r.End
	}
	writeRunes(&builder, text[cursor:])

	return builder.String()
}

func writeRunes(builder *strings.Builder, runes []rune) {
	for _, r := range runes {
		builder.WriteRune(r)
	}
}
