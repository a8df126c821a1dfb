/*
Package coverage computes the set of code points a conversion run will
actually emit glyphs for.

Callers request inclusive Unicode intervals (the built-in defaults plus any
extra intervals from the command line). Requests may arrive unsorted and
overlapping; they are first merged into disjoint ascending intervals, and
then every code point is probed against the font stack. Runs of renderable
code points become coverage spans; code points no font covers split the
requests apart. A request no font can serve at all simply contributes no
span.

# License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2023–2026 the CrossPoint Reader developers
*/
package coverage

import (
	"fmt"
	"sort"

	"github.com/npillmayer/schuko/tracing"
	"golang.org/x/text/unicode/runenames"
)

// tracer traces with key 'cpf.codec'.
func tracer() tracing.Trace {
	return tracing.Select("cpf.codec")
}

// Interval is an inclusive interval of Unicode code points.
type Interval struct {
	First rune
	Last  rune
}

// Count returns the number of code points in an interval.
func (iv Interval) Count() int {
	return int(iv.Last-iv.First) + 1
}

func (iv Interval) String() string {
	return fmt.Sprintf("[U+%04X–U+%04X]", iv.First, iv.Last)
}

// DefaultIntervals returns the built-in code point intervals every font
// bundle is requested to cover. This is the interval list of the reader's
// binary font converter; entries overlap (General Punctuation appears
// three times) and rely on the merge step to collapse them.
func DefaultIntervals() []Interval {
	return []Interval{
		{0x0000, 0x007F}, // Basic Latin
		{0x0080, 0x00FF}, // Latin-1 Supplement
		{0x0100, 0x017F}, // Latin Extended-A
		{0x2000, 0x206F}, // General Punctuation
		{0x2010, 0x203A}, // Basic Symbols
		{0x2040, 0x205F}, // misc punctuation
		{0x20A0, 0x20CF}, // common currency symbols
		{0x0300, 0x036F}, // Combining Diacritical Marks
		{0x0400, 0x04FF}, // Cyrillic
		{0x2070, 0x209F}, // Superscripts and Subscripts
		{0x2200, 0x22FF}, // General math operators
		{0x2190, 0x21FF}, // Arrows
		{0xFFFD, 0xFFFD}, // Replacement Character
	}
}

// Merge sorts requested intervals by their start and merges overlapping
// and directly adjacent ones, producing a minimal set of disjoint
// intervals in ascending order. The input slice is left untouched.
func Merge(requested []Interval) []Interval {
	if len(requested) == 0 {
		return nil
	}
	ivs := make([]Interval, len(requested))
	copy(ivs, requested)
	sort.Slice(ivs, func(i, j int) bool {
		if ivs[i].First != ivs[j].First {
			return ivs[i].First < ivs[j].First
		}
		return ivs[i].Last < ivs[j].Last
	})
	merged := make([]Interval, 0, len(ivs))
	merged = append(merged, ivs[0])
	for _, iv := range ivs[1:] {
		last := &merged[len(merged)-1]
		if iv.First <= last.Last+1 { // overlapping or adjacent
			if iv.Last > last.Last {
				last.Last = iv.Last
			}
			continue
		}
		merged = append(merged, iv)
	}
	tracer().Debugf("merged %d requested intervals into %d", len(requested), len(merged))
	return merged
}

// --- Coverage spans ---------------------------------------------------------

// Span is a maximal run of consecutive code points all individually
// confirmed renderable by the font stack. GlyphOffset is the cumulative
// glyph count of all preceding spans, i.e. the index of the span's first
// glyph in the bundle's glyph table.
type Span struct {
	First       rune
	Last        rune
	GlyphOffset uint32
}

// Count returns the number of code points (= glyphs) in a span.
func (sp Span) Count() int {
	return int(sp.Last-sp.First) + 1
}

// Prober answers whether any font of the stack defines a glyph for a
// code point.
type Prober interface {
	Covers(cp rune) bool
}

// Build computes the coverage spans for a set of requested intervals:
// requests are merged, then probed code point by code point in ascending
// order, splitting around unrenderable code points. Spans are returned in
// ascending order with running glyph offsets assigned.
//
// An empty result is valid; it means no requested code point is renderable.
func Build(requested []Interval, probe Prober) []Span {
	var spans []Span
	for _, iv := range Merge(requested) {
		start := iv.First
		for cp := iv.First; cp <= iv.Last; cp++ {
			if probe.Covers(cp) {
				continue
			}
			tracer().Debugf("no font covers U+%04X %s", cp, runenames.Name(cp))
			if start < cp {
				spans = append(spans, Span{First: start, Last: cp - 1})
			}
			start = cp + 1
		}
		if start <= iv.Last {
			spans = append(spans, Span{First: start, Last: iv.Last})
		}
	}
	var offset uint32
	for i := range spans {
		spans[i].GlyphOffset = offset
		offset += uint32(spans[i].Count())
	}
	tracer().Infof("coverage: %d spans, %d glyphs", len(spans), offset)
	return spans
}
