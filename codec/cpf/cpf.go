/*
Package cpf implements the CrossPoint Font (CPF) binary bundle format.

A CPF bundle is the fixed-layout, little-endian artifact the reader
firmware memory-maps glyph data from. It consists of a 4-byte magic tag,
a 22-byte header block, an interval table, a glyph table and one
concatenated bitmap payload:

	Magic     4 bytes  "CPF\x01"
	advanceY  1 byte   uint8   line height in pixels
	ascender  4 bytes  int32
	descender 4 bytes  int32
	is2Bit    1 byte   uint8   1 = 2-bit greyscale, 0 = 1-bit
	intervals 4 bytes  uint32  number of unicode intervals
	glyphs    4 bytes  uint32  total number of glyphs
	bitmapSz  4 bytes  uint32  total bitmap bytes

	intervals × 12 bytes  {first, last, glyphOffset} each uint32
	glyphs    × 16 bytes  see GlyphRecord
	bitmapSz bytes        packed glyph bitmaps, no separators

The record layouts mirror fixed-size C structs on the decoding side,
padding bytes included; their sizes are asserted before any output byte is
written, and a mismatch aborts the conversion.

# License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2023–2026 the CrossPoint Reader developers
*/
package cpf

import (
	"fmt"

	"github.com/npillmayer/schuko/tracing"
)

// tracer traces with key 'cpf.codec'.
func tracer() tracing.Trace {
	return tracing.Select("cpf.codec")
}

// Magic identifies the format and its version.
var Magic = [4]byte{'C', 'P', 'F', 0x01}

// Fixed wire sizes, in bytes.
const (
	HeaderSize         = 22
	IntervalRecordSize = 12
	GlyphRecordSize    = 16
)

// Bounds the firmware loader enforces; bundles beyond them would be
// rejected on the device, so the encoder rejects them too.
const (
	MaxIntervalCount = 4096
	MaxGlyphCount    = 65535
	MaxBitmapSize    = 8 * 1024 * 1024
)

// Header carries the bundle-global metadata. Ascender and descender are
// whole pixels (descender conventionally negative); the counts and the
// bitmap size describe the three payload sections.
type Header struct {
	AdvanceY      uint8
	Ascender      int32
	Descender     int32
	Is2Bit        bool
	IntervalCount uint32
	GlyphCount    uint32
	BitmapSize    uint32
}

// IntervalRecord is one row of the interval table: an inclusive code
// point interval plus the index of its first glyph in the glyph table.
type IntervalRecord struct {
	First       uint32
	Last        uint32
	GlyphOffset uint32
}

// GlyphRecord is one row of the glyph table. The blank fields are the
// alignment padding of the firmware's glyph struct; they are written as
// zero and must be present for the record to be exactly 16 bytes.
type GlyphRecord struct {
	Width      uint8
	Height     uint8
	AdvanceX   uint8
	_          uint8
	Left       int16
	Top        int16
	DataLength uint16
	_          uint16
	DataOffset uint32
}

// Bundle is a complete in-memory CPF bundle. Glyph records appear in the
// same ascending code point order as the intervals that index them, and
// the bitmap holds all glyphs' packed bytes back to back.
type Bundle struct {
	Header    Header
	Intervals []IntervalRecord
	Glyphs    []GlyphRecord
	Bitmap    []byte
}

// Validate checks the structural invariants a well-formed bundle must
// satisfy: header counts matching the tables, intervals ascending and
// non-overlapping with prefix-sum glyph offsets, interval glyph counts
// summing to the glyph count, and glyph data offsets forming the
// exclusive prefix sum of the data lengths up to the total bitmap size.
func (b *Bundle) Validate() error {
	h := b.Header
	if int(h.IntervalCount) != len(b.Intervals) {
		return fmt.Errorf("header announces %d intervals, table has %d", h.IntervalCount, len(b.Intervals))
	}
	if int(h.GlyphCount) != len(b.Glyphs) {
		return fmt.Errorf("header announces %d glyphs, table has %d", h.GlyphCount, len(b.Glyphs))
	}
	if int(h.BitmapSize) != len(b.Bitmap) {
		return fmt.Errorf("header announces %d bitmap bytes, payload has %d", h.BitmapSize, len(b.Bitmap))
	}
	var glyphs uint32
	for i, iv := range b.Intervals {
		if iv.Last < iv.First {
			return fmt.Errorf("interval %d is inverted: %#v", i, iv)
		}
		if i > 0 && iv.First <= b.Intervals[i-1].Last {
			return fmt.Errorf("interval %d overlaps or is out of order", i)
		}
		if iv.GlyphOffset != glyphs {
			return fmt.Errorf("interval %d has glyph offset %d, want %d", i, iv.GlyphOffset, glyphs)
		}
		glyphs += iv.Last - iv.First + 1
	}
	if glyphs != h.GlyphCount {
		return fmt.Errorf("intervals cover %d glyphs, header announces %d", glyphs, h.GlyphCount)
	}
	var offset uint32
	for i, g := range b.Glyphs {
		if g.DataOffset != offset {
			return fmt.Errorf("glyph %d has data offset %d, want %d", i, g.DataOffset, offset)
		}
		offset += uint32(g.DataLength)
	}
	if offset != h.BitmapSize {
		return fmt.Errorf("glyph data lengths sum to %d, header announces %d", offset, h.BitmapSize)
	}
	return nil
}
