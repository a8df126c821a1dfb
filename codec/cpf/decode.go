package cpf

import (
	"bytes"
	"encoding/binary"
	"io"

	"github.com/crosspoint-reader/cpf/core"
)

// Decode parses a complete CPF bundle from r. It performs the same
// validation as the firmware loader: magic check, header bounds, and an
// exact match between the announced section sizes and the actual stream
// length. The returned bundle additionally satisfies Validate.
func Decode(r io.Reader) (*Bundle, error) {
	if err := assertWireSizes(); err != nil {
		return nil, err
	}
	var magic [4]byte
	if _, err := io.ReadFull(r, magic[:]); err != nil {
		return nil, core.WrapError(err, core.EINVALID, "truncated CPF magic")
	}
	if magic != Magic {
		return nil, core.Error(core.EINVALID, "invalid CPF magic %q", magic[:])
	}
	var hdr headerWire
	if err := binary.Read(r, binary.LittleEndian, &hdr); err != nil {
		return nil, core.WrapError(err, core.EINVALID, "truncated CPF header")
	}
	if hdr.IntervalCount > MaxIntervalCount || hdr.GlyphCount > MaxGlyphCount ||
		hdr.BitmapSize > MaxBitmapSize {
		return nil, core.Error(core.EINVALID,
			"CPF header out of bounds (intervals=%d glyphs=%d bitmap=%d)",
			hdr.IntervalCount, hdr.GlyphCount, hdr.BitmapSize)
	}
	b := &Bundle{
		Header: Header{
			AdvanceY:      hdr.AdvanceY,
			Ascender:      hdr.Ascender,
			Descender:     hdr.Descender,
			Is2Bit:        hdr.Is2Bit != 0,
			IntervalCount: hdr.IntervalCount,
			GlyphCount:    hdr.GlyphCount,
			BitmapSize:    hdr.BitmapSize,
		},
		Intervals: make([]IntervalRecord, hdr.IntervalCount),
		Glyphs:    make([]GlyphRecord, hdr.GlyphCount),
		Bitmap:    make([]byte, hdr.BitmapSize),
	}
	if err := binary.Read(r, binary.LittleEndian, b.Intervals); err != nil {
		return nil, core.WrapError(err, core.EINVALID, "truncated CPF interval table")
	}
	if err := binary.Read(r, binary.LittleEndian, b.Glyphs); err != nil {
		return nil, core.WrapError(err, core.EINVALID, "truncated CPF glyph table")
	}
	if _, err := io.ReadFull(r, b.Bitmap); err != nil {
		return nil, core.WrapError(err, core.EINVALID, "truncated CPF bitmap payload")
	}
	var trailing [1]byte
	if n, _ := r.Read(trailing[:]); n != 0 {
		return nil, core.Error(core.EINVALID, "trailing bytes after CPF payload")
	}
	if err := b.Validate(); err != nil {
		return nil, core.WrapError(err, core.EINVALID, "CPF bundle is inconsistent")
	}
	tracer().Debugf("decoded CPF bundle: %d intervals, %d glyphs, %d bitmap bytes",
		len(b.Intervals), len(b.Glyphs), len(b.Bitmap))
	return b, nil
}

// DecodeBytes parses a CPF bundle held in memory.
func DecodeBytes(data []byte) (*Bundle, error) {
	return Decode(bytes.NewReader(data))
}

// GlyphBitmap returns the packed bitmap bytes of one glyph record.
func (b *Bundle) GlyphBitmap(g GlyphRecord) []byte {
	return b.Bitmap[g.DataOffset : g.DataOffset+uint32(g.DataLength)]
}

// Lookup finds the glyph record for a code point via the interval table,
// the way the firmware resolves glyphs. ok is false if the bundle does
// not cover the code point.
func (b *Bundle) Lookup(cp rune) (GlyphRecord, bool) {
	for _, iv := range b.Intervals {
		if uint32(cp) < iv.First {
			break // intervals are ascending
		}
		if uint32(cp) <= iv.Last {
			return b.Glyphs[iv.GlyphOffset+(uint32(cp)-iv.First)], true
		}
	}
	return GlyphRecord{}, false
}
