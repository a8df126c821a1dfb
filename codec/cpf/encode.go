package cpf

import (
	"bufio"
	"encoding/binary"
	"io"

	"github.com/crosspoint-reader/cpf/core"
)

// headerWire is the exact 22-byte on-disk header layout. The magic tag
// precedes it in the stream but is not part of the header block.
type headerWire struct {
	AdvanceY      uint8
	Ascender      int32
	Descender     int32
	Is2Bit        uint8
	IntervalCount uint32
	GlyphCount    uint32
	BitmapSize    uint32
}

// assertWireSizes verifies the computed sizes of the fixed records before
// a single output byte exists. A mismatch means the Go structs have
// drifted from the firmware's layout; every downstream offset would be
// wrong, so the whole run aborts.
func assertWireSizes() error {
	if s := binary.Size(headerWire{}); s != HeaderSize {
		return core.Error(core.EINTERNAL, "CPF header layout drifted: %d bytes, want %d", s, HeaderSize)
	}
	if s := binary.Size(IntervalRecord{}); s != IntervalRecordSize {
		return core.Error(core.EINTERNAL, "CPF interval record layout drifted: %d bytes, want %d", s, IntervalRecordSize)
	}
	if s := binary.Size(GlyphRecord{}); s != GlyphRecordSize {
		return core.Error(core.EINTERNAL, "CPF glyph record layout drifted: %d bytes, want %d", s, GlyphRecordSize)
	}
	return nil
}

// Encode writes a bundle to w in the fixed CPF layout. The header's
// count fields are taken from the actual table lengths (and written back
// into b.Header), so callers need not pre-compute them. Encode validates
// the bundle and the fixed record sizes before writing anything; on error
// no output has been produced.
func Encode(w io.Writer, b *Bundle) error {
	if err := assertWireSizes(); err != nil {
		return err
	}
	b.Header.IntervalCount = uint32(len(b.Intervals))
	b.Header.GlyphCount = uint32(len(b.Glyphs))
	b.Header.BitmapSize = uint32(len(b.Bitmap))
	if err := b.Validate(); err != nil {
		return core.WrapError(err, core.EINVALID, "CPF bundle is inconsistent")
	}
	if len(b.Intervals) > MaxIntervalCount {
		return core.Error(core.EINVALID, "too many intervals for the reader: %d > %d", len(b.Intervals), MaxIntervalCount)
	}
	if len(b.Glyphs) > MaxGlyphCount {
		return core.Error(core.EINVALID, "too many glyphs for the reader: %d > %d", len(b.Glyphs), MaxGlyphCount)
	}
	if len(b.Bitmap) > MaxBitmapSize {
		return core.Error(core.EINVALID, "bitmap too large for the reader: %d > %d", len(b.Bitmap), MaxBitmapSize)
	}
	//
	buf := bufio.NewWriter(w)
	hdr := headerWire{
		AdvanceY:      b.Header.AdvanceY,
		Ascender:      b.Header.Ascender,
		Descender:     b.Header.Descender,
		IntervalCount: b.Header.IntervalCount,
		GlyphCount:    b.Header.GlyphCount,
		BitmapSize:    b.Header.BitmapSize,
	}
	if b.Header.Is2Bit {
		hdr.Is2Bit = 1
	}
	if _, err := buf.Write(Magic[:]); err != nil {
		return core.WrapError(err, core.EIO, "cannot write CPF magic")
	}
	if err := binary.Write(buf, binary.LittleEndian, hdr); err != nil {
		return core.WrapError(err, core.EIO, "cannot write CPF header")
	}
	if err := binary.Write(buf, binary.LittleEndian, b.Intervals); err != nil {
		return core.WrapError(err, core.EIO, "cannot write CPF interval table")
	}
	if err := binary.Write(buf, binary.LittleEndian, b.Glyphs); err != nil {
		return core.WrapError(err, core.EIO, "cannot write CPF glyph table")
	}
	if _, err := buf.Write(b.Bitmap); err != nil {
		return core.WrapError(err, core.EIO, "cannot write CPF bitmap payload")
	}
	if err := buf.Flush(); err != nil {
		return core.WrapError(err, core.EIO, "cannot write CPF bundle")
	}
	tracer().Infof("encoded CPF bundle: %d intervals, %d glyphs, %d bitmap bytes",
		len(b.Intervals), len(b.Glyphs), len(b.Bitmap))
	return nil
}

// Size returns the total byte size of a bundle's on-disk form, the
// magic tag included.
func Size(b *Bundle) int {
	return len(Magic) + HeaderSize + len(b.Intervals)*IntervalRecordSize +
		len(b.Glyphs)*GlyphRecordSize + len(b.Bitmap)
}
