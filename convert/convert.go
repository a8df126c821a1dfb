/*
Package convert drives the glyph conversion pipeline: font stack →
code point coverage → per-glyph rasterization and quantization → CPF
bundle.

The pipeline is a single pass with one pre-pass. The pre-pass probes the
font stack for every requested code point and produces the coverage spans;
the main pass walks the spans in ascending code point order, renders each
glyph into the owning face's glyph slot, quantizes it, and accumulates the
glyph table and bitmap payload. Everything is strictly sequential: a face
holds one rendered glyph at a time, so there is nothing to parallelize
without re-architecting the engine underneath.

Either a complete, internally consistent bundle is produced, or an error
is returned before any output file exists.

# License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2023–2026 the CrossPoint Reader developers
*/
package convert

import (
	"bytes"
	"os"

	"github.com/npillmayer/schuko/tracing"

	"github.com/crosspoint-reader/cpf/codec/cpf"
	"github.com/crosspoint-reader/cpf/core"
	"github.com/crosspoint-reader/cpf/core/coverage"
	"github.com/crosspoint-reader/cpf/core/font"
	"github.com/crosspoint-reader/cpf/core/raster"
)

// tracer traces with key 'cpf.codec'.
func tracer() tracing.Trace {
	return tracing.Select("cpf.codec")
}

// ReferenceGlyph is the code point whose face supplies the bundle's line
// metrics. The vertical bar exists in virtually every font, so a stack
// that cannot resolve it is unusable.
const ReferenceGlyph = '|'

// Options configure a conversion run.
type Options struct {
	Size           int                 // nominal font size in points
	DPI            float64             // rasterization resolution, 0 = font.DefaultDPI
	TwoBit         bool                // 2-bit greyscale instead of 1-bit black and white
	ExtraIntervals []coverage.Interval // appended to the built-in defaults
}

// stackProber adapts a font stack to the coverage builder.
type stackProber struct {
	stack *font.Stack
}

func (p stackProber) Covers(cp rune) bool {
	_, _, ok := p.stack.Resolve(cp)
	return ok
}

// Convert runs the whole pipeline over a priority-ordered list of font
// sources and returns the assembled bundle.
func Convert(fonts []*font.ScalableFont, opts Options) (*cpf.Bundle, error) {
	stack, err := font.NewStack(opts.Size, opts.DPI, fonts...)
	if err != nil {
		return nil, core.WrapError(err, core.EINVALID, "cannot prepare font stack")
	}
	//
	// Line metrics come from the face that wins the reference glyph.
	// Rendering it first also forces the engine to fix the face-wide
	// metrics at the active size before any of them are read.
	refFace, _, ok := stack.Resolve(ReferenceGlyph)
	if !ok {
		return nil, core.Error(core.EMISSING,
			"no font in the stack defines the reference glyph %q; cannot derive line metrics", ReferenceGlyph)
	}
	if _, ok = refFace.RenderGlyph(ReferenceGlyph); !ok {
		return nil, core.Error(core.EINTERNAL,
			"%s resolves the reference glyph but cannot render it", refFace.Font.Fontname)
	}
	metrics := refFace.Case.Metrics()
	advanceY := metrics.Height.Ceil()
	if advanceY < 0 || advanceY > 255 {
		return nil, core.Error(core.EINVALID, "line height %d px does not fit the CPF header", advanceY)
	}
	header := cpf.Header{
		AdvanceY:  uint8(advanceY),
		Ascender:  int32(metrics.Ascent.Ceil()),
		Descender: int32((-metrics.Descent).Floor()),
		Is2Bit:    opts.TwoBit,
	}
	tracer().Infof("line metrics from %s: advanceY=%d ascender=%d descender=%d",
		refFace.Font.Fontname, header.AdvanceY, header.Ascender, header.Descender)
	//
	requested := append(coverage.DefaultIntervals(), opts.ExtraIntervals...)
	spans := coverage.Build(requested, stackProber{stack})
	if len(spans) == 0 {
		return nil, core.Error(core.EMISSING, "no glyphs found for any requested interval")
	}
	//
	bundle := &cpf.Bundle{Header: header}
	var bitmap bytes.Buffer
	for _, sp := range spans {
		bundle.Intervals = append(bundle.Intervals, cpf.IntervalRecord{
			First:       uint32(sp.First),
			Last:        uint32(sp.Last),
			GlyphOffset: sp.GlyphOffset,
		})
		for cp := sp.First; cp <= sp.Last; cp++ {
			rec, packed, err := renderOne(stack, cp, opts.TwoBit, uint32(bitmap.Len()))
			if err != nil {
				return nil, err
			}
			bundle.Glyphs = append(bundle.Glyphs, rec)
			bitmap.Write(packed)
		}
	}
	bundle.Bitmap = bitmap.Bytes()
	bundle.Header.IntervalCount = uint32(len(bundle.Intervals))
	bundle.Header.GlyphCount = uint32(len(bundle.Glyphs))
	bundle.Header.BitmapSize = uint32(len(bundle.Bitmap))
	return bundle, nil
}

// renderOne renders and quantizes the glyph for one confirmed-coverable
// code point and builds its 16-byte table record.
func renderOne(stack *font.Stack, cp rune, twoBit bool, offset uint32) (cpf.GlyphRecord, []byte, error) {
	face, slot, ok := stack.Load(cp)
	if !ok {
		// Coverage confirmed this code point; a failure here is a drift
		// between probing and rendering.
		return cpf.GlyphRecord{}, nil, core.Error(core.EINTERNAL,
			"U+%04X passed coverage probing but does not render", cp)
	}
	pix, pitch := slot.Coverage()
	packed := raster.Quantize(pix, pitch, slot.Width, slot.Height, twoBit)
	advanceX := slot.Advance.Floor()
	switch {
	case slot.Width > 255 || slot.Height > 255:
		return cpf.GlyphRecord{}, nil, core.Error(core.EINVALID,
			"glyph U+%04X of %s is %d×%d px, too large for a CPF record",
			cp, face.Font.Fontname, slot.Width, slot.Height)
	case advanceX < 0 || advanceX > 255:
		return cpf.GlyphRecord{}, nil, core.Error(core.EINVALID,
			"glyph U+%04X advance %d px does not fit a CPF record", cp, advanceX)
	case slot.Left < -32768 || slot.Left > 32767 || slot.Top < -32768 || slot.Top > 32767:
		return cpf.GlyphRecord{}, nil, core.Error(core.EINVALID,
			"glyph U+%04X bearing (%d,%d) does not fit a CPF record", cp, slot.Left, slot.Top)
	case len(packed) > 65535:
		return cpf.GlyphRecord{}, nil, core.Error(core.EINVALID,
			"glyph U+%04X bitmap is %d bytes, too large for a CPF record", cp, len(packed))
	}
	rec := cpf.GlyphRecord{
		Width:      uint8(slot.Width),
		Height:     uint8(slot.Height),
		AdvanceX:   uint8(advanceX),
		Left:       int16(slot.Left),
		Top:        int16(slot.Top),
		DataLength: uint16(len(packed)),
		DataOffset: offset,
	}
	return rec, packed, nil
}

// ConvertToFile runs Convert and writes the encoded bundle to a file.
// The bundle is encoded into memory first, so an inconsistent bundle or
// an encoding failure leaves no file behind.
func ConvertToFile(path string, fonts []*font.ScalableFont, opts Options) (*cpf.Bundle, error) {
	bundle, err := Convert(fonts, opts)
	if err != nil {
		return nil, err
	}
	var out bytes.Buffer
	if err := cpf.Encode(&out, bundle); err != nil {
		return nil, err
	}
	if err := os.WriteFile(path, out.Bytes(), 0644); err != nil {
		return nil, core.WrapError(err, core.EIO, "cannot write %s", path)
	}
	tracer().Infof("written %s: %d bytes", path, out.Len())
	return bundle, nil
}
