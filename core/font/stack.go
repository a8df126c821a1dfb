package font

import (
	"errors"
	"image"
	"image/color"

	"golang.org/x/image/font/sfnt"
	"golang.org/x/image/math/fixed"
)

// --- Font stack -------------------------------------------------------------

// Stack is a priority-ordered list of typecases, all prepared at the same
// size and resolution. For every code point the first typecase whose
// character map yields a non-zero glyph index wins; lower-priority fonts
// never contribute glyphs a higher-priority font can render.
type Stack struct {
	faces []*StackedFace
}

// StackedFace is one entry of a font stack.
type StackedFace struct {
	Font *ScalableFont
	Case *TypeCase
	buf  sfnt.Buffer // scratch buffer for cmap lookups
}

// NewStack prepares typecases for all fonts, in descending priority order,
// at a common size and resolution. It fails if any font cannot be readied,
// or if no fonts are given.
func NewStack(size int, dpi float64, fonts ...*ScalableFont) (*Stack, error) {
	if len(fonts) == 0 {
		return nil, errEmptyStack
	}
	s := &Stack{faces: make([]*StackedFace, 0, len(fonts))}
	for _, f := range fonts {
		tc, err := f.PrepareCase(size, dpi)
		if err != nil {
			return nil, err
		}
		tracer().Debugf("font stack includes %s at size %d", f.Fontname, size)
		s.faces = append(s.faces, &StackedFace{Font: f, Case: tc})
	}
	return s, nil
}

var errEmptyStack = errors.New("font stack must contain at least one font")

// Faces returns the stack's entries in descending priority order.
func (s *Stack) Faces() []*StackedFace {
	return s.faces
}

// Resolve finds the first face in the stack that defines a glyph for a
// code point. The returned glyph index is non-zero. ok is false if no face
// in the stack covers the code point; callers treat that as "code point
// not part of the conversion", never as a fatal condition.
//
// A resolved glyph must be rendered into the face's glyph slot (see
// StackedFace.RenderGlyph) before any of its bitmap output is read: the
// slot holds at most one glyph, and a later render invalidates it.
func (s *Stack) Resolve(cp rune) (face *StackedFace, gid sfnt.GlyphIndex, ok bool) {
	for _, sf := range s.faces {
		gid, err := sf.Font.SFNT.GlyphIndex(&sf.buf, cp)
		if err != nil {
			tracer().Debugf("cmap lookup of U+%04X in %s: %v", cp, sf.Font.Fontname, err)
			continue
		}
		if gid != 0 {
			return sf, gid, true
		}
	}
	return nil, 0, false
}

// Load resolves a code point and immediately renders the resolved glyph,
// returning the face that supplied it and its populated glyph slot.
func (s *Stack) Load(cp rune) (*StackedFace, *GlyphSlot, bool) {
	sf, _, ok := s.Resolve(cp)
	if !ok {
		return nil, nil, false
	}
	slot, ok := sf.RenderGlyph(cp)
	if !ok {
		return nil, nil, false
	}
	return sf, slot, true
}

// --- Glyph slot -------------------------------------------------------------

// GlyphSlot is the output of rendering one glyph: an 8-bit anti-aliased
// coverage bitmap plus placement metrics. It aliases the typecase's
// internal raster buffer and is only valid until the next render on the
// same typecase.
type GlyphSlot struct {
	Width   int           // bitmap width in pixels, may be 0 for blank glyphs
	Height  int           // bitmap height in pixels
	Left    int           // bitmap origin relative to the pen, x
	Top     int           // bitmap origin relative to the pen, y (up is positive)
	Advance fixed.Int26_6 // horizontal pen advance, 26.6 fixed-point
	mask    *image.Alpha
	org     image.Point
}

// RenderGlyph renders the glyph for a code point into the face's glyph
// slot at the face's size and resolution. ok is false if the underlying
// engine cannot produce a glyph (callers normally resolve first, so this
// is unexpected).
func (sf *StackedFace) RenderGlyph(cp rune) (*GlyphSlot, bool) {
	dot := fixed.Point26_6{} // pen at the origin; dr then holds signed offsets
	dr, mask, maskp, advance, ok := sf.Case.face.Glyph(dot, cp)
	if !ok {
		tracer().Infof("engine cannot render U+%04X from %s", cp, sf.Font.Fontname)
		return nil, false
	}
	slot := &GlyphSlot{
		Width:   dr.Dx(),
		Height:  dr.Dy(),
		Left:    dr.Min.X,
		Top:     -dr.Min.Y,
		Advance: advance,
		org:     maskp,
	}
	if alpha, isAlpha := mask.(*image.Alpha); isAlpha {
		slot.mask = alpha
	} else if mask != nil {
		slot.mask = flattenMask(mask, maskp, slot.Width, slot.Height)
		slot.org = image.Point{}
	}
	return slot, true
}

// Coverage returns the glyph's coverage bytes and its row pitch. The pitch
// may exceed the glyph width; rows start at multiples of pitch. For blank
// glyphs (width or height 0) it returns a nil slice.
func (g *GlyphSlot) Coverage() (pix []byte, pitch int) {
	if g.mask == nil || g.Width == 0 || g.Height == 0 {
		return nil, 0
	}
	base := g.mask.PixOffset(g.org.X, g.org.Y)
	return g.mask.Pix[base:], g.mask.Stride
}

// flattenMask copies a non-Alpha mask image into a tight Alpha image.
// The opentype engine always hands out *image.Alpha, so this is a
// compatibility path for exotic font.Face implementations.
func flattenMask(mask image.Image, org image.Point, w, h int) *image.Alpha {
	alpha := image.NewAlpha(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := color.AlphaModel.Convert(mask.At(org.X+x, org.Y+y)).(color.Alpha)
			alpha.SetAlpha(x, y, c)
		}
	}
	return alpha
}
