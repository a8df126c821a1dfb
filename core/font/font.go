/*
Package font handles the outline font sources of a conversion run.

A "scalable font" is a parsed TTF/OTF font file. A "typecase" is a scalable
font readied for rasterization at a concrete size and resolution. Please
note that Go (Golang) does use the terms "font" and "face"
differently–actually more or less in an opposite manner.

Rasterization itself is delegated to golang.org/x/image/font/opentype,
which renders one glyph at a time into a single reusable mask buffer. That
buffer is the "glyph slot" of classic font engines: only one glyph per
typecase is valid at any moment, and reading a glyph's bitmap is only
legal immediately after rendering it.

# License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2023–2026 the CrossPoint Reader developers
*/
package font

import (
	"errors"
	"os"
	"sync"

	"github.com/npillmayer/schuko/tracing"
	xfont "golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/font/sfnt"
)

// tracer traces with key 'cpf.fonts'.
func tracer() tracing.Trace {
	return tracing.Select("cpf.fonts")
}

// DefaultDPI is the rasterization resolution used by the CrossPoint
// firmware's pre-built fonts. Effective glyph pixel sizes are
// size × dpi / 72.
const DefaultDPI = 150

var errInvalidSize = errors.New("font size out of range")

// ScalableFont is a parsed outline font source.
type ScalableFont struct {
	Fontname string
	Filepath string     // file path, "internal" for embedded fonts
	Binary   []byte     // raw data
	SFNT     *sfnt.Font // the font's container
}

// TypeCase is a scalable font readied for rasterization at a fixed size.
type TypeCase struct {
	scalableFontParent *ScalableFont
	face               xfont.Face
	size               int
	dpi                float64
}

// LoadOpenTypeFont loads an OpenType font (TTF or OTF) from a file.
func LoadOpenTypeFont(fontfile string) (*ScalableFont, error) {
	bytez, err := os.ReadFile(fontfile)
	if err != nil {
		return nil, err
	}
	f, err := ParseOpenTypeFont(bytez)
	if err != nil {
		return nil, err
	}
	f.Filepath = fontfile
	return f, nil
}

// ParseOpenTypeFont parses an OpenType font from binary data.
func ParseOpenTypeFont(fbytes []byte) (f *ScalableFont, err error) {
	f = &ScalableFont{Binary: fbytes}
	f.SFNT, err = sfnt.Parse(f.Binary)
	if err != nil {
		return nil, err
	}
	f.Fontname, _ = f.SFNT.Name(nil, sfnt.NameIDFull)
	return
}

// PrepareCase readies a font for rasterization at a given nominal size (in
// points) and resolution. A dpi of 0 selects DefaultDPI.
func (sf *ScalableFont) PrepareCase(size int, dpi float64) (*TypeCase, error) {
	if dpi == 0 {
		dpi = DefaultDPI
	}
	if size < 4 || size > 200 {
		tracer().Errorf("font size must be 4 ≤ size ≤ 200, is %d", size)
		return nil, errInvalidSize
	}
	options := &opentype.FaceOptions{
		Size:    float64(size),
		DPI:     dpi,
		Hinting: xfont.HintingNone,
	}
	face, err := opentype.NewFace(sf.SFNT, options)
	if err != nil {
		return nil, err
	}
	typecase := &TypeCase{
		scalableFontParent: sf,
		face:               face,
		size:               size,
		dpi:                dpi,
	}
	return typecase, nil
}

// ScalableFontParent returns the font a typecase has been derived from.
func (tc *TypeCase) ScalableFontParent() *ScalableFont {
	return tc.scalableFontParent
}

// Size returns the nominal size of a typecase in points.
func (tc *TypeCase) Size() int {
	return tc.size
}

// Metrics returns the face-wide vertical metrics of a typecase, in 26.6
// fixed-point at the typecase's size and resolution.
func (tc *TypeCase) Metrics() xfont.Metrics {
	return tc.face.Metrics()
}

// --- Fallback font ---------------------------------------------------------

// FallbackFont returns a font to be used if everything else failes. It is
// always present. Currently we use Go Sans.
func FallbackFont() *ScalableFont {
	fallbackFontLoading.Do(func() {
		fallbackFont = loadFallbackFont()
	})
	return fallbackFont
}

var fallbackFontLoading sync.Once

// fallbackFont is a font that is used if everything else failes.
// Currently we use Go Sans.
var fallbackFont *ScalableFont

func loadFallbackFont() *ScalableFont {
	var err error
	gofont := &ScalableFont{
		Fontname: "Go Sans",
		Filepath: "internal",
		Binary:   goregular.TTF,
	}
	gofont.SFNT, err = sfnt.Parse(gofont.Binary)
	if err != nil {
		panic("cannot load default font") // this cannot happen
	}
	return gofont
}
