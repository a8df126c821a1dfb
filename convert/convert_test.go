package convert

import (
	"bytes"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/npillmayer/schuko/tracing"
	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"github.com/stretchr/testify/suite"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/goregular"

	"github.com/crosspoint-reader/cpf/codec/cpf"
	"github.com/crosspoint-reader/cpf/core/coverage"
	"github.com/crosspoint-reader/cpf/core/font"
)

// --- Test Suite Preparation ------------------------------------------------

type ConvertTestEnviron struct {
	suite.Suite
	fonts []*font.ScalableFont
}

// listen for 'go test' command --> run test methods
func TestConversionPipeline(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "cpf.codec")
	defer teardown()
	suite.Run(t, new(ConvertTestEnviron))
}

// run once, before test suite methods
func (env *ConvertTestEnviron) SetupSuite() {
	env.T().Log("Setting up test suite")
	tracing.Select("cpf.codec").SetTraceLevel(tracing.LevelError)
	sans, err := font.ParseOpenTypeFont(goregular.TTF)
	env.Require().NoError(err)
	mono, err := font.ParseOpenTypeFont(gomono.TTF)
	env.Require().NoError(err)
	env.fonts = []*font.ScalableFont{sans, mono}
}

func (env *ConvertTestEnviron) convert(opts Options) *cpf.Bundle {
	bundle, err := Convert(env.fonts, opts)
	env.Require().NoError(err)
	return bundle
}

// --- Tests -----------------------------------------------------------------

func (env *ConvertTestEnviron) TestBundleInvariants() {
	bundle := env.convert(Options{Size: 12, TwoBit: true})
	env.Require().NoError(bundle.Validate(), "converted bundle must satisfy all structural invariants")
	env.NotZero(bundle.Header.GlyphCount)
	env.NotZero(bundle.Header.IntervalCount)
	env.True(bundle.Header.Is2Bit)
	env.Greater(bundle.Header.AdvanceY, uint8(0), "line height must be positive")
	env.Greater(bundle.Header.Ascender, int32(0))
	env.Less(bundle.Header.Descender, int32(0), "CPF stores the descender with the FreeType sign convention")
}

func (env *ConvertTestEnviron) TestGlyphDataLengths() {
	bundle := env.convert(Options{Size: 12, TwoBit: true})
	for i, g := range bundle.Glyphs {
		pixels := int(g.Width) * int(g.Height)
		env.Equal((pixels*2+7)/8, int(g.DataLength),
			"glyph %d: 2-bit data length must be ceil(2·w·h/8)", i)
	}
	bundle = env.convert(Options{Size: 12})
	for i, g := range bundle.Glyphs {
		pixels := int(g.Width) * int(g.Height)
		env.Equal((pixels+7)/8, int(g.DataLength),
			"glyph %d: 1-bit data length must be ceil(w·h/8)", i)
	}
}

func (env *ConvertTestEnviron) TestIdempotence() {
	var first, second bytes.Buffer
	env.Require().NoError(cpf.Encode(&first, env.convert(Options{Size: 14, TwoBit: true})))
	env.Require().NoError(cpf.Encode(&second, env.convert(Options{Size: 14, TwoBit: true})))
	env.True(bytes.Equal(first.Bytes(), second.Bytes()),
		"converting the same inputs twice must produce byte-identical bundles")
}

func (env *ConvertTestEnviron) TestOneBitIsSmaller() {
	grey := env.convert(Options{Size: 14, TwoBit: true})
	bw := env.convert(Options{Size: 14})
	env.False(bw.Header.Is2Bit)
	env.Less(bw.Header.BitmapSize, grey.Header.BitmapSize,
		"1-bit bitmaps must be smaller than 2-bit ones")
	env.Equal(grey.Header.GlyphCount, bw.Header.GlyphCount,
		"bit depth must not change coverage")
}

func (env *ConvertTestEnviron) TestBlankGlyphRecord() {
	bundle := env.convert(Options{Size: 12, TwoBit: true})
	space, ok := bundle.Lookup(' ')
	env.Require().True(ok, "expected the bundle to cover the space character")
	env.Zero(space.DataLength, "space has no bitmap data")
	env.Zero(space.Width)
	env.Greater(space.AdvanceX, uint8(0), "space still advances the pen")
}

func (env *ConvertTestEnviron) TestCoverageMatchesResolver() {
	bundle := env.convert(Options{Size: 12, TwoBit: true})
	for _, cp := range []rune{'A', 'z', '|', 0x00E9, 0x0416, 0xFFFD} {
		_, ok := bundle.Lookup(cp)
		env.True(ok, "expected the bundle to cover U+%04X", cp)
	}
	_, ok := bundle.Lookup(0x4E00)
	env.False(ok, "the Go fonts have no CJK glyphs")
}

func (env *ConvertTestEnviron) TestRedundantExtraIntervals() {
	base := env.convert(Options{Size: 12, TwoBit: true})
	extra := env.convert(Options{Size: 12, TwoBit: true,
		ExtraIntervals: []coverage.Interval{
			{First: 0x41, Last: 0x5A},     // subset of Basic Latin, merged away
			{First: 0x4E00, Last: 0x4E0F}, // unrenderable, contributes nothing
		}})
	env.True(reflect.DeepEqual(base, extra),
		"redundant or unrenderable extra intervals must not change the bundle")
}

func (env *ConvertTestEnviron) TestConvertToFileRoundTrip() {
	dir := env.T().TempDir()
	path := filepath.Join(dir, "goregular-14.cpf")
	bundle, err := ConvertToFile(path, env.fonts, Options{Size: 14, TwoBit: true})
	env.Require().NoError(err)
	data, err := os.ReadFile(path)
	env.Require().NoError(err)
	env.Equal(cpf.Size(bundle), len(data))
	decoded, err := cpf.DecodeBytes(data)
	env.Require().NoError(err)
	env.True(reflect.DeepEqual(decoded, bundle),
		"decoding the written file must reproduce the assembled bundle")
	//
	path2 := filepath.Join(dir, "again.cpf")
	_, err = ConvertToFile(path2, env.fonts, Options{Size: 14, TwoBit: true})
	env.Require().NoError(err)
	data2, err := os.ReadFile(path2)
	env.Require().NoError(err)
	env.True(bytes.Equal(data, data2), "repeated conversion must be byte-identical")
}
