/*
cpfconvert renders TTF/OTF font stacks into CPF binary font bundles for
the CrossPoint Reader.

Usage:

	cpfconvert -size 14 [-output font.cpf] [-1bit] [-dpi 150]
	           [-interval min,max]... [-verify] font1 [font2 ...]

Font sources are given in descending priority: for every code point the
first font that defines a glyph supplies it. Sources may be file paths or
names of installed system fonts.

# License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2023–2026 the CrossPoint Reader developers
*/
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"

	"github.com/npillmayer/schuko/schukonf/testconfig"
	"github.com/npillmayer/schuko/tracing"
	"github.com/npillmayer/schuko/tracing/gologadapter"
	"github.com/npillmayer/schuko/tracing/trace2go"
	"github.com/pterm/pterm"

	"github.com/crosspoint-reader/cpf/codec/cpf"
	"github.com/crosspoint-reader/cpf/convert"
	"github.com/crosspoint-reader/cpf/core"
	"github.com/crosspoint-reader/cpf/core/coverage"
	"github.com/crosspoint-reader/cpf/core/locate"
)

// tracer traces with key 'cpf.codec'
func tracer() tracing.Trace {
	return tracing.Select("cpf.codec")
}

// intervalFlag collects repeated -interval arguments of the form
// "min,max", with decimal or 0x-prefixed bounds.
type intervalFlag []coverage.Interval

func (f *intervalFlag) String() string {
	var b strings.Builder
	for i, iv := range *f {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(iv.String())
	}
	return b.String()
}

func (f *intervalFlag) Set(arg string) error {
	lo, hi, ok := strings.Cut(arg, ",")
	if !ok {
		return fmt.Errorf("interval must be min,max — have %q", arg)
	}
	first, err := strconv.ParseUint(strings.TrimSpace(lo), 0, 32)
	if err != nil {
		return err
	}
	last, err := strconv.ParseUint(strings.TrimSpace(hi), 0, 32)
	if err != nil {
		return err
	}
	if last < first {
		return fmt.Errorf("interval is inverted: %s", arg)
	}
	*f = append(*f, coverage.Interval{First: rune(first), Last: rune(last)})
	return nil
}

func main() {
	initDisplay()

	// command line flags
	size := flag.Int("size", 0, "Font size to use (required)")
	output := flag.String("output", "", "Output .cpf file path")
	oneBit := flag.Bool("1bit", false, "Generate 1-bit B&W bitmaps instead of 2-bit greyscale")
	dpi := flag.Float64("dpi", 0, "Rasterization resolution (default 150)")
	verify := flag.Bool("verify", false, "Re-read the written bundle and verify it")
	tlevel := flag.String("trace", "Info", "Trace level [Debug|Info|Error]")
	var extra intervalFlag
	flag.Var(&extra, "interval", "Additional code point interval as min,max (repeatable)")
	flag.Parse()

	// set up logging
	tracing.RegisterTraceAdapter("go", gologadapter.GetAdapter(), false)
	conf := testconfig.Conf{
		"tracing.adapter": "go",
		"trace.cpf.fonts": *tlevel,
		"trace.cpf.codec": *tlevel,
	}
	if err := trace2go.ConfigureRoot(conf, "trace", trace2go.ReplaceTracers(true)); err != nil {
		fmt.Printf("error configuring tracing")
		os.Exit(1)
	}
	tracing.SetTraceSelector(trace2go.Selector())

	if *size <= 0 || flag.NArg() == 0 {
		pterm.Error.Println("need -size and at least one font source")
		flag.Usage()
		os.Exit(2)
	}
	if *output == "" {
		first := filepath.Base(flag.Arg(0))
		*output = strings.TrimSuffix(first, filepath.Ext(first)) + ".cpf"
	}

	fonts, err := locate.ResolveFontSources(flag.Args())
	if err != nil {
		fail(err)
	}
	opts := convert.Options{
		Size:           *size,
		DPI:            *dpi,
		TwoBit:         !*oneBit,
		ExtraIntervals: extra,
	}
	bundle, err := convert.ConvertToFile(*output, fonts, opts)
	if err != nil {
		fail(err)
	}
	mode := "2-bit"
	if *oneBit {
		mode = "1-bit"
	}
	pterm.Success.Printfln("Written %s (%d bytes, %d glyphs, %d intervals, %s)",
		*output, cpf.Size(bundle), bundle.Header.GlyphCount, bundle.Header.IntervalCount, mode)

	if *verify {
		if err := verifyBundle(*output, bundle); err != nil {
			fail(err)
		}
		pterm.Info.Println("Bundle verified OK")
	}
}

// verifyBundle decodes a written bundle and checks that it reproduces
// what the pipeline assembled.
func verifyBundle(path string, want *cpf.Bundle) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return core.WrapError(err, core.EIO, "cannot re-read %s", path)
	}
	got, err := cpf.DecodeBytes(data)
	if err != nil {
		return err
	}
	if !reflect.DeepEqual(got, want) {
		return core.Error(core.EINTERNAL, "decoded bundle differs from the encoded one")
	}
	tracer().Infof("verified %s: %d bytes", path, len(data))
	return nil
}

func fail(err error) {
	pterm.Error.Println(core.UserMessage(err))
	os.Exit(core.Code(err))
}

// We use pterm for moderately fancy output.
func initDisplay() {
	pterm.Info.Prefix = pterm.Prefix{
		Text:  " !  ",
		Style: pterm.NewStyle(pterm.BgCyan, pterm.FgBlack),
	}
	pterm.Error.Prefix = pterm.Prefix{
		Text:  " Error",
		Style: pterm.NewStyle(pterm.BgRed, pterm.FgBlack),
	}
}
