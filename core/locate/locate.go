/*
Package locate resolves font source arguments to loadable font files.

An argument naming an existing file is used as-is; anything else is
treated as a font name and searched among the installed system fonts.
Failure to locate or parse a source is fatal for a conversion run: the
resolver is consulted before any output is produced.

# License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2023–2026 the CrossPoint Reader developers
*/
package locate

import (
	"os"

	"github.com/flopp/go-findfont"
	"github.com/npillmayer/schuko/tracing"

	"github.com/crosspoint-reader/cpf/core"
	"github.com/crosspoint-reader/cpf/core/font"
)

// tracer traces with key 'cpf.fonts'.
func tracer() tracing.Trace {
	return tracing.Select("cpf.fonts")
}

// ResolveFontSource loads the font a command line argument denotes,
// either a path to a TTF/OTF file or the name of an installed system
// font.
func ResolveFontSource(arg string) (*font.ScalableFont, error) {
	if fi, err := os.Stat(arg); err == nil && !fi.IsDir() {
		f, err := font.LoadOpenTypeFont(arg)
		if err != nil {
			return nil, core.WrapError(err, core.EINVALID, "cannot parse font file %s", arg)
		}
		tracer().Infof("font source %s = %s", arg, f.Fontname)
		return f, nil
	}
	fpath, err := findfont.Find(arg)
	if err != nil || fpath == "" {
		return nil, core.WrapError(err, core.EMISSING, "no font file or system font %q", arg)
	}
	tracer().Debugf("%s is a system font at %s", arg, fpath)
	f, err := font.LoadOpenTypeFont(fpath)
	if err != nil {
		return nil, core.WrapError(err, core.EINVALID, "cannot parse system font %s", fpath)
	}
	tracer().Infof("font source %s = %s", arg, f.Fontname)
	return f, nil
}

// ResolveFontSources loads a whole stack of sources, in the given order.
// The first failure aborts resolution.
func ResolveFontSources(args []string) ([]*font.ScalableFont, error) {
	fonts := make([]*font.ScalableFont, 0, len(args))
	for _, arg := range args {
		f, err := ResolveFontSource(arg)
		if err != nil {
			return nil, err
		}
		fonts = append(fonts, f)
	}
	return fonts, nil
}
