/*
Package raster quantizes anti-aliased glyph coverage into the packed
low-bit-depth bitmaps of the CPF bundle format.

Quantization is a literal two-stage pipeline, kept bit-for-bit compatible
with the firmware decoder and the original converter scripts:

 1. The 8-bit coverage rows are packed into a 4-bit intermediate, two
    pixels per byte: the even column's top 4 bits go into the low nibble,
    the odd column's into the high nibble. An odd-width row packs its last
    column alone, partner nibble zero.
 2. The intermediate is reduced to the final depth as one continuous
    MSB-first bit stream across the whole glyph. Row boundaries do not
    byte-align; only the final byte of a glyph is zero-padded. In 2-bit
    mode each nibble maps to one of four grey levels by threshold, in
    1-bit mode a nibble counts as ink when any of its top 3 bits is set.

Do not algebraically fold the two stages into one: the intermediate's
truncation to 4 bits is part of the observable thresholds.

# License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2023–2026 the CrossPoint Reader developers
*/
package raster

// Pitch4 returns the row pitch, in bytes, of the 4-bit intermediate for a
// glyph width.
func Pitch4(w int) int {
	return w/2 + w%2
}

// Intermediate4 packs 8-bit coverage rows into the legacy 4-bit
// intermediate. pix holds at least h rows of pitch bytes each, of which
// the first w are the glyph's pixels; pitch may exceed w. The result has
// Pitch4(w) bytes per row. A blank glyph (w or h zero) yields nil.
func Intermediate4(pix []byte, pitch, w, h int) []byte {
	if w == 0 || h == 0 {
		return nil
	}
	inter := make([]byte, 0, Pitch4(w)*h)
	var px byte
	for y := 0; y < h; y++ {
		row := pix[y*pitch:]
		for x := 0; x < w; x++ {
			v := row[x]
			if x%2 == 0 {
				px = v >> 4
			} else {
				px |= v & 0xF0
				inter = append(inter, px)
				px = 0
			}
			if x == w-1 && w%2 > 0 {
				inter = append(inter, px)
				px = 0
			}
		}
	}
	return inter
}

// nibble4 extracts the 4-bit value of pixel (x,y) from an intermediate.
func nibble4(inter []byte, w, x, y int) byte {
	bm := inter[y*Pitch4(w)+x/2]
	return (bm >> ((x % 2) * 4)) & 0xF
}

// --- Bit writer -------------------------------------------------------------

// bitWriter accumulates an MSB-first bit stream, flushing whole bytes.
// It is a plain value threaded through the packing loops; there is no
// shared packing state anywhere in this package.
type bitWriter struct {
	out  []byte
	acc  byte
	bits uint
}

// put appends the low n bits of v, MSB-first. n must divide 8.
func (bw *bitWriter) put(v byte, n uint) {
	bw.acc = bw.acc<<n | v
	bw.bits += n
	if bw.bits == 8 {
		bw.out = append(bw.out, bw.acc)
		bw.acc, bw.bits = 0, 0
	}
}

// close left-shifts a trailing partial byte so that the padding bits are
// zero, and emits it.
func (bw *bitWriter) close() []byte {
	if bw.bits > 0 {
		bw.out = append(bw.out, bw.acc<<(8-bw.bits))
		bw.acc, bw.bits = 0, 0
	}
	return bw.out
}

// --- Final packing ----------------------------------------------------------

// PackGrey2 reduces a 4-bit intermediate of w×h pixels to the 2-bit grey
// bitmap: 4 pixels per byte in row-major order, continuous across rows.
func PackGrey2(inter []byte, w, h int) []byte {
	bw := bitWriter{out: make([]byte, 0, (w*h*2+7)/8)}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			nib := nibble4(inter, w, x, y)
			var level byte
			switch {
			case nib >= 12:
				level = 3
			case nib >= 8:
				level = 2
			case nib >= 4:
				level = 1
			}
			bw.put(level, 2)
		}
	}
	return bw.close()
}

// PackBW1 reduces a 4-bit intermediate of w×h pixels to the 1-bit
// black-and-white bitmap: 8 pixels per byte in row-major order,
// continuous across rows.
func PackBW1(inter []byte, w, h int) []byte {
	bw := bitWriter{out: make([]byte, 0, (w*h+7)/8)}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			var ink byte
			if nibble4(inter, w, x, y)&0xE != 0 {
				ink = 1
			}
			bw.put(ink, 1)
		}
	}
	return bw.close()
}

// Quantize runs the full two-stage pipeline for one glyph's coverage
// bitmap and returns the packed bytes. twoBit selects 2-bit grey output,
// otherwise 1-bit black-and-white. Blank glyphs yield an empty slice.
func Quantize(pix []byte, pitch, w, h int, twoBit bool) []byte {
	inter := Intermediate4(pix, pitch, w, h)
	if inter == nil {
		return nil
	}
	if twoBit {
		return PackGrey2(inter, w, h)
	}
	return PackBW1(inter, w, h)
}
