package raster

import (
	"bytes"
	"testing"
)

func TestIntermediate4OddWidth(t *testing.T) {
	// 3×1 row: last column packs alone, partner nibble zero
	pix := []byte{0x00, 0x80, 0xF0}
	inter := Intermediate4(pix, 3, 3, 1)
	want := []byte{0x80, 0x0F}
	if !bytes.Equal(inter, want) {
		t.Errorf("intermediate = % X, want % X", inter, want)
	}
}

func TestIntermediate4RespectsPitch(t *testing.T) {
	// 2×2 glyph inside rows of pitch 4; the padding bytes must not leak
	pix := []byte{
		0x40, 0xFF, 0xAA, 0xAA,
		0xC0, 0x80, 0xAA, 0xAA,
	}
	inter := Intermediate4(pix, 4, 2, 2)
	want := []byte{0xF4, 0x8C}
	if !bytes.Equal(inter, want) {
		t.Errorf("intermediate = % X, want % X", inter, want)
	}
}

func TestIntermediate4Blank(t *testing.T) {
	if inter := Intermediate4(nil, 0, 0, 0); inter != nil {
		t.Errorf("blank glyph must yield no intermediate, have % X", inter)
	}
	if packed := Quantize(nil, 0, 0, 0, true); len(packed) != 0 {
		t.Errorf("blank glyph must pack to zero bytes, have % X", packed)
	}
}

func TestPackGrey2Thresholds(t *testing.T) {
	// nibbles 12,11,8,7,4,3,15,0 → levels 3,2,2,1,1,0,3,0
	pix := []byte{0xC0, 0xB0, 0x80, 0x70, 0x40, 0x30, 0xF0, 0x00}
	packed := Quantize(pix, 8, 8, 1, true)
	want := []byte{0xE9, 0x4C}
	if !bytes.Equal(packed, want) {
		t.Errorf("packed = % X, want % X", packed, want)
	}
}

func TestPackGrey2PadsFinalByte(t *testing.T) {
	// 3 pixels = 6 bits; the final byte is left-shifted, padding bits zero
	pix := []byte{0x00, 0x80, 0xF0} // levels 0, 2, 3
	packed := Quantize(pix, 3, 3, 1, true)
	want := []byte{0x2C} // 00 10 11 00
	if !bytes.Equal(packed, want) {
		t.Errorf("packed = % X, want % X", packed, want)
	}
	if packed[len(packed)-1]&0x03 != 0 {
		t.Errorf("padding bits of final byte not zero: %02X", packed[len(packed)-1])
	}
}

func TestPackBW1SinglePixel(t *testing.T) {
	// 1×1 foreground pixel: one byte, top bit set, 7 padding zeros
	packed := Quantize([]byte{0xFF}, 1, 1, 1, false)
	if len(packed) != 1 || packed[0] != 0x80 {
		t.Errorf("packed = % X, want 80", packed)
	}
}

func TestPackBW1InkMask(t *testing.T) {
	// ink iff any of the nibble's top 3 bits is set: nibble 2 is ink,
	// nibble 1 is not
	pix := []byte{0x20, 0x10, 0xE0, 0x00, 0xFF, 0x1F, 0x00, 0x30}
	packed := Quantize(pix, 8, 8, 1, false)
	// nibbles 2,1,14,0,15,1,0,3 → bits 1,0,1,0,1,0,0,1
	want := []byte{0xA9}
	if !bytes.Equal(packed, want) {
		t.Errorf("packed = % X, want % X", packed, want)
	}
}

func TestContinuousPackingAcrossRows(t *testing.T) {
	// 3×3 all-ink glyph: 9 bits, rows do not byte-align, so the stream is
	// 11111111 1 followed by 7 zero padding bits
	pix := bytes.Repeat([]byte{0xFF}, 9)
	packed := Quantize(pix, 3, 3, 3, false)
	want := []byte{0xFF, 0x80}
	if !bytes.Equal(packed, want) {
		t.Errorf("packed = % X, want % X", packed, want)
	}
	// same glyph in 2-bit mode: 18 bits → 3 bytes, last byte 11 000000
	packed = Quantize(pix, 3, 3, 3, true)
	want = []byte{0xFF, 0xFF, 0xC0}
	if !bytes.Equal(packed, want) {
		t.Errorf("2-bit packed = % X, want % X", packed, want)
	}
}

func TestQuantizeSizes(t *testing.T) {
	// a 5×7 glyph: 35 px → 9 bytes in 2-bit mode, 5 bytes in 1-bit mode
	pix := bytes.Repeat([]byte{0xFF}, 35)
	if n := len(Quantize(pix, 5, 5, 7, true)); n != 9 {
		t.Errorf("2-bit size = %d, want 9", n)
	}
	if n := len(Quantize(pix, 5, 5, 7, false)); n != 5 {
		t.Errorf("1-bit size = %d, want 5", n)
	}
}
