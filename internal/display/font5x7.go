package display

import (
	"image"
	"sort"

	"golang.org/x/image/font/basicfont"
)

const (
	glyphWidth   = 5
	glyphAscent  = 7
	glyphDescent = 1
	glyphAdvance = glyphWidth + 1
)

// font5x7 holds 5 columns per glyph, bit 0 of each column being the top row
var font5x7 = map[rune][glyphWidth]byte{
	'A': {0x7E, 0x09, 0x09, 0x09, 0x7E},
	'B': {0x7F, 0x49, 0x49, 0x49, 0x36},
	'C': {0x3E, 0x41, 0x41, 0x41, 0x22},
	'D': {0x7F, 0x41, 0x41, 0x22, 0x1C},
	'E': {0x7F, 0x49, 0x49, 0x49, 0x41},
	'F': {0x7F, 0x09, 0x09, 0x09, 0x01},
	'G': {0x3E, 0x41, 0x49, 0x49, 0x3A},
	'H': {0x7F, 0x08, 0x08, 0x08, 0x7F},
	'I': {0x00, 0x41, 0x7F, 0x41, 0x00},
	'J': {0x20, 0x40, 0x41, 0x3F, 0x01},
	'K': {0x7F, 0x08, 0x14, 0x22, 0x41},
	'L': {0x7F, 0x40, 0x40, 0x40, 0x40},
	'M': {0x7F, 0x02, 0x0C, 0x02, 0x7F},
	'N': {0x7F, 0x04, 0x08, 0x10, 0x7F},
	'O': {0x3E, 0x41, 0x41, 0x41, 0x3E},
	'P': {0x7F, 0x09, 0x09, 0x09, 0x06},
	'Q': {0x3E, 0x41, 0x51, 0x21, 0x5E},
	'R': {0x7F, 0x09, 0x19, 0x29, 0x46},
	'S': {0x26, 0x49, 0x49, 0x49, 0x32},
	'T': {0x01, 0x01, 0x7F, 0x01, 0x01},
	'U': {0x3F, 0x40, 0x40, 0x40, 0x3F},
	'V': {0x1F, 0x20, 0x40, 0x20, 0x1F},
	'W': {0x3F, 0x40, 0x30, 0x40, 0x3F},
	'X': {0x63, 0x14, 0x08, 0x14, 0x63},
	'Y': {0x07, 0x08, 0x70, 0x08, 0x07},
	'Z': {0x61, 0x51, 0x49, 0x45, 0x43},
	'0': {0x3E, 0x51, 0x49, 0x45, 0x3E},
	'1': {0x00, 0x42, 0x7F, 0x40, 0x00},
	'2': {0x42, 0x61, 0x51, 0x49, 0x46},
	'3': {0x21, 0x41, 0x45, 0x4B, 0x31},
	'4': {0x18, 0x14, 0x12, 0x7F, 0x10},
	'5': {0x27, 0x45, 0x45, 0x45, 0x39},
	'6': {0x3C, 0x4A, 0x49, 0x49, 0x30},
	'7': {0x01, 0x71, 0x09, 0x05, 0x03},
	'8': {0x36, 0x49, 0x49, 0x49, 0x36},
	'9': {0x06, 0x49, 0x49, 0x29, 0x1E},
	' ': {0x00, 0x00, 0x00, 0x00, 0x00},
	'!': {0x00, 0x00, 0x5F, 0x00, 0x00},
	'"': {0x00, 0x07, 0x00, 0x07, 0x00},
	'#': {0x14, 0x7F, 0x14, 0x7F, 0x14},
	'$': {0x24, 0x2A, 0x7F, 0x2A, 0x12},
	'%': {0x23, 0x13, 0x08, 0x64, 0x62},
	'&': {0x36, 0x49, 0x55, 0x22, 0x50},
	'(': {0x00, 0x1C, 0x22, 0x41, 0x00},
	')': {0x00, 0x41, 0x22, 0x1C, 0x00},
	'*': {0x08, 0x2A, 0x1C, 0x2A, 0x08},
	'+': {0x08, 0x08, 0x3E, 0x08, 0x08},
	',': {0x00, 0x50, 0x30, 0x00, 0x00},
	'-': {0x08, 0x08, 0x08, 0x08, 0x08},
	'.': {0x00, 0x60, 0x60, 0x00, 0x00},
	'/': {0x20, 0x10, 0x08, 0x04, 0x02},
	':': {0x00, 0x36, 0x36, 0x00, 0x00},
	';': {0x00, 0x56, 0x36, 0x00, 0x00},
	'<': {0x00, 0x08, 0x14, 0x22, 0x41},
	'=': {0x14, 0x14, 0x14, 0x14, 0x14},
	'>': {0x41, 0x22, 0x14, 0x08, 0x00},
	'?': {0x02, 0x01, 0x51, 0x09, 0x06},
	'@': {0x32, 0x49, 0x79, 0x41, 0x3E},
	'_': {0x40, 0x40, 0x40, 0x40, 0x40},
	'°': {0x00, 0x06, 0x09, 0x09, 0x06},

	'\'': {0x00, 0x05, 0x03, 0x00, 0x00},

	// drawn for runes the font lacks
	'\ufffd': {0x7F, 0x41, 0x41, 0x41, 0x7F},
}

// newFace5x7 lays the glyphs out in a single alpha mask, one glyph every
// Ascent+Descent rows. Lowercase letters share the uppercase glyphs.
func newFace5x7() *basicfont.Face {
	runes := make([]rune, 0, len(font5x7))
	for r := range font5x7 {
		runes = append(runes, r)
	}
	sort.Slice(runes, func(i, j int) bool { return runes[i] < runes[j] })

	stride := glyphAscent + glyphDescent
	mask := image.NewAlpha(image.Rect(0, 0, glyphWidth, stride*len(runes)))
	ranges := make([]basicfont.Range, 0, len(runes)+1)
	offsetA := 0
	for i, r := range runes {
		cols := font5x7[r]
		for x, col := range cols {
			for y := 0; y < glyphAscent; y++ {
				if col&(1<<y) != 0 {
					mask.Pix[mask.PixOffset(x, i*stride+y)] = 0xff
				}
			}
		}
		if r == 'A' {
			offsetA = i
		}
		ranges = append(ranges, basicfont.Range{Low: r, High: r + 1, Offset: i})
	}
	ranges = append(ranges, basicfont.Range{Low: 'a', High: 'z' + 1, Offset: offsetA})

	return &basicfont.Face{
		Advance: glyphAdvance,
		Width:   glyphWidth,
		Height:  stride,
		Ascent:  glyphAscent,
		Descent: glyphDescent,
		Left:    0,
		Mask:    mask,
		Ranges:  ranges,
	}
}
