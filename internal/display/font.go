package display

import (
	"image"
	"image/draw"
	"os"
	"sync"

	"github.com/golang/freetype/truetype"
	"github.com/pkg/errors"
	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"
)

// DefaultGlyphs is the set preloaded when none is given
const DefaultGlyphs = "0123456789abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ-!,. \"'?!"

// Font is a face usable by labels. Faces are not safe for concurrent use, so
// every access goes through the font's lock.
type Font struct {
	name string
	face font.Face
	has  func(r rune) bool

	mu     sync.Mutex
	loaded map[rune]bool
}

var (
	builtinOnce sync.Once
	builtin     *Font
)

// Builtin returns the built-in 5x7 font
func Builtin() *Font {
	builtinOnce.Do(func() {
		face := newFace5x7()
		builtin = &Font{
			name: "5x7",
			face: face,
			has: func(r rune) bool {
				for _, rng := range face.Ranges {
					if rng.Low <= r && r < rng.High {
						return r != '\ufffd'
					}
				}
				return false
			},
			loaded: map[rune]bool{},
		}
	})
	return builtin
}

// LoadFont parses a TrueType font file and returns a face of the given size
// in pixels.
func LoadFont(path string, size float64) (*Font, error) {
	if size <= 0 {
		return nil, errors.Errorf("font size must be positive, got %v", size)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read font %s", path)
	}
	ttf, err := truetype.Parse(data)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to parse font %s", path)
	}
	face := truetype.NewFace(ttf, &truetype.Options{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	return &Font{
		name:   path,
		face:   face,
		has:    func(r rune) bool { return ttf.Index(r) != 0 },
		loaded: map[rune]bool{},
	}, nil
}

// Name returns the font name or file it was loaded from
func (f *Font) Name() string { return f.name }

// Preload renders each glyph once so later drawing hits the face's cache.
// It returns the runes the font has no glyph for.
func (f *Font) Preload(glyphs string) []rune {
	if glyphs == "" {
		glyphs = DefaultGlyphs
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	var missing []rune
	for _, r := range glyphs {
		if f.loaded[r] {
			continue
		}
		if !f.has(r) {
			missing = append(missing, r)
			continue
		}
		f.face.Glyph(fixed.Point26_6{}, r)
		f.loaded[r] = true
	}
	return missing
}

// Metrics returns the line height and ascent in pixels
func (f *Font) Metrics() (height, ascent int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	m := f.face.Metrics()
	return m.Height.Ceil(), m.Ascent.Ceil()
}

// Measure returns the advance width of s in pixels
func (f *Font) Measure(s string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return font.MeasureString(f.face, s).Ceil()
}

func (f *Font) draw(dst draw.Image, src image.Image, x, baseline int, s string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	d := font.Drawer{
		Dst:  dst,
		Src:  src,
		Face: f.face,
		Dot:  fixed.P(x, baseline),
	}
	d.DrawString(s)
}
