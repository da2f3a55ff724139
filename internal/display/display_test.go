package display

import (
	"context"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fkcurrie/matrixportal-golang/pkg/ledmatrix"
)

var red = color.RGBA{R: 255, A: 255}

func TestBuiltinFont(t *testing.T) {
	f := Builtin()
	assert.Same(t, f, Builtin())

	height, ascent := f.Metrics()
	assert.Equal(t, 8, height)
	assert.Equal(t, 7, ascent)
	assert.Equal(t, 12, f.Measure("AB"))
	assert.Equal(t, f.Measure("abc"), f.Measure("ABC"))

	assert.Empty(t, f.Preload(""))
	assert.Equal(t, []rune{'~', '{'}, f.Preload("Ab~0{"))
}

func TestLoadFontErrors(t *testing.T) {
	_, err := LoadFont(filepath.Join(t.TempDir(), "missing.ttf"), 12)
	assert.Error(t, err)

	bad := filepath.Join(t.TempDir(), "bad.ttf")
	require.NoError(t, os.WriteFile(bad, []byte("not a font"), 0o644))
	_, err = LoadFont(bad, 12)
	assert.Error(t, err)

	_, err = LoadFont(bad, 0)
	assert.Error(t, err)
}

func TestLabelGeometry(t *testing.T) {
	l := NewLabel(nil, "HI\nHELLO")
	l.X, l.Y, l.Scale = 3, 10, 2

	assert.Equal(t, []string{"HI", "HELLO"}, l.Lines())
	assert.Equal(t, 60, l.Width())
	// two lines of 8 rows, baselines 10 rows apart, doubled
	assert.Equal(t, image.Rect(3, 2, 63, 38), l.Bounds())
}

func TestLabelDraw(t *testing.T) {
	dst := image.NewRGBA(image.Rect(0, 0, 10, 10))
	l := NewLabel(nil, "I")
	l.Color = red
	l.Y = 4
	l.Draw(dst)

	for y := 0; y < 7; y++ {
		assert.Equal(t, red, dst.RGBAAt(2, y), "stem row %d", y)
	}
	assert.Equal(t, red, dst.RGBAAt(1, 0))
	assert.Equal(t, color.RGBA{}, dst.RGBAAt(1, 3))
	assert.Equal(t, color.RGBA{}, dst.RGBAAt(2, 7))
}

func TestLabelDrawScaled(t *testing.T) {
	dst := image.NewRGBA(image.Rect(0, 0, 20, 20))
	l := NewLabel(nil, "I")
	l.Color = red
	l.Scale = 2
	l.Y = 8
	l.Draw(dst)

	assert.Equal(t, red, dst.RGBAAt(4, 0))
	assert.Equal(t, red, dst.RGBAAt(5, 13))
	assert.Equal(t, color.RGBA{}, dst.RGBAAt(6, 6))
}

func TestLabelOffscreen(t *testing.T) {
	dst := image.NewRGBA(image.Rect(0, 0, 10, 10))
	l := NewLabel(nil, "HELLO")
	l.X = -100
	l.Draw(dst)
	assert.Equal(t, make([]uint8, len(dst.Pix)), dst.Pix)
}

type dot struct{ name string }

func (dot) Draw(dst draw.Image) {}

func TestGroup(t *testing.T) {
	a, b, c := &dot{"a"}, &dot{"b"}, &dot{"c"}
	g := NewGroup(a)
	g.Append(c)
	require.NoError(t, g.Insert(1, b))
	assert.Equal(t, 3, g.Len())
	assert.Equal(t, 1, g.Index(b))
	assert.Equal(t, -1, g.Index(&dot{"b"}))

	require.NoError(t, g.Set(1, c))
	assert.Equal(t, Layer(c), g.At(1))
	require.NoError(t, g.Remove(0))
	assert.Equal(t, 2, g.Len())

	assert.Error(t, g.Remove(5))
	assert.Error(t, g.Set(-1, a))
	assert.Error(t, g.Insert(4, a))
}

func newGraphics(t *testing.T, bg any) (*Graphics, *ledmatrix.Framebuffer) {
	t.Helper()
	fb, err := ledmatrix.NewFramebuffer(16, 8)
	require.NoError(t, err)
	g, err := NewGraphics(fb, bg, nil)
	require.NoError(t, err)
	return g, fb
}

func TestGraphicsBackground(t *testing.T) {
	g, fb := newGraphics(t, 0x0000ff)
	require.NoError(t, g.Refresh())
	assert.Equal(t, color.RGBA{B: 255, A: 255}, fb.Frame().RGBAAt(5, 5))

	require.NoError(t, g.SetBackground(red, image.Point{}))
	require.NoError(t, g.Refresh())
	assert.Equal(t, red, fb.Frame().RGBAAt(0, 0))
	g.Update(func(root *Group) { assert.Equal(t, 1, root.Len()) })

	require.NoError(t, g.SetBackground(nil, image.Point{}))
	require.NoError(t, g.Refresh())
	assert.Equal(t, color.RGBA{A: 255}, fb.Frame().RGBAAt(0, 0))
	g.Update(func(root *Group) { assert.Zero(t, root.Len()) })

	err := g.SetBackground(3.5, image.Point{})
	assert.ErrorIs(t, err, ErrUnknownBackground)
}

func TestGraphicsImageBackground(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bg.png")
	src := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for i := range src.Pix {
		src.Pix[i] = 0xff
	}
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, src))
	require.NoError(t, f.Close())

	g, fb := newGraphics(t, nil)
	require.NoError(t, g.SetBackground(path, image.Pt(2, 1)))
	require.NoError(t, g.Refresh())

	frame := fb.Frame()
	assert.Equal(t, color.RGBA{R: 255, G: 255, B: 255, A: 255}, frame.RGBAAt(2, 1))
	assert.Equal(t, color.RGBA{R: 255, G: 255, B: 255, A: 255}, frame.RGBAAt(5, 4))
	assert.Equal(t, color.RGBA{A: 255}, frame.RGBAAt(6, 5))

	assert.Error(t, g.SetBackground(filepath.Join(dir, "missing.png"), image.Point{}))
}

func TestSVGBackground(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bg.svg")
	svg := `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 10 10" width="10" height="10">` +
		`<rect x="0" y="0" width="10" height="10" fill="#ff0000"/></svg>`
	require.NoError(t, os.WriteFile(path, []byte(svg), 0o644))

	img, err := LoadImage(path, 8, 8)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 8, 8), img.Bounds())
	r, g, b, _ := img.At(4, 4).RGBA()
	assert.Greater(t, r, uint32(0xf000))
	assert.Zero(t, g)
	assert.Zero(t, b)
}

func TestResize(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 32, 16))
	out := Resize(src, 8, 4)
	assert.Equal(t, image.Rect(0, 0, 8, 4), out.Bounds())
	assert.Same(t, src, Resize(src, 32, 16))
}

func TestGraphicsLabel(t *testing.T) {
	g, fb := newGraphics(t, nil)
	l := NewLabel(nil, "I")
	l.Color = red
	l.Y = 4
	g.Update(func(root *Group) { root.Append(l) })
	require.NoError(t, g.Refresh())
	assert.Equal(t, red, fb.Frame().RGBAAt(2, 3))
}

func TestRenderer(t *testing.T) {
	g, fb := newGraphics(t, 0xff0000)
	r := NewRenderer(g, time.Millisecond, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, r.Start(ctx), context.DeadlineExceeded)
	assert.Equal(t, red, fb.Frame().RGBAAt(0, 0))
}
