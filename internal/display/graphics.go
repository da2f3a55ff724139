// Package display composites backgrounds and text labels and pushes the
// result to an LED matrix.
package display

import (
	"image"
	"image/color"
	"image/draw"
	"log/slog"
	"sync"

	"github.com/pkg/errors"

	"github.com/fkcurrie/matrixportal-golang/internal/types"
)

// ErrUnknownBackground is returned for backgrounds that are neither a file
// path nor a color
var ErrUnknownBackground = errors.New("unknown background type")

// Graphics owns the matrix and the layers shown on it. The root group holds
// the background layer first, then the overlay.
type Graphics struct {
	matrix types.Matrix
	width  int
	height int
	log    *slog.Logger

	mu        sync.Mutex
	root      *Group
	bg        *Background
	defaultBG any
}

// NewGraphics wraps m and shows defaultBG (see SetBackground), black when
// nil.
func NewGraphics(m types.Matrix, defaultBG any, log *slog.Logger) (*Graphics, error) {
	if log == nil {
		log = slog.Default()
	}
	if defaultBG == nil {
		defaultBG = 0x000000
	}
	w, h := m.GetDimensions()
	g := &Graphics{
		matrix:    m,
		width:     w,
		height:    h,
		log:       log,
		root:      NewGroup(),
		defaultBG: defaultBG,
	}
	if err := g.SetBackground(defaultBG, image.Point{}); err != nil {
		return nil, err
	}
	return g, nil
}

func (g *Graphics) Width() int  { return g.width }
func (g *Graphics) Height() int { return g.height }

func (g *Graphics) Matrix() types.Matrix { return g.matrix }

// DefaultBackground is the background given to NewGraphics
func (g *Graphics) DefaultBackground() any { return g.defaultBG }

// Update runs fn with exclusive access to the root group
func (g *Graphics) Update(fn func(root *Group)) {
	g.mu.Lock()
	defer g.mu.Unlock()
	fn(g.root)
}

// SetBackground sets the bottom layer. fileOrColor may be a path to an image
// file, a color.Color, or a 0xRRGGBB integer; nil or "" removes the
// background.
func (g *Graphics) SetBackground(fileOrColor any, pos image.Point) error {
	var bg *Background
	switch v := fileOrColor.(type) {
	case nil:
	case string:
		if v != "" {
			img, err := LoadImage(v, g.width, g.height)
			if err != nil {
				return err
			}
			bg = &Background{Image: img, Pos: pos}
		}
	case image.Image:
		bg = &Background{Image: v, Pos: pos}
	case color.Color:
		bg = &Background{Fill: v}
	case int:
		bg = &Background{Fill: Hex(uint32(v))}
	case int64:
		bg = &Background{Fill: Hex(uint32(v))}
	case uint32:
		bg = &Background{Fill: Hex(v)}
	default:
		return errors.Wrapf(ErrUnknownBackground, "%T", fileOrColor)
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if g.bg != nil {
		if i := g.root.Index(g.bg); i >= 0 {
			g.root.Remove(i)
		}
	}
	g.bg = bg
	if bg != nil {
		g.root.Insert(0, bg)
	}
	g.log.Debug("background set", "background", describe(fileOrColor))
	return nil
}

func describe(v any) any {
	if _, ok := v.(image.Image); ok {
		return "image"
	}
	return v
}

// Hex converts 0xRRGGBB to an opaque color
func Hex(v uint32) color.RGBA {
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xff}
}

// Render composites every layer onto a black display-sized canvas
func (g *Graphics) Render() *image.RGBA {
	canvas := image.NewRGBA(image.Rect(0, 0, g.width, g.height))
	draw.Draw(canvas, canvas.Bounds(), image.Black, image.Point{}, draw.Src)
	g.mu.Lock()
	g.root.Draw(canvas)
	g.mu.Unlock()
	return canvas
}

// Refresh renders the layers and shows them on the matrix
func (g *Graphics) Refresh() error {
	canvas := g.Render()
	if fb, ok := g.matrix.(interface{ SetImage(image.Image) error }); ok {
		if err := fb.SetImage(canvas); err != nil {
			return err
		}
		return g.matrix.Show()
	}
	for y := 0; y < g.height; y++ {
		for x := 0; x < g.width; x++ {
			if err := g.matrix.SetPixel(x, y, canvas.RGBAAt(x, y)); err != nil {
				return err
			}
		}
	}
	return g.matrix.Show()
}
