package display

import (
	"image"
	"image/color"
	"image/draw"
	"math"
	"strings"

	xdraw "golang.org/x/image/draw"
)

// DefaultLineSpacing is the distance between baselines as a multiple of the
// font's line height
const DefaultLineSpacing = 1.25

// Label is a block of text. X is the left edge; Y is the vertical middle of
// the first line. Lines are split on '\n'.
type Label struct {
	Font        *Font
	Text        string
	Color       color.Color
	X, Y        int
	Scale       int
	LineSpacing float64
}

// NewLabel returns a white, unscaled label in font, the built-in font when
// nil
func NewLabel(font *Font, text string) *Label {
	if font == nil {
		font = Builtin()
	}
	return &Label{
		Font:        font,
		Text:        text,
		Color:       color.White,
		Scale:       1,
		LineSpacing: DefaultLineSpacing,
	}
}

// Lines returns the text split into display lines
func (l *Label) Lines() []string {
	return strings.Split(l.Text, "\n")
}

func (l *Label) scale() int {
	if l.Scale < 1 {
		return 1
	}
	return l.Scale
}

func (l *Label) lineStep(height int) int {
	spacing := l.LineSpacing
	if spacing <= 0 {
		spacing = DefaultLineSpacing
	}
	return int(math.Round(float64(height) * spacing))
}

// Width is the widest line in display pixels
func (l *Label) Width() int {
	widest := 0
	for _, line := range l.Lines() {
		if w := l.Font.Measure(line); w > widest {
			widest = w
		}
	}
	return widest * l.scale()
}

// Bounds is the area the label covers on the display
func (l *Label) Bounds() image.Rectangle {
	height, _ := l.Font.Metrics()
	lines := len(l.Lines())
	h := height + (lines-1)*l.lineStep(height)
	s := l.scale()
	top := l.Y - height*s/2
	return image.Rect(l.X, top, l.X+l.Width(), top+h*s)
}

// Draw renders the text at scale 1 and blows it up with nearest neighbour
// sampling to keep the pixels sharp.
func (l *Label) Draw(dst draw.Image) {
	if l.Text == "" || l.Font == nil {
		return
	}
	bounds := l.Bounds()
	if !bounds.Overlaps(dst.Bounds()) {
		return
	}

	s := l.scale()
	height, ascent := l.Font.Metrics()
	step := l.lineStep(height)
	tile := image.NewRGBA(image.Rect(0, 0, bounds.Dx()/s, bounds.Dy()/s))
	src := image.NewUniform(l.textColor())
	for i, line := range l.Lines() {
		l.Font.draw(tile, src, 0, ascent+i*step, line)
	}

	if s == 1 {
		draw.Draw(dst, bounds, tile, image.Point{}, draw.Over)
		return
	}
	xdraw.NearestNeighbor.Scale(dst, bounds, tile, tile.Bounds(), xdraw.Over, nil)
}

func (l *Label) textColor() color.Color {
	if l.Color == nil {
		return color.White
	}
	return l.Color
}
