package matrixportal

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/pkg/errors"

	"github.com/fkcurrie/matrixportal-golang/internal/display"
)

// DefaultTextColor is used when TextOptions.Color is unset
const DefaultTextColor = 0x808080

// TextOptions describes a text field
type TextOptions struct {
	// Position of the label, x and the vertical middle of the first line.
	// Nil places it at the left edge, half way down. Scrolling fields always
	// start at the right edge of the display and only use the y.
	Position *image.Point
	// Font is a TrueType file; empty selects the built-in 5x7 font
	Font     string
	FontSize float64
	// Color is anything ParseColor accepts
	Color any
	// Wrap breaks fetched text into lines of at most Wrap characters
	Wrap int
	// MaxLen truncates text, 0 for no limit
	MaxLen int
	// Transform turns a fetched value into the text shown
	Transform func(v any) string
	// Scale is rounded to an integer, at least 1
	Scale float64
	// Scrolling fields are drawn off screen and moved by Scroll
	Scrolling   bool
	LineSpacing float64
}

type textField struct {
	font        *display.Font
	color       color.RGBA
	pos         image.Point
	wrap        int
	maxLen      int
	transform   func(any) string
	scale       int
	scrolling   bool
	lineSpacing float64
	label       *display.Label
}

// Pt is shorthand for a text position
func Pt(x, y int) *image.Point {
	p := image.Pt(x, y)
	return &p
}

// AddText adds a text field and returns its index. Nothing is drawn until
// SetText or Fetch gives it text.
func (p *MatrixPortal) AddText(opts TextOptions) (int, error) {
	font := display.Builtin()
	if opts.Font != "" {
		size := opts.FontSize
		if size <= 0 {
			size = 12
		}
		var err error
		if font, err = display.LoadFont(opts.Font, size); err != nil {
			return -1, err
		}
	}

	var c any = DefaultTextColor
	if opts.Color != nil {
		c = opts.Color
	}
	rgba, err := ParseColor(c)
	if err != nil {
		return -1, err
	}

	scale := int(math.Round(opts.Scale))
	if scale < 1 {
		scale = 1
	}
	spacing := opts.LineSpacing
	if spacing <= 0 {
		spacing = display.DefaultLineSpacing
	}

	w, h := p.Graphics.Width(), p.Graphics.Height()
	var pos image.Point
	switch {
	case opts.Scrolling && opts.Position == nil:
		pos = image.Pt(w, h/2-1)
	case opts.Scrolling:
		pos = image.Pt(w, opts.Position.Y)
	case opts.Position == nil:
		pos = image.Pt(0, h/2)
	default:
		pos = *opts.Position
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.texts = append(p.texts, &textField{
		font:        font,
		color:       rgba,
		pos:         pos,
		wrap:        opts.Wrap,
		maxLen:      opts.MaxLen,
		transform:   opts.Transform,
		scale:       scale,
		scrolling:   opts.Scrolling,
		lineSpacing: spacing,
	})
	index := len(p.texts) - 1
	p.log.Debug("text field added", "index", index, "font", font.Name(), "scrolling", opts.Scrolling)
	if opts.Scrolling && p.scrolling < 0 {
		p.scrolling = p.nextScrollable()
	}
	return index, nil
}

// TextCount returns the number of text fields
func (p *MatrixPortal) TextCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.texts)
}

// SetText shows val in the text field at index. A default field is added if
// there are none. Empty text removes the label from the display.
func (p *MatrixPortal) SetText(val any, index int) error {
	if p.TextCount() == 0 {
		if _, err := p.AddText(TextOptions{}); err != nil {
			return err
		}
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if index < 0 || index >= len(p.texts) {
		return errors.Wrapf(ErrIndexOutOfRange, "index %d", index)
	}
	field := p.texts[index]

	text := fmt.Sprint(val)
	if field.maxLen > 0 {
		if r := []rune(text); len(r) > field.maxLen {
			text = string(r[:field.maxLen])
		}
	}

	p.Graphics.Update(func(root *display.Group) {
		at := -1
		if field.label != nil {
			at = root.Index(field.label)
			p.log.Debug("replacing text area", "index", index, "text", text)
		} else {
			p.log.Debug("creating text area", "index", index, "text", text)
		}

		if text == "" {
			if at >= 0 {
				root.Remove(at)
			}
			field.label = nil
			return
		}

		label := display.NewLabel(field.font, text)
		label.Color = field.color
		label.X, label.Y = field.pos.X, field.pos.Y
		label.Scale = field.scale
		label.LineSpacing = field.lineSpacing
		field.label = label
		if at >= 0 {
			root.Set(at, label)
		} else {
			root.Append(label)
		}
	})
	return nil
}

// Text returns the text shown by the field at index
func (p *MatrixPortal) Text(index int) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if index < 0 || index >= len(p.texts) {
		return "", errors.Wrapf(ErrIndexOutOfRange, "index %d", index)
	}
	var text string
	p.Graphics.Update(func(*display.Group) {
		if l := p.texts[index].label; l != nil {
			text = l.Text
		}
	})
	return text, nil
}

// SetTextColor changes the color of the text field at index
func (p *MatrixPortal) SetTextColor(c any, index int) error {
	rgba, err := ParseColor(c)
	if err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if index < 0 || index >= len(p.texts) {
		return errors.Wrapf(ErrIndexOutOfRange, "index %d", index)
	}
	field := p.texts[index]
	field.color = rgba
	p.Graphics.Update(func(*display.Group) {
		if field.label != nil {
			field.label.Color = rgba
		}
	})
	return nil
}

// PreloadFont warms the glyph cache of the font used by the field at index
// and returns the glyphs the font lacks. Empty glyphs loads
// display.DefaultGlyphs.
func (p *MatrixPortal) PreloadFont(glyphs string, index int) ([]rune, error) {
	p.mu.Lock()
	if index < 0 || index >= len(p.texts) {
		p.mu.Unlock()
		return nil, errors.Wrapf(ErrIndexOutOfRange, "index %d", index)
	}
	font := p.texts[index].font
	p.mu.Unlock()

	if glyphs == "" {
		glyphs = display.DefaultGlyphs
	}
	p.log.Info("preloading font glyphs", "font", font.Name(), "glyphs", glyphs)
	missing := font.Preload(glyphs)
	if len(missing) > 0 {
		p.log.Debug("font has no glyphs for some runes", "runes", string(missing))
	}
	return missing, nil
}
