package matrixportal

import (
	"encoding/json"
	"fmt"
	"image/color"
	"math"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"gopkg.in/go-playground/colors.v1"

	"github.com/fkcurrie/matrixportal-golang/internal/display"
)

var printer = message.NewPrinter(language.English)

// ParseColor converts an HTML color ("#ff8000", "ff8000", "0xff8000",
// "#f80", "rgb(255,128,0)", "rgba(...)"), a 0xRRGGBB integer (Go or JSON
// number) or a color.Color to an opaque RGBA color.
func ParseColor(v any) (color.RGBA, error) {
	switch c := v.(type) {
	case color.RGBA:
		return c, nil
	case color.Color:
		return color.RGBAModel.Convert(c).(color.RGBA), nil
	case int:
		return display.Hex(uint32(c)), nil
	case int64:
		return display.Hex(uint32(c)), nil
	case uint32:
		return display.Hex(c), nil
	case json.Number:
		n, err := c.Int64()
		if err != nil || n < 0 {
			return color.RGBA{}, errors.Errorf("invalid color %v", c)
		}
		return display.Hex(uint32(n)), nil
	case float64:
		// JSON and YAML numbers
		if c != math.Trunc(c) || c < 0 {
			return color.RGBA{}, errors.Errorf("invalid color %v", c)
		}
		return display.Hex(uint32(c)), nil
	case string:
		return parseColorString(c)
	default:
		return color.RGBA{}, errors.Errorf("unsupported color type %T", v)
	}
}

func parseColorString(s string) (color.RGBA, error) {
	s = strings.TrimSpace(s)
	lower := strings.ToLower(s)
	switch {
	case strings.HasPrefix(lower, "0x"):
		n, err := strconv.ParseUint(s[2:], 16, 32)
		if err != nil {
			return color.RGBA{}, errors.Wrapf(err, "invalid color %q", s)
		}
		return display.Hex(uint32(n)), nil
	case strings.HasPrefix(lower, "rgb"), strings.HasPrefix(lower, "#"):
	default:
		s = "#" + s
	}

	c, err := colors.Parse(s)
	if err != nil {
		return color.RGBA{}, errors.Wrapf(err, "invalid color %q", s)
	}
	rgba := c.ToRGBA()
	return color.RGBA{R: rgba.R, G: rgba.G, B: rgba.B, A: 0xff}, nil
}

// WrapNicely breaks s into lines of at most maxChars characters at spaces.
// Words longer than maxChars get a line of their own.
func WrapNicely(s string, maxChars int) []string {
	s = strings.NewReplacer("\n", "", "\r", "").Replace(s)
	var lines []string
	line := ""
	for _, w := range strings.Split(s, " ") {
		if len([]rune(line+" "+w)) <= maxChars {
			line += " " + w
			continue
		}
		lines = append(lines, line)
		line = w
	}
	if line != "" {
		lines = append(lines, line)
	}
	if len(lines) == 0 {
		return []string{""}
	}
	lines[0] = strings.TrimPrefix(lines[0], " ")
	return lines
}

// formatValue renders a fetched value as text. Numbers and numeric strings
// become integers with thousands separators, anything else its text.
func formatValue(v any) string {
	if n, ok := asInt(v); ok {
		return printer.Sprintf("%d", n)
	}
	switch x := v.(type) {
	case string:
		return x
	case nil:
		return ""
	case map[string]any, []any:
		b, err := json.Marshal(x)
		if err != nil {
			return fmt.Sprint(x)
		}
		return string(b)
	default:
		return fmt.Sprint(x)
	}
}

// asInt truncates numbers toward zero and parses integer strings
func asInt(v any) (int64, bool) {
	switch x := v.(type) {
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return 0, false
		}
		return int64(x), true
	case int:
		return int64(x), true
	case int64:
		return x, true
	case json.Number:
		if n, err := x.Int64(); err == nil {
			return n, true
		}
		f, err := x.Float64()
		return int64(f), err == nil
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(x), 10, 64)
		return n, err == nil
	default:
		return 0, false
	}
}
