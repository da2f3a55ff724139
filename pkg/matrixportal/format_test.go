package matrixportal

import (
	"encoding/json"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrapNicely(t *testing.T) {
	tests := []struct {
		in   string
		max  int
		want []string
	}{
		{"the quick brown fox", 10, []string{"the quick", "brown fox"}},
		{"the quick brown fox", 100, []string{"the quick brown fox"}},
		{"line\nbreaks\r gone", 20, []string{"linebreaks gone"}},
		{"a b c", 1, []string{"a", "b", "c"}},
		{"", 5, []string{""}},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, WrapNicely(tt.in, tt.max), "%q/%d", tt.in, tt.max)
	}
}

func TestParseColor(t *testing.T) {
	tests := []struct {
		in      any
		want    color.RGBA
		wantErr bool
	}{
		{0x808080, color.RGBA{R: 0x80, G: 0x80, B: 0x80, A: 0xff}, false},
		{"#ff8000", color.RGBA{R: 0xff, G: 0x80, A: 0xff}, false},
		{"FF8000", color.RGBA{R: 0xff, G: 0x80, A: 0xff}, false},
		{"0x0000ff", color.RGBA{B: 0xff, A: 0xff}, false},
		{"#f00", color.RGBA{R: 0xff, A: 0xff}, false},
		{"rgb(0,128,255)", color.RGBA{G: 128, B: 255, A: 0xff}, false},
		{float64(0x00ff00), color.RGBA{G: 0xff, A: 0xff}, false},
		{json.Number("255"), color.RGBA{B: 0xff, A: 0xff}, false},
		{json.Number("1.5"), color.RGBA{}, true},
		{color.White, color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}, false},
		{"nope", color.RGBA{}, true},
		{1.5, color.RGBA{}, true},
		{[]int{1}, color.RGBA{}, true},
	}
	for _, tt := range tests {
		got, err := ParseColor(tt.in)
		if tt.wantErr {
			assert.Error(t, err, "%v", tt.in)
			continue
		}
		require.NoError(t, err, "%v", tt.in)
		assert.Equal(t, tt.want, got, "%v", tt.in)
	}
}

func TestFormatValue(t *testing.T) {
	tests := []struct {
		in   any
		want string
	}{
		{1234567.0, "1,234,567"},
		{json.Number("12345678901234567"), "12,345,678,901,234,567"},
		{json.Number("1234567.89"), "1,234,567"},
		{1.08, "1"},
		{-1500, "-1,500"},
		{"42000", "42,000"},
		{"hello", "hello"},
		{true, "true"},
		{nil, ""},
		{map[string]any{"a": 1.0}, `{"a":1}`},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, formatValue(tt.in), "%v", tt.in)
	}
}
