package display

import (
	"bytes"
	"image"
	"image/color"
	"image/draw"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"
	_ "golang.org/x/image/bmp"
	xdraw "golang.org/x/image/draw"
)

// Background is the bottom layer: a solid fill, an image at Pos, or both
type Background struct {
	Fill  color.Color
	Image image.Image
	Pos   image.Point
}

func (b *Background) Draw(dst draw.Image) {
	if b.Fill != nil {
		draw.Draw(dst, dst.Bounds(), image.NewUniform(b.Fill), image.Point{}, draw.Src)
	}
	if b.Image != nil {
		src := b.Image.Bounds()
		r := image.Rectangle{Min: b.Pos, Max: b.Pos.Add(src.Size())}
		draw.Draw(dst, r, b.Image, src.Min, draw.Over)
	}
}

// LoadImage reads a PNG, JPEG, GIF, BMP or SVG file. SVG files are
// rasterised to width x height; other formats keep their own size.
func LoadImage(path string, width, height int) (image.Image, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read image %s", path)
	}
	if strings.EqualFold(filepath.Ext(path), ".svg") {
		return rasterizeSVG(data, width, height)
	}
	return DecodeImage(data)
}

// DecodeImage decodes a PNG, JPEG, GIF or BMP image
func DecodeImage(data []byte) (image.Image, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, errors.Wrap(err, "failed to decode image")
	}
	return img, nil
}

func rasterizeSVG(data []byte, width, height int) (image.Image, error) {
	if width <= 0 || height <= 0 {
		return nil, errors.Errorf("invalid svg target size %dx%d", width, height)
	}
	icon, err := oksvg.ReadIconStream(bytes.NewReader(data))
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse svg")
	}
	icon.SetTarget(0, 0, float64(width), float64(height))

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	scanner := rasterx.NewScannerGV(width, height, img, img.Bounds())
	icon.Draw(rasterx.NewDasher(width, height, scanner), 1)
	return img, nil
}

// Resize scales img to width x height with Catmull-Rom resampling
func Resize(img image.Image, width, height int) image.Image {
	b := img.Bounds()
	if b.Dx() == width && b.Dy() == height {
		return img
	}
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), img, b, xdraw.Src, nil)
	return dst
}
