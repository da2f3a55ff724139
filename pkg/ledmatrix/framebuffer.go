package ledmatrix

import (
	"image"
	"image/color"
	"sync"

	"github.com/aykevl/ledsgo"
	"github.com/pkg/errors"
)

// ErrOutOfBounds is returned for pixel coordinates outside the matrix.
var ErrOutOfBounds = errors.New("coordinates out of bounds")

// Framebuffer is an in-memory matrix. It backs headless runs and tests, and
// is what the HUB75 driver scans out of.
type Framebuffer struct {
	width      int
	height     int
	brightness int
	buffer     []color.RGBA
	shown      []color.RGBA
	mu         sync.RWMutex
}

// NewFramebuffer creates a framebuffer of the given size at full brightness.
func NewFramebuffer(width, height int) (*Framebuffer, error) {
	if width <= 0 || height <= 0 {
		return nil, errors.Errorf("invalid dimensions: %dx%d", width, height)
	}
	return &Framebuffer{
		width:      width,
		height:     height,
		brightness: 255,
		buffer:     make([]color.RGBA, width*height),
		shown:      make([]color.RGBA, width*height),
	}, nil
}

// Close releases the framebuffer
func (f *Framebuffer) Close() error {
	return nil
}

// Clear clears all pixels and shows the result
func (f *Framebuffer) Clear() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	for i := range f.buffer {
		f.buffer[i] = color.RGBA{A: 255}
	}
	f.show()
	return nil
}

// SetPixel sets a pixel at the given coordinates to the given color
func (f *Framebuffer) SetPixel(x, y int, c color.Color) error {
	if x < 0 || x >= f.width || y < 0 || y >= f.height {
		return errors.Wrapf(ErrOutOfBounds, "(%d, %d)", x, y)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	f.buffer[y*f.width+x] = color.RGBAModel.Convert(c).(color.RGBA)
	return nil
}

// GetPixelColor gets the color of a pixel in the drawing buffer
func (f *Framebuffer) GetPixelColor(x, y int) (r, g, b uint8, err error) {
	if x < 0 || x >= f.width || y < 0 || y >= f.height {
		return 0, 0, 0, errors.Wrapf(ErrOutOfBounds, "(%d, %d)", x, y)
	}

	f.mu.RLock()
	defer f.mu.RUnlock()

	c := f.buffer[y*f.width+x]
	return c.R, c.G, c.B, nil
}

// SetPixelHSV sets a pixel from a hue in degrees and saturation/value in 0..1.
func (f *Framebuffer) SetPixelHSV(x, y int, h, s, v float64) error {
	return f.SetPixel(x, y, hsvToRGB(h, s, v))
}

func hsvToRGB(h, s, v float64) color.RGBA {
	for h < 0 {
		h += 360
	}
	for h >= 360 {
		h -= 360
	}
	c := ledsgo.Color{
		H: uint16(h / 360 * 65536),
		S: uint8(clamp01(s) * 255),
		V: uint8(clamp01(v) * 255),
	}
	return c.Spectrum()
}

func clamp01(f float64) float64 {
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}

// Fill fills the drawing buffer with a color
func (f *Framebuffer) Fill(c color.Color) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	rgba := color.RGBAModel.Convert(c).(color.RGBA)
	for i := range f.buffer {
		f.buffer[i] = rgba
	}
	return nil
}

// Scroll shifts the drawing buffer by dx, dy pixels, wrapping around the edges
func (f *Framebuffer) Scroll(dx, dy int) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	next := make([]color.RGBA, len(f.buffer))
	for y := 0; y < f.height; y++ {
		for x := 0; x < f.width; x++ {
			srcX := ((x+dx)%f.width + f.width) % f.width
			srcY := ((y+dy)%f.height + f.height) % f.height
			next[y*f.width+x] = f.buffer[srcY*f.width+srcX]
		}
	}
	f.buffer = next
	return nil
}

// SetImage copies an image of exactly the matrix size into the drawing buffer
func (f *Framebuffer) SetImage(img image.Image) error {
	bounds := img.Bounds()
	if bounds.Dx() != f.width || bounds.Dy() != f.height {
		return errors.Errorf("image dimensions (%dx%d) do not match matrix dimensions (%dx%d)",
			bounds.Dx(), bounds.Dy(), f.width, f.height)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	for y := 0; y < f.height; y++ {
		for x := 0; x < f.width; x++ {
			c := img.At(bounds.Min.X+x, bounds.Min.Y+y)
			f.buffer[y*f.width+x] = color.RGBAModel.Convert(c).(color.RGBA)
		}
	}
	return nil
}

// Show publishes the drawing buffer, scaled by the current brightness
func (f *Framebuffer) Show() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.show()
	return nil
}

// show assumes the mutex is held
func (f *Framebuffer) show() {
	shown := make([]color.RGBA, len(f.buffer))
	for i, c := range f.buffer {
		shown[i] = scale(c, f.brightness)
	}
	f.shown = shown
}

func scale(c color.RGBA, brightness int) color.RGBA {
	if brightness >= 255 {
		return c
	}
	return color.RGBA{
		R: uint8(int(c.R) * brightness / 255),
		G: uint8(int(c.G) * brightness / 255),
		B: uint8(int(c.B) * brightness / 255),
		A: 255,
	}
}

// Frame returns a copy of the last shown frame
func (f *Framebuffer) Frame() *image.RGBA {
	f.mu.RLock()
	defer f.mu.RUnlock()

	img := image.NewRGBA(image.Rect(0, 0, f.width, f.height))
	for i, c := range f.shown {
		img.SetRGBA(i%f.width, i/f.width, c)
	}
	return img
}

// shownPixels returns the published frame without copying. Callers must not
// modify it.
func (f *Framebuffer) shownPixels() []color.RGBA {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.shown
}

// SetBrightness sets the brightness applied on Show
func (f *Framebuffer) SetBrightness(brightness int) error {
	if brightness < 0 || brightness > 255 {
		return errors.New("brightness must be between 0 and 255")
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	f.brightness = brightness
	return nil
}

// GetBrightness returns the current brightness
func (f *Framebuffer) GetBrightness() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.brightness
}

// GetDimensions returns the dimensions of the framebuffer
func (f *Framebuffer) GetDimensions() (width, height int) {
	return f.width, f.height
}
