package matrixportal

import (
	"context"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"

	"github.com/fkcurrie/matrixportal-golang/internal/display"
	"github.com/fkcurrie/matrixportal-golang/internal/network"
)

// ImageSettings makes Fetch also load a background image, from a URL found
// in the reply (JSONPath) or from a fixed URL.
type ImageSettings struct {
	JSONPath network.Path
	URL      string
	// Resize is the box the image is scaled into, the display size when
	// zero. Portrait images keep their aspect ratio and are centred.
	Resize image.Point
	// Position of the top left corner of the resize box
	Position image.Point
	// CacheFile holds the downloaded image
	CacheFile string
}

func (s ImageSettings) enabled() bool {
	return !s.JSONPath.IsZero() || s.URL != ""
}

// SetImageSettings configures the background image loaded by Fetch
func (p *MatrixPortal) SetImageSettings(s ImageSettings) {
	if s.Resize == (image.Point{}) {
		s.Resize = image.Pt(p.Graphics.Width(), p.Graphics.Height())
	}
	if s.CacheFile == "" {
		s.CacheFile = filepath.Join(os.TempDir(), "matrixportal-cache.img")
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.image = s
}

// Fetch gets data from the URL, from refreshURL when set (which then
// replaces the URL), and fills every text field with the fetched values in
// order. It returns the values.
func (p *MatrixPortal) Fetch(ctx context.Context, refreshURL string) ([]any, error) {
	p.mu.Lock()
	if refreshURL != "" {
		p.url = refreshURL
	}
	url := p.url
	img := p.image
	opts := network.FetchOptions{
		Headers:     p.headers,
		JSONPaths:   p.jsonPaths,
		RegexpPaths: p.regexps,
	}
	p.mu.Unlock()
	if url == "" {
		return nil, errors.New("no url to fetch")
	}

	var doc any
	if img.enabled() {
		opts.DecodeJSON = !img.JSONPath.IsZero()
		opts.Inspect = func(d any) { doc = d }
	}

	values, err := p.Network.FetchData(ctx, url, opts)
	if err != nil {
		return nil, err
	}

	if img.enabled() {
		if err := p.fetchBackground(ctx, img, doc); err != nil {
			return nil, err
		}
	}

	if err := p.fillTexts(values); err != nil {
		return nil, err
	}
	return values, nil
}

func (p *MatrixPortal) fillTexts(values []any) error {
	p.mu.Lock()
	fields := append([]*textField(nil), p.texts...)
	p.mu.Unlock()

	for i, field := range fields {
		if i >= len(values) {
			break
		}
		var text string
		if field.transform != nil {
			text = field.transform(values[i])
		} else {
			text = formatValue(values[i])
		}
		p.log.Debug("drawing text", "index", i, "text", text)
		if field.wrap > 0 {
			text = strings.Join(WrapNicely(text, field.wrap), "\n")
		}
		if err := p.SetText(text, i); err != nil {
			return err
		}
	}
	return nil
}

// fetchBackground downloads the background image and scales it into the
// resize box. A JSON path that finds nothing, or an image that cannot be
// decoded, restores the default background.
func (p *MatrixPortal) fetchBackground(ctx context.Context, s ImageSettings, doc any) error {
	imageURL := s.URL
	if !s.JSONPath.IsZero() {
		v, err := s.JSONPath.Traverse(doc)
		if err != nil {
			p.log.Warn("error finding image data", "path", s.JSONPath.String(), "error", err)
			return p.Graphics.SetBackground(p.Graphics.DefaultBackground(), image.Point{})
		}
		imageURL = fmt.Sprint(v)
	}
	if imageURL == "" {
		return nil
	}

	p.log.Info("fetching background image", "url", imageURL)
	if err := p.Network.Wget(ctx, imageURL, s.CacheFile, 4096); err != nil {
		return errors.Wrap(err, "failed to download background image")
	}
	data, err := os.ReadFile(s.CacheFile)
	if err != nil {
		return errors.Wrap(err, "failed to read background image")
	}
	src, err := display.DecodeImage(data)
	if err != nil {
		p.log.Warn("error displaying cached image", "file", s.CacheFile, "error", err)
		return p.Graphics.SetBackground(p.Graphics.DefaultBackground(), image.Point{})
	}

	size, pos := fitBox(src.Bounds().Size(), s.Resize, s.Position)
	return p.Graphics.SetBackground(display.Resize(src, size.X, size.Y), pos)
}

// fitBox returns the size and position of an image scaled into a box.
// Portrait images are scaled to the box height and centred horizontally.
func fitBox(img, box, pos image.Point) (image.Point, image.Point) {
	if img.X >= img.Y || img.Y == 0 {
		return box, pos
	}
	w := box.Y * img.X / img.Y
	if w < 1 {
		w = 1
	}
	return image.Pt(w, box.Y), image.Pt(pos.X+(box.X-w)/2, pos.Y)
}
