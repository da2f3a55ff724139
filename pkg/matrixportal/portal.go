// Package matrixportal bundles an LED matrix, a network data fetcher and a
// text/graphics overlay behind a single helper: fetch a value from a JSON
// API, show it as text, scroll messages across the panel.
package matrixportal

import (
	"image"
	"log/slog"
	"regexp"
	"sync"

	"github.com/pkg/errors"

	"github.com/fkcurrie/matrixportal-golang/internal/display"
	"github.com/fkcurrie/matrixportal-golang/internal/network"
	"github.com/fkcurrie/matrixportal-golang/internal/status"
	"github.com/fkcurrie/matrixportal-golang/internal/types"
	"github.com/fkcurrie/matrixportal-golang/pkg/ledmatrix"
)

var (
	ErrIndexOutOfRange = errors.New("text index out of range: call AddText and SetText first")
	ErrNoScrollText    = errors.New("the scrolling label has no text")
	ErrNotScrolling    = errors.New("text field does not scroll")
)

type options struct {
	matrix     types.Matrix
	width      int
	height     int
	url        string
	headers    map[string]string
	jsonPaths  network.Paths
	regexps    []string
	defaultBG  any
	network    network.Config
	transforms []network.JSONTransform
	logger     *slog.Logger
}

// Option configures New
type Option func(*options)

// WithMatrix draws on m instead of an in-memory framebuffer
func WithMatrix(m types.Matrix) Option {
	return func(o *options) { o.matrix = m }
}

// WithSize sets the size of the default framebuffer matrix
func WithSize(width, height int) Option {
	return func(o *options) { o.width, o.height = width, height }
}

// WithURL sets the data source used by Fetch
func WithURL(url string) Option {
	return func(o *options) { o.url = url }
}

// WithHeaders sets extra request headers
func WithHeaders(headers map[string]string) Option {
	return func(o *options) { o.headers = headers }
}

// WithJSONPath sets the paths of the values Fetch extracts, one per text
// field
func WithJSONPath(paths ...network.Path) Option {
	return func(o *options) { o.jsonPaths = paths }
}

// WithRegexpPath extracts values from text replies with regular expressions,
// using the first capture group of each
func WithRegexpPath(exprs ...string) Option {
	return func(o *options) { o.regexps = exprs }
}

// WithDefaultBackground sets the background shown at start and when an
// image background cannot be found; see display.Graphics.SetBackground.
func WithDefaultBackground(fileOrColor any) Option {
	return func(o *options) { o.defaultBG = fileOrColor }
}

// WithNetwork configures the data fetcher
func WithNetwork(cfg network.Config) Option {
	return func(o *options) { o.network = cfg }
}

// WithStatus shows connection progress on ind
func WithStatus(ind status.Indicator) Option {
	return func(o *options) { o.network.Status = ind }
}

// WithJSONTransform adds functions that rewrite the decoded reply before
// the paths are applied
func WithJSONTransform(fns ...network.JSONTransform) Option {
	return func(o *options) { o.transforms = append(o.transforms, fns...) }
}

// WithLogger sets the logger; the slog default is used otherwise
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// MatrixPortal is the helper. It is safe for concurrent use: a renderer may
// refresh the display while another goroutine fetches and scrolls.
type MatrixPortal struct {
	Graphics *display.Graphics
	Network  *network.Network

	log *slog.Logger

	mu        sync.Mutex
	url       string
	headers   map[string]string
	jsonPaths network.Paths
	regexps   []*regexp.Regexp
	texts     []*textField
	scrolling int
	image     ImageSettings
}

// New creates a MatrixPortal. Without WithMatrix it draws on a 64x32
// in-memory framebuffer.
func New(opts ...Option) (*MatrixPortal, error) {
	o := options{
		width:     ledmatrix.DefaultWidth,
		height:    ledmatrix.DefaultHeight,
		defaultBG: 0x000000,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}

	m := o.matrix
	if m == nil {
		fb, err := ledmatrix.NewFramebuffer(o.width, o.height)
		if err != nil {
			return nil, err
		}
		m = fb
	}
	g, err := display.NewGraphics(m, o.defaultBG, o.logger)
	if err != nil {
		return nil, errors.Wrap(err, "failed to set up graphics")
	}

	if o.network.Logger == nil {
		o.network.Logger = o.logger
	}
	n := network.New(o.network)
	n.AddJSONTransform(o.transforms...)

	p := &MatrixPortal{
		Graphics:  g,
		Network:   n,
		log:       o.logger,
		url:       o.url,
		headers:   o.headers,
		jsonPaths: o.jsonPaths,
		scrolling: -1,
	}
	if err := p.SetRegexpPath(o.regexps...); err != nil {
		return nil, err
	}
	return p, nil
}

// Close releases the matrix
func (p *MatrixPortal) Close() error {
	return p.Graphics.Matrix().Close()
}

// Refresh redraws the display
func (p *MatrixPortal) Refresh() error {
	return p.Graphics.Refresh()
}

// SetHeaders replaces the request headers sent with every fetch
func (p *MatrixPortal) SetHeaders(headers map[string]string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.headers = headers
}

// SetURL changes the data source used by Fetch. The network is not touched
// until the next Fetch.
func (p *MatrixPortal) SetURL(url string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.url = url
}

// URL returns the current data source
func (p *MatrixPortal) URL() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.url
}

// SetJSONPath replaces the value paths; no paths disables JSON extraction
func (p *MatrixPortal) SetJSONPath(paths ...network.Path) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.jsonPaths = paths
}

// JSONPath returns the value paths
func (p *MatrixPortal) JSONPath() network.Paths {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.jsonPaths
}

// SetRegexpPath replaces the regular expressions used on text replies
func (p *MatrixPortal) SetRegexpPath(exprs ...string) error {
	res := make([]*regexp.Regexp, 0, len(exprs))
	for _, e := range exprs {
		re, err := regexp.Compile(e)
		if err != nil {
			return errors.Wrapf(err, "invalid regexp path %q", e)
		}
		res = append(res, re)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.regexps = res
	return nil
}

// SetBackground sets the background to an image file or a color
func (p *MatrixPortal) SetBackground(fileOrColor any, pos image.Point) error {
	return p.Graphics.SetBackground(fileOrColor, pos)
}
