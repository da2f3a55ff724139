package config

import (
	"bytes"
	"encoding/json"
	"image"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/fkcurrie/matrixportal-golang/internal/network"
	"github.com/fkcurrie/matrixportal-golang/internal/status"
	"github.com/fkcurrie/matrixportal-golang/internal/types"
	"github.com/fkcurrie/matrixportal-golang/pkg/matrixportal"
)

// Config represents the application configuration
type Config struct {
	Display types.DisplayConfig `json:"display" yaml:"display"`
	Network types.NetworkConfig `json:"network" yaml:"network"`
	Status  types.StatusConfig  `json:"status" yaml:"status"`
	Portal  PortalConfig        `json:"portal" yaml:"portal"`
	Log     LogConfig           `json:"log" yaml:"log"`
}

type LogConfig struct {
	Format string `json:"format" yaml:"format"`
	Debug  bool   `json:"debug" yaml:"debug"`
}

// PortalConfig describes what the portal fetches and how it is shown
type PortalConfig struct {
	URL        string            `json:"url" yaml:"url"`
	Headers    map[string]string `json:"headers" yaml:"headers"`
	JSONPath   network.Paths     `json:"json_path" yaml:"json_path"`
	RegexpPath []string          `json:"regexp_path" yaml:"regexp_path"`
	// DefaultBG is a color or an image file
	DefaultBG any `json:"default_bg" yaml:"default_bg"`
	// FetchInterval and ScrollDelay are in seconds
	FetchInterval float64                `json:"fetch_interval" yaml:"fetch_interval"`
	ScrollDelay   float64                `json:"scroll_delay" yaml:"scroll_delay"`
	Texts         []TextConfig           `json:"texts" yaml:"texts"`
	Messages      []matrixportal.Message `json:"messages" yaml:"messages"`
	Image         *ImageConfig           `json:"image" yaml:"image"`
}

// TextConfig is one text field
type TextConfig struct {
	// Position is [x, y]; omitted for the default position
	Position    []int   `json:"position" yaml:"position"`
	Font        string  `json:"font" yaml:"font"`
	FontSize    float64 `json:"font_size" yaml:"font_size"`
	Color       any     `json:"color" yaml:"color"`
	Wrap        int     `json:"wrap" yaml:"wrap"`
	MaxLen      int     `json:"maxlen" yaml:"maxlen"`
	Scale       float64 `json:"scale" yaml:"scale"`
	Scrolling   bool    `json:"scrolling" yaml:"scrolling"`
	LineSpacing float64 `json:"line_spacing" yaml:"line_spacing"`
}

// ImageConfig loads a background image with every fetch
type ImageConfig struct {
	JSONPath  network.Path `json:"json_path" yaml:"json_path"`
	URL       string       `json:"url" yaml:"url"`
	Resize    []int        `json:"resize" yaml:"resize"`
	Position  []int        `json:"position" yaml:"position"`
	CacheFile string       `json:"cache_file" yaml:"cache_file"`
}

// LoadConfig loads the configuration from a JSON file, or YAML when the
// extension is .yaml or .yml. Unset fields keep their defaults.
func LoadConfig(path string) (*Config, error) {
	config := DefaultConfig()
	if err := decodeFile(path, config); err != nil {
		return nil, err
	}
	if err := config.Validate(); err != nil {
		return nil, errors.Wrap(err, path)
	}
	return config, nil
}

// LoadSecrets loads network credentials and service keys
func LoadSecrets(path string) (types.Secrets, error) {
	var secrets types.Secrets
	if err := decodeFile(path, &secrets); err != nil {
		return types.Secrets{}, err
	}
	return secrets, nil
}

func decodeFile(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrap(err, "failed to read config")
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(v); err != nil {
			return errors.Wrapf(err, "failed to parse %s", path)
		}
	default:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(v); err != nil {
			return errors.Wrapf(err, "failed to parse %s", path)
		}
	}
	return nil
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Display: types.DisplayConfig{
			Width:      64,
			Height:     32,
			Brightness: 255,
			Driver:     "framebuffer",
		},
		Network: types.NetworkConfig{
			TimeoutSeconds:    network.DefaultTimeout.Seconds(),
			RetryDelaySeconds: network.DefaultRetryDelay.Seconds(),
			LocalFile:         network.DefaultLocalFile,
			IOBaseURL:         network.DefaultIOBaseURL,
		},
		Status: types.StatusConfig{
			Driver: "log",
		},
		Portal: PortalConfig{
			DefaultBG:     0x000000,
			FetchInterval: 60,
			ScrollDelay:   matrixportal.DefaultFrameDelay.Seconds(),
		},
		Log: LogConfig{Format: "text"},
	}
}

// Validate checks values the drivers would otherwise reject late
func (c *Config) Validate() error {
	if c.Display.Width <= 0 || c.Display.Height <= 0 {
		return errors.Errorf("invalid display size %dx%d", c.Display.Width, c.Display.Height)
	}
	if c.Display.Brightness < 0 || c.Display.Brightness > 255 {
		return errors.Errorf("brightness %d is not between 0 and 255", c.Display.Brightness)
	}
	if c.Portal.FetchInterval < 0 || c.Portal.ScrollDelay < 0 {
		return errors.New("fetch_interval and scroll_delay must not be negative")
	}
	for i, t := range c.Portal.Texts {
		if t.Position != nil && len(t.Position) != 2 {
			return errors.Errorf("texts[%d]: position must be [x, y]", i)
		}
	}
	if img := c.Portal.Image; img != nil {
		if img.Resize != nil && len(img.Resize) != 2 {
			return errors.New("image: resize must be [width, height]")
		}
		if img.Position != nil && len(img.Position) != 2 {
			return errors.New("image: position must be [x, y]")
		}
	}
	return nil
}

// NetworkConfig builds the fetcher configuration
func (c *Config) NetworkConfig(secrets types.Secrets, ind status.Indicator, log *slog.Logger) network.Config {
	return network.Config{
		Secrets:    secrets,
		Status:     ind,
		Timeout:    seconds(c.Network.TimeoutSeconds),
		RetryDelay: seconds(c.Network.RetryDelaySeconds),
		LocalFile:  c.Network.LocalFile,
		IOBaseURL:  c.Network.IOBaseURL,
		Logger:     log,
	}
}

// PortalOptions turns the portal section into matrixportal options
func (c *Config) PortalOptions() []matrixportal.Option {
	p := c.Portal
	opts := []matrixportal.Option{
		matrixportal.WithURL(p.URL),
		matrixportal.WithHeaders(p.Headers),
		matrixportal.WithJSONPath(p.JSONPath...),
		matrixportal.WithRegexpPath(p.RegexpPath...),
	}
	if p.DefaultBG != nil {
		opts = append(opts, matrixportal.WithDefaultBackground(background(p.DefaultBG)))
	}
	return opts
}

// background turns decoded numbers and "0x" strings into colors, leaving
// file names alone
func background(v any) any {
	switch x := v.(type) {
	case float64:
		return int(x)
	case string:
		if !strings.HasPrefix(x, "#") && !strings.HasPrefix(strings.ToLower(x), "0x") {
			return v
		}
		if c, err := matrixportal.ParseColor(x); err == nil {
			return c
		}
	}
	return v
}

func (p PortalConfig) FetchEvery() time.Duration { return seconds(p.FetchInterval) }

func (p PortalConfig) FrameDelay() time.Duration { return seconds(p.ScrollDelay) }

// Options converts the text field description
func (t TextConfig) Options() matrixportal.TextOptions {
	opts := matrixportal.TextOptions{
		Font:        t.Font,
		FontSize:    t.FontSize,
		Color:       t.Color,
		Wrap:        t.Wrap,
		MaxLen:      t.MaxLen,
		Scale:       t.Scale,
		Scrolling:   t.Scrolling,
		LineSpacing: t.LineSpacing,
	}
	if len(t.Position) == 2 {
		opts.Position = matrixportal.Pt(t.Position[0], t.Position[1])
	}
	return opts
}

// Settings converts the image description
func (i ImageConfig) Settings() matrixportal.ImageSettings {
	return matrixportal.ImageSettings{
		JSONPath:  i.JSONPath,
		URL:       i.URL,
		Resize:    point(i.Resize),
		Position:  point(i.Position),
		CacheFile: i.CacheFile,
	}
}

func point(v []int) image.Point {
	if len(v) != 2 {
		return image.Point{}
	}
	return image.Pt(v[0], v[1])
}

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}
