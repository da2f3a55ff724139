// Package status signals connection and fetch progress on an RGB status LED.
package status

import (
	"image/color"
	"log/slog"
	"sync"

	"github.com/pkg/errors"
	"github.com/warthog618/go-gpiocdev"

	"github.com/fkcurrie/matrixportal-golang/internal/types"
)

// Indicator shows a single status color
type Indicator interface {
	Fill(c color.RGBA) error
	Close() error
}

// Nop discards status colors
type Nop struct{}

func (Nop) Fill(color.RGBA) error { return nil }
func (Nop) Close() error          { return nil }

// Log records status changes at debug level
type Log struct {
	Logger *slog.Logger

	mu   sync.Mutex
	last color.RGBA
	set  bool
}

// Fill logs c when it differs from the last color
func (l *Log) Fill(c color.RGBA) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.set && l.last == c {
		return nil
	}
	l.last, l.set = c, true
	logger := l.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Debug("status", "color", Name(c), "r", c.R, "g", c.G, "b", c.B)
	return nil
}

func (l *Log) Close() error { return nil }

// Current returns the last color shown
func (l *Log) Current() color.RGBA {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.last
}

// Name returns a readable name for the well-known status colors
func Name(c color.RGBA) string {
	switch c {
	case types.StatusOff:
		return "off"
	case types.StatusNoConnection:
		return "no-connection"
	case types.StatusConnecting:
		// same color as data-received
		return "connecting"
	case types.StatusFetching:
		return "fetching"
	case types.StatusDownloading:
		return "downloading"
	case types.StatusConnected:
		return "connected"
	default:
		return "custom"
	}
}

// GPIO drives a discrete RGB LED wired to three lines. A channel is lit
// when its value is non-zero.
type GPIO struct {
	lines     *gpiocdev.Lines
	activeLow bool
	mu        sync.Mutex
}

// NewGPIO requests the red, green and blue lines on chip as outputs
func NewGPIO(chip string, pins []int, activeLow bool) (*GPIO, error) {
	if len(pins) != 3 {
		return nil, errors.Errorf("status LED needs 3 pins (r, g, b), got %d", len(pins))
	}
	opts := []gpiocdev.LineReqOption{
		gpiocdev.AsOutput(0, 0, 0),
		gpiocdev.WithConsumer("matrixportal-status"),
	}
	if activeLow {
		opts = append(opts, gpiocdev.AsActiveLow)
	}
	lines, err := gpiocdev.RequestLines(chip, pins, opts...)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to request status lines %v on %s", pins, chip)
	}
	return &GPIO{lines: lines, activeLow: activeLow}, nil
}

func (g *GPIO) Fill(c color.RGBA) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.lines.SetValues([]int{on(c.R), on(c.G), on(c.B)})
}

func (g *GPIO) Close() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.lines.SetValues([]int{0, 0, 0}); err != nil {
		g.lines.Close()
		return err
	}
	return g.lines.Close()
}

func on(v uint8) int {
	if v > 0 {
		return 1
	}
	return 0
}

// Open builds the indicator selected by cfg.Driver
func Open(cfg types.StatusConfig, log *slog.Logger) (Indicator, error) {
	switch cfg.Driver {
	case "", "none":
		return Nop{}, nil
	case "log":
		return &Log{Logger: log}, nil
	case "gpiocdev":
		chip := cfg.Chip
		if chip == "" {
			chip = "gpiochip0"
		}
		return NewGPIO(chip, cfg.Pins, cfg.ActiveLow)
	default:
		return nil, errors.Errorf("unknown status driver %q", cfg.Driver)
	}
}
