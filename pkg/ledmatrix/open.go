package ledmatrix

import (
	"context"
	"log/slog"
	"time"

	"github.com/pkg/errors"

	"github.com/fkcurrie/matrixportal-golang/internal/types"
)

const (
	// Default configuration for the matrix
	DefaultWidth  = 64
	DefaultHeight = 32
	DefaultChip   = "gpiochip0"
)

// Adafruit RGB Matrix Bonnet pinout (BCM numbering)
var (
	DefaultRGBPins  = []int{5, 13, 6, 12, 16, 23} // R1 G1 B1 R2 G2 B2
	DefaultAddrPins = []int{22, 26, 27, 20, 24}   // A B C D E
)

const (
	DefaultClockPin = 17
	DefaultLatchPin = 21
	DefaultOEPin    = 4
)

// Refresher is implemented by matrices that must be scanned continuously to
// show an image.
type Refresher interface {
	Start(ctx context.Context) error
}

// Open builds the matrix selected by cfg.Driver: "framebuffer" (or empty)
// for an in-memory matrix, "gpiocdev" or "periph" for a HUB75 panel.
func Open(cfg types.DisplayConfig, log *slog.Logger) (types.Matrix, error) {
	if log == nil {
		log = slog.Default()
	}
	if cfg.Width == 0 {
		cfg.Width = DefaultWidth
	}
	if cfg.Height == 0 {
		cfg.Height = DefaultHeight
	}

	switch cfg.Driver {
	case "", "framebuffer":
		fb, err := NewFramebuffer(cfg.Width, cfg.Height)
		if err != nil {
			return nil, err
		}
		if cfg.Brightness > 0 {
			if err := fb.SetBrightness(cfg.Brightness); err != nil {
				return nil, err
			}
		}
		return fb, nil
	case "gpiocdev", "periph":
	default:
		return nil, errors.Errorf("unknown display driver %q", cfg.Driver)
	}

	offsets, err := PinLayout(cfg)
	if err != nil {
		return nil, err
	}

	var bank PinBank
	if cfg.Driver == "gpiocdev" {
		chip := cfg.Chip
		if chip == "" {
			chip = DefaultChip
		}
		bank, err = NewGPIOCDevBank(chip, offsets, log)
	} else {
		names := make([]string, len(offsets))
		for i, o := range offsets {
			names[i] = periphName(o)
		}
		bank, err = NewPeriphBank(names, log)
	}
	if err != nil {
		return nil, err
	}

	m, err := NewHUB75(HUB75Config{
		Width:      cfg.Width,
		Height:     cfg.Height,
		Brightness: cfg.Brightness,
		BitDepth:   cfg.BitDepth,
		ColorOrder: cfg.ColorOrder,
		PlaneTime:  time.Duration(cfg.PlaneTimeUS) * time.Microsecond,
		Logger:     log,
	}, bank)
	if err != nil {
		bank.Close()
		return nil, err
	}
	return m, nil
}

// PinLayout returns the line offsets in pin bank order for a HUB75 panel,
// filling in the bonnet defaults. Only as many address pins as the panel
// height needs are used.
func PinLayout(cfg types.DisplayConfig) ([]int, error) {
	rgb := cfg.RGBPins
	if len(rgb) == 0 {
		rgb = DefaultRGBPins
	}
	if len(rgb) != 6 {
		return nil, errors.Errorf("rgb_pins needs 6 entries, got %d", len(rgb))
	}

	need := AddressLines(cfg.Height)
	addr := cfg.AddrPins
	if len(addr) == 0 {
		addr = DefaultAddrPins
	}
	if len(addr) < need {
		return nil, errors.Errorf("a panel %d pixels high needs %d address pins, got %d", cfg.Height, need, len(addr))
	}

	clock, latch, oe := cfg.ClockPin, cfg.LatchPin, cfg.OEPin
	if clock == 0 {
		clock = DefaultClockPin
	}
	if latch == 0 {
		latch = DefaultLatchPin
	}
	if oe == 0 {
		oe = DefaultOEPin
	}

	out := make([]int, 0, 6+need+3)
	out = append(out, rgb...)
	out = append(out, addr[:need]...)
	out = append(out, clock, latch, oe)

	seen := map[int]bool{}
	for _, o := range out {
		if seen[o] {
			return nil, errors.Errorf("pin %d is assigned twice", o)
		}
		seen[o] = true
	}
	return out, nil
}
