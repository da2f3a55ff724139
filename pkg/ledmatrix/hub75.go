package ledmatrix

import (
	"context"
	"image/color"
	"log/slog"
	"math/bits"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
)

const (
	// DefaultBitDepth is the number of bits per color channel scanned out.
	DefaultBitDepth = 2
	// DefaultPlaneTime is how long the least significant bit plane is lit.
	DefaultPlaneTime = 50 * time.Microsecond
)

// HUB75Config describes the panel attached to a HUB75 pin bank
type HUB75Config struct {
	Width      int
	Height     int
	Brightness int
	BitDepth   int
	// ColorOrder is a permutation of "RGB" giving the channel wired to the
	// R, G and B data lines.
	ColorOrder string
	PlaneTime  time.Duration
	Logger     *slog.Logger
}

// HUB75 drives an RGB LED panel over a bank of output lines. Lines are laid
// out as R1 G1 B1 R2 G2 B2, the address lines, then CLK, LAT and OE.
//
// The panel is multiplexed: rows and rows+height/2 share an address, and
// each color bit plane is lit for twice as long as the one below it.
type HUB75 struct {
	*Framebuffer

	cfg       HUB75Config
	rows      int
	addrLines int
	order     [3]int
	pins      PinBank
	state     []int
	log       *slog.Logger

	scanMu  sync.Mutex
	runMu   sync.Mutex
	cancel  context.CancelFunc
	done    chan struct{}
	scanned uint64
}

// NewHUB75 creates a HUB75 driver on top of an already requested pin bank.
// The pin bank is owned by the driver and released by Close.
func NewHUB75(cfg HUB75Config, pins PinBank) (*HUB75, error) {
	if cfg.Width <= 0 || cfg.Height <= 0 || cfg.Height%2 != 0 {
		return nil, errors.Errorf("invalid dimensions: %dx%d", cfg.Width, cfg.Height)
	}
	if cfg.BitDepth == 0 {
		cfg.BitDepth = DefaultBitDepth
	}
	if cfg.BitDepth < 1 || cfg.BitDepth > 8 {
		return nil, errors.Errorf("bit depth must be between 1 and 8, got %d", cfg.BitDepth)
	}
	if cfg.PlaneTime == 0 {
		cfg.PlaneTime = DefaultPlaneTime
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	order, err := ParseColorOrder(cfg.ColorOrder)
	if err != nil {
		return nil, err
	}

	rows := cfg.Height / 2
	addrLines := AddressLines(cfg.Height)
	want := 6 + addrLines + 3
	if pins.Len() != want {
		return nil, errors.Errorf("a %dx%d panel needs %d lines, pin bank has %d",
			cfg.Width, cfg.Height, want, pins.Len())
	}

	fb, err := NewFramebuffer(cfg.Width, cfg.Height)
	if err != nil {
		return nil, err
	}
	if cfg.Brightness > 0 {
		if err := fb.SetBrightness(cfg.Brightness); err != nil {
			return nil, err
		}
	}

	h := &HUB75{
		Framebuffer: fb,
		cfg:         cfg,
		rows:        rows,
		addrLines:   addrLines,
		order:       order,
		pins:        pins,
		state:       make([]int, want),
		log:         cfg.Logger,
	}
	h.state[h.oe()] = 1
	if err := h.pins.SetValues(h.state); err != nil {
		return nil, errors.Wrap(err, "failed to blank panel")
	}
	return h, nil
}

// AddressLines returns how many address lines a panel of the given height
// uses.
func AddressLines(height int) int {
	rows := height / 2
	if rows <= 1 {
		return 0
	}
	return bits.Len(uint(rows - 1))
}

// ParseColorOrder validates a permutation of "RGB". The returned array holds,
// for each of the R, G and B data lines, the index of the source channel.
func ParseColorOrder(order string) ([3]int, error) {
	if order == "" {
		order = "RGB"
	}
	order = strings.ToUpper(order)
	var out [3]int
	if len(order) != 3 {
		return out, errors.Errorf("color order %q must contain R, G and B once each", order)
	}
	seen := map[byte]bool{}
	for i := 0; i < 3; i++ {
		idx := strings.IndexByte("RGB", order[i])
		if idx < 0 || seen[order[i]] {
			return out, errors.Errorf("color order %q must contain R, G and B once each", order)
		}
		seen[order[i]] = true
		out[i] = idx
	}
	return out, nil
}

func (h *HUB75) addr(i int) int { return 6 + i }
func (h *HUB75) clk() int       { return 6 + h.addrLines }
func (h *HUB75) lat() int       { return 6 + h.addrLines + 1 }
func (h *HUB75) oe() int        { return 6 + h.addrLines + 2 }

func (h *HUB75) push() error {
	return h.pins.SetValues(h.state)
}

func (h *HUB75) channels(c color.RGBA) [3]uint8 {
	src := [3]uint8{c.R, c.G, c.B}
	return [3]uint8{src[h.order[0]], src[h.order[1]], src[h.order[2]]}
}

// scanFrame shifts one full frame out to the panel, every bit plane of every
// row.
func (h *HUB75) scanFrame(frame []color.RGBA) error {
	h.scanMu.Lock()
	defer h.scanMu.Unlock()

	w := h.cfg.Width
	for plane := 0; plane < h.cfg.BitDepth; plane++ {
		bit := uint(8 - h.cfg.BitDepth + plane)
		for row := 0; row < h.rows; row++ {
			// Blank while the address changes
			h.state[h.oe()] = 1
			for i := 0; i < h.addrLines; i++ {
				h.state[h.addr(i)] = (row >> i) & 1
			}
			if err := h.push(); err != nil {
				return err
			}

			for x := 0; x < w; x++ {
				top := h.channels(frame[row*w+x])
				bottom := h.channels(frame[(row+h.rows)*w+x])
				for i := 0; i < 3; i++ {
					h.state[i] = int(top[i]>>bit) & 1
					h.state[3+i] = int(bottom[i]>>bit) & 1
				}
				h.state[h.clk()] = 0
				if err := h.push(); err != nil {
					return err
				}
				h.state[h.clk()] = 1
				if err := h.push(); err != nil {
					return err
				}
			}
			h.state[h.clk()] = 0

			h.state[h.lat()] = 1
			if err := h.push(); err != nil {
				return err
			}
			h.state[h.lat()] = 0
			h.state[h.oe()] = 0
			if err := h.push(); err != nil {
				return err
			}
			time.Sleep(h.cfg.PlaneTime << plane)
		}
	}

	h.state[h.oe()] = 1
	h.scanned++
	return h.push()
}

// Refresh scans the most recently shown frame out once.
func (h *HUB75) Refresh() error {
	return h.scanFrame(h.shownPixels())
}

// Start runs the refresh scan until ctx is cancelled or Close is called.
// The panel only shows an image while it is being scanned.
func (h *HUB75) Start(ctx context.Context) error {
	h.runMu.Lock()
	if h.cancel != nil {
		h.runMu.Unlock()
		return errors.New("hub75 refresh already running")
	}
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	h.cancel = cancel
	h.done = done
	h.runMu.Unlock()

	defer func() {
		h.runMu.Lock()
		h.cancel = nil
		h.done = nil
		h.runMu.Unlock()
		close(done)
	}()

	h.log.Info("hub75 refresh started", "width", h.cfg.Width, "height", h.cfg.Height, "bit_depth", h.cfg.BitDepth)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		if err := h.Refresh(); err != nil {
			return errors.Wrap(err, "hub75 refresh")
		}
	}
}

// FullRefreshes returns how many frames have been scanned out.
func (h *HUB75) FullRefreshes() uint64 {
	h.scanMu.Lock()
	defer h.scanMu.Unlock()
	return h.scanned
}

// Close stops the refresh scan, blanks the panel and releases its lines
func (h *HUB75) Close() error {
	h.runMu.Lock()
	cancel, done := h.cancel, h.done
	h.runMu.Unlock()
	if cancel != nil {
		cancel()
		<-done
	}

	h.scanMu.Lock()
	defer h.scanMu.Unlock()

	for i := range h.state {
		h.state[i] = 0
	}
	h.state[h.oe()] = 1
	if err := h.push(); err != nil {
		h.log.Warn("failed to blank panel", "error", err)
	}
	return h.pins.Close()
}
