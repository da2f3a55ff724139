package ledmatrix

import (
	"fmt"
	"log/slog"

	"github.com/pkg/errors"
	"github.com/warthog618/go-gpiocdev"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"
)

// PinBank is a fixed, ordered set of output lines
type PinBank interface {
	// Len returns the number of lines in the bank
	Len() int
	// SetValues drives every line, values[i] going to line i
	SetValues(values []int) error
	// Close releases the lines
	Close() error
}

// gpiocdevBank drives lines through the GPIO character device
type gpiocdevBank struct {
	chip  string
	lines *gpiocdev.Lines
	n     int
	log   *slog.Logger
}

// NewGPIOCDevBank requests the given line offsets on a chip (e.g.
// "gpiochip0") as outputs, initially low.
func NewGPIOCDevBank(chip string, offsets []int, log *slog.Logger) (PinBank, error) {
	if log == nil {
		log = slog.Default()
	}
	log.Debug("requesting gpio lines", "chip", chip, "offsets", offsets)
	lines, err := gpiocdev.RequestLines(chip, offsets,
		gpiocdev.AsOutput(make([]int, len(offsets))...),
		gpiocdev.WithConsumer("matrixportal"))
	if err != nil {
		return nil, errors.Wrapf(err, "failed to request lines %v on %s", offsets, chip)
	}
	return &gpiocdevBank{chip: chip, lines: lines, n: len(offsets), log: log}, nil
}

func (b *gpiocdevBank) Len() int { return b.n }

func (b *gpiocdevBank) SetValues(values []int) error {
	return b.lines.SetValues(values)
}

func (b *gpiocdevBank) Close() error {
	b.log.Debug("releasing gpio lines", "chip", b.chip)
	return b.lines.Close()
}

// periphBank drives pins through periph's host drivers
type periphBank struct {
	pins []gpio.PinIO
	last []int
	log  *slog.Logger
}

// NewPeriphBank looks up pins by name (e.g. "GPIO17") and sets them as
// outputs, initially low.
func NewPeriphBank(names []string, log *slog.Logger) (PinBank, error) {
	if log == nil {
		log = slog.Default()
	}
	if _, err := host.Init(); err != nil {
		return nil, errors.Wrap(err, "failed to initialize periph host")
	}

	b := &periphBank{log: log}
	for _, name := range names {
		p := gpioreg.ByName(name)
		if p == nil {
			return nil, errors.Errorf("no such pin %q", name)
		}
		if err := p.Out(gpio.Low); err != nil {
			return nil, errors.Wrapf(err, "failed to set %s as output", name)
		}
		b.pins = append(b.pins, p)
		b.last = append(b.last, 0)
	}
	log.Debug("requested periph pins", "pins", names)
	return b, nil
}

func (b *periphBank) Len() int { return len(b.pins) }

// SetValues only touches pins whose level changed
func (b *periphBank) SetValues(values []int) error {
	if len(values) != len(b.pins) {
		return errors.Errorf("got %d values for %d pins", len(values), len(b.pins))
	}
	for i, v := range values {
		if v == b.last[i] {
			continue
		}
		if err := b.pins[i].Out(gpio.Level(v != 0)); err != nil {
			return errors.Wrapf(err, "failed to drive %s", b.pins[i].Name())
		}
		b.last[i] = v
	}
	return nil
}

func (b *periphBank) Close() error {
	var first error
	for _, p := range b.pins {
		if err := p.Halt(); err != nil && first == nil {
			first = err
		}
	}
	b.log.Debug("released periph pins", "count", len(b.pins))
	return first
}

// periphName maps a BCM line number to periph's pin name
func periphName(offset int) string {
	return fmt.Sprintf("GPIO%d", offset)
}
