package matrixportal

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/fkcurrie/matrixportal-golang/internal/display"
)

// DefaultFrameDelay is the pause between scroll steps
const DefaultFrameDelay = 20 * time.Millisecond

// Message is an entry of a scrolling message list
type Message struct {
	Text  string `json:"text" yaml:"text"`
	Color any    `json:"color" yaml:"color"`
}

// nextScrollable returns the index of the scrolling field after the current
// one, wrapping around, or -1. p.mu must be held.
func (p *MatrixPortal) nextScrollable() int {
	index := p.scrolling
	for range p.texts {
		if index < 0 {
			index = 0
		} else {
			index++
		}
		if index >= len(p.texts) {
			index = 0
		}
		if p.texts[index].scrolling {
			return index
		}
		if index == p.scrolling {
			break
		}
	}
	return -1
}

// ScrollingIndex returns the index of the field being scrolled, or -1
func (p *MatrixPortal) ScrollingIndex() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.scrolling
}

// Scroll moves the scrolling label one pixel left. Once it has left the
// display the next scrolling label starts from the right edge. Put several
// lines in one label to scroll them together.
func (p *MatrixPortal) Scroll() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.scrolling < 0 {
		return
	}

	width := p.Graphics.Width()
	p.Graphics.Update(func(*display.Group) {
		label := p.texts[p.scrolling].label
		if label == nil {
			return
		}
		label.X--
		if label.X < -label.Width() {
			p.scrolling = p.nextScrollable()
			if p.scrolling < 0 {
				return
			}
			if next := p.texts[p.scrolling].label; next != nil {
				next.X = width
			}
		}
	})
}

// ScrollText scrolls the current scrolling label all the way across the
// display, redrawing after every step.
func (p *MatrixPortal) ScrollText(ctx context.Context, frameDelay time.Duration) error {
	if frameDelay <= 0 {
		frameDelay = DefaultFrameDelay
	}

	p.mu.Lock()
	if p.scrolling < 0 {
		p.mu.Unlock()
		return nil
	}
	index := p.scrolling
	field := p.texts[index]
	width := p.Graphics.Width()
	lineWidth, ok := 0, false
	p.Graphics.Update(func(*display.Group) {
		if field.label == nil {
			return
		}
		field.label.X = width
		lineWidth, ok = field.label.Width(), true
	})
	p.mu.Unlock()
	if !ok {
		return errors.Wrapf(ErrNoScrollText, "assign text to index %d before scrolling", index)
	}

	ticker := time.NewTicker(frameDelay)
	defer ticker.Stop()
	for i := 0; i < width+lineWidth+1; i++ {
		p.Scroll()
		if err := p.Refresh(); err != nil {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
	return nil
}

// makeScrolling makes the field at index the one Scroll moves
func (p *MatrixPortal) makeScrolling(index int) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if index < 0 || index >= len(p.texts) {
		return errors.Wrapf(ErrIndexOutOfRange, "index %d", index)
	}
	if !p.texts[index].scrolling {
		return errors.Wrapf(ErrNotScrolling, "index %d", index)
	}
	p.scrolling = index
	return nil
}

// ScrollMessages shows each message in turn on the field at index, scrolling
// it across once. The field must have been added with Scrolling set.
func (p *MatrixPortal) ScrollMessages(ctx context.Context, index int, messages []Message, frameDelay time.Duration) error {
	for _, m := range messages {
		if err := p.makeScrolling(index); err != nil {
			return err
		}
		if m.Color != nil {
			if err := p.SetTextColor(m.Color, index); err != nil {
				return err
			}
		}
		if err := p.SetText(m.Text, index); err != nil {
			return err
		}
		if err := p.ScrollText(ctx, frameDelay); err != nil {
			return err
		}
	}
	return nil
}
