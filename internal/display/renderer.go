package display

import (
	"context"
	"log/slog"
	"time"
)

// DefaultRefreshInterval is how often the renderer redraws
const DefaultRefreshInterval = 20 * time.Millisecond

// Renderer redraws a Graphics at a fixed interval
type Renderer struct {
	graphics *Graphics
	interval time.Duration
	log      *slog.Logger
}

// NewRenderer creates a new renderer instance
func NewRenderer(g *Graphics, interval time.Duration, log *slog.Logger) *Renderer {
	if interval <= 0 {
		interval = DefaultRefreshInterval
	}
	if log == nil {
		log = slog.Default()
	}
	return &Renderer{graphics: g, interval: interval, log: log}
}

// Start refreshes the display until ctx is done
func (r *Renderer) Start(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := r.graphics.Refresh(); err != nil {
				r.log.Error("failed to render", "error", err)
			}
		}
	}
}
