package cli

import (
	"context"
	"image/color"
	"time"

	"github.com/spf13/cobra"

	"github.com/fkcurrie/matrixportal-golang/internal/types"
)

// pattern paints one test frame
type pattern struct {
	name  string
	paint func(m types.Matrix, w, h int) error
}

type hsvSetter interface {
	SetPixelHSV(x, y int, h, s, v float64) error
}

func solid(c color.RGBA) func(types.Matrix, int, int) error {
	return func(m types.Matrix, w, h int) error {
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				if err := m.SetPixel(x, y, c); err != nil {
					return err
				}
			}
		}
		return nil
	}
}

var testPatterns = []pattern{
	{"red", solid(color.RGBA{R: 255, A: 255})},
	{"green", solid(color.RGBA{G: 255, A: 255})},
	{"blue", solid(color.RGBA{B: 255, A: 255})},
	{"alternating", func(m types.Matrix, w, h int) error {
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				c := color.RGBA{A: 255}
				if (x+y)%2 == 0 {
					c = color.RGBA{R: 255, G: 255, B: 255, A: 255}
				}
				if err := m.SetPixel(x, y, c); err != nil {
					return err
				}
			}
		}
		return nil
	}},
	{"rainbow", func(m types.Matrix, w, h int) error {
		hsv, ok := m.(hsvSetter)
		if !ok {
			return nil
		}
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				if err := hsv.SetPixelHSV(x, y, float64(x)*360/float64(w), 1, 1-float64(y)/float64(2*h)); err != nil {
					return err
				}
			}
		}
		return nil
	}},
}

var statusSequence = []color.RGBA{
	types.StatusNoConnection,
	types.StatusConnecting,
	types.StatusConnected,
	types.StatusFetching,
	types.StatusDownloading,
	types.StatusHTTPError,
	types.StatusOff,
}

func testPatternCmd(g *globalFlags) *cobra.Command {
	var hold time.Duration

	c := &cobra.Command{
		Use:   "testpattern",
		Short: "Show solid colors, alternating pixels and a rainbow, and cycle the status LED",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := g.open(cmd)
			if err != nil {
				return err
			}
			defer a.close()

			return a.drive(cmd.Context(), func(ctx context.Context) error {
				return a.testPattern(ctx, hold)
			})
		},
	}

	c.Flags().DurationVar(&hold, "hold", 2*time.Second, "how long each pattern is shown")
	return c
}

// testPattern shows every pattern and every status color at least once. The
// patterns repeat while the remaining status colors are shown.
func (a *app) testPattern(ctx context.Context, hold time.Duration) error {
	w, h := a.matrix.GetDimensions()
	steps := max(len(testPatterns), len(statusSequence))
	for i := 0; i < steps; i++ {
		p := testPatterns[i%len(testPatterns)]
		a.log.Info("test pattern", "pattern", p.name)
		if err := p.paint(a.matrix, w, h); err != nil {
			return err
		}
		if err := a.matrix.Show(); err != nil {
			return err
		}
		if err := a.status.Fill(statusSequence[i%len(statusSequence)]); err != nil {
			a.log.Warn("failed to set status indicator", "error", err)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(hold):
		}
	}

	a.log.Info("clearing matrix")
	if err := a.status.Fill(types.StatusOff); err != nil {
		a.log.Warn("failed to set status indicator", "error", err)
	}
	return a.matrix.Clear()
}
