package cli

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/fkcurrie/matrixportal-golang/internal/display"
	"github.com/fkcurrie/matrixportal-golang/internal/network"
	"github.com/fkcurrie/matrixportal-golang/pkg/matrixportal"
)

func runCmd(g *globalFlags) *cobra.Command {
	var healthAddr string

	c := &cobra.Command{
		Use:   "run",
		Short: "Fetch the configured URL periodically and show the values, scrolling any scrolling text",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := g.open(cmd)
			if err != nil {
				return err
			}
			defer a.close()

			err = a.drive(cmd.Context(), func(ctx context.Context) error {
				return a.run(ctx, healthAddr)
			})
			if errors.Is(err, context.Canceled) {
				a.log.Info("shutting down")
				return nil
			}
			return err
		},
	}

	c.Flags().StringVar(&healthAddr, "health-addr", "", "serve /health on this address, e.g. :8080")
	return c
}

// run fetches, scrolls and redraws until ctx is done or a fatal error
func (a *app) run(ctx context.Context, healthAddr string) error {
	p := a.portal
	if len(a.cfg.Portal.Messages) > 0 && p.ScrollingIndex() < 0 {
		if _, err := p.AddText(matrixportal.TextOptions{Scrolling: true}); err != nil {
			return err
		}
	}

	grp, ctx := errgroup.WithContext(ctx)
	renderer := display.NewRenderer(p.Graphics, display.DefaultRefreshInterval, a.log)
	grp.Go(func() error { return renderer.Start(ctx) })

	if p.URL() != "" {
		grp.Go(func() error { return a.fetchLoop(ctx) })
	}
	if p.ScrollingIndex() >= 0 {
		grp.Go(func() error { return a.scrollLoop(ctx) })
	}
	if healthAddr != "" {
		grp.Go(func() error { return serveHealth(ctx, healthAddr, a) })
	}
	return grp.Wait()
}

// fetchLoop fetches every fetch_interval. Failed fetches are retried after
// the network retry delay; only unusable credentials stop the loop.
func (a *app) fetchLoop(ctx context.Context) error {
	every := a.cfg.Portal.FetchEvery()
	retry := time.Duration(a.cfg.Network.RetryDelaySeconds * float64(time.Second))
	if retry <= 0 {
		retry = network.DefaultRetryDelay
	}

	for {
		wait := every
		values, err := a.portal.Fetch(ctx, "")
		switch {
		case err == nil:
			a.log.Info("fetched", "values", values)
		case errors.Is(err, context.Canceled), errors.Is(err, network.ErrPlaceholderCredentials):
			return err
		default:
			a.log.Warn("some error occurred, retrying", "error", err, "retry_in", retry)
			wait = retry
		}
		if wait <= 0 {
			<-ctx.Done()
			return ctx.Err()
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}
}

// scrollLoop scrolls the configured messages, or whatever text the
// scrolling field holds, over and over.
func (a *app) scrollLoop(ctx context.Context) error {
	delay := a.cfg.Portal.FrameDelay()
	messages := a.cfg.Portal.Messages
	for {
		var err error
		if len(messages) > 0 {
			err = a.portal.ScrollMessages(ctx, a.portal.ScrollingIndex(), messages, delay)
		} else {
			err = a.portal.ScrollText(ctx, delay)
		}
		switch {
		case err == nil:
			continue
		case errors.Is(err, matrixportal.ErrNoScrollText):
			// nothing fetched yet
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(100 * time.Millisecond):
			}
		default:
			return err
		}
	}
}
