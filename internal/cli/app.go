package cli

import (
	"context"
	"log/slog"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/fkcurrie/matrixportal-golang/internal/config"
	"github.com/fkcurrie/matrixportal-golang/internal/logger"
	"github.com/fkcurrie/matrixportal-golang/internal/status"
	"github.com/fkcurrie/matrixportal-golang/internal/types"
	"github.com/fkcurrie/matrixportal-golang/pkg/ledmatrix"
	"github.com/fkcurrie/matrixportal-golang/pkg/matrixportal"
)

// app is everything a command needs, built from the flags and config
type app struct {
	cfg    *config.Config
	log    *slog.Logger
	matrix types.Matrix
	status status.Indicator
	portal *matrixportal.MatrixPortal
}

func (g *globalFlags) loadConfig() (*config.Config, error) {
	if g.configPath == "" {
		return config.DefaultConfig(), nil
	}
	return config.LoadConfig(g.configPath)
}

// loadSecrets tolerates a missing default secrets file; commands that need
// credentials fail later with a clear error.
func (g *globalFlags) loadSecrets(cmd *cobra.Command, log *slog.Logger) (types.Secrets, error) {
	secrets, err := config.LoadSecrets(g.secretsPath)
	if err == nil {
		return secrets, nil
	}
	if errors.Is(err, os.ErrNotExist) && !cmd.Flags().Changed("secrets") {
		log.Warn("no secrets file, network credentials and keys are unset", "path", g.secretsPath)
		return types.Secrets{}, nil
	}
	return types.Secrets{}, err
}

func (g *globalFlags) open(cmd *cobra.Command) (*app, error) {
	cfg, err := g.loadConfig()
	if err != nil {
		return nil, err
	}

	format := cfg.Log.Format
	if g.logFormat != "" {
		format = g.logFormat
	}
	log := logger.Setup(logger.Config{
		Format: format,
		Debug:  g.debug || cfg.Log.Debug,
		Output: cmd.ErrOrStderr(),
	})

	secrets, err := g.loadSecrets(cmd, log)
	if err != nil {
		return nil, err
	}

	ind, err := status.Open(cfg.Status, log)
	if err != nil {
		return nil, err
	}
	m, err := ledmatrix.Open(cfg.Display, log)
	if err != nil {
		ind.Close()
		return nil, err
	}

	opts := append(cfg.PortalOptions(),
		matrixportal.WithMatrix(m),
		matrixportal.WithNetwork(cfg.NetworkConfig(secrets, ind, log)),
		matrixportal.WithLogger(log),
	)
	portal, err := matrixportal.New(opts...)
	if err != nil {
		m.Close()
		ind.Close()
		return nil, err
	}

	a := &app{cfg: cfg, log: log, matrix: m, status: ind, portal: portal}
	for i, t := range cfg.Portal.Texts {
		if _, err := portal.AddText(t.Options()); err != nil {
			a.close()
			return nil, errors.Wrapf(err, "texts[%d]", i)
		}
	}
	if cfg.Portal.Image != nil {
		portal.SetImageSettings(cfg.Portal.Image.Settings())
	}
	log.Debug("app.opened", "driver", cfg.Display.Driver, "texts", len(cfg.Portal.Texts))
	return a, nil
}

func (a *app) close() {
	if err := a.portal.Close(); err != nil {
		a.log.Warn("failed to close matrix", "error", err)
	}
	if err := a.status.Close(); err != nil {
		a.log.Warn("failed to close status indicator", "error", err)
	}
}

// drive runs fn while a HUB75 panel, if any, is scanned out. The panel stops
// when fn returns.
func (a *app) drive(ctx context.Context, fn func(ctx context.Context) error) error {
	r, ok := a.matrix.(ledmatrix.Refresher)
	if !ok {
		return fn(ctx)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	grp, gctx := errgroup.WithContext(ctx)
	grp.Go(func() error {
		if err := r.Start(gctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})
	grp.Go(func() error {
		defer cancel()
		return fn(gctx)
	})
	return grp.Wait()
}
