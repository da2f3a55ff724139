package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/fkcurrie/matrixportal-golang/internal/network"
	"github.com/fkcurrie/matrixportal-golang/pkg/matrixportal"
)

func scrollCmd(g *globalFlags) *cobra.Command {
	var (
		textColor string
		delay     time.Duration
		repeat    int
	)

	c := &cobra.Command{
		Use:   "scroll TEXT...",
		Short: "Scroll text across the display",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := g.open(cmd)
			if err != nil {
				return err
			}
			defer a.close()

			// a scrolling field from the config is reused
			index := a.portal.ScrollingIndex()
			if index < 0 {
				if index, err = a.portal.AddText(matrixportal.TextOptions{Scrolling: true}); err != nil {
					return err
				}
			}
			messages := []matrixportal.Message{{Text: strings.Join(args, " "), Color: textColor}}
			if delay <= 0 {
				delay = a.cfg.Portal.FrameDelay()
			}

			return a.drive(cmd.Context(), func(ctx context.Context) error {
				for i := 0; repeat <= 0 || i < repeat; i++ {
					if err := a.portal.ScrollMessages(ctx, index, messages, delay); err != nil {
						return err
					}
				}
				return nil
			})
		},
	}

	c.Flags().StringVar(&textColor, "color", "#ffffff", "text color")
	c.Flags().DurationVar(&delay, "delay", 0, "pause between scroll steps (default from config)")
	c.Flags().IntVar(&repeat, "repeat", 1, "number of passes, 0 to scroll forever")
	return c
}

func fetchCmd(g *globalFlags) *cobra.Command {
	var (
		url       string
		jsonPaths []string
	)

	c := &cobra.Command{
		Use:   "fetch",
		Short: "Fetch the configured URL once, show the values and print them",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := g.open(cmd)
			if err != nil {
				return err
			}
			defer a.close()

			if len(jsonPaths) > 0 {
				paths := make([]network.Path, len(jsonPaths))
				for i, p := range jsonPaths {
					paths[i] = parsePathFlag(p)
				}
				a.portal.SetJSONPath(paths...)
			}

			values, err := a.portal.Fetch(cmd.Context(), url)
			if err != nil {
				return err
			}
			if err := a.portal.Refresh(); err != nil {
				return err
			}
			for _, v := range values {
				fmt.Fprintln(cmd.OutOrStdout(), v)
			}
			return nil
		},
	}

	c.Flags().StringVar(&url, "url", "", "URL to fetch instead of the configured one")
	c.Flags().StringArrayVar(&jsonPaths, "json-path", nil, `value path, "$.a.b" or dotted keys "a.0.b" (repeatable)`)
	return c
}

// parsePathFlag accepts a JSONPath expression or dotted keys, numeric keys
// being array indexes
func parsePathFlag(s string) network.Path {
	if strings.HasPrefix(s, "$") {
		return network.Expr(s)
	}
	parts := strings.Split(s, ".")
	keys := make([]any, len(parts))
	for i, p := range parts {
		var n int
		if _, err := fmt.Sscanf(p, "%d", &n); err == nil && fmt.Sprint(n) == p {
			keys[i] = n
		} else {
			keys[i] = p
		}
	}
	return network.Keys(keys...)
}

func timeCmd(g *globalFlags) *cobra.Command {
	var location string

	c := &cobra.Command{
		Use:   "time",
		Short: "Print the local time from the Adafruit IO time service",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := g.open(cmd)
			if err != nil {
				return err
			}
			defer a.close()

			now, err := a.portal.GetLocalTime(cmd.Context(), location)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), now.Format(time.RFC3339Nano))
			return nil
		},
	}

	c.Flags().StringVar(&location, "location", "", "IANA time zone, defaults to the secrets timezone")
	return c
}
