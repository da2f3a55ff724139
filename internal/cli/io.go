package cli

import (
	"encoding/json"
	"io"
	"strconv"

	"github.com/spf13/cobra"
)

func ioCmd(g *globalFlags) *cobra.Command {
	c := &cobra.Command{
		Use:   "io",
		Short: "Adafruit IO feeds and groups",
	}
	c.AddCommand(ioPushCmd(g), ioDataCmd(g), ioFeedCmd(g), ioGroupCmd(g))
	return c
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// ioValue sends numbers as numbers
func ioValue(s string) any {
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	return s
}

func ioPushCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "push FEED VALUE",
		Short: "Send a value to a feed, creating the feed if needed",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := g.open(cmd)
			if err != nil {
				return err
			}
			defer a.close()
			return a.portal.PushToIO(cmd.Context(), args[0], ioValue(args[1]))
		},
	}
}

func ioDataCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "data FEED",
		Short: "Print the values of a feed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := g.open(cmd)
			if err != nil {
				return err
			}
			defer a.close()

			data, err := a.portal.GetIOData(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), data)
		},
	}
}

func ioFeedCmd(g *globalFlags) *cobra.Command {
	var detailed bool
	c := &cobra.Command{
		Use:   "feed KEY",
		Short: "Print a feed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := g.open(cmd)
			if err != nil {
				return err
			}
			defer a.close()

			feed, err := a.portal.GetIOFeed(cmd.Context(), args[0], detailed)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), feed)
		},
	}
	c.Flags().BoolVar(&detailed, "detailed", false, "include feed details")
	return c
}

func ioGroupCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "group KEY",
		Short: "Print a group and its feeds",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := g.open(cmd)
			if err != nil {
				return err
			}
			defer a.close()

			group, err := a.portal.GetIOGroup(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), group)
		},
	}
}
