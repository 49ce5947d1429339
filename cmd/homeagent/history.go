package main

import (
	"fmt"
	"slices"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/urmzd/homeagent/pkg/history"
)

func newHistoryCmd(c *cli) *cobra.Command {
	var (
		limit    int
		patterns bool
		wipe     bool
	)
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent commands, or the hours they usually run at",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.open(cmd)
			if err != nil {
				return err
			}
			defer a.Close()
			out := cmd.OutOrStdout()

			if wipe {
				if err := a.Journal.Clear(cmd.Context()); err != nil {
					return err
				}
				fmt.Fprintln(out, "History cleared")
				return nil
			}

			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			if patterns {
				// the prompt threshold does not apply to an explicit listing
				learned := history.Patterns(a.History.Recent(history.PatternWindow))
				hours := make([]int, 0, len(learned))
				for h := range learned {
					hours = append(hours, h)
				}
				slices.Sort(hours)
				fmt.Fprintln(w, "HOUR\tCOMMANDS")
				for _, h := range hours {
					fmt.Fprintf(w, "%02d:00\t%s\n", h, strings.Join(learned[h], "; "))
				}
				return w.Flush()
			}

			fmt.Fprintln(w, "TIME\tACTION\tDEVICES\tOK\tCOMMAND")
			for _, e := range a.History.Recent(limit) {
				fmt.Fprintf(w, "%s\t%s\t%s\t%t\t%s\n",
					e.Timestamp.Local().Format(time.DateTime), e.Action, strings.Join(e.Devices, ","), e.Success, e.Command)
			}
			return w.Flush()
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "Number of entries to show")
	cmd.Flags().BoolVar(&patterns, "patterns", false, "Group recent commands by hour of day")
	cmd.Flags().BoolVar(&wipe, "clear", false, "Delete the stored history")
	return cmd
}
