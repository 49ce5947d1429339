package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/urmzd/homeagent/pkg/device"
)

func newDevicesCmd(c *cli) *cobra.Command {
	var room string
	cmd := &cobra.Command{
		Use:   "devices",
		Short: "List devices and their current state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.open(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			devices := a.Registry.List()
			if room != "" {
				name, ok := a.Registry.MatchRoom(room)
				if !ok {
					return fmt.Errorf("unknown room %q", room)
				}
				devices = a.Registry.ListByRoom(name)
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tTYPE\tROOM\tSTATUS")
			for i := range devices {
				d := &devices[i]
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", d.ID, d.DisplayName(), d.Type, d.Room, device.Describe(d))
			}
			return w.Flush()
		},
	}
	cmd.Flags().StringVar(&room, "room", "", "Only list devices in this room")
	return cmd
}
