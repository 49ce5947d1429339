package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/urmzd/homeagent/pkg/tools"
)

func newToolsCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tools",
		Short: "List the tools the assistant can call",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "TOOL\tPARAMETERS\tDESCRIPTION")
			for _, d := range tools.Catalog() {
				params := make([]string, 0, len(d.Params))
				for _, p := range d.Params {
					name := p.Name
					if !p.Required {
						name += "?"
					}
					params = append(params, name)
				}
				fmt.Fprintf(w, "%s\t%s\t%s\n", d.Name, strings.Join(params, ","), d.Description)
			}
			return w.Flush()
		},
	}
	cmd.AddCommand(newToolsInvokeCmd(c))
	return cmd
}

func newToolsInvokeCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "invoke <tool> [json-arguments]",
		Short: "Call one tool directly, bypassing the resolvers",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, ok := tools.Lookup(args[0]); !ok {
				return fmt.Errorf("unknown tool %q", args[0])
			}
			toolArgs := map[string]any{}
			if len(args) == 2 {
				if err := json.Unmarshal([]byte(args[1]), &toolArgs); err != nil {
					return fmt.Errorf("arguments must be a JSON object: %w", err)
				}
			}

			a, err := c.open(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			res := a.Tools.Invoke(cmd.Context(), args[0], toolArgs)
			if !res.Success {
				return errors.New(res.Message)
			}
			fmt.Fprintln(cmd.OutOrStdout(), res.Message)
			return nil
		},
	}
}
