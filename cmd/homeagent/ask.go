package main

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/urmzd/homeagent/pkg/pipeline"
)

func newAskCmd(c *cli) *cobra.Command {
	var trace bool
	cmd := &cobra.Command{
		Use:   "ask <command...>",
		Short: "Run one command and print the response",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.open(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			obs := a.Pipeline.Run(cmd.Context(), strings.Join(args, " "))
			printObservation(cmd.OutOrStdout(), obs, trace)
			return nil
		},
	}
	cmd.Flags().BoolVar(&trace, "trace", false, "Also print the resolution tier and tool results")
	return cmd
}

func newReplCmd(c *cli) *cobra.Command {
	var trace bool
	cmd := &cobra.Command{
		Use:   "repl",
		Short: "Read commands interactively until EOF or \"exit\"",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.open(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			out := cmd.OutOrStdout()
			in := bufio.NewScanner(cmd.InOrStdin())
			for {
				fmt.Fprint(out, "> ")
				if !in.Scan() {
					fmt.Fprintln(out)
					return in.Err()
				}
				line := strings.TrimSpace(in.Text())
				switch strings.ToLower(line) {
				case "":
					continue
				case "exit", "quit":
					return nil
				}
				printObservation(out, a.Pipeline.Run(cmd.Context(), line), trace)
			}
		},
	}
	cmd.Flags().BoolVar(&trace, "trace", false, "Also print the resolution tier and tool results")
	return cmd
}

func printObservation(w io.Writer, obs pipeline.Observation, trace bool) {
	fmt.Fprintln(w, obs.Response)
	if !trace {
		return
	}
	fmt.Fprintf(w, "  tier: %s\n", obs.Tier)
	for _, r := range obs.ToolResults {
		status := "ok"
		if !r.Success {
			status = "failed"
		}
		fmt.Fprintf(w, "  %s [%s]: %s\n", r.Tool, status, r.Message)
	}
}
