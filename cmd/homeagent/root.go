package main

import (
	"github.com/spf13/cobra"

	"github.com/urmzd/homeagent/pkg/app"
)

type cli struct {
	opts     app.Options
	logLevel string
}

func newRootCmd() *cobra.Command {
	c := &cli{}

	root := &cobra.Command{
		Use:   "homeagent",
		Short: "homeagent - natural-language control of a simulated smart home",
		Long: `homeagent resolves commands like "turn on the kitchen lights" against a simulated
home, using a language model when one is configured and keyword rules otherwise.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return app.SetupLogging(c.logLevel, cmd.ErrOrStderr())
		},
		// No RunE - defaults to showing help when no subcommand is provided
	}

	flags := root.PersistentFlags()
	flags.StringVar(&c.opts.DBPath, "db", "", "Path to database file (default: ~/.config/homeagent/homeagent.db)")
	flags.StringVar(&c.opts.DevicesPath, "devices", "", "Path to a JSON device document")
	flags.BoolVar(&c.opts.SeedDevices, "seed", false, "Write the demo home to --devices if the document does not exist")
	flags.StringVar(&c.opts.Backend, "backend", "", "Completion backend: ollama, gemini or none")
	flags.StringVar(&c.opts.Model, "model", "", "Completion model")
	flags.StringVar(&c.opts.Host, "llm-host", "", "Ollama base URL")
	flags.StringVar(&c.opts.Mode, "mode", "", "Resolver mode: agent, direct or rules")
	flags.StringVar(&c.logLevel, "log-level", "", "Log level (default: $HOMEAGENT_LOG_LEVEL or info)")

	root.AddCommand(
		newAskCmd(c),
		newReplCmd(c),
		newDevicesCmd(c),
		newHistoryCmd(c),
		newToolsCmd(c),
		newConfigCmd(c),
	)
	return root
}

// open builds the assistant for one command; callers close it.
func (c *cli) open(cmd *cobra.Command) (*app.App, error) {
	return app.Open(cmd.Context(), c.opts)
}
