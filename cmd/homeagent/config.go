package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/urmzd/homeagent/pkg/db"
	"github.com/urmzd/homeagent/pkg/pipeline"
)

func newConfigCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show the active profile and assistant settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			database, err := db.OpenReady(cmd.Context(), c.opts.DBPath)
			if err != nil {
				return err
			}
			defer database.Close()

			cfg, err := database.ActiveConfig(cmd.Context())
			if err != nil {
				return err
			}
			s := cfg.Settings
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			for _, row := range [][2]string{
				{"database", database.Path()},
				{"profile", cfg.Profile.Name},
				{"timezone", cfg.Timezone()},
				{"api", cfg.APIAddress()},
				{"backend", s.Backend},
				{"model", s.Model},
				{"llm-host", s.Host},
				{"llm-timeout", s.Timeout.String()},
				{"max-steps", fmt.Sprint(s.MaxSteps)},
				{"mode", s.Mode},
				{"memory-limit", fmt.Sprint(s.MemoryLimit)},
				{"devices", s.DevicesPath},
				{"mqtt", s.MQTTBroker},
			} {
				fmt.Fprintf(w, "%s\t%s\n", row[0], row[1])
			}
			return w.Flush()
		},
	}
	cmd.AddCommand(newConfigSetCmd(c))
	return cmd
}

func newConfigSetCmd(c *cli) *cobra.Command {
	var (
		timeout     time.Duration
		maxSteps    int
		memoryLimit int
		broker      string
	)
	cmd := &cobra.Command{
		Use:   "set",
		Short: "Store assistant settings for the active profile",
		Long: `Store assistant settings for the active profile. The global --backend, --model,
--llm-host, --mode and --devices flags are saved when given.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if c.opts.Mode != "" {
				if _, err := pipeline.ParseMode(c.opts.Mode); err != nil {
					return err
				}
			}

			database, err := db.OpenReady(cmd.Context(), c.opts.DBPath)
			if err != nil {
				return err
			}
			defer database.Close()

			cfg, err := database.ActiveConfig(cmd.Context())
			if err != nil {
				return err
			}
			s := cfg.Settings
			s.ProfileID = cfg.Profile.ID

			flags := cmd.Flags()
			set := func(name string, apply func()) {
				if flags.Changed(name) {
					apply()
				}
			}
			set("backend", func() { s.Backend = c.opts.Backend })
			set("model", func() { s.Model = c.opts.Model })
			set("llm-host", func() { s.Host = c.opts.Host })
			set("mode", func() { s.Mode = c.opts.Mode })
			set("devices", func() { s.DevicesPath = c.opts.DevicesPath })
			set("llm-timeout", func() { s.Timeout = timeout })
			set("max-steps", func() { s.MaxSteps = maxSteps })
			set("memory-limit", func() { s.MemoryLimit = memoryLimit })
			set("mqtt", func() { s.MQTTBroker = broker })

			if err := database.Settings().Save(cmd.Context(), &s); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Settings saved")
			return nil
		},
	}
	cmd.Flags().DurationVar(&timeout, "llm-timeout", 0, "Timeout for one completion")
	cmd.Flags().IntVar(&maxSteps, "max-steps", 0, "Agent step budget")
	cmd.Flags().IntVar(&memoryLimit, "memory-limit", 0, "Conversation messages kept for prompts")
	cmd.Flags().StringVar(&broker, "mqtt", "", "MQTT broker URL")
	return cmd
}
