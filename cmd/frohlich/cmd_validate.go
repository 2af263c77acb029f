package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"frohlich/cmd/frohlich/ui"
	"frohlich/internal/config"
)

// validateCmd checks a config file without running anything
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the experiment config file",
	Long: `Loads the config file, applies defaults and environment overrides, and
reports whether the experiment could run. No model calls are made.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}

		table := ui.NewSummaryTable("Participants", []string{"NAME", "PROVIDER", "MODEL", "MEMORY", "REASONING"})
		for _, p := range cfg.Participants {
			table.AddRow(p.Name, p.Provider, p.Model,
				fmt.Sprintf("%d", p.MemoryLimit),
				fmt.Sprintf("%t", p.Reasoning))
		}

		fmt.Fprintf(os.Stdout, "%s: OK\n", configPath)
		fmt.Fprintf(os.Stdout, "language=%s phase2_max_rounds=%d seed=%d\n",
			cfg.Experiment.Language, cfg.Experiment.Phase2MaxRounds, cfg.Experiment.Seed)
		if cfg.LLM.APIKey == "" {
			fmt.Fprintln(os.Stdout, "warning: no API key found in config or environment")
		}
		fmt.Fprintln(os.Stdout, table.Render())
		return nil
	},
}
