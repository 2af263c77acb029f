package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"frohlich/cmd/frohlich/ui"
	"frohlich/internal/config"
	"frohlich/internal/results"
)

var runsLimit int

// runsCmd lists archived runs
var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List archived experiment runs",
	Long:  `Lists runs from the SQLite archive configured under sink.sqlite_path.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openArchive()
		if err != nil {
			return err
		}
		defer store.Close()

		summaries, err := store.ListRuns(runsLimit)
		if err != nil {
			return err
		}
		if len(summaries) == 0 {
			fmt.Fprintln(os.Stdout, "no archived runs")
			return nil
		}

		table := ui.NewSummaryTable("Archived runs", []string{"RUN", "STARTED", "ROUNDS", "OUTCOME", "STATUS"})
		for _, s := range summaries {
			outcome := "no consensus"
			if s.Consensus {
				outcome = s.Agreed
			}
			status := "complete"
			if s.Incomplete {
				status = "incomplete"
			}
			table.AddRow(s.RunID, s.StartedAt.Format("2006-01-02 15:04"),
				fmt.Sprintf("%d", s.RoundsHeld), outcome, status)
		}
		fmt.Fprintln(os.Stdout, table.Render())
		return nil
	},
}

// showCmd prints one archived run's summary
var showCmd = &cobra.Command{
	Use:   "show [run-id]",
	Short: "Show an archived run",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openArchive()
		if err != nil {
			return err
		}
		defer store.Close()

		record, err := store.LoadRun(args[0])
		if err != nil {
			return err
		}
		fmt.Fprintln(os.Stdout, ui.RenderRecordSummary(record, ""))
		return nil
	},
}

func init() {
	runsCmd.Flags().IntVar(&runsLimit, "limit", 20, "maximum runs to list")
}

func openArchive() (*results.Store, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if cfg.Sink.SQLitePath == "" {
		return nil, fmt.Errorf("no archive configured: set sink.sqlite_path in %s", configPath)
	}
	return results.NewStore(cfg.Sink.SQLitePath)
}
