package ui

import (
	"fmt"
	"sort"
	"strings"

	"frohlich/internal/results"
)

// RenderRecordSummary formats the headline view of a finished run: outcome,
// per-participant earnings, and where the full record landed. path may be
// empty when the record was loaded from the archive.
func RenderRecordSummary(record *results.ExperimentRecord, path string) string {
	var sb strings.Builder

	sb.WriteString(titleStyle.Render("Experiment " + record.RunID))
	sb.WriteString("\n")
	sb.WriteString(labelStyle.Render("started ") + record.StartedAt.Format("2006-01-02 15:04:05"))
	sb.WriteString(labelStyle.Render("  seed ") + fmt.Sprintf("%d", record.Seed))
	sb.WriteString("\n")

	switch {
	case record.Phase2 != nil && record.Phase2.Consensus:
		sb.WriteString(goodStyle.Render(fmt.Sprintf("consensus in round %d: %s",
			record.Phase2.RoundsHeld, record.Phase2.Agreed.String())))
	case record.Phase2 != nil:
		sb.WriteString(warnStyle.Render(fmt.Sprintf("no consensus after %d rounds, random assignment applied",
			record.Phase2.RoundsHeld)))
	default:
		sb.WriteString(badStyle.Render("group phase did not run"))
	}
	sb.WriteString("\n")

	if record.Incomplete {
		sb.WriteString(badStyle.Render("INCOMPLETE RUN"))
		sb.WriteString("\n")
		for _, f := range record.Failures {
			sb.WriteString(badStyle.Render("  " + f))
			sb.WriteString("\n")
		}
	}

	table := NewSummaryTable("", []string{"PARTICIPANT", "PHASE 1", "PHASE 2", "TOTAL"})
	names := make([]string, 0, len(record.FinalBalances))
	for name := range record.FinalBalances {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		var phase1, phase2 float64
		for _, res := range record.Phase1 {
			if res.Participant != name {
				continue
			}
			for _, round := range res.Rounds {
				phase1 += round.Payoff
			}
		}
		if record.Phase2 != nil {
			for _, p := range record.Phase2.Payoffs {
				if p.Participant == name {
					phase2 += p.Payoff
				}
			}
		}
		table.AddRow(name, money(phase1), money(phase2), money(record.FinalBalances[name]))
	}
	sb.WriteString(table.Render())
	sb.WriteString("\n")

	if path != "" {
		sb.WriteString(labelStyle.Render("record: ") + path)
		sb.WriteString("\n")
	}
	return strings.TrimRight(sb.String(), "\n")
}
