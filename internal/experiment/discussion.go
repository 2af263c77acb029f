package experiment

import (
	"fmt"
	"strings"

	"frohlich/internal/justice"
	"frohlich/internal/results"
)

// moderatorName labels system broadcasts (ballot outcomes) in the public
// discussion log.
const moderatorName = "moderator"

// discussion is the group's public history: the ordered statement log plus
// every ballot attempted. It is the only channel through which Phase 2
// participants observe each other. Turns are processed strictly
// sequentially, so appends never race.
type discussion struct {
	statements []results.Statement
	votes      []justice.VoteResult
}

// append records one public statement.
func (d *discussion) append(round int, speaker, text string) {
	d.statements = append(d.statements, results.Statement{
		Round:   round,
		Speaker: speaker,
		Text:    text,
	})
}

// recordVote logs a conducted ballot.
func (d *discussion) recordVote(v justice.VoteResult) {
	d.votes = append(d.votes, v)
}

// render formats the full public history for inclusion in a prompt.
func (d *discussion) render() string {
	var sb strings.Builder
	for _, s := range d.statements {
		fmt.Fprintf(&sb, "[round %d] %s: %s\n", s.Round, s.Speaker, s.Text)
	}
	return strings.TrimRight(sb.String(), "\n")
}
