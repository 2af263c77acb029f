// Package results defines the immutable experiment record the coordinator
// assembles, and the sinks that persist it. The experiment core hands a
// finished record to a sink; it never writes files itself.
package results

import (
	"time"

	"frohlich/internal/distribution"
	"frohlich/internal/justice"
)

// RankingRecord is one collected ranking with its collection stage.
type RankingRecord struct {
	Participant string          `json:"participant"`
	Stage       string          `json:"stage"` // initial, post_phase1, final
	Ranking     justice.Ranking `json:"ranking"`
}

// ApplicationRound is one Phase 1 application round for one participant.
type ApplicationRound struct {
	Round          int                           `json:"round"`
	Set            distribution.Set              `json:"set"`
	Choice         justice.Choice                `json:"choice"`
	SelectedIndex  int                           `json:"selected_index"`
	Rationale      string                        `json:"rationale"`
	AssignedClass  justice.IncomeClass           `json:"assigned_class"`
	Income         int                           `json:"income"`
	Payoff         float64                       `json:"payoff"`
	Counterfactual map[justice.Principle]float64 `json:"counterfactual"`
}

// Phase1Result is one participant's Phase 1 outcome.
type Phase1Result struct {
	Participant    string             `json:"participant"`
	InitialRanking *justice.Ranking   `json:"initial_ranking,omitempty"`
	Rounds         []ApplicationRound `json:"rounds,omitempty"`
	FinalRanking   *justice.Ranking   `json:"final_ranking,omitempty"`
	Failed         bool               `json:"failed"`
	FailureReason  string             `json:"failure_reason,omitempty"`
}

// Statement is one public discussion turn.
type Statement struct {
	Round   int    `json:"round"`
	Speaker string `json:"speaker"` // "moderator" for system broadcasts
	Text    string `json:"text"`
}

// Phase2Payoff is one participant's payoff resolution after Phase 2.
type Phase2Payoff struct {
	Participant       string                        `json:"participant"`
	DistributionIndex int                           `json:"distribution_index"`
	AssignedClass     justice.IncomeClass           `json:"assigned_class"`
	Income            int                           `json:"income"`
	Payoff            float64                       `json:"payoff"`
	Counterfactual    map[justice.Principle]float64 `json:"counterfactual"`
}

// Phase2Result is the group deliberation outcome.
type Phase2Result struct {
	RoundsHeld    int                  `json:"rounds_held"`
	Consensus     bool                 `json:"consensus"`
	Agreed        *justice.Choice      `json:"agreed,omitempty"`
	Transcript    []Statement          `json:"transcript"`
	Votes         []justice.VoteResult `json:"votes,omitempty"`
	Set           *distribution.Set    `json:"set,omitempty"` // payoff set, consensus case
	Payoffs       []Phase2Payoff       `json:"payoffs"`
	FinalRankings []RankingRecord      `json:"final_rankings,omitempty"`
}

// ExperimentRecord is the complete two-phase result.
type ExperimentRecord struct {
	RunID      string    `json:"run_id"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Language   string    `json:"language"`
	Seed       int64     `json:"seed"`

	Phase1 []Phase1Result `json:"phase1"`
	Phase2 *Phase2Result  `json:"phase2,omitempty"`

	// FinalBalances maps participant name to total earnings.
	FinalBalances map[string]float64 `json:"final_balances"`

	// Incomplete flags runs where any participant or phase failed; Failures
	// lists what went wrong, so a partial record is never mistaken for a
	// clean one.
	Incomplete bool     `json:"incomplete"`
	Failures   []string `json:"failures,omitempty"`
}
