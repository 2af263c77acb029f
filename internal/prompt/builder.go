// Package prompt renders experiment state into the prompt text shown to
// participants. All locale-sensitive text flows through the injected i18n
// catalog; the experiment state machines never build prompt strings
// themselves.
package prompt

import (
	"fmt"
	"sort"
	"strings"

	"frohlich/internal/distribution"
	"frohlich/internal/i18n"
	"frohlich/internal/justice"
)

// Builder renders prompts for one experiment run.
type Builder struct {
	catalog *i18n.Catalog
}

// NewBuilder creates a Builder over the given catalog.
func NewBuilder(catalog *i18n.Catalog) *Builder {
	return &Builder{catalog: catalog}
}

// principleList renders the four principles with their descriptions.
func (b *Builder) principleList() string {
	var sb strings.Builder
	for i, p := range justice.Principles() {
		fmt.Fprintf(&sb, "%d. %s\n", i+1, b.catalog.Get("principle.desc."+string(p)))
	}
	return strings.TrimRight(sb.String(), "\n")
}

// renderSet formats a distribution set as a table of yearly incomes.
func (b *Builder) renderSet(set distribution.Set) string {
	var sb strings.Builder
	for i, d := range set.Distributions {
		fmt.Fprintf(&sb, "Distribution %d:", i+1)
		for _, class := range justice.IncomeClasses() {
			fmt.Fprintf(&sb, " %s $%d", class, d.Income(class))
		}
		sb.WriteString("\n")
	}
	return strings.TrimRight(sb.String(), "\n")
}

// renderCounterfactuals formats the per-principle payoff table in canonical
// principle order.
func (b *Builder) renderCounterfactuals(cf map[justice.Principle]float64) string {
	parts := make([]string, 0, len(cf))
	for _, p := range justice.Principles() {
		if payoff, ok := cf[p]; ok {
			parts = append(parts, fmt.Sprintf("%s $%.2f", p.Label(), payoff))
		}
	}
	return strings.Join(parts, ", ")
}

// InitialRanking asks for the first ranking, before any payoffs.
func (b *Builder) InitialRanking() string {
	return b.catalog.Getf("ranking.initial", b.principleList())
}

// FinalRankingPhase1 asks for the ranking after the application rounds.
func (b *Builder) FinalRankingPhase1() string {
	return b.catalog.Get("ranking.final.phase1")
}

// FinalRankingPhase2 asks for the ranking after the group phase.
func (b *Builder) FinalRankingPhase2() string {
	return b.catalog.Get("ranking.final.phase2")
}

// DetailedExplanation walks the participant through the principles with a
// worked example.
func (b *Builder) DetailedExplanation() string {
	return b.catalog.Getf("explanation.detail", b.catalog.Get("explanation.body"))
}

// ChooseRound asks for a principle choice over a concrete distribution set.
func (b *Builder) ChooseRound(set distribution.Set) string {
	return b.catalog.Getf("round.choose", b.renderSet(set))
}

// RoundOutcome summarizes one application round for the memory update.
func (b *Builder) RoundOutcome(choice justice.Choice, selected int, class justice.IncomeClass, income int, payoff float64, cf map[justice.Principle]float64) string {
	return b.catalog.Getf("round.outcome",
		choice.String(), selected+1, class, income, payoff, b.renderCounterfactuals(cf))
}

// Discussion asks for a public statement given the discussion so far.
func (b *Builder) Discussion(history string) string {
	if history == "" {
		history = "(no statements yet - you speak first)"
	}
	return b.catalog.Getf("phase2.discuss", history)
}

// PrivateReasoning elicits the discarded private-deliberation step.
func (b *Builder) PrivateReasoning() string {
	return b.catalog.Get("phase2.reason")
}

// ReasonContext attaches a participant's private reflection to their
// statement prompt.
func (b *Builder) ReasonContext(reasoning string) string {
	return b.catalog.Getf("phase2.reason_context", reasoning)
}

// AgreementPoll asks whether the participant agrees to vote now.
func (b *Builder) AgreementPoll(proposer string) string {
	return b.catalog.Getf("phase2.agree", proposer)
}

// Ballot asks for a secret-ballot vote.
func (b *Builder) Ballot() string {
	return b.catalog.Get("phase2.ballot")
}

// NoConsensusNote renders a failed ballot for the public discussion log.
func (b *Builder) NoConsensusNote(vote justice.VoteResult) string {
	counts := make(map[string]int)
	for _, ballot := range vote.Ballots {
		counts[ballot.Choice.String()]++
	}
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s x%d", k, counts[k]))
	}
	return b.catalog.Getf("phase2.no_consensus", vote.Round, strings.Join(parts, ", "))
}

// ConsensusNote renders a successful ballot for the public discussion log.
func (b *Builder) ConsensusNote(vote justice.VoteResult) string {
	return b.catalog.Getf("phase2.consensus", vote.Round, vote.Agreed.String())
}

// AppliedResult summarizes a participant's Phase 2 payoff under the agreed
// principle, for the memory update.
func (b *Builder) AppliedResult(agreed justice.Choice, selected int, class justice.IncomeClass, income int, payoff float64, cf map[justice.Principle]float64) string {
	return b.catalog.Getf("phase2.result.applied",
		agreed.String(), selected+1, class, income, payoff, b.renderCounterfactuals(cf))
}

// RandomResult summarizes a participant's Phase 2 payoff when no consensus
// was reached, for the memory update.
func (b *Builder) RandomResult(selected int, class justice.IncomeClass, income int, payoff float64, cf map[justice.Principle]float64) string {
	return b.catalog.Getf("phase2.result.random",
		class, selected+1, income, payoff, b.renderCounterfactuals(cf))
}

// ParseRetry prefixes a prompt with a clarification after a parse failure.
func (b *Builder) ParseRetry(reason, original string) string {
	return b.catalog.Getf("parse.retry", reason) + "\n\n" + original
}

// EmptyStatementRetry nudges a participant whose statement was empty.
func (b *Builder) EmptyStatementRetry() string {
	return b.catalog.Get("statement.empty_retry")
}
