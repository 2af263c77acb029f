package prompt

import (
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"frohlich/internal/distribution"
	"frohlich/internal/i18n"
	"frohlich/internal/justice"
)

func testBuilder() *Builder {
	return NewBuilder(i18n.NewCatalog("en"))
}

func TestInitialRankingListsAllPrinciples(t *testing.T) {
	p := testBuilder().InitialRanking()
	assert.Contains(t, p, "floor income")
	assert.Contains(t, p, "average income")
	assert.Contains(t, p, "floor constraint")
	assert.Contains(t, p, "range constraint")
	assert.Contains(t, p, "very_sure")
}

func TestChooseRoundRendersAllDistributions(t *testing.T) {
	one := 1.0
	set := distribution.Generate(rand.New(rand.NewSource(1)), distribution.MultiplierRange{Fixed: &one})
	p := testBuilder().ChooseRound(set)

	for i := 1; i <= 4; i++ {
		assert.Contains(t, p, "Distribution "+string(rune('0'+i)))
	}
	assert.Contains(t, p, "$12000")
	assert.Contains(t, p, "$32000")
}

func TestRoundOutcomeMentionsCounterfactuals(t *testing.T) {
	cf := map[justice.Principle]float64{
		justice.FloorMax:               1.5,
		justice.AverageMax:             2.1,
		justice.AverageFloorConstraint: 1.5,
		justice.AverageRangeConstraint: 1.9,
	}
	p := testBuilder().RoundOutcome(justice.NewChoice(justice.FloorMax), 3, justice.ClassLow, 15000, 1.5, cf)
	assert.Contains(t, p, "$1.50")
	assert.Contains(t, p, "distribution 4")
	assert.Contains(t, p, "$2.10")
}

func TestNoConsensusNoteAggregatesVotes(t *testing.T) {
	vote := justice.Tally(2, []justice.Ballot{
		{Participant: "a", Choice: justice.NewChoice(justice.AverageMax)},
		{Participant: "b", Choice: justice.NewChoice(justice.AverageMax)},
		{Participant: "c", Choice: justice.NewChoice(justice.FloorMax)},
	})
	require.False(t, vote.Consensus)

	note := testBuilder().NoConsensusNote(vote)
	assert.Contains(t, note, "round 2")
	assert.Contains(t, note, "x2")
	assert.Contains(t, note, "x1")
}

func TestParseRetryKeepsOriginalPrompt(t *testing.T) {
	p := testBuilder().ParseRetry("the ranking had a tie", "Rank the principles.")
	assert.True(t, strings.Contains(p, "the ranking had a tie"))
	assert.True(t, strings.HasSuffix(p, "Rank the principles."))
}

func TestDiscussionHandlesEmptyHistory(t *testing.T) {
	p := testBuilder().Discussion("")
	assert.Contains(t, p, "you speak first")
}
