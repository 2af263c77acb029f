package experiment

import (
	"context"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"frohlich/internal/distribution"
	"frohlich/internal/justice"
	"frohlich/internal/llm/llmtest"
	"frohlich/internal/participant"
)

const floorChoiceJSON = `{"principle":"maximizing_floor","constraint":null}`

func newPhase2Controller(t *testing.T, sessions []*participant.Session, extractor *llmtest.ScriptedClient, maxRounds int, seed int64) *Phase2Controller {
	t.Helper()
	return NewPhase2Controller(sessions, newTestInterp(extractor), newTestBuilder(),
		distribution.MultiplierRange{Lo: 1, Hi: 1},
		distribution.DefaultClassWeights(),
		testRetry(), maxRounds, rand.New(rand.NewSource(seed)), nil)
}

func TestPhase2ConsensusFirstRound(t *testing.T) {
	extractor := newExtractorClient(map[string]string{
		"alice": floorChoiceJSON,
		"bob":   floorChoiceJSON,
		"carol": floorChoiceJSON,
	})
	sessions := []*participant.Session{
		newTestSession("alice", newAgentClient("alice"), false),
		newTestSession("bob", newAgentClient("bob"), false),
		// One participant with the private-reasoning step enabled, so the
		// reason-then-speak path runs inside a full deliberation.
		newTestSession("carol", newAgentClient("carol"), true),
	}

	ctrl := newPhase2Controller(t, sessions, extractor, 5, 21)
	res, err := ctrl.Run(context.Background())
	require.NoError(t, err)

	assert.True(t, res.Consensus)
	assert.Equal(t, 1, res.RoundsHeld)
	require.NotNil(t, res.Agreed)
	assert.Equal(t, justice.FloorMax, res.Agreed.Principle)

	// The first speaker proposes a vote, so exactly one statement plus the
	// moderator's consensus note make up the transcript.
	require.Len(t, res.Transcript, 2)
	assert.Equal(t, moderatorName, res.Transcript[1].Speaker)
	assert.Contains(t, res.Transcript[1].Text, "reached consensus")

	require.Len(t, res.Votes, 1)
	assert.True(t, res.Votes[0].Consensus)
	require.Len(t, res.Votes[0].Ballots, 3)

	require.NotNil(t, res.Set)
	require.Len(t, res.Payoffs, 3)
	for i, p := range res.Payoffs {
		assert.Equal(t, sessions[i].Name(), p.Participant)
		assert.Equal(t, justice.Payoff(p.Income), p.Payoff)
		assert.InDelta(t, p.Payoff, sessions[i].Balance(), 1e-9)
		require.Len(t, p.Counterfactual, 4)
		// Every counterfactual row shares the participant's class draw, so
		// the agreed principle's entry is the realized payoff.
		assert.InDelta(t, p.Payoff, p.Counterfactual[justice.FloorMax], 1e-9)
	}

	require.Len(t, res.FinalRankings, 3)
	for _, r := range res.FinalRankings {
		assert.Equal(t, "final", r.Stage)
		assert.NoError(t, r.Ranking.Validate())
	}
}

func TestPhase2NearMissBallotsExhaustRounds(t *testing.T) {
	// bob votes for the average while alice holds the floor line: every
	// ballot splits, rounds run out, and payoffs fall back to the random
	// assignment with no principle applied.
	extractor := newExtractorClient(map[string]string{
		"alice": floorChoiceJSON,
		"bob":   `{"principle":"maximizing_average","constraint":null}`,
	})
	sessions := []*participant.Session{
		newTestSession("alice", newAgentClient("alice"), false),
		newTestSession("bob", newAgentClient("bob"), false),
	}

	ctrl := newPhase2Controller(t, sessions, extractor, 2, 3)
	res, err := ctrl.Run(context.Background())
	require.NoError(t, err)

	assert.False(t, res.Consensus)
	assert.Nil(t, res.Agreed)
	assert.Equal(t, 2, res.RoundsHeld)

	// Every speaker proposes a vote and every ballot fails: two ballots per
	// round, none reaching consensus.
	require.Len(t, res.Votes, 4)
	for _, v := range res.Votes {
		assert.False(t, v.Consensus)
		assert.Nil(t, v.Agreed)
	}

	texts := make([]string, 0, len(res.Transcript))
	for _, s := range res.Transcript {
		texts = append(texts, s.Text)
	}
	assert.True(t, containsSubstring(texts, "did not reach consensus"))

	require.Len(t, res.Payoffs, 2)
	for i, p := range res.Payoffs {
		assert.True(t, p.AssignedClass.Valid())
		assert.Equal(t, justice.Payoff(p.Income), p.Payoff)
		assert.InDelta(t, p.Payoff, sessions[i].Balance(), 1e-9)
	}
}

func TestPhase2ConstrainedNearMissSplitsBallot(t *testing.T) {
	// Identical principle, constraint off by one dollar: consensus demands
	// exact agreement, so this ballot must split.
	extractor := newExtractorClient(map[string]string{
		"alice": `{"principle":"maximizing_average_floor_constraint","constraint":13000}`,
		"bob":   `{"principle":"maximizing_average_floor_constraint","constraint":13001}`,
	})
	sessions := []*participant.Session{
		newTestSession("alice", newAgentClient("alice"), false),
		newTestSession("bob", newAgentClient("bob"), false),
	}

	ctrl := newPhase2Controller(t, sessions, extractor, 1, 5)
	res, err := ctrl.Run(context.Background())
	require.NoError(t, err)

	assert.False(t, res.Consensus)
	require.NotEmpty(t, res.Votes)
	assert.False(t, res.Votes[0].Consensus)
}

func TestPhase2AgreementNotUnanimousSkipsBallot(t *testing.T) {
	// bob refuses every vote proposal: no ballot is ever conducted and the
	// phase ends by round exhaustion.
	bobClient := llmtest.NewScriptedClient(
		llmtest.Rule{Contains: "It is your turn to speak", Reply: "I am not convinced yet. Let us keep talking."},
		llmtest.Rule{Contains: "Do you agree to vote now", Reply: "no way"},
		llmtest.Rule{Contains: "group phase is over", Reply: "RANK_bob"},
		llmtest.Rule{Contains: "Update your private notes", Reply: "bob notes"},
	)
	extractor := newExtractorClient(nil)
	extractor.Push(llmtest.Rule{Contains: "no way", Reply: `{"answer":false}`})
	extractor.Push(llmtest.Rule{Contains: "not convinced yet", Reply: `{"proposed":false,"summary":""}`})

	sessions := []*participant.Session{
		newTestSession("alice", newAgentClient("alice"), false),
		newTestSession("bob", bobClient, false),
	}

	ctrl := newPhase2Controller(t, sessions, extractor, 2, 9)
	res, err := ctrl.Run(context.Background())
	require.NoError(t, err)

	assert.False(t, res.Consensus)
	assert.Empty(t, res.Votes)
	assert.Equal(t, 2, res.RoundsHeld)
	require.Len(t, res.Payoffs, 2)
}

func TestPhase2EmptyStatementRetried(t *testing.T) {
	// alice's first answer is empty; the retry produces a real statement and
	// the round proceeds normally.
	aliceClient := llmtest.NewScriptedClient(
		llmtest.Rule{Contains: "Your statement was empty", Reply: "Fine. I support the floor principle."},
		llmtest.Rule{Contains: "It is your turn to speak", Reply: "   "},
		llmtest.Rule{Contains: "It is your turn to speak", Reply: "I still support the floor principle."},
		llmtest.Rule{Contains: "group phase is over", Reply: "RANK_alice"},
		llmtest.Rule{Contains: "Update your private notes", Reply: "alice notes"},
	)
	bobClient := llmtest.NewScriptedClient(
		llmtest.Rule{Contains: "It is your turn to speak", Reply: "The average matters more to me."},
		llmtest.Rule{Contains: "group phase is over", Reply: "RANK_bob"},
		llmtest.Rule{Contains: "Update your private notes", Reply: "bob notes"},
	)
	extractor := newExtractorClient(nil)
	extractor.Push(llmtest.Rule{Contains: "floor principle", Reply: `{"proposed":false,"summary":""}`})
	extractor.Push(llmtest.Rule{Contains: "average matters", Reply: `{"proposed":false,"summary":""}`})

	sessions := []*participant.Session{
		newTestSession("alice", aliceClient, false),
		newTestSession("bob", bobClient, false),
	}

	ctrl := newPhase2Controller(t, sessions, extractor, 1, 13)
	res, err := ctrl.Run(context.Background())
	require.NoError(t, err)

	texts := make([]string, 0, len(res.Transcript))
	for _, s := range res.Transcript {
		texts = append(texts, s.Text)
	}
	assert.True(t, containsSubstring(texts, "Fine. I support the floor principle."))
	assert.False(t, containsSubstring(texts, noStatement))
}

func TestPhase2DegenerateTurnAccepted(t *testing.T) {
	// alice never produces a statement: after the one retry her turn is
	// recorded as degenerate and the round moves on instead of aborting.
	aliceClient := llmtest.NewScriptedClient(
		llmtest.Rule{Contains: "Your statement was empty", Reply: ""},
		llmtest.Rule{Contains: "It is your turn to speak", Reply: ""},
		llmtest.Rule{Contains: "group phase is over", Reply: "RANK_alice"},
		llmtest.Rule{Contains: "Update your private notes", Reply: "alice notes"},
	)
	bobClient := llmtest.NewScriptedClient(
		llmtest.Rule{Contains: "It is your turn to speak", Reply: "Quiet room today."},
		llmtest.Rule{Contains: "group phase is over", Reply: "RANK_bob"},
		llmtest.Rule{Contains: "Update your private notes", Reply: "bob notes"},
	)
	extractor := newExtractorClient(nil)
	extractor.Push(llmtest.Rule{Contains: "Quiet room", Reply: `{"proposed":false,"summary":""}`})

	sessions := []*participant.Session{
		newTestSession("alice", aliceClient, false),
		newTestSession("bob", bobClient, false),
	}

	ctrl := newPhase2Controller(t, sessions, extractor, 1, 17)
	res, err := ctrl.Run(context.Background())
	require.NoError(t, err)

	texts := make([]string, 0, len(res.Transcript))
	for _, s := range res.Transcript {
		texts = append(texts, s.Text)
	}
	assert.True(t, containsSubstring(texts, noStatement))
	assert.Empty(t, res.Votes)
}

func TestPhase2RejectsSingleParticipant(t *testing.T) {
	sessions := []*participant.Session{
		newTestSession("alone", newAgentClient("alone"), false),
	}
	ctrl := newPhase2Controller(t, sessions, newExtractorClient(nil), 1, 1)
	_, err := ctrl.Run(context.Background())
	require.Error(t, err)
}
