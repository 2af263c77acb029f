package experiment

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"frohlich/internal/distribution"
	"frohlich/internal/justice"
	"frohlich/internal/llm/llmtest"
	"frohlich/internal/participant"
)

func TestPhase1FullSequence(t *testing.T) {
	extractor := newExtractorClient(nil)
	alice := newTestSession("alice", newAgentClient("alice"), false)
	bob := newTestSession("bob", newAgentClient("bob"), false)

	ctrl := NewPhase1Controller(
		[]*participant.Session{alice, bob},
		newTestInterp(extractor), newTestBuilder(),
		distribution.MultiplierRange{Lo: 0.9, Hi: 1.1},
		distribution.DefaultClassWeights(),
		testRetry(), 42, nil)

	out := ctrl.Run(context.Background())
	require.Len(t, out, 2)

	for _, res := range out {
		assert.False(t, res.Failed, "participant %s failed: %s", res.Participant, res.FailureReason)
		require.NotNil(t, res.InitialRanking)
		require.NotNil(t, res.FinalRanking)
		require.Len(t, res.Rounds, 4)

		var total float64
		for _, round := range res.Rounds {
			assert.Equal(t, justice.FloorMax, round.Choice.Principle)
			assert.True(t, round.AssignedClass.Valid())
			assert.GreaterOrEqual(t, round.Payoff, 0.0)
			assert.Equal(t, justice.Payoff(round.Income), round.Payoff)
			require.Len(t, round.Counterfactual, 4)
			// The realized payoff must equal the counterfactual entry for
			// the chosen principle: same class, same rule.
			assert.InDelta(t, round.Payoff, round.Counterfactual[round.Choice.Principle], 1e-9)
			total += round.Payoff
		}

		// Bank balance equals the sum of round payoffs and never decreased.
		session := alice
		if res.Participant == "bob" {
			session = bob
		}
		assert.InDelta(t, total, session.Balance(), 1e-9)
		assert.NotEmpty(t, session.Memory())
	}
}

func TestPhase1FailureIsolation(t *testing.T) {
	extractor := newExtractorClient(nil)

	// bob's memory rewrites never fit the limit: he must fail fatally
	// while alice completes untouched.
	longNotes := strings.Repeat("x", 5000)
	bobClient := llmtest.NewScriptedClient(
		llmtest.Rule{Contains: "Four principles for choosing", Reply: "RANK_bob"},
		llmtest.Rule{Contains: "Update your private notes", Reply: longNotes},
		llmtest.Rule{Contains: "Shorten them", Reply: longNotes},
	)
	alice := newTestSession("alice", newAgentClient("alice"), false)
	bob := newTestSession("bob", bobClient, false)

	ctrl := NewPhase1Controller(
		[]*participant.Session{alice, bob},
		newTestInterp(extractor), newTestBuilder(),
		distribution.MultiplierRange{Lo: 1, Hi: 1},
		distribution.DefaultClassWeights(),
		testRetry(), 7, nil)

	out := ctrl.Run(context.Background())
	require.Len(t, out, 2)

	assert.False(t, out[0].Failed)
	require.Len(t, out[0].Rounds, 4)

	assert.True(t, out[1].Failed)
	assert.Contains(t, out[1].FailureReason, "memory")
	assert.Empty(t, out[1].Rounds)
}

func TestPhase1ParseRetryThenSuccess(t *testing.T) {
	// First choice answer extracts to an invalid choice (constraint
	// missing); the re-prompt carries the reason and the second answer
	// succeeds.
	extractor := llmtest.NewScriptedClient(
		llmtest.Rule{Contains: "RANK_", Reply: rankingJSON},
		llmtest.Rule{Contains: "CHOICE_first", Reply: `{"principle":"maximizing_average_floor_constraint","constraint":null}`},
		llmtest.Rule{Contains: "CHOICE_retry", Reply: `{"principle":"maximizing_average_floor_constraint","constraint":13000}`},
	)
	agent := llmtest.NewScriptedClient(
		llmtest.Rule{Contains: "Four principles for choosing", Reply: "RANK_carol"},
		llmtest.Rule{Contains: "detailed explanation", Reply: "ok"},
		llmtest.Rule{Contains: "could not be used", Reply: "CHOICE_retry"},
		llmtest.Rule{Contains: "Choose the principle to apply", Reply: "CHOICE_first"},
		llmtest.Rule{Contains: "applied these principles over several rounds", Reply: "RANK_carol"},
		llmtest.Rule{Contains: "Update your private notes", Reply: "notes"},
	)
	carol := newTestSession("carol", agent, false)

	ctrl := NewPhase1Controller(
		[]*participant.Session{carol},
		newTestInterp(extractor), newTestBuilder(),
		distribution.MultiplierRange{Lo: 1, Hi: 1},
		distribution.DefaultClassWeights(),
		testRetry(), 11, nil)

	out := ctrl.Run(context.Background())
	require.Len(t, out, 1)
	carolRes := out[0]

	assert.False(t, carolRes.Failed, carolRes.FailureReason)
	require.Len(t, carolRes.Rounds, 4)
	for _, round := range carolRes.Rounds {
		require.NotNil(t, round.Choice.Constraint)
		assert.Equal(t, 13000, *round.Choice.Constraint)
	}
}
