package experiment

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"frohlich/internal/config"
	"frohlich/internal/distribution"
	"frohlich/internal/llm"
	"frohlich/internal/llm/llmtest"
)

func coordinatorConfig(names ...string) config.Config {
	cfg := config.Default()
	cfg.Experiment.Seed = 99
	cfg.Experiment.Phase2MaxRounds = 3
	cfg.Retry = config.RetryConfig{ParseAttempts: 3, MemoryAttempts: 3}
	for _, name := range names {
		cfg.Participants = append(cfg.Participants, config.ParticipantConfig{
			Name:        name,
			Personality: name + " personality",
			MemoryLimit: 4000,
		})
	}
	return cfg
}

func scriptedFactory(clients map[string]llm.Client) ClientFactory {
	return func(ctx context.Context, p config.ParticipantConfig) (llm.Client, error) {
		return clients[p.Name], nil
	}
}

func TestCoordinatorFullRun(t *testing.T) {
	extractor := newExtractorClient(map[string]string{
		"alice": floorChoiceJSON,
		"bob":   floorChoiceJSON,
	})
	factory := scriptedFactory(map[string]llm.Client{
		"alice": newAgentClient("alice"),
		"bob":   newAgentClient("bob"),
	})

	coord := NewCoordinator(coordinatorConfig("alice", "bob"), factory, extractor, nil)
	record, err := coord.Run(context.Background())
	require.NoError(t, err)

	assert.NotEmpty(t, record.RunID)
	assert.Equal(t, "en", record.Language)
	assert.Equal(t, int64(99), record.Seed)
	assert.False(t, record.Incomplete)
	assert.Empty(t, record.Failures)
	assert.False(t, record.FinishedAt.Before(record.StartedAt))

	require.Len(t, record.Phase1, 2)
	for _, res := range record.Phase1 {
		assert.False(t, res.Failed)
		require.NotNil(t, res.InitialRanking)
		require.NotNil(t, res.FinalRanking)
		require.Len(t, res.Rounds, 4)
	}

	require.NotNil(t, record.Phase2)
	assert.True(t, record.Phase2.Consensus)
	require.Len(t, record.Phase2.Payoffs, 2)
	require.Len(t, record.Phase2.FinalRankings, 2)

	// Final balance is the sum of every payoff the participant earned across
	// both phases, nothing more.
	for _, name := range []string{"alice", "bob"} {
		var expected float64
		for _, res := range record.Phase1 {
			if res.Participant != name {
				continue
			}
			for _, round := range res.Rounds {
				expected += round.Payoff
			}
		}
		for _, p := range record.Phase2.Payoffs {
			if p.Participant == name {
				expected += p.Payoff
			}
		}
		assert.InDelta(t, expected, record.FinalBalances[name], 1e-9, name)
	}
}

func TestCoordinatorPhase2SkippedWhenTooFewSurvive(t *testing.T) {
	// bob's memory rewrites never fit, so he fails Phase 1 and only alice
	// survives. Phase 2 cannot run with one participant and the record must
	// say so instead of pretending the run was clean.
	longNotes := strings.Repeat("x", 5000)
	bobClient := llmtest.NewScriptedClient(
		llmtest.Rule{Contains: "Four principles for choosing", Reply: "RANK_bob"},
		llmtest.Rule{Contains: "Update your private notes", Reply: longNotes},
		llmtest.Rule{Contains: "Shorten them", Reply: longNotes},
	)
	extractor := newExtractorClient(nil)
	factory := scriptedFactory(map[string]llm.Client{
		"alice": newAgentClient("alice"),
		"bob":   bobClient,
	})

	coord := NewCoordinator(coordinatorConfig("alice", "bob"), factory, extractor, nil)
	record, err := coord.Run(context.Background())
	require.NoError(t, err)

	assert.True(t, record.Incomplete)
	assert.Nil(t, record.Phase2)
	require.Len(t, record.Failures, 2)
	assert.Contains(t, record.Failures[0], "bob")
	assert.Contains(t, record.Failures[1], "skipped")

	// alice's Phase 1 results and balance are intact regardless.
	assert.False(t, record.Phase1[0].Failed)
	assert.Greater(t, record.FinalBalances["alice"], 0.0)
	assert.Zero(t, record.FinalBalances["bob"])
}

func TestCoordinatorSurvivorsProceedToPhase2(t *testing.T) {
	// With three participants and one Phase 1 failure, the remaining two
	// still deliberate. The failed participant appears in neither the
	// transcript nor the payoff list.
	longNotes := strings.Repeat("x", 5000)
	carolClient := llmtest.NewScriptedClient(
		llmtest.Rule{Contains: "Four principles for choosing", Reply: "RANK_carol"},
		llmtest.Rule{Contains: "Update your private notes", Reply: longNotes},
		llmtest.Rule{Contains: "Shorten them", Reply: longNotes},
	)
	extractor := newExtractorClient(map[string]string{
		"alice": floorChoiceJSON,
		"bob":   floorChoiceJSON,
	})
	factory := scriptedFactory(map[string]llm.Client{
		"alice": newAgentClient("alice"),
		"bob":   newAgentClient("bob"),
		"carol": carolClient,
	})

	coord := NewCoordinator(coordinatorConfig("alice", "bob", "carol"), factory, extractor, nil)
	record, err := coord.Run(context.Background())
	require.NoError(t, err)

	assert.True(t, record.Incomplete)
	require.Len(t, record.Failures, 1)
	assert.Contains(t, record.Failures[0], "carol")

	require.NotNil(t, record.Phase2)
	assert.True(t, record.Phase2.Consensus)
	require.Len(t, record.Phase2.Payoffs, 2)
	for _, p := range record.Phase2.Payoffs {
		assert.NotEqual(t, "carol", p.Participant)
	}
	for _, s := range record.Phase2.Transcript {
		assert.NotEqual(t, "carol", s.Speaker)
	}
}

func TestCoordinatorZeroSeedDrawsFromClock(t *testing.T) {
	cfg := coordinatorConfig("alice", "bob")
	cfg.Experiment.Seed = 0
	cfg.Experiment.Phase1Multiplier = distribution.MultiplierRange{Lo: 1, Hi: 1}

	extractor := newExtractorClient(map[string]string{
		"alice": floorChoiceJSON,
		"bob":   floorChoiceJSON,
	})
	factory := scriptedFactory(map[string]llm.Client{
		"alice": newAgentClient("alice"),
		"bob":   newAgentClient("bob"),
	})

	coord := NewCoordinator(cfg, factory, extractor, nil)
	record, err := coord.Run(context.Background())
	require.NoError(t, err)
	assert.NotZero(t, record.Seed)
}
