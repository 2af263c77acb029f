package experiment

import (
	"strings"
	"testing"

	"go.uber.org/goleak"

	"frohlich/internal/config"
	"frohlich/internal/i18n"
	"frohlich/internal/interpret"
	"frohlich/internal/llm/llmtest"
	"frohlich/internal/participant"
	"frohlich/internal/prompt"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m,
		goleak.IgnoreTopFunction("go.opencensus.io/stats/view.(*worker).start"))
}

const rankingJSON = `{"ranks":{"maximizing_floor":1,"maximizing_average":2,` +
	`"maximizing_average_floor_constraint":3,"maximizing_average_range_constraint":4},"certainty":"sure"}`

// newAgentClient scripts a cooperative participant through both phases.
// Reply markers (RANK_, CHOICE_, VOTE_) are picked up by the extractor
// client, which is where the typed answers come from.
func newAgentClient(name string) *llmtest.ScriptedClient {
	return llmtest.NewScriptedClient(
		llmtest.Rule{Contains: "think privately", Reply: "privately, I want the average maximized"},
		llmtest.Rule{Contains: "Four principles for choosing", Reply: "RANK_" + name},
		llmtest.Rule{Contains: "detailed explanation", Reply: "understood"},
		llmtest.Rule{Contains: "Choose the principle to apply", Reply: "CHOICE_" + name},
		llmtest.Rule{Contains: "applied these principles over several rounds", Reply: "RANK_" + name},
		llmtest.Rule{Contains: "It is your turn to speak", Reply: "I say we vote right now."},
		llmtest.Rule{Contains: "Do you agree to vote now", Reply: "yes, absolutely"},
		llmtest.Rule{Contains: "This ballot is secret", Reply: "VOTE_" + name},
		llmtest.Rule{Contains: "group phase is over", Reply: "RANK_" + name},
		llmtest.Rule{Contains: "Update your private notes", Reply: "my running notes"},
	)
}

// newExtractorClient scripts the semantic-extraction model. agreeVote maps
// a participant name to the JSON its ballot marker extracts to, so tests
// can split the group's votes.
func newExtractorClient(ballots map[string]string) *llmtest.ScriptedClient {
	c := llmtest.NewScriptedClient(
		llmtest.Rule{Contains: "RANK_", Reply: rankingJSON},
		llmtest.Rule{Contains: "CHOICE_", Reply: `{"principle":"maximizing_floor","constraint":null}`},
		llmtest.Rule{Contains: "I say we vote right now", Reply: `{"proposed":true,"summary":"vote now"}`},
		llmtest.Rule{Contains: "yes, absolutely", Reply: `{"answer":true}`},
	)
	for name, reply := range ballots {
		c.Push(llmtest.Rule{Contains: "VOTE_" + name, Reply: reply})
	}
	return c
}

func testRetry() config.RetryConfig {
	return config.RetryConfig{ParseAttempts: 3, MemoryAttempts: 3}
}

func newTestSession(name string, client *llmtest.ScriptedClient, reasoning bool) *participant.Session {
	cfg := config.ParticipantConfig{
		Name:        name,
		Personality: "test personality",
		MemoryLimit: 4000,
		Reasoning:   reasoning,
	}
	return participant.NewSession(cfg, client, i18n.NewCatalog("en"), testRetry(), nil)
}

func newTestInterp(extractor *llmtest.ScriptedClient) *interpret.Interpreter {
	return interpret.New(extractor, nil)
}

func newTestBuilder() *prompt.Builder {
	return prompt.NewBuilder(i18n.NewCatalog("en"))
}

func containsSubstring(haystack []string, needle string) bool {
	for _, s := range haystack {
		if strings.Contains(s, needle) {
			return true
		}
	}
	return false
}
