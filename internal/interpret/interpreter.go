// Package interpret turns a participant's free-text answer into typed
// experimental data: principle rankings, principle choices, votes, yes/no
// answers, and vote-proposal detection.
//
// Semantic extraction is delegated to a language model: the interpreter asks
// it to restate the participant's answer as strict JSON, scans the reply for
// JSON candidates, and validates the decoded value before returning it.
// Invalid or undecodable answers surface as *ParseFailure so callers can
// re-prompt the participant with the reason.
package interpret

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"frohlich/internal/justice"
	"frohlich/internal/llm"
)

// ParseFailure reports that an answer could not be turned into a valid typed
// value. Reason is human-readable and is shown to the participant on retry.
type ParseFailure struct {
	Reason string
}

func (e *ParseFailure) Error() string {
	return "parse failure: " + e.Reason
}

func failf(format string, args ...any) *ParseFailure {
	return &ParseFailure{Reason: fmt.Sprintf(format, args...)}
}

// Interpreter extracts typed decisions from free-form answers.
type Interpreter struct {
	client llm.Client
	logger *zap.Logger
}

// New builds an Interpreter on the given extraction-capable client.
func New(client llm.Client, logger *zap.Logger) *Interpreter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Interpreter{client: client, logger: logger}
}

const extractorSystemPrompt = "You are a strict data extraction engine. " +
	"You are given a participant's answer from an economics experiment and a JSON schema. " +
	"Restate what the participant decided as a single JSON object matching the schema exactly. " +
	"Do not invent values the participant did not state. Output only the JSON object."

// extract asks the model for JSON and decodes the first candidate that
// unmarshals into out.
func (i *Interpreter) extract(ctx context.Context, schema, text string, out any) error {
	prompt := fmt.Sprintf("Schema:\n%s\n\nParticipant answer:\n%s", schema, text)
	reply, err := i.client.CompleteWithSystem(ctx, extractorSystemPrompt, prompt)
	if err != nil {
		return fmt.Errorf("extraction call failed: %w", err)
	}

	candidates := findJSONCandidates(reply)
	if len(candidates) == 0 {
		return failf("the answer could not be restated as structured data")
	}
	var lastErr error
	for _, cand := range candidates {
		if err := json.Unmarshal([]byte(cand), out); err != nil {
			lastErr = err
			continue
		}
		return nil
	}
	i.logger.Debug("no JSON candidate decoded", zap.Int("candidates", len(candidates)), zap.Error(lastErr))
	return failf("the structured restatement was malformed")
}

// --- ranking ---

type rankingDTO struct {
	Ranks     map[string]int `json:"ranks"`
	Certainty string         `json:"certainty"`
}

const rankingSchema = `{
  "ranks": {
    "maximizing_floor": <1-4>,
    "maximizing_average": <1-4>,
    "maximizing_average_floor_constraint": <1-4>,
    "maximizing_average_range_constraint": <1-4>
  },
  "certainty": "very_unsure|unsure|no_opinion|sure|very_sure"
}`

// ParseRanking extracts a strict total order over the four principles plus a
// certainty level.
func (i *Interpreter) ParseRanking(ctx context.Context, text string) (justice.Ranking, error) {
	var dto rankingDTO
	if err := i.extract(ctx, rankingSchema, text, &dto); err != nil {
		return justice.Ranking{}, err
	}

	ranking := justice.Ranking{
		Ranks:     make(map[justice.Principle]int, len(dto.Ranks)),
		Certainty: justice.Certainty(dto.Certainty),
	}
	for name, rank := range dto.Ranks {
		ranking.Ranks[justice.Principle(name)] = rank
	}
	if err := ranking.Validate(); err != nil {
		return justice.Ranking{}, failf("the ranking was invalid: %v", err)
	}
	return ranking, nil
}

// --- choice / vote ---

type choiceDTO struct {
	Principle  string `json:"principle"`
	Constraint *int   `json:"constraint"`
}

const choiceSchema = `{
  "principle": "maximizing_floor|maximizing_average|maximizing_average_floor_constraint|maximizing_average_range_constraint",
  "constraint": <dollar amount, REQUIRED for the two constrained principles, null otherwise>
}`

// ParseChoice extracts a principle choice with its constraint amount.
func (i *Interpreter) ParseChoice(ctx context.Context, text string) (justice.Choice, error) {
	var dto choiceDTO
	if err := i.extract(ctx, choiceSchema, text, &dto); err != nil {
		return justice.Choice{}, err
	}

	choice := justice.Choice{
		Principle:  justice.Principle(dto.Principle),
		Constraint: dto.Constraint,
	}
	// Models occasionally attach a spurious amount to an unconstrained
	// principle; drop it rather than bouncing the answer back.
	if choice.Principle.Valid() && !choice.Principle.RequiresConstraint() {
		choice.Constraint = nil
	}
	if err := choice.Validate(); err != nil {
		return justice.Choice{}, failf("the choice was invalid: %v", err)
	}
	return choice, nil
}

// ParseVote extracts a secret-ballot vote. Same shape and validity rules as
// a choice.
func (i *Interpreter) ParseVote(ctx context.Context, text string) (justice.Choice, error) {
	return i.ParseChoice(ctx, text)
}

// --- yes/no ---

type yesNoDTO struct {
	Answer *bool `json:"answer"`
}

const yesNoSchema = `{"answer": <true if the participant agrees, false if not>}`

// ParseYesNo extracts a yes/no answer.
func (i *Interpreter) ParseYesNo(ctx context.Context, text string) (bool, error) {
	var dto yesNoDTO
	if err := i.extract(ctx, yesNoSchema, text, &dto); err != nil {
		return false, err
	}
	if dto.Answer == nil {
		return false, failf("the answer was neither a clear yes nor a clear no")
	}
	return *dto.Answer, nil
}

// --- vote proposal detection ---

// Proposal summarizes a detected call to vote.
type Proposal struct {
	Summary string `json:"summary"`
}

type proposalDTO struct {
	Proposed bool   `json:"proposed"`
	Summary  string `json:"summary"`
}

const proposalSchema = `{
  "proposed": <true if the statement proposes, suggests, or asks that the group vote or decide now - when unsure, lean towards true>,
  "summary": "<one sentence restating the proposal, empty if none>"
}`

// DetectVoteProposal reports whether a public statement proposes that the
// group vote now. Every statement goes to the extractor: proposals are often
// phrased without any voting vocabulary, and a missed one stalls the group
// forever while a spurious one only costs one agreement poll. Extraction
// errors count as proposals for the same reason.
func (i *Interpreter) DetectVoteProposal(ctx context.Context, statement string) *Proposal {
	var dto proposalDTO
	if err := i.extract(ctx, proposalSchema, statement, &dto); err != nil {
		i.logger.Warn("vote-proposal detection failed, assuming proposal",
			zap.Error(err))
		return &Proposal{Summary: statement}
	}
	if !dto.Proposed {
		return nil
	}
	summary := dto.Summary
	if summary == "" {
		summary = statement
	}
	return &Proposal{Summary: summary}
}
