package experiment

import (
	"context"
	"fmt"
	"math/rand"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"frohlich/internal/config"
	"frohlich/internal/distribution"
	"frohlich/internal/interpret"
	"frohlich/internal/justice"
	"frohlich/internal/participant"
	"frohlich/internal/prompt"
	"frohlich/internal/results"
)

// noStatement is recorded when a participant produces nothing twice in a
// row. The round keeps moving; the anomaly is logged at Error level.
const noStatement = "[no statement]"

// Phase2Controller runs the sequential group deliberation to consensus or
// round exhaustion. Turns within a round are strictly sequential - every
// statement must see all prior statements - while agreement polls and
// secret ballots fan out to all participants in parallel.
//
// Unlike Phase 1, a fatal error here aborts the whole phase: the discussion
// cannot meaningfully continue with a participant in an undefined state.
type Phase2Controller struct {
	sessions  []*participant.Session
	interp    *interpret.Interpreter
	builder   *prompt.Builder
	mult      distribution.MultiplierRange
	weights   distribution.ClassWeights
	retry     config.RetryConfig
	maxRounds int
	rng       *rand.Rand
	logger    *zap.Logger
}

// NewPhase2Controller wires the controller.
func NewPhase2Controller(
	sessions []*participant.Session,
	interp *interpret.Interpreter,
	builder *prompt.Builder,
	mult distribution.MultiplierRange,
	weights distribution.ClassWeights,
	retry config.RetryConfig,
	maxRounds int,
	rng *rand.Rand,
	logger *zap.Logger,
) *Phase2Controller {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Phase2Controller{
		sessions:  sessions,
		interp:    interp,
		builder:   builder,
		mult:      mult,
		weights:   weights,
		retry:     retry,
		maxRounds: maxRounds,
		rng:       rng,
		logger:    logger,
	}
}

// Run executes the deliberation, resolves payoffs, and collects final
// rankings.
func (c *Phase2Controller) Run(ctx context.Context) (*results.Phase2Result, error) {
	if len(c.sessions) < 2 {
		return nil, fmt.Errorf("phase 2 needs at least 2 participants, have %d", len(c.sessions))
	}

	state := &discussion{}
	res := &results.Phase2Result{}
	lastSpeaker := -1

	for round := 1; round <= c.maxRounds; round++ {
		res.RoundsHeld = round
		order := speakingOrder(c.rng, len(c.sessions), lastSpeaker)
		lastSpeaker = order[len(order)-1]

		agreed, err := c.runRound(ctx, round, order, state)
		if err != nil {
			return nil, err
		}
		if agreed != nil {
			res.Consensus = true
			res.Agreed = agreed
			break
		}
	}

	res.Transcript = state.statements
	res.Votes = state.votes

	if err := c.resolvePayoffs(ctx, res); err != nil {
		return nil, err
	}
	if err := c.collectFinalRankings(ctx, res); err != nil {
		return nil, err
	}
	return res, nil
}

// runRound runs one discussion round: each participant speaks in order, and
// any detected vote proposal triggers an agreement poll and possibly a
// ballot. Returns the agreed choice when a ballot reaches consensus.
func (c *Phase2Controller) runRound(ctx context.Context, round int, order []int, state *discussion) (*justice.Choice, error) {
	for _, idx := range order {
		s := c.sessions[idx]
		s.SetPosition(2, round)

		statement, err := c.elicitStatement(ctx, s, state)
		if err != nil {
			return nil, err
		}
		state.append(round, s.Name(), statement)
		c.logger.Info("statement",
			zap.Int("round", round),
			zap.String("speaker", s.Name()))

		if statement == noStatement {
			continue
		}
		proposal := c.interp.DetectVoteProposal(ctx, statement)
		if proposal == nil {
			continue
		}
		c.logger.Info("vote proposal detected",
			zap.String("proposer", s.Name()),
			zap.String("summary", proposal.Summary))

		unanimous, err := c.pollAgreement(ctx, s.Name())
		if err != nil {
			return nil, err
		}
		if !unanimous {
			c.logger.Info("agreement to vote not unanimous, discussion continues")
			continue
		}

		vote, err := c.conductBallot(ctx, round)
		if err != nil {
			return nil, err
		}
		state.recordVote(vote)

		var note string
		if vote.Consensus {
			note = c.builder.ConsensusNote(vote)
		} else {
			note = c.builder.NoConsensusNote(vote)
		}
		state.append(round, moderatorName, note)
		if err := c.broadcastMemory(ctx, note); err != nil {
			return nil, err
		}

		if vote.Consensus {
			c.logger.Info("consensus reached",
				zap.Int("round", round),
				zap.String("agreed", vote.Agreed.String()))
			return vote.Agreed, nil
		}
		c.logger.Info("ballot failed, discussion continues", zap.Int("round", round))
	}
	return nil, nil
}

// elicitStatement gets one public statement, optionally conditioned on a
// discarded private-reasoning step. Empty statements are re-prompted once;
// a second empty answer is accepted as a degenerate turn and logged as an
// anomaly rather than crashing the round.
func (c *Phase2Controller) elicitStatement(ctx context.Context, s *participant.Session, state *discussion) (string, error) {
	history := state.render()
	basePrompt := c.builder.Discussion(history)

	p := basePrompt
	if s.Reasoning() {
		reasoning, err := s.Ask(ctx, basePrompt+"\n\n"+c.builder.PrivateReasoning())
		if err != nil {
			return "", err
		}
		// The reasoning conditions the public statement and is then
		// discarded: never persisted, never shown to the group.
		p = basePrompt + "\n\n" + c.builder.ReasonContext(reasoning)
	}

	statement, err := s.Ask(ctx, p)
	if err != nil {
		return "", err
	}
	if text := strings.TrimSpace(statement); text != "" {
		return text, nil
	}

	c.logger.Warn("empty statement, re-prompting", zap.String("participant", s.Name()))
	statement, err = s.Ask(ctx, c.builder.EmptyStatementRetry()+"\n\n"+p)
	if err != nil {
		return "", err
	}
	if text := strings.TrimSpace(statement); text != "" {
		return text, nil
	}

	c.logger.Error("participant produced no statement twice, accepting degenerate turn",
		zap.String("participant", s.Name()))
	return noStatement, nil
}

// pollAgreement asks every participant, in parallel, whether to vote now.
// Requires unanimity.
func (c *Phase2Controller) pollAgreement(ctx context.Context, proposer string) (bool, error) {
	answers := make([]bool, len(c.sessions))

	g, gctx := errgroup.WithContext(ctx)
	for i, s := range c.sessions {
		g.Go(func() error {
			yes, err := askParse(gctx, s, c.builder, c.builder.AgreementPoll(proposer),
				c.retry.ParseAttempts, c.logger, c.interp.ParseYesNo)
			if err != nil {
				return err
			}
			answers[i] = yes
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return false, fmt.Errorf("agreement poll failed: %w", err)
	}

	for _, yes := range answers {
		if !yes {
			return false, nil
		}
	}
	return true, nil
}

// conductBallot collects a secret ballot from every participant in parallel
// and tallies it for exact consensus.
func (c *Phase2Controller) conductBallot(ctx context.Context, round int) (justice.VoteResult, error) {
	ballots := make([]justice.Ballot, len(c.sessions))

	g, gctx := errgroup.WithContext(ctx)
	for i, s := range c.sessions {
		g.Go(func() error {
			choice, err := askParse(gctx, s, c.builder, c.builder.Ballot(),
				c.retry.ParseAttempts, c.logger, c.interp.ParseVote)
			if err != nil {
				return err
			}
			ballots[i] = justice.Ballot{Participant: s.Name(), Choice: choice}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return justice.VoteResult{}, fmt.Errorf("ballot failed: %w", err)
	}
	return justice.Tally(round, ballots), nil
}

// broadcastMemory updates every participant's memory with a public event,
// in parallel.
func (c *Phase2Controller) broadcastMemory(ctx context.Context, event string) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, s := range c.sessions {
		g.Go(func() error {
			return s.UpdateMemory(gctx, event)
		})
	}
	return g.Wait()
}

// resolvePayoffs generates the fresh Phase 2 distribution set and credits
// every participant. On consensus the agreed principle selects one
// distribution and each participant gets an independent class draw; with no
// consensus, each participant gets a uniformly random distribution and a
// uniformly random class within it, no principle applied. Either way the
// counterfactual table is computed against the participant's own draw.
func (c *Phase2Controller) resolvePayoffs(ctx context.Context, res *results.Phase2Result) error {
	set := distribution.Generate(c.rng, c.mult)
	res.Set = &set

	classes := justice.IncomeClasses()
	for _, s := range c.sessions {
		var (
			selected int
			class    justice.IncomeClass
			cfAmount *int
			summary  string
		)

		if res.Consensus {
			selected, _ = distribution.ApplyPrinciple(set, *res.Agreed, c.weights)
			class = distribution.DrawClass(c.rng, c.weights)
			cfAmount = res.Agreed.Constraint
		} else {
			selected = c.rng.Intn(len(set.Distributions))
			class = classes[c.rng.Intn(len(classes))]
		}

		income := set.Distributions[selected].Income(class)
		payoff := justice.Payoff(income)
		cf := distribution.Counterfactuals(set, class, cfAmount, c.weights)
		s.Credit(payoff)

		if res.Consensus {
			summary = c.builder.AppliedResult(*res.Agreed, selected, class, income, payoff, cf)
		} else {
			summary = c.builder.RandomResult(selected, class, income, payoff, cf)
		}
		if err := s.UpdateMemory(ctx, summary); err != nil {
			return err
		}

		res.Payoffs = append(res.Payoffs, results.Phase2Payoff{
			Participant:       s.Name(),
			DistributionIndex: selected,
			AssignedClass:     class,
			Income:            income,
			Payoff:            payoff,
			Counterfactual:    cf,
		})
		c.logger.Info("phase 2 payoff",
			zap.String("participant", s.Name()),
			zap.String("class", string(class)),
			zap.Float64("payoff", payoff))
	}
	return nil
}

// collectFinalRankings gathers the post-experiment ranking from every
// participant in parallel.
func (c *Phase2Controller) collectFinalRankings(ctx context.Context, res *results.Phase2Result) error {
	rankings := make([]results.RankingRecord, len(c.sessions))

	g, gctx := errgroup.WithContext(ctx)
	for i, s := range c.sessions {
		g.Go(func() error {
			ranking, err := askParse(gctx, s, c.builder, c.builder.FinalRankingPhase2(),
				c.retry.ParseAttempts, c.logger, c.interp.ParseRanking)
			if err != nil {
				return err
			}
			rankings[i] = results.RankingRecord{
				Participant: s.Name(),
				Stage:       "final",
				Ranking:     ranking,
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("final ranking collection failed: %w", err)
	}
	res.FinalRankings = rankings
	return nil
}
