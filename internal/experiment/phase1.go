package experiment

import (
	"context"
	"math/rand"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"frohlich/internal/config"
	"frohlich/internal/distribution"
	"frohlich/internal/interpret"
	"frohlich/internal/participant"
	"frohlich/internal/prompt"
	"frohlich/internal/results"
)

// phase1Rounds is the fixed number of application rounds every participant
// plays individually.
const phase1Rounds = 4

// Phase1Controller runs the individual-learning sequence for every
// participant in parallel. Participants share no mutable state in this
// phase; each goroutine owns one session and one RNG.
type Phase1Controller struct {
	sessions []*participant.Session
	interp   *interpret.Interpreter
	builder  *prompt.Builder
	mult     distribution.MultiplierRange
	weights  distribution.ClassWeights
	retry    config.RetryConfig
	seed     int64
	logger   *zap.Logger
}

// NewPhase1Controller wires the controller.
func NewPhase1Controller(
	sessions []*participant.Session,
	interp *interpret.Interpreter,
	builder *prompt.Builder,
	mult distribution.MultiplierRange,
	weights distribution.ClassWeights,
	retry config.RetryConfig,
	seed int64,
	logger *zap.Logger,
) *Phase1Controller {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Phase1Controller{
		sessions: sessions,
		interp:   interp,
		builder:  builder,
		mult:     mult,
		weights:  weights,
		retry:    retry,
		seed:     seed,
		logger:   logger,
	}
}

// Run executes Phase 1 and returns one result per participant, in session
// order. A participant failing fatally is marked failed in its result and
// never disturbs the other goroutines.
func (c *Phase1Controller) Run(ctx context.Context) []results.Phase1Result {
	out := make([]results.Phase1Result, len(c.sessions))

	g, gctx := errgroup.WithContext(ctx)
	for i, s := range c.sessions {
		rng := rand.New(rand.NewSource(c.seed + int64(i)))
		g.Go(func() error {
			out[i] = c.runParticipant(gctx, s, rng)
			// Failures are isolated per participant: never an error here.
			return nil
		})
	}
	_ = g.Wait()
	return out
}

// runParticipant walks one participant through the fixed Phase 1 sequence:
// initial ranking, detailed explanation, four application rounds, final
// ranking. Every sub-step updates memory before the next begins.
func (c *Phase1Controller) runParticipant(ctx context.Context, s *participant.Session, rng *rand.Rand) results.Phase1Result {
	res := results.Phase1Result{Participant: s.Name()}
	logger := c.logger.With(zap.String("participant", s.Name()))

	fail := func(err error) results.Phase1Result {
		logger.Error("participant excluded from phase 1", zap.Error(err))
		res.Failed = true
		res.FailureReason = err.Error()
		return res
	}

	// Initial ranking, before any payoff exists.
	s.SetPosition(1, 0)
	ranking, err := askParse(ctx, s, c.builder, c.builder.InitialRanking(),
		c.retry.ParseAttempts, logger, c.interp.ParseRanking)
	if err != nil {
		return fail(err)
	}
	res.InitialRanking = &ranking
	if err := s.UpdateMemory(ctx, "You gave your initial ranking of the four justice principles, favoring: "+ranking.Favorite().Label()+"."); err != nil {
		return fail(err)
	}

	// Detailed explanation. Informational: the acknowledgement text is not
	// a decision and is discarded.
	if _, err := s.Ask(ctx, c.builder.DetailedExplanation()); err != nil {
		return fail(err)
	}
	if err := s.UpdateMemory(ctx, "You read the detailed explanation of all four principles and the payoff lottery."); err != nil {
		return fail(err)
	}

	// Four application rounds, each with a fresh distribution set.
	for round := 1; round <= phase1Rounds; round++ {
		s.SetPosition(1, round)
		appRound, err := c.runApplicationRound(ctx, s, rng, round, logger)
		if err != nil {
			return fail(err)
		}
		res.Rounds = append(res.Rounds, appRound)
	}

	// Final ranking over the whole individual experience.
	s.SetPosition(1, phase1Rounds+1)
	final, err := askParse(ctx, s, c.builder, c.builder.FinalRankingPhase1(),
		c.retry.ParseAttempts, logger, c.interp.ParseRanking)
	if err != nil {
		return fail(err)
	}
	res.FinalRanking = &final
	if err := s.UpdateMemory(ctx, "You gave your ranking after the four individual rounds, favoring: "+final.Favorite().Label()+"."); err != nil {
		return fail(err)
	}

	logger.Info("phase 1 complete",
		zap.Float64("balance", s.Balance()),
		zap.String("favorite", string(final.Favorite())))
	return res
}

// runApplicationRound plays one choose-apply-draw round and updates memory
// with the full outcome, counterfactual table included.
func (c *Phase1Controller) runApplicationRound(ctx context.Context, s *participant.Session, rng *rand.Rand, round int, logger *zap.Logger) (results.ApplicationRound, error) {
	set := distribution.Generate(rng, c.mult)

	choice, err := askParse(ctx, s, c.builder, c.builder.ChooseRound(set),
		c.retry.ParseAttempts, logger, c.interp.ParseChoice)
	if err != nil {
		return results.ApplicationRound{}, err
	}

	selected, rationale := distribution.ApplyPrinciple(set, choice, c.weights)
	class, payoff := distribution.DrawClassAndPayoff(rng, set.Distributions[selected], c.weights)
	income := set.Distributions[selected].Income(class)

	// Counterfactuals hold the drawn class fixed: same luck, different rule.
	cf := distribution.Counterfactuals(set, class, choice.Constraint, c.weights)

	s.Credit(payoff)

	outcome := c.builder.RoundOutcome(choice, selected, class, income, payoff, cf)
	if err := s.UpdateMemory(ctx, outcome); err != nil {
		return results.ApplicationRound{}, err
	}

	logger.Debug("application round complete",
		zap.Int("round", round),
		zap.String("choice", choice.String()),
		zap.String("class", string(class)),
		zap.Float64("payoff", payoff))

	return results.ApplicationRound{
		Round:          round,
		Set:            set,
		Choice:         choice,
		SelectedIndex:  selected,
		Rationale:      rationale,
		AssignedClass:  class,
		Income:         income,
		Payoff:         payoff,
		Counterfactual: cf,
	}, nil
}
