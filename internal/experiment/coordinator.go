package experiment

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"frohlich/internal/config"
	"frohlich/internal/i18n"
	"frohlich/internal/interpret"
	"frohlich/internal/llm"
	"frohlich/internal/participant"
	"frohlich/internal/prompt"
	"frohlich/internal/results"
)

// ClientFactory builds the model client for one participant. Injected so
// tests can run the whole experiment against scripted clients.
type ClientFactory func(ctx context.Context, p config.ParticipantConfig) (llm.Client, error)

// Coordinator is the top level: it builds the participant sessions, runs
// Phase 1 to completion, then Phase 2, and assembles the immutable
// experiment record.
type Coordinator struct {
	cfg           config.Config
	clientFactory ClientFactory
	extractor     llm.Client
	logger        *zap.Logger
}

// NewCoordinator wires the coordinator. extractor is the client used for
// semantic extraction; it can be a cheaper model than the participants'.
func NewCoordinator(cfg config.Config, factory ClientFactory, extractor llm.Client, logger *zap.Logger) *Coordinator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Coordinator{
		cfg:           cfg,
		clientFactory: factory,
		extractor:     extractor,
		logger:        logger,
	}
}

// Run executes the full two-phase experiment.
//
// Phase 2 starts only after every Phase 1 task has finished, successfully
// or via isolated failure. Participants who failed in Phase 1 are excluded
// from Phase 2; if fewer than two remain, or Phase 2 itself fails, the
// record is returned flagged incomplete rather than silently partial.
func (c *Coordinator) Run(ctx context.Context) (*results.ExperimentRecord, error) {
	seed := c.cfg.Experiment.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	weights, err := c.cfg.Experiment.ResolvedClassWeights()
	if err != nil {
		return nil, err
	}

	catalog := i18n.NewCatalog(c.cfg.Experiment.Language)
	builder := prompt.NewBuilder(catalog)
	interp := interpret.New(c.extractor, c.logger.Named("interpret"))

	sessions := make([]*participant.Session, 0, len(c.cfg.Participants))
	for _, pc := range c.cfg.Participants {
		client, err := c.clientFactory(ctx, pc)
		if err != nil {
			return nil, fmt.Errorf("failed to build client for %s: %w", pc.Name, err)
		}
		sessions = append(sessions, participant.NewSession(
			pc, client, catalog, c.cfg.Retry, c.logger.Named("participant")))
	}

	record := &results.ExperimentRecord{
		RunID:         uuid.NewString(),
		StartedAt:     time.Now().UTC(),
		Language:      catalog.Language(),
		Seed:          seed,
		FinalBalances: make(map[string]float64, len(sessions)),
	}
	c.logger.Info("experiment starting",
		zap.String("run_id", record.RunID),
		zap.Int("participants", len(sessions)),
		zap.Int64("seed", seed))

	// Phase 1: parallel individual learning.
	phase1 := NewPhase1Controller(sessions, interp, builder,
		c.cfg.Experiment.Phase1Multiplier, weights, c.cfg.Retry, seed,
		c.logger.Named("phase1"))
	record.Phase1 = phase1.Run(ctx)

	survivors := make([]*participant.Session, 0, len(sessions))
	for i, res := range record.Phase1 {
		if res.Failed {
			record.Incomplete = true
			record.Failures = append(record.Failures,
				fmt.Sprintf("phase1: %s: %s", res.Participant, res.FailureReason))
			continue
		}
		survivors = append(survivors, sessions[i])
	}

	// Phase 2: sequential group deliberation among the survivors.
	if len(survivors) >= 2 {
		rng := rand.New(rand.NewSource(seed + int64(len(sessions))))
		phase2 := NewPhase2Controller(survivors, interp, builder,
			c.cfg.Experiment.Phase2Multiplier, weights, c.cfg.Retry,
			c.cfg.Experiment.Phase2MaxRounds, rng, c.logger.Named("phase2"))

		phase2Result, err := phase2.Run(ctx)
		if err != nil {
			record.Incomplete = true
			record.Failures = append(record.Failures, fmt.Sprintf("phase2: %v", err))
			c.logger.Error("phase 2 aborted", zap.Error(err))
		} else {
			record.Phase2 = phase2Result
		}
	} else {
		record.Incomplete = true
		record.Failures = append(record.Failures,
			fmt.Sprintf("phase2: skipped, only %d participants survived phase 1", len(survivors)))
		c.logger.Error("phase 2 skipped", zap.Int("survivors", len(survivors)))
	}

	for _, s := range sessions {
		record.FinalBalances[s.Name()] = s.Balance()
	}
	record.FinishedAt = time.Now().UTC()

	c.logger.Info("experiment finished",
		zap.String("run_id", record.RunID),
		zap.Bool("incomplete", record.Incomplete),
		zap.Duration("elapsed", record.FinishedAt.Sub(record.StartedAt)))
	return record, nil
}
