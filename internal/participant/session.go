// Package participant implements the per-agent session: the participant's
// evolving context (identity, bank balance, memory) and the two operations
// the experiment uses to interact with an agent, Ask and UpdateMemory.
//
// A session exclusively owns its context. Many sessions run concurrently
// during Phase 1, but no two goroutines ever share one session.
package participant

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"frohlich/internal/config"
	"frohlich/internal/i18n"
	"frohlich/internal/llm"
)

// FatalError marks a participant-level failure the experiment cannot recover
// from locally (memory-limit exhaustion, retry exhaustion). Phase 1 isolates
// these per participant; Phase 2 aborts on them.
type FatalError struct {
	Participant string
	Step        string
	Err         error
}

func (e *FatalError) Error() string {
	return fmt.Sprintf("participant %s failed fatally at %s: %v", e.Participant, e.Step, e.Err)
}

func (e *FatalError) Unwrap() error {
	return e.Err
}

// Context is the participant's mutable experiment state. The bank balance
// only ever grows: payoffs in this experiment are non-negative.
type Context struct {
	Name        string
	Personality string
	Balance     float64
	Memory      string
	Phase       int
	Round       int
}

// Session wraps one agent participant.
type Session struct {
	cfg     config.ParticipantConfig
	client  llm.Client
	catalog *i18n.Catalog
	retry   config.RetryConfig
	logger  *zap.Logger

	ctx Context
}

// NewSession builds a session for one configured participant.
func NewSession(cfg config.ParticipantConfig, client llm.Client, catalog *i18n.Catalog, retry config.RetryConfig, logger *zap.Logger) *Session {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Session{
		cfg:     cfg,
		client:  client,
		catalog: catalog,
		retry:   retry,
		logger:  logger.With(zap.String("participant", cfg.Name)),
		ctx: Context{
			Name:        cfg.Name,
			Personality: cfg.Personality,
		},
	}
}

// Name returns the participant's name.
func (s *Session) Name() string { return s.cfg.Name }

// Reasoning reports whether the private-deliberation step is enabled for
// this participant.
func (s *Session) Reasoning() bool { return s.cfg.Reasoning }

// Balance returns the current bank balance.
func (s *Session) Balance() float64 { return s.ctx.Balance }

// Memory returns the participant's current private notes.
func (s *Session) Memory() string { return s.ctx.Memory }

// Credit adds a payoff to the bank balance. Negative payoffs do not exist
// in this experiment; a negative amount is a programming error.
func (s *Session) Credit(amount float64) {
	if amount < 0 {
		panic(fmt.Sprintf("negative payoff %g for participant %s", amount, s.cfg.Name))
	}
	s.ctx.Balance += amount
}

// SetPosition records the participant's current phase and round, which are
// surfaced in every prompt.
func (s *Session) SetPosition(phase, round int) {
	s.ctx.Phase = phase
	s.ctx.Round = round
}

// systemPrompt renders the participant's standing context: identity,
// balance, private notes, and phase position.
func (s *Session) systemPrompt() string {
	var b strings.Builder
	b.WriteString(s.catalog.Getf("role.preamble", s.ctx.Name, s.ctx.Personality))
	b.WriteString("\n")
	b.WriteString(s.catalog.Getf("role.bank", s.ctx.Balance))
	if s.ctx.Phase > 0 {
		b.WriteString("\n")
		b.WriteString(s.catalog.Getf("role.phase", s.ctx.Phase, s.ctx.Round))
	}
	if s.ctx.Memory != "" {
		b.WriteString("\n")
		b.WriteString(s.catalog.Getf("role.memory", s.ctx.Memory))
	}
	return b.String()
}

// Ask sends a prompt to the agent with its full standing context and returns
// the raw response text. Transport-level retry lives in the llm layer; the
// caller owns semantic retries.
func (s *Session) Ask(ctx context.Context, prompt string) (string, error) {
	s.logger.Debug("asking participant", zap.Int("prompt_chars", len(prompt)))
	reply, err := s.client.CompleteWithSystem(ctx, s.systemPrompt(), prompt)
	if err != nil {
		return "", fmt.Errorf("ask failed for %s: %w", s.cfg.Name, err)
	}
	return reply, nil
}

// UpdateMemory asks the agent itself to rewrite its private notes in light
// of the latest event. If the rewrite exceeds the memory limit the agent is
// re-asked, up to the configured attempt budget, with an explicit
// too-long instruction. Exhausting the budget is fatal for this
// participant's run: the system never truncates memory on the agent's
// behalf, because silently losing notes would invalidate what the agent
// "remembers" for the rest of the experiment.
func (s *Session) UpdateMemory(ctx context.Context, eventSummary string) error {
	prompt := s.catalog.Getf("memory.update", eventSummary, s.ctx.Memory, s.cfg.MemoryLimit)

	attempts := s.retry.MemoryAttempts
	if attempts < 1 {
		attempts = 1
	}
	for attempt := 1; attempt <= attempts; attempt++ {
		reply, err := s.client.CompleteWithSystem(ctx, s.systemPrompt(), prompt)
		if err != nil {
			return &FatalError{Participant: s.cfg.Name, Step: "memory_update", Err: err}
		}
		memory := strings.TrimSpace(reply)
		if len(memory) <= s.cfg.MemoryLimit {
			s.ctx.Memory = memory
			s.logger.Debug("memory updated",
				zap.Int("attempt", attempt),
				zap.Int("chars", len(memory)))
			return nil
		}
		s.logger.Warn("memory over limit, asking for shorter rewrite",
			zap.Int("attempt", attempt),
			zap.Int("chars", len(memory)),
			zap.Int("limit", s.cfg.MemoryLimit))
		prompt = s.catalog.Getf("memory.too_long", len(memory), s.cfg.MemoryLimit, memory)
	}
	return &FatalError{
		Participant: s.cfg.Name,
		Step:        "memory_update",
		Err:         fmt.Errorf("memory still over %d chars after %d attempts", s.cfg.MemoryLimit, attempts),
	}
}
