package experiment

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"frohlich/internal/interpret"
	"frohlich/internal/participant"
	"frohlich/internal/prompt"
)

// askParse runs the ask -> parse -> clarify-and-retry loop shared by every
// decision point in both phases. Parse failures re-prompt the participant
// with the failure reason; transport errors surface immediately (the llm
// layer already retried them).
func askParse[T any](
	ctx context.Context,
	s *participant.Session,
	b *prompt.Builder,
	basePrompt string,
	attempts int,
	logger *zap.Logger,
	parse func(context.Context, string) (T, error),
) (T, error) {
	var zero T
	if attempts < 1 {
		attempts = 1
	}

	p := basePrompt
	for attempt := 1; attempt <= attempts; attempt++ {
		reply, err := s.Ask(ctx, p)
		if err != nil {
			return zero, err
		}

		value, err := parse(ctx, reply)
		if err == nil {
			return value, nil
		}

		var pf *interpret.ParseFailure
		if !errors.As(err, &pf) {
			return zero, err
		}
		logger.Warn("unusable answer, re-prompting",
			zap.String("participant", s.Name()),
			zap.Int("attempt", attempt),
			zap.String("reason", pf.Reason))
		p = b.ParseRetry(pf.Reason, basePrompt)
	}
	return zero, &participant.FatalError{
		Participant: s.Name(),
		Step:        "parse_retry",
		Err:         fmt.Errorf("no usable answer after %d attempts", attempts),
	}
}
