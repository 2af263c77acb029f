package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"frohlich/cmd/frohlich/ui"
	"frohlich/internal/config"
	"frohlich/internal/experiment"
	"frohlich/internal/llm"
	"frohlich/internal/logging"
	"frohlich/internal/results"
)

var seedOverride int64

// runCmd executes a full two-phase experiment
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a full two-phase experiment",
	Long: `Runs both experiment phases with the participants from the config file
and writes the complete record to the output directory.

The API key is taken from FROHLICH_API_KEY, GEMINI_API_KEY, or
OPENAI_API_KEY when the config file leaves it empty.

Example:
  frohlich run -c experiments/baseline.yaml --seed 42`,
	RunE: runExperiment,
}

func init() {
	runCmd.Flags().Int64Var(&seedOverride, "seed", 0, "override the config seed (0 keeps the config value)")
}

func runExperiment(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if seedOverride != 0 {
		cfg.Experiment.Seed = seedOverride
	}
	if cfg.LLM.APIKey == "" {
		return fmt.Errorf("no API key: set FROHLICH_API_KEY or llm.api_key in the config")
	}

	// Graceful shutdown on Ctrl-C: the context cancels every in-flight
	// model call and the run is recorded as incomplete work lost.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	factory := clientFactory(cfg)
	extractor, err := buildClient(ctx, cfg, config.ParticipantConfig{
		Provider: cfg.LLM.Provider,
		Model:    cfg.LLM.Model,
	})
	if err != nil {
		return fmt.Errorf("failed to build extractor client: %w", err)
	}

	coordinator := experiment.NewCoordinator(cfg, factory, extractor,
		logger.Named(logging.SubsystemCoordinator))

	started := time.Now()
	record, err := coordinator.Run(ctx)
	if err != nil {
		return fmt.Errorf("experiment failed: %w", err)
	}

	writer, err := results.NewJSONWriter(cfg.Sink.OutputDir, logger.Named(logging.SubsystemSink))
	if err != nil {
		return err
	}
	path, err := writer.Write(record)
	if err != nil {
		return err
	}

	if cfg.Sink.SQLitePath != "" {
		store, err := results.NewStore(cfg.Sink.SQLitePath)
		if err != nil {
			return err
		}
		defer store.Close()
		if err := store.Save(record); err != nil {
			return fmt.Errorf("failed to archive run: %w", err)
		}
	}

	logger.Info("run complete",
		zap.String("run_id", record.RunID),
		zap.Duration("elapsed", time.Since(started)))

	fmt.Fprintln(os.Stdout, ui.RenderRecordSummary(record, path))
	return nil
}

// clientFactory builds one provider client per participant, wrapped with the
// configured transport retry policy.
func clientFactory(cfg config.Config) experiment.ClientFactory {
	return func(ctx context.Context, p config.ParticipantConfig) (llm.Client, error) {
		return buildClient(ctx, cfg, p)
	}
}

func buildClient(ctx context.Context, cfg config.Config, p config.ParticipantConfig) (llm.Client, error) {
	inner, err := llm.NewClient(ctx, p.Provider, llm.Options{
		APIKey:          cfg.LLM.APIKey,
		BaseURL:         cfg.LLM.BaseURL,
		Model:           p.Model,
		Temperature:     p.Temperature,
		Timeout:         cfg.LLM.Timeout(),
		MaxOutputTokens: cfg.LLM.MaxOutputTokens,
	})
	if err != nil {
		return nil, err
	}
	return llm.NewRetryingClient(inner,
		cfg.Retry.TransportAttempts,
		time.Duration(cfg.Retry.BackoffBaseMS)*time.Millisecond,
		cfg.LLM.Timeout(),
		logger.Named(logging.SubsystemLLM)), nil
}
