// Package config holds the experiment configuration: participant roster,
// model/provider settings, phase parameters, retry limits, and sink options.
// The experiment core receives this as an already-validated struct and does
// no file I/O of its own.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"frohlich/internal/distribution"
	"frohlich/internal/justice"
)

// Config is the root experiment configuration.
type Config struct {
	Experiment   ExperimentConfig    `yaml:"experiment"`
	Participants []ParticipantConfig `yaml:"participants"`
	LLM          LLMConfig           `yaml:"llm"`
	Retry        RetryConfig         `yaml:"retry"`
	Logging      LoggingConfig       `yaml:"logging"`
	Sink         SinkConfig          `yaml:"sink"`
}

// ExperimentConfig holds the phase parameters.
type ExperimentConfig struct {
	Language string `yaml:"language"` // prompt language key, default "en"

	// Phase 1: four application rounds, each with a fresh multiplier draw.
	Phase1Multiplier distribution.MultiplierRange `yaml:"phase1_multiplier"`

	// Phase 2: group deliberation.
	Phase2Multiplier distribution.MultiplierRange `yaml:"phase2_multiplier"`
	Phase2MaxRounds  int                          `yaml:"phase2_max_rounds"`

	// ClassWeights is the income-class lottery, high to low. Empty means the
	// canonical 5/10/50/25/10 split.
	ClassWeights map[string]float64 `yaml:"class_weights,omitempty"`

	// Seed fixes the experiment RNG for reproducible runs. Zero means seed
	// from the clock.
	Seed int64 `yaml:"seed,omitempty"`
}

// ParticipantConfig describes one agent participant.
type ParticipantConfig struct {
	Name        string  `yaml:"name"`
	Personality string  `yaml:"personality"`
	Provider    string  `yaml:"provider,omitempty"` // falls back to llm.provider
	Model       string  `yaml:"model,omitempty"`    // falls back to llm.model
	Temperature float64 `yaml:"temperature"`
	MemoryLimit int     `yaml:"memory_limit"` // characters, default 4000

	// Reasoning enables the private deliberation step before each public
	// statement in Phase 2. The reasoning text is discarded after use.
	Reasoning bool `yaml:"reasoning"`
}

// RetryConfig bounds the various retry loops.
type RetryConfig struct {
	ParseAttempts     int `yaml:"parse_attempts"`     // re-prompts on invalid answers
	MemoryAttempts    int `yaml:"memory_attempts"`    // shrink re-asks on memory overflow
	TransportAttempts int `yaml:"transport_attempts"` // retries on timeout/transport errors
	BackoffBaseMS     int `yaml:"backoff_base_ms"`
}

// LoggingConfig controls the zap logger.
type LoggingConfig struct {
	Debug bool `yaml:"debug"`
}

// SinkConfig controls where results land.
type SinkConfig struct {
	OutputDir  string `yaml:"output_dir"`            // JSON result files
	SQLitePath string `yaml:"sqlite_path,omitempty"` // run archive; empty disables
}

// Default returns a configuration with every tunable at its canonical value
// and no participants.
func Default() Config {
	return Config{
		Experiment: ExperimentConfig{
			Language:         "en",
			Phase1Multiplier: distribution.MultiplierRange{Lo: 0.8, Hi: 1.2},
			Phase2Multiplier: distribution.MultiplierRange{Lo: 0.8, Hi: 1.2},
			Phase2MaxRounds:  10,
		},
		LLM: DefaultLLMConfig(),
		Retry: RetryConfig{
			ParseAttempts:     3,
			MemoryAttempts:    5,
			TransportAttempts: 2,
			BackoffBaseMS:     500,
		},
		Sink: SinkConfig{OutputDir: "results"},
	}
}

// Load reads and validates a YAML config file, applying defaults for any
// omitted field and environment overrides for API keys.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyDefaults()
	cfg.LLM.applyEnv()

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Experiment.Language == "" {
		c.Experiment.Language = "en"
	}
	if c.Experiment.Phase2MaxRounds == 0 {
		c.Experiment.Phase2MaxRounds = 10
	}
	if c.Retry.ParseAttempts == 0 {
		c.Retry.ParseAttempts = 3
	}
	if c.Retry.MemoryAttempts == 0 {
		c.Retry.MemoryAttempts = 5
	}
	if c.Retry.TransportAttempts == 0 {
		c.Retry.TransportAttempts = 2
	}
	if c.Retry.BackoffBaseMS == 0 {
		c.Retry.BackoffBaseMS = 500
	}
	if c.Sink.OutputDir == "" {
		c.Sink.OutputDir = "results"
	}
	for i := range c.Participants {
		p := &c.Participants[i]
		if p.Provider == "" {
			p.Provider = c.LLM.Provider
		}
		if p.Model == "" {
			p.Model = c.LLM.Model
		}
		if p.MemoryLimit == 0 {
			p.MemoryLimit = 4000
		}
	}
}

// Validate checks the configuration is internally consistent.
func (c Config) Validate() error {
	if len(c.Participants) < 2 {
		return fmt.Errorf("experiment needs at least 2 participants, got %d", len(c.Participants))
	}
	names := make(map[string]struct{}, len(c.Participants))
	for _, p := range c.Participants {
		if p.Name == "" {
			return fmt.Errorf("participant with empty name")
		}
		if _, dup := names[p.Name]; dup {
			return fmt.Errorf("duplicate participant name %q", p.Name)
		}
		names[p.Name] = struct{}{}
		if p.Temperature < 0 || p.Temperature > 2 {
			return fmt.Errorf("participant %q: temperature %g outside [0, 2]", p.Name, p.Temperature)
		}
		if p.MemoryLimit < 200 {
			return fmt.Errorf("participant %q: memory limit %d too small", p.Name, p.MemoryLimit)
		}
	}
	if err := c.Experiment.Phase1Multiplier.Validate(); err != nil {
		return fmt.Errorf("phase1 multiplier: %w", err)
	}
	if err := c.Experiment.Phase2Multiplier.Validate(); err != nil {
		return fmt.Errorf("phase2 multiplier: %w", err)
	}
	if c.Experiment.Phase2MaxRounds < 1 {
		return fmt.Errorf("phase2_max_rounds must be >= 1")
	}
	if _, err := c.Experiment.ResolvedClassWeights(); err != nil {
		return err
	}
	return nil
}

// ResolvedClassWeights converts the configured weight map into engine
// weights, defaulting to the canonical lottery.
func (e ExperimentConfig) ResolvedClassWeights() (distribution.ClassWeights, error) {
	if len(e.ClassWeights) == 0 {
		return distribution.DefaultClassWeights(), nil
	}
	weights := make(distribution.ClassWeights, len(e.ClassWeights))
	var sum float64
	for name, w := range e.ClassWeights {
		class := justice.IncomeClass(name)
		if !class.Valid() {
			return nil, fmt.Errorf("unknown income class %q in class_weights", name)
		}
		if w < 0 {
			return nil, fmt.Errorf("negative weight for class %q", name)
		}
		weights[class] = w
		sum += w
	}
	if sum < 0.999 || sum > 1.001 {
		return nil, fmt.Errorf("class weights must sum to 1, got %g", sum)
	}
	return weights, nil
}
