// Package logging constructs the process-wide zap logger and named
// sub-loggers for the experiment subsystems.
package logging

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Subsystem names used with Named. Keeping them here makes log filtering
// greppable across the codebase.
const (
	SubsystemCoordinator = "coordinator"
	SubsystemPhase1      = "phase1"
	SubsystemPhase2      = "phase2"
	SubsystemParticipant = "participant"
	SubsystemInterpret   = "interpret"
	SubsystemLLM         = "llm"
	SubsystemSink        = "sink"
)

// New builds the root logger. Debug mode switches to the development config
// with DebugLevel enabled; production mode logs Info and above as JSON.
func New(debug bool) (*zap.Logger, error) {
	if debug {
		cfg := zap.NewDevelopmentConfig()
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		return cfg.Build()
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	return cfg.Build()
}

// Nop returns a no-op logger for tests and optional dependencies.
func Nop() *zap.Logger {
	return zap.NewNop()
}
