package results

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
)

// JSONWriter persists experiment records as pretty-printed JSON files, one
// per run.
type JSONWriter struct {
	dir    string
	logger *zap.Logger
}

// NewJSONWriter creates a writer rooted at dir, creating it if needed.
func NewJSONWriter(dir string, logger *zap.Logger) (*JSONWriter, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}
	return &JSONWriter{dir: dir, logger: logger}, nil
}

// Write stores the record and returns the file path.
func (w *JSONWriter) Write(record *ExperimentRecord) (string, error) {
	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal record: %w", err)
	}
	path := filepath.Join(w.dir, fmt.Sprintf("run-%s.json", record.RunID))
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write record: %w", err)
	}
	w.logger.Info("experiment record written",
		zap.String("path", path),
		zap.Bool("incomplete", record.Incomplete))
	return path, nil
}
