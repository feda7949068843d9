package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/curation-evidence-sync/internal/domain"
)

// NewLogger builds the service logger from the logging configuration.
// Output is "stdout", "stderr" or a file path.
func NewLogger(cfg domain.LoggingConfig) (*logrus.Logger, error) {
	logger := logrus.New()

	level, err := logrus.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
	}
	logger.SetLevel(level)

	switch strings.ToLower(cfg.Format) {
	case "", "json":
		logger.SetFormatter(&logrus.JSONFormatter{})
	case "text":
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	default:
		return nil, fmt.Errorf("unsupported log format: %s", cfg.Format)
	}

	out, err := logOutput(cfg.Output)
	if err != nil {
		return nil, err
	}
	logger.SetOutput(out)

	return logger, nil
}

func logOutput(output string) (io.Writer, error) {
	switch strings.ToLower(output) {
	case "", "stdout":
		return os.Stdout, nil
	case "stderr":
		return os.Stderr, nil
	}
	if err := os.MkdirAll(filepath.Dir(output), 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	f, err := os.OpenFile(output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	return f, nil
}
