// Package logging builds the process-wide zap logger and provides helpers
// for scrubbing credentials before they reach log output.
package logging

import (
	"fmt"

	"go.uber.org/zap"
)

// New creates a zap logger appropriate for the given environment.
// "local" gets human-readable development output; everything else gets
// production JSON at info level.
func New(env string) (*zap.Logger, error) {
	var (
		logger *zap.Logger
		err    error
	)
	if env == "local" {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}
	return logger, nil
}
