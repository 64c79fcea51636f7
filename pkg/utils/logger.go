package utils

import (
	"fmt"

	"go.uber.org/zap"
)

// NewSugaredLogger creates the service logger. Verbose selects the development
// config (debug level, console encoding); otherwise the production JSON config is used.
// The logger is named after the service so every line carries "logger":"token-catalog".
func NewSugaredLogger(verbose bool) (*zap.SugaredLogger, error) {
	build := zap.NewProduction
	if verbose {
		build = zap.NewDevelopment
	}

	l, err := build()
	if err != nil {
		return nil, fmt.Errorf("failed to create logger (verbose=%t): %w", verbose, err)
	}
	return l.Named("token-catalog").Sugar(), nil
}
