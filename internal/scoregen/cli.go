package scoregen

import (
	"fmt"
	"io"
	"os"

	"github.com/okian/hiscore/pkg/logger"
)

// SetupLogging initializes the logger, mirroring output to logFile when set.
func SetupLogging(logFile string, verbose bool) error {
	var w io.Writer = os.Stdout
	if logFile != "" {
		file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, filePermission)
		if err != nil {
			return fmt.Errorf("failed to create log file: %w", err)
		}
		w = io.MultiWriter(os.Stdout, file)
	}

	if err := logger.Init(logger.WithWriter(w)); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	if verbose {
		return logger.SetLevelString("debug")
	}
	return nil
}

// ShowHelp prints usage information for the score generator.
func ShowHelp() {
	_, _ = os.Stdout.WriteString(`High Score Load Tool
====================

Submits generated scores to a running service, resubmits a share of them to
exercise duplicate rejection, then fetches the leaderboard and checks it.

Usage:
  go run ./cmd/scoregen [options]

Options:
  -url string        Base URL of the service (default "http://localhost:8080")
  -scores int        Number of distinct scores to submit (default 1000)
  -dup float         Share of scores resubmitted immediately (default 0.1)
  -top int           Leaderboard size to fetch and verify (default 10)
  -workers int       Concurrent submitters (default CPU cores * 2)
  -timeout duration  HTTP request timeout (default 10s)
  -seed uint         Faker seed, 0 for random (default 0)
  -output string     Write generated submissions to this JSON file
  -log string        Mirror log output to this file
  -verbose           Enable debug logging
  -help              Show this help message

Examples:
  go run ./cmd/scoregen -scores 5000 -workers 16
  go run ./cmd/scoregen -url http://localhost:9090 -dup 0.5 -seed 42
`)
}
