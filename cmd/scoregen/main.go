package main

import (
	"context"
	"flag"
	"os"
	"runtime"
	"time"

	"github.com/okian/hiscore/internal/scoregen"
)

// Default configuration constants.
const (
	defaultNumScores   = 1000
	defaultDupRatio    = 0.1
	defaultTopN        = 10
	defaultWorkers     = 2 // multiplier for runtime.NumCPU()
	defaultTimeout     = 10 * time.Second
	defaultTestTimeout = 10 * time.Minute
)

func main() {
	var (
		baseURL    = flag.String("url", "http://localhost:8080", "Base URL of the service")
		numScores  = flag.Int("scores", defaultNumScores, "Number of distinct scores to submit")
		dupRatio   = flag.Float64("dup", defaultDupRatio, "Share of scores resubmitted immediately")
		topN       = flag.Int("top", defaultTopN, "Leaderboard size to fetch and verify")
		workers    = flag.Int("workers", runtime.NumCPU()*defaultWorkers, "Number of concurrent workers")
		timeout    = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
		seed       = flag.Uint64("seed", 0, "Faker seed, 0 for random")
		outputFile = flag.String("output", "", "Write generated submissions to this JSON file")
		logFile    = flag.String("log", "", "Mirror log output to this file")
		verbose    = flag.Bool("verbose", false, "Enable verbose logging")
		help       = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		scoregen.ShowHelp()
		return
	}

	if err := scoregen.SetupLogging(*logFile, *verbose); err != nil {
		_, _ = os.Stderr.WriteString("Failed to setup logging: " + err.Error() + "\n")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), defaultTestTimeout)
	defer cancel()

	config := &scoregen.Config{
		BaseURL:        *baseURL,
		NumScores:      *numScores,
		DuplicateRatio: *dupRatio,
		TopN:           *topN,
		Workers:        max(*workers, 1),
		Timeout:        *timeout,
		Seed:           *seed,
		OutputFile:     *outputFile,
		Verbose:        *verbose,
	}

	if _, err := scoregen.Run(ctx, config); err != nil {
		_, _ = os.Stderr.WriteString("Run failed: " + err.Error() + "\n")
		cancel()
		os.Exit(1)
	}
}
