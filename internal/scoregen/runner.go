package scoregen

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/okian/hiscore/internal/domain/model"
	"github.com/okian/hiscore/pkg/logger"
)

const (
	directoryPermission = 0o750
	filePermission      = 0o600
	runTagLength        = 8
	percent             = 100
)

// ErrOffline is returned when the service reports degraded storage.
var ErrOffline = errors.New("service is in offline mode")

// Run executes a complete load run and returns its statistics.
func Run(ctx context.Context, cfg *Config) (*Stats, error) {
	log := logger.Named("scoregen")
	runID := uuid.NewString()
	stats := &Stats{RunID: runID, StartTime: time.Now()}

	log.Info(ctx, "starting score run",
		logger.String("runID", runID),
		logger.String("baseURL", cfg.BaseURL),
		logger.Int("scores", cfg.NumScores),
		logger.Int("workers", cfg.Workers),
		logger.Int("topN", cfg.TopN),
	)

	client := NewClient(cfg.BaseURL, cfg.Timeout)

	health, err := client.Health(ctx)
	if err != nil {
		return stats, fmt.Errorf("service health check failed: %w", err)
	}
	if health.Status != "ok" {
		return stats, fmt.Errorf("%w: storage %s", ErrOffline, health.Storage)
	}
	log.Info(ctx, "service is healthy", logger.String("backend", health.Backend))

	subs := Generate(cfg, runID[:runTagLength])
	stats.Generated = len(subs)
	for _, s := range subs {
		if s.Repeat {
			stats.ExpectedDuplicates++
		}
	}

	if err := submitAll(ctx, cfg, client, subs, stats); err != nil {
		return stats, fmt.Errorf("submission failed: %w", err)
	}

	leaderboard, err := client.Leaderboard(ctx, cfg.TopN)
	if err != nil {
		return stats, fmt.Errorf("leaderboard retrieval failed: %w", err)
	}
	stats.LeaderboardEntries = len(leaderboard)

	if cfg.OutputFile != "" {
		if err := saveSubmissions(cfg.OutputFile, subs); err != nil {
			log.Warn(ctx, "failed to save submissions", logger.Error(err))
		}
	}

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)
	displayFinalStats(ctx, log, stats)

	if stats.Offline > 0 {
		return stats, fmt.Errorf("%w: %d submissions not stored", ErrOffline, stats.Offline)
	}
	if err := VerifyDuplicates(stats); err != nil {
		return stats, err
	}
	if err := Verify(leaderboard, stats.created, cfg.TopN); err != nil {
		return stats, fmt.Errorf("result verification failed: %w", err)
	}

	log.Info(ctx, "run completed successfully")
	return stats, nil
}

// submitAll posts every submission. A repeat is sent by the same worker right
// after its original so it lands inside the duplicate window.
func submitAll(ctx context.Context, cfg *Config, client *Client, subs []Submission, stats *Stats) error {
	log := logger.Named("scoregen")

	// group each original with its repeat
	var groups [][]Submission
	for _, s := range subs {
		if s.Repeat && len(groups) > 0 {
			groups[len(groups)-1] = append(groups[len(groups)-1], s)
			continue
		}
		groups = append(groups, []Submission{s})
	}

	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)
	work := make(chan []Submission, cfg.Workers*2)

	for i := 0; i < cfg.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for group := range work {
				for _, s := range group {
					outcome, rec, err := client.Submit(ctx, s)
					if err != nil && cfg.Verbose {
						log.Debug(ctx, "submission failed", logger.String("player", s.PlayerName), logger.Error(err))
					}

					mu.Lock()
					stats.Submitted++
					switch outcome {
					case OutcomeCreated:
						stats.Created++
						stats.created = append(stats.created, *rec)
					case OutcomeDuplicate:
						stats.Duplicate++
					case OutcomeOffline:
						stats.Offline++
					default:
						stats.Failed++
					}
					mu.Unlock()
				}
			}
		}()
	}

	func() {
		defer close(work)
		for _, g := range groups {
			select {
			case <-ctx.Done():
				return
			case work <- g:
			}
		}
	}()
	wg.Wait()

	return ctx.Err()
}

// saveSubmissions writes the generated submissions as a JSON array.
func saveSubmissions(filename string, subs []Submission) error {
	if dir := filepath.Dir(filename); dir != "." {
		if err := os.MkdirAll(dir, directoryPermission); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}
	data, err := json.MarshalIndent(subs, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filename, data, filePermission)
}

// displayFinalStats logs the run statistics.
func displayFinalStats(ctx context.Context, log logger.Logger, stats *Stats) {
	var successRate, perSecond float64
	if stats.Submitted > 0 {
		successRate = float64(stats.Created+stats.Duplicate) / float64(stats.Submitted) * percent
	}
	if stats.Duration > 0 {
		perSecond = float64(stats.Submitted) / stats.Duration.Seconds()
	}

	log.Info(ctx, "final statistics",
		logger.Int("generated", stats.Generated),
		logger.Int("submitted", stats.Submitted),
		logger.Int("created", stats.Created),
		logger.Int("duplicate", stats.Duplicate),
		logger.Int("expectedDuplicates", stats.ExpectedDuplicates),
		logger.Int("offline", stats.Offline),
		logger.Int("failed", stats.Failed),
		logger.Int("leaderboardEntries", stats.LeaderboardEntries),
		logger.Duration("duration", stats.Duration),
		logger.Any("successRate", successRate),
		logger.Any("submissionsPerSecond", perSecond),
	)
}

// CreatedRecords returns the records this run stored.
func (s *Stats) CreatedRecords() []model.ScoreRecord {
	return s.created
}
