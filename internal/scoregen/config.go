// Package scoregen drives a running high-score service with generated
// submissions and checks the leaderboard it returns.
package scoregen

import (
	"time"

	"github.com/okian/hiscore/internal/domain/model"
)

// Config holds configuration for a load run.
type Config struct {
	BaseURL        string        // Base URL of the service
	NumScores      int           // Number of distinct scores to generate
	DuplicateRatio float64       // Share of scores that are immediately resubmitted
	TopN           int           // Leaderboard size to fetch
	Workers        int           // Concurrent submitters
	Timeout        time.Duration // HTTP request timeout
	Seed           uint64        // Faker seed, 0 for random
	OutputFile     string        // Where to write the generated submissions, empty to skip
	Verbose        bool
}

// Submission is one generated POST /api/scores body.
type Submission struct {
	PlayerName string `json:"player_name"`
	Score      int64  `json:"score"`

	// Repeat marks a resubmission of the previous entry; the service should
	// reject it as a duplicate.
	Repeat bool `json:"-"`
}

// Outcome classifies one POST response.
type Outcome string

const (
	OutcomeCreated   Outcome = "created"
	OutcomeDuplicate Outcome = "duplicate"
	OutcomeOffline   Outcome = "offline"
	OutcomeFailed    Outcome = "failed"
)

// Health mirrors GET /healthz.
type Health struct {
	Status  string `json:"status"`
	Storage string `json:"storage"`
	Backend string `json:"backend"`
}

// Stats holds run statistics.
type Stats struct {
	RunID              string
	Generated          int
	Submitted          int
	Created            int
	Duplicate          int
	ExpectedDuplicates int
	Offline            int
	Failed             int
	LeaderboardEntries int
	StartTime          time.Time
	EndTime            time.Time
	Duration           time.Duration

	created []model.ScoreRecord
}
