package scoregen

import (
	"fmt"

	"github.com/brianvoe/gofakeit/v7"
)

// Score range for generated submissions.
const (
	minScore = 0
	maxScore = 100_000
)

// Generate builds cfg.NumScores submissions. A share of them, set by
// cfg.DuplicateRatio, is followed by an identical copy flagged Repeat. Player
// names carry the run tag so runs never collide with each other.
func Generate(cfg *Config, runTag string) []Submission {
	faker := gofakeit.New(cfg.Seed)

	out := make([]Submission, 0, cfg.NumScores)
	for i := 0; i < cfg.NumScores; i++ {
		s := Submission{
			PlayerName: fmt.Sprintf("%s-%s-%d", faker.FirstName(), runTag, i),
			Score:      int64(faker.IntRange(minScore, maxScore)),
		}
		out = append(out, s)

		if cfg.DuplicateRatio > 0 && faker.Float64() < cfg.DuplicateRatio {
			dup := s
			dup.Repeat = true
			out = append(out, dup)
		}
	}
	return out
}
