package scoregen

import (
	"errors"
	"fmt"

	"github.com/okian/hiscore/internal/domain/model"
	"github.com/okian/hiscore/internal/domain/ranking"
)

// Verification errors.
var (
	ErrNotRanked      = errors.New("leaderboard not ranked")
	ErrTooLong        = errors.New("leaderboard longer than requested")
	ErrMissingTop     = errors.New("leaderboard misses a higher created score")
	ErrDuplicateCount = errors.New("duplicate count mismatch")
)

// Verify checks a fetched leaderboard against what this run created:
// ordering is score descending with ids ascending on ties, length is at most
// topN, and the lowest listed score is not below any created score that
// failed to make the list.
func Verify(leaderboard, created []model.ScoreRecord, topN int) error {
	if len(leaderboard) > topN {
		return fmt.Errorf("%w: %d > %d", ErrTooLong, len(leaderboard), topN)
	}
	if !ranking.IsRanked(leaderboard) {
		return ErrNotRanked
	}
	if len(leaderboard) < topN {
		// everything fits, so every created record must be listed
		listed := make(map[int64]bool, len(leaderboard))
		for _, r := range leaderboard {
			listed[r.ID] = true
		}
		for _, c := range created {
			if !listed[c.ID] {
				return fmt.Errorf("%w: id %d score %d", ErrMissingTop, c.ID, c.Score)
			}
		}
		return nil
	}

	floor := leaderboard[len(leaderboard)-1].Score
	for _, c := range created {
		if c.Score > floor {
			found := false
			for _, r := range leaderboard {
				if r.ID == c.ID {
					found = true
					break
				}
			}
			if !found {
				return fmt.Errorf("%w: id %d score %d above floor %d", ErrMissingTop, c.ID, c.Score, floor)
			}
		}
	}
	return nil
}

// VerifyDuplicates checks that every planned repeat was rejected while the
// service stayed online.
func VerifyDuplicates(stats *Stats) error {
	if stats.Offline > 0 {
		return nil
	}
	if stats.Duplicate != stats.ExpectedDuplicates {
		return fmt.Errorf("%w: got %d, want %d", ErrDuplicateCount, stats.Duplicate, stats.ExpectedDuplicates)
	}
	return nil
}
