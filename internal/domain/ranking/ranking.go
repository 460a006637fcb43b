// Package ranking orders score records into a leaderboard.
package ranking

import (
	"cmp"
	"slices"

	"github.com/okian/hiscore/internal/domain/model"
)

// TopN returns the n best records: score descending, equal scores kept in
// input order. Callers pass records in creation order, so earlier records win
// ties. The input slice is not modified. n <= 0 yields an empty slice.
func TopN(records []model.ScoreRecord, n int) []model.ScoreRecord {
	if n <= 0 || len(records) == 0 {
		return []model.ScoreRecord{}
	}

	sorted := slices.Clone(records)
	slices.SortStableFunc(sorted, func(a, b model.ScoreRecord) int {
		return cmp.Compare(b.Score, a.Score)
	})

	if n < len(sorted) {
		sorted = sorted[:n]
	}
	return sorted
}

// IsRanked reports whether records satisfy the leaderboard ordering, with ids
// used as the creation-order tie break.
func IsRanked(records []model.ScoreRecord) bool {
	for i := 1; i < len(records); i++ {
		prev, cur := records[i-1], records[i]
		if prev.Score < cur.Score {
			return false
		}
		if prev.Score == cur.Score && prev.ID > cur.ID {
			return false
		}
	}
	return true
}
