// Package model contains domain models passed between layers.
package model

import "strings"

// AnonymousPlayer replaces a missing or blank player name.
const AnonymousPlayer = "Anonymous"

// ScoreRecord is one persisted leaderboard entry. Records are immutable once
// written; ID and CreatedAt are assigned by the storage backend.
type ScoreRecord struct {
	ID         int64     `json:"id"`
	PlayerName string    `json:"player_name"`
	Score      int64     `json:"score"`
	CreatedAt  Timestamp `json:"created_at"`
}

// NewScore is a record before persistence: no id, no timestamp.
type NewScore struct {
	PlayerName string
	Score      int64
}

// Submission is the typed client payload. Both fields are optional on the
// wire; Normalize applies the defaults.
type Submission struct {
	PlayerName *string `json:"player_name,omitempty"`
	Score      *int64  `json:"score,omitempty"`
}

// Normalize applies the defaulting rules: a missing or blank name becomes
// AnonymousPlayer and a missing score becomes 0. The score itself is never
// validated or adjusted.
func (s Submission) Normalize() NewScore {
	out := NewScore{PlayerName: AnonymousPlayer}
	if s.PlayerName != nil && strings.TrimSpace(*s.PlayerName) != "" {
		out.PlayerName = *s.PlayerName
	}
	if s.Score != nil {
		out.Score = *s.Score
	}
	return out
}

// Result is what a submission yields. Offline results carry no record and
// an explanatory message; they are not errors.
type Result struct {
	Record  *ScoreRecord
	Offline bool
	Message string
}
