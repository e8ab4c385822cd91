// internal/scoring/scorebook.go
//
// Cumulative per-player score buckets and the TPA composite metric.
// Buckets are monotonically non-decreasing and mutated only at turn-commit
// time by the Match engine.

package scoring

import "fmt"

// PlayerScore holds the seven cumulative counters for one player.
type PlayerScore struct {
	RacksWon       int `json:"racksWon"`
	BallsPotted    int `json:"ballsPotted"`
	MissErrors     int `json:"missErrors"`
	BreakErrors    int `json:"breakErrors"`
	KickErrors     int `json:"kickErrors"`
	SafetyErrors   int `json:"safetyErrors"`
	PositionErrors int `json:"positionErrors"`
}

// TotalErrors sums the five foul buckets.
func (p PlayerScore) TotalErrors() int {
	return p.MissErrors + p.BreakErrors + p.KickErrors + p.SafetyErrors + p.PositionErrors
}

// TPA is the Total Performance Average: potted / (potted + fouls) × 1000,
// truncated to an integer. 0 when the player has no recorded activity.
func (p PlayerScore) TPA() int {
	den := p.BallsPotted + p.TotalErrors()
	if den == 0 {
		return 0
	}
	return int(float64(p.BallsPotted) / float64(den) * 1000)
}

// ScoreBook is the match-wide pair of player score buckets.
type ScoreBook struct {
	Players [2]PlayerScore `json:"players"`
}

// Player returns the bucket for player 1 or 2.
func (s *ScoreBook) Player(n int) *PlayerScore { return &s.Players[n-1] }

// String formats the running score summary:
// "(potted,errors,tpa) racks1 - racks2 (potted,errors,tpa)".
func (s *ScoreBook) String() string {
	p1, p2 := s.Players[0], s.Players[1]
	return fmt.Sprintf("(%d,%d,%d) %d - %d (%d,%d,%d)",
		p1.BallsPotted, p1.TotalErrors(), p1.TPA(),
		p1.RacksWon, p2.RacksWon,
		p2.BallsPotted, p2.TotalErrors(), p2.TPA())
}
