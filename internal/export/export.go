// internal/export/export.go
//
// End-of-match export: assembles the full per-rack, per-turn history plus
// the final score book into an opaque JSON payload, and submits it
// fire-and-forget to an external spreadsheet-style collection endpoint.
// Upload failures are logged and swallowed; the engine and caller are
// never blocked or rolled back by this layer.

package export

import (
	"bytes"
	"encoding/json"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/lucaferrini/tpascore/internal/scoring"
)

// TurnRecord is one committed turn in the history.
type TurnRecord struct {
	Player            int              `json:"player"`
	Break             bool             `json:"break"`
	BallsRemaining    int              `json:"ballsRemaining"`
	BreakPotted       scoring.OptInt   `json:"breakPotted"`
	TotalPotted       scoring.OptInt   `json:"totalPotted"`
	PrimaryLabel      string           `json:"primaryLabel"`
	SecondaryLabel    string           `json:"secondaryLabel"`
	KickSequence      []scoring.KickIn `json:"kickSequence,omitempty"`
	Winning           bool             `json:"winning"`
	Pushed            bool             `json:"pushed"`
	Score             string           `json:"score,omitempty"`
	ConsecutiveErrors int              `json:"consecutiveErrors"`
}

// RackRecord is one completed rack.
type RackRecord struct {
	Turns []TurnRecord `json:"turns"`
}

// PlayerResult is the final per-player summary, mirroring the spreadsheet
// columns of the collection endpoint.
type PlayerResult struct {
	Name           string `json:"name"`
	TPAScore       int    `json:"tpaScore"`
	RacksWon       int    `json:"racksWon"`
	BallsPotted    int    `json:"ballsPotted"`
	MissErrors     int    `json:"missErrors"`
	BreakErrors    int    `json:"breakErrors"`
	KickErrors     int    `json:"kickErrors"`
	SafetyErrors   int    `json:"safetyErrors"`
	PositionErrors int    `json:"positionErrors"`
	TotalErrors    int    `json:"totalErrors"`
}

// MatchResult is the complete export payload.
type MatchResult struct {
	MatchID  string          `json:"matchId"`
	Date     string          `json:"date"`
	GameType int             `json:"gameType"`
	Score    string          `json:"score"`
	Players  [2]PlayerResult `json:"players"`
	Racks    []RackRecord    `json:"racks"`
}

// Build walks the match and assembles the export payload. A trailing rack
// holding only an unplayed break turn (opened by the final winning commit)
// is omitted.
func Build(m *scoring.Match) MatchResult {
	res := MatchResult{
		MatchID:  m.ID,
		Date:     m.StartedAt,
		GameType: m.Variant.Balls(),
		Score:    m.Score.String(),
	}
	for i := 1; i <= 2; i++ {
		p := m.Score.Player(i)
		res.Players[i-1] = PlayerResult{
			Name:           m.Players[i-1],
			TPAScore:       p.TPA(),
			RacksWon:       p.RacksWon,
			BallsPotted:    p.BallsPotted,
			MissErrors:     p.MissErrors,
			BreakErrors:    p.BreakErrors,
			KickErrors:     p.KickErrors,
			SafetyErrors:   p.SafetyErrors,
			PositionErrors: p.PositionErrors,
			TotalErrors:    p.TotalErrors(),
		}
	}
	for ri, rack := range m.Racks {
		if ri == len(m.Racks)-1 && len(rack.Turns) == 1 && !rack.Turns[0].Played() {
			continue
		}
		rr := RackRecord{Turns: make([]TurnRecord, 0, len(rack.Turns))}
		for _, t := range rack.Turns {
			rr.Turns = append(rr.Turns, TurnRecord{
				Player:            t.Player,
				Break:             t.Break,
				BallsRemaining:    t.BallsRemaining,
				BreakPotted:       t.Annotation.BreakPotted,
				TotalPotted:       t.Annotation.TotalPotted,
				PrimaryLabel:      t.Annotation.PrimaryLabel(),
				SecondaryLabel:    t.Annotation.SecondaryLabel(),
				KickSequence:      t.Annotation.KickSequence,
				Winning:           t.IsWinning(),
				Pushed:            t.Pushed,
				Score:             t.Score,
				ConsecutiveErrors: t.ConsecutiveErrors,
			})
		}
		res.Racks = append(res.Racks, rr)
	}
	return res
}

// Uploader posts match results to a collection endpoint.
type Uploader struct {
	url    string
	client *http.Client
}

// NewUploader returns an uploader for url; an empty url disables uploads.
func NewUploader(url string) *Uploader {
	return &Uploader{url: url, client: &http.Client{Timeout: 10 * time.Second}}
}

// Submit uploads the result in a background goroutine. Failures are logged
// and otherwise ignored.
func (u *Uploader) Submit(res MatchResult) {
	if u.url == "" {
		return
	}
	go func() {
		body, err := json.Marshal(res)
		if err != nil {
			log.Warn().Err(err).Str("matchId", res.MatchID).Msg("marshal match result")
			return
		}
		resp, err := u.client.Post(u.url, "application/json", bytes.NewReader(body))
		if err != nil {
			log.Warn().Err(err).Str("matchId", res.MatchID).Msg("upload match result")
			return
		}
		defer resp.Body.Close()
		if resp.StatusCode >= 300 {
			log.Warn().Int("status", resp.StatusCode).Str("matchId", res.MatchID).Msg("upload match result rejected")
		}
	}()
}
