// internal/httpserver/routes_keypad.go
//
// HTTP routes for the per-player numeric keypad boxes — a display aid that
// is structurally unrelated to the rules engine. Exposes four endpoints
// under /match/{id}/keypad:
//   - GET  /keypad         → current pad state
//   - POST /keypad/press   → enter a digit for a player
//   - POST /keypad/reset   → clear one player's box
//   - POST /keypad/player  → switch the active player
//
// Pads are held in memory for active play and snapshotted to the DB on
// every change (best effort) so a restarted client can restore
// {currentPlayer, playerBoxes}.

package httpserver

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/lucaferrini/tpascore/internal/keypad"
)

// padServer wraps dependencies for /keypad endpoints.
type padServer struct {
	srv  *Server
	pads map[string]*keypad.Pad // active pads keyed by match ID
	mu   sync.Mutex             // guards pads
}

func newPadServer(s *Server) *padServer {
	return &padServer{srv: s, pads: make(map[string]*keypad.Pad)}
}

// mount registers the /keypad routes on a per-match router.
func (p *padServer) mount(r chi.Router) {
	r.Route("/keypad", func(r chi.Router) {
		r.Get("/", p.handleState)
		r.Post("/press", p.handlePress)
		r.Post("/reset", p.handleReset)
		r.Post("/player", p.handlePlayer)
	})
}

// pad returns the live pad for a match, restoring the DB snapshot when the
// process has restarted since the last press.
func (p *padServer) pad(ctx context.Context, matchID string) *keypad.Pad {
	p.mu.Lock()
	defer p.mu.Unlock()
	if pad, ok := p.pads[matchID]; ok {
		return pad
	}
	pad := keypad.New()
	var state string
	err := p.srv.db.QueryRowContext(ctx,
		`SELECT state FROM keypad_state WHERE match_id=?`, matchID).Scan(&state)
	switch {
	case err == nil:
		if err := json.Unmarshal([]byte(state), pad); err != nil {
			log.Warn().Err(err).Str("matchId", matchID).Msg("decode keypad snapshot")
			pad = keypad.New()
		}
	case !errors.Is(err, sql.ErrNoRows):
		log.Warn().Err(err).Str("matchId", matchID).Msg("load keypad snapshot")
	}
	p.pads[matchID] = pad
	return pad
}

// persist snapshots the pad to the DB (best effort).
func (p *padServer) persist(ctx context.Context, matchID string, pad *keypad.Pad) {
	state, err := json.Marshal(pad)
	if err != nil {
		log.Warn().Err(err).Str("matchId", matchID).Msg("encode keypad snapshot")
		return
	}
	now := time.Now().UTC().Format(time.RFC3339)
	if _, err := p.srv.db.ExecContext(ctx, `
		INSERT INTO keypad_state(match_id, state, updated_at) VALUES(?,?,?)
		ON CONFLICT(match_id) DO UPDATE SET state=excluded.state, updated_at=excluded.updated_at`,
		matchID, string(state), now); err != nil {
		log.Warn().Err(err).Str("matchId", matchID).Msg("save keypad snapshot")
	}
}

// drop forgets a match's pad and deletes its snapshot.
func (p *padServer) drop(ctx context.Context, matchID string) {
	p.mu.Lock()
	delete(p.pads, matchID)
	p.mu.Unlock()
	if _, err := p.srv.db.ExecContext(ctx, `DELETE FROM keypad_state WHERE match_id=?`, matchID); err != nil {
		log.Warn().Err(err).Str("matchId", matchID).Msg("delete keypad snapshot")
	}
}

func (p *padServer) handleState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, p.pad(r.Context(), chi.URLParam(r, "matchID")))
}

// pressReq enters one digit. Player 0 targets the active player.
type pressReq struct {
	Player int `json:"player"`
	Digit  int `json:"digit"`
}

func (p *padServer) handlePress(w http.ResponseWriter, r *http.Request) {
	var req pressReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"bad_json"}`, http.StatusBadRequest)
		return
	}
	if req.Digit < 0 || req.Digit > 10 {
		http.Error(w, `{"error":"invalid_digit"}`, http.StatusBadRequest)
		return
	}
	matchID := chi.URLParam(r, "matchID")
	pad := p.pad(r.Context(), matchID)
	accepted := pad.Box(req.Player).Press(req.Digit)
	if accepted {
		p.persist(r.Context(), matchID, pad)
	}
	writeJSON(w, map[string]any{"accepted": accepted, "pad": pad})
}

type padPlayerReq struct {
	Player int `json:"player"`
}

func (p *padServer) handleReset(w http.ResponseWriter, r *http.Request) {
	var req padPlayerReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"bad_json"}`, http.StatusBadRequest)
		return
	}
	matchID := chi.URLParam(r, "matchID")
	pad := p.pad(r.Context(), matchID)
	pad.Box(req.Player).Reset()
	p.persist(r.Context(), matchID, pad)
	writeJSON(w, pad)
}

func (p *padServer) handlePlayer(w http.ResponseWriter, r *http.Request) {
	var req padPlayerReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"bad_json"}`, http.StatusBadRequest)
		return
	}
	matchID := chi.URLParam(r, "matchID")
	pad := p.pad(r.Context(), matchID)
	pad.SetPlayer(req.Player)
	p.persist(r.Context(), matchID, pad)
	writeJSON(w, pad)
}
