// internal/httpserver/live.go
//
// WebSocket fan-out of match snapshots. Each connected viewer gets the
// current snapshot on connect and a fresh one after every applied action or
// committed turn. Slow consumers are dropped rather than allowed to stall
// the annotating client.

package httpserver

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/lucaferrini/tpascore/internal/scoring"
)

// liveHub tracks viewer connections per match. Each connection owns a
// buffered send channel drained by a single writer goroutine; the hub never
// writes to a socket directly.
type liveHub struct {
	mu    sync.Mutex
	conns map[string]map[*websocket.Conn]chan []byte
}

func newLiveHub() *liveHub {
	return &liveHub{conns: make(map[string]map[*websocket.Conn]chan []byte)}
}

func (h *liveHub) register(matchID string, conn *websocket.Conn) chan []byte {
	send := make(chan []byte, 16)
	h.mu.Lock()
	if h.conns[matchID] == nil {
		h.conns[matchID] = make(map[*websocket.Conn]chan []byte)
	}
	h.conns[matchID][conn] = send
	h.mu.Unlock()
	return send
}

func (h *liveHub) unregister(matchID string, conn *websocket.Conn) {
	h.mu.Lock()
	if send, ok := h.conns[matchID][conn]; ok {
		delete(h.conns[matchID], conn)
		if len(h.conns[matchID]) == 0 {
			delete(h.conns, matchID)
		}
		close(send)
	}
	h.mu.Unlock()
	conn.Close()
}

// broadcast queues a snapshot for every viewer of a match. A viewer whose
// buffer is full misses this frame; the next broadcast carries the whole
// state again so nothing is lost.
func (h *liveHub) broadcast(matchID string, snap scoring.Snapshot) {
	payload, err := json.Marshal(snap)
	if err != nil {
		log.Warn().Err(err).Str("matchId", matchID).Msg("encode live snapshot")
		return
	}
	h.mu.Lock()
	for _, send := range h.conns[matchID] {
		select {
		case send <- payload:
		default:
		}
	}
	h.mu.Unlock()
}

// close disconnects all viewers of a match, used when the match ends.
func (h *liveHub) close(matchID string) {
	h.mu.Lock()
	viewers := h.conns[matchID]
	delete(h.conns, matchID)
	h.mu.Unlock()
	for conn, send := range viewers {
		close(send)
		conn.Close()
	}
}

var liveUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Browsers connect from the scoreboard page on a different origin.
	CheckOrigin: func(*http.Request) bool { return true },
}

// handleLive upgrades GET /match/{matchID}/live to a WebSocket and streams
// snapshots until the match ends or the viewer disconnects.
func (s *Server) handleLive(w http.ResponseWriter, r *http.Request) {
	matchID := chi.URLParam(r, "matchID")
	m, err := s.store.Get(r.Context(), matchID)
	if err != nil {
		http.Error(w, `{"error":"match_not_found"}`, http.StatusNotFound)
		return
	}
	conn, err := liveUpgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Str("matchId", matchID).Msg("websocket upgrade")
		return
	}
	send := s.live.register(matchID, conn)

	// Writer: drain the send channel until the hub closes it.
	go func() {
		for payload := range send {
			if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				s.live.unregister(matchID, conn)
				return
			}
		}
		conn.Close()
	}()

	// Seed the viewer with the current state.
	if payload, err := json.Marshal(m.Snapshot()); err == nil {
		select {
		case send <- payload:
		default:
		}
	}

	// Reader: viewers never send data; the loop just detects disconnect.
	go func() {
		for {
			if _, _, err := conn.NextReader(); err != nil {
				s.live.unregister(matchID, conn)
				return
			}
		}
	}()
}
