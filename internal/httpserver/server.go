// internal/httpserver/server.go
//
// HTTP server wiring for the TPA scorekeeper backend.
// Responsibilities:
//   - Router + middleware (JSON, CORS, timeouts, panic recovery, request IDs).
//   - Public endpoints: "/", "/health".
//   - Match endpoints (optional auth): POST /match/new, per-match action/
//     commit/reset/state/end routes, websocket live feed.
//   - Keypad endpoints (optional auth): mounted under /match/{id}/keypad.
//   - Player-name persistence (optional auth): GET/PUT /names.
//   - Auth + profile endpoints (require auth): /auth/*, /matches/mine.
//   - JWT + cookie handling, anonymous session cookie, user CRUD helpers.
//   - Database persistence for match rows and user accounts.
//
// Notes:
//   - The scoring engine is the single source of truth; handlers apply one
//     transition, persist best-effort, and return the fresh snapshot.
//   - DB writes around transitions never roll back into engine state;
//     failures are logged and swallowed.
//   - CORS is origin-aware and credentials-enabled (so cookies work).

package httpserver

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"

	"github.com/lucaferrini/tpascore/internal/export"
	"github.com/lucaferrini/tpascore/internal/names"
	"github.com/lucaferrini/tpascore/internal/scoring"
	"github.com/lucaferrini/tpascore/internal/store"
)

// Server bundles router, live match store, DB handle and collaborators.
type Server struct {
	r        *chi.Mux
	store    store.Store
	db       *sql.DB
	names    *names.Store
	uploader *export.Uploader
	live     *liveHub
	pads     *padServer
}

// New constructs a Server, installs middleware, and registers routes.
func New(st store.Store, db *sql.DB) *Server {
	s := &Server{
		r:        chi.NewRouter(),
		store:    st,
		db:       db,
		names:    names.NewStore(db),
		uploader: export.NewUploader(os.Getenv("SHEETS_URL")),
		live:     newLiveHub(),
	}
	s.pads = newPadServer(s)

	// --- middleware ---
	s.r.Use(chimw.RequestID)                 // add X-Request-ID
	s.r.Use(chimw.RealIP)                    // set RemoteAddr from X-Forwarded-For etc.
	s.r.Use(chimw.Recoverer)                 // recover from panics
	s.r.Use(chimw.Timeout(10 * time.Second)) // bound handler time
	s.r.Use(jsonContentType)                 // default JSON responses
	s.r.Use(corsFromEnv)                     // credentials-friendly CORS

	// --- diagnostics ---
	s.r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"service":"tpascore","endpoints":["/health","POST /match/new","POST /match/{id}/action","/auth/*"]}`))
	})
	s.r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"ok":true}`))
	})

	// Match endpoints — OPTIONAL AUTH (guests can keep score)
	s.r.With(s.withOptionalAuth()).Route("/match", func(r chi.Router) {
		r.Post("/new", s.handleNewMatch)
		r.Route("/{matchID}", func(r chi.Router) {
			r.Get("/", s.handleState)
			r.Post("/action", s.handleAction)
			r.Post("/commit", s.handleCommit)
			r.Post("/reset", s.handleReset)
			r.Post("/end", s.handleEnd)
			r.Get("/live", s.handleLive)
			s.pads.mount(r)
		})
	})

	// Player-name persistence — OPTIONAL AUTH (anon cookie for guests)
	s.r.With(s.withOptionalAuth()).Get("/names", s.handleGetNames)
	s.r.With(s.withOptionalAuth()).Put("/names", s.handlePutNames)

	// Auth + profile (require auth)
	s.mountAuthRoutes()

	// JSON 404 for easier debugging
	s.r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"not_found","path":"`+r.URL.Path+`"}`, http.StatusNotFound)
	})

	return s
}

// Start begins serving HTTP on addr.
func (s *Server) Start(addr string) error { return http.ListenAndServe(addr, s.r) }

// Router exposes the internal router (useful for tests).
func (s *Server) Router() chi.Router { return s.r }

// ----------------------------- middleware ----------------------------------

// jsonContentType sets a default JSON Content-Type header on all responses.
func jsonContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		next.ServeHTTP(w, r)
	})
}

// corsFromEnv enables credentialed CORS for a single origin.
// Uses CLIENT_ORIGIN env var; defaults to http://localhost:5173.
func corsFromEnv(next http.Handler) http.Handler {
	origin := os.Getenv("CLIENT_ORIGIN")
	if origin == "" {
		origin = "http://localhost:5173"
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Vary", "Origin")
		w.Header().Set("Access-Control-Allow-Origin", origin)
		w.Header().Set("Access-Control-Allow-Credentials", "true")
		w.Header().Set("Access-Control-Allow-Methods", "GET,POST,PUT,OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ------------------------------ MATCH --------------------------------------

// newMatchReq is the payload for POST /match/new.
type newMatchReq struct {
	Player1 string `json:"player1"`
	Player2 string `json:"player2"`
	Variant int    `json:"variant"` // 8, 9 or 10
}

// matchRes is the standard transition response: whether the input was
// applied plus the fresh snapshot.
type matchRes struct {
	MatchID  string           `json:"matchId"`
	Applied  bool             `json:"applied"`
	Snapshot scoring.Snapshot `json:"snapshot"`
}

// handleNewMatch creates a new in-memory match and persists a DB "owner"
// row (either user_id or anonymous_id) for history.
func (s *Server) handleNewMatch(w http.ResponseWriter, r *http.Request) {
	var req newMatchReq
	_ = json.NewDecoder(r.Body).Decode(&req)

	v, ok := scoring.VariantFromBalls(req.Variant)
	if !ok {
		http.Error(w, `{"error":"invalid_variant"}`, http.StatusBadRequest)
		return
	}
	m := scoring.NewMatch(strings.TrimSpace(req.Player1), strings.TrimSpace(req.Player2), v)
	if err := s.store.Save(r.Context(), m); err != nil {
		log.Error().Err(err).Msg("save match")
		http.Error(w, `{"error":"save_failed"}`, http.StatusInternalServerError)
		return
	}

	// Persist owner row (best effort, non-fatal if it fails)
	now := time.Now().UTC().Format(time.RFC3339)
	if me, _ := r.Context().Value(ctxUserKey{}).(*authUser); me != nil {
		_, err := s.db.Exec(`INSERT INTO matches (id, user_id, player1, player2, game_type, started_at, status)
		                     VALUES (?,?,?,?,?,?,?)`, m.ID, me.ID, m.Players[0], m.Players[1], m.Variant.Balls(), now, "playing")
		if err != nil {
			log.Warn().Err(err).Str("matchId", m.ID).Msg("insert user match row")
		}
	} else {
		anon := s.ensureAnonID(w, r)
		_, err := s.db.Exec(`INSERT INTO matches (id, anonymous_id, player1, player2, game_type, started_at, status)
		                     VALUES (?,?,?,?,?,?,?)`, m.ID, anon, m.Players[0], m.Players[1], m.Variant.Balls(), now, "playing")
		if err != nil {
			log.Warn().Err(err).Str("matchId", m.ID).Msg("insert anon match row")
		}
	}

	writeJSON(w, matchRes{MatchID: m.ID, Applied: true, Snapshot: m.Snapshot()})
}

// getMatch loads the match from the live store or replies 404.
func (s *Server) getMatch(w http.ResponseWriter, r *http.Request) *scoring.Match {
	id := chi.URLParam(r, "matchID")
	m, err := s.store.Get(r.Context(), id)
	if err != nil {
		http.Error(w, `{"error":"not_found"}`, http.StatusNotFound)
		return nil
	}
	return m
}

// handleState returns the current snapshot.
func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	m := s.getMatch(w, r)
	if m == nil {
		return
	}
	writeJSON(w, matchRes{MatchID: m.ID, Applied: true, Snapshot: m.Snapshot()})
}

// actionReq carries one referee input token.
type actionReq struct {
	Action string `json:"action"`
}

// handleAction applies one action token to the active turn. Out-of-phase or
// unknown tokens are a silent no-op: the engine is defensively total, so
// the response is 200 with applied=false and an unchanged snapshot.
func (s *Server) handleAction(w http.ResponseWriter, r *http.Request) {
	m := s.getMatch(w, r)
	if m == nil {
		return
	}
	var req actionReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"bad_json"}`, http.StatusBadRequest)
		return
	}
	applied := m.Annotate(scoring.ParseAction(strings.TrimSpace(req.Action)))
	if err := s.store.Save(r.Context(), m); err != nil {
		http.Error(w, `{"error":"save_failed"}`, http.StatusInternalServerError)
		return
	}
	snap := m.Snapshot()
	if applied {
		s.live.broadcast(m.ID, snap)
	}
	writeJSON(w, matchRes{MatchID: m.ID, Applied: applied, Snapshot: snap})
}

// handleCommit closes the active turn (player switch). A no-op while the
// turn is not committable.
func (s *Server) handleCommit(w http.ResponseWriter, r *http.Request) {
	m := s.getMatch(w, r)
	if m == nil {
		return
	}
	committed := m.CommitTurn()
	if err := s.store.Save(r.Context(), m); err != nil {
		http.Error(w, `{"error":"save_failed"}`, http.StatusInternalServerError)
		return
	}
	if committed {
		// Keep the durable rack score current (best effort).
		p1, p2 := m.Score.Player(1).RacksWon, m.Score.Player(2).RacksWon
		if _, err := s.db.Exec(`UPDATE matches SET racks_p1=?, racks_p2=? WHERE id=?`, p1, p2, m.ID); err != nil {
			log.Warn().Err(err).Str("matchId", m.ID).Msg("update rack score")
		}
		s.live.broadcast(m.ID, m.Snapshot())
	}
	writeJSON(w, matchRes{MatchID: m.ID, Applied: committed, Snapshot: m.Snapshot()})
}

// handleReset clears the active turn's annotation without advancing.
func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	m := s.getMatch(w, r)
	if m == nil {
		return
	}
	m.ResetTurn()
	if err := s.store.Save(r.Context(), m); err != nil {
		http.Error(w, `{"error":"save_failed"}`, http.StatusInternalServerError)
		return
	}
	snap := m.Snapshot()
	s.live.broadcast(m.ID, snap)
	writeJSON(w, matchRes{MatchID: m.ID, Applied: true, Snapshot: snap})
}

// handleEnd finishes the match: builds the full history export, persists
// the final result row, fires the external upload, and drops the live
// session. The export is returned to the caller for rendering.
func (s *Server) handleEnd(w http.ResponseWriter, r *http.Request) {
	m := s.getMatch(w, r)
	if m == nil {
		return
	}
	res := export.Build(m)

	payload, err := json.Marshal(res)
	if err != nil {
		log.Warn().Err(err).Str("matchId", m.ID).Msg("marshal result payload")
	}
	now := time.Now().UTC().Format(time.RFC3339)
	if _, err := s.db.Exec(`UPDATE matches SET status='finished', finished_at=?, racks_p1=?, racks_p2=?, result_json=? WHERE id=?`,
		now, m.Score.Player(1).RacksWon, m.Score.Player(2).RacksWon, string(payload), m.ID); err != nil {
		log.Warn().Err(err).Str("matchId", m.ID).Msg("finish match row")
	}
	if me, _ := r.Context().Value(ctxUserKey{}).(*authUser); me != nil {
		if _, err := s.db.Exec(`UPDATE users SET matches_played = matches_played + 1 WHERE id=?`, me.ID); err != nil {
			log.Warn().Err(err).Str("user", me.ID).Msg("bump matches played")
		}
	}

	s.uploader.Submit(res)
	s.live.close(m.ID)
	s.pads.drop(r.Context(), m.ID)
	_ = s.store.Delete(r.Context(), m.ID)

	writeJSON(w, res)
}

// ------------------------------ NAMES --------------------------------------

// handleGetNames returns the caller's last-used player names.
func (s *Server) handleGetNames(w http.ResponseWriter, r *http.Request) {
	p, err := s.names.Get(r.Context(), s.ownerID(w, r))
	if err != nil {
		log.Warn().Err(err).Msg("load player names")
		http.Error(w, `{"error":"db_error"}`, http.StatusInternalServerError)
		return
	}
	writeJSON(w, p)
}

// handlePutNames stores the caller's player name pair.
func (s *Server) handlePutNames(w http.ResponseWriter, r *http.Request) {
	var p names.Pair
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		http.Error(w, `{"error":"bad_json"}`, http.StatusBadRequest)
		return
	}
	if err := s.names.Put(r.Context(), s.ownerID(w, r), p); err != nil {
		log.Warn().Err(err).Msg("save player names")
		http.Error(w, `{"error":"db_error"}`, http.StatusInternalServerError)
		return
	}
	writeJSON(w, map[string]bool{"ok": true})
}

// ownerID identifies the caller: user ID when authenticated, anon cookie
// otherwise.
func (s *Server) ownerID(w http.ResponseWriter, r *http.Request) string {
	if me, _ := r.Context().Value(ctxUserKey{}).(*authUser); me != nil {
		return me.ID
	}
	return s.ensureAnonID(w, r)
}

// ------------------------------- AUTH --------------------------------------

// Request payloads for signup/login.
type signupReq struct{ Username, Password string }
type loginReq struct{ Username, Password string }

// authUser is placed into request context by auth middleware.
type authUser struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

// mountAuthRoutes registers authentication + gated routes (/auth/*, /matches/mine).
func (s *Server) mountAuthRoutes() {
	s.r.Post("/auth/signup", s.handleSignup)
	s.r.Post("/auth/login", s.handleLogin)
	s.r.Post("/auth/logout", s.handleLogout)

	// Current user (gated)
	s.r.With(s.requireAuth()).Get("/auth/me", func(w http.ResponseWriter, r *http.Request) {
		me, _ := r.Context().Value(ctxUserKey{}).(*authUser)
		if me == nil {
			http.Error(w, `{"error":"Unauthorized"}`, http.StatusUnauthorized)
			return
		}
		writeJSON(w, me)
	})

	// Recent matches (gated)
	s.r.With(s.requireAuth()).Get("/matches/mine", func(w http.ResponseWriter, r *http.Request) {
		me, _ := r.Context().Value(ctxUserKey{}).(*authUser)
		if me == nil {
			http.Error(w, `{"error":"Unauthorized"}`, http.StatusUnauthorized)
			return
		}
		rows, err := s.db.Query(`SELECT id, player1, player2, game_type, status, racks_p1, racks_p2, started_at, COALESCE(finished_at,'')
		                         FROM matches WHERE user_id=? ORDER BY started_at DESC LIMIT 50`, me.ID)
		if err != nil {
			http.Error(w, `{"error":"db_error"}`, http.StatusInternalServerError)
			return
		}
		defer rows.Close()

		type matchRow struct {
			ID         string `json:"id"`
			Player1    string `json:"player1"`
			Player2    string `json:"player2"`
			GameType   int    `json:"gameType"`
			Status     string `json:"status"`
			RacksP1    int    `json:"racksP1"`
			RacksP2    int    `json:"racksP2"`
			StartedAt  string `json:"startedAt"`
			FinishedAt string `json:"finishedAt,omitempty"`
		}
		out := []matchRow{}
		for rows.Next() {
			var mr matchRow
			if err := rows.Scan(&mr.ID, &mr.Player1, &mr.Player2, &mr.GameType, &mr.Status, &mr.RacksP1, &mr.RacksP2, &mr.StartedAt, &mr.FinishedAt); err == nil {
				out = append(out, mr)
			}
		}
		writeJSON(w, out)
	})
}

// handleSignup creates a new user, signs a JWT, sets auth cookie, and claims anon history.
func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	var body signupReq
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, `{"error":"invalid_json"}`, http.StatusBadRequest)
		return
	}
	u, err := s.createUser(body.Username, body.Password)
	if err != nil {
		if err.Error() == "username taken" {
			http.Error(w, `{"error":"Username taken"}`, http.StatusConflict)
			return
		}
		http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusBadRequest)
		return
	}
	tok, exp, err := s.signJWT(u.ID, u.Username)
	if err != nil {
		http.Error(w, `{"error":"sign_failed"}`, http.StatusInternalServerError)
		return
	}
	s.setAuthCookie(w, tok, exp)
	// Attach any anonymous matches to the new account
	s.claimAnonMatches(s.ensureAnonID(w, r), u.ID)
	writeJSON(w, map[string]any{"id": u.ID, "username": u.Username, "createdAt": u.CreatedAt})
}

// handleLogin authenticates user, sets cookie, and claims anon history.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var body loginReq
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, `{"error":"invalid_json"}`, http.StatusBadRequest)
		return
	}
	u, err := s.findUserByUsername(strings.TrimSpace(body.Username))
	if err != nil || !checkPassword(u.PasswordHash, body.Password) {
		http.Error(w, `{"error":"Invalid username or password"}`, http.StatusUnauthorized)
		return
	}
	tok, exp, err := s.signJWT(u.ID, u.Username)
	if err != nil {
		http.Error(w, `{"error":"sign_failed"}`, http.StatusInternalServerError)
		return
	}
	s.setAuthCookie(w, tok, exp)
	s.claimAnonMatches(s.ensureAnonID(w, r), u.ID)
	writeJSON(w, map[string]any{"id": u.ID, "username": u.Username})
}

// handleLogout clears the auth cookie.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.clearAuthCookie(w)
	writeJSON(w, map[string]bool{"ok": true})
}

// --------------------------- optional auth ---------------------------------

// withOptionalAuth decorates requests with user context if a valid JWT is present.
// It never 401s; used for routes where guests are allowed.
func (s *Server) withOptionalAuth() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if tok := bearerOrCookie(r); tok != "" {
				claims := jwt.MapClaims{}
				if t, err := jwt.ParseWithClaims(tok, claims, func(t *jwt.Token) (interface{}, error) {
					return []byte(getEnv("JWT_SECRET", "dev_secret_change_me")), nil
				}); err == nil && t.Valid {
					if id, _ := claims["id"].(string); id != "" {
						if u, err := s.findUserByID(id); err == nil {
							ctx := context.WithValue(r.Context(), ctxUserKey{}, &authUser{ID: u.ID, Username: u.Username})
							r = r.WithContext(ctx)
						}
					}
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

const anonCookieName = "tpa_anon"

// ensureAnonID returns an existing anon cookie or sets a new one.
// Used to associate guest matches with a stable identifier.
func (s *Server) ensureAnonID(w http.ResponseWriter, r *http.Request) string {
	if c, err := r.Cookie(anonCookieName); err == nil && c.Value != "" {
		return c.Value
	}
	id := genID()
	http.SetCookie(w, &http.Cookie{
		Name:     anonCookieName,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		Secure:   os.Getenv("NODE_ENV") == "production",
		SameSite: func() http.SameSite {
			if os.Getenv("NODE_ENV") == "production" {
				return http.SameSiteNoneMode
			}
			return http.SameSiteLaxMode
		}(),
		Expires: time.Now().Add(60 * 24 * time.Hour),
	})
	return id
}

// claimAnonMatches transfers any anonymous matches to a user account after auth.
func (s *Server) claimAnonMatches(anonID, userID string) {
	if anonID == "" || userID == "" {
		return
	}
	if _, err := s.db.Exec(`UPDATE matches SET user_id=?, anonymous_id=NULL WHERE anonymous_id=?`, userID, anonID); err != nil {
		log.Warn().Err(err).Msg("claim anon matches")
	}
}

// ------------------------ auth helpers & users -----------------------------

// userRow matches the users table shape.
type userRow struct {
	ID            string
	Username      string
	PasswordHash  string
	CreatedAt     time.Time
	MatchesPlayed int
}

// createUser validates input, checks uniqueness, hashes password, and inserts a new user.
func (s *Server) createUser(username, pw string) (*userRow, error) {
	username = strings.TrimSpace(username)
	if err := validateSignup(username, pw); err != nil {
		return nil, err
	}
	var exists int
	_ = s.db.QueryRow(`SELECT 1 FROM users WHERE lower(username)=lower(?)`, username).Scan(&exists)
	if exists == 1 {
		return nil, errors.New("username taken")
	}
	h, err := bcrypt.GenerateFromPassword([]byte(pw), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC().Format(time.RFC3339)
	id := genID()
	if _, err := s.db.Exec(`INSERT INTO users (id, username, password_hash, created_at) VALUES (?,?,?,?)`,
		id, username, string(h), now); err != nil {
		return nil, err
	}
	return &userRow{ID: id, Username: username, PasswordHash: string(h), CreatedAt: mustParse(now)}, nil
}

// findUserByUsername/ID load a user row or return an error if missing.
func (s *Server) findUserByUsername(username string) (*userRow, error) {
	row := s.db.QueryRow(`SELECT id, username, password_hash, created_at, matches_played
	                      FROM users WHERE lower(username)=lower(?)`, username)
	return scanUser(row)
}
func (s *Server) findUserByID(id string) (*userRow, error) {
	row := s.db.QueryRow(`SELECT id, username, password_hash, created_at, matches_played
	                      FROM users WHERE id=?`, id)
	return scanUser(row)
}

// scanUser converts a *sql.Row into a userRow.
func scanUser(row *sql.Row) (*userRow, error) {
	var u userRow
	var created string
	if err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &created, &u.MatchesPlayed); err != nil {
		return nil, err
	}
	u.CreatedAt = mustParse(created)
	return &u, nil
}

// mustParse parses RFC3339 timestamps; on error returns zero time.
func mustParse(s string) time.Time {
	t, _ := time.Parse(time.RFC3339, s)
	return t
}

// checkPassword is a bcrypt verifier.
func checkPassword(hash, pw string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(pw)) == nil
}

// validateSignup enforces basic username/password rules.
func validateSignup(u, p string) error {
	if len(u) < 3 || len(u) > 24 {
		return errors.New("username must be 3–24 chars")
	}
	for _, r := range u {
		if !(r == '_' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9') {
			return errors.New("username: letters, numbers, underscore only")
		}
	}
	if len(p) < 8 || len(p) > 100 {
		return errors.New("password must be 8–100 chars")
	}
	return nil
}

// genID creates a 22-char URL-safe, crypto-random identifier (no padding).
func genID() string {
	var b [16]byte
	_, _ = rand.Read(b[:])
	s := base64.URLEncoding.WithPadding(base64.NoPadding).EncodeToString(b[:])
	if len(s) > 22 {
		return s[:22]
	}
	return s
}

// ------------------------------ JWT & cookies ------------------------------

// signJWT creates an HS256 JWT with id/username and a configurable expiry (JWT_EXPIRES_DAYS; default 14).
func (s *Server) signJWT(id, username string) (string, time.Time, error) {
	secret := getEnv("JWT_SECRET", "dev_secret_change_me")
	days := 14
	if v := os.Getenv("JWT_EXPIRES_DAYS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			days = n
		}
	}
	exp := time.Now().Add(time.Duration(days) * 24 * time.Hour)
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"id":       id,
		"username": username,
		"exp":      exp.Unix(),
		"iat":      time.Now().Unix(),
	})
	ss, err := t.SignedString([]byte(secret))
	return ss, exp, err
}

// setAuthCookie writes the auth token cookie with appropriate security attributes.
func (s *Server) setAuthCookie(w http.ResponseWriter, token string, exp time.Time) {
	name := getEnv("COOKIE_NAME", "tpa_token")
	secure := os.Getenv("NODE_ENV") == "production"
	sameSite := http.SameSiteLaxMode
	if secure {
		sameSite = http.SameSiteNoneMode // required for third-party contexts when Secure
	}
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   secure,
		SameSite: sameSite,
		Expires:  exp,
	})
}

// clearAuthCookie deletes the auth token cookie.
func (s *Server) clearAuthCookie(w http.ResponseWriter) {
	name := getEnv("COOKIE_NAME", "tpa_token")
	secure := os.Getenv("NODE_ENV") == "production"
	sameSite := http.SameSiteLaxMode
	if secure {
		sameSite = http.SameSiteNoneMode
	}
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   secure,
		SameSite: sameSite,
		MaxAge:   -1,
	})
}

// bearerOrCookie extracts a bearer token from Authorization header or auth cookie.
func bearerOrCookie(r *http.Request) string {
	// Authorization: Bearer <token>
	if a := r.Header.Get("Authorization"); strings.HasPrefix(strings.ToLower(a), "bearer ") {
		return strings.TrimSpace(a[7:])
	}
	if c, err := r.Cookie(getEnv("COOKIE_NAME", "tpa_token")); err == nil {
		return c.Value
	}
	return ""
}

// ---------------------------- auth middleware ------------------------------

// ctxUserKey is the context key type for storing authUser.
type ctxUserKey struct{}

// requireAuth enforces a valid JWT and injects authUser into request context.
func (s *Server) requireAuth() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenStr := bearerOrCookie(r)
			if tokenStr == "" {
				http.Error(w, `{"error":"Unauthorized"}`, http.StatusUnauthorized)
				return
			}
			claims := jwt.MapClaims{}
			token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
				return []byte(getEnv("JWT_SECRET", "dev_secret_change_me")), nil
			})
			if err != nil || !token.Valid {
				http.Error(w, `{"error":"Invalid token"}`, http.StatusUnauthorized)
				return
			}
			id, _ := claims["id"].(string)
			username, _ := claims["username"].(string)
			if id == "" || username == "" {
				http.Error(w, `{"error":"Invalid token"}`, http.StatusUnauthorized)
				return
			}
			// Ensure user still exists
			if _, err := s.findUserByID(id); err != nil {
				http.Error(w, `{"error":"Invalid token"}`, http.StatusUnauthorized)
				return
			}
			ctx := context.WithValue(r.Context(), ctxUserKey{}, &authUser{ID: id, Username: username})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ------------------------------- small util --------------------------------

// getEnv returns the value of k or def if unset/empty.
func getEnv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

// writeJSON encodes v onto the response, ignoring encode errors as the
// handlers above do for their raw writes.
func writeJSON(w http.ResponseWriter, v any) {
	_ = json.NewEncoder(w).Encode(v)
}
