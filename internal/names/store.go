package names

import (
	"context"
	"database/sql"
	"errors"
)

// Pair is the last-used player name pair for one owner (a user ID or an
// anonymous cookie ID).
type Pair struct {
	Player1 string `json:"player1"`
	Player2 string `json:"player2"`
}

type Store struct{ db *sql.DB }

func NewStore(db *sql.DB) *Store { return &Store{db: db} }

// Get returns the saved pair for owner, or zero values when none exists.
func (s *Store) Get(ctx context.Context, owner string) (Pair, error) {
	var p Pair
	err := s.db.QueryRowContext(ctx,
		`SELECT player1, player2 FROM player_names WHERE owner_id=?`,
		owner,
	).Scan(&p.Player1, &p.Player2)
	if errors.Is(err, sql.ErrNoRows) {
		return Pair{}, nil
	}
	return p, err
}

// Put upserts the pair for owner.
func (s *Store) Put(ctx context.Context, owner string, p Pair) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO player_names(owner_id, player1, player2, updated_at)
		 VALUES(?,?,?,CURRENT_TIMESTAMP)
		 ON CONFLICT(owner_id) DO UPDATE
		   SET player1=excluded.player1,
		       player2=excluded.player2,
		       updated_at=CURRENT_TIMESTAMP`,
		owner, p.Player1, p.Player2,
	)
	return err
}
