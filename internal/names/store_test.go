package names

import (
	"context"
	"database/sql"
	"testing"

	_ "github.com/mattn/go-sqlite3"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatal(err)
	}
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(`CREATE TABLE player_names (
		owner_id TEXT PRIMARY KEY,
		player1 TEXT NOT NULL DEFAULT '',
		player2 TEXT NOT NULL DEFAULT '',
		updated_at TEXT NOT NULL)`); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return NewStore(db)
}

func TestGetMissingOwner(t *testing.T) {
	s := newTestStore(t)
	p, err := s.Get(context.Background(), "nobody")
	if err != nil {
		t.Fatal(err)
	}
	if p != (Pair{}) {
		t.Fatalf("missing owner pair = %+v", p)
	}
}

func TestPutUpserts(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	if err := s.Put(ctx, "anon1", Pair{Player1: "Ann", Player2: "Bob"}); err != nil {
		t.Fatal(err)
	}
	if err := s.Put(ctx, "anon1", Pair{Player1: "Ann", Player2: "Cleo"}); err != nil {
		t.Fatal(err)
	}
	p, err := s.Get(ctx, "anon1")
	if err != nil {
		t.Fatal(err)
	}
	if p.Player1 != "Ann" || p.Player2 != "Cleo" {
		t.Fatalf("pair = %+v", p)
	}
}
