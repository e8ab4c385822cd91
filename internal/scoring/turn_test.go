package scoring

import (
	"reflect"
	"testing"
)

func actionTokens(acts []Action) []string {
	out := make([]string, 0, len(acts))
	for _, a := range acts {
		out = append(out, a.String())
	}
	return out
}

func mustAnnotate(t *testing.T, m *Match, acts ...Action) {
	t.Helper()
	for _, a := range acts {
		if !m.Annotate(a) {
			t.Fatalf("action %v not accepted; offered: %v", a, actionTokens(m.AvailableActions()))
		}
	}
}

func mustCommit(t *testing.T, m *Match) {
	t.Helper()
	if !m.CommitTurn() {
		t.Fatalf("turn not committable; offered: %v", actionTokens(m.AvailableActions()))
	}
}

func TestBreakOffersFullCountRange(t *testing.T) {
	m := NewMatch("", "", Nine)
	got := actionTokens(m.AvailableActions())
	want := []string{"0", "1", "2", "3", "4", "5", "6", "7", "8", "9"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("break actions = %v, want %v", got, want)
	}
}

func TestBreakContinuationRange(t *testing.T) {
	m := NewMatch("", "", Nine)
	mustAnnotate(t, m, BallCount(2))
	got := actionTokens(m.AvailableActions())
	// Zero is always offered; the continuation range starts at the break
	// count (you cannot finish the turn having potted fewer overall).
	want := []string{"0", "2", "3", "4", "5", "6", "7", "8", "9"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("continuation actions = %v, want %v", got, want)
	}
}

func TestEightBallContinuationStartsAtZero(t *testing.T) {
	m := NewMatch("", "", Eight)
	mustAnnotate(t, m, BallCount(3))
	got := actionTokens(m.AvailableActions())
	want := []string{"0", "1", "2", "3", "4", "5", "6", "7", "8"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("eight-ball continuation = %v, want %v", got, want)
	}
}

func TestDryBreakOffersOnlyIllegalContactPair(t *testing.T) {
	m := NewMatch("", "", Nine)
	mustAnnotate(t, m, BallCount(0))
	got := actionTokens(m.AvailableActions())
	want := []string{"nohit", "pocketed"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("dry break actions = %v, want %v", got, want)
	}
}

func TestCleanPotOffersWin(t *testing.T) {
	m := NewMatch("", "", Nine)
	mustAnnotate(t, m, BallCount(0))
	mustCommit(t, m) // dry break (0,0) hands over directly

	mustAnnotate(t, m, BallCount(3))
	got := actionTokens(m.AvailableActions())
	want := []string{"win", "miss", "kick", "safety", "pocketed", "nohit"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("clean pot actions = %v, want %v", got, want)
	}
}

func TestStickyWinningSurvivesReset(t *testing.T) {
	m := NewMatch("", "", Nine)
	mustAnnotate(t, m, BallCount(0))
	mustCommit(t, m)

	// No query between the qualifying count and the reset: the annotation
	// alone must make winning stick.
	mustAnnotate(t, m, BallCount(9)) // pots everything
	m.ResetTurn()
	turn := m.CurrentTurn()
	if !turn.IsWinning() {
		t.Fatal("winning is sticky across a reset")
	}
	if acts := m.AvailableActions(); acts != nil {
		t.Fatalf("winning turn must be locked, offered %v", actionTokens(acts))
	}
}

func TestKickInOnWinningTurn(t *testing.T) {
	m := NewMatch("", "", Nine)
	mustAnnotate(t, m, BallCount(0))
	mustCommit(t, m)
	mustAnnotate(t, m, BallCount(0), ActionSafety)
	mustCommit(t, m)

	// Opponent declared a safety; a winning answer still records its kick-in.
	mustAnnotate(t, m, BallCount(9))
	got := actionTokens(m.AvailableActions())
	if !reflect.DeepEqual(got, []string{"kick-in"}) {
		t.Fatalf("winning turn after safety = %v, want [kick-in]", got)
	}
	mustAnnotate(t, m, ActionKickIn)
	if acts := m.AvailableActions(); acts != nil {
		t.Fatalf("second kick-in must not be offered: %v", actionTokens(acts))
	}
	ks := m.CurrentTurn().Annotation.KickSequence
	if len(ks) != 1 || !ks[0].IsFirst {
		t.Fatalf("kick sequence = %+v", ks)
	}
}
