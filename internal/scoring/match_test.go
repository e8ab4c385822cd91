package scoring

import "testing"

func TestNewMatchDefaults(t *testing.T) {
	m := NewMatch("", "  ", Nine)
	if m.Players[0] != "Player 1" {
		t.Fatalf("player1 fallback = %q", m.Players[0])
	}
	if m.Players[1] != "Player 2" {
		t.Fatalf("whitespace-only player2 must fall back, got %q", m.Players[1])
	}
	if got := NewMatch(" Ann ", "Bob", Nine).Players[0]; got != "Ann" {
		t.Fatalf("name must be trimmed, got %q", got)
	}
	if m.ID == "" || len(m.ID) != 16 {
		t.Fatalf("match id = %q", m.ID)
	}
	turn := m.CurrentTurn()
	if !turn.IsBreak() || turn.Player != 1 || turn.BallsRemaining != 9 {
		t.Fatalf("opening turn = %+v", turn)
	}
}

func TestAnnotateRejectsOutOfPhase(t *testing.T) {
	m := NewMatch("", "", Nine)
	if m.Annotate(ActionMiss) {
		t.Fatal("miss must not apply before a ball count")
	}
	if m.Annotate(ActionInvalid) {
		t.Fatal("invalid action must be a no-op")
	}
	if m.CurrentTurn().Played() {
		t.Fatal("rejected actions must not mutate the turn")
	}
}

func TestClassificationMutualExclusion(t *testing.T) {
	m := NewMatch("", "", Nine)
	mustAnnotate(t, m, BallCount(0))
	mustCommit(t, m)
	mustAnnotate(t, m, BallCount(3))

	a := &m.CurrentTurn().Annotation
	mustAnnotate(t, m, ActionMiss)
	if !a.MissErrors.Equals(1) || a.Kick.True() || a.Safety.True() {
		t.Fatal("miss must clear kick and safety")
	}
	mustAnnotate(t, m, ActionKick)
	if !a.Kick.True() || a.MissErrors.Value() != 0 || a.Safety.True() {
		t.Fatal("kick must clear miss and safety")
	}
	mustAnnotate(t, m, ActionSafety)
	if !a.Safety.True() || a.Kick.True() || a.MissErrors.Value() != 0 {
		t.Fatal("safety must clear miss and kick")
	}
}

func TestIllegalContactToggles(t *testing.T) {
	m := NewMatch("", "", Nine)
	mustAnnotate(t, m, BallCount(0))

	a := &m.CurrentTurn().Annotation
	mustAnnotate(t, m, ActionNoHit)
	if !a.NoHit.True() || a.Pocketed.True() {
		t.Fatal("no-hit must set and clear pocketed")
	}
	mustAnnotate(t, m, ActionPocketed)
	if a.NoHit.True() || !a.Pocketed.True() {
		t.Fatal("pocketed must set and clear no-hit")
	}
	// The toggles stay available after classification.
	mustAnnotate(t, m, ActionPocketed)
	if a.Pocketed.True() {
		t.Fatal("second pocketed must toggle the flag off")
	}
}

func TestCommitRequiresClassification(t *testing.T) {
	m := NewMatch("", "", Nine)
	mustAnnotate(t, m, BallCount(0))
	mustCommit(t, m)

	mustAnnotate(t, m, BallCount(3))
	if m.CanCommitTurn() {
		t.Fatal("recorded but unclassified shot must block the commit")
	}
	if m.CommitTurn() {
		t.Fatal("commit must be a no-op while blocked")
	}
	if m.CurrentPlayer != 2 || len(m.currentRack().Turns) != 2 {
		t.Fatal("rejected commit must leave state unchanged")
	}
	mustAnnotate(t, m, ActionMiss)
	mustCommit(t, m)
	if m.CurrentPlayer != 1 {
		t.Fatal("commit must switch the player")
	}
}

func TestUnplayedBreakHandsOver(t *testing.T) {
	m := NewMatch("", "", Nine)
	mustCommit(t, m)
	turn := m.CurrentTurn()
	if len(m.currentRack().Turns) != 1 || !turn.IsBreak() || turn.Player != 2 {
		t.Fatalf("unplayed break must be reassigned, got %+v", turn)
	}
	if m.CurrentPlayer != 2 {
		t.Fatal("current player must follow the handover")
	}
}

func TestWinOpensNewRack(t *testing.T) {
	m := NewMatch("Ann", "Bob", Nine)
	mustAnnotate(t, m, BallCount(0))
	mustCommit(t, m)
	mustAnnotate(t, m, BallCount(9))
	mustCommit(t, m)

	if got := m.Score.Player(2).RacksWon; got != 1 {
		t.Fatalf("racks won = %d, want 1", got)
	}
	if len(m.Racks) != 2 {
		t.Fatalf("racks = %d, want 2", len(m.Racks))
	}
	turn := m.CurrentTurn()
	if !turn.IsBreak() || turn.Player != 1 || turn.BallsRemaining != 9 {
		t.Fatalf("new rack break turn = %+v", turn)
	}
}

func TestTripleFoulAwardsRack(t *testing.T) {
	m := NewMatch("", "", Nine)
	// Three illegal contacts in a row, alternating players.
	mustAnnotate(t, m, BallCount(0), ActionNoHit)
	mustCommit(t, m)
	mustAnnotate(t, m, BallCount(0), ActionNoHit)
	mustCommit(t, m)
	mustAnnotate(t, m, BallCount(0), ActionNoHit)
	if got := m.CurrentTurn().ConsecutiveErrors; got != 3 {
		t.Fatalf("streak = %d, want 3", got)
	}
	mustCommit(t, m)

	// The incoming player's turn is forced into an immediate win.
	turn := m.CurrentTurn()
	if turn.Player != 2 || !turn.IsWinning() || !turn.Annotation.TotalPotted.Equals(0) {
		t.Fatalf("forced turn = %+v", turn)
	}
	mustCommit(t, m)
	if got := m.Score.Player(2).RacksWon; got != 1 {
		t.Fatalf("racks won = %d, want 1", got)
	}
	if len(m.Racks) != 2 {
		t.Fatal("triple foul must end the rack")
	}
}

func TestStreakResetsOnCleanContact(t *testing.T) {
	m := NewMatch("", "", Nine)
	mustAnnotate(t, m, BallCount(0), ActionNoHit)
	mustCommit(t, m)
	mustAnnotate(t, m, BallCount(2), ActionMiss)
	if got := m.CurrentTurn().ConsecutiveErrors; got != 0 {
		t.Fatalf("clean contact must reset the streak, got %d", got)
	}
}

func TestEightBallDerivedCounts(t *testing.T) {
	m := NewMatch("", "", Eight)
	mustAnnotate(t, m, BallCount(3), BallCount(4), ActionMiss)
	mustCommit(t, m)
	// The first two turns of an eight-ball rack keep the fixed count.
	if got := m.CurrentTurn().BallsRemaining; got != 8 {
		t.Fatalf("turn 2 balls = %d, want 8", got)
	}
	mustAnnotate(t, m, BallCount(0), ActionMiss)
	mustCommit(t, m)
	// From turn three on, the count derives from the turn two back.
	if got := m.CurrentTurn().BallsRemaining; got != 4 {
		t.Fatalf("turn 3 balls = %d, want 4", got)
	}
}

func TestFullyPottedBreakLeavesOneBall(t *testing.T) {
	m := NewMatch("", "", Nine)
	mustAnnotate(t, m, BallCount(9), BallCount(0), ActionPocketed)
	mustCommit(t, m)
	if got := m.CurrentTurn().BallsRemaining; got != 1 {
		t.Fatalf("balls after fully potted break = %d, want 1", got)
	}
}

func TestSafetyErrorChargedToDeclarer(t *testing.T) {
	m := NewMatch("", "", Nine)
	mustAnnotate(t, m, BallCount(0))
	mustCommit(t, m)
	mustAnnotate(t, m, BallCount(0), ActionSafety) // player 2 declares
	mustCommit(t, m)
	mustAnnotate(t, m, BallCount(3), ActionMiss) // player 1 escapes and pots
	mustCommit(t, m)

	if got := m.Score.Player(2).SafetyErrors; got != 1 {
		t.Fatalf("declarer safety errors = %d, want 1", got)
	}
}

func TestKickInClearsSafetyError(t *testing.T) {
	m := NewMatch("", "", Nine)
	mustAnnotate(t, m, BallCount(0))
	mustCommit(t, m)
	mustAnnotate(t, m, BallCount(0), ActionSafety)
	mustCommit(t, m)
	mustAnnotate(t, m, BallCount(3), ActionKickIn, ActionMiss)
	mustCommit(t, m)

	if got := m.Score.Player(2).SafetyErrors; got != 0 {
		t.Fatalf("kick-in answer must not charge the declarer, got %d", got)
	}
}

func TestBreakErrorOnDryBreakFoul(t *testing.T) {
	m := NewMatch("", "", Nine)
	mustAnnotate(t, m, BallCount(0), ActionNoHit)
	mustCommit(t, m)
	if got := m.Score.Player(1).BreakErrors; got != 1 {
		t.Fatalf("break errors = %d, want 1", got)
	}
}

func TestKickErrorOnFouledKick(t *testing.T) {
	m := NewMatch("", "", Nine)
	mustAnnotate(t, m, BallCount(0))
	mustCommit(t, m)
	mustAnnotate(t, m, BallCount(0), ActionKick, ActionPocketed)
	mustCommit(t, m)
	if got := m.Score.Player(2).KickErrors; got != 1 {
		t.Fatalf("kick errors = %d, want 1", got)
	}
}

func TestPositionErrorOnContinuationShortfall(t *testing.T) {
	m := NewMatch("", "", Nine)
	mustAnnotate(t, m, BallCount(0))
	mustCommit(t, m)
	mustAnnotate(t, m, BallCount(3), ActionMiss)
	mustCommit(t, m)
	sp := m.Score.Player(2)
	if sp.PositionErrors != 1 || sp.MissErrors != 1 || sp.BallsPotted != 3 {
		t.Fatalf("score buckets = %+v", *sp)
	}
}

func TestPushOutCarriesToOpponent(t *testing.T) {
	m := NewMatch("", "", Nine)
	mustAnnotate(t, m, BallCount(2), BallCount(2), ActionSafety, ActionPocketed, ActionPush)
	turn := m.CurrentTurn()
	if !turn.Pushed {
		t.Fatal("push must mark the turn")
	}
	if acts := m.AvailableActions(); acts != nil {
		t.Fatalf("pushed turn must be locked, offered %v", actionTokens(acts))
	}
	mustCommit(t, m)
	next := m.CurrentTurn()
	if !next.Pushed || next.BallsRemaining != 7 {
		t.Fatalf("carry turn = %+v", next)
	}
}

func TestResetTurnClearsAnnotation(t *testing.T) {
	m := NewMatch("", "", Nine)
	mustAnnotate(t, m, BallCount(2), BallCount(3), ActionMiss)
	m.ResetTurn()
	turn := m.CurrentTurn()
	if turn.Played() || turn.Annotation.BreakPotted.IsSet() || turn.ConsecutiveErrors != 0 {
		t.Fatalf("reset left state behind: %+v", turn.Annotation)
	}
	// Re-entry starts from the full break range again.
	if got := len(m.AvailableActions()); got != 10 {
		t.Fatalf("actions after reset = %d, want 10", got)
	}
}

func TestSnapshotNumbersAndWarning(t *testing.T) {
	m := NewMatch("Ann", "Bob", Ten)
	mustAnnotate(t, m, BallCount(0), ActionNoHit)
	mustCommit(t, m)
	mustAnnotate(t, m, BallCount(0), ActionNoHit)
	mustCommit(t, m)
	mustAnnotate(t, m, BallCount(0), ActionNoHit)

	snap := m.Snapshot()
	if snap.RackNumber != 1 || snap.TurnNumber != 3 || snap.CurrentPlayer != 1 {
		t.Fatalf("snapshot numbers = %+v", snap)
	}
	if snap.Turn.ConsecutiveErrors != 3 || snap.Turn.WarningLevel != 2 {
		t.Fatalf("warning = %d/%d, want 3/2", snap.Turn.ConsecutiveErrors, snap.Turn.WarningLevel)
	}
	if snap.Turn.SecondaryLabel != "N" {
		t.Fatalf("secondary label = %q", snap.Turn.SecondaryLabel)
	}
	if !snap.Committable {
		t.Fatal("fouled turn must be committable")
	}
}
