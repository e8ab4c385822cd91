// internal/scoring/match.go
//
// Match engine for cue-sports scorekeeping.
// Responsibilities:
//   - Create matches with rack 1 / turn 1 (a break turn for player 1).
//   - Apply referee actions to the active turn, enforcing the legal-action
//     set and the flag mutual-exclusion rules.
//   - Decide when a turn may be committed and run the turn-transition
//     algorithm: fold the closed turn into the score book, open the next
//     turn or rack, carry push state, and escalate triple fouls.
//
// Everything here is pure, synchronous, in-memory computation: one action
// is applied and fully reconciled (including the consecutive-error streak)
// before the next is accepted. Malformed or out-of-phase actions are
// silently discarded; there are no fatal conditions for in-domain input.

package scoring

import (
	"crypto/rand"
	"encoding/hex"
	"strings"
	"time"
)

// Variant selects the game: the value is the rack's ball count.
type Variant int

const (
	Eight Variant = 8
	Nine  Variant = 9
	Ten   Variant = 10
)

// Balls returns the number of object balls racked for the variant.
func (v Variant) Balls() int { return int(v) }

// VariantFromBalls maps a ball count onto a Variant.
func VariantFromBalls(n int) (Variant, bool) {
	switch n {
	case 8, 9, 10:
		return Variant(n), true
	}
	return 0, false
}

// Rack is one game within the match: an ordered sequence of turns whose
// first element is always a break turn.
type Rack struct {
	Turns []*Turn `json:"turns"`
}

// Match owns all racks and turns for one playing session and is the only
// component with write access to match-wide state. An instance is
// exclusively owned and driven by one caller at a time.
type Match struct {
	ID        string     `json:"id"`
	StartedAt string     `json:"startedAt"` // "YYYY-MM-DD HH:MM"
	Players   [2]string  `json:"players"`
	Variant   Variant    `json:"variant"`
	Racks     []*Rack    `json:"racks"`
	Score     ScoreBook  `json:"score"`
	// CurrentPlayer is 1 or 2.
	CurrentPlayer int `json:"currentPlayer"`
}

// NewMatch starts a match: rack 1 with a break turn for player 1. Blank or
// whitespace-only player names fall back to placeholders.
func NewMatch(player1, player2 string, v Variant) *Match {
	player1 = strings.TrimSpace(player1)
	player2 = strings.TrimSpace(player2)
	if player1 == "" {
		player1 = "Player 1"
	}
	if player2 == "" {
		player2 = "Player 2"
	}
	m := &Match{
		ID:            randomID(),
		StartedAt:     time.Now().Format("2006-01-02 15:04"),
		Players:       [2]string{player1, player2},
		Variant:       v,
		CurrentPlayer: 1,
	}
	m.Racks = []*Rack{{Turns: []*Turn{newTurn(1, true, v.Balls())}}}
	return m
}

func (m *Match) currentRack() *Rack { return m.Racks[len(m.Racks)-1] }

// CurrentTurn returns the active turn.
func (m *Match) CurrentTurn() *Turn {
	turns := m.currentRack().Turns
	return turns[len(turns)-1]
}

// AvailableActions enumerates the legal inputs for the active turn.
func (m *Match) AvailableActions() []Action {
	return m.CurrentTurn().AvailableActions(m.Variant)
}

// Annotate applies one action to the active turn. Actions not currently in
// the legal set are discarded without any state change; the return value
// reports whether the action was applied. The consecutive-error streak is
// recomputed synchronously so callers can render foul warnings immediately.
func (m *Match) Annotate(act Action) bool {
	t := m.CurrentTurn()
	if !actionOffered(t.AvailableActions(m.Variant), act) {
		return false
	}
	a := &t.Annotation

	switch {
	case act.IsBallCount():
		n := act.BallValue()
		switch {
		case n == 0:
			a.TotalPotted.Set(0)
			if t.Break && !a.BreakPotted.IsSet() {
				a.BreakPotted.Set(0)
			}
		case t.Break && !a.BreakPotted.IsSet():
			a.BreakPotted.Set(n)
		default:
			a.TotalPotted.Set(n)
		}
	case act == ActionMiss:
		a.MissErrors.Set(1)
		a.Safety.Set(false)
		a.Kick.Set(false)
	case act == ActionKick:
		a.Kick.Set(true)
		a.MissErrors.Set(0)
		a.Safety.Set(false)
	case act == ActionSafety:
		a.Safety.Set(true)
		a.Kick.Set(false)
		a.MissErrors.Set(0)
	case act == ActionWin:
		t.SetWinning()
	case act == ActionPocketed:
		a.Pocketed.Toggle()
		a.NoHit.Set(false)
	case act == ActionNoHit:
		a.NoHit.Toggle()
		a.Pocketed.Set(false)
	case act == ActionDoubleMiss:
		if a.MissErrors.Equals(2) {
			a.MissErrors.Set(1)
		} else {
			a.MissErrors.Set(2)
		}
	case act == ActionSafeX:
		a.SafeX.Toggle()
		a.Push.Set(false)
	case act == ActionPush:
		a.Push.Toggle()
		t.Pushed = a.Push.True()
		a.SafeX.Set(false)
	case act == ActionKickIn:
		a.KickSequence = append(a.KickSequence, KickIn{
			Player:  m.CurrentPlayer,
			IsFirst: len(a.KickSequence) == 0,
		})
	default:
		return false
	}

	m.recalcStreak(t)
	// Arm the sticky winning memo now: a later reset must not revert a
	// turn that has already qualified.
	t.IsWinning()
	return true
}

// ResetTurn clears the active turn's annotation so it can be re-entered.
// The sticky winning state and the turn's pushed carry survive the reset.
func (m *Match) ResetTurn() {
	t := m.CurrentTurn()
	t.Annotation.Reset()
	m.recalcStreak(t)
}

// CanCommitTurn reports whether the active turn has enough recorded state
// to close. A shot that has been recorded but not yet classified blocks the
// player switch.
func (m *Match) CanCommitTurn() bool {
	t := m.CurrentTurn()
	a := &t.Annotation
	switch {
	case !t.Played():
		return t.Break && !a.BreakPotted.IsSet()
	case t.IsWinning():
		return true
	case t.Break && a.BreakPotted.Equals(0) && a.TotalPotted.Equals(0):
		return true
	case t.Break && a.BreakPotted.Value() > 0 && a.TotalPotted.Equals(0) &&
		(a.NoHit.True() || a.Pocketed.True()):
		return true
	case !a.Kick.True() && !a.Safety.True() && a.MissErrors.Value() == 0 &&
		!a.Pocketed.True() && !a.NoHit.True():
		return false
	}
	return true
}

// CommitTurn closes the active turn and opens the next one. It is a no-op
// (returning false) while CanCommitTurn is false.
//
// An unplayed break turn is simply reassigned to the incoming player:
// breaks can be handed off before any input. Otherwise the closed turn is
// folded into the score book, its formatted score is snapshotted, and
// either a new rack (after a win) or the next turn is opened. A streak of
// three illegal contacts ends the rack by forcing the opened turn — the
// opponent's — into an immediate win.
func (m *Match) CommitTurn() bool {
	if !m.CanCommitTurn() {
		return false
	}
	t := m.CurrentTurn()
	m.CurrentPlayer = otherPlayer(m.CurrentPlayer)

	if !t.Played() && t.Break {
		t.Player = m.CurrentPlayer
		return true
	}

	m.updateScoreBook(t)
	tripleFoul := t.ConsecutiveErrors >= 3
	t.Score = m.Score.String()

	if t.IsWinning() {
		m.Racks = append(m.Racks, &Rack{
			Turns: []*Turn{newTurn(m.CurrentPlayer, true, m.Variant.Balls())},
		})
		return true
	}

	a := &t.Annotation
	balls := t.BallsRemaining - maxInt(a.TotalPotted.Value(), a.BreakPotted.Value())
	if a.BreakPotted.Equals(m.Variant.Balls()) && a.TotalPotted.Equals(0) {
		// Fully potted break with no continuation: one ball stays up.
		balls = 1
	}
	rack := m.currentRack()
	if m.Variant == Eight {
		// Eight-ball keeps a fixed count for the first two turns of a
		// rack; afterwards the count derives from the turn two back.
		if n := len(rack.Turns); n < 2 {
			balls = Eight.Balls()
		} else {
			back2 := rack.Turns[n-2]
			balls = back2.BallsRemaining - back2.Annotation.TotalPotted.Value()
		}
	}

	pushedCarry := t.Pushed && (t.Break ||
		(t.prev != nil && t.prev.Break &&
			t.prev.Annotation.TotalPotted.Equals(0) && a.TotalPotted.Equals(0)))

	next := newTurn(m.CurrentPlayer, false, balls)
	next.prev = t
	rack.Turns = append(rack.Turns, next)
	if pushedCarry {
		next.Pushed = true
	}
	if tripleFoul {
		// Automatic loss of rack by accumulated fouls: the incoming
		// player's turn is an immediate win.
		next.Annotation.TotalPotted.Set(0)
		next.SetWinning()
	}
	return true
}

// updateScoreBook reconciles one committed turn into the cumulative
// buckets. The clause order is load-bearing.
func (m *Match) updateScoreBook(t *Turn) {
	a := &t.Annotation
	sp := m.Score.Player(t.Player)

	if t.IsWinning() {
		sp.RacksWon++
	}
	if n := a.MissErrors.Value(); n > 0 {
		sp.MissErrors += n
	}

	if t.IsBreakShot() && (a.Pocketed.True() || a.NoHit.True()) {
		if a.Pocketed.True() {
			if !a.Kick.True() && !a.Safety.True() && a.MissErrors.Value() == 0 {
				sp.BreakErrors++
			} else if a.MissErrors.Value() > 0 {
				sp.PositionErrors++
			}
		} else {
			sp.BreakErrors++
		}
	}

	if a.Kick.True() && (a.NoHit.True() || a.Pocketed.True()) {
		sp.KickErrors++
	}

	// A violated safety is charged to the player who declared it.
	if p := t.prev; p != nil && p.Annotation.Safety.True() {
		if a.TotalPotted.Value() > 0 {
			if !a.HasKickIn() {
				m.Score.Player(p.Player).SafetyErrors++
			}
		} else if a.MissErrors.Equals(2) {
			m.Score.Player(p.Player).SafetyErrors++
		}
	}

	if !a.MissErrors.Equals(2) && !a.SafeX.True() && !t.IsWinning() && a.TotalPotted.Value() > 0 {
		// An unset break count never equals a recorded total.
		if a.BreakPotted != a.TotalPotted {
			sp.PositionErrors++
		}
	}

	if a.Pocketed.True() && !a.Kick.True() && !t.Break {
		sp.PositionErrors++
	}

	sp.BallsPotted += a.TotalPotted.Value()
}

// recalcStreak recomputes the illegal-contact streak for t. The streak
// chains across alternating players through the back-reference and resets
// only on a clean-contact turn, not on a player switch.
func (m *Match) recalcStreak(t *Turn) {
	if t.Annotation.NoHit.True() || t.Annotation.Pocketed.True() {
		prev := 0
		if t.prev != nil {
			prev = t.prev.ConsecutiveErrors
		}
		t.ConsecutiveErrors = prev + 1
		return
	}
	t.ConsecutiveErrors = 0
}

func otherPlayer(p int) int {
	if p == 1 {
		return 2
	}
	return 1
}

func actionOffered(set []Action, act Action) bool {
	for _, x := range set {
		if x == act {
			return true
		}
	}
	return false
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// randomID returns a compact 16-hex-char identifier.
// Collisions are extremely unlikely given crypto/rand entropy.
func randomID() string {
	var b [8]byte
	_, _ = rand.Read(b[:])
	return hex.EncodeToString(b[:])
}
