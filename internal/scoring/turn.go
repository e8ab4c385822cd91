// internal/scoring/turn.go
//
// One player's turn: an Annotation plus contextual state (player, break
// flag, balls remaining entering the turn, back-reference to the previous
// turn) and the derived eligibility predicates.
//
// AvailableActions is the central transition function of the engine: it
// enumerates which referee inputs are legal at this exact moment. The
// branch ordering and gating conditions encode which physical outcomes are
// jointly possible and must be kept as-is.

package scoring

// Turn is one player's turn within a rack. Created when the turn begins and
// mutated only by the Match engine; turns are never destroyed and remain in
// the rack for history and end-of-match reporting.
type Turn struct {
	Player         int        `json:"player"`
	Break          bool       `json:"break"`
	BallsRemaining int        `json:"ballsRemaining"` // entering the turn
	Annotation     Annotation `json:"annotation"`
	Pushed         bool       `json:"pushed"`
	// Score is the formatted match score snapshotted when the turn was
	// committed, for historical display.
	Score string `json:"score,omitempty"`
	// ConsecutiveErrors is the illegal-contact streak, recomputed after
	// every annotation. It chains across players via prev.
	ConsecutiveErrors int `json:"consecutiveErrors"`

	// winning is sticky: once true it never reverts, even if the
	// annotation that qualified it is later reset.
	winning bool
	// prev is a lookup-only reference to the preceding turn in the same
	// rack; nil for the rack's break turn. The rack owns the turns.
	prev *Turn
}

func newTurn(player int, brk bool, balls int) *Turn {
	return &Turn{Player: player, Break: brk, BallsRemaining: balls}
}

func (t *Turn) IsBreak() bool { return t.Break }

// IsBreakShot reports whether this is a break turn on which nothing was
// sunk after the break contact. Two unset counts compare equal, so an
// unplayed break turn is a break shot.
func (t *Turn) IsBreakShot() bool {
	return t.Break && t.Annotation.TotalPotted == t.Annotation.BreakPotted
}

// Played reports whether the turn's ball count has been recorded.
func (t *Turn) Played() bool { return t.Annotation.ShotRecorded() }

// SetWinning forces the turn into the winning state.
func (t *Turn) SetWinning() { t.winning = true }

// IsWinning is sticky: it memoizes the first time the turn qualifies
// (no balls remained entering the turn, or the turn potted everything) and
// stays true afterwards regardless of later mutations.
func (t *Turn) IsWinning() bool {
	if t.winning {
		return true
	}
	if t.BallsRemaining == 0 || t.Annotation.TotalPotted.Equals(t.BallsRemaining) {
		t.winning = true
	}
	return t.winning
}

// Previous returns the lookup-only back-reference to the preceding turn in
// the rack, or nil on a break turn.
func (t *Turn) Previous() *Turn { return t.prev }

// prevEndedSafe reports whether the previous turn ended in a safety, push
// or safe-cross, which makes this turn kick-in eligible.
func (t *Turn) prevEndedSafe() bool {
	p := t.prev
	if p == nil {
		return false
	}
	return p.Annotation.SafeX.True() || p.Annotation.Push.True() || p.Annotation.Safety.True()
}

// kickInEligible: previous turn ended safe and no kick-in recorded yet.
func (t *Turn) kickInEligible() bool {
	return t.prevEndedSafe() && !t.Annotation.HasKickIn()
}

// pushOfferable gates the push sub-classification of a safety turn.
func (t *Turn) pushOfferable() bool {
	if t.IsBreakShot() {
		return true
	}
	if t.Pushed && t.Annotation.TotalPotted.Equals(0) {
		return true
	}
	p := t.prev
	return p != nil && p.Break && p.Annotation.TotalPotted.Equals(0) && t.Annotation.TotalPotted.Equals(0)
}

// refinements are the illegal-contact detail offers shared by the
// classification phases: push/safe-cross on a safety, the double-miss
// toggle on a single miss.
func (t *Turn) refinements(out []Action) []Action {
	a := &t.Annotation
	if a.Safety.True() {
		if t.pushOfferable() {
			out = append(out, ActionPush)
		}
		if a.TotalPotted.Value() > 0 {
			out = append(out, ActionSafeX)
		}
	} else if a.MissErrors.Equals(1) {
		out = append(out, ActionDoubleMiss)
	}
	return out
}

// AvailableActions enumerates the legal referee inputs for this turn.
// Evaluated strictly in order:
//
//  1. Winning or pushed turns are locked; a winning turn whose opponent
//     ended safe may still record its kick-in.
//  2. No ball count yet: offer the count range. A break turn whose break
//     count is already set offers 0 plus the continuation range (from the
//     break count, or from 0 in eight-ball).
//  3. Count recorded, no illegal contact yet: a dry break offers only the
//     illegal-contact pair; a clean legally-potting shot offers Win (and
//     kick-in when eligible) alongside the classification set; anything
//     else offers the classification set.
//  4. Illegal contact classified: the no-hit/pocketed toggles stay open,
//     plus the safety/miss refinements.
func (t *Turn) AvailableActions(v Variant) []Action {
	a := &t.Annotation

	if t.IsWinning() || a.Push.True() {
		if t.IsWinning() && t.kickInEligible() {
			return []Action{ActionKickIn}
		}
		return nil
	}

	if !a.ShotRecorded() {
		var out []Action
		if !t.Break || !a.BreakPotted.IsSet() {
			for i := 0; i <= t.BallsRemaining; i++ {
				out = append(out, BallCount(i))
			}
			return out
		}
		out = append(out, BallCount(0))
		lo := a.BreakPotted.Value()
		if v == Eight {
			lo = 0
		}
		for i := lo; i <= t.BallsRemaining; i++ {
			if i == 0 {
				continue // already offered
			}
			out = append(out, BallCount(i))
		}
		return out
	}

	if !a.NoHit.True() && !a.Pocketed.True() {
		if t.Break && a.TotalPotted.Equals(0) {
			return []Action{ActionNoHit, ActionPocketed}
		}
		if !a.Safety.True() && a.MissErrors.Value() == 0 && !a.Kick.True() &&
			a.BreakPotted.Value() <= a.TotalPotted.Value() && a.TotalPotted.Value() > 0 {
			out := []Action{ActionWin}
			if t.kickInEligible() {
				out = append(out, ActionKickIn)
			}
			return append(out, ActionMiss, ActionKick, ActionSafety, ActionPocketed, ActionNoHit)
		}
		return []Action{ActionMiss, ActionKick, ActionSafety, ActionPocketed, ActionNoHit}
	}

	return t.refinements([]Action{ActionNoHit, ActionPocketed})
}
