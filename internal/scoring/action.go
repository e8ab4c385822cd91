// internal/scoring/action.go
//
// Closed set of referee input tokens. Actions arrive as strings at the HTTP
// boundary, are parsed once here, and circulate inside the engine as a
// tagged enum. An unknown string parses to ActionInvalid, which the engine
// discards as a no-op.

package scoring

import "strconv"

// Action is one discrete referee input: a ball count (0..10) or a
// classification token.
type Action int

const (
	ActionInvalid Action = iota
	ActionMiss
	ActionKick
	ActionSafety
	ActionWin
	ActionPocketed
	ActionNoHit
	ActionDoubleMiss
	ActionSafeX
	ActionPush
	ActionKickIn

	// Ball counts are encoded as actionBall0+n.
	actionBall0
)

// BallCount returns the action for potting n balls. n outside 0..10 yields
// ActionInvalid.
func BallCount(n int) Action {
	if n < 0 || n > 10 {
		return ActionInvalid
	}
	return actionBall0 + Action(n)
}

// IsBallCount reports whether a is a ball-count action.
func (a Action) IsBallCount() bool {
	return a >= actionBall0 && a <= actionBall0+10
}

// BallValue returns the ball count for a ball-count action, -1 otherwise.
func (a Action) BallValue() int {
	if !a.IsBallCount() {
		return -1
	}
	return int(a - actionBall0)
}

func (a Action) String() string {
	if a.IsBallCount() {
		return strconv.Itoa(a.BallValue())
	}
	switch a {
	case ActionMiss:
		return "miss"
	case ActionKick:
		return "kick"
	case ActionSafety:
		return "safety"
	case ActionWin:
		return "win"
	case ActionPocketed:
		return "pocketed"
	case ActionNoHit:
		return "nohit"
	case ActionDoubleMiss:
		return "double-miss"
	case ActionSafeX:
		return "safe-x"
	case ActionPush:
		return "push"
	case ActionKickIn:
		return "kick-in"
	}
	return "invalid"
}

// MarshalText lets action sets serialize as their string tokens.
func (a Action) MarshalText() ([]byte, error) { return []byte(a.String()), nil }

// ParseAction converts a wire token into an Action. Unknown tokens map to
// ActionInvalid rather than an error; the engine treats them as no-ops.
func ParseAction(s string) Action {
	if n, err := strconv.Atoi(s); err == nil {
		return BallCount(n)
	}
	switch s {
	case "miss":
		return ActionMiss
	case "kick":
		return ActionKick
	case "safety":
		return ActionSafety
	case "win":
		return ActionWin
	case "pocketed":
		return ActionPocketed
	case "nohit":
		return ActionNoHit
	case "double-miss":
		return ActionDoubleMiss
	case "safe-x":
		return ActionSafeX
	case "push":
		return ActionPush
	case "kick-in":
		return ActionKickIn
	}
	return ActionInvalid
}
