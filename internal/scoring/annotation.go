// internal/scoring/annotation.go
//
// Per-turn annotation record for the rules engine.
// Responsibilities:
//   - Tri-state value types (OptInt/OptBool) so "not yet decided" is
//     distinguishable from an explicit zero/false.
//   - Annotation: the mutable record of what happened during one turn
//     (balls potted, foul flags, kick-in sub-events).
//   - Derived display codes (primary/secondary labels) for rendering.
//
// Flag exclusivity (miss vs kick vs safety, pocketed vs no-hit, safe-cross
// vs push) is enforced by Match.Annotate, not here; this file is pure data
// plus derived queries.

package scoring

import "encoding/json"

// OptInt is an optional integer. The zero value is "unset".
type OptInt struct {
	val int
	set bool
}

func (o *OptInt) Set(v int) { o.val, o.set = v, true }
func (o *OptInt) Clear()    { *o = OptInt{} }

// IsSet reports whether a value has been recorded.
func (o OptInt) IsSet() bool { return o.set }

// Value returns the recorded value, or 0 when unset.
func (o OptInt) Value() int {
	if !o.set {
		return 0
	}
	return o.val
}

// Equals reports whether a value has been recorded and equals v.
func (o OptInt) Equals(v int) bool { return o.set && o.val == v }

func (o OptInt) MarshalJSON() ([]byte, error) {
	if !o.set {
		return []byte("null"), nil
	}
	return json.Marshal(o.val)
}

func (o *OptInt) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*o = OptInt{}
		return nil
	}
	o.set = true
	return json.Unmarshal(b, &o.val)
}

// OptBool is an optional boolean. The zero value is "unset".
type OptBool struct {
	val bool
	set bool
}

func (o *OptBool) Set(v bool) { o.val, o.set = v, true }
func (o *OptBool) Clear()     { *o = OptBool{} }

// Toggle flips the flag; an unset flag toggles to true.
func (o *OptBool) Toggle() { o.val, o.set = !(o.set && o.val), true }

// True reports whether the flag has been recorded as true.
func (o OptBool) True() bool { return o.set && o.val }

func (o OptBool) IsSet() bool { return o.set }

func (o OptBool) MarshalJSON() ([]byte, error) {
	if !o.set {
		return []byte("null"), nil
	}
	return json.Marshal(o.val)
}

func (o *OptBool) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*o = OptBool{}
		return nil
	}
	o.set = true
	return json.Unmarshal(b, &o.val)
}

// KickIn records one kick-in attempt (a required rail contact after certain
// safety/push situations).
type KickIn struct {
	Player  int  `json:"player"`
	IsFirst bool `json:"isFirst"`
}

// Annotation is the mutable record of one turn. Fields stay unset until the
// referee records them; Reset is the only way to unset a recorded value.
type Annotation struct {
	// BreakPotted counts balls potted strictly during the break contact.
	// Only meaningful on a break turn.
	BreakPotted OptInt `json:"breakPotted"`
	// TotalPotted counts balls potted in the turn overall. On a break turn
	// this is the continuation shot after the break, if any.
	TotalPotted OptInt `json:"totalPotted"`
	// MissErrors is 0 (none), 1 (miss) or 2 (double miss).
	MissErrors OptInt `json:"missErrors"`

	Kick     OptBool `json:"kick"`
	Pocketed OptBool `json:"pocketed"`
	Safety   OptBool `json:"safety"`
	Push     OptBool `json:"push"`
	SafeX    OptBool `json:"safeX"`
	NoHit    OptBool `json:"noHit"`

	KickSequence []KickIn `json:"kickSequence,omitempty"`
}

// Reset clears every field back to unset. Used to correct a turn before it
// is committed.
func (a *Annotation) Reset() { *a = Annotation{} }

// ShotRecorded reports whether the turn's overall ball count has been
// entered; classification actions are only offered afterwards.
func (a *Annotation) ShotRecorded() bool { return a.TotalPotted.IsSet() }

// HasKickIn reports whether at least one kick-in attempt was recorded.
func (a *Annotation) HasKickIn() bool { return len(a.KickSequence) > 0 }

// PrimaryLabel is the main display code for the turn. Exactly one branch
// fires; the order is the tie-break.
func (a *Annotation) PrimaryLabel() string {
	switch {
	case a.Kick.True():
		return "K"
	case a.Safety.True():
		if a.SafeX.True() {
			return "Sˣ"
		}
		if a.Push.True() {
			return "Sᵖ"
		}
		return "S"
	case a.MissErrors.Equals(2):
		return "Mⁿ"
	case a.MissErrors.Equals(1):
		return "M"
	}
	return ""
}

// SecondaryLabel is the illegal-contact display code.
func (a *Annotation) SecondaryLabel() string {
	if a.NoHit.True() {
		return "N"
	}
	if a.Pocketed.True() {
		return "P"
	}
	return ""
}
