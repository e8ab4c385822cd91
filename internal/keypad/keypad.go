// internal/keypad/keypad.go
//
// Two-slot numeric display boxes, one per player: the first digit entered
// occupies the superscript slot, the second the base slot, and further
// digits are ignored until the box is reset. Structurally unrelated to the
// rules engine; the whole pad serializes to JSON for the durable
// {currentPlayer, playerBoxes} snapshot.

package keypad

// Box is one player's display pair. Nil means the slot is empty.
type Box struct {
	Top    *int `json:"topNumber"`    // superscript slot
	Bottom *int `json:"bottomNumber"` // base slot
}

// Press enters a digit: top first, then bottom. Reports whether the digit
// was accepted; a full box ignores input and stays unchanged.
func (b *Box) Press(n int) bool {
	switch {
	case b.Top == nil:
		b.Top = &n
	case b.Bottom == nil:
		b.Bottom = &n
	default:
		return false
	}
	return true
}

// Reset empties both slots.
func (b *Box) Reset() { b.Top, b.Bottom = nil, nil }

// Pad holds both player boxes plus the active player toggle.
type Pad struct {
	CurrentPlayer int    `json:"currentPlayer"` // 1 or 2
	Boxes         [2]Box `json:"playerBoxes"`
}

// New returns a pad with player 1 active and both boxes empty.
func New() *Pad { return &Pad{CurrentPlayer: 1} }

// Box returns the box for player 1 or 2; out-of-range players map to the
// active player's box.
func (p *Pad) Box(player int) *Box {
	if player != 1 && player != 2 {
		player = p.CurrentPlayer
	}
	return &p.Boxes[player-1]
}

// Press enters a digit into the active player's box.
func (p *Pad) Press(n int) bool { return p.Box(p.CurrentPlayer).Press(n) }

// SetPlayer switches the active player; other values are ignored.
func (p *Pad) SetPlayer(player int) {
	if player == 1 || player == 2 {
		p.CurrentPlayer = player
	}
}
