// internal/scoring/snapshot.go
//
// Read-only rendering snapshot. Transitions return state; the caller (not
// the engine) decides how to redraw, so everything a UI needs is collected
// here in one serializable value.

package scoring

// TurnView describes the active turn for display.
type TurnView struct {
	Player            int      `json:"player"`
	Break             bool     `json:"break"`
	BallsRemaining    int      `json:"ballsRemaining"`
	PrimaryLabel      string   `json:"primaryLabel"`
	SecondaryLabel    string   `json:"secondaryLabel"`
	BreakPotted       OptInt   `json:"breakPotted"`
	TotalPotted       OptInt   `json:"totalPotted"`
	Winning           bool     `json:"winning"`
	Pushed            bool     `json:"pushed"`
	KickSequence      []KickIn `json:"kickSequence,omitempty"`
	ConsecutiveErrors int      `json:"consecutiveErrors"`
	// WarningLevel drives the foul-warning badges: 0, 1 or 2.
	WarningLevel int `json:"warningLevel"`
}

// Snapshot is the full state a caller needs after a transition.
type Snapshot struct {
	MatchID          string    `json:"matchId"`
	Players          [2]string `json:"players"`
	Variant          int       `json:"variant"`
	StartedAt        string    `json:"startedAt"`
	RackNumber       int       `json:"rackNumber"` // 1-based for display
	TurnNumber       int       `json:"turnNumber"` // 1-based within the rack
	CurrentPlayer    int       `json:"currentPlayer"`
	Turn             TurnView  `json:"turn"`
	AvailableActions []Action  `json:"availableActions"`
	Committable      bool      `json:"committable"`
	Score            string    `json:"score"`
	ScoreBook        ScoreBook `json:"scoreBook"`
}

// Snapshot assembles the current rendering state.
func (m *Match) Snapshot() Snapshot {
	t := m.CurrentTurn()
	warn := t.ConsecutiveErrors
	if warn > 2 {
		warn = 2
	}
	return Snapshot{
		MatchID:       m.ID,
		Players:       m.Players,
		Variant:       m.Variant.Balls(),
		StartedAt:     m.StartedAt,
		RackNumber:    len(m.Racks),
		TurnNumber:    len(m.currentRack().Turns),
		CurrentPlayer: m.CurrentPlayer,
		Turn: TurnView{
			Player:            t.Player,
			Break:             t.Break,
			BallsRemaining:    t.BallsRemaining,
			PrimaryLabel:      t.Annotation.PrimaryLabel(),
			SecondaryLabel:    t.Annotation.SecondaryLabel(),
			BreakPotted:       t.Annotation.BreakPotted,
			TotalPotted:       t.Annotation.TotalPotted,
			Winning:           t.IsWinning(),
			Pushed:            t.Pushed,
			KickSequence:      t.Annotation.KickSequence,
			ConsecutiveErrors: t.ConsecutiveErrors,
			WarningLevel:      warn,
		},
		AvailableActions: t.AvailableActions(m.Variant),
		Committable:      m.CanCommitTurn(),
		Score:            m.Score.String(),
		ScoreBook:        m.Score,
	}
}
