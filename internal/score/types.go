package score

// Side identifies one of the two players on the score sheet. player1 is always the
// player entering the result, player2 the selected opponent.
type Side string

const (
	SideNone Side = ""
	Player1  Side = "player1"
	Player2  Side = "player2"
)

// Opponent returns the other side.
func (s Side) Opponent() Side {
	switch s {
	case Player1:
		return Player2
	case Player2:
		return Player1
	default:
		return SideNone
	}
}

// SetCount is the number of set slots on a best-of-three score sheet.
const SetCount = 3

// MaxGames is the highest game count that can be entered for one side of a set.
const MaxGames = 7

// SetScore holds the games won by each side in a single set.
type SetScore struct {
	Player1 int `json:"player1" msgpack:"player1"`
	Player2 int `json:"player2" msgpack:"player2"`
	// TiebreakerLoserPoints is only meaningful for sets finished 7-6 or 6-7.
	TiebreakerLoserPoints *int `json:"tiebreaker_loser_points,omitempty" msgpack:"tiebreaker_loser_points,omitempty"`
}

// Get returns the games won by the given side.
func (s SetScore) Get(side Side) int {
	if side == Player2 {
		return s.Player2
	}
	return s.Player1
}

// State is the working state of one score-entry session.
type State struct {
	Sets               [SetCount]SetScore `json:"sets"`
	SweepInTwo         bool               `json:"sweep_in_two"`
	Winner             Side               `json:"winner"`
	TiebreakerRequired [SetCount]bool     `json:"tiebreaker_required"`
	Messages           [SetCount]string   `json:"messages"`
}

// Event is an input to Apply.
type Event interface {
	isEvent()
}

// ScoreEdit sets the games of one side in one set. Set is zero based.
type ScoreEdit struct {
	Set   int  `json:"set"`
	Side  Side `json:"side"`
	Value int  `json:"value"`
}

// TiebreakerEdit records the points the loser of a set's tiebreak scored.
type TiebreakerEdit struct {
	Set    int `json:"set"`
	Points int `json:"points"`
}

// Reset returns the score sheet to its empty state.
type Reset struct{}

func (ScoreEdit) isEvent()      {}
func (TiebreakerEdit) isEvent() {}
func (Reset) isEvent()          {}

// Result is what a valid score sheet produces on submission.
type Result struct {
	OpponentID string             `json:"opponent_id"`
	Sets       [SetCount]SetScore `json:"sets"`
	Winner     Side               `json:"winner"`
	SweepInTwo bool               `json:"sweep_in_two"`
}
