// Package score validates the set scores of a best-of-three match as they are entered.
//
// The score sheet is modelled as a pure reducer: Apply takes the current State and an
// Event and returns the next State. Every derived flag (sweep, winner, tiebreaks,
// messages) is recomputed from the raw set scores by Evaluate, so a State can always be
// rebuilt from its Sets alone.
package score

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	// Finished sets: 6-0..6-4, 7-5, 7-6 and their mirrors. 6-5 and 6-6 are still in play.
	validSet      = regexp.MustCompile(`^(6-[0-4]|7-[5-6]|7-6|[0-4]-6|[5-6]-7|6-7)$`)
	tiebreakerSet = regexp.MustCompile(`^(7-6|6-7)$`)
)

// New returns an empty score sheet.
func New() State {
	return State{}
}

// Apply returns the state that results from applying e to s. s is not modified.
func Apply(s State, e Event) (State, error) {
	switch ev := e.(type) {
	case ScoreEdit:
		if err := checkSet(ev.Set); err != nil {
			return s, err
		}
		if ev.Value < 0 || ev.Value > MaxGames {
			return s, fmt.Errorf("%w: value %d out of range 0-%d", ErrInvalidEdit, ev.Value, MaxGames)
		}
		sets := s.Sets
		switch ev.Side {
		case Player1:
			sets[ev.Set].Player1 = ev.Value
		case Player2:
			sets[ev.Set].Player2 = ev.Value
		default:
			return s, fmt.Errorf("%w: unknown side %q", ErrInvalidEdit, ev.Side)
		}
		return Evaluate(sets), nil

	case TiebreakerEdit:
		if err := checkSet(ev.Set); err != nil {
			return s, err
		}
		if ev.Points < 0 {
			return s, fmt.Errorf("%w: negative tiebreaker points", ErrInvalidEdit)
		}
		sets := s.Sets
		points := ev.Points
		sets[ev.Set].TiebreakerLoserPoints = &points
		return Evaluate(sets), nil

	case Reset:
		return New(), nil

	default:
		return s, fmt.Errorf("%w: unsupported event %T", ErrInvalidEdit, e)
	}
}

func checkSet(set int) error {
	if set < 0 || set >= SetCount {
		return fmt.Errorf("%w: set index %d out of range", ErrInvalidEdit, set)
	}
	return nil
}

// Evaluate derives the full score sheet state from the raw set scores.
func Evaluate(sets [SetCount]SetScore) State {
	st := State{Sets: sets}

	switch {
	case WinsSet(sets[0], Player1) && WinsSet(sets[1], Player1):
		st.SweepInTwo, st.Winner = true, Player1
	case WinsSet(sets[0], Player2) && WinsSet(sets[1], Player2):
		st.SweepInTwo, st.Winner = true, Player2
	}

	if st.SweepInTwo {
		// Set 3 is inert after a 2-0.
		st.Sets[2] = SetScore{}
	} else {
		switch {
		case WinsSet(sets[2], Player1):
			st.Winner = Player1
		case WinsSet(sets[2], Player2):
			st.Winner = Player2
		}
	}

	switch {
	case !IsValidSet(st.Sets[0]):
		st.Messages[0] = noWinnerMessage(1)
	case !IsValidSet(st.Sets[1]):
		st.Messages[1] = noWinnerMessage(2)
	case !st.SweepInTwo && !IsValidSet(st.Sets[2]):
		st.Messages[2] = noWinnerMessage(3)
	}

	st.TiebreakerRequired[0] = RequiresTiebreaker(st.Sets[0])
	st.TiebreakerRequired[1] = RequiresTiebreaker(st.Sets[1])
	st.TiebreakerRequired[2] = !st.SweepInTwo && RequiresTiebreaker(st.Sets[2])

	return st
}

// Submit checks that the score sheet can be submitted against opponentID and returns
// the resulting match. Flags carried by s are ignored and recomputed from s.Sets.
func Submit(s State, opponentID string) (Result, error) {
	if strings.TrimSpace(opponentID) == "" {
		return Result{}, invalid(0, ErrNoOpponent)
	}

	st := Evaluate(s.Sets)
	for i := 0; i < SetCount; i++ {
		if i == 2 && st.SweepInTwo {
			break
		}
		if !IsValidSet(st.Sets[i]) {
			return Result{}, invalid(i+1, ErrInvalidSetScore)
		}
	}

	for i, required := range st.TiebreakerRequired {
		if !required {
			continue
		}
		if tb := st.Sets[i].TiebreakerLoserPoints; tb == nil || *tb <= 0 {
			return Result{}, invalid(i+1, ErrMissingTiebreaker)
		}
	}

	if st.Winner == SideNone {
		return Result{}, invalid(0, ErrNoWinner)
	}

	res := Result{
		OpponentID: opponentID,
		Sets:       st.Sets,
		Winner:     st.Winner,
		SweepInTwo: st.SweepInTwo,
	}
	for i := range res.Sets {
		if !st.TiebreakerRequired[i] {
			res.Sets[i].TiebreakerLoserPoints = nil
		}
	}
	return res, nil
}

// WinsSet reports whether side has taken the set: six games while the opponent is not
// on seven, or seven games.
func WinsSet(s SetScore, side Side) bool {
	if side != Player1 && side != Player2 {
		return false
	}
	own, other := s.Get(side), s.Get(side.Opponent())
	return (own == 6 && other != 7) || own == 7
}

// IsValidSet reports whether s is a finished set.
func IsValidSet(s SetScore) bool {
	return validSet.MatchString(s.String())
}

// RequiresTiebreaker reports whether s was decided by a tiebreak game.
func RequiresTiebreaker(s SetScore) bool {
	return tiebreakerSet.MatchString(s.String())
}

func (s SetScore) String() string {
	return fmt.Sprintf("%d-%d", s.Player1, s.Player2)
}

func noWinnerMessage(set int) string {
	return fmt.Sprintf("Set %d doesn't have a winner", set)
}
