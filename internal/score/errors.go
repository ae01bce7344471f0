package score

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidEdit       = errors.New("invalid score edit")
	ErrNoOpponent        = errors.New("please select an opponent")
	ErrInvalidSetScore   = errors.New("please enter a valid score")
	ErrMissingTiebreaker = errors.New("please enter a tiebreaker score")
	ErrNoWinner          = errors.New("match doesn't have a winner")
)

// ValidationError is a user-correctable problem with a score sheet. Set is the one
// based set number the problem refers to, or 0 when it concerns the whole sheet.
type ValidationError struct {
	Set int
	Err error
}

func (e *ValidationError) Error() string {
	if e.Set > 0 {
		return fmt.Sprintf("%s for Set %d", e.Err, e.Set)
	}
	return e.Err.Error()
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

func invalid(set int, err error) *ValidationError {
	return &ValidationError{Set: set, Err: err}
}
