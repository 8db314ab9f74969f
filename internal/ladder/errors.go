package ladder

import (
	"errors"
	"fmt"
)

// Error categories. Every error returned by the service wraps exactly one.
var (
	ErrValidation   = errors.New("validation error")
	ErrNotFound     = errors.New("not found")
	ErrUnauthorized = errors.New("not authorized")
	ErrConflict     = errors.New("conflict")
	ErrPersistence  = errors.New("persistence error")
)

var (
	ErrInvalidID            = fmt.Errorf("%w: id must be a positive integer", ErrValidation)
	ErrSelfChallenge        = fmt.Errorf("%w: a player cannot challenge themselves", ErrValidation)
	ErrInvalidEventType     = fmt.Errorf("%w: unknown event type", ErrValidation)
	ErrInvalidRankingType   = fmt.Errorf("%w: unknown ranking type", ErrValidation)
	ErrEmptyScore           = fmt.Errorf("%w: score is required", ErrValidation)
	ErrWinnerNotParticipant = fmt.Errorf("%w: winner must be the challenger or the defender", ErrValidation)

	ErrChallengeNotFound = fmt.Errorf("challenge %w", ErrNotFound)
	ErrPlayerNotFound    = fmt.Errorf("player %w", ErrNotFound)

	ErrNotDefender = fmt.Errorf("%w: only the defender may accept a challenge", ErrUnauthorized)

	ErrNotPending       = fmt.Errorf("%w: challenge is not pending", ErrConflict)
	ErrAlreadyCompleted = fmt.Errorf("%w: challenge is already completed", ErrConflict)
	ErrDefenderBusy     = fmt.Errorf("%w: defender already has an active challenge", ErrConflict)
	ErrStandingChanged  = fmt.Errorf("%w: player standing changed while the result was recorded", ErrConflict)
)

func persistence(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrPersistence, op, err)
}

// Category names the class of err for transports and logs.
func Category(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrValidation):
		return "validation"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrUnauthorized):
		return "authorization"
	case errors.Is(err, ErrConflict):
		return "conflict"
	default:
		return "persistence"
	}
}
