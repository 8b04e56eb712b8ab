package bettingdomain

import "errors"

// Admission and lookup failures. These are business outcomes, not infrastructure errors.
var (
	ErrWindowNotOpen        = errors.New("betting window is not open yet")
	ErrWindowClosed         = errors.New("betting window is closed")
	ErrDuplicateDriverInBet = errors.New("the same driver appears more than once in the prediction")
	ErrMatchesQualifying    = errors.New("prediction matches the qualifying top three")
	ErrDuplicateUserBet     = errors.New("user already has a bet for this race")
	ErrCombinationTaken     = errors.New("this podium combination is already taken for the race")
	ErrRaceNotFound         = errors.New("race not found")
	ErrConcurrentConflict   = errors.New("conflicting concurrent submission")

	ErrBetNotFound      = errors.New("bet not found")
	ErrNotBetOwner      = errors.New("bet belongs to another user")
	ErrResultIncomplete = errors.New("race result needs three distinct drivers")
	ErrRaceCompleted    = errors.New("race already has an official result")
	ErrRaceNotStarted   = errors.New("race has not started yet")
)

type concurrentConflict struct {
	cause error
}

// NewConcurrentConflict reports a uniqueness violation detected at commit time.
// errors.Is matches both ErrConcurrentConflict and the underlying cause.
func NewConcurrentConflict(cause error) error {
	return &concurrentConflict{cause: cause}
}

func (e *concurrentConflict) Error() string {
	return ErrConcurrentConflict.Error() + ": " + e.cause.Error()
}

func (e *concurrentConflict) Is(target error) bool {
	return target == ErrConcurrentConflict
}

func (e *concurrentConflict) Unwrap() error {
	return e.cause
}

// RejectionReason is a stable metric/log label for an admission error.
func RejectionReason(err error) string {
	switch {
	case errors.Is(err, ErrWindowNotOpen):
		return "window_not_open"
	case errors.Is(err, ErrWindowClosed):
		return "window_closed"
	case errors.Is(err, ErrDuplicateDriverInBet):
		return "duplicate_driver"
	case errors.Is(err, ErrMatchesQualifying):
		return "matches_qualifying"
	case errors.Is(err, ErrDuplicateUserBet):
		return "duplicate_user_bet"
	case errors.Is(err, ErrCombinationTaken):
		return "combination_taken"
	case errors.Is(err, ErrRaceNotFound):
		return "race_not_found"
	case errors.Is(err, ErrRaceCompleted):
		return "race_completed"
	case errors.Is(err, ErrRaceNotStarted):
		return "race_not_started"
	case errors.Is(err, ErrBetNotFound):
		return "bet_not_found"
	case errors.Is(err, ErrNotBetOwner):
		return "not_bet_owner"
	case errors.Is(err, ErrResultIncomplete):
		return "result_incomplete"
	default:
		return "other"
	}
}

var businessErrors = []error{
	ErrWindowNotOpen, ErrWindowClosed, ErrDuplicateDriverInBet, ErrMatchesQualifying,
	ErrDuplicateUserBet, ErrCombinationTaken, ErrRaceNotFound, ErrConcurrentConflict,
	ErrBetNotFound, ErrNotBetOwner, ErrResultIncomplete, ErrRaceCompleted, ErrRaceNotStarted,
}

// IsBusinessError reports whether err is an expected outcome of a valid
// request rather than an infrastructure fault.
func IsBusinessError(err error) bool {
	for _, target := range businessErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
