package bettingdomain

import "time"

// DefaultWindowLength is how long before the race start betting opens.
const DefaultWindowLength = 48 * time.Hour

// Window is the half-open admission interval [start-Length, start).
type Window struct {
	Length time.Duration
}

// NewWindow returns a Window, falling back to the default for non-positive lengths.
func NewWindow(length time.Duration) Window {
	if length <= 0 {
		length = DefaultWindowLength
	}
	return Window{Length: length}
}

// OpensAt is the first instant a bet is accepted.
func (w Window) OpensAt(startsAt time.Time) time.Time {
	return startsAt.Add(-w.Length)
}

// Check admits now iff OpensAt(startsAt) <= now < startsAt.
func (w Window) Check(startsAt, now time.Time) error {
	if now.Before(w.OpensAt(startsAt)) {
		return ErrWindowNotOpen
	}
	if !now.Before(startsAt) {
		return ErrWindowClosed
	}
	return nil
}

// BettingStatus is the caller-facing state of a race's window.
type BettingStatus string

const (
	StatusPending   BettingStatus = "pending"
	StatusOpen      BettingStatus = "open"
	StatusClosed    BettingStatus = "closed"
	StatusCompleted BettingStatus = "completed"
)

// Status projects the window onto a race. A recorded result wins over timing.
func (w Window) Status(startsAt, now time.Time, hasResult bool) BettingStatus {
	if hasResult {
		return StatusCompleted
	}
	switch w.Check(startsAt, now) {
	case ErrWindowNotOpen:
		return StatusPending
	case ErrWindowClosed:
		return StatusClosed
	default:
		return StatusOpen
	}
}
