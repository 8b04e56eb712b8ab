package bettingqueue

import (
	"github.com/google/uuid"
	"github.com/riverqueue/river"
)

// QueueName is the River queue reconciliation jobs run on.
const QueueName = "betting"

// ReconcileRaceArgs re-runs reconciliation for a race whose in-request pass
// failed. Revision is the result revision that was stored at the time.
type ReconcileRaceArgs struct {
	RaceID   uuid.UUID `json:"race_id"`
	Revision int       `json:"revision"`
}

// Kind returns the job type identifier for River
func (ReconcileRaceArgs) Kind() string { return "reconcile_race" }

// InsertOpts keeps at most one pending job per race and revision.
func (ReconcileRaceArgs) InsertOpts() river.InsertOpts {
	return river.InsertOpts{
		Queue:       QueueName,
		MaxAttempts: 10,
		UniqueOpts: river.UniqueOpts{
			ByArgs: true,
		},
	}
}

// JobInfo represents information about a queued job (for debugging/monitoring)
type JobInfo struct {
	ID          int64  `json:"id"`
	RaceID      string `json:"race_id"`
	Revision    int    `json:"revision"`
	State       string `json:"state"`
	ScheduledAt string `json:"scheduled_at"`
	CreatedAt   string `json:"created_at"`
	Attempt     int    `json:"attempt"`
	MaxAttempts int    `json:"max_attempts"`
}
