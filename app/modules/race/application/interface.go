package raceservice

import (
	"context"
	"time"

	bettingdomain "github.com/Black-And-White-Club/podium-bot/app/modules/betting/domain"
	raceparsers "github.com/Black-And-White-Club/podium-bot/app/modules/race/infrastructure/parsers"
	sharedtypes "github.com/Black-And-White-Club/podium-bot/app/shared/types"
	"github.com/google/uuid"
)

// Service manages race and driver records.
type Service interface {
	CreateRace(ctx context.Context, input RaceInput) (*RaceInfo, error)
	GetRace(ctx context.Context, raceID uuid.UUID) (*RaceInfo, error)
	ListRaces(ctx context.Context, filter RaceFilter) ([]RaceInfo, error)
	UpdateRace(ctx context.Context, raceID uuid.UUID, input RaceInput) (*RaceInfo, error)
	// SetQualifying stores the qualifying top three; nil clears it.
	SetQualifying(ctx context.Context, raceID uuid.UUID, quali *sharedtypes.Podium) (*RaceInfo, error)
	DeleteRace(ctx context.Context, raceID uuid.UUID) error
	ImportCalendar(ctx context.Context, fileData []byte) (*ImportSummary, error)

	ListDrivers(ctx context.Context) ([]DriverInfo, error)
	UpsertDriver(ctx context.Context, driver DriverInfo) (*DriverInfo, error)
	DeleteDriver(ctx context.Context, id sharedtypes.DriverID) error
}

// RaceInput creates or edits a race. StartsAtText is parsed when StartsAt is zero.
type RaceInput struct {
	Name         string    `json:"name"`
	Location     string    `json:"location"`
	StartsAt     time.Time `json:"starts_at"`
	StartsAtText string    `json:"starts_at_text,omitempty"`
	Timezone     string    `json:"timezone,omitempty"`
}

// RaceFilter bounds ListRaces. Zero values are open.
type RaceFilter struct {
	From time.Time
	To   time.Time
	// Status keeps only races in that betting state.
	Status bettingdomain.BettingStatus
}

// RaceInfo is a race as returned to callers.
type RaceInfo struct {
	ID             uuid.UUID                   `json:"id"`
	Name           string                      `json:"name"`
	Location       string                      `json:"location,omitempty"`
	StartsAt       time.Time                   `json:"starts_at"`
	BettingOpensAt time.Time                   `json:"betting_opens_at"`
	Status         bettingdomain.BettingStatus `json:"status"`
	Qualifying     *sharedtypes.Podium         `json:"qualifying,omitempty"`
	Result         *sharedtypes.Podium         `json:"result,omitempty"`
	ResultRevision int                         `json:"result_revision"`
	BetCount       int                         `json:"bet_count"`
}

// DriverInfo is a driver record.
type DriverInfo struct {
	ID     sharedtypes.DriverID `json:"id"`
	Name   string               `json:"name"`
	Team   string               `json:"team,omitempty"`
	Number int                  `json:"number,omitempty"`
}

// ImportSummary reports what a calendar import did.
type ImportSummary struct {
	Created    []RaceInfo             `json:"created"`
	Duplicates int                    `json:"duplicates"`
	Skipped    []raceparsers.RowError `json:"skipped"`
}
