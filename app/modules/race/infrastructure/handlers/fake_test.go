package racehandlers

import (
	"context"

	raceservice "github.com/Black-And-White-Club/podium-bot/app/modules/race/application"
	sharedtypes "github.com/Black-And-White-Club/podium-bot/app/shared/types"
	"github.com/google/uuid"
)

// ------------------------
// Fake Race Service
// ------------------------

type FakeRaceService struct {
	trace []string

	CreateRaceFunc     func(ctx context.Context, input raceservice.RaceInput) (*raceservice.RaceInfo, error)
	GetRaceFunc        func(ctx context.Context, raceID uuid.UUID) (*raceservice.RaceInfo, error)
	ListRacesFunc      func(ctx context.Context, filter raceservice.RaceFilter) ([]raceservice.RaceInfo, error)
	UpdateRaceFunc     func(ctx context.Context, raceID uuid.UUID, input raceservice.RaceInput) (*raceservice.RaceInfo, error)
	SetQualifyingFunc  func(ctx context.Context, raceID uuid.UUID, quali *sharedtypes.Podium) (*raceservice.RaceInfo, error)
	DeleteRaceFunc     func(ctx context.Context, raceID uuid.UUID) error
	ImportCalendarFunc func(ctx context.Context, fileData []byte) (*raceservice.ImportSummary, error)
	UpsertDriverFunc   func(ctx context.Context, driver raceservice.DriverInfo) (*raceservice.DriverInfo, error)
	DeleteDriverFunc   func(ctx context.Context, id sharedtypes.DriverID) error
}

func NewFakeRaceService() *FakeRaceService {
	return &FakeRaceService{trace: []string{}}
}

func (f *FakeRaceService) record(step string) {
	f.trace = append(f.trace, step)
}

func (f *FakeRaceService) Trace() []string {
	return f.trace
}

func (f *FakeRaceService) CreateRace(ctx context.Context, input raceservice.RaceInput) (*raceservice.RaceInfo, error) {
	f.record("CreateRace")
	if f.CreateRaceFunc != nil {
		return f.CreateRaceFunc(ctx, input)
	}
	return &raceservice.RaceInfo{ID: uuid.New(), Name: input.Name, StartsAt: input.StartsAt}, nil
}

func (f *FakeRaceService) GetRace(ctx context.Context, raceID uuid.UUID) (*raceservice.RaceInfo, error) {
	f.record("GetRace")
	if f.GetRaceFunc != nil {
		return f.GetRaceFunc(ctx, raceID)
	}
	return &raceservice.RaceInfo{ID: raceID}, nil
}

func (f *FakeRaceService) ListRaces(ctx context.Context, filter raceservice.RaceFilter) ([]raceservice.RaceInfo, error) {
	f.record("ListRaces")
	if f.ListRacesFunc != nil {
		return f.ListRacesFunc(ctx, filter)
	}
	return []raceservice.RaceInfo{}, nil
}

func (f *FakeRaceService) UpdateRace(ctx context.Context, raceID uuid.UUID, input raceservice.RaceInput) (*raceservice.RaceInfo, error) {
	f.record("UpdateRace")
	if f.UpdateRaceFunc != nil {
		return f.UpdateRaceFunc(ctx, raceID, input)
	}
	return &raceservice.RaceInfo{ID: raceID, Name: input.Name}, nil
}

func (f *FakeRaceService) SetQualifying(ctx context.Context, raceID uuid.UUID, quali *sharedtypes.Podium) (*raceservice.RaceInfo, error) {
	f.record("SetQualifying")
	if f.SetQualifyingFunc != nil {
		return f.SetQualifyingFunc(ctx, raceID, quali)
	}
	return &raceservice.RaceInfo{ID: raceID, Qualifying: quali}, nil
}

func (f *FakeRaceService) DeleteRace(ctx context.Context, raceID uuid.UUID) error {
	f.record("DeleteRace")
	if f.DeleteRaceFunc != nil {
		return f.DeleteRaceFunc(ctx, raceID)
	}
	return nil
}

func (f *FakeRaceService) ImportCalendar(ctx context.Context, fileData []byte) (*raceservice.ImportSummary, error) {
	f.record("ImportCalendar")
	if f.ImportCalendarFunc != nil {
		return f.ImportCalendarFunc(ctx, fileData)
	}
	return &raceservice.ImportSummary{}, nil
}

func (f *FakeRaceService) ListDrivers(ctx context.Context) ([]raceservice.DriverInfo, error) {
	f.record("ListDrivers")
	return []raceservice.DriverInfo{{ID: "VER", Name: "Max Verstappen"}}, nil
}

func (f *FakeRaceService) UpsertDriver(ctx context.Context, driver raceservice.DriverInfo) (*raceservice.DriverInfo, error) {
	f.record("UpsertDriver")
	if f.UpsertDriverFunc != nil {
		return f.UpsertDriverFunc(ctx, driver)
	}
	return &driver, nil
}

func (f *FakeRaceService) DeleteDriver(ctx context.Context, id sharedtypes.DriverID) error {
	f.record("DeleteDriver")
	if f.DeleteDriverFunc != nil {
		return f.DeleteDriverFunc(ctx, id)
	}
	return nil
}

var _ raceservice.Service = (*FakeRaceService)(nil)
