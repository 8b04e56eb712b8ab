package raceservice

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	racedb "github.com/Black-And-White-Club/podium-bot/app/modules/race/infrastructure/repositories"
	sharedtypes "github.com/Black-And-White-Club/podium-bot/app/shared/types"
)

var driverCode = regexp.MustCompile(`^[A-Z]{2,4}$`)

// ListDrivers returns all drivers ordered by code.
func (s *RaceService) ListDrivers(ctx context.Context) ([]DriverInfo, error) {
	var out []DriverInfo
	err := s.withTelemetry(ctx, "ListDrivers", "", func(ctx context.Context) error {
		drivers, err := s.repo.ListDrivers(ctx, nil)
		if err != nil {
			return err
		}
		out = make([]DriverInfo, 0, len(drivers))
		for _, d := range drivers {
			out = append(out, driverInfo(d))
		}
		return nil
	})
	return out, err
}

// UpsertDriver creates a driver or replaces its details.
func (s *RaceService) UpsertDriver(ctx context.Context, driver DriverInfo) (*DriverInfo, error) {
	id := driver.ID.Normalize()
	var info *DriverInfo
	err := s.withTelemetry(ctx, "UpsertDriver", id.String(), func(ctx context.Context) error {
		if !driverCode.MatchString(string(id)) {
			return fmt.Errorf("%w: code must be 2-4 letters", ErrInvalidDriver)
		}
		name := strings.TrimSpace(driver.Name)
		if name == "" {
			return fmt.Errorf("%w: name is required", ErrInvalidDriver)
		}
		if driver.Number < 0 {
			return fmt.Errorf("%w: number must not be negative", ErrInvalidDriver)
		}

		row := &racedb.Driver{
			ID:     id,
			Name:   name,
			Team:   strings.TrimSpace(driver.Team),
			Number: driver.Number,
		}
		if err := s.repo.UpsertDriver(ctx, nil, row); err != nil {
			return err
		}
		out := driverInfo(*row)
		info = &out
		return nil
	})
	return info, err
}

// DeleteDriver removes a driver. Bets and results keep the bare code.
func (s *RaceService) DeleteDriver(ctx context.Context, id sharedtypes.DriverID) error {
	id = id.Normalize()
	return s.withTelemetry(ctx, "DeleteDriver", id.String(), func(ctx context.Context) error {
		if err := s.repo.DeleteDriver(ctx, nil, id); err != nil {
			if errors.Is(err, racedb.ErrNotFound) {
				return ErrDriverNotFound
			}
			return err
		}
		return nil
	})
}

func driverInfo(d racedb.Driver) DriverInfo {
	return DriverInfo{ID: d.ID, Name: d.Name, Team: d.Team, Number: d.Number}
}
