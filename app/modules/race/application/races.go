package raceservice

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	racedb "github.com/Black-And-White-Club/podium-bot/app/modules/race/infrastructure/repositories"
	sharedtypes "github.com/Black-And-White-Club/podium-bot/app/shared/types"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// CreateRace validates and stores a new race.
func (s *RaceService) CreateRace(ctx context.Context, input RaceInput) (*RaceInfo, error) {
	var info *RaceInfo
	err := s.withTelemetry(ctx, "CreateRace", input.Name, func(ctx context.Context) error {
		race, err := s.buildRace(input)
		if err != nil {
			return err
		}
		race.ID = uuid.New()

		if err := s.repo.CreateRace(ctx, nil, race); err != nil {
			if errors.Is(err, racedb.ErrDuplicateRace) {
				return ErrDuplicateRace
			}
			return err
		}
		info = s.toInfoValue(race)
		return nil
	})
	return info, err
}

// GetRace returns one race with its betting status.
func (s *RaceService) GetRace(ctx context.Context, raceID uuid.UUID) (*RaceInfo, error) {
	var info *RaceInfo
	err := s.withTelemetry(ctx, "GetRace", raceID.String(), func(ctx context.Context) error {
		race, err := s.getRace(ctx, nil, raceID)
		if err != nil {
			return err
		}
		out := s.toInfo(race)
		info = &out
		return nil
	})
	return info, err
}

// ListRaces returns races in start order, optionally filtered by status.
func (s *RaceService) ListRaces(ctx context.Context, filter RaceFilter) ([]RaceInfo, error) {
	var out []RaceInfo
	err := s.withTelemetry(ctx, "ListRaces", string(filter.Status), func(ctx context.Context) error {
		races, err := s.repo.ListRaces(ctx, nil, filter.From, filter.To)
		if err != nil {
			return err
		}
		out = make([]RaceInfo, 0, len(races))
		for i := range races {
			info := s.toInfo(&races[i])
			if filter.Status != "" && info.Status != filter.Status {
				continue
			}
			out = append(out, info)
		}
		return nil
	})
	return out, err
}

// UpdateRace edits name, location, and start. The start is frozen once a result exists.
func (s *RaceService) UpdateRace(ctx context.Context, raceID uuid.UUID, input RaceInput) (*RaceInfo, error) {
	var info *RaceInfo
	err := s.withTelemetry(ctx, "UpdateRace", raceID.String(), func(ctx context.Context) error {
		return s.inTx(ctx, func(ctx context.Context, db bun.IDB) error {
			current, err := s.lockRace(ctx, db, raceID)
			if err != nil {
				return err
			}
			next, err := s.buildRace(input)
			if err != nil {
				return err
			}
			if current.Result() != nil && !next.StartsAt.Equal(current.StartsAt) {
				return ErrRaceHasResult
			}

			updated := current.Race
			updated.Name = next.Name
			updated.Location = next.Location
			updated.StartsAt = next.StartsAt
			if err := s.repo.UpdateRace(ctx, db, &updated); err != nil {
				switch {
				case errors.Is(err, racedb.ErrNotFound):
					return ErrRaceNotFound
				case errors.Is(err, racedb.ErrDuplicateRace):
					return ErrDuplicateRace
				}
				return err
			}
			current.Race = updated
			out := s.toInfo(current)
			info = &out
			return nil
		})
	})
	return info, err
}

// SetQualifying records the qualifying top three for display.
func (s *RaceService) SetQualifying(ctx context.Context, raceID uuid.UUID, quali *sharedtypes.Podium) (*RaceInfo, error) {
	var info *RaceInfo
	err := s.withTelemetry(ctx, "SetQualifying", raceID.String(), func(ctx context.Context) error {
		var normalized *sharedtypes.Podium
		if quali != nil {
			p := sharedtypes.NewPodium(string(quali.P1), string(quali.P2), string(quali.P3))
			if !p.IsComplete() || !p.IsDistinct() {
				return ErrInvalidQualifying
			}
			normalized = &p
		}

		return s.inTx(ctx, func(ctx context.Context, db bun.IDB) error {
			current, err := s.lockRace(ctx, db, raceID)
			if err != nil {
				return err
			}
			if current.Result() != nil {
				return ErrRaceHasResult
			}
			if normalized != nil {
				slots := normalized.Slots()
				if err := s.requireDrivers(ctx, db, slots[:]); err != nil {
					return err
				}
			}
			if err := s.repo.SetQualifying(ctx, db, raceID, normalized); err != nil {
				if errors.Is(err, racedb.ErrNotFound) {
					return ErrRaceNotFound
				}
				return err
			}
			setQualifying(&current.Race, normalized)
			out := s.toInfo(current)
			info = &out
			return nil
		})
	})
	return info, err
}

// DeleteRace removes a race that has never had a result recorded.
func (s *RaceService) DeleteRace(ctx context.Context, raceID uuid.UUID) error {
	return s.withTelemetry(ctx, "DeleteRace", raceID.String(), func(ctx context.Context) error {
		return s.inTx(ctx, func(ctx context.Context, db bun.IDB) error {
			current, err := s.lockRace(ctx, db, raceID)
			if err != nil {
				return err
			}
			if current.ResultRevision > 0 {
				return ErrRaceHasResult
			}
			if err := s.repo.DeleteRace(ctx, db, raceID); err != nil {
				if errors.Is(err, racedb.ErrNotFound) {
					return ErrRaceNotFound
				}
				return err
			}
			return nil
		})
	})
}

// lockRace serializes race edits with bet admission and scoring, then loads the race.
func (s *RaceService) lockRace(ctx context.Context, db bun.IDB, raceID uuid.UUID) (*racedb.RaceWithCount, error) {
	if err := s.repo.LockRace(ctx, db, raceID); err != nil {
		return nil, err
	}
	return s.getRace(ctx, db, raceID)
}

func (s *RaceService) getRace(ctx context.Context, db bun.IDB, raceID uuid.UUID) (*racedb.RaceWithCount, error) {
	race, err := s.repo.GetRace(ctx, db, raceID)
	if err != nil {
		if errors.Is(err, racedb.ErrNotFound) {
			return nil, ErrRaceNotFound
		}
		return nil, err
	}
	return race, nil
}

// buildRace validates input and resolves the start time.
func (s *RaceService) buildRace(input RaceInput) (*racedb.Race, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidRace)
	}

	startsAt := input.StartsAt
	if startsAt.IsZero() {
		if strings.TrimSpace(input.StartsAtText) == "" {
			return nil, fmt.Errorf("%w: start time is required", ErrInvalidRace)
		}
		parsed, err := s.parseStart(input.StartsAtText, input.Timezone)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidRace, err)
		}
		startsAt = parsed
	}

	return &racedb.Race{
		Name:     name,
		Location: strings.TrimSpace(input.Location),
		StartsAt: startsAt.UTC(),
	}, nil
}

// parseStart accepts "<date> <clock>" pairs before falling back to free text.
func (s *RaceService) parseStart(text, tz string) (time.Time, error) {
	text = strings.TrimSpace(text)
	if t, err := time.Parse(time.RFC3339, text); err == nil {
		return t, nil
	}
	if date, clk, ok := strings.Cut(text, " "); ok {
		if t, err := s.times.Parse(date, clk, tz, s.clock.Now()); err == nil {
			return t, nil
		}
	}
	return s.times.Parse(text, "", tz, s.clock.Now())
}

func (s *RaceService) toInfoValue(race *racedb.Race) *RaceInfo {
	info := s.toInfo(&racedb.RaceWithCount{Race: *race})
	return &info
}

func (s *RaceService) requireDrivers(ctx context.Context, db bun.IDB, ids []sharedtypes.DriverID) error {
	found, err := s.repo.GetDrivers(ctx, db, ids)
	if err != nil {
		return err
	}
	known := make(map[sharedtypes.DriverID]struct{}, len(found))
	for _, d := range found {
		known[d.ID] = struct{}{}
	}
	for _, id := range ids {
		if _, ok := known[id]; !ok {
			return fmt.Errorf("%w: %s", ErrUnknownDriver, id)
		}
	}
	return nil
}

func setQualifying(r *racedb.Race, p *sharedtypes.Podium) {
	if p == nil {
		r.QualiP1, r.QualiP2, r.QualiP3 = nil, nil, nil
		return
	}
	p1, p2, p3 := p.P1, p.P2, p.P3
	r.QualiP1, r.QualiP2, r.QualiP3 = &p1, &p2, &p3
}
