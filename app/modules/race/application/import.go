package raceservice

import (
	"context"
	"fmt"

	raceparsers "github.com/Black-And-White-Club/podium-bot/app/modules/race/infrastructure/parsers"
	racedb "github.com/Black-And-White-Club/podium-bot/app/modules/race/infrastructure/repositories"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// ImportCalendar creates races from an XLSX calendar. Rows matching an
// existing name and start are counted as duplicates; unreadable rows are
// reported and skipped.
func (s *RaceService) ImportCalendar(ctx context.Context, fileData []byte) (*ImportSummary, error) {
	var summary *ImportSummary
	err := s.withTelemetry(ctx, "ImportCalendar", fmt.Sprintf("%d bytes", len(fileData)), func(ctx context.Context) error {
		rows, skipped, err := s.calendar.Parse(fileData, s.clock.Now())
		if err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidRace, err)
		}

		result := &ImportSummary{
			Created: make([]RaceInfo, 0, len(rows)),
			Skipped: skipped,
		}
		if result.Skipped == nil {
			result.Skipped = []raceparsers.RowError{}
		}

		err = s.inTx(ctx, func(ctx context.Context, db bun.IDB) error {
			for _, row := range rows {
				race := &racedb.Race{
					ID:       uuid.New(),
					Name:     row.Name,
					Location: row.Location,
					StartsAt: row.StartsAt.UTC(),
				}
				inserted, err := s.repo.InsertRaceIfAbsent(ctx, db, race)
				if err != nil {
					return fmt.Errorf("row %d: %w", row.Row, err)
				}
				if !inserted {
					result.Duplicates++
					continue
				}
				result.Created = append(result.Created, *s.toInfoValue(race))
			}
			return nil
		})
		if err != nil {
			return err
		}
		summary = result
		return nil
	})
	return summary, err
}
