package raceservice

import (
	"context"
	"testing"
	"time"

	racedb "github.com/Black-And-White-Club/podium-bot/app/modules/race/infrastructure/repositories"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func calendarFile(t *testing.T, rows [][]any) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)
	for i, row := range rows {
		cellName, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cellName, &row))
	}
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes()
}

func TestImportCalendar(t *testing.T) {
	repo := NewFakeRaceRepo()
	repo.AddRace(racedb.Race{
		ID:       uuid.New(),
		Name:     "Monaco Grand Prix",
		StartsAt: time.Date(2026, 6, 7, 13, 0, 0, 0, time.UTC),
	}, 0)
	svc := newTestService(repo, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC))

	data := calendarFile(t, [][]any{
		{"Race", "Location", "Date", "Time", "Timezone"},
		{"Monaco Grand Prix", "Monte Carlo", "2026-06-07", "15:00", "Europe/Monaco"},
		{"Canadian Grand Prix", "Montreal", "2026-05-24", "14:00", "America/Toronto"},
		{"Spanish Grand Prix", "Barcelona", "TBC", "", ""},
	})

	summary, err := svc.ImportCalendar(context.Background(), data)
	require.NoError(t, err)

	require.Len(t, summary.Created, 1)
	assert.Equal(t, "Canadian Grand Prix", summary.Created[0].Name)
	assert.Equal(t, time.Date(2026, 5, 24, 18, 0, 0, 0, time.UTC), summary.Created[0].StartsAt)
	assert.Equal(t, 1, summary.Duplicates)
	require.Len(t, summary.Skipped, 1)
	assert.Equal(t, 4, summary.Skipped[0].Row)
	assert.Equal(t, 2, repo.raceCount())
}

func TestImportCalendar_RejectsBadFile(t *testing.T) {
	svc := newTestService(NewFakeRaceRepo(), time.Now())
	_, err := svc.ImportCalendar(context.Background(), []byte("not a spreadsheet"))
	assert.ErrorIs(t, err, ErrInvalidRace)
}
