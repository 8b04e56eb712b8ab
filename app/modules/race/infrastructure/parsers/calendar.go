package raceparsers

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

// CalendarRow is one race read from a calendar sheet.
type CalendarRow struct {
	Row      int
	Name     string
	Location string
	StartsAt time.Time
}

// RowError explains why a sheet row was skipped.
type RowError struct {
	Row    int    `json:"row"`
	Reason string `json:"reason"`
}

// CalendarParser reads a race calendar from the first sheet of an xlsx file.
// The header row needs a name and a date column; location, time and timezone
// are optional.
type CalendarParser struct {
	times *StartTimeParser
}

func NewCalendarParser(times *StartTimeParser) *CalendarParser {
	if times == nil {
		times = NewStartTimeParser()
	}
	return &CalendarParser{times: times}
}

// Parse returns the readable rows and the reasons the others were skipped.
func (p *CalendarParser) Parse(fileData []byte, anchor time.Time) ([]CalendarRow, []RowError, error) {
	f, err := excelize.OpenReader(bytes.NewReader(fileData))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse XLSX: %w", err)
	}
	defer f.Close()

	sheetList := f.GetSheetList()
	if len(sheetList) == 0 {
		return nil, nil, fmt.Errorf("XLSX file contains no sheets")
	}

	rows, err := f.GetRows(sheetList[0])
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read sheet: %w", err)
	}
	if len(rows) < 2 {
		return nil, nil, fmt.Errorf("XLSX must contain at least header and one data row")
	}

	header := rows[0]
	nameIdx := findColumn(header, []string{"name", "race", "grandprix", "event"})
	dateIdx := findColumn(header, []string{"date", "racedate", "day"})
	if nameIdx < 0 || dateIdx < 0 {
		return nil, nil, fmt.Errorf("XLSX missing required 'name' and 'date' columns")
	}
	locationIdx := findColumn(header, []string{"location", "circuit", "venue", "country"})
	timeIdx := findColumn(header, []string{"time", "start", "starttime", "racetime"})
	tzIdx := findColumn(header, []string{"timezone", "tz"})

	var out []CalendarRow
	var skipped []RowError
	for i := 1; i < len(rows); i++ {
		row := rows[i]
		sheetRow := i + 1

		name := cell(row, nameIdx)
		if name == "" {
			if strings.TrimSpace(strings.Join(row, "")) != "" {
				skipped = append(skipped, RowError{Row: sheetRow, Reason: "missing race name"})
			}
			continue
		}

		startsAt, err := p.times.Parse(cell(row, dateIdx), cell(row, timeIdx), cell(row, tzIdx), anchor)
		if err != nil {
			skipped = append(skipped, RowError{Row: sheetRow, Reason: err.Error()})
			continue
		}

		out = append(out, CalendarRow{
			Row:      sheetRow,
			Name:     name,
			Location: cell(row, locationIdx),
			StartsAt: startsAt,
		})
	}

	if len(out) == 0 && len(skipped) == 0 {
		return nil, nil, fmt.Errorf("no races found in XLSX")
	}
	return out, skipped, nil
}

func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

// findColumn matches header cells ignoring case, spaces and underscores.
func findColumn(header []string, names []string) int {
	for i, col := range header {
		normalized := strings.ToLower(strings.TrimSpace(col))
		normalized = strings.NewReplacer(" ", "", "_", "", "-", "").Replace(normalized)
		for _, n := range names {
			if normalized == n {
				return i
			}
		}
	}
	return -1
}
