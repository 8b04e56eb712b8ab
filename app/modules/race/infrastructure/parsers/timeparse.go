package raceparsers

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"
)

var dateLayouts = []string{
	"2006-01-02",
	"02/01/2006",
	"2/1/2006",
	"02.01.2006",
	"2 Jan 2006",
	"2 January 2006",
	"Jan 2 2006",
	"January 2, 2006",
	"01-02-06",
}

var clockLayouts = []string{
	"15:04",
	"15:04:05",
	"3:04 PM",
	"3:04PM",
	"3PM",
	"3 PM",
}

var compactClock = regexp.MustCompile(`(\d{1,2})(\d{2})(am|pm)`)

// StartTimeParser turns calendar text into a UTC start instant.
type StartTimeParser struct {
	TimezoneMap map[string]string
	parser      *when.Parser
}

// NewStartTimeParser creates a parser with the abbreviations race calendars use.
func NewStartTimeParser() *StartTimeParser {
	w := when.New(nil)
	w.Add(en.All...)
	w.Add(common.All...)

	return &StartTimeParser{
		TimezoneMap: map[string]string{
			"UTC":  "UTC",
			"GMT":  "UTC",
			"BST":  "Europe/London",
			"CET":  "Europe/Paris",
			"CEST": "Europe/Paris",
			"EST":  "America/New_York",
			"EDT":  "America/New_York",
			"CST":  "America/Chicago",
			"CDT":  "America/Chicago",
			"PST":  "America/Los_Angeles",
			"PDT":  "America/Los_Angeles",
			"AEST": "Australia/Melbourne",
			"JST":  "Asia/Tokyo",
		},
		parser: w,
	}
}

// Location resolves an abbreviation or IANA name. Empty means UTC.
func (p *StartTimeParser) Location(tz string) (*time.Location, error) {
	tz = strings.TrimSpace(tz)
	if tz == "" {
		return time.UTC, nil
	}
	if name, ok := p.TimezoneMap[strings.ToUpper(tz)]; ok {
		tz = name
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone: %s", tz)
	}
	return loc, nil
}

// Parse combines a date and a clock time in tz. Text that matches no fixed
// layout is read as natural language relative to anchor ("next sunday at 3pm").
func (p *StartTimeParser) Parse(date, clock, tz string, anchor time.Time) (time.Time, error) {
	loc, err := p.Location(tz)
	if err != nil {
		return time.Time{}, err
	}
	date = strings.TrimSpace(date)
	clock = normalizeClock(clock)

	if t, ok := parseFixed(date, clock, loc); ok {
		return t.UTC(), nil
	}

	text := strings.TrimSpace(strings.ToLower(date + " " + clock))
	if text == "" {
		return time.Time{}, fmt.Errorf("start time is empty")
	}
	if clock != "" && !strings.Contains(text, " at ") {
		text = strings.TrimSpace(strings.ToLower(date)) + " at " + strings.ToLower(clock)
	}

	r, err := p.parser.Parse(text, anchor.In(loc))
	if err != nil || r == nil {
		return time.Time{}, fmt.Errorf("could not recognize start time: %q", strings.TrimSpace(date+" "+clock))
	}
	return r.Time.In(loc).Truncate(time.Minute).UTC(), nil
}

func normalizeClock(clock string) string {
	clock = strings.TrimSpace(clock)
	lower := strings.ToLower(clock)
	if compactClock.MatchString(lower) {
		return compactClock.ReplaceAllString(lower, "$1:$2 $3")
	}
	return clock
}

func parseFixed(date, clock string, loc *time.Location) (time.Time, bool) {
	for _, dl := range dateLayouts {
		d, err := time.ParseInLocation(dl, date, loc)
		if err != nil {
			continue
		}
		if clock == "" {
			return d, true
		}
		for _, cl := range clockLayouts {
			c, err := time.Parse(cl, strings.ToUpper(clock))
			if err != nil {
				continue
			}
			return time.Date(d.Year(), d.Month(), d.Day(), c.Hour(), c.Minute(), c.Second(), 0, loc), true
		}
		return time.Time{}, false
	}
	// A single cell holding both parts.
	if clock == "" {
		for _, layout := range []string{time.RFC3339, "2006-01-02 15:04", "2006-01-02T15:04"} {
			if t, err := time.ParseInLocation(layout, date, loc); err == nil {
				return t, true
			}
		}
	}
	return time.Time{}, false
}
