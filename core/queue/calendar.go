package queue

import (
	"fmt"
	"strings"
	"time"

	"Audiotheque/core/role"
	"Audiotheque/model"
)

// Calendar groups the tracks visible to one role by effective date.
type Calendar struct {
	loc  *time.Location
	days map[string][]model.Audio
}

// DaySummary is one cell of a month grid.
type DaySummary struct {
	Day      int    `json:"day"`
	Date     string `json:"date"`
	Count    int    `json:"count"`
	HasAudio bool   `json:"hasAudio"`
}

// MonthGrid describes a month for rendering: FirstWeekday is the weekday of
// the 1st with Sunday as 0.
type MonthGrid struct {
	Year         int          `json:"year"`
	Month        int          `json:"month"`
	DaysInMonth  int          `json:"daysInMonth"`
	FirstWeekday int          `json:"firstWeekday"`
	Days         []DaySummary `json:"days"`
}

// EffectiveDate returns the day a track is listed under: its custom date
// when set, otherwise the upload date in loc. Tracks with neither have no
// date.
func EffectiveDate(t model.Audio, loc *time.Location) (string, bool) {
	if t.HasDate() {
		return strings.TrimSpace(*t.Date), true
	}
	if t.UploadedAt.IsZero() {
		return "", false
	}
	if loc == nil {
		loc = time.Local
	}
	return t.UploadedAt.In(loc).Format(model.DateLayout), true
}

// NewCalendar filters tracks for r and groups them by effective date. Each
// day keeps the input order.
func NewCalendar(tracks []model.Audio, r model.Role, loc *time.Location) *Calendar {
	if loc == nil {
		loc = time.Local
	}
	c := &Calendar{loc: loc, days: make(map[string][]model.Audio)}
	for _, t := range role.FilterVisible(r, tracks) {
		if date, ok := EffectiveDate(t, loc); ok {
			c.days[date] = append(c.days[date], t)
		}
	}
	return c
}

// Day returns the tracks of date, nil when there are none.
func (c *Calendar) Day(date string) []model.Audio {
	list := c.days[date]
	if len(list) == 0 {
		return nil
	}
	out := make([]model.Audio, len(list))
	copy(out, list)
	return out
}

// HasAudio reports whether date has at least one visible track.
func (c *Calendar) HasAudio(date string) bool {
	return len(c.days[date]) > 0
}

// Month returns the grid for month of year.
func (c *Calendar) Month(year int, month time.Month) (MonthGrid, error) {
	if month < time.January || month > time.December {
		return MonthGrid{}, fmt.Errorf("invalid month %d", month)
	}
	first := time.Date(year, month, 1, 0, 0, 0, 0, c.loc)
	days := time.Date(year, month+1, 0, 0, 0, 0, 0, c.loc).Day()

	grid := MonthGrid{
		Year:         year,
		Month:        int(month),
		DaysInMonth:  days,
		FirstWeekday: int(first.Weekday()),
		Days:         make([]DaySummary, days),
	}
	for d := 1; d <= days; d++ {
		date := fmt.Sprintf("%04d-%02d-%02d", year, int(month), d)
		n := len(c.days[date])
		grid.Days[d-1] = DaySummary{Day: d, Date: date, Count: n, HasAudio: n > 0}
	}
	return grid, nil
}

// ShiftMonth moves (year, month) by delta months.
func ShiftMonth(year int, month time.Month, delta int) (int, time.Month) {
	t := time.Date(year, month+time.Month(delta), 1, 0, 0, 0, 0, time.UTC)
	return t.Year(), t.Month()
}

// ParseDate validates a YYYY-MM-DD day key.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(model.DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return t, nil
}
