package views

import (
	"fmt"
	"time"

	"trainingcrm/internal/models"
)

// Cell is one slot of the month grid. Leading blanks have Day == 0.
type Cell struct {
	Day           int                  `json:"day"`
	Date          string               `json:"date,omitempty"`
	Today         bool                 `json:"today,omitempty"`
	Opportunities []models.Opportunity `json:"opportunities"`
}

type Calendar struct {
	Year  int        `json:"year"`
	Month time.Month `json:"month"`
	// Offset is the number of leading blank cells (Monday-first week).
	Offset int    `json:"offset"`
	Cells  []Cell `json:"cells"`
}

// DayString formats a calendar day from its components, never from an
// instant, so no time zone can shift it.
func DayString(year int, month time.Month, day int) string {
	return fmt.Sprintf("%04d-%02d-%02d", year, int(month), day)
}

// MondayOffset is the number of blank cells before the 1st of the month in
// a week that starts on Monday.
func MondayOffset(year int, month time.Month, loc *time.Location) int {
	wd := time.Date(year, month, 1, 0, 0, 0, 0, loc).Weekday()
	if wd == time.Sunday {
		return 6
	}
	return int(wd) - 1
}

// DaysIn returns the number of days in the month.
func DaysIn(year int, month time.Month, loc *time.Location) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, loc).Day()
}

// BuildCalendar lays out the month and places every open opportunity on the
// day of its target close date. Closed opportunities never show up. now
// only marks today's cell and may be zero.
func BuildCalendar(list []models.Opportunity, year int, month time.Month, loc *time.Location, now time.Time) Calendar {
	if loc == nil {
		loc = time.Local
	}
	// Normalize out-of-range months (e.g. 13 -> January next year).
	first := time.Date(year, month, 1, 0, 0, 0, 0, loc)
	year, month = first.Year(), first.Month()

	byDay := map[string][]models.Opportunity{}
	for i := range list {
		o := &list[i]
		if o.Status.IsTerminal() {
			continue
		}
		if day := o.TargetCloseDay(loc); day != "" {
			byDay[day] = append(byDay[day], o.Clone())
		}
	}

	today := ""
	if !now.IsZero() {
		n := now.In(loc)
		today = DayString(n.Year(), n.Month(), n.Day())
	}

	cal := Calendar{Year: year, Month: month, Offset: MondayOffset(year, month, loc)}
	for i := 0; i < cal.Offset; i++ {
		cal.Cells = append(cal.Cells, Cell{Opportunities: []models.Opportunity{}})
	}
	for d := 1; d <= DaysIn(year, month, loc); d++ {
		date := DayString(year, month, d)
		opps := byDay[date]
		if opps == nil {
			opps = []models.Opportunity{}
		}
		cal.Cells = append(cal.Cells, Cell{Day: d, Date: date, Today: date == today, Opportunities: opps})
	}
	return cal
}

// Prev and Next return the neighbouring months.
func (c Calendar) Prev() (int, time.Month) {
	t := time.Date(c.Year, c.Month-1, 1, 0, 0, 0, 0, time.UTC)
	return t.Year(), t.Month()
}

func (c Calendar) Next() (int, time.Month) {
	t := time.Date(c.Year, c.Month+1, 1, 0, 0, 0, 0, time.UTC)
	return t.Year(), t.Month()
}

// Cell returns the cell of day d, if the month has it.
func (c Calendar) Cell(d int) (Cell, bool) {
	i := c.Offset + d - 1
	if d < 1 || i >= len(c.Cells) {
		return Cell{}, false
	}
	return c.Cells[i], true
}
