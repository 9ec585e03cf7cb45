package activity

import (
	"sort"
	"time"

	"github.com/starford/jobtrail/internal/models"
)

// GridSize is the number of cells in a month view: six Monday-first weeks.
const GridSize = 42

// BuildMonthGrid returns the 42 days shown for the given month, starting on
// the Monday on or before the 1st. Days outside the month are included and
// flagged.
func BuildMonthGrid(year int, month time.Month) []models.GridDay {
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	offset := (int(first.Weekday()) + 6) % 7
	start := first.AddDate(0, 0, -offset)

	out := make([]models.GridDay, GridSize)
	for i := range out {
		d := start.AddDate(0, 0, i)
		out[i] = models.GridDay{
			Date:           d,
			ISO:            ToISODate(d.Year(), d.Month(), d.Day()),
			InCurrentMonth: d.Month() == first.Month() && d.Year() == first.Year(),
		}
	}
	return out
}

// ShiftMonth moves year/month by delta months.
func ShiftMonth(year int, month time.Month, delta int) (int, time.Month) {
	t := time.Date(year, month+time.Month(delta), 1, 0, 0, 0, 0, time.UTC)
	return t.Year(), t.Month()
}

// EventsByDate groups events by date. Each list is ordered by kind.
func EventsByDate(events []models.Event) map[string][]models.Event {
	out := make(map[string][]models.Event)
	for _, ev := range events {
		out[ev.Date] = append(out[ev.Date], ev)
	}
	for _, list := range out {
		sort.SliceStable(list, func(i, j int) bool { return list[i].Kind < list[j].Kind })
	}
	return out
}

// Cell is a grid day together with the events that fall on it.
type Cell struct {
	models.GridDay
	Events []models.Event `json:"events"`
}

// MonthCells joins the month grid with the events of each day.
func MonthCells(year int, month time.Month, events []models.Event) []Cell {
	byDate := EventsByDate(events)
	grid := BuildMonthGrid(year, month)
	out := make([]Cell, len(grid))
	for i, d := range grid {
		evs := byDate[d.ISO]
		if evs == nil {
			evs = []models.Event{}
		}
		out[i] = Cell{GridDay: d, Events: evs}
	}
	return out
}
