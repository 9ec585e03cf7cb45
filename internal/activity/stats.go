package activity

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/starford/jobtrail/internal/models"
)

// MonthStatsFor counts the events dated in the given month.
func MonthStatsFor(events []models.Event, year int, month time.Month) models.MonthStats {
	prefix := fmt.Sprintf("%04d-%02d-", year, int(month))
	return tally(events, func(ev models.Event) bool {
		return strings.HasPrefix(ev.Date, prefix)
	})
}

// AllTimeStats counts every event.
func AllTimeStats(events []models.Event) models.MonthStats {
	return tally(events, func(models.Event) bool { return true })
}

func tally(events []models.Event, keep func(models.Event) bool) models.MonthStats {
	st := models.MonthStats{ByKind: make(map[models.Kind]int, len(models.AllKinds))}
	for _, k := range models.AllKinds {
		st.ByKind[k] = 0
	}
	for _, ev := range events {
		if !keep(ev) {
			continue
		}
		st.Total++
		st.ByKind[ev.Kind]++
	}
	st.Outcomes = st.ByKind[models.KindRejected] + st.ByKind[models.KindWithdrawn] + st.ByKind[models.KindOffer]
	return st
}

// Percentage returns part/total as a rounded whole percentage, or 0 when
// total is 0.
func Percentage(part, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(float64(part) / float64(total) * 100))
}

// DaysInMonth returns the length of the month, leap years included.
func DaysInMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// AvgPerWeek spreads total over the weeks of the month.
func AvgPerWeek(total, year int, month time.Month) float64 {
	weeks := float64(DaysInMonth(year, month)) / 7
	if weeks == 0 {
		return 0
	}
	return float64(total) / weeks
}

// GrowthPercent returns the rounded change from prev to current. It reports
// false when there is no baseline (prev == 0).
func GrowthPercent(current, prev int) (int, bool) {
	if prev == 0 {
		return 0, false
	}
	return int(math.Round(float64(current-prev) / float64(prev) * 100)), true
}

// Report is the statistics view model for one month.
type Report struct {
	Year           int                  `json:"year"`
	Month          time.Month           `json:"month"`
	Current        models.MonthStats    `json:"current"`
	Previous       models.MonthStats    `json:"previous"`
	Growth         map[models.Kind]*int `json:"growth"`
	TotalGrowth    *int                 `json:"totalGrowth"`
	PositivePct    int                  `json:"positivePct"`
	NegativePct    int                  `json:"negativePct"`
	AppliedPerWeek float64              `json:"appliedPerWeek"`
}

// MonthReport compares a month with the one before it.
func MonthReport(events []models.Event, year int, month time.Month) Report {
	py, pm := ShiftMonth(year, month, -1)
	cur := MonthStatsFor(events, year, month)
	prev := MonthStatsFor(events, py, pm)

	r := Report{
		Year:     year,
		Month:    month,
		Current:  cur,
		Previous: prev,
		Growth:   make(map[models.Kind]*int, len(models.AllKinds)),
	}
	for _, k := range models.AllKinds {
		r.Growth[k] = growthPtr(cur.ByKind[k], prev.ByKind[k])
	}
	r.TotalGrowth = growthPtr(cur.Total, prev.Total)
	r.PositivePct = Percentage(cur.ByKind[models.KindOffer], cur.Outcomes)
	r.NegativePct = Percentage(cur.ByKind[models.KindRejected]+cur.ByKind[models.KindWithdrawn], cur.Outcomes)
	r.AppliedPerWeek = AvgPerWeek(cur.ByKind[models.KindApplied], year, month)
	return r
}

// growthPtr maps a missing baseline to nil so it encodes as JSON null.
func growthPtr(current, prev int) *int {
	g, ok := GrowthPercent(current, prev)
	if !ok {
		return nil
	}
	return &g
}
