package courtfinder

import (
	"sort"
	"time"
)

type DaySlot struct {
	Time                string `json:"time"`
	AvailableCourtCount int    `json:"available_court_count"`
	CourtNumbers        []int  `json:"court_numbers"`
}

type Summary struct {
	// successful results with at least one court, in job order
	Available []SlotResult         `json:"available"`
	PerDate   map[string][]DaySlot `json:"per_date"`
	Totals    map[string]int       `json:"totals"`
}

func Summarize(results []SlotResult) Summary {
	summary := Summary{
		Available: []SlotResult{},
		PerDate:   map[string][]DaySlot{},
		Totals:    map[string]int{},
	}
	for _, r := range results {
		if !r.Available() {
			continue
		}
		summary.Available = append(summary.Available, r)
		summary.PerDate[r.Job.Date] = append(summary.PerDate[r.Job.Date], DaySlot{
			Time:                r.Job.StartTime,
			AvailableCourtCount: r.AvailableCourtCount,
			CourtNumbers:        r.CourtNumbers,
		})
		summary.Totals[r.Job.Date] += r.AvailableCourtCount
	}
	// HH:MM sorts lexicographically
	for _, slots := range summary.PerDate {
		sort.SliceStable(slots, func(i, j int) bool {
			return slots[i].Time < slots[j].Time
		})
	}
	return summary
}

// Dates returns the dates that have availability in calendar order.
func (s Summary) Dates() []string {
	dates := make([]string, 0, len(s.PerDate))
	for date := range s.PerDate {
		dates = append(dates, date)
	}
	sort.Slice(dates, func(i, j int) bool {
		a, errA := time.Parse(DateLayout, dates[i])
		b, errB := time.Parse(DateLayout, dates[j])
		if errA != nil || errB != nil {
			return dates[i] < dates[j]
		}
		return a.Before(b)
	})
	return dates
}

func (s Summary) TotalCourts() int {
	total := 0
	for _, n := range s.Totals {
		total += n
	}
	return total
}
