package courtfinder

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DateLayout is the site's date format (DD/MM/YYYY).
const DateLayout = "02/01/2006"

type SearchJob struct {
	ResourceId    int     `json:"unit_id"`
	ResourceType  int     `json:"court_type"`
	Date          string  `json:"date"`
	StartTime     string  `json:"start_time"`
	DurationHours float64 `json:"duration_hours"`
}

type GridConfig struct {
	DaysAhead     int
	Start         string
	End           string
	StepMinutes   int
	ResourceId    int
	ResourceType  int
	DurationHours float64
}

// parseClock converts "HH:MM" into minutes since midnight.
func parseClock(s string) (int, error) {
	hours, minutes, found := strings.Cut(strings.TrimSpace(s), ":")
	if !found {
		return 0, fmt.Errorf("invalid time %q, expected HH:MM", s)
	}
	if !isDigits(hours, 1, 2) {
		return 0, fmt.Errorf("invalid hour in %q", s)
	}
	if !isDigits(minutes, 2, 2) {
		return 0, fmt.Errorf("invalid minutes in %q", s)
	}
	h, err := strconv.Atoi(hours)
	if err != nil || h > 23 {
		return 0, fmt.Errorf("invalid hour in %q", s)
	}
	m, err := strconv.Atoi(minutes)
	if err != nil || m > 59 {
		return 0, fmt.Errorf("invalid minutes in %q", s)
	}
	return h*60 + m, nil
}

func isDigits(s string, minLen, maxLen int) bool {
	if len(s) < minLen || len(s) > maxLen {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

func formatClock(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// TimesBetween lists start, start+step, ... for as long as the time is not
// after end. end itself is only included when it falls on a step.
func TimesBetween(start, end string, step int) ([]string, error) {
	if step <= 0 {
		return nil, fmt.Errorf("step must be positive, got %d", step)
	}
	s, err := parseClock(start)
	if err != nil {
		return nil, err
	}
	e, err := parseClock(end)
	if err != nil {
		return nil, err
	}

	times := []string{}
	for t := s; t <= e; t += step {
		times = append(times, formatClock(t))
	}
	return times, nil
}

// BuildJobs returns one job per (date, time) for the dates today through
// today + DaysAhead, ordered by date and then by time.
func BuildJobs(cfg GridConfig, today time.Time) ([]SearchJob, error) {
	if cfg.DaysAhead < 0 {
		return nil, fmt.Errorf("days must not be negative, got %d", cfg.DaysAhead)
	}
	times, err := TimesBetween(cfg.Start, cfg.End, cfg.StepMinutes)
	if err != nil {
		return nil, err
	}

	base := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, today.Location())
	jobs := make([]SearchJob, 0, (cfg.DaysAhead+1)*len(times))
	for d := 0; d <= cfg.DaysAhead; d++ {
		date := base.AddDate(0, 0, d).Format(DateLayout)
		for _, t := range times {
			jobs = append(jobs, SearchJob{
				ResourceId:    cfg.ResourceId,
				ResourceType:  cfg.ResourceType,
				Date:          date,
				StartTime:     t,
				DurationHours: cfg.DurationHours,
			})
		}
	}
	return jobs, nil
}
