package courtfinder

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func TestTimesBetween(t *testing.T) {
	cases := []struct {
		start, end string
		step       int
		expected   []string
	}{
		{"20:00", "23:00", 30, []string{"20:00", "20:30", "21:00", "21:30", "22:00", "22:30", "23:00"}},
		{"20:00", "21:00", 45, []string{"20:00", "20:45"}},
		{"07:05", "07:05", 10, []string{"07:05"}},
		{"9:00", "10:00", 60, []string{"09:00", "10:00"}},
		{"00:00", "00:20", 7, []string{"00:00", "00:07", "00:14"}},
		{"22:00", "21:00", 30, []string{}},
	}

	for _, test := range cases {
		times, err := TimesBetween(test.start, test.end, test.step)
		require.NoError(t, err)
		if diff := cmp.Diff(test.expected, times); diff != "" {
			t.Fatalf("%s-%s/%d (-want +got):\n%s", test.start, test.end, test.step, diff)
		}
		for i := 1; i < len(times); i++ {
			require.Less(t, times[i-1], times[i])
		}
	}
}

func TestTimesBetweenInvalid(t *testing.T) {
	_, err := TimesBetween("20:00", "23:00", 0)
	require.Error(t, err)
	_, err = TimesBetween("20", "23:00", 30)
	require.Error(t, err)
	_, err = TimesBetween("20:00", "24:00", 30)
	require.Error(t, err)
	_, err = TimesBetween("20:7", "23:00", 30)
	require.Error(t, err)

	for _, start := range []string{"+7:00", "-0:00", "7:+5", "007:00", " :00"} {
		_, err = TimesBetween(start, "23:00", 30)
		require.Error(t, err, start)
	}
	// a single digit hour is fine
	times, err := TimesBetween("7:00", "7:30", 30)
	require.NoError(t, err)
	require.Equal(t, []string{"07:00", "07:30"}, times)
}

func TestBuildJobs(t *testing.T) {
	cfg := GridConfig{
		DaysAhead:     2,
		Start:         "20:00",
		End:           "21:00",
		StepMinutes:   30,
		ResourceId:    11,
		ResourceType:  1,
		DurationHours: 1.5,
	}
	// the time of day is ignored, month and year boundaries roll over
	today := time.Date(2024, time.December, 31, 18, 45, 0, 0, time.UTC)

	jobs, err := BuildJobs(cfg, today)
	require.NoError(t, err)
	require.Len(t, jobs, 3*3)

	job := func(date, start string) SearchJob {
		return SearchJob{ResourceId: 11, ResourceType: 1, Date: date, StartTime: start, DurationHours: 1.5}
	}
	expected := []SearchJob{
		job("31/12/2024", "20:00"), job("31/12/2024", "20:30"), job("31/12/2024", "21:00"),
		job("01/01/2025", "20:00"), job("01/01/2025", "20:30"), job("01/01/2025", "21:00"),
		job("02/01/2025", "20:00"), job("02/01/2025", "20:30"), job("02/01/2025", "21:00"),
	}
	if diff := cmp.Diff(expected, jobs); diff != "" {
		t.Fatalf("jobs (-want +got):\n%s", diff)
	}

	again, err := BuildJobs(cfg, today)
	require.NoError(t, err)
	require.Equal(t, jobs, again)
}

func TestBuildJobsCount(t *testing.T) {
	today := time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)
	for days := 0; days <= 14; days += 7 {
		cfg := DefaultConfig()
		cfg.DaysAhead = days
		jobs, err := BuildJobs(cfg.Grid(), today)
		require.NoError(t, err)
		require.Len(t, jobs, (days+1)*7)
		require.Equal(t, "01/03/2024", jobs[0].Date)
	}

	_, err := BuildJobs(GridConfig{DaysAhead: -1, Start: "20:00", End: "21:00", StepMinutes: 30}, today)
	require.Error(t, err)
}
