package courtfinder

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestRunQueue(t *testing.T) {
	items := make([]int, 25)
	for i := range items {
		items[i] = i
	}

	var active, maxActive atomic.Int64
	results := RunQueue(context.Background(), 4, items, func(ctx context.Context, index int, item int) string {
		current := active.Add(1)
		for {
			seen := maxActive.Load()
			if current <= seen || maxActive.CompareAndSwap(seen, current) {
				break
			}
		}
		time.Sleep(time.Millisecond)
		active.Add(-1)
		return fmt.Sprintf("%d:%d", index, item*item)
	})

	require.Len(t, results, len(items))
	for i, r := range results {
		require.Equal(t, fmt.Sprintf("%d:%d", i, i*i), r)
	}
	require.LessOrEqual(t, maxActive.Load(), int64(4))
}

func TestRunQueueEdgeCases(t *testing.T) {
	double := func(ctx context.Context, _ int, item int) int { return item * 2 }

	require.Empty(t, RunQueue(context.Background(), 3, []int{}, double))
	require.Equal(t, []int{2, 4, 6}, RunQueue(context.Background(), 0, []int{1, 2, 3}, double))
	require.Equal(t, []int{2, 4, 6}, RunQueue(context.Background(), -5, []int{1, 2, 3}, double))
	require.Equal(t, []int{2}, RunQueue(context.Background(), 100, []int{1}, double))
}

func TestDispatchIsolatesFailures(t *testing.T) {
	jobs, err := BuildJobs(GridConfig{
		DaysAhead:     0,
		Start:         "18:00",
		End:           "22:30",
		StepMinutes:   30,
		ResourceId:    11,
		ResourceType:  1,
		DurationHours: 2,
	}, time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Len(t, jobs, 10)

	failing := jobs[4].StartTime
	panicking := jobs[7].StartTime
	submitter := submitFunc(func(ctx context.Context, target string, headers map[string]string, body url.Values) (FormResponse, error) {
		switch body.Get("search[start_hour]") {
		case failing:
			return FormResponse{}, errors.New("connection reset")
		case panicking:
			panic("boom")
		}
		return FormResponse{Status: 200, Body: "מגרש: 3"}, nil
	})

	searcher := NewSearcher(submitter, "tok", SearchConfig{SearchUrl: "https://site/search"})
	results := Dispatch(context.Background(), searcher, jobs, 3)

	require.Len(t, results, 10)
	for i, r := range results {
		require.Equal(t, jobs[i], r.Job)
		switch i {
		case 4:
			require.False(t, r.Succeeded)
			require.Equal(t, "connection reset", r.ErrorDetail)
		case 7:
			require.False(t, r.Succeeded)
			require.Contains(t, r.ErrorDetail, "boom")
		default:
			require.True(t, r.Succeeded)
			require.Equal(t, 1, r.AvailableCourtCount)
			require.Equal(t, []int{3}, r.CourtNumbers)
		}
	}
}
