package courtfinder

import (
	"context"
	"errors"
	"net/url"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func TestSearchRequest(t *testing.T) {
	var gotTarget string
	var gotHeaders map[string]string
	var gotBody url.Values
	submitter := submitFunc(func(ctx context.Context, target string, headers map[string]string, body url.Values) (FormResponse, error) {
		gotTarget, gotHeaders, gotBody = target, headers, body
		return FormResponse{Status: 200, Body: "נמצאו 2 מגרשים פנויים מגרש: 5 מגרש: 9"}, nil
	})

	cfg := DefaultConfig()
	job := SearchJob{ResourceId: 11, ResourceType: 1, Date: "05/06/2025", StartTime: "20:30", DurationHours: 1.5}
	res := NewSearcher(submitter, "csrf-token", cfg.Search()).Search(context.Background(), job)

	require.Equal(t, SlotResult{
		Job:                 job,
		Succeeded:           true,
		AvailableCourtCount: 2,
		CourtNumbers:        []int{5, 9},
	}, res)
	require.True(t, res.Available())

	require.Equal(t, "https://center.tennis.org.il/self_services/search_court.js", gotTarget)
	expectedBody := url.Values{
		"utf8":               {"✓"},
		"authenticity_token": {"csrf-token"},
		"search[unit_id]":    {"11"},
		"search[court_type]": {"1"},
		"search[start_date]": {"05/06/2025"},
		"search[start_hour]": {"20:30"},
		"search[duration]":   {"1.5"},
	}
	if diff := cmp.Diff(expectedBody, gotBody); diff != "" {
		t.Fatalf("body (-want +got):\n%s", diff)
	}
	expectedHeaders := map[string]string{
		"content-type":     "application/x-www-form-urlencoded; charset=UTF-8",
		"x-requested-with": "XMLHttpRequest",
		"accept":           "*/*;q=0.5, text/javascript, application/javascript, application/ecmascript, application/x-ecmascript",
		"origin":           "https://center.tennis.org.il",
		"referer":          "https://center.tennis.org.il/self_services/court_invitation",
		"accept-language":  "en,he-IL;q=0.9,he;q=0.8",
	}
	if diff := cmp.Diff(expectedHeaders, gotHeaders); diff != "" {
		t.Fatalf("headers (-want +got):\n%s", diff)
	}
}

func TestSearchWholeHourDuration(t *testing.T) {
	var duration string
	submitter := submitFunc(func(ctx context.Context, target string, headers map[string]string, body url.Values) (FormResponse, error) {
		duration = body.Get("search[duration]")
		return FormResponse{Status: 200}, nil
	})
	res := NewSearcher(submitter, "t", SearchConfig{}).Search(context.Background(), SearchJob{DurationHours: 2})
	require.Equal(t, "2", duration)
	require.True(t, res.Succeeded)
	require.False(t, res.Available())
	require.Equal(t, []int{}, res.CourtNumbers)
}

func TestSearchFailures(t *testing.T) {
	job := SearchJob{Date: "01/01/2025", StartTime: "20:00"}

	statusSubmitter := submitFunc(func(ctx context.Context, target string, headers map[string]string, body url.Values) (FormResponse, error) {
		return FormResponse{Status: 422, Body: "נמצא מגרש פנוי"}, nil
	})
	res := NewSearcher(statusSubmitter, "t", SearchConfig{}).Search(context.Background(), job)
	require.False(t, res.Succeeded)
	require.Equal(t, 0, res.AvailableCourtCount)
	require.Equal(t, "search returned status 422", res.ErrorDetail)

	errSubmitter := submitFunc(func(ctx context.Context, target string, headers map[string]string, body url.Values) (FormResponse, error) {
		return FormResponse{}, errors.New("dial tcp: refused")
	})
	res = NewSearcher(errSubmitter, "t", SearchConfig{}).Search(context.Background(), job)
	require.False(t, res.Succeeded)
	require.Equal(t, job, res.Job)
	require.Equal(t, "dial tcp: refused", res.ErrorDetail)
	require.False(t, res.Available())
}
