package courtfinder

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"time"

	"courtfinder/lib/htmlutil"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
)

type SlotResult struct {
	Job                 SearchJob `json:"job"`
	Succeeded           bool      `json:"succeeded"`
	AvailableCourtCount int       `json:"available_court_count"`
	CourtNumbers        []int     `json:"court_numbers"`
	ErrorDetail         string    `json:"error,omitempty"`
}

func (r SlotResult) Available() bool {
	return r.Succeeded && r.AvailableCourtCount > 0
}

func failedResult(job SearchJob, err error) SlotResult {
	return SlotResult{
		Job:          job,
		CourtNumbers: []int{},
		ErrorDetail:  err.Error(),
	}
}

type SearchConfig struct {
	SearchUrl string
	Origin    string
	Referer   string
	// zero means no timeout besides the http client's
	RequestTimeout time.Duration
}

// Searcher sends one availability search per job.
type Searcher struct {
	submitter FormSubmitter
	token     string
	cfg       SearchConfig
	phrases   PhraseSet
}

func NewSearcher(submitter FormSubmitter, token string, cfg SearchConfig) Searcher {
	return Searcher{
		submitter: submitter,
		token:     token,
		cfg:       cfg,
		phrases:   HebrewPhrases,
	}
}

func (s Searcher) headers() map[string]string {
	return map[string]string{
		"content-type":     "application/x-www-form-urlencoded; charset=UTF-8",
		"x-requested-with": "XMLHttpRequest",
		"accept":           "*/*;q=0.5, text/javascript, application/javascript, application/ecmascript, application/x-ecmascript",
		"origin":           s.cfg.Origin,
		"referer":          s.cfg.Referer,
		"accept-language":  "en,he-IL;q=0.9,he;q=0.8",
	}
}

func (s Searcher) form(job SearchJob) url.Values {
	return url.Values{
		"utf8":               {"✓"},
		"authenticity_token": {s.token},
		"search[unit_id]":    {strconv.Itoa(job.ResourceId)},
		"search[court_type]": {strconv.Itoa(job.ResourceType)},
		"search[start_date]": {job.Date},
		"search[start_hour]": {job.StartTime},
		"search[duration]":   {strconv.FormatFloat(job.DurationHours, 'f', -1, 64)},
	}
}

// Search never fails, errors are reported in the result.
func (s Searcher) Search(ctx context.Context, job SearchJob) SlotResult {
	ctx, span := tracer.Start(ctx, "Searcher.Search")
	defer span.End()
	span.SetAttributes(
		attribute.String("date", job.Date),
		attribute.String("time", job.StartTime),
	)

	if s.cfg.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.RequestTimeout)
		defer cancel()
	}

	start := time.Now()
	result := s.search(ctx, job)
	searchDuration.Record(ctx, time.Since(start).Seconds())

	outcome := "unavailable"
	switch {
	case !result.Succeeded:
		outcome = "failed"
		span.SetStatus(codes.Error, result.ErrorDetail)
	case result.AvailableCourtCount > 0:
		outcome = "available"
	}
	searchRequests.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
	span.SetAttributes(attribute.String("outcome", outcome))

	slog.DebugContext(
		ctx, "searched slot",
		"date", job.Date,
		"time", job.StartTime,
		"outcome", outcome,
		"courts", result.AvailableCourtCount,
	)
	return result
}

func (s Searcher) search(ctx context.Context, job SearchJob) SlotResult {
	res, err := s.submitter.SubmitForm(ctx, s.cfg.SearchUrl, s.headers(), s.form(job))
	if err != nil {
		return failedResult(job, err)
	}
	if res.Status < 200 || res.Status > 299 {
		return failedResult(job, fmt.Errorf("search returned status %d", res.Status))
	}

	availability := s.phrases.Parse(htmlutil.NormalizeText(res.Body))
	return SlotResult{
		Job:                 job,
		Succeeded:           true,
		AvailableCourtCount: availability.Count,
		CourtNumbers:        availability.Numbers,
	}
}
