package courtfinder

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"courtfinder/lib/telemetry"
	"courtfinder/lib/timezone"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

type Service struct {
	sessions SessionManager
	store    StateStore
	cfg      Config
	today    func() time.Time
}

func NewService(sessions SessionManager, store StateStore, cfg Config) Service {
	return Service{
		sessions: sessions,
		store:    store,
		cfg:      cfg,
		today:    timezone.Today,
	}
}

func (s Service) banner(jobs int) string {
	return fmt.Sprintf(
		"Scanning %d slots… (%d days, %s-%s, step %dm, duration %sh)",
		jobs, s.cfg.DaysAhead, s.cfg.Start, s.cfg.End, s.cfg.StepMinutes,
		strconv.FormatFloat(s.cfg.DurationHours, 'f', -1, 64),
	)
}

// Scan acquires a session, searches every slot of the grid and writes the
// results to the configured output. nothing is written when ctx is canceled
// during the scan.
func (s Service) Scan(ctx context.Context) (ScanReport, error) {
	ctx, span := tracer.Start(ctx, "Scan")
	defer span.End()

	err := s.cfg.Validate()
	if err != nil {
		span.SetStatus(codes.Error, "invalid config")
		return ScanReport{}, err
	}
	jobs, err := BuildJobs(s.cfg.Grid(), s.today())
	if err != nil {
		return ScanReport{}, err
	}
	id, err := NewScanId()
	if err != nil {
		return ScanReport{}, err
	}

	handle, err := s.sessions.Acquire(ctx, s.cfg.Login)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to acquire session")
		return ScanReport{}, err
	}
	defer handle.Close()

	slog.InfoContext(ctx, s.banner(len(jobs)))
	span.SetAttributes(attribute.Int("jobs", len(jobs)), attribute.String("scan_id", id))

	started := time.Now()
	searcher := NewSearcher(handle.Context, handle.AuthToken, s.cfg.Search())
	results := Dispatch(ctx, searcher, jobs, s.cfg.Concurrency)
	if ctx.Err() != nil {
		span.SetStatus(codes.Error, "scan interrupted")
		return ScanReport{}, ctx.Err()
	}

	report := ScanReport{
		Id:         id,
		StartedAt:  started,
		FinishedAt: time.Now(),
		Params:     s.cfg.Params(),
		Results:    results,
		Summary:    Summarize(results),
	}
	telemetry.RecordPerfStats(ctx)

	failed := report.FailedCount()
	if failed > 0 {
		slog.WarnContext(ctx, "some searches failed", "failed", failed, "total", len(results))
	}
	slog.InfoContext(
		ctx, "scan finished",
		"id", id,
		"available_slots", len(report.Summary.Available),
		"took", report.FinishedAt.Sub(started).Round(time.Millisecond),
	)

	// the report stays usable when the output can't be written
	err = WriteOutput(ctx, s.cfg.Out, report)
	if err != nil {
		return report, fmt.Errorf("write results: %w", err)
	}
	return report, nil
}

// CheckSession validates the stored session without scanning.
func (s Service) CheckSession(ctx context.Context) (bool, error) {
	ctx, span := tracer.Start(ctx, "CheckSession")
	defer span.End()

	if !s.store.Exists() {
		return false, nil
	}
	handle, err := s.sessions.Validate(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return false, ctx.Err()
		}
		slog.InfoContext(ctx, "stored session is not valid", "err", err)
		return false, nil
	}
	return true, handle.Close()
}

func (s Service) ClearSession() error {
	return s.store.Delete()
}
