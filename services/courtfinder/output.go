package courtfinder

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"courtfinder/pkg/migrations"
	"courtfinder/services/courtfinder/db"

	"github.com/mazen160/go-random"
	"go.opentelemetry.io/otel/codes"
)

type ScanParams struct {
	DaysAhead     int     `json:"days"`
	Start         string  `json:"start"`
	End           string  `json:"end"`
	StepMinutes   int     `json:"step"`
	DurationHours float64 `json:"duration"`
	UnitId        int     `json:"unit"`
	CourtType     int     `json:"type"`
	Concurrency   int     `json:"concurrency"`
}

func (c Config) Params() ScanParams {
	return ScanParams{
		DaysAhead:     c.DaysAhead,
		Start:         c.Start,
		End:           c.End,
		StepMinutes:   c.StepMinutes,
		DurationHours: c.DurationHours,
		UnitId:        c.UnitId,
		CourtType:     c.CourtType,
		Concurrency:   c.Concurrency,
	}
}

// ScanReport is everything one scan produced.
type ScanReport struct {
	Id         string       `json:"id"`
	StartedAt  time.Time    `json:"started_at"`
	FinishedAt time.Time    `json:"finished_at"`
	Params     ScanParams   `json:"params"`
	Results    []SlotResult `json:"results"`
	Summary    Summary      `json:"summary"`
}

func (r ScanReport) FailedCount() int {
	failed := 0
	for _, res := range r.Results {
		if !res.Succeeded {
			failed++
		}
	}
	return failed
}

func NewScanId() (string, error) {
	return random.String(8)
}

// WriteOutput stores the report at `path`, the format is chosen by the
// extension: .json overwrites the file with the report, .db and .sqlite
// append the report to a scan history database. an empty path does nothing.
func WriteOutput(ctx context.Context, path string, report ScanReport) error {
	ctx, span := tracer.Start(ctx, "WriteOutput")
	defer span.End()

	var err error
	switch strings.ToLower(filepath.Ext(path)) {
	case "":
		if path != "" {
			err = fmt.Errorf("output %q has no extension", path)
		}
	case ".json":
		err = writeJson(path, report)
	case ".db", ".sqlite":
		err = writeHistory(ctx, path, report)
	default:
		err = fmt.Errorf("unsupported output format %q", filepath.Ext(path))
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to write output")
		return err
	}
	if path != "" {
		slog.InfoContext(ctx, "wrote results", "path", path, "results", len(report.Results))
	}
	return nil
}

func writeJson(path string, report ScanReport) error {
	serialized, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return err
	}
	dir := filepath.Dir(path)
	if dir != "." {
		err = os.MkdirAll(dir, 0755)
		if err != nil {
			return err
		}
	}
	return os.WriteFile(path, serialized, 0644)
}

func joinInts(values []int) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = strconv.Itoa(v)
	}
	return strings.Join(parts, ",")
}

func writeHistory(ctx context.Context, path string, report ScanReport) error {
	history, err := migrations.OpenAndMigrateDB(db.Schema, path)
	if err != nil {
		return err
	}
	defer history.Close()

	tx, err := history.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	p := report.Params
	_, err = tx.ExecContext(
		ctx,
		`insert into scans (
			id, started_at, finished_at, days, start_time, end_time,
			step_minutes, duration_hours, unit_id, court_type, job_count, failed_count
		) values (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		report.Id, report.StartedAt.Unix(), report.FinishedAt.Unix(),
		p.DaysAhead, p.Start, p.End, p.StepMinutes, p.DurationHours, p.UnitId, p.CourtType,
		len(report.Results), report.FailedCount(),
	)
	if err != nil {
		return fmt.Errorf("insert scan: %w", err)
	}

	stmt, err := tx.PrepareContext(
		ctx,
		`insert into slots (scan_id, date, start_time, succeeded, court_count, court_numbers, error)
		values (?, ?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, r := range report.Results {
		var detail sql.NullString
		if r.ErrorDetail != "" {
			detail = sql.NullString{String: r.ErrorDetail, Valid: true}
		}
		_, err = stmt.ExecContext(
			ctx,
			report.Id, r.Job.Date, r.Job.StartTime, r.Succeeded,
			r.AvailableCourtCount, joinInts(r.CourtNumbers), detail,
		)
		if err != nil {
			return fmt.Errorf("insert slot %s %s: %w", r.Job.Date, r.Job.StartTime, err)
		}
	}

	return tx.Commit()
}
