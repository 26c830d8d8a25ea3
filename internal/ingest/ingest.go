// Package ingest reads the source job postings CSV into staging records.
// Column values stay as close to the raw export as possible; only the
// semi-structured and typed columns are converted. Normalization belongs
// to the transform phase.
package ingest

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/leapstack-labs/jobflow/internal/model"
	"github.com/leapstack-labs/jobflow/internal/store"
	"github.com/leapstack-labs/jobflow/internal/validate"
)

// expected CSV columns. The reader maps by header name, so column order
// in the file does not matter and extra columns are ignored.
const (
	colTitleShort      = "job_title_short"
	colTitle           = "job_title"
	colLocation        = "job_location"
	colVia             = "job_via"
	colScheduleType    = "job_schedule_type"
	colWorkFromHome    = "job_work_from_home"
	colSearchLocation  = "search_location"
	colPostedAt        = "job_posted_date"
	colNoDegreeMention = "job_no_degree_mention"
	colHealthInsurance = "job_health_insurance"
	colCountry         = "job_country"
	colSalaryRate      = "salary_rate"
	colSalaryYearAvg   = "salary_year_avg"
	colSalaryHourAvg   = "salary_hour_avg"
	colCompanyName     = "company_name"
	colSkills          = "job_skills"
	colTypedSkills     = "job_type_skills"
)

// Result summarizes one ingestion run.
type Result struct {
	Read     int
	Staged   int
	Rejected int
	Duration time.Duration
}

// Ingestor reads a CSV export and replaces the staging table with its rows.
type Ingestor struct {
	store  *store.Store
	logger *slog.Logger
}

// New creates an ingestor.
func New(st *store.Store, logger *slog.Logger) *Ingestor {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Ingestor{store: st, logger: logger}
}

// Run reads the CSV at path and replaces the staging table with its
// contents. Rows that fail conversion are logged and dropped; a file that
// cannot be opened or has no header is a hard error.
func (in *Ingestor) Run(ctx context.Context, path string) (*Result, error) {
	start := time.Now()

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open CSV file: %w", err)
	}
	defer func() { _ = file.Close() }()

	records, result, err := in.readAll(file)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("no usable rows in %s", path)
	}

	if err := in.store.ReplaceStaging(ctx, records); err != nil {
		return nil, fmt.Errorf("failed to replace staging table: %w", err)
	}

	result.Duration = time.Since(start)
	in.logger.Info("ingestion finished",
		"path", path,
		"read", result.Read,
		"staged", result.Staged,
		"rejected", result.Rejected,
		"duration", result.Duration.Round(time.Millisecond),
	)
	return result, nil
}

// readAll consumes the CSV stream into staging records. The header row
// decides the column mapping for the rest of the file.
func (in *Ingestor) readAll(r io.Reader) ([]model.StagingRecord, *Result, error) {
	reader := csv.NewReader(r)

	header, err := reader.Read()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read CSV header: %w", err)
	}
	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[name] = i
	}
	for _, required := range []string{colTitle, colCompanyName} {
		if _, ok := cols[required]; !ok {
			return nil, nil, fmt.Errorf("CSV is missing required column %q", required)
		}
	}

	result := &Result{}
	var records []model.StagingRecord
	for line := 2; ; line++ {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("failed to read CSV line %d: %w", line, err)
		}
		result.Read++

		rec, degraded, err := convertRow(cols, row)
		if err != nil {
			result.Rejected++
			in.logger.Warn("rejecting CSV row", "line", line, "reason", err.Error())
			continue
		}
		if err := validate.Check(rec); err != nil {
			result.Rejected++
			in.logger.Warn("rejecting CSV row", "line", line, "reason", err.Error())
			continue
		}
		for _, w := range degraded {
			in.logger.Warn("degraded CSV row", "line", line, "reason", w)
		}
		for _, w := range validate.Warnings(rec) {
			in.logger.Warn("staging quality finding", "line", line, "finding", w)
		}
		result.Staged++
		records = append(records, rec)
	}
	validate.Summarize(in.logger, records)
	return records, result, nil
}

// convertRow maps one CSV row onto a staging record. Scalar conversion
// failures reject the row; an unparseable skill payload only degrades it
// to an empty skill set, reported in the returned warnings.
func convertRow(cols map[string]int, row []string) (model.StagingRecord, []string, error) {
	field := func(name string) string {
		idx, ok := cols[name]
		if !ok || idx >= len(row) {
			return ""
		}
		return row[idx]
	}
	optional := func(name string) *string {
		if v := field(name); v != "" {
			return &v
		}
		return nil
	}

	rec := model.StagingRecord{
		TitleShort:     optional(colTitleShort),
		Title:          optional(colTitle),
		Location:       optional(colLocation),
		Via:            optional(colVia),
		ScheduleType:   optional(colScheduleType),
		SearchLocation: optional(colSearchLocation),
		Country:        optional(colCountry),
		SalaryRate:     optional(colSalaryRate),
		CompanyName:    optional(colCompanyName),
	}

	var err error
	if rec.WorkFromHome, err = parseBool(field(colWorkFromHome)); err != nil {
		return rec, nil, fmt.Errorf("%s: %w", colWorkFromHome, err)
	}
	if rec.NoDegreeMention, err = parseBool(field(colNoDegreeMention)); err != nil {
		return rec, nil, fmt.Errorf("%s: %w", colNoDegreeMention, err)
	}
	if rec.HealthInsurance, err = parseBool(field(colHealthInsurance)); err != nil {
		return rec, nil, fmt.Errorf("%s: %w", colHealthInsurance, err)
	}
	if rec.PostedAt, err = parseTime(field(colPostedAt)); err != nil {
		return rec, nil, fmt.Errorf("%s: %w", colPostedAt, err)
	}
	if rec.SalaryYearAvg, err = parseFloat(field(colSalaryYearAvg)); err != nil {
		return rec, nil, fmt.Errorf("%s: %w", colSalaryYearAvg, err)
	}
	if rec.SalaryHourAvg, err = parseFloat(field(colSalaryHourAvg)); err != nil {
		return rec, nil, fmt.Errorf("%s: %w", colSalaryHourAvg, err)
	}

	var degraded []string
	if rec.Skills, err = parseSkillList(field(colSkills)); err != nil {
		rec.Skills = nil
		degraded = append(degraded, fmt.Sprintf("%s: %v", colSkills, err))
	}
	if rec.TypedSkills, err = parseSkillMap(field(colTypedSkills)); err != nil {
		rec.TypedSkills = nil
		degraded = append(degraded, fmt.Sprintf("%s: %v", colTypedSkills, err))
	}
	return rec, degraded, nil
}
