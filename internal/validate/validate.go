// Package validate applies quality checks to staging records before they
// are written. Hard checks exclude a record from staging; soft checks only
// produce warnings, since the transform phase can still coerce or default
// the offending value.
package validate

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/leapstack-labs/jobflow/internal/model"
)

// Check runs the hard quality checks on one record. A non-nil error means
// the record must not reach staging.
func Check(rec model.StagingRecord) error {
	if isBlank(rec.Title) && isBlank(rec.TitleShort) {
		return fmt.Errorf("both title columns are empty")
	}
	if rec.SalaryYearAvg != nil && *rec.SalaryYearAvg < 0 {
		return fmt.Errorf("negative yearly salary %v", *rec.SalaryYearAvg)
	}
	if rec.SalaryHourAvg != nil && *rec.SalaryHourAvg < 0 {
		return fmt.Errorf("negative hourly salary %v", *rec.SalaryHourAvg)
	}
	return nil
}

// Warnings reports the soft quality findings on one record. The record
// still goes to staging; the transform phase decides what to do with the
// flagged values.
func Warnings(rec model.StagingRecord) []string {
	var warnings []string
	if rec.SalaryRate != nil {
		rate := strings.ToLower(strings.TrimSpace(*rec.SalaryRate))
		if rate != "" && !model.ValidSalaryRate(rate) {
			warnings = append(warnings, fmt.Sprintf("salary rate %q outside accepted set", *rec.SalaryRate))
		}
	}
	if isBlank(rec.CompanyName) {
		warnings = append(warnings, "company name is empty, row will fail dimension resolution")
	}
	return warnings
}

// Summarize logs a data quality profile of the records that passed the
// gate: null counts for the nullable columns and distinct counts for the
// main dimension sources.
func Summarize(logger *slog.Logger, records []model.StagingRecord) {
	if logger == nil || len(records) == 0 {
		return
	}

	var nullLocation, nullVia, nullSchedule, nullPosted, nullSalary int
	companies := make(map[string]struct{})
	countries := make(map[string]struct{})
	platforms := make(map[string]struct{})

	for _, rec := range records {
		if isBlank(rec.Location) {
			nullLocation++
		}
		if isBlank(rec.Via) {
			nullVia++
		} else {
			platforms[strings.TrimSpace(*rec.Via)] = struct{}{}
		}
		if isBlank(rec.ScheduleType) {
			nullSchedule++
		}
		if rec.PostedAt == nil {
			nullPosted++
		}
		if rec.SalaryYearAvg == nil && rec.SalaryHourAvg == nil {
			nullSalary++
		}
		if !isBlank(rec.CompanyName) {
			companies[strings.TrimSpace(*rec.CompanyName)] = struct{}{}
		}
		if !isBlank(rec.Country) {
			countries[strings.TrimSpace(*rec.Country)] = struct{}{}
		}
	}

	logger.Info("staging data profile",
		"rows", len(records),
		"distinct_companies", len(companies),
		"distinct_countries", len(countries),
		"distinct_platforms", len(platforms),
		"null_location", nullLocation,
		"null_platform", nullVia,
		"null_schedule_type", nullSchedule,
		"null_posted_date", nullPosted,
		"no_salary", nullSalary,
	)
}

func isBlank(s *string) bool {
	return s == nil || strings.TrimSpace(*s) == ""
}
