package store

// staging.go - staging table load and read-back

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/leapstack-labs/jobflow/internal/model"
)

const insertStagingSQL = `
	INSERT INTO staging_jobs (
		id, job_title_short, job_title, job_location, job_via,
		job_schedule_type, job_work_from_home, search_location,
		job_posted_date, job_no_degree_mention, job_health_insurance,
		job_country, salary_rate, salary_year_avg, salary_hour_avg,
		company_name, job_skills, job_type_skills
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

// ReplaceStaging drops all staging rows and loads the given records in a
// single transaction. Staging is reload-only: partial staging state from a
// failed load is never left behind. Row ids are assigned from record
// position rather than the table sequence, so re-ingesting the same input
// reproduces the same ids and jobs.source_row_id stays a stable key across
// reruns.
func (s *Store) ReplaceStaging(ctx context.Context, recs []model.StagingRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin staging transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM staging_jobs`); err != nil {
		return fmt.Errorf("failed to clear staging table: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, s.rebind(insertStagingSQL))
	if err != nil {
		return fmt.Errorf("failed to prepare staging insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for i := range recs {
		rec := &recs[i]

		skills, err := jsonOrNil(rec.Skills)
		if err != nil {
			return fmt.Errorf("failed to encode skills for row %d: %w", i, err)
		}
		typed, err := jsonOrNil(rec.TypedSkills)
		if err != nil {
			return fmt.Errorf("failed to encode typed skills for row %d: %w", i, err)
		}

		if _, err := stmt.ExecContext(ctx,
			int64(i+1),
			rec.TitleShort, rec.Title, rec.Location, rec.Via, rec.ScheduleType,
			rec.WorkFromHome, rec.SearchLocation, rec.PostedAt,
			rec.NoDegreeMention, rec.HealthInsurance, rec.Country,
			rec.SalaryRate, rec.SalaryYearAvg, rec.SalaryHourAvg, rec.CompanyName,
			skills, typed,
		); err != nil {
			return fmt.Errorf("failed to insert staging row %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit staging load: %w", err)
	}

	s.logger.Debug("staging table loaded", "rows", len(recs))
	return nil
}

// LoadStaging reads the full staging set back, in id order.
func (s *Store) LoadStaging(ctx context.Context) ([]model.StagingRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, job_title_short, job_title, job_location, job_via,
		       job_schedule_type, job_work_from_home, search_location,
		       job_posted_date, job_no_degree_mention, job_health_insurance,
		       job_country, salary_rate, salary_year_avg, salary_hour_avg,
		       company_name, job_skills, job_type_skills
		FROM staging_jobs ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to read staging table: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []model.StagingRecord
	for rows.Next() {
		var (
			rec                model.StagingRecord
			titleShort, title  sql.NullString
			location, via      sql.NullString
			schedule, search   sql.NullString
			country, rate      sql.NullString
			company            sql.NullString
			wfh, noDeg, health sql.NullBool
			posted             sql.NullTime
			yearAvg, hourAvg   sql.NullFloat64
			skills, typed      sql.NullString
		)

		if err := rows.Scan(
			&rec.ID, &titleShort, &title, &location, &via,
			&schedule, &wfh, &search,
			&posted, &noDeg, &health,
			&country, &rate, &yearAvg, &hourAvg,
			&company, &skills, &typed,
		); err != nil {
			return nil, fmt.Errorf("failed to scan staging row: %w", err)
		}

		rec.TitleShort = strPtr(titleShort)
		rec.Title = strPtr(title)
		rec.Location = strPtr(location)
		rec.Via = strPtr(via)
		rec.ScheduleType = strPtr(schedule)
		rec.SearchLocation = strPtr(search)
		rec.Country = strPtr(country)
		rec.SalaryRate = strPtr(rate)
		rec.CompanyName = strPtr(company)
		rec.WorkFromHome = boolPtr(wfh)
		rec.NoDegreeMention = boolPtr(noDeg)
		rec.HealthInsurance = boolPtr(health)
		rec.SalaryYearAvg = floatPtr(yearAvg)
		rec.SalaryHourAvg = floatPtr(hourAvg)
		if posted.Valid {
			t := posted.Time
			rec.PostedAt = &t
		}

		// Malformed stored payloads degrade to nil rather than failing
		// the read; the extractor treats nil as the empty set.
		if skills.Valid && skills.String != "" {
			_ = json.Unmarshal([]byte(skills.String), &rec.Skills)
		}
		if typed.Valid && typed.String != "" {
			_ = json.Unmarshal([]byte(typed.String), &rec.TypedSkills)
		}

		out = append(out, rec)
	}
	return out, rows.Err()
}

// CountStaging returns the number of staging rows.
func (s *Store) CountStaging(ctx context.Context) (int64, error) {
	return s.Count(ctx, "staging_jobs")
}

func jsonOrNil(v any) (*string, error) {
	switch t := v.(type) {
	case []string:
		if t == nil {
			return nil, nil
		}
	case map[string][]string:
		if t == nil {
			return nil, nil
		}
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	s := string(b)
	return &s, nil
}

func strPtr(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	s := v.String
	return &s
}

func boolPtr(v sql.NullBool) *bool {
	if !v.Valid {
		return nil
	}
	b := v.Bool
	return &b
}

func floatPtr(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}
