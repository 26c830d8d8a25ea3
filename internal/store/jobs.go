package store

// jobs.go - fact and bridge row loading

import (
	"context"
	"fmt"

	"github.com/leapstack-labs/jobflow/internal/model"
)

// JobWithSkills pairs one resolved fact row with the skill surrogate ids
// to bridge it to.
type JobWithSkills struct {
	Job      model.JobRow
	SkillIDs []int64
}

// BatchResult reports what one fact batch did.
type BatchResult struct {
	Loaded  int
	Skipped int
}

const insertJobSQL = `
	INSERT INTO jobs (
		source_row_id, job_title, job_title_short, company_id, location_id,
		platform_id, schedule_type_id, job_work_from_home, job_posted_date,
		job_no_degree_mention, job_health_insurance, salary_rate,
		salary_year_avg, salary_hour_avg, search_location
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT DO NOTHING`

// LoadJobBatch persists one batch of fact rows and their bridge rows in a
// single transaction. A job whose source_row_id already exists is skipped;
// its bridge rows are still reconciled (conflicts suppressed) so a resumed
// run completes partially bridged jobs. An error rolls the whole batch back.
func (s *Store) LoadJobBatch(ctx context.Context, batch []JobWithSkills) (BatchResult, error) {
	var res BatchResult

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return res, fmt.Errorf("failed to begin batch transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	insertJob := s.rebind(insertJobSQL)
	selectJob := s.rebind(`SELECT job_id FROM jobs WHERE source_row_id = ?`)
	insertBridge := s.rebind(`INSERT INTO job_skills (job_id, skill_id) VALUES (?, ?) ON CONFLICT DO NOTHING`)

	for _, item := range batch {
		j := item.Job

		r, err := tx.ExecContext(ctx, insertJob,
			j.SourceRowID, j.Title, j.TitleShort, j.CompanyID, j.LocationID,
			j.PlatformID, j.ScheduleTypeID, j.WorkFromHome, j.PostedAt,
			j.NoDegreeMention, j.HealthInsurance, j.SalaryRate,
			j.SalaryYearAvg, j.SalaryHourAvg, j.SearchLocation,
		)
		if err != nil {
			return BatchResult{}, fmt.Errorf("failed to insert job for staging row %d: %w", j.SourceRowID, err)
		}

		var jobID int64
		if err := tx.QueryRowContext(ctx, selectJob, j.SourceRowID).Scan(&jobID); err != nil {
			return BatchResult{}, fmt.Errorf("failed to resolve job id for staging row %d: %w", j.SourceRowID, err)
		}

		n, err := r.RowsAffected()
		if err != nil {
			return BatchResult{}, fmt.Errorf("failed to read rows affected for staging row %d: %w", j.SourceRowID, err)
		}
		if n > 0 {
			res.Loaded++
		} else {
			res.Skipped++
		}

		for _, skillID := range item.SkillIDs {
			if _, err := tx.ExecContext(ctx, insertBridge, jobID, skillID); err != nil {
				return BatchResult{}, fmt.Errorf("failed to bridge job %d to skill %d: %w", jobID, skillID, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return BatchResult{}, fmt.Errorf("failed to commit batch: %w", err)
	}

	return res, nil
}

// TruncateFacts deletes all fact and bridge rows. Dimension rows are never
// deleted here: surrogate id mappings stay monotonic across rebuilds.
func (s *Store) TruncateFacts(ctx context.Context) error {
	// Bridge first so the job delete never trips the FK even without
	// cascade support.
	if _, err := s.db.ExecContext(ctx, `DELETE FROM job_skills`); err != nil {
		return fmt.Errorf("failed to truncate job_skills: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM jobs`); err != nil {
		return fmt.Errorf("failed to truncate jobs: %w", err)
	}
	s.logger.Debug("fact tables truncated")
	return nil
}

// CountJobs returns the number of fact rows.
func (s *Store) CountJobs(ctx context.Context) (int64, error) {
	return s.Count(ctx, "jobs")
}

// CountJobSkills returns the number of bridge rows.
func (s *Store) CountJobSkills(ctx context.Context) (int64, error) {
	return s.Count(ctx, "job_skills")
}
