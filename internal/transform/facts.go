package transform

// facts.go - builds resolved fact rows from staging records

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/leapstack-labs/jobflow/internal/model"
	"github.com/leapstack-labs/jobflow/internal/store"
)

// platformPrefix strips the aggregator prefix the source data carries on
// platform names, in either of the two languages it appears in.
var platformPrefix = regexp.MustCompile(`(?i)^(via|melalui)\s+`)

// CleanPlatform normalizes a raw platform value to a bare platform name.
// "via LinkedIn" and "melalui LinkedIn" both become "LinkedIn".
func CleanPlatform(raw string) string {
	return strings.TrimSpace(platformPrefix.ReplaceAllString(strings.TrimSpace(raw), ""))
}

// prepareRow resolves every dimension reference of a single staging record
// and assembles the fact row plus its skill bridge ids. Row-scoped problems
// are returned wrapped in ErrRowInvalid; anything else is a storage error.
func prepareRow(ctx context.Context, rec model.StagingRecord, res *Resolver, logger *slog.Logger) (store.JobWithSkills, error) {
	title := deref(rec.Title)
	if title == "" {
		title = deref(rec.TitleShort)
	}
	if title == "" {
		return store.JobWithSkills{}, fmt.Errorf("%w: no title in either title column", ErrRowInvalid)
	}

	companyID, err := res.Company(ctx, deref(rec.CompanyName))
	if err != nil {
		return store.JobWithSkills{}, err
	}

	rawLoc := deref(rec.Location)
	loc := ParseLocation(rawLoc, deref(rec.Country))
	locationID, err := res.Location(ctx, loc, rawLoc)
	if err != nil {
		return store.JobWithSkills{}, err
	}

	platformID, err := res.Platform(ctx, CleanPlatform(deref(rec.Via)))
	if err != nil {
		return store.JobWithSkills{}, err
	}

	scheduleID, err := res.ScheduleType(ctx, deref(rec.ScheduleType))
	if err != nil {
		return store.JobWithSkills{}, err
	}

	skills := ExtractSkills(rec.Skills, rec.TypedSkills)
	skillIDs := make([]int64, 0, len(skills))
	for _, sk := range skills {
		id, err := res.Skill(ctx, sk)
		if err != nil {
			return store.JobWithSkills{}, err
		}
		skillIDs = append(skillIDs, id)
	}

	job := model.JobRow{
		SourceRowID:     rec.ID,
		Title:           title,
		TitleShort:      rec.TitleShort,
		CompanyID:       companyID,
		LocationID:      locationID,
		PlatformID:      platformID,
		ScheduleTypeID:  scheduleID,
		WorkFromHome:    rec.WorkFromHome,
		PostedAt:        rec.PostedAt,
		NoDegreeMention: rec.NoDegreeMention,
		HealthInsurance: rec.HealthInsurance,
		SalaryRate:      normalizeSalaryRate(rec.ID, rec.SalaryRate, logger),
		SalaryYearAvg:   rec.SalaryYearAvg,
		SalaryHourAvg:   rec.SalaryHourAvg,
		SearchLocation:  rec.SearchLocation,
	}
	return store.JobWithSkills{Job: job, SkillIDs: skillIDs}, nil
}

// normalizeSalaryRate coerces a salary rate outside the accepted enum to
// null instead of failing the row, logging the value it dropped. The rate
// labels a unit; a bad label should not discard an otherwise valid posting.
func normalizeSalaryRate(rowID int64, rate *string, logger *slog.Logger) *string {
	if rate == nil {
		return nil
	}
	v := strings.ToLower(strings.TrimSpace(*rate))
	if v == "" {
		return nil
	}
	if !model.ValidSalaryRate(v) {
		logger.Warn("dropping unrecognized salary rate", "row_id", rowID, "salary_rate", *rate)
		return nil
	}
	return &v
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
