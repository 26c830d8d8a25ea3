// Package model defines the shared record and row types that flow between
// ingestion, validation, transformation and the storage layer.
package model

import "time"

// SalaryRates is the closed set of accepted salary rate units.
// Values outside this set are coerced to null during fact loading.
var SalaryRates = map[string]bool{
	"hour":  true,
	"day":   true,
	"week":  true,
	"month": true,
	"year":  true,
}

// ValidSalaryRate reports whether rate is a member of the salary rate enum.
func ValidSalaryRate(rate string) bool {
	return SalaryRates[rate]
}

// StagingRecord is one denormalized job posting as loaded into the staging
// table. Nil pointer fields represent missing values in the source file.
type StagingRecord struct {
	ID              int64
	TitleShort      *string
	Title           *string
	Location        *string
	Via             *string
	ScheduleType    *string
	WorkFromHome    *bool
	SearchLocation  *string
	PostedAt        *time.Time
	NoDegreeMention *bool
	HealthInsurance *bool
	Country         *string
	SalaryRate      *string
	SalaryYearAvg   *float64
	SalaryHourAvg   *float64
	CompanyName     *string

	// Skills is the flat skill list parsed from the semi-structured
	// job_skills column. TypedSkills maps a category name to the skills
	// carrying that category tag. Either may be nil.
	Skills      []string
	TypedSkills map[string][]string
}

// JobRow is one fully resolved fact row ready for insertion.
// SourceRowID is the staging row id and acts as the fact natural key:
// reruns over the same staging data hit its unique constraint and skip.
type JobRow struct {
	SourceRowID     int64
	Title           string
	TitleShort      *string
	CompanyID       int64
	LocationID      int64
	PlatformID      *int64
	ScheduleTypeID  *int64
	WorkFromHome    *bool
	PostedAt        *time.Time
	NoDegreeMention *bool
	HealthInsurance *bool
	SalaryRate      *string
	SalaryYearAvg   *float64
	SalaryHourAvg   *float64
	SearchLocation  *string
}
