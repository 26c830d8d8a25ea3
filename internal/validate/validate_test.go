package validate

import (
	"testing"

	"github.com/leapstack-labs/jobflow/internal/model"
)

func strp(s string) *string   { return &s }
func fltp(f float64) *float64 { return &f }

func TestCheck(t *testing.T) {
	tests := []struct {
		name    string
		rec     model.StagingRecord
		wantErr bool
	}{
		{
			name: "valid record",
			rec:  model.StagingRecord{Title: strp("Analyst"), CompanyName: strp("Acme")},
		},
		{
			name: "short title alone is enough",
			rec:  model.StagingRecord{TitleShort: strp("Analyst")},
		},
		{
			name:    "both titles missing",
			rec:     model.StagingRecord{CompanyName: strp("Acme")},
			wantErr: true,
		},
		{
			name:    "blank titles",
			rec:     model.StagingRecord{Title: strp("  "), TitleShort: strp("")},
			wantErr: true,
		},
		{
			name:    "negative yearly salary",
			rec:     model.StagingRecord{Title: strp("Analyst"), SalaryYearAvg: fltp(-1)},
			wantErr: true,
		},
		{
			name:    "negative hourly salary",
			rec:     model.StagingRecord{Title: strp("Analyst"), SalaryHourAvg: fltp(-0.5)},
			wantErr: true,
		},
		{
			name: "zero salary is allowed",
			rec:  model.StagingRecord{Title: strp("Analyst"), SalaryYearAvg: fltp(0)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Check(tt.rec)
			if (err != nil) != tt.wantErr {
				t.Errorf("Check() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestWarnings(t *testing.T) {
	rec := model.StagingRecord{
		Title:      strp("Analyst"),
		SalaryRate: strp("fortnight"),
	}
	warnings := Warnings(rec)
	if len(warnings) != 2 {
		t.Fatalf("expected 2 warnings, got %v", warnings)
	}

	ok := model.StagingRecord{
		Title:       strp("Analyst"),
		CompanyName: strp("Acme"),
		SalaryRate:  strp("year"),
	}
	if w := Warnings(ok); len(w) != 0 {
		t.Errorf("expected no warnings, got %v", w)
	}

	// Rate casing is tolerated; coercion happens later.
	mixed := model.StagingRecord{
		Title:       strp("Analyst"),
		CompanyName: strp("Acme"),
		SalaryRate:  strp("Year"),
	}
	if w := Warnings(mixed); len(w) != 0 {
		t.Errorf("expected no warnings for mixed-case rate, got %v", w)
	}
}
