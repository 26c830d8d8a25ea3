package transform

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/jobflow/internal/model"
	"github.com/leapstack-labs/jobflow/internal/store"
	"github.com/leapstack-labs/jobflow/internal/testutil"
)

func strp(s string) *string { return &s }

func stageRecords(t *testing.T, st *store.Store, recs []model.StagingRecord) {
	t.Helper()
	require.NoError(t, st.ReplaceStaging(context.Background(), recs))
}

func newTransformer(t *testing.T, st *store.Store) *Transformer {
	t.Helper()
	tr, err := New(Config{
		Store:     st,
		Logger:    testutil.NewTestLogger(t),
		BatchSize: 2,
		Workers:   2,
	})
	require.NoError(t, err)
	return tr
}

func sampleRecords() []model.StagingRecord {
	salary := 120000.0
	rate := "year"
	return []model.StagingRecord{
		{
			Title:         strp("Senior Data Engineer"),
			TitleShort:    strp("Data Engineer"),
			CompanyName:   strp("Acme Corp"),
			Location:      strp("New York, NY"),
			Country:       strp("United States"),
			Via:           strp("via LinkedIn"),
			ScheduleType:  strp("Full-time"),
			SalaryRate:    &rate,
			SalaryYearAvg: &salary,
			Skills:        []string{"python", "sql"},
			TypedSkills:   map[string][]string{"programming": {"python", "sql"}},
		},
		{
			Title:       strp("Data Analyst"),
			CompanyName: strp("Globex"),
			Location:    strp("Anywhere"),
			Via:         strp("via Indeed"),
			Skills:      []string{"sql", "excel"},
		},
		{
			Title:       strp("BI Developer"),
			CompanyName: strp("Acme Corp"),
			Location:    strp("New York, NY"),
			Country:     strp("United States"),
			Via:         strp("melalui LinkedIn"),
		},
	}
}

func TestTransformEndToEnd(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	stageRecords(t, st, sampleRecords())

	result, err := newTransformer(t, st).Run(ctx, Options{})
	require.NoError(t, err)
	assert.NotEmpty(t, result.RunID)
	assert.Equal(t, 3, result.Loaded)
	assert.Zero(t, result.Skipped)
	assert.Empty(t, result.Failed)

	jobs, err := st.CountJobs(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), jobs)

	// Shared dimensions collapse: one company row for Acme, one location
	// row for the repeated New York posting, one platform despite the
	// two prefix languages.
	companies, err := st.ListCompanies(ctx)
	require.NoError(t, err)
	assert.Len(t, companies, 2)

	locations, err := st.ListLocations(ctx)
	require.NoError(t, err)
	assert.Len(t, locations, 2)

	platforms, err := st.ListPlatforms(ctx)
	require.NoError(t, err)
	names := make([]string, 0, len(platforms))
	for _, p := range platforms {
		names = append(names, p.Name)
	}
	assert.ElementsMatch(t, []string{"LinkedIn", "Indeed"}, names)

	// Skill dedup across rows: python, sql, excel.
	skills, err := st.ListSkills(ctx)
	require.NoError(t, err)
	assert.Len(t, skills, 3)

	bridges, err := st.CountJobSkills(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(4), bridges)
}

func TestTransformRerunIsNoOp(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	stageRecords(t, st, sampleRecords())

	first, err := newTransformer(t, st).Run(ctx, Options{})
	require.NoError(t, err)
	assert.Equal(t, 3, first.Loaded)

	second, err := newTransformer(t, st).Run(ctx, Options{})
	require.NoError(t, err)
	assert.Zero(t, second.Loaded)
	assert.Equal(t, 3, second.Skipped)

	jobs, err := st.CountJobs(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), jobs)

	companies, err := st.ListCompanies(ctx)
	require.NoError(t, err)
	assert.Len(t, companies, 2)
}

func TestTransformRerunAfterRestage(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	stageRecords(t, st, sampleRecords())

	first, err := newTransformer(t, st).Run(ctx, Options{})
	require.NoError(t, err)
	assert.Equal(t, 3, first.Loaded)

	// Re-ingesting the same input rewrites staging; the rewritten rows
	// must come back with the same ids so the rerun skips every fact
	// instead of loading it a second time.
	stageRecords(t, st, sampleRecords())

	second, err := newTransformer(t, st).Run(ctx, Options{})
	require.NoError(t, err)
	assert.Zero(t, second.Loaded)
	assert.Equal(t, 3, second.Skipped)

	jobs, err := st.CountJobs(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), jobs)

	bridges, err := st.CountJobSkills(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(4), bridges)
}

func TestTransformRebuild(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	stageRecords(t, st, sampleRecords())

	_, err := newTransformer(t, st).Run(ctx, Options{})
	require.NoError(t, err)

	locsBefore, err := st.ListLocations(ctx)
	require.NoError(t, err)

	result, err := newTransformer(t, st).Run(ctx, Options{Rebuild: true})
	require.NoError(t, err)
	assert.Equal(t, 3, result.Loaded)
	assert.Zero(t, result.Skipped)

	// Dimension surrogate ids survive a rebuild.
	locsAfter, err := st.ListLocations(ctx)
	require.NoError(t, err)
	assert.Equal(t, locsBefore, locsAfter)
}

func TestTransformRowFailureIsolation(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	recs := sampleRecords()
	recs = append(recs, model.StagingRecord{
		// No company: this row fails resolution, the rest load.
		Title:    strp("Mystery Role"),
		Location: strp("Austin, TX"),
	})
	stageRecords(t, st, recs)

	result, err := newTransformer(t, st).Run(ctx, Options{})
	require.NoError(t, err)
	assert.Equal(t, 3, result.Loaded)
	require.Len(t, result.Failed, 1)
	assert.Contains(t, result.Failed[0].Reason, "company")

	jobs, err := st.CountJobs(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), jobs)
}

func TestTransformSalaryRateCoercion(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	bad := "fortnight"
	good := "Hour"
	stageRecords(t, st, []model.StagingRecord{
		{Title: strp("A"), CompanyName: strp("Acme"), SalaryRate: &bad},
		{Title: strp("B"), CompanyName: strp("Acme"), SalaryRate: &good},
	})

	result, err := newTransformer(t, st).Run(ctx, Options{})
	require.NoError(t, err)
	assert.Equal(t, 2, result.Loaded)
	assert.Empty(t, result.Failed)
}

func TestTransformStorageFailureIsFatal(t *testing.T) {
	st := newTestStore(t)
	stageRecords(t, st, sampleRecords())
	require.NoError(t, st.Close())

	_, err := newTransformer(t, st).Run(context.Background(), Options{})
	require.Error(t, err)
}

func TestTransformCancelAbortsButKeepsCommitted(t *testing.T) {
	st := newTestStore(t)
	stageRecords(t, st, sampleRecords())

	first, err := newTransformer(t, st).Run(context.Background(), Options{})
	require.NoError(t, err)
	assert.Equal(t, 3, first.Loaded)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = newTransformer(t, st).Run(ctx, Options{Rebuild: true})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)

	// The aborted run left the previously committed facts untouched.
	jobs, err := st.CountJobs(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(3), jobs)
}

func TestTransformEmptyStaging(t *testing.T) {
	st := newTestStore(t)

	result, err := newTransformer(t, st).Run(context.Background(), Options{})
	require.NoError(t, err)
	assert.Zero(t, result.Loaded)
	assert.Zero(t, result.Skipped)
	assert.Empty(t, result.Failed)
}

func TestNormalizeSalaryRate(t *testing.T) {
	logger := testutil.NewTestLogger(t)

	if got := normalizeSalaryRate(1, nil, logger); got != nil {
		t.Errorf("nil rate should stay nil, got %q", *got)
	}

	year := "Year"
	if got := normalizeSalaryRate(1, &year, logger); got == nil || *got != "year" {
		t.Errorf("valid rate should lowercase, got %v", got)
	}

	bad := "fortnight"
	if got := normalizeSalaryRate(1, &bad, logger); got != nil {
		t.Errorf("invalid rate should coerce to nil, got %q", *got)
	}

	blank := "   "
	if got := normalizeSalaryRate(1, &blank, logger); got != nil {
		t.Errorf("blank rate should coerce to nil, got %q", *got)
	}
}
