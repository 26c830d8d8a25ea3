package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/jobflow/internal/model"
	"github.com/leapstack-labs/jobflow/internal/testutil"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	st, err := Open(context.Background(), Config{
		Type:   TypeSQLite,
		Path:   ":memory:",
		Logger: testutil.NewTestLogger(t),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.Migrate())
	return st
}

func strp(s string) *string { return &s }

func TestMigrate(t *testing.T) {
	st := newTestStore(t)

	version, err := st.MigrationVersion()
	require.NoError(t, err)
	assert.GreaterOrEqual(t, version, int64(1))

	// Migrate is idempotent.
	require.NoError(t, st.Migrate())
}

func TestEnsureCompanyIdempotent(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	first, err := st.EnsureCompany(ctx, "Acme Corp")
	require.NoError(t, err)
	second, err := st.EnsureCompany(ctx, "Acme Corp")
	require.NoError(t, err)
	assert.Equal(t, first, second)

	other, err := st.EnsureCompany(ctx, "Globex")
	require.NoError(t, err)
	assert.NotEqual(t, first, other)

	n, err := st.Count(ctx, "companies")
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}

func TestEnsureLocationNullFields(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	loc := LocationRow{Country: "Unknown", FullLocation: "Unknown"}
	first, err := st.EnsureLocation(ctx, loc)
	require.NoError(t, err)

	// Nil city and state must still dedupe: NULLs never match themselves
	// in a plain unique constraint, so this exercises the coalesced index.
	second, err := st.EnsureLocation(ctx, loc)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	withCity, err := st.EnsureLocation(ctx, LocationRow{
		City:         strp("Austin"),
		Country:      "United States",
		FullLocation: "Austin, TX",
	})
	require.NoError(t, err)
	assert.NotEqual(t, first, withCity)
}

func TestEnsureSkillCaseInsensitive(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	catID, err := st.EnsureSkillCategory(ctx, "programming")
	require.NoError(t, err)

	first, err := st.EnsureSkill(ctx, "Python", &catID)
	require.NoError(t, err)
	second, err := st.EnsureSkill(ctx, "python", nil)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	skills, err := st.ListSkills(ctx)
	require.NoError(t, err)
	require.Len(t, skills, 1)
	// First-seen casing wins.
	assert.Equal(t, "Python", skills[0].Name)
	require.NotNil(t, skills[0].CategoryID)
	assert.Equal(t, catID, *skills[0].CategoryID)
}

func TestStagingRoundTrip(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	posted := time.Date(2023, 6, 1, 12, 30, 0, 0, time.UTC)
	wfh := true
	salary := 95000.0
	recs := []model.StagingRecord{
		{
			Title:         strp("Data Engineer"),
			CompanyName:   strp("Acme Corp"),
			Location:      strp("Austin, TX"),
			Via:           strp("via LinkedIn"),
			WorkFromHome:  &wfh,
			PostedAt:      &posted,
			SalaryYearAvg: &salary,
			Skills:        []string{"python", "sql"},
			TypedSkills:   map[string][]string{"programming": {"python"}},
		},
		{
			Title:       strp("Analyst"),
			CompanyName: strp("Globex"),
		},
	}
	require.NoError(t, st.ReplaceStaging(ctx, recs))

	loaded, err := st.LoadStaging(ctx)
	require.NoError(t, err)
	require.Len(t, loaded, 2)

	got := loaded[0]
	assert.Equal(t, "Data Engineer", *got.Title)
	assert.Equal(t, "Acme Corp", *got.CompanyName)
	assert.Equal(t, "via LinkedIn", *got.Via)
	require.NotNil(t, got.WorkFromHome)
	assert.True(t, *got.WorkFromHome)
	require.NotNil(t, got.PostedAt)
	assert.Equal(t, posted.Unix(), got.PostedAt.Unix())
	assert.Equal(t, []string{"python", "sql"}, got.Skills)
	assert.Equal(t, map[string][]string{"programming": {"python"}}, got.TypedSkills)

	// Nullable fields survive as nils.
	assert.Nil(t, loaded[1].Location)
	assert.Nil(t, loaded[1].PostedAt)
	assert.Nil(t, loaded[1].Skills)

	// Replace really replaces.
	require.NoError(t, st.ReplaceStaging(ctx, recs[:1]))
	n, err := st.CountStaging(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestReplaceStagingAssignsStableIDs(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	recs := []model.StagingRecord{
		{Title: strp("Data Engineer"), CompanyName: strp("Acme Corp")},
		{Title: strp("Analyst"), CompanyName: strp("Globex")},
		{Title: strp("BI Developer"), CompanyName: strp("Initech")},
	}
	require.NoError(t, st.ReplaceStaging(ctx, recs))

	first, err := st.LoadStaging(ctx)
	require.NoError(t, err)
	require.Len(t, first, 3)
	for i := range first {
		assert.Equal(t, int64(i+1), first[i].ID)
	}

	// A second replace of the same records restarts ids at 1 instead of
	// continuing the table sequence, keeping jobs.source_row_id a stable
	// key across re-ingestions.
	require.NoError(t, st.ReplaceStaging(ctx, recs))
	second, err := st.LoadStaging(ctx)
	require.NoError(t, err)
	require.Len(t, second, 3)
	for i := range second {
		assert.Equal(t, first[i].ID, second[i].ID)
	}
}

func TestLoadJobBatchSkipsExisting(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	companyID, err := st.EnsureCompany(ctx, "Acme Corp")
	require.NoError(t, err)
	locationID, err := st.EnsureLocation(ctx, LocationRow{Country: "Unknown", FullLocation: "Unknown"})
	require.NoError(t, err)
	skillID, err := st.EnsureSkill(ctx, "python", nil)
	require.NoError(t, err)

	batch := []JobWithSkills{{
		Job: model.JobRow{
			SourceRowID: 1,
			Title:       "Data Engineer",
			CompanyID:   companyID,
			LocationID:  locationID,
		},
		SkillIDs: []int64{skillID},
	}}

	res, err := st.LoadJobBatch(ctx, batch)
	require.NoError(t, err)
	assert.Equal(t, BatchResult{Loaded: 1, Skipped: 0}, res)

	// Same source row again: skipped, no duplicate facts or bridges.
	res, err = st.LoadJobBatch(ctx, batch)
	require.NoError(t, err)
	assert.Equal(t, BatchResult{Loaded: 0, Skipped: 1}, res)

	jobs, err := st.CountJobs(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), jobs)
	bridges, err := st.CountJobSkills(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), bridges)
}

func TestTruncateFactsKeepsDimensions(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	companyID, err := st.EnsureCompany(ctx, "Acme Corp")
	require.NoError(t, err)
	locationID, err := st.EnsureLocation(ctx, LocationRow{Country: "Unknown", FullLocation: "Unknown"})
	require.NoError(t, err)
	skillID, err := st.EnsureSkill(ctx, "python", nil)
	require.NoError(t, err)

	_, err = st.LoadJobBatch(ctx, []JobWithSkills{{
		Job: model.JobRow{
			SourceRowID: 7,
			Title:       "Analyst",
			CompanyID:   companyID,
			LocationID:  locationID,
		},
		SkillIDs: []int64{skillID},
	}})
	require.NoError(t, err)

	require.NoError(t, st.TruncateFacts(ctx))

	jobs, err := st.CountJobs(ctx)
	require.NoError(t, err)
	assert.Zero(t, jobs)
	bridges, err := st.CountJobSkills(ctx)
	require.NoError(t, err)
	assert.Zero(t, bridges)

	// Dimension ids are untouched.
	again, err := st.EnsureCompany(ctx, "Acme Corp")
	require.NoError(t, err)
	assert.Equal(t, companyID, again)
}
