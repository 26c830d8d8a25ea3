package store

// dimensions.go - get-or-create primitives and warm-cache reads for the
// dimension tables. The unique constraint on each natural key is the sole
// arbiter under contention: the insert suppresses conflicts and the
// follow-up select reads whichever writer won.

import (
	"context"
	"database/sql"
	"fmt"
)

// NamedRow is one row of a single-attribute dimension.
type NamedRow struct {
	ID   int64
	Name string
}

// LocationRow is one row of the locations dimension.
type LocationRow struct {
	ID            int64
	City          *string
	StateProvince *string
	Country       string
	FullLocation  string
}

// SkillRow is one row of the skills dimension.
type SkillRow struct {
	ID         int64
	Name       string
	CategoryID *int64
}

// ensureID runs an insert-on-conflict-do-nothing followed by a select of the
// surrogate id. A unique violation from a concurrent insert is therefore
// never surfaced: the select re-fetches the existing row.
func (s *Store) ensureID(ctx context.Context, insertSQL string, insertArgs []any, selectSQL string, selectArgs []any) (int64, error) {
	if _, err := s.db.ExecContext(ctx, s.rebind(insertSQL), insertArgs...); err != nil {
		return 0, err
	}
	var id int64
	if err := s.db.QueryRowContext(ctx, s.rebind(selectSQL), selectArgs...).Scan(&id); err != nil {
		if err == sql.ErrNoRows {
			return 0, fmt.Errorf("row vanished after insert")
		}
		return 0, err
	}
	return id, nil
}

// EnsureCompany returns the surrogate id for a company, creating the row on
// first sight. name must already be trimmed and non-empty.
func (s *Store) EnsureCompany(ctx context.Context, name string) (int64, error) {
	id, err := s.ensureID(ctx,
		`INSERT INTO companies (company_name) VALUES (?) ON CONFLICT DO NOTHING`,
		[]any{name},
		`SELECT company_id FROM companies WHERE company_name = ?`,
		[]any{name},
	)
	if err != nil {
		return 0, fmt.Errorf("failed to ensure company %q: %w", name, err)
	}
	return id, nil
}

// EnsureLocation returns the surrogate id for a location 4-tuple, creating
// the row on first sight. Null city/state compare as empty strings so the
// lookup matches the coalesced unique index.
func (s *Store) EnsureLocation(ctx context.Context, loc LocationRow) (int64, error) {
	id, err := s.ensureID(ctx,
		`INSERT INTO locations (main_city, main_state_province, country, full_location)
		 VALUES (?, ?, ?, ?) ON CONFLICT DO NOTHING`,
		[]any{loc.City, loc.StateProvince, loc.Country, loc.FullLocation},
		`SELECT location_id FROM locations
		 WHERE COALESCE(main_city, '') = ? AND COALESCE(main_state_province, '') = ?
		   AND country = ? AND full_location = ?`,
		[]any{deref(loc.City), deref(loc.StateProvince), loc.Country, loc.FullLocation},
	)
	if err != nil {
		return 0, fmt.Errorf("failed to ensure location %q: %w", loc.FullLocation, err)
	}
	return id, nil
}

// EnsurePlatform returns the surrogate id for a platform, creating the row
// on first sight.
func (s *Store) EnsurePlatform(ctx context.Context, name string) (int64, error) {
	id, err := s.ensureID(ctx,
		`INSERT INTO platforms (platform_name) VALUES (?) ON CONFLICT DO NOTHING`,
		[]any{name},
		`SELECT platform_id FROM platforms WHERE platform_name = ?`,
		[]any{name},
	)
	if err != nil {
		return 0, fmt.Errorf("failed to ensure platform %q: %w", name, err)
	}
	return id, nil
}

// EnsureScheduleType returns the surrogate id for a schedule type, creating
// the row on first sight.
func (s *Store) EnsureScheduleType(ctx context.Context, name string) (int64, error) {
	id, err := s.ensureID(ctx,
		`INSERT INTO schedule_types (schedule_type_name) VALUES (?) ON CONFLICT DO NOTHING`,
		[]any{name},
		`SELECT schedule_type_id FROM schedule_types WHERE schedule_type_name = ?`,
		[]any{name},
	)
	if err != nil {
		return 0, fmt.Errorf("failed to ensure schedule type %q: %w", name, err)
	}
	return id, nil
}

// EnsureSkillCategory returns the surrogate id for a skill category,
// creating the row on first sight.
func (s *Store) EnsureSkillCategory(ctx context.Context, name string) (int64, error) {
	id, err := s.ensureID(ctx,
		`INSERT INTO skill_categories (category_name) VALUES (?) ON CONFLICT DO NOTHING`,
		[]any{name},
		`SELECT category_id FROM skill_categories WHERE category_name = ?`,
		[]any{name},
	)
	if err != nil {
		return 0, fmt.Errorf("failed to ensure skill category %q: %w", name, err)
	}
	return id, nil
}

// EnsureSkill returns the surrogate id for a skill, creating the row on
// first sight. Skill uniqueness is case-insensitive; the first writer's
// casing and category are kept.
func (s *Store) EnsureSkill(ctx context.Context, name string, categoryID *int64) (int64, error) {
	id, err := s.ensureID(ctx,
		`INSERT INTO skills (skill_name, category_id) VALUES (?, ?) ON CONFLICT DO NOTHING`,
		[]any{name, categoryID},
		`SELECT skill_id FROM skills WHERE LOWER(skill_name) = LOWER(?)`,
		[]any{name},
	)
	if err != nil {
		return 0, fmt.Errorf("failed to ensure skill %q: %w", name, err)
	}
	return id, nil
}

// --- Warm-cache reads ---

// listNamed scans a single-attribute dimension into NamedRows.
func (s *Store) listNamed(ctx context.Context, query string) ([]NamedRow, error) {
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []NamedRow
	for rows.Next() {
		var r NamedRow
		if err := rows.Scan(&r.ID, &r.Name); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// ListCompanies returns all company rows.
func (s *Store) ListCompanies(ctx context.Context) ([]NamedRow, error) {
	out, err := s.listNamed(ctx, `SELECT company_id, company_name FROM companies`)
	if err != nil {
		return nil, fmt.Errorf("failed to list companies: %w", err)
	}
	return out, nil
}

// ListPlatforms returns all platform rows.
func (s *Store) ListPlatforms(ctx context.Context) ([]NamedRow, error) {
	out, err := s.listNamed(ctx, `SELECT platform_id, platform_name FROM platforms`)
	if err != nil {
		return nil, fmt.Errorf("failed to list platforms: %w", err)
	}
	return out, nil
}

// ListScheduleTypes returns all schedule type rows.
func (s *Store) ListScheduleTypes(ctx context.Context) ([]NamedRow, error) {
	out, err := s.listNamed(ctx, `SELECT schedule_type_id, schedule_type_name FROM schedule_types`)
	if err != nil {
		return nil, fmt.Errorf("failed to list schedule types: %w", err)
	}
	return out, nil
}

// ListSkillCategories returns all skill category rows.
func (s *Store) ListSkillCategories(ctx context.Context) ([]NamedRow, error) {
	out, err := s.listNamed(ctx, `SELECT category_id, category_name FROM skill_categories`)
	if err != nil {
		return nil, fmt.Errorf("failed to list skill categories: %w", err)
	}
	return out, nil
}

// ListLocations returns all location rows.
func (s *Store) ListLocations(ctx context.Context) ([]LocationRow, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT location_id, main_city, main_state_province, country, full_location FROM locations`)
	if err != nil {
		return nil, fmt.Errorf("failed to list locations: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []LocationRow
	for rows.Next() {
		var r LocationRow
		var city, state sql.NullString
		if err := rows.Scan(&r.ID, &city, &state, &r.Country, &r.FullLocation); err != nil {
			return nil, fmt.Errorf("failed to scan location: %w", err)
		}
		if city.Valid {
			r.City = &city.String
		}
		if state.Valid {
			r.StateProvince = &state.String
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// ListSkills returns all skill rows.
func (s *Store) ListSkills(ctx context.Context) ([]SkillRow, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT skill_id, skill_name, category_id FROM skills`)
	if err != nil {
		return nil, fmt.Errorf("failed to list skills: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []SkillRow
	for rows.Next() {
		var r SkillRow
		var cat sql.NullInt64
		if err := rows.Scan(&r.ID, &r.Name, &cat); err != nil {
			return nil, fmt.Errorf("failed to scan skill: %w", err)
		}
		if cat.Valid {
			r.CategoryID = &cat.Int64
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
