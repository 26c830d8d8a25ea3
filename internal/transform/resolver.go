package transform

// resolver.go - natural key to surrogate id resolution with a per-run cache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/leapstack-labs/jobflow/internal/store"
)

// ErrRowInvalid marks failures scoped to a single staging row. Callers skip
// the row and continue; any other resolution error is a storage failure and
// aborts the run.
var ErrRowInvalid = errors.New("invalid staging row")

// Resolver maps dimension natural keys to surrogate ids for the lifetime of
// one transform run. The cache is warm-loaded from existing rows so reruns
// reuse prior ids, then extended as new keys are seen. Misses fall through
// to the store's get-or-create, which uses the unique constraint as the
// race arbiter; the resolver itself is safe for concurrent use.
type Resolver struct {
	store  *store.Store
	logger *slog.Logger

	mu         sync.Mutex
	companies  map[string]int64
	locations  map[string]int64
	platforms  map[string]int64
	schedules  map[string]int64
	categories map[string]int64
	skills     map[string]int64
}

// NewResolver creates a resolver with an empty cache.
func NewResolver(st *store.Store, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Resolver{
		store:      st,
		logger:     logger,
		companies:  make(map[string]int64),
		locations:  make(map[string]int64),
		platforms:  make(map[string]int64),
		schedules:  make(map[string]int64),
		categories: make(map[string]int64),
		skills:     make(map[string]int64),
	}
}

// Warm populates the cache from the dimension rows already in the store,
// so a rerun over unchanged staging data resolves every key without a
// single insert.
func (r *Resolver) Warm(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	companies, err := r.store.ListCompanies(ctx)
	if err != nil {
		return fmt.Errorf("failed to warm company cache: %w", err)
	}
	for _, c := range companies {
		r.companies[c.Name] = c.ID
	}

	locations, err := r.store.ListLocations(ctx)
	if err != nil {
		return fmt.Errorf("failed to warm location cache: %w", err)
	}
	for _, l := range locations {
		r.locations[locationKey(l.City, l.StateProvince, l.Country, l.FullLocation)] = l.ID
	}

	platforms, err := r.store.ListPlatforms(ctx)
	if err != nil {
		return fmt.Errorf("failed to warm platform cache: %w", err)
	}
	for _, p := range platforms {
		r.platforms[p.Name] = p.ID
	}

	schedules, err := r.store.ListScheduleTypes(ctx)
	if err != nil {
		return fmt.Errorf("failed to warm schedule type cache: %w", err)
	}
	for _, s := range schedules {
		r.schedules[s.Name] = s.ID
	}

	categories, err := r.store.ListSkillCategories(ctx)
	if err != nil {
		return fmt.Errorf("failed to warm skill category cache: %w", err)
	}
	for _, c := range categories {
		r.categories[c.Name] = c.ID
	}

	skills, err := r.store.ListSkills(ctx)
	if err != nil {
		return fmt.Errorf("failed to warm skill cache: %w", err)
	}
	for _, s := range skills {
		r.skills[strings.ToLower(s.Name)] = s.ID
	}

	r.logger.Debug("dimension cache warmed",
		"companies", len(r.companies),
		"locations", len(r.locations),
		"platforms", len(r.platforms),
		"schedule_types", len(r.schedules),
		"skill_categories", len(r.categories),
		"skills", len(r.skills),
	)
	return nil
}

// Company resolves a company name. An empty name after trimming is a row
// failure: company is a required dimension with no sentinel.
func (r *Resolver) Company(ctx context.Context, name string) (int64, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return 0, fmt.Errorf("%w: empty company name", ErrRowInvalid)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if id, ok := r.companies[name]; ok {
		return id, nil
	}
	id, err := r.store.EnsureCompany(ctx, name)
	if err != nil {
		return 0, err
	}
	r.companies[name] = id
	return id, nil
}

// Location resolves a parsed location together with its raw text. Empty raw
// text maps to the "Unknown" sentinel row rather than a null FK.
func (r *Resolver) Location(ctx context.Context, loc Location, rawText string) (int64, error) {
	full := strings.TrimSpace(rawText)
	if full == "" {
		full = CountryUnknown
	}

	key := locationKey(loc.City, loc.StateProvince, loc.Country, full)

	r.mu.Lock()
	defer r.mu.Unlock()
	if id, ok := r.locations[key]; ok {
		return id, nil
	}
	id, err := r.store.EnsureLocation(ctx, store.LocationRow{
		City:          loc.City,
		StateProvince: loc.StateProvince,
		Country:       loc.Country,
		FullLocation:  full,
	})
	if err != nil {
		return 0, err
	}
	r.locations[key] = id
	return id, nil
}

// Platform resolves a cleaned platform name. Empty maps to a nil FK: the
// schema allows jobs without a known platform.
func (r *Resolver) Platform(ctx context.Context, name string) (*int64, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if id, ok := r.platforms[name]; ok {
		return &id, nil
	}
	id, err := r.store.EnsurePlatform(ctx, name)
	if err != nil {
		return nil, err
	}
	r.platforms[name] = id
	return &id, nil
}

// ScheduleType resolves a schedule type name. Empty maps to a nil FK.
func (r *Resolver) ScheduleType(ctx context.Context, name string) (*int64, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if id, ok := r.schedules[name]; ok {
		return &id, nil
	}
	id, err := r.store.EnsureScheduleType(ctx, name)
	if err != nil {
		return nil, err
	}
	r.schedules[name] = id
	return &id, nil
}

// Skill resolves one extracted skill, resolving its category first so the
// skill row never references a category that does not exist yet.
func (r *Resolver) Skill(ctx context.Context, sk Skill) (int64, error) {
	var categoryID *int64
	if sk.Category != "" {
		r.mu.Lock()
		id, ok := r.categories[sk.Category]
		r.mu.Unlock()
		if !ok {
			var err error
			id, err = r.store.EnsureSkillCategory(ctx, sk.Category)
			if err != nil {
				return 0, err
			}
			r.mu.Lock()
			r.categories[sk.Category] = id
			r.mu.Unlock()
		}
		categoryID = &id
	}

	key := strings.ToLower(sk.Name)

	r.mu.Lock()
	defer r.mu.Unlock()
	if id, ok := r.skills[key]; ok {
		return id, nil
	}
	id, err := r.store.EnsureSkill(ctx, sk.Name, categoryID)
	if err != nil {
		return 0, err
	}
	r.skills[key] = id
	return id, nil
}

// locationKey builds the cache key for a location 4-tuple, matching the
// coalesced uniqueness the store enforces.
func locationKey(city, state *string, country, full string) string {
	var c, s string
	if city != nil {
		c = *city
	}
	if state != nil {
		s = *state
	}
	return strings.Join([]string{c, s, country, full}, "\x1f")
}
