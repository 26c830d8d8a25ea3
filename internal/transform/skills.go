package transform

// skills.go - semi-structured skill payload extraction

import (
	"sort"
	"strings"
)

// Skill is one (name, category) pair extracted from a staging record.
// Category is empty when the payload carried no category tag for the skill.
type Skill struct {
	Name     string
	Category string
}

// ExtractSkills merges the flat skill list and the typed (category -> skills)
// payload of a single staging record into a deduplicated skill set.
//
// Deduplication is case-insensitive on the trimmed skill name; the first-seen
// casing and the first-seen category are retained. Typed entries are visited
// in sorted category order so extraction is deterministic. Nil or empty
// payloads yield an empty set; extraction never fails.
func ExtractSkills(raw []string, typed map[string][]string) []Skill {
	seen := make(map[string]int)
	var out []Skill

	add := func(name, category string) {
		name = strings.TrimSpace(name)
		if name == "" {
			return
		}
		key := strings.ToLower(name)
		if idx, ok := seen[key]; ok {
			// Keep first-seen casing, but backfill a category if the
			// earlier sighting had none.
			if out[idx].Category == "" && category != "" {
				out[idx].Category = category
			}
			return
		}
		seen[key] = len(out)
		out = append(out, Skill{Name: name, Category: category})
	}

	categories := make([]string, 0, len(typed))
	for c := range typed {
		categories = append(categories, c)
	}
	sort.Strings(categories)

	for _, c := range categories {
		category := strings.TrimSpace(c)
		for _, name := range typed[c] {
			add(name, category)
		}
	}
	for _, name := range raw {
		add(name, "")
	}

	return out
}
