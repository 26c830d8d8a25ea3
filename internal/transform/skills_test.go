package transform

import (
	"reflect"
	"testing"
)

func TestExtractSkills(t *testing.T) {
	tests := []struct {
		name  string
		raw   []string
		typed map[string][]string
		want  []Skill
	}{
		{
			name: "nil payloads",
			want: nil,
		},
		{
			name: "flat list only",
			raw:  []string{"python", "sql"},
			want: []Skill{{Name: "python"}, {Name: "sql"}},
		},
		{
			name: "case insensitive dedup keeps first casing",
			raw:  []string{"Python", "python", "SQL", "sql", "Sql"},
			want: []Skill{{Name: "Python"}, {Name: "SQL"}},
		},
		{
			name: "typed entries carry category",
			typed: map[string][]string{
				"programming": {"python", "go"},
				"cloud":       {"aws"},
			},
			want: []Skill{
				{Name: "aws", Category: "cloud"},
				{Name: "python", Category: "programming"},
				{Name: "go", Category: "programming"},
			},
		},
		{
			name: "typed wins over flat for category",
			raw:  []string{"python"},
			typed: map[string][]string{
				"programming": {"python"},
			},
			want: []Skill{{Name: "python", Category: "programming"}},
		},
		{
			name:  "blank names dropped",
			raw:   []string{"", "  ", "excel"},
			typed: map[string][]string{"analyst_tools": {" "}},
			want:  []Skill{{Name: "excel", Category: ""}},
		},
		{
			name: "whitespace trimmed before dedup",
			raw:  []string{" tableau ", "tableau"},
			want: []Skill{{Name: "tableau"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExtractSkills(tt.raw, tt.typed)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ExtractSkills() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestExtractSkillsDeterministic(t *testing.T) {
	typed := map[string][]string{
		"a": {"one"},
		"b": {"two"},
		"c": {"three"},
	}
	first := ExtractSkills(nil, typed)
	for i := 0; i < 20; i++ {
		if got := ExtractSkills(nil, typed); !reflect.DeepEqual(got, first) {
			t.Fatalf("iteration %d produced different order: %+v vs %+v", i, got, first)
		}
	}
}
