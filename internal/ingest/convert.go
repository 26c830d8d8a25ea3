package ingest

// convert.go - field converters for the semi-structured CSV columns

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// timeLayouts are the timestamp shapes observed in the source export,
// most specific first.
var timeLayouts = []string{
	"2006-01-02 15:04:05.999999",
	"2006-01-02T15:04:05.999999",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// parseTime parses a posting timestamp. Empty input yields nil.
func parseTime(raw string) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return &t, nil
		}
	}
	return nil, fmt.Errorf("unrecognized timestamp %q", raw)
}

// parseBool parses the True/False flags the export carries. Empty input
// yields nil.
func parseBool(raw string) (*bool, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "":
		return nil, nil
	case "true", "t", "1":
		v := true
		return &v, nil
	case "false", "f", "0":
		v := false
		return &v, nil
	default:
		return nil, fmt.Errorf("unrecognized boolean %q", raw)
	}
}

// parseFloat parses an average salary column. Empty input yields nil.
func parseFloat(raw string) (*float64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, fmt.Errorf("unrecognized number %q: %w", raw, err)
	}
	return &v, nil
}

// parseSkillList parses the job_skills column. The export writes it as a
// Python list literal with single quotes; newer extracts use plain JSON.
// Both forms are accepted. Empty or null input yields nil.
func parseSkillList(raw string) ([]string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" || isNullLiteral(raw) {
		return nil, nil
	}
	var skills []string
	if err := json.Unmarshal([]byte(raw), &skills); err == nil {
		return skills, nil
	}
	if err := json.Unmarshal([]byte(pythonToJSON(raw)), &skills); err != nil {
		return nil, fmt.Errorf("unrecognized skill list %q: %w", raw, err)
	}
	return skills, nil
}

// parseSkillMap parses the job_type_skills column, a mapping of category
// name to skill names in the same dual literal form as parseSkillList.
func parseSkillMap(raw string) (map[string][]string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" || isNullLiteral(raw) {
		return nil, nil
	}
	var typed map[string][]string
	if err := json.Unmarshal([]byte(raw), &typed); err == nil {
		return typed, nil
	}
	if err := json.Unmarshal([]byte(pythonToJSON(raw)), &typed); err != nil {
		return nil, fmt.Errorf("unrecognized typed skill map %q: %w", raw, err)
	}
	return typed, nil
}

func isNullLiteral(raw string) bool {
	switch raw {
	case "null", "None", "nan", "NaN":
		return true
	}
	return false
}

// pythonToJSON rewrites a Python container literal into JSON: single-quoted
// strings become double-quoted, None becomes null. Quotes inside strings
// are escaped rather than flipped.
func pythonToJSON(raw string) string {
	var b strings.Builder
	b.Grow(len(raw))
	inString := false
	for i := 0; i < len(raw); i++ {
		c := raw[i]
		switch {
		case c == '\'':
			inString = !inString
			b.WriteByte('"')
		case c == '"':
			b.WriteString(`\"`)
		case c == '\\' && inString && i+1 < len(raw):
			// \' is a Python escape with no JSON counterpart; emit the
			// bare apostrophe. Other escape pairs pass through.
			i++
			if raw[i] != '\'' {
				b.WriteByte(c)
			}
			b.WriteByte(raw[i])
		case !inString && c == 'N' && strings.HasPrefix(raw[i:], "None"):
			b.WriteString("null")
			i += 3
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}
