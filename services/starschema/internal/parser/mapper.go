package parser

import (
	"regexp"
	"sort"
	"strings"

	"shenanigigs/services/starschema/internal/models"
)

var nonCanonicalPattern = regexp.MustCompile(`[^a-z0-9_]`)

const unnamedField = "unnamed"

// CanonicalName lowercases key, turns spaces and hyphens into underscores and
// drops every other character outside [a-z0-9_].
func CanonicalName(key string) string {
	s := strings.ToLower(key)
	s = strings.ReplaceAll(s, " ", "_")
	s = strings.ReplaceAll(s, "-", "_")
	return nonCanonicalPattern.ReplaceAllString(s, "")
}

// Mapper renames source fields to the canonical vocabulary. It never drops a
// field and never fails.
type Mapper struct {
	renames map[string]string
}

func NewMapper(renames map[string]string) *Mapper {
	return &Mapper{renames: renames}
}

// Map applies the rename table, then CanonicalName to anything the table does
// not cover. Keys are visited in sorted order; when two source keys land on
// the same canonical name the first non-null value is kept.
func (m *Mapper) Map(raw models.RawPosting) models.NormalizedPosting {
	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make(models.NormalizedPosting, len(raw))
	for _, k := range keys {
		name, ok := m.renames[k]
		if !ok {
			name = CanonicalName(k)
		}
		if name == "" {
			name = unnamedField
		}
		if existing, taken := out[name]; taken && existing != nil {
			continue
		}
		out[name] = raw[k]
	}
	return out
}
