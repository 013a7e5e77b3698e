// Package rules holds the static tables that drive per-record derivation:
// column renames, keyword classifiers, remote indicators and the skill
// taxonomy. Every classifier table is an ordered slice; the first rule whose
// trigger matches wins, so table order is part of the output contract.
package rules

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Rule maps a label to the lowercase substrings that select it.
type Rule struct {
	Label    string   `yaml:"label"`
	Triggers []string `yaml:"triggers"`
}

type SkillCategory struct {
	Name   string   `yaml:"name"`
	Skills []string `yaml:"skills"`
}

type Set struct {
	ColumnMapping map[string]string `yaml:"column_mapping"`

	Seniority        []Rule `yaml:"seniority"`
	DefaultSeniority string `yaml:"default_seniority"`

	JobCategories      []Rule `yaml:"job_categories"`
	DefaultJobCategory string `yaml:"default_job_category"`

	EmploymentTypes        []Rule `yaml:"employment_types"`
	DefaultEmploymentType  string `yaml:"default_employment_type"`
	DefaultWorkArrangement string `yaml:"default_work_arrangement"`

	RemoteKeywords []string `yaml:"remote_keywords"`
	HybridKeywords []string `yaml:"hybrid_keywords"`

	Taxonomy []SkillCategory `yaml:"taxonomy"`

	CompanySizes map[string]string `yaml:"company_sizes"`
	Regions      map[string]string `yaml:"regions"`
}

// Classify returns the label of the first rule, in declaration order, that
// has a trigger contained in the lowercased text. fallback is returned when
// nothing matches.
func Classify(table []Rule, text, fallback string) string {
	if text == "" {
		return fallback
	}
	lower := strings.ToLower(text)
	for _, rule := range table {
		for _, trigger := range rule.Triggers {
			if strings.Contains(lower, trigger) {
				return rule.Label
			}
		}
	}
	return fallback
}

// ContainsAny reports whether the lowercased text contains any keyword.
func ContainsAny(text string, keywords []string) bool {
	lower := strings.ToLower(text)
	for _, k := range keywords {
		if strings.Contains(lower, k) {
			return true
		}
	}
	return false
}

// LoadFile reads a YAML rules file on top of Default. Sequences present in
// the file replace the default table wholesale; mappings are merged key by
// key.
func LoadFile(path string) (*Set, error) {
	set := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rules %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, set); err != nil {
		return nil, fmt.Errorf("parse rules %s: %w", path, err)
	}
	if err := set.Validate(); err != nil {
		return nil, fmt.Errorf("rules %s: %w", path, err)
	}
	return set, nil
}

// Validate rejects tables that cannot classify: unnamed labels, empty or
// non-lowercase triggers, and an empty taxonomy category name.
func (s *Set) Validate() error {
	tables := map[string][]Rule{
		"seniority":        s.Seniority,
		"job_categories":   s.JobCategories,
		"employment_types": s.EmploymentTypes,
	}
	for name, table := range tables {
		for i, rule := range table {
			if rule.Label == "" {
				return fmt.Errorf("%s[%d]: empty label", name, i)
			}
			for _, trigger := range rule.Triggers {
				if trigger == "" || trigger != strings.ToLower(trigger) {
					return fmt.Errorf("%s[%d] %q: trigger %q must be non-empty lowercase", name, i, rule.Label, trigger)
				}
			}
		}
	}
	for i, cat := range s.Taxonomy {
		if cat.Name == "" {
			return fmt.Errorf("taxonomy[%d]: empty category name", i)
		}
	}
	return nil
}
