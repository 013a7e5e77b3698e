package parser

import (
	"regexp"

	"shenanigigs/services/starschema/internal/rules"
)

const uncategorizedSkill = "Other"

type skillMatcher struct {
	name    string
	pattern *regexp.Regexp
}

// SkillExtractor matches a skill taxonomy against free text. Matchers are
// compiled once; a skill only matches as a whole token, so "R" never fires
// inside "Regression" and "Go" never fires inside "MongoDB".
type SkillExtractor struct {
	matchers   []skillMatcher
	categories map[string]string
}

func NewSkillExtractor(taxonomy []rules.SkillCategory) *SkillExtractor {
	e := &SkillExtractor{categories: make(map[string]string)}
	for _, cat := range taxonomy {
		for _, skill := range cat.Skills {
			if _, seen := e.categories[skill]; seen {
				continue
			}
			e.categories[skill] = cat.Name
			e.matchers = append(e.matchers, skillMatcher{
				name:    skill,
				pattern: regexp.MustCompile(`(?i)(?:^|[^\p{L}\p{N}_])` + regexp.QuoteMeta(skill) + `(?:$|[^\p{L}\p{N}_])`),
			})
		}
	}
	return e
}

// Extract returns the skills found in text, each once, in taxonomy order.
func (e *SkillExtractor) Extract(text string) []string {
	if text == "" {
		return nil
	}
	var found []string
	for _, m := range e.matchers {
		if m.pattern.MatchString(text) {
			found = append(found, m.name)
		}
	}
	return found
}

// Category returns the first taxonomy category that declares skill.
func (e *SkillExtractor) Category(skill string) string {
	if cat, ok := e.categories[skill]; ok {
		return cat
	}
	return uncategorizedSkill
}
