package parser

import (
	"strings"

	"shenanigigs/services/starschema/internal/models"
	"shenanigigs/services/starschema/internal/rules"
)

// Classifier derives seniority, job category and employment attributes from
// a posting's text with first-match keyword tables.
type Classifier struct {
	set *rules.Set
}

func NewClassifier(set *rules.Set) *Classifier {
	return &Classifier{set: set}
}

func (c *Classifier) Seniority(title string) string {
	return rules.Classify(c.set.Seniority, title, c.set.DefaultSeniority)
}

func (c *Classifier) JobCategory(title string) string {
	return rules.Classify(c.set.JobCategories, title, c.set.DefaultJobCategory)
}

// EmploymentType reads an explicit employment field when the source carries
// one and falls back to the title otherwise.
func (c *Classifier) EmploymentType(p models.NormalizedPosting, title string) string {
	if explicit, ok := p.Text("employment_type"); ok {
		return rules.Classify(c.set.EmploymentTypes, explicit, c.set.DefaultEmploymentType)
	}
	return rules.Classify(c.set.EmploymentTypes, title, c.set.DefaultEmploymentType)
}

func (c *Classifier) WorkArrangement(loc models.Location, texts ...string) string {
	if loc.IsRemote {
		return rules.ArrangementRemote
	}
	if rules.ContainsAny(strings.Join(texts, " "), c.set.HybridKeywords) {
		return rules.ArrangementHybrid
	}
	return c.set.DefaultWorkArrangement
}
