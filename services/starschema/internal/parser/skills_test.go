package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"shenanigigs/services/starschema/internal/rules"
)

func TestSkillExtract(t *testing.T) {
	t.Parallel()

	e := NewSkillExtractor(rules.Default().Taxonomy)

	tests := []struct {
		name string
		text string
		want []string
	}{
		{"canonical case", "Proficient in Python and SQL", []string{"Python", "SQL"}},
		{"lower case", "proficient in python and sql", []string{"Python", "SQL"}},
		{"go is not inside mongo", "MongoDB experience", []string{"MongoDB"}},
		{"r is not inside regression", "Regression modelling", []string{"Regression"}},
		{"single letter language", "Statistical work in R, or Python.", []string{"Python", "R"}},
		{"symbols in skill names", "C++ and D3.js dashboards", []string{"C++", "D3.js"}},
		{"multi word skills", "Power BI, SQL Server and A/B testing", []string{"SQL", "SQL Server", "Power BI", "A/B Testing"}},
		{"repeated mentions count once", "SQL, more SQL, sql", []string{"SQL"}},
		{"mysql is not sql", "MySQL only", []string{"MySQL"}},
		{"empty", "", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, e.Extract(tt.text))
		})
	}
}

func TestSkillExtractIsDeterministic(t *testing.T) {
	t.Parallel()

	e := NewSkillExtractor(rules.Default().Taxonomy)
	text := "Spark, Kafka, AWS, Python, Tableau, Excel, Git and Snowflake"

	first := e.Extract(text)
	for i := 0; i < 20; i++ {
		assert.Equal(t, first, e.Extract(text))
	}
}

func TestSkillCategory(t *testing.T) {
	t.Parallel()

	e := NewSkillExtractor(rules.Default().Taxonomy)

	assert.Equal(t, "Programming Languages", e.Category("Python"))
	assert.Equal(t, "Data Engineering", e.Category("Spark"))
	// Declared under Databases and Cloud Platforms; the first wins.
	assert.Equal(t, "Databases", e.Category("Snowflake"))
	assert.Equal(t, "Other", e.Category("COBOL"))
}
