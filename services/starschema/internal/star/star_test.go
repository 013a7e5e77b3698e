package star

import (
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shenanigigs/services/starschema/internal/models"
	"shenanigigs/services/starschema/internal/parser"
	"shenanigigs/services/starschema/internal/rules"
)

func testParser() *parser.Parser {
	return parser.New(rules.Default(), parser.Options{DefaultCountry: "USA", DefaultCurrency: "USD"})
}

func enrichAll(p *parser.Parser, raws ...models.RawPosting) []*models.EnrichedPosting {
	out := make([]*models.EnrichedPosting, len(raws))
	for i, raw := range raws {
		out[i] = p.ParsePosting(raw)
	}
	return out
}

func posting(title, company, location, description string) models.RawPosting {
	raw := models.RawPosting{}
	if title != "" {
		raw["Job Title"] = title
	}
	if company != "" {
		raw["Company Name"] = company
	}
	if location != "" {
		raw["Location"] = location
	}
	if description != "" {
		raw["Job Description"] = description
	}
	return raw
}

func build(raws ...models.RawPosting) (*models.StarSchema, Report) {
	p := testParser()
	enriched := enrichAll(p, raws...)
	dims := NewDimensionBuilder(nil, p.Skills(), p.Rules().Regions).Build(enriched)
	return NewFactAssembler(nil).Assemble(enriched, dims)
}

func TestEndToEndScenario(t *testing.T) {
	t.Parallel()

	schema, report := build(
		posting("Senior Data Engineer", "TechCo", "Remote", "Experience with Python, Spark, AWS"),
		posting("Data Analyst I", "TechCo", "New York, NY", "Excel and SQL required"),
	)

	require.Len(t, schema.Companies, 1)
	assert.Equal(t, "TechCo", schema.Companies[0].CompanyName)
	assert.Len(t, schema.Locations, 2)

	names := make([]string, len(schema.Skills))
	for i, s := range schema.Skills {
		names[i] = s.SkillName
	}
	assert.ElementsMatch(t, []string{"Python", "Spark", "AWS", "Excel", "SQL"}, names)
	assert.Len(t, schema.Bridge, 5)

	require.Len(t, schema.Facts, 2)
	for _, f := range schema.Facts {
		assert.Equal(t, sql.NullInt64{Int64: 1, Valid: true}, f.CompanyID)
	}
	assert.Zero(t, report.UnresolvedTotal())
	assert.Equal(t, 2, report.Postings)
	assert.Equal(t, 5, report.BridgeRows)

	assert.Equal(t, rules.SenioritySenior, schema.Jobs[0].SeniorityLevel)
	assert.Equal(t, rules.SeniorityMid, schema.Jobs[1].SeniorityLevel)

	remote := schema.Locations[0]
	assert.True(t, remote.IsRemote)
	assert.Equal(t, rules.RegionRemote, remote.Region)
	assert.Equal(t, "Northeast", schema.Locations[1].Region)
}

func TestDimensionKeysAreDenseInFirstOccurrenceOrder(t *testing.T) {
	t.Parallel()

	schema, _ := build(
		posting("Data Analyst", "Beta", "Austin, TX", "SQL"),
		posting("Data Engineer", "Alpha", "Austin, TX", "Python and SQL"),
		posting("Data Analyst", "Beta", "Dallas, TX", "Python"),
		posting("Data Scientist", "Gamma", "Remote", "R"),
		posting("Data Engineer", "Alpha", "Remote", "SQL"),
	)

	companies := make([]string, len(schema.Companies))
	for i, c := range schema.Companies {
		assert.Equal(t, int64(i+1), c.CompanyID)
		companies[i] = c.CompanyName
	}
	assert.Equal(t, []string{"Beta", "Alpha", "Gamma"}, companies)

	for i, j := range schema.Jobs {
		assert.Equal(t, int64(i+1), j.JobID)
	}
	assert.Len(t, schema.Jobs, 3)

	for i, l := range schema.Locations {
		assert.Equal(t, int64(i+1), l.LocationID)
	}
	assert.Len(t, schema.Locations, 3)

	skills := make([]string, len(schema.Skills))
	for i, s := range schema.Skills {
		assert.Equal(t, int64(i+1), s.SkillID)
		skills[i] = s.SkillName
	}
	assert.Equal(t, []string{"SQL", "Python", "R"}, skills)

	require.Len(t, schema.EmploymentTypes, 2)
	assert.Equal(t, rules.ArrangementOnSite, schema.EmploymentTypes[0].WorkArrangement)
	assert.Equal(t, rules.ArrangementRemote, schema.EmploymentTypes[1].WorkArrangement)
	assert.Equal(t, int64(2), schema.EmploymentTypes[1].EmploymentTypeID)
}

func TestDimensionRowCountMatchesDistinctNaturalKeys(t *testing.T) {
	t.Parallel()

	p := testParser()
	enriched := enrichAll(p,
		posting("Data Analyst", "A", "Austin, TX", ""),
		posting("Data Analyst", "A", "Austin, TX", ""),
		posting("Senior Data Analyst", "B", "Austin", ""),
		posting("", "", "", ""),
		posting("", "", "", ""),
		posting("Data Analyst", "", "Hybrid", ""),
	)
	dims := NewDimensionBuilder(nil, p.Skills(), p.Rules().Regions).Build(enriched)

	jobs := map[JobKey]struct{}{}
	locations := map[LocationKey]struct{}{}
	employment := map[EmploymentKey]struct{}{}
	companies := map[string]struct{}{}
	for _, e := range enriched {
		jobs[jobKeyOf(e)] = struct{}{}
		locations[locationKeyOf(e)] = struct{}{}
		employment[employmentKeyOf(e)] = struct{}{}
		if name, ok := companyKeyOf(e); ok {
			companies[name] = struct{}{}
		}
	}

	assert.Len(t, dims.Jobs, len(jobs))
	assert.Len(t, dims.Locations, len(locations))
	assert.Len(t, dims.EmploymentTypes, len(employment))
	assert.Len(t, dims.Companies, len(companies))
}

func TestNullCompanyHasNoRowAndNullKey(t *testing.T) {
	t.Parallel()

	schema, report := build(
		posting("Data Analyst", "", "Austin, TX", ""),
		posting("Data Analyst", "TechCo", "Austin, TX", ""),
	)

	require.Len(t, schema.Companies, 1)
	assert.False(t, schema.Facts[0].CompanyID.Valid)
	assert.Equal(t, int64(1), schema.Facts[1].CompanyID.Int64)
	assert.Zero(t, report.UnresolvedTotal())

	// A missing title is still a valid job key.
	schema, _ = build(posting("", "X", "", ""))
	require.Len(t, schema.Jobs, 1)
	assert.False(t, schema.Jobs[0].JobTitle.Valid)
	assert.True(t, schema.Facts[0].JobID.Valid)
	require.Len(t, schema.Locations, 1)
	assert.False(t, schema.Locations[0].City.Valid)
}

func TestCompanyAttributesComeFromFirstOccurrence(t *testing.T) {
	t.Parallel()

	schema, _ := build(
		models.RawPosting{"Company Name": "TechCo", "Rating": "4.1", "Size": "1 to 50 employees"},
		models.RawPosting{"Company Name": "TechCo", "Rating": "2.0", "Size": "10000+ employees"},
	)

	require.Len(t, schema.Companies, 1)
	assert.InDelta(t, 4.1, schema.Companies[0].CompanyRating.Float64, 1e-9)
	assert.Equal(t, "1-50", schema.Companies[0].CompanySize.String)
}

func TestReferentialIntegrity(t *testing.T) {
	t.Parallel()

	schema, _ := build(
		posting("Senior Data Engineer", "TechCo", "Remote", "Python, Spark, Kafka and AWS"),
		posting("Data Analyst", "", "Chicago, IL", "Excel, Tableau"),
		posting("Data Manager", "DataWorks", "", ""),
		posting("BI Developer (Contract)", "TechCo", "Chicago, IL", "Power BI and SQL Server"),
	)

	jobIDs := map[int64]bool{}
	for _, r := range schema.Jobs {
		jobIDs[r.JobID] = true
	}
	companyIDs := map[int64]bool{}
	for _, r := range schema.Companies {
		companyIDs[r.CompanyID] = true
	}
	locationIDs := map[int64]bool{}
	for _, r := range schema.Locations {
		locationIDs[r.LocationID] = true
	}
	employmentIDs := map[int64]bool{}
	for _, r := range schema.EmploymentTypes {
		employmentIDs[r.EmploymentTypeID] = true
	}
	skillIDs := map[int64]bool{}
	for _, r := range schema.Skills {
		skillIDs[r.SkillID] = true
	}

	check := func(ids map[int64]bool, fk sql.NullInt64) {
		if fk.Valid {
			assert.True(t, ids[fk.Int64], "dangling key %d", fk.Int64)
		}
	}

	postingIDs := map[int64]bool{}
	for i, f := range schema.Facts {
		assert.Equal(t, int64(i+1), f.PostingID)
		postingIDs[f.PostingID] = true
		check(jobIDs, f.JobID)
		check(companyIDs, f.CompanyID)
		check(locationIDs, f.LocationID)
		check(employmentIDs, f.EmploymentTypeID)
	}

	for _, b := range schema.Bridge {
		assert.True(t, postingIDs[b.PostingID])
		assert.True(t, skillIDs[b.SkillID])
	}
}

func TestAssembleReportsUnresolvedReferences(t *testing.T) {
	t.Parallel()

	p := testParser()
	enriched := enrichAll(p,
		posting("Data Analyst", "TechCo", "Austin, TX", "SQL and Python"),
	)

	// Dimensions built from a different batch.
	dims := NewDimensionBuilder(nil, p.Skills(), p.Rules().Regions).Build(enrichAll(p,
		posting("Data Engineer", "Other", "Austin, TX", "SQL"),
	))

	schema, report := NewFactAssembler(nil).Assemble(enriched, dims)

	require.Len(t, schema.Facts, 1)
	f := schema.Facts[0]
	assert.False(t, f.JobID.Valid)
	assert.False(t, f.CompanyID.Valid)
	assert.True(t, f.LocationID.Valid)
	assert.True(t, f.EmploymentTypeID.Valid)

	assert.Equal(t, 1, report.Unresolved[models.TableDimJob])
	assert.Equal(t, 1, report.Unresolved[models.TableDimCompany])
	assert.Equal(t, 1, report.Unresolved[models.TableDimSkill])
	assert.Equal(t, 3, report.UnresolvedTotal())
	require.Len(t, schema.Bridge, 1)
}

func TestEmptyBatch(t *testing.T) {
	t.Parallel()

	p := testParser()
	dims := NewDimensionBuilder(nil, p.Skills(), p.Rules().Regions).Build(nil)
	schema, report := NewFactAssembler(nil).Assemble(nil, dims)

	assert.Empty(t, dims.Jobs)
	assert.Empty(t, dims.Skills)
	assert.Empty(t, schema.Facts)
	assert.Empty(t, schema.Bridge)
	assert.Zero(t, report.Postings)
}

func TestBuildIsDeterministic(t *testing.T) {
	t.Parallel()

	raws := []models.RawPosting{
		posting("Data Analyst", "A", "Austin, TX", "SQL, Python"),
		posting("Data Engineer", "B", "Remote", "Spark"),
		posting("Data Analyst", "A", "Denver, CO", "Tableau and SQL"),
	}

	first, _ := build(raws...)
	for i := 0; i < 10; i++ {
		again, _ := build(raws...)
		assert.Equal(t, first, again)
	}
}
