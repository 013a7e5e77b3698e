package star

import (
	"go.uber.org/zap"

	"shenanigigs/services/starschema/internal/models"
	"shenanigigs/services/starschema/internal/parser"
)

// SkillCategorizer resolves the category a skill belongs to.
type SkillCategorizer interface {
	Category(skill string) string
}

// DimensionBuilder deduplicates the enriched batch into dimension tables.
// Keys are assigned in two passes: first every distinct natural key is
// collected in first-occurrence order, then each gets its 1-based position.
// The same ordered input always yields the same keys.
type DimensionBuilder struct {
	logger  *zap.Logger
	skills  SkillCategorizer
	regions map[string]string
}

func NewDimensionBuilder(logger *zap.Logger, skills SkillCategorizer, regions map[string]string) *DimensionBuilder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DimensionBuilder{logger: logger, skills: skills, regions: regions}
}

func (b *DimensionBuilder) Build(postings []*models.EnrichedPosting) models.Dimensions {
	jobs := newOrderedSet[JobKey, *models.EnrichedPosting]()
	companies := newOrderedSet[string, models.Company]()
	locations := newOrderedSet[LocationKey, models.Location]()
	employment := newOrderedSet[EmploymentKey, struct{}]()
	skills := newOrderedSet[string, struct{}]()

	for _, p := range postings {
		jobs.add(jobKeyOf(p), p)
		if name, ok := companyKeyOf(p); ok {
			companies.add(name, p.Company)
		}
		locations.add(locationKeyOf(p), p.Location)
		employment.add(employmentKeyOf(p), struct{}{})
		for _, skill := range p.Skills {
			skills.add(skill, struct{}{})
		}
	}

	dims := models.Dimensions{
		Jobs:            make([]models.JobRow, 0, jobs.len()),
		Companies:       make([]models.CompanyRow, 0, companies.len()),
		Locations:       make([]models.LocationRow, 0, locations.len()),
		EmploymentTypes: make([]models.EmploymentTypeRow, 0, employment.len()),
		Skills:          make([]models.SkillRow, 0, skills.len()),
	}

	for i, k := range jobs.keys {
		dims.Jobs = append(dims.Jobs, models.JobRow{
			JobID:          surrogateKey(i),
			JobTitle:       k.Title,
			JobCategory:    k.Category,
			SeniorityLevel: k.Seniority,
		})
	}

	// Attributes come from the first posting that named the company.
	for i, name := range companies.keys {
		c := companies.values[i]
		dims.Companies = append(dims.Companies, models.CompanyRow{
			CompanyID:     surrogateKey(i),
			CompanyName:   name,
			CompanyRating: c.Rating,
			CompanySize:   c.Size,
			OwnershipType: c.OwnershipType,
			Industry:      c.Industry,
			Sector:        c.Sector,
			Revenue:       c.Revenue,
		})
	}

	for i, k := range locations.keys {
		dims.Locations = append(dims.Locations, models.LocationRow{
			LocationID: surrogateKey(i),
			City:       k.City,
			State:      k.State,
			Country:    k.Country,
			IsRemote:   k.IsRemote,
			Region:     parser.Region(locations.values[i], b.regions),
		})
	}

	for i, k := range employment.keys {
		dims.EmploymentTypes = append(dims.EmploymentTypes, models.EmploymentTypeRow{
			EmploymentTypeID: surrogateKey(i),
			EmploymentType:   k.Type,
			WorkArrangement:  k.Arrangement,
		})
	}

	for i, name := range skills.keys {
		dims.Skills = append(dims.Skills, models.SkillRow{
			SkillID:       surrogateKey(i),
			SkillName:     name,
			SkillCategory: b.skills.Category(name),
		})
	}

	b.logger.Debug("Built dimensions",
		zap.Int("jobs", len(dims.Jobs)),
		zap.Int("companies", len(dims.Companies)),
		zap.Int("locations", len(dims.Locations)),
		zap.Int("employment_types", len(dims.EmploymentTypes)),
		zap.Int("skills", len(dims.Skills)),
	)

	return dims
}
