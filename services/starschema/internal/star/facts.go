package star

import (
	"database/sql"

	"go.uber.org/zap"

	"shenanigigs/services/starschema/internal/models"
)

// Report counts natural keys that found no dimension row during assembly.
// A non-zero count leaves a null foreign key or a dropped bridge row.
type Report struct {
	Postings   int
	BridgeRows int
	Unresolved map[string]int
}

func (r Report) UnresolvedTotal() int {
	total := 0
	for _, n := range r.Unresolved {
		total += n
	}
	return total
}

type FactAssembler struct {
	logger *zap.Logger
}

func NewFactAssembler(logger *zap.Logger) *FactAssembler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FactAssembler{logger: logger}
}

// Assemble resolves each posting against dims and emits one fact row per
// posting, with posting_id equal to its 1-based input position, plus one
// bridge row per distinct extracted skill.
func (a *FactAssembler) Assemble(postings []*models.EnrichedPosting, dims models.Dimensions) (*models.StarSchema, Report) {
	jobIDs := make(map[JobKey]int64, len(dims.Jobs))
	for _, r := range dims.Jobs {
		jobIDs[jobRowKey(r)] = r.JobID
	}
	companyIDs := make(map[string]int64, len(dims.Companies))
	for _, r := range dims.Companies {
		companyIDs[r.CompanyName] = r.CompanyID
	}
	locationIDs := make(map[LocationKey]int64, len(dims.Locations))
	for _, r := range dims.Locations {
		locationIDs[locationRowKey(r)] = r.LocationID
	}
	employmentIDs := make(map[EmploymentKey]int64, len(dims.EmploymentTypes))
	for _, r := range dims.EmploymentTypes {
		employmentIDs[employmentRowKey(r)] = r.EmploymentTypeID
	}
	skillIDs := make(map[string]int64, len(dims.Skills))
	for _, r := range dims.Skills {
		skillIDs[r.SkillName] = r.SkillID
	}

	report := Report{Postings: len(postings), Unresolved: make(map[string]int)}
	schema := &models.StarSchema{
		Dimensions: dims,
		Facts:      make([]models.FactRow, 0, len(postings)),
	}

	resolve := func(table string, id int64, ok bool) sql.NullInt64 {
		if !ok {
			report.Unresolved[table]++
			return sql.NullInt64{}
		}
		return sql.NullInt64{Int64: id, Valid: true}
	}

	for i, p := range postings {
		postingID := surrogateKey(i)

		fact := models.FactRow{
			PostingID:      postingID,
			SalaryMin:      p.Salary.Min,
			SalaryMax:      p.Salary.Max,
			SalaryCurrency: p.Salary.Currency,
		}

		id, ok := jobIDs[jobKeyOf(p)]
		fact.JobID = resolve(models.TableDimJob, id, ok)

		// A posting without a company name has nothing to resolve.
		if name, named := companyKeyOf(p); named {
			id, ok = companyIDs[name]
			fact.CompanyID = resolve(models.TableDimCompany, id, ok)
		}

		id, ok = locationIDs[locationKeyOf(p)]
		fact.LocationID = resolve(models.TableDimLocation, id, ok)

		id, ok = employmentIDs[employmentKeyOf(p)]
		fact.EmploymentTypeID = resolve(models.TableDimEmploymentType, id, ok)

		schema.Facts = append(schema.Facts, fact)

		seen := make(map[int64]struct{}, len(p.Skills))
		for _, skill := range p.Skills {
			skillID, ok := skillIDs[skill]
			if !ok {
				report.Unresolved[models.TableDimSkill]++
				continue
			}
			if _, dup := seen[skillID]; dup {
				continue
			}
			seen[skillID] = struct{}{}
			schema.Bridge = append(schema.Bridge, models.BridgeRow{PostingID: postingID, SkillID: skillID})
		}
	}

	report.BridgeRows = len(schema.Bridge)

	if n := report.UnresolvedTotal(); n > 0 {
		a.logger.Warn("Unresolved dimension references",
			zap.Int("count", n),
			zap.Any("by_table", report.Unresolved),
		)
	}

	return schema, report
}
