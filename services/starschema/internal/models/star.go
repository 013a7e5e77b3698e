package models

import "database/sql"

type JobRow struct {
	JobID          int64
	JobTitle       sql.NullString
	JobCategory    string
	SeniorityLevel string
}

type CompanyRow struct {
	CompanyID     int64
	CompanyName   string
	CompanyRating sql.NullFloat64
	CompanySize   sql.NullString
	OwnershipType sql.NullString
	Industry      sql.NullString
	Sector        sql.NullString
	Revenue       sql.NullString
}

type LocationRow struct {
	LocationID int64
	City       sql.NullString
	State      sql.NullString
	Country    string
	IsRemote   bool
	Region     string
}

type EmploymentTypeRow struct {
	EmploymentTypeID int64
	EmploymentType   string
	WorkArrangement  string
}

type SkillRow struct {
	SkillID       int64
	SkillName     string
	SkillCategory string
}

type BridgeRow struct {
	PostingID int64
	SkillID   int64
}

// FactRow foreign keys are null when the posting's natural key had no match
// in the referenced dimension.
type FactRow struct {
	PostingID        int64
	JobID            sql.NullInt64
	CompanyID        sql.NullInt64
	LocationID       sql.NullInt64
	EmploymentTypeID sql.NullInt64
	SalaryMin        sql.NullFloat64
	SalaryMax        sql.NullFloat64
	SalaryCurrency   string
}

type Dimensions struct {
	Jobs            []JobRow
	Companies       []CompanyRow
	Locations       []LocationRow
	EmploymentTypes []EmploymentTypeRow
	Skills          []SkillRow
}

type StarSchema struct {
	Dimensions
	Bridge []BridgeRow
	Facts  []FactRow
}

// Table is a StarSchema table flattened for sinks. Null values are nil.
type Table struct {
	Name    string
	Columns []string
	Rows    [][]any
}

const (
	TableDimJob             = "dim_job"
	TableDimCompany         = "dim_company"
	TableDimLocation        = "dim_location"
	TableDimEmploymentType  = "dim_employment_type"
	TableDimSkill           = "dim_skill"
	TableBridgePostingSkill = "bridge_posting_skill"
	TableFactPosting        = "fact_posting"
)

// Tables returns every table of s in load order: dimensions, bridge, fact.
func (s *StarSchema) Tables() []Table {
	jobs := Table{Name: TableDimJob, Columns: []string{"job_id", "job_title", "job_category", "seniority_level"}}
	for _, r := range s.Jobs {
		jobs.Rows = append(jobs.Rows, []any{r.JobID, nullString(r.JobTitle), r.JobCategory, r.SeniorityLevel})
	}

	companies := Table{Name: TableDimCompany, Columns: []string{
		"company_id", "company_name", "company_rating", "company_size",
		"ownership_type", "industry", "sector", "revenue",
	}}
	for _, r := range s.Companies {
		companies.Rows = append(companies.Rows, []any{
			r.CompanyID, r.CompanyName, nullFloat(r.CompanyRating), nullString(r.CompanySize),
			nullString(r.OwnershipType), nullString(r.Industry), nullString(r.Sector), nullString(r.Revenue),
		})
	}

	locations := Table{Name: TableDimLocation, Columns: []string{"location_id", "city", "state", "country", "is_remote", "region"}}
	for _, r := range s.Locations {
		locations.Rows = append(locations.Rows, []any{r.LocationID, nullString(r.City), nullString(r.State), r.Country, r.IsRemote, r.Region})
	}

	employment := Table{Name: TableDimEmploymentType, Columns: []string{"employment_type_id", "employment_type", "work_arrangement"}}
	for _, r := range s.EmploymentTypes {
		employment.Rows = append(employment.Rows, []any{r.EmploymentTypeID, r.EmploymentType, r.WorkArrangement})
	}

	skills := Table{Name: TableDimSkill, Columns: []string{"skill_id", "skill_name", "skill_category"}}
	for _, r := range s.Skills {
		skills.Rows = append(skills.Rows, []any{r.SkillID, r.SkillName, r.SkillCategory})
	}

	bridge := Table{Name: TableBridgePostingSkill, Columns: []string{"posting_id", "skill_id"}}
	for _, r := range s.Bridge {
		bridge.Rows = append(bridge.Rows, []any{r.PostingID, r.SkillID})
	}

	facts := Table{Name: TableFactPosting, Columns: []string{
		"posting_id", "job_id", "company_id", "location_id", "employment_type_id",
		"salary_min", "salary_max", "salary_currency",
	}}
	for _, r := range s.Facts {
		facts.Rows = append(facts.Rows, []any{
			r.PostingID, nullInt(r.JobID), nullInt(r.CompanyID), nullInt(r.LocationID), nullInt(r.EmploymentTypeID),
			nullFloat(r.SalaryMin), nullFloat(r.SalaryMax), r.SalaryCurrency,
		})
	}

	return []Table{jobs, companies, locations, employment, skills, bridge, facts}
}

func nullString(v sql.NullString) any {
	if !v.Valid {
		return nil
	}
	return v.String
}

func nullFloat(v sql.NullFloat64) any {
	if !v.Valid {
		return nil
	}
	return v.Float64
}

func nullInt(v sql.NullInt64) any {
	if !v.Valid {
		return nil
	}
	return v.Int64
}
