package star

import (
	"database/sql"

	"shenanigigs/services/starschema/internal/models"
)

// Natural keys. Each is comparable so it can index a map; a null attribute is
// a legitimate key component.

type JobKey struct {
	Title     sql.NullString
	Category  string
	Seniority string
}

type LocationKey struct {
	City     sql.NullString
	State    sql.NullString
	Country  string
	IsRemote bool
}

type EmploymentKey struct {
	Type        string
	Arrangement string
}

func jobKeyOf(p *models.EnrichedPosting) JobKey {
	return JobKey{Title: p.JobTitle, Category: p.JobCategory, Seniority: p.SeniorityLevel}
}

func jobRowKey(r models.JobRow) JobKey {
	return JobKey{Title: r.JobTitle, Category: r.JobCategory, Seniority: r.SeniorityLevel}
}

func locationKeyOf(p *models.EnrichedPosting) LocationKey {
	return LocationKey{
		City:     p.Location.City,
		State:    p.Location.State,
		Country:  p.Location.Country,
		IsRemote: p.Location.IsRemote,
	}
}

func locationRowKey(r models.LocationRow) LocationKey {
	return LocationKey{City: r.City, State: r.State, Country: r.Country, IsRemote: r.IsRemote}
}

func employmentKeyOf(p *models.EnrichedPosting) EmploymentKey {
	return EmploymentKey{Type: p.EmploymentType, Arrangement: p.WorkArrangement}
}

func employmentRowKey(r models.EmploymentTypeRow) EmploymentKey {
	return EmploymentKey{Type: r.EmploymentType, Arrangement: r.WorkArrangement}
}

// companyKeyOf reports false for postings without a company name; those
// contribute no company row and get a null company_id.
func companyKeyOf(p *models.EnrichedPosting) (string, bool) {
	return p.Company.Name.String, p.Company.Name.Valid
}

// orderedSet keeps the first value seen for each key, in first-seen order.
type orderedSet[K comparable, V any] struct {
	index  map[K]int
	keys   []K
	values []V
}

func newOrderedSet[K comparable, V any]() *orderedSet[K, V] {
	return &orderedSet[K, V]{index: make(map[K]int)}
}

func (s *orderedSet[K, V]) add(k K, v V) {
	if _, ok := s.index[k]; ok {
		return
	}
	s.index[k] = len(s.keys)
	s.keys = append(s.keys, k)
	s.values = append(s.values, v)
}

func (s *orderedSet[K, V]) len() int {
	return len(s.keys)
}

// surrogateKey is the dense 1-based key for position i of an ordered set.
func surrogateKey(i int) int64 {
	return int64(i + 1)
}
