package models

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// RawPosting is one source record keyed by its source-specific field names.
type RawPosting map[string]any

// NormalizedPosting is a RawPosting after its keys were mapped to the
// canonical vocabulary.
type NormalizedPosting map[string]any

// Text returns the trimmed string form of field. ok is false when the field
// is absent, null or blank.
func (p NormalizedPosting) Text(field string) (string, bool) {
	v, exists := p[field]
	if !exists || v == nil {
		return "", false
	}
	var s string
	switch t := v.(type) {
	case string:
		s = t
	case float64:
		if math.IsNaN(t) {
			return "", false
		}
		s = strconv.FormatFloat(t, 'f', -1, 64)
	case json.Number:
		s = t.String()
	default:
		s = fmt.Sprint(t)
	}
	s = strings.TrimSpace(s)
	return s, s != ""
}

// FirstText returns the first populated field in preference order.
func (p NormalizedPosting) FirstText(fields ...string) (string, bool) {
	for _, f := range fields {
		if s, ok := p.Text(f); ok {
			return s, true
		}
	}
	return "", false
}

// Number parses field as a float. Values that are absent, blank, NaN or not
// numeric yield ok=false.
func (p NormalizedPosting) Number(field string) (float64, bool) {
	v, exists := p[field]
	if !exists || v == nil {
		return 0, false
	}
	var f float64
	switch t := v.(type) {
	case float64:
		f = t
	case float32:
		f = float64(t)
	case int:
		f = float64(t)
	case int64:
		f = float64(t)
	case json.Number:
		n, err := t.Float64()
		if err != nil {
			return 0, false
		}
		f = n
	case string:
		n, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return 0, false
		}
		f = n
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

type Salary struct {
	Min      sql.NullFloat64 `json:"min"`
	Max      sql.NullFloat64 `json:"max"`
	Currency string          `json:"currency"`
}

type Location struct {
	City     sql.NullString `json:"city"`
	State    sql.NullString `json:"state"`
	Country  string         `json:"country"`
	IsRemote bool           `json:"is_remote"`
}

type Company struct {
	Name          sql.NullString  `json:"name"`
	Rating        sql.NullFloat64 `json:"rating"`
	Size          sql.NullString  `json:"size"`
	OwnershipType sql.NullString  `json:"ownership_type"`
	Industry      sql.NullString  `json:"industry"`
	Sector        sql.NullString  `json:"sector"`
	Revenue       sql.NullString  `json:"revenue"`
}

// EnrichedPosting is derived once per record from its NormalizedPosting and
// the static rule tables. It is never modified after the parser returns it.
type EnrichedPosting struct {
	Fingerprint     string            `json:"fingerprint"`
	Fields          NormalizedPosting `json:"fields"`
	JobTitle        sql.NullString    `json:"job_title"`
	Company         Company           `json:"company"`
	Salary          Salary            `json:"salary"`
	Location        Location          `json:"location"`
	SeniorityLevel  string            `json:"seniority_level"`
	JobCategory     string            `json:"job_category"`
	EmploymentType  string            `json:"employment_type"`
	WorkArrangement string            `json:"work_arrangement"`
	Skills          []string          `json:"skills"`
}

func (p EnrichedPosting) MarshalBinary() ([]byte, error) {
	return json.Marshal(p)
}

func (p *EnrichedPosting) UnmarshalBinary(data []byte) error {
	return json.Unmarshal(data, p)
}

// NullString wraps s as a valid sql.NullString, or an invalid one when s is
// empty.
func NullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func NullFloat(f float64) sql.NullFloat64 {
	return sql.NullFloat64{Float64: f, Valid: true}
}
