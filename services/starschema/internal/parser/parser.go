package parser

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"shenanigigs/services/starschema/internal/models"
	"shenanigigs/services/starschema/internal/rules"
)

var fingerprintNamespace = uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8")

const missingValue = "-1"

type Options struct {
	DefaultCountry  string
	DefaultCurrency string
}

// Parser turns one raw record into an EnrichedPosting. It holds only
// read-only tables and is safe for concurrent use.
type Parser struct {
	rules      *rules.Set
	mapper     *Mapper
	salary     *SalaryNormalizer
	location   *LocationParser
	classifier *Classifier
	skills     *SkillExtractor
}

func New(set *rules.Set, opts Options) *Parser {
	return &Parser{
		rules:      set,
		mapper:     NewMapper(set.ColumnMapping),
		salary:     NewSalaryNormalizer(opts.DefaultCurrency),
		location:   NewLocationParser(opts.DefaultCountry, set.RemoteKeywords),
		classifier: NewClassifier(set),
		skills:     NewSkillExtractor(set.Taxonomy),
	}
}

func (p *Parser) Skills() *SkillExtractor {
	return p.skills
}

func (p *Parser) Rules() *rules.Set {
	return p.rules
}

// Version identifies the rule tables and options in effect. Anything derived
// by one Parser is only reusable by a Parser with the same Version.
func (p *Parser) Version() string {
	data, err := json.Marshal(struct {
		Rules    *rules.Set
		Country  string
		Currency string
	}{p.rules, p.location.country, p.salary.currency})
	if err != nil {
		data = []byte(fmt.Sprint(p.rules))
	}
	return uuid.NewSHA1(fingerprintNamespace, data).String()[:8]
}

// Fingerprint is a name-based UUID of the record's content. Identical records
// share a fingerprint across runs.
func Fingerprint(raw models.RawPosting) string {
	data, err := json.Marshal(raw)
	if err != nil {
		data = []byte(fmt.Sprint(raw))
	}
	return uuid.NewSHA1(fingerprintNamespace, data).String()
}

func (p *Parser) ParsePosting(raw models.RawPosting) *models.EnrichedPosting {
	enriched := p.Enrich(p.mapper.Map(raw))
	enriched.Fingerprint = Fingerprint(raw)
	return enriched
}

// Enrich derives every per-record attribute. Unparsable or missing values
// become nulls or defaults; Enrich never fails.
func (p *Parser) Enrich(n models.NormalizedPosting) *models.EnrichedPosting {
	title, _ := n.FirstText("job_title", "job_title_backup")
	locationText, _ := n.FirstText("location", "location_backup")
	description, _ := n.Text("job_description")

	loc := p.location.Parse(locationText)

	return &models.EnrichedPosting{
		Fields:          n,
		JobTitle:        models.NullString(title),
		Company:         p.company(n),
		Salary:          p.salary.Normalize(n),
		Location:        loc,
		SeniorityLevel:  p.classifier.Seniority(title),
		JobCategory:     p.classifier.JobCategory(title),
		EmploymentType:  p.classifier.EmploymentType(n, title),
		WorkArrangement: p.classifier.WorkArrangement(loc, title, description, locationText),
		Skills:          p.skills.Extract(description),
	}
}

func (p *Parser) company(n models.NormalizedPosting) models.Company {
	name, _ := n.FirstText("company_name", "company_name_backup")

	c := models.Company{
		Name:          models.NullString(cleanCompanyName(name)),
		Size:          models.NullString(p.companySize(n)),
		OwnershipType: attribute(n, "ownership_type"),
		Industry:      attribute(n, "industry", "industry_backup"),
		Sector:        attribute(n, "sector", "sector_backup"),
		Revenue:       attribute(n, "revenue"),
	}

	for _, field := range []string{"company_rating", "company_rating_backup"} {
		if rating, ok := n.Number(field); ok && rating >= 0 {
			c.Rating = models.NullFloat(rating)
			break
		}
	}
	return c
}

func (p *Parser) companySize(n models.NormalizedPosting) string {
	size, ok := n.Text("company_size")
	if !ok || size == missingValue {
		return rules.SizeUnknown
	}
	if std, ok := p.rules.CompanySizes[size]; ok {
		return std
	}
	return size
}

// cleanCompanyName drops the trailing rating some exports append to the
// name, e.g. "TechCo\n3.8".
func cleanCompanyName(name string) string {
	if i := strings.IndexByte(name, '\n'); i >= 0 {
		name = name[:i]
	}
	return strings.TrimSpace(name)
}

func attribute(n models.NormalizedPosting, fields ...string) sql.NullString {
	v, ok := n.FirstText(fields...)
	if !ok || v == missingValue {
		return models.NullString("")
	}
	return models.NullString(v)
}
