package report

import (
	"fmt"
	"io"
	"sort"

	"github.com/olekukonko/tablewriter"

	"shenanigigs/services/starschema/internal/models"
)

const topSkillCount = 5

type SkillCount struct {
	Name  string
	Count int
}

// Summary describes the content of one built star schema.
type Summary struct {
	Postings        int
	WithSalary      int
	RemotePostings  int
	UniqueCompanies int
	UniqueLocations int
	UniqueSkills    int
	BridgeRows      int
	UnresolvedJoins int
	TopSkills       []SkillCount
	Tables          []TableCount
}

type TableCount struct {
	Table string
	Rows  int
}

func (s Summary) SalaryCoverage() float64 {
	return ratio(s.WithSalary, s.Postings)
}

func (s Summary) RemoteShare() float64 {
	return ratio(s.RemotePostings, s.Postings)
}

func (s Summary) SkillsPerPosting() float64 {
	if s.Postings == 0 {
		return 0
	}
	return float64(s.BridgeRows) / float64(s.Postings)
}

func ratio(n, total int) float64 {
	if total == 0 {
		return 0
	}
	return 100 * float64(n) / float64(total)
}

// Summarize derives a Summary from schema. Top skills are ordered by posting
// count, then by skill_id.
func Summarize(schema *models.StarSchema, unresolved int) Summary {
	s := Summary{
		Postings:        len(schema.Facts),
		UniqueCompanies: len(schema.Companies),
		UniqueLocations: len(schema.Locations),
		UniqueSkills:    len(schema.Skills),
		BridgeRows:      len(schema.Bridge),
		UnresolvedJoins: unresolved,
	}

	remote := make(map[int64]bool, len(schema.Locations))
	for _, l := range schema.Locations {
		remote[l.LocationID] = l.IsRemote
	}

	for _, f := range schema.Facts {
		if f.SalaryMin.Valid || f.SalaryMax.Valid {
			s.WithSalary++
		}
		if f.LocationID.Valid && remote[f.LocationID.Int64] {
			s.RemotePostings++
		}
	}

	counts := make(map[int64]int, len(schema.Skills))
	for _, b := range schema.Bridge {
		counts[b.SkillID]++
	}
	skills := make([]models.SkillRow, len(schema.Skills))
	copy(skills, schema.Skills)
	sort.SliceStable(skills, func(i, j int) bool {
		ci, cj := counts[skills[i].SkillID], counts[skills[j].SkillID]
		if ci != cj {
			return ci > cj
		}
		return skills[i].SkillID < skills[j].SkillID
	})
	for _, sk := range skills {
		if len(s.TopSkills) == topSkillCount || counts[sk.SkillID] == 0 {
			break
		}
		s.TopSkills = append(s.TopSkills, SkillCount{Name: sk.SkillName, Count: counts[sk.SkillID]})
	}

	for _, t := range schema.Tables() {
		s.Tables = append(s.Tables, TableCount{Table: t.Name, Rows: len(t.Rows)})
	}
	return s
}

// Render writes the summary as two tables: run metrics and row counts.
func Render(w io.Writer, s Summary) {
	table := tablewriter.NewWriter(w)
	table.SetAutoWrapText(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_CENTER)
	table.SetAutoFormatHeaders(false)
	table.SetBorder(true)
	table.SetHeader([]string{"Metric", "Value"})

	table.Append([]string{"Postings", fmt.Sprint(s.Postings)})
	table.Append([]string{"With salary", fmt.Sprintf("%d (%.1f%%)", s.WithSalary, s.SalaryCoverage())})
	table.Append([]string{"Remote", fmt.Sprintf("%d (%.1f%%)", s.RemotePostings, s.RemoteShare())})
	table.Append([]string{"Unique companies", fmt.Sprint(s.UniqueCompanies)})
	table.Append([]string{"Unique locations", fmt.Sprint(s.UniqueLocations)})
	table.Append([]string{"Unique skills", fmt.Sprint(s.UniqueSkills)})
	table.Append([]string{"Skills per posting", fmt.Sprintf("%.2f", s.SkillsPerPosting())})
	table.Append([]string{"Unresolved joins", fmt.Sprint(s.UnresolvedJoins)})
	for i, sk := range s.TopSkills {
		table.Append([]string{fmt.Sprintf("Top skill #%d", i+1), fmt.Sprintf("%s (%d)", sk.Name, sk.Count)})
	}
	table.Render()

	rows := tablewriter.NewWriter(w)
	rows.SetAutoFormatHeaders(false)
	rows.SetBorder(true)
	rows.SetHeader([]string{"Table", "Rows"})
	for _, t := range s.Tables {
		rows.Append([]string{t.Table, fmt.Sprint(t.Rows)})
	}
	rows.Render()
}
